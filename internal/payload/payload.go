// Package payload shapes push payloads from store records.
//
// Builders are pure: they never mutate their inputs, and for fixed inputs
// the output is fixed too. The single impure input, the broadcast collapse
// key, is injected as a CollapseKeyFunc so callers (and tests) control it.
package payload

import (
	"time"

	"pushfan/internal/store"
)

const (
	// ChannelID is the Android notification channel the client registers.
	ChannelID = "wesell_channel"

	// ClickAction is the routing marker the mobile client dispatches on.
	ClickAction = "FLUTTER_NOTIFICATION_CLICK"

	// DefaultChatTitle is used when the sender has no display name.
	DefaultChatTitle = "New Message"

	// ImageBody replaces the body of image messages.
	ImageBody = "Sent an image"

	// BroadcastAnalyticsLabel tags broadcast sends for delivery analytics.
	BroadcastAnalyticsLabel = "payment_notification"

	// maxChatBody bounds the chat preview length (in runes).
	maxChatBody = 100
)

// Payload is the platform-neutral push content plus both platform envelopes.
type Payload struct {
	Title string
	Body  string
	Data  map[string]string

	Android Android
	APNS    APNS

	// AnalyticsLabel is set on broadcast payloads only.
	AnalyticsLabel string
}

// Android is the Android-side envelope.
//
// TTL is optional: nil leaves the gateway default, a zero duration means
// deliver-now-or-never (no caching).
type Android struct {
	Priority       string
	TTL            *time.Duration
	CollapseKey    string
	ChannelID      string
	DefaultSound   bool
	Sticky         bool
	LocalOnly      bool
	DefaultVibrate bool
	Visibility     string
}

// APNS is the Apple-side envelope. The alert title/body mirror the
// top-level Title/Body.
type APNS struct {
	Headers          map[string]string
	Sound            string
	Badge            int
	ContentAvailable bool
	MutableContent   bool
}

// ForBroadcast builds the shared payload for one notification record.
// Optional correlation fields are included iff present on the record;
// absent fields never become empty-string placeholders.
func ForBroadcast(n store.Notification, key CollapseKeyFunc) Payload {
	data := map[string]string{
		"type":           n.Category,
		"transactionId":  n.TransactionID,
		"notificationId": n.ID,
		"click_action":   ClickAction,
	}
	putOpt(data, "chatId", n.ChatID)
	putOpt(data, "sellerId", n.SellerID)
	putOpt(data, "buyerId", n.BuyerID)
	putOpt(data, "itemId", n.ItemID)

	ttl := time.Duration(0)
	return Payload{
		Title: n.Title,
		Body:  n.Content,
		Data:  data,
		Android: Android{
			Priority:       "high",
			TTL:            &ttl,
			CollapseKey:    key(n.Category),
			ChannelID:      ChannelID,
			DefaultSound:   true,
			DefaultVibrate: true,
			Visibility:     "public",
		},
		APNS: APNS{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Sound:            "default",
			Badge:            1,
			ContentAvailable: true,
			MutableContent:   true,
		},
		AnalyticsLabel: BroadcastAnalyticsLabel,
	}
}

// ForChat builds the single-target payload for one new chat message.
func ForChat(sender store.User, chatID string, msg store.Message) Payload {
	title := sender.DisplayName
	if title == "" {
		title = DefaultChatTitle
	}

	body := ImageBody
	if msg.Kind == store.MessageText {
		body = truncate(msg.Body, maxChatBody)
	}

	return Payload{
		Title: title,
		Body:  body,
		Data: map[string]string{
			"type":         "chat",
			"chatId":       chatID,
			"senderId":     msg.SenderID,
			"click_action": ClickAction,
		},
		Android: Android{
			Priority:     "high",
			ChannelID:    ChannelID,
			DefaultSound: true,
		},
		APNS: APNS{
			Sound: "default",
			Badge: 1,
		},
	}
}

func putOpt(data map[string]string, key string, v *string) {
	if v != nil {
		data[key] = *v
	}
}

// truncate cuts s at max runes and appends "..." when it actually cut.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
