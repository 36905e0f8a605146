package store

// Notification is a notification document as written by upstream business
// logic. The dispatcher only reads it; it never mutates or deletes one.
//
// JSON tags follow the document field names used by the store.
type Notification struct {
	ID            string   `json:"id"`
	RecipientIDs  []string `json:"userIds"`
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Category      string   `json:"type"`
	TransactionID string   `json:"transactionId"`

	// Optional correlation fields. nil means the field is absent on the
	// source document, which is distinct from present-but-empty.
	ChatID   *string `json:"chatId,omitempty"`
	SellerID *string `json:"sellerId,omitempty"`
	BuyerID  *string `json:"buyerId,omitempty"`
	ItemID   *string `json:"itemId,omitempty"`
}

// Well-known notification categories. The dispatcher treats the category as
// an opaque routing value; these constants exist for logs and tests.
const (
	CategoryPayment = "payment"
	CategoryChat    = "chat"
	CategorySystem  = "system"
)

// User is the registry view of a user: just enough to address a push.
// A user without a push token is a valid state (recipient is skipped).
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"username"`
	PushToken   string `json:"fcmToken,omitempty"`
}

// Participants identifies the two sides of a chat. The store keeps them
// under the roles they had when the chat was opened.
type Participants struct {
	Initiator    string `json:"sender"`
	Counterparty string `json:"receiver"`
}

// Other returns the participant that is not id ("" if id is neither).
func (p Participants) Other(id string) string {
	switch id {
	case p.Initiator:
		return p.Counterparty
	case p.Counterparty:
		return p.Initiator
	default:
		return ""
	}
}

type MessageKind string

const (
	MessageText  MessageKind = "text"
	MessageImage MessageKind = "image"
)

type Message struct {
	SenderID string      `json:"senderId"`
	Kind     MessageKind `json:"type"`
	// Body carries the message text when Kind is "text".
	Body string `json:"content,omitempty"`
}

// Chat is a chat document snapshot. Messages are append-only from the
// dispatcher's point of view.
type Chat struct {
	ID           string       `json:"id"`
	Participants Participants `json:"userIds"`
	Messages     []Message    `json:"messages"`
}

// LastMessage returns the newest message (nil if the chat is empty).
func (c Chat) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[len(c.Messages)-1]
}
