package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pushfan/internal/store"
)

func TestDecodeNotificationCreated(t *testing.T) {
	raw := []byte(`{
		"type": "notification.created",
		"id": "n-1",
		"record": {
			"userIds": ["u-1", "u-2"],
			"title": "Payment received",
			"content": "You got paid",
			"type": "payment",
			"transactionId": "tx-9",
			"chatId": "c-3"
		}
	}`)

	ev, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, store.EventNotificationCreated, ev.Type)
	require.NotNil(t, ev.Notification)
	assert.Equal(t, "n-1", ev.Notification.ID, "document id filled from envelope id")
	assert.Equal(t, []string{"u-1", "u-2"}, ev.Notification.RecipientIDs)
	assert.Equal(t, "payment", ev.Notification.Category)
	require.NotNil(t, ev.Notification.ChatID)
	assert.Equal(t, "c-3", *ev.Notification.ChatID)
	assert.Nil(t, ev.Notification.SellerID)
}

func TestDecodeChatUpdated(t *testing.T) {
	raw := []byte(`{
		"type": "chat.updated",
		"id": "c-1",
		"before": {"userIds": {"sender": "u-1", "receiver": "u-2"}, "messages": []},
		"after": {
			"userIds": {"sender": "u-1", "receiver": "u-2"},
			"messages": [{"senderId": "u-1", "type": "text", "content": "hi"}]
		}
	}`)

	ev, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, store.EventChatUpdated, ev.Type)
	require.NotNil(t, ev.Before)
	require.NotNil(t, ev.After)
	assert.Equal(t, "c-1", ev.After.ID)
	require.Len(t, ev.After.Messages, 1)
	assert.Equal(t, store.MessageText, ev.After.Messages[0].Kind)
}

func TestDecodeChatAppended(t *testing.T) {
	raw := []byte(`{
		"type": "chat.appended",
		"id": "c-1",
		"chat": {"userIds": {"sender": "u-1", "receiver": "u-2"}},
		"message": {"senderId": "u-2", "type": "image"}
	}`)

	ev, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, store.EventChatAppended, ev.Type)
	require.NotNil(t, ev.Chat)
	assert.Equal(t, "c-1", ev.Chat.ID)
	require.NotNil(t, ev.Message)
	assert.Equal(t, store.MessageImage, ev.Message.Kind)
}

func TestDecodeRejections(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `nope`},
		{"unknown field", `{"type": "notification.created", "id": "n-1", "record": {}, "extra": true}`},
		{"unknown type", `{"type": "chat.deleted", "id": "c-1"}`},
		{"created without record", `{"type": "notification.created", "id": "n-1"}`},
		{"updated without before", `{"type": "chat.updated", "id": "c-1", "after": {}}`},
		{"updated without after", `{"type": "chat.updated", "id": "c-1", "before": {}}`},
		{"appended without message", `{"type": "chat.appended", "id": "c-1", "chat": {}}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.raw))
			assert.Error(t, err)
		})
	}
}
