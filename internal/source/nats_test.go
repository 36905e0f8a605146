package source

import (
	"testing"

	natspkg "github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pushfan/internal/store"
	logx "pushfan/pkg/logx"
)

func testSource(buffer int) *NATSSource {
	return &NATSSource{
		events: make(chan store.Event, buffer),
		log:    logx.Nop(),
	}
}

func TestHandleDeliversDecodedEvent(t *testing.T) {
	s := testSource(1)

	s.handle(&natspkg.Msg{
		Subject: "store.notifications.created",
		Data:    []byte(`{"type": "notification.created", "id": "n-1", "record": {"userIds": ["u-1"]}}`),
	})

	select {
	case ev := <-s.events:
		assert.Equal(t, store.EventNotificationCreated, ev.Type)
		require.NotNil(t, ev.Notification)
		assert.Equal(t, "n-1", ev.Notification.ID)
	default:
		t.Fatal("expected a decoded event")
	}
}

func TestHandleDropsUndecodable(t *testing.T) {
	s := testSource(1)

	s.handle(&natspkg.Msg{Subject: "store.notifications.created", Data: []byte(`garbage`)})
	assert.Empty(t, s.events)
}

func TestHandleDropsOnFullBuffer(t *testing.T) {
	s := testSource(1)
	raw := []byte(`{"type": "chat.appended", "id": "c-1", "chat": {}, "message": {"senderId": "u-1", "type": "text"}}`)

	// Must not block once the buffer is full.
	s.handle(&natspkg.Msg{Subject: "store.chats.appended", Data: raw})
	s.handle(&natspkg.Msg{Subject: "store.chats.appended", Data: raw})

	assert.Len(t, s.events, 1)
}
