package store

type EventType string

const (
	// EventNotificationCreated fires when a notification document is created.
	EventNotificationCreated EventType = "notification.created"

	// EventChatUpdated fires on a chat document update and carries
	// before/after snapshots. Whether a message was appended has to be
	// inferred from the pair.
	EventChatUpdated EventType = "chat.updated"

	// EventChatAppended is the explicit append event: it names the new
	// message directly, so no snapshot diffing is needed. Stores that can
	// emit it should prefer it over EventChatUpdated.
	EventChatAppended EventType = "chat.appended"
)

// Event is one store change delivered to the dispatcher. Exactly the
// pointers relevant to Type are set.
type Event struct {
	Type EventType
	// ID is the id of the triggering document.
	ID string

	// EventNotificationCreated
	Notification *Notification

	// EventChatUpdated
	Before *Chat
	After  *Chat

	// EventChatAppended
	Chat    *Chat
	Message *Message
}
