// Package source delivers store change events to the runner.
//
// The document store publishes one JSON envelope per change; this package
// decodes envelopes into store.Event values. The store's own durability,
// trigger, and query semantics stay on the store's side of the fence.
package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"pushfan/internal/store"
)

// Source is a stream of store change events.
type Source interface {
	Events() <-chan store.Event
	Close()
}

// envelope is the wire shape of one change notification.
type envelope struct {
	Type   store.EventType     `json:"type"`
	ID     string              `json:"id"`
	Record *store.Notification `json:"record,omitempty"`

	Before *store.Chat `json:"before,omitempty"`
	After  *store.Chat `json:"after,omitempty"`

	Chat    *store.Chat    `json:"chat,omitempty"`
	Message *store.Message `json:"message,omitempty"`
}

// Decode parses one change envelope. Unknown fields are rejected so a
// schema drift upstream surfaces as a decode error, not silent data loss.
func Decode(data []byte) (store.Event, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var env envelope
	if err := dec.Decode(&env); err != nil {
		return store.Event{}, fmt.Errorf("decode change envelope: %w", err)
	}

	ev := store.Event{Type: env.Type, ID: env.ID}
	switch env.Type {
	case store.EventNotificationCreated:
		if env.Record == nil {
			return store.Event{}, errors.New("notification.created envelope has no record")
		}
		ev.Notification = env.Record
		if ev.Notification.ID == "" {
			ev.Notification.ID = env.ID
		}
	case store.EventChatUpdated:
		if env.Before == nil || env.After == nil {
			return store.Event{}, errors.New("chat.updated envelope needs before and after snapshots")
		}
		ev.Before, ev.After = env.Before, env.After
		if ev.After.ID == "" {
			ev.After.ID = env.ID
		}
	case store.EventChatAppended:
		if env.Chat == nil || env.Message == nil {
			return store.Event{}, errors.New("chat.appended envelope needs chat and message")
		}
		ev.Chat, ev.Message = env.Chat, env.Message
		if ev.Chat.ID == "" {
			ev.Chat.ID = env.ID
		}
	default:
		return store.Event{}, fmt.Errorf("unknown change type %q", env.Type)
	}
	return ev, nil
}
