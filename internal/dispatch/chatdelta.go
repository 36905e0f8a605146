package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"pushfan/internal/payload"
	"pushfan/internal/push"
	"pushfan/internal/registry"
	"pushfan/internal/store"
	logx "pushfan/pkg/logx"
)

// ChatDelta delivers a push for a newly appended chat message to the
// message's counter-party.
//
// It accepts two trigger shapes. DispatchAppend consumes an explicit
// append event naming the new message; prefer it where the store can emit
// one. DispatchUpdate falls back to the before/after length heuristic:
// a message counts as new iff the sequence grew, and the new message is
// taken to be the last element. Under concurrent or compacting writers
// the heuristic can miss or misattribute messages; that is inherent to
// snapshot diffing, which is why the append event exists.
type ChatDelta struct {
	resolver *registry.Resolver
	sender   push.Sender
	log      logx.Logger
}

func NewChatDelta(resolver *registry.Resolver, sender push.Sender, log logx.Logger) *ChatDelta {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &ChatDelta{resolver: resolver, sender: sender, log: log}
}

// DispatchUpdate handles a before/after snapshot pair.
func (d *ChatDelta) DispatchUpdate(ctx context.Context, before, after store.Chat) (Outcome, error) {
	if len(after.Messages) <= len(before.Messages) {
		return skipped("no new message"), nil
	}
	msg := after.LastMessage()
	return d.dispatch(ctx, after, *msg)
}

// DispatchAppend handles an explicit append event.
func (d *ChatDelta) DispatchAppend(ctx context.Context, chat store.Chat, msg store.Message) (Outcome, error) {
	return d.dispatch(ctx, chat, msg)
}

func (d *ChatDelta) dispatch(ctx context.Context, chat store.Chat, msg store.Message) (Outcome, error) {
	log := d.log.With(logx.String("chat", chat.ID), logx.String("sender", msg.SenderID))

	receiverID := chat.Participants.Other(msg.SenderID)
	if receiverID == "" {
		log.Warn("message sender is not a chat participant")
		return skipped("sender not a participant"), nil
	}

	// Sender and receiver reads are independent; issue both at once and
	// join before building the payload. Each goroutine writes only its
	// own slot.
	type lookup struct {
		user store.User
		err  error
	}
	var (
		wg       sync.WaitGroup
		sender   lookup
		receiver lookup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		sender.user, sender.err = d.resolver.User(ctx, msg.SenderID)
	}()
	go func() {
		defer wg.Done()
		receiver.user, receiver.err = d.resolver.User(ctx, receiverID)
	}()
	wg.Wait()

	if errors.Is(sender.err, registry.ErrNotFound) || errors.Is(receiver.err, registry.ErrNotFound) {
		log.Info("sender or receiver not found", logx.String("receiver", receiverID))
		return skipped("participant not found"), nil
	}
	if sender.err != nil {
		return Outcome{}, fmt.Errorf("sender lookup: %w", sender.err)
	}
	if receiver.err != nil {
		return Outcome{}, fmt.Errorf("receiver lookup: %w", receiver.err)
	}
	if receiver.user.PushToken == "" {
		log.Info("receiver has no push token", logx.String("receiver", receiverID))
		return skipped("receiver has no token"), nil
	}

	p := payload.ForChat(sender.user, chat.ID, msg)
	if err := d.sender.Send(ctx, receiver.user.PushToken, p); err != nil {
		return Outcome{}, fmt.Errorf("chat delivery: %w", err)
	}

	log.Info("chat notification sent",
		logx.String("receiver", receiverID),
		logx.String("token", push.ShortToken(receiver.user.PushToken)),
	)
	return reconciled(&push.BatchOutcome{
		SuccessCount: 1,
		Results:      []push.DeliveryResult{{Token: receiver.user.PushToken, Success: true}},
	}), nil
}
