// Package runner turns store change events into dispatch invocations.
//
// Each event is handled as an independent short-lived task on a small
// worker pool; invocations share no mutable state. Request-level delivery
// faults get a uniform bounded retry with backoff on both dispatch paths;
// per-item failures and skips never retry.
package runner

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"pushfan/internal/dispatch"
	"pushfan/internal/eventbus"
	"pushfan/internal/runtime/supervisor"
	"pushfan/internal/store"
	logx "pushfan/pkg/logx"
)

type Config struct {
	Workers       int           // default 4
	RetryMax      int           // retries after the first attempt, default 2
	RetryBase     time.Duration // default 500ms
	RetryMaxDelay time.Duration // default 10s
}

type Runner struct {
	cfg       Config
	broadcast *dispatch.Broadcast
	chat      *dispatch.ChatDelta
	bus       eventbus.Bus
	log       logx.Logger
}

func New(cfg Config, broadcast *dispatch.Broadcast, chat *dispatch.ChatDelta, bus eventbus.Bus, log logx.Logger) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.RetryMax < 0 {
		cfg.RetryMax = 0
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	if cfg.RetryMaxDelay <= 0 {
		cfg.RetryMaxDelay = 10 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Runner{cfg: cfg, broadcast: broadcast, chat: chat, bus: bus, log: log}
}

// Start launches the worker pool on sup, consuming events until the
// channel closes or the supervisor context ends.
func (r *Runner) Start(sup *supervisor.Supervisor, events <-chan store.Event) {
	for i := 0; i < r.cfg.Workers; i++ {
		name := fmt.Sprintf("runner.worker.%d", i)
		sup.Go(name, func(ctx context.Context) error {
			r.workerLoop(ctx, events)
			return nil
		})
	}
}

func (r *Runner) workerLoop(ctx context.Context, events <-chan store.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			r.Handle(ctx, ev)
		}
	}
}

// Handle runs one invocation, retrying request-level faults.
func (r *Runner) Handle(ctx context.Context, ev store.Event) {
	path := pathFor(ev.Type)
	log := r.log.With(logx.String("path", path), logx.String("id", ev.ID))

	var (
		out dispatch.Outcome
		err error
	)
	for attempt := 0; ; attempt++ {
		out, err = r.invoke(ctx, ev)
		if err == nil || attempt >= r.cfg.RetryMax || ctx.Err() != nil {
			break
		}
		delay := r.backoff(attempt)
		log.Warn("dispatch failed, will retry",
			logx.Int("attempt", attempt+1),
			logx.Duration("delay", delay),
			logx.Err(err),
		)
		if !sleep(ctx, delay) {
			break
		}
	}

	switch {
	case err != nil:
		log.Error("dispatch failed", logx.Int("attempts", r.cfg.RetryMax+1), logx.Err(err))
		r.publish(eventbus.Event{Type: eventbus.TypeFailed, Path: path, Record: ev.ID, Reason: err.Error()})
	case out.State == dispatch.StateSkipped:
		log.Debug("dispatch skipped", logx.String("reason", out.Reason))
		r.publish(eventbus.Event{Type: eventbus.TypeSkipped, Path: path, Record: ev.ID, Reason: out.Reason})
	default:
		e := eventbus.Event{Type: eventbus.TypeReconciled, Path: path, Record: ev.ID}
		if out.Batch != nil {
			e.Sent = out.Batch.SuccessCount
			e.Failed = out.Batch.FailureCount
		}
		r.publish(e)
	}
}

func (r *Runner) invoke(ctx context.Context, ev store.Event) (dispatch.Outcome, error) {
	switch ev.Type {
	case store.EventNotificationCreated:
		return r.broadcast.Dispatch(ctx, *ev.Notification)
	case store.EventChatUpdated:
		return r.chat.DispatchUpdate(ctx, *ev.Before, *ev.After)
	case store.EventChatAppended:
		return r.chat.DispatchAppend(ctx, *ev.Chat, *ev.Message)
	default:
		// Decoding already rejects unknown types; skip defensively anyway.
		return dispatch.Outcome{State: dispatch.StateSkipped, Reason: "unknown event type"}, nil
	}
}

func (r *Runner) publish(e eventbus.Event) {
	if r.bus != nil {
		r.bus.Publish(e)
	}
}

// backoff doubles from RetryBase, capped at RetryMaxDelay, with a little
// jitter so a burst of failing invocations does not retry in lockstep.
func (r *Runner) backoff(attempt int) time.Duration {
	d := r.cfg.RetryBase << attempt
	if d > r.cfg.RetryMaxDelay || d <= 0 {
		d = r.cfg.RetryMaxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(d)/4 + 1))
	return d + jitter
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func pathFor(t store.EventType) string {
	if t == store.EventNotificationCreated {
		return "broadcast"
	}
	return "chat"
}
