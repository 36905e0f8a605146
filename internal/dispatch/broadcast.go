package dispatch

import (
	"context"
	"fmt"
	"time"

	"pushfan/internal/payload"
	"pushfan/internal/push"
	"pushfan/internal/registry"
	"pushfan/internal/store"
	logx "pushfan/pkg/logx"
)

// Broadcast resolves a notification's recipient set and fans one shared
// payload out as a single multicast request.
type Broadcast struct {
	resolver    *registry.Resolver
	sender      push.Sender
	collapseKey payload.CollapseKeyFunc
	log         logx.Logger
}

func NewBroadcast(resolver *registry.Resolver, sender push.Sender, key payload.CollapseKeyFunc, log logx.Logger) *Broadcast {
	if key == nil {
		key = payload.TimestampCollapseKey
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Broadcast{resolver: resolver, sender: sender, collapseKey: key, log: log}
}

// Dispatch handles one created notification record.
//
// An empty recipient set or an empty resolved token set terminates as
// Skipped. Per-token delivery failures never fail the dispatch; a
// request-level fault does, so the caller can retry the invocation.
func (d *Broadcast) Dispatch(ctx context.Context, n store.Notification) (Outcome, error) {
	log := d.log.With(logx.String("notification", n.ID), logx.String("category", n.Category))

	if len(n.RecipientIDs) == 0 {
		log.Info("no recipients on notification record")
		return skipped("no recipients"), nil
	}

	res := d.resolver.ResolveTokens(ctx, n.RecipientIDs)
	if len(res.Unresolved) > 0 {
		log.Warn("some recipients did not resolve",
			logx.Int("unresolved", len(res.Unresolved)),
			logx.Strings("users", res.Unresolved),
		)
	}
	if len(res.Tokens) == 0 {
		log.Info("no push tokens resolved for notification")
		return skipped("no tokens"), nil
	}

	p := payload.ForBroadcast(n, d.collapseKey)

	start := time.Now()
	batch, err := d.sender.SendMulticast(ctx, res.Tokens, p)
	if err != nil {
		return Outcome{}, fmt.Errorf("multicast request: %w", err)
	}

	for _, r := range batch.Results {
		if !r.Success {
			log.Warn("delivery failed for token",
				logx.String("token", push.ShortToken(r.Token)),
				logx.String("reason", r.Reason),
			)
		}
	}
	fields := []logx.Field{
		logx.Int("sent", batch.SuccessCount),
		logx.Int("failed", batch.FailureCount),
		logx.Duration("dur", time.Since(start)),
	}
	if batch.FailureCount > 0 {
		log.Warn("broadcast reconciled with failures", fields...)
	} else {
		log.Info("broadcast reconciled", fields...)
	}
	return reconciled(batch), nil
}
