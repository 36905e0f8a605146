// Package push defines the delivery gateway the dispatchers talk to.
//
// Retries inside the transport, token validity, and platform backoff all
// belong to the gateway; this side only submits a request and interprets
// per-item results.
package push

import (
	"context"

	"pushfan/internal/payload"
	logx "pushfan/pkg/logx"
)

// DeliveryResult is the per-token outcome of a multicast item.
type DeliveryResult struct {
	Token   string
	Success bool
	// Reason is set when Success is false.
	Reason string
}

// BatchOutcome aggregates one multicast request.
type BatchOutcome struct {
	SuccessCount int
	FailureCount int
	Results      []DeliveryResult
}

// Sender delivers rendered payloads to device tokens.
//
// SendMulticast returns a non-nil error only for request-level faults
// (transport unreachable, auth failure); individual token failures live in
// the BatchOutcome. Send covers the single-target chat path.
type Sender interface {
	SendMulticast(ctx context.Context, tokens []string, p payload.Payload) (*BatchOutcome, error)
	Send(ctx context.Context, token string, p payload.Payload) error
}

// ShortToken trims a device token for logs. Tokens are opaque but long;
// the first 20 characters are enough to correlate.
func ShortToken(token string) string {
	if len(token) <= 20 {
		return token
	}
	return token[:20] + "..."
}

// ---- dry-run sender ----

// DryRun logs payloads instead of delivering them. Every item "succeeds".
type DryRun struct {
	Log logx.Logger
}

func (d DryRun) SendMulticast(_ context.Context, tokens []string, p payload.Payload) (*BatchOutcome, error) {
	d.Log.Info("dry-run multicast",
		logx.Int("tokens", len(tokens)),
		logx.String("title", p.Title),
		logx.String("body", p.Body),
		logx.Any("data", p.Data),
	)
	out := &BatchOutcome{SuccessCount: len(tokens)}
	for _, t := range tokens {
		out.Results = append(out.Results, DeliveryResult{Token: t, Success: true})
	}
	return out, nil
}

func (d DryRun) Send(_ context.Context, token string, p payload.Payload) error {
	d.Log.Info("dry-run send",
		logx.String("token", ShortToken(token)),
		logx.String("title", p.Title),
		logx.String("body", p.Body),
	)
	return nil
}
