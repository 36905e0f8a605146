package registry

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/time/rate"

	"pushfan/internal/store"
	logx "pushfan/pkg/logx"
)

// Resolution is the outcome of resolving a recipient set.
type Resolution struct {
	// Tokens holds the resolvable push tokens. No particular order.
	Tokens []string
	// Unresolved lists recipient ids that yielded no token: missing
	// document, empty token field, or a failed read.
	Unresolved []string
}

// Resolver maps recipient ids to push tokens.
//
// Lookups are independent point reads issued concurrently; each failure is
// isolated and logged so one bad recipient never blocks the rest.
type Resolver struct {
	reader  Reader
	log     logx.Logger
	sem     chan struct{}
	limiter *rate.Limiter
}

func NewResolver(reader Reader, cfg Config, log logx.Logger) *Resolver {
	if log.IsZero() {
		log = logx.Nop()
	}
	conc := cfg.LookupConcurrency
	if conc <= 0 {
		conc = 8
	}
	var lim *rate.Limiter
	if cfg.LookupRatePerSec > 0 {
		lim = rate.NewLimiter(rate.Limit(cfg.LookupRatePerSec), cfg.LookupRatePerSec)
	}
	return &Resolver{
		reader:  reader,
		log:     log,
		sem:     make(chan struct{}, conc),
		limiter: lim,
	}
}

// User is a single point read, used where a full resolution is overkill
// (e.g. sender display-name lookup).
func (r *Resolver) User(ctx context.Context, id string) (store.User, error) {
	return r.lookup(ctx, id)
}

// ResolveTokens resolves ids to tokens. Each lookup runs in its own
// goroutine and writes only its own slot; a single join merges the slots,
// so there is no shared mutable accumulator.
func (r *Resolver) ResolveTokens(ctx context.Context, ids []string) Resolution {
	type slot struct {
		token string
		ok    bool
	}
	slots := make([]slot, len(ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()

			select {
			case r.sem <- struct{}{}:
				defer func() { <-r.sem }()
			case <-ctx.Done():
				return
			}

			u, err := r.lookup(ctx, id)
			switch {
			case errors.Is(err, ErrNotFound):
				r.log.Warn("recipient has no registry document", logx.String("user", id))
			case err != nil:
				r.log.Warn("recipient lookup failed", logx.String("user", id), logx.Err(err))
			case u.PushToken == "":
				r.log.Warn("recipient has no push token", logx.String("user", id))
			default:
				slots[i] = slot{token: u.PushToken, ok: true}
			}
		}(i, id)
	}
	wg.Wait()

	var res Resolution
	for i, s := range slots {
		if s.ok {
			res.Tokens = append(res.Tokens, s.token)
		} else {
			res.Unresolved = append(res.Unresolved, ids[i])
		}
	}
	return res
}

func (r *Resolver) lookup(ctx context.Context, id string) (store.User, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return store.User{}, err
		}
	}
	return r.reader.GetUser(ctx, id)
}
