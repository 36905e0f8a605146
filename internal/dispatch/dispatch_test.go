package dispatch

import (
	"context"
	"sync"

	"pushfan/internal/payload"
	"pushfan/internal/push"
	"pushfan/internal/registry"
	"pushfan/internal/store"
	logx "pushfan/pkg/logx"
)

// fakeReader serves a fixed user set and optionally fails specific ids.
type fakeReader struct {
	users map[string]store.User
	fail  map[string]error
}

func (f *fakeReader) GetUser(_ context.Context, id string) (store.User, error) {
	if err, ok := f.fail[id]; ok {
		return store.User{}, err
	}
	u, ok := f.users[id]
	if !ok {
		return store.User{}, registry.ErrNotFound
	}
	return u, nil
}

func (f *fakeReader) Close() error { return nil }

func newResolver(users map[string]store.User, fail map[string]error) *registry.Resolver {
	return registry.NewResolver(&fakeReader{users: users, fail: fail}, registry.Config{}, logx.Nop())
}

// fakeSender records every request and replays configured outcomes.
type fakeSender struct {
	mu sync.Mutex

	multicasts [][]string
	payloads   []payload.Payload
	sends      []string

	multicastErr error
	sendErr      error
	// failTokens marks tokens that fail at the item level.
	failTokens map[string]string
}

func (f *fakeSender) SendMulticast(_ context.Context, tokens []string, p payload.Payload) (*push.BatchOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.multicastErr != nil {
		return nil, f.multicastErr
	}
	f.multicasts = append(f.multicasts, append([]string(nil), tokens...))
	f.payloads = append(f.payloads, p)

	out := &push.BatchOutcome{}
	for _, t := range tokens {
		if reason, bad := f.failTokens[t]; bad {
			out.FailureCount++
			out.Results = append(out.Results, push.DeliveryResult{Token: t, Reason: reason})
			continue
		}
		out.SuccessCount++
		out.Results = append(out.Results, push.DeliveryResult{Token: t, Success: true})
	}
	return out, nil
}

func (f *fakeSender) Send(_ context.Context, token string, p payload.Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sends = append(f.sends, token)
	f.payloads = append(f.payloads, p)
	return nil
}
