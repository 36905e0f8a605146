package registry

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pushfan/internal/store"
	logx "pushfan/pkg/logx"
)

type stubReader struct {
	users map[string]store.User
	fail  map[string]error
	calls atomic.Int64
}

func (s *stubReader) GetUser(_ context.Context, id string) (store.User, error) {
	s.calls.Add(1)
	if err, ok := s.fail[id]; ok {
		return store.User{}, err
	}
	u, ok := s.users[id]
	if !ok {
		return store.User{}, ErrNotFound
	}
	return u, nil
}

func (s *stubReader) Close() error { return nil }

func TestResolveTokens(t *testing.T) {
	reader := &stubReader{
		users: map[string]store.User{
			"u-1": {ID: "u-1", PushToken: "tok-1"},
			"u-2": {ID: "u-2"},
			"u-3": {ID: "u-3", PushToken: "tok-3"},
		},
		fail: map[string]error{"u-4": errors.New("read timeout")},
	}
	r := NewResolver(reader, Config{}, logx.Nop())

	res := r.ResolveTokens(context.Background(), []string{"u-1", "u-2", "u-3", "u-4", "u-5"})

	assert.ElementsMatch(t, []string{"tok-1", "tok-3"}, res.Tokens)
	assert.ElementsMatch(t, []string{"u-2", "u-4", "u-5"}, res.Unresolved)
	assert.EqualValues(t, 5, reader.calls.Load(), "every id gets its own read")
}

func TestResolveTokensEmpty(t *testing.T) {
	r := NewResolver(&stubReader{}, Config{}, logx.Nop())
	res := r.ResolveTokens(context.Background(), nil)
	assert.Empty(t, res.Tokens)
	assert.Empty(t, res.Unresolved)
}

func TestResolveTokensBoundedConcurrency(t *testing.T) {
	reader := &stubReader{users: map[string]store.User{}}
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		reader.users[id] = store.User{ID: id, PushToken: "tok-" + id}
	}
	r := NewResolver(reader, Config{LookupConcurrency: 1}, logx.Nop())

	res := r.ResolveTokens(context.Background(), []string{"a", "b", "c", "d", "e", "f"})
	assert.Len(t, res.Tokens, 6)
	assert.Empty(t, res.Unresolved)
}

func TestResolveTokensCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reader := &stubReader{users: map[string]store.User{
		"u-1": {ID: "u-1", PushToken: "tok-1"},
	}}
	r := NewResolver(reader, Config{LookupConcurrency: 1}, logx.Nop())

	// Must return promptly with every id accounted for, not hang on the
	// semaphore.
	res := r.ResolveTokens(ctx, []string{"u-1", "u-2"})
	assert.Equal(t, 2, len(res.Tokens)+len(res.Unresolved))
}

func TestUserSingleRead(t *testing.T) {
	reader := &stubReader{users: map[string]store.User{
		"u-1": {ID: "u-1", DisplayName: "alice"},
	}}
	r := NewResolver(reader, Config{}, logx.Nop())

	u, err := r.User(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.DisplayName)

	_, err = r.User(context.Background(), "u-ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}
