// Package registry reads the user registry and resolves push tokens.
//
// The registry itself is owned by an external collaborator; this package
// only performs point reads keyed by user id.
package registry

import (
	"context"
	"errors"
	"strings"
	"time"

	"pushfan/internal/store"
	logx "pushfan/pkg/logx"
)

// ErrNotFound reports a user id with no registry document.
var ErrNotFound = errors.New("registry: user not found")

// Reader is a point-read view of the user registry.
type Reader interface {
	// GetUser returns the registry document for id, or ErrNotFound.
	GetUser(ctx context.Context, id string) (store.User, error)
	Close() error
}

// Config configures the registry backend and lookup pacing.
//
// Driver values:
//   - "sqlite": SQLite database file (local projection of the user store)
//   - "static": fixed in-memory user set (dev/tests)
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default

	// Users seeds the static driver.
	Users []store.User

	// LookupConcurrency bounds in-flight point reads per resolution
	// (default 8). LookupRatePerSec paces reads against the backend
	// (0 disables pacing).
	LookupConcurrency int
	LookupRatePerSec  int
}

// Open initializes the configured registry reader.
func Open(cfg Config, log logx.Logger) (Reader, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "static":
		return newStatic(cfg.Users), nil
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown registry driver: " + cfg.Driver)
	}
}

// ---- static driver ----

type staticReader struct {
	users map[string]store.User
}

func newStatic(users []store.User) *staticReader {
	m := make(map[string]store.User, len(users))
	for _, u := range users {
		m[u.ID] = u
	}
	return &staticReader{users: m}
}

func (r *staticReader) GetUser(_ context.Context, id string) (store.User, error) {
	u, ok := r.users[id]
	if !ok {
		return store.User{}, ErrNotFound
	}
	return u, nil
}

func (r *staticReader) Close() error { return nil }
