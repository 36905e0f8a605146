package registry

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pushfan/internal/store"
	logx "pushfan/pkg/logx"
)

func TestOpenDriverSelection(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default is static", Config{}, false},
		{"static explicit", Config{Driver: "static"}, false},
		{"static case-insensitive", Config{Driver: " Static "}, false},
		{"sqlite without path", Config{Driver: "sqlite"}, true},
		{"unknown driver", Config{Driver: "postgres"}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, err := Open(tc.cfg, logx.Nop())
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NoError(t, r.Close())
		})
	}
}

func TestStaticReader(t *testing.T) {
	r, err := Open(Config{Users: []store.User{
		{ID: "u-1", DisplayName: "alice", PushToken: "tok-1"},
	}}, logx.Nop())
	require.NoError(t, err)
	defer r.Close()

	u, err := r.GetUser(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.DisplayName)
	assert.Equal(t, "tok-1", u.PushToken)

	_, err = r.GetUser(context.Background(), "u-ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteReader(t *testing.T) {
	ctx := context.Background()
	cfg := Config{
		Driver:      "sqlite",
		Path:        filepath.Join(t.TempDir(), "registry.db"),
		BusyTimeout: time.Second,
	}

	r, err := Open(cfg, logx.Nop())
	require.NoError(t, err)
	defer r.Close()

	w, ok := r.(*sqliteReader)
	require.True(t, ok)

	require.NoError(t, w.PutUser(ctx, store.User{ID: "u-1", DisplayName: "alice", PushToken: "tok-1"}))
	require.NoError(t, w.PutUser(ctx, store.User{ID: "u-2"}))

	u, err := r.GetUser(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, store.User{ID: "u-1", DisplayName: "alice", PushToken: "tok-1"}, u)

	// NULL columns read back as empty strings.
	u, err = r.GetUser(ctx, "u-2")
	require.NoError(t, err)
	assert.Empty(t, u.DisplayName)
	assert.Empty(t, u.PushToken)

	_, err = r.GetUser(ctx, "u-ghost")
	assert.ErrorIs(t, err, ErrNotFound)

	// Upsert replaces in place.
	require.NoError(t, w.PutUser(ctx, store.User{ID: "u-1", DisplayName: "alice", PushToken: "tok-new"}))
	u, err = r.GetUser(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "tok-new", u.PushToken)
}
