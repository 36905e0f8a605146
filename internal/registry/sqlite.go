package registry

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"pushfan/internal/store"
	logx "pushfan/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteReader struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Reader, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers; this side only
	// reads, but keep the pool tiny anyway.
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)

	r := &sqliteReader{db: db, log: log}

	// Basic pragmas.
	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *sqliteReader) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, string(b))
	return err
}

func (r *sqliteReader) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *sqliteReader) GetUser(ctx context.Context, id string) (store.User, error) {
	if r == nil || r.db == nil {
		return store.User{}, errors.New("registry: sqlite reader closed")
	}
	var (
		u     store.User
		name  sql.NullString
		token sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, fcm_token FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &name, &token)
	if errors.Is(err, sql.ErrNoRows) {
		return store.User{}, ErrNotFound
	}
	if err != nil {
		return store.User{}, err
	}
	u.DisplayName = name.String
	u.PushToken = token.String
	return u, nil
}

// PutUser upserts a registry row. The dispatcher never calls this; it
// exists for the projection writer and for tests.
func (r *sqliteReader) PutUser(ctx context.Context, u store.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users(id, username, fcm_token) VALUES(?,?,?)
		 ON CONFLICT(id) DO UPDATE SET username=excluded.username, fcm_token=excluded.fcm_token`,
		u.ID, nullStr(u.DisplayName), nullStr(u.PushToken),
	)
	return err
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
