package blog

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// Audit actions.
const (
	ActionLoginSuccess = "login.success"
	ActionLoginFailure = "login.failure"
	ActionLogout       = "logout"
	ActionCreatePost   = "post.create"
	ActionPublish      = "post.publish"
)

// AuditEvent is one row of the admin audit log.
type AuditEvent struct {
	ID     string
	At     time.Time
	Action string
	Actor  string
	IP     string
	Detail string
}

// Store wraps a SQLite database holding the audit log.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and creates the schema.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets the dashboard read while a login writes; busy_timeout makes
	// writers wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS audit_events (
    id TEXT PRIMARY KEY,
    at TEXT NOT NULL,
    action TEXT NOT NULL,
    actor TEXT NOT NULL,
    ip TEXT NOT NULL,
    detail TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS audit_events_at ON audit_events (at);
`)
	return err
}

// Record appends ev to the log, assigning its ID and time when unset.
func (s *Store) Record(ctx context.Context, ev AuditEvent) (AuditEvent, error) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	ev.At = ev.At.UTC()
	if ev.ID == "" {
		ev.ID = ulid.Make().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_events (id, at, action, actor, ip, detail) VALUES (?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.At.Format(time.RFC3339Nano), ev.Action, ev.Actor, ev.IP, ev.Detail)
	return ev, err
}

// RecentEvents returns up to limit events, newest first.
func (s *Store) RecentEvents(ctx context.Context, limit int) ([]AuditEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, at, action, actor, ip, detail FROM audit_events ORDER BY at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []AuditEvent
	for rows.Next() {
		var ev AuditEvent
		var at string
		if err := rows.Scan(&ev.ID, &at, &ev.Action, &ev.Actor, &ev.IP, &ev.Detail); err != nil {
			return nil, err
		}
		ev.At, _ = time.Parse(time.RFC3339Nano, at)
		events = append(events, ev)
	}
	return events, rows.Err()
}
