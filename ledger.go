package tgscreenshots

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound is returned by ledger lookups that match no row.
	ErrNotFound = errors.New("ledger: record not found")

	// ErrConstraintViolation is returned when an insert collides with an
	// existing primary key. In normal operation this signals a bug.
	ErrConstraintViolation = errors.New("ledger: constraint violation")
)

// ScreenshotRecord is one delivered message for a given content hash.
type ScreenshotRecord struct {
	MessageID int64     `json:"message_id"`
	Hash      string    `json:"hash"`
	SentAt    time.Time `json:"sent_at"`
}

// ThreadRecord maps a logical thread name to a remote forum topic id.
type ThreadRecord struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Ledger is the persistent store of sent screenshots and resolved threads.
// Every method returns only after the write (if any) is durable.
type Ledger interface {
	RecordScreenshot(ctx context.Context, messageID int64, hash string, sentAt time.Time) error
	FindScreenshotByHash(ctx context.Context, hash string) (*ScreenshotRecord, error)
	ListScreenshots(ctx context.Context) ([]ScreenshotRecord, error)
	RecordThread(ctx context.Context, thread ThreadRecord) error
	FindThreadByName(ctx context.Context, name string) (*ThreadRecord, error)
	ListThreads(ctx context.Context) ([]ThreadRecord, error)
}

// SQLiteLedger is the Ledger backed by a local SQLite file.
type SQLiteLedger struct {
	db *sql.DB
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS screenshots (
		messageId INTEGER PRIMARY KEY,
		hash TEXT NOT NULL,
		sentAt INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS screenshots_hash ON screenshots (hash)`,
	`CREATE TABLE IF NOT EXISTS threads (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS threads_name ON threads (name)`,
}

// OpenLedger opens (creating if needed) the ledger at path and ensures the
// schema exists. synchronous=FULL makes each autocommitted insert durable
// before it returns.
func OpenLedger(path string) (*SQLiteLedger, error) {
	p := filepath.Clean(strings.TrimSpace(path))
	if p == "" || p == "." {
		return nil, errors.New("ledger: missing db path")
	}
	if dir := filepath.Dir(p); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ledger: create dir: %w", err)
		}
	}

	dsn := "file:" + p +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(FULL)" +
		"&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("ledger: open %s: %w", p, err)
	}
	// One connection serializes writers inside the process; other
	// processes are handled by SQLite's own locking and busy_timeout.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ledger: ping %s: %w", p, err)
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ledger: init schema: %w", err)
		}
	}
	return &SQLiteLedger{db: db}, nil
}

// Close closes the underlying database.
func (l *SQLiteLedger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

func (l *SQLiteLedger) RecordScreenshot(ctx context.Context, messageID int64, hash string, sentAt time.Time) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO screenshots (messageId, hash, sentAt) VALUES (?, ?, ?)`,
		messageID, hash, sentAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record screenshot %d: %w", messageID, classify(err))
	}
	return nil
}

// FindScreenshotByHash returns the most recently sent record for hash.
// Several rows may share a hash when a file was sent in more than one mode.
func (l *SQLiteLedger) FindScreenshotByHash(ctx context.Context, hash string) (*ScreenshotRecord, error) {
	var rec ScreenshotRecord
	var sentAt int64
	err := l.db.QueryRowContext(ctx,
		`SELECT messageId, hash, sentAt FROM screenshots WHERE hash = ? ORDER BY sentAt DESC, messageId DESC LIMIT 1`,
		hash,
	).Scan(&rec.MessageID, &rec.Hash, &sentAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find screenshot by hash: %w", err)
	}
	rec.SentAt = time.UnixMilli(sentAt)
	return &rec, nil
}

// ListScreenshots returns every record, newest sent first.
func (l *SQLiteLedger) ListScreenshots(ctx context.Context) ([]ScreenshotRecord, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT messageId, hash, sentAt FROM screenshots ORDER BY sentAt DESC, messageId DESC`)
	if err != nil {
		return nil, fmt.Errorf("list screenshots: %w", err)
	}
	defer rows.Close()

	var out []ScreenshotRecord
	for rows.Next() {
		var rec ScreenshotRecord
		var sentAt int64
		if err := rows.Scan(&rec.MessageID, &rec.Hash, &sentAt); err != nil {
			return nil, fmt.Errorf("list screenshots: %w", err)
		}
		rec.SentAt = time.UnixMilli(sentAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (l *SQLiteLedger) RecordThread(ctx context.Context, thread ThreadRecord) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO threads (id, name) VALUES (?, ?)`, thread.ID, thread.Name)
	if err != nil {
		return fmt.Errorf("record thread %q: %w", thread.Name, classify(err))
	}
	return nil
}

func (l *SQLiteLedger) FindThreadByName(ctx context.Context, name string) (*ThreadRecord, error) {
	var rec ThreadRecord
	err := l.db.QueryRowContext(ctx,
		`SELECT id, name FROM threads WHERE name = ? ORDER BY id LIMIT 1`, name,
	).Scan(&rec.ID, &rec.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find thread by name: %w", err)
	}
	return &rec, nil
}

func (l *SQLiteLedger) ListThreads(ctx context.Context) ([]ThreadRecord, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT id, name FROM threads ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	defer rows.Close()

	var out []ThreadRecord
	for rows.Next() {
		var rec ThreadRecord
		if err := rows.Scan(&rec.ID, &rec.Name); err != nil {
			return nil, fmt.Errorf("list threads: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// classify maps SQLite constraint failures onto ErrConstraintViolation
// while keeping the driver error in the chain.
func classify(err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		return fmt.Errorf("%w: %w", ErrConstraintViolation, err)
	}
	return err
}
