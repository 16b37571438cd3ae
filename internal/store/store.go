package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/elonfeng/pulse/pkg/source"
)

// CacheEntry is the last successful upstream batch of one source.
type CacheEntry struct {
	Source    string    `db:"source"`
	Payload   string    `db:"payload"`
	FetchedAt time.Time `db:"fetched_at"`
}

// AlertRecord remembers when a topic was last alerted on.
type AlertRecord struct {
	TopicKey    string    `db:"topic_key" json:"topicKey"`
	LaunchScore int       `db:"launch_score" json:"launchScore"`
	AlertedAt   time.Time `db:"alerted_at" json:"alertedAt"`
}

// Store is the persistence interface. It never holds scores across runs;
// cached batches and the alert log only shield upstreams and notifiers.
type Store interface {
	GetBatch(ctx context.Context, id source.SourceID, maxAge time.Duration) ([]byte, bool, error)
	PutBatch(ctx context.Context, id source.SourceID, payload []byte) error

	AlertedSince(ctx context.Context, topicKey string, since time.Time) (bool, error)
	RecordAlert(ctx context.Context, topicKey string, launchScore int) error
	PruneAlerts(ctx context.Context, before time.Time) (int64, error)
	ListAlerts(ctx context.Context, limit int) ([]AlertRecord, error)

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  *sqlx.DB
	now func() time.Time
}

var (
	_ Store             = (*SQLiteStore)(nil)
	_ source.BatchCache = (*SQLiteStore)(nil)
)

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetBatch returns the cached payload for id if it is younger than maxAge.
func (s *SQLiteStore) GetBatch(ctx context.Context, id source.SourceID, maxAge time.Duration) ([]byte, bool, error) {
	var e CacheEntry
	err := s.db.GetContext(ctx, &e, "SELECT * FROM source_cache WHERE source = ?", string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get batch %s: %w", id, err)
	}
	if s.now().UTC().Sub(e.FetchedAt) > maxAge {
		return nil, false, nil
	}
	return []byte(e.Payload), true, nil
}

// PutBatch replaces the cached payload for id.
func (s *SQLiteStore) PutBatch(ctx context.Context, id source.SourceID, payload []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO source_cache (source, payload, fetched_at)
		VALUES (?, ?, ?)
		ON CONFLICT(source) DO UPDATE SET
			payload = excluded.payload,
			fetched_at = excluded.fetched_at
	`, string(id), string(payload), s.now().UTC())
	if err != nil {
		return fmt.Errorf("put batch %s: %w", id, err)
	}
	return nil
}

// AlertedSince reports whether topicKey was alerted at or after since.
func (s *SQLiteStore) AlertedSince(ctx context.Context, topicKey string, since time.Time) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM alert_log WHERE topic_key = ? AND alerted_at >= ?",
		topicKey, since.UTC())
	if err != nil {
		return false, fmt.Errorf("check alert %s: %w", topicKey, err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) RecordAlert(ctx context.Context, topicKey string, launchScore int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alert_log (topic_key, launch_score, alerted_at)
		VALUES (?, ?, ?)
		ON CONFLICT(topic_key) DO UPDATE SET
			launch_score = excluded.launch_score,
			alerted_at = excluded.alerted_at
	`, topicKey, launchScore, s.now().UTC())
	if err != nil {
		return fmt.Errorf("record alert %s: %w", topicKey, err)
	}
	return nil
}

// PruneAlerts deletes alert rows older than before.
func (s *SQLiteStore) PruneAlerts(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM alert_log WHERE alerted_at < ?", before.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune alerts: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// ListAlerts returns alert rows, most recent first.
func (s *SQLiteStore) ListAlerts(ctx context.Context, limit int) ([]AlertRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var recs []AlertRecord
	if err := s.db.SelectContext(ctx, &recs,
		"SELECT * FROM alert_log ORDER BY alerted_at DESC LIMIT ?", limit); err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return recs, nil
}
