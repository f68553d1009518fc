package dedup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"job-collector/internal/logging"
	"job-collector/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS seen_jobs (
	url        TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	company    TEXT NOT NULL DEFAULT '',
	location   TEXT NOT NULL DEFAULT '',
	source     TEXT NOT NULL DEFAULT '',
	first_seen TEXT NOT NULL
)`

// SQLiteStore is the zero-config seen store: one table keyed by URL in a
// local database file. Like PostgresStore it opens the database per call.
type SQLiteStore struct {
	path string
	dsn  string
	log  *logging.Logger
	now  func() time.Time
}

// NewSQLiteStore creates the database file and table if needed.
func NewSQLiteStore(ctx context.Context, path string, log *logging.Logger) (*SQLiteStore, error) {
	if log == nil {
		log = logging.Nop()
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	s := &SQLiteStore{
		path: path,
		dsn:  path + "?_pragma=busy_timeout(5000)",
		log:  log,
		now:  time.Now,
	}
	if err := s.exec(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("create seen_jobs table in %s: %w", path, err)
	}
	return s, nil
}

func (s *SQLiteStore) Name() string { return "sqlite" }

func (s *SQLiteStore) open() (*sql.DB, error) {
	db, err := sql.Open("sqlite", s.dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func (s *SQLiteStore) exec(ctx context.Context, query string, args ...any) error {
	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.ExecContext(ctx, query, args...)
	return err
}

func (s *SQLiteStore) IsNew(ctx context.Context, url string) bool {
	if url == "" {
		return true
	}
	db, err := s.open()
	if err != nil {
		s.log.Warn("⚠️ seen store unavailable, treating job as new", "path", s.path, "err", err)
		return true
	}
	defer db.Close()

	var exists bool
	if err := db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM seen_jobs WHERE url = ?)", url).Scan(&exists); err != nil {
		s.log.Warn("⚠️ novelty check failed, treating job as new", "url", url, "err", err)
		return true
	}
	return !exists
}

func (s *SQLiteStore) Record(ctx context.Context, job models.JobRecord) error {
	if !job.Trackable() {
		return nil
	}
	query := `
		INSERT INTO seen_jobs (url, title, company, location, source, first_seen)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (url) DO NOTHING`
	firstSeen := s.now().UTC().Format(time.RFC3339Nano)
	if err := s.exec(ctx, query, job.URL, job.Title, job.Company, job.Location, string(job.Source), firstSeen); err != nil {
		return fmt.Errorf("failed to record job: %w", err)
	}
	return nil
}

// Entry returns the stored entry for url.
func (s *SQLiteStore) Entry(ctx context.Context, url string) (models.SeenEntry, bool, error) {
	db, err := s.open()
	if err != nil {
		return models.SeenEntry{}, false, err
	}
	defer db.Close()

	var e models.SeenEntry
	var source, firstSeen string
	err = db.QueryRowContext(ctx,
		"SELECT url, title, company, location, source, first_seen FROM seen_jobs WHERE url = ?", url).
		Scan(&e.URL, &e.Title, &e.Company, &e.Location, &source, &firstSeen)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SeenEntry{}, false, nil
	}
	if err != nil {
		return models.SeenEntry{}, false, err
	}
	e.Source = models.Source(source)
	if e.FirstSeen, err = time.Parse(time.RFC3339Nano, firstSeen); err != nil {
		return models.SeenEntry{}, false, fmt.Errorf("parse first_seen of %s: %w", url, err)
	}
	return e, true, nil
}

// Count returns the number of seen URLs.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	db, err := s.open()
	if err != nil {
		return 0, err
	}
	defer db.Close()

	var n int
	err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM seen_jobs").Scan(&n)
	return n, err
}
