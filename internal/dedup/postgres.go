package dedup

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"job-collector/internal/logging"
	"job-collector/internal/models"
)

const seenSchema = `
CREATE TABLE IF NOT EXISTS seen_jobs (
	url        TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	company    TEXT NOT NULL DEFAULT '',
	location   TEXT NOT NULL DEFAULT '',
	source     TEXT NOT NULL DEFAULT '',
	first_seen TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore keeps seen entries in a single table keyed by URL. It holds
// no connection between calls.
type PostgresStore struct {
	cfg *pgx.ConnConfig
	log *logging.Logger
}

// NewPostgresStore validates the connection string and creates the table.
func NewPostgresStore(ctx context.Context, dsn string, log *logging.Logger) (*PostgresStore, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}
	// Poolers in transaction mode (PgBouncer, Supabase) reject cached
	// prepared statements.
	cfg.DefaultQueryExecMode = pgx.QueryExecModeExec

	if log == nil {
		log = logging.Nop()
	}
	s := &PostgresStore{cfg: cfg, log: log}

	if err := s.exec(ctx, seenSchema); err != nil {
		return nil, fmt.Errorf("create seen_jobs table: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) Name() string { return "postgres" }

func (s *PostgresStore) connect(ctx context.Context) (*pgx.Conn, error) {
	conn, err := pgx.ConnectConfig(ctx, s.cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	return conn, nil
}

func (s *PostgresStore) exec(ctx context.Context, sql string, args ...any) error {
	conn, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close(context.WithoutCancel(ctx))

	_, err = conn.Exec(ctx, sql, args...)
	return err
}

func (s *PostgresStore) IsNew(ctx context.Context, url string) bool {
	if url == "" {
		return true
	}

	conn, err := s.connect(ctx)
	if err != nil {
		s.log.Warn("⚠️ seen store unavailable, treating job as new", "err", err)
		return true
	}
	defer conn.Close(context.WithoutCancel(ctx))

	var exists bool
	if err := conn.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM seen_jobs WHERE url = $1)", url).Scan(&exists); err != nil {
		s.log.Warn("⚠️ novelty check failed, treating job as new", "url", url, "err", err)
		return true
	}
	return !exists
}

func (s *PostgresStore) Record(ctx context.Context, job models.JobRecord) error {
	if !job.Trackable() {
		return nil
	}

	query := `
		INSERT INTO seen_jobs (url, title, company, location, source)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (url) DO NOTHING`
	if err := s.exec(ctx, query, job.URL, job.Title, job.Company, job.Location, string(job.Source)); err != nil {
		return fmt.Errorf("failed to record job: %w", err)
	}
	return nil
}
