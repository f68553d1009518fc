// Package dedup remembers which job URLs have been seen across runs and
// keeps the enriched job file consistent through upserts.
package dedup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"job-collector/internal/logging"
	"job-collector/internal/models"
)

// Store answers novelty queries. Every backend opens its storage per call
// so a killed process never leaves a lock or connection behind.
type Store interface {
	// IsNew is true for an empty URL, an unseen URL, or when the backend
	// cannot answer.
	IsNew(ctx context.Context, url string) bool
	// Record inserts job if its URL is absent. Recording a known URL is a
	// silent no-op that keeps the original first-seen time.
	Record(ctx context.Context, job models.JobRecord) error
	Name() string
}

type Options struct {
	DatabaseURL string
	RedisURL    string
	SeenPath    string
}

// Open picks a backend: PostgreSQL when a database URL is set, then Redis,
// then the local SQLite file.
func Open(ctx context.Context, opts Options, log *logging.Logger) (Store, error) {
	switch {
	case opts.DatabaseURL != "":
		return NewPostgresStore(ctx, opts.DatabaseURL, log)
	case opts.RedisURL != "":
		return NewRedisStore(ctx, opts.RedisURL, log)
	case opts.SeenPath != "":
		return NewSQLiteStore(ctx, opts.SeenPath, log)
	default:
		return nil, fmt.Errorf("no seen store configured")
	}
}

// MemoryStore lives for one run. It backs ignore-history runs, where
// duplicates are still dropped within the run but nothing is persisted.
type MemoryStore struct {
	mu   sync.Mutex
	seen map[string]models.SeenEntry
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: make(map[string]models.SeenEntry), now: time.Now}
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) IsNew(_ context.Context, url string) bool {
	if url == "" {
		return true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.seen[url]
	return !ok
}

func (m *MemoryStore) Record(_ context.Context, job models.JobRecord) error {
	if !job.Trackable() {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.seen[job.URL]; !ok {
		m.seen[job.URL] = models.NewSeenEntry(job, m.now())
	}
	return nil
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seen)
}
