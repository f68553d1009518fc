package dedup

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"job-collector/internal/logging"
	"job-collector/internal/models"
)

const seenKeyPrefix = "seen_jobs:"

// RedisStore keeps one key per seen URL, written with SETNX so the first
// write wins. A client is created and closed per call.
type RedisStore struct {
	opts *redis.Options
	log  *logging.Logger
	now  func() time.Time
}

func NewRedisStore(ctx context.Context, rawURL string, log *logging.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if log == nil {
		log = logging.Nop()
	}
	s := &RedisStore{opts: opts, log: log, now: time.Now}

	client := redis.NewClient(s.opts)
	defer client.Close()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis unreachable: %w", err)
	}
	return s, nil
}

func (s *RedisStore) Name() string { return "redis" }

func seenKey(url string) string {
	return seenKeyPrefix + url
}

func (s *RedisStore) IsNew(ctx context.Context, url string) bool {
	if url == "" {
		return true
	}
	client := redis.NewClient(s.opts)
	defer client.Close()

	n, err := client.Exists(ctx, seenKey(url)).Result()
	if err != nil {
		s.log.Warn("⚠️ novelty check failed, treating job as new", "url", url, "err", err)
		return true
	}
	return n == 0
}

func (s *RedisStore) Record(ctx context.Context, job models.JobRecord) error {
	if !job.Trackable() {
		return nil
	}
	entry, err := json.Marshal(models.NewSeenEntry(job, s.now().UTC()))
	if err != nil {
		return fmt.Errorf("marshal seen entry: %w", err)
	}

	client := redis.NewClient(s.opts)
	defer client.Close()

	if err := client.SetNX(ctx, seenKey(job.URL), entry, 0).Err(); err != nil {
		return fmt.Errorf("failed to record job: %w", err)
	}
	return nil
}
