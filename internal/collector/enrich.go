package collector

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"job-collector/internal/dedup"
	"job-collector/internal/extract"
	"job-collector/internal/models"
)

// EnrichedDescriptionLength is the description length above which a record
// is considered already enriched and is not fetched again.
const EnrichedDescriptionLength = 100

var ErrNoEnricher = errors.New("collector has no enricher")

type EnrichSummary struct {
	Processed int
	Success   int
	Failed    int
	Skipped   int
	Updated   int
	New       int
	Duration  time.Duration
}

// Enrich fetches the detail page of every job, merges what was found, and
// upserts the job into the ledger. The ledger is saved after every record so
// an interrupted run loses at most the job in flight.
func (c *Collector) Enrich(ctx context.Context, jobs []models.JobRecord, ledger *dedup.Ledger) (EnrichSummary, error) {
	if c.enricher == nil {
		return EnrichSummary{}, ErrNoEnricher
	}

	start := time.Now()
	var sum EnrichSummary
	log := c.log.With("ledger", ledger.Path())
	log.Info("🧾 enrichment started", "jobs", len(jobs), "existing", ledger.Len())

	fetched := false
	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			sum.Duration = time.Since(start)
			return sum, err
		}
		jlog := log.With("n", i+1, "of", len(jobs), "title", job.Title, "company", job.Company)

		if !job.Trackable() {
			jlog.Warn("⚠️ no url, skipping")
			sum.Skipped++
			continue
		}
		if enriched(job, ledger) {
			jlog.Debug("already enriched, skipping")
			sum.Skipped++
			if _, ok := ledger.Find(job.URL); !ok {
				ledger.Upsert(job)
				sum.New++
				if err := ledger.Save(); err != nil {
					jlog.Error("💾 could not save progress", "err", err)
				}
			}
			continue
		}

		if fetched {
			wait := c.enrichDelay.Pick()
			jlog.Debug("⏳ pacing", "wait", wait)
			if err := c.sleep(ctx, wait); err != nil {
				sum.Duration = time.Since(start)
				return sum, err
			}
		}
		fetched = true

		sum.Processed++
		res, err := c.enricher.Enrich(ctx, job)
		if err != nil && ctx.Err() != nil {
			sum.Duration = time.Since(start)
			return sum, ctx.Err()
		}

		if res.Status == extract.StatusSuccess {
			job.Merge(models.JobRecord{Description: res.Description, PostedDate: res.PostedDate})
			sum.Success++
			jlog.Info("✅ description fetched", "chars", utf8.RuneCountInString(res.Description), "posted", res.PostedDate)
		} else {
			sum.Failed++
			jlog.Warn("❌ enrichment failed", "err", firstErr(res.Err, err))
		}

		if ledger.Upsert(job) {
			sum.Updated++
		} else {
			sum.New++
		}
		if err := ledger.Save(); err != nil {
			jlog.Error("💾 could not save progress", "err", err)
		}
	}

	sum.Duration = time.Since(start)
	log.Info("🏁 enrichment finished",
		"success", sum.Success, "failed", sum.Failed, "skipped", sum.Skipped,
		"updated", sum.Updated, "new", sum.New, "took", sum.Duration.Round(time.Second))
	return sum, nil
}

func enriched(job models.JobRecord, ledger *dedup.Ledger) bool {
	if utf8.RuneCountInString(job.Description) > EnrichedDescriptionLength {
		return true
	}
	existing, ok := ledger.Find(job.URL)
	return ok && utf8.RuneCountInString(existing.Description) > EnrichedDescriptionLength
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
