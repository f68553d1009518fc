// Package scheduler repeats collection runs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"job-collector/internal/logging"
)

// Scheduler wraps robfig/cron. Runs never overlap: a tick that fires while
// the previous run is still going is skipped.
type Scheduler struct {
	cron *cron.Cron
	spec string
	run  func(ctx context.Context) error
	log  *logging.Logger
}

// New validates spec ("@every 6h", "0 7 * * *", ...) and prepares a
// scheduler for run.
func New(spec string, run func(ctx context.Context) error, log *logging.Logger) (*Scheduler, error) {
	if log == nil {
		log = logging.Nop()
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return &Scheduler{
		cron: cron.New(cron.WithLogger(cronLogger{log})),
		spec: spec,
		run:  run,
		log:  log,
	}, nil
}

// Run starts the first run immediately, then follows the schedule until ctx
// is done. It returns once any run in progress has finished.
func (s *Scheduler) Run(ctx context.Context) error {
	var id cron.EntryID
	l := cronLogger{s.log}
	job := cron.NewChain(cron.Recover(l), cron.SkipIfStillRunning(l)).Then(cron.FuncJob(func() {
		s.log.Info("⏰ scheduled run started")
		if err := s.run(ctx); err != nil {
			s.log.Error("❌ scheduled run failed", "err", err)
		}
		if next := s.cron.Entry(id).Next; !next.IsZero() {
			s.log.Info("⏰ next run", "at", next)
		}
	}))

	id, err := s.cron.AddJob(s.spec, job)
	if err != nil {
		return fmt.Errorf("schedule %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.log.Info("⏰ scheduler started", "spec", s.spec)

	var first sync.WaitGroup
	first.Add(1)
	go func() {
		defer first.Done()
		job.Run()
	}()

	<-ctx.Done()
	s.log.Info("⏰ scheduler stopping")
	<-s.cron.Stop().Done()
	first.Wait()
	return ctx.Err()
}

// cronLogger adapts logging.Logger to cron.Logger.
type cronLogger struct {
	log *logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "err", err)...)
}
