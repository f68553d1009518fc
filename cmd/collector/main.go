package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"job-collector/internal/config"
	"job-collector/internal/logging"
	"job-collector/internal/scheduler"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitInterrupted = 130
)

type options struct {
	cv            string
	query         string
	location      string
	pages         int
	queriesLimit  int
	ignoreHistory bool
	visible       bool
	limit         int
	output        string
	mode          string
	input         string
	configPath    string
	schedule      string
	reportPDF     bool
	logLevel      string
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("collector", flag.ContinueOnError)
	fs.StringVar(&o.cv, "cv", "", "CV file (.pdf, .json or text); auto-detected when empty")
	fs.StringVar(&o.query, "query", "", "search this query instead of deriving queries from the CV")
	fs.StringVar(&o.location, "location", "", "search location (defaults to the CV location or Dublin)")
	fs.IntVar(&o.pages, "pages", 1, "result pages per source and query")
	fs.IntVar(&o.queriesLimit, "queries-limit", 5, "maximum number of CV-derived queries")
	fs.BoolVar(&o.ignoreHistory, "ignore-history", false, "collect jobs even if seen in earlier runs")
	fs.BoolVar(&o.visible, "visible", false, "show the browser window")
	fs.IntVar(&o.limit, "limit", 0, "maximum number of jobs to collect or enrich (0 = no limit)")
	fs.StringVar(&o.output, "output", "", "merged CSV path (collect) or enriched JSON path (enrich, full)")
	fs.StringVar(&o.mode, "mode", "collect", "collect, enrich or full")
	fs.StringVar(&o.input, "input", "", "JSON file of jobs to enrich (enrich mode)")
	fs.StringVar(&o.configPath, "config", "", "YAML config file overriding the defaults")
	fs.StringVar(&o.schedule, "schedule", "", `repeat on a cron schedule, e.g. "@every 6h"`)
	fs.BoolVar(&o.reportPDF, "report-pdf", false, "also render the HTML report as PDF")
	fs.StringVar(&o.logLevel, "log-level", "", "debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return o, err
	}

	switch o.mode {
	case modeCollect, modeEnrich, modeFull:
	default:
		return o, fmt.Errorf("unknown mode %q", o.mode)
	}
	if o.mode == modeEnrich && o.input == "" {
		return o, errors.New("-input is required in enrich mode")
	}
	if o.pages < 1 {
		return o, errors.New("-pages must be at least 1")
	}
	if o.limit < 0 || o.queriesLimit < 1 {
		return o, errors.New("-limit must not be negative and -queries-limit must be positive")
	}
	return o, nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := parseFlags(args)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "❌ config:", err)
		return exitFailure
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.visible {
		cfg.Browser.Headless = false
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "❌ config:", err)
		return exitFailure
	}

	log := logging.New(cfg.LogLevel)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{cfg: cfg, opts: opts, log: log}

	if opts.schedule != "" {
		s, err := scheduler.New(opts.schedule, a.run, log)
		if err != nil {
			log.Error("❌ invalid schedule", "err", err)
			return exitFailure
		}
		err = s.Run(ctx)
		code := exitCode(ctx, err)
		switch code {
		case exitInterrupted:
			log.Warn("🛑 interrupted")
		case exitFailure:
			log.Error("❌ scheduler stopped", "err", err)
		}
		return code
	}

	err = a.run(ctx)
	code := exitCode(ctx, err)
	switch code {
	case exitInterrupted:
		log.Warn("🛑 interrupted, partial results were saved", "err", err)
	case exitFailure:
		log.Error("❌ run failed", "err", err)
	}
	return code
}

// exitCode maps the outcome of a run to the process exit status.
func exitCode(ctx context.Context, err error) int {
	switch {
	case err == nil:
		return exitOK
	case ctx.Err() != nil, errors.Is(err, context.Canceled):
		return exitInterrupted
	default:
		return exitFailure
	}
}
