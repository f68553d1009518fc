// Package fetch drives one page through navigation, anti-bot challenge
// handling and human-like interaction until its content is ready for
// extraction:
//
//	Idle → Navigating → ChallengeCheck → (ChallengeWaiting ⇄ ChallengeCheck) → Ready → Closed
//
// Navigating fails on timeout or a hard block; ChallengeWaiting fails after a
// bounded number of polls but still hands back whatever content it has.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"job-collector/internal/logging"
	"job-collector/internal/pace"
	"job-collector/internal/retry"
)

type State int

const (
	StateIdle State = iota
	StateNavigating
	StateChallengeCheck
	StateChallengeWaiting
	StateReady
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateNavigating:
		return "navigating"
	case StateChallengeCheck:
		return "challenge-check"
	case StateChallengeWaiting:
		return "challenge-waiting"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Page is the part of a browser tab the acquirer needs.
type Page interface {
	// Goto navigates and returns the HTTP status of the main document
	// (0 when unknown). Timeouts are reported as ErrNavigationTimeout.
	Goto(ctx context.Context, url string, timeout time.Duration) (int, error)
	Content() (string, error)
	URL() string
	Scroll(dy int) error
	Close() error
}

// Screenshotter is implemented by pages that can save debug captures.
type Screenshotter interface {
	Screenshot(name string) (string, error)
}

// Opener hands out a fresh page scoped to one unit of work.
type Opener interface {
	Open(ctx context.Context) (Page, error)
}

// Target describes one page to acquire.
type Target struct {
	URL     string
	Label   string
	Timeout time.Duration
	// Settle is a fixed wait after navigation for client-side rendering.
	Settle           time.Duration
	ChallengeMarkers []string
	SuccessMarkers   []string
	// AuthWallMarkers are URL fragments meaning the site refused us outright.
	AuthWallMarkers []string
}

type Options struct {
	Retry        retry.Policy
	HumanPause   pace.Range
	ScrollPause  pace.Range
	Scrolls      int
	ScrollStep   int
	PollInterval time.Duration
	MaxWait      time.Duration
	Sleep        func(ctx context.Context, d time.Duration) error
}

// Result is what an acquisition produced. HTML may be present even when
// State is StateFailed (unresolved challenge).
type Result struct {
	State    State
	Trace    []State
	HTML     string
	Status   int
	FinalURL string
	Polls    int
	Err      error
}

// Usable reports whether there is content worth extracting.
func (r Result) Usable() bool {
	return r.HTML != ""
}

func (r *Result) enter(s State) {
	r.State = s
	r.Trace = append(r.Trace, s)
}

func (r *Result) fail(err error) {
	r.Err = err
	r.enter(StateFailed)
}

type Acquirer struct {
	opts Options
	log  *logging.Logger
}

func NewAcquirer(opts Options, log *logging.Logger) *Acquirer {
	if opts.Sleep == nil {
		opts.Sleep = pace.Sleep
	}
	if opts.Retry.Retryable == nil {
		opts.Retry.Retryable = Retryable
	}
	if opts.Retry.Extended == nil {
		opts.Retry.Extended = IsRateLimited
	}
	if opts.Retry.Sleep == nil {
		opts.Retry.Sleep = opts.Sleep
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 500 * time.Millisecond
	}
	if log == nil {
		log = logging.Nop()
	}
	opts.Retry.OnRetry = func(attempt int, wait time.Duration, err error) {
		log.Warn("⚠️ navigation failed, retrying", "attempt", attempt, "wait", wait, "err", err)
	}
	return &Acquirer{opts: opts, log: log}
}

// Acquire runs the state machine for t on page. It never closes the page.
func (a *Acquirer) Acquire(ctx context.Context, page Page, t Target) Result {
	res := Result{State: StateIdle, Trace: []State{StateIdle}}
	log := a.log.With("url", t.URL)

	res.enter(StateNavigating)
	err := a.opts.Retry.Do(ctx, func(attempt int) error {
		status, err := page.Goto(ctx, t.URL, t.Timeout)
		res.Status = status
		if err != nil {
			return err
		}
		if current := page.URL(); containsAny(current, t.AuthWallMarkers) {
			return fmt.Errorf("%w: redirected to %s", ErrForbidden, current)
		}
		err = CheckStatus(t.URL, status)
		if err != nil && challengeStatus(status) {
			// Cloudflare serves its interstitials as 403 or 503.
			if html, cerr := page.Content(); cerr == nil && containsAny(html, t.ChallengeMarkers) {
				log.Info("🛡️ challenge served with error status", "status", status)
				return nil
			}
		}
		return err
	})
	res.FinalURL = page.URL()
	if err != nil {
		log.Warn("❌ navigation failed", "status", res.Status, "err", err)
		res.fail(err)
		return res
	}

	if err := a.opts.Sleep(ctx, t.Settle); err != nil {
		res.fail(err)
		return res
	}
	if err := a.humanize(ctx, page); err != nil {
		res.fail(err)
		return res
	}

	res.enter(StateChallengeCheck)
	html, err := page.Content()
	if err != nil {
		res.fail(fmt.Errorf("read content: %w", err))
		return res
	}
	res.HTML = html

	if !containsAny(html, t.ChallengeMarkers) || containsAny(html, t.SuccessMarkers) {
		res.enter(StateReady)
		return res
	}

	log.Warn("🛡️ challenge detected, waiting", "max_wait", a.opts.MaxWait)
	maxPolls := int(a.opts.MaxWait / a.opts.PollInterval)
	for res.Polls < maxPolls {
		res.enter(StateChallengeWaiting)
		if err := a.opts.Sleep(ctx, a.opts.PollInterval); err != nil {
			res.fail(err)
			return res
		}
		res.Polls++

		res.enter(StateChallengeCheck)
		html, err := page.Content()
		if err != nil {
			log.Debug("content unavailable while polling", "err", err)
			continue
		}
		res.HTML = html
		if resolved(html, t) {
			log.Info("✅ challenge passed", "polls", res.Polls)
			res.FinalURL = page.URL()
			res.enter(StateReady)
			return res
		}
	}

	log.Warn("❌ challenge still present, extracting what is there", "polls", res.Polls)
	if shot, ok := page.(Screenshotter); ok {
		name := t.Label
		if name == "" {
			name = "challenge"
		}
		if path, err := shot.Screenshot(name + "-challenge"); err == nil {
			log.Info("📸 screenshot saved", "path", path)
		}
	}
	res.FinalURL = page.URL()
	res.fail(ErrChallengeUnresolved)
	return res
}

// Visit opens a page, acquires t, hands the result to fn and always closes
// the page, whatever fn or the acquisition did.
func (a *Acquirer) Visit(ctx context.Context, opener Opener, t Target, fn func(Result) error) (res Result, err error) {
	page, err := opener.Open(ctx)
	if err != nil {
		return Result{State: StateFailed, Trace: []State{StateIdle, StateFailed}, Err: err}, fmt.Errorf("open page: %w", err)
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			a.log.Debug("close page", "err", cerr)
		}
		res.Trace = append(res.Trace, StateClosed)
	}()

	res = a.Acquire(ctx, page, t)
	if fn != nil {
		err = fn(res)
	}
	return res, err
}

// humanize pauses, skims down the page and scrolls back a little.
func (a *Acquirer) humanize(ctx context.Context, page Page) error {
	if err := a.opts.Sleep(ctx, a.opts.HumanPause.Pick()); err != nil {
		return err
	}
	for i := 0; i < a.opts.Scrolls; i++ {
		if err := page.Scroll(a.opts.ScrollStep); err != nil {
			a.log.Debug("scroll failed", "err", err)
		}
		if err := a.opts.Sleep(ctx, a.opts.ScrollPause.Pick()); err != nil {
			return err
		}
	}
	if a.opts.Scrolls > 0 {
		if err := page.Scroll(-a.opts.ScrollStep * 2 / 3); err != nil {
			a.log.Debug("scroll failed", "err", err)
		}
	}
	return nil
}

func challengeStatus(code int) bool {
	return code == http.StatusForbidden || code >= 500
}

func resolved(html string, t Target) bool {
	if len(t.SuccessMarkers) > 0 {
		return containsAny(html, t.SuccessMarkers)
	}
	return !containsAny(html, t.ChallengeMarkers)
}

func containsAny(s string, markers []string) bool {
	if len(markers) == 0 || s == "" {
		return false
	}
	lower := strings.ToLower(s)
	for _, m := range markers {
		if m != "" && strings.Contains(lower, strings.ToLower(m)) {
			return true
		}
	}
	return false
}

// IsHardBlock reports whether err means the source refuses us for the rest
// of the run.
func IsHardBlock(err error) bool {
	return errors.Is(err, ErrForbidden)
}
