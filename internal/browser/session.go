package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"

	"job-collector/internal/fetch"
	"job-collector/internal/logging"
)

// Session is one browser context with a single tab. It satisfies fetch.Page.
type Session struct {
	bctx    playwright.BrowserContext
	page    playwright.Page
	log     *logging.Logger
	shotDir string
	closed  bool
}

var _ fetch.Page = (*Session)(nil)
var _ fetch.Screenshotter = (*Session)(nil)

func (s *Session) Goto(ctx context.Context, url string, timeout time.Duration) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	opts := playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}
	if timeout > 0 {
		opts.Timeout = playwright.Float(float64(timeout.Milliseconds()))
	}

	// playwright's Goto takes no context; closing the tab aborts it.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.log.Debug("navigation cancelled, closing tab", "url", url)
			if err := s.page.Close(); err != nil {
				s.log.Debug("close tab", "err", err)
			}
		case <-done:
		}
	}()

	resp, err := s.page.Goto(url, opts)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		if errors.Is(err, playwright.ErrTimeout) {
			return 0, fmt.Errorf("%w: %s after %s", fetch.ErrNavigationTimeout, url, timeout)
		}
		return 0, fmt.Errorf("goto %s: %w", url, err)
	}
	if resp == nil {
		return 0, nil
	}
	return resp.Status(), nil
}

func (s *Session) Content() (string, error) {
	return s.page.Content()
}

func (s *Session) URL() string {
	return s.page.URL()
}

func (s *Session) Scroll(dy int) error {
	return s.page.Mouse().Wheel(0, float64(dy))
}

// Screenshot saves a full-page capture and returns its path.
func (s *Session) Screenshot(name string) (string, error) {
	dir := s.shotDir
	if dir == "" {
		dir = filepath.Join("logs", "screenshots")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.png", name, time.Now().Format("2006-01-02_15-04-05")))
	if _, err := s.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	}); err != nil {
		s.log.Warn("⚠️ failed to capture screenshot", "err", err)
		return "", err
	}
	return path, nil
}

// Close releases the tab and its context. Calling it again is a no-op.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return errors.Join(s.page.Close(), s.bctx.Close())
}
