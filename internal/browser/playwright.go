package browser

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"

	"job-collector/internal/config"
	"job-collector/internal/fetch"
	"job-collector/internal/logging"
	"job-collector/internal/models"
)

// Launcher owns the playwright driver and one Chromium process. Sessions
// (browser contexts) are cheap and created per unit of work.
type Launcher struct {
	cfg     config.BrowserConfig
	log     *logging.Logger
	rng     *rand.Rand
	pw      *playwright.Playwright
	browser playwright.Browser
}

func Launch(cfg config.BrowserConfig, log *logging.Logger) (*Launcher, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	b, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		Args:     cfg.Args,
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	log.Info("🌐 browser launched", "headless", cfg.Headless)
	return &Launcher{
		cfg:     cfg,
		log:     log,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		pw:      pw,
		browser: b,
	}, nil
}

// NewSession opens a fresh browser context with a new fingerprint and, when
// present, the cookies exported for source.
func (l *Launcher) NewSession(source models.Source) (*Session, error) {
	fp := NewFingerprint(l.cfg, l.rng)

	bctx, err := l.browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent:  playwright.String(fp.UserAgent),
		Viewport:   &playwright.Size{Width: fp.Width, Height: fp.Height},
		Locale:     playwright.String(fp.Locale),
		TimezoneId: playwright.String(fp.TimezoneID),
		Geolocation: &playwright.Geolocation{
			Latitude:  fp.Latitude,
			Longitude: fp.Longitude,
		},
		Permissions:      []string{"geolocation"},
		ExtraHttpHeaders: fp.Headers(),
	})
	if err != nil {
		return nil, fmt.Errorf("new browser context: %w", err)
	}

	log := l.log.With("source", source)

	if err := bctx.AddInitScript(playwright.Script{Content: playwright.String(fp.InitScript())}); err != nil {
		log.Warn("⚠️ stealth script not installed, continuing", "err", err)
	}

	if l.cfg.CookiesDir != "" {
		path := CookieFile(l.cfg.CookiesDir, source)
		cookies, err := LoadCookies(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			log.Warn("⚠️ could not load cookies", "path", path, "err", err)
		case len(cookies) > 0:
			if err := bctx.AddCookies(cookies); err != nil {
				log.Warn("⚠️ could not add cookies", "err", err)
			} else {
				log.Debug("🍪 cookies loaded", "count", len(cookies))
			}
		}
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("new page: %w", err)
	}

	log.Debug("session opened", "user_agent", fp.UserAgent)
	return &Session{
		bctx:    bctx,
		page:    page,
		log:     log,
		shotDir: l.cfg.ScreenshotDir,
	}, nil
}

// Opener returns a fetch.Opener that hands out sessions for source.
func (l *Launcher) Opener(source models.Source) fetch.Opener {
	return sessionOpener{l: l, source: source}
}

type sessionOpener struct {
	l      *Launcher
	source models.Source
}

func (o sessionOpener) Open(ctx context.Context) (fetch.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, err := o.l.NewSession(o.source)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// RenderPDF prints an HTML document to a PDF file at path.
func (l *Launcher) RenderPDF(html, path string) error {
	page, err := l.browser.NewPage()
	if err != nil {
		return fmt.Errorf("new page: %w", err)
	}
	defer page.Close()

	if err := page.SetContent(html, playwright.PageSetContentOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
	}); err != nil {
		return fmt.Errorf("set content: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if _, err := page.PDF(playwright.PagePdfOptions{
		Path:            playwright.String(path),
		Format:          playwright.String("A4"),
		PrintBackground: playwright.Bool(true),
	}); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

func (l *Launcher) Close() error {
	var errs []error
	if l.browser != nil {
		errs = append(errs, l.browser.Close())
	}
	if l.pw != nil {
		errs = append(errs, l.pw.Stop())
	}
	return errors.Join(errs...)
}
