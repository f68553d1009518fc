// Load envs from .env
// Overlay YAML config on built-in defaults
// Validate config

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"job-collector/internal/extract"
	"job-collector/internal/models"
	"job-collector/internal/pace"
	"job-collector/internal/retry"
)

type Config struct {
	LogLevel string `yaml:"log_level"`
	DataDir  string `yaml:"data_dir"`

	Browser   BrowserConfig                  `yaml:"browser"`
	Pacing    PacingConfig                   `yaml:"pacing"`
	Challenge ChallengeConfig                `yaml:"challenge"`
	Retry     RetryConfig                    `yaml:"retry"`
	Sources   map[models.Source]SourceConfig `yaml:"sources"`
	Storage   StorageConfig                  `yaml:"storage"`
	Telegram  TelegramConfig                 `yaml:"telegram"`
}

type BrowserConfig struct {
	Headless       bool     `yaml:"headless"`
	Args           []string `yaml:"args"`
	UserAgents     []string `yaml:"user_agents"`
	ViewportWidth  int      `yaml:"viewport_width"`
	ViewportHeight int      `yaml:"viewport_height"`
	Locale         string   `yaml:"locale"`
	TimezoneID     string   `yaml:"timezone_id"`
	Latitude       float64  `yaml:"latitude"`
	Longitude      float64  `yaml:"longitude"`
	AcceptLanguage string   `yaml:"accept_language"`
	// Languages reported by navigator.languages.
	Languages     []string `yaml:"languages"`
	CookiesDir    string   `yaml:"cookies_dir"`
	ScreenshotDir string   `yaml:"screenshot_dir"`
}

type PacingConfig struct {
	Page        pace.Range `yaml:"page"`
	Enrich      pace.Range `yaml:"enrich"`
	HumanPause  pace.Range `yaml:"human_pause"`
	ScrollPause pace.Range `yaml:"scroll_pause"`
	Scrolls     int        `yaml:"scrolls"`
	ScrollStep  int        `yaml:"scroll_step"`
}

type ChallengeConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	MaxWait      time.Duration `yaml:"max_wait"`
}

type RetryConfig struct {
	MaxAttempts      int             `yaml:"max_attempts"`
	Backoff          []time.Duration `yaml:"backoff"`
	RateLimitBackoff time.Duration   `yaml:"rate_limit_backoff"`
}

// Policy builds the retry policy used at the navigation boundary.
func (r RetryConfig) Policy() retry.Policy {
	return retry.Policy{
		MaxAttempts:     r.MaxAttempts,
		Backoff:         append([]time.Duration(nil), r.Backoff...),
		ExtendedBackoff: r.RateLimitBackoff,
	}
}

// SourceConfig is the selector catalog and navigation profile of one job board.
type SourceConfig struct {
	BaseURL          string        `yaml:"base_url"`
	JobsPerPage      int           `yaml:"jobs_per_page"`
	NavTimeout       time.Duration `yaml:"nav_timeout"`
	DetailNavTimeout time.Duration `yaml:"detail_nav_timeout"`
	// Settle is waited after every navigation before the page is inspected.
	Settle time.Duration `yaml:"settle"`

	Listing extract.Catalog       `yaml:"listing"`
	Detail  extract.DetailCatalog `yaml:"detail"`

	ChallengeMarkers []string `yaml:"challenge_markers"`
	ListingMarkers   []string `yaml:"listing_markers"`
	DetailMarkers    []string `yaml:"detail_markers"`
	AuthWallMarkers  []string `yaml:"auth_wall_markers"`
}

type StorageConfig struct {
	DatabaseURL string `yaml:"database_url"`
	RedisURL    string `yaml:"redis_url"`
	SeenPath    string `yaml:"seen_path"`
}

type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

func (t TelegramConfig) Enabled() bool {
	return t.Token != "" && t.ChatID != 0
}

// Load reads .env, overlays the YAML file at path (if any) on Default and
// applies environment overrides. A source listed in the file replaces the
// built-in catalog for that source entirely.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Storage.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Storage.RedisURL = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		c.Telegram.ChatID = id
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("HEADLESS"); v != "" {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid HEADLESS: %w", err)
		}
		c.Browser.Headless = headless
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		c.DataDir = v
	}
	return nil
}

// Source returns the catalog for s.
func (c *Config) Source(s models.Source) (SourceConfig, bool) {
	sc, ok := c.Sources[s]
	return sc, ok
}

// SeenPath is where the SQLite seen store lives.
func (c *Config) SeenPath() string {
	if c.Storage.SeenPath != "" {
		return c.Storage.SeenPath
	}
	return filepath.Join(c.DataDir, "seen_jobs.db")
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	ranges := map[string]pace.Range{
		"pacing.page":         c.Pacing.Page,
		"pacing.enrich":       c.Pacing.Enrich,
		"pacing.human_pause":  c.Pacing.HumanPause,
		"pacing.scroll_pause": c.Pacing.ScrollPause,
	}
	for name, r := range ranges {
		if r.Min < 0 || r.Max < 0 {
			errs = append(errs, fmt.Errorf("%s: negative duration", name))
		}
		if r.Max < r.Min {
			errs = append(errs, fmt.Errorf("%s: max %s below min %s", name, r.Max, r.Min))
		}
	}

	if c.Challenge.PollInterval <= 0 {
		errs = append(errs, errors.New("challenge.poll_interval must be positive"))
	}
	if c.Challenge.MaxWait < 0 {
		errs = append(errs, errors.New("challenge.max_wait must not be negative"))
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("retry.max_attempts must be at least 1"))
	}
	if c.Pacing.Scrolls < 0 {
		errs = append(errs, errors.New("pacing.scrolls must not be negative"))
	}

	for _, src := range models.Sources {
		sc, ok := c.Sources[src]
		if !ok {
			errs = append(errs, fmt.Errorf("sources.%s: missing", src))
			continue
		}
		if sc.BaseURL == "" {
			errs = append(errs, fmt.Errorf("sources.%s.base_url is required", src))
		}
		if len(sc.Listing.Cards) == 0 || len(sc.Listing.Title) == 0 {
			errs = append(errs, fmt.Errorf("sources.%s.listing needs card and title selectors", src))
		}
		if sc.NavTimeout <= 0 {
			errs = append(errs, fmt.Errorf("sources.%s.nav_timeout must be positive", src))
		}
	}

	return errors.Join(errs...)
}
