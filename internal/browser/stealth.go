package browser

import (
	"encoding/json"
	"fmt"
	"math/rand"

	"job-collector/internal/config"
)

const fallbackUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Fingerprint is the identity one browser session presents to a site.
type Fingerprint struct {
	UserAgent      string
	Width          int
	Height         int
	Locale         string
	TimezoneID     string
	Latitude       float64
	Longitude      float64
	AcceptLanguage string
	Languages      []string
}

// NewFingerprint picks a user agent uniformly from the configured pool and
// fills the rest from cfg. It never fails: missing values fall back to a
// desktop Chrome profile in Dublin. A nil rng uses the global source.
func NewFingerprint(cfg config.BrowserConfig, rng *rand.Rand) Fingerprint {
	fp := Fingerprint{
		UserAgent:      fallbackUserAgent,
		Width:          cfg.ViewportWidth,
		Height:         cfg.ViewportHeight,
		Locale:         cfg.Locale,
		TimezoneID:     cfg.TimezoneID,
		Latitude:       cfg.Latitude,
		Longitude:      cfg.Longitude,
		AcceptLanguage: cfg.AcceptLanguage,
		Languages:      cfg.Languages,
	}

	if n := len(cfg.UserAgents); n > 0 {
		var i int
		if rng != nil {
			i = rng.Intn(n)
		} else {
			i = rand.Intn(n)
		}
		if ua := cfg.UserAgents[i]; ua != "" {
			fp.UserAgent = ua
		}
	}

	if fp.Width <= 0 || fp.Height <= 0 {
		fp.Width, fp.Height = 1920, 1080
	}
	if fp.Locale == "" {
		fp.Locale = "en-IE"
	}
	if fp.TimezoneID == "" {
		fp.TimezoneID = "Europe/Dublin"
	}
	if fp.Latitude == 0 && fp.Longitude == 0 {
		fp.Latitude, fp.Longitude = 53.3498, -6.2603
	}
	if fp.AcceptLanguage == "" {
		fp.AcceptLanguage = "en-IE,en-US;q=0.9,en;q=0.8"
	}
	if len(fp.Languages) == 0 {
		fp.Languages = []string{"en-US", "en", "en-IE"}
	}
	return fp
}

// Headers are sent with every request of the session.
func (fp Fingerprint) Headers() map[string]string {
	return map[string]string{
		"Accept-Language": fp.AcceptLanguage,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	}
}

// InitScript runs before any page script and hides the usual automation
// tells: navigator.webdriver, an empty plugin list, missing languages and
// the absent window.chrome object.
func (fp Fingerprint) InitScript() string {
	langs, err := json.Marshal(fp.Languages)
	if err != nil {
		langs = []byte(`["en-US","en"]`)
	}
	return fmt.Sprintf(`
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
Object.defineProperty(navigator, 'languages', { get: () => %s });
window.chrome = window.chrome || { runtime: {} };
`, langs)
}
