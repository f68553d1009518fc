package browser

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/playwright-community/playwright-go"

	"job-collector/internal/models"
)

// Cookie is one entry of a cookie export (browser extension JSON format).
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite"`
}

// CookieFile is where cookies for source are looked up inside dir.
func CookieFile(dir string, source models.Source) string {
	return filepath.Join(dir, fmt.Sprintf("cookies-%s.json", source))
}

func LoadCookies(path string) ([]playwright.OptionalCookie, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cookies []Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	out := make([]playwright.OptionalCookie, 0, len(cookies))
	for _, c := range cookies {
		if c.Name == "" || c.Domain == "" {
			continue
		}
		out = append(out, c.toPlaywright())
	}
	return out, nil
}

func (c Cookie) toPlaywright() playwright.OptionalCookie {
	path := c.Path
	if path == "" {
		path = "/"
	}
	oc := playwright.OptionalCookie{
		Name:   c.Name,
		Value:  c.Value,
		Domain: playwright.String(c.Domain),
		Path:   playwright.String(path),
	}
	if c.Expires > 0 {
		oc.Expires = playwright.Float(c.Expires)
	}
	if c.HTTPOnly {
		oc.HttpOnly = playwright.Bool(true)
	}
	if c.Secure {
		oc.Secure = playwright.Bool(true)
	}

	switch c.SameSite {
	case "Lax", "lax":
		oc.SameSite = playwright.SameSiteAttributeLax
	case "Strict", "strict":
		oc.SameSite = playwright.SameSiteAttributeStrict
	case "None", "none", "no_restriction":
		oc.SameSite = playwright.SameSiteAttributeNone
	}
	return oc
}
