package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"job-collector/internal/models"
)

var ErrNoCV = errors.New("no CV or resume PDF found")

// ReadText returns the text of a CV. PDFs are read page by page, .json files
// are decoded as a Resume, anything else is read as plain text.
func ReadText(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return readPDF(path)
	case ".json":
		r, err := ReadResume(path)
		if err != nil {
			return "", err
		}
		return ResumeText(r), nil
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read cv: %w", err)
		}
		return string(data), nil
	}
}

func readPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("read page %d of %s: %w", i, path, err)
		}
		var lines []string
		for _, row := range rows {
			var b strings.Builder
			for _, word := range row.Content {
				b.WriteString(word.S)
			}
			if line := strings.TrimSpace(b.String()); line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			pages = append(pages, strings.Join(lines, "\n"))
		}
	}
	if len(pages) == 0 {
		return "", fmt.Errorf("no text in %s", path)
	}
	return strings.Join(pages, "\n"), nil
}

func ReadResume(path string) (models.Resume, error) {
	var r models.Resume
	data, err := os.ReadFile(path)
	if err != nil {
		return r, fmt.Errorf("read resume: %w", err)
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("parse resume %s: %w", path, err)
	}
	return r, nil
}

// ResumeText lays a Resume out the way a CV reads: name first, then
// title, location, summary, skills and experience.
func ResumeText(r models.Resume) string {
	pi := r.PersonalInformation
	lines := []string{pi.FullName, pi.JobTitle, pi.Location, pi.Email, pi.Phone, r.Summary}
	if skills := r.Skills.All(); len(skills) > 0 {
		lines = append(lines, "SKILLS", strings.Join(skills, ", "))
	}
	if len(r.Experience) > 0 {
		lines = append(lines, "EXPERIENCE")
	}
	for _, e := range r.Experience {
		lines = append(lines, e.Role+" at "+e.Company, e.Duration)
		lines = append(lines, e.Responsibilities...)
		if len(e.TechStack) > 0 {
			lines = append(lines, strings.Join(e.TechStack, ", "))
		}
	}
	for _, p := range r.Projects {
		lines = append(lines, p.Name, p.Description)
		lines = append(lines, p.Details...)
	}
	if r.Education.Degree != "" {
		lines = append(lines, "EDUCATION", r.Education.Degree+", "+r.Education.Institution)
	}

	var out []string
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

var cvPatterns = []string{"*CV*.pdf", "*cv*.pdf", "*Resume*.pdf", "*resume*.pdf", "*RESUME*.pdf"}

// FindCV looks for a CV or resume PDF in dir, falling back to any PDF.
func FindCV(dir string) (string, error) {
	for _, pattern := range append(cvPatterns, "*.pdf") {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return "", err
		}
		if len(matches) > 0 {
			return matches[0], nil
		}
	}
	return "", fmt.Errorf("%w in %s", ErrNoCV, dir)
}
