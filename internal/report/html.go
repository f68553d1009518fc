package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"unicode/utf8"

	"job-collector/internal/models"
)

// PreviewLength is the number of description characters shown per job.
const PreviewLength = 300

//go:embed templates/report.html.tmpl
var templates embed.FS

var reportTmpl = template.Must(template.New("report.html.tmpl").Funcs(template.FuncMap{
	"sourceClass": sourceClass,
	"preview":     preview,
}).ParseFS(templates, "templates/report.html.tmpl"))

// Page is the data behind the HTML report.
type Page struct {
	Date     string
	Query    string
	Location string
	Jobs     []models.JobRecord
}

// RenderHTML writes the report. All job text is escaped by html/template.
func RenderHTML(w io.Writer, p Page) error {
	if err := reportTmpl.Execute(w, p); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

func sourceClass(s models.Source) string {
	if src, err := models.ParseSource(string(s)); err == nil {
		return string(src)
	}
	return "unknown"
}

func preview(s string) string {
	if utf8.RuneCountInString(s) <= PreviewLength {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:PreviewLength])) + "..."
}
