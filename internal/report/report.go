// Package report writes collected jobs as CSV, JSON, HTML and PDF files.
package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"job-collector/internal/dedup"
	"job-collector/internal/logging"
	"job-collector/internal/models"
)

// PDFRenderer prints an HTML document to a PDF file.
type PDFRenderer interface {
	RenderPDF(html, path string) error
}

// Writer names its files after the run date inside one output directory.
type Writer struct {
	dir string
	now func() time.Time
	log *logging.Logger
}

func NewWriter(dir string, log *logging.Logger) *Writer {
	if log == nil {
		log = logging.Nop()
	}
	return &Writer{dir: dir, now: time.Now, log: log}
}

func (w *Writer) stamp() string {
	return w.now().Format("20060102")
}

// SourceCSVs writes jobs_<source>_<date>.csv for every source that has jobs.
func (w *Writer) SourceCSVs(jobs []models.JobRecord) ([]string, error) {
	bySource := make(map[models.Source][]models.JobRecord)
	var order []models.Source
	for _, j := range jobs {
		if _, ok := bySource[j.Source]; !ok {
			order = append(order, j.Source)
		}
		bySource[j.Source] = append(bySource[j.Source], j)
	}

	var paths []string
	for _, src := range order {
		name := string(src)
		if name == "" {
			name = "unknown"
		}
		path := filepath.Join(w.dir, fmt.Sprintf("jobs_%s_%s.csv", name, w.stamp()))
		if err := writeCSVFile(path, bySource[src], false); err != nil {
			return paths, err
		}
		w.log.Info("💾 saved source csv", "source", name, "jobs", len(bySource[src]), "path", path)
		paths = append(paths, path)
	}
	return paths, nil
}

// MergedCSV writes every job once, deduplicated by URL, to path or to
// jobs_<date>.csv when path is empty.
func (w *Writer) MergedCSV(jobs []models.JobRecord, path string) (string, error) {
	if path == "" {
		path = filepath.Join(w.dir, fmt.Sprintf("jobs_%s.csv", w.stamp()))
	}
	unique := Unique(jobs)
	if err := writeCSVFile(path, unique, true); err != nil {
		return "", err
	}
	w.log.Info("💾 saved merged csv", "jobs", len(unique), "path", path)
	return path, nil
}

// JSON writes jobs, deduplicated by URL, as an array to jobs_<date>.json.
// The same file is the input of a later enrich run.
func (w *Writer) JSON(jobs []models.JobRecord) (string, error) {
	path := filepath.Join(w.dir, fmt.Sprintf("jobs_%s.json", w.stamp()))
	if err := dedup.NewLedger(path, jobs).Save(); err != nil {
		return "", err
	}
	w.log.Info("💾 saved json", "jobs", len(jobs), "path", path)
	return path, nil
}

// HTML writes report_<YYYY-MM-DD>.html and returns its path and content.
func (w *Writer) HTML(jobs []models.JobRecord, queries []string, location string) (string, []byte, error) {
	date := w.now().Format("2006-01-02")
	if len(queries) > 3 {
		queries = queries[:3]
	}

	var buf bytes.Buffer
	err := RenderHTML(&buf, Page{
		Date:     date,
		Query:    strings.Join(queries, ", "),
		Location: location,
		Jobs:     jobs,
	})
	if err != nil {
		return "", nil, err
	}

	path := filepath.Join(w.dir, fmt.Sprintf("report_%s.html", date))
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", nil, fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", nil, fmt.Errorf("write report: %w", err)
	}
	w.log.Info("📄 generated html report", "jobs", len(jobs), "path", path)
	return path, buf.Bytes(), nil
}

// PDF prints an already rendered HTML report next to its HTML file.
func (w *Writer) PDF(r PDFRenderer, htmlPath string, content []byte) (string, error) {
	path := strings.TrimSuffix(htmlPath, filepath.Ext(htmlPath)) + ".pdf"
	if err := r.RenderPDF(string(content), path); err != nil {
		return "", fmt.Errorf("pdf report: %w", err)
	}
	w.log.Info("📄 generated pdf report", "path", path)
	return path, nil
}
