package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"job-collector/internal/models"
)

var (
	sourceColumns = []string{"title", "company", "location", "salary", "description", "url", "source"}
	mergedColumns = append(append([]string(nil), sourceColumns...), "search_query")
)

// WriteCSV writes jobs with the fixed column order, adding search_query when
// withQuery is set.
func WriteCSV(w io.Writer, jobs []models.JobRecord, withQuery bool) error {
	cw := csv.NewWriter(w)
	header := sourceColumns
	if withQuery {
		header = mergedColumns
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, j := range jobs {
		row := []string{j.Title, j.Company, j.Location, j.Salary, j.Description, j.URL, string(j.Source)}
		if withQuery {
			row = append(row, j.SearchQuery)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Unique drops every record whose URL was already seen, keeping the first.
// Records without a URL are kept.
func Unique(jobs []models.JobRecord) []models.JobRecord {
	seen := make(map[string]bool, len(jobs))
	out := make([]models.JobRecord, 0, len(jobs))
	for _, j := range jobs {
		if j.Trackable() {
			if seen[j.URL] {
				continue
			}
			seen[j.URL] = true
		}
		out = append(out, j)
	}
	return out
}

func writeCSVFile(path string, jobs []models.JobRecord, withQuery bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, jobs, withQuery); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
