package dedup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"job-collector/internal/models"
)

// Ledger is an ordered job collection keyed by URL and backed by a JSON
// array file. Upsert merges into an existing record or appends; Save
// rewrites the whole file atomically.
type Ledger struct {
	path  string
	jobs  []models.JobRecord
	index map[string]int
}

func NewLedger(path string, jobs []models.JobRecord) *Ledger {
	l := &Ledger{path: path, index: make(map[string]int)}
	for _, j := range jobs {
		l.Upsert(j)
	}
	return l
}

// LoadLedger reads path. A missing file gives an empty ledger.
func LoadLedger(path string) (*Ledger, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewLedger(path, nil), nil
	}
	if err != nil {
		return nil, err
	}

	var jobs []models.JobRecord
	if len(data) > 0 {
		if err := json.Unmarshal(data, &jobs); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return NewLedger(path, jobs), nil
}

// Upsert merges job into the record with the same URL, whose non-empty
// fields it overwrites, and reports true. Otherwise job is appended. A job
// without URL is appended unless an identical record is already present.
func (l *Ledger) Upsert(job models.JobRecord) (updated bool) {
	if !job.Trackable() {
		for _, existing := range l.jobs {
			if existing == job {
				return false
			}
		}
		l.jobs = append(l.jobs, job)
		return false
	}

	if i, ok := l.index[job.URL]; ok {
		l.jobs[i].Merge(job)
		return true
	}
	l.index[job.URL] = len(l.jobs)
	l.jobs = append(l.jobs, job)
	return false
}

func (l *Ledger) Find(url string) (models.JobRecord, bool) {
	i, ok := l.index[url]
	if !ok {
		return models.JobRecord{}, false
	}
	return l.jobs[i], true
}

// Jobs returns a copy of the records in insertion order.
func (l *Ledger) Jobs() []models.JobRecord {
	return append([]models.JobRecord(nil), l.jobs...)
}

func (l *Ledger) Len() int {
	return len(l.jobs)
}

func (l *Ledger) Path() string {
	return l.path
}

func (l *Ledger) Save() error {
	jobs := l.jobs
	if jobs == nil {
		jobs = []models.JobRecord{}
	}
	if err := writeJSON(l.path, jobs); err != nil {
		return fmt.Errorf("save %s: %w", l.path, err)
	}
	return nil
}

// writeJSON replaces path atomically with the indented JSON of v.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
