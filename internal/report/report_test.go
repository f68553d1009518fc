package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-collector/internal/models"
)

var sampleJobs = []models.JobRecord{
	{Title: "Go Engineer", Company: "Acme", Location: "Dublin", URL: "https://ie.indeed.com/viewjob?jk=1", Source: models.SourceIndeed, SearchQuery: "go"},
	{Title: "Platform Engineer", Company: "Initech", Location: "Cork", Salary: "€80k", URL: "https://www.linkedin.com/jobs/view/2", Source: models.SourceLinkedIn, SearchQuery: "go"},
	{Title: "Go Engineer (repost)", URL: "https://ie.indeed.com/viewjob?jk=1", Source: models.SourceIndeed, SearchQuery: "backend"},
	{Title: "Data Engineer", Company: "Globex", Source: models.SourceIrishJobs, SearchQuery: "data"},
}

func fixedWriter(t *testing.T) *Writer {
	w := NewWriter(t.TempDir(), nil)
	w.now = func() time.Time { return time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC) }
	return w
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteCSV_ColumnOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleJobs[:1], false))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"title", "company", "location", "salary", "description", "url", "source"}, rows[0])
	assert.Equal(t, []string{"Go Engineer", "Acme", "Dublin", "", "", "https://ie.indeed.com/viewjob?jk=1", "indeed"}, rows[1])
}

func TestWriteCSV_QuotesEmbeddedSeparators(t *testing.T) {
	var buf bytes.Buffer
	job := models.JobRecord{Title: `Engineer, "Senior"`, Description: "line one\nline two"}
	require.NoError(t, WriteCSV(&buf, []models.JobRecord{job}, true))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, `Engineer, "Senior"`, rows[1][0])
	assert.Equal(t, "line one\nline two", rows[1][4])
	assert.Len(t, rows[1], 8)
}

func TestMergedCSV_DedupsByURL(t *testing.T) {
	w := fixedWriter(t)

	path, err := w.MergedCSV(sampleJobs, "")
	require.NoError(t, err)
	assert.Equal(t, "jobs_20260203.csv", filepath.Base(path))

	rows := readCSV(t, path)
	require.Len(t, rows, 4, "header plus three unique jobs")
	assert.Equal(t, "search_query", rows[0][7])
	assert.Equal(t, "Go Engineer", rows[1][0], "first occurrence wins")
	assert.Equal(t, "Data Engineer", rows[3][0], "records without url are kept")
}

func TestSourceCSVs(t *testing.T) {
	w := fixedWriter(t)

	paths, err := w.SourceCSVs(sampleJobs)
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Equal(t, "jobs_indeed_20260203.csv", filepath.Base(paths[0]))
	assert.Equal(t, "jobs_linkedin_20260203.csv", filepath.Base(paths[1]))
	assert.Equal(t, "jobs_irishjobs_20260203.csv", filepath.Base(paths[2]))

	rows := readCSV(t, paths[0])
	assert.Len(t, rows, 3)
	assert.Len(t, rows[0], 7)
}

func TestJSON(t *testing.T) {
	w := fixedWriter(t)

	path, err := w.JSON(sampleJobs)
	require.NoError(t, err)
	assert.Equal(t, "jobs_20260203.json", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got []models.JobRecord
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Len(t, got, 3)
	assert.Contains(t, string(data), `"posted_date"`)
}

func TestRenderHTML_EscapesJobText(t *testing.T) {
	var buf bytes.Buffer
	err := RenderHTML(&buf, Page{
		Date:     "2026-02-03",
		Query:    "<script>alert(1)</script>",
		Location: "Dublin",
		Jobs: []models.JobRecord{{
			Title:  `<img src=x onerror=alert(1)>`,
			URL:    "javascript:alert(1)",
			Source: "evil\" onclick=\"x",
		}},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.NotContains(t, out, "<script>alert(1)</script>")
	assert.NotContains(t, out, "<img src=x")
	assert.NotContains(t, out, `href="javascript:`)
	assert.Contains(t, out, "&lt;img src=x onerror=alert(1)&gt;")
	assert.Contains(t, out, `class="job-card unknown"`)
}

func TestRenderHTML_CardContent(t *testing.T) {
	long := strings.Repeat("a", PreviewLength+50)
	var buf bytes.Buffer
	err := RenderHTML(&buf, Page{
		Date: "2026-02-03",
		Jobs: []models.JobRecord{
			{Title: "Go Engineer", Source: models.SourceIrishJobs, Description: long, PostedDate: "Posted 2 days ago"},
			{},
		},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `class="job-card irishjobs"`)
	assert.Contains(t, out, strings.Repeat("a", PreviewLength)+"...")
	assert.NotContains(t, out, strings.Repeat("a", PreviewLength+1))
	assert.Contains(t, out, "Posted 2 days ago")
	assert.Contains(t, out, "No Title")
	assert.Contains(t, out, "Salary not specified")
	assert.Contains(t, out, "<strong>Total New Jobs:</strong> 2")
}

func TestHTML_WritesDatedFile(t *testing.T) {
	w := fixedWriter(t)

	path, content, err := w.HTML(sampleJobs, []string{"go", "backend", "data", "cloud"}, "Dublin")
	require.NoError(t, err)
	assert.Equal(t, "report_2026-02-03.html", filepath.Base(path))

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, onDisk)
	assert.Contains(t, string(content), "go, backend, data<")
}

type pdfStub struct {
	path string
	html string
	err  error
}

func (p *pdfStub) RenderPDF(html, path string) error {
	p.html, p.path = html, path
	return p.err
}

func TestPDF(t *testing.T) {
	w := fixedWriter(t)
	stub := &pdfStub{}

	path, err := w.PDF(stub, "/out/report_2026-02-03.html", []byte("<html></html>"))
	require.NoError(t, err)
	assert.Equal(t, "/out/report_2026-02-03.pdf", path)
	assert.Equal(t, "<html></html>", stub.html)

	stub.err = errors.New("browser gone")
	_, err = w.PDF(stub, "/out/report.html", nil)
	assert.ErrorContains(t, err, "browser gone")
}
