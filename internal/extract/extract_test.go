package extract

import (
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-collector/internal/models"
)

var listingCatalog = Catalog{
	Cards:       []string{"div.job_seen_beacon", "td.resultContent"},
	Title:       []string{"h2.jobTitle", "a.jcs-JobTitle"},
	Company:     []string{"span.companyName", `span[data-testid="company-name"]`},
	Location:    []string{"div.companyLocation"},
	Salary:      []string{"div.salary-snippet"},
	Description: []string{"div.job-snippet"},
}

func doc(t *testing.T, body string) *goquery.Selection {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	require.NoError(t, err)
	return d.Selection
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: " Senior  Engineer \n\t", want: "Senior Engineer"},
		{in: "", want: ""},
		{in: "\n\n", want: ""},
		{in: "Dublin, Ireland", want: "Dublin, Ireland"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanText(tt.in), "input %q", tt.in)
	}
}

func TestFirstMatch_FallsBackInOrder(t *testing.T) {
	card := doc(t, `<div><span data-testid="company-name"> Globex  Corp </span></div>`)

	got, ok := FirstMatch(card, listingCatalog.Company, nil)

	require.True(t, ok)
	assert.Equal(t, "Globex Corp", got)
}

func TestFirstMatch_PrefersEarlierCandidate(t *testing.T) {
	card := doc(t, `<div><span class="companyName">Acme</span><span data-testid="company-name">Globex</span></div>`)

	got, ok := FirstMatch(card, listingCatalog.Company, nil)

	require.True(t, ok)
	assert.Equal(t, "Acme", got)
}

func TestFirstMatch_SkipsEmptyAndRejected(t *testing.T) {
	card := doc(t, `<div><p class="a">   </p><p class="b">short</p><p class="c">long enough</p></div>`)

	got, ok := FirstMatch(card, []string{"p.a", "p.b", "p.c"}, func(s string) bool { return len(s) > 5 })

	require.True(t, ok)
	assert.Equal(t, "long enough", got)

	_, ok = FirstMatch(card, []string{"p.missing", "[[invalid"}, nil)
	assert.False(t, ok)
}

func TestParseCards(t *testing.T) {
	page := `<html><body>
	<div class="job_seen_beacon"><h2 class="jobTitle"><a href="/rc/clk?jk=abc123">  Data
	  Engineer </a></h2><span class="companyName">Acme</span><div class="companyLocation">Dublin</div></div>
	<div class="job_seen_beacon"><h2 class="jobTitle"><a href="https://ie.indeed.com/viewjob?jk=def456">Platform Engineer</a></h2>
	  <div class="salary-snippet">€70,000 a year</div><div class="job-snippet">Build things</div></div>
	<div class="job_seen_beacon"><span class="companyName">No Title Ltd</span></div>
	</body></html>`

	jobs, stats, err := ParseCards(page, listingCatalog, "https://ie.indeed.com", models.SourceIndeed)

	require.NoError(t, err)
	assert.Equal(t, "div.job_seen_beacon", stats.Selector)
	assert.Equal(t, 3, stats.Cards)
	assert.Equal(t, 1, stats.Skipped)
	require.Len(t, jobs, 2)

	assert.Equal(t, models.JobRecord{
		Title:    "Data Engineer",
		Company:  "Acme",
		Location: "Dublin",
		URL:      "https://ie.indeed.com/rc/clk?jk=abc123",
		Source:   models.SourceIndeed,
	}, jobs[0])

	assert.Equal(t, "https://ie.indeed.com/viewjob?jk=def456", jobs[1].URL)
	assert.Equal(t, "€70,000 a year", jobs[1].Salary)
	assert.Equal(t, "Build things", jobs[1].Description)
	assert.Empty(t, jobs[1].Company)
}

func TestParseCards_NoContainerMatches(t *testing.T) {
	jobs, stats, err := ParseCards(`<html><body><p>Please wait</p></body></html>`, listingCatalog, "https://ie.indeed.com", models.SourceIndeed)

	require.NoError(t, err)
	assert.Empty(t, jobs)
	assert.Zero(t, stats.Cards)
	assert.Empty(t, stats.Selector)
}

func TestParseCards_LinkCandidates(t *testing.T) {
	cat := Catalog{
		Cards: []string{"li"},
		Title: []string{"h3.base-search-card__title"},
		Link:  []string{"a.base-card__full-link"},
	}
	page := `<ul><li><a class="base-card__full-link" href="https://www.linkedin.com/jobs/view/42?refId=x"></a>
	<h3 class="base-search-card__title">Go Developer</h3></li></ul>`

	jobs, _, err := ParseCards(page, cat, "https://www.linkedin.com", models.SourceLinkedIn)

	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "https://www.linkedin.com/jobs/view/42?refId=x", jobs[0].URL)
}

func TestParseCards_LinkInsideAncestorAnchor(t *testing.T) {
	cat := Catalog{Cards: []string{"article"}, Title: []string{"h2.job-title"}}
	page := `<article><a href="/job/7"><h2 class="job-title">Analyst</h2></a></article>`

	jobs, _, err := ParseCards(page, cat, "https://www.irishjobs.ie", models.SourceIrishJobs)

	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "https://www.irishjobs.ie/job/7", jobs[0].URL)
}

func TestResolveURL(t *testing.T) {
	assert.Equal(t, "https://ie.indeed.com/viewjob?jk=1", ResolveURL("https://ie.indeed.com", "/viewjob?jk=1"))
	assert.Equal(t, "https://other.example/x", ResolveURL("https://ie.indeed.com", "https://other.example/x"))
	assert.Equal(t, "", ResolveURL("https://ie.indeed.com", "  "))
}

func TestParseDetail_DescriptionThreshold(t *testing.T) {
	exactly50 := strings.Repeat("a", 50)
	exactly51 := strings.Repeat("b", 51)
	cat := DetailCatalog{Description: []string{"div#first", "div#second"}}

	page := fmt.Sprintf(`<div id="first">%s</div><div id="second">%s</div>`, exactly50, exactly51)
	res := ParseDetail(page, cat)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, exactly51, res.Description, "50 characters is rejected, next candidate tried")

	res = ParseDetail(fmt.Sprintf(`<div id="first">%s</div>`, exactly50), cat)
	assert.Equal(t, StatusFailed, res.Status)
	assert.ErrorIs(t, res.Err, ErrNoDescription)
	assert.Empty(t, res.Description)
}

func TestParseDetail_SeparatesBlocks(t *testing.T) {
	page := `<div id="jobDescriptionText"><p>We are hiring a platform engineer.</p><ul><li>Go</li><li>Kubernetes and Terraform</li></ul><script>var x=1;</script></div>`

	res := ParseDetail(page, DetailCatalog{Description: []string{"div#jobDescriptionText"}})

	require.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, "We are hiring a platform engineer. Go Kubernetes and Terraform", res.Description)
}

func TestParseDetail_PostedDate(t *testing.T) {
	long := strings.Repeat("Responsibilities include building pipelines. ", 3)
	cat := DetailCatalog{
		Description: []string{"div#desc"},
		PostedDate:  []string{"span.date", `div[class*="date"]`},
	}

	tests := []struct {
		name string
		page string
		want string
	}{
		{
			name: "keyword match",
			page: `<span class="date">Posted 3 days ago</span>`,
			want: "Posted 3 days ago",
		},
		{
			name: "unrelated metadata skipped",
			page: `<span class="date">Ref 12345</span><div class="update-date">Today</div>`,
			want: "Today",
		},
		{
			name: "footer fallback",
			page: `<div class="jobsearch-Footer">Report job · Active 5 days ago · Save</div>`,
			want: "Active 5 days ago",
		},
		{
			name: "nothing temporal",
			page: `<span class="date">Permanent</span>`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ParseDetail(`<div id="desc">`+long+`</div>`+tt.page, cat)
			assert.Equal(t, StatusSuccess, res.Status)
			assert.Equal(t, tt.want, res.PostedDate)
		})
	}
}

func TestParseDetail_DateWithoutDescription(t *testing.T) {
	res := ParseDetail(`<span class="date">Posted today</span>`, DetailCatalog{
		Description: []string{"div#desc"},
		PostedDate:  []string{"span.date"},
	})

	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, "Posted today", res.PostedDate)
}

func TestHasTemporalKeyword(t *testing.T) {
	assert.True(t, HasTemporalKeyword("Just posted"))
	assert.True(t, HasTemporalKeyword("2 WEEKS AGO"))
	assert.False(t, HasTemporalKeyword("Full-time"))
}
