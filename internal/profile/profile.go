// Package profile derives job search queries from a CV.
package profile

import (
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxQueries bounds the queries derived from one CV.
const MaxQueries = 8

type Profile struct {
	Name            string
	Email           string
	Phone           string
	Location        string
	Title           string
	Summary         string
	Skills          []string
	ExperienceYears int
	Queries         []string
}

// Load reads and derives the profile of the CV at path. A JSON resume's own
// title and location take precedence over what is found in its text.
func Load(path string) (Profile, error) {
	text, err := ReadText(path)
	if err != nil {
		return Profile{}, err
	}
	p := Derive(text)

	if strings.EqualFold(filepath.Ext(path), ".json") {
		r, err := ReadResume(path)
		if err != nil {
			return Profile{}, err
		}
		pi := r.PersonalInformation
		if pi.FullName != "" {
			p.Name = pi.FullName
		}
		if pi.Location != "" {
			p.Location = pi.Location
		}
		if pi.JobTitle != "" {
			p.Title = pi.JobTitle
			p.Queries = queries(p.Title, fold(text))
		}
	}
	return p, nil
}

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phoneRe = regexp.MustCompile(`\+?\d{2,3}[\s-]?\d{3,4}[\s-]?\d{4,6}`)

	locationRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Dublin,?\s*Ireland`),
		regexp.MustCompile(`(?i)Cork,?\s*Ireland`),
		regexp.MustCompile(`(?i)Galway,?\s*Ireland`),
		regexp.MustCompile(`(?i)\bDublin\b`),
		regexp.MustCompile(`(?i)\bIreland\b`),
	}

	// Most specific first.
	titleRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Lead\s+Software\s+(?:&|and)\s+AI\s+Engineer`),
		regexp.MustCompile(`(?i)Lead\s+(?:Software|AI|Data|Platform)\s+(?:Engineer|Developer|Architect)`),
		regexp.MustCompile(`(?i)Senior\s+(?:Software|AI|Data|Platform|Backend)\s+(?:Engineer|Developer|Architect)`),
		regexp.MustCompile(`(?i)(?:Software|AI|Data|Platform|Backend)\s+(?:Engineer|Developer|Architect)`),
		regexp.MustCompile(`(?i)Data\s+(?:Engineer|Scientist|Analyst)`),
		regexp.MustCompile(`(?i)DevOps\s+Engineer`),
		regexp.MustCompile(`(?i)Cloud\s+(?:Engineer|Architect)`),
		regexp.MustCompile(`(?i)Full[\s-]?Stack\s+Developer`),
	}

	experienceRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d+)\+?\s*years?\s*(?:of\s+)?(?:experience|designing|building)`),
		regexp.MustCompile(`(?i)over\s+(\d+)\s*years?`),
	}

	sectionRe = regexp.MustCompile(`(?i)^(PROFESSIONAL EXPERIENCE|EXPERIENCE|EDUCATION|SKILLS|PROJECTS)`)
)

var knownSkills = []string{
	// languages
	"Python", "C#", "Java", "JavaScript", "TypeScript", "Go", "Golang", "Rust", "Ruby", "PHP",
	"Scala", "Kotlin", "Swift", "SQL", "Bash",
	// frameworks
	"FastAPI", "Django", "Flask", "ASP.NET", ".NET", "React", "Next.js", "Node.js", "Express",
	"Spring", "Angular", "Vue.js", "GraphQL", "REST", "gRPC",
	// cloud
	"AWS", "Azure", "GCP", "Google Cloud", "Lambda", "EC2", "S3", "Terraform", "Kubernetes",
	"Docker", "Ansible", "Serverless",
	// data
	"Snowflake", "PostgreSQL", "Oracle", "MySQL", "MongoDB", "Redis", "Elasticsearch", "Kafka",
	"Airflow", "Databricks", "Redshift", "Power BI", "Tableau", "ETL",
	// ai
	"LLM", "GPT", "Machine Learning", "Deep Learning", "NLP", "Prompt Engineering",
	// delivery
	"CI/CD", "DevOps", "Jenkins", "GitHub Actions", "Git", "Agile", "Scrum",
}

var roleVariations = []string{
	"Software Engineer",
	"Lead Software Engineer",
	"Senior Software Engineer",
	"Python Developer",
	"Backend Developer",
	"Platform Engineer",
	"Data Engineer",
	"AI Engineer",
	"Machine Learning Engineer",
	"Cloud Engineer",
	"DevOps Engineer",
	"Full Stack Developer",
}

// Derive extracts contact details, title, skills and search queries from
// CV text. Missing fields are left empty.
func Derive(text string) Profile {
	var p Profile
	folded := fold(text)

	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			p.Name = line
			break
		}
	}
	p.Email = emailRe.FindString(text)
	p.Phone = phoneRe.FindString(text)

	for _, re := range locationRes {
		if m := re.FindString(text); m != "" {
			p.Location = strings.TrimSpace(m)
			break
		}
	}
	for _, re := range titleRes {
		if m := re.FindString(text); m != "" {
			p.Title = strings.Join(strings.Fields(m), " ")
			break
		}
	}
	for _, re := range experienceRes {
		if m := re.FindStringSubmatch(text); m != nil {
			p.ExperienceYears, _ = strconv.Atoi(m[1])
			break
		}
	}

	p.Summary = summary(text)
	for _, skill := range knownSkills {
		if containsTerm(folded, fold(skill)) {
			p.Skills = append(p.Skills, skill)
		}
	}
	sort.Strings(p.Skills)

	p.Queries = queries(p.Title, folded)
	return p
}

// queries starts with the title and adds each role variation sharing a word
// with the CV, without duplicates, up to MaxQueries.
func queries(title, folded string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(q string) {
		key := fold(q)
		if q == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, q)
	}

	add(title)
	for _, role := range roleVariations {
		for _, word := range strings.Fields(fold(role)) {
			if containsTerm(folded, word) {
				add(role)
				break
			}
		}
	}
	if len(out) > MaxQueries {
		out = out[:MaxQueries]
	}
	return out
}

// summary joins the longer lines between the header and the first section.
func summary(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > 20 {
		lines = lines[:20]
	}

	var out []string
	started := false
	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if sectionRe.MatchString(line) {
			break
		}
		if strings.ContainsAny(line, "@+") || strings.Contains(strings.ToLower(line), "linkedin") {
			continue
		}
		switch {
		case len(line) > 50:
			out = append(out, line)
			started = true
		case started && len(line) > 20:
			out = append(out, line)
		}
	}
	return strings.Join(out, " ")
}

// SearchLocation narrows the CV location to what the boards search best,
// defaulting to Dublin.
func (p Profile) SearchLocation() string {
	switch {
	case strings.Contains(p.Location, "Dublin"):
		return "Dublin"
	case strings.Contains(p.Location, "Ireland"):
		return "Ireland"
	case p.Location != "":
		return p.Location
	default:
		return "Dublin"
	}
}

// fold lowercases s and strips diacritics.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// containsTerm reports whether term occurs in s with no letter or digit
// directly on either side, so "go" does not match "good".
func containsTerm(s, term string) bool {
	if term == "" {
		return false
	}
	for i := 0; ; {
		j := strings.Index(s[i:], term)
		if j < 0 {
			return false
		}
		start, end := i+j, i+j+len(term)
		if !wordRune(lastRune(s[:start])) && !wordRune(firstRune(s[end:])) {
			return true
		}
		i = start + 1
	}
}

func wordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return ' '
}

func lastRune(s string) rune {
	if s == "" {
		return ' '
	}
	r, _ := utf8.DecodeLastRuneInString(s)
	return r
}
