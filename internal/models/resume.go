package models

// Resume is the structured CV format accepted next to PDF and plain text.
type Resume struct {
	PersonalInformation PersonalInformation `json:"personal_information"`
	Summary             string              `json:"summary"`
	Skills              Skills              `json:"skills"`
	Experience          []Experience        `json:"experience"`
	Projects            []Project           `json:"projects"`
	Education           Education           `json:"education"`
}

type PersonalInformation struct {
	FullName string `json:"full_name"`
	JobTitle string `json:"job_title"`
	Location string `json:"location"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

type Skills struct {
	Languages   []string `json:"languages"`
	Frontend    []string `json:"frontend"`
	Backend     []string `json:"backend"`
	Databases   []string `json:"databases"`
	DevOpsInfra []string `json:"devops_infra"`
	Data        []string `json:"data,omitempty"`
	AI          []string `json:"ai,omitempty"`
}

// All returns every listed skill, category by category.
func (s Skills) All() []string {
	var out []string
	for _, group := range [][]string{s.Languages, s.Frontend, s.Backend, s.Databases, s.DevOpsInfra, s.Data, s.AI} {
		out = append(out, group...)
	}
	return out
}

type Experience struct {
	Role             string   `json:"role"`
	Company          string   `json:"company"`
	Location         string   `json:"location"`
	Duration         string   `json:"duration"`
	Responsibilities []string `json:"responsibilities"`
	TechStack        []string `json:"tech_stack,omitempty"`
}

type Project struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Details     []string `json:"details,omitempty"`
}

type Education struct {
	Degree         string `json:"degree"`
	Institution    string `json:"institution"`
	Location       string `json:"location"`
	GraduationYear string `json:"graduation_year"`
}
