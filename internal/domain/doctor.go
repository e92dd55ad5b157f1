package domain

type Doctor struct {
	ID              string   `json:"_id"`
	Name            string   `json:"name"`
	Slug            string   `json:"slug"`
	Specialty       string   `json:"specialty"`
	Experience      string   `json:"experience"`
	Image           string   `json:"image,omitempty"`
	IsTopDoctor     bool     `json:"isTopDoctor"`
	Position        string   `json:"position"`
	Degree          string   `json:"degree"`
	About           string   `json:"about"`
	MedicalProblems []string `json:"medicalProblems"`
	Procedures      []string `json:"procedures"`
	FAQs            []FAQ    `json:"faqs"`
	Hospital        string   `json:"hospital,omitempty"`
	Treatments      []string `json:"treatments"`
}

type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// DoctorSummary is the doctor shape embedded in public treatment listings.
type DoctorSummary struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Specialty   string `json:"specialty"`
	Experience  string `json:"experience"`
	Image       string `json:"image,omitempty"`
	Position    string `json:"position"`
	Degree      string `json:"degree"`
	IsTopDoctor bool   `json:"isTopDoctor"`
}

func (d Doctor) Summary() DoctorSummary {
	return DoctorSummary{
		ID:          d.ID,
		Name:        d.Name,
		Slug:        d.Slug,
		Specialty:   d.Specialty,
		Experience:  d.Experience,
		Image:       d.Image,
		Position:    d.Position,
		Degree:      d.Degree,
		IsTopDoctor: d.IsTopDoctor,
	}
}
