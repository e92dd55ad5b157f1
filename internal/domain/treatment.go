package domain

// DefaultCurrency applies to cost items submitted without a currency.
const DefaultCurrency = "USD"

type Treatment struct {
	ID              string        `json:"_id"`
	Slug            string        `json:"slug"`
	TreatmentName   string        `json:"treatmentName"`
	Category        string        `json:"category"`
	Description     string        `json:"description"`
	CostRange       string        `json:"costRange"`
	TreatmentNameAr string        `json:"treatmentNameAr,omitempty"`
	CategoryAr      string        `json:"categoryAr,omitempty"`
	DescriptionAr   string        `json:"descriptionAr,omitempty"`
	Hospitals       []string      `json:"hospitals"`
	Doctors         []string      `json:"doctors"`
	Details         LocalizedText `json:"details"`
	CostTable       []CostItem    `json:"costTable"`
}

// LocalizedText carries long-form content in English and Arabic.
type LocalizedText struct {
	En string `json:"en"`
	Ar string `json:"ar"`
}

type CostItem struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	CostFrom    float64 `json:"costFrom"`
	CostTo      float64 `json:"costTo"`
	Currency    string  `json:"currency"`
}

// TreatmentSummary is the treatment shape embedded in doctor responses.
type TreatmentSummary struct {
	ID            string `json:"_id"`
	Slug          string `json:"slug"`
	TreatmentName string `json:"treatmentName"`
	Category      string `json:"category"`
	CostRange     string `json:"costRange"`
}

func (t Treatment) Summary() TreatmentSummary {
	return TreatmentSummary{
		ID:            t.ID,
		Slug:          t.Slug,
		TreatmentName: t.TreatmentName,
		Category:      t.Category,
		CostRange:     t.CostRange,
	}
}

// Validate is called by stores before a treatment is written. An empty slug
// would collide with every other treatment stored without one.
func (t Treatment) Validate() error {
	if t.Slug == "" {
		return &ValidationError{Field: "slug", Msg: "slug must not be empty"}
	}
	return nil
}
