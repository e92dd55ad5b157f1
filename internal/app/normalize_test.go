package app_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthdir/internal/app"
	"healthdir/internal/domain"
)

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"A", "B", "C"}, app.SplitList("A, B ,C"))
	assert.Equal(t, []string{"A", "C"}, app.SplitList("A,, ,C,"))
	assert.Equal(t, []string{}, app.SplitList(""))
	assert.Equal(t, []string{}, app.SplitList(nil))
	assert.Equal(t, []string{"x", "y"}, app.SplitList([]string{"x", "y"}))
	assert.Equal(t, []string{"x", "y"}, app.SplitList([]any{"x", "y"}))
	assert.Equal(t, []string{"a", "b"}, app.SplitList(`["a","b"]`))
}

func TestApplyHospital_Partial(t *testing.T) {
	h := domain.Hospital{Name: "Old", Location: "Cairo", Specialties: []string{"Cardiology"}}

	err := app.ApplyHospital(&h, app.Fields{
		"name":           "New",
		"rating":         "4.5",
		"beds":           json.Number("120"),
		"specialties":    "Oncology, Neurology",
		"accreditations": "JCI",
	})
	require.NoError(t, err)

	assert.Equal(t, "New", h.Name)
	assert.Equal(t, "Cairo", h.Location, "unsubmitted fields keep their value")
	require.NotNil(t, h.Rating)
	assert.Equal(t, 4.5, *h.Rating)
	require.NotNil(t, h.Beds)
	assert.Equal(t, 120, *h.Beds)
	assert.Equal(t, []string{"Oncology", "Neurology"}, h.Specialties)
	assert.Equal(t, []string{"JCI"}, h.Accreditations)
}

func TestApplyHospital_BadNumber(t *testing.T) {
	var h domain.Hospital
	err := app.ApplyHospital(&h, app.Fields{"beds": "many"})

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "beds", ve.Field)
}

func TestApplyHospital_EmptyNumberClears(t *testing.T) {
	r := 3.0
	h := domain.Hospital{Rating: &r}
	require.NoError(t, app.ApplyHospital(&h, app.Fields{"rating": ""}))
	assert.Nil(t, h.Rating)
}

func TestParseCostTable(t *testing.T) {
	items, err := app.ParseCostTable(`[
		{"name":"Basic","costFrom":"abc","costTo":"150"},
		{"name":"Premium","costFrom":2000,"currency":"EUR"}
	]`)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, 0.0, items[0].CostFrom)
	assert.Equal(t, 150.0, items[0].CostTo)
	assert.Equal(t, "USD", items[0].Currency)

	assert.Equal(t, 2000.0, items[1].CostFrom)
	assert.Equal(t, 0.0, items[1].CostTo, "missing costTo coerces to 0")
	assert.Equal(t, "EUR", items[1].Currency)
}

func TestParseCostTable_Typed(t *testing.T) {
	items, err := app.ParseCostTable([]any{map[string]any{"costFrom": json.Number("99.5")}})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 99.5, items[0].CostFrom)
}

func TestParseCostTable_Malformed(t *testing.T) {
	_, err := app.ParseCostTable("[{oops")

	var pe *domain.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "costTable", pe.Field)
}

func TestApplyTreatment(t *testing.T) {
	var tr domain.Treatment
	err := app.ApplyTreatment(&tr, app.Fields{
		"treatmentName": "Knee Replacement",
		"hospitals":     "h1,h2",
		"details":       `{"en":"Full knee","ar":"ركبة"}`,
		"costTable":     []any{},
	})
	require.NoError(t, err)

	assert.Equal(t, "Knee Replacement", tr.TreatmentName)
	assert.Empty(t, tr.Slug, "applying fields never derives the slug")
	assert.Equal(t, []string{"h1", "h2"}, tr.Hospitals)
	assert.Equal(t, "Full knee", tr.Details.En)
	assert.Equal(t, "ركبة", tr.Details.Ar)
	assert.Equal(t, []domain.CostItem{}, tr.CostTable)
}

func TestApplyDoctor(t *testing.T) {
	var d domain.Doctor
	err := app.ApplyDoctor(&d, app.Fields{
		"name":            "Dr. Aziz",
		"isTopDoctor":     "true",
		"medicalProblems": "Arthritis, Sports injuries",
		"treatments":      []string{"t1"},
		"faqs":            `[{"question":"Q1","answer":"A1"}]`,
	})
	require.NoError(t, err)

	assert.True(t, d.IsTopDoctor)
	assert.Equal(t, []string{"Arthritis, Sports injuries"}, d.MedicalProblems, "single string is wrapped, not split")
	assert.Equal(t, []string{"t1"}, d.Treatments)
	assert.Equal(t, []domain.FAQ{{Question: "Q1", Answer: "A1"}}, d.FAQs)

	err = app.ApplyDoctor(&d, app.Fields{"isTopDoctor": "maybe"})
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)

	err = app.ApplyDoctor(&d, app.Fields{"faqs": "{broken"})
	var pe *domain.ParseError
	assert.ErrorAs(t, err, &pe)
}
