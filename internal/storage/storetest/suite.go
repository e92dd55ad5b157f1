// Package storetest is a behaviour suite every domain.Repository backend runs.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthdir/internal/domain"
)

// Factory returns an empty repository. It is called once per subtest.
type Factory func(t *testing.T) domain.Repository

func Run(t *testing.T, newRepo Factory) {
	t.Run("HospitalCRUD", func(t *testing.T) { hospitalCRUD(t, newRepo(t)) })
	t.Run("TreatmentSlugRules", func(t *testing.T) { treatmentSlugRules(t, newRepo(t)) })
	t.Run("TreatmentsByCategory", func(t *testing.T) { treatmentsByCategory(t, newRepo(t)) })
	t.Run("DoctorLookups", func(t *testing.T) { doctorLookups(t, newRepo(t)) })
	t.Run("ByIDsSkipsMissing", func(t *testing.T) { byIDsSkipsMissing(t, newRepo(t)) })
	t.Run("Admins", func(t *testing.T) { admins(t, newRepo(t)) })
	t.Run("ListsAreNeverNull", func(t *testing.T) { listsAreNeverNull(t, newRepo(t)) })
}

func f64(v float64) *float64 { return &v }
func i(v int) *int           { return &v }

func hospitalCRUD(t *testing.T, r domain.Repository) {
	ctx := context.Background()

	h := domain.Hospital{
		Name:           "Cedars",
		Slug:           "cedars",
		Location:       "Cairo",
		Rating:         f64(4.5),
		Beds:           i(300),
		Specialties:    []string{"Cardiology"},
		Accreditations: []string{"JCI"},
		Latitude:       f64(30.04),
		Longitude:      f64(31.23),
	}
	require.NoError(t, r.CreateHospital(ctx, &h))
	require.NotEmpty(t, h.ID)

	got, err := r.GetHospital(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cedars", got.Name)
	require.NotNil(t, got.Beds)
	assert.Equal(t, 300, *got.Beds)
	assert.Equal(t, []string{"Cardiology"}, got.Specialties)

	bySlug, err := r.GetHospitalBySlug(ctx, "cedars")
	require.NoError(t, err)
	assert.Equal(t, h.ID, bySlug.ID)

	_, err = r.GetHospitalBySlug(ctx, "Cedars")
	assert.True(t, errors.Is(err, domain.ErrNotFound), "slug match is case-sensitive")

	tr := domain.Treatment{TreatmentName: "MRI", Slug: "mri"}
	require.NoError(t, r.CreateTreatment(ctx, &tr))
	got.Location = "Giza"
	got.Treatments = []string{tr.ID}
	require.NoError(t, r.UpdateHospital(ctx, got))
	again, err := r.GetHospital(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, "Giza", again.Location)
	assert.Equal(t, []string{tr.ID}, again.Treatments)

	second := domain.Hospital{Name: "Nile", Slug: "nile"}
	require.NoError(t, r.CreateHospital(ctx, &second))
	all, err := r.ListHospitals(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, []string{h.ID, second.ID}, []string{all[0].ID, all[1].ID}, "insertion order")

	n, err := r.CountHospitals(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	require.NoError(t, r.DeleteHospital(ctx, h.ID))
	require.NoError(t, r.DeleteHospital(ctx, h.ID), "delete is idempotent")
	_, err = r.GetHospital(ctx, h.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	err = r.UpdateHospital(ctx, domain.Hospital{ID: h.ID, Name: "ghost"})
	assert.True(t, errors.Is(err, domain.ErrNotFound), "update of a deleted record")
}

func treatmentSlugRules(t *testing.T, r domain.Repository) {
	ctx := context.Background()
	var ve *domain.ValidationError

	err := r.CreateTreatment(ctx, &domain.Treatment{TreatmentName: "   "})
	require.ErrorAs(t, err, &ve, "empty slug is rejected")

	a := domain.Treatment{
		TreatmentName: "X Ray",
		Slug:          "x-ray",
		CostTable:     []domain.CostItem{{Name: "Basic", CostFrom: 10, CostTo: 20, Currency: "USD"}},
		Details:       domain.LocalizedText{En: "en", Ar: "ar"},
	}
	require.NoError(t, r.CreateTreatment(ctx, &a))

	err = r.CreateTreatment(ctx, &domain.Treatment{TreatmentName: "X-Ray", Slug: "x-ray"})
	require.ErrorAs(t, err, &ve, "duplicate slug is rejected")

	b := domain.Treatment{TreatmentName: "MRI", Slug: "mri"}
	require.NoError(t, r.CreateTreatment(ctx, &b))
	b.Slug = "x-ray"
	require.ErrorAs(t, r.UpdateTreatment(ctx, b), &ve, "update into a taken slug")

	got, err := r.GetTreatment(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.CostTable, got.CostTable)
	assert.Equal(t, a.Details, got.Details)

	got.Category = "Radiology"
	require.NoError(t, r.UpdateTreatment(ctx, got), "re-saving the same slug is fine")
	byCat, err := r.TreatmentsByCategory(ctx, "radiology")
	require.NoError(t, err)
	require.Len(t, byCat, 1)
	assert.Equal(t, a.ID, byCat[0].ID)
}

func treatmentsByCategory(t *testing.T, r domain.Repository) {
	ctx := context.Background()
	for _, tr := range []domain.Treatment{
		{TreatmentName: "Bypass", Slug: "bypass", Category: "Heart Surgery"},
		{TreatmentName: "Valve", Slug: "valve", Category: "HEART SURGERY"},
		{TreatmentName: "Stent", Slug: "stent", Category: "Heart Surgery (Minimal)"},
		{TreatmentName: "Knee", Slug: "knee", Category: "Orthopedics"},
	} {
		tr := tr
		require.NoError(t, r.CreateTreatment(ctx, &tr))
	}

	out, err := r.TreatmentsByCategory(ctx, "heart surgery")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "bypass", out[0].Slug)
	assert.Equal(t, "valve", out[1].Slug)

	none, err := r.TreatmentsByCategory(ctx, "heart")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func doctorLookups(t *testing.T, r domain.Repository) {
	ctx := context.Background()

	h := domain.Hospital{Name: "Cedars", Slug: "cedars"}
	require.NoError(t, r.CreateHospital(ctx, &h))
	other := domain.Hospital{Name: "Nile", Slug: "nile"}
	require.NoError(t, r.CreateHospital(ctx, &other))

	var ids []string
	for n, top := range []bool{true, false, true, true, true} {
		d := domain.Doctor{
			Name:        string(rune('A' + n)),
			Slug:        "dr-" + string(rune('a'+n)),
			IsTopDoctor: top,
			Hospital:    h.ID,
			FAQs:        []domain.FAQ{{Question: "q", Answer: "a"}},
		}
		if n == 4 {
			d.Hospital = other.ID
		}
		require.NoError(t, r.CreateDoctor(ctx, &d))
		ids = append(ids, d.ID)
	}

	top, err := r.TopDoctors(ctx, 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, []string{ids[0], ids[2], ids[3]}, []string{top[0].ID, top[1].ID, top[2].ID})

	atH, err := r.DoctorsByHospital(ctx, h.ID)
	require.NoError(t, err)
	assert.Len(t, atH, 4)

	d, err := r.GetDoctorBySlug(ctx, "dr-b")
	require.NoError(t, err)
	assert.Equal(t, ids[1], d.ID)
	assert.Equal(t, []domain.FAQ{{Question: "q", Answer: "a"}}, d.FAQs)

	d.IsTopDoctor = true
	require.NoError(t, r.UpdateDoctor(ctx, d))
	top, err = r.TopDoctors(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, top, 5)

	require.NoError(t, r.DeleteDoctor(ctx, d.ID))
	_, err = r.GetDoctor(ctx, d.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func byIDsSkipsMissing(t *testing.T, r domain.Repository) {
	ctx := context.Background()

	a := domain.Hospital{Name: "A", Slug: "a"}
	b := domain.Hospital{Name: "B", Slug: "b"}
	require.NoError(t, r.CreateHospital(ctx, &a))
	require.NoError(t, r.CreateHospital(ctx, &b))
	require.NoError(t, r.DeleteHospital(ctx, a.ID))

	hs, err := r.HospitalsByIDs(ctx, []string{a.ID, "not-an-id", b.ID})
	require.NoError(t, err)
	require.Len(t, hs, 1)
	assert.Equal(t, b.ID, hs[0].ID)

	empty, err := r.TreatmentsByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	ds, err := r.DoctorsByIDs(ctx, []string{"nope"})
	require.NoError(t, err)
	assert.Empty(t, ds)
}

func admins(t *testing.T, r domain.Repository) {
	ctx := context.Background()

	n, err := r.CountAdmins(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	u := domain.AdminUser{Username: "admin", PasswordHash: "$2a$hash", Role: domain.DefaultAdminRole}
	require.NoError(t, r.CreateAdmin(ctx, &u))
	require.NotEmpty(t, u.ID)

	var ve *domain.ValidationError
	require.ErrorAs(t, r.CreateAdmin(ctx, &domain.AdminUser{Username: "admin", PasswordHash: "x"}), &ve)

	got, err := r.GetAdminByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "$2a$hash", got.PasswordHash)
	assert.Equal(t, domain.DefaultAdminRole, got.Role)

	_, err = r.GetAdminByUsername(ctx, "nobody")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// Bare records must read back with empty lists so they encode as [] rather
// than null.
func listsAreNeverNull(t *testing.T, r domain.Repository) {
	ctx := context.Background()

	h := domain.Hospital{Name: "Bare", Slug: "bare"}
	require.NoError(t, r.CreateHospital(ctx, &h))
	for _, got := range []domain.Hospital{h, mustHospital(t, r, h.ID)} {
		assert.NotNil(t, got.Specialties)
		assert.NotNil(t, got.Accreditations)
		assert.NotNil(t, got.Treatments)
		assert.NotNil(t, got.Doctors)
	}

	tr := domain.Treatment{TreatmentName: "Bare", Slug: "bare"}
	require.NoError(t, r.CreateTreatment(ctx, &tr))
	gotT, err := r.GetTreatment(ctx, tr.ID)
	require.NoError(t, err)
	for _, got := range []domain.Treatment{tr, gotT} {
		assert.NotNil(t, got.Hospitals)
		assert.NotNil(t, got.Doctors)
		assert.NotNil(t, got.CostTable)
	}

	d := domain.Doctor{Name: "Bare", Slug: "bare"}
	require.NoError(t, r.CreateDoctor(ctx, &d))
	require.NoError(t, r.UpdateDoctor(ctx, domain.Doctor{ID: d.ID, Name: "Still Bare", Slug: "bare"}))
	gotD, err := r.GetDoctor(ctx, d.ID)
	require.NoError(t, err)
	for _, got := range []domain.Doctor{d, gotD} {
		assert.NotNil(t, got.MedicalProblems)
		assert.NotNil(t, got.Procedures)
		assert.NotNil(t, got.FAQs)
		assert.NotNil(t, got.Treatments)
	}
}

func mustHospital(t *testing.T, r domain.Repository, id string) domain.Hospital {
	t.Helper()
	h, err := r.GetHospital(context.Background(), id)
	require.NoError(t, err)
	return h
}
