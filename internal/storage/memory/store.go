// Package memory is an in-process Repository for local runs and tests.
// Records are copied on the way in and out, so callers never share slices
// with the store.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"healthdir/internal/domain"
)

type Store struct {
	mu         sync.RWMutex
	hospitals  *table[domain.Hospital]
	treatments *table[domain.Treatment]
	doctors    *table[domain.Doctor]
	admins     *table[domain.AdminUser]
}

func New() *Store {
	return &Store{
		hospitals:  newTable(cloneHospital),
		treatments: newTable(cloneTreatment),
		doctors:    newTable(cloneDoctor),
		admins:     newTable(func(u domain.AdminUser) domain.AdminUser { return u }),
	}
}

// table keeps insertion order so listings are stable.
type table[T any] struct {
	order []string
	rows  map[string]T
	clone func(T) T
}

func newTable[T any](clone func(T) T) *table[T] {
	return &table[T]{rows: map[string]T{}, clone: clone}
}

func (t *table[T]) put(id string, v T) {
	if _, ok := t.rows[id]; !ok {
		t.order = append(t.order, id)
	}
	t.rows[id] = t.clone(v)
}

func (t *table[T]) get(id string) (T, bool) {
	v, ok := t.rows[id]
	if !ok {
		return v, false
	}
	return t.clone(v), true
}

func (t *table[T]) del(id string) {
	if _, ok := t.rows[id]; !ok {
		return
	}
	delete(t.rows, id)
	for i, o := range t.order {
		if o == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

func (t *table[T]) filter(keep func(T) bool) []T {
	out := []T{}
	for _, id := range t.order {
		if v := t.rows[id]; keep(v) {
			out = append(out, t.clone(v))
		}
	}
	return out
}

func (t *table[T]) byIDs(ids []string) []T {
	out := []T{}
	for _, id := range ids {
		if v, ok := t.get(id); ok {
			out = append(out, v)
		}
	}
	return out
}

func all[T any](T) bool { return true }

func newID() string { return uuid.NewString() }

/********** hospitals **********/

func (s *Store) CreateHospital(ctx context.Context, h *domain.Hospital) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h.ID = newID()
	h.FillEmptyLists()
	s.hospitals.put(h.ID, *h)
	return nil
}

func (s *Store) GetHospital(ctx context.Context, id string) (domain.Hospital, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.hospitals.get(id)
	if !ok {
		return domain.Hospital{}, domain.NotFoundf("hospital %s", id)
	}
	return h, nil
}

func (s *Store) GetHospitalBySlug(ctx context.Context, slug string) (domain.Hospital, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hs := s.hospitals.filter(func(h domain.Hospital) bool { return h.Slug == slug })
	if len(hs) == 0 {
		return domain.Hospital{}, domain.NotFoundf("hospital %q", slug)
	}
	return hs[0], nil
}

func (s *Store) ListHospitals(ctx context.Context) ([]domain.Hospital, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hospitals.filter(all[domain.Hospital]), nil
}

func (s *Store) HospitalsByIDs(ctx context.Context, ids []string) ([]domain.Hospital, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hospitals.byIDs(ids), nil
}

func (s *Store) UpdateHospital(ctx context.Context, h domain.Hospital) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hospitals.rows[h.ID]; !ok {
		return domain.NotFoundf("hospital %s", h.ID)
	}
	s.hospitals.put(h.ID, h)
	return nil
}

func (s *Store) DeleteHospital(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hospitals.del(id)
	return nil
}

func (s *Store) CountHospitals(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.hospitals.rows)), nil
}

/********** treatments **********/

func (s *Store) CreateTreatment(ctx context.Context, t *domain.Treatment) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.slugTaken(t.Slug, "") {
		return duplicateSlug(t.Slug)
	}
	t.ID = newID()
	t.FillEmptyLists()
	s.treatments.put(t.ID, *t)
	return nil
}

func (s *Store) GetTreatment(ctx context.Context, id string) (domain.Treatment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.treatments.get(id)
	if !ok {
		return domain.Treatment{}, domain.NotFoundf("treatment %s", id)
	}
	return t, nil
}

func (s *Store) ListTreatments(ctx context.Context) ([]domain.Treatment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.treatments.filter(all[domain.Treatment]), nil
}

func (s *Store) TreatmentsByIDs(ctx context.Context, ids []string) ([]domain.Treatment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.treatments.byIDs(ids), nil
}

func (s *Store) TreatmentsByCategory(ctx context.Context, category string) ([]domain.Treatment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.treatments.filter(func(t domain.Treatment) bool { return strings.EqualFold(t.Category, category) }), nil
}

func (s *Store) UpdateTreatment(ctx context.Context, t domain.Treatment) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.treatments.rows[t.ID]; !ok {
		return domain.NotFoundf("treatment %s", t.ID)
	}
	if s.slugTaken(t.Slug, t.ID) {
		return duplicateSlug(t.Slug)
	}
	s.treatments.put(t.ID, t)
	return nil
}

func (s *Store) DeleteTreatment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.treatments.del(id)
	return nil
}

func (s *Store) slugTaken(slug, exceptID string) bool {
	for id, t := range s.treatments.rows {
		if t.Slug == slug && id != exceptID {
			return true
		}
	}
	return false
}

func duplicateSlug(slug string) error {
	return &domain.ValidationError{Field: "slug", Msg: "slug " + slug + " already exists"}
}

/********** doctors **********/

func (s *Store) CreateDoctor(ctx context.Context, d *domain.Doctor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.ID = newID()
	d.FillEmptyLists()
	s.doctors.put(d.ID, *d)
	return nil
}

func (s *Store) GetDoctor(ctx context.Context, id string) (domain.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.doctors.get(id)
	if !ok {
		return domain.Doctor{}, domain.NotFoundf("doctor %s", id)
	}
	return d, nil
}

func (s *Store) GetDoctorBySlug(ctx context.Context, slug string) (domain.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds := s.doctors.filter(func(d domain.Doctor) bool { return d.Slug == slug })
	if len(ds) == 0 {
		return domain.Doctor{}, domain.NotFoundf("doctor %q", slug)
	}
	return ds[0], nil
}

func (s *Store) ListDoctors(ctx context.Context) ([]domain.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doctors.filter(all[domain.Doctor]), nil
}

func (s *Store) DoctorsByIDs(ctx context.Context, ids []string) ([]domain.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doctors.byIDs(ids), nil
}

func (s *Store) DoctorsByHospital(ctx context.Context, hospitalID string) ([]domain.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doctors.filter(func(d domain.Doctor) bool { return d.Hospital == hospitalID }), nil
}

func (s *Store) TopDoctors(ctx context.Context, limit int) ([]domain.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds := s.doctors.filter(func(d domain.Doctor) bool { return d.IsTopDoctor })
	if limit > 0 && len(ds) > limit {
		ds = ds[:limit]
	}
	return ds, nil
}

func (s *Store) UpdateDoctor(ctx context.Context, d domain.Doctor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.doctors.rows[d.ID]; !ok {
		return domain.NotFoundf("doctor %s", d.ID)
	}
	s.doctors.put(d.ID, d)
	return nil
}

func (s *Store) DeleteDoctor(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doctors.del(id)
	return nil
}

/********** admin users **********/

func (s *Store) CreateAdmin(ctx context.Context, u *domain.AdminUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.admins.rows {
		if existing.Username == u.Username {
			return &domain.ValidationError{Field: "username", Msg: "username already exists"}
		}
	}
	u.ID = newID()
	s.admins.put(u.ID, *u)
	return nil
}

func (s *Store) GetAdminByUsername(ctx context.Context, username string) (domain.AdminUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	us := s.admins.filter(func(u domain.AdminUser) bool { return u.Username == username })
	if len(us) == 0 {
		return domain.AdminUser{}, domain.NotFoundf("admin %q", username)
	}
	return us[0], nil
}

func (s *Store) CountAdmins(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.admins.rows)), nil
}

/********** copies **********/

func cloneHospital(h domain.Hospital) domain.Hospital {
	h.Specialties = cloneStrings(h.Specialties)
	h.Accreditations = cloneStrings(h.Accreditations)
	h.Treatments = cloneStrings(h.Treatments)
	h.Doctors = cloneStrings(h.Doctors)
	h.Rating = clonePtr(h.Rating)
	h.Beds = clonePtr(h.Beds)
	h.Latitude = clonePtr(h.Latitude)
	h.Longitude = clonePtr(h.Longitude)
	h.FillEmptyLists()
	return h
}

func cloneTreatment(t domain.Treatment) domain.Treatment {
	t.Hospitals = cloneStrings(t.Hospitals)
	t.Doctors = cloneStrings(t.Doctors)
	if t.CostTable != nil {
		t.CostTable = append([]domain.CostItem{}, t.CostTable...)
	}
	t.FillEmptyLists()
	return t
}

func cloneDoctor(d domain.Doctor) domain.Doctor {
	d.MedicalProblems = cloneStrings(d.MedicalProblems)
	d.Procedures = cloneStrings(d.Procedures)
	d.Treatments = cloneStrings(d.Treatments)
	if d.FAQs != nil {
		d.FAQs = append([]domain.FAQ{}, d.FAQs...)
	}
	d.FillEmptyLists()
	return d
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string{}, in...)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
