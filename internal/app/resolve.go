package app

import (
	"context"

	"golang.org/x/sync/errgroup"

	"healthdir/internal/domain"
)

// Read models with references expanded. The outer fields shadow the id lists
// of the embedded entity, both in Go and in the JSON encoding.

type TreatmentView struct {
	domain.Treatment
	Hospitals []*domain.HospitalSummary `json:"hospitals"`
	Doctors   []*domain.DoctorSummary   `json:"doctors"`
}

type AdminTreatmentView struct {
	domain.Treatment
	Hospitals []*domain.Hospital `json:"hospitals"`
	Doctors   []*domain.Doctor   `json:"doctors"`
}

type DoctorView struct {
	domain.Doctor
	Hospital   *domain.HospitalRef        `json:"hospital"`
	Treatments []*domain.TreatmentSummary `json:"treatments"`
}

// Resolver expands stored ids into embedded records. A dangling id resolves
// to a nil entry at its position; it is never an error.
type Resolver struct {
	repo domain.Repository
}

func NewResolver(r domain.Repository) *Resolver { return &Resolver{repo: r} }

type refSet struct {
	hospitals  map[string]domain.Hospital
	doctors    map[string]domain.Doctor
	treatments map[string]domain.Treatment
}

// load fetches the referenced records of each kind in one batch per kind.
func (r *Resolver) load(ctx context.Context, hospitalIDs, doctorIDs, treatmentIDs []string) (refSet, error) {
	var rs refSet
	g, gctx := errgroup.WithContext(ctx)
	if len(hospitalIDs) > 0 {
		g.Go(func() error {
			hs, err := r.repo.HospitalsByIDs(gctx, hospitalIDs)
			rs.hospitals = indexBy(hs, func(h domain.Hospital) string { return h.ID })
			return err
		})
	}
	if len(doctorIDs) > 0 {
		g.Go(func() error {
			ds, err := r.repo.DoctorsByIDs(gctx, doctorIDs)
			rs.doctors = indexBy(ds, func(d domain.Doctor) string { return d.ID })
			return err
		})
	}
	if len(treatmentIDs) > 0 {
		g.Go(func() error {
			ts, err := r.repo.TreatmentsByIDs(gctx, treatmentIDs)
			rs.treatments = indexBy(ts, func(t domain.Treatment) string { return t.ID })
			return err
		})
	}
	return rs, g.Wait()
}

// Treatments expands hospitals and doctors into their public projections.
func (r *Resolver) Treatments(ctx context.Context, ts []domain.Treatment) ([]TreatmentView, error) {
	var hIDs, dIDs []string
	for _, t := range ts {
		hIDs = append(hIDs, t.Hospitals...)
		dIDs = append(dIDs, t.Doctors...)
	}
	rs, err := r.load(ctx, uniq(hIDs), uniq(dIDs), nil)
	if err != nil {
		return nil, err
	}
	out := make([]TreatmentView, 0, len(ts))
	for _, t := range ts {
		out = append(out, TreatmentView{
			Treatment: t,
			Hospitals: expand(t.Hospitals, rs.hospitals, domain.Hospital.Summary),
			Doctors:   expand(t.Doctors, rs.doctors, domain.Doctor.Summary),
		})
	}
	return out, nil
}

// AdminTreatments expands hospitals and doctors into full records.
func (r *Resolver) AdminTreatments(ctx context.Context, ts []domain.Treatment) ([]AdminTreatmentView, error) {
	var hIDs, dIDs []string
	for _, t := range ts {
		hIDs = append(hIDs, t.Hospitals...)
		dIDs = append(dIDs, t.Doctors...)
	}
	rs, err := r.load(ctx, uniq(hIDs), uniq(dIDs), nil)
	if err != nil {
		return nil, err
	}
	out := make([]AdminTreatmentView, 0, len(ts))
	for _, t := range ts {
		out = append(out, AdminTreatmentView{
			Treatment: t,
			Hospitals: expand(t.Hospitals, rs.hospitals, identity[domain.Hospital]),
			Doctors:   expand(t.Doctors, rs.doctors, identity[domain.Doctor]),
		})
	}
	return out, nil
}

// Doctors expands the hospital and treatments of each doctor.
func (r *Resolver) Doctors(ctx context.Context, ds []domain.Doctor) ([]DoctorView, error) {
	var hIDs, tIDs []string
	for _, d := range ds {
		if d.Hospital != "" {
			hIDs = append(hIDs, d.Hospital)
		}
		tIDs = append(tIDs, d.Treatments...)
	}
	rs, err := r.load(ctx, uniq(hIDs), nil, uniq(tIDs))
	if err != nil {
		return nil, err
	}
	out := make([]DoctorView, 0, len(ds))
	for _, d := range ds {
		v := DoctorView{
			Doctor:     d,
			Treatments: expand(d.Treatments, rs.treatments, domain.Treatment.Summary),
		}
		if h, ok := rs.hospitals[d.Hospital]; ok {
			ref := h.Ref()
			v.Hospital = &ref
		}
		out = append(out, v)
	}
	return out, nil
}

// Doctor is Doctors for a single record.
func (r *Resolver) Doctor(ctx context.Context, d domain.Doctor) (DoctorView, error) {
	vs, err := r.Doctors(ctx, []domain.Doctor{d})
	if err != nil {
		return DoctorView{}, err
	}
	return vs[0], nil
}

/********** helpers **********/

func expand[T, V any](ids []string, byID map[string]T, project func(T) V) []*V {
	out := make([]*V, len(ids))
	for i, id := range ids {
		if v, ok := byID[id]; ok {
			p := project(v)
			out[i] = &p
		}
	}
	return out
}

func indexBy[T any](items []T, key func(T) string) map[string]T {
	m := make(map[string]T, len(items))
	for _, it := range items {
		m[key(it)] = it
	}
	return m
}

func identity[T any](v T) T { return v }

func uniq(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
