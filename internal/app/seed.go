package app

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"healthdir/internal/domain"
)

//go:embed seeddata/catalog.json
var defaultCatalog []byte

// Catalog is seed input. Reference fields hold slugs of other catalog
// entries instead of ids: treatments[].hospitals, doctors[].hospital and
// doctors[].treatments.
type Catalog struct {
	Hospitals  []Fields `json:"hospitals"`
	Treatments []Fields `json:"treatments"`
	Doctors    []Fields `json:"doctors"`
}

func DefaultCatalog() (Catalog, error) {
	return ReadCatalog(bytes.NewReader(defaultCatalog))
}

func ReadCatalog(r io.Reader) (Catalog, error) {
	var c Catalog
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return Catalog{}, fmt.Errorf("decode seed catalog: %w", err)
	}
	return c, nil
}

type Seeder struct {
	admin *AdminService
	repo  domain.Repository
	cat   Catalog
}

func NewSeeder(admin *AdminService, repo domain.Repository, cat Catalog) *Seeder {
	return &Seeder{admin: admin, repo: repo, cat: cat}
}

// EnsureSeeded populates an empty store from the catalog and reports whether
// it did. A store holding any hospital is left alone.
//
// The links are written document by document with no transaction: a failure
// part way leaves records created so far, partially linked. Because the gate
// is the hospital count, such a store is not reseeded; clear it first.
func (s *Seeder) EnsureSeeded(ctx context.Context) (bool, error) {
	n, err := s.repo.CountHospitals(ctx)
	if err != nil {
		return false, fmt.Errorf("count hospitals: %w", err)
	}
	if n > 0 {
		log.Debug().Int64("hospitals", n).Msg("store already seeded")
		return false, nil
	}

	hospitalIDs := map[string]string{}
	hospitals := map[string]*domain.Hospital{}
	for _, in := range s.cat.Hospitals {
		in = clone(in)
		delete(in, "treatments")
		delete(in, "doctors")
		h, err := s.admin.CreateHospital(ctx, in, nil)
		if err != nil {
			return false, fmt.Errorf("seed hospital %q: %w", asString(in["name"]), err)
		}
		hospitalIDs[h.Slug] = h.ID
		hospitals[h.ID] = &h
	}

	treatmentIDs := map[string]string{}
	treatments := map[string]*domain.Treatment{}
	var treatmentOrder []string
	for _, in := range s.cat.Treatments {
		in = clone(in)
		in["hospitals"] = lookupAll(SplitList(in["hospitals"]), hospitalIDs)
		delete(in, "doctors")
		t, err := s.admin.CreateTreatment(ctx, in)
		if err != nil {
			return false, fmt.Errorf("seed treatment %q: %w", asString(in["treatmentName"]), err)
		}
		treatmentIDs[t.Slug] = t.ID
		treatments[t.ID] = &t
		treatmentOrder = append(treatmentOrder, t.ID)
	}

	var doctorOrder []domain.Doctor
	for _, in := range s.cat.Doctors {
		in = clone(in)
		in["hospital"] = hospitalIDs[asString(in["hospital"])]
		in["treatments"] = lookupAll(SplitList(in["treatments"]), treatmentIDs)
		d, err := s.admin.CreateDoctor(ctx, in, nil)
		if err != nil {
			return false, fmt.Errorf("seed doctor %q: %w", asString(in["name"]), err)
		}
		doctorOrder = append(doctorOrder, d)
	}

	// back-links: treatment.doctors, hospital.doctors, hospital.treatments
	for _, d := range doctorOrder {
		for _, tid := range d.Treatments {
			if t := treatments[tid]; t != nil {
				t.Doctors = append(t.Doctors, d.ID)
			}
		}
		if h := hospitals[d.Hospital]; h != nil {
			h.Doctors = append(h.Doctors, d.ID)
		}
	}
	for _, tid := range treatmentOrder {
		t := treatments[tid]
		for _, hid := range t.Hospitals {
			if h := hospitals[hid]; h != nil {
				h.Treatments = append(h.Treatments, t.ID)
			}
		}
		if err := s.repo.UpdateTreatment(ctx, *t); err != nil {
			return false, fmt.Errorf("link treatment %s: %w", t.Slug, err)
		}
	}
	for _, h := range hospitals {
		if err := s.repo.UpdateHospital(ctx, *h); err != nil {
			return false, fmt.Errorf("link hospital %s: %w", h.Slug, err)
		}
	}
	s.admin.invalidate(ctx)

	log.Info().
		Int("hospitals", len(hospitals)).
		Int("treatments", len(treatments)).
		Int("doctors", len(doctorOrder)).
		Msg("store seeded")
	return true, nil
}

func clone(in Fields) Fields {
	out := make(Fields, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// lookupAll maps slugs to ids, dropping slugs the catalog does not define.
func lookupAll(slugs []string, ids map[string]string) []string {
	out := make([]string, 0, len(slugs))
	for _, s := range slugs {
		if id, ok := ids[s]; ok {
			out = append(out, id)
		}
	}
	return out
}
