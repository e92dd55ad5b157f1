package app

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"healthdir/internal/domain"
)

const (
	publicKeyPrefix = "public:"
	// publicGenKey sits outside publicKeyPrefix so DelPrefix never resets it.
	publicGenKey    = "cachegen:public"
	topDoctorsLimit = 3
	maxCachedBytes  = 1_000_000
)

// QueryService serves the public read projections, cache-aside.
type QueryService struct {
	repo     domain.Repository
	cache    domain.Cache
	cacheTTL time.Duration
	res      *Resolver
}

func NewQueryService(r domain.Repository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl, res: NewResolver(r)}
}

func (s *QueryService) Treatments(ctx context.Context) ([]TreatmentView, error) {
	return cached(ctx, s, "treatments", func() ([]TreatmentView, error) {
		ts, err := s.repo.ListTreatments(ctx)
		if err != nil {
			return nil, err
		}
		return s.res.Treatments(ctx, ts)
	})
}

// TreatmentsByCategory looks up "heart-surgery" as category "Heart Surgery"
// (case-insensitive, exact). No match is ErrNotFound.
func (s *QueryService) TreatmentsByCategory(ctx context.Context, categorySlug string) ([]TreatmentView, error) {
	return cached(ctx, s, "category:"+categorySlug, func() ([]TreatmentView, error) {
		ts, err := s.repo.TreatmentsByCategory(ctx, categoryFromSlug(categorySlug))
		if err != nil {
			return nil, err
		}
		if len(ts) == 0 {
			return nil, domain.NotFoundf("no treatments found for category %q", categorySlug)
		}
		return s.res.Treatments(ctx, ts)
	})
}

func (s *QueryService) HospitalBySlug(ctx context.Context, slug string) (domain.Hospital, error) {
	return cached(ctx, s, "hospital:"+slug, func() (domain.Hospital, error) {
		return s.repo.GetHospitalBySlug(ctx, slug)
	})
}

func (s *QueryService) DoctorBySlug(ctx context.Context, slug string) (DoctorView, error) {
	return cached(ctx, s, "doctor:"+slug, func() (DoctorView, error) {
		d, err := s.repo.GetDoctorBySlug(ctx, slug)
		if err != nil {
			return DoctorView{}, err
		}
		return s.res.Doctor(ctx, d)
	})
}

func (s *QueryService) HospitalDoctors(ctx context.Context, hospitalID string) ([]DoctorView, error) {
	return cached(ctx, s, "hospital-doctors:"+hospitalID, func() ([]DoctorView, error) {
		ds, err := s.repo.DoctorsByHospital(ctx, hospitalID)
		if err != nil {
			return nil, err
		}
		return s.res.Doctors(ctx, ds)
	})
}

func (s *QueryService) TopDoctors(ctx context.Context) ([]DoctorView, error) {
	return cached(ctx, s, "top-doctors", func() ([]DoctorView, error) {
		ds, err := s.repo.TopDoctors(ctx, topDoctorsLimit)
		if err != nil {
			return nil, err
		}
		return s.res.Doctors(ctx, ds)
	})
}

// cached serves key from the cache when present, otherwise loads and stores it.
// Keys carry the current generation: a load that raced an admin write is
// stored under the old generation, where no later read looks.
// Cache failures only cost a reload.
func cached[T any](ctx context.Context, s *QueryService, name string, load func() (T, error)) (T, error) {
	if s.cache == nil {
		return load()
	}
	var gen int64
	if _, err := s.cache.Get(ctx, publicGenKey, &gen); err != nil {
		return load()
	}
	key := publicKeyPrefix + strconv.FormatInt(gen, 10) + ":" + name

	var out T
	if ok, err := s.cache.Get(ctx, key, &out); ok && err == nil {
		return out, nil
	}
	v, err := load()
	if err != nil {
		var zero T
		return zero, err
	}
	// optional size guard
	if b, _ := json.Marshal(v); len(b) < maxCachedBytes {
		_ = s.cache.Set(ctx, key, v, int(s.cacheTTL.Seconds()))
	}
	return v, nil
}
