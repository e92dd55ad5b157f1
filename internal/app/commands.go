package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"healthdir/internal/domain"
)

// AdminService implements the admin CRUD operations. Every successful write
// evicts the public read cache, since any entity can appear embedded in
// another one's projection.
type AdminService struct {
	repo   domain.Repository
	cache  domain.Cache
	images domain.ImageStore
	res    *Resolver
}

func NewAdminService(r domain.Repository, cache domain.Cache, images domain.ImageStore) *AdminService {
	return &AdminService{repo: r, cache: cache, images: images, res: NewResolver(r)}
}

/********** hospitals **********/

func (s *AdminService) CreateHospital(ctx context.Context, in Fields, img *domain.Upload) (domain.Hospital, error) {
	if err := s.attachImage(ctx, in, img); err != nil {
		return domain.Hospital{}, err
	}
	var h domain.Hospital
	if err := ApplyHospital(&h, in); err != nil {
		return domain.Hospital{}, err
	}
	if strings.TrimSpace(h.Name) == "" {
		return domain.Hospital{}, required("name")
	}
	if err := s.repo.CreateHospital(ctx, &h); err != nil {
		return domain.Hospital{}, fmt.Errorf("create hospital: %w", err)
	}
	s.invalidate(ctx)
	return h, nil
}

func (s *AdminService) ListHospitals(ctx context.Context) ([]domain.Hospital, error) {
	return s.repo.ListHospitals(ctx)
}

func (s *AdminService) GetHospital(ctx context.Context, id string) (domain.Hospital, error) {
	return s.repo.GetHospital(ctx, id)
}

func (s *AdminService) UpdateHospital(ctx context.Context, id string, in Fields, img *domain.Upload) (domain.Hospital, error) {
	h, err := s.repo.GetHospital(ctx, id)
	if err != nil {
		return domain.Hospital{}, err
	}
	if err := s.attachImage(ctx, in, img); err != nil {
		return domain.Hospital{}, err
	}
	if err := ApplyHospital(&h, in); err != nil {
		return domain.Hospital{}, err
	}
	h.ID = id
	if err := s.repo.UpdateHospital(ctx, h); err != nil {
		return domain.Hospital{}, fmt.Errorf("update hospital %s: %w", id, err)
	}
	s.invalidate(ctx)
	return h, nil
}

// DeleteHospital does not touch doctors or treatments that reference id.
func (s *AdminService) DeleteHospital(ctx context.Context, id string) error {
	if err := s.repo.DeleteHospital(ctx, id); err != nil {
		return fmt.Errorf("delete hospital %s: %w", id, err)
	}
	s.invalidate(ctx)
	return nil
}

/********** treatments **********/

// CreateTreatment derives the slug from treatmentName unless one was submitted.
func (s *AdminService) CreateTreatment(ctx context.Context, in Fields) (domain.Treatment, error) {
	var t domain.Treatment
	if err := ApplyTreatment(&t, in); err != nil {
		return domain.Treatment{}, err
	}
	if strings.TrimSpace(t.TreatmentName) == "" {
		return domain.Treatment{}, required("treatmentName")
	}
	if t.Slug == "" {
		t.Slug = Slugify(t.TreatmentName)
	}
	if t.CostTable == nil {
		t.CostTable = []domain.CostItem{}
	}
	if err := s.repo.CreateTreatment(ctx, &t); err != nil {
		return domain.Treatment{}, fmt.Errorf("create treatment: %w", err)
	}
	s.invalidate(ctx)
	return t, nil
}

func (s *AdminService) ListTreatments(ctx context.Context) ([]AdminTreatmentView, error) {
	ts, err := s.repo.ListTreatments(ctx)
	if err != nil {
		return nil, err
	}
	return s.res.AdminTreatments(ctx, ts)
}

func (s *AdminService) GetTreatment(ctx context.Context, id string) (domain.Treatment, error) {
	return s.repo.GetTreatment(ctx, id)
}

// UpdateTreatment keeps the stored slug even when treatmentName changes.
func (s *AdminService) UpdateTreatment(ctx context.Context, id string, in Fields) (domain.Treatment, error) {
	t, err := s.repo.GetTreatment(ctx, id)
	if err != nil {
		return domain.Treatment{}, err
	}
	if err := ApplyTreatment(&t, in); err != nil {
		return domain.Treatment{}, err
	}
	t.ID = id
	if err := s.repo.UpdateTreatment(ctx, t); err != nil {
		return domain.Treatment{}, fmt.Errorf("update treatment %s: %w", id, err)
	}
	s.invalidate(ctx)
	return t, nil
}

func (s *AdminService) DeleteTreatment(ctx context.Context, id string) error {
	if err := s.repo.DeleteTreatment(ctx, id); err != nil {
		return fmt.Errorf("delete treatment %s: %w", id, err)
	}
	s.invalidate(ctx)
	return nil
}

/********** doctors **********/

func (s *AdminService) CreateDoctor(ctx context.Context, in Fields, img *domain.Upload) (domain.Doctor, error) {
	if err := s.attachImage(ctx, in, img); err != nil {
		return domain.Doctor{}, err
	}
	var d domain.Doctor
	if err := ApplyDoctor(&d, in); err != nil {
		return domain.Doctor{}, err
	}
	if strings.TrimSpace(d.Name) == "" {
		return domain.Doctor{}, required("name")
	}
	if err := s.repo.CreateDoctor(ctx, &d); err != nil {
		return domain.Doctor{}, fmt.Errorf("create doctor: %w", err)
	}
	s.invalidate(ctx)
	return d, nil
}

func (s *AdminService) ListDoctors(ctx context.Context) ([]domain.Doctor, error) {
	return s.repo.ListDoctors(ctx)
}

func (s *AdminService) GetDoctor(ctx context.Context, id string) (domain.Doctor, error) {
	return s.repo.GetDoctor(ctx, id)
}

func (s *AdminService) UpdateDoctor(ctx context.Context, id string, in Fields, img *domain.Upload) (domain.Doctor, error) {
	d, err := s.repo.GetDoctor(ctx, id)
	if err != nil {
		return domain.Doctor{}, err
	}
	if err := s.attachImage(ctx, in, img); err != nil {
		return domain.Doctor{}, err
	}
	if err := ApplyDoctor(&d, in); err != nil {
		return domain.Doctor{}, err
	}
	d.ID = id
	if err := s.repo.UpdateDoctor(ctx, d); err != nil {
		return domain.Doctor{}, fmt.Errorf("update doctor %s: %w", id, err)
	}
	s.invalidate(ctx)
	return d, nil
}

func (s *AdminService) DeleteDoctor(ctx context.Context, id string) error {
	if err := s.repo.DeleteDoctor(ctx, id); err != nil {
		return fmt.Errorf("delete doctor %s: %w", id, err)
	}
	s.invalidate(ctx)
	return nil
}

/********** helpers **********/

// attachImage stores an uploaded image and records its path in the input.
// Without an upload the submitted image field, if any, is kept as is.
func (s *AdminService) attachImage(ctx context.Context, in Fields, img *domain.Upload) error {
	if img == nil {
		return nil
	}
	if s.images == nil {
		return fmt.Errorf("image upload is not configured")
	}
	path, err := s.images.Save(ctx, *img)
	if err != nil {
		return fmt.Errorf("store image: %w", err)
	}
	in["image"] = path
	return nil
}

func (s *AdminService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Incr(ctx, publicGenKey); err != nil {
		log.Warn().Err(err).Msg("public cache generation bump failed")
	}
	if err := s.cache.DelPrefix(ctx, publicKeyPrefix); err != nil {
		log.Warn().Err(err).Msg("public cache invalidation failed")
	}
}

func required(field string) error {
	return &domain.ValidationError{Field: field, Msg: "is required"}
}
