package domain

import (
	"context"
	"io"
)

// Repository is the entity store. Writes are atomic per document only;
// nothing here spans documents.
type Repository interface {
	// Hospitals
	CreateHospital(ctx context.Context, h *Hospital) error
	GetHospital(ctx context.Context, id string) (Hospital, error)
	GetHospitalBySlug(ctx context.Context, slug string) (Hospital, error)
	ListHospitals(ctx context.Context) ([]Hospital, error)
	HospitalsByIDs(ctx context.Context, ids []string) ([]Hospital, error)
	UpdateHospital(ctx context.Context, h Hospital) error
	DeleteHospital(ctx context.Context, id string) error
	CountHospitals(ctx context.Context) (int64, error)

	// Treatments
	CreateTreatment(ctx context.Context, t *Treatment) error
	GetTreatment(ctx context.Context, id string) (Treatment, error)
	ListTreatments(ctx context.Context) ([]Treatment, error)
	TreatmentsByIDs(ctx context.Context, ids []string) ([]Treatment, error)
	// TreatmentsByCategory matches category case-insensitively and exactly.
	TreatmentsByCategory(ctx context.Context, category string) ([]Treatment, error)
	UpdateTreatment(ctx context.Context, t Treatment) error
	DeleteTreatment(ctx context.Context, id string) error

	// Doctors
	CreateDoctor(ctx context.Context, d *Doctor) error
	GetDoctor(ctx context.Context, id string) (Doctor, error)
	GetDoctorBySlug(ctx context.Context, slug string) (Doctor, error)
	ListDoctors(ctx context.Context) ([]Doctor, error)
	DoctorsByIDs(ctx context.Context, ids []string) ([]Doctor, error)
	DoctorsByHospital(ctx context.Context, hospitalID string) ([]Doctor, error)
	TopDoctors(ctx context.Context, limit int) ([]Doctor, error)
	UpdateDoctor(ctx context.Context, d Doctor) error
	DeleteDoctor(ctx context.Context, id string) error

	// Admin users
	CreateAdmin(ctx context.Context, u *AdminUser) error
	GetAdminByUsername(ctx context.Context, username string) (AdminUser, error)
	CountAdmins(ctx context.Context) (int64, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
	// DelPrefix removes every key starting with prefix.
	DelPrefix(ctx context.Context, prefix string) error
	// Incr atomically adds one to the integer at key, starting from 0.
	Incr(ctx context.Context, key string) (int64, error)
}

// Upload is a binary file accompanying an admin request.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ImageStore persists uploads and returns the path or URL clients use to fetch them.
type ImageStore interface {
	Save(ctx context.Context, u Upload) (string, error)
}

// TokenIssuer issues and checks admin session tokens.
type TokenIssuer interface {
	Issue(u AdminUser) (string, error)
	// Verify returns the username the token was issued to.
	Verify(token string) (string, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}
