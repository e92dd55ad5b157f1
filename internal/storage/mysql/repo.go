// Package mysql is the MySQL Repository. Each record is stored as a JSON
// document next to the few columns the lookups filter on.
package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"healthdir/internal/adapters/observability"
	"healthdir/internal/domain"
)

const errDuplicateEntry = 1062

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// EnsureSchema creates the tables if they do not exist yet.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return r.db.PingContext(ctx)
}

/********** helpers **********/

func observe(op string, start time.Time, err error) {
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
	}
	observability.ObserveStore("mysql", op, err, time.Since(start))
}

func (r *Repo) exec(ctx context.Context, op, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	res, err := r.db.ExecContext(ctx, query, args...)
	observe(op, start, err)
	return res, translateWriteErr(err)
}

func getDoc[T any](ctx context.Context, db *sql.DB, what, query string, args ...any) (T, error) {
	var (
		out T
		raw []byte
	)
	start := time.Now()
	err := db.QueryRowContext(ctx, query, args...).Scan(&raw)
	observe("select", start, err)
	if errors.Is(err, sql.ErrNoRows) {
		return out, domain.NotFoundf("%s", what)
	}
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(raw, &out)
	return out, err
}

func listDocs[T any](ctx context.Context, db *sql.DB, query string, args ...any) ([]T, error) {
	start := time.Now()
	rows, err := db.QueryContext(ctx, query, args...)
	observe("select", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// inIDs builds "WHERE id IN (?,?,...)" for ids. ok is false for an empty list.
func inIDs(ids []string) (clause string, args []any, ok bool) {
	if len(ids) == 0 {
		return "", nil, false
	}
	marks := make([]string, len(ids))
	args = make([]any, len(ids))
	for i, id := range ids {
		marks[i] = "?"
		args[i] = id
	}
	return " WHERE id IN (" + strings.Join(marks, ",") + ")", args, true
}

func byIDs[T any](ctx context.Context, db *sql.DB, selectDocs string, ids []string) ([]T, error) {
	where, args, ok := inIDs(ids)
	if !ok {
		return []T{}, nil
	}
	return listDocs[T](ctx, db, selectDocs+where, args...)
}

func translateWriteErr(err error) error {
	var me *mysqldrv.MySQLError
	if errors.As(err, &me) && me.Number == errDuplicateEntry {
		return &domain.ValidationError{Msg: "duplicate key: " + me.Message}
	}
	return err
}

func count(ctx context.Context, db *sql.DB, table string) (int64, error) {
	var n int64
	start := time.Now()
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n)
	observe("count", start, err)
	return n, err
}

/********** hospitals **********/

func (r *Repo) CreateHospital(ctx context.Context, h *domain.Hospital) error {
	h.ID = uuid.NewString()
	h.FillEmptyLists()
	doc, err := json.Marshal(h)
	if err != nil {
		return err
	}
	_, err = r.exec(ctx, "insert", insertHospitalSQL, h.ID, h.Slug, doc)
	return err
}

func (r *Repo) GetHospital(ctx context.Context, id string) (domain.Hospital, error) {
	return getDoc[domain.Hospital](ctx, r.db, "hospital "+id, selectHospitalDocs+" WHERE id = ?", id)
}

func (r *Repo) GetHospitalBySlug(ctx context.Context, slug string) (domain.Hospital, error) {
	return getDoc[domain.Hospital](ctx, r.db, "hospital "+slug, selectHospitalDocs+" WHERE slug = ?"+orderBySeq+" LIMIT 1", slug)
}

func (r *Repo) ListHospitals(ctx context.Context) ([]domain.Hospital, error) {
	return listDocs[domain.Hospital](ctx, r.db, selectHospitalDocs+orderBySeq)
}

func (r *Repo) HospitalsByIDs(ctx context.Context, ids []string) ([]domain.Hospital, error) {
	return byIDs[domain.Hospital](ctx, r.db, selectHospitalDocs, ids)
}

func (r *Repo) UpdateHospital(ctx context.Context, h domain.Hospital) error {
	h.FillEmptyLists()
	doc, err := json.Marshal(h)
	if err != nil {
		return err
	}
	// RowsAffected is 0 for an unchanged row, so existence is checked first.
	if _, err := r.GetHospital(ctx, h.ID); err != nil {
		return err
	}
	_, err = r.exec(ctx, "update", updateHospitalSQL, h.Slug, doc, h.ID)
	return err
}

func (r *Repo) DeleteHospital(ctx context.Context, id string) error {
	_, err := r.exec(ctx, "delete", `DELETE FROM hospitals WHERE id = ?`, id)
	return err
}

func (r *Repo) CountHospitals(ctx context.Context) (int64, error) {
	return count(ctx, r.db, "hospitals")
}

/********** treatments **********/

func (r *Repo) CreateTreatment(ctx context.Context, t *domain.Treatment) error {
	if err := t.Validate(); err != nil {
		return err
	}
	t.ID = uuid.NewString()
	t.FillEmptyLists()
	doc, err := json.Marshal(t)
	if err != nil {
		return err
	}
	_, err = r.exec(ctx, "insert", insertTreatmentSQL, t.ID, t.Slug, t.Category, doc)
	return err
}

func (r *Repo) GetTreatment(ctx context.Context, id string) (domain.Treatment, error) {
	return getDoc[domain.Treatment](ctx, r.db, "treatment "+id, selectTreatmentDocs+" WHERE id = ?", id)
}

func (r *Repo) ListTreatments(ctx context.Context) ([]domain.Treatment, error) {
	return listDocs[domain.Treatment](ctx, r.db, selectTreatmentDocs+orderBySeq)
}

func (r *Repo) TreatmentsByIDs(ctx context.Context, ids []string) ([]domain.Treatment, error) {
	return byIDs[domain.Treatment](ctx, r.db, selectTreatmentDocs, ids)
}

func (r *Repo) TreatmentsByCategory(ctx context.Context, category string) ([]domain.Treatment, error) {
	return listDocs[domain.Treatment](ctx, r.db,
		selectTreatmentDocs+" WHERE LOWER(category) = LOWER(?)"+orderBySeq, category)
}

func (r *Repo) UpdateTreatment(ctx context.Context, t domain.Treatment) error {
	t.FillEmptyLists()
	if err := t.Validate(); err != nil {
		return err
	}
	doc, err := json.Marshal(t)
	if err != nil {
		return err
	}
	if _, err := r.GetTreatment(ctx, t.ID); err != nil {
		return err
	}
	_, err = r.exec(ctx, "update", updateTreatmentSQL, t.Slug, t.Category, doc, t.ID)
	return err
}

func (r *Repo) DeleteTreatment(ctx context.Context, id string) error {
	_, err := r.exec(ctx, "delete", `DELETE FROM treatments WHERE id = ?`, id)
	return err
}

/********** doctors **********/

func (r *Repo) CreateDoctor(ctx context.Context, d *domain.Doctor) error {
	d.ID = uuid.NewString()
	d.FillEmptyLists()
	doc, err := json.Marshal(d)
	if err != nil {
		return err
	}
	_, err = r.exec(ctx, "insert", insertDoctorSQL, d.ID, d.Slug, d.Hospital, d.IsTopDoctor, doc)
	return err
}

func (r *Repo) GetDoctor(ctx context.Context, id string) (domain.Doctor, error) {
	return getDoc[domain.Doctor](ctx, r.db, "doctor "+id, selectDoctorDocs+" WHERE id = ?", id)
}

func (r *Repo) GetDoctorBySlug(ctx context.Context, slug string) (domain.Doctor, error) {
	return getDoc[domain.Doctor](ctx, r.db, "doctor "+slug, selectDoctorDocs+" WHERE slug = ?"+orderBySeq+" LIMIT 1", slug)
}

func (r *Repo) ListDoctors(ctx context.Context) ([]domain.Doctor, error) {
	return listDocs[domain.Doctor](ctx, r.db, selectDoctorDocs+orderBySeq)
}

func (r *Repo) DoctorsByIDs(ctx context.Context, ids []string) ([]domain.Doctor, error) {
	return byIDs[domain.Doctor](ctx, r.db, selectDoctorDocs, ids)
}

func (r *Repo) DoctorsByHospital(ctx context.Context, hospitalID string) ([]domain.Doctor, error) {
	return listDocs[domain.Doctor](ctx, r.db, selectDoctorDocs+" WHERE hospital_id = ?"+orderBySeq, hospitalID)
}

func (r *Repo) TopDoctors(ctx context.Context, limit int) ([]domain.Doctor, error) {
	return listDocs[domain.Doctor](ctx, r.db, selectDoctorDocs+" WHERE is_top_doctor = 1"+orderBySeq+" LIMIT ?", limit)
}

func (r *Repo) UpdateDoctor(ctx context.Context, d domain.Doctor) error {
	d.FillEmptyLists()
	doc, err := json.Marshal(d)
	if err != nil {
		return err
	}
	if _, err := r.GetDoctor(ctx, d.ID); err != nil {
		return err
	}
	_, err = r.exec(ctx, "update", updateDoctorSQL, d.Slug, d.Hospital, d.IsTopDoctor, doc, d.ID)
	return err
}

func (r *Repo) DeleteDoctor(ctx context.Context, id string) error {
	_, err := r.exec(ctx, "delete", `DELETE FROM doctors WHERE id = ?`, id)
	return err
}

/********** admin users **********/

func (r *Repo) CreateAdmin(ctx context.Context, u *domain.AdminUser) error {
	u.ID = uuid.NewString()
	_, err := r.exec(ctx, "insert", insertAdminSQL, u.ID, u.Username, u.PasswordHash, u.Role)
	return err
}

func (r *Repo) GetAdminByUsername(ctx context.Context, username string) (domain.AdminUser, error) {
	var u domain.AdminUser
	start := time.Now()
	err := r.db.QueryRowContext(ctx, getAdminByUsernameSQL, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role)
	observe("select", start, err)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AdminUser{}, domain.NotFoundf("admin %s", username)
	}
	return u, err
}

func (r *Repo) CountAdmins(ctx context.Context) (int64, error) {
	return count(ctx, r.db, "admin_users")
}
