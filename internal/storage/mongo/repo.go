// Package mongo is the MongoDB Repository. Each entity lives in its own
// collection; references are stored as ObjectIDs.
package mongo

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/event"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"healthdir/internal/adapters/observability"
	"healthdir/internal/domain"
)

const (
	hospitalsColl  = "hospitals"
	treatmentsColl = "treatments"
	doctorsColl    = "doctors"
	adminsColl     = "adminusers"
)

type Repo struct {
	hospitals  *mongodrv.Collection
	treatments *mongodrv.Collection
	doctors    *mongodrv.Collection
	admins     *mongodrv.Collection
}

func New(db *mongodrv.Database) *Repo {
	return &Repo{
		hospitals:  db.Collection(hospitalsColl),
		treatments: db.Collection(treatmentsColl),
		doctors:    db.Collection(doctorsColl),
		admins:     db.Collection(adminsColl),
	}
}

// Connect opens a client for uri and pings it. Every command is reported to
// the store metrics.
func Connect(ctx context.Context, uri string) (*mongodrv.Client, error) {
	opts := options.Client().ApplyURI(uri).SetMonitor(commandMonitor())
	client, err := mongodrv.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return client, nil
}

func commandMonitor() *event.CommandMonitor {
	return &event.CommandMonitor{
		Succeeded: func(_ context.Context, e *event.CommandSucceededEvent) {
			observability.ObserveStore("mongo", e.CommandName, nil, e.Duration)
		},
		Failed: func(_ context.Context, e *event.CommandFailedEvent) {
			observability.ObserveStore("mongo", e.CommandName, errors.New(e.Failure), e.Duration)
		},
	}
}

// EnsureIndexes creates the unique and lookup indexes the queries rely on.
func (r *Repo) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	specs := []struct {
		coll   *mongodrv.Collection
		models []mongodrv.IndexModel
	}{
		{r.treatments, []mongodrv.IndexModel{
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "category", Value: 1}}},
		}},
		{r.hospitals, []mongodrv.IndexModel{{Keys: bson.D{{Key: "slug", Value: 1}}}}},
		{r.doctors, []mongodrv.IndexModel{
			{Keys: bson.D{{Key: "slug", Value: 1}}},
			{Keys: bson.D{{Key: "hospital", Value: 1}}},
			{Keys: bson.D{{Key: "isTopDoctor", Value: 1}}},
		}},
		{r.admins, []mongodrv.IndexModel{{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique}}},
	}
	for _, s := range specs {
		if _, err := s.coll.Indexes().CreateMany(ctx, s.models); err != nil {
			return err
		}
	}
	return nil
}

var byInsertion = options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

/********** generic helpers **********/

type document[T any] interface {
	toDomain() T
}

func findOne[D document[T], T any](ctx context.Context, c *mongodrv.Collection, filter any, what string) (T, error) {
	var doc D
	if err := c.FindOne(ctx, filter).Decode(&doc); err != nil {
		var zero T
		if errors.Is(err, mongodrv.ErrNoDocuments) {
			return zero, domain.NotFoundf("%s", what)
		}
		return zero, err
	}
	return doc.toDomain(), nil
}

func findAll[D document[T], T any](ctx context.Context, c *mongodrv.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	cur, err := c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var docs []D
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func byID(id string) (bson.M, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, false
	}
	return bson.M{"_id": oid}, true
}

func byIDs(ids []string) bson.M {
	return bson.M{"_id": bson.M{"$in": validOIDs(ids)}}
}

func replace(ctx context.Context, c *mongodrv.Collection, id string, doc any, what string) error {
	filter, ok := byID(id)
	if !ok {
		return domain.NotFoundf("%s", what)
	}
	res, err := c.ReplaceOne(ctx, filter, doc)
	if err != nil {
		return translateWriteErr(err)
	}
	if res.MatchedCount == 0 {
		return domain.NotFoundf("%s", what)
	}
	return nil
}

func deleteByID(ctx context.Context, c *mongodrv.Collection, id string) error {
	filter, ok := byID(id)
	if !ok {
		return nil
	}
	_, err := c.DeleteOne(ctx, filter)
	return err
}

func translateWriteErr(err error) error {
	if mongodrv.IsDuplicateKeyError(err) {
		return &domain.ValidationError{Msg: "duplicate key: " + err.Error()}
	}
	return err
}

/********** hospitals **********/

func (r *Repo) CreateHospital(ctx context.Context, h *domain.Hospital) error {
	doc, err := hospitalToDoc(*h)
	if err != nil {
		return err
	}
	doc.ID = primitive.NewObjectID()
	if _, err := r.hospitals.InsertOne(ctx, doc); err != nil {
		return translateWriteErr(err)
	}
	*h = doc.toDomain()
	return nil
}

func (r *Repo) GetHospital(ctx context.Context, id string) (domain.Hospital, error) {
	filter, ok := byID(id)
	if !ok {
		return domain.Hospital{}, domain.NotFoundf("hospital %s", id)
	}
	return findOne[hospitalDoc, domain.Hospital](ctx, r.hospitals, filter, "hospital "+id)
}

func (r *Repo) GetHospitalBySlug(ctx context.Context, slug string) (domain.Hospital, error) {
	return findOne[hospitalDoc, domain.Hospital](ctx, r.hospitals, bson.M{"slug": slug}, "hospital "+slug)
}

func (r *Repo) ListHospitals(ctx context.Context) ([]domain.Hospital, error) {
	return findAll[hospitalDoc, domain.Hospital](ctx, r.hospitals, bson.M{}, byInsertion)
}

func (r *Repo) HospitalsByIDs(ctx context.Context, ids []string) ([]domain.Hospital, error) {
	return findAll[hospitalDoc, domain.Hospital](ctx, r.hospitals, byIDs(ids))
}

func (r *Repo) UpdateHospital(ctx context.Context, h domain.Hospital) error {
	doc, err := hospitalToDoc(h)
	if err != nil {
		return err
	}
	return replace(ctx, r.hospitals, h.ID, doc, "hospital "+h.ID)
}

func (r *Repo) DeleteHospital(ctx context.Context, id string) error {
	return deleteByID(ctx, r.hospitals, id)
}

func (r *Repo) CountHospitals(ctx context.Context) (int64, error) {
	return r.hospitals.CountDocuments(ctx, bson.M{})
}

/********** treatments **********/

func (r *Repo) CreateTreatment(ctx context.Context, t *domain.Treatment) error {
	if err := t.Validate(); err != nil {
		return err
	}
	doc, err := treatmentToDoc(*t)
	if err != nil {
		return err
	}
	doc.ID = primitive.NewObjectID()
	if _, err := r.treatments.InsertOne(ctx, doc); err != nil {
		return translateWriteErr(err)
	}
	*t = doc.toDomain()
	return nil
}

func (r *Repo) GetTreatment(ctx context.Context, id string) (domain.Treatment, error) {
	filter, ok := byID(id)
	if !ok {
		return domain.Treatment{}, domain.NotFoundf("treatment %s", id)
	}
	return findOne[treatmentDoc, domain.Treatment](ctx, r.treatments, filter, "treatment "+id)
}

func (r *Repo) ListTreatments(ctx context.Context) ([]domain.Treatment, error) {
	return findAll[treatmentDoc, domain.Treatment](ctx, r.treatments, bson.M{}, byInsertion)
}

func (r *Repo) TreatmentsByIDs(ctx context.Context, ids []string) ([]domain.Treatment, error) {
	return findAll[treatmentDoc, domain.Treatment](ctx, r.treatments, byIDs(ids))
}

func (r *Repo) TreatmentsByCategory(ctx context.Context, category string) ([]domain.Treatment, error) {
	filter := bson.M{"category": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(category) + "$", Options: "i"}}
	return findAll[treatmentDoc, domain.Treatment](ctx, r.treatments, filter, byInsertion)
}

func (r *Repo) UpdateTreatment(ctx context.Context, t domain.Treatment) error {
	if err := t.Validate(); err != nil {
		return err
	}
	doc, err := treatmentToDoc(t)
	if err != nil {
		return err
	}
	return replace(ctx, r.treatments, t.ID, doc, "treatment "+t.ID)
}

func (r *Repo) DeleteTreatment(ctx context.Context, id string) error {
	return deleteByID(ctx, r.treatments, id)
}

/********** doctors **********/

func (r *Repo) CreateDoctor(ctx context.Context, d *domain.Doctor) error {
	doc, err := doctorToDoc(*d)
	if err != nil {
		return err
	}
	doc.ID = primitive.NewObjectID()
	if _, err := r.doctors.InsertOne(ctx, doc); err != nil {
		return translateWriteErr(err)
	}
	*d = doc.toDomain()
	return nil
}

func (r *Repo) GetDoctor(ctx context.Context, id string) (domain.Doctor, error) {
	filter, ok := byID(id)
	if !ok {
		return domain.Doctor{}, domain.NotFoundf("doctor %s", id)
	}
	return findOne[doctorDoc, domain.Doctor](ctx, r.doctors, filter, "doctor "+id)
}

func (r *Repo) GetDoctorBySlug(ctx context.Context, slug string) (domain.Doctor, error) {
	return findOne[doctorDoc, domain.Doctor](ctx, r.doctors, bson.M{"slug": slug}, "doctor "+slug)
}

func (r *Repo) ListDoctors(ctx context.Context) ([]domain.Doctor, error) {
	return findAll[doctorDoc, domain.Doctor](ctx, r.doctors, bson.M{}, byInsertion)
}

func (r *Repo) DoctorsByIDs(ctx context.Context, ids []string) ([]domain.Doctor, error) {
	return findAll[doctorDoc, domain.Doctor](ctx, r.doctors, byIDs(ids))
}

func (r *Repo) DoctorsByHospital(ctx context.Context, hospitalID string) ([]domain.Doctor, error) {
	oid, err := primitive.ObjectIDFromHex(hospitalID)
	if err != nil {
		return []domain.Doctor{}, nil
	}
	return findAll[doctorDoc, domain.Doctor](ctx, r.doctors, bson.M{"hospital": oid}, byInsertion)
}

func (r *Repo) TopDoctors(ctx context.Context, limit int) ([]domain.Doctor, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}).SetLimit(int64(limit))
	return findAll[doctorDoc, domain.Doctor](ctx, r.doctors, bson.M{"isTopDoctor": true}, opts)
}

func (r *Repo) UpdateDoctor(ctx context.Context, d domain.Doctor) error {
	doc, err := doctorToDoc(d)
	if err != nil {
		return err
	}
	return replace(ctx, r.doctors, d.ID, doc, "doctor "+d.ID)
}

func (r *Repo) DeleteDoctor(ctx context.Context, id string) error {
	return deleteByID(ctx, r.doctors, id)
}

/********** admin users **********/

func (d adminDoc) toDomain() domain.AdminUser {
	return domain.AdminUser{ID: d.ID.Hex(), Username: d.Username, PasswordHash: d.Password, Role: d.Role}
}

func (r *Repo) CreateAdmin(ctx context.Context, u *domain.AdminUser) error {
	doc := adminDoc{ID: primitive.NewObjectID(), Username: u.Username, Password: u.PasswordHash, Role: u.Role}
	if _, err := r.admins.InsertOne(ctx, doc); err != nil {
		return translateWriteErr(err)
	}
	u.ID = doc.ID.Hex()
	return nil
}

func (r *Repo) GetAdminByUsername(ctx context.Context, username string) (domain.AdminUser, error) {
	return findOne[adminDoc, domain.AdminUser](ctx, r.admins, bson.M{"username": username}, "admin "+username)
}

func (r *Repo) CountAdmins(ctx context.Context) (int64, error) {
	return r.admins.CountDocuments(ctx, bson.M{})
}

// Ping is used by the health probe.
func (r *Repo) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return r.hospitals.Database().Client().Ping(ctx, nil)
}
