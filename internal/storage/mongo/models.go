package mongo

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"healthdir/internal/domain"
)

// Documents as stored. References are ObjectIDs so they can be joined
// server-side; the domain only ever sees their hex form.

type hospitalDoc struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty"`
	Name           string               `bson:"name"`
	Slug           string               `bson:"slug"`
	Image          string               `bson:"image,omitempty"`
	Location       string               `bson:"location"`
	Rating         *float64             `bson:"rating"`
	Beds           *int                 `bson:"beds"`
	Specialties    []string             `bson:"specialties"`
	Description    string               `bson:"description"`
	Accreditations []string             `bson:"accreditations"`
	Treatments     []primitive.ObjectID `bson:"treatments"`
	Doctors        []primitive.ObjectID `bson:"doctors"`
	Latitude       *float64             `bson:"latitude"`
	Longitude      *float64             `bson:"longitude"`
}

type costItemDoc struct {
	Name        string  `bson:"name"`
	Description string  `bson:"description"`
	CostFrom    float64 `bson:"costFrom"`
	CostTo      float64 `bson:"costTo"`
	Currency    string  `bson:"currency"`
}

type treatmentDoc struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty"`
	Slug            string               `bson:"slug"`
	TreatmentName   string               `bson:"treatmentName"`
	Category        string               `bson:"category"`
	Description     string               `bson:"description"`
	CostRange       string               `bson:"costRange"`
	TreatmentNameAr string               `bson:"treatmentNameAr,omitempty"`
	CategoryAr      string               `bson:"categoryAr,omitempty"`
	DescriptionAr   string               `bson:"descriptionAr,omitempty"`
	Hospitals       []primitive.ObjectID `bson:"hospitals"`
	Doctors         []primitive.ObjectID `bson:"doctors"`
	Details         struct {
		En string `bson:"en"`
		Ar string `bson:"ar"`
	} `bson:"details"`
	CostTable []costItemDoc `bson:"costTable"`
}

type faqDoc struct {
	Question string `bson:"question"`
	Answer   string `bson:"answer"`
}

type doctorDoc struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty"`
	Name            string               `bson:"name"`
	Slug            string               `bson:"slug"`
	Specialty       string               `bson:"specialty"`
	Experience      string               `bson:"experience"`
	Image           string               `bson:"image,omitempty"`
	IsTopDoctor     bool                 `bson:"isTopDoctor"`
	Position        string               `bson:"position"`
	Degree          string               `bson:"degree"`
	About           string               `bson:"about"`
	MedicalProblems []string             `bson:"medicalProblems"`
	Procedures      []string             `bson:"procedures"`
	FAQs            []faqDoc             `bson:"faqs"`
	Hospital        *primitive.ObjectID  `bson:"hospital,omitempty"`
	Treatments      []primitive.ObjectID `bson:"treatments"`
}

type adminDoc struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Username string             `bson:"username"`
	Password string             `bson:"password"`
	Role     string             `bson:"role"`
}

/********** id helpers **********/

func toOID(field, id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, &domain.ValidationError{Field: field, Msg: "invalid id " + id}
	}
	return oid, nil
}

func toOIDs(field string, ids []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := toOID(field, id)
		if err != nil {
			return nil, err
		}
		out = append(out, oid)
	}
	return out, nil
}

// validOIDs converts the ids that parse and skips the rest.
func validOIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			out = append(out, oid)
		}
	}
	return out
}

func hexes(oids []primitive.ObjectID) []string {
	out := make([]string, 0, len(oids))
	for _, oid := range oids {
		out = append(out, oid.Hex())
	}
	return out
}

/********** conversions **********/

func hospitalToDoc(h domain.Hospital) (hospitalDoc, error) {
	d := hospitalDoc{
		Name:           h.Name,
		Slug:           h.Slug,
		Image:          h.Image,
		Location:       h.Location,
		Rating:         h.Rating,
		Beds:           h.Beds,
		Specialties:    nonNil(h.Specialties),
		Description:    h.Description,
		Accreditations: nonNil(h.Accreditations),
		Latitude:       h.Latitude,
		Longitude:      h.Longitude,
	}
	var err error
	if d.Treatments, err = toOIDs("treatments", h.Treatments); err != nil {
		return d, err
	}
	if d.Doctors, err = toOIDs("doctors", h.Doctors); err != nil {
		return d, err
	}
	return d, nil
}

func (d hospitalDoc) toDomain() domain.Hospital {
	return domain.Hospital{
		ID:             d.ID.Hex(),
		Name:           d.Name,
		Slug:           d.Slug,
		Image:          d.Image,
		Location:       d.Location,
		Rating:         d.Rating,
		Beds:           d.Beds,
		Specialties:    nonNil(d.Specialties),
		Description:    d.Description,
		Accreditations: nonNil(d.Accreditations),
		Treatments:     hexes(d.Treatments),
		Doctors:        hexes(d.Doctors),
		Latitude:       d.Latitude,
		Longitude:      d.Longitude,
	}
}

func treatmentToDoc(t domain.Treatment) (treatmentDoc, error) {
	d := treatmentDoc{
		Slug:            t.Slug,
		TreatmentName:   t.TreatmentName,
		Category:        t.Category,
		Description:     t.Description,
		CostRange:       t.CostRange,
		TreatmentNameAr: t.TreatmentNameAr,
		CategoryAr:      t.CategoryAr,
		DescriptionAr:   t.DescriptionAr,
		CostTable:       make([]costItemDoc, 0, len(t.CostTable)),
	}
	d.Details.En, d.Details.Ar = t.Details.En, t.Details.Ar
	for _, c := range t.CostTable {
		d.CostTable = append(d.CostTable, costItemDoc(c))
	}
	var err error
	if d.Hospitals, err = toOIDs("hospitals", t.Hospitals); err != nil {
		return d, err
	}
	if d.Doctors, err = toOIDs("doctors", t.Doctors); err != nil {
		return d, err
	}
	return d, nil
}

func (d treatmentDoc) toDomain() domain.Treatment {
	t := domain.Treatment{
		ID:              d.ID.Hex(),
		Slug:            d.Slug,
		TreatmentName:   d.TreatmentName,
		Category:        d.Category,
		Description:     d.Description,
		CostRange:       d.CostRange,
		TreatmentNameAr: d.TreatmentNameAr,
		CategoryAr:      d.CategoryAr,
		DescriptionAr:   d.DescriptionAr,
		Hospitals:       hexes(d.Hospitals),
		Doctors:         hexes(d.Doctors),
		Details:         domain.LocalizedText{En: d.Details.En, Ar: d.Details.Ar},
		CostTable:       make([]domain.CostItem, 0, len(d.CostTable)),
	}
	for _, c := range d.CostTable {
		t.CostTable = append(t.CostTable, domain.CostItem(c))
	}
	return t
}

func doctorToDoc(dr domain.Doctor) (doctorDoc, error) {
	d := doctorDoc{
		Name:            dr.Name,
		Slug:            dr.Slug,
		Specialty:       dr.Specialty,
		Experience:      dr.Experience,
		Image:           dr.Image,
		IsTopDoctor:     dr.IsTopDoctor,
		Position:        dr.Position,
		Degree:          dr.Degree,
		About:           dr.About,
		MedicalProblems: nonNil(dr.MedicalProblems),
		Procedures:      nonNil(dr.Procedures),
		FAQs:            make([]faqDoc, 0, len(dr.FAQs)),
	}
	for _, f := range dr.FAQs {
		d.FAQs = append(d.FAQs, faqDoc(f))
	}
	if dr.Hospital != "" {
		oid, err := toOID("hospital", dr.Hospital)
		if err != nil {
			return d, err
		}
		d.Hospital = &oid
	}
	var err error
	if d.Treatments, err = toOIDs("treatments", dr.Treatments); err != nil {
		return d, err
	}
	return d, nil
}

func (d doctorDoc) toDomain() domain.Doctor {
	dr := domain.Doctor{
		ID:              d.ID.Hex(),
		Name:            d.Name,
		Slug:            d.Slug,
		Specialty:       d.Specialty,
		Experience:      d.Experience,
		Image:           d.Image,
		IsTopDoctor:     d.IsTopDoctor,
		Position:        d.Position,
		Degree:          d.Degree,
		About:           d.About,
		MedicalProblems: nonNil(d.MedicalProblems),
		Procedures:      nonNil(d.Procedures),
		FAQs:            make([]domain.FAQ, 0, len(d.FAQs)),
		Treatments:      hexes(d.Treatments),
	}
	for _, f := range d.FAQs {
		dr.FAQs = append(dr.FAQs, domain.FAQ(f))
	}
	if d.Hospital != nil {
		dr.Hospital = d.Hospital.Hex()
	}
	return dr
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
