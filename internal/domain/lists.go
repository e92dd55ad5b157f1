package domain

// List fields are always written and returned as [] rather than null, so
// every store produces the same JSON shape.

func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (h *Hospital) FillEmptyLists() {
	h.Specialties = emptyIfNil(h.Specialties)
	h.Accreditations = emptyIfNil(h.Accreditations)
	h.Treatments = emptyIfNil(h.Treatments)
	h.Doctors = emptyIfNil(h.Doctors)
}

func (t *Treatment) FillEmptyLists() {
	t.Hospitals = emptyIfNil(t.Hospitals)
	t.Doctors = emptyIfNil(t.Doctors)
	t.CostTable = emptyIfNil(t.CostTable)
}

func (d *Doctor) FillEmptyLists() {
	d.MedicalProblems = emptyIfNil(d.MedicalProblems)
	d.Procedures = emptyIfNil(d.Procedures)
	d.FAQs = emptyIfNil(d.FAQs)
	d.Treatments = emptyIfNil(d.Treatments)
}
