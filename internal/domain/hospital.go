package domain

// Hospital is a listed facility. Treatments and Doctors hold ids of the
// related records; they are expanded only at read time.
type Hospital struct {
	ID             string   `json:"_id"`
	Name           string   `json:"name"`
	Slug           string   `json:"slug"`
	Image          string   `json:"image,omitempty"`
	Location       string   `json:"location"`
	Rating         *float64 `json:"rating"`
	Beds           *int     `json:"beds"`
	Specialties    []string `json:"specialties"`
	Description    string   `json:"description"`
	Accreditations []string `json:"accreditations"`
	Treatments     []string `json:"treatments"`
	Doctors        []string `json:"doctors"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
}

// HospitalSummary is the hospital shape embedded in public treatment listings.
type HospitalSummary struct {
	ID             string   `json:"_id"`
	Slug           string   `json:"slug"`
	Name           string   `json:"name"`
	Image          string   `json:"image,omitempty"`
	Location       string   `json:"location"`
	Rating         *float64 `json:"rating"`
	Beds           *int     `json:"beds"`
	Specialties    []string `json:"specialties"`
	Description    string   `json:"description"`
	Accreditations []string `json:"accreditations"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
}

func (h Hospital) Summary() HospitalSummary {
	return HospitalSummary{
		ID:             h.ID,
		Slug:           h.Slug,
		Name:           h.Name,
		Image:          h.Image,
		Location:       h.Location,
		Rating:         h.Rating,
		Beds:           h.Beds,
		Specialties:    h.Specialties,
		Description:    h.Description,
		Accreditations: h.Accreditations,
		Latitude:       h.Latitude,
		Longitude:      h.Longitude,
	}
}

// HospitalRef is the hospital shape embedded in doctor responses.
type HospitalRef struct {
	ID       string   `json:"_id"`
	Name     string   `json:"name"`
	Slug     string   `json:"slug"`
	Image    string   `json:"image,omitempty"`
	Location string   `json:"location"`
	Rating   *float64 `json:"rating"`
}

func (h Hospital) Ref() HospitalRef {
	return HospitalRef{ID: h.ID, Name: h.Name, Slug: h.Slug, Image: h.Image, Location: h.Location, Rating: h.Rating}
}
