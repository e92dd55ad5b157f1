package app

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"healthdir/internal/domain"
)

// Fields is untyped admin input as decoded from a JSON body or a multipart
// form. Values may be strings, []string, []any, map[string]any, numbers or bools.
type Fields map[string]any

/********** entity appliers **********/

// ApplyHospital copies every submitted field of in onto h, normalizing loose
// input into the stored types. Fields not present in in keep their value.
func ApplyHospital(h *domain.Hospital, in Fields) error {
	var err error
	str := func(k string, dst *string) {
		if v, ok := in[k]; ok {
			*dst = asString(v)
		}
	}
	str("name", &h.Name)
	str("slug", &h.Slug)
	str("image", &h.Image)
	str("location", &h.Location)
	str("description", &h.Description)

	if v, ok := in["rating"]; ok {
		if h.Rating, err = optFloat("rating", v); err != nil {
			return err
		}
	}
	if v, ok := in["beds"]; ok {
		if h.Beds, err = optInt("beds", v); err != nil {
			return err
		}
	}
	if v, ok := in["latitude"]; ok {
		if h.Latitude, err = optFloat("latitude", v); err != nil {
			return err
		}
	}
	if v, ok := in["longitude"]; ok {
		if h.Longitude, err = optFloat("longitude", v); err != nil {
			return err
		}
	}
	if v, ok := in["specialties"]; ok {
		h.Specialties = SplitList(v)
	}
	if v, ok := in["accreditations"]; ok {
		h.Accreditations = wrapList(v)
	}
	if v, ok := in["treatments"]; ok {
		h.Treatments = SplitList(v)
	}
	if v, ok := in["doctors"]; ok {
		h.Doctors = SplitList(v)
	}
	return nil
}

func ApplyTreatment(t *domain.Treatment, in Fields) error {
	str := func(k string, dst *string) {
		if v, ok := in[k]; ok {
			*dst = asString(v)
		}
	}
	str("slug", &t.Slug)
	str("treatmentName", &t.TreatmentName)
	str("category", &t.Category)
	str("description", &t.Description)
	str("costRange", &t.CostRange)
	str("treatmentNameAr", &t.TreatmentNameAr)
	str("categoryAr", &t.CategoryAr)
	str("descriptionAr", &t.DescriptionAr)

	if v, ok := in["hospitals"]; ok {
		t.Hospitals = SplitList(v)
	}
	if v, ok := in["doctors"]; ok {
		t.Doctors = SplitList(v)
	}
	if v, ok := in["details"]; ok {
		d, err := parseLocalized("details", v)
		if err != nil {
			return err
		}
		t.Details = d
	}
	if v, ok := in["costTable"]; ok {
		ct, err := ParseCostTable(v)
		if err != nil {
			return err
		}
		t.CostTable = ct
	}
	return nil
}

func ApplyDoctor(d *domain.Doctor, in Fields) error {
	str := func(k string, dst *string) {
		if v, ok := in[k]; ok {
			*dst = asString(v)
		}
	}
	str("name", &d.Name)
	str("slug", &d.Slug)
	str("specialty", &d.Specialty)
	str("experience", &d.Experience)
	str("image", &d.Image)
	str("position", &d.Position)
	str("degree", &d.Degree)
	str("about", &d.About)
	str("hospital", &d.Hospital)

	if v, ok := in["isTopDoctor"]; ok {
		b, err := asBool("isTopDoctor", v)
		if err != nil {
			return err
		}
		d.IsTopDoctor = b
	}
	if v, ok := in["medicalProblems"]; ok {
		d.MedicalProblems = wrapList(v)
	}
	if v, ok := in["procedures"]; ok {
		d.Procedures = wrapList(v)
	}
	if v, ok := in["treatments"]; ok {
		d.Treatments = SplitList(v)
	}
	if v, ok := in["faqs"]; ok {
		faqs, err := parseFAQs(v)
		if err != nil {
			return err
		}
		d.FAQs = faqs
	}
	return nil
}

/********** list fields **********/

// SplitList normalizes a comma-separated list field. Strings are split on
// commas and trimmed, dropping empty tokens; a string holding a JSON array is
// decoded instead. Typed sequences pass through.
func SplitList(v any) []string {
	switch t := v.(type) {
	case nil:
		return []string{}
	case string:
		s := strings.TrimSpace(t)
		if strings.HasPrefix(s, "[") {
			var arr []string
			if err := json.Unmarshal([]byte(s), &arr); err == nil {
				return arr
			}
		}
		out := []string{}
		for _, part := range strings.Split(s, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		return out
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, it := range t {
			out = append(out, asString(it))
		}
		return out
	default:
		return []string{asString(t)}
	}
}

// wrapList accepts a sequence or a single value; a single non-empty string
// becomes a one-element list.
func wrapList(v any) []string {
	switch t := v.(type) {
	case nil:
		return []string{}
	case string:
		if strings.TrimSpace(t) == "" {
			return []string{}
		}
		if s := strings.TrimSpace(t); strings.HasPrefix(s, "[") {
			var arr []string
			if err := json.Unmarshal([]byte(s), &arr); err == nil {
				return arr
			}
		}
		return []string{t}
	case []string, []any:
		return SplitList(t)
	default:
		return []string{asString(t)}
	}
}

/********** encoded blobs **********/

// ParseCostTable decodes a cost table submitted either as a JSON string or as
// a decoded array. costFrom/costTo coerce to numbers (0 when not numeric) and
// currency defaults to USD.
func ParseCostTable(v any) ([]domain.CostItem, error) {
	var rows []any
	switch t := v.(type) {
	case nil:
		return []domain.CostItem{}, nil
	case string:
		if strings.TrimSpace(t) == "" {
			return []domain.CostItem{}, nil
		}
		if err := json.Unmarshal([]byte(t), &rows); err != nil {
			return nil, &domain.ParseError{Field: "costTable", Err: err}
		}
	case []any:
		rows = t
	case []map[string]any:
		for _, m := range t {
			rows = append(rows, m)
		}
	default:
		return nil, &domain.ParseError{Field: "costTable", Err: fmt.Errorf("unsupported type %T", v)}
	}

	out := make([]domain.CostItem, 0, len(rows))
	for i, r := range rows {
		m, ok := r.(map[string]any)
		if !ok {
			return nil, &domain.ParseError{Field: "costTable", Err: fmt.Errorf("row %d is %T, want object", i, r)}
		}
		item := domain.CostItem{
			Name:        asString(m["name"]),
			Description: asString(m["description"]),
			CostFrom:    coerceNumber(m["costFrom"]),
			CostTo:      coerceNumber(m["costTo"]),
			Currency:    asString(m["currency"]),
		}
		if item.Currency == "" {
			item.Currency = domain.DefaultCurrency
		}
		out = append(out, item)
	}
	return out, nil
}

func parseLocalized(field string, v any) (domain.LocalizedText, error) {
	var m map[string]any
	switch t := v.(type) {
	case nil:
		return domain.LocalizedText{}, nil
	case string:
		if strings.TrimSpace(t) == "" {
			return domain.LocalizedText{}, nil
		}
		if err := json.Unmarshal([]byte(t), &m); err != nil {
			return domain.LocalizedText{}, &domain.ParseError{Field: field, Err: err}
		}
	case map[string]any:
		m = t
	default:
		return domain.LocalizedText{}, &domain.ParseError{Field: field, Err: fmt.Errorf("unsupported type %T", v)}
	}
	return domain.LocalizedText{En: asString(m["en"]), Ar: asString(m["ar"])}, nil
}

func parseFAQs(v any) ([]domain.FAQ, error) {
	var rows []any
	switch t := v.(type) {
	case nil:
		return []domain.FAQ{}, nil
	case string:
		if strings.TrimSpace(t) == "" {
			return []domain.FAQ{}, nil
		}
		if err := json.Unmarshal([]byte(t), &rows); err != nil {
			return nil, &domain.ParseError{Field: "faqs", Err: err}
		}
	case []any:
		rows = t
	default:
		return nil, &domain.ParseError{Field: "faqs", Err: fmt.Errorf("unsupported type %T", v)}
	}
	out := make([]domain.FAQ, 0, len(rows))
	for i, r := range rows {
		m, ok := r.(map[string]any)
		if !ok {
			return nil, &domain.ParseError{Field: "faqs", Err: fmt.Errorf("row %d is %T, want object", i, r)}
		}
		out = append(out, domain.FAQ{Question: asString(m["question"]), Answer: asString(m["answer"])})
	}
	return out, nil
}

/********** scalar coercion **********/

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []string:
		if len(t) > 0 {
			return t[0]
		}
		return ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// coerceNumber returns v as a float, or 0 when v is missing or not numeric.
func coerceNumber(v any) float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		x, err := t.Float64()
		if err != nil {
			return 0
		}
		f = x
	case string:
		x, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		f = x
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// optFloat parses a nullable number; empty input clears the field.
func optFloat(field string, v any) (*float64, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case float64:
		return &t, nil
	case int:
		f := float64(t)
		return &f, nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, &domain.ValidationError{Field: field, Msg: "must be a number"}
		}
		return &f, nil
	}
	s := strings.TrimSpace(asString(v))
	if s == "" || s == "null" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, &domain.ValidationError{Field: field, Msg: "must be a number"}
	}
	return &f, nil
}

func optInt(field string, v any) (*int, error) {
	f, err := optFloat(field, v)
	if err != nil || f == nil {
		return nil, err
	}
	if *f != math.Trunc(*f) {
		return nil, &domain.ValidationError{Field: field, Msg: "must be a whole number"}
	}
	n := int(*f)
	return &n, nil
}

func asBool(field string, v any) (bool, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	switch strings.ToLower(strings.TrimSpace(asString(v))) {
	case "true", "1", "on", "yes":
		return true, nil
	case "false", "0", "off", "no", "":
		return false, nil
	}
	return false, &domain.ValidationError{Field: field, Msg: "must be a boolean"}
}
