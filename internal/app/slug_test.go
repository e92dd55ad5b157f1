package app_test

import (
	"strings"
	"testing"
	"unicode"

	"healthdir/internal/app"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"X Ray":                     "x-ray",
		"  Knee   Replacement  ":    "knee-replacement",
		"LASIK\tEye\nSurgery":       "lasik-eye-surgery",
		"already-slugged":           "already-slugged",
		"":                          "",
		"   ":                       "",
		"Coronary Artery Bypass":    "coronary-artery-bypass",
		"Ästhetische Chirurgie":     "ästhetische-chirurgie",
		"Hip - Resurfacing":         "hip---resurfacing",
		"Dental Implants (Premium)": "dental-implants-(premium)",
	}
	for in, want := range cases {
		if got := app.Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSlugify_Properties(t *testing.T) {
	names := []string{"X Ray", " MIXED case\tName ", "a  b   c", "Ünïcode Wörds", "one", "Trailing ", " nbsp inside"}
	for _, n := range names {
		s := app.Slugify(n)
		if s != strings.ToLower(s) {
			t.Errorf("%q: slug %q not lowercase", n, s)
		}
		if strings.IndexFunc(s, unicode.IsSpace) >= 0 {
			t.Errorf("%q: slug %q contains whitespace", n, s)
		}
		if again := app.Slugify(s); again != s {
			t.Errorf("%q: not a fixed point: %q -> %q", n, s, again)
		}
	}
}
