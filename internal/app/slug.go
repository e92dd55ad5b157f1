package app

import "strings"

// Slugify lowercases name, trims it and joins the remaining whitespace-separated
// words with single hyphens. Applying it to its own output is a no-op.
func Slugify(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

// categoryFromSlug turns "heart-surgery" into "heart surgery" for category lookups.
func categoryFromSlug(slug string) string {
	return strings.ReplaceAll(slug, "-", " ")
}
