// Package tags derives marketing-list tag names from a volunteer
// submission and classifies which tags this service owns.
package tags

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slug turns free text into a stable lowercase identifier fragment.
// It never fails; empty input yields an empty slug.
func Slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "&", "and")
	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
