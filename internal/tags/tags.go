package tags

import (
	"sort"
	"strings"
)

// RoleTag is attached to every synced profile.
const RoleTag = "role-volunteer"

// managedPrefixes is the namespace this service owns on the external
// profile. Tags outside it are never touched by a sync.
var managedPrefixes = []string{
	"interest-",
	"experience-",
	"availability-",
	"format-",
	"county-",
}

// interestTags maps the slug of a known interest label to its canonical
// tag name. Unknown labels fall back to "interest-<slug>".
var interestTags = map[string]string{
	"social-media":                 "interest-social-media",
	"event-promotion-and-outreach": "interest-events",
	"phone-banking":                "interest-phone-banking",
	"canvassing":                   "interest-canvassing",
	"data-entry":                   "interest-data-entry",
	"fundraising":                  "interest-fundraising",
	"graphic-design":               "interest-graphic-design",
	"writing":                      "interest-writing",
	"other":                        "interest-other",
}

// availabilityDisplay maps coded time-available values to the display
// text stored in the profile's merge fields.
var availabilityDisplay = map[string]string{
	"1-3":    "1-3 hours per week",
	"4-6":    "4-6 hours per week",
	"7-10":   "7-10 hours per week",
	"10+":    "More than 10 hours per week",
	"varies": "Availability varies",
}

// Submission holds the attributes a tag set is derived from. Optional
// fields are empty when absent.
type Submission struct {
	CityCounty    string
	Interests     []string
	Experience    string
	TimeAvailable string
	Format        string
}

// ForSubmission maps a submission to its canonical, deduplicated tag
// set, returned sorted for stable batches.
func ForSubmission(sub Submission) []string {
	set := map[string]struct{}{RoleTag: {}}

	if slug := Slug(sub.CityCounty); slug != "" {
		set["county-"+slug] = struct{}{}
	}
	for _, label := range sub.Interests {
		slug := Slug(label)
		if slug == "" {
			continue
		}
		tag, ok := interestTags[slug]
		if !ok {
			tag = "interest-" + slug
		}
		set[tag] = struct{}{}
	}
	if slug := Slug(sub.Experience); slug != "" {
		set["experience-"+slug] = struct{}{}
	}
	if slug := Slug(sub.TimeAvailable); slug != "" {
		set["availability-"+slug] = struct{}{}
	}
	if slug := Slug(sub.Format); slug != "" {
		set["format-"+slug] = struct{}{}
	}

	out := make([]string, 0, len(set))
	for tag := range set {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// IsVolunteerManaged reports whether a tag name belongs to this
// service's namespace and may therefore be deactivated by a sync.
func IsVolunteerManaged(name string) bool {
	if name == RoleTag {
		return true
	}
	for _, prefix := range managedPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// AvailabilityDisplay translates a coded time-available value to its
// display text. Unknown codes pass through unchanged.
func AvailabilityDisplay(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	if display, ok := availabilityDisplay[code]; ok {
		return display
	}
	return code
}
