package store

import "time"

// Committee is a named category a volunteer can select. Committees are
// soft-disabled via IsActive, never deleted while links reference them.
type Committee struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"isActive"`
	SortOrder int       `json:"sortOrder"`
	CreatedAt time.Time `json:"createdAt"`
}

// Submission is one volunteer's interest-form answers. Optional fields
// are empty strings in Go and NULL in the database.
type Submission struct {
	ID            string    `json:"id"`
	FullName      string    `json:"fullName"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone,omitempty"`
	CityCounty    string    `json:"cityCounty,omitempty"`
	Interests     []string  `json:"interests"`
	InterestOther string    `json:"interestOther,omitempty"`
	Experience    string    `json:"experience,omitempty"`
	TimeAvailable string    `json:"timeAvailable,omitempty"`
	Format        string    `json:"volunteerFormat,omitempty"`
	Motivation    string    `json:"motivation,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// SubmissionInput carries the raw form fields plus candidate committee
// ids for the atomic insert.
type SubmissionInput struct {
	FullName      string
	Email         string
	Phone         string
	CityCounty    string
	Interests     []string
	InterestOther string
	Experience    string
	TimeAvailable string
	Format        string
	Motivation    string
	CommitteeIDs  []string
}
