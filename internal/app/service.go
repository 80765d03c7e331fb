// Package app wires the submission write path and the profile-sync
// orchestrator behind the HTTP surface.
package app

import (
	"context"
	"log"
	"net/http"
	"sort"
	"strings"

	"volunteerhub/api/internal/config"
	"volunteerhub/api/internal/mailchimp"
	"volunteerhub/api/internal/store"
	"volunteerhub/api/internal/tags"
)

// SubmissionRecord is the shape the change notification carries: the
// new database row as JSON, column-named fields.
type SubmissionRecord struct {
	ID            string   `json:"id"`
	FullName      string   `json:"full_name"`
	Email         string   `json:"email"`
	Phone         string   `json:"phone"`
	CityCounty    string   `json:"city_county"`
	Interests     []string `json:"interests"`
	InterestOther string   `json:"interest_other_text"`
	Experience    string   `json:"experience"`
	TimeAvailable string   `json:"time_available"`
	Format        string   `json:"volunteer_format"`
	Motivation    string   `json:"motivation"`
}

// CreateSubmissionInput is the public write entry point's request body.
type CreateSubmissionInput struct {
	FullName      string   `json:"fullName"`
	Email         string   `json:"email"`
	Phone         string   `json:"phone"`
	CityCounty    string   `json:"cityCounty"`
	Interests     []string `json:"interests"`
	InterestOther string   `json:"interestOther"`
	Experience    string   `json:"experience"`
	TimeAvailable string   `json:"timeAvailable"`
	Format        string   `json:"volunteerFormat"`
	Motivation    string   `json:"motivation"`
	CommitteeIDs  []string `json:"committeeIds"`
}

type dataStore interface {
	CreateSubmission(ctx context.Context, in store.SubmissionInput) (string, error)
	ListActiveCommittees(ctx context.Context) ([]store.Committee, error)
	GetSubmission(ctx context.Context, submissionID string) (store.Submission, error)
	Ping(ctx context.Context) error
}

type profileClient interface {
	UpsertMember(ctx context.Context, hash, email string, merge map[string]string) error
	MemberTags(ctx context.Context, hash string) ([]mailchimp.MemberTag, error)
	UpdateMemberTags(ctx context.Context, hash string, updates []mailchimp.TagUpdate) error
}

type committeeCache interface {
	Get(ctx context.Context) ([]store.Committee, bool)
	Set(ctx context.Context, items []store.Committee) error
}

type Service struct {
	cfg        config.Config
	store      dataStore
	profiles   profileClient
	committees committeeCache
}

func New(cfg config.Config, dataStore dataStore, profiles profileClient) *Service {
	return &Service{cfg: cfg, store: dataStore, profiles: profiles}
}

func NewWithCommitteeCache(cfg config.Config, dataStore dataStore, profiles profileClient, committees committeeCache) *Service {
	return &Service{cfg: cfg, store: dataStore, profiles: profiles, committees: committees}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) WebhookSecret() string {
	return s.cfg.WebhookSecret
}

// CreateSubmission validates and persists a submission with its
// committee links. Unknown or inactive committee ids are dropped by the
// store without error.
func (s *Service) CreateSubmission(ctx context.Context, in CreateSubmissionInput) (string, error) {
	if strings.TrimSpace(in.FullName) == "" {
		return "", domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "fullName is required", nil)
	}
	if strings.TrimSpace(in.Email) == "" {
		return "", domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "email is required", nil)
	}

	return s.store.CreateSubmission(ctx, store.SubmissionInput{
		FullName:      in.FullName,
		Email:         in.Email,
		Phone:         in.Phone,
		CityCounty:    in.CityCounty,
		Interests:     in.Interests,
		InterestOther: in.InterestOther,
		Experience:    in.Experience,
		TimeAvailable: in.TimeAvailable,
		Format:        in.Format,
		Motivation:    in.Motivation,
		CommitteeIDs:  in.CommitteeIDs,
	})
}

// ListCommittees returns active committees, served from the cache when
// one is configured. Cache failures fall through to the store.
func (s *Service) ListCommittees(ctx context.Context) ([]store.Committee, error) {
	if s.committees != nil {
		if items, ok := s.committees.Get(ctx); ok {
			return items, nil
		}
	}

	items, err := s.store.ListActiveCommittees(ctx)
	if err != nil {
		return nil, err
	}

	if s.committees != nil {
		if err := s.committees.Set(ctx, items); err != nil {
			log.Printf("committee cache: set failed: %v", err)
		}
	}
	return items, nil
}

// GetSubmission loads one submission, used by the manual re-sync path.
func (s *Service) GetSubmission(ctx context.Context, submissionID string) (store.Submission, error) {
	return s.store.GetSubmission(ctx, submissionID)
}

// recordFromSubmission rebuilds the notification shape from a stored
// row so a sync can be re-delivered without the original webhook.
func recordFromSubmission(sub store.Submission) SubmissionRecord {
	return SubmissionRecord{
		ID:            sub.ID,
		FullName:      sub.FullName,
		Email:         sub.Email,
		Phone:         sub.Phone,
		CityCounty:    sub.CityCounty,
		Interests:     sub.Interests,
		InterestOther: sub.InterestOther,
		Experience:    sub.Experience,
		TimeAvailable: sub.TimeAvailable,
		Format:        sub.Format,
		Motivation:    sub.Motivation,
	}
}

// SyncSubmission reconciles the external profile with the submission:
// upserts the member, then rewrites the volunteer-managed tag set to
// exactly the tags derived from the record. Each run is stateless and
// safe to retry as a whole; tags outside the managed namespace are
// never touched. Returns the number of tag directives applied.
func (s *Service) SyncSubmission(ctx context.Context, rec SubmissionRecord) (int, error) {
	email := strings.ToLower(strings.TrimSpace(rec.Email))
	if email == "" {
		return 0, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "email is required", nil)
	}
	if s.profiles == nil || !s.cfg.SyncConfigured() {
		return 0, domainError(http.StatusInternalServerError, "SYNC_NOT_CONFIGURED", "marketing provider credentials are not configured", nil)
	}

	hash := mailchimp.SubscriberHash(email)

	// Absent optionals become empty strings so the provider clears
	// stale merge values instead of keeping them.
	merge := map[string]string{
		"FNAME":         strings.TrimSpace(rec.FullName),
		"PHONE":         strings.TrimSpace(rec.Phone),
		"COUNTY":        strings.TrimSpace(rec.CityCounty),
		"EXPERIENCE":    strings.TrimSpace(rec.Experience),
		"AVAILABILITY":  tags.AvailabilityDisplay(rec.TimeAvailable),
		"FORMAT":        strings.TrimSpace(rec.Format),
		"MOTIVATION":    strings.TrimSpace(rec.Motivation),
		"OTHERINTEREST": strings.TrimSpace(rec.InterestOther),
	}

	if err := s.profiles.UpsertMember(ctx, hash, email, merge); err != nil {
		return 0, err
	}

	current, err := s.profiles.MemberTags(ctx, hash)
	if err != nil {
		return 0, err
	}

	desired := tags.ForSubmission(tags.Submission{
		CityCounty:    rec.CityCounty,
		Interests:     rec.Interests,
		Experience:    rec.Experience,
		TimeAvailable: rec.TimeAvailable,
		Format:        rec.Format,
	})

	batch := buildTagBatch(current, desired)
	if err := s.profiles.UpdateMemberTags(ctx, hash, batch); err != nil {
		return 0, err
	}
	return len(batch), nil
}

// buildTagBatch combines deactivations and activations into one batch
// with exactly one directive per tag name. Every currently-active
// volunteer-managed tag is deactivated unless the new submission still
// wants it; tags outside the managed namespace are never included.
func buildTagBatch(current []mailchimp.MemberTag, desired []string) []mailchimp.TagUpdate {
	statuses := make(map[string]string)
	for _, tag := range current {
		if !tagIsActive(tag) || !tags.IsVolunteerManaged(tag.Name) {
			continue
		}
		statuses[tag.Name] = "inactive"
	}
	for _, name := range desired {
		statuses[name] = "active"
	}

	names := make([]string, 0, len(statuses))
	for name := range statuses {
		names = append(names, name)
	}
	sort.Strings(names)

	batch := make([]mailchimp.TagUpdate, 0, len(names))
	for _, name := range names {
		if statuses[name] == "inactive" {
			batch = append(batch, mailchimp.TagUpdate{Name: name, Status: "inactive"})
		}
	}
	for _, name := range names {
		if statuses[name] == "active" {
			batch = append(batch, mailchimp.TagUpdate{Name: name, Status: "active"})
		}
	}
	return batch
}

// tagIsActive treats a missing status as active: the provider's tag
// listing only reports attached tags and omits the field.
func tagIsActive(tag mailchimp.MemberTag) bool {
	return tag.Status == "" || tag.Status == "active"
}
