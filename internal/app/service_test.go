package app

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"volunteerhub/api/internal/config"
	"volunteerhub/api/internal/mailchimp"
	"volunteerhub/api/internal/store"
)

type fakeStore struct {
	createSubmissionFn     func(context.Context, store.SubmissionInput) (string, error)
	listActiveCommitteesFn func(context.Context) ([]store.Committee, error)
	getSubmissionFn        func(context.Context, string) (store.Submission, error)
}

func (f *fakeStore) CreateSubmission(ctx context.Context, in store.SubmissionInput) (string, error) {
	if f.createSubmissionFn != nil {
		return f.createSubmissionFn(ctx, in)
	}
	return "sub_1", nil
}

func (f *fakeStore) ListActiveCommittees(ctx context.Context) ([]store.Committee, error) {
	if f.listActiveCommitteesFn != nil {
		return f.listActiveCommitteesFn(ctx)
	}
	return nil, nil
}

func (f *fakeStore) GetSubmission(ctx context.Context, submissionID string) (store.Submission, error) {
	if f.getSubmissionFn != nil {
		return f.getSubmissionFn(ctx, submissionID)
	}
	return store.Submission{}, nil
}

func (f *fakeStore) Ping(context.Context) error { return nil }

type fakeProfiles struct {
	upsertHash   string
	upsertEmail  string
	upsertMerge  map[string]string
	upsertErr    error
	memberTags   []mailchimp.MemberTag
	memberErr    error
	updatedHash  string
	updatedBatch []mailchimp.TagUpdate
	updateErr    error
	calls        int
}

func (f *fakeProfiles) UpsertMember(_ context.Context, hash, email string, merge map[string]string) error {
	f.calls++
	f.upsertHash = hash
	f.upsertEmail = email
	f.upsertMerge = merge
	return f.upsertErr
}

func (f *fakeProfiles) MemberTags(context.Context, string) ([]mailchimp.MemberTag, error) {
	f.calls++
	return f.memberTags, f.memberErr
}

func (f *fakeProfiles) UpdateMemberTags(_ context.Context, hash string, updates []mailchimp.TagUpdate) error {
	f.calls++
	f.updatedHash = hash
	f.updatedBatch = updates
	return f.updateErr
}

func syncConfig() config.Config {
	return config.Config{
		MailchimpDC:     "us1",
		MailchimpAPIKey: "key",
		MailchimpListID: "list-1",
	}
}

func batchStatus(batch []mailchimp.TagUpdate, name string) (string, bool) {
	for _, update := range batch {
		if update.Name == name {
			return update.Status, true
		}
	}
	return "", false
}

func TestSyncSubmissionReconcilesTags(t *testing.T) {
	profiles := &fakeProfiles{
		memberTags: []mailchimp.MemberTag{
			{Name: "role-volunteer"},
			{Name: "interest-phone-banking"},
			{Name: "county-travis"},
			{Name: "vip"},
			{Name: "interest-writing", Status: "inactive"},
		},
	}
	svc := New(syncConfig(), &fakeStore{}, profiles)

	tagCount, err := svc.SyncSubmission(context.Background(), SubmissionRecord{
		FullName:      "Jane Doe",
		Email:         "Jane@Example.com",
		CityCounty:    "Orange County",
		Interests:     []string{"Social Media", "Other"},
		Experience:    "Beginner",
		TimeAvailable: "1-3",
	})
	if err != nil {
		t.Fatalf("SyncSubmission failed: %v", err)
	}
	if tagCount != len(profiles.updatedBatch) {
		t.Errorf("tagCount %d does not match batch size %d", tagCount, len(profiles.updatedBatch))
	}

	wantHash := mailchimp.SubscriberHash("jane@example.com")
	if profiles.upsertHash != wantHash {
		t.Errorf("upsert used hash %q, want hash of normalized email %q", profiles.upsertHash, wantHash)
	}
	if profiles.upsertEmail != "jane@example.com" {
		t.Errorf("upsert used email %q, want normalized", profiles.upsertEmail)
	}
	if profiles.updatedHash != wantHash {
		t.Errorf("tag batch used hash %q, want %q", profiles.updatedHash, wantHash)
	}

	// Stale managed tags are deactivated.
	for _, stale := range []string{"interest-phone-banking", "county-travis"} {
		if status, ok := batchStatus(profiles.updatedBatch, stale); !ok || status != "inactive" {
			t.Errorf("expected %s inactive in batch, got %q (present=%v)", stale, status, ok)
		}
	}

	// Every derived tag is activated.
	for _, want := range []string{
		"role-volunteer",
		"county-orange-county",
		"interest-social-media",
		"interest-other",
		"experience-beginner",
		"availability-1-3",
	} {
		if status, ok := batchStatus(profiles.updatedBatch, want); !ok || status != "active" {
			t.Errorf("expected %s active in batch, got %q (present=%v)", want, status, ok)
		}
	}

	// Externally-owned and already-inactive tags are not touched.
	for _, untouched := range []string{"vip", "interest-writing"} {
		if _, ok := batchStatus(profiles.updatedBatch, untouched); ok {
			t.Errorf("batch must not mention %s", untouched)
		}
	}

	// One directive per name.
	seen := map[string]int{}
	for _, update := range profiles.updatedBatch {
		seen[update.Name]++
	}
	for name, count := range seen {
		if count > 1 {
			t.Errorf("tag %s appears %d times in batch", name, count)
		}
	}
}

func TestSyncSubmissionMergeFieldsClearAbsentValues(t *testing.T) {
	profiles := &fakeProfiles{}
	svc := New(syncConfig(), &fakeStore{}, profiles)

	_, err := svc.SyncSubmission(context.Background(), SubmissionRecord{
		FullName:      "Jane Doe",
		Email:         "jane@example.com",
		TimeAvailable: "1-3",
	})
	if err != nil {
		t.Fatalf("SyncSubmission failed: %v", err)
	}

	if got := profiles.upsertMerge["AVAILABILITY"]; got != "1-3 hours per week" {
		t.Errorf("AVAILABILITY = %q, want display text", got)
	}
	for _, field := range []string{"PHONE", "COUNTY", "EXPERIENCE", "FORMAT", "MOTIVATION", "OTHERINTEREST"} {
		got, ok := profiles.upsertMerge[field]
		if !ok {
			t.Errorf("merge field %s must be present (empty), not omitted", field)
		}
		if got != "" {
			t.Errorf("merge field %s = %q, want empty", field, got)
		}
	}
}

func TestSyncSubmissionMissingEmail(t *testing.T) {
	profiles := &fakeProfiles{}
	svc := New(syncConfig(), &fakeStore{}, profiles)

	_, err := svc.SyncSubmission(context.Background(), SubmissionRecord{FullName: "Jane Doe"})

	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected DomainError, got %v", err)
	}
	if domainErr.Status != http.StatusUnprocessableEntity || domainErr.Code != "VALIDATION_ERROR" {
		t.Errorf("unexpected error %+v", domainErr)
	}
	if profiles.calls != 0 {
		t.Errorf("expected zero provider calls, got %d", profiles.calls)
	}
}

func TestSyncSubmissionUnconfiguredProvider(t *testing.T) {
	profiles := &fakeProfiles{}
	svc := New(config.Config{}, &fakeStore{}, profiles)

	_, err := svc.SyncSubmission(context.Background(), SubmissionRecord{Email: "jane@example.com"})

	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected DomainError, got %v", err)
	}
	if domainErr.Code != "SYNC_NOT_CONFIGURED" {
		t.Errorf("expected SYNC_NOT_CONFIGURED, got %s", domainErr.Code)
	}
	if profiles.calls != 0 {
		t.Errorf("expected zero provider calls, got %d", profiles.calls)
	}
}

func TestSyncSubmissionProviderErrorPropagates(t *testing.T) {
	profiles := &fakeProfiles{
		memberErr: &mailchimp.APIError{StatusCode: 404, Body: `{"title":"Resource Not Found"}`},
	}
	svc := New(syncConfig(), &fakeStore{}, profiles)

	_, err := svc.SyncSubmission(context.Background(), SubmissionRecord{Email: "jane@example.com"})

	var apiErr *mailchimp.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *mailchimp.APIError, got %v", err)
	}
	if profiles.updatedBatch != nil {
		t.Error("tag batch must not be applied after a fetch failure")
	}
}

func TestCreateSubmissionValidatesRequiredFields(t *testing.T) {
	svc := New(config.Config{}, &fakeStore{}, nil)

	tests := []struct {
		name  string
		input CreateSubmissionInput
	}{
		{"missing email", CreateSubmissionInput{FullName: "Jane Doe"}},
		{"missing name", CreateSubmissionInput{Email: "jane@example.com"}},
		{"blank email", CreateSubmissionInput{FullName: "Jane Doe", Email: "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateSubmission(context.Background(), tt.input)
			var domainErr *DomainError
			if !errors.As(err, &domainErr) {
				t.Fatalf("expected DomainError, got %v", err)
			}
			if domainErr.Status != http.StatusUnprocessableEntity {
				t.Errorf("expected 422, got %d", domainErr.Status)
			}
		})
	}
}

func TestCreateSubmissionPassesCommitteeIDs(t *testing.T) {
	var gotInput store.SubmissionInput
	fs := &fakeStore{
		createSubmissionFn: func(_ context.Context, in store.SubmissionInput) (string, error) {
			gotInput = in
			return "sub_42", nil
		},
	}
	svc := New(config.Config{}, fs, nil)

	id, err := svc.CreateSubmission(context.Background(), CreateSubmissionInput{
		FullName:     "Jane Doe",
		Email:        "jane@example.com",
		CommitteeIDs: []string{"c1", "c2"},
	})
	if err != nil {
		t.Fatalf("CreateSubmission failed: %v", err)
	}
	if id != "sub_42" {
		t.Errorf("unexpected id %q", id)
	}
	if len(gotInput.CommitteeIDs) != 2 {
		t.Errorf("committee ids not forwarded: %v", gotInput.CommitteeIDs)
	}
}

type fakeCommitteeCache struct {
	items []store.Committee
	hit   bool
	sets  int
}

func (f *fakeCommitteeCache) Get(context.Context) ([]store.Committee, bool) {
	return f.items, f.hit
}

func (f *fakeCommitteeCache) Set(_ context.Context, items []store.Committee) error {
	f.sets++
	f.items = items
	return nil
}

func TestListCommitteesUsesCache(t *testing.T) {
	cached := []store.Committee{{ID: "c1", Slug: "outreach"}}
	cacheFake := &fakeCommitteeCache{items: cached, hit: true}
	storeCalled := false
	fs := &fakeStore{
		listActiveCommitteesFn: func(context.Context) ([]store.Committee, error) {
			storeCalled = true
			return nil, nil
		},
	}
	svc := NewWithCommitteeCache(config.Config{}, fs, nil, cacheFake)

	got, err := svc.ListCommittees(context.Background())
	if err != nil {
		t.Fatalf("ListCommittees failed: %v", err)
	}
	if storeCalled {
		t.Error("store must not be queried on a cache hit")
	}
	if len(got) != 1 || got[0].Slug != "outreach" {
		t.Errorf("unexpected committees %+v", got)
	}
}

func TestListCommitteesFillsCacheOnMiss(t *testing.T) {
	cacheFake := &fakeCommitteeCache{}
	fs := &fakeStore{
		listActiveCommitteesFn: func(context.Context) ([]store.Committee, error) {
			return []store.Committee{{ID: "c1", Slug: "data"}}, nil
		},
	}
	svc := NewWithCommitteeCache(config.Config{}, fs, nil, cacheFake)

	got, err := svc.ListCommittees(context.Background())
	if err != nil {
		t.Fatalf("ListCommittees failed: %v", err)
	}
	if len(got) != 1 || got[0].Slug != "data" {
		t.Errorf("unexpected committees %+v", got)
	}
	if cacheFake.sets != 1 {
		t.Errorf("expected one cache fill, got %d", cacheFake.sets)
	}
}
