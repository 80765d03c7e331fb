// Package mailchimp wraps the marketing-list provider's member API:
// profile upsert, tag listing and batched tag updates.
package mailchimp

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// APIError carries a non-success provider response for diagnosis.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mailchimp: status %d: %s", e.StatusCode, e.Body)
}

// MemberTag is one tag on a member profile. The provider omits the
// status on listings; an empty status means active.
type MemberTag struct {
	Name   string `json:"name"`
	Status string `json:"status,omitempty"`
}

// TagUpdate sets one tag to "active" or "inactive".
type TagUpdate struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

type memberTagsResponse struct {
	Tags []MemberTag `json:"tags"`
}

type Client struct {
	http   *resty.Client
	listID string
}

// New creates a client for the given datacenter, API key and audience
// list. The key is sent via basic auth; the username is ignored by the
// provider.
func New(dc, apiKey, listID string) *Client {
	http := resty.New().
		SetBaseURL(fmt.Sprintf("https://%s.api.mailchimp.com/3.0", dc)).
		SetBasicAuth("anystring", apiKey).
		SetTimeout(15 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{http: http, listID: listID}
}

// NewWithBaseURL creates a client against an explicit base URL. Used by
// tests to point at a local server.
func NewWithBaseURL(baseURL, apiKey, listID string) *Client {
	client := New("test", apiKey, listID)
	client.http.SetBaseURL(baseURL)
	return client
}

// SubscriberHash returns the provider's member key for an email
// address: the hex md5 digest of the trimmed, lowercased address.
func SubscriberHash(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	sum := md5.Sum([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// UpsertMember creates or updates the member profile. Subscription
// status is only set on first creation; existing members keep theirs.
func (c *Client) UpsertMember(ctx context.Context, hash, email string, merge map[string]string) error {
	body := map[string]any{
		"email_address": email,
		"status_if_new": "subscribed",
		"merge_fields":  merge,
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Put(fmt.Sprintf("/lists/%s/members/%s", c.listID, hash))
	if err != nil {
		return fmt.Errorf("upsert member: %w", err)
	}
	if resp.IsError() {
		return &APIError{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}
	return nil
}

// MemberTags returns the member's current tags. A member that does not
// exist is an error, not an empty list.
func (c *Client) MemberTags(ctx context.Context, hash string) ([]MemberTag, error) {
	var result memberTagsResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		Get(fmt.Sprintf("/lists/%s/members/%s/tags?count=200", c.listID, hash))
	if err != nil {
		return nil, fmt.Errorf("get member tags: %w", err)
	}
	if resp.IsError() {
		return nil, &APIError{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}
	return result.Tags, nil
}

// UpdateMemberTags applies a batch of activate/deactivate directives in
// one call. Tags not named in the batch are left untouched.
func (c *Client) UpdateMemberTags(ctx context.Context, hash string, updates []TagUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{"tags": updates}).
		Post(fmt.Sprintf("/lists/%s/members/%s/tags", c.listID, hash))
	if err != nil {
		return fmt.Errorf("update member tags: %w", err)
	}
	if resp.IsError() {
		return &APIError{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}
	return nil
}
