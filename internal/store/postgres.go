package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"volunteerhub/api/internal/util"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateSubmission inserts the submission and its committee links in
// one transaction and returns the generated submission id. Candidate
// committee ids that are unknown, inactive or duplicated are silently
// skipped; a failure on the submission insert rolls everything back.
func (s *PostgresStore) CreateSubmission(ctx context.Context, in SubmissionInput) (string, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	interests := in.Interests
	if interests == nil {
		interests = []string{}
	}
	interestsJSON, err := json.Marshal(interests)
	if err != nil {
		return "", fmt.Errorf("encode interests: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin submission tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var submissionID string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO submissions (
			full_name, email, phone, city_county, interests,
			interest_other_text, experience, time_available,
			volunteer_format, motivation
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`,
		strings.TrimSpace(in.FullName),
		email,
		nullIfBlank(in.Phone),
		nullIfBlank(in.CityCounty),
		interestsJSON,
		nullIfBlank(in.InterestOther),
		nullIfBlank(in.Experience),
		nullIfBlank(in.TimeAvailable),
		nullIfBlank(in.Format),
		nullIfBlank(in.Motivation),
	).Scan(&submissionID)
	if err != nil {
		return "", fmt.Errorf("insert submission: %w", err)
	}

	// Links only reference committees that are active right now; the
	// conditional insert drops unknown, inactive and duplicate ids
	// without surfacing an error.
	for _, committeeID := range in.CommitteeIDs {
		committeeID = strings.TrimSpace(committeeID)
		if committeeID == "" {
			continue
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO submission_committees (id, submission_id, committee_id)
			SELECT $1, $2, c.id
			FROM committees c
			WHERE c.id = $3 AND c.is_active
			ON CONFLICT (submission_id, committee_id) DO NOTHING
		`, util.NewID("scl"), submissionID, committeeID)
		if err != nil {
			return "", fmt.Errorf("insert committee link: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit submission tx: %w", err)
	}
	return submissionID, nil
}

func (s *PostgresStore) GetSubmission(ctx context.Context, submissionID string) (Submission, error) {
	var item Submission
	var interestsJSON []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, full_name, email,
			COALESCE(phone, ''), COALESCE(city_county, ''), interests,
			COALESCE(interest_other_text, ''), COALESCE(experience, ''),
			COALESCE(time_available, ''), COALESCE(volunteer_format, ''),
			COALESCE(motivation, ''), created_at
		FROM submissions
		WHERE id = $1
	`, submissionID).Scan(
		&item.ID,
		&item.FullName,
		&item.Email,
		&item.Phone,
		&item.CityCounty,
		&interestsJSON,
		&item.InterestOther,
		&item.Experience,
		&item.TimeAvailable,
		&item.Format,
		&item.Motivation,
		&item.CreatedAt,
	)
	if err != nil {
		return Submission{}, err
	}
	if err := json.Unmarshal(interestsJSON, &item.Interests); err != nil {
		return Submission{}, fmt.Errorf("decode interests: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) ListActiveCommittees(ctx context.Context) ([]Committee, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, slug, name, is_active, sort_order, created_at
		FROM committees
		WHERE is_active
		ORDER BY sort_order, name
	`)
	if err != nil {
		return nil, fmt.Errorf("list committees: %w", err)
	}
	defer rows.Close()

	items := make([]Committee, 0)
	for rows.Next() {
		var item Committee
		if err := rows.Scan(&item.ID, &item.Slug, &item.Name, &item.IsActive, &item.SortOrder, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan committee: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate committees: %w", err)
	}
	return items, nil
}

// CommitteeLinkCount reports how many link rows a submission carries.
func (s *PostgresStore) CommitteeLinkCount(ctx context.Context, submissionID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM submission_committees WHERE submission_id = $1
	`, submissionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count committee links: %w", err)
	}
	return count, nil
}

// nullIfBlank trims the value and maps blank to SQL NULL so optional
// fields are stored as absent, never as empty strings.
func nullIfBlank(s string) any {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	return trimmed
}
