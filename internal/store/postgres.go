package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/jobscout/internal/types"
)

const defaultCandidateLimit = 500

// Postgres implements Store over a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool and verifies it.
func Connect(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// Close closes the connection pool.
func (s *Postgres) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// FindFingerprints returns every persisted fingerprint, optionally limited to
// the given sources.
func (s *Postgres) FindFingerprints(ctx context.Context, sourceFilter []string) (map[string]struct{}, error) {
	query := `SELECT fingerprint FROM postings`
	args := []any{}
	if len(sourceFilter) > 0 {
		query += ` WHERE source = ANY($1)`
		args = append(args, sourceFilter)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, &QueryError{Operation: "find fingerprints", Cause: err}
	}
	defer rows.Close()

	fingerprints := map[string]struct{}{}
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, &QueryError{Operation: "scan fingerprint", Cause: err}
		}
		fingerprints[fp] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Operation: "iterate fingerprints", Cause: err}
	}
	return fingerprints, nil
}

// InsertPosting persists a net-new posting. The fingerprint column carries a
// unique constraint, so a concurrent duplicate insert surfaces as an error
// rather than a second row.
func (s *Postgres) InsertPosting(ctx context.Context, p *types.CanonicalPosting) (uuid.UUID, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	var id uuid.UUID
	err := s.pool.QueryRow(ctx,
		`INSERT INTO postings (id, source, external_id, company, title, location, remote,
		        tags, description, salary_min, salary_max, salary_currency,
		        apply_url, posted_at, fingerprint, alt_sources)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		 RETURNING id`,
		p.ID, p.Source, p.ExternalID, p.Company, p.Title, p.Location, p.Remote,
		p.Tags, p.Description, p.Salary.Min, p.Salary.Max, p.Salary.Currency,
		p.ApplyURL, p.PostedAt, p.Fingerprint, p.AltSources,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, &QueryError{Operation: "insert posting", Cause: err}
	}
	return id, nil
}

// GetUserProfile loads one user's profile.
func (s *Postgres) GetUserProfile(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error) {
	var profile types.UserProfile
	var experience string

	err := s.pool.QueryRow(ctx,
		`SELECT user_id, skills, preferred_locations, accepts_remote, experience, salary_expectation
		 FROM user_profiles WHERE user_id = $1`,
		userID,
	).Scan(&profile.UserID, &profile.Skills, &profile.PreferredLocations,
		&profile.AcceptsRemote, &experience, &profile.SalaryExpectation)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, &NotFoundError{Entity: "user profile", ID: userID.String()}
		}
		return nil, &QueryError{Operation: "get user profile", Cause: err}
	}

	profile.Experience = types.ParseExperienceLevel(experience)
	return &profile, nil
}

// ListCandidatePostings returns postings eligible for scoring against one
// user, newest first.
func (s *Postgres) ListCandidatePostings(ctx context.Context, userID uuid.UUID, filters CandidateFilters) ([]types.CanonicalPosting, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = defaultCandidateLimit
	}

	query := `SELECT id, source, external_id, company, title, location, remote,
	                 tags, description, salary_min, salary_max, salary_currency,
	                 apply_url, posted_at, fingerprint, alt_sources
	          FROM postings`
	args := []any{}
	n := 0
	where := func(clause string, arg any) {
		n++
		if n == 1 {
			query += " WHERE "
		} else {
			query += " AND "
		}
		query += fmt.Sprintf(clause, n)
		args = append(args, arg)
	}

	if len(filters.Sources) > 0 {
		where("source = ANY($%d)", filters.Sources)
	}
	if filters.PostedAfter > 0 {
		where("posted_at > $%d", time.Unix(filters.PostedAfter, 0).UTC())
	}
	query += fmt.Sprintf(" ORDER BY posted_at DESC LIMIT $%d", n+1)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, &QueryError{Operation: "list candidate postings", Cause: err}
	}
	defer rows.Close()

	var postings []types.CanonicalPosting
	for rows.Next() {
		var p types.CanonicalPosting
		if err := rows.Scan(&p.ID, &p.Source, &p.ExternalID, &p.Company, &p.Title,
			&p.Location, &p.Remote, &p.Tags, &p.Description,
			&p.Salary.Min, &p.Salary.Max, &p.Salary.Currency,
			&p.ApplyURL, &p.PostedAt, &p.Fingerprint, &p.AltSources); err != nil {
			return nil, &QueryError{Operation: "scan posting", Cause: err}
		}
		postings = append(postings, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Operation: "iterate postings", Cause: err}
	}
	return postings, nil
}

// InsertFeedback records one helpful/unhelpful verdict.
func (s *Postgres) InsertFeedback(ctx context.Context, userID, postingID uuid.UUID, helpful bool) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO recommendation_feedback (user_id, posting_id, helpful)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, posting_id) DO UPDATE SET helpful = $3, created_at = NOW()`,
		userID, postingID, helpful,
	)
	if err != nil {
		return &QueryError{Operation: "insert feedback", Cause: err}
	}
	return nil
}
