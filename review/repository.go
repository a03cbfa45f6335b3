package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"draftflow/pricing"
)

var (
	// ErrNotFound signals the review does not exist.
	ErrNotFound = errors.New("review: not found")
	// ErrDocumentAlreadyUnderReview signals an active review already covers the document.
	ErrDocumentAlreadyUnderReview = errors.New("review: document already under review")
)

// Store handles data access for reviews.
type Store interface {
	Create(ctx context.Context, tx pgx.Tx, params CreateParams) (Review, error)
	GetByID(ctx context.Context, id string) (Review, error)
	List(ctx context.Context, filters Filters) ([]Review, int, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id string, params StatusParams) (Review, error)
}

// CreateParams contains write parameters for new reviews.
type CreateParams struct {
	ID          string
	DocumentID  string
	RequesterID string
	LawyerID    string
	Tier        pricing.Tier
	Price       int64
	SLADeadline time.Time
}

// StatusParams carries a status change. started_at and completed_at are
// stamped by the store the first time the review enters the matching state
// and never overwritten after that.
type StatusParams struct {
	Status          Status
	Comments        *string
	ReviewedContent *string
	Now             time.Time
}

const reviewColumns = `id, document_id, requester_id, lawyer_id, status, pricing_tier, price, comments, reviewed_content, started_at, completed_at, sla_deadline, is_paid, created_at, updated_at`

// PGStore implements Store backed by PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewStore creates a PostgreSQL-backed review store.
func NewStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Create inserts a review inside the caller's transaction. A partial unique
// index on (document_id) for active reviews turns double submissions into
// ErrDocumentAlreadyUnderReview.
func (s *PGStore) Create(ctx context.Context, tx pgx.Tx, params CreateParams) (Review, error) {
	insertSQL := fmt.Sprintf(`
		INSERT INTO reviews (id, document_id, requester_id, lawyer_id, status, pricing_tier, price, sla_deadline)
		VALUES ($1, $2, $3, $4, 'pending', $5, $6, $7)
		RETURNING %s
	`, reviewColumns)

	r, err := scanReview(tx.QueryRow(ctx, insertSQL,
		params.ID,
		params.DocumentID,
		params.RequesterID,
		params.LawyerID,
		params.Tier,
		params.Price,
		params.SLADeadline,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return Review{}, ErrDocumentAlreadyUnderReview
		}
		return Review{}, fmt.Errorf("review: create: %w", err)
	}
	return r, nil
}

// GetByID retrieves one review.
func (s *PGStore) GetByID(ctx context.Context, id string) (Review, error) {
	selectSQL := fmt.Sprintf(`SELECT %s FROM reviews WHERE id = $1`, reviewColumns)

	r, err := scanReview(s.pool.QueryRow(ctx, selectSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Review{}, ErrNotFound
		}
		return Review{}, fmt.Errorf("review: get by id: %w", err)
	}
	return r, nil
}

// List returns reviews matching the filters, newest first, with the total count.
func (s *PGStore) List(ctx context.Context, filters Filters) ([]Review, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 || filters.PageSize > 100 {
		filters.PageSize = 10
	}

	const where = `
		WHERE ($1 = '' OR requester_id = $1::uuid)
		  AND ($2 = '' OR lawyer_id = $2::uuid)
		  AND ($3 = '' OR status = $3::review_status)
	`

	query := fmt.Sprintf(`
		SELECT %s
		FROM reviews
		%s
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5
	`, reviewColumns, where)

	rows, err := s.pool.Query(ctx, query,
		filters.RequesterID,
		filters.LawyerID,
		string(filters.Status),
		filters.PageSize,
		(filters.Page-1)*filters.PageSize,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("review: list: %w", err)
	}
	defer rows.Close()

	reviews := make([]Review, 0, filters.PageSize)
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("review: scan: %w", err)
		}
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("review: iterate: %w", err)
	}

	var total int
	countSQL := `SELECT COUNT(*) FROM reviews` + where
	if err := s.pool.QueryRow(ctx, countSQL,
		filters.RequesterID,
		filters.LawyerID,
		string(filters.Status),
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("review: count: %w", err)
	}

	return reviews, total, nil
}

// UpdateStatus applies a status change inside the caller's transaction.
// COALESCE keeps the first started_at and completed_at stamps, so repeating
// a transition never moves the timestamps.
func (s *PGStore) UpdateStatus(ctx context.Context, tx pgx.Tx, id string, params StatusParams) (Review, error) {
	updateSQL := fmt.Sprintf(`
		UPDATE reviews
		SET status = $2,
		    comments = COALESCE($3, comments),
		    reviewed_content = COALESCE($4, reviewed_content),
		    started_at = CASE WHEN $2 IN ('in_progress', 'completed') THEN COALESCE(started_at, $5) ELSE started_at END,
		    completed_at = CASE WHEN $2 = 'completed' THEN COALESCE(completed_at, $5) ELSE completed_at END,
		    updated_at = $5
		WHERE id = $1
		RETURNING %s
	`, reviewColumns)

	r, err := scanReview(tx.QueryRow(ctx, updateSQL, id, params.Status, params.Comments, params.ReviewedContent, params.Now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Review{}, ErrNotFound
		}
		return Review{}, fmt.Errorf("review: update status: %w", err)
	}
	return r, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func scanReview(row pgx.Row) (Review, error) {
	var r Review
	err := row.Scan(
		&r.ID,
		&r.DocumentID,
		&r.RequesterID,
		&r.LawyerID,
		&r.Status,
		&r.Tier,
		&r.Price,
		&r.Comments,
		&r.ReviewedContent,
		&r.StartedAt,
		&r.CompletedAt,
		&r.SLADeadline,
		&r.IsPaid,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return Review{}, err
	}
	return r, nil
}
