package dispute

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound  = errors.New("dispute: not found")
	ErrForbidden = errors.New("dispute: forbidden")
	ErrBadStatus = errors.New("dispute: invalid status transition")
)

const disputeColumns = `d.id, d.review_id, d.raised_by, d.reason, d.status::text, d.resolution, d.resolved_by, d.resolved_at, d.created_at, d.updated_at`

const insertedColumns = `id, review_id, raised_by, reason, status::text, resolution, resolved_by, resolved_at, created_at, updated_at`

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns the disputes the requester raised, optionally narrowed to one
// review. Pass an empty requesterID to list everything (admin view).
func (r *Repository) List(ctx context.Context, requesterID string, reviewID string) ([]Record, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM disputes d
		WHERE ($1 = '' OR d.raised_by = $1::uuid)
	`, disputeColumns)
	args := []any{requesterID}
	if reviewID != "" {
		query += " AND d.review_id = $2"
		args = append(args, reviewID)
	}
	query += " ORDER BY d.created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("dispute: list: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0, 8)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("dispute: scan: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dispute: iterate: %w", err)
	}
	return out, nil
}

// Create opens a dispute over a completed review. Ownership is enforced in
// the insert itself: the row only lands if the requester asked for that
// review and the review actually finished.
func (r *Repository) Create(ctx context.Context, requesterID, reviewID, reason string) (Record, error) {
	query := fmt.Sprintf(`
		INSERT INTO disputes (review_id, raised_by, reason, status)
		SELECT $1, $2, $3, 'open'
		FROM reviews rv
		WHERE rv.id = $1 AND rv.requester_id = $2 AND rv.status = 'completed'
		RETURNING %s
	`, insertedColumns)

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, reviewID, requesterID, reason))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrForbidden
		}
		return Record{}, fmt.Errorf("dispute: create: %w", err)
	}
	return rec, nil
}

// Resolve settles a dispute with the admin's decision. Settled disputes stay
// settled; the fallback query distinguishes that from a missing record.
func (r *Repository) Resolve(ctx context.Context, adminID, disputeID string, status Status, resolution string) (Record, error) {
	query := fmt.Sprintf(`
		UPDATE disputes d
		SET status = $3,
		    resolution = $4,
		    resolved_by = $2,
		    resolved_at = now(),
		    updated_at = now()
		WHERE d.id = $1
		  AND d.status NOT IN ('resolved', 'closed')
		RETURNING %s
	`, disputeColumns)

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, disputeID, adminID, status, resolution))
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Record{}, fmt.Errorf("dispute: resolve: %w", err)
	}

	var current Status
	if err := r.pool.QueryRow(ctx, `SELECT status::text FROM disputes WHERE id = $1`, disputeID).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("dispute: resolve fetch: %w", err)
	}
	if Settled(current) {
		return Record{}, ErrBadStatus
	}
	return Record{}, ErrNotFound
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID,
		&rec.ReviewID,
		&rec.RaisedBy,
		&rec.Reason,
		&rec.Status,
		&rec.Resolution,
		&rec.ResolvedBy,
		&rec.ResolvedAt,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}
