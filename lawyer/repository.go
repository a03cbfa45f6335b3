package lawyer

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound signals the requested lawyer does not exist.
	ErrNotFound = errors.New("lawyer: not found")
	// ErrNoneAvailable signals no active lawyer can take an assignment.
	ErrNoneAvailable = errors.New("lawyer: none available")
)

const profileColumns = `id, name, email, specializations, license_number, rating, completed_reviews, is_active, created_at`

// Repository provides read and aggregate access to lawyer accounts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed repository implementation.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FirstActive returns the first active, unblocked lawyer the store yields.
// This is the whole assignment policy: no load balancing, no rating ranking,
// no specialization matching. Known limitation, kept deliberately simple;
// swap this one method to change the policy.
func (r *Repository) FirstActive(ctx context.Context) (Profile, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE role = 'lawyer' AND is_active AND NOT is_blocked
		ORDER BY created_at ASC
		LIMIT 1
	`, profileColumns)

	p, err := scanProfile(r.pool.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrNoneAvailable
		}
		return Profile{}, fmt.Errorf("lawyer: first active: %w", err)
	}
	return p, nil
}

// GetByID fetches one lawyer profile.
func (r *Repository) GetByID(ctx context.Context, id string) (Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1 AND role = 'lawyer'`, profileColumns)

	p, err := scanProfile(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, fmt.Errorf("lawyer: get by id: %w", err)
	}
	return p, nil
}

// List returns active lawyers matching the filters, best rated first.
func (r *Repository) List(ctx context.Context, filters Filters) ([]Profile, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 || filters.PageSize > 100 {
		filters.PageSize = 10
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE role = 'lawyer' AND is_active AND NOT is_blocked
		  AND ($1 = '' OR $1 = ANY(specializations))
		  AND rating >= $2
		ORDER BY rating DESC, created_at ASC
		LIMIT $3 OFFSET $4
	`, profileColumns)

	rows, err := r.pool.Query(ctx, query,
		filters.Specialization,
		filters.MinRating,
		filters.PageSize,
		(filters.Page-1)*filters.PageSize,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("lawyer: list: %w", err)
	}
	defer rows.Close()

	profiles := make([]Profile, 0, filters.PageSize)
	for rows.Next() {
		p, err := scanProfileRows(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("lawyer: scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("lawyer: iterate profiles: %w", err)
	}

	var total int
	countQuery := `
		SELECT COUNT(*)
		FROM users
		WHERE role = 'lawyer' AND is_active AND NOT is_blocked
		  AND ($1 = '' OR $1 = ANY(specializations))
		  AND rating >= $2
	`
	if err := r.pool.QueryRow(ctx, countQuery, filters.Specialization, filters.MinRating).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("lawyer: count: %w", err)
	}

	return profiles, total, nil
}

// Stats aggregates the lawyer's review counts and earnings.
func (r *Repository) Stats(ctx context.Context, lawyerID string) (Stats, error) {
	const query = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status IN ('pending', 'in_progress')),
			COALESCE(SUM(price) FILTER (WHERE status = 'completed'), 0),
			(SELECT rating FROM users WHERE id = $1)
		FROM reviews
		WHERE lawyer_id = $1
	`

	var s Stats
	err := r.pool.QueryRow(ctx, query, lawyerID).Scan(
		&s.TotalReviews,
		&s.CompletedReviews,
		&s.PendingReviews,
		&s.TotalEarnings,
		&s.Rating,
	)
	if err != nil {
		return Stats{}, fmt.Errorf("lawyer: stats: %w", err)
	}
	return s, nil
}

// IncrementCompleted bumps the lifetime completed-review counter inside the
// caller's transaction.
func IncrementCompleted(ctx context.Context, tx pgx.Tx, lawyerID string) error {
	tag, err := tx.Exec(ctx, `UPDATE users SET completed_reviews = completed_reviews + 1, updated_at = now() WHERE id = $1`, lawyerID)
	if err != nil {
		return fmt.Errorf("lawyer: increment completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanProfile(row pgx.Row) (Profile, error) {
	var (
		p       Profile
		specs   []string
		license *string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Email, &specs, &license, &p.Rating, &p.CompletedReviews, &p.IsActive, &p.CreatedAt)
	if err != nil {
		return Profile{}, err
	}
	p.Specializations = specs
	p.LicenseNumber = license
	return p, nil
}

func scanProfileRows(rows pgx.Rows) (Profile, error) {
	return scanProfile(rows)
}
