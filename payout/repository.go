package payout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound signals the payout does not exist.
var ErrNotFound = errors.New("payout: not found")

// Store handles data access for payouts.
type Store interface {
	LockEligible(ctx context.Context, tx pgx.Tx, lawyerID string, reviewIDs []string) ([]EligibleReview, error)
	Create(ctx context.Context, tx pgx.Tx, params CreateParams) (Payout, error)
	MarkReviewsPaid(ctx context.Context, tx pgx.Tx, reviewIDs []string) error
	GetByID(ctx context.Context, id string) (Payout, error)
	List(ctx context.Context, filters Filters) ([]Payout, int, error)
	Process(ctx context.Context, id string, params ProcessParams) (Payout, error)
}

// EligibleReview is a completed, unpaid review locked for settlement.
type EligibleReview struct {
	ID    string
	Price int64
}

// CreateParams contains write parameters for new payouts.
type CreateParams struct {
	ID          string
	LawyerID    string
	Amount      int64
	ReviewIDs   []string
	Method      string
	BankDetails BankDetails
}

// ProcessParams carries an admin settlement decision.
type ProcessParams struct {
	Status        Status
	TransactionID *string
	AdminNotes    *string
	ProcessedBy   string
	ProcessedAt   time.Time
}

const payoutColumns = `p.id, p.lawyer_id, p.amount, p.status, p.method, p.bank_details, p.transaction_id, p.admin_notes, p.processed_at, p.processed_by, p.created_at, p.updated_at`

// PGStore implements Store backed by PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewStore creates a PostgreSQL-backed payout store.
func NewStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// LockEligible row-locks the requested reviews that are actually claimable by
// this lawyer: completed and not yet paid. The caller compares the result
// count against the request to enforce all-or-nothing creation; FOR UPDATE
// keeps a concurrent request from claiming the same rows.
func (s *PGStore) LockEligible(ctx context.Context, tx pgx.Tx, lawyerID string, reviewIDs []string) ([]EligibleReview, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, price
		FROM reviews
		WHERE id = ANY($1)
		  AND lawyer_id = $2
		  AND status = 'completed'
		  AND NOT is_paid
		FOR UPDATE
	`, reviewIDs, lawyerID)
	if err != nil {
		return nil, fmt.Errorf("payout: lock eligible: %w", err)
	}
	defer rows.Close()

	var eligible []EligibleReview
	for rows.Next() {
		var er EligibleReview
		if err := rows.Scan(&er.ID, &er.Price); err != nil {
			return nil, fmt.Errorf("payout: scan eligible: %w", err)
		}
		eligible = append(eligible, er)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("payout: iterate eligible: %w", err)
	}
	return eligible, nil
}

// Create inserts the payout and its review links inside the caller's transaction.
func (s *PGStore) Create(ctx context.Context, tx pgx.Tx, params CreateParams) (Payout, error) {
	detailsJSON, err := json.Marshal(params.BankDetails)
	if err != nil {
		return Payout{}, fmt.Errorf("payout: marshal bank details: %w", err)
	}

	insertSQL := fmt.Sprintf(`
		INSERT INTO payouts AS p (id, lawyer_id, amount, status, method, bank_details)
		VALUES ($1, $2, $3, 'pending', $4, $5::jsonb)
		RETURNING %s
	`, payoutColumns)

	p, err := scanPayout(tx.QueryRow(ctx, insertSQL,
		params.ID,
		params.LawyerID,
		params.Amount,
		params.Method,
		string(detailsJSON),
	))
	if err != nil {
		return Payout{}, fmt.Errorf("payout: create: %w", err)
	}

	for _, reviewID := range params.ReviewIDs {
		if _, err := tx.Exec(ctx, `INSERT INTO payout_reviews (payout_id, review_id) VALUES ($1, $2)`, p.ID, reviewID); err != nil {
			return Payout{}, fmt.Errorf("payout: link review: %w", err)
		}
	}
	p.ReviewIDs = params.ReviewIDs
	return p, nil
}

// MarkReviewsPaid flags the reviews as claimed inside the caller's transaction.
func (s *PGStore) MarkReviewsPaid(ctx context.Context, tx pgx.Tx, reviewIDs []string) error {
	tag, err := tx.Exec(ctx, `UPDATE reviews SET is_paid = true, updated_at = now() WHERE id = ANY($1)`, reviewIDs)
	if err != nil {
		return fmt.Errorf("payout: mark paid: %w", err)
	}
	if int(tag.RowsAffected()) != len(reviewIDs) {
		return fmt.Errorf("payout: mark paid: updated %d of %d reviews", tag.RowsAffected(), len(reviewIDs))
	}
	return nil
}

// GetByID retrieves one payout with its linked review ids.
func (s *PGStore) GetByID(ctx context.Context, id string) (Payout, error) {
	selectSQL := fmt.Sprintf(`SELECT %s FROM payouts p WHERE p.id = $1`, payoutColumns)

	p, err := scanPayout(s.pool.QueryRow(ctx, selectSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payout{}, ErrNotFound
		}
		return Payout{}, fmt.Errorf("payout: get by id: %w", err)
	}

	if p.ReviewIDs, err = s.reviewIDs(ctx, id); err != nil {
		return Payout{}, err
	}
	return p, nil
}

// List returns payouts matching the filters, newest first, with the total count.
func (s *PGStore) List(ctx context.Context, filters Filters) ([]Payout, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 || filters.PageSize > 100 {
		filters.PageSize = 10
	}

	const where = `
		WHERE ($1 = '' OR p.lawyer_id = $1::uuid)
		  AND ($2 = '' OR p.status = $2::payout_status)
	`

	query := fmt.Sprintf(`
		SELECT %s
		FROM payouts p
		%s
		ORDER BY p.created_at DESC
		LIMIT $3 OFFSET $4
	`, payoutColumns, where)

	rows, err := s.pool.Query(ctx, query,
		filters.LawyerID,
		string(filters.Status),
		filters.PageSize,
		(filters.Page-1)*filters.PageSize,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("payout: list: %w", err)
	}
	defer rows.Close()

	payouts := make([]Payout, 0, filters.PageSize)
	for rows.Next() {
		p, err := scanPayout(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("payout: scan: %w", err)
		}
		payouts = append(payouts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("payout: iterate: %w", err)
	}

	for i := range payouts {
		if payouts[i].ReviewIDs, err = s.reviewIDs(ctx, payouts[i].ID); err != nil {
			return nil, 0, err
		}
	}

	var total int
	countSQL := `SELECT COUNT(*) FROM payouts p` + where
	if err := s.pool.QueryRow(ctx, countSQL, filters.LawyerID, string(filters.Status)).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("payout: count: %w", err)
	}

	return payouts, total, nil
}

// Process records the admin decision. Settled payouts stay settled: the
// guard lives in the UPDATE itself so two racing admin calls cannot both
// land, and the fallback query distinguishes that from a missing record.
func (s *PGStore) Process(ctx context.Context, id string, params ProcessParams) (Payout, error) {
	updateSQL := fmt.Sprintf(`
		UPDATE payouts AS p
		SET status = $2,
		    transaction_id = COALESCE($3, transaction_id),
		    admin_notes = COALESCE($4, admin_notes),
		    processed_at = $5,
		    processed_by = $6,
		    updated_at = $5
		WHERE p.id = $1
		  AND p.status NOT IN ('completed', 'failed', 'rejected')
		RETURNING %s
	`, payoutColumns)

	p, err := scanPayout(s.pool.QueryRow(ctx, updateSQL,
		id,
		params.Status,
		params.TransactionID,
		params.AdminNotes,
		params.ProcessedAt,
		params.ProcessedBy,
	))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return Payout{}, fmt.Errorf("payout: process: %w", err)
		}

		var current Status
		if err := s.pool.QueryRow(ctx, `SELECT status FROM payouts WHERE id = $1`, id).Scan(&current); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return Payout{}, ErrNotFound
			}
			return Payout{}, fmt.Errorf("payout: process fetch: %w", err)
		}
		if Terminal(current) {
			return Payout{}, fmt.Errorf("%w: payout is %s", ErrAlreadySettled, current)
		}
		return Payout{}, ErrNotFound
	}

	if p.ReviewIDs, err = s.reviewIDs(ctx, id); err != nil {
		return Payout{}, err
	}
	return p, nil
}

func (s *PGStore) reviewIDs(ctx context.Context, payoutID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT review_id FROM payout_reviews WHERE payout_id = $1 ORDER BY review_id`, payoutID)
	if err != nil {
		return nil, fmt.Errorf("payout: review ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("payout: scan review id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanPayout(row pgx.Row) (Payout, error) {
	var (
		p           Payout
		detailsJSON []byte
	)
	err := row.Scan(
		&p.ID,
		&p.LawyerID,
		&p.Amount,
		&p.Status,
		&p.Method,
		&detailsJSON,
		&p.TransactionID,
		&p.AdminNotes,
		&p.ProcessedAt,
		&p.ProcessedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return Payout{}, err
	}
	if len(detailsJSON) > 0 {
		if err := json.Unmarshal(detailsJSON, &p.BankDetails); err != nil {
			return Payout{}, fmt.Errorf("unmarshal bank details: %w", err)
		}
	}
	return p, nil
}
