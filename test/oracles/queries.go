package oracles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Oracle struct {
	Name string
	SQL  string
}

func All() []Oracle {
	return []Oracle{
		{
			Name: "O1_unique_active_review",
			SQL: `SELECT document_id, COUNT(*) FROM reviews
                  WHERE status IN ('pending','in_progress')
                  GROUP BY document_id HAVING COUNT(*) > 1`,
		},
		{
			Name: "O2_payout_amount_is_sum",
			SQL: `SELECT p.id, p.amount, SUM(r.price)
                  FROM payouts p
                  JOIN payout_reviews pr ON pr.payout_id = p.id
                  JOIN reviews r ON r.id = pr.review_id
                  GROUP BY p.id, p.amount
                  HAVING p.amount <> SUM(r.price)`,
		},
		{
			Name: "O3_review_single_payout",
			SQL: `SELECT review_id, COUNT(*) FROM payout_reviews
                  GROUP BY review_id HAVING COUNT(*) > 1`,
		},
		{
			Name: "O4_paid_review_has_payout",
			SQL: `SELECT r.id FROM reviews r
                  WHERE r.is_paid
                    AND NOT EXISTS (SELECT 1 FROM payout_reviews pr WHERE pr.review_id = r.id)`,
		},
		{
			Name: "O5_payout_reviews_completed",
			SQL: `SELECT r.id, r.status FROM reviews r
                  JOIN payout_reviews pr ON pr.review_id = r.id
                  WHERE r.status <> 'completed'`,
		},
		{
			Name: "O6_completed_review_stamps",
			SQL: `SELECT id FROM reviews
                  WHERE status = 'completed' AND (completed_at IS NULL OR started_at IS NULL)`,
		},
		{
			Name: "O7_stamp_order",
			SQL: `SELECT id FROM reviews
                  WHERE started_at IS NOT NULL AND completed_at IS NOT NULL
                    AND completed_at < started_at`,
		},
		{
			Name: "O8_settled_payout_stamped",
			SQL: `SELECT id FROM payouts
                  WHERE status IN ('completed','failed','rejected')
                    AND (processed_at IS NULL OR processed_by IS NULL)`,
		},
		{
			Name: "O9_reviewed_document_has_review",
			SQL: `SELECT d.id FROM documents d
                  WHERE d.status IN ('reviewed','approved')
                    AND NOT EXISTS (
                        SELECT 1 FROM reviews r
                        WHERE r.document_id = d.id AND r.status = 'completed')`,
		},
	}
}

// Run executes all oracles and returns the first failure (name and sample row text) or empty name if all pass.
func Run(ctx context.Context, pool *pgxpool.Pool) (string, string, error) {
	for _, o := range All() {
		rows, err := pool.Query(ctx, o.SQL)
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
		has := rows.Next()
		if has {
			vals, err := rows.Values()
			rows.Close()
			if err != nil {
				return o.Name, "", err
			}
			return o.Name, fmt.Sprintf("%v", vals), nil
		}
		rows.Close()
	}
	return "", "", nil
}
