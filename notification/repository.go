package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound signals the notification does not exist or belongs to someone else.
var ErrNotFound = errors.New("notification: not found")

// Store is the persistence contract the notifier and the HTTP layer rely on.
type Store interface {
	Insert(ctx context.Context, params InsertParams) (Record, error)
	ListForUser(ctx context.Context, userID string, isRead *bool) ([]Record, error)
	MarkRead(ctx context.Context, notificationID, userID string) (Record, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

// InsertParams contains write parameters for one notification record.
type InsertParams struct {
	UserID          string
	Type            Type
	Title           string
	Message         string
	RelatedDocument *string
	RelatedReview   *string
	Metadata        map[string]any
}

const recordColumns = `id, user_id, type, title, message, is_read, related_document, related_review, metadata, created_at`

// PGRepository implements Store backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed notification repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Insert persists one notification record.
func (r *PGRepository) Insert(ctx context.Context, params InsertParams) (Record, error) {
	metadata := params.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return Record{}, fmt.Errorf("notification: marshal metadata: %w", err)
	}

	insertSQL := fmt.Sprintf(`
		INSERT INTO notifications (user_id, type, title, message, related_document, related_review, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb)
		RETURNING %s
	`, recordColumns)

	rec, err := scanRecord(r.pool.QueryRow(ctx, insertSQL,
		params.UserID,
		params.Type,
		params.Title,
		params.Message,
		params.RelatedDocument,
		params.RelatedReview,
		string(metaJSON),
	))
	if err != nil {
		return Record{}, fmt.Errorf("notification: insert: %w", err)
	}
	return rec, nil
}

// ListForUser returns the newest 50 unexpired notifications for the user,
// optionally filtered by read state.
func (r *PGRepository) ListForUser(ctx context.Context, userID string, isRead *bool) ([]Record, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM notifications
		WHERE user_id = $1
		  AND created_at > now() - interval '30 days'
		  AND ($2::boolean IS NULL OR is_read = $2)
		ORDER BY created_at DESC
		LIMIT 50
	`, recordColumns)

	rows, err := r.pool.Query(ctx, query, userID, isRead)
	if err != nil {
		return nil, fmt.Errorf("notification: list: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0, 16)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("notification: scan: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("notification: iterate: %w", err)
	}
	return records, nil
}

// MarkRead flips one notification to read. The user id guards against
// marking someone else's notification.
func (r *PGRepository) MarkRead(ctx context.Context, notificationID, userID string) (Record, error) {
	updateSQL := fmt.Sprintf(`
		UPDATE notifications
		SET is_read = true
		WHERE id = $1 AND user_id = $2
		RETURNING %s
	`, recordColumns)

	rec, err := scanRecord(r.pool.QueryRow(ctx, updateSQL, notificationID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("notification: mark read: %w", err)
	}
	return rec, nil
}

// MarkAllRead flips every unread notification for the user and returns the count.
func (r *PGRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE notifications SET is_read = true WHERE user_id = $1 AND is_read = false`, userID)
	if err != nil {
		return 0, fmt.Errorf("notification: mark all read: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var (
		rec      Record
		metaJSON []byte
	)
	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.Type,
		&rec.Title,
		&rec.Message,
		&rec.IsRead,
		&rec.RelatedDocument,
		&rec.RelatedReview,
		&metaJSON,
		&rec.CreatedAt,
	)
	if err != nil {
		return Record{}, err
	}
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &rec.Metadata); err != nil {
			return Record{}, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return rec, nil
}
