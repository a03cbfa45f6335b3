package audit

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TTL is how long audit entries stay visible. Older rows are ignored on read
// and reaped by the database.
const TTL = 90 * 24 * time.Hour

// Entry is one recorded API mutation.
type Entry struct {
	ID         string
	ActorID    string
	ActorRole  string
	Action     string
	Resource   string
	ResourceID string
	Method     string
	Path       string
	Status     int
	IP         string
	UserAgent  string
	DurationMS int64
	CreatedAt  time.Time
}

// Recorder persists audit entries. Writes are best-effort: a failed audit
// insert is logged and never surfaces to the request that triggered it.
type Recorder struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewRecorder creates a Recorder. logger may be nil.
func NewRecorder(pool *pgxpool.Pool, logger *log.Logger) *Recorder {
	if logger == nil {
		logger = log.Default()
	}
	return &Recorder{pool: pool, logger: logger}
}

// Record writes one entry, swallowing failures.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_logs (actor_id, actor_role, action, resource, resource_id, method, path, status, ip, user_agent, duration_ms)
		VALUES (NULLIF($1, '')::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, e.ActorID, e.ActorRole, e.Action, e.Resource, e.ResourceID, e.Method, e.Path, e.Status, e.IP, e.UserAgent, e.DurationMS)
	if err != nil {
		r.logger.Printf("audit: record failed: %v", err)
	}
}

// Filters narrows an audit listing.
type Filters struct {
	ActorID  string
	Resource string
	Page     int
	PageSize int
}

// ErrUnavailable signals the audit store could not be read.
var ErrUnavailable = errors.New("audit: unavailable")

// List returns entries within the retention window, newest first.
func (r *Recorder) List(ctx context.Context, filters Filters) ([]Entry, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 || filters.PageSize > 200 {
		filters.PageSize = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, COALESCE(actor_id::text, ''), actor_role, action, resource, resource_id, method, path, status, ip, user_agent, duration_ms, created_at
		FROM audit_logs
		WHERE created_at > now() - interval '90 days'
		  AND ($1 = '' OR actor_id = $1::uuid)
		  AND ($2 = '' OR resource = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, filters.ActorID, filters.Resource, filters.PageSize, (filters.Page-1)*filters.PageSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, filters.PageSize)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ActorID, &e.ActorRole, &e.Action, &e.Resource, &e.ResourceID, &e.Method, &e.Path, &e.Status, &e.IP, &e.UserAgent, &e.DurationMS, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit: scan: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
