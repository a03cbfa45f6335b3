package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"draftflow/pricing"
)

// ErrNotFound signals the document does not exist.
var ErrNotFound = errors.New("document: not found")

// Repository handles data access for documents.
type Repository interface {
	Create(ctx context.Context, params CreateRecordParams) (Document, error)
	GetByID(ctx context.Context, id string) (Document, error)
	List(ctx context.Context, filters Filters) ([]Document, int, error)
	Update(ctx context.Context, id string, params UpdateRecordParams) (Document, error)
	Delete(ctx context.Context, id string) error
	BindReview(ctx context.Context, tx pgx.Tx, params BindReviewParams) error
	ApplyReviewOutcome(ctx context.Context, tx pgx.Tx, id string, status Status, reviewedContent *string) error
}

// CreateRecordParams contains write parameters for new documents.
type CreateRecordParams struct {
	Title            string
	TemplateID       string
	Fields           map[string]any
	OwnerID          string
	Status           Status
	GeneratedContent string
	Tier             pricing.Tier
	Price            int64
	SLADeadline      *time.Time
}

// UpdateRecordParams carries the mutable fields of a document. Nil pointers
// leave the column untouched. Content changes bump the version counter.
type UpdateRecordParams struct {
	Title            *string
	Fields           map[string]any
	GeneratedContent *string
	Status           *Status
	ApprovedBy       *string
	UpdatedBy        string
}

// BindReviewParams stamps a document with its review assignment.
type BindReviewParams struct {
	DocumentID  string
	LawyerID    string
	Tier        pricing.Tier
	Price       int64
	SLADeadline time.Time
}

const documentColumns = `id, title, template_id, fields, owner_id, status, generated_content, reviewed_content, assigned_lawyer_id, pricing_tier, price, sla_deadline, version, created_by, updated_by, approved_by, approved_at, created_at, updated_at`

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed document repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Create inserts a new document.
func (r *PGRepository) Create(ctx context.Context, params CreateRecordParams) (Document, error) {
	fieldsJSON, err := marshalFields(params.Fields)
	if err != nil {
		return Document{}, err
	}

	insertSQL := fmt.Sprintf(`
		INSERT INTO documents (title, template_id, fields, owner_id, status, generated_content, pricing_tier, price, sla_deadline, created_by)
		VALUES ($1, $2, $3::jsonb, $4, $5, $6, $7, $8, $9, $4)
		RETURNING %s
	`, documentColumns)

	doc, err := scanDocument(r.pool.QueryRow(ctx, insertSQL,
		params.Title,
		params.TemplateID,
		fieldsJSON,
		params.OwnerID,
		params.Status,
		params.GeneratedContent,
		params.Tier,
		params.Price,
		params.SLADeadline,
	))
	if err != nil {
		return Document{}, fmt.Errorf("document: create: %w", err)
	}
	return doc, nil
}

// GetByID retrieves one document.
func (r *PGRepository) GetByID(ctx context.Context, id string) (Document, error) {
	selectSQL := fmt.Sprintf(`SELECT %s FROM documents WHERE id = $1`, documentColumns)

	doc, err := scanDocument(r.pool.QueryRow(ctx, selectSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("document: get by id: %w", err)
	}
	return doc, nil
}

// List returns documents matching the filters, newest first, with the total count.
func (r *PGRepository) List(ctx context.Context, filters Filters) ([]Document, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 || filters.PageSize > 100 {
		filters.PageSize = 10
	}

	const where = `
		WHERE ($1 = '' OR owner_id = $1::uuid)
		  AND ($2 = '' OR assigned_lawyer_id = $2::uuid)
		  AND ($3 = '' OR status = $3::document_status)
		  AND ($4 = '' OR template_id = $4)
	`

	query := fmt.Sprintf(`
		SELECT %s
		FROM documents
		%s
		ORDER BY created_at DESC
		LIMIT $5 OFFSET $6
	`, documentColumns, where)

	rows, err := r.pool.Query(ctx, query,
		filters.OwnerID,
		filters.AssignedLawyerID,
		string(filters.Status),
		filters.TemplateID,
		filters.PageSize,
		(filters.Page-1)*filters.PageSize,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("document: list: %w", err)
	}
	defer rows.Close()

	docs := make([]Document, 0, filters.PageSize)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("document: scan: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("document: iterate: %w", err)
	}

	var total int
	countSQL := `SELECT COUNT(*) FROM documents` + where
	if err := r.pool.QueryRow(ctx, countSQL,
		filters.OwnerID,
		filters.AssignedLawyerID,
		string(filters.Status),
		filters.TemplateID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("document: count: %w", err)
	}

	return docs, total, nil
}

// Update applies the changed fields. Content edits increment the version.
func (r *PGRepository) Update(ctx context.Context, id string, params UpdateRecordParams) (Document, error) {
	var fieldsJSON *string
	if params.Fields != nil {
		s, err := marshalFields(params.Fields)
		if err != nil {
			return Document{}, err
		}
		fieldsJSON = &s
	}

	updateSQL := fmt.Sprintf(`
		UPDATE documents
		SET title = COALESCE($2, title),
		    fields = COALESCE($3::jsonb, fields),
		    generated_content = COALESCE($4, generated_content),
		    status = COALESCE($5::document_status, status),
		    approved_by = COALESCE($6::uuid, approved_by),
		    approved_at = CASE WHEN $5 = 'approved' THEN now() ELSE approved_at END,
		    version = version + CASE WHEN $3 IS NOT NULL OR $4 IS NOT NULL THEN 1 ELSE 0 END,
		    updated_by = $7,
		    updated_at = now()
		WHERE id = $1
		RETURNING %s
	`, documentColumns)

	var statusStr *string
	if params.Status != nil {
		s := string(*params.Status)
		statusStr = &s
	}

	doc, err := scanDocument(r.pool.QueryRow(ctx, updateSQL,
		id,
		params.Title,
		fieldsJSON,
		params.GeneratedContent,
		statusStr,
		params.ApprovedBy,
		params.UpdatedBy,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("document: update: %w", err)
	}
	return doc, nil
}

// Delete removes a document permanently.
func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("document: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// BindReview stamps the document with its assignment inside the caller's
// transaction: reviewer, tier, price, deadline, and the pending status.
func (r *PGRepository) BindReview(ctx context.Context, tx pgx.Tx, params BindReviewParams) error {
	tag, err := tx.Exec(ctx, `
		UPDATE documents
		SET assigned_lawyer_id = $2,
		    status = 'pending',
		    pricing_tier = $3,
		    price = $4,
		    sla_deadline = $5,
		    updated_at = now()
		WHERE id = $1
	`, params.DocumentID, params.LawyerID, params.Tier, params.Price, params.SLADeadline)
	if err != nil {
		return fmt.Errorf("document: bind review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyReviewOutcome cascades a review status change onto the document inside
// the caller's transaction.
func (r *PGRepository) ApplyReviewOutcome(ctx context.Context, tx pgx.Tx, id string, status Status, reviewedContent *string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE documents
		SET status = $2,
		    reviewed_content = COALESCE($3, reviewed_content),
		    updated_at = now()
		WHERE id = $1
	`, id, status, reviewedContent)
	if err != nil {
		return fmt.Errorf("document: apply review outcome: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func marshalFields(fields map[string]any) (string, error) {
	if fields == nil {
		fields = map[string]any{}
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("document: marshal fields: %w", err)
	}
	return string(b), nil
}

func scanDocument(row pgx.Row) (Document, error) {
	var (
		doc        Document
		fieldsJSON []byte
	)
	err := row.Scan(
		&doc.ID,
		&doc.Title,
		&doc.TemplateID,
		&fieldsJSON,
		&doc.OwnerID,
		&doc.Status,
		&doc.GeneratedContent,
		&doc.ReviewedContent,
		&doc.AssignedLawyerID,
		&doc.Tier,
		&doc.Price,
		&doc.SLADeadline,
		&doc.Version,
		&doc.CreatedBy,
		&doc.UpdatedBy,
		&doc.ApprovedBy,
		&doc.ApprovedAt,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return Document{}, err
	}
	if len(fieldsJSON) > 0 {
		if err := json.Unmarshal(fieldsJSON, &doc.Fields); err != nil {
			return Document{}, fmt.Errorf("unmarshal fields: %w", err)
		}
	}
	return doc, nil
}
