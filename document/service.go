package document

import (
	"context"
	"errors"
	"fmt"
	"time"

	"draftflow/auth"
	"draftflow/pricing"
)

var (
	// ErrForbidden signals the caller may not touch this document.
	ErrForbidden = errors.New("document: not authorized")
	// ErrGenerationFailed signals the AI collaborator could not produce content.
	ErrGenerationFailed = errors.New("document: generation failed")
	// ErrInvalidTransition signals an illegal status change.
	ErrInvalidTransition = errors.New("document: invalid status transition")
)

// Generator produces document text from a template and a field map. Failures
// propagate to the caller as validation errors; they are never swallowed.
type Generator interface {
	Generate(ctx context.Context, templateID string, fields map[string]any) (string, error)
}

// Service handles document business logic.
type Service struct {
	repo Repository
	gen  Generator
	now  func() time.Time
}

// NewService creates a document service.
func NewService(repo Repository, gen Generator) *Service {
	return &Service{
		repo: repo,
		gen:  gen,
		now:  time.Now,
	}
}

// WithClock overrides the service clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateParams carries a manually entered document.
type CreateParams struct {
	Title            string
	TemplateID       string
	Fields           map[string]any
	GeneratedContent string
}

// Create stores a manually entered document in draft.
func (s *Service) Create(ctx context.Context, ident auth.Identity, params CreateParams) (Document, error) {
	if params.Title == "" {
		return Document{}, fmt.Errorf("document: title is required")
	}
	if params.TemplateID == "" {
		return Document{}, fmt.Errorf("document: template id is required")
	}

	return s.repo.Create(ctx, CreateRecordParams{
		Title:            params.Title,
		TemplateID:       params.TemplateID,
		Fields:           params.Fields,
		OwnerID:          ident.UserID,
		Status:           StatusDraft,
		GeneratedContent: params.GeneratedContent,
		Tier:             pricing.TierStandard,
	})
}

// GenerateParams carries an AI-generation request.
type GenerateParams struct {
	TemplateID string
	Title      string
	Fields     map[string]any
	Tier       pricing.Tier
}

// Generate produces content via the AI collaborator and stores the result as
// a draft, stamped with an initial tier/price/deadline quote. A generator
// failure surfaces as ErrGenerationFailed.
func (s *Service) Generate(ctx context.Context, ident auth.Identity, params GenerateParams) (Document, error) {
	if params.TemplateID == "" || params.Fields == nil {
		return Document{}, fmt.Errorf("document: template id and fields are required")
	}

	content, err := s.gen.Generate(ctx, params.TemplateID, params.Fields)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	now := s.now()
	tier := pricing.Normalize(params.Tier)
	plan := pricing.Resolve(tier)
	deadline := pricing.Deadline(tier, now)

	title := params.Title
	if title == "" {
		title = fmt.Sprintf("%s - %s", params.TemplateID, now.Format("02/01/2006"))
	}

	return s.repo.Create(ctx, CreateRecordParams{
		Title:            title,
		TemplateID:       params.TemplateID,
		Fields:           params.Fields,
		OwnerID:          ident.UserID,
		Status:           StatusDraft,
		GeneratedContent: content,
		Tier:             tier,
		Price:            plan.Price,
		SLADeadline:      &deadline,
	})
}

// Get returns one document after checking the caller may see it.
func (s *Service) Get(ctx context.Context, ident auth.Identity, id string) (Document, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Document{}, err
	}
	if !doc.visibleTo(ident) {
		return Document{}, ErrForbidden
	}
	return doc, nil
}

// List returns the caller's role-scoped document listing.
func (s *Service) List(ctx context.Context, ident auth.Identity, filters Filters) ([]Document, int, error) {
	return s.repo.List(ctx, ScopeFilters(ident, filters))
}

// UpdateParams carries a document edit. Nil pointers leave fields untouched.
type UpdateParams struct {
	Title            *string
	Fields           map[string]any
	GeneratedContent *string
	Status           *Status
}

// Update edits a document. Only the owner or an admin may edit; status
// changes must follow the forward-only transition table.
func (s *Service) Update(ctx context.Context, ident auth.Identity, id string, params UpdateParams) (Document, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Document{}, err
	}
	if !doc.editableBy(ident) {
		return Document{}, ErrForbidden
	}

	rec := UpdateRecordParams{
		Title:            params.Title,
		Fields:           params.Fields,
		GeneratedContent: params.GeneratedContent,
		UpdatedBy:        ident.UserID,
	}

	if params.Status != nil {
		next := *params.Status
		if !ValidStatus(next) {
			return Document{}, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, next)
		}
		// Admins may override any status; everyone else follows the table.
		if !ident.IsAdmin() && !CanTransition(doc.Status, next) {
			return Document{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, doc.Status, next)
		}
		rec.Status = &next
		if next == StatusApproved {
			approver := ident.UserID
			rec.ApprovedBy = &approver
		}
	}

	return s.repo.Update(ctx, id, rec)
}

// Delete removes a document. Only the owner or an admin may delete.
func (s *Service) Delete(ctx context.Context, ident auth.Identity, id string) error {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !doc.editableBy(ident) {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}
