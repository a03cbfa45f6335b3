package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"draftflow/auth"
	"draftflow/document"
	"draftflow/lawyer"
	"draftflow/notification"
	"draftflow/pricing"
)

var (
	// ErrForbidden signals the caller may not touch this review.
	ErrForbidden = errors.New("review: not authorized")
	// ErrInvalidTransition signals an illegal status change.
	ErrInvalidTransition = errors.New("review: invalid status transition")
	// ErrDocumentNotReviewable signals the document cannot enter review from its current state.
	ErrDocumentNotReviewable = errors.New("review: document not reviewable")
)

// TxBeginner opens database transactions.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// DocumentStore is the slice of the document repository the review workflows need.
type DocumentStore interface {
	GetByID(ctx context.Context, id string) (document.Document, error)
	BindReview(ctx context.Context, tx pgx.Tx, params document.BindReviewParams) error
	ApplyReviewOutcome(ctx context.Context, tx pgx.Tx, id string, status document.Status, reviewedContent *string) error
}

// LawyerDirectory resolves reviewer accounts.
type LawyerDirectory interface {
	FirstActive(ctx context.Context) (lawyer.Profile, error)
	GetByID(ctx context.Context, id string) (lawyer.Profile, error)
}

// UserDirectory resolves requester accounts for notification copy.
type UserDirectory interface {
	GetUserByID(ctx context.Context, id string) (auth.User, error)
}

// Notifier receives review lifecycle events. Implementations are best-effort.
type Notifier interface {
	ReviewRequest(ctx context.Context, ev notification.ReviewRequested)
	ReviewCompleted(ctx context.Context, ev notification.ReviewFinished)
}

// Service handles the review assignment and completion workflows.
type Service struct {
	db        TxBeginner
	reviews   Store
	documents DocumentStore
	lawyers   LawyerDirectory
	users     UserDirectory
	notifier  Notifier

	idGenerator    func() string
	now            func() time.Time
	countCompleted func(ctx context.Context, tx pgx.Tx, lawyerID string) error
}

// NewService creates a review service.
func NewService(db TxBeginner, reviews Store, documents DocumentStore, lawyers LawyerDirectory, users UserDirectory) *Service {
	return &Service{
		db:             db,
		reviews:        reviews,
		documents:      documents,
		lawyers:        lawyers,
		users:          users,
		idGenerator:    uuid.NewString,
		now:            time.Now,
		countCompleted: lawyer.IncrementCompleted,
	}
}

// WithNotifier attaches a notifier. nil disables notifications.
func (s *Service) WithNotifier(n Notifier) *Service {
	s.notifier = n
	return s
}

// WithIDGenerator overrides review id generation, for tests.
func (s *Service) WithIDGenerator(gen func() string) *Service {
	s.idGenerator = gen
	return s
}

// WithClock overrides the service clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithCompletionCounter overrides the lifetime counter bump, for tests.
func (s *Service) WithCompletionCounter(fn func(ctx context.Context, tx pgx.Tx, lawyerID string) error) *Service {
	s.countCompleted = fn
	return s
}

// CreateRequest asks for a professional review of a document.
type CreateRequest struct {
	DocumentID string       `json:"documentId"`
	Tier       pricing.Tier `json:"tier"`
}

// Create runs the assignment workflow: resolve the document, pick a reviewer,
// price the engagement, then create the review and stamp the document in one
// transaction. The lawyer is notified after the transaction commits.
func (s *Service) Create(ctx context.Context, ident auth.Identity, req CreateRequest) (Review, error) {
	doc, err := s.documents.GetByID(ctx, req.DocumentID)
	if err != nil {
		return Review{}, err
	}
	if doc.OwnerID != ident.UserID && !ident.IsAdmin() {
		return Review{}, ErrForbidden
	}
	if !document.CanTransition(doc.Status, document.StatusPending) {
		return Review{}, fmt.Errorf("%w: document is %s", ErrDocumentNotReviewable, doc.Status)
	}

	reviewer, err := s.lawyers.FirstActive(ctx)
	if err != nil {
		return Review{}, err
	}

	now := s.now()
	tier := pricing.Normalize(req.Tier)
	plan := pricing.Resolve(tier)
	deadline := pricing.Deadline(tier, now)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Review{}, fmt.Errorf("review: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	rev, err := s.reviews.Create(ctx, tx, CreateParams{
		ID:          s.idGenerator(),
		DocumentID:  doc.ID,
		RequesterID: doc.OwnerID,
		LawyerID:    reviewer.ID,
		Tier:        tier,
		Price:       plan.Price,
		SLADeadline: deadline,
	})
	if err != nil {
		return Review{}, err
	}

	if err := s.documents.BindReview(ctx, tx, document.BindReviewParams{
		DocumentID:  doc.ID,
		LawyerID:    reviewer.ID,
		Tier:        tier,
		Price:       plan.Price,
		SLADeadline: deadline,
	}); err != nil {
		return Review{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Review{}, fmt.Errorf("review: commit tx: %w", err)
	}

	if s.notifier != nil {
		requesterName := ""
		if u, err := s.users.GetUserByID(ctx, doc.OwnerID); err == nil {
			requesterName = u.Name
		}
		s.notifier.ReviewRequest(ctx, notification.ReviewRequested{
			LawyerID:      reviewer.ID,
			LawyerEmail:   reviewer.Email,
			LawyerName:    reviewer.Name,
			RequesterName: requesterName,
			DocumentID:    doc.ID,
			TemplateID:    doc.TemplateID,
			ReviewID:      rev.ID,
			Tier:          string(tier),
			Deadline:      deadline,
		})
	}

	return rev, nil
}

// StatusRequest carries a review status change from the assigned lawyer.
type StatusRequest struct {
	Status          Status  `json:"status"`
	Comments        *string `json:"comments"`
	ReviewedContent *string `json:"reviewedContent"`
}

// UpdateStatus runs the completion workflow: validate the transition, update
// the review, and cascade onto the document in one transaction. Completing a
// review marks the document reviewed, stores the reviewed text, and bumps the
// lawyer's lifetime counter; any other status lands the document back on
// pending. The requester is notified only on completion, after commit.
func (s *Service) UpdateStatus(ctx context.Context, ident auth.Identity, id string, req StatusRequest) (Review, error) {
	rev, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return Review{}, err
	}
	if rev.LawyerID != ident.UserID && !ident.IsAdmin() {
		return Review{}, ErrForbidden
	}
	if !ValidStatus(req.Status) {
		return Review{}, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, req.Status)
	}

	// Re-sending the current status is a no-op for non-terminal reviews;
	// terminal reviews accept nothing.
	sameState := req.Status == rev.Status && !Terminal(rev.Status)
	if !sameState && !CanTransition(rev.Status, req.Status) {
		return Review{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, rev.Status, req.Status)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Review{}, fmt.Errorf("review: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	updated, err := s.reviews.UpdateStatus(ctx, tx, id, StatusParams{
		Status:          req.Status,
		Comments:        req.Comments,
		ReviewedContent: req.ReviewedContent,
		Now:             s.now(),
	})
	if err != nil {
		return Review{}, err
	}

	if req.Status == StatusCompleted {
		if err := s.documents.ApplyReviewOutcome(ctx, tx, rev.DocumentID, document.StatusReviewed, req.ReviewedContent); err != nil {
			return Review{}, err
		}
		if err := s.countCompleted(ctx, tx, rev.LawyerID); err != nil {
			return Review{}, err
		}
	} else {
		if err := s.documents.ApplyReviewOutcome(ctx, tx, rev.DocumentID, document.StatusPending, nil); err != nil {
			return Review{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Review{}, fmt.Errorf("review: commit tx: %w", err)
	}

	if req.Status == StatusCompleted && s.notifier != nil {
		doc, docErr := s.documents.GetByID(ctx, rev.DocumentID)
		owner, ownerErr := s.users.GetUserByID(ctx, rev.RequesterID)
		if docErr == nil && ownerErr == nil {
			lawyerName := ""
			if p, err := s.lawyers.GetByID(ctx, rev.LawyerID); err == nil {
				lawyerName = p.Name
			}
			s.notifier.ReviewCompleted(ctx, notification.ReviewFinished{
				OwnerID:    owner.ID,
				OwnerEmail: owner.Email,
				OwnerName:  owner.Name,
				LawyerName: lawyerName,
				DocumentID: doc.ID,
				TemplateID: doc.TemplateID,
				ReviewID:   updated.ID,
			})
		}
	}

	return updated, nil
}

// Get returns one review after checking the caller may see it.
func (s *Service) Get(ctx context.Context, ident auth.Identity, id string) (Review, error) {
	rev, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return Review{}, err
	}
	if rev.RequesterID != ident.UserID && rev.LawyerID != ident.UserID && !ident.IsAdmin() {
		return Review{}, ErrForbidden
	}
	return rev, nil
}

// List returns the caller's role-scoped review listing.
func (s *Service) List(ctx context.Context, ident auth.Identity, filters Filters) ([]Review, int, error) {
	switch ident.Role {
	case auth.RoleUser:
		filters.RequesterID = ident.UserID
		filters.LawyerID = ""
	case auth.RoleLawyer:
		filters.LawyerID = ident.UserID
		filters.RequesterID = ""
	case auth.RoleAdmin:
		// Admins keep whatever filters they asked for.
	}
	return s.reviews.List(ctx, filters)
}
