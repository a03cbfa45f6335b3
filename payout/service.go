package payout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"draftflow/auth"
	"draftflow/lawyer"
	"draftflow/notification"
)

var (
	// ErrForbidden signals the caller may not touch this payout.
	ErrForbidden = errors.New("payout: not authorized")
	// ErrBatchMismatch signals at least one requested review is not claimable.
	ErrBatchMismatch = errors.New("payout: reviews not eligible for payout")
	// ErrAlreadySettled signals the payout reached a terminal status.
	ErrAlreadySettled = errors.New("payout: already settled")
	// ErrInvalidStatus signals an unknown or unreachable target status.
	ErrInvalidStatus = errors.New("payout: invalid status")
)

// TxBeginner opens database transactions.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// LawyerDirectory resolves lawyer accounts for notification copy.
type LawyerDirectory interface {
	GetByID(ctx context.Context, id string) (lawyer.Profile, error)
}

// Notifier receives payout settlement events. Implementations are best-effort.
type Notifier interface {
	PayoutCompleted(ctx context.Context, ev notification.PayoutSettled)
}

// Service handles payout creation and admin settlement.
type Service struct {
	db      TxBeginner
	payouts Store
	lawyers LawyerDirectory

	notifier    Notifier
	idGenerator func() string
	now         func() time.Time
}

// NewService creates a payout service.
func NewService(db TxBeginner, payouts Store, lawyers LawyerDirectory) *Service {
	return &Service{
		db:          db,
		payouts:     payouts,
		lawyers:     lawyers,
		idGenerator: uuid.NewString,
		now:         time.Now,
	}
}

// WithNotifier attaches a notifier. nil disables notifications.
func (s *Service) WithNotifier(n Notifier) *Service {
	s.notifier = n
	return s
}

// WithIDGenerator overrides payout id generation, for tests.
func (s *Service) WithIDGenerator(gen func() string) *Service {
	s.idGenerator = gen
	return s
}

// WithClock overrides the service clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateRequest asks for a settlement covering a batch of completed reviews.
type CreateRequest struct {
	ReviewIDs   []string    `json:"reviewIds"`
	Method      string      `json:"method"`
	BankDetails BankDetails `json:"bankDetails"`
}

// Create runs the settlement request workflow: lock the claimed reviews,
// verify every single one is completed, owned by the caller, and unpaid, then
// create the payout and flag the reviews paid in one transaction. One
// ineligible review fails the whole batch and nothing is written. Reviews are
// flagged paid at request time, which is what keeps a second request from
// claiming the same work while the payout is still pending.
func (s *Service) Create(ctx context.Context, ident auth.Identity, req CreateRequest) (Payout, error) {
	if ident.Role != auth.RoleLawyer {
		return Payout{}, ErrForbidden
	}
	if len(req.ReviewIDs) == 0 {
		return Payout{}, fmt.Errorf("%w: no reviews requested", ErrBatchMismatch)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Payout{}, fmt.Errorf("payout: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	eligible, err := s.payouts.LockEligible(ctx, tx, ident.UserID, req.ReviewIDs)
	if err != nil {
		return Payout{}, err
	}
	if len(eligible) != len(req.ReviewIDs) {
		return Payout{}, fmt.Errorf("%w: %d of %d reviews claimable", ErrBatchMismatch, len(eligible), len(req.ReviewIDs))
	}

	var amount int64
	ids := make([]string, 0, len(eligible))
	for _, er := range eligible {
		amount += er.Price
		ids = append(ids, er.ID)
	}

	p, err := s.payouts.Create(ctx, tx, CreateParams{
		ID:          s.idGenerator(),
		LawyerID:    ident.UserID,
		Amount:      amount,
		ReviewIDs:   ids,
		Method:      req.Method,
		BankDetails: req.BankDetails,
	})
	if err != nil {
		return Payout{}, err
	}

	if err := s.payouts.MarkReviewsPaid(ctx, tx, ids); err != nil {
		return Payout{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Payout{}, fmt.Errorf("payout: commit tx: %w", err)
	}
	return p, nil
}

// ProcessRequest carries an admin settlement decision.
type ProcessRequest struct {
	Status        Status  `json:"status"`
	TransactionID *string `json:"transactionId"`
	AdminNotes    *string `json:"adminNotes"`
}

// Process records the admin decision on a payout. Terminal payouts are
// immutable. The lawyer is notified only when the payout completes.
func (s *Service) Process(ctx context.Context, ident auth.Identity, id string, req ProcessRequest) (Payout, error) {
	if !ident.IsAdmin() {
		return Payout{}, ErrForbidden
	}

	p, err := s.payouts.GetByID(ctx, id)
	if err != nil {
		return Payout{}, err
	}
	if Terminal(p.Status) {
		return Payout{}, fmt.Errorf("%w: payout is %s", ErrAlreadySettled, p.Status)
	}
	if !ValidStatus(req.Status) {
		return Payout{}, fmt.Errorf("%w: unknown status %q", ErrInvalidStatus, req.Status)
	}
	if !CanTransition(p.Status, req.Status) {
		return Payout{}, fmt.Errorf("%w: %s -> %s", ErrInvalidStatus, p.Status, req.Status)
	}

	processed, err := s.payouts.Process(ctx, id, ProcessParams{
		Status:        req.Status,
		TransactionID: req.TransactionID,
		AdminNotes:    req.AdminNotes,
		ProcessedBy:   ident.UserID,
		ProcessedAt:   s.now(),
	})
	if err != nil {
		return Payout{}, err
	}

	if processed.Status == StatusCompleted && s.notifier != nil {
		if prof, err := s.lawyers.GetByID(ctx, processed.LawyerID); err == nil {
			s.notifier.PayoutCompleted(ctx, notification.PayoutSettled{
				LawyerID:    prof.ID,
				LawyerEmail: prof.Email,
				LawyerName:  prof.Name,
				PayoutID:    processed.ID,
				Amount:      processed.Amount,
			})
		}
	}

	return processed, nil
}

// Get returns one payout after checking the caller may see it.
func (s *Service) Get(ctx context.Context, ident auth.Identity, id string) (Payout, error) {
	p, err := s.payouts.GetByID(ctx, id)
	if err != nil {
		return Payout{}, err
	}
	if p.LawyerID != ident.UserID && !ident.IsAdmin() {
		return Payout{}, ErrForbidden
	}
	return p, nil
}

// List returns the caller's role-scoped payout listing. Regular users have
// no payouts to see.
func (s *Service) List(ctx context.Context, ident auth.Identity, filters Filters) ([]Payout, int, error) {
	switch ident.Role {
	case auth.RoleLawyer:
		filters.LawyerID = ident.UserID
	case auth.RoleAdmin:
		// Admins keep whatever filters they asked for.
	default:
		return nil, 0, ErrForbidden
	}
	return s.payouts.List(ctx, filters)
}
