package dispute

import (
	"context"
	"fmt"

	"draftflow/auth"
)

// Disputes abstracts repository operations for the service.
type Disputes interface {
	List(ctx context.Context, requesterID string, reviewID string) ([]Record, error)
	Create(ctx context.Context, requesterID, reviewID, reason string) (Record, error)
	Resolve(ctx context.Context, adminID, disputeID string, status Status, resolution string) (Record, error)
}

type Service struct {
	repo Disputes
}

func NewService(repo Disputes) *Service {
	return &Service{repo: repo}
}

// List returns the caller's disputes. Admins see all of them.
func (s *Service) List(ctx context.Context, ident auth.Identity, reviewID string) ([]Record, error) {
	requesterID := ident.UserID
	if ident.IsAdmin() {
		requesterID = ""
	}
	return s.repo.List(ctx, requesterID, reviewID)
}

// Create opens a dispute over one of the caller's completed reviews.
func (s *Service) Create(ctx context.Context, ident auth.Identity, reviewID, reason string) (Record, error) {
	if reason == "" {
		return Record{}, fmt.Errorf("dispute: reason is required")
	}
	return s.repo.Create(ctx, ident.UserID, reviewID, reason)
}

// Resolve settles a dispute. Admin only; the outcome must be a settled status.
func (s *Service) Resolve(ctx context.Context, ident auth.Identity, disputeID string, status Status, resolution string) (Record, error) {
	if !ident.IsAdmin() {
		return Record{}, ErrForbidden
	}
	if !Settled(status) {
		return Record{}, fmt.Errorf("%w: outcome must be resolved or closed", ErrBadStatus)
	}
	return s.repo.Resolve(ctx, ident.UserID, disputeID, status, resolution)
}
