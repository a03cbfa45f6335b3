package lawyer

import "context"

// DirectoryReader abstracts repository operations for the service.
type DirectoryReader interface {
	GetByID(ctx context.Context, id string) (Profile, error)
	List(ctx context.Context, filters Filters) ([]Profile, int, error)
	Stats(ctx context.Context, lawyerID string) (Stats, error)
}

// Service exposes the public lawyer directory and the per-lawyer dashboard.
type Service struct {
	repo DirectoryReader
}

// NewService builds a Service using the provided repository.
func NewService(repo DirectoryReader) *Service {
	return &Service{repo: repo}
}

// GetByID returns the lawyer profile for the given identifier.
func (s *Service) GetByID(ctx context.Context, id string) (Profile, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns active lawyers matching the filters with the total count.
func (s *Service) List(ctx context.Context, filters Filters) ([]Profile, int, error) {
	return s.repo.List(ctx, filters)
}

// Stats returns the aggregate dashboard numbers for one lawyer.
func (s *Service) Stats(ctx context.Context, lawyerID string) (Stats, error) {
	return s.repo.Stats(ctx, lawyerID)
}
