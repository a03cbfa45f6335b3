package lawyer

import "time"

// Profile captures the subset of a lawyer's account exposed via the public
// directory.
type Profile struct {
	ID               string
	Name             string
	Email            string
	Specializations  []string
	LicenseNumber    *string
	Rating           float64
	CompletedReviews int
	IsActive         bool
	CreatedAt        time.Time
}

// Stats aggregates a lawyer's review history for their dashboard.
type Stats struct {
	TotalReviews     int
	CompletedReviews int
	PendingReviews   int
	TotalEarnings    int64
	Rating           float64
}

// Filters narrows the public directory listing.
type Filters struct {
	Specialization string
	MinRating      float64
	Page           int
	PageSize       int
}
