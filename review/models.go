package review

import (
	"time"

	"draftflow/pricing"
)

// Status is the lifecycle state of a review. pending and in_progress are
// active; completed and rejected are terminal.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusRejected   Status = "rejected"
)

var transitions = map[Status][]Status{
	StatusPending:    {StatusInProgress, StatusCompleted, StatusRejected},
	StatusInProgress: {StatusCompleted, StatusRejected},
}

// CanTransition reports whether a review may move from one status to another.
// Terminal states have no outgoing transitions.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s is a known review status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusRejected:
		return true
	default:
		return false
	}
}

// Terminal reports whether s admits no further transitions.
func Terminal(s Status) bool {
	return s == StatusCompleted || s == StatusRejected
}

// Review is one paid engagement of a lawyer over a document.
type Review struct {
	ID              string
	DocumentID      string
	RequesterID     string
	LawyerID        string
	Status          Status
	Tier            pricing.Tier
	Price           int64
	Comments        string
	ReviewedContent *string
	StartedAt       *time.Time
	CompletedAt     *time.Time
	SLADeadline     time.Time
	IsPaid          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Breached reports whether the review missed its turnaround deadline: it is
// either still unfinished past the deadline, or was finished after it. Breach
// is derived, never stored.
func (r Review) Breached(now time.Time) bool {
	if r.CompletedAt != nil {
		return r.CompletedAt.After(r.SLADeadline)
	}
	return now.After(r.SLADeadline)
}

// Filters narrows a review listing.
type Filters struct {
	RequesterID string
	LawyerID    string
	Status      Status
	Page        int
	PageSize    int
}
