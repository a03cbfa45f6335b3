package dispute

import "time"

// Status represents the lifecycle of a dispute record.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

// Settled reports whether the dispute has been dealt with.
func Settled(s Status) bool {
	return s == StatusResolved || s == StatusClosed
}

// Record mirrors the disputes table.
type Record struct {
	ID         string
	ReviewID   string
	RaisedBy   string
	Reason     string
	Status     Status
	Resolution *string
	ResolvedBy *string
	ResolvedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
