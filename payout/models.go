package payout

import "time"

// Status is the lifecycle state of a payout. completed, failed, and rejected
// are terminal: once settled, a payout never changes again.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusRejected   Status = "rejected"
)

var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCompleted, StatusFailed, StatusRejected},
	StatusProcessing: {StatusCompleted, StatusFailed, StatusRejected},
}

// CanTransition reports whether a payout may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s is a known payout status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed, StatusRejected:
		return true
	default:
		return false
	}
}

// Terminal reports whether s admits no further transitions.
func Terminal(s Status) bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusRejected:
		return true
	default:
		return false
	}
}

// BankDetails is where the money goes. Stored verbatim on the payout so the
// record keeps the destination even if the lawyer later changes accounts.
type BankDetails struct {
	AccountHolder string `json:"accountHolder"`
	AccountNumber string `json:"accountNumber"`
	BankName      string `json:"bankName"`
}

// Payout is one settlement request covering a batch of completed reviews.
type Payout struct {
	ID            string
	LawyerID      string
	Amount        int64
	ReviewIDs     []string
	Status        Status
	Method        string
	BankDetails   BankDetails
	TransactionID *string
	AdminNotes    *string
	ProcessedAt   *time.Time
	ProcessedBy   *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Filters narrows a payout listing.
type Filters struct {
	LawyerID string
	Status   Status
	Page     int
	PageSize int
}
