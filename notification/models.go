package notification

import "time"

// Type tags an in-app notification with the event that produced it.
type Type string

const (
	TypeReviewRequest   Type = "review_request"
	TypeReviewCompleted Type = "review_completed"
	TypePayment         Type = "payment"
	TypeMessage         Type = "message"
	TypeAlert           Type = "alert"
	TypeApproval        Type = "approval"
)

// Record is one in-app notification directed at one user. Records expire 30
// days after creation; expiry is honored at query time.
type Record struct {
	ID              string
	UserID          string
	Type            Type
	Title           string
	Message         string
	IsRead          bool
	RelatedDocument *string
	RelatedReview   *string
	Metadata        map[string]any
	CreatedAt       time.Time
}

// TTL is how long a record stays visible after creation.
const TTL = 30 * 24 * time.Hour
