package httpapi

import (
	"time"

	"draftflow/audit"
	"draftflow/auth"
	"draftflow/dispute"
	"draftflow/document"
	"draftflow/lawyer"
	"draftflow/notification"
	"draftflow/payout"
	"draftflow/review"
)

type userResponse struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	Role             auth.Role `json:"role"`
	KYCStatus        string    `json:"kycStatus"`
	Specializations  []string  `json:"specializations,omitempty"`
	LicenseNumber    *string   `json:"licenseNumber,omitempty"`
	Rating           float64   `json:"rating"`
	CompletedReviews int       `json:"completedReviews"`
	IsActive         bool      `json:"isActive"`
	IsBlocked        bool      `json:"isBlocked"`
	CreatedAt        time.Time `json:"createdAt"`
}

func toUserResponse(u auth.User) userResponse {
	return userResponse{
		ID:               u.ID,
		Email:            u.Email,
		Name:             u.Name,
		Role:             u.Role,
		KYCStatus:        string(u.KYCStatus),
		Specializations:  u.Specializations,
		LicenseNumber:    u.LicenseNumber,
		Rating:           u.Rating,
		CompletedReviews: u.CompletedReviews,
		IsActive:         u.IsActive,
		IsBlocked:        u.IsBlocked,
		CreatedAt:        u.CreatedAt,
	}
}

type documentResponse struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	TemplateID       string          `json:"templateId"`
	Fields           map[string]any  `json:"fields"`
	OwnerID          string          `json:"ownerId"`
	Status           document.Status `json:"status"`
	GeneratedContent string          `json:"generatedContent"`
	ReviewedContent  string          `json:"reviewedContent,omitempty"`
	AssignedLawyerID *string         `json:"assignedLawyerId,omitempty"`
	Tier             string          `json:"tier"`
	Price            int64           `json:"price"`
	SLADeadline      *time.Time      `json:"slaDeadline,omitempty"`
	Version          int             `json:"version"`
	ApprovedBy       *string         `json:"approvedBy,omitempty"`
	ApprovedAt       *time.Time      `json:"approvedAt,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

func toDocumentResponse(d document.Document) documentResponse {
	return documentResponse{
		ID:               d.ID,
		Title:            d.Title,
		TemplateID:       d.TemplateID,
		Fields:           d.Fields,
		OwnerID:          d.OwnerID,
		Status:           d.Status,
		GeneratedContent: d.GeneratedContent,
		ReviewedContent:  d.ReviewedContent,
		AssignedLawyerID: d.AssignedLawyerID,
		Tier:             string(d.Tier),
		Price:            d.Price,
		SLADeadline:      d.SLADeadline,
		Version:          d.Version,
		ApprovedBy:       d.ApprovedBy,
		ApprovedAt:       d.ApprovedAt,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

type reviewResponse struct {
	ID              string        `json:"id"`
	DocumentID      string        `json:"documentId"`
	RequesterID     string        `json:"requesterId"`
	LawyerID        string        `json:"lawyerId"`
	Status          review.Status `json:"status"`
	Tier            string        `json:"tier"`
	Price           int64         `json:"price"`
	Comments        string        `json:"comments,omitempty"`
	ReviewedContent *string       `json:"reviewedContent,omitempty"`
	StartedAt       *time.Time    `json:"startedAt,omitempty"`
	CompletedAt     *time.Time    `json:"completedAt,omitempty"`
	SLADeadline     time.Time     `json:"slaDeadline"`
	Breached        bool          `json:"slaBreached"`
	IsPaid          bool          `json:"isPaid"`
	CreatedAt       time.Time     `json:"createdAt"`
}

func toReviewResponse(r review.Review, now time.Time) reviewResponse {
	return reviewResponse{
		ID:              r.ID,
		DocumentID:      r.DocumentID,
		RequesterID:     r.RequesterID,
		LawyerID:        r.LawyerID,
		Status:          r.Status,
		Tier:            string(r.Tier),
		Price:           r.Price,
		Comments:        r.Comments,
		ReviewedContent: r.ReviewedContent,
		StartedAt:       r.StartedAt,
		CompletedAt:     r.CompletedAt,
		SLADeadline:     r.SLADeadline,
		Breached:        r.Breached(now),
		IsPaid:          r.IsPaid,
		CreatedAt:       r.CreatedAt,
	}
}

type payoutResponse struct {
	ID            string             `json:"id"`
	LawyerID      string             `json:"lawyerId"`
	Amount        int64              `json:"amount"`
	ReviewIDs     []string           `json:"reviewIds"`
	Status        payout.Status      `json:"status"`
	Method        string             `json:"method"`
	BankDetails   payout.BankDetails `json:"bankDetails"`
	TransactionID *string            `json:"transactionId,omitempty"`
	AdminNotes    *string            `json:"adminNotes,omitempty"`
	ProcessedAt   *time.Time         `json:"processedAt,omitempty"`
	ProcessedBy   *string            `json:"processedBy,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
}

func toPayoutResponse(p payout.Payout) payoutResponse {
	return payoutResponse{
		ID:            p.ID,
		LawyerID:      p.LawyerID,
		Amount:        p.Amount,
		ReviewIDs:     p.ReviewIDs,
		Status:        p.Status,
		Method:        p.Method,
		BankDetails:   p.BankDetails,
		TransactionID: p.TransactionID,
		AdminNotes:    p.AdminNotes,
		ProcessedAt:   p.ProcessedAt,
		ProcessedBy:   p.ProcessedBy,
		CreatedAt:     p.CreatedAt,
	}
}

type lawyerResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Specializations  []string  `json:"specializations"`
	Rating           float64   `json:"rating"`
	CompletedReviews int       `json:"completedReviews"`
	CreatedAt        time.Time `json:"createdAt"`
}

func toLawyerResponse(p lawyer.Profile) lawyerResponse {
	return lawyerResponse{
		ID:               p.ID,
		Name:             p.Name,
		Specializations:  p.Specializations,
		Rating:           p.Rating,
		CompletedReviews: p.CompletedReviews,
		CreatedAt:        p.CreatedAt,
	}
}

type notificationResponse struct {
	ID              string            `json:"id"`
	Type            notification.Type `json:"type"`
	Title           string            `json:"title"`
	Message         string            `json:"message"`
	IsRead          bool              `json:"isRead"`
	RelatedDocument *string           `json:"relatedDocument,omitempty"`
	RelatedReview   *string           `json:"relatedReview,omitempty"`
	Metadata        map[string]any    `json:"metadata,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
}

func toNotificationResponse(r notification.Record) notificationResponse {
	return notificationResponse{
		ID:              r.ID,
		Type:            r.Type,
		Title:           r.Title,
		Message:         r.Message,
		IsRead:          r.IsRead,
		RelatedDocument: r.RelatedDocument,
		RelatedReview:   r.RelatedReview,
		Metadata:        r.Metadata,
		CreatedAt:       r.CreatedAt,
	}
}

type disputeResponse struct {
	ID         string         `json:"id"`
	ReviewID   string         `json:"reviewId"`
	RaisedBy   string         `json:"raisedBy"`
	Reason     string         `json:"reason"`
	Status     dispute.Status `json:"status"`
	Resolution *string        `json:"resolution,omitempty"`
	ResolvedBy *string        `json:"resolvedBy,omitempty"`
	ResolvedAt *time.Time     `json:"resolvedAt,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

func toDisputeResponse(r dispute.Record) disputeResponse {
	return disputeResponse{
		ID:         r.ID,
		ReviewID:   r.ReviewID,
		RaisedBy:   r.RaisedBy,
		Reason:     r.Reason,
		Status:     r.Status,
		Resolution: r.Resolution,
		ResolvedBy: r.ResolvedBy,
		ResolvedAt: r.ResolvedAt,
		CreatedAt:  r.CreatedAt,
	}
}

type auditResponse struct {
	ID         string    `json:"id"`
	ActorID    string    `json:"actorId,omitempty"`
	ActorRole  string    `json:"actorRole,omitempty"`
	Action     string    `json:"action"`
	Resource   string    `json:"resource"`
	ResourceID string    `json:"resourceId,omitempty"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	Status     int       `json:"status"`
	IP         string    `json:"ip"`
	UserAgent  string    `json:"userAgent"`
	DurationMS int64     `json:"durationMs"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toAuditResponse(e audit.Entry) auditResponse {
	return auditResponse{
		ID:         e.ID,
		ActorID:    e.ActorID,
		ActorRole:  e.ActorRole,
		Action:     e.Action,
		Resource:   e.Resource,
		ResourceID: e.ResourceID,
		Method:     e.Method,
		Path:       e.Path,
		Status:     e.Status,
		IP:         e.IP,
		UserAgent:  e.UserAgent,
		DurationMS: e.DurationMS,
		CreatedAt:  e.CreatedAt,
	}
}

type pageResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

func toPage[D any, T any](items []D, total int, conv func(D) T) pageResponse[T] {
	out := make([]T, 0, len(items))
	for _, item := range items {
		out = append(out, conv(item))
	}
	return pageResponse[T]{Items: out, Total: total}
}
