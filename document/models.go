package document

import (
	"time"

	"draftflow/auth"
	"draftflow/pricing"
)

// Status is the lifecycle state of a drafted document. Transitions only move
// forward; the one exception is that review activity can land a document back
// on pending, which the transition table treats as a same-state no-op because
// the document is already pending while under review.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusPending  Status = "pending"
	StatusReviewed Status = "reviewed"
	StatusApproved Status = "approved"
)

var forward = map[Status]Status{
	StatusDraft:    StatusPending,
	StatusPending:  StatusReviewed,
	StatusReviewed: StatusApproved,
}

// CanTransition reports whether a document may move from one status to
// another. Same-state transitions are legal no-ops.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	return forward[from] == to
}

// ValidStatus reports whether s is a known document status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusDraft, StatusPending, StatusReviewed, StatusApproved:
		return true
	default:
		return false
	}
}

// Document represents a piece of drafted text awaiting or having undergone
// professional review. It mirrors the documents table.
type Document struct {
	ID               string
	Title            string
	TemplateID       string
	Fields           map[string]any
	OwnerID          string
	Status           Status
	GeneratedContent string
	ReviewedContent  string
	AssignedLawyerID *string
	Tier             pricing.Tier
	Price            int64
	SLADeadline      *time.Time
	Version          int
	CreatedBy        string
	UpdatedBy        *string
	ApprovedBy       *string
	ApprovedAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Filters narrows a document listing.
type Filters struct {
	OwnerID          string
	AssignedLawyerID string
	Status           Status
	TemplateID       string
	Page             int
	PageSize         int
}

// ScopeFilters applies the caller's role-based visibility onto the filters:
// users see what they own, lawyers see what they are assigned, admins see
// everything. All role scoping for documents funnels through here.
func ScopeFilters(ident auth.Identity, f Filters) Filters {
	switch ident.Role {
	case auth.RoleUser:
		f.OwnerID = ident.UserID
		f.AssignedLawyerID = ""
	case auth.RoleLawyer:
		f.AssignedLawyerID = ident.UserID
		f.OwnerID = ""
	case auth.RoleAdmin:
		// Admins keep whatever filters they asked for.
	}
	return f
}

// visibleTo reports whether the caller may read this document.
func (d Document) visibleTo(ident auth.Identity) bool {
	switch ident.Role {
	case auth.RoleAdmin:
		return true
	case auth.RoleLawyer:
		return d.AssignedLawyerID != nil && *d.AssignedLawyerID == ident.UserID
	default:
		return d.OwnerID == ident.UserID
	}
}

// editableBy reports whether the caller may mutate or delete this document.
func (d Document) editableBy(ident auth.Identity) bool {
	return ident.IsAdmin() || d.OwnerID == ident.UserID
}
