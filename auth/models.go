package auth

import "time"

type Role string

const (
	RoleUser   Role = "user"
	RoleLawyer Role = "lawyer"
	RoleAdmin  Role = "admin"
)

type KYCStatus string

const (
	KYCUnverified KYCStatus = "unverified"
	KYCPending    KYCStatus = "pending"
	KYCVerified   KYCStatus = "verified"
	KYCRejected   KYCStatus = "rejected"
)

// User is the domain representation of an account in any of the three roles.
// It mirrors the users table and carries no JSON annotations so it can be
// reused by different presentation layers. Lawyer-specific fields are zero
// valued for plain users.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	KYCStatus    KYCStatus

	// Lawyer profile
	Specializations  []string
	LicenseNumber    *string
	Rating           float64
	CompletedReviews int

	IsActive  bool
	IsBlocked bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RegisterRequest contains account registration data supplied by callers.
type RegisterRequest struct {
	Email           string   `json:"email"`
	Password        string   `json:"password"`
	Name            string   `json:"name"`
	Role            Role     `json:"role"`
	Specializations []string `json:"specializations"`
	LicenseNumber   *string  `json:"licenseNumber"`
}

// LoginRequest contains account login credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest contains the self-service profile fields. Nil fields
// are left untouched.
type UpdateProfileRequest struct {
	Name            *string  `json:"name"`
	Specializations []string `json:"specializations"`
	LicenseNumber   *string  `json:"licenseNumber"`
}

// StatusUpdateRequest contains the admin-controlled account state fields.
// Nil fields are left untouched.
type StatusUpdateRequest struct {
	IsActive  *bool      `json:"isActive"`
	IsBlocked *bool      `json:"isBlocked"`
	KYCStatus *KYCStatus `json:"kycStatus"`
}

// UserFilters narrows the admin account listing.
type UserFilters struct {
	Role      Role
	KYCStatus KYCStatus
	Page      int
	PageSize  int
}

// Identity is the resolved caller passed into every workflow entry point.
type Identity struct {
	UserID string
	Role   Role
}

func (id Identity) IsAdmin() bool { return id.Role == RoleAdmin }
