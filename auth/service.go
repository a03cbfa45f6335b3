package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials signals wrong email or password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrWeakPassword signals password doesn't meet requirements.
	ErrWeakPassword = errors.New("auth: password must be at least 8 characters")
	// ErrBlocked signals the account has been blocked by an admin.
	ErrBlocked = errors.New("auth: account blocked")
	// ErrForbidden signals the caller may not manage other accounts.
	ErrForbidden = errors.New("auth: not authorized")
	// ErrInvalidKYC signals an unknown KYC status.
	ErrInvalidKYC = errors.New("auth: invalid kyc status")
)

// WelcomeNotifier sends the post-registration welcome message. Best-effort,
// implementations must never fail the registration.
type WelcomeNotifier interface {
	UserWelcome(ctx context.Context, userID, email, name string)
}

// Service handles authentication business logic.
type Service struct {
	repo      Repository
	jwtSecret []byte
	welcome   WelcomeNotifier
}

// LoginResult bundles the token and domain user returned after a successful login.
type LoginResult struct {
	Token string
	User  User
}

// NewService creates a new authentication service.
func NewService(repo Repository, jwtSecret string) *Service {
	return &Service{
		repo:      repo,
		jwtSecret: []byte(jwtSecret),
	}
}

// WithWelcomeNotifier enables the welcome email on registration.
func (s *Service) WithWelcomeNotifier(n WelcomeNotifier) *Service {
	s.welcome = n
	return s
}

// Register creates a new account. Lawyer registrations may carry
// specializations and a license number; everything else starts as a plain
// user.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if len(req.Password) < 8 {
		return nil, ErrWeakPassword
	}
	if req.Email == "" || req.Name == "" {
		return nil, fmt.Errorf("auth: email and name are required")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	role := Role(strings.TrimSpace(string(req.Role)))
	if role == "" {
		role = RoleUser
	}
	if !isValidRole(role) {
		return nil, fmt.Errorf("auth: invalid role %q", role)
	}

	user, err := s.repo.CreateUser(ctx, CreateUserParams{
		Email:           req.Email,
		Name:            req.Name,
		PasswordHash:    string(passwordHash),
		Role:            role,
		Specializations: req.Specializations,
		LicenseNumber:   req.LicenseNumber,
	})
	if err != nil {
		return nil, err
	}

	if s.welcome != nil {
		s.welcome.UserWelcome(ctx, user.ID, user.Email, user.Name)
	}

	return &user, nil
}

// Login authenticates an account and returns a JWT token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	if user.IsBlocked {
		return LoginResult{}, ErrBlocked
	}

	token, err := s.generateToken(user.ID, user.Role)
	if err != nil {
		return LoginResult{}, fmt.Errorf("auth: generate token: %w", err)
	}

	return LoginResult{Token: token, User: user}, nil
}

// GetUserByID retrieves account information by ID.
func (s *Service) GetUserByID(ctx context.Context, userID string) (*User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile edits the caller's own profile. Only name and the lawyer
// fields are editable; role and account state stay admin-controlled.
func (s *Service) UpdateProfile(ctx context.Context, ident Identity, req UpdateProfileRequest) (*User, error) {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, fmt.Errorf("auth: name cannot be empty")
	}

	user, err := s.repo.UpdateProfile(ctx, ident.UserID, UpdateProfileParams{
		Name:            req.Name,
		Specializations: req.Specializations,
		LicenseNumber:   req.LicenseNumber,
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers returns the paginated account listing for admins, optionally
// narrowed by role and KYC status.
func (s *Service) ListUsers(ctx context.Context, ident Identity, filters UserFilters) ([]User, int, error) {
	if !ident.IsAdmin() {
		return nil, 0, ErrForbidden
	}
	if filters.Role != "" && !isValidRole(filters.Role) {
		return nil, 0, fmt.Errorf("auth: invalid role %q", filters.Role)
	}
	if filters.KYCStatus != "" && !isValidKYC(filters.KYCStatus) {
		return nil, 0, fmt.Errorf("%w: %q", ErrInvalidKYC, filters.KYCStatus)
	}
	return s.repo.ListUsers(ctx, filters)
}

// SetUserStatus applies an admin decision to an account: activate or
// deactivate, block or unblock, progress KYC. Fields left nil keep their
// stored value.
func (s *Service) SetUserStatus(ctx context.Context, ident Identity, userID string, req StatusUpdateRequest) (*User, error) {
	if !ident.IsAdmin() {
		return nil, ErrForbidden
	}
	if req.KYCStatus != nil && !isValidKYC(*req.KYCStatus) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKYC, *req.KYCStatus)
	}

	user, err := s.repo.SetUserStatus(ctx, userID, StatusParams{
		IsActive:  req.IsActive,
		IsBlocked: req.IsBlocked,
		KYCStatus: req.KYCStatus,
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// VerifyToken validates a JWT token and returns the caller identity.
func (s *Service) VerifyToken(tokenString string) (Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("auth: parse token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		userID, ok := claims["user_id"].(string)
		if !ok {
			return Identity{}, fmt.Errorf("auth: invalid user_id in token")
		}
		roleStr, ok := claims["role"].(string)
		if !ok {
			return Identity{}, fmt.Errorf("auth: invalid role in token")
		}
		role := Role(roleStr)
		if !isValidRole(role) {
			return Identity{}, fmt.Errorf("auth: invalid role %q in token", roleStr)
		}
		return Identity{UserID: userID, Role: role}, nil
	}

	return Identity{}, fmt.Errorf("auth: invalid token")
}

// generateToken creates a JWT token for the account.
func (s *Service) generateToken(userID string, role Role) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func isValidRole(role Role) bool {
	switch role {
	case RoleUser, RoleLawyer, RoleAdmin:
		return true
	default:
		return false
	}
}

func isValidKYC(status KYCStatus) bool {
	switch status {
	case KYCUnverified, KYCPending, KYCVerified, KYCRejected:
		return true
	default:
		return false
	}
}
