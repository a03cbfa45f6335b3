package httpapi

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"draftflow/audit"
	"draftflow/auth"
	"draftflow/dispute"
	"draftflow/document"
	"draftflow/lawyer"
	"draftflow/notification"
	"draftflow/payout"
	"draftflow/review"
)

// AuthService is the slice of the auth service the API needs.
type AuthService interface {
	TokenVerifier
	Register(ctx context.Context, req auth.RegisterRequest) (*auth.User, error)
	Login(ctx context.Context, req auth.LoginRequest) (auth.LoginResult, error)
	GetUserByID(ctx context.Context, userID string) (*auth.User, error)
	UpdateProfile(ctx context.Context, ident auth.Identity, req auth.UpdateProfileRequest) (*auth.User, error)
	ListUsers(ctx context.Context, ident auth.Identity, filters auth.UserFilters) ([]auth.User, int, error)
	SetUserStatus(ctx context.Context, ident auth.Identity, userID string, req auth.StatusUpdateRequest) (*auth.User, error)
}

// DocumentService is the slice of the document service the API needs.
type DocumentService interface {
	Create(ctx context.Context, ident auth.Identity, params document.CreateParams) (document.Document, error)
	Generate(ctx context.Context, ident auth.Identity, params document.GenerateParams) (document.Document, error)
	Get(ctx context.Context, ident auth.Identity, id string) (document.Document, error)
	List(ctx context.Context, ident auth.Identity, filters document.Filters) ([]document.Document, int, error)
	Update(ctx context.Context, ident auth.Identity, id string, params document.UpdateParams) (document.Document, error)
	Delete(ctx context.Context, ident auth.Identity, id string) error
}

// ReviewService is the slice of the review service the API needs.
type ReviewService interface {
	Create(ctx context.Context, ident auth.Identity, req review.CreateRequest) (review.Review, error)
	UpdateStatus(ctx context.Context, ident auth.Identity, id string, req review.StatusRequest) (review.Review, error)
	Get(ctx context.Context, ident auth.Identity, id string) (review.Review, error)
	List(ctx context.Context, ident auth.Identity, filters review.Filters) ([]review.Review, int, error)
}

// PayoutService is the slice of the payout service the API needs.
type PayoutService interface {
	Create(ctx context.Context, ident auth.Identity, req payout.CreateRequest) (payout.Payout, error)
	Process(ctx context.Context, ident auth.Identity, id string, req payout.ProcessRequest) (payout.Payout, error)
	Get(ctx context.Context, ident auth.Identity, id string) (payout.Payout, error)
	List(ctx context.Context, ident auth.Identity, filters payout.Filters) ([]payout.Payout, int, error)
}

// LawyerService is the slice of the lawyer service the API needs.
type LawyerService interface {
	GetByID(ctx context.Context, id string) (lawyer.Profile, error)
	List(ctx context.Context, filters lawyer.Filters) ([]lawyer.Profile, int, error)
	Stats(ctx context.Context, lawyerID string) (lawyer.Stats, error)
}

// DisputeService is the slice of the dispute service the API needs.
type DisputeService interface {
	List(ctx context.Context, ident auth.Identity, reviewID string) ([]dispute.Record, error)
	Create(ctx context.Context, ident auth.Identity, reviewID, reason string) (dispute.Record, error)
	Resolve(ctx context.Context, ident auth.Identity, disputeID string, status dispute.Status, resolution string) (dispute.Record, error)
}

// AuditReader lists the audit trail for admins.
type AuditReader interface {
	List(ctx context.Context, filters audit.Filters) ([]audit.Entry, error)
}

// RateLimits carries the per-surface limits. Zero-valued limits disable the
// corresponding bucket.
type RateLimits struct {
	API        Limit
	Auth       Limit
	Generation Limit
}

// Deps bundles everything the server needs.
type Deps struct {
	Auth          AuthService
	Documents     DocumentService
	Reviews       ReviewService
	Payouts       PayoutService
	Lawyers       LawyerService
	Disputes      DisputeService
	Notifications notification.Store
	Audits        AuditReader
	AuditRecorder *audit.Recorder
	Redis         *redis.Client
	Limits        RateLimits
}

// Server is the HTTP front of the marketplace.
type Server struct {
	echo *echo.Echo
	deps Deps
}

// NewServer builds the echo application with all routes registered.
func NewServer(deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	s := &Server{echo: e, deps: deps}
	s.routes()
	return s
}

// Echo exposes the underlying echo instance for serving and tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start runs the server on the given address.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) routes() {
	api := s.echo.Group("/api")
	if s.deps.Limits.API.Burst > 0 {
		api.Use(rateLimit(s.deps.Redis, s.deps.Limits.API))
	}

	authGroup := api.Group("/auth")
	if s.deps.Limits.Auth.Burst > 0 {
		authGroup.Use(rateLimit(s.deps.Redis, s.deps.Limits.Auth))
	}
	authGroup.POST("/register", s.handleRegister)
	authGroup.POST("/login", s.handleLogin)

	authed := api.Group("", authenticate(s.deps.Auth))
	if s.deps.AuditRecorder != nil {
		authed.Use(audit.Middleware(s.deps.AuditRecorder, func(c echo.Context) (string, string) {
			ident := identityFrom(c)
			return ident.UserID, string(ident.Role)
		}))
	}

	authed.GET("/auth/me", s.handleMe)

	users := authed.Group("/users")
	users.GET("/profile", s.handleMe)
	users.PUT("/profile", s.handleProfileUpdate)
	users.GET("", s.handleUserList, requireRoles(auth.RoleAdmin))
	users.PUT("/:id/status", s.handleUserStatus, requireRoles(auth.RoleAdmin))

	docs := authed.Group("/documents")
	docs.POST("", s.handleDocumentCreate)
	if s.deps.Limits.Generation.Burst > 0 {
		docs.POST("/generate", s.handleDocumentGenerate, rateLimit(s.deps.Redis, s.deps.Limits.Generation))
	} else {
		docs.POST("/generate", s.handleDocumentGenerate)
	}
	docs.GET("", s.handleDocumentList)
	docs.GET("/:id", s.handleDocumentGet)
	docs.PUT("/:id", s.handleDocumentUpdate)
	docs.DELETE("/:id", s.handleDocumentDelete)

	reviews := authed.Group("/reviews")
	reviews.POST("", s.handleReviewCreate)
	reviews.GET("", s.handleReviewList)
	reviews.GET("/:id", s.handleReviewGet)
	reviews.PUT("/:id/status", s.handleReviewStatus, requireRoles(auth.RoleLawyer, auth.RoleAdmin))

	payouts := authed.Group("/payouts")
	payouts.POST("", s.handlePayoutCreate, requireRoles(auth.RoleLawyer))
	payouts.GET("", s.handlePayoutList)
	payouts.GET("/:id", s.handlePayoutGet)
	payouts.PUT("/:id/process", s.handlePayoutProcess, requireRoles(auth.RoleAdmin))

	lawyers := authed.Group("/lawyers")
	lawyers.GET("", s.handleLawyerList)
	lawyers.GET("/stats", s.handleLawyerStats, requireRoles(auth.RoleLawyer))
	lawyers.GET("/:id", s.handleLawyerGet)

	notifications := authed.Group("/notifications")
	notifications.GET("", s.handleNotificationList)
	notifications.PUT("/read-all", s.handleNotificationReadAll)
	notifications.PUT("/:id/read", s.handleNotificationRead)

	disputes := authed.Group("/disputes")
	disputes.POST("", s.handleDisputeCreate)
	disputes.GET("", s.handleDisputeList)
	disputes.PUT("/:id/resolve", s.handleDisputeResolve, requireRoles(auth.RoleAdmin))

	authed.GET("/audit", s.handleAuditList, requireRoles(auth.RoleAdmin))
}
