package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"draftflow/auth"
	"draftflow/document"
	"draftflow/lawyer"
	"draftflow/review"
)

type stubAuth struct {
	users map[string]auth.User
}

func (s *stubAuth) VerifyToken(token string) (auth.Identity, error) {
	parts := strings.Split(token, "|")
	if len(parts) != 2 {
		return auth.Identity{}, fmt.Errorf("bad token")
	}
	return auth.Identity{UserID: parts[0], Role: auth.Role(parts[1])}, nil
}

func (s *stubAuth) Register(_ context.Context, req auth.RegisterRequest) (*auth.User, error) {
	if len(req.Password) < 8 {
		return nil, auth.ErrWeakPassword
	}
	u := auth.User{ID: "u1", Email: req.Email, Name: req.Name, Role: auth.RoleUser}
	return &u, nil
}

func (s *stubAuth) Login(_ context.Context, req auth.LoginRequest) (auth.LoginResult, error) {
	u, ok := s.users[req.Email]
	if !ok {
		return auth.LoginResult{}, auth.ErrInvalidCredentials
	}
	return auth.LoginResult{Token: u.ID + "|" + string(u.Role), User: u}, nil
}

func (s *stubAuth) GetUserByID(_ context.Context, id string) (*auth.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, auth.ErrUserNotFound
}

func (s *stubAuth) UpdateProfile(_ context.Context, ident auth.Identity, req auth.UpdateProfileRequest) (*auth.User, error) {
	u := auth.User{ID: ident.UserID, Role: ident.Role}
	if req.Name != nil {
		u.Name = *req.Name
	}
	return &u, nil
}

func (s *stubAuth) ListUsers(_ context.Context, ident auth.Identity, _ auth.UserFilters) ([]auth.User, int, error) {
	if !ident.IsAdmin() {
		return nil, 0, auth.ErrForbidden
	}
	users := make([]auth.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	return users, len(users), nil
}

func (s *stubAuth) SetUserStatus(_ context.Context, ident auth.Identity, userID string, req auth.StatusUpdateRequest) (*auth.User, error) {
	if !ident.IsAdmin() {
		return nil, auth.ErrForbidden
	}
	u := auth.User{ID: userID}
	if req.IsBlocked != nil {
		u.IsBlocked = *req.IsBlocked
	}
	return &u, nil
}

type stubDocuments struct {
	getErr error
	doc    document.Document
}

func (s *stubDocuments) Create(context.Context, auth.Identity, document.CreateParams) (document.Document, error) {
	return s.doc, nil
}

func (s *stubDocuments) Generate(context.Context, auth.Identity, document.GenerateParams) (document.Document, error) {
	return s.doc, nil
}

func (s *stubDocuments) Get(context.Context, auth.Identity, string) (document.Document, error) {
	if s.getErr != nil {
		return document.Document{}, s.getErr
	}
	return s.doc, nil
}

func (s *stubDocuments) List(context.Context, auth.Identity, document.Filters) ([]document.Document, int, error) {
	return []document.Document{s.doc}, 1, nil
}

func (s *stubDocuments) Update(context.Context, auth.Identity, string, document.UpdateParams) (document.Document, error) {
	return s.doc, nil
}

func (s *stubDocuments) Delete(context.Context, auth.Identity, string) error {
	return nil
}

type stubReviews struct {
	statusErr error
}

func (s *stubReviews) Create(context.Context, auth.Identity, review.CreateRequest) (review.Review, error) {
	return review.Review{ID: "r1", Status: review.StatusPending}, nil
}

func (s *stubReviews) UpdateStatus(context.Context, auth.Identity, string, review.StatusRequest) (review.Review, error) {
	if s.statusErr != nil {
		return review.Review{}, s.statusErr
	}
	return review.Review{ID: "r1", Status: review.StatusCompleted}, nil
}

func (s *stubReviews) Get(context.Context, auth.Identity, string) (review.Review, error) {
	return review.Review{ID: "r1"}, nil
}

func (s *stubReviews) List(context.Context, auth.Identity, review.Filters) ([]review.Review, int, error) {
	return nil, 0, nil
}

func newTestServer(docs *stubDocuments, reviews *stubReviews) *Server {
	return NewServer(Deps{
		Auth: &stubAuth{users: map[string]auth.User{
			"alice@example.com": {ID: "alice", Email: "alice@example.com", Name: "Alice", Role: auth.RoleUser},
		}},
		Documents: docs,
		Reviews:   reviews,
	})
}

func doRequest(s *Server, method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echoHeaderContentType, "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

const echoHeaderContentType = "Content-Type"

func TestAuthRequired(t *testing.T) {
	s := newTestServer(&stubDocuments{}, &stubReviews{})

	rec := doRequest(s, http.MethodGet, "/api/documents", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", rec.Code)
	}

	rec = doRequest(s, http.MethodGet, "/api/documents", "garbage", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token status = %d, want 401", rec.Code)
	}

	rec = doRequest(s, http.MethodGet, "/api/documents", "alice|user", "")
	if rec.Code != http.StatusOK {
		t.Errorf("valid token status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", document.ErrGenerationFailed, http.StatusBadRequest},
		{"validation transition", document.ErrInvalidTransition, http.StatusBadRequest},
		{"no lawyer", lawyer.ErrNoneAvailable, http.StatusBadRequest},
		{"forbidden", document.ErrForbidden, http.StatusForbidden},
		{"not found", document.ErrNotFound, http.StatusNotFound},
		{"internal", fmt.Errorf("pool exhausted"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(&stubDocuments{getErr: tc.err}, &stubReviews{})
			rec := doRequest(s, http.MethodGet, "/api/documents/d1", "alice|user", "")
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
			if tc.want == http.StatusInternalServerError && strings.Contains(rec.Body.String(), "pool exhausted") {
				t.Errorf("internal detail leaked: %s", rec.Body.String())
			}
		})
	}
}

func TestReviewStatusRoleGate(t *testing.T) {
	s := newTestServer(&stubDocuments{}, &stubReviews{})

	rec := doRequest(s, http.MethodPut, "/api/reviews/r1/status", "alice|user", `{"status":"completed"}`)
	if rec.Code != http.StatusForbidden {
		t.Errorf("user status = %d, want 403", rec.Code)
	}

	rec = doRequest(s, http.MethodPut, "/api/reviews/r1/status", "lea|lawyer", `{"status":"completed"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("lawyer status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
}

func TestInvalidTransitionMapsToBadRequest(t *testing.T) {
	s := newTestServer(&stubDocuments{}, &stubReviews{statusErr: review.ErrInvalidTransition})

	rec := doRequest(s, http.MethodPut, "/api/reviews/r1/status", "lea|lawyer", `{"status":"pending"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(&stubDocuments{}, &stubReviews{})

	rec := doRequest(s, http.MethodPost, "/api/auth/register", "", `{"email":"bob@example.com","name":"Bob","password":"short"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("weak password status = %d, want 400", rec.Code)
	}

	rec = doRequest(s, http.MethodPost, "/api/auth/register", "", `{"email":"bob@example.com","name":"Bob","password":"longenough"}`)
	if rec.Code != http.StatusCreated {
		t.Errorf("register status = %d, want 201, body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(s, http.MethodPost, "/api/auth/login", "", `{"email":"nobody@example.com","password":"whatever"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad login status = %d, want 401", rec.Code)
	}

	rec = doRequest(s, http.MethodPost, "/api/auth/login", "", `{"email":"alice@example.com","password":"whatever"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("login status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"token"`) {
		t.Errorf("login body missing token: %s", rec.Body.String())
	}

	rec = doRequest(s, http.MethodGet, "/api/auth/me", "alice|user", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "alice@example.com") {
		t.Errorf("me status = %d body = %s", rec.Code, rec.Body.String())
	}
}

func TestUserManagementRoutes(t *testing.T) {
	s := newTestServer(&stubDocuments{}, &stubReviews{})

	rec := doRequest(s, http.MethodPut, "/api/users/profile", "alice|user", `{"name":"Alice B."}`)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Alice B.") {
		t.Errorf("profile update status = %d body = %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(s, http.MethodGet, "/api/users", "alice|user", "")
	if rec.Code != http.StatusForbidden {
		t.Errorf("user list as plain user status = %d, want 403", rec.Code)
	}

	rec = doRequest(s, http.MethodGet, "/api/users", "root|admin", "")
	if rec.Code != http.StatusOK {
		t.Errorf("user list as admin status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(s, http.MethodPut, "/api/users/alice/status", "lea|lawyer", `{"isBlocked":true}`)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status update as lawyer status = %d, want 403", rec.Code)
	}

	rec = doRequest(s, http.MethodPut, "/api/users/alice/status", "root|admin", `{"isBlocked":true}`)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"isBlocked":true`) {
		t.Errorf("status update as admin status = %d body = %s", rec.Code, rec.Body.String())
	}
}

func TestPayoutRoutesRequireRole(t *testing.T) {
	s := newTestServer(&stubDocuments{}, &stubReviews{})

	rec := doRequest(s, http.MethodPost, "/api/payouts", "alice|user", `{"reviewIds":["r1"]}`)
	if rec.Code != http.StatusForbidden {
		t.Errorf("user payout create status = %d, want 403", rec.Code)
	}

	rec = doRequest(s, http.MethodPut, "/api/payouts/p1/process", "lea|lawyer", `{"status":"completed"}`)
	if rec.Code != http.StatusForbidden {
		t.Errorf("lawyer payout process status = %d, want 403", rec.Code)
	}
}
