package review

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"draftflow/auth"
	"draftflow/document"
	"draftflow/lawyer"
	"draftflow/notification"
	"draftflow/pricing"
)

func TestCreateAssignsAndPrices(t *testing.T) {
	f := newFixture(t)
	f.lawyers.active = &lawyer.Profile{ID: "lawyer-1", Name: "Lea Counsel", Email: "lea@firm.example"}

	rev, err := f.svc.Create(context.Background(), f.alice, CreateRequest{
		DocumentID: f.doc.ID,
		Tier:       pricing.TierStandard,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if rev.LawyerID != "lawyer-1" {
		t.Errorf("lawyer = %s, want lawyer-1", rev.LawyerID)
	}
	if rev.Price != 499 {
		t.Errorf("price = %d, want 499", rev.Price)
	}
	wantDeadline := f.fixed.Add(1440 * time.Minute)
	if !rev.SLADeadline.Equal(wantDeadline) {
		t.Errorf("deadline = %v, want %v", rev.SLADeadline, wantDeadline)
	}
	if rev.Status != StatusPending {
		t.Errorf("status = %s, want pending", rev.Status)
	}

	if !f.pool.tx.committed {
		t.Errorf("expected transaction commit")
	}
	if f.documents.bound == nil {
		t.Fatalf("document not stamped with assignment")
	}
	if f.documents.bound.LawyerID != "lawyer-1" || f.documents.bound.Price != 499 {
		t.Errorf("binding = %+v", f.documents.bound)
	}

	if len(f.notifier.requested) != 1 {
		t.Fatalf("notifications = %d, want 1", len(f.notifier.requested))
	}
	ev := f.notifier.requested[0]
	if ev.LawyerEmail != "lea@firm.example" || ev.ReviewID != rev.ID || ev.Tier != "standard" {
		t.Errorf("notification = %+v", ev)
	}
}

func TestCreateUnknownTierFallsBackToStandard(t *testing.T) {
	f := newFixture(t)
	f.lawyers.active = &lawyer.Profile{ID: "lawyer-1"}

	rev, err := f.svc.Create(context.Background(), f.alice, CreateRequest{
		DocumentID: f.doc.ID,
		Tier:       "gold",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rev.Tier != pricing.TierStandard || rev.Price != 499 {
		t.Errorf("tier = %s price = %d, want standard 499", rev.Tier, rev.Price)
	}
}

func TestCreateForbiddenForNonOwner(t *testing.T) {
	f := newFixture(t)
	f.lawyers.active = &lawyer.Profile{ID: "lawyer-1"}

	mallory := auth.Identity{UserID: "mallory", Role: auth.RoleUser}
	_, err := f.svc.Create(context.Background(), mallory, CreateRequest{DocumentID: f.doc.ID})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	if f.pool.tx != nil {
		t.Errorf("transaction opened for forbidden request")
	}
	if len(f.notifier.requested) != 0 {
		t.Errorf("notification sent for forbidden request")
	}
}

func TestCreateNoLawyerAvailable(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), f.alice, CreateRequest{DocumentID: f.doc.ID})
	if !errors.Is(err, lawyer.ErrNoneAvailable) {
		t.Fatalf("err = %v, want ErrNoneAvailable", err)
	}
	if f.pool.tx != nil {
		t.Errorf("transaction opened with no reviewer available")
	}
}

func TestCreateRejectsFinishedDocument(t *testing.T) {
	f := newFixture(t)
	f.lawyers.active = &lawyer.Profile{ID: "lawyer-1"}
	f.doc.Status = document.StatusApproved
	f.documents.docs[f.doc.ID] = *f.doc

	_, err := f.svc.Create(context.Background(), f.alice, CreateRequest{DocumentID: f.doc.ID})
	if !errors.Is(err, ErrDocumentNotReviewable) {
		t.Fatalf("err = %v, want ErrDocumentNotReviewable", err)
	}
}

func TestUpdateStatusCompletionCascade(t *testing.T) {
	f := newFixture(t)
	rev := f.seedReview(StatusInProgress)

	content := "OK"
	updated, err := f.svc.UpdateStatus(context.Background(), f.lea, rev.ID, StatusRequest{
		Status:          StatusCompleted,
		ReviewedContent: &content,
	})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	if updated.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", updated.Status)
	}
	if updated.CompletedAt == nil || !updated.CompletedAt.Equal(f.fixed) {
		t.Errorf("completed_at = %v, want %v", updated.CompletedAt, f.fixed)
	}

	if f.documents.outcome == nil {
		t.Fatalf("document cascade did not run")
	}
	if f.documents.outcome.status != document.StatusReviewed {
		t.Errorf("document status = %s, want reviewed", f.documents.outcome.status)
	}
	if f.documents.outcome.reviewedContent == nil || *f.documents.outcome.reviewedContent != "OK" {
		t.Errorf("reviewed content = %v, want OK", f.documents.outcome.reviewedContent)
	}

	if f.counted != rev.LawyerID {
		t.Errorf("completed counter bumped for %q, want %q", f.counted, rev.LawyerID)
	}
	if !f.pool.tx.committed {
		t.Errorf("expected transaction commit")
	}

	if len(f.notifier.finished) != 1 {
		t.Fatalf("completion notifications = %d, want 1", len(f.notifier.finished))
	}
	if f.notifier.finished[0].OwnerEmail != "alice@example.com" {
		t.Errorf("notification = %+v", f.notifier.finished[0])
	}
}

func TestUpdateStatusRejectionLandsDocumentOnPending(t *testing.T) {
	f := newFixture(t)
	rev := f.seedReview(StatusInProgress)

	_, err := f.svc.UpdateStatus(context.Background(), f.lea, rev.ID, StatusRequest{Status: StatusRejected})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	if f.documents.outcome == nil || f.documents.outcome.status != document.StatusPending {
		t.Errorf("document cascade = %+v, want pending", f.documents.outcome)
	}
	if f.counted != "" {
		t.Errorf("completed counter bumped on rejection")
	}
	if len(f.notifier.finished) != 0 {
		t.Errorf("completion notification sent on rejection")
	}
}

func TestUpdateStatusForbiddenForOtherLawyer(t *testing.T) {
	f := newFixture(t)
	rev := f.seedReview(StatusPending)

	other := auth.Identity{UserID: "lawyer-2", Role: auth.RoleLawyer}
	_, err := f.svc.UpdateStatus(context.Background(), other, rev.ID, StatusRequest{Status: StatusInProgress})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}

	requester := f.alice
	_, err = f.svc.UpdateStatus(context.Background(), requester, rev.ID, StatusRequest{Status: StatusCompleted})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("requester err = %v, want ErrForbidden", err)
	}
}

func TestUpdateStatusInvalidTransitions(t *testing.T) {
	f := newFixture(t)
	rev := f.seedReview(StatusCompleted)

	// Terminal reviews accept nothing, including their own status.
	for _, next := range []Status{StatusPending, StatusInProgress, StatusCompleted, StatusRejected} {
		if _, err := f.svc.UpdateStatus(context.Background(), f.lea, rev.ID, StatusRequest{Status: next}); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("completed -> %s err = %v, want ErrInvalidTransition", next, err)
		}
	}

	rev2 := f.seedReview(StatusInProgress)
	if _, err := f.svc.UpdateStatus(context.Background(), f.lea, rev2.ID, StatusRequest{Status: StatusPending}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("in_progress -> pending err = %v, want ErrInvalidTransition", err)
	}
	if _, err := f.svc.UpdateStatus(context.Background(), f.lea, rev2.ID, StatusRequest{Status: "withdrawn"}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("unknown status err = %v, want ErrInvalidTransition", err)
	}
}

func TestUpdateStatusStampsOnce(t *testing.T) {
	f := newFixture(t)
	rev := f.seedReview(StatusPending)

	first, err := f.svc.UpdateStatus(context.Background(), f.lea, rev.ID, StatusRequest{Status: StatusInProgress})
	if err != nil {
		t.Fatalf("first transition: %v", err)
	}
	if first.StartedAt == nil {
		t.Fatalf("started_at not stamped")
	}

	f.fixed = f.fixed.Add(2 * time.Hour)
	second, err := f.svc.UpdateStatus(context.Background(), f.lea, rev.ID, StatusRequest{Status: StatusInProgress})
	if err != nil {
		t.Fatalf("repeat transition: %v", err)
	}
	if !second.StartedAt.Equal(*first.StartedAt) {
		t.Errorf("started_at moved from %v to %v", first.StartedAt, second.StartedAt)
	}
}

func TestBreachedIsDerived(t *testing.T) {
	deadline := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	r := Review{SLADeadline: deadline}

	if r.Breached(deadline.Add(-time.Hour)) {
		t.Errorf("unfinished review before deadline reported breached")
	}
	if !r.Breached(deadline.Add(time.Hour)) {
		t.Errorf("unfinished review past deadline not reported breached")
	}

	early := deadline.Add(-time.Minute)
	r.CompletedAt = &early
	if r.Breached(deadline.Add(24 * time.Hour)) {
		t.Errorf("review finished before deadline reported breached")
	}

	late := deadline.Add(time.Minute)
	r.CompletedAt = &late
	if !r.Breached(deadline) {
		t.Errorf("review finished after deadline not reported breached")
	}
}

func TestListScopesByRole(t *testing.T) {
	f := newFixture(t)
	f.seedReview(StatusPending)

	if _, _, err := f.svc.List(context.Background(), f.alice, Filters{RequesterID: "someone-else"}); err != nil {
		t.Fatalf("List: %v", err)
	}
	if f.reviews.lastFilters.RequesterID != f.alice.UserID {
		t.Errorf("user filters not pinned to own id: %+v", f.reviews.lastFilters)
	}

	if _, _, err := f.svc.List(context.Background(), f.lea, Filters{}); err != nil {
		t.Fatalf("List: %v", err)
	}
	if f.reviews.lastFilters.LawyerID != f.lea.UserID {
		t.Errorf("lawyer filters not pinned to own id: %+v", f.reviews.lastFilters)
	}

	admin := auth.Identity{UserID: "admin-1", Role: auth.RoleAdmin}
	if _, _, err := f.svc.List(context.Background(), admin, Filters{RequesterID: "anyone"}); err != nil {
		t.Fatalf("List: %v", err)
	}
	if f.reviews.lastFilters.RequesterID != "anyone" {
		t.Errorf("admin filters rewritten: %+v", f.reviews.lastFilters)
	}
}

// fixture wires the service against in-memory fakes.
type fixture struct {
	svc       *Service
	pool      *fakePool
	reviews   *fakeStore
	documents *fakeDocuments
	lawyers   *fakeLawyers
	users     *fakeUsers
	notifier  *fakeNotifier

	alice auth.Identity
	lea   auth.Identity
	doc   *document.Document
	fixed time.Time

	counted string
	nextID  int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		pool:      &fakePool{},
		reviews:   newFakeStore(),
		documents: newFakeDocuments(),
		lawyers:   &fakeLawyers{profiles: map[string]lawyer.Profile{}},
		users:     &fakeUsers{users: map[string]auth.User{}},
		notifier:  &fakeNotifier{},
		alice:     auth.Identity{UserID: "alice", Role: auth.RoleUser},
		lea:       auth.Identity{UserID: "lawyer-1", Role: auth.RoleLawyer},
		fixed:     time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}

	doc := document.Document{
		ID:         "doc-1",
		Title:      "NDA",
		TemplateID: "nda",
		OwnerID:    "alice",
		Status:     document.StatusDraft,
	}
	f.doc = &doc
	f.documents.docs[doc.ID] = doc

	f.users.users["alice"] = auth.User{ID: "alice", Email: "alice@example.com", Name: "Alice"}
	f.lawyers.profiles["lawyer-1"] = lawyer.Profile{ID: "lawyer-1", Name: "Lea Counsel", Email: "lea@firm.example"}

	f.svc = NewService(f.pool, f.reviews, f.documents, f.lawyers, f.users).
		WithNotifier(f.notifier).
		WithClock(func() time.Time { return f.fixed }).
		WithIDGenerator(func() string {
			f.nextID++
			return string(rune('a' + f.nextID - 1))
		}).
		WithCompletionCounter(func(_ context.Context, _ pgx.Tx, lawyerID string) error {
			f.counted = lawyerID
			return nil
		})

	return f
}

func (f *fixture) seedReview(status Status) Review {
	rev := Review{
		ID:          "rev-seed",
		DocumentID:  f.doc.ID,
		RequesterID: f.alice.UserID,
		LawyerID:    f.lea.UserID,
		Status:      status,
		Tier:        pricing.TierStandard,
		Price:       499,
		SLADeadline: f.fixed.Add(24 * time.Hour),
	}
	f.reviews.reviews[rev.ID] = rev
	return rev
}

type fakeStore struct {
	reviews     map[string]Review
	lastFilters Filters
}

func newFakeStore() *fakeStore {
	return &fakeStore{reviews: map[string]Review{}}
}

func (f *fakeStore) Create(_ context.Context, _ pgx.Tx, params CreateParams) (Review, error) {
	for _, r := range f.reviews {
		if r.DocumentID == params.DocumentID && !Terminal(r.Status) {
			return Review{}, ErrDocumentAlreadyUnderReview
		}
	}
	rev := Review{
		ID:          params.ID,
		DocumentID:  params.DocumentID,
		RequesterID: params.RequesterID,
		LawyerID:    params.LawyerID,
		Status:      StatusPending,
		Tier:        params.Tier,
		Price:       params.Price,
		SLADeadline: params.SLADeadline,
	}
	f.reviews[rev.ID] = rev
	return rev, nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (Review, error) {
	r, ok := f.reviews[id]
	if !ok {
		return Review{}, ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) List(_ context.Context, filters Filters) ([]Review, int, error) {
	f.lastFilters = filters
	var out []Review
	for _, r := range f.reviews {
		if filters.RequesterID != "" && r.RequesterID != filters.RequesterID {
			continue
		}
		if filters.LawyerID != "" && r.LawyerID != filters.LawyerID {
			continue
		}
		out = append(out, r)
	}
	return out, len(out), nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, _ pgx.Tx, id string, params StatusParams) (Review, error) {
	r, ok := f.reviews[id]
	if !ok {
		return Review{}, ErrNotFound
	}
	r.Status = params.Status
	if params.Comments != nil {
		r.Comments = *params.Comments
	}
	if params.ReviewedContent != nil {
		r.ReviewedContent = params.ReviewedContent
	}
	if (params.Status == StatusInProgress || params.Status == StatusCompleted) && r.StartedAt == nil {
		now := params.Now
		r.StartedAt = &now
	}
	if params.Status == StatusCompleted && r.CompletedAt == nil {
		now := params.Now
		r.CompletedAt = &now
	}
	r.UpdatedAt = params.Now
	f.reviews[id] = r
	return r, nil
}

type appliedOutcome struct {
	status          document.Status
	reviewedContent *string
}

type fakeDocuments struct {
	docs    map[string]document.Document
	bound   *document.BindReviewParams
	outcome *appliedOutcome
}

func newFakeDocuments() *fakeDocuments {
	return &fakeDocuments{docs: map[string]document.Document{}}
}

func (f *fakeDocuments) GetByID(_ context.Context, id string) (document.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return document.Document{}, document.ErrNotFound
	}
	return doc, nil
}

func (f *fakeDocuments) BindReview(_ context.Context, _ pgx.Tx, params document.BindReviewParams) error {
	doc, ok := f.docs[params.DocumentID]
	if !ok {
		return document.ErrNotFound
	}
	f.bound = &params
	doc.AssignedLawyerID = &params.LawyerID
	doc.Status = document.StatusPending
	f.docs[params.DocumentID] = doc
	return nil
}

func (f *fakeDocuments) ApplyReviewOutcome(_ context.Context, _ pgx.Tx, id string, status document.Status, reviewedContent *string) error {
	doc, ok := f.docs[id]
	if !ok {
		return document.ErrNotFound
	}
	f.outcome = &appliedOutcome{status: status, reviewedContent: reviewedContent}
	doc.Status = status
	if reviewedContent != nil {
		doc.ReviewedContent = *reviewedContent
	}
	f.docs[id] = doc
	return nil
}

type fakeLawyers struct {
	active   *lawyer.Profile
	profiles map[string]lawyer.Profile
}

func (f *fakeLawyers) FirstActive(context.Context) (lawyer.Profile, error) {
	if f.active == nil {
		return lawyer.Profile{}, lawyer.ErrNoneAvailable
	}
	return *f.active, nil
}

func (f *fakeLawyers) GetByID(_ context.Context, id string) (lawyer.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return lawyer.Profile{}, lawyer.ErrNotFound
	}
	return p, nil
}

type fakeUsers struct {
	users map[string]auth.User
}

func (f *fakeUsers) GetUserByID(_ context.Context, id string) (auth.User, error) {
	u, ok := f.users[id]
	if !ok {
		return auth.User{}, auth.ErrUserNotFound
	}
	return u, nil
}

type fakeNotifier struct {
	requested []notification.ReviewRequested
	finished  []notification.ReviewFinished
}

func (f *fakeNotifier) ReviewRequest(_ context.Context, ev notification.ReviewRequested) {
	f.requested = append(f.requested, ev)
}

func (f *fakeNotifier) ReviewCompleted(_ context.Context, ev notification.ReviewFinished) {
	f.finished = append(f.finished, ev)
}

type fakePool struct {
	tx *fakeTx
}

func (f *fakePool) Begin(context.Context) (pgx.Tx, error) {
	f.tx = &fakeTx{}
	return f.tx, nil
}

type fakeTx struct {
	rolled    bool
	committed bool
}

func (f *fakeTx) Begin(context.Context) (pgx.Tx, error) {
	return nil, errors.New("fakeTx does not support nested transactions")
}

func (f *fakeTx) Commit(context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(context.Context) error {
	f.rolled = true
	return nil
}

func (f *fakeTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}

func (f *fakeTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}

func (f *fakeTx) LargeObjects() pgx.LargeObjects {
	panic("not implemented")
}

func (f *fakeTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}

func (f *fakeTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}

func (f *fakeTx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	panic("not implemented")
}

func (f *fakeTx) QueryRow(context.Context, string, ...any) pgx.Row {
	panic("not implemented")
}

func (f *fakeTx) Conn() *pgx.Conn {
	return nil
}
