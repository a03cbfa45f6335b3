package dispute

import (
	"context"
	"errors"
	"testing"

	"draftflow/auth"
)

type fakeRepo struct {
	records      map[string]Record
	listedAs     string
	createCalled bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: map[string]Record{}}
}

func (f *fakeRepo) List(_ context.Context, requesterID, reviewID string) ([]Record, error) {
	f.listedAs = requesterID
	var out []Record
	for _, r := range f.records {
		if requesterID != "" && r.RaisedBy != requesterID {
			continue
		}
		if reviewID != "" && r.ReviewID != reviewID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRepo) Create(_ context.Context, requesterID, reviewID, reason string) (Record, error) {
	f.createCalled = true
	rec := Record{ID: "d1", ReviewID: reviewID, RaisedBy: requesterID, Reason: reason, Status: StatusOpen}
	f.records[rec.ID] = rec
	return rec, nil
}

func (f *fakeRepo) Resolve(_ context.Context, adminID, disputeID string, status Status, resolution string) (Record, error) {
	rec, ok := f.records[disputeID]
	if !ok {
		return Record{}, ErrNotFound
	}
	if Settled(rec.Status) {
		return Record{}, ErrBadStatus
	}
	rec.Status = status
	rec.Resolution = &resolution
	rec.ResolvedBy = &adminID
	f.records[disputeID] = rec
	return rec, nil
}

func TestCreateRequiresReason(t *testing.T) {
	svc := NewService(newFakeRepo())
	alice := auth.Identity{UserID: "alice", Role: auth.RoleUser}

	if _, err := svc.Create(context.Background(), alice, "r1", ""); err == nil {
		t.Fatal("expected error for empty reason")
	}

	rec, err := svc.Create(context.Background(), alice, "r1", "reviewed the wrong clause")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Status != StatusOpen || rec.RaisedBy != "alice" {
		t.Errorf("record = %+v", rec)
	}
}

func TestResolveAdminOnly(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	alice := auth.Identity{UserID: "alice", Role: auth.RoleUser}
	admin := auth.Identity{UserID: "admin-1", Role: auth.RoleAdmin}

	rec, _ := svc.Create(context.Background(), alice, "r1", "bad review")

	if _, err := svc.Resolve(context.Background(), alice, rec.ID, StatusResolved, "refunded"); !errors.Is(err, ErrForbidden) {
		t.Errorf("user Resolve err = %v, want ErrForbidden", err)
	}
	if _, err := svc.Resolve(context.Background(), admin, rec.ID, StatusInProgress, ""); !errors.Is(err, ErrBadStatus) {
		t.Errorf("non-settled outcome err = %v, want ErrBadStatus", err)
	}

	resolved, err := svc.Resolve(context.Background(), admin, rec.ID, StatusResolved, "refunded the review fee")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.ResolvedBy == nil || *resolved.ResolvedBy != "admin-1" {
		t.Errorf("resolved_by = %v", resolved.ResolvedBy)
	}

	// Settled disputes stay settled.
	if _, err := svc.Resolve(context.Background(), admin, rec.ID, StatusClosed, "again"); !errors.Is(err, ErrBadStatus) {
		t.Errorf("re-resolve err = %v, want ErrBadStatus", err)
	}
}

func TestListScoping(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	alice := auth.Identity{UserID: "alice", Role: auth.RoleUser}
	admin := auth.Identity{UserID: "admin-1", Role: auth.RoleAdmin}

	if _, err := svc.List(context.Background(), alice, ""); err != nil {
		t.Fatalf("List: %v", err)
	}
	if repo.listedAs != "alice" {
		t.Errorf("user list scoped to %q, want alice", repo.listedAs)
	}

	if _, err := svc.List(context.Background(), admin, ""); err != nil {
		t.Fatalf("List: %v", err)
	}
	if repo.listedAs != "" {
		t.Errorf("admin list scoped to %q, want unscoped", repo.listedAs)
	}
}
