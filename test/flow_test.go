package test

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"draftflow/ai"
	"draftflow/auth"
	"draftflow/document"
	"draftflow/lawyer"
	"draftflow/notification"
	"draftflow/payout"
	"draftflow/pricing"
	"draftflow/review"
	"draftflow/test/infra"
	"draftflow/test/oracles"
)

// TestMarketplaceFlow drives the whole lifecycle against a real database:
// registration, drafting, review assignment, completion, and settlement,
// including a concurrent double payout attempt. Requires Docker or a DSN in
// DRAFTFLOW_TEST_PG_DSN.
func TestMarketplaceFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pgc, dsn, err := infra.StartPostgres16(ctx, "")
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	defer pgc.Terminate(context.Background())

	pool, cleanup, err := infra.ApplyMigrations(ctx, dsn, true)
	if err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	defer cleanup(context.Background())
	defer pool.Close()

	notifier := notification.NewNotifier(notification.NewRepository(pool), notification.LogSender{}, nil, nil)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, "integration-secret").WithWelcomeNotifier(notifier)

	lawyerRepo := lawyer.NewRepository(pool)
	documentRepo := document.NewRepository(pool)
	documentService := document.NewService(documentRepo, ai.NewTemplateGenerator())
	reviewService := review.NewService(pool, review.NewStore(pool), documentRepo, lawyerRepo, authRepo).WithNotifier(notifier)
	payoutService := payout.NewService(pool, payout.NewStore(pool), lawyerRepo).WithNotifier(notifier)

	alice, err := authService.Register(ctx, auth.RegisterRequest{
		Email: "alice@example.com", Name: "Alice", Password: "correcthorse",
	})
	if err != nil {
		t.Fatalf("register user: %v", err)
	}
	lic := "BAR-2041"
	lea, err := authService.Register(ctx, auth.RegisterRequest{
		Email: "lea@firm.example", Name: "Lea Counsel", Password: "correcthorse",
		Role: auth.RoleLawyer, Specializations: []string{"contracts"}, LicenseNumber: &lic,
	})
	if err != nil {
		t.Fatalf("register lawyer: %v", err)
	}

	aliceIdent := auth.Identity{UserID: alice.ID, Role: auth.RoleUser}
	leaIdent := auth.Identity{UserID: lea.ID, Role: auth.RoleLawyer}

	doc, err := documentService.Generate(ctx, aliceIdent, document.GenerateParams{
		TemplateID: "nda",
		Fields:     map[string]any{"disclosing_party": "Acme", "receiving_party": "Beta"},
		Tier:       pricing.TierStandard,
	})
	if err != nil {
		t.Fatalf("generate document: %v", err)
	}

	rev, err := reviewService.Create(ctx, aliceIdent, review.CreateRequest{
		DocumentID: doc.ID,
		Tier:       pricing.TierStandard,
	})
	if err != nil {
		t.Fatalf("create review: %v", err)
	}
	if rev.LawyerID != lea.ID {
		t.Fatalf("assigned lawyer = %s, want %s", rev.LawyerID, lea.ID)
	}
	if rev.Price != 499 {
		t.Fatalf("price = %d, want 499", rev.Price)
	}

	// A second request for the same document must not create a parallel review.
	if _, err := reviewService.Create(ctx, aliceIdent, review.CreateRequest{DocumentID: doc.ID}); err == nil {
		t.Fatalf("expected second review request to fail")
	}

	if _, err := reviewService.UpdateStatus(ctx, leaIdent, rev.ID, review.StatusRequest{Status: review.StatusInProgress}); err != nil {
		t.Fatalf("start review: %v", err)
	}

	content := "Reviewed and amended."
	completed, err := reviewService.UpdateStatus(ctx, leaIdent, rev.ID, review.StatusRequest{
		Status:          review.StatusCompleted,
		ReviewedContent: &content,
	})
	if err != nil {
		t.Fatalf("complete review: %v", err)
	}
	if completed.CompletedAt == nil {
		t.Fatalf("completed_at not stamped")
	}

	refreshed, err := documentService.Get(ctx, aliceIdent, doc.ID)
	if err != nil {
		t.Fatalf("get document: %v", err)
	}
	if refreshed.Status != document.StatusReviewed {
		t.Errorf("document status = %s, want reviewed", refreshed.Status)
	}
	if refreshed.ReviewedContent != content {
		t.Errorf("reviewed content = %q", refreshed.ReviewedContent)
	}

	stats, err := lawyerRepo.Stats(ctx, lea.ID)
	if err != nil {
		t.Fatalf("lawyer stats: %v", err)
	}
	if stats.CompletedReviews != 1 || stats.TotalEarnings != 499 {
		t.Errorf("stats = %+v", stats)
	}

	// Two concurrent settlement requests over the same review: exactly one
	// may win.
	var g errgroup.Group
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		i := i
		g.Go(func() error {
			_, err := payoutService.Create(ctx, leaIdent, payout.CreateRequest{
				ReviewIDs: []string{rev.ID},
				Method:    "bank_transfer",
			})
			results[i] = err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("payout race: %v", err)
	}

	var wins, mismatches int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, payout.ErrBatchMismatch):
			mismatches++
		default:
			t.Fatalf("unexpected payout error: %v", err)
		}
	}
	if wins != 1 || mismatches != 1 {
		t.Fatalf("wins = %d mismatches = %d, want exactly one of each", wins, mismatches)
	}

	payouts, _, err := payoutService.List(ctx, leaIdent, payout.Filters{})
	if err != nil {
		t.Fatalf("list payouts: %v", err)
	}
	if len(payouts) != 1 || payouts[0].Amount != 499 {
		t.Fatalf("payouts = %+v", payouts)
	}

	admin, err := authService.Register(ctx, auth.RegisterRequest{
		Email: "root@draftflow.example", Name: "Root", Password: "correcthorse", Role: auth.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("register admin: %v", err)
	}
	txID := "wire-001"
	settled, err := payoutService.Process(ctx, auth.Identity{UserID: admin.ID, Role: auth.RoleAdmin}, payouts[0].ID, payout.ProcessRequest{
		Status:        payout.StatusCompleted,
		TransactionID: &txID,
	})
	if err != nil {
		t.Fatalf("process payout: %v", err)
	}
	if settled.Status != payout.StatusCompleted {
		t.Fatalf("payout status = %s", settled.Status)
	}

	// A second decision on the settled payout must bounce off the store's own
	// status guard, not just the service's pre-read.
	_, err = payout.NewStore(pool).Process(ctx, settled.ID, payout.ProcessParams{
		Status:      payout.StatusFailed,
		ProcessedBy: admin.ID,
		ProcessedAt: time.Now(),
	})
	if !errors.Is(err, payout.ErrAlreadySettled) {
		t.Fatalf("expected ErrAlreadySettled on settled payout, got %v", err)
	}
	if refetched, err := payoutService.Get(ctx, leaIdent, settled.ID); err != nil || refetched.Status != payout.StatusCompleted {
		t.Fatalf("settled payout changed: status = %v err = %v", refetched.Status, err)
	}

	newName := "Lea S. Counsel"
	prof, err := authService.UpdateProfile(ctx, leaIdent, auth.UpdateProfileRequest{Name: &newName})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if prof.Name != newName || prof.LicenseNumber == nil || *prof.LicenseNumber != lic {
		t.Fatalf("profile after update = %+v", prof)
	}

	adminIdent := auth.Identity{UserID: admin.ID, Role: auth.RoleAdmin}
	kyc := auth.KYCVerified
	if _, err := authService.SetUserStatus(ctx, adminIdent, lea.ID, auth.StatusUpdateRequest{KYCStatus: &kyc}); err != nil {
		t.Fatalf("progress kyc: %v", err)
	}
	blocked := true
	if _, err := authService.SetUserStatus(ctx, adminIdent, alice.ID, auth.StatusUpdateRequest{IsBlocked: &blocked}); err != nil {
		t.Fatalf("block account: %v", err)
	}
	if _, err := authService.Login(ctx, auth.LoginRequest{Email: "alice@example.com", Password: "correcthorse"}); !errors.Is(err, auth.ErrBlocked) {
		t.Fatalf("expected blocked login to fail, got %v", err)
	}

	lawyers, _, err := authService.ListUsers(ctx, adminIdent, auth.UserFilters{Role: auth.RoleLawyer})
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(lawyers) != 1 || lawyers[0].KYCStatus != auth.KYCVerified {
		t.Fatalf("lawyer listing = %+v", lawyers)
	}

	if name, sample, err := oracles.Run(ctx, pool); err != nil {
		t.Fatalf("oracle %s errored: %v", name, err)
	} else if name != "" {
		t.Fatalf("oracle %s failed: %s", name, sample)
	}
}
