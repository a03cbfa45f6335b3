package notification

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Notifier fans one domain event out to the in-app store, the email sender,
// and (when configured) the broker. Every channel is best-effort: failures
// are logged and swallowed so a notification problem can never fail the
// workflow that triggered it. Construct one in main and inject it; methods
// deliberately return nothing.
type Notifier struct {
	store  Store
	sender Sender
	events EventPublisher
	logger *log.Logger
}

// NewNotifier builds a notifier. events may be nil to disable broker publishing.
func NewNotifier(store Store, sender Sender, events EventPublisher, logger *log.Logger) *Notifier {
	if logger == nil {
		logger = log.Default()
	}
	return &Notifier{store: store, sender: sender, events: events, logger: logger}
}

// ReviewRequested describes a newly created review assignment.
type ReviewRequested struct {
	LawyerID      string
	LawyerEmail   string
	LawyerName    string
	RequesterName string
	DocumentID    string
	TemplateID    string
	ReviewID      string
	Tier          string
	Deadline      time.Time
}

// ReviewRequest notifies the assigned lawyer about a new review.
func (n *Notifier) ReviewRequest(ctx context.Context, ev ReviewRequested) {
	n.dispatch(ctx, InsertParams{
		UserID:          ev.LawyerID,
		Type:            TypeReviewRequest,
		Title:           "New Review Request",
		Message:         fmt.Sprintf("You have a new %s review request for %s", ev.Tier, ev.TemplateID),
		RelatedDocument: &ev.DocumentID,
		RelatedReview:   &ev.ReviewID,
	},
		ev.LawyerEmail,
		"New Review Request - Draftflow",
		fmt.Sprintf("Hi %s,\n\nYou have a new review request for a %s.\n\nClient: %s\nTier: %s\nDeadline: %s\n\nPlease log in to review the document.\n\nBest regards,\nThe Draftflow Team",
			ev.LawyerName, ev.TemplateID, ev.RequesterName, ev.Tier, ev.Deadline.Format(time.RFC1123)),
	)
}

// ReviewFinished describes a completed review.
type ReviewFinished struct {
	OwnerID    string
	OwnerEmail string
	OwnerName  string
	LawyerName string
	DocumentID string
	TemplateID string
	ReviewID   string
}

// ReviewCompleted notifies the requesting user that their document was reviewed.
func (n *Notifier) ReviewCompleted(ctx context.Context, ev ReviewFinished) {
	n.dispatch(ctx, InsertParams{
		UserID:          ev.OwnerID,
		Type:            TypeReviewCompleted,
		Title:           "Document Review Completed",
		Message:         fmt.Sprintf("Your %s has been reviewed by %s", ev.TemplateID, ev.LawyerName),
		RelatedDocument: &ev.DocumentID,
		RelatedReview:   &ev.ReviewID,
	},
		ev.OwnerEmail,
		"Document Review Completed - Draftflow",
		fmt.Sprintf("Hi %s,\n\nYour %s has been reviewed by %s.\n\nPlease log in to view the reviewed document.\n\nBest regards,\nThe Draftflow Team",
			ev.OwnerName, ev.TemplateID, ev.LawyerName),
	)
}

// PayoutSettled describes a payout that an admin marked completed.
type PayoutSettled struct {
	LawyerID    string
	LawyerEmail string
	LawyerName  string
	PayoutID    string
	Amount      int64
}

// PayoutCompleted notifies the lawyer their payout was processed.
func (n *Notifier) PayoutCompleted(ctx context.Context, ev PayoutSettled) {
	n.dispatch(ctx, InsertParams{
		UserID:   ev.LawyerID,
		Type:     TypePayment,
		Title:    "Payout Processed",
		Message:  fmt.Sprintf("Your payout of %d has been processed", ev.Amount),
		Metadata: map[string]any{"payoutId": ev.PayoutID},
	},
		ev.LawyerEmail,
		"Payout Processed - Draftflow",
		fmt.Sprintf("Hi %s,\n\nYour payout of %d has been processed and is on its way.\n\nBest regards,\nThe Draftflow Team",
			ev.LawyerName, ev.Amount),
	)
}

// UserWelcome sends the post-registration welcome email. No in-app record is
// created for welcomes.
func (n *Notifier) UserWelcome(ctx context.Context, _ string, email, name string) {
	if err := n.sender.Send(ctx, email,
		"Welcome to Draftflow!",
		fmt.Sprintf("Hi %s,\n\nWelcome to Draftflow! We're excited to have you on board.\n\nGet started by creating your first legal document.\n\nBest regards,\nThe Draftflow Team", name),
	); err != nil {
		n.logger.Printf("notification: welcome email failed: %v", err)
	}
}

func (n *Notifier) dispatch(ctx context.Context, record InsertParams, to, subject, body string) {
	if _, err := n.store.Insert(ctx, record); err != nil {
		n.logger.Printf("notification: persist failed: %v", err)
	}

	if err := n.sender.Send(ctx, to, subject, body); err != nil {
		n.logger.Printf("notification: email failed: %v", err)
	}

	if n.events != nil {
		ev := Event{
			UserID:          record.UserID,
			Type:            record.Type,
			Title:           record.Title,
			Message:         record.Message,
			RelatedDocument: record.RelatedDocument,
			RelatedReview:   record.RelatedReview,
			Metadata:        record.Metadata,
			DispatchedAt:    time.Now().UTC(),
		}
		if err := n.events.Publish(ctx, ev); err != nil {
			n.logger.Printf("notification: event publish failed: %v", err)
		}
	}
}
