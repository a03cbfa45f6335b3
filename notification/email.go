package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Sender delivers one email. Implementations report failure through the
// error return; callers treat delivery as best-effort.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogSender writes outbound email to the process log instead of sending it.
// Used in development and tests.
type LogSender struct{}

func (LogSender) Send(_ context.Context, to, subject, body string) error {
	log.Printf("email to=%s subject=%q\n%s", to, subject, body)
	return nil
}

// SendGridSender delivers email through the SendGrid v3 REST API.
type SendGridSender struct {
	APIKey string
	From   string
	Client *http.Client
}

// NewSendGridSender builds a sender with a 10 second request timeout.
func NewSendGridSender(apiKey, from string) *SendGridSender {
	return &SendGridSender{
		APIKey: apiKey,
		From:   from,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

const sendGridURL = "https://api.sendgrid.com/v3/mail/send"

func (s *SendGridSender) Send(ctx context.Context, to, subject, body string) error {
	payload := map[string]any{
		"personalizations": []map[string]any{
			{"to": []map[string]string{{"email": to}}},
		},
		"from":    map[string]string{"email": s.From},
		"subject": subject,
		"content": []map[string]string{
			{"type": "text/plain", "value": body},
		},
	}

	buf, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notification: marshal sendgrid payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sendGridURL, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("notification: build sendgrid request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("notification: sendgrid request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification: sendgrid status %d", resp.StatusCode)
	}
	return nil
}
