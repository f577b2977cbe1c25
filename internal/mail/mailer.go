// File: internal/mail/mailer.go
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/drraj1965/neurohealthhub-sub000/internal/config"
)

// Mailer delivers transactional email. Treated as an external
// collaborator: delivery failure never fails the flow that requested it.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

type recipient struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendRequest struct {
	From    recipient   `json:"from"`
	To      []recipient `json:"to"`
	Subject string      `json:"subject"`
	HTML    string      `json:"html"`
}

// httpMailer posts to a Mailtrap-style transactional email API.
type httpMailer struct {
	apiURL     string
	apiToken   string
	from       string
	httpClient *http.Client
	logger     *zap.Logger
}

// New returns an HTTP API mailer, or a log-only mailer when no API URL is
// configured (development and test environments).
func New(cfg *config.Config, logger *zap.Logger) Mailer {
	if cfg.MailerAPIURL == "" {
		logger.Warn("MAILER_API_URL not set; outbound mail will be logged, not delivered")
		return &logMailer{logger: logger.Named("LogMailer")}
	}
	return &httpMailer{
		apiURL:     cfg.MailerAPIURL,
		apiToken:   cfg.MailerAPIToken,
		from:       cfg.MailerFromAddress,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger.Named("HTTPMailer"),
	}
}

func (m *httpMailer) Send(ctx context.Context, to, subject, html string) error {
	payload, err := json.Marshal(sendRequest{
		From:    recipient{Email: m.from},
		To:      []recipient{{Email: to}},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiToken)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mail API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("mail API returned status %d", resp.StatusCode)
	}

	m.logger.Info("Email dispatched", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// logMailer records the mail instead of sending it.
type logMailer struct {
	logger *zap.Logger
}

func (m *logMailer) Send(_ context.Context, to, subject, html string) error {
	m.logger.Info("Email (not delivered, mailer unconfigured)",
		zap.String("to", to), zap.String("subject", subject), zap.Int("body_bytes", len(html)))
	return nil
}
