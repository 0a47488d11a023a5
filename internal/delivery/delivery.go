// Package delivery sends outbound SMS through the provider's REST API.
package delivery

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/oppscout/oppscout/internal/config"
)

// Sender delivers one SMS to a phone number.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

type httpSender struct {
	client     *http.Client
	log        *slog.Logger
	endpoint   string
	accountSID string
	authToken  string
	fromNumber string
}

// NewSender creates an SMS sender against the configured provider account.
func NewSender(cfg config.DeliveryConfig, log *slog.Logger) Sender {
	return &httpSender{
		client:     &http.Client{Timeout: cfg.Timeout},
		log:        log.With("component", "delivery"),
		endpoint:   fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", strings.TrimRight(cfg.BaseURL, "/"), cfg.AccountSID),
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		fromNumber: cfg.FromNumber,
	}
}

func (s *httpSender) Send(ctx context.Context, to, body string) error {
	if to == "" || body == "" {
		return fmt.Errorf("delivery requires both recipient and body")
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", s.fromNumber)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create delivery request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	// The provider deduplicates retried sends on this key.
	req.Header.Set("Idempotency-Key", uuid.NewString())
	req.SetBasicAuth(s.accountSID, s.authToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("delivery request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		s.log.ErrorContext(ctx, "Delivery API rejected message", "status", resp.StatusCode, "to", to, "response", string(respBody))
		return fmt.Errorf("delivery API returned status %d", resp.StatusCode)
	}

	s.log.InfoContext(ctx, "Message delivered", "to", to, "length", len(body))
	return nil
}
