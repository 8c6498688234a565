package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/marviero/backoffice/internal/domain"
	"github.com/marviero/backoffice/pkg/httpclient"
	"github.com/marviero/backoffice/pkg/logger"
)

// signatureHeader carries the HMAC-SHA256 of the request body, hex-encoded,
// so receivers can verify the payload came from us.
const signatureHeader = "X-Backoffice-Signature"

// invoicePayload is the wire shape delivered to the configured endpoint.
type invoicePayload struct {
	Event         string     `json:"event"`
	InvoiceID     string     `json:"invoice_id"`
	Number        string     `json:"number"`
	OrderID       string     `json:"order_id"`
	ClientID      string     `json:"client_id"`
	Total         int64      `json:"total"`
	Currency      string     `json:"currency"`
	IssuedAt      *time.Time `json:"issued_at,omitempty"`
	DueAt         *time.Time `json:"due_at,omitempty"`
	CorrelationID string     `json:"correlation_id,omitempty"`
}

// poster is the subset of the HTTP client the sender needs.
type poster interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Sender delivers invoice notifications to an external endpoint. Delivery
// is best-effort: failures are logged, never surfaced to the caller.
type Sender struct {
	client poster
	url    string
	secret string
	log    *slog.Logger
}

// NewSender creates a webhook sender. An empty URL disables delivery.
func NewSender(client *httpclient.CircuitBreakerClient, url, secret string, log *slog.Logger) *Sender {
	return &Sender{client: client, url: url, secret: secret, log: log}
}

// Enabled reports whether a delivery endpoint is configured.
func (s *Sender) Enabled() bool {
	return s.url != ""
}

// InvoiceIssued posts the issued invoice to the configured endpoint.
func (s *Sender) InvoiceIssued(ctx context.Context, invoice *domain.Invoice) {
	if !s.Enabled() {
		return
	}

	payload := invoicePayload{
		Event:         "invoice.issued",
		InvoiceID:     invoice.ID,
		Number:        invoice.Number,
		OrderID:       invoice.OrderID,
		ClientID:      invoice.ClientID,
		Total:         invoice.Total,
		Currency:      invoice.Currency,
		IssuedAt:      invoice.IssuedAt,
		DueAt:         invoice.DueAt,
		CorrelationID: logger.CorrelationIDFromContext(ctx),
	}

	if err := s.deliver(ctx, payload); err != nil {
		s.log.ErrorContext(ctx, "webhook delivery failed",
			slog.String("invoice_id", invoice.ID),
			slog.String("url", s.url),
			slog.String("error", err.Error()),
		)
		return
	}

	s.log.InfoContext(ctx, "webhook delivered",
		slog.String("invoice_id", invoice.ID),
		slog.String("event", payload.Event),
	)
}

func (s *Sender) deliver(ctx context.Context, payload invoicePayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.secret != "" {
		req.Header.Set(signatureHeader, sign(s.secret, body))
	}

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return err
	}
	defer httpclient.DrainAndClose(resp)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("endpoint returned %d", resp.StatusCode)
	}
	return nil
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
