package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marviero/backoffice/internal/domain"
	"github.com/marviero/backoffice/pkg/httpclient"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestSender(url, secret string) *Sender {
	cfg := httpclient.DefaultConfig()
	cfg.MaxRetries = 0
	cfg.Timeout = 2 * time.Second
	client := httpclient.NewCircuitBreakerClient(
		httpclient.New(cfg),
		httpclient.DefaultCircuitBreakerConfig("webhook-test"),
		newTestLogger(),
	)
	return NewSender(client, url, secret, newTestLogger())
}

func testInvoice() *domain.Invoice {
	issued := domain.Now()
	due := issued.Add(30 * 24 * time.Hour)
	return &domain.Invoice{
		ID:       "inv-1",
		Number:   "INV-000007",
		OrderID:  "order-1",
		ClientID: "client-1",
		Status:   domain.InvoiceStatusIssued,
		Total:    12100,
		Currency: "EUR",
		IssuedAt: &issued,
		DueAt:    &due,
	}
}

func TestSender_InvoiceIssued(t *testing.T) {
	var gotBody []byte
	var gotSignature, gotContentType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSignature = r.Header.Get("X-Backoffice-Signature")
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := newTestSender(srv.URL, "hook-secret")
	sender.InvoiceIssued(context.Background(), testInvoice())

	require.NotEmpty(t, gotBody)
	assert.Equal(t, "application/json", gotContentType)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	assert.Equal(t, "invoice.issued", payload["event"])
	assert.Equal(t, "inv-1", payload["invoice_id"])
	assert.Equal(t, "INV-000007", payload["number"])
	assert.Equal(t, float64(12100), payload["total"])

	mac := hmac.New(sha256.New, []byte("hook-secret"))
	mac.Write(gotBody)
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), gotSignature)
}

func TestSender_NoSignatureWithoutSecret(t *testing.T) {
	var gotSignature string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get("X-Backoffice-Signature")
	}))
	defer srv.Close()

	sender := newTestSender(srv.URL, "")
	sender.InvoiceIssued(context.Background(), testInvoice())

	assert.Empty(t, gotSignature)
}

func TestSender_DisabledWithoutURL(t *testing.T) {
	sender := newTestSender("", "secret")
	assert.False(t, sender.Enabled())

	// must not panic or attempt delivery
	sender.InvoiceIssued(context.Background(), testInvoice())
}

func TestSender_DeliveryFailureIsSwallowed(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sender := newTestSender(srv.URL, "")

	// no panic, no error escapes
	sender.InvoiceIssued(context.Background(), testInvoice())
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}
