package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/marviero/backoffice/internal/domain"
	"github.com/marviero/backoffice/pkg/kafka"
	"github.com/marviero/backoffice/pkg/logger"
)

// Source identifies this application in event envelopes.
const Source = "backoffice-api"

// Topics published by this package.
var (
	TopicOrderCreated  = kafka.Topic("order", "created")
	TopicOrderUpdated  = kafka.Topic("order", "updated")
	TopicInvoiceIssued = kafka.Topic("invoice", "issued")
)

// OrderPayload is the data block of order events. ClientID is what the
// realtime layer routes on.
type OrderPayload struct {
	OrderID   string  `json:"order_id"`
	Number    string  `json:"number"`
	Direction string  `json:"direction"`
	Status    string  `json:"status"`
	ClientID  *string `json:"client_id,omitempty"`
	Total     int64   `json:"total"`
	Currency  string  `json:"currency"`
}

// InvoicePayload is the data block of invoice events.
type InvoicePayload struct {
	InvoiceID string `json:"invoice_id"`
	Number    string `json:"number"`
	OrderID   string `json:"order_id"`
	ClientID  string `json:"client_id"`
	Status    string `json:"status"`
	Total     int64  `json:"total"`
	Currency  string `json:"currency"`
}

// Publisher abstracts the Kafka producer for testing.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *kafka.Event) error
}

// Producer publishes domain events. Publish failures are logged, never
// propagated: notifications are best-effort and must not fail the mutation
// that triggered them.
type Producer struct {
	publisher Publisher
	log       *slog.Logger
}

// NewProducer creates a domain event producer.
func NewProducer(publisher Publisher, log *slog.Logger) *Producer {
	return &Producer{publisher: publisher, log: log}
}

// OrderCreated publishes an order.created event.
func (p *Producer) OrderCreated(ctx context.Context, o *domain.Order) {
	p.publishOrder(ctx, TopicOrderCreated, "order.created", o)
}

// OrderUpdated publishes an order.updated event.
func (p *Producer) OrderUpdated(ctx context.Context, o *domain.Order) {
	p.publishOrder(ctx, TopicOrderUpdated, "order.updated", o)
}

func (p *Producer) publishOrder(ctx context.Context, topic, eventType string, o *domain.Order) {
	payload := OrderPayload{
		OrderID:   o.ID,
		Number:    o.Number,
		Direction: string(o.Direction),
		Status:    o.Status,
		ClientID:  o.ClientID,
		Total:     o.TotalAmount,
		Currency:  o.Currency,
	}
	p.publish(ctx, topic, eventType, o.ID, "order", payload)
}

// InvoiceIssued publishes an invoice.issued event.
func (p *Producer) InvoiceIssued(ctx context.Context, inv *domain.Invoice) {
	payload := InvoicePayload{
		InvoiceID: inv.ID,
		Number:    inv.Number,
		OrderID:   inv.OrderID,
		ClientID:  inv.ClientID,
		Status:    inv.Status,
		Total:     inv.Total,
		Currency:  inv.Currency,
	}
	p.publish(ctx, TopicInvoiceIssued, "invoice.issued", inv.ID, "invoice", payload)
}

func (p *Producer) publish(ctx context.Context, topic, eventType, subject, kind string, payload any) {
	ev, err := kafka.NewEvent(eventType, subject, kind, Source, payload)
	if err != nil {
		p.log.ErrorContext(ctx, "build event failed",
			slog.String("type", eventType),
			slog.String("error", err.Error()),
		)
		return
	}
	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		ev.WithCorrelationID(cid)
	}

	if err := p.publisher.Publish(ctx, topic, ev); err != nil {
		p.log.ErrorContext(ctx, "publish event failed",
			slog.String("topic", topic),
			slog.String("type", eventType),
			slog.String("error", fmt.Sprintf("%v", err)),
		)
	}
}
