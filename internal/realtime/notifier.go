package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/marviero/backoffice/internal/event"
	"github.com/marviero/backoffice/pkg/kafka"
)

// Notifier consumes order events and fans them out to the rooms that care:
// the tenant's client room and admin-room.
type Notifier struct {
	hub *Hub
	log *slog.Logger
}

// NewNotifier creates a notifier over the hub.
func NewNotifier(hub *Hub, log *slog.Logger) *Notifier {
	return &Notifier{hub: hub, log: log}
}

// Handle is the kafka consumer handler. Malformed payloads are an error so
// the consumer's retry/drop policy applies.
func (n *Notifier) Handle(_ context.Context, evt *kafka.Event) error {
	var payload event.OrderPayload
	if err := evt.Decode(&payload); err != nil {
		return fmt.Errorf("decode order payload: %w", err)
	}

	n.hub.Broadcast(AdminRoom, evt.Type, json.RawMessage(evt.Payload))
	if payload.ClientID != nil {
		n.hub.Broadcast(ClientRoom(*payload.ClientID), evt.Type, json.RawMessage(evt.Payload))
	}

	n.log.Debug("event dispatched",
		slog.String("event", evt.Type),
		slog.String("subject", evt.Subject),
	)
	return nil
}
