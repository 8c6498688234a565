package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event is the envelope every message on the wire is wrapped in.
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Subject       string          `json:"subject"`
	SubjectKind   string          `json:"subject_kind"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Origin        string          `json:"origin"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEvent builds an envelope around the given payload. Subject is the ID of
// the entity the event is about (used as the partition key), kind names its
// entity type.
func NewEvent(eventType, subject, kind, origin string, payload any) (*Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	return &Event{
		ID:          uuid.New().String(),
		Type:        eventType,
		Subject:     subject,
		SubjectKind: kind,
		OccurredAt:  time.Now().UTC(),
		Origin:      origin,
		Payload:     raw,
	}, nil
}

// WithCorrelationID attaches a correlation ID for tracing across services.
func (e *Event) WithCorrelationID(id string) *Event {
	e.CorrelationID = id
	return e
}

// Marshal serializes the envelope to JSON.
func (e *Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Decode unmarshals the payload into target.
func (e *Event) Decode(target any) error {
	return json.Unmarshal(e.Payload, target)
}

// ParseEvent deserializes an envelope from JSON bytes.
func ParseEvent(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("parse event: %w", err)
	}
	return &e, nil
}

// TopicPrefix namespaces every topic this application produces.
const TopicPrefix = "backoffice"

// Topic builds a fully qualified topic name, e.g. Topic("order", "created")
// -> "backoffice.order.created".
func Topic(entity, action string) string {
	return fmt.Sprintf("%s.%s.%s", TopicPrefix, entity, action)
}
