package eventing

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrNoAggregate is returned for events that do not name their aggregate.
var ErrNoAggregate = errors.New("eventing: event has no aggregate")

// Event is implemented by payloads that belong to an aggregate, such as a charge announcement.
type Event interface {
	Aggregate() (typ, id string)
}

// Envelope wraps an event payload with routing metadata.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	OccurredAt    time.Time       `json:"occurred_at"`
	CorrelationID string          `json:"correlation_id"`
	TenantID      string          `json:"tenant_id"`
	BuildingID    string          `json:"building_id"`
	SchemaVersion int             `json:"schema_version"`
	Payload       json.RawMessage `json:"payload"`
}

// Meta carries envelope fields that are not part of the payload.
type Meta struct {
	EventID       string
	OccurredAt    time.Time
	CorrelationID string
	TenantID      string
	BuildingID    string
	SchemaVersion int
}

// BuildEnvelope serializes event and stamps it with its aggregate and meta.
// A missing event id, time, correlation id or schema version is filled in.
func BuildEnvelope(event Event, meta Meta) (Envelope, error) {
	if event == nil {
		return Envelope{}, ErrNilEvent
	}
	aggregateType, aggregateID := event.Aggregate()
	if aggregateType == "" || aggregateID == "" {
		return Envelope{}, ErrNoAggregate
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return Envelope{}, err
	}

	env := Envelope{
		EventID:       meta.EventID,
		EventType:     EventType(event),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		OccurredAt:    meta.OccurredAt,
		CorrelationID: meta.CorrelationID,
		TenantID:      meta.TenantID,
		BuildingID:    meta.BuildingID,
		SchemaVersion: meta.SchemaVersion,
		Payload:       payload,
	}
	if env.EventID == "" {
		env.EventID = NewEventID()
	}
	if env.OccurredAt.IsZero() {
		env.OccurredAt = time.Now()
	}
	env.OccurredAt = env.OccurredAt.UTC()
	if env.CorrelationID == "" {
		env.CorrelationID = env.EventID
	}
	if env.SchemaVersion == 0 {
		env.SchemaVersion = 1
	}
	return env, nil
}
