package memory

import (
	"context"
	"sync"

	"condo-billing/internal/eventing"
)

const (
	statusPending = "pending"
	statusSent    = "sent"
	statusFailed  = "failed"
)

type outboxEntry struct {
	record eventing.OutboxRecord
	status string
}

// OutboxStore keeps outbox records in insertion order.
type OutboxStore struct {
	mu      sync.Mutex
	entries []*outboxEntry
}

// NewOutboxStore constructs an empty store.
func NewOutboxStore() *OutboxStore {
	return &OutboxStore{}
}

// Insert appends a pending record.
func (s *OutboxStore) Insert(_ context.Context, env eventing.Envelope) (string, error) {
	id := eventing.NewEventID()
	s.mu.Lock()
	s.entries = append(s.entries, &outboxEntry{
		record: eventing.OutboxRecord{ID: id, Envelope: env},
		status: statusPending,
	})
	s.mu.Unlock()
	return id, nil
}

// ListPending returns up to limit pending records.
func (s *OutboxStore) ListPending(_ context.Context, limit int) ([]eventing.OutboxRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []eventing.OutboxRecord
	for _, entry := range s.entries {
		if entry.status != statusPending {
			continue
		}
		out = append(out, entry.record)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// MarkSent marks a record as delivered.
func (s *OutboxStore) MarkSent(_ context.Context, id string) error {
	s.setStatus(id, statusSent)
	return nil
}

// MarkFailed marks a record as failed.
func (s *OutboxStore) MarkFailed(_ context.Context, id string) error {
	s.setStatus(id, statusFailed)
	return nil
}

// Envelopes returns every stored envelope regardless of status.
func (s *OutboxStore) Envelopes() []eventing.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]eventing.Envelope, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, entry.record.Envelope)
	}
	return out
}

func (s *OutboxStore) setStatus(id, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.entries {
		if entry.record.ID == id {
			entry.status = status
			return
		}
	}
}

// ProcessedStore remembers consumed event ids per consumer.
type ProcessedStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewProcessedStore constructs an empty store.
func NewProcessedStore() *ProcessedStore {
	return &ProcessedStore{seen: make(map[string]struct{})}
}

// HasProcessed reports whether the consumer already handled the event.
func (s *ProcessedStore) HasProcessed(_ context.Context, eventID, consumerName string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[consumerName+"|"+eventID]
	return ok, nil
}

// MarkProcessed records the event as handled by the consumer.
func (s *ProcessedStore) MarkProcessed(_ context.Context, eventID, consumerName string) error {
	s.mu.Lock()
	s.seen[consumerName+"|"+eventID] = struct{}{}
	s.mu.Unlock()
	return nil
}
