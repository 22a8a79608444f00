package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"condo-billing/internal/eventing"
)

const (
	defaultOutboxTable = "event_outbox"
	defaultMaxAttempts = 5
)

// OutboxStore is a Postgres implementation for outbox records.
// Failed records are retried until they reach the attempt limit.
type OutboxStore struct {
	db          *sql.DB
	table       string
	maxAttempts int
}

// OutboxOption configures the outbox store.
type OutboxOption func(*OutboxStore)

// WithOutboxTable overrides the table name.
func WithOutboxTable(table string) OutboxOption {
	return func(store *OutboxStore) {
		if table != "" {
			store.table = table
		}
	}
}

// WithMaxAttempts sets how many deliveries are tried before a record is parked as failed.
func WithMaxAttempts(attempts int) OutboxOption {
	return func(store *OutboxStore) {
		if attempts > 0 {
			store.maxAttempts = attempts
		}
	}
}

// NewOutboxStore constructs an outbox store.
func NewOutboxStore(db *sql.DB, opts ...OutboxOption) *OutboxStore {
	store := &OutboxStore{db: db, table: defaultOutboxTable, maxAttempts: defaultMaxAttempts}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Insert writes an envelope to the outbox.
func (s *OutboxStore) Insert(ctx context.Context, env eventing.Envelope) (string, error) {
	if s == nil || s.db == nil {
		return "", errors.New("outbox store: nil db")
	}
	return s.insert(ctx, s.db, env)
}

// WithTx returns a writer that inserts inside tx, so the outbox row commits or
// rolls back together with the caller's state change.
func (s *OutboxStore) WithTx(tx *sql.Tx) eventing.OutboxWriter {
	return txWriter{store: s, tx: tx}
}

type txWriter struct {
	store *OutboxStore
	tx    *sql.Tx
}

func (w txWriter) Insert(ctx context.Context, env eventing.Envelope) (string, error) {
	if w.store == nil || w.tx == nil {
		return "", errors.New("outbox store: nil tx")
	}
	return w.store.insert(ctx, w.tx, env)
}

func (s *OutboxStore) insert(ctx context.Context, exec execer, env eventing.Envelope) (string, error) {
	payload, err := json.Marshal(env)
	if err != nil {
		return "", err
	}
	outboxID := eventing.NewEventID()
	query := fmt.Sprintf(`
INSERT INTO %s (
	id, event_id, event_type, aggregate_type, aggregate_id, tenant_id, building_id,
	payload, status, attempts, created_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, 'pending', 0, $9
)`, s.table)

	_, err = exec.ExecContext(ctx, query, outboxID, env.EventID, env.EventType, env.AggregateType, env.AggregateID,
		env.TenantID, env.BuildingID, payload, time.Now().UTC())
	if err != nil {
		return "", err
	}
	return outboxID, nil
}

// ListPending returns pending outbox records, oldest first.
func (s *OutboxStore) ListPending(ctx context.Context, limit int) ([]eventing.OutboxRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("outbox store: nil db")
	}
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`
SELECT id, payload
FROM %s
WHERE status = 'pending'
ORDER BY created_at ASC
LIMIT $1`, s.table)

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []eventing.OutboxRecord
	for rows.Next() {
		var id string
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		var env eventing.Envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			return nil, err
		}
		result = append(result, eventing.OutboxRecord{ID: id, Envelope: env})
	}
	return result, rows.Err()
}

// MarkSent marks an outbox record as delivered.
func (s *OutboxStore) MarkSent(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return errors.New("outbox store: nil db")
	}
	query := fmt.Sprintf(`UPDATE %s SET status = 'sent', sent_at = $1 WHERE id = $2`, s.table)
	_, err := s.db.ExecContext(ctx, query, time.Now().UTC(), id)
	return err
}

// MarkFailed counts a failed delivery and parks the record once the limit is reached.
func (s *OutboxStore) MarkFailed(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return errors.New("outbox store: nil db")
	}
	query := fmt.Sprintf(`
UPDATE %s
SET attempts = attempts + 1,
	status = CASE WHEN attempts + 1 >= $2 THEN 'failed' ELSE 'pending' END
WHERE id = $1`, s.table)
	_, err := s.db.ExecContext(ctx, query, id, s.maxAttempts)
	return err
}
