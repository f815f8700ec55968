package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/itadmit/ipalsam-sub000/internal/application/audit"
)

var _ audit.Sink = (*AuditSink)(nil)

// AuditSink persists audit events in an append-only table. Runs outside the
// engine's transactions on purpose: a sink failure must never roll back the
// operation it describes.
type AuditSink struct {
	q Querier
}

// NewAuditSink builds the sink. Pass the pool.
func NewAuditSink(q Querier) *AuditSink {
	return &AuditSink{q: q}
}

// Emit appends one audit row. Before/after payloads are stored as JSON.
func (s *AuditSink) Emit(ctx context.Context, ev audit.Event) error {
	before, err := json.Marshal(ev.Before)
	if err != nil {
		return fmt.Errorf("marshal audit before: %w", err)
	}
	after, err := json.Marshal(ev.After)
	if err != nil {
		return fmt.Errorf("marshal audit after: %w", err)
	}
	query := `
		INSERT INTO audit_log (id, action, entity_type, entity_id, actor_id, before, after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = s.q.Exec(ctx, query,
		uuid.New().String(), ev.Action, ev.EntityType, ev.EntityID, ev.ActorID,
		before, after, ev.At,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}
