// Package audit defines the audit event emitted after every mutating
// operation and the sink port that carries it. Durability and querying of
// events belong to the sink; the engine only guarantees it reports intent.
package audit

import (
	"context"
	"time"

	"github.com/itadmit/ipalsam-sub000/pkg/logger"
)

// Event describes one mutating operation for the audit trail.
type Event struct {
	Action     string // e.g. "request.handover", "item.intake"
	EntityType string // "request" | "item_type" | "item_unit" | "department"
	EntityID   string
	ActorID    string
	Before     any
	After      any
	At         time.Time
}

// Sink receives audit events. Implementations decide durability.
type Sink interface {
	Emit(ctx context.Context, ev Event) error
}

// Emitter sends events to a sink without ever failing the primary operation:
// a sink error is logged and swallowed. At-least-once is the sink's problem.
type Emitter struct {
	sink Sink
	log  *logger.Logger
}

// NewEmitter builds the emitter. A nil sink disables emission.
func NewEmitter(sink Sink, log *logger.Logger) *Emitter {
	return &Emitter{sink: sink, log: log}
}

// Emit forwards the event, logging failures instead of returning them.
func (e *Emitter) Emit(ctx context.Context, ev Event) {
	if e == nil || e.sink == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	if err := e.sink.Emit(ctx, ev); err != nil && e.log != nil {
		e.log.Warn().
			Err(err).
			Str("action", ev.Action).
			Str("entity_type", ev.EntityType).
			Str("entity_id", ev.EntityID).
			Msg("audit emission failed")
	}
}
