package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/itadmit/ipalsam-sub000/internal/domain/entity"
	"github.com/itadmit/ipalsam-sub000/internal/domain/repository"
	"github.com/jackc/pgx/v5"
)

var _ repository.SignatureRepository = (*SignatureRepo)(nil)

// SignatureRepo PostgreSQL adapter for confirmation records. Insert-only.
type SignatureRepo struct {
	q Querier
}

// NewSignatureRepository builds the adapter. Pass pool or tx (Querier).
func NewSignatureRepository(q Querier) *SignatureRepo {
	return &SignatureRepo{q: q}
}

// Create appends one confirmation record.
func (r *SignatureRepo) Create(sig *entity.Signature) error {
	query := `
		INSERT INTO signatures (id, movement_id, request_id, kind, confirmed, pin, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(context.Background(), query,
		sig.ID, sig.MovementID, sig.RequestID, sig.Kind, sig.Confirmed, sig.PIN, sig.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert signature: %w", err)
	}
	return nil
}

// GetByRequestAndKind fetches the handover or return confirmation of a
// request, nil when absent.
func (r *SignatureRepo) GetByRequestAndKind(requestID, kind string) (*entity.Signature, error) {
	query := `
		SELECT id, movement_id, request_id, kind, confirmed, pin, created_at
		FROM signatures WHERE request_id = $1 AND kind = $2`
	var s entity.Signature
	err := r.q.QueryRow(context.Background(), query, requestID, kind).Scan(
		&s.ID, &s.MovementID, &s.RequestID, &s.Kind, &s.Confirmed, &s.PIN, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get signature: %w", err)
	}
	return &s, nil
}
