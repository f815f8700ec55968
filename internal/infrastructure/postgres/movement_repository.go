package postgres

import (
	"context"
	"fmt"

	"github.com/itadmit/ipalsam-sub000/internal/domain/entity"
	"github.com/itadmit/ipalsam-sub000/internal/domain/repository"
	"github.com/jackc/pgx/v5"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `
	id, type, item_type_id, unit_id, quantity, source_ref, dest_ref,
	actor_id, request_id, created_at`

// MovementRepo PostgreSQL adapter for the allocation ledger. Insert-only;
// movements are never updated or deleted.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository builds the adapter. Pass pool or tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Create appends one ledger entry.
func (r *MovementRepo) Create(mov *entity.Movement) error {
	query := `
		INSERT INTO movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(context.Background(), query,
		mov.ID, mov.Type, mov.ItemTypeID, mov.UnitID, mov.Quantity,
		mov.SourceRef, mov.DestRef, mov.ActorID, mov.RequestID, mov.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// ListByItemType pages the ledger for one item type, newest first.
func (r *MovementRepo) ListByItemType(itemTypeID string, limit, offset int) ([]*entity.Movement, error) {
	query := `SELECT` + movementColumns + `
		FROM movements WHERE item_type_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, itemTypeID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	return collectMovements(rows)
}

// ListByRequest fetches the movements linked to one request.
func (r *MovementRepo) ListByRequest(requestID string) ([]*entity.Movement, error) {
	query := `SELECT` + movementColumns + `
		FROM movements WHERE request_id = $1 ORDER BY created_at`
	rows, err := r.q.Query(context.Background(), query, requestID)
	if err != nil {
		return nil, fmt.Errorf("list movements by request: %w", err)
	}
	defer rows.Close()
	return collectMovements(rows)
}

func collectMovements(rows pgx.Rows) ([]*entity.Movement, error) {
	var list []*entity.Movement
	for rows.Next() {
		var m entity.Movement
		if err := rows.Scan(
			&m.ID, &m.Type, &m.ItemTypeID, &m.UnitID, &m.Quantity,
			&m.SourceRef, &m.DestRef, &m.ActorID, &m.RequestID, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}
