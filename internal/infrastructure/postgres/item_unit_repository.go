package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/itadmit/ipalsam-sub000/internal/domain"
	"github.com/itadmit/ipalsam-sub000/internal/domain/entity"
	"github.com/itadmit/ipalsam-sub000/internal/domain/repository"
	"github.com/jackc/pgx/v5"
)

var _ repository.ItemUnitRepository = (*ItemUnitRepo)(nil)

const itemUnitColumns = `
	id, item_type_id, serial_number, status, holder_id, created_at, updated_at`

// ItemUnitRepo PostgreSQL adapter for serialized units. Works with pool or tx.
type ItemUnitRepo struct {
	q Querier
}

// NewItemUnitRepository builds the adapter. Pass pool or tx (Querier).
func NewItemUnitRepository(q Querier) *ItemUnitRepo {
	return &ItemUnitRepo{q: q}
}

func scanItemUnit(row pgx.Row) (*entity.ItemUnit, error) {
	var u entity.ItemUnit
	err := row.Scan(
		&u.ID, &u.ItemTypeID, &u.SerialNumber, &u.Status, &u.HolderID,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan item unit: %w", err)
	}
	return &u, nil
}

// Create persists a unit. The (item_type_id, serial_number) unique index
// enforces serial uniqueness per item type.
func (r *ItemUnitRepo) Create(unit *entity.ItemUnit) error {
	query := `
		INSERT INTO item_units (` + itemUnitColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(context.Background(), query,
		unit.ID, unit.ItemTypeID, unit.SerialNumber, unit.Status, unit.HolderID,
		unit.CreatedAt, unit.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("serial %q: %w", unit.SerialNumber, domain.ErrDuplicateSerial)
		}
		return fmt.Errorf("insert item unit: %w", err)
	}
	return nil
}

// GetByID fetches one unit, nil when missing.
func (r *ItemUnitRepo) GetByID(id string) (*entity.ItemUnit, error) {
	query := `SELECT` + itemUnitColumns + ` FROM item_units WHERE id = $1`
	return scanItemUnit(r.q.QueryRow(context.Background(), query, id))
}

// GetForUpdate fetches and locks one unit row.
func (r *ItemUnitRepo) GetForUpdate(id string) (*entity.ItemUnit, error) {
	query := `SELECT` + itemUnitColumns + ` FROM item_units WHERE id = $1 FOR UPDATE`
	return scanItemUnit(r.q.QueryRow(context.Background(), query, id))
}

// NextAvailableForUpdate selects and locks the oldest available unit of the
// item type. Callers already hold the item type row lock, so selection is
// serialized and the same unit is never handed out twice.
func (r *ItemUnitRepo) NextAvailableForUpdate(itemTypeID string) (*entity.ItemUnit, error) {
	query := `SELECT` + itemUnitColumns + `
		FROM item_units
		WHERE item_type_id = $1 AND status = 'available'
		ORDER BY created_at, id
		LIMIT 1
		FOR UPDATE`
	return scanItemUnit(r.q.QueryRow(context.Background(), query, itemTypeID))
}

// Update writes status, holder and timestamp back.
func (r *ItemUnitRepo) Update(unit *entity.ItemUnit) error {
	query := `
		UPDATE item_units SET status = $2, holder_id = $3, updated_at = $4
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		unit.ID, unit.Status, unit.HolderID, unit.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update item unit: %w", err)
	}
	return nil
}

// ListByItemType enumerates units of an item type, filtered by status when
// status != "", in stable creation order.
func (r *ItemUnitRepo) ListByItemType(itemTypeID, status string) ([]*entity.ItemUnit, error) {
	query := `SELECT` + itemUnitColumns + `
		FROM item_units
		WHERE item_type_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at, id`
	rows, err := r.q.Query(context.Background(), query, itemTypeID, status)
	if err != nil {
		return nil, fmt.Errorf("list item units: %w", err)
	}
	defer rows.Close()
	var list []*entity.ItemUnit
	for rows.Next() {
		var u entity.ItemUnit
		if err := rows.Scan(
			&u.ID, &u.ItemTypeID, &u.SerialNumber, &u.Status, &u.HolderID,
			&u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan item unit: %w", err)
		}
		list = append(list, &u)
	}
	return list, rows.Err()
}

// CountByStatus counts units of an item type in one status.
func (r *ItemUnitRepo) CountByStatus(itemTypeID, status string) (int, error) {
	query := `SELECT count(*) FROM item_units WHERE item_type_id = $1 AND status = $2`
	var n int
	if err := r.q.QueryRow(context.Background(), query, itemTypeID, status).Scan(&n); err != nil {
		return 0, fmt.Errorf("count item units: %w", err)
	}
	return n, nil
}
