package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/itadmit/ipalsam-sub000/internal/domain/entity"
	"github.com/itadmit/ipalsam-sub000/internal/domain/repository"
	"github.com/jackc/pgx/v5"
)

var _ repository.ItemTypeRepository = (*ItemTypeRepo)(nil)

const itemTypeColumns = `
	id, department_id, name, tracking_mode, total_qty, available_qty, in_use_qty,
	minimum_alert, double_approve, max_loan_days, active, created_at, updated_at`

// ItemTypeRepo PostgreSQL adapter for the catalog. Works with pool or tx.
type ItemTypeRepo struct {
	q Querier
}

// NewItemTypeRepository builds the adapter. Pass pool or tx (Querier).
func NewItemTypeRepository(q Querier) *ItemTypeRepo {
	return &ItemTypeRepo{q: q}
}

func scanItemType(row pgx.Row) (*entity.ItemType, error) {
	var t entity.ItemType
	err := row.Scan(
		&t.ID, &t.DepartmentID, &t.Name, &t.TrackingMode, &t.Total, &t.Available,
		&t.InUse, &t.MinimumAlert, &t.DoubleApprove, &t.MaxLoanDays, &t.Active,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan item type: %w", err)
	}
	return &t, nil
}

// Create persists a new catalog entry.
func (r *ItemTypeRepo) Create(item *entity.ItemType) error {
	query := `
		INSERT INTO item_types (` + itemTypeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(context.Background(), query,
		item.ID, item.DepartmentID, item.Name, item.TrackingMode, item.Total,
		item.Available, item.InUse, item.MinimumAlert, item.DoubleApprove,
		item.MaxLoanDays, item.Active, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert item type: %w", err)
	}
	return nil
}

// GetByID fetches one catalog entry, nil when missing.
func (r *ItemTypeRepo) GetByID(id string) (*entity.ItemType, error) {
	query := `SELECT` + itemTypeColumns + ` FROM item_types WHERE id = $1`
	return scanItemType(r.q.QueryRow(context.Background(), query, id))
}

// GetForUpdate fetches and locks the row for the rest of the transaction.
func (r *ItemTypeRepo) GetForUpdate(id string) (*entity.ItemType, error) {
	query := `SELECT` + itemTypeColumns + ` FROM item_types WHERE id = $1 FOR UPDATE`
	return scanItemType(r.q.QueryRow(context.Background(), query, id))
}

// Update writes counters, policy attributes and timestamps back.
func (r *ItemTypeRepo) Update(item *entity.ItemType) error {
	query := `
		UPDATE item_types SET
			name = $2, total_qty = $3, available_qty = $4, in_use_qty = $5,
			minimum_alert = $6, double_approve = $7, max_loan_days = $8,
			active = $9, updated_at = $10
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		item.ID, item.Name, item.Total, item.Available, item.InUse,
		item.MinimumAlert, item.DoubleApprove, item.MaxLoanDays, item.Active,
		item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update item type: %w", err)
	}
	return nil
}

// List pages catalog entries, scoped to a department when departmentID != "".
func (r *ItemTypeRepo) List(departmentID string, limit, offset int) ([]*entity.ItemType, error) {
	query := `SELECT` + itemTypeColumns + `
		FROM item_types
		WHERE ($1 = '' OR department_id = $1)
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, departmentID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list item types: %w", err)
	}
	defer rows.Close()
	return collectItemTypes(rows)
}

// ListBelowMinimum returns active quantity items under their alert threshold.
func (r *ItemTypeRepo) ListBelowMinimum(departmentID string) ([]*entity.ItemType, error) {
	query := `SELECT` + itemTypeColumns + `
		FROM item_types
		WHERE active AND tracking_mode = 'quantity'
		  AND minimum_alert > 0 AND available_qty < minimum_alert
		  AND ($1 = '' OR department_id = $1)
		ORDER BY name`
	rows, err := r.q.Query(context.Background(), query, departmentID)
	if err != nil {
		return nil, fmt.Errorf("list low-stock item types: %w", err)
	}
	defer rows.Close()
	return collectItemTypes(rows)
}

func collectItemTypes(rows pgx.Rows) ([]*entity.ItemType, error) {
	var list []*entity.ItemType
	for rows.Next() {
		var t entity.ItemType
		if err := rows.Scan(
			&t.ID, &t.DepartmentID, &t.Name, &t.TrackingMode, &t.Total, &t.Available,
			&t.InUse, &t.MinimumAlert, &t.DoubleApprove, &t.MaxLoanDays, &t.Active,
			&t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan item type: %w", err)
		}
		list = append(list, &t)
	}
	return list, rows.Err()
}

// Deactivate soft-deactivates an entry; history stays intact.
func (r *ItemTypeRepo) Deactivate(id string) error {
	query := `UPDATE item_types SET active = false, updated_at = now() WHERE id = $1`
	if _, err := r.q.Exec(context.Background(), query, id); err != nil {
		return fmt.Errorf("deactivate item type: %w", err)
	}
	return nil
}

// Purge hard-deletes the entry; units, requests, movements and signatures go
// with it through cascading foreign keys.
func (r *ItemTypeRepo) Purge(id string) error {
	query := `DELETE FROM item_types WHERE id = $1`
	if _, err := r.q.Exec(context.Background(), query, id); err != nil {
		return fmt.Errorf("purge item type: %w", err)
	}
	return nil
}
