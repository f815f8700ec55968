package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/itadmit/ipalsam-sub000/internal/domain/entity"
	"github.com/itadmit/ipalsam-sub000/internal/domain/repository"
	"github.com/jackc/pgx/v5"
)

var _ repository.DepartmentRepository = (*DepartmentRepo)(nil)

const departmentColumns = `
	id, name, auto_approve_requests, allow_immediate, allow_scheduled,
	created_at, updated_at`

// DepartmentRepo PostgreSQL adapter for departments. Works with pool or tx.
type DepartmentRepo struct {
	q Querier
}

// NewDepartmentRepository builds the adapter. Pass pool or tx (Querier).
func NewDepartmentRepository(q Querier) *DepartmentRepo {
	return &DepartmentRepo{q: q}
}

// Create persists a new department.
func (r *DepartmentRepo) Create(dep *entity.Department) error {
	query := `
		INSERT INTO departments (` + departmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(context.Background(), query,
		dep.ID, dep.Name, dep.Policy.AutoApproveRequests,
		dep.Policy.AllowImmediate, dep.Policy.AllowScheduled,
		dep.CreatedAt, dep.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert department: %w", err)
	}
	return nil
}

// GetByID fetches one department, nil when missing.
func (r *DepartmentRepo) GetByID(id string) (*entity.Department, error) {
	query := `SELECT` + departmentColumns + ` FROM departments WHERE id = $1`
	var d entity.Department
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&d.ID, &d.Name, &d.Policy.AutoApproveRequests,
		&d.Policy.AllowImmediate, &d.Policy.AllowScheduled,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get department: %w", err)
	}
	return &d, nil
}

// Update writes name and policy flags back.
func (r *DepartmentRepo) Update(dep *entity.Department) error {
	query := `
		UPDATE departments SET
			name = $2, auto_approve_requests = $3, allow_immediate = $4,
			allow_scheduled = $5, updated_at = $6
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		dep.ID, dep.Name, dep.Policy.AutoApproveRequests,
		dep.Policy.AllowImmediate, dep.Policy.AllowScheduled, dep.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update department: %w", err)
	}
	return nil
}

// List pages departments by name.
func (r *DepartmentRepo) List(limit, offset int) ([]*entity.Department, error) {
	query := `SELECT` + departmentColumns + `
		FROM departments ORDER BY name LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(context.Background(), query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	defer rows.Close()
	var list []*entity.Department
	for rows.Next() {
		var d entity.Department
		if err := rows.Scan(
			&d.ID, &d.Name, &d.Policy.AutoApproveRequests,
			&d.Policy.AllowImmediate, &d.Policy.AllowScheduled,
			&d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan department: %w", err)
		}
		list = append(list, &d)
	}
	return list, rows.Err()
}
