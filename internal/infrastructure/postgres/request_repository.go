package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/itadmit/ipalsam-sub000/internal/domain/entity"
	"github.com/itadmit/ipalsam-sub000/internal/domain/repository"
	"github.com/jackc/pgx/v5"
)

var _ repository.RequestRepository = (*RequestRepo)(nil)

const requestColumns = `
	id, group_id, requester_id, department_id, item_type_id, unit_id, quantity,
	status, urgency, recipient_name, recipient_phone,
	scheduled_pickup_at, scheduled_return_at,
	first_approved_by, approved_by, approved_at,
	rejected_by, rejected_at, reject_reason,
	handed_over_by, handed_over_at, returned_by, returned_at,
	closed_by, closed_at, created_at, updated_at`

// RequestRepo PostgreSQL adapter for request lines. Works with pool or tx.
type RequestRepo struct {
	q Querier
}

// NewRequestRepository builds the adapter. Pass pool or tx (Querier).
func NewRequestRepository(q Querier) *RequestRepo {
	return &RequestRepo{q: q}
}

func scanRequest(row pgx.Row) (*entity.Request, error) {
	var req entity.Request
	err := row.Scan(
		&req.ID, &req.GroupID, &req.RequesterID, &req.DepartmentID, &req.ItemTypeID,
		&req.UnitID, &req.Quantity, &req.Status, &req.Urgency,
		&req.RecipientName, &req.RecipientPhone,
		&req.ScheduledPickupAt, &req.ScheduledReturnAt,
		&req.FirstApprovedBy, &req.ApprovedBy, &req.ApprovedAt,
		&req.RejectedBy, &req.RejectedAt, &req.RejectReason,
		&req.HandedOverBy, &req.HandedOverAt, &req.ReturnedBy, &req.ReturnedAt,
		&req.ClosedBy, &req.ClosedAt, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan request: %w", err)
	}
	return &req, nil
}

func collectRequests(rows pgx.Rows) ([]*entity.Request, error) {
	var list []*entity.Request
	for rows.Next() {
		var req entity.Request
		if err := rows.Scan(
			&req.ID, &req.GroupID, &req.RequesterID, &req.DepartmentID, &req.ItemTypeID,
			&req.UnitID, &req.Quantity, &req.Status, &req.Urgency,
			&req.RecipientName, &req.RecipientPhone,
			&req.ScheduledPickupAt, &req.ScheduledReturnAt,
			&req.FirstApprovedBy, &req.ApprovedBy, &req.ApprovedAt,
			&req.RejectedBy, &req.RejectedAt, &req.RejectReason,
			&req.HandedOverBy, &req.HandedOverAt, &req.ReturnedBy, &req.ReturnedAt,
			&req.ClosedBy, &req.ClosedAt, &req.CreatedAt, &req.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		list = append(list, &req)
	}
	return list, rows.Err()
}

// Create persists a new request line.
func (r *RequestRepo) Create(req *entity.Request) error {
	query := `
		INSERT INTO requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)`
	_, err := r.q.Exec(context.Background(), query,
		req.ID, req.GroupID, req.RequesterID, req.DepartmentID, req.ItemTypeID,
		req.UnitID, req.Quantity, req.Status, req.Urgency,
		req.RecipientName, req.RecipientPhone,
		req.ScheduledPickupAt, req.ScheduledReturnAt,
		req.FirstApprovedBy, req.ApprovedBy, req.ApprovedAt,
		req.RejectedBy, req.RejectedAt, req.RejectReason,
		req.HandedOverBy, req.HandedOverAt, req.ReturnedBy, req.ReturnedAt,
		req.ClosedBy, req.ClosedAt, req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

// GetByID fetches one request, nil when missing.
func (r *RequestRepo) GetByID(id string) (*entity.Request, error) {
	query := `SELECT` + requestColumns + ` FROM requests WHERE id = $1`
	return scanRequest(r.q.QueryRow(context.Background(), query, id))
}

// GetForUpdate fetches and locks the request row for the transition.
func (r *RequestRepo) GetForUpdate(id string) (*entity.Request, error) {
	query := `SELECT` + requestColumns + ` FROM requests WHERE id = $1 FOR UPDATE`
	return scanRequest(r.q.QueryRow(context.Background(), query, id))
}

// Update writes the state-machine fields back. Requests are never deleted.
func (r *RequestRepo) Update(req *entity.Request) error {
	query := `
		UPDATE requests SET
			unit_id = $2, status = $3,
			scheduled_pickup_at = $4, scheduled_return_at = $5,
			first_approved_by = $6, approved_by = $7, approved_at = $8,
			rejected_by = $9, rejected_at = $10, reject_reason = $11,
			handed_over_by = $12, handed_over_at = $13,
			returned_by = $14, returned_at = $15,
			closed_by = $16, closed_at = $17, updated_at = $18
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		req.ID, req.UnitID, req.Status,
		req.ScheduledPickupAt, req.ScheduledReturnAt,
		req.FirstApprovedBy, req.ApprovedBy, req.ApprovedAt,
		req.RejectedBy, req.RejectedAt, req.RejectReason,
		req.HandedOverBy, req.HandedOverAt,
		req.ReturnedBy, req.ReturnedAt,
		req.ClosedBy, req.ClosedAt, req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	return nil
}

// List pages requests, filtered by department and status when non-empty.
func (r *RequestRepo) List(departmentID, status string, limit, offset int) ([]*entity.Request, error) {
	query := `SELECT` + requestColumns + `
		FROM requests
		WHERE ($1 = '' OR department_id = $1) AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`
	rows, err := r.q.Query(context.Background(), query, departmentID, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()
	return collectRequests(rows)
}

// ListByGroup fetches every line of one checkout group.
func (r *RequestRepo) ListByGroup(groupID string) ([]*entity.Request, error) {
	query := `SELECT` + requestColumns + ` FROM requests WHERE group_id = $1 ORDER BY created_at`
	rows, err := r.q.Query(context.Background(), query, groupID)
	if err != nil {
		return nil, fmt.Errorf("list requests by group: %w", err)
	}
	defer rows.Close()
	return collectRequests(rows)
}

// ListHandedOverDueBefore returns the overdue candidates: handed-over
// requests whose scheduled return is before t.
func (r *RequestRepo) ListHandedOverDueBefore(t time.Time) ([]*entity.Request, error) {
	query := `SELECT` + requestColumns + `
		FROM requests
		WHERE status = 'handed_over' AND scheduled_return_at IS NOT NULL
		  AND scheduled_return_at < $1
		ORDER BY scheduled_return_at`
	rows, err := r.q.Query(context.Background(), query, t)
	if err != nil {
		return nil, fmt.Errorf("list overdue requests: %w", err)
	}
	defer rows.Close()
	return collectRequests(rows)
}
