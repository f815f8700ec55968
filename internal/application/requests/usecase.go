// Package requests implements the request lifecycle state machine:
// submission, approval, handover, return and closure of loan request lines.
// Every transition runs inside one transaction with the request row locked,
// and legality is a lookup in the lifecycle transition table.
package requests

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/itadmit/ipalsam-sub000/internal/application/audit"
	"github.com/itadmit/ipalsam-sub000/internal/application/dto"
	"github.com/itadmit/ipalsam-sub000/internal/application/ledger"
	"github.com/itadmit/ipalsam-sub000/internal/domain"
	"github.com/itadmit/ipalsam-sub000/internal/domain/entity"
	"github.com/itadmit/ipalsam-sub000/internal/domain/lifecycle"
	"github.com/itadmit/ipalsam-sub000/internal/domain/repository"
)

// RequestUseCase drives one request line through its lifecycle.
type RequestUseCase struct {
	txRunner ledger.TxRunner
	itemRepo repository.ItemTypeRepository
	unitRepo repository.ItemUnitRepository
	reqRepo  repository.RequestRepository
	depRepo  repository.DepartmentRepository
	audit    *audit.Emitter
}

// NewRequestUseCase builds the use case.
func NewRequestUseCase(
	txRunner ledger.TxRunner,
	itemRepo repository.ItemTypeRepository,
	unitRepo repository.ItemUnitRepository,
	reqRepo repository.RequestRepository,
	depRepo repository.DepartmentRepository,
	auditEmitter *audit.Emitter,
) *RequestUseCase {
	return &RequestUseCase{
		txRunner: txRunner,
		itemRepo: itemRepo,
		unitRepo: unitRepo,
		reqRepo:  reqRepo,
		depRepo:  depRepo,
		audit:    auditEmitter,
	}
}

// Submit creates a single request line and, when the department auto-approves
// and stock allows, advances it straight to handed_over. A stock shortage at
// creation time is not an error: the line stays submitted for manual review.
func (uc *RequestUseCase) Submit(ctx context.Context, actor entity.Actor, in dto.SubmitRequestInput) (*entity.Request, error) {
	item, err := uc.itemRepo.GetByID(in.ItemTypeID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item type %s: %w", in.ItemTypeID, domain.ErrNotFound)
	}
	dep, err := uc.depRepo.GetByID(item.DepartmentID)
	if err != nil {
		return nil, err
	}
	if dep == nil {
		return nil, fmt.Errorf("department %s: %w", item.DepartmentID, domain.ErrNotFound)
	}

	req, err := uc.Create(ctx, actor, dep.Policy, in, nil, nil)
	if err != nil {
		return nil, err
	}
	if autoErr := uc.TryAutoApprove(ctx, actor, dep.Policy, req); autoErr != nil && !IsStockError(autoErr) {
		return nil, autoErr
	}
	return req, nil
}

// Create validates input against the department policy and persists a new
// submitted request line. groupID and unitID are set by the group checkout
// coordinator; both are nil for single submissions. No ledger mutation here.
func (uc *RequestUseCase) Create(ctx context.Context, actor entity.Actor, policy entity.DepartmentPolicy, in dto.SubmitRequestInput, groupID, unitID *string) (*entity.Request, error) {
	item, err := uc.itemRepo.GetByID(in.ItemTypeID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item type %s: %w", in.ItemTypeID, domain.ErrNotFound)
	}
	if !item.Active {
		return nil, fmt.Errorf("item %q is deactivated: %w", item.Name, domain.ErrValidation)
	}
	if in.RecipientName == "" {
		return nil, fmt.Errorf("recipient name is required: %w", domain.ErrValidation)
	}

	qty := in.Quantity
	if item.IsSerial() {
		qty = 1
	} else if qty <= 0 {
		return nil, fmt.Errorf("quantity must be positive: %w", domain.ErrValidation)
	}

	switch in.Urgency {
	case entity.UrgencyImmediate:
		if !policy.AllowImmediate {
			return nil, fmt.Errorf("department does not accept immediate requests: %w", domain.ErrValidation)
		}
	case entity.UrgencyScheduled:
		if !policy.AllowScheduled {
			return nil, fmt.Errorf("department does not accept scheduled requests: %w", domain.ErrValidation)
		}
	default:
		return nil, fmt.Errorf("urgency must be immediate or scheduled: %w", domain.ErrValidation)
	}

	now := time.Now()
	if item.MaxLoanDays > 0 && in.ScheduledReturnAt != nil {
		latest := now.AddDate(0, 0, item.MaxLoanDays)
		if in.ScheduledReturnAt.After(latest) {
			return nil, fmt.Errorf("item %q may be loaned for at most %d days: %w",
				item.Name, item.MaxLoanDays, domain.ErrValidation)
		}
	}

	req := &entity.Request{
		ID:                uuid.New().String(),
		GroupID:           groupID,
		RequesterID:       actor.ID,
		DepartmentID:      item.DepartmentID,
		ItemTypeID:        item.ID,
		UnitID:            unitID,
		Quantity:          qty,
		Status:            lifecycle.StatusSubmitted,
		Urgency:           in.Urgency,
		RecipientName:     in.RecipientName,
		RecipientPhone:    in.RecipientPhone,
		ScheduledPickupAt: in.ScheduledPickupAt,
		ScheduledReturnAt: in.ScheduledReturnAt,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := uc.reqRepo.Create(req); err != nil {
		return nil, err
	}
	uc.audit.Emit(ctx, audit.Event{
		Action: "request.submit", EntityType: "request", EntityID: req.ID,
		ActorID: actor.ID, After: req,
	})
	return req, nil
}

// TryAutoApprove advances a freshly created request submitted → approved →
// handed_over when the department policy allows skipping manual review.
// Double-approval items never auto-approve. The returned error is a stock or
// claim failure; the request stays submitted in that case.
func (uc *RequestUseCase) TryAutoApprove(ctx context.Context, actor entity.Actor, policy entity.DepartmentPolicy, req *entity.Request) error {
	if !policy.AutoApproveRequests {
		return nil
	}
	item, err := uc.itemRepo.GetByID(req.ItemTypeID)
	if err != nil {
		return err
	}
	if item == nil || item.DoubleApprove {
		return nil
	}
	// Auto-approval acts on behalf of the department, not the requester, so
	// the transition guards run with a system actor scoped to it.
	system := entity.Actor{ID: actor.ID, Role: entity.RoleManager, DepartmentID: req.DepartmentID}
	updated, err := uc.Approve(ctx, system, req.ID)
	if err != nil {
		return err
	}
	*req = *updated
	updated, err = uc.Handover(ctx, system, req.ID, dto.ConfirmInput{})
	if err != nil {
		return err
	}
	*req = *updated
	return nil
}

// IsStockError reports whether err is an availability or unit-claim failure,
// the class that leaves an auto-approved submission in submitted rather than
// failing it.
func IsStockError(err error) bool {
	return errors.Is(err, domain.ErrInsufficientStock) ||
		errors.Is(err, domain.ErrNoUnitAvailable) ||
		errors.Is(err, domain.ErrConflict)
}

// Approve moves submitted → approved, re-checking availability (stock may
// have moved since submission) without touching the ledger. Double-approval
// items record the first approver and stay submitted until a different actor
// approves again.
func (uc *RequestUseCase) Approve(ctx context.Context, actor entity.Actor, requestID string) (*entity.Request, error) {
	var result *entity.Request
	var action string
	err := uc.txRunner.Run(ctx, func(
		itemRepo repository.ItemTypeRepository,
		unitRepo repository.ItemUnitRepository,
		reqRepo repository.RequestRepository,
		_ repository.MovementRepository,
		_ repository.SignatureRepository,
	) error {
		req, err := reqRepo.GetForUpdate(requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return fmt.Errorf("request %s: %w", requestID, domain.ErrNotFound)
		}
		if !lifecycle.CanTransition(req.Status, lifecycle.StatusApproved) {
			return fmt.Errorf("cannot approve a %s request: %w", req.Status, domain.ErrInvalidTransition)
		}
		if !actor.CanManage(req.DepartmentID) {
			return domain.ErrForbidden
		}

		item, err := itemRepo.GetForUpdate(req.ItemTypeID)
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("item type %s: %w", req.ItemTypeID, domain.ErrNotFound)
		}
		if item.IsSerial() {
			available, err := unitRepo.CountByStatus(item.ID, entity.UnitAvailable)
			if err != nil {
				return err
			}
			if available < 1 {
				return fmt.Errorf("item %q: %w", item.Name, domain.ErrNoUnitAvailable)
			}
		} else if item.Available < req.Quantity {
			return fmt.Errorf("item %q: %w", item.Name, domain.ErrInsufficientStock)
		}

		now := time.Now()
		if item.DoubleApprove && req.FirstApprovedBy == nil {
			first := actor.ID
			req.FirstApprovedBy = &first
			req.UpdatedAt = now
			action = "request.first_approve"
			result = req
			return reqRepo.Update(req)
		}
		if item.DoubleApprove && *req.FirstApprovedBy == actor.ID {
			return fmt.Errorf("second approval requires a different actor: %w", domain.ErrForbidden)
		}

		approver := actor.ID
		req.Status = lifecycle.StatusApproved
		req.ApprovedBy = &approver
		req.ApprovedAt = &now
		req.UpdatedAt = now
		action = "request.approve"
		result = req
		return reqRepo.Update(req)
	})
	if err != nil {
		return nil, err
	}
	uc.audit.Emit(ctx, audit.Event{
		Action: action, EntityType: "request", EntityID: requestID,
		ActorID: actor.ID, After: result,
	})
	return result, nil
}

// Reject moves submitted → rejected. The reason is mandatory. Terminal; no
// ledger mutation.
func (uc *RequestUseCase) Reject(ctx context.Context, actor entity.Actor, requestID, reason string) (*entity.Request, error) {
	if reason == "" {
		return nil, fmt.Errorf("rejection reason is required: %w", domain.ErrValidation)
	}
	var result *entity.Request
	err := uc.txRunner.Run(ctx, func(
		_ repository.ItemTypeRepository,
		_ repository.ItemUnitRepository,
		reqRepo repository.RequestRepository,
		_ repository.MovementRepository,
		_ repository.SignatureRepository,
	) error {
		req, err := reqRepo.GetForUpdate(requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return fmt.Errorf("request %s: %w", requestID, domain.ErrNotFound)
		}
		if !lifecycle.CanTransition(req.Status, lifecycle.StatusRejected) {
			return fmt.Errorf("cannot reject a %s request: %w", req.Status, domain.ErrInvalidTransition)
		}
		if !actor.CanManage(req.DepartmentID) {
			return domain.ErrForbidden
		}
		now := time.Now()
		rejecter := actor.ID
		req.Status = lifecycle.StatusRejected
		req.RejectedBy = &rejecter
		req.RejectedAt = &now
		req.RejectReason = reason
		req.UpdatedAt = now
		result = req
		return reqRepo.Update(req)
	})
	if err != nil {
		return nil, err
	}
	uc.audit.Emit(ctx, audit.Event{
		Action: "request.reject", EntityType: "request", EntityID: requestID,
		ActorID: actor.ID, After: result,
	})
	return result, nil
}

// MarkReadyForPickup moves approved → ready_for_pickup for scheduled pickups.
func (uc *RequestUseCase) MarkReadyForPickup(ctx context.Context, actor entity.Actor, requestID string) (*entity.Request, error) {
	var result *entity.Request
	err := uc.txRunner.Run(ctx, func(
		_ repository.ItemTypeRepository,
		_ repository.ItemUnitRepository,
		reqRepo repository.RequestRepository,
		_ repository.MovementRepository,
		_ repository.SignatureRepository,
	) error {
		req, err := reqRepo.GetForUpdate(requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return fmt.Errorf("request %s: %w", requestID, domain.ErrNotFound)
		}
		if !lifecycle.CanTransition(req.Status, lifecycle.StatusReadyForPickup) {
			return fmt.Errorf("cannot mark a %s request ready: %w", req.Status, domain.ErrInvalidTransition)
		}
		if !actor.CanManage(req.DepartmentID) {
			return domain.ErrForbidden
		}
		req.Status = lifecycle.StatusReadyForPickup
		req.UpdatedAt = time.Now()
		result = req
		return reqRepo.Update(req)
	})
	if err != nil {
		return nil, err
	}
	uc.audit.Emit(ctx, audit.Event{
		Action: "request.ready", EntityType: "request", EntityID: requestID,
		ActorID: actor.ID, After: result,
	})
	return result, nil
}

// Handover moves approved/ready_for_pickup → handed_over. The only transition
// that decrements available stock: it allocates inside the same transaction,
// appends the allocation movement and records the handover signature. When
// the item caps loan duration and no return is scheduled, one is defaulted.
func (uc *RequestUseCase) Handover(ctx context.Context, actor entity.Actor, requestID string, confirm dto.ConfirmInput) (*entity.Request, error) {
	var result *entity.Request
	err := uc.txRunner.Run(ctx, func(
		itemRepo repository.ItemTypeRepository,
		unitRepo repository.ItemUnitRepository,
		reqRepo repository.RequestRepository,
		movRepo repository.MovementRepository,
		sigRepo repository.SignatureRepository,
	) error {
		req, err := reqRepo.GetForUpdate(requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return fmt.Errorf("request %s: %w", requestID, domain.ErrNotFound)
		}
		if !lifecycle.CanTransition(req.Status, lifecycle.StatusHandedOver) {
			return fmt.Errorf("cannot hand over a %s request: %w", req.Status, domain.ErrInvalidTransition)
		}
		if !actor.CanManage(req.DepartmentID) {
			return domain.ErrForbidden
		}

		now := time.Now()
		mov, err := ledger.Allocate(itemRepo, unitRepo, movRepo, req, actor.ID, now)
		if err != nil {
			return err
		}
		sig := &entity.Signature{
			ID:         uuid.New().String(),
			MovementID: mov.ID,
			RequestID:  req.ID,
			Kind:       entity.SignatureHandover,
			Confirmed:  confirm.Confirmed,
			PIN:        confirm.PIN,
			CreatedAt:  now,
		}
		if err := sigRepo.Create(sig); err != nil {
			return err
		}

		if req.ScheduledReturnAt == nil {
			item, err := itemRepo.GetByID(req.ItemTypeID)
			if err != nil {
				return err
			}
			if item != nil && item.MaxLoanDays > 0 {
				due := now.AddDate(0, 0, item.MaxLoanDays)
				req.ScheduledReturnAt = &due
			}
		}

		handler := actor.ID
		req.Status = lifecycle.StatusHandedOver
		req.HandedOverBy = &handler
		req.HandedOverAt = &now
		req.UpdatedAt = now
		result = req
		return reqRepo.Update(req)
	})
	if err != nil {
		return nil, err
	}
	uc.audit.Emit(ctx, audit.Event{
		Action: "request.handover", EntityType: "request", EntityID: requestID,
		ActorID: actor.ID, After: result,
	})
	return result, nil
}

// Return moves handed_over → returned: releases the stock or unit, appends
// the return movement and records the return signature. The only transition
// that increments available stock.
func (uc *RequestUseCase) Return(ctx context.Context, actor entity.Actor, requestID string, confirm dto.ConfirmInput) (*entity.Request, error) {
	var result *entity.Request
	err := uc.txRunner.Run(ctx, func(
		itemRepo repository.ItemTypeRepository,
		unitRepo repository.ItemUnitRepository,
		reqRepo repository.RequestRepository,
		movRepo repository.MovementRepository,
		sigRepo repository.SignatureRepository,
	) error {
		req, err := reqRepo.GetForUpdate(requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return fmt.Errorf("request %s: %w", requestID, domain.ErrNotFound)
		}
		if !lifecycle.CanTransition(req.Status, lifecycle.StatusReturned) {
			return fmt.Errorf("cannot return a %s request: %w", req.Status, domain.ErrInvalidTransition)
		}
		if !actor.CanManage(req.DepartmentID) {
			return domain.ErrForbidden
		}

		now := time.Now()
		mov, err := ledger.Release(itemRepo, unitRepo, movRepo, req, actor.ID, now)
		if err != nil {
			return err
		}
		sig := &entity.Signature{
			ID:         uuid.New().String(),
			MovementID: mov.ID,
			RequestID:  req.ID,
			Kind:       entity.SignatureReturn,
			Confirmed:  confirm.Confirmed,
			PIN:        confirm.PIN,
			CreatedAt:  now,
		}
		if err := sigRepo.Create(sig); err != nil {
			return err
		}

		receiver := actor.ID
		req.Status = lifecycle.StatusReturned
		req.ReturnedBy = &receiver
		req.ReturnedAt = &now
		req.UpdatedAt = now
		result = req
		return reqRepo.Update(req)
	})
	if err != nil {
		return nil, err
	}
	uc.audit.Emit(ctx, audit.Event{
		Action: "request.return", EntityType: "request", EntityID: requestID,
		ActorID: actor.ID, After: result,
	})
	return result, nil
}

// Close archives a loan cycle: returned/handed_over → closed. Administrative
// marker with no ledger effect; closing a still-handed-over request writes
// the stock off without releasing it.
func (uc *RequestUseCase) Close(ctx context.Context, actor entity.Actor, requestID string) (*entity.Request, error) {
	var result *entity.Request
	err := uc.txRunner.Run(ctx, func(
		_ repository.ItemTypeRepository,
		_ repository.ItemUnitRepository,
		reqRepo repository.RequestRepository,
		_ repository.MovementRepository,
		_ repository.SignatureRepository,
	) error {
		req, err := reqRepo.GetForUpdate(requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return fmt.Errorf("request %s: %w", requestID, domain.ErrNotFound)
		}
		if !lifecycle.CanTransition(req.Status, lifecycle.StatusClosed) {
			return fmt.Errorf("cannot close a %s request: %w", req.Status, domain.ErrInvalidTransition)
		}
		if !actor.CanManage(req.DepartmentID) {
			return domain.ErrForbidden
		}
		now := time.Now()
		closer := actor.ID
		req.Status = lifecycle.StatusClosed
		req.ClosedBy = &closer
		req.ClosedAt = &now
		req.UpdatedAt = now
		result = req
		return reqRepo.Update(req)
	})
	if err != nil {
		return nil, err
	}
	uc.audit.Emit(ctx, audit.Event{
		Action: "request.close", EntityType: "request", EntityID: requestID,
		ActorID: actor.ID, After: result,
	})
	return result, nil
}

// Get fetches one request.
func (uc *RequestUseCase) Get(ctx context.Context, requestID string) (*entity.Request, error) {
	req, err := uc.reqRepo.GetByID(requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("request %s: %w", requestID, domain.ErrNotFound)
	}
	return req, nil
}

// List pages requests, filtered by department and stored status when set.
func (uc *RequestUseCase) List(ctx context.Context, departmentID, status string, page dto.PageRequest) ([]*entity.Request, error) {
	if status != "" && !lifecycle.Valid(status) {
		return nil, fmt.Errorf("unknown status %q: %w", status, domain.ErrValidation)
	}
	page.DefaultPage()
	return uc.reqRepo.List(departmentID, status, page.Limit, page.Offset)
}

// ListOverdue reports handed-over requests past their scheduled return. Pure
// read-time derivation; nothing is persisted and the stock stays in use.
func (uc *RequestUseCase) ListOverdue(ctx context.Context) ([]*entity.Request, error) {
	now := time.Now()
	candidates, err := uc.reqRepo.ListHandedOverDueBefore(now)
	if err != nil {
		return nil, err
	}
	overdue := candidates[:0]
	for _, r := range candidates {
		if lifecycle.IsOverdue(r, now) {
			overdue = append(overdue, r)
		}
	}
	return overdue, nil
}
