// Package checkout implements the grouped multi-item checkout: one user
// action producing several request lines under a shared group id, with
// all-or-nothing stock validation before any line is created.
package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/itadmit/ipalsam-sub000/internal/application/dto"
	"github.com/itadmit/ipalsam-sub000/internal/application/requests"
	"github.com/itadmit/ipalsam-sub000/internal/domain"
	"github.com/itadmit/ipalsam-sub000/internal/domain/entity"
	"github.com/itadmit/ipalsam-sub000/internal/domain/repository"
)

// GroupCheckoutUseCase validates and creates grouped request lines.
//
// Validation is all-or-nothing: requested quantities are aggregated per item
// type across lines (the same type may appear more than once) and checked
// against current availability before the first row is written. Row creation
// afterwards is per-row: a late stock race between validation and creation
// returns that row as a per-row error while earlier rows stand. This differs
// deliberately from a best-effort bulk import, which never pre-validates the
// whole set.
type GroupCheckoutUseCase struct {
	itemRepo repository.ItemTypeRepository
	unitRepo repository.ItemUnitRepository
	depRepo  repository.DepartmentRepository
	requests *requests.RequestUseCase
}

// NewGroupCheckoutUseCase builds the coordinator.
func NewGroupCheckoutUseCase(
	itemRepo repository.ItemTypeRepository,
	unitRepo repository.ItemUnitRepository,
	depRepo repository.DepartmentRepository,
	requestUC *requests.RequestUseCase,
) *GroupCheckoutUseCase {
	return &GroupCheckoutUseCase{
		itemRepo: itemRepo,
		unitRepo: unitRepo,
		depRepo:  depRepo,
		requests: requestUC,
	}
}

// Checkout validates the whole group and then creates one request line per
// wanted unit/quantity, sharing a fresh group id. Serial lines get distinct
// pre-assigned units within the group; each line independently consults the
// department auto-approval policy.
func (uc *GroupCheckoutUseCase) Checkout(ctx context.Context, actor entity.Actor, in dto.GroupCheckoutInput) (*dto.GroupCheckoutResult, error) {
	if len(in.Lines) == 0 {
		return nil, fmt.Errorf("checkout needs at least one line: %w", domain.ErrValidation)
	}
	if in.RecipientName == "" {
		return nil, fmt.Errorf("recipient name is required: %w", domain.ErrValidation)
	}

	// Aggregate wanted quantity per item type across all lines.
	wanted := make(map[string]int, len(in.Lines))
	order := make([]string, 0, len(in.Lines))
	for _, line := range in.Lines {
		if line.ItemTypeID == "" || line.Quantity <= 0 {
			return nil, fmt.Errorf("every line needs an item type and a positive quantity: %w", domain.ErrValidation)
		}
		if _, seen := wanted[line.ItemTypeID]; !seen {
			order = append(order, line.ItemTypeID)
		}
		wanted[line.ItemTypeID] += line.Quantity
	}

	// All-or-nothing pre-validation: any short item type rejects the whole
	// group by name, creating nothing. For serial items the free units are
	// collected now so each line in the group claims a distinct one.
	items := make(map[string]*entity.ItemType, len(order))
	freeUnits := make(map[string][]*entity.ItemUnit)
	for _, id := range order {
		item, err := uc.itemRepo.GetByID(id)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, fmt.Errorf("item type %s: %w", id, domain.ErrNotFound)
		}
		if !item.Active {
			return nil, fmt.Errorf("item %q is deactivated: %w", item.Name, domain.ErrValidation)
		}
		items[id] = item
		if item.IsSerial() {
			units, err := uc.unitRepo.ListByItemType(id, entity.UnitAvailable)
			if err != nil {
				return nil, err
			}
			if len(units) < wanted[id] {
				return nil, fmt.Errorf("item %q: %d unit(s) requested, %d available: %w",
					item.Name, wanted[id], len(units), domain.ErrValidation)
			}
			freeUnits[id] = units
		} else if item.Available < wanted[id] {
			return nil, fmt.Errorf("item %q: %d requested, %d available: %w",
				item.Name, wanted[id], item.Available, domain.ErrValidation)
		}
	}

	groupID := uuid.New().String()
	result := &dto.GroupCheckoutResult{GroupID: groupID}
	now := time.Now()
	nextUnit := make(map[string]int, len(freeUnits))

	for _, line := range in.Lines {
		item := items[line.ItemTypeID]
		dep, err := uc.depRepo.GetByID(item.DepartmentID)
		if err != nil {
			return nil, err
		}
		if dep == nil {
			return nil, fmt.Errorf("department %s: %w", item.DepartmentID, domain.ErrNotFound)
		}

		// Serial lines become one request row per unit; quantity lines one row.
		rows := 1
		if item.IsSerial() {
			rows = line.Quantity
		}
		for i := 0; i < rows; i++ {
			var unitID *string
			if item.IsSerial() {
				u := freeUnits[item.ID][nextUnit[item.ID]]
				nextUnit[item.ID]++
				unitID = &u.ID
			}
			lineInput := dto.SubmitRequestInput{
				ItemTypeID:        item.ID,
				Quantity:          line.Quantity,
				Urgency:           in.Urgency,
				RecipientName:     in.RecipientName,
				RecipientPhone:    in.RecipientPhone,
				ScheduledPickupAt: in.ScheduledPickupAt,
				ScheduledReturnAt: in.ScheduledReturnAt,
			}
			req, err := uc.requests.Create(ctx, actor, dep.Policy, lineInput, &groupID, unitID)
			if err != nil {
				// Late race after group validation: report the row, keep the rest.
				result.Errors = append(result.Errors, dto.CheckoutRowError{
					ItemTypeID: item.ID, Message: err.Error(),
				})
				continue
			}
			if autoErr := uc.requests.TryAutoApprove(ctx, actor, dep.Policy, req); autoErr != nil {
				if !requests.IsStockError(autoErr) {
					return nil, autoErr
				}
				// Row stands as submitted; surface the race per row.
				result.Errors = append(result.Errors, dto.CheckoutRowError{
					ItemTypeID: item.ID, Message: autoErr.Error(),
				})
			}
			result.Requests = append(result.Requests, dto.ToRequestResponse(req, now))
		}
	}
	return result, nil
}
