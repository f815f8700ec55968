// Package ledger implements the inventory-affecting operations: intake,
// allocation, release and total adjustment. Every function here expects
// repositories bound to an open transaction (see TxRunner) and locks the item
// type row before touching counters or units, so two callers racing for the
// last unit of stock can never both succeed.
package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/itadmit/ipalsam-sub000/internal/domain"
	"github.com/itadmit/ipalsam-sub000/internal/domain/entity"
	"github.com/itadmit/ipalsam-sub000/internal/domain/repository"
)

// Intake adds stock. Quantity mode: total and available grow together.
// Serial mode: a new unit is registered with a serial unique within the item
// type. Appends one intake movement either way.
func Intake(
	itemRepo repository.ItemTypeRepository,
	unitRepo repository.ItemUnitRepository,
	movRepo repository.MovementRepository,
	itemTypeID string, quantity int, serialNumber, actorID string,
	now time.Time,
) (*entity.Movement, error) {
	item, err := itemRepo.GetForUpdate(itemTypeID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item type %s: %w", itemTypeID, domain.ErrNotFound)
	}

	mov := &entity.Movement{
		ID:         uuid.New().String(),
		Type:       entity.MovementIntake,
		ItemTypeID: item.ID,
		DestRef:    item.DepartmentID,
		ActorID:    actorID,
		CreatedAt:  now,
	}

	if item.IsSerial() {
		if serialNumber == "" {
			return nil, fmt.Errorf("serial number required: %w", domain.ErrValidation)
		}
		unit := &entity.ItemUnit{
			ID:           uuid.New().String(),
			ItemTypeID:   item.ID,
			SerialNumber: serialNumber,
			Status:       entity.UnitAvailable,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := unitRepo.Create(unit); err != nil {
			return nil, err
		}
		mov.UnitID = &unit.ID
		mov.Quantity = 1
	} else {
		if quantity <= 0 {
			return nil, fmt.Errorf("intake quantity must be positive: %w", domain.ErrValidation)
		}
		item.Total += quantity
		item.Available += quantity
		item.UpdatedAt = now
		if err := itemRepo.Update(item); err != nil {
			return nil, err
		}
		mov.Quantity = quantity
	}

	if err := movRepo.Create(mov); err != nil {
		return nil, err
	}
	return mov, nil
}

// Allocate moves stock to the request's holder. This is the only operation
// that decrements available stock. Quantity mode decrements available and
// increments in-use under the row lock; serial mode claims the request's
// pre-assigned unit or the oldest available one, marking it in use.
// On success the request's UnitID is filled in for serial items; persisting
// the request is the caller's job.
func Allocate(
	itemRepo repository.ItemTypeRepository,
	unitRepo repository.ItemUnitRepository,
	movRepo repository.MovementRepository,
	req *entity.Request, actorID string,
	now time.Time,
) (*entity.Movement, error) {
	item, err := itemRepo.GetForUpdate(req.ItemTypeID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item type %s: %w", req.ItemTypeID, domain.ErrNotFound)
	}

	mov := &entity.Movement{
		ID:         uuid.New().String(),
		Type:       entity.MovementAllocation,
		ItemTypeID: item.ID,
		SourceRef:  item.DepartmentID,
		DestRef:    req.RequesterID,
		ActorID:    actorID,
		RequestID:  &req.ID,
		CreatedAt:  now,
	}

	if item.IsSerial() {
		var unit *entity.ItemUnit
		if req.UnitID != nil {
			// Pre-assigned by group checkout; may have been claimed since.
			unit, err = unitRepo.GetForUpdate(*req.UnitID)
			if err != nil {
				return nil, err
			}
			if unit == nil {
				return nil, fmt.Errorf("unit %s: %w", *req.UnitID, domain.ErrNotFound)
			}
			if unit.Status != entity.UnitAvailable {
				return nil, fmt.Errorf("unit %s already claimed: %w", unit.SerialNumber, domain.ErrConflict)
			}
		} else {
			unit, err = unitRepo.NextAvailableForUpdate(item.ID)
			if err != nil {
				return nil, err
			}
			if unit == nil {
				return nil, fmt.Errorf("item %q: %w", item.Name, domain.ErrNoUnitAvailable)
			}
		}
		holder := req.RequesterID
		unit.Status = entity.UnitInUse
		unit.HolderID = &holder
		unit.UpdatedAt = now
		if err := unitRepo.Update(unit); err != nil {
			return nil, err
		}
		req.UnitID = &unit.ID
		mov.UnitID = &unit.ID
		mov.Quantity = 1
	} else {
		if item.Available < req.Quantity {
			return nil, fmt.Errorf("item %q: %w", item.Name, domain.ErrInsufficientStock)
		}
		item.Available -= req.Quantity
		item.InUse += req.Quantity
		item.UpdatedAt = now
		if err := itemRepo.Update(item); err != nil {
			return nil, err
		}
		mov.Quantity = req.Quantity
	}

	if err := movRepo.Create(mov); err != nil {
		return nil, err
	}
	return mov, nil
}

// Release is the inverse of Allocate: it restores available stock or frees the
// request's unit, appending one return movement. The only operation that
// increments available stock.
func Release(
	itemRepo repository.ItemTypeRepository,
	unitRepo repository.ItemUnitRepository,
	movRepo repository.MovementRepository,
	req *entity.Request, actorID string,
	now time.Time,
) (*entity.Movement, error) {
	item, err := itemRepo.GetForUpdate(req.ItemTypeID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item type %s: %w", req.ItemTypeID, domain.ErrNotFound)
	}

	mov := &entity.Movement{
		ID:         uuid.New().String(),
		Type:       entity.MovementReturn,
		ItemTypeID: item.ID,
		SourceRef:  req.RequesterID,
		DestRef:    item.DepartmentID,
		ActorID:    actorID,
		RequestID:  &req.ID,
		CreatedAt:  now,
	}

	if item.IsSerial() {
		if req.UnitID == nil {
			return nil, fmt.Errorf("request %s has no assigned unit: %w", req.ID, domain.ErrConflict)
		}
		unit, err := unitRepo.GetForUpdate(*req.UnitID)
		if err != nil {
			return nil, err
		}
		if unit == nil {
			return nil, fmt.Errorf("unit %s: %w", *req.UnitID, domain.ErrNotFound)
		}
		if unit.Status != entity.UnitInUse {
			return nil, fmt.Errorf("unit %s is not in use: %w", unit.SerialNumber, domain.ErrConflict)
		}
		unit.Status = entity.UnitAvailable
		unit.HolderID = nil
		unit.UpdatedAt = now
		if err := unitRepo.Update(unit); err != nil {
			return nil, err
		}
		mov.UnitID = &unit.ID
		mov.Quantity = 1
	} else {
		if item.InUse < req.Quantity {
			// Ledger says less is out than is coming back; refusing beats
			// driving the counters negative.
			return nil, fmt.Errorf("item %q: return exceeds in-use stock: %w", item.Name, domain.ErrConflict)
		}
		item.Available += req.Quantity
		item.InUse -= req.Quantity
		item.UpdatedAt = now
		if err := itemRepo.Update(item); err != nil {
			return nil, err
		}
		mov.Quantity = req.Quantity
	}

	if err := movRepo.Create(mov); err != nil {
		return nil, err
	}
	return mov, nil
}

// AdjustTotal sets a quantity item's total, keeping available = total - inUse.
// A total under the current in-use count is rejected.
func AdjustTotal(
	itemRepo repository.ItemTypeRepository,
	itemTypeID string, newTotal int,
	now time.Time,
) (*entity.ItemType, error) {
	if newTotal < 0 {
		return nil, fmt.Errorf("total must be non-negative: %w", domain.ErrValidation)
	}
	item, err := itemRepo.GetForUpdate(itemTypeID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item type %s: %w", itemTypeID, domain.ErrNotFound)
	}
	if item.IsSerial() {
		return nil, fmt.Errorf("serial items adjust stock through unit intake: %w", domain.ErrValidation)
	}
	if newTotal < item.InUse {
		return nil, fmt.Errorf("item %q: new total %d below in-use %d: %w",
			item.Name, newTotal, item.InUse, domain.ErrValidation)
	}
	item.Total = newTotal
	item.Available = newTotal - item.InUse
	item.UpdatedAt = now
	if err := itemRepo.Update(item); err != nil {
		return nil, err
	}
	return item, nil
}
