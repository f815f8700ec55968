// Package catalog owns the item catalog: creation and policy attributes of
// item types, stock intake, bounded total adjustment and the unit registry
// actions that are not part of a request lifecycle.
package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/itadmit/ipalsam-sub000/internal/application/audit"
	"github.com/itadmit/ipalsam-sub000/internal/application/dto"
	"github.com/itadmit/ipalsam-sub000/internal/application/ledger"
	"github.com/itadmit/ipalsam-sub000/internal/domain"
	"github.com/itadmit/ipalsam-sub000/internal/domain/entity"
	"github.com/itadmit/ipalsam-sub000/internal/domain/repository"
)

// CatalogUseCase item-type and unit-registry operations.
type CatalogUseCase struct {
	txRunner ledger.TxRunner
	itemRepo repository.ItemTypeRepository
	unitRepo repository.ItemUnitRepository
	movRepo  repository.MovementRepository
	depRepo  repository.DepartmentRepository
	audit    *audit.Emitter
}

// NewCatalogUseCase builds the use case.
func NewCatalogUseCase(
	txRunner ledger.TxRunner,
	itemRepo repository.ItemTypeRepository,
	unitRepo repository.ItemUnitRepository,
	movRepo repository.MovementRepository,
	depRepo repository.DepartmentRepository,
	auditEmitter *audit.Emitter,
) *CatalogUseCase {
	return &CatalogUseCase{
		txRunner: txRunner,
		itemRepo: itemRepo,
		unitRepo: unitRepo,
		movRepo:  movRepo,
		depRepo:  depRepo,
		audit:    auditEmitter,
	}
}

// CreateItemType registers a catalog entry for the actor's department.
func (uc *CatalogUseCase) CreateItemType(ctx context.Context, actor entity.Actor, in dto.CreateItemTypeRequest) (*entity.ItemType, error) {
	if in.Name == "" || in.DepartmentID == "" {
		return nil, fmt.Errorf("name and department are required: %w", domain.ErrValidation)
	}
	if in.TrackingMode != entity.TrackingQuantity && in.TrackingMode != entity.TrackingSerial {
		return nil, fmt.Errorf("tracking mode must be quantity or serial: %w", domain.ErrValidation)
	}
	if in.MinimumAlert < 0 || in.MaxLoanDays < 0 {
		return nil, fmt.Errorf("thresholds must be non-negative: %w", domain.ErrValidation)
	}
	if !actor.CanManage(in.DepartmentID) {
		return nil, domain.ErrForbidden
	}
	dep, err := uc.depRepo.GetByID(in.DepartmentID)
	if err != nil {
		return nil, err
	}
	if dep == nil {
		return nil, fmt.Errorf("department %s: %w", in.DepartmentID, domain.ErrNotFound)
	}

	now := time.Now()
	item := &entity.ItemType{
		ID:            uuid.New().String(),
		DepartmentID:  in.DepartmentID,
		Name:          in.Name,
		TrackingMode:  in.TrackingMode,
		MinimumAlert:  in.MinimumAlert,
		DoubleApprove: in.DoubleApprove,
		MaxLoanDays:   in.MaxLoanDays,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := uc.itemRepo.Create(item); err != nil {
		return nil, err
	}
	uc.audit.Emit(ctx, audit.Event{
		Action: "item.create", EntityType: "item_type", EntityID: item.ID,
		ActorID: actor.ID, After: item,
	})
	return item, nil
}

// UpdateItemType edits policy attributes. Counters and tracking mode are not
// touched here; quantities change only through ledger operations.
func (uc *CatalogUseCase) UpdateItemType(ctx context.Context, actor entity.Actor, id string, in dto.UpdateItemTypeRequest) (*entity.ItemType, error) {
	item, err := uc.itemRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item type %s: %w", id, domain.ErrNotFound)
	}
	if !actor.CanManage(item.DepartmentID) {
		return nil, domain.ErrForbidden
	}
	if in.MinimumAlert < 0 || in.MaxLoanDays < 0 {
		return nil, fmt.Errorf("thresholds must be non-negative: %w", domain.ErrValidation)
	}
	before := *item
	if in.Name != "" {
		item.Name = in.Name
	}
	item.MinimumAlert = in.MinimumAlert
	item.DoubleApprove = in.DoubleApprove
	item.MaxLoanDays = in.MaxLoanDays
	item.UpdatedAt = time.Now()
	if err := uc.itemRepo.Update(item); err != nil {
		return nil, err
	}
	uc.audit.Emit(ctx, audit.Event{
		Action: "item.update", EntityType: "item_type", EntityID: item.ID,
		ActorID: actor.ID, Before: before, After: item,
	})
	return item, nil
}

// GetItemType fetches one catalog entry.
func (uc *CatalogUseCase) GetItemType(ctx context.Context, id string) (*entity.ItemType, error) {
	item, err := uc.itemRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item type %s: %w", id, domain.ErrNotFound)
	}
	return item, nil
}

// ListItemTypes lists catalog entries, optionally scoped to a department.
func (uc *CatalogUseCase) ListItemTypes(ctx context.Context, departmentID string, page dto.PageRequest) ([]*entity.ItemType, error) {
	page.DefaultPage()
	return uc.itemRepo.List(departmentID, page.Limit, page.Offset)
}

// ListLowStock lists active items whose available stock fell under their
// alert threshold. Admins see every department, managers their own.
func (uc *CatalogUseCase) ListLowStock(ctx context.Context, actor entity.Actor) ([]*entity.ItemType, error) {
	dep := actor.DepartmentID
	if actor.Role == entity.RoleAdmin {
		dep = ""
	}
	return uc.itemRepo.ListBelowMinimum(dep)
}

// DeactivateItemType soft-deactivates a catalog entry: existing loans keep
// their history, new requests are refused by submission validation.
func (uc *CatalogUseCase) DeactivateItemType(ctx context.Context, actor entity.Actor, id string) error {
	item, err := uc.itemRepo.GetByID(id)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("item type %s: %w", id, domain.ErrNotFound)
	}
	if !actor.CanManage(item.DepartmentID) {
		return domain.ErrForbidden
	}
	if err := uc.itemRepo.Deactivate(id); err != nil {
		return err
	}
	uc.audit.Emit(ctx, audit.Event{
		Action: "item.deactivate", EntityType: "item_type", EntityID: id,
		ActorID: actor.ID, Before: item,
	})
	return nil
}

// PurgeItemType hard-deletes an item type and every movement, unit and
// request referencing it. Administrative cleanup only.
func (uc *CatalogUseCase) PurgeItemType(ctx context.Context, actor entity.Actor, id string) error {
	if actor.Role != entity.RoleAdmin {
		return domain.ErrForbidden
	}
	item, err := uc.itemRepo.GetByID(id)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("item type %s: %w", id, domain.ErrNotFound)
	}
	if err := uc.itemRepo.Purge(id); err != nil {
		return err
	}
	uc.audit.Emit(ctx, audit.Event{
		Action: "item.purge", EntityType: "item_type", EntityID: id,
		ActorID: actor.ID, Before: item,
	})
	return nil
}

// Intake adds stock inside one transaction: counters for quantity items, a
// new serialized unit for serial items. Duplicate serials are refused.
func (uc *CatalogUseCase) Intake(ctx context.Context, actor entity.Actor, itemTypeID string, in dto.IntakeRequest) (*entity.Movement, error) {
	item, err := uc.itemRepo.GetByID(itemTypeID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item type %s: %w", itemTypeID, domain.ErrNotFound)
	}
	if !actor.CanManage(item.DepartmentID) {
		return nil, domain.ErrForbidden
	}

	var mov *entity.Movement
	err = uc.txRunner.Run(ctx, func(
		itemRepo repository.ItemTypeRepository,
		unitRepo repository.ItemUnitRepository,
		_ repository.RequestRepository,
		movRepo repository.MovementRepository,
		_ repository.SignatureRepository,
	) error {
		var txErr error
		mov, txErr = ledger.Intake(itemRepo, unitRepo, movRepo, itemTypeID, in.Quantity, in.SerialNumber, actor.ID, time.Now())
		return txErr
	})
	if err != nil {
		return nil, err
	}
	uc.audit.Emit(ctx, audit.Event{
		Action: "item.intake", EntityType: "item_type", EntityID: itemTypeID,
		ActorID: actor.ID, After: mov,
	})
	return mov, nil
}

// AdjustTotal sets a new total for a quantity item, never below what is
// currently out on loan.
func (uc *CatalogUseCase) AdjustTotal(ctx context.Context, actor entity.Actor, itemTypeID string, newTotal int) (*entity.ItemType, error) {
	item, err := uc.itemRepo.GetByID(itemTypeID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item type %s: %w", itemTypeID, domain.ErrNotFound)
	}
	if !actor.CanManage(item.DepartmentID) {
		return nil, domain.ErrForbidden
	}

	before := *item
	var updated *entity.ItemType
	err = uc.txRunner.Run(ctx, func(
		itemRepo repository.ItemTypeRepository,
		_ repository.ItemUnitRepository,
		_ repository.RequestRepository,
		_ repository.MovementRepository,
		_ repository.SignatureRepository,
	) error {
		var txErr error
		updated, txErr = ledger.AdjustTotal(itemRepo, itemTypeID, newTotal, time.Now())
		return txErr
	})
	if err != nil {
		return nil, err
	}
	uc.audit.Emit(ctx, audit.Event{
		Action: "item.adjust_total", EntityType: "item_type", EntityID: itemTypeID,
		ActorID: actor.ID, Before: before, After: updated,
	})
	return updated, nil
}

// ListUnits enumerates the serialized units of an item type, optionally
// filtered by status.
func (uc *CatalogUseCase) ListUnits(ctx context.Context, itemTypeID, status string) ([]*entity.ItemUnit, error) {
	if status != "" && status != entity.UnitAvailable && status != entity.UnitInUse && status != entity.UnitMaintenance {
		return nil, fmt.Errorf("unknown unit status %q: %w", status, domain.ErrValidation)
	}
	return uc.unitRepo.ListByItemType(itemTypeID, status)
}

// SetUnitMaintenance flags an available unit for maintenance or brings it
// back. A unit out on loan cannot change; the same row-lock discipline as the
// ledger keeps the selection exclusive.
func (uc *CatalogUseCase) SetUnitMaintenance(ctx context.Context, actor entity.Actor, unitID string, enable bool) (*entity.ItemUnit, error) {
	existing, err := uc.unitRepo.GetByID(unitID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("unit %s: %w", unitID, domain.ErrNotFound)
	}
	item, err := uc.itemRepo.GetByID(existing.ItemTypeID)
	if err != nil {
		return nil, err
	}
	if item == nil || !actor.CanManage(item.DepartmentID) {
		return nil, domain.ErrForbidden
	}

	var result *entity.ItemUnit
	err = uc.txRunner.Run(ctx, func(
		_ repository.ItemTypeRepository,
		unitRepo repository.ItemUnitRepository,
		_ repository.RequestRepository,
		_ repository.MovementRepository,
		_ repository.SignatureRepository,
	) error {
		unit, txErr := unitRepo.GetForUpdate(unitID)
		if txErr != nil {
			return txErr
		}
		if unit == nil {
			return fmt.Errorf("unit %s: %w", unitID, domain.ErrNotFound)
		}
		switch {
		case enable && unit.Status == entity.UnitAvailable:
			unit.Status = entity.UnitMaintenance
		case !enable && unit.Status == entity.UnitMaintenance:
			unit.Status = entity.UnitAvailable
		default:
			return fmt.Errorf("unit %s is %s: %w", unit.SerialNumber, unit.Status, domain.ErrConflict)
		}
		unit.UpdatedAt = time.Now()
		if txErr := unitRepo.Update(unit); txErr != nil {
			return txErr
		}
		result = unit
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.audit.Emit(ctx, audit.Event{
		Action: "unit.maintenance", EntityType: "item_unit", EntityID: unitID,
		ActorID: actor.ID, Before: existing, After: result,
	})
	return result, nil
}

// ListMovements pages through the ledger for one item type.
func (uc *CatalogUseCase) ListMovements(ctx context.Context, itemTypeID string, page dto.PageRequest) ([]*entity.Movement, error) {
	page.DefaultPage()
	return uc.movRepo.ListByItemType(itemTypeID, page.Limit, page.Offset)
}
