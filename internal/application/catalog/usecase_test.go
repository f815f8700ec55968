package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itadmit/ipalsam-sub000/internal/application/apptest"
	"github.com/itadmit/ipalsam-sub000/internal/application/audit"
	"github.com/itadmit/ipalsam-sub000/internal/application/catalog"
	"github.com/itadmit/ipalsam-sub000/internal/application/dto"
	"github.com/itadmit/ipalsam-sub000/internal/domain"
	"github.com/itadmit/ipalsam-sub000/internal/domain/entity"
)

const testDept = "dept-av"

var manager = entity.Actor{ID: "mgr-1", Role: entity.RoleManager, DepartmentID: testDept}
var staff = entity.Actor{ID: "stf-1", Role: entity.RoleStaff, DepartmentID: testDept}

func newCatalogUC(t *testing.T) (*catalog.CatalogUseCase, *apptest.MemStore) {
	t.Helper()
	store := apptest.NewMemStore()
	itemRepo, unitRepo, _, movRepo, _ := store.Repos()
	depRepo := store.DepartmentRepo()
	require.NoError(t, depRepo.Create(&entity.Department{
		ID: testDept, Name: "Audio/Visual", CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}))
	uc := catalog.NewCatalogUseCase(
		apptest.NewMemTxRunner(store), itemRepo, unitRepo, movRepo, depRepo,
		audit.NewEmitter(nil, nil),
	)
	return uc, store
}

func mustCreateItem(t *testing.T, uc *catalog.CatalogUseCase, mode string) *entity.ItemType {
	t.Helper()
	item, err := uc.CreateItemType(context.Background(), manager, dto.CreateItemTypeRequest{
		DepartmentID: testDept,
		Name:         "Projector",
		TrackingMode: mode,
		MinimumAlert: 2,
	})
	require.NoError(t, err)
	return item
}

func TestCreateItemTypeValidation(t *testing.T) {
	uc, _ := newCatalogUC(t)
	ctx := context.Background()

	_, err := uc.CreateItemType(ctx, manager, dto.CreateItemTypeRequest{
		DepartmentID: testDept, Name: "Tripod", TrackingMode: "bulk",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = uc.CreateItemType(ctx, manager, dto.CreateItemTypeRequest{
		DepartmentID: testDept, TrackingMode: entity.TrackingQuantity,
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = uc.CreateItemType(ctx, staff, dto.CreateItemTypeRequest{
		DepartmentID: testDept, Name: "Tripod", TrackingMode: entity.TrackingQuantity,
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestIntakeQuantityGrowsCounters(t *testing.T) {
	uc, _ := newCatalogUC(t)
	ctx := context.Background()
	item := mustCreateItem(t, uc, entity.TrackingQuantity)

	mov, err := uc.Intake(ctx, manager, item.ID, dto.IntakeRequest{Quantity: 10})
	require.NoError(t, err)
	assert.Equal(t, entity.MovementIntake, mov.Type)
	assert.Equal(t, 10, mov.Quantity)

	got, err := uc.GetItemType(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Total)
	assert.Equal(t, 10, got.Available)
	assert.Equal(t, 0, got.InUse)
}

func TestIntakeSerialRejectsDuplicate(t *testing.T) {
	uc, _ := newCatalogUC(t)
	ctx := context.Background()
	item := mustCreateItem(t, uc, entity.TrackingSerial)

	_, err := uc.Intake(ctx, manager, item.ID, dto.IntakeRequest{SerialNumber: "SN-001"})
	require.NoError(t, err)

	_, err = uc.Intake(ctx, manager, item.ID, dto.IntakeRequest{SerialNumber: "SN-001"})
	assert.ErrorIs(t, err, domain.ErrDuplicateSerial)

	units, err := uc.ListUnits(ctx, item.ID, "")
	require.NoError(t, err)
	assert.Len(t, units, 1)
}

func TestIntakeSerialRequiresSerialNumber(t *testing.T) {
	uc, _ := newCatalogUC(t)
	item := mustCreateItem(t, uc, entity.TrackingSerial)

	_, err := uc.Intake(context.Background(), manager, item.ID, dto.IntakeRequest{Quantity: 3})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAdjustTotalBounds(t *testing.T) {
	uc, _ := newCatalogUC(t)
	ctx := context.Background()
	item := mustCreateItem(t, uc, entity.TrackingQuantity)
	_, err := uc.Intake(ctx, manager, item.ID, dto.IntakeRequest{Quantity: 10})
	require.NoError(t, err)

	got, err := uc.AdjustTotal(ctx, manager, item.ID, 6)
	require.NoError(t, err)
	assert.Equal(t, 6, got.Total)
	assert.Equal(t, 6, got.Available)

	_, err = uc.AdjustTotal(ctx, manager, item.ID, -1)
	assert.ErrorIs(t, err, domain.ErrValidation)

	// A serial item has no adjustable counters.
	serial := mustCreateItem(t, uc, entity.TrackingSerial)
	_, err = uc.AdjustTotal(ctx, manager, serial.ID, 5)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestMaintenanceToggle(t *testing.T) {
	uc, _ := newCatalogUC(t)
	ctx := context.Background()
	item := mustCreateItem(t, uc, entity.TrackingSerial)
	_, err := uc.Intake(ctx, manager, item.ID, dto.IntakeRequest{SerialNumber: "SN-001"})
	require.NoError(t, err)
	units, err := uc.ListUnits(ctx, item.ID, "")
	require.NoError(t, err)
	require.Len(t, units, 1)
	unitID := units[0].ID

	unit, err := uc.SetUnitMaintenance(ctx, manager, unitID, true)
	require.NoError(t, err)
	assert.Equal(t, entity.UnitMaintenance, unit.Status)

	// Flagging twice is a conflict, not idempotent.
	_, err = uc.SetUnitMaintenance(ctx, manager, unitID, true)
	assert.ErrorIs(t, err, domain.ErrConflict)

	unit, err = uc.SetUnitMaintenance(ctx, manager, unitID, false)
	require.NoError(t, err)
	assert.Equal(t, entity.UnitAvailable, unit.Status)
}

func TestLowStockListing(t *testing.T) {
	uc, _ := newCatalogUC(t)
	ctx := context.Background()
	item := mustCreateItem(t, uc, entity.TrackingQuantity) // alert threshold 2
	_, err := uc.Intake(ctx, manager, item.ID, dto.IntakeRequest{Quantity: 1})
	require.NoError(t, err)

	low, err := uc.ListLowStock(ctx, manager)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, item.ID, low[0].ID)

	_, err = uc.Intake(ctx, manager, item.ID, dto.IntakeRequest{Quantity: 5})
	require.NoError(t, err)
	low, err = uc.ListLowStock(ctx, manager)
	require.NoError(t, err)
	assert.Empty(t, low)
}

func TestDeactivateItemType(t *testing.T) {
	uc, _ := newCatalogUC(t)
	ctx := context.Background()
	item := mustCreateItem(t, uc, entity.TrackingQuantity)

	require.NoError(t, uc.DeactivateItemType(ctx, manager, item.ID))
	got, err := uc.GetItemType(ctx, item.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
}
