package checkout_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itadmit/ipalsam-sub000/internal/application/apptest"
	"github.com/itadmit/ipalsam-sub000/internal/application/audit"
	"github.com/itadmit/ipalsam-sub000/internal/application/checkout"
	"github.com/itadmit/ipalsam-sub000/internal/application/dto"
	"github.com/itadmit/ipalsam-sub000/internal/application/requests"
	"github.com/itadmit/ipalsam-sub000/internal/domain"
	"github.com/itadmit/ipalsam-sub000/internal/domain/entity"
	"github.com/itadmit/ipalsam-sub000/internal/domain/lifecycle"
	"github.com/itadmit/ipalsam-sub000/internal/domain/repository"
)

const deptID = "dept-av"

var staff = entity.Actor{ID: "stf-1", Role: entity.RoleStaff, DepartmentID: deptID}

type env struct {
	store *apptest.MemStore
	uc    *checkout.GroupCheckoutUseCase
}

func newEnv(t *testing.T, policy entity.DepartmentPolicy) *env {
	t.Helper()
	store := apptest.NewMemStore()
	itemRepo, unitRepo, reqRepo, _, _ := store.Repos()
	depRepo := store.DepartmentRepo()
	require.NoError(t, depRepo.Create(&entity.Department{
		ID: deptID, Name: "Audio/Visual", Policy: policy,
	}))
	requestUC := requests.NewRequestUseCase(
		apptest.NewMemTxRunner(store), itemRepo, unitRepo, reqRepo, depRepo,
		audit.NewEmitter(nil, nil),
	)
	uc := checkout.NewGroupCheckoutUseCase(itemRepo, unitRepo, depRepo, requestUC)
	return &env{store: store, uc: uc}
}

func (e *env) seedQuantityItem(t *testing.T, name string, total int) *entity.ItemType {
	t.Helper()
	itemRepo, _, _, _, _ := e.store.Repos()
	now := time.Now()
	item := &entity.ItemType{
		ID: uuid.New().String(), DepartmentID: deptID, Name: name,
		TrackingMode: entity.TrackingQuantity,
		Total:        total, Available: total,
		Active: true, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, itemRepo.Create(item))
	return item
}

func (e *env) seedSerialItem(t *testing.T, name string, serials ...string) *entity.ItemType {
	t.Helper()
	itemRepo, unitRepo, _, _, _ := e.store.Repos()
	now := time.Now()
	item := &entity.ItemType{
		ID: uuid.New().String(), DepartmentID: deptID, Name: name,
		TrackingMode: entity.TrackingSerial,
		Active:       true, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, itemRepo.Create(item))
	for _, sn := range serials {
		require.NoError(t, unitRepo.Create(&entity.ItemUnit{
			ID: uuid.New().String(), ItemTypeID: item.ID, SerialNumber: sn,
			Status: entity.UnitAvailable, CreatedAt: now, UpdatedAt: now,
		}))
	}
	return item
}

func checkoutInput(lines ...dto.CheckoutLine) dto.GroupCheckoutInput {
	return dto.GroupCheckoutInput{
		Lines:         lines,
		Urgency:       entity.UrgencyImmediate,
		RecipientName: "Dana Levi",
	}
}

func TestCheckoutValidatesInput(t *testing.T) {
	e := newEnv(t, entity.DepartmentPolicy{AllowImmediate: true})
	ctx := context.Background()

	_, err := e.uc.Checkout(ctx, staff, checkoutInput())
	assert.ErrorIs(t, err, domain.ErrValidation)

	in := checkoutInput(dto.CheckoutLine{ItemTypeID: "x", Quantity: 1})
	in.RecipientName = ""
	_, err = e.uc.Checkout(ctx, staff, in)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = e.uc.Checkout(ctx, staff, checkoutInput(dto.CheckoutLine{ItemTypeID: "x", Quantity: 0}))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCheckoutAllOrNothing(t *testing.T) {
	e := newEnv(t, entity.DepartmentPolicy{AllowImmediate: true})
	ctx := context.Background()
	cables := e.seedQuantityItem(t, "HDMI Cable", 10)
	projectors := e.seedQuantityItem(t, "Projector", 1)

	_, err := e.uc.Checkout(ctx, staff, checkoutInput(
		dto.CheckoutLine{ItemTypeID: cables.ID, Quantity: 2},
		dto.CheckoutLine{ItemTypeID: projectors.ID, Quantity: 3},
	))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
	// The short item is named; nothing was created for the valid line either.
	assert.Contains(t, err.Error(), "Projector")

	_, _, reqRepo, _, _ := e.store.Repos()
	rows, err := reqRepo.List("", "", 100, 0)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCheckoutAggregatesRepeatedLines(t *testing.T) {
	e := newEnv(t, entity.DepartmentPolicy{AllowImmediate: true})
	ctx := context.Background()
	cables := e.seedQuantityItem(t, "HDMI Cable", 3)

	// 2 + 2 across two lines exceeds the 3 available even though each line
	// alone would fit.
	_, err := e.uc.Checkout(ctx, staff, checkoutInput(
		dto.CheckoutLine{ItemTypeID: cables.ID, Quantity: 2},
		dto.CheckoutLine{ItemTypeID: cables.ID, Quantity: 2},
	))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCheckoutCreatesGroupedRows(t *testing.T) {
	e := newEnv(t, entity.DepartmentPolicy{AllowImmediate: true})
	ctx := context.Background()
	cables := e.seedQuantityItem(t, "HDMI Cable", 10)
	cameras := e.seedSerialItem(t, "Camera", "SN-001", "SN-002")

	result, err := e.uc.Checkout(ctx, staff, checkoutInput(
		dto.CheckoutLine{ItemTypeID: cables.ID, Quantity: 3},
		dto.CheckoutLine{ItemTypeID: cameras.ID, Quantity: 2},
	))
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	assert.NotEmpty(t, result.GroupID)
	// One row for the quantity line, one row per serial unit.
	require.Len(t, result.Requests, 3)
	for _, r := range result.Requests {
		require.NotNil(t, r.GroupID)
		assert.Equal(t, result.GroupID, *r.GroupID)
		assert.Equal(t, lifecycle.StatusSubmitted, r.StoredStatus)
	}

	// The two serial rows hold distinct pre-assigned units.
	unitIDs := map[string]bool{}
	for _, r := range result.Requests {
		if r.ItemTypeID == cameras.ID {
			require.NotNil(t, r.UnitID)
			unitIDs[*r.UnitID] = true
			assert.Equal(t, 1, r.Quantity)
		}
	}
	assert.Len(t, unitIDs, 2)

	_, _, reqRepo, _, _ := e.store.Repos()
	rows, err := reqRepo.ListByGroup(result.GroupID)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestCheckoutAutoApprovesWholeGroup(t *testing.T) {
	e := newEnv(t, entity.DepartmentPolicy{AutoApproveRequests: true, AllowImmediate: true})
	ctx := context.Background()
	cables := e.seedQuantityItem(t, "HDMI Cable", 10)
	cameras := e.seedSerialItem(t, "Camera", "SN-001")

	result, err := e.uc.Checkout(ctx, staff, checkoutInput(
		dto.CheckoutLine{ItemTypeID: cables.ID, Quantity: 3},
		dto.CheckoutLine{ItemTypeID: cameras.ID, Quantity: 1},
	))
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Requests, 2)
	for _, r := range result.Requests {
		assert.Equal(t, lifecycle.StatusHandedOver, r.StoredStatus)
	}

	itemRepo, unitRepo, _, _, sigRepo := e.store.Repos()
	got, err := itemRepo.GetByID(cables.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Available)
	assert.Equal(t, 3, got.InUse)

	inUse, err := unitRepo.CountByStatus(cameras.ID, entity.UnitInUse)
	require.NoError(t, err)
	assert.Equal(t, 1, inUse)

	for _, r := range result.Requests {
		sig, err := sigRepo.GetByRequestAndKind(r.ID, entity.SignatureHandover)
		require.NoError(t, err)
		assert.NotNil(t, sig, "each handed-over row gets its own signature")
	}
	// One allocation movement per row.
	assert.Equal(t, 1, e.store.MovementCount(cables.ID))
	assert.Equal(t, 1, e.store.MovementCount(cameras.ID))
}

// staleUnitView answers availability listings from a snapshot taken before a
// competing claim, reproducing the window between group validation and row
// creation. Everything else hits the live store.
type staleUnitView struct {
	repository.ItemUnitRepository
	itemTypeID string
	snapshot   []*entity.ItemUnit
}

func (v *staleUnitView) ListByItemType(itemTypeID, status string) ([]*entity.ItemUnit, error) {
	if itemTypeID == v.itemTypeID && status == entity.UnitAvailable {
		return v.snapshot, nil
	}
	return v.ItemUnitRepository.ListByItemType(itemTypeID, status)
}

func TestCheckoutLateUnitClaimKeepsOtherRows(t *testing.T) {
	policy := entity.DepartmentPolicy{AutoApproveRequests: true, AllowImmediate: true}
	store := apptest.NewMemStore()
	itemRepo, unitRepo, reqRepo, _, _ := store.Repos()
	depRepo := store.DepartmentRepo()
	require.NoError(t, depRepo.Create(&entity.Department{
		ID: deptID, Name: "Audio/Visual", Policy: policy,
	}))
	requestUC := requests.NewRequestUseCase(
		apptest.NewMemTxRunner(store), itemRepo, unitRepo, reqRepo, depRepo,
		audit.NewEmitter(nil, nil),
	)

	e := &env{store: store}
	cables := e.seedQuantityItem(t, "HDMI Cable", 10)
	cameras := e.seedSerialItem(t, "Camera", "SN-001")

	// Snapshot the free units, then let a competing handover claim the camera
	// so the group validation below runs on an outdated view.
	snapshot, err := unitRepo.ListByItemType(cameras.ID, entity.UnitAvailable)
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	claimed := *snapshot[0]
	claimed.Status = entity.UnitInUse
	require.NoError(t, unitRepo.Update(&claimed))

	uc := checkout.NewGroupCheckoutUseCase(
		itemRepo,
		&staleUnitView{ItemUnitRepository: unitRepo, itemTypeID: cameras.ID, snapshot: snapshot},
		depRepo, requestUC,
	)

	ctx := context.Background()
	result, err := uc.Checkout(ctx, staff, checkoutInput(
		dto.CheckoutLine{ItemTypeID: cables.ID, Quantity: 3},
		dto.CheckoutLine{ItemTypeID: cameras.ID, Quantity: 1},
	))
	require.NoError(t, err)

	// Both rows were created; the cable row auto-approved through handover.
	require.Len(t, result.Requests, 2)
	assert.Equal(t, cables.ID, result.Requests[0].ItemTypeID)
	assert.Equal(t, lifecycle.StatusHandedOver, result.Requests[0].StoredStatus)

	// The camera row lost the race: it stands as submitted for manual
	// handling and the failure is reported per row, not for the group.
	assert.Equal(t, cameras.ID, result.Requests[1].ItemTypeID)
	assert.Equal(t, lifecycle.StatusSubmitted, result.Requests[1].StoredStatus)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, cameras.ID, result.Errors[0].ItemTypeID)
	assert.Contains(t, result.Errors[0].Message, "Camera")

	got, err := itemRepo.GetByID(cables.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Available)
	assert.Equal(t, 3, got.InUse)
}

func TestCheckoutRefusesInactiveItem(t *testing.T) {
	e := newEnv(t, entity.DepartmentPolicy{AllowImmediate: true})
	ctx := context.Background()
	item := e.seedQuantityItem(t, "Old Projector", 5)
	itemRepo, _, _, _, _ := e.store.Repos()
	require.NoError(t, itemRepo.Deactivate(item.ID))

	_, err := e.uc.Checkout(ctx, staff, checkoutInput(
		dto.CheckoutLine{ItemTypeID: item.ID, Quantity: 1},
	))
	assert.ErrorIs(t, err, domain.ErrValidation)
}
