package requests_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itadmit/ipalsam-sub000/internal/application/apptest"
	"github.com/itadmit/ipalsam-sub000/internal/application/audit"
	"github.com/itadmit/ipalsam-sub000/internal/application/dto"
	"github.com/itadmit/ipalsam-sub000/internal/application/requests"
	"github.com/itadmit/ipalsam-sub000/internal/domain"
	"github.com/itadmit/ipalsam-sub000/internal/domain/entity"
	"github.com/itadmit/ipalsam-sub000/internal/domain/lifecycle"
)

const deptID = "dept-av"

var (
	manager      = entity.Actor{ID: "mgr-1", Role: entity.RoleManager, DepartmentID: deptID}
	otherManager = entity.Actor{ID: "mgr-2", Role: entity.RoleManager, DepartmentID: deptID}
	staff        = entity.Actor{ID: "stf-1", Role: entity.RoleStaff, DepartmentID: deptID}
)

type env struct {
	store *apptest.MemStore
	uc    *requests.RequestUseCase
}

func newEnv(t *testing.T, policy entity.DepartmentPolicy) *env {
	t.Helper()
	store := apptest.NewMemStore()
	itemRepo, unitRepo, reqRepo, _, _ := store.Repos()
	depRepo := store.DepartmentRepo()
	require.NoError(t, depRepo.Create(&entity.Department{
		ID: deptID, Name: "Audio/Visual", Policy: policy,
	}))
	uc := requests.NewRequestUseCase(
		apptest.NewMemTxRunner(store), itemRepo, unitRepo, reqRepo, depRepo,
		audit.NewEmitter(nil, nil),
	)
	return &env{store: store, uc: uc}
}

// manualPolicy accepts immediate requests but keeps approval manual.
var manualPolicy = entity.DepartmentPolicy{AllowImmediate: true, AllowScheduled: true}

func (e *env) seedQuantityItem(t *testing.T, total int, opts ...func(*entity.ItemType)) *entity.ItemType {
	t.Helper()
	itemRepo, _, _, _, _ := e.store.Repos()
	now := time.Now()
	item := &entity.ItemType{
		ID: uuid.New().String(), DepartmentID: deptID, Name: "HDMI Cable",
		TrackingMode: entity.TrackingQuantity,
		Total:        total, Available: total,
		Active: true, CreatedAt: now, UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(item)
	}
	require.NoError(t, itemRepo.Create(item))
	return item
}

func (e *env) seedSerialItem(t *testing.T, serials ...string) *entity.ItemType {
	t.Helper()
	itemRepo, unitRepo, _, _, _ := e.store.Repos()
	now := time.Now()
	item := &entity.ItemType{
		ID: uuid.New().String(), DepartmentID: deptID, Name: "Camera",
		TrackingMode: entity.TrackingSerial,
		Active:       true, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, itemRepo.Create(item))
	for i, sn := range serials {
		require.NoError(t, unitRepo.Create(&entity.ItemUnit{
			ID: uuid.New().String(), ItemTypeID: item.ID, SerialNumber: sn,
			Status:    entity.UnitAvailable,
			CreatedAt: now.Add(time.Duration(i) * time.Millisecond),
			UpdatedAt: now,
		}))
	}
	return item
}

func (e *env) submit(t *testing.T, itemID string, qty int) *entity.Request {
	t.Helper()
	req, err := e.uc.Submit(context.Background(), staff, dto.SubmitRequestInput{
		ItemTypeID:    itemID,
		Quantity:      qty,
		Urgency:       entity.UrgencyImmediate,
		RecipientName: "Dana Levi",
	})
	require.NoError(t, err)
	return req
}

func (e *env) item(t *testing.T, id string) *entity.ItemType {
	t.Helper()
	itemRepo, _, _, _, _ := e.store.Repos()
	item, err := itemRepo.GetByID(id)
	require.NoError(t, err)
	require.NotNil(t, item)
	return item
}

func TestLoanRoundTrip(t *testing.T) {
	e := newEnv(t, manualPolicy)
	ctx := context.Background()
	item := e.seedQuantityItem(t, 10)

	req := e.submit(t, item.ID, 3)
	assert.Equal(t, lifecycle.StatusSubmitted, req.Status)

	req, err := e.uc.Approve(ctx, manager, req.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusApproved, req.Status)
	// Approval reserves nothing.
	assert.Equal(t, 10, e.item(t, item.ID).Available)

	req, err = e.uc.Handover(ctx, manager, req.ID, dto.ConfirmInput{Confirmed: true})
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusHandedOver, req.Status)
	got := e.item(t, item.ID)
	assert.Equal(t, 7, got.Available)
	assert.Equal(t, 3, got.InUse)
	assert.Equal(t, 10, got.Total)

	_, _, _, movRepo, sigRepo := e.store.Repos()
	movs, err := movRepo.ListByRequest(req.ID)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementAllocation, movs[0].Type)
	sig, err := sigRepo.GetByRequestAndKind(req.ID, entity.SignatureHandover)
	require.NoError(t, err)
	require.NotNil(t, sig)
	assert.True(t, sig.Confirmed)

	req, err = e.uc.Return(ctx, manager, req.ID, dto.ConfirmInput{Confirmed: true})
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusReturned, req.Status)
	got = e.item(t, item.ID)
	assert.Equal(t, 10, got.Available)
	assert.Equal(t, 0, got.InUse)

	movs, err = movRepo.ListByRequest(req.ID)
	require.NoError(t, err)
	assert.Len(t, movs, 2)

	req, err = e.uc.Close(ctx, manager, req.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusClosed, req.Status)

	// Terminal: nothing moves a closed request.
	_, err = e.uc.Handover(ctx, manager, req.ID, dto.ConfirmInput{})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestHandoverRequiresApproval(t *testing.T) {
	e := newEnv(t, manualPolicy)
	item := e.seedQuantityItem(t, 5)
	req := e.submit(t, item.ID, 1)

	_, err := e.uc.Handover(context.Background(), manager, req.ID, dto.ConfirmInput{})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, 5, e.item(t, item.ID).Available)
}

func TestRejectRequiresReason(t *testing.T) {
	e := newEnv(t, manualPolicy)
	ctx := context.Background()
	item := e.seedQuantityItem(t, 5)
	req := e.submit(t, item.ID, 1)

	_, err := e.uc.Reject(ctx, manager, req.ID, "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	rejected, err := e.uc.Reject(ctx, manager, req.ID, "projector week, everything reserved")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusRejected, rejected.Status)
	assert.Equal(t, "projector week, everything reserved", rejected.RejectReason)

	// Rejected is terminal.
	_, err = e.uc.Approve(ctx, manager, req.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestApprovalAuthorization(t *testing.T) {
	e := newEnv(t, manualPolicy)
	ctx := context.Background()
	item := e.seedQuantityItem(t, 5)
	req := e.submit(t, item.ID, 1)

	_, err := e.uc.Approve(ctx, staff, req.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	outsider := entity.Actor{ID: "mgr-x", Role: entity.RoleManager, DepartmentID: "dept-other"}
	_, err = e.uc.Approve(ctx, outsider, req.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	admin := entity.Actor{ID: "adm-1", Role: entity.RoleAdmin}
	_, err = e.uc.Approve(ctx, admin, req.ID)
	assert.NoError(t, err)
}

func TestDoubleApprovalNeedsTwoDistinctActors(t *testing.T) {
	e := newEnv(t, manualPolicy)
	ctx := context.Background()
	item := e.seedQuantityItem(t, 5, func(it *entity.ItemType) { it.DoubleApprove = true })
	req := e.submit(t, item.ID, 1)

	first, err := e.uc.Approve(ctx, manager, req.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusSubmitted, first.Status)
	require.NotNil(t, first.FirstApprovedBy)
	assert.Equal(t, manager.ID, *first.FirstApprovedBy)

	_, err = e.uc.Approve(ctx, manager, req.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	second, err := e.uc.Approve(ctx, otherManager, req.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusApproved, second.Status)
	require.NotNil(t, second.ApprovedBy)
	assert.Equal(t, otherManager.ID, *second.ApprovedBy)
}

func TestAutoApprovalHandsOverImmediately(t *testing.T) {
	e := newEnv(t, entity.DepartmentPolicy{AutoApproveRequests: true, AllowImmediate: true})
	item := e.seedQuantityItem(t, 4)

	req := e.submit(t, item.ID, 2)
	assert.Equal(t, lifecycle.StatusHandedOver, req.Status)
	got := e.item(t, item.ID)
	assert.Equal(t, 2, got.Available)
	assert.Equal(t, 2, got.InUse)

	_, _, _, _, sigRepo := e.store.Repos()
	sig, err := sigRepo.GetByRequestAndKind(req.ID, entity.SignatureHandover)
	require.NoError(t, err)
	assert.NotNil(t, sig)
}

func TestAutoApprovalShortStockStaysSubmitted(t *testing.T) {
	e := newEnv(t, entity.DepartmentPolicy{AutoApproveRequests: true, AllowImmediate: true})
	item := e.seedQuantityItem(t, 1)

	req := e.submit(t, item.ID, 3)
	assert.Equal(t, lifecycle.StatusSubmitted, req.Status)
	assert.Equal(t, 1, e.item(t, item.ID).Available)
}

func TestAutoApprovalSkipsDoubleApproveItems(t *testing.T) {
	e := newEnv(t, entity.DepartmentPolicy{AutoApproveRequests: true, AllowImmediate: true})
	item := e.seedQuantityItem(t, 4, func(it *entity.ItemType) { it.DoubleApprove = true })

	req := e.submit(t, item.ID, 1)
	assert.Equal(t, lifecycle.StatusSubmitted, req.Status)
	assert.Equal(t, 4, e.item(t, item.ID).Available)
}

func TestUrgencyPolicy(t *testing.T) {
	e := newEnv(t, entity.DepartmentPolicy{AllowScheduled: true})
	item := e.seedQuantityItem(t, 4)

	_, err := e.uc.Submit(context.Background(), staff, dto.SubmitRequestInput{
		ItemTypeID: item.ID, Quantity: 1,
		Urgency:       entity.UrgencyImmediate,
		RecipientName: "Dana Levi",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = e.uc.Submit(context.Background(), staff, dto.SubmitRequestInput{
		ItemTypeID: item.ID, Quantity: 1,
		Urgency:       "whenever",
		RecipientName: "Dana Levi",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestMaxLoanDaysCapsScheduledReturn(t *testing.T) {
	e := newEnv(t, manualPolicy)
	item := e.seedQuantityItem(t, 4, func(it *entity.ItemType) { it.MaxLoanDays = 7 })

	tooLate := time.Now().AddDate(0, 0, 14)
	_, err := e.uc.Submit(context.Background(), staff, dto.SubmitRequestInput{
		ItemTypeID: item.ID, Quantity: 1,
		Urgency:           entity.UrgencyScheduled,
		RecipientName:     "Dana Levi",
		ScheduledReturnAt: &tooLate,
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestHandoverDefaultsScheduledReturn(t *testing.T) {
	e := newEnv(t, manualPolicy)
	ctx := context.Background()
	item := e.seedQuantityItem(t, 4, func(it *entity.ItemType) { it.MaxLoanDays = 7 })
	req := e.submit(t, item.ID, 1)

	req, err := e.uc.Approve(ctx, manager, req.ID)
	require.NoError(t, err)
	req, err = e.uc.Handover(ctx, manager, req.ID, dto.ConfirmInput{})
	require.NoError(t, err)
	require.NotNil(t, req.ScheduledReturnAt)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 7), *req.ScheduledReturnAt, time.Minute)
}

func TestSerialAllocationOldestFirst(t *testing.T) {
	e := newEnv(t, manualPolicy)
	ctx := context.Background()
	item := e.seedSerialItem(t, "SN-001", "SN-002")

	first := e.submit(t, item.ID, 1)
	second := e.submit(t, item.ID, 1)
	third := e.submit(t, item.ID, 1)

	_, unitRepo, _, _, _ := e.store.Repos()
	units, err := unitRepo.ListByItemType(item.ID, "")
	require.NoError(t, err)
	require.Len(t, units, 2)

	for _, id := range []string{first.ID, second.ID} {
		_, err := e.uc.Approve(ctx, manager, id)
		require.NoError(t, err)
	}

	got, err := e.uc.Handover(ctx, manager, first.ID, dto.ConfirmInput{})
	require.NoError(t, err)
	require.NotNil(t, got.UnitID)
	assert.Equal(t, units[0].ID, *got.UnitID)

	got, err = e.uc.Handover(ctx, manager, second.ID, dto.ConfirmInput{})
	require.NoError(t, err)
	require.NotNil(t, got.UnitID)
	assert.Equal(t, units[1].ID, *got.UnitID)

	// Nothing left: the third request cannot even be approved.
	_, err = e.uc.Approve(ctx, manager, third.ID)
	assert.ErrorIs(t, err, domain.ErrNoUnitAvailable)

	// Returning the first unit frees it again, holder cleared.
	_, err = e.uc.Return(ctx, manager, first.ID, dto.ConfirmInput{})
	require.NoError(t, err)
	u, err := unitRepo.GetByID(units[0].ID)
	require.NoError(t, err)
	assert.Equal(t, entity.UnitAvailable, u.Status)
	assert.Nil(t, u.HolderID)
}

func TestConcurrentHandoverOfLastStock(t *testing.T) {
	e := newEnv(t, manualPolicy)
	ctx := context.Background()
	item := e.seedQuantityItem(t, 1)

	a := e.submit(t, item.ID, 1)
	b := e.submit(t, item.ID, 1)
	for _, id := range []string{a.ID, b.ID} {
		_, err := e.uc.Approve(ctx, manager, id)
		require.NoError(t, err)
	}

	errs := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	for i, id := range []string{a.ID, b.ID} {
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = e.uc.Handover(ctx, manager, id, dto.ConfirmInput{})
		}(i, id)
	}
	wg.Wait()

	// Exactly one side wins the last piece.
	if errs[0] == nil {
		assert.ErrorIs(t, errs[1], domain.ErrInsufficientStock)
	} else {
		assert.ErrorIs(t, errs[0], domain.ErrInsufficientStock)
		assert.NoError(t, errs[1])
	}
	got := e.item(t, item.ID)
	assert.Equal(t, 0, got.Available)
	assert.Equal(t, 1, got.InUse)
	assert.Equal(t, 1, e.store.MovementCount(item.ID))
}

func TestConcurrentHandoverOfLastUnit(t *testing.T) {
	e := newEnv(t, manualPolicy)
	ctx := context.Background()
	item := e.seedSerialItem(t, "SN-001")

	a := e.submit(t, item.ID, 1)
	b := e.submit(t, item.ID, 1)
	// Both approvals pass while the unit is still free.
	for _, id := range []string{a.ID, b.ID} {
		_, err := e.uc.Approve(ctx, manager, id)
		require.NoError(t, err)
	}

	errs := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	for i, id := range []string{a.ID, b.ID} {
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = e.uc.Handover(ctx, manager, id, dto.ConfirmInput{})
		}(i, id)
	}
	wg.Wait()

	// Exactly one side claims the unit, the other finds none left.
	winner, loser := a.ID, b.ID
	if errs[0] != nil {
		assert.NoError(t, errs[1])
		assert.ErrorIs(t, errs[0], domain.ErrNoUnitAvailable)
		winner, loser = b.ID, a.ID
	} else {
		assert.ErrorIs(t, errs[1], domain.ErrNoUnitAvailable)
	}

	_, unitRepo, reqRepo, _, _ := e.store.Repos()
	inUse, err := unitRepo.CountByStatus(item.ID, entity.UnitInUse)
	require.NoError(t, err)
	assert.Equal(t, 1, inUse)
	assert.Equal(t, 1, e.store.MovementCount(item.ID))

	won, err := reqRepo.GetByID(winner)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusHandedOver, won.Status)
	require.NotNil(t, won.UnitID)

	// The losing request is untouched and can retry once stock returns.
	lost, err := reqRepo.GetByID(loser)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusApproved, lost.Status)
	assert.Nil(t, lost.UnitID)
}

func TestCloseWithoutReturnWritesStockOff(t *testing.T) {
	e := newEnv(t, manualPolicy)
	ctx := context.Background()
	item := e.seedQuantityItem(t, 3)
	req := e.submit(t, item.ID, 1)

	_, err := e.uc.Approve(ctx, manager, req.ID)
	require.NoError(t, err)
	_, err = e.uc.Handover(ctx, manager, req.ID, dto.ConfirmInput{})
	require.NoError(t, err)

	closed, err := e.uc.Close(ctx, manager, req.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusClosed, closed.Status)
	// No release happened: the stock stays written off as in use.
	got := e.item(t, item.ID)
	assert.Equal(t, 2, got.Available)
	assert.Equal(t, 1, got.InUse)
}

func TestListOverdue(t *testing.T) {
	e := newEnv(t, manualPolicy)
	ctx := context.Background()
	item := e.seedQuantityItem(t, 5)

	due := time.Now().Add(-time.Hour)
	late := e.submit(t, item.ID, 1)
	_, err := e.uc.Approve(ctx, manager, late.ID)
	require.NoError(t, err)
	_, err = e.uc.Handover(ctx, manager, late.ID, dto.ConfirmInput{})
	require.NoError(t, err)

	// Backdate the scheduled return directly.
	_, _, reqRepo, _, _ := e.store.Repos()
	stored, err := reqRepo.GetByID(late.ID)
	require.NoError(t, err)
	stored.ScheduledReturnAt = &due
	require.NoError(t, reqRepo.Update(stored))

	onTime := e.submit(t, item.ID, 1)
	_, err = e.uc.Approve(ctx, manager, onTime.ID)
	require.NoError(t, err)
	_, err = e.uc.Handover(ctx, manager, onTime.ID, dto.ConfirmInput{})
	require.NoError(t, err)

	overdue, err := e.uc.ListOverdue(ctx)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, late.ID, overdue[0].ID)
	// Stored status stays handed_over; overdue is only the reported view.
	assert.Equal(t, lifecycle.StatusHandedOver, overdue[0].Status)
	assert.Equal(t, lifecycle.StatusOverdue, lifecycle.EffectiveStatus(overdue[0], time.Now()))
}

func TestListValidatesStatusFilter(t *testing.T) {
	e := newEnv(t, manualPolicy)
	_, err := e.uc.List(context.Background(), "", "draft", dto.PageRequest{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
