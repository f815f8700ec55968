// Package apptest provides in-memory repository fakes for use case tests.
// A MemTxRunner serializes transactions with a mutex, mirroring the row-lock
// serialization the postgres adapters get from SELECT FOR UPDATE. Reads hand
// out copies; a write is visible only after Update/Create stores it back.
package apptest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/itadmit/ipalsam-sub000/internal/application/ledger"
	"github.com/itadmit/ipalsam-sub000/internal/domain"
	"github.com/itadmit/ipalsam-sub000/internal/domain/entity"
	"github.com/itadmit/ipalsam-sub000/internal/domain/lifecycle"
	"github.com/itadmit/ipalsam-sub000/internal/domain/repository"
)

// MemStore holds all tables behind one mutex.
type MemStore struct {
	mu          sync.Mutex
	items       map[string]entity.ItemType
	units       map[string]entity.ItemUnit
	unitOrder   []string
	requests    map[string]entity.Request
	reqOrder    []string
	movements   []entity.Movement
	signatures  []entity.Signature
	departments map[string]entity.Department
	users       map[string]entity.User
}

// NewMemStore builds an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		items:       make(map[string]entity.ItemType),
		units:       make(map[string]entity.ItemUnit),
		requests:    make(map[string]entity.Request),
		departments: make(map[string]entity.Department),
		users:       make(map[string]entity.User),
	}
}

// Repos returns fake repositories bound to the store.
func (s *MemStore) Repos() (repository.ItemTypeRepository, repository.ItemUnitRepository, repository.RequestRepository, repository.MovementRepository, repository.SignatureRepository) {
	return &memItemTypeRepo{s}, &memItemUnitRepo{s}, &memRequestRepo{s}, &memMovementRepo{s}, &memSignatureRepo{s}
}

// DepartmentRepo returns a fake department repository.
func (s *MemStore) DepartmentRepo() repository.DepartmentRepository { return &memDepartmentRepo{s} }

// UserRepo returns a fake user repository.
func (s *MemStore) UserRepo() repository.UserRepository { return &memUserRepo{s} }

// MovementCount reports how many ledger rows exist for an item type.
func (s *MemStore) MovementCount(itemTypeID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.movements {
		if m.ItemTypeID == itemTypeID {
			n++
		}
	}
	return n
}

// MemTxRunner serializes Run calls, so each callback sees the store as the
// previous transaction left it. Fakes commit eagerly; the engine only writes
// after its checks pass, so no rollback is needed here.
type MemTxRunner struct {
	store *MemStore
	txMu  sync.Mutex
}

var _ ledger.TxRunner = (*MemTxRunner)(nil)

// NewMemTxRunner builds a runner over the store.
func NewMemTxRunner(store *MemStore) *MemTxRunner { return &MemTxRunner{store: store} }

// Run executes fn with repositories bound to the shared store, one
// transaction at a time.
func (r *MemTxRunner) Run(ctx context.Context, fn func(
	repository.ItemTypeRepository,
	repository.ItemUnitRepository,
	repository.RequestRepository,
	repository.MovementRepository,
	repository.SignatureRepository,
) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	itemRepo, unitRepo, reqRepo, movRepo, sigRepo := r.store.Repos()
	return fn(itemRepo, unitRepo, reqRepo, movRepo, sigRepo)
}

// --- item types ---

type memItemTypeRepo struct{ s *MemStore }

func (r *memItemTypeRepo) Create(item *entity.ItemType) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.items[item.ID] = *item
	return nil
}

func (r *memItemTypeRepo) GetByID(id string) (*entity.ItemType, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if it, ok := r.s.items[id]; ok {
		cp := it
		return &cp, nil
	}
	return nil, nil
}

func (r *memItemTypeRepo) GetForUpdate(id string) (*entity.ItemType, error) { return r.GetByID(id) }

func (r *memItemTypeRepo) Update(item *entity.ItemType) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.items[item.ID] = *item
	return nil
}

func (r *memItemTypeRepo) List(departmentID string, limit, offset int) ([]*entity.ItemType, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.ItemType
	for _, it := range r.s.items {
		if departmentID != "" && it.DepartmentID != departmentID {
			continue
		}
		cp := it
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, limit, offset), nil
}

func (r *memItemTypeRepo) ListBelowMinimum(departmentID string) ([]*entity.ItemType, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.ItemType
	for _, it := range r.s.items {
		if departmentID != "" && it.DepartmentID != departmentID {
			continue
		}
		if it.Active && !it.IsSerial() && it.BelowMinimum() {
			cp := it
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memItemTypeRepo) Deactivate(id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.items[id]
	if !ok {
		return nil
	}
	it.Active = false
	it.UpdatedAt = time.Now()
	r.s.items[id] = it
	return nil
}

func (r *memItemTypeRepo) Purge(id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.items, id)
	for uid, u := range r.s.units {
		if u.ItemTypeID == id {
			delete(r.s.units, uid)
		}
	}
	return nil
}

// --- item units ---

type memItemUnitRepo struct{ s *MemStore }

func (r *memItemUnitRepo) Create(unit *entity.ItemUnit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.units {
		if u.ItemTypeID == unit.ItemTypeID && strings.EqualFold(u.SerialNumber, unit.SerialNumber) {
			return errDuplicateSerial(unit.SerialNumber)
		}
	}
	r.s.units[unit.ID] = *unit
	r.s.unitOrder = append(r.s.unitOrder, unit.ID)
	return nil
}

func (r *memItemUnitRepo) GetByID(id string) (*entity.ItemUnit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.units[id]; ok {
		cp := u
		return &cp, nil
	}
	return nil, nil
}

func (r *memItemUnitRepo) GetForUpdate(id string) (*entity.ItemUnit, error) { return r.GetByID(id) }

func (r *memItemUnitRepo) NextAvailableForUpdate(itemTypeID string) (*entity.ItemUnit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, id := range r.s.unitOrder {
		u, ok := r.s.units[id]
		if ok && u.ItemTypeID == itemTypeID && u.Status == entity.UnitAvailable {
			cp := u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memItemUnitRepo) Update(unit *entity.ItemUnit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.units[unit.ID] = *unit
	return nil
}

func (r *memItemUnitRepo) ListByItemType(itemTypeID, status string) ([]*entity.ItemUnit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.ItemUnit
	for _, id := range r.s.unitOrder {
		u, ok := r.s.units[id]
		if !ok || u.ItemTypeID != itemTypeID {
			continue
		}
		if status != "" && u.Status != status {
			continue
		}
		cp := u
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memItemUnitRepo) CountByStatus(itemTypeID, status string) (int, error) {
	units, _ := r.ListByItemType(itemTypeID, status)
	return len(units), nil
}

// --- requests ---

type memRequestRepo struct{ s *MemStore }

func (r *memRequestRepo) Create(req *entity.Request) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.requests[req.ID] = *req
	r.s.reqOrder = append(r.s.reqOrder, req.ID)
	return nil
}

func (r *memRequestRepo) GetByID(id string) (*entity.Request, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if req, ok := r.s.requests[id]; ok {
		cp := req
		return &cp, nil
	}
	return nil, nil
}

func (r *memRequestRepo) GetForUpdate(id string) (*entity.Request, error) { return r.GetByID(id) }

func (r *memRequestRepo) Update(req *entity.Request) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.requests[req.ID] = *req
	return nil
}

func (r *memRequestRepo) List(departmentID, status string, limit, offset int) ([]*entity.Request, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Request
	for _, id := range r.s.reqOrder {
		req, ok := r.s.requests[id]
		if !ok {
			continue
		}
		if departmentID != "" && req.DepartmentID != departmentID {
			continue
		}
		if status != "" && req.Status != status {
			continue
		}
		cp := req
		out = append(out, &cp)
	}
	return page(out, limit, offset), nil
}

func (r *memRequestRepo) ListByGroup(groupID string) ([]*entity.Request, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Request
	for _, id := range r.s.reqOrder {
		req, ok := r.s.requests[id]
		if ok && req.GroupID != nil && *req.GroupID == groupID {
			cp := req
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memRequestRepo) ListHandedOverDueBefore(t time.Time) ([]*entity.Request, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Request
	for _, id := range r.s.reqOrder {
		req, ok := r.s.requests[id]
		if ok && req.Status == lifecycle.StatusHandedOver &&
			req.ScheduledReturnAt != nil && req.ScheduledReturnAt.Before(t) {
			cp := req
			out = append(out, &cp)
		}
	}
	return out, nil
}

// --- movements ---

type memMovementRepo struct{ s *MemStore }

func (r *memMovementRepo) Create(mov *entity.Movement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.movements = append(r.s.movements, *mov)
	return nil
}

func (r *memMovementRepo) ListByItemType(itemTypeID string, limit, offset int) ([]*entity.Movement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Movement
	for i := range r.s.movements {
		if r.s.movements[i].ItemTypeID == itemTypeID {
			cp := r.s.movements[i]
			out = append(out, &cp)
		}
	}
	return page(out, limit, offset), nil
}

func (r *memMovementRepo) ListByRequest(requestID string) ([]*entity.Movement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Movement
	for i := range r.s.movements {
		if r.s.movements[i].RequestID != nil && *r.s.movements[i].RequestID == requestID {
			cp := r.s.movements[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

// --- signatures ---

type memSignatureRepo struct{ s *MemStore }

func (r *memSignatureRepo) Create(sig *entity.Signature) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.signatures = append(r.s.signatures, *sig)
	return nil
}

func (r *memSignatureRepo) GetByRequestAndKind(requestID, kind string) (*entity.Signature, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.signatures {
		if r.s.signatures[i].RequestID == requestID && r.s.signatures[i].Kind == kind {
			cp := r.s.signatures[i]
			return &cp, nil
		}
	}
	return nil, nil
}

// --- departments ---

type memDepartmentRepo struct{ s *MemStore }

func (r *memDepartmentRepo) Create(dep *entity.Department) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.departments[dep.ID] = *dep
	return nil
}

func (r *memDepartmentRepo) GetByID(id string) (*entity.Department, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if d, ok := r.s.departments[id]; ok {
		cp := d
		return &cp, nil
	}
	return nil, nil
}

func (r *memDepartmentRepo) Update(dep *entity.Department) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.departments[dep.ID] = *dep
	return nil
}

func (r *memDepartmentRepo) List(limit, offset int) ([]*entity.Department, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Department
	for _, d := range r.s.departments {
		cp := d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, limit, offset), nil
}

// --- users ---

type memUserRepo struct{ s *MemStore }

func (r *memUserRepo) Create(user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return errEmailTaken(user.Email)
		}
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) GetByID(id string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok {
		cp := u
		return &cp, nil
	}
	return nil, nil
}

func (r *memUserRepo) FindByEmail(email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			cp := u
			return &cp, nil
		}
	}
	return nil, nil
}

func errDuplicateSerial(serial string) error {
	return fmt.Errorf("serial %q: %w", serial, domain.ErrDuplicateSerial)
}

func errEmailTaken(email string) error {
	return fmt.Errorf("email %q: %w", email, domain.ErrEmailTaken)
}

func page[T any](in []*T, limit, offset int) []*T {
	if offset >= len(in) {
		return nil
	}
	in = in[offset:]
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}
