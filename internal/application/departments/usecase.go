// Package departments manages departments and their request-handling policy
// (auto-approval, allowed urgencies).
package departments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/itadmit/ipalsam-sub000/internal/application/audit"
	"github.com/itadmit/ipalsam-sub000/internal/application/dto"
	"github.com/itadmit/ipalsam-sub000/internal/domain"
	"github.com/itadmit/ipalsam-sub000/internal/domain/entity"
	"github.com/itadmit/ipalsam-sub000/internal/domain/repository"
)

// DepartmentUseCase department CRUD and policy editing.
type DepartmentUseCase struct {
	depRepo repository.DepartmentRepository
	audit   *audit.Emitter
}

// NewDepartmentUseCase builds the use case.
func NewDepartmentUseCase(depRepo repository.DepartmentRepository, auditEmitter *audit.Emitter) *DepartmentUseCase {
	return &DepartmentUseCase{depRepo: depRepo, audit: auditEmitter}
}

// Create registers a department. Admin only.
func (uc *DepartmentUseCase) Create(ctx context.Context, actor entity.Actor, in dto.CreateDepartmentRequest) (*entity.Department, error) {
	if actor.Role != entity.RoleAdmin {
		return nil, domain.ErrForbidden
	}
	if in.Name == "" {
		return nil, fmt.Errorf("name is required: %w", domain.ErrValidation)
	}
	now := time.Now()
	dep := &entity.Department{
		ID:   uuid.New().String(),
		Name: in.Name,
		Policy: entity.DepartmentPolicy{
			AutoApproveRequests: in.AutoApproveRequests,
			AllowImmediate:      in.AllowImmediate,
			AllowScheduled:      in.AllowScheduled,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.depRepo.Create(dep); err != nil {
		return nil, err
	}
	uc.audit.Emit(ctx, audit.Event{
		Action: "department.create", EntityType: "department", EntityID: dep.ID,
		ActorID: actor.ID, After: dep,
	})
	return dep, nil
}

// UpdatePolicy edits name and policy flags. Managers of the department or
// admins.
func (uc *DepartmentUseCase) UpdatePolicy(ctx context.Context, actor entity.Actor, id string, in dto.CreateDepartmentRequest) (*entity.Department, error) {
	dep, err := uc.depRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if dep == nil {
		return nil, fmt.Errorf("department %s: %w", id, domain.ErrNotFound)
	}
	if !actor.CanManage(id) {
		return nil, domain.ErrForbidden
	}
	before := *dep
	if in.Name != "" {
		dep.Name = in.Name
	}
	dep.Policy = entity.DepartmentPolicy{
		AutoApproveRequests: in.AutoApproveRequests,
		AllowImmediate:      in.AllowImmediate,
		AllowScheduled:      in.AllowScheduled,
	}
	dep.UpdatedAt = time.Now()
	if err := uc.depRepo.Update(dep); err != nil {
		return nil, err
	}
	uc.audit.Emit(ctx, audit.Event{
		Action: "department.update", EntityType: "department", EntityID: id,
		ActorID: actor.ID, Before: before, After: dep,
	})
	return dep, nil
}

// Get fetches one department.
func (uc *DepartmentUseCase) Get(ctx context.Context, id string) (*entity.Department, error) {
	dep, err := uc.depRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if dep == nil {
		return nil, fmt.Errorf("department %s: %w", id, domain.ErrNotFound)
	}
	return dep, nil
}

// List pages departments.
func (uc *DepartmentUseCase) List(ctx context.Context, page dto.PageRequest) ([]*entity.Department, error) {
	page.DefaultPage()
	return uc.depRepo.List(page.Limit, page.Offset)
}
