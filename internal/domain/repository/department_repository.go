package repository

import "github.com/itadmit/ipalsam-sub000/internal/domain/entity"

// DepartmentRepository is the persistence port for departments and their
// request-handling policy.
type DepartmentRepository interface {
	Create(dep *entity.Department) error
	GetByID(id string) (*entity.Department, error)
	Update(dep *entity.Department) error
	List(limit, offset int) ([]*entity.Department, error)
}
