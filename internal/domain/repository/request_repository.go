package repository

import (
	"time"

	"github.com/itadmit/ipalsam-sub000/internal/domain/entity"
)

// RequestRepository is the persistence port for request lines. Requests are
// never deleted; the state machine only updates them.
type RequestRepository interface {
	Create(req *entity.Request) error
	GetByID(id string) (*entity.Request, error)
	GetForUpdate(id string) (*entity.Request, error)
	Update(req *entity.Request) error
	// List filters by department and status when non-empty.
	List(departmentID, status string, limit, offset int) ([]*entity.Request, error)
	ListByGroup(groupID string) ([]*entity.Request, error)
	// ListHandedOverDueBefore returns handed-over requests whose scheduled
	// return is before t (the overdue candidates).
	ListHandedOverDueBefore(t time.Time) ([]*entity.Request, error)
}
