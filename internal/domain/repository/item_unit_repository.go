package repository

import "github.com/itadmit/ipalsam-sub000/internal/domain/entity"

// ItemUnitRepository is the persistence port for serialized units.
type ItemUnitRepository interface {
	Create(unit *entity.ItemUnit) error
	GetByID(id string) (*entity.ItemUnit, error)
	GetForUpdate(id string) (*entity.ItemUnit, error)
	// NextAvailableForUpdate selects and locks the oldest available unit of an
	// item type (ascending creation order), or returns nil when none remain.
	// Deterministic selection: the same unit is never handed to two callers
	// because the row stays locked until the transaction ends.
	NextAvailableForUpdate(itemTypeID string) (*entity.ItemUnit, error)
	Update(unit *entity.ItemUnit) error
	// ListByItemType filters by status when status != "".
	ListByItemType(itemTypeID, status string) ([]*entity.ItemUnit, error)
	CountByStatus(itemTypeID, status string) (int, error)
}
