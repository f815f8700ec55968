package repository

import "github.com/itadmit/ipalsam-sub000/internal/domain/entity"

// ItemTypeRepository is the persistence port for catalog entries. Counter
// mutations must go through GetForUpdate + Update inside a transaction so the
// read-check-write sequence is atomic per item type.
type ItemTypeRepository interface {
	Create(item *entity.ItemType) error
	GetByID(id string) (*entity.ItemType, error)
	// GetForUpdate locks the row for the rest of the transaction (SELECT FOR UPDATE).
	GetForUpdate(id string) (*entity.ItemType, error)
	Update(item *entity.ItemType) error
	List(departmentID string, limit, offset int) ([]*entity.ItemType, error)
	// ListBelowMinimum returns active quantity-mode items whose available stock
	// sits under their alert threshold.
	ListBelowMinimum(departmentID string) ([]*entity.ItemType, error)
	Deactivate(id string) error
	// Purge hard-deletes the item type and everything referencing it.
	// Administrative cleanup only.
	Purge(id string) error
}
