package repository

import "github.com/itadmit/ipalsam-sub000/internal/domain/entity"

// MovementRepository is the persistence port for the allocation ledger.
// Append-only: there is deliberately no update or delete.
type MovementRepository interface {
	Create(mov *entity.Movement) error
	ListByItemType(itemTypeID string, limit, offset int) ([]*entity.Movement, error)
	ListByRequest(requestID string) ([]*entity.Movement, error)
}
