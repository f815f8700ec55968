package ledger

import (
	"context"

	"github.com/itadmit/ipalsam-sub000/internal/domain/repository"
)

// TxRunner runs a function inside one database transaction, handing it
// repositories bound to that transaction. Every ledger mutation and every
// state-machine transition goes through it so the read-check-write sequence
// against an item type or unit is atomic with respect to other callers.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		itemRepo repository.ItemTypeRepository,
		unitRepo repository.ItemUnitRepository,
		reqRepo repository.RequestRepository,
		movRepo repository.MovementRepository,
		sigRepo repository.SignatureRepository,
	) error) error
}
