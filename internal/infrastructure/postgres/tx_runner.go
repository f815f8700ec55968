package postgres

import (
	"context"
	"fmt"

	"github.com/itadmit/ipalsam-sub000/internal/application/ledger"
	"github.com/itadmit/ipalsam-sub000/internal/domain"
	"github.com/itadmit/ipalsam-sub000/internal/domain/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ ledger.TxRunner = (*TxRunner)(nil)

// TxRunner runs callbacks inside one PostgreSQL transaction, handing them
// repositories bound to that transaction. Row locks taken by the callback
// (SELECT FOR UPDATE) hold until commit or rollback, which is what makes the
// ledger's read-check-write sequences atomic.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner builds the runner with the pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run begins a transaction, executes fn with tx-bound repos and commits, or
// rolls back when fn errors.
func (r *TxRunner) Run(ctx context.Context, fn func(
	itemRepo repository.ItemTypeRepository,
	unitRepo repository.ItemUnitRepository,
	reqRepo repository.RequestRepository,
	movRepo repository.MovementRepository,
	sigRepo repository.SignatureRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %v: %w", err, domain.ErrInfrastructure)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	itemRepo := NewItemTypeRepository(tx)
	unitRepo := NewItemUnitRepository(tx)
	reqRepo := NewRequestRepository(tx)
	movRepo := NewMovementRepository(tx)
	sigRepo := NewSignatureRepository(tx)

	if err := fn(itemRepo, unitRepo, reqRepo, movRepo, sigRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %v: %w", err, domain.ErrInfrastructure)
	}
	return nil
}
