package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cooola/inventory-core/internal/application/ledger"
	"github.com/cooola/inventory-core/internal/domain"
	"github.com/cooola/inventory-core/internal/domain/repository"
)

var _ ledger.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL. Es el
// alcance de exclusión por fila del libro: dentro de Run, GetForUpdate bloquea
// la fila hasta Commit/Rollback.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con el repositorio del libro atado a
// la tx y hace Commit o Rollback. Los fallos de serialización, deadlocks y la
// carrera de inserción inicial (clave única) se traducen a ErrConflict para
// que el caso de uso los reintente.
func (r *TxRunner) Run(ctx context.Context, fn func(entryRepo repository.InventoryEntryRepository) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewInventoryEntryRepository(tx)); err != nil {
		if isSerializationFailure(err) || isUniqueViolation(err) {
			return fmt.Errorf("tx perdió la carrera: %w", domain.ErrConflict)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if isSerializationFailure(err) {
			return fmt.Errorf("commit perdió la carrera: %w", domain.ErrConflict)
		}
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
