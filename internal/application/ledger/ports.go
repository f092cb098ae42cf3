package ledger

import (
	"context"

	"github.com/cooola/inventory-core/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando el
// repositorio del libro atado a esa tx. Garantiza atomicidad por clave de fila:
// dentro de fn, GetForUpdate bloquea la fila hasta el Commit/Rollback.
type TxRunner interface {
	Run(ctx context.Context, fn func(entryRepo repository.InventoryEntryRepository) error) error
}
