package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cooola/inventory-core/internal/domain/entity"
)

// InventoryEntryRepository define el puerto para el libro de inventario (DIP).
// Las mutaciones (Insert/Update/Delete) se usan dentro de transacciones con
// GetForUpdate para garantizar atomicidad por clave; las consultas son de solo
// lectura y toleran snapshots ligeramente desactualizados.
type InventoryEntryRepository interface {
	Get(ctx context.Context, key entity.EntryKey) (*entity.InventoryEntry, error)
	// GetForUpdate obtiene la fila y la bloquea (SELECT FOR UPDATE) hasta el
	// fin de la transacción. Devuelve nil si la clave no tiene fila.
	GetForUpdate(ctx context.Context, key entity.EntryKey) (*entity.InventoryEntry, error)
	Insert(ctx context.Context, e *entity.InventoryEntry) error
	Update(ctx context.Context, e *entity.InventoryEntry) error
	// Delete elimina la fila por clave (poda de mantenimiento de filas en cero).
	Delete(ctx context.Context, key entity.EntryKey) error

	ListByProduct(ctx context.Context, productID string) ([]*entity.InventoryEntry, error)
	ListByWarehouse(ctx context.Context, warehouseID string, limit, offset int) ([]*entity.InventoryEntry, error)
	ListByProductAndWarehouse(ctx context.Context, productID, warehouseID string) ([]*entity.InventoryEntry, error)
	ListByProductWarehouseLocation(ctx context.Context, productID, warehouseID, locationID string) ([]*entity.InventoryEntry, error)

	// ListLowStock filas con disponible <= umbral (el umbral lo aporta el caller;
	// el punto de reorden por producto pertenece a planeación, fuera de alcance).
	ListLowStock(ctx context.Context, threshold decimal.Decimal) ([]*entity.InventoryEntry, error)
	// ListInStock filas con cantidad física > 0; ListOutOfStock con cantidad = 0.
	// Disjuntas y exhaustivas sobre las filas existentes.
	ListInStock(ctx context.Context) ([]*entity.InventoryEntry, error)
	ListOutOfStock(ctx context.Context) ([]*entity.InventoryEntry, error)
	// ListExpiringBefore filas con fecha de vencimiento definida y <= cutoff.
	ListExpiringBefore(ctx context.Context, cutoff time.Time) ([]*entity.InventoryEntry, error)

	// SearchByProductText filas cuyo producto coincide por subcadena
	// (case-insensitive) en SKU o nombre, ordenadas por SKU.
	SearchByProductText(ctx context.Context, query string) ([]*entity.InventoryEntry, error)

	// TotalQuantityByProduct suma de cantidad física del producto en todas las bodegas.
	TotalQuantityByProduct(ctx context.Context, productID string) (decimal.Decimal, error)
	// TotalValueByWarehouse suma de cantidad * costo unitario en la bodega;
	// costo ausente aporta cero.
	TotalValueByWarehouse(ctx context.Context, warehouseID string) (decimal.Decimal, error)
	CountInStockByWarehouse(ctx context.Context, warehouseID string) (int64, error)
	CountOutOfStockByWarehouse(ctx context.Context, warehouseID string) (int64, error)
}
