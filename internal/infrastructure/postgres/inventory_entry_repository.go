package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/cooola/inventory-core/internal/domain/entity"
	"github.com/cooola/inventory-core/internal/domain/repository"
)

var _ repository.InventoryEntryRepository = (*InventoryEntryRepo)(nil)

// InventoryEntryRepo implementación del libro de inventario sobre PostgreSQL
// (usable con pool o tx). La clave única de fila es
// (product_id, warehouse_id, location_id, lot_number) con ubicación y lote
// normalizados a cadena vacía cuando no aplican.
type InventoryEntryRepo struct {
	q Querier
}

// NewInventoryEntryRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryEntryRepository(q Querier) *InventoryEntryRepo {
	return &InventoryEntryRepo{q: q}
}

const entryColumns = `id, product_id, warehouse_id, location_id, lot_number,
		quantity, reserved_quantity, available_quantity, unit_cost, expiry_date,
		created_at, updated_at`

// Get obtiene la fila por clave; nil si la clave nunca ha tenido stock.
func (r *InventoryEntryRepo) Get(ctx context.Context, key entity.EntryKey) (*entity.InventoryEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM inventory_entries
		WHERE product_id = $1 AND warehouse_id = $2 AND location_id = $3 AND lot_number = $4`
	e, err := scanEntry(r.q.QueryRow(ctx, query, key.ProductID, key.WarehouseID, key.LocationID, key.LotNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inventory entry: %w", err)
	}
	return e, nil
}

// GetForUpdate obtiene la fila y la bloquea (SELECT FOR UPDATE) hasta el fin
// de la transacción en curso.
func (r *InventoryEntryRepo) GetForUpdate(ctx context.Context, key entity.EntryKey) (*entity.InventoryEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM inventory_entries
		WHERE product_id = $1 AND warehouse_id = $2 AND location_id = $3 AND lot_number = $4
		FOR UPDATE`
	e, err := scanEntry(r.q.QueryRow(ctx, query, key.ProductID, key.WarehouseID, key.LocationID, key.LotNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inventory entry for update: %w", err)
	}
	return e, nil
}

// Insert persiste una fila nueva. Una violación de la clave única significa
// que otra transacción creó la fila primero; el TxRunner la traduce a conflicto.
func (r *InventoryEntryRepo) Insert(ctx context.Context, e *entity.InventoryEntry) error {
	query := `
		INSERT INTO inventory_entries (id, product_id, warehouse_id, location_id, lot_number,
			quantity, reserved_quantity, available_quantity, unit_cost, expiry_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		e.ID, e.Key.ProductID, e.Key.WarehouseID, e.Key.LocationID, e.Key.LotNumber,
		e.Quantity, e.ReservedQuantity, e.AvailableQuantity, e.UnitCost, e.ExpiryDate,
		e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("insert inventory entry: %w", err)
	}
	return nil
}

// Update persiste las cantidades y atributos mutables de la fila.
func (r *InventoryEntryRepo) Update(ctx context.Context, e *entity.InventoryEntry) error {
	query := `
		UPDATE inventory_entries
		SET quantity = $2, reserved_quantity = $3, available_quantity = $4,
			unit_cost = $5, expiry_date = $6, updated_at = $7
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		e.ID, e.Quantity, e.ReservedQuantity, e.AvailableQuantity,
		e.UnitCost, e.ExpiryDate, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update inventory entry: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("update inventory entry %s: fila inexistente", e.ID)
	}
	return nil
}

// Delete elimina la fila por clave (poda de mantenimiento).
func (r *InventoryEntryRepo) Delete(ctx context.Context, key entity.EntryKey) error {
	query := `
		DELETE FROM inventory_entries
		WHERE product_id = $1 AND warehouse_id = $2 AND location_id = $3 AND lot_number = $4`
	_, err := r.q.Exec(ctx, query, key.ProductID, key.WarehouseID, key.LocationID, key.LotNumber)
	if err != nil {
		return fmt.Errorf("delete inventory entry: %w", err)
	}
	return nil
}

// ListByProduct filas del producto en todas las bodegas.
func (r *InventoryEntryRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.InventoryEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM inventory_entries
		WHERE product_id = $1
		ORDER BY warehouse_id, location_id, lot_number`
	return r.list(ctx, "list entries by product", query, productID)
}

// ListByWarehouse filas de la bodega, paginadas.
func (r *InventoryEntryRepo) ListByWarehouse(ctx context.Context, warehouseID string, limit, offset int) ([]*entity.InventoryEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM inventory_entries
		WHERE warehouse_id = $1
		ORDER BY product_id, location_id, lot_number
		LIMIT $2 OFFSET $3`
	return r.list(ctx, "list entries by warehouse", query, warehouseID, limit, offset)
}

// ListByProductAndWarehouse filas del par (producto, bodega).
func (r *InventoryEntryRepo) ListByProductAndWarehouse(ctx context.Context, productID, warehouseID string) ([]*entity.InventoryEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM inventory_entries
		WHERE product_id = $1 AND warehouse_id = $2
		ORDER BY location_id, lot_number`
	return r.list(ctx, "list entries by product and warehouse", query, productID, warehouseID)
}

// ListByProductWarehouseLocation filas del triple (producto, bodega, ubicación).
func (r *InventoryEntryRepo) ListByProductWarehouseLocation(ctx context.Context, productID, warehouseID, locationID string) ([]*entity.InventoryEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM inventory_entries
		WHERE product_id = $1 AND warehouse_id = $2 AND location_id = $3
		ORDER BY lot_number`
	return r.list(ctx, "list entries by product, warehouse and location", query, productID, warehouseID, locationID)
}

// ListLowStock filas con disponible <= umbral, las más críticas primero.
func (r *InventoryEntryRepo) ListLowStock(ctx context.Context, threshold decimal.Decimal) ([]*entity.InventoryEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM inventory_entries
		WHERE available_quantity <= $1
		ORDER BY available_quantity ASC, product_id`
	return r.list(ctx, "list low stock entries", query, threshold)
}

// ListInStock filas con stock físico > 0.
func (r *InventoryEntryRepo) ListInStock(ctx context.Context) ([]*entity.InventoryEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM inventory_entries
		WHERE quantity > 0
		ORDER BY product_id, warehouse_id`
	return r.list(ctx, "list in-stock entries", query)
}

// ListOutOfStock filas con stock físico = 0.
func (r *InventoryEntryRepo) ListOutOfStock(ctx context.Context) ([]*entity.InventoryEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM inventory_entries
		WHERE quantity = 0
		ORDER BY product_id, warehouse_id`
	return r.list(ctx, "list out-of-stock entries", query)
}

// ListExpiringBefore filas con fecha de vencimiento definida y <= cutoff,
// las más próximas a vencer primero.
func (r *InventoryEntryRepo) ListExpiringBefore(ctx context.Context, cutoff time.Time) ([]*entity.InventoryEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM inventory_entries
		WHERE expiry_date IS NOT NULL AND expiry_date <= $1
		ORDER BY expiry_date ASC, product_id`
	return r.list(ctx, "list expiring entries", query, cutoff)
}

// SearchByProductText filas cuyo producto coincide por subcadena
// (case-insensitive, ILIKE) en SKU o nombre, ordenadas por SKU.
func (r *InventoryEntryRepo) SearchByProductText(ctx context.Context, q string) ([]*entity.InventoryEntry, error) {
	query := `
		SELECT i.id, i.product_id, i.warehouse_id, i.location_id, i.lot_number,
			i.quantity, i.reserved_quantity, i.available_quantity, i.unit_cost, i.expiry_date,
			i.created_at, i.updated_at
		FROM inventory_entries i
		JOIN products p ON p.id = i.product_id
		WHERE p.sku ILIKE '%' || $1 || '%' OR p.name ILIKE '%' || $1 || '%'
		ORDER BY p.sku, i.warehouse_id, i.location_id, i.lot_number`
	return r.list(ctx, "search entries by product text", query, q)
}

// TotalQuantityByProduct suma del stock físico del producto en todas las bodegas.
func (r *InventoryEntryRepo) TotalQuantityByProduct(ctx context.Context, productID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.q.QueryRow(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM inventory_entries WHERE product_id = $1`,
		productID,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("total quantity by product: %w", err)
	}
	return total, nil
}

// TotalValueByWarehouse valorización de la bodega; costo ausente aporta cero.
func (r *InventoryEntryRepo) TotalValueByWarehouse(ctx context.Context, warehouseID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.q.QueryRow(ctx,
		`SELECT COALESCE(SUM(quantity * COALESCE(unit_cost, 0)), 0)
		 FROM inventory_entries WHERE warehouse_id = $1`,
		warehouseID,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("total value by warehouse: %w", err)
	}
	return total, nil
}

// CountInStockByWarehouse conteo de filas con stock en la bodega.
func (r *InventoryEntryRepo) CountInStockByWarehouse(ctx context.Context, warehouseID string) (int64, error) {
	var n int64
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM inventory_entries WHERE warehouse_id = $1 AND quantity > 0`,
		warehouseID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count in-stock by warehouse: %w", err)
	}
	return n, nil
}

// CountOutOfStockByWarehouse conteo de filas agotadas en la bodega.
func (r *InventoryEntryRepo) CountOutOfStockByWarehouse(ctx context.Context, warehouseID string) (int64, error) {
	var n int64
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM inventory_entries WHERE warehouse_id = $1 AND quantity = 0`,
		warehouseID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count out-of-stock by warehouse: %w", err)
	}
	return n, nil
}

func (r *InventoryEntryRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.InventoryEntry, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var list []*entity.InventoryEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

func scanEntry(row pgx.Row) (*entity.InventoryEntry, error) {
	var e entity.InventoryEntry
	err := row.Scan(
		&e.ID, &e.Key.ProductID, &e.Key.WarehouseID, &e.Key.LocationID, &e.Key.LotNumber,
		&e.Quantity, &e.ReservedQuantity, &e.AvailableQuantity, &e.UnitCost, &e.ExpiryDate,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
