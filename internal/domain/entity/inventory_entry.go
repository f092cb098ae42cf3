package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cooola/inventory-core/internal/domain"
)

// EntryKey identifica una fila del libro de inventario:
// (producto, bodega, ubicación opcional, lote opcional).
// LocationID y LotNumber vacíos significan "sin ubicación" / "sin lote";
// se normalizan a cadena vacía para que la clave única sea comparable.
type EntryKey struct {
	ProductID   string
	WarehouseID string
	LocationID  string
	LotNumber   string
}

// InventoryEntry es la fila del libro de inventario: stock físico, reservado y
// disponible para una EntryKey. AvailableQuantity es derivada y nunca se acepta
// como entrada: toda mutación debe terminar llamando a RecalcAvailable.
// Una fila en cero es significativa ("aquí no hay stock" vs "nunca hubo");
// solo se elimina como operación de mantenimiento, no en el flujo normal.
type InventoryEntry struct {
	ID                string
	Key               EntryKey
	Quantity          decimal.Decimal // stock físico, >= 0, 3 decimales
	ReservedQuantity  decimal.Decimal // >= 0 y <= Quantity, 3 decimales
	AvailableQuantity decimal.Decimal // derivada: Quantity - ReservedQuantity
	UnitCost          *decimal.Decimal // opcional, 2 decimales
	ExpiryDate        *time.Time       // opcional, típico de stock por lote
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// RecalcAvailable recalcula la cantidad disponible a partir de los operandos.
// Reemplaza el callback de ciclo de vida del ORM original: es un paso explícito
// e incondicional dentro de cada mutación, independiente de la persistencia.
func (e *InventoryEntry) RecalcAvailable() {
	e.AvailableQuantity = e.Quantity.Sub(e.ReservedQuantity)
}

// Validate verifica el invariante de stock:
// 0 <= ReservedQuantity <= Quantity y AvailableQuantity = Quantity - ReservedQuantity.
func (e *InventoryEntry) Validate() error {
	if e.Quantity.IsNegative() || e.ReservedQuantity.IsNegative() {
		return domain.ErrInvalidQuantity
	}
	if e.ReservedQuantity.GreaterThan(e.Quantity) {
		return domain.ErrInvalidQuantity
	}
	if !e.AvailableQuantity.Equal(e.Quantity.Sub(e.ReservedQuantity)) {
		return domain.ErrInvalidQuantity
	}
	return nil
}

// IsZero indica si la fila está completamente en cero (candidata a poda de mantenimiento).
func (e *InventoryEntry) IsZero() bool {
	return e.Quantity.IsZero() && e.ReservedQuantity.IsZero()
}
