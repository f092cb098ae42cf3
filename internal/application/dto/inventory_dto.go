package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryKeyDTO identifica una fila del libro: producto + bodega + ubicación/lote opcionales.
type EntryKeyDTO struct {
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id"`
	LocationID  string `json:"location_id,omitempty"`
	LotNumber   string `json:"lot_number,omitempty"`
}

// UpsertQuantityRequest entrada para crear la fila o sumar/restar stock físico.
// Delta positivo = recepción, negativo = salida directa. UnitCost y ExpiryDate
// solo aplican si vienen definidos; la cantidad disponible jamás se acepta como entrada.
type UpsertQuantityRequest struct {
	Key        EntryKeyDTO      `json:"key"`
	Delta      decimal.Decimal  `json:"delta"`
	UnitCost   *decimal.Decimal `json:"unit_cost,omitempty"`
	ExpiryDate *time.Time       `json:"expiry_date,omitempty"`
}

// AmountRequest entrada para reservar, liberar o despachar una cantidad sobre una fila.
type AmountRequest struct {
	Key    EntryKeyDTO     `json:"key"`
	Amount decimal.Decimal `json:"amount"`
}

// InventoryEntryResponse fila del libro de inventario expuesta a la capa externa.
type InventoryEntryResponse struct {
	ID                string           `json:"id"`
	ProductID         string           `json:"product_id"`
	WarehouseID       string           `json:"warehouse_id"`
	LocationID        string           `json:"location_id,omitempty"`
	LotNumber         string           `json:"lot_number,omitempty"`
	Quantity          decimal.Decimal  `json:"quantity"`
	ReservedQuantity  decimal.Decimal  `json:"reserved_quantity"`
	AvailableQuantity decimal.Decimal  `json:"available_quantity"`
	UnitCost          *decimal.Decimal `json:"unit_cost,omitempty"`
	ExpiryDate        *time.Time       `json:"expiry_date,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// WarehouseStockSummaryDTO resumen de una bodega para tableros y reportes.
type WarehouseStockSummaryDTO struct {
	WarehouseID     string          `json:"warehouse_id"`
	InStockCount    int64           `json:"in_stock_count"`
	OutOfStockCount int64           `json:"out_of_stock_count"`
	TotalValue      decimal.Decimal `json:"total_value"`
}
