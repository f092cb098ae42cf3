package entity

import "time"

// Warehouse representa una bodega física donde se almacena inventario.
type Warehouse struct {
	ID        string
	Name      string
	Address   string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Location sub-ubicación opcional dentro de una bodega (pasillo, estante, bin).
type Location struct {
	ID          string
	WarehouseID string
	Code        string // único dentro de la bodega
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
