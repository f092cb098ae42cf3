package repository

import (
	"context"

	"github.com/cooola/inventory-core/internal/domain/entity"
)

// WarehouseRepository define el puerto de persistencia para bodegas y sus
// ubicaciones internas (DIP). El libro de inventario las referencia, no las posee.
type WarehouseRepository interface {
	Create(ctx context.Context, warehouse *entity.Warehouse) error
	GetByID(ctx context.Context, id string) (*entity.Warehouse, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	Update(ctx context.Context, warehouse *entity.Warehouse) error
	SetActive(ctx context.Context, id string, active bool) error
	List(ctx context.Context, limit, offset int) ([]*entity.Warehouse, error)

	CreateLocation(ctx context.Context, location *entity.Location) error
	GetLocation(ctx context.Context, id string) (*entity.Location, error)
	// LocationBelongsTo indica si la ubicación existe y pertenece a la bodega.
	LocationBelongsTo(ctx context.Context, locationID, warehouseID string) (bool, error)
	ListLocations(ctx context.Context, warehouseID string) ([]*entity.Location, error)
}
