package query

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cooola/inventory-core/internal/application/dto"
	"github.com/cooola/inventory-core/internal/domain"
	"github.com/cooola/inventory-core/internal/domain/entity"
	"github.com/cooola/inventory-core/internal/domain/repository"
)

// InventoryQueryUseCase lado de lectura del libro de inventario: consultas por
// referencia, alertas (bajo stock, agotados, por vencer) y agregados de
// cantidad y valorización. Nunca muta el libro; los resultados son snapshots
// y pueden estar ligeramente desactualizados respecto a mutaciones en curso,
// lo cual es aceptable porque son consultivos (reportes y alertas).
type InventoryQueryUseCase struct {
	entryRepo repository.InventoryEntryRepository
}

// NewInventoryQueryUseCase construye el caso de uso de consultas.
func NewInventoryQueryUseCase(entryRepo repository.InventoryEntryRepository) *InventoryQueryUseCase {
	return &InventoryQueryUseCase{entryRepo: entryRepo}
}

// EntriesByProduct filas del producto en todas las bodegas.
func (uc *InventoryQueryUseCase) EntriesByProduct(ctx context.Context, productID string) ([]dto.InventoryEntryResponse, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, domain.ErrInvalidInput
	}
	list, err := uc.entryRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return toEntryResponses(list), nil
}

// EntriesByWarehouse filas de la bodega, paginadas.
func (uc *InventoryQueryUseCase) EntriesByWarehouse(ctx context.Context, warehouseID string, limit, offset int) ([]dto.InventoryEntryResponse, error) {
	if strings.TrimSpace(warehouseID) == "" {
		return nil, domain.ErrInvalidInput
	}
	list, err := uc.entryRepo.ListByWarehouse(ctx, warehouseID, limit, offset)
	if err != nil {
		return nil, err
	}
	return toEntryResponses(list), nil
}

// EntriesByProductAndWarehouse filas del par (producto, bodega), todas las
// ubicaciones y lotes.
func (uc *InventoryQueryUseCase) EntriesByProductAndWarehouse(ctx context.Context, productID, warehouseID string) ([]dto.InventoryEntryResponse, error) {
	if strings.TrimSpace(productID) == "" || strings.TrimSpace(warehouseID) == "" {
		return nil, domain.ErrInvalidInput
	}
	list, err := uc.entryRepo.ListByProductAndWarehouse(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	return toEntryResponses(list), nil
}

// EntriesByProductWarehouseLocation filas del triple (producto, bodega,
// ubicación), todos los lotes.
func (uc *InventoryQueryUseCase) EntriesByProductWarehouseLocation(ctx context.Context, productID, warehouseID, locationID string) ([]dto.InventoryEntryResponse, error) {
	if strings.TrimSpace(productID) == "" || strings.TrimSpace(warehouseID) == "" {
		return nil, domain.ErrInvalidInput
	}
	list, err := uc.entryRepo.ListByProductWarehouseLocation(ctx, productID, warehouseID, locationID)
	if err != nil {
		return nil, err
	}
	return toEntryResponses(list), nil
}

// LowStock filas con disponible <= umbral. El umbral lo aporta el caller; no
// hay punto de reorden implícito por producto en este núcleo.
func (uc *InventoryQueryUseCase) LowStock(ctx context.Context, threshold decimal.Decimal) ([]dto.InventoryEntryResponse, error) {
	if threshold.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	list, err := uc.entryRepo.ListLowStock(ctx, threshold)
	if err != nil {
		return nil, err
	}
	return toEntryResponses(list), nil
}

// InStock filas con stock físico > 0.
func (uc *InventoryQueryUseCase) InStock(ctx context.Context) ([]dto.InventoryEntryResponse, error) {
	list, err := uc.entryRepo.ListInStock(ctx)
	if err != nil {
		return nil, err
	}
	return toEntryResponses(list), nil
}

// OutOfStock filas con stock físico = 0. Disjunto y exhaustivo con InStock
// sobre las filas existentes del libro.
func (uc *InventoryQueryUseCase) OutOfStock(ctx context.Context) ([]dto.InventoryEntryResponse, error) {
	list, err := uc.entryRepo.ListOutOfStock(ctx)
	if err != nil {
		return nil, err
	}
	return toEntryResponses(list), nil
}

// ExpiringSoon filas con fecha de vencimiento definida y <= cutoff.
func (uc *InventoryQueryUseCase) ExpiringSoon(ctx context.Context, cutoff time.Time) ([]dto.InventoryEntryResponse, error) {
	list, err := uc.entryRepo.ListExpiringBefore(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	return toEntryResponses(list), nil
}

// SearchByProductText filas cuyo producto coincide por subcadena en SKU o
// nombre. Política documentada: coincidencia case-insensitive, sin ranking,
// orden determinista por SKU.
func (uc *InventoryQueryUseCase) SearchByProductText(ctx context.Context, query string) ([]dto.InventoryEntryResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrInvalidInput
	}
	list, err := uc.entryRepo.SearchByProductText(ctx, query)
	if err != nil {
		return nil, err
	}
	return toEntryResponses(list), nil
}

// TotalQuantityByProduct stock físico total del producto sumado sobre todas
// las bodegas.
func (uc *InventoryQueryUseCase) TotalQuantityByProduct(ctx context.Context, productID string) (decimal.Decimal, error) {
	if strings.TrimSpace(productID) == "" {
		return decimal.Zero, domain.ErrInvalidInput
	}
	return uc.entryRepo.TotalQuantityByProduct(ctx, productID)
}

// TotalValueByWarehouse valorización de la bodega: suma de cantidad * costo
// unitario; las filas sin costo aportan cero.
func (uc *InventoryQueryUseCase) TotalValueByWarehouse(ctx context.Context, warehouseID string) (decimal.Decimal, error) {
	if strings.TrimSpace(warehouseID) == "" {
		return decimal.Zero, domain.ErrInvalidInput
	}
	return uc.entryRepo.TotalValueByWarehouse(ctx, warehouseID)
}

// WarehouseSummary resumen consultivo de la bodega: conteos con/sin stock y
// valorización total.
func (uc *InventoryQueryUseCase) WarehouseSummary(ctx context.Context, warehouseID string) (*dto.WarehouseStockSummaryDTO, error) {
	if strings.TrimSpace(warehouseID) == "" {
		return nil, domain.ErrInvalidInput
	}
	inStock, err := uc.entryRepo.CountInStockByWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	outOfStock, err := uc.entryRepo.CountOutOfStockByWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	value, err := uc.entryRepo.TotalValueByWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	return &dto.WarehouseStockSummaryDTO{
		WarehouseID:     warehouseID,
		InStockCount:    inStock,
		OutOfStockCount: outOfStock,
		TotalValue:      value,
	}, nil
}

func toEntryResponses(list []*entity.InventoryEntry) []dto.InventoryEntryResponse {
	items := make([]dto.InventoryEntryResponse, 0, len(list))
	for _, e := range list {
		items = append(items, dto.InventoryEntryResponse{
			ID:                e.ID,
			ProductID:         e.Key.ProductID,
			WarehouseID:       e.Key.WarehouseID,
			LocationID:        e.Key.LocationID,
			LotNumber:         e.Key.LotNumber,
			Quantity:          e.Quantity,
			ReservedQuantity:  e.ReservedQuantity,
			AvailableQuantity: e.AvailableQuantity,
			UnitCost:          e.UnitCost,
			ExpiryDate:        e.ExpiryDate,
			CreatedAt:         e.CreatedAt,
			UpdatedAt:         e.UpdatedAt,
		})
	}
	return items
}
