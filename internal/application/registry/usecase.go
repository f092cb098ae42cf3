package registry

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cooola/inventory-core/internal/application/dto"
	"github.com/cooola/inventory-core/internal/domain"
	"github.com/cooola/inventory-core/internal/domain/entity"
	"github.com/cooola/inventory-core/internal/domain/repository"
)

// WarehouseUseCase registro de bodegas y sus ubicaciones internas. El libro de
// inventario las referencia por ID; aquí solo vive la identidad y metadatos.
type WarehouseUseCase struct {
	repo repository.WarehouseRepository
}

// NewWarehouseUseCase construye el caso de uso.
func NewWarehouseUseCase(repo repository.WarehouseRepository) *WarehouseUseCase {
	return &WarehouseUseCase{repo: repo}
}

// Create registra una nueva bodega.
func (uc *WarehouseUseCase) Create(ctx context.Context, in dto.CreateWarehouseRequest) (*dto.WarehouseResponse, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	warehouse := &entity.Warehouse{
		ID:        uuid.New().String(),
		Name:      in.Name,
		Address:   in.Address,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, warehouse); err != nil {
		return nil, err
	}
	return toWarehouseResponse(warehouse), nil
}

// GetByID obtiene una bodega por ID.
func (uc *WarehouseUseCase) GetByID(ctx context.Context, id string) (*dto.WarehouseResponse, error) {
	warehouse, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toWarehouseResponse(warehouse), nil
}

// Update actualiza nombre y dirección de una bodega.
func (uc *WarehouseUseCase) Update(ctx context.Context, id string, in dto.UpdateWarehouseRequest) (*dto.WarehouseResponse, error) {
	warehouse, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if warehouse == nil {
		return nil, domain.ErrNotFound
	}
	if in.Name != nil {
		warehouse.Name = *in.Name
	}
	if in.Address != nil {
		warehouse.Address = *in.Address
	}
	warehouse.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, warehouse); err != nil {
		return nil, err
	}
	return toWarehouseResponse(warehouse), nil
}

// Deactivate desactiva una bodega (borrado lógico).
func (uc *WarehouseUseCase) Deactivate(ctx context.Context, id string) error {
	warehouse, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if warehouse == nil {
		return domain.ErrNotFound
	}
	return uc.repo.SetActive(ctx, id, false)
}

// List lista bodegas con paginación.
func (uc *WarehouseUseCase) List(ctx context.Context, limit, offset int) (*dto.WarehouseListResponse, error) {
	list, err := uc.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.WarehouseResponse, 0, len(list))
	for _, w := range list {
		items = append(items, *toWarehouseResponse(w))
	}
	return &dto.WarehouseListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// CreateLocation registra una ubicación dentro de una bodega existente.
// Bodega desconocida falla con ErrReferenceNotFound.
func (uc *WarehouseUseCase) CreateLocation(ctx context.Context, in dto.CreateLocationRequest) (*dto.LocationResponse, error) {
	if strings.TrimSpace(in.Code) == "" || strings.TrimSpace(in.WarehouseID) == "" {
		return nil, domain.ErrInvalidInput
	}
	ok, err := uc.repo.ExistsByID(ctx, in.WarehouseID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrReferenceNotFound
	}
	location := &entity.Location{
		ID:          uuid.New().String(),
		WarehouseID: in.WarehouseID,
		Code:        in.Code,
		Description: in.Description,
		CreatedAt:   time.Now(),
	}
	if err := uc.repo.CreateLocation(ctx, location); err != nil {
		return nil, err
	}
	return toLocationResponse(location), nil
}

// ListLocations lista las ubicaciones de una bodega.
func (uc *WarehouseUseCase) ListLocations(ctx context.Context, warehouseID string) ([]dto.LocationResponse, error) {
	list, err := uc.repo.ListLocations(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	items := make([]dto.LocationResponse, 0, len(list))
	for _, l := range list {
		items = append(items, *toLocationResponse(l))
	}
	return items, nil
}

func toWarehouseResponse(w *entity.Warehouse) *dto.WarehouseResponse {
	if w == nil {
		return nil
	}
	return &dto.WarehouseResponse{
		ID:        w.ID,
		Name:      w.Name,
		Address:   w.Address,
		IsActive:  w.IsActive,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

func toLocationResponse(l *entity.Location) *dto.LocationResponse {
	if l == nil {
		return nil
	}
	return &dto.LocationResponse{
		ID:          l.ID,
		WarehouseID: l.WarehouseID,
		Code:        l.Code,
		Description: l.Description,
		CreatedAt:   l.CreatedAt,
	}
}
