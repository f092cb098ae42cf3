package catalog

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

// ProductUseCase casos de uso del catálogo de productos. El stock nunca se
// maneja aquí: el catálogo solo identifica y describe lo almacenable; el libro
// de inventario lo referencia por ID.
type ProductUseCase struct {
	repo repository.ProductRepository
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository) *ProductUseCase {
	return &ProductUseCase{repo: repo}
}

// Create crea un producto. SKU obligatorio y único; barcode único si viene.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	in.SKU = strings.TrimSpace(in.SKU)
	in.Barcode = strings.TrimSpace(in.Barcode)
	if in.SKU == "" || strings.TrimSpace(in.Name) == "" {
		return nil, domain.ErrInvalidInput
	}
	existing, err := uc.repo.GetBySKU(ctx, in.SKU)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	if in.Barcode != "" {
		byBarcode, err := uc.repo.GetByBarcode(ctx, in.Barcode)
		if err != nil {
			return nil, err
		}
		if byBarcode != nil {
			return nil, domain.ErrDuplicate
		}
	}
	now := time.Now()
	product := &entity.Product{
		ID:            uuid.New().String(),
		SKU:           in.SKU,
		Name:          in.Name,
		Description:   in.Description,
		CategoryID:    in.CategoryID,
		UnitOfMeasure: in.UnitOfMeasure,
		Weight:        in.Weight.Round(3),
		Dimensions:    in.Dimensions,
		Barcode:       in.Barcode,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetByID obtiene un producto por ID.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetBySKU obtiene un producto por su SKU.
func (uc *ProductUseCase) GetBySKU(ctx context.Context, sku string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetByBarcode obtiene un producto por su código de barras.
func (uc *ProductUseCase) GetByBarcode(ctx context.Context, barcode string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// Update actualiza los campos modificables. El SKU es inmutable.
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	if in.Name != nil {
		product.Name = *in.Name
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.CategoryID != nil {
		product.CategoryID = *in.CategoryID
	}
	if in.UnitOfMeasure != nil {
		product.UnitOfMeasure = *in.UnitOfMeasure
	}
	if in.Weight != nil {
		product.Weight = in.Weight.Round(3)
	}
	if in.Dimensions != nil {
		product.Dimensions = *in.Dimensions
	}
	if in.Barcode != nil {
		barcode := strings.TrimSpace(*in.Barcode)
		if barcode != "" && barcode != product.Barcode {
			byBarcode, err := uc.repo.GetByBarcode(ctx, barcode)
			if err != nil {
				return nil, err
			}
			if byBarcode != nil && byBarcode.ID != product.ID {
				return nil, domain.ErrDuplicate
			}
		}
		product.Barcode = barcode
	}
	product.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// Deactivate desactiva el producto (borrado lógico). El catálogo nunca borra
// físicamente: el libro de inventario puede seguir referenciando el producto.
func (uc *ProductUseCase) Deactivate(ctx context.Context, id string) error {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if product == nil {
		return domain.ErrNotFound
	}
	return uc.repo.SetActive(ctx, id, false)
}

// List lista productos activos con paginación.
func (uc *ProductUseCase) List(ctx context.Context, limit, offset int) (*dto.ProductListResponse, error) {
	list, err := uc.repo.ListActive(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// Search busca por subcadena (case-insensitive) en SKU, nombre, descripción y
// código de barras.
func (uc *ProductUseCase) Search(ctx context.Context, keyword string, limit, offset int) (*dto.ProductListResponse, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, domain.ErrInvalidInput
	}
	list, err := uc.repo.SearchByKeyword(ctx, keyword, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductResponse{
		ID:            p.ID,
		SKU:           p.SKU,
		Name:          p.Name,
		Description:   p.Description,
		CategoryID:    p.CategoryID,
		UnitOfMeasure: p.UnitOfMeasure,
		Weight:        p.Weight,
		Dimensions:    p.Dimensions,
		Barcode:       p.Barcode,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
