package repository

import (
	"context"

	"github.com/cooola/inventory-core/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
// El catálogo nunca borra físicamente: Deactivate es el borrado lógico.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetBySKU(ctx context.Context, sku string) (*entity.Product, error)
	GetByBarcode(ctx context.Context, barcode string) (*entity.Product, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	Update(ctx context.Context, product *entity.Product) error
	SetActive(ctx context.Context, id string, active bool) error
	ListActive(ctx context.Context, limit, offset int) ([]*entity.Product, error)

	// SearchByKeyword busca por subcadena (case-insensitive) en SKU, nombre,
	// descripción y código de barras, ordenado por SKU.
	SearchByKeyword(ctx context.Context, keyword string, limit, offset int) ([]*entity.Product, error)
}
