package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cooola/inventory-core/internal/domain"
	"github.com/cooola/inventory-core/internal/domain/entity"
	"github.com/cooola/inventory-core/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL
// (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos.
// Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `id, sku, name, description, category_id, unit_of_measure,
		weight, dimensions, barcode, is_active, created_at, updated_at`

// Create persiste un producto nuevo. SKU duplicado (o barcode duplicado)
// devuelve ErrDuplicate.
func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	query := `
		INSERT INTO products (id, sku, name, description, category_id, unit_of_measure,
			weight, dimensions, barcode, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		product.ID, product.SKU, product.Name, product.Description, product.CategoryID,
		product.UnitOfMeasure, product.Weight, product.Dimensions, product.Barcode,
		product.IsActive, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID obtiene un producto por ID; nil si no existe.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	return r.getBy(ctx, "get product", `id = $1`, id)
}

// GetBySKU obtiene un producto por SKU; nil si no existe.
func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	return r.getBy(ctx, "get product by sku", `sku = $1`, sku)
}

// GetByBarcode obtiene un producto por código de barras; nil si no existe.
func (r *ProductRepo) GetByBarcode(ctx context.Context, barcode string) (*entity.Product, error) {
	return r.getBy(ctx, "get product by barcode", `barcode = $1 AND barcode <> ''`, barcode)
}

// ExistsByID verifica existencia del producto (usado por el libro para validar
// referencias; no mira is_active: stock de productos desactivados sigue siendo stock).
func (r *ProductRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists product: %w", err)
	}
	return exists, nil
}

// Update actualiza los campos modificables de un producto. El SKU no se toca.
func (r *ProductRepo) Update(ctx context.Context, product *entity.Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, category_id = $4, unit_of_measure = $5,
			weight = $6, dimensions = $7, barcode = $8, updated_at = $9
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		product.ID, product.Name, product.Description, product.CategoryID,
		product.UnitOfMeasure, product.Weight, product.Dimensions, product.Barcode,
		product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

// SetActive activa/desactiva el producto (borrado lógico del catálogo).
func (r *ProductRepo) SetActive(ctx context.Context, id string, active bool) error {
	_, err := r.q.Exec(ctx,
		`UPDATE products SET is_active = $2, updated_at = now() WHERE id = $1`,
		id, active,
	)
	if err != nil {
		return fmt.Errorf("set product active: %w", err)
	}
	return nil
}

// ListActive lista productos activos con paginación, ordenados por SKU.
func (r *ProductRepo) ListActive(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products WHERE is_active ORDER BY sku LIMIT $1 OFFSET $2`
	return r.list(ctx, "list products", query, limit, offset)
}

// SearchByKeyword busca por subcadena (ILIKE, case-insensitive) en SKU,
// nombre, descripción y código de barras, ordenado por SKU.
func (r *ProductRepo) SearchByKeyword(ctx context.Context, keyword string, limit, offset int) ([]*entity.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE sku ILIKE '%' || $1 || '%'
			OR name ILIKE '%' || $1 || '%'
			OR description ILIKE '%' || $1 || '%'
			OR barcode ILIKE '%' || $1 || '%'
		ORDER BY sku LIMIT $2 OFFSET $3`
	return r.list(ctx, "search products", query, keyword, limit, offset)
}

func (r *ProductRepo) getBy(ctx context.Context, op, where string, args ...any) (*entity.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products WHERE ` + where
	var p entity.Product
	err := r.q.QueryRow(ctx, query, args...).Scan(
		&p.ID, &p.SKU, &p.Name, &p.Description, &p.CategoryID, &p.UnitOfMeasure,
		&p.Weight, &p.Dimensions, &p.Barcode, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}

func (r *ProductRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.Product, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.CategoryID, &p.UnitOfMeasure,
			&p.Weight, &p.Dimensions, &p.Barcode, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}
