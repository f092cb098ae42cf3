package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto del catálogo.
type CreateProductRequest struct {
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	CategoryID    string          `json:"category_id"`
	UnitOfMeasure string          `json:"unit_of_measure"`
	Weight        decimal.Decimal `json:"weight"`
	Dimensions    string          `json:"dimensions"`
	Barcode       string          `json:"barcode"`
}

// UpdateProductRequest campos modificables de un producto. El SKU es inmutable.
type UpdateProductRequest struct {
	Name          *string          `json:"name,omitempty"`
	Description   *string          `json:"description,omitempty"`
	CategoryID    *string          `json:"category_id,omitempty"`
	UnitOfMeasure *string          `json:"unit_of_measure,omitempty"`
	Weight        *decimal.Decimal `json:"weight,omitempty"`
	Dimensions    *string          `json:"dimensions,omitempty"`
	Barcode       *string          `json:"barcode,omitempty"`
}

// ProductResponse representación externa de un producto.
type ProductResponse struct {
	ID            string          `json:"id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	CategoryID    string          `json:"category_id"`
	UnitOfMeasure string          `json:"unit_of_measure"`
	Weight        decimal.Decimal `json:"weight"`
	Dimensions    string          `json:"dimensions"`
	Barcode       string          `json:"barcode,omitempty"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ProductListResponse listado paginado de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
