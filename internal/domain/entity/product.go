package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto almacenable identificado por SKU (único e inmutable).
// El Barcode es opcional pero único cuando está presente. Nunca se borra físicamente:
// IsActive=false es el borrado lógico del catálogo.
type Product struct {
	ID            string
	SKU           string // código único de negocio, inmutable tras la creación
	Name          string
	Description   string
	CategoryID    string
	UnitOfMeasure string // unidad, kg, m, caja, etc.
	Weight        decimal.Decimal // peso unitario, 3 decimales
	Dimensions    string          // ej. 100x200x300mm
	Barcode       string          // vacío = sin código de barras
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
