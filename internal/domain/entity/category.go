package entity

import "time"

// Category categoría plana de productos. El CRUD del árbol de categorías
// pertenece a la capa de catálogo externa; aquí solo es una referencia.
type Category struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
