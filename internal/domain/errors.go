package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")

	// ErrReferenceNotFound el producto, bodega o ubicación referenciada no existe.
	ErrReferenceNotFound = errors.New("referencia no encontrada")

	// ErrInvalidQuantity la operación dejaría el stock físico o el reservado en negativo.
	ErrInvalidQuantity = errors.New("cantidad inválida")

	// ErrInsufficientAvailable la reserva excede el stock disponible (físico - reservado).
	ErrInsufficientAvailable = errors.New("stock disponible insuficiente")

	// ErrInsufficientReserved el despacho excede el stock reservado.
	ErrInsufficientReserved = errors.New("stock reservado insuficiente")

	// ErrConflict conflicto de actualización concurrente tras agotar los reintentos.
	// Distinto de una violación de regla de negocio: el caller puede reintentar.
	ErrConflict = errors.New("conflicto con el estado actual")
)
