package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cooola/inventory-core/internal/application/dto"
	"github.com/cooola/inventory-core/internal/domain"
	"github.com/cooola/inventory-core/internal/domain/entity"
	"github.com/cooola/inventory-core/internal/domain/inventory"
	"github.com/cooola/inventory-core/internal/domain/repository"
)

// DefaultConflictRetries reintentos internos ante fallos de serialización
// antes de devolver ErrConflict al caller.
const DefaultConflictRetries = 3

// LedgerUseCase aplica las mutaciones del libro de inventario de forma
// transaccional: recepciones/salidas (UpsertQuantity), reservas, liberaciones
// y despachos de lo reservado. Toda mutación bloquea la fila (SELECT FOR
// UPDATE), recalcula la cantidad disponible y verifica el invariante
// 0 <= reservado <= físico antes de persistir; si no se cumple, la mutación
// se rechaza, nunca se persiste un estado inválido.
type LedgerUseCase struct {
	txRunner        TxRunner
	productRepo     repository.ProductRepository
	warehouseRepo   repository.WarehouseRepository
	conflictRetries int
}

// NewLedgerUseCase construye el caso de uso. conflictRetries <= 0 aplica el default.
func NewLedgerUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
	conflictRetries int,
) *LedgerUseCase {
	if conflictRetries <= 0 {
		conflictRetries = DefaultConflictRetries
	}
	return &LedgerUseCase{
		txRunner:        txRunner,
		productRepo:     productRepo,
		warehouseRepo:   warehouseRepo,
		conflictRetries: conflictRetries,
	}
}

// UpsertQuantity crea la fila si no existe o suma Delta al stock físico.
// Delta negativo que dejaría el físico bajo cero (o bajo lo reservado) falla
// con ErrInvalidQuantity. Delta cero es un no-op que no crea ni modifica filas.
// En recepciones (Delta > 0) con UnitCost definido, el costo de la fila se
// actualiza al promedio ponderado entre el stock existente y la entrada.
func (uc *LedgerUseCase) UpsertQuantity(ctx context.Context, in dto.UpsertQuantityRequest) (*dto.InventoryEntryResponse, error) {
	key, err := normalizeKey(in.Key)
	if err != nil {
		return nil, err
	}
	if err := uc.validateReferences(ctx, key); err != nil {
		return nil, err
	}
	delta := inventory.QuantizeQuantity(in.Delta)

	var out *entity.InventoryEntry
	err = uc.withRetry(ctx, func(entryRepo repository.InventoryEntryRepository) error {
		e, err := entryRepo.GetForUpdate(ctx, key)
		if err != nil {
			return err
		}
		now := time.Now()

		if e == nil {
			if delta.IsNegative() {
				return domain.ErrInvalidQuantity
			}
			if delta.IsZero() {
				// No-op sobre clave inexistente: se responde la fila en cero
				// sin persistirla (cero idempotente).
				out = &entity.InventoryEntry{
					Key:               key,
					Quantity:          decimal.Zero,
					ReservedQuantity:  decimal.Zero,
					AvailableQuantity: decimal.Zero,
				}
				return nil
			}
			e = &entity.InventoryEntry{
				ID:               uuid.New().String(),
				Key:              key,
				Quantity:         delta,
				ReservedQuantity: decimal.Zero,
				ExpiryDate:       in.ExpiryDate,
				CreatedAt:        now,
				UpdatedAt:        now,
			}
			if in.UnitCost != nil {
				cost := inventory.QuantizeCost(*in.UnitCost)
				if cost.IsNegative() {
					return domain.ErrInvalidQuantity
				}
				e.UnitCost = &cost
			}
			e.RecalcAvailable()
			if err := e.Validate(); err != nil {
				return err
			}
			out = e
			return entryRepo.Insert(ctx, e)
		}

		if delta.IsZero() {
			// Cero idempotente: la fila existente no se toca.
			out = e
			return nil
		}
		newQty := e.Quantity.Add(delta)
		if newQty.IsNegative() || newQty.LessThan(e.ReservedQuantity) {
			return domain.ErrInvalidQuantity
		}
		if in.UnitCost != nil && delta.IsPositive() {
			cost := inventory.QuantizeCost(*in.UnitCost)
			if cost.IsNegative() {
				return domain.ErrInvalidQuantity
			}
			if e.UnitCost != nil {
				cost = inventory.WeightedAverageCost(e.Quantity, *e.UnitCost, delta, cost)
			}
			e.UnitCost = &cost
		}
		if in.ExpiryDate != nil {
			e.ExpiryDate = in.ExpiryDate
		}
		e.Quantity = newQty
		e.RecalcAvailable()
		e.UpdatedAt = now
		if err := e.Validate(); err != nil {
			return err
		}
		out = e
		return entryRepo.Update(ctx, e)
	})
	if err != nil {
		return nil, err
	}
	return toEntryResponse(out), nil
}

// Reserve incrementa lo reservado en Amount. El techo es el stock disponible
// (no el físico): si Amount lo excede falla con ErrInsufficientAvailable de
// inmediato, sin esperar stock (este sistema no maneja backorders).
func (uc *LedgerUseCase) Reserve(ctx context.Context, in dto.AmountRequest) (*dto.InventoryEntryResponse, error) {
	key, err := normalizeKey(in.Key)
	if err != nil {
		return nil, err
	}
	amount := inventory.QuantizeQuantity(in.Amount)
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidQuantity
	}

	var out *entity.InventoryEntry
	err = uc.withRetry(ctx, func(entryRepo repository.InventoryEntryRepository) error {
		e, err := entryRepo.GetForUpdate(ctx, key)
		if err != nil {
			return err
		}
		if e == nil {
			return domain.ErrNotFound
		}
		if amount.GreaterThan(e.AvailableQuantity) {
			return domain.ErrInsufficientAvailable
		}
		e.ReservedQuantity = e.ReservedQuantity.Add(amount)
		e.RecalcAvailable()
		e.UpdatedAt = time.Now()
		if err := e.Validate(); err != nil {
			return err
		}
		out = e
		return entryRepo.Update(ctx, e)
	})
	if err != nil {
		return nil, err
	}
	return toEntryResponse(out), nil
}

// Release decrementa lo reservado en Amount, sin despachar stock físico.
// Amount mayor a lo reservado falla con ErrInvalidQuantity; Release(0) es un
// no-op que devuelve el estado actual sin modificarlo.
func (uc *LedgerUseCase) Release(ctx context.Context, in dto.AmountRequest) (*dto.InventoryEntryResponse, error) {
	key, err := normalizeKey(in.Key)
	if err != nil {
		return nil, err
	}
	amount := inventory.QuantizeQuantity(in.Amount)
	if amount.IsNegative() {
		return nil, domain.ErrInvalidQuantity
	}

	var out *entity.InventoryEntry
	err = uc.withRetry(ctx, func(entryRepo repository.InventoryEntryRepository) error {
		e, err := entryRepo.GetForUpdate(ctx, key)
		if err != nil {
			return err
		}
		if e == nil {
			return domain.ErrNotFound
		}
		if amount.IsZero() {
			out = e
			return nil
		}
		if amount.GreaterThan(e.ReservedQuantity) {
			return domain.ErrInvalidQuantity
		}
		e.ReservedQuantity = e.ReservedQuantity.Sub(amount)
		e.RecalcAvailable()
		e.UpdatedAt = time.Now()
		if err := e.Validate(); err != nil {
			return err
		}
		out = e
		return entryRepo.Update(ctx, e)
	})
	if err != nil {
		return nil, err
	}
	return toEntryResponse(out), nil
}

// ShipReserved despacha stock previamente reservado: decrementa físico y
// reservado en Amount de forma atómica. Amount mayor a lo reservado falla con
// ErrInsufficientReserved.
func (uc *LedgerUseCase) ShipReserved(ctx context.Context, in dto.AmountRequest) (*dto.InventoryEntryResponse, error) {
	key, err := normalizeKey(in.Key)
	if err != nil {
		return nil, err
	}
	amount := inventory.QuantizeQuantity(in.Amount)
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidQuantity
	}

	var out *entity.InventoryEntry
	err = uc.withRetry(ctx, func(entryRepo repository.InventoryEntryRepository) error {
		e, err := entryRepo.GetForUpdate(ctx, key)
		if err != nil {
			return err
		}
		if e == nil {
			return domain.ErrNotFound
		}
		if amount.GreaterThan(e.ReservedQuantity) {
			return domain.ErrInsufficientReserved
		}
		e.Quantity = e.Quantity.Sub(amount)
		e.ReservedQuantity = e.ReservedQuantity.Sub(amount)
		e.RecalcAvailable()
		e.UpdatedAt = time.Now()
		if err := e.Validate(); err != nil {
			return err
		}
		out = e
		return entryRepo.Update(ctx, e)
	})
	if err != nil {
		return nil, err
	}
	return toEntryResponse(out), nil
}

// PruneZero elimina una fila completamente en cero (operación de mantenimiento,
// no parte del flujo normal). Falla con ErrInvalidQuantity si la fila aún tiene
// stock físico o reservado, y con ErrNotFound si la clave no tiene fila.
func (uc *LedgerUseCase) PruneZero(ctx context.Context, in dto.EntryKeyDTO) error {
	key, err := normalizeKey(in)
	if err != nil {
		return err
	}
	return uc.withRetry(ctx, func(entryRepo repository.InventoryEntryRepository) error {
		e, err := entryRepo.GetForUpdate(ctx, key)
		if err != nil {
			return err
		}
		if e == nil {
			return domain.ErrNotFound
		}
		if !e.IsZero() {
			return domain.ErrInvalidQuantity
		}
		return entryRepo.Delete(ctx, key)
	})
}

// withRetry ejecuta la mutación transaccional y reintenta ante conflictos de
// concurrencia (fallos de serialización o carrera de inserción inicial) hasta
// agotar los reintentos; el último error sigue siendo ErrConflict.
func (uc *LedgerUseCase) withRetry(ctx context.Context, fn func(entryRepo repository.InventoryEntryRepository) error) error {
	var err error
	for attempt := 0; attempt <= uc.conflictRetries; attempt++ {
		err = uc.txRunner.Run(ctx, fn)
		if err == nil || !errors.Is(err, domain.ErrConflict) {
			return err
		}
	}
	return err
}

// validateReferences verifica que producto, bodega y ubicación (si aplica)
// existan. El libro no valida contenido del catálogo, solo existencia.
func (uc *LedgerUseCase) validateReferences(ctx context.Context, key entity.EntryKey) error {
	ok, err := uc.productRepo.ExistsByID(ctx, key.ProductID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrReferenceNotFound
	}
	ok, err = uc.warehouseRepo.ExistsByID(ctx, key.WarehouseID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrReferenceNotFound
	}
	if key.LocationID != "" {
		ok, err = uc.warehouseRepo.LocationBelongsTo(ctx, key.LocationID, key.WarehouseID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrReferenceNotFound
		}
	}
	return nil
}

// normalizeKey valida y normaliza la clave: producto y bodega obligatorios,
// ubicación y lote opcionales se normalizan a cadena vacía.
func normalizeKey(in dto.EntryKeyDTO) (entity.EntryKey, error) {
	key := entity.EntryKey{
		ProductID:   strings.TrimSpace(in.ProductID),
		WarehouseID: strings.TrimSpace(in.WarehouseID),
		LocationID:  strings.TrimSpace(in.LocationID),
		LotNumber:   strings.TrimSpace(in.LotNumber),
	}
	if key.ProductID == "" || key.WarehouseID == "" {
		return entity.EntryKey{}, domain.ErrInvalidInput
	}
	return key, nil
}

func toEntryResponse(e *entity.InventoryEntry) *dto.InventoryEntryResponse {
	if e == nil {
		return nil
	}
	return &dto.InventoryEntryResponse{
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
	}
}
