package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cooola/inventory-core/internal/application/dto"
	"github.com/cooola/inventory-core/internal/application/ledger"
	"github.com/cooola/inventory-core/internal/domain"
	"github.com/cooola/inventory-core/internal/domain/entity"
	"github.com/cooola/inventory-core/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria. fakeTxRunner serializa las transacciones con un mutex,
// igual que el bloqueo de fila en PostgreSQL: dos mutaciones concurrentes
// sobre la misma clave se ejecutan una después de la otra, cada una viendo
// el estado que la anterior dejó.
// ──────────────────────────────────────────────────────────────────────────────

type fakeStore struct {
	mu      sync.Mutex
	entries map[entity.EntryKey]*entity.InventoryEntry
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: map[entity.EntryKey]*entity.InventoryEntry{}}
}

type fakeTxRunner struct {
	store *fakeStore

	mu              sync.Mutex
	conflictsBefore int // transacciones que fallan con ErrConflict antes de pasar
	runs            int
}

func (r *fakeTxRunner) Run(_ context.Context, fn func(entryRepo repository.InventoryEntryRepository) error) error {
	r.mu.Lock()
	r.runs++
	inject := r.conflictsBefore > 0
	if inject {
		r.conflictsBefore--
	}
	r.mu.Unlock()
	if inject {
		return fmt.Errorf("fallo de serialización: %w", domain.ErrConflict)
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return fn(&fakeEntryRepo{store: r.store})
}

type fakeEntryRepo struct {
	repository.InventoryEntryRepository
	store *fakeStore
}

func copyEntry(e *entity.InventoryEntry) *entity.InventoryEntry {
	c := *e
	return &c
}

func (f *fakeEntryRepo) GetForUpdate(_ context.Context, key entity.EntryKey) (*entity.InventoryEntry, error) {
	e, ok := f.store.entries[key]
	if !ok {
		return nil, nil
	}
	return copyEntry(e), nil
}

func (f *fakeEntryRepo) Insert(_ context.Context, e *entity.InventoryEntry) error {
	if _, ok := f.store.entries[e.Key]; ok {
		return fmt.Errorf("clave duplicada: %w", domain.ErrConflict)
	}
	f.store.entries[e.Key] = copyEntry(e)
	return nil
}

func (f *fakeEntryRepo) Update(_ context.Context, e *entity.InventoryEntry) error {
	if _, ok := f.store.entries[e.Key]; !ok {
		return domain.ErrNotFound
	}
	f.store.entries[e.Key] = copyEntry(e)
	return nil
}

func (f *fakeEntryRepo) Delete(_ context.Context, key entity.EntryKey) error {
	delete(f.store.entries, key)
	return nil
}

type fakeProductRepo struct {
	repository.ProductRepository
	ids map[string]bool
}

func (f *fakeProductRepo) ExistsByID(_ context.Context, id string) (bool, error) {
	return f.ids[id], nil
}

type fakeWarehouseRepo struct {
	repository.WarehouseRepository
	ids       map[string]bool
	locations map[string]string // locationID -> warehouseID
}

func (f *fakeWarehouseRepo) ExistsByID(_ context.Context, id string) (bool, error) {
	return f.ids[id], nil
}

func (f *fakeWarehouseRepo) LocationBelongsTo(_ context.Context, locationID, warehouseID string) (bool, error) {
	return f.locations[locationID] == warehouseID, nil
}

type fixture struct {
	uc       *ledger.LedgerUseCase
	store    *fakeStore
	txRunner *fakeTxRunner
}

func newFixture() *fixture {
	store := newFakeStore()
	tx := &fakeTxRunner{store: store}
	products := &fakeProductRepo{ids: map[string]bool{"p-1": true, "p-2": true}}
	warehouses := &fakeWarehouseRepo{
		ids:       map[string]bool{"w-1": true, "w-2": true},
		locations: map[string]string{"loc-1": "w-1"},
	}
	return &fixture{
		uc:       ledger.NewLedgerUseCase(tx, products, warehouses, 0),
		store:    store,
		txRunner: tx,
	}
}

func (fx *fixture) seed(t *testing.T, key entity.EntryKey, qty, reserved string) {
	t.Helper()
	e := &entity.InventoryEntry{
		ID:               "seed-" + key.ProductID,
		Key:              key,
		Quantity:         decimal.RequireFromString(qty),
		ReservedQuantity: decimal.RequireFromString(reserved),
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	e.RecalcAvailable()
	require.NoError(t, e.Validate())
	fx.store.entries[key] = e
}

var baseKey = dto.EntryKeyDTO{ProductID: "p-1", WarehouseID: "w-1"}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ──────────────────────────────────────────────────────────────────────────────
// UpsertQuantity
// ──────────────────────────────────────────────────────────────────────────────

func TestUpsertQuantity_CreaFilaNueva(t *testing.T) {
	fx := newFixture()
	cost := d("4.999")

	resp, err := fx.uc.UpsertQuantity(context.Background(), dto.UpsertQuantityRequest{
		Key:      baseKey,
		Delta:    d("100"),
		UnitCost: &cost,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)
	assert.True(t, resp.Quantity.Equal(d("100")))
	assert.True(t, resp.ReservedQuantity.IsZero())
	assert.True(t, resp.AvailableQuantity.Equal(d("100")))
	require.NotNil(t, resp.UnitCost)
	assert.Equal(t, "5", resp.UnitCost.String(), "el costo se normaliza a 2 decimales")
	assert.Len(t, fx.store.entries, 1)
}

func TestUpsertQuantity_SumaYResta(t *testing.T) {
	fx := newFixture()
	fx.seed(t, entity.EntryKey{ProductID: "p-1", WarehouseID: "w-1"}, "50", "10")

	resp, err := fx.uc.UpsertQuantity(context.Background(), dto.UpsertQuantityRequest{
		Key:   baseKey,
		Delta: d("25"),
	})
	require.NoError(t, err)
	assert.True(t, resp.Quantity.Equal(d("75")))
	assert.True(t, resp.AvailableQuantity.Equal(d("65")))

	resp, err = fx.uc.UpsertQuantity(context.Background(), dto.UpsertQuantityRequest{
		Key:   baseKey,
		Delta: d("-65"),
	})
	require.NoError(t, err)
	assert.True(t, resp.Quantity.Equal(d("10")), "puede bajar hasta lo reservado")
	assert.True(t, resp.AvailableQuantity.IsZero())
}

func TestUpsertQuantity_RechazaBajarDeLoReservado(t *testing.T) {
	fx := newFixture()
	fx.seed(t, entity.EntryKey{ProductID: "p-1", WarehouseID: "w-1"}, "50", "0")

	_, err := fx.uc.UpsertQuantity(context.Background(), dto.UpsertQuantityRequest{
		Key:   baseKey,
		Delta: d("-60"),
	})
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)

	// La fila queda intacta tras el rechazo
	e := fx.store.entries[entity.EntryKey{ProductID: "p-1", WarehouseID: "w-1"}]
	assert.True(t, e.Quantity.Equal(d("50")), "la mutación rechazada no persiste nada")
}

func TestUpsertQuantity_CeroIdempotente(t *testing.T) {
	fx := newFixture()

	// Delta cero sobre clave inexistente: responde en cero sin crear la fila
	resp, err := fx.uc.UpsertQuantity(context.Background(), dto.UpsertQuantityRequest{
		Key:   baseKey,
		Delta: decimal.Zero,
	})
	require.NoError(t, err)
	assert.True(t, resp.Quantity.IsZero())
	assert.Empty(t, fx.store.entries, "el no-op no debe persistir filas")

	// Delta cero sobre fila existente: no la toca
	fx.seed(t, entity.EntryKey{ProductID: "p-1", WarehouseID: "w-1"}, "30", "5")
	resp, err = fx.uc.UpsertQuantity(context.Background(), dto.UpsertQuantityRequest{
		Key:   baseKey,
		Delta: decimal.Zero,
	})
	require.NoError(t, err)
	assert.True(t, resp.Quantity.Equal(d("30")))
	assert.True(t, resp.ReservedQuantity.Equal(d("5")))
}

func TestUpsertQuantity_DeltaNegativoSobreClaveInexistente(t *testing.T) {
	fx := newFixture()
	_, err := fx.uc.UpsertQuantity(context.Background(), dto.UpsertQuantityRequest{
		Key:   baseKey,
		Delta: d("-1"),
	})
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestUpsertQuantity_CostoPromedioPonderado(t *testing.T) {
	fx := newFixture()
	cost1 := d("10.00")
	_, err := fx.uc.UpsertQuantity(context.Background(), dto.UpsertQuantityRequest{
		Key: baseKey, Delta: d("100"), UnitCost: &cost1,
	})
	require.NoError(t, err)

	cost2 := d("16.00")
	resp, err := fx.uc.UpsertQuantity(context.Background(), dto.UpsertQuantityRequest{
		Key: baseKey, Delta: d("50"), UnitCost: &cost2,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.UnitCost)
	assert.Equal(t, "12", resp.UnitCost.String(),
		"100 und a $10 + 50 und a $16 promedian $12")
}

func TestUpsertQuantity_ReferenciasInexistentes(t *testing.T) {
	fx := newFixture()
	cases := []dto.EntryKeyDTO{
		{ProductID: "p-fantasma", WarehouseID: "w-1"},
		{ProductID: "p-1", WarehouseID: "w-fantasma"},
		{ProductID: "p-1", WarehouseID: "w-1", LocationID: "loc-ajena"},
		{ProductID: "p-1", WarehouseID: "w-2", LocationID: "loc-1"}, // loc-1 es de w-1
	}
	for _, key := range cases {
		_, err := fx.uc.UpsertQuantity(context.Background(), dto.UpsertQuantityRequest{
			Key: key, Delta: d("10"),
		})
		assert.ErrorIs(t, err, domain.ErrReferenceNotFound, "clave %+v", key)
	}
}

func TestUpsertQuantity_ClaveIncompleta(t *testing.T) {
	fx := newFixture()
	_, err := fx.uc.UpsertQuantity(context.Background(), dto.UpsertQuantityRequest{
		Key:   dto.EntryKeyDTO{ProductID: "  ", WarehouseID: "w-1"},
		Delta: d("10"),
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpsertQuantity_ClavesPorLoteSonFilasDistintas(t *testing.T) {
	fx := newFixture()
	lote := func(l string) dto.EntryKeyDTO {
		return dto.EntryKeyDTO{ProductID: "p-1", WarehouseID: "w-1", LotNumber: l}
	}
	_, err := fx.uc.UpsertQuantity(context.Background(), dto.UpsertQuantityRequest{Key: lote("L-1"), Delta: d("10")})
	require.NoError(t, err)
	_, err = fx.uc.UpsertQuantity(context.Background(), dto.UpsertQuantityRequest{Key: lote("L-2"), Delta: d("20")})
	require.NoError(t, err)
	assert.Len(t, fx.store.entries, 2, "mismo producto y bodega, lotes distintos: filas distintas")
}

// ──────────────────────────────────────────────────────────────────────────────
// Reserve / Release / ShipReserved
// ──────────────────────────────────────────────────────────────────────────────

func TestReserve_TechoEsElDisponible(t *testing.T) {
	fx := newFixture()
	fx.seed(t, entity.EntryKey{ProductID: "p-1", WarehouseID: "w-1"}, "100", "20")

	// Disponible 80: reservar 90 falla sin modificar nada
	_, err := fx.uc.Reserve(context.Background(), dto.AmountRequest{Key: baseKey, Amount: d("90")})
	require.ErrorIs(t, err, domain.ErrInsufficientAvailable)

	// Reservar 80 agota el disponible
	resp, err := fx.uc.Reserve(context.Background(), dto.AmountRequest{Key: baseKey, Amount: d("80")})
	require.NoError(t, err)
	assert.True(t, resp.Quantity.Equal(d("100")), "reservar no mueve el físico")
	assert.True(t, resp.ReservedQuantity.Equal(d("100")))
	assert.True(t, resp.AvailableQuantity.IsZero())
}

func TestReserve_MontoNoPositivo(t *testing.T) {
	fx := newFixture()
	fx.seed(t, entity.EntryKey{ProductID: "p-1", WarehouseID: "w-1"}, "10", "0")

	_, err := fx.uc.Reserve(context.Background(), dto.AmountRequest{Key: baseKey, Amount: decimal.Zero})
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)
	_, err = fx.uc.Reserve(context.Background(), dto.AmountRequest{Key: baseKey, Amount: d("-5")})
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestReserve_ClaveSinFila(t *testing.T) {
	fx := newFixture()
	_, err := fx.uc.Reserve(context.Background(), dto.AmountRequest{Key: baseKey, Amount: d("1")})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRelease_DevuelveAlDisponible(t *testing.T) {
	fx := newFixture()
	fx.seed(t, entity.EntryKey{ProductID: "p-1", WarehouseID: "w-1"}, "100", "30")

	resp, err := fx.uc.Release(context.Background(), dto.AmountRequest{Key: baseKey, Amount: d("20")})
	require.NoError(t, err)
	assert.True(t, resp.Quantity.Equal(d("100")))
	assert.True(t, resp.ReservedQuantity.Equal(d("10")))
	assert.True(t, resp.AvailableQuantity.Equal(d("90")))

	// Liberar más de lo reservado falla
	_, err = fx.uc.Release(context.Background(), dto.AmountRequest{Key: baseKey, Amount: d("11")})
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)

	// Release(0) es no-op y devuelve el estado actual
	resp, err = fx.uc.Release(context.Background(), dto.AmountRequest{Key: baseKey, Amount: decimal.Zero})
	require.NoError(t, err)
	assert.True(t, resp.ReservedQuantity.Equal(d("10")))
}

func TestShipReserved_DecrementaAmbos(t *testing.T) {
	fx := newFixture()
	fx.seed(t, entity.EntryKey{ProductID: "p-1", WarehouseID: "w-1"}, "50", "10")

	resp, err := fx.uc.ShipReserved(context.Background(), dto.AmountRequest{Key: baseKey, Amount: d("10")})
	require.NoError(t, err)
	assert.True(t, resp.Quantity.Equal(d("40")))
	assert.True(t, resp.ReservedQuantity.IsZero())
	assert.True(t, resp.AvailableQuantity.Equal(d("40")))
}

func TestShipReserved_SoloDespachaLoReservado(t *testing.T) {
	fx := newFixture()
	fx.seed(t, entity.EntryKey{ProductID: "p-1", WarehouseID: "w-1"}, "50", "10")

	// Hay 40 disponibles pero solo 10 reservados: despachar 11 falla
	_, err := fx.uc.ShipReserved(context.Background(), dto.AmountRequest{Key: baseKey, Amount: d("11")})
	require.ErrorIs(t, err, domain.ErrInsufficientReserved)

	e := fx.store.entries[entity.EntryKey{ProductID: "p-1", WarehouseID: "w-1"}]
	assert.True(t, e.Quantity.Equal(d("50")), "el rechazo no modifica la fila")
}

// ──────────────────────────────────────────────────────────────────────────────
// PruneZero
// ──────────────────────────────────────────────────────────────────────────────

func TestPruneZero(t *testing.T) {
	fx := newFixture()
	key := entity.EntryKey{ProductID: "p-1", WarehouseID: "w-1"}
	fx.seed(t, key, "0", "0")

	require.NoError(t, fx.uc.PruneZero(context.Background(), baseKey))
	assert.Empty(t, fx.store.entries)

	// Clave ya sin fila
	require.ErrorIs(t, fx.uc.PruneZero(context.Background(), baseKey), domain.ErrNotFound)

	// Fila con stock no se poda
	fx.seed(t, key, "1", "0")
	require.ErrorIs(t, fx.uc.PruneZero(context.Background(), baseKey), domain.ErrInvalidQuantity)
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia y reintentos
// ──────────────────────────────────────────────────────────────────────────────

func TestReserve_DobleReservaConcurrente(t *testing.T) {
	fx := newFixture()
	fx.seed(t, entity.EntryKey{ProductID: "p-1", WarehouseID: "w-1"}, "100", "0")

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fx.uc.Reserve(context.Background(), dto.AmountRequest{Key: baseKey, Amount: d("60")})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var oks, insufficient int
	for err := range errs {
		switch {
		case err == nil:
			oks++
		case errors.Is(err, domain.ErrInsufficientAvailable):
			insufficient++
		default:
			t.Fatalf("error inesperado: %v", err)
		}
	}
	assert.Equal(t, 1, oks, "exactamente una reserva debe ganar")
	assert.Equal(t, 1, insufficient, "la otra debe fallar por disponible insuficiente")

	e := fx.store.entries[entity.EntryKey{ProductID: "p-1", WarehouseID: "w-1"}]
	assert.True(t, e.ReservedQuantity.Equal(d("60")), "jamás se reserva más del disponible")
}

func TestWithRetry_ReintentaConflictosYLuegoDesiste(t *testing.T) {
	fx := newFixture()
	fx.seed(t, entity.EntryKey{ProductID: "p-1", WarehouseID: "w-1"}, "100", "0")

	// Dos conflictos inyectados: con 3 reintentos la operación termina pasando
	fx.txRunner.conflictsBefore = 2
	resp, err := fx.uc.Reserve(context.Background(), dto.AmountRequest{Key: baseKey, Amount: d("10")})
	require.NoError(t, err)
	assert.True(t, resp.ReservedQuantity.Equal(d("10")))
	assert.Equal(t, 3, fx.txRunner.runs, "dos conflictos más el intento exitoso")

	// Conflicto persistente: tras agotar reintentos el error sigue siendo ErrConflict
	fx.txRunner.runs = 0
	fx.txRunner.conflictsBefore = 100
	_, err = fx.uc.Reserve(context.Background(), dto.AmountRequest{Key: baseKey, Amount: d("10")})
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, ledger.DefaultConflictRetries+1, fx.txRunner.runs)
}
