// stockctl herramienta operativa del libro de inventario: aplica migraciones,
// genera los reportes consultivos (bajo stock, agotados, por vencer,
// valorización), poda filas en cero y renderiza etiquetas QR/Code-128.
//
// Uso: stockctl <comando> [flags]
//
// Comandos:
//
//	migrate      aplica las migraciones de esquema pendientes
//	low-stock    filas con disponible <= umbral (--threshold)
//	out-of-stock filas con stock físico en cero
//	expiring     filas que vencen dentro de --days días
//	valuation    valorización y conteos de una bodega (--warehouse)
//	prune-zero   elimina una fila en cero (--product --warehouse [--location --lot])
//	label        renderiza una etiqueta PNG (--content --format --out)
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cooola/inventory-core/internal/application/dto"
	"github.com/cooola/inventory-core/internal/application/ledger"
	"github.com/cooola/inventory-core/internal/application/query"
	"github.com/cooola/inventory-core/internal/infrastructure/postgres"
	"github.com/cooola/inventory-core/pkg/barcode"
	"github.com/cooola/inventory-core/pkg/config"
	"github.com/cooola/inventory-core/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "uso: stockctl <migrate|low-stock|out-of-stock|expiring|valuation|prune-zero|label> [flags]")
		os.Exit(2)
	}
	command := os.Args[1]
	args := os.Args[2:]

	// label no necesita configuración ni base de datos
	if command == "label" {
		runLabel(args)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: "info"})

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	entryRepo := postgres.NewInventoryEntryRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	warehouseRepo := postgres.NewWarehouseRepository(pool)
	txRunner := postgres.NewTxRunner(pool)
	ledgerUC := ledger.NewLedgerUseCase(txRunner, productRepo, warehouseRepo, cfg.Ledger.ConflictRetries)
	queryUC := query.NewInventoryQueryUseCase(entryRepo)

	switch command {
	case "migrate":
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("aplicar migraciones")
		}
		log.Info().Msg("migraciones aplicadas")

	case "low-stock":
		fs := flag.NewFlagSet("low-stock", flag.ExitOnError)
		threshold := fs.String("threshold", "0", "umbral de disponible")
		_ = fs.Parse(args)
		t, err := decimal.NewFromString(*threshold)
		if err != nil {
			log.Fatal().Err(err).Msg("umbral inválido")
		}
		entries, err := queryUC.LowStock(ctx, t)
		if err != nil {
			log.Fatal().Err(err).Msg("consultar bajo stock")
		}
		printEntries(entries)

	case "out-of-stock":
		entries, err := queryUC.OutOfStock(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("consultar agotados")
		}
		printEntries(entries)

	case "expiring":
		fs := flag.NewFlagSet("expiring", flag.ExitOnError)
		days := fs.Int("days", 30, "ventana de vencimiento en días")
		_ = fs.Parse(args)
		cutoff := time.Now().AddDate(0, 0, *days)
		entries, err := queryUC.ExpiringSoon(ctx, cutoff)
		if err != nil {
			log.Fatal().Err(err).Msg("consultar por vencer")
		}
		printEntries(entries)

	case "valuation":
		fs := flag.NewFlagSet("valuation", flag.ExitOnError)
		warehouseID := fs.String("warehouse", "", "ID de la bodega")
		_ = fs.Parse(args)
		summary, err := queryUC.WarehouseSummary(ctx, *warehouseID)
		if err != nil {
			log.Fatal().Err(err).Msg("consultar valorización")
		}
		fmt.Printf("bodega %s: con stock=%d agotados=%d valor=%s\n",
			summary.WarehouseID, summary.InStockCount, summary.OutOfStockCount, summary.TotalValue)

	case "prune-zero":
		fs := flag.NewFlagSet("prune-zero", flag.ExitOnError)
		productID := fs.String("product", "", "ID del producto")
		warehouseID := fs.String("warehouse", "", "ID de la bodega")
		locationID := fs.String("location", "", "ID de la ubicación (opcional)")
		lotNumber := fs.String("lot", "", "número de lote (opcional)")
		_ = fs.Parse(args)
		key := dto.EntryKeyDTO{
			ProductID:   *productID,
			WarehouseID: *warehouseID,
			LocationID:  *locationID,
			LotNumber:   *lotNumber,
		}
		if err := ledgerUC.PruneZero(ctx, key); err != nil {
			log.Fatal().Err(err).Msg("podar fila en cero")
		}
		log.Info().Str("product", *productID).Str("warehouse", *warehouseID).Msg("fila eliminada")

	default:
		fmt.Fprintf(os.Stderr, "comando desconocido: %s\n", command)
		os.Exit(2)
	}
}

func runLabel(args []string) {
	fs := flag.NewFlagSet("label", flag.ExitOnError)
	content := fs.String("content", "", "contenido de la etiqueta (SKU, barcode, etc.)")
	format := fs.String("format", "qr", "qr o code128")
	width := fs.Int("width", 256, "ancho en píxeles")
	height := fs.Int("height", 256, "alto en píxeles")
	out := fs.String("out", "label.png", "archivo de salida")
	_ = fs.Parse(args)

	var (
		img []byte
		err error
	)
	switch *format {
	case "qr":
		img, err = barcode.RenderQR(*content, *width, *height)
	case "code128":
		img, err = barcode.RenderCode128(*content, *width, *height)
	default:
		fmt.Fprintf(os.Stderr, "formato desconocido: %s\n", *format)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "renderizar etiqueta: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, img, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "escribir %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("etiqueta escrita en %s (%d bytes)\n", *out, len(img))
}

func printEntries(entries []dto.InventoryEntryResponse) {
	if len(entries) == 0 {
		fmt.Println("sin resultados")
		return
	}
	for _, e := range entries {
		expiry := "-"
		if e.ExpiryDate != nil {
			expiry = e.ExpiryDate.Format("2006-01-02")
		}
		fmt.Printf("producto=%s bodega=%s ubicación=%s lote=%s físico=%s reservado=%s disponible=%s vence=%s\n",
			e.ProductID, e.WarehouseID, orDash(e.LocationID), orDash(e.LotNumber),
			e.Quantity, e.ReservedQuantity, e.AvailableQuantity, expiry)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
