package inventory

import "github.com/shopspring/decimal"

// Escalas de punto fijo del libro de inventario: cantidades con 3 decimales,
// costos unitarios con 2 (mismas escalas NUMERIC del esquema).
const (
	QuantityScale = 3
	CostScale     = 2
)

// QuantizeQuantity normaliza una cantidad a 3 decimales (redondeo half-up).
func QuantizeQuantity(q decimal.Decimal) decimal.Decimal {
	return q.Round(QuantityScale)
}

// QuantizeCost normaliza un costo unitario a 2 decimales (redondeo half-up).
func QuantizeCost(c decimal.Decimal) decimal.Decimal {
	return c.Round(CostScale)
}

// WeightedAverageCost implementa la lógica de costo promedio ponderado (servicio de dominio).
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
func WeightedAverageCost(stockActual, costoActual, cantEntrada, costoEntrada decimal.Decimal) decimal.Decimal {
	sum := stockActual.Add(cantEntrada)
	if sum.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	num := stockActual.Mul(costoActual).Add(cantEntrada.Mul(costoEntrada))
	return QuantizeCost(num.Div(sum))
}

// EntryValue valor de una fila del libro: cantidad * costo unitario.
// Un costo ausente aporta cero, no es un error.
func EntryValue(quantity decimal.Decimal, unitCost *decimal.Decimal) decimal.Decimal {
	if unitCost == nil {
		return decimal.Zero
	}
	return quantity.Mul(*unitCost)
}
