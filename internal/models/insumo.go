package models

import (
	"github.com/shopspring/decimal"
)

// EstadoInsumo estado derivado de la cantidad contra el stock mínimo
type EstadoInsumo string

const (
	EstadoAgotado EstadoInsumo = "Agotado"
	EstadoReStock EstadoInsumo = "Requiere re-stock"
	EstadoEnStock EstadoInsumo = "En stock"
)

// EstadoDe deriva el estado: Agotado (<= 0), Requiere re-stock (<= mínimo), En stock
func EstadoDe(cantidad, stockMinimo decimal.Decimal) EstadoInsumo {
	switch {
	case cantidad.LessThanOrEqual(decimal.Zero):
		return EstadoAgotado
	case cantidad.LessThanOrEqual(stockMinimo):
		return EstadoReStock
	default:
		return EstadoEnStock
	}
}

// ParseEstadoInsumo acepta el nombre exacto del estado
func ParseEstadoInsumo(s string) (EstadoInsumo, bool) {
	switch EstadoInsumo(s) {
	case EstadoAgotado, EstadoReStock, EstadoEnStock:
		return EstadoInsumo(s), true
	}
	return "", false
}

// Insumo representa la tabla insumos
type Insumo struct {
	ID                 int64           `json:"id" db:"id"`
	Nombre             string          `json:"nombre" db:"nombre"`
	Cantidad           decimal.Decimal `json:"cantidad" db:"cantidad"`
	Unidad             string          `json:"unidad" db:"unidad"`
	StockMinimo        decimal.Decimal `json:"stock_minimo" db:"stock_minimo"`
	Categoria          string          `json:"categoria" db:"categoria"`
	ProveedorPreferido string          `json:"proveedor_preferido" db:"proveedor_preferido"`
	CostoPromedio      decimal.Decimal `json:"costo_promedio" db:"costo_promedio"`
	Estado             EstadoInsumo    `json:"estado" db:"-"`
}

// CalcularEstado rellena Estado a partir de la cantidad actual
func (i *Insumo) CalcularEstado() {
	i.Estado = EstadoDe(i.Cantidad, i.StockMinimo)
}

// InsumoFilter filtros del listado de inventario
type InsumoFilter struct {
	Categoria *string       `json:"categoria,omitempty"`
	Estado    *EstadoInsumo `json:"estado,omitempty"`
}

// PrecisionCosto decimales con que se guarda costo_promedio
const PrecisionCosto = 4

// CostoPromedioPonderado mezcla el costo actual con el de la compra, ponderado por cantidad.
// Si la nueva cantidad no es positiva el costo queda en el costo unitario de la compra.
func CostoPromedioPonderado(cantidadActual, costoActual, cantidadComprada, costoUnitario decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	nuevaCantidad := cantidadActual.Add(cantidadComprada)
	if !nuevaCantidad.IsPositive() {
		return nuevaCantidad, costoUnitario
	}
	valor := cantidadActual.Mul(costoActual).Add(cantidadComprada.Mul(costoUnitario))
	return nuevaCantidad, valor.DivRound(nuevaCantidad, PrecisionCosto)
}

// AlertaStock insumo que quedó en o por debajo de su mínimo tras un descuento
type AlertaStock struct {
	InsumoID    int64           `json:"insumo_id"`
	Nombre      string          `json:"nombre"`
	Cantidad    decimal.Decimal `json:"cantidad"`
	StockMinimo decimal.Decimal `json:"stock_minimo"`
	Estado      EstadoInsumo    `json:"estado"`
}
