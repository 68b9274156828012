package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProveedorGeneral proveedor por defecto de una compra
const ProveedorGeneral = "General"

// Compra representa la tabla compras
type Compra struct {
	ID          int64           `json:"id" db:"id"`
	Proveedor   string          `json:"proveedor" db:"proveedor"`
	TotalCompra decimal.Decimal `json:"total_compra" db:"total_compra"`
	FechaCompra time.Time       `json:"fecha_compra" db:"fecha_compra"`
	Items       []CompraItem    `json:"items"`
}

// CompraItem representa la tabla compra_items
type CompraItem struct {
	CompraID         int64           `json:"compra_id" db:"compra_id"`
	InsumoID         int64           `json:"insumo_id" db:"insumo_id"`
	CantidadComprada decimal.Decimal `json:"cantidad_comprada" db:"cantidad_comprada"`
	CostoUnitario    decimal.Decimal `json:"costo_unitario" db:"costo_unitario"`
	Subtotal         decimal.Decimal `json:"subtotal" db:"subtotal"`
}

// CostoInsumo cantidad y costo de un insumo bloqueado para recalcular
type CostoInsumo struct {
	InsumoID      int64
	Cantidad      decimal.Decimal
	CostoPromedio decimal.Decimal
}
