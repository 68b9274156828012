package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UsuarioAnonimo operador por defecto del corte
const UsuarioAnonimo = "Anonimo"

// CorteCaja representa la tabla cortes_caja. Inmutable una vez escrito.
type CorteCaja struct {
	ID            int64            `json:"id" db:"id"`
	Usuario       string           `json:"usuario" db:"usuario"`
	FechaCorte    time.Time        `json:"fecha_corte" db:"fecha_corte"`
	TotalVentas   decimal.Decimal  `json:"total_ventas" db:"total_ventas"`
	Esperado      TotalesPorMetodo `json:"esperado"`
	RealEfectivo  decimal.Decimal  `json:"real_efectivo" db:"real_efectivo"`
	RealTarjeta   decimal.Decimal  `json:"real_tarjeta" db:"real_tarjeta"`
	Diferencia    decimal.Decimal  `json:"diferencia" db:"diferencia"`
	Observaciones string           `json:"observaciones" db:"observaciones"`
}

// VentaPorMetodo suma de pedidos entregados para un metodo_pago tal como está guardado
type VentaPorMetodo struct {
	MetodoPago string
	Total      decimal.Decimal
	Pedidos    int
}

// PreviewCorte totales esperados desde el último corte
type PreviewCorte struct {
	Desde         *time.Time       `json:"desde"`
	Esperado      TotalesPorMetodo `json:"esperado"`
	SinClasificar decimal.Decimal  `json:"sin_clasificar"`
	Pedidos       int              `json:"pedidos"`
}
