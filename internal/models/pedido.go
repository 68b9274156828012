package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EstadoPedido ciclo de vida de un pedido. No hay estado cancelado: cancelar es borrar.
type EstadoPedido string

const (
	EstadoPendiente EstadoPedido = "Pendiente"
	EstadoEntregado EstadoPedido = "Entregado"
)

// ParseEstadoPedido valida un estado recibido del cliente
func ParseEstadoPedido(s string) (EstadoPedido, bool) {
	switch EstadoPedido(s) {
	case EstadoPendiente, EstadoEntregado:
		return EstadoPedido(s), true
	}
	return "", false
}

// Canales de venta conocidos. El conjunto es abierto.
const (
	CanalOyR   = "OyR"
	CanalUber  = "Uber"
	CanalDidi  = "Didi"
	CanalRappi = "Rappi"

	// CanalTodos en filtros equivale a no filtrar
	CanalTodos = "Todos"
)

// Pedido representa la tabla pedidos
type Pedido struct {
	ID            int64           `json:"id" db:"id"`
	Cliente       string          `json:"cliente" db:"cliente"`
	Telefono      string          `json:"telefono,omitempty" db:"telefono"`
	CanalVenta    string          `json:"canal_venta" db:"canal_venta"`
	MetodoPago    string          `json:"metodo_pago" db:"metodo_pago"`
	Estado        EstadoPedido    `json:"estado" db:"estado"`
	Total         decimal.Decimal `json:"total" db:"total"`
	Comision      decimal.Decimal `json:"comision" db:"comision"`
	FechaCreacion time.Time       `json:"fecha_creacion" db:"fecha_creacion"`
	Items         []PedidoItem    `json:"items"`
}

// PedidoItem representa la tabla pedido_items. OpcionIDs son los modificadores
// elegidos al crear el pedido; los pedidos antiguos no los tienen.
type PedidoItem struct {
	ID             int64           `json:"id" db:"id"`
	PedidoID       int64           `json:"pedido_id" db:"pedido_id"`
	MenuProductoID *int64          `json:"menu_producto_id" db:"menu_producto_id"`
	NombreProducto string          `json:"nombre_producto" db:"nombre_producto"`
	Cantidad       int             `json:"cantidad" db:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario" db:"precio_unitario"`
	Notas          string          `json:"notas" db:"notas"`
	OpcionIDs      []int64         `json:"opcion_ids,omitempty" db:"opcion_ids"`
}

// Subtotal cantidad × precio unitario
func (i PedidoItem) Subtotal() decimal.Decimal {
	return i.PrecioUnitario.Mul(decimal.NewFromInt(int64(i.Cantidad)))
}

// PedidoFilter filtros del listado de pedidos
type PedidoFilter struct {
	Canal       *string       `json:"canal,omitempty"`
	Estado      *EstadoPedido `json:"estado,omitempty"`
	FechaInicio *time.Time    `json:"fecha_inicio,omitempty"`
	FechaFin    *time.Time    `json:"fecha_fin,omitempty"`
}

// Cliente representa la tabla clientes (CRM por teléfono)
type Cliente struct {
	ID           int64           `json:"id" db:"id"`
	Telefono     string          `json:"telefono" db:"telefono"`
	Nombre       string          `json:"nombre" db:"nombre"`
	Visitas      int             `json:"visitas" db:"visitas"`
	TotalGastado decimal.Decimal `json:"total_gastado" db:"total_gastado"`
	Puntos       int             `json:"puntos" db:"puntos"`
	UltimaVisita time.Time       `json:"ultima_visita" db:"ultima_visita"`
}

// OrigenConsumo de dónde proviene un descuento de inventario
type OrigenConsumo string

const (
	OrigenReceta      OrigenConsumo = "receta"
	OrigenModificador OrigenConsumo = "modificador"
)

// ConsumoInsumo cantidad a descontar de un insumo
type ConsumoInsumo struct {
	InsumoID int64           `json:"insumo_id"`
	Cantidad decimal.Decimal `json:"cantidad"`
	Origen   OrigenConsumo   `json:"origen,omitempty"`
}

// ResultadoTransicion resultado de cambiar el estado de un pedido
type ResultadoTransicion struct {
	PedidoID       int64           `json:"pedido_id"`
	EstadoAnterior EstadoPedido    `json:"estado_anterior"`
	Estado         EstadoPedido    `json:"estado"`
	Descuentos     []ConsumoInsumo `json:"descuentos"`
	Alertas        []AlertaStock   `json:"alertas"`
}
