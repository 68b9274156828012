package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ===== REQUEST DTOs =====

// PedidoItemRequest línea de un pedido nuevo
type PedidoItemRequest struct {
	MenuProductoID *int64          `json:"menu_producto_id" validate:"omitempty,gt=0"`
	NombreProducto string          `json:"nombre_producto_completo" validate:"required"`
	Cantidad       int             `json:"cantidad" validate:"required,gt=0"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario" validate:"gte=0"`
	Notas          string          `json:"notas"`
	OpcionIDs      []int64         `json:"opcion_ids" validate:"omitempty,dive,gt=0"`
}

// CrearPedidoRequest DTO para crear un pedido. TotalAjustado reemplaza al total calculado.
type CrearPedidoRequest struct {
	Cliente       string              `json:"cliente" validate:"required"`
	Telefono      string              `json:"telefono" validate:"omitempty,max=20"`
	Items         []PedidoItemRequest `json:"items" validate:"required,min=1,dive"`
	CanalVenta    string              `json:"canal_venta"`
	MetodoPago    string              `json:"metodo_pago"`
	TotalAjustado *decimal.Decimal    `json:"total_ajustado"`
}

// CambiarEstadoRequest DTO para la transición de estado
type CambiarEstadoRequest struct {
	Estado string `json:"estado" validate:"required,oneof=Pendiente Entregado"`
}

// CompraItemRequest línea de compra
type CompraItemRequest struct {
	InsumoID      int64           `json:"insumo_id" validate:"required,gt=0"`
	Cantidad      decimal.Decimal `json:"cantidad" validate:"gt=0"`
	CostoUnitario decimal.Decimal `json:"costo_unitario" validate:"gte=0"`
}

// RegistrarCompraRequest DTO para registrar una compra
type RegistrarCompraRequest struct {
	Proveedor   string              `json:"proveedor"`
	Items       []CompraItemRequest `json:"items" validate:"required,min=1,dive"`
	TotalCompra *decimal.Decimal    `json:"total_compra"`
}

// CorteRequest DTO del corte de caja; las llaves de los mapas son métodos de pago
type CorteRequest struct {
	Usuario          string                     `json:"usuario"`
	TotalesEsperados map[string]decimal.Decimal `json:"totales_esperados" validate:"required"`
	TotalesReales    map[string]decimal.Decimal `json:"totales_reales" validate:"required"`
	Observaciones    string                     `json:"observaciones"`
}

// CrearInsumoRequest DTO para dar de alta un insumo
type CrearInsumoRequest struct {
	Nombre             string          `json:"nombre" validate:"required"`
	Cantidad           decimal.Decimal `json:"cantidad"`
	Unidad             string          `json:"unidad" validate:"required"`
	StockMinimo        decimal.Decimal `json:"stock_minimo" validate:"gte=0"`
	Categoria          string          `json:"categoria"`
	ProveedorPreferido string          `json:"proveedor_preferido"`
	CostoPromedio      decimal.Decimal `json:"costo_promedio" validate:"gte=0"`
}

// RecetaInsumoRequest ingrediente de una receta
type RecetaInsumoRequest struct {
	InsumoID          int64           `json:"insumo_id" validate:"required,gt=0"`
	CantidadNecesaria decimal.Decimal `json:"cantidad_necesaria" validate:"gt=0"`
	UnidadMedida      string          `json:"unidad_medida"`
}

// ReemplazarRecetaRequest DTO para reemplazar una receta completa
type ReemplazarRecetaRequest struct {
	Nombre          string                `json:"nombre" validate:"required"`
	Descripcion     string                `json:"descripcion"`
	Pasos           []string              `json:"pasos"`
	Ingredientes    []RecetaInsumoRequest `json:"ingredientes" validate:"required,dive"`
	ProductoVentaID *int64                `json:"producto_venta_id" validate:"omitempty,gt=0"`
}

// ===== RESPONSE DTOs =====

// CrearPedidoResponse montos en texto con dos decimales
type CrearPedidoResponse struct {
	ID       int64  `json:"id"`
	Mensaje  string `json:"mensaje"`
	Comision string `json:"comision"`
	Total    string `json:"total"`
}

// CostoActualizado estado de un insumo después de una compra
type CostoActualizado struct {
	InsumoID      int64           `json:"insumo_id"`
	Cantidad      decimal.Decimal `json:"cantidad"`
	CostoPromedio decimal.Decimal `json:"costo_promedio"`
}

// RegistrarCompraResponse respuesta de una compra registrada
type RegistrarCompraResponse struct {
	ID      int64              `json:"id"`
	Mensaje string             `json:"mensaje"`
	Total   decimal.Decimal    `json:"total_compra"`
	Insumos []CostoActualizado `json:"insumos"`
}

// CorteResponse respuesta del corte de caja
type CorteResponse struct {
	ID         int64           `json:"id"`
	Mensaje    string          `json:"mensaje"`
	FechaCorte time.Time       `json:"fecha_corte"`
	Diferencia decimal.Decimal `json:"diferencia"`
}
