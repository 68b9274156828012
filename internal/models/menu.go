package models

import (
	"github.com/shopspring/decimal"
)

// Receta representa la tabla recetas con sus líneas de receta_insumo
type Receta struct {
	ID          int64          `json:"id" db:"id"`
	Nombre      string         `json:"nombre" db:"nombre"`
	Descripcion string         `json:"descripcion" db:"descripcion"`
	Pasos       []string       `json:"pasos" db:"pasos"`
	Lineas      []RecetaInsumo `json:"ingredientes"`
}

// RecetaInsumo una línea de receta: cantidad de insumo por unidad vendida
type RecetaInsumo struct {
	RecetaID          int64           `json:"receta_id" db:"receta_id"`
	InsumoID          int64           `json:"insumo_id" db:"insumo_id"`
	CantidadNecesaria decimal.Decimal `json:"cantidad_necesaria" db:"cantidad_necesaria"`
	UnidadMedida      string          `json:"unidad_medida" db:"unidad_medida"`
}

// MenuProducto producto vendible; a lo más uno por receta
type MenuProducto struct {
	ID                  int64           `json:"id" db:"id"`
	NombreVenta         string          `json:"nombre_venta" db:"nombre_venta"`
	PrecioBase          decimal.Decimal `json:"precio_base" db:"precio_base"`
	Categoria           string          `json:"categoria" db:"categoria"`
	RecetaID            *int64          `json:"receta_id,omitempty" db:"receta_id"`
	GruposModificadores string          `json:"grupos_modificadores" db:"grupos_modificadores"`
}

// Opcion modificador del menú (tabla menu_opciones), p. ej. Salsa > BBQ
type Opcion struct {
	ID              int64           `json:"id" db:"id"`
	Grupo           string          `json:"nombre_opcion" db:"nombre_opcion"`
	Valor           string          `json:"valor" db:"valor"`
	PrecioAdicional decimal.Decimal `json:"precio_adicional" db:"precio_adicional"`
	InsumoID        *int64          `json:"insumo_id,omitempty" db:"insumo_id"`
	CantidadInsumo  decimal.Decimal `json:"cantidad_insumo" db:"cantidad_insumo"`
	UnidadInsumo    string          `json:"unidad_insumo" db:"unidad_insumo"`
}

// ConsumeInsumo reporta si la opción tiene regla de consumo
func (o Opcion) ConsumeInsumo() bool {
	return o.InsumoID != nil && o.CantidadInsumo.IsPositive()
}
