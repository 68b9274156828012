package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MetodoPago método de pago de un pedido. Es un conjunto cerrado.
type MetodoPago string

const (
	MetodoEfectivo      MetodoPago = "Efectivo"
	MetodoTarjeta       MetodoPago = "Tarjeta"
	MetodoTransferencia MetodoPago = "Transferencia"
	MetodoAplicacion    MetodoPago = "Aplicación"
)

// MetodosPago en el orden en que se reportan en el corte
var MetodosPago = []MetodoPago{MetodoEfectivo, MetodoTarjeta, MetodoTransferencia, MetodoAplicacion}

// ErrMetodoPagoDesconocido el nombre no corresponde a ningún método soportado
var ErrMetodoPagoDesconocido = errors.New("método de pago desconocido")

// ErrMetodoPagoRepetido dos llaves del mapa nombran el mismo método
var ErrMetodoPagoRepetido = errors.New("método de pago repetido")

var (
	// 3.6% de la terminal + 16% de IVA sobre la comisión
	tasaComisionTarjeta = decimal.RequireFromString("0.04176")
	// promedio configurado para Uber/Didi/Rappi
	tasaComisionAplicacion = decimal.RequireFromString("0.4213")
)

// ParseMetodoPago reconoce el método por subcadena, sin distinguir mayúsculas ni acentos.
func ParseMetodoPago(s string) (MetodoPago, error) {
	n := Normalizar(s)
	switch {
	case n == "":
		return "", fmt.Errorf("%w: vacío", ErrMetodoPagoDesconocido)
	case strings.Contains(n, "aplicacion"), strings.HasPrefix(n, "app"):
		return MetodoAplicacion, nil
	case strings.Contains(n, "tarjeta"):
		return MetodoTarjeta, nil
	case strings.Contains(n, "transferencia"):
		return MetodoTransferencia, nil
	case strings.Contains(n, "efectivo"):
		return MetodoEfectivo, nil
	}
	return "", fmt.Errorf("%w: %q", ErrMetodoPagoDesconocido, s)
}

// TasaComision fracción del total que retiene el procesador del pago
func (m MetodoPago) TasaComision() decimal.Decimal {
	switch m {
	case MetodoTarjeta:
		return tasaComisionTarjeta
	case MetodoAplicacion:
		return tasaComisionAplicacion
	case MetodoEfectivo, MetodoTransferencia:
		return decimal.Zero
	}
	return decimal.Zero
}

// CalcularComision redondea a centavos
func CalcularComision(total decimal.Decimal, m MetodoPago) decimal.Decimal {
	return total.Mul(m.TasaComision()).Round(2)
}

// TotalesPorMetodo montos agrupados en los cuatro métodos de pago
type TotalesPorMetodo struct {
	Efectivo      decimal.Decimal `json:"Efectivo"`
	Tarjeta       decimal.Decimal `json:"Tarjeta"`
	Transferencia decimal.Decimal `json:"Transferencia"`
	Aplicacion    decimal.Decimal `json:"Aplicación"`
}

// Sumar acumula monto en el método indicado. Devuelve false si el método no es válido.
func (t *TotalesPorMetodo) Sumar(m MetodoPago, monto decimal.Decimal) bool {
	switch m {
	case MetodoEfectivo:
		t.Efectivo = t.Efectivo.Add(monto)
	case MetodoTarjeta:
		t.Tarjeta = t.Tarjeta.Add(monto)
	case MetodoTransferencia:
		t.Transferencia = t.Transferencia.Add(monto)
	case MetodoAplicacion:
		t.Aplicacion = t.Aplicacion.Add(monto)
	default:
		return false
	}
	return true
}

// Monto devuelve el total de un método
func (t TotalesPorMetodo) Monto(m MetodoPago) decimal.Decimal {
	switch m {
	case MetodoEfectivo:
		return t.Efectivo
	case MetodoTarjeta:
		return t.Tarjeta
	case MetodoTransferencia:
		return t.Transferencia
	case MetodoAplicacion:
		return t.Aplicacion
	}
	return decimal.Zero
}

// Total suma de los cuatro métodos
func (t TotalesPorMetodo) Total() decimal.Decimal {
	return t.Efectivo.Add(t.Tarjeta).Add(t.Transferencia).Add(t.Aplicacion)
}

// TotalesDesdeMapa convierte un mapa {"efectivo": 100, ...} validando cada llave.
// "Efectivo" y "efectivo" en el mismo mapa es un error, no una suma.
func TotalesDesdeMapa(m map[string]decimal.Decimal) (TotalesPorMetodo, error) {
	var t TotalesPorMetodo
	vistos := make(map[MetodoPago]string, len(m))
	for k, v := range m {
		metodo, err := ParseMetodoPago(k)
		if err != nil {
			return TotalesPorMetodo{}, err
		}
		if previa, ok := vistos[metodo]; ok {
			return TotalesPorMetodo{}, fmt.Errorf("%w: %q y %q", ErrMetodoPagoRepetido, previa, k)
		}
		vistos[metodo] = k
		t.Sumar(metodo, v)
	}
	return t, nil
}
