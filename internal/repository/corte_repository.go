package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Angalets/olimpollo-backend/internal/database"
	"github.com/Angalets/olimpollo-backend/internal/models"
)

// CorteRepository cortes de caja y la lectura de ventas que concilian
type CorteRepository interface {
	// UltimoCorte fecha del corte más reciente; nil si nunca hubo corte
	UltimoCorte(ctx context.Context, q database.Querier) (*time.Time, error)
	// VentasDesde suma pedidos Entregado creados después de desde (todos si desde es nil)
	VentasDesde(ctx context.Context, q database.Querier, desde *time.Time) ([]models.VentaPorMetodo, error)
	Insert(ctx context.Context, q database.Querier, corte *models.CorteCaja) error
}

const (
	queryUltimoCorte = `SELECT MAX(fecha_corte) FROM cortes_caja`

	queryVentasPorMetodo = `
		SELECT metodo_pago, COALESCE(SUM(total), 0), COUNT(*)
		FROM pedidos
		WHERE estado = 'Entregado'`

	queryInsertCorte = `
		INSERT INTO cortes_caja (
			usuario, total_ventas, esperado_efectivo, esperado_tarjeta, esperado_transferencia,
			esperado_apps, real_efectivo, real_tarjeta, diferencia, observaciones
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, fecha_corte`
)

type corteRepository struct{}

// NewCorteRepository crea una nueva instancia del repository
func NewCorteRepository() CorteRepository {
	return &corteRepository{}
}

func (r *corteRepository) UltimoCorte(ctx context.Context, q database.Querier) (*time.Time, error) {
	var ultimo sql.NullTime
	if err := q.QueryRowContext(ctx, queryUltimoCorte).Scan(&ultimo); err != nil {
		return nil, fmt.Errorf("failed to get ultimo corte: %w", err)
	}
	if !ultimo.Valid {
		return nil, nil
	}
	return &ultimo.Time, nil
}

func (r *corteRepository) VentasDesde(ctx context.Context, q database.Querier, desde *time.Time) ([]models.VentaPorMetodo, error) {
	query := queryVentasPorMetodo
	var args []interface{}
	if desde != nil {
		query += " AND fecha_creacion > $1"
		args = append(args, *desde)
	}
	query += " GROUP BY metodo_pago"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to sum ventas: %w", err)
	}
	defer rows.Close()

	var ventas []models.VentaPorMetodo
	for rows.Next() {
		var v models.VentaPorMetodo
		if err := rows.Scan(&v.MetodoPago, &v.Total, &v.Pedidos); err != nil {
			return nil, fmt.Errorf("failed to scan venta: %w", err)
		}
		ventas = append(ventas, v)
	}
	return ventas, rows.Err()
}

func (r *corteRepository) Insert(ctx context.Context, q database.Querier, corte *models.CorteCaja) error {
	err := q.QueryRowContext(ctx, queryInsertCorte,
		corte.Usuario, corte.TotalVentas,
		corte.Esperado.Efectivo, corte.Esperado.Tarjeta, corte.Esperado.Transferencia, corte.Esperado.Aplicacion,
		corte.RealEfectivo, corte.RealTarjeta, corte.Diferencia, corte.Observaciones,
	).Scan(&corte.ID, &corte.FechaCorte)
	if err != nil {
		return fmt.Errorf("failed to create corte: %w", err)
	}
	return nil
}
