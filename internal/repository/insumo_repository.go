package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Angalets/olimpollo-backend/internal/database"
	"github.com/Angalets/olimpollo-backend/internal/models"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// InsumoRepository define el acceso a la tabla insumos. Todas las operaciones
// reciben el Querier: el pool o la transacción en curso.
type InsumoRepository interface {
	List(ctx context.Context, q database.Querier, filter models.InsumoFilter) ([]*models.Insumo, error)
	GetByID(ctx context.Context, q database.Querier, id int64) (*models.Insumo, error)
	Create(ctx context.Context, q database.Querier, insumo *models.Insumo) error
	Delete(ctx context.Context, q database.Querier, id int64) (bool, error)
	TieneRecetas(ctx context.Context, q database.Querier, id int64) (bool, error)

	// Descontar resta de forma atómica y devuelve el estado resultante; nil si no existe
	Descontar(ctx context.Context, q database.Querier, id int64, cantidad decimal.Decimal) (*models.Insumo, error)

	// BloquearCostos toma FOR UPDATE las filas en orden de id
	BloquearCostos(ctx context.Context, q database.Querier, ids []int64) (map[int64]*models.CostoInsumo, error)
	ActualizarCosto(ctx context.Context, q database.Querier, costo *models.CostoInsumo) error
}

const (
	selectInsumo = `
		SELECT id, nombre, cantidad, COALESCE(unidad, ''), COALESCE(stock_minimo, 0),
			   COALESCE(categoria, ''), COALESCE(proveedor_preferido, ''), COALESCE(costo_promedio, 0)
		FROM insumos`

	queryInsumoByID = selectInsumo + ` WHERE id = $1`

	queryCreateInsumo = `
		INSERT INTO insumos (nombre, cantidad, unidad, stock_minimo, categoria, proveedor_preferido, costo_promedio)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	queryDeleteInsumo = `DELETE FROM insumos WHERE id = $1`

	queryInsumoEnRecetas = `SELECT EXISTS (SELECT 1 FROM receta_insumo WHERE insumo_id = $1)`

	queryDescontarInsumo = `
		UPDATE insumos SET cantidad = cantidad - $1
		WHERE id = $2
		RETURNING id, nombre, cantidad, COALESCE(stock_minimo, 0)`

	queryBloquearCostos = `
		SELECT id, cantidad, COALESCE(costo_promedio, 0)
		FROM insumos
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE`

	queryActualizarCosto = `UPDATE insumos SET cantidad = $1, costo_promedio = $2 WHERE id = $3`
)

// pgForeignKeyViolation código SQLSTATE de violación de llave foránea
const pgForeignKeyViolation = "23503"

// Llaves foráneas que impiden borrar un insumo
const (
	FKRecetaInsumo = "receta_insumo_insumo_id_fkey"
	FKCompraItem   = "compra_items_insumo_id_fkey"
)

// ErrReferenciado la fila no se puede borrar porque otra tabla la referencia
var ErrReferenciado = errors.New("registro referenciado por otra tabla")

// ReferenciaError lleva la llave foránea que bloqueó el borrado
type ReferenciaError struct {
	Constraint string
}

func (e *ReferenciaError) Error() string {
	return fmt.Sprintf("%s: %s", ErrReferenciado, e.Constraint)
}

func (e *ReferenciaError) Unwrap() error { return ErrReferenciado }

type insumoRepository struct{}

// NewInsumoRepository crea una nueva instancia del repository
func NewInsumoRepository() InsumoRepository {
	return &insumoRepository{}
}

// List obtiene el inventario con filtros de categoría y estado
func (r *insumoRepository) List(ctx context.Context, q database.Querier, filter models.InsumoFilter) ([]*models.Insumo, error) {
	var (
		conditions []string
		args       []interface{}
	)

	if filter.Categoria != nil && *filter.Categoria != "" {
		args = append(args, *filter.Categoria)
		conditions = append(conditions, fmt.Sprintf("categoria = $%d", len(args)))
	}

	if filter.Estado != nil {
		switch *filter.Estado {
		case models.EstadoAgotado:
			conditions = append(conditions, "cantidad <= 0")
		case models.EstadoReStock:
			conditions = append(conditions, "cantidad > 0 AND cantidad <= COALESCE(stock_minimo, 0)")
		case models.EstadoEnStock:
			conditions = append(conditions, "cantidad > COALESCE(stock_minimo, 0)")
		}
	}

	query := selectInsumo
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY nombre"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list insumos: %w", err)
	}
	defer rows.Close()

	insumos := []*models.Insumo{}
	for rows.Next() {
		insumo, err := scanInsumo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan insumo: %w", err)
		}
		insumos = append(insumos, insumo)
	}

	return insumos, rows.Err()
}

// GetByID obtiene un insumo; nil si no existe
func (r *insumoRepository) GetByID(ctx context.Context, q database.Querier, id int64) (*models.Insumo, error) {
	insumo, err := scanInsumo(q.QueryRowContext(ctx, queryInsumoByID, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get insumo: %w", err)
	}
	return insumo, nil
}

// Create inserta un insumo y rellena su ID
func (r *insumoRepository) Create(ctx context.Context, q database.Querier, insumo *models.Insumo) error {
	err := q.QueryRowContext(ctx, queryCreateInsumo,
		insumo.Nombre, insumo.Cantidad, insumo.Unidad, insumo.StockMinimo,
		insumo.Categoria, insumo.ProveedorPreferido, insumo.CostoPromedio,
	).Scan(&insumo.ID)
	if err != nil {
		return fmt.Errorf("failed to create insumo: %w", err)
	}
	insumo.CalcularEstado()
	return nil
}

// Delete borra un insumo. Devuelve *ReferenciaError si una llave foránea lo impide.
func (r *insumoRepository) Delete(ctx context.Context, q database.Querier, id int64) (bool, error) {
	result, err := q.ExecContext(ctx, queryDeleteInsumo, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgForeignKeyViolation {
			return false, &ReferenciaError{Constraint: pqErr.Constraint}
		}
		return false, fmt.Errorf("failed to delete insumo: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// TieneRecetas indica si alguna línea de receta usa el insumo
func (r *insumoRepository) TieneRecetas(ctx context.Context, q database.Querier, id int64) (bool, error) {
	var exists bool
	if err := q.QueryRowContext(ctx, queryInsumoEnRecetas, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check recetas: %w", err)
	}
	return exists, nil
}

// Descontar aplica cantidad = cantidad - $1 en el store, sin leer antes.
// No hay piso: la cantidad puede quedar negativa.
func (r *insumoRepository) Descontar(ctx context.Context, q database.Querier, id int64, cantidad decimal.Decimal) (*models.Insumo, error) {
	var insumo models.Insumo
	err := q.QueryRowContext(ctx, queryDescontarInsumo, cantidad, id).Scan(
		&insumo.ID, &insumo.Nombre, &insumo.Cantidad, &insumo.StockMinimo,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to descontar insumo %d: %w", id, err)
	}
	insumo.CalcularEstado()
	return &insumo, nil
}

// BloquearCostos lee cantidad y costo bajo bloqueo de fila
func (r *insumoRepository) BloquearCostos(ctx context.Context, q database.Querier, ids []int64) (map[int64]*models.CostoInsumo, error) {
	rows, err := q.QueryContext(ctx, queryBloquearCostos, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to lock insumos: %w", err)
	}
	defer rows.Close()

	costos := make(map[int64]*models.CostoInsumo, len(ids))
	for rows.Next() {
		var c models.CostoInsumo
		if err := rows.Scan(&c.InsumoID, &c.Cantidad, &c.CostoPromedio); err != nil {
			return nil, fmt.Errorf("failed to scan costo: %w", err)
		}
		costos[c.InsumoID] = &c
	}

	return costos, rows.Err()
}

// ActualizarCosto guarda la cantidad y el costo recalculados
func (r *insumoRepository) ActualizarCosto(ctx context.Context, q database.Querier, costo *models.CostoInsumo) error {
	result, err := q.ExecContext(ctx, queryActualizarCosto, costo.Cantidad, costo.CostoPromedio, costo.InsumoID)
	if err != nil {
		return fmt.Errorf("failed to update costo: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no insumo record found for id %d", costo.InsumoID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInsumo(row rowScanner) (*models.Insumo, error) {
	var insumo models.Insumo
	err := row.Scan(
		&insumo.ID, &insumo.Nombre, &insumo.Cantidad, &insumo.Unidad, &insumo.StockMinimo,
		&insumo.Categoria, &insumo.ProveedorPreferido, &insumo.CostoPromedio,
	)
	if err != nil {
		return nil, err
	}
	insumo.CalcularEstado()
	return &insumo, nil
}
