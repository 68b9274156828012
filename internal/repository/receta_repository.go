package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Angalets/olimpollo-backend/internal/database"
	"github.com/Angalets/olimpollo-backend/internal/models"

	"github.com/lib/pq"
)

// RecetaRepository índice de recetas: producto vendible -> líneas de receta
type RecetaRepository interface {
	LineasPorProducto(ctx context.Context, q database.Querier, productoID int64) ([]models.RecetaInsumo, error)

	// Reemplazo completo de una receta; el llamador abre la transacción
	BloquearReceta(ctx context.Context, q database.Querier, recetaID int64) (bool, error)
	UpdateReceta(ctx context.Context, q database.Querier, receta *models.Receta) error
	ReplaceLineas(ctx context.Context, q database.Querier, recetaID int64, lineas []models.RecetaInsumo) error
	VincularProducto(ctx context.Context, q database.Querier, recetaID int64, productoID *int64) (bool, error)
}

const (
	queryLineasPorProducto = `
		SELECT ri.receta_id, ri.insumo_id, ri.cantidad_necesaria, COALESCE(ri.unidad_medida, '')
		FROM menu_productos mp
		JOIN receta_insumo ri ON ri.receta_id = mp.receta_id
		WHERE mp.id = $1
		ORDER BY ri.posicion, ri.id`

	queryBloquearReceta = `SELECT id FROM recetas WHERE id = $1 FOR UPDATE`

	queryUpdateReceta = `UPDATE recetas SET nombre = $1, descripcion = $2, pasos = $3 WHERE id = $4`

	queryDeleteLineas = `DELETE FROM receta_insumo WHERE receta_id = $1`

	queryInsertLinea = `
		INSERT INTO receta_insumo (receta_id, insumo_id, cantidad_necesaria, unidad_medida, posicion)
		VALUES ($1, $2, $3, $4, $5)`

	queryDesvincularProducto = `UPDATE menu_productos SET receta_id = NULL WHERE receta_id = $1`

	queryVincularProducto = `UPDATE menu_productos SET receta_id = $1 WHERE id = $2`
)

// ErrInsumoInexistente una línea de receta apunta a un insumo que no existe
var ErrInsumoInexistente = errors.New("insumo inexistente")

type recetaRepository struct{}

// NewRecetaRepository crea una nueva instancia del repository
func NewRecetaRepository() RecetaRepository {
	return &recetaRepository{}
}

// LineasPorProducto líneas de la receta ligada al producto; vacío si no tiene receta
func (r *recetaRepository) LineasPorProducto(ctx context.Context, q database.Querier, productoID int64) ([]models.RecetaInsumo, error) {
	rows, err := q.QueryContext(ctx, queryLineasPorProducto, productoID)
	if err != nil {
		return nil, fmt.Errorf("failed to get receta de producto %d: %w", productoID, err)
	}
	defer rows.Close()

	var lineas []models.RecetaInsumo
	for rows.Next() {
		var l models.RecetaInsumo
		if err := rows.Scan(&l.RecetaID, &l.InsumoID, &l.CantidadNecesaria, &l.UnidadMedida); err != nil {
			return nil, fmt.Errorf("failed to scan linea de receta: %w", err)
		}
		lineas = append(lineas, l)
	}

	return lineas, rows.Err()
}

// BloquearReceta toma la fila de la receta; false si no existe
func (r *recetaRepository) BloquearReceta(ctx context.Context, q database.Querier, recetaID int64) (bool, error) {
	var id int64
	err := q.QueryRowContext(ctx, queryBloquearReceta, recetaID).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to lock receta: %w", err)
	}
	return true, nil
}

// UpdateReceta actualiza nombre, descripción y pasos
func (r *recetaRepository) UpdateReceta(ctx context.Context, q database.Querier, receta *models.Receta) error {
	pasos := receta.Pasos
	if pasos == nil {
		pasos = []string{}
	}
	if _, err := q.ExecContext(ctx, queryUpdateReceta, receta.Nombre, receta.Descripcion, pq.Array(pasos), receta.ID); err != nil {
		return fmt.Errorf("failed to update receta: %w", err)
	}
	return nil
}

// ReplaceLineas borra las líneas actuales e inserta las nuevas en orden
func (r *recetaRepository) ReplaceLineas(ctx context.Context, q database.Querier, recetaID int64, lineas []models.RecetaInsumo) error {
	if _, err := q.ExecContext(ctx, queryDeleteLineas, recetaID); err != nil {
		return fmt.Errorf("failed to delete lineas: %w", err)
	}

	for i, l := range lineas {
		if _, err := q.ExecContext(ctx, queryInsertLinea, recetaID, l.InsumoID, l.CantidadNecesaria, l.UnidadMedida, i); err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == pgForeignKeyViolation {
				return fmt.Errorf("%w: %d", ErrInsumoInexistente, l.InsumoID)
			}
			return fmt.Errorf("failed to insert linea %d: %w", i, err)
		}
	}
	return nil
}

// VincularProducto quita la receta de su producto anterior y, si productoID no es nil,
// la liga al nuevo. Devuelve false si el producto nuevo no existe.
func (r *recetaRepository) VincularProducto(ctx context.Context, q database.Querier, recetaID int64, productoID *int64) (bool, error) {
	if _, err := q.ExecContext(ctx, queryDesvincularProducto, recetaID); err != nil {
		return false, fmt.Errorf("failed to unbind producto: %w", err)
	}
	if productoID == nil {
		return true, nil
	}

	result, err := q.ExecContext(ctx, queryVincularProducto, recetaID, *productoID)
	if err != nil {
		return false, fmt.Errorf("failed to bind producto: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}
