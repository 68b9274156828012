package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Angalets/olimpollo-backend/internal/database"
	"github.com/Angalets/olimpollo-backend/internal/models"

	"github.com/lib/pq"
)

// OpcionRepository índice de modificadores (menu_opciones)
type OpcionRepository interface {
	// PorIDs devuelve las opciones en el orden de ids; las que no existen se omiten
	PorIDs(ctx context.Context, q database.Querier, ids []int64) ([]models.Opcion, error)
	// PorValor busca sin distinguir mayúsculas; gana la de menor id. nil si no hay.
	PorValor(ctx context.Context, q database.Querier, valor string) (*models.Opcion, error)
}

const (
	selectOpcion = `
		SELECT id, nombre_opcion, valor, COALESCE(precio_adicional, 0), insumo_id,
			   COALESCE(cantidad_insumo, 0), COALESCE(unidad_insumo, '')
		FROM menu_opciones`

	queryOpcionesPorIDs = selectOpcion + ` WHERE id = ANY($1)`

	queryOpcionPorValor = selectOpcion + ` WHERE UPPER(valor) = $1 ORDER BY id LIMIT 1`
)

type opcionRepository struct{}

// NewOpcionRepository crea una nueva instancia del repository
func NewOpcionRepository() OpcionRepository {
	return &opcionRepository{}
}

func (r *opcionRepository) PorIDs(ctx context.Context, q database.Querier, ids []int64) ([]models.Opcion, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := q.QueryContext(ctx, queryOpcionesPorIDs, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get opciones: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]models.Opcion, len(ids))
	for rows.Next() {
		opcion, err := scanOpcion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan opcion: %w", err)
		}
		byID[opcion.ID] = *opcion
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// mismo id repetido cuenta dos veces: "extra BBQ" dos veces son dos porciones
	opciones := make([]models.Opcion, 0, len(ids))
	for _, id := range ids {
		if o, ok := byID[id]; ok {
			opciones = append(opciones, o)
		}
	}
	return opciones, nil
}

func (r *opcionRepository) PorValor(ctx context.Context, q database.Querier, valor string) (*models.Opcion, error) {
	opcion, err := scanOpcion(q.QueryRowContext(ctx, queryOpcionPorValor, models.NormalizarToken(valor)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get opcion %q: %w", valor, err)
	}
	return opcion, nil
}

func scanOpcion(row rowScanner) (*models.Opcion, error) {
	var (
		o        models.Opcion
		insumoID sql.NullInt64
	)
	err := row.Scan(&o.ID, &o.Grupo, &o.Valor, &o.PrecioAdicional, &insumoID, &o.CantidadInsumo, &o.UnidadInsumo)
	if err != nil {
		return nil, err
	}
	if insumoID.Valid {
		id := insumoID.Int64
		o.InsumoID = &id
	}
	return &o, nil
}
