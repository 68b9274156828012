package repository

import (
	"context"
	"fmt"

	"github.com/Angalets/olimpollo-backend/internal/database"
	"github.com/Angalets/olimpollo-backend/internal/models"
)

// CompraRepository ledger de compras
type CompraRepository interface {
	Insert(ctx context.Context, q database.Querier, compra *models.Compra) error
	InsertItem(ctx context.Context, q database.Querier, item *models.CompraItem) error
}

const (
	queryInsertCompra = `
		INSERT INTO compras (proveedor, total_compra)
		VALUES ($1, $2)
		RETURNING id, fecha_compra`

	queryInsertCompraItem = `
		INSERT INTO compra_items (compra_id, insumo_id, cantidad_comprada, costo_unitario, subtotal)
		VALUES ($1, $2, $3, $4, $5)`
)

type compraRepository struct{}

// NewCompraRepository crea una nueva instancia del repository
func NewCompraRepository() CompraRepository {
	return &compraRepository{}
}

func (r *compraRepository) Insert(ctx context.Context, q database.Querier, compra *models.Compra) error {
	err := q.QueryRowContext(ctx, queryInsertCompra, compra.Proveedor, compra.TotalCompra).
		Scan(&compra.ID, &compra.FechaCompra)
	if err != nil {
		return fmt.Errorf("failed to create compra: %w", err)
	}
	return nil
}

func (r *compraRepository) InsertItem(ctx context.Context, q database.Querier, item *models.CompraItem) error {
	_, err := q.ExecContext(ctx, queryInsertCompraItem,
		item.CompraID, item.InsumoID, item.CantidadComprada, item.CostoUnitario, item.Subtotal,
	)
	if err != nil {
		return fmt.Errorf("failed to create compra_item (insumo %d): %w", item.InsumoID, err)
	}
	return nil
}
