package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Angalets/olimpollo-backend/internal/database"
	"github.com/Angalets/olimpollo-backend/internal/models"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// PedidoRepository acceso a pedidos, sus líneas y el CRM de clientes
type PedidoRepository interface {
	Insert(ctx context.Context, q database.Querier, pedido *models.Pedido) error
	InsertItems(ctx context.Context, q database.Querier, pedidoID int64, items []models.PedidoItem) error
	UpsertCliente(ctx context.Context, q database.Querier, telefono, nombre string, total decimal.Decimal) error
	GetCliente(ctx context.Context, q database.Querier, telefono string) (*models.Cliente, error)

	List(ctx context.Context, q database.Querier, filter models.PedidoFilter) ([]*models.Pedido, error)
	Items(ctx context.Context, q database.Querier, pedidoID int64) ([]models.PedidoItem, error)

	// BloquearEstado lee el estado con FOR UPDATE; ok=false si el pedido no existe
	BloquearEstado(ctx context.Context, q database.Querier, id int64) (estado models.EstadoPedido, ok bool, err error)
	UpdateEstado(ctx context.Context, q database.Querier, id int64, estado models.EstadoPedido) error
	Delete(ctx context.Context, q database.Querier, id int64) (bool, error)

	// Barrido de pedidos Pendiente creados antes de limite
	PendientesVencidos(ctx context.Context, q database.Querier, limite time.Time) ([]int64, error)
	EntregarVencidos(ctx context.Context, q database.Querier, limite time.Time) (int64, error)
}

const (
	queryInsertPedido = `
		INSERT INTO pedidos (cliente, telefono, canal_venta, metodo_pago, estado, total, comision)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, fecha_creacion`

	queryInsertPedidoItem = `
		INSERT INTO pedido_items (pedido_id, menu_producto_id, nombre_producto, cantidad, precio_unitario, notas, opcion_ids, posicion)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	queryUpsertCliente = `
		INSERT INTO clientes (telefono, nombre, visitas, total_gastado, puntos, ultima_visita)
		VALUES ($1, $2, 1, $3, 1, NOW())
		ON CONFLICT (telefono) DO UPDATE SET
			visitas = clientes.visitas + 1,
			total_gastado = clientes.total_gastado + EXCLUDED.total_gastado,
			nombre = EXCLUDED.nombre,
			ultima_visita = NOW()`

	queryGetCliente = `
		SELECT id, telefono, nombre, visitas, total_gastado, puntos, ultima_visita
		FROM clientes WHERE telefono = $1`

	queryListPedidos = `
		SELECT p.id, p.cliente, COALESCE(p.telefono, ''), p.canal_venta, p.metodo_pago, p.estado,
			   p.total, p.comision, p.fecha_creacion,
			   COALESCE(json_agg(json_build_object(
				   'id', pi.id,
				   'pedido_id', pi.pedido_id,
				   'menu_producto_id', pi.menu_producto_id,
				   'nombre_producto', pi.nombre_producto,
				   'cantidad', pi.cantidad,
				   'precio_unitario', pi.precio_unitario,
				   'notas', pi.notas,
				   'opcion_ids', pi.opcion_ids
			   ) ORDER BY pi.posicion, pi.id) FILTER (WHERE pi.id IS NOT NULL), '[]') AS items
		FROM pedidos p
		LEFT JOIN pedido_items pi ON pi.pedido_id = p.id`

	queryPedidoItems = `
		SELECT id, pedido_id, menu_producto_id, nombre_producto, cantidad, precio_unitario,
			   COALESCE(notas, ''), opcion_ids
		FROM pedido_items
		WHERE pedido_id = $1
		ORDER BY posicion, id`

	queryBloquearPedido = `SELECT estado FROM pedidos WHERE id = $1 FOR UPDATE`

	queryUpdateEstadoPedido = `UPDATE pedidos SET estado = $1 WHERE id = $2`

	queryDeletePedido = `DELETE FROM pedidos WHERE id = $1`

	queryPendientesVencidos = `
		SELECT id FROM pedidos
		WHERE estado = 'Pendiente' AND fecha_creacion < $1
		ORDER BY id`

	queryEntregarVencidos = `
		UPDATE pedidos SET estado = 'Entregado'
		WHERE estado = 'Pendiente' AND fecha_creacion < $1`
)

// ErrProductoInexistente una línea del pedido apunta a un producto del menú que no existe
var ErrProductoInexistente = errors.New("producto inexistente")

type pedidoRepository struct {
	timeZone string
}

// NewPedidoRepository timeZone es la zona contra la que se filtran las fechas
func NewPedidoRepository(timeZone string) PedidoRepository {
	return &pedidoRepository{timeZone: timeZone}
}

// Insert crea el encabezado del pedido y rellena ID y FechaCreacion
func (r *pedidoRepository) Insert(ctx context.Context, q database.Querier, pedido *models.Pedido) error {
	err := q.QueryRowContext(ctx, queryInsertPedido,
		pedido.Cliente, pedido.Telefono, pedido.CanalVenta, pedido.MetodoPago,
		pedido.Estado, pedido.Total, pedido.Comision,
	).Scan(&pedido.ID, &pedido.FechaCreacion)
	if err != nil {
		return fmt.Errorf("failed to create pedido: %w", err)
	}
	return nil
}

// InsertItems inserta las líneas conservando su orden
func (r *pedidoRepository) InsertItems(ctx context.Context, q database.Querier, pedidoID int64, items []models.PedidoItem) error {
	for i := range items {
		item := &items[i]
		var opciones interface{}
		if len(item.OpcionIDs) > 0 {
			opciones = pq.Array(item.OpcionIDs)
		}

		err := q.QueryRowContext(ctx, queryInsertPedidoItem,
			pedidoID, item.MenuProductoID, item.NombreProducto, item.Cantidad,
			item.PrecioUnitario, item.Notas, opciones, i,
		).Scan(&item.ID)
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgForeignKeyViolation && item.MenuProductoID != nil {
			return fmt.Errorf("%w: %d", ErrProductoInexistente, *item.MenuProductoID)
		}
		if err != nil {
			return fmt.Errorf("failed to create pedido_item %d: %w", i, err)
		}
		item.PedidoID = pedidoID
	}
	return nil
}

// UpsertCliente registra la visita en una sola sentencia
func (r *pedidoRepository) UpsertCliente(ctx context.Context, q database.Querier, telefono, nombre string, total decimal.Decimal) error {
	if _, err := q.ExecContext(ctx, queryUpsertCliente, telefono, nombre, total); err != nil {
		return fmt.Errorf("failed to upsert cliente: %w", err)
	}
	return nil
}

// GetCliente busca un cliente por teléfono; nil si no existe
func (r *pedidoRepository) GetCliente(ctx context.Context, q database.Querier, telefono string) (*models.Cliente, error) {
	var c models.Cliente
	err := q.QueryRowContext(ctx, queryGetCliente, telefono).Scan(
		&c.ID, &c.Telefono, &c.Nombre, &c.Visitas, &c.TotalGastado, &c.Puntos, &c.UltimaVisita,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cliente: %w", err)
	}
	return &c, nil
}

// List pedidos con sus líneas, más recientes primero
func (r *pedidoRepository) List(ctx context.Context, q database.Querier, filter models.PedidoFilter) ([]*models.Pedido, error) {
	query, args := r.buildListQuery(filter)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pedidos: %w", err)
	}
	defer rows.Close()

	pedidos := []*models.Pedido{}
	for rows.Next() {
		var (
			p     models.Pedido
			items []byte
		)
		err := rows.Scan(
			&p.ID, &p.Cliente, &p.Telefono, &p.CanalVenta, &p.MetodoPago, &p.Estado,
			&p.Total, &p.Comision, &p.FechaCreacion, &items,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pedido: %w", err)
		}
		if err := json.Unmarshal(items, &p.Items); err != nil {
			return nil, fmt.Errorf("failed to decode items of pedido %d: %w", p.ID, err)
		}
		pedidos = append(pedidos, &p)
	}

	return pedidos, rows.Err()
}

func (r *pedidoRepository) buildListQuery(filter models.PedidoFilter) (string, []interface{}) {
	var (
		conditions []string
		args       []interface{}
	)

	if filter.Canal != nil && *filter.Canal != "" && *filter.Canal != models.CanalTodos {
		args = append(args, *filter.Canal)
		conditions = append(conditions, fmt.Sprintf("p.canal_venta = $%d", len(args)))
	}
	if filter.Estado != nil {
		args = append(args, string(*filter.Estado))
		conditions = append(conditions, fmt.Sprintf("p.estado = $%d", len(args)))
	}
	if filter.FechaInicio != nil || filter.FechaFin != nil {
		args = append(args, r.timeZone)
		tz := len(args)
		if filter.FechaInicio != nil {
			args = append(args, filter.FechaInicio.Format("2006-01-02"))
			conditions = append(conditions, fmt.Sprintf("(p.fecha_creacion AT TIME ZONE $%d)::date >= $%d::date", tz, len(args)))
		}
		if filter.FechaFin != nil {
			args = append(args, filter.FechaFin.Format("2006-01-02"))
			conditions = append(conditions, fmt.Sprintf("(p.fecha_creacion AT TIME ZONE $%d)::date <= $%d::date", tz, len(args)))
		}
	}

	query := queryListPedidos
	if len(conditions) > 0 {
		query += "\n\t\tWHERE " + strings.Join(conditions, " AND ")
	}
	query += "\n\t\tGROUP BY p.id\n\t\tORDER BY p.fecha_creacion DESC, p.id DESC"
	return query, args
}

// Items líneas de un pedido en orden de captura
func (r *pedidoRepository) Items(ctx context.Context, q database.Querier, pedidoID int64) ([]models.PedidoItem, error) {
	rows, err := q.QueryContext(ctx, queryPedidoItems, pedidoID)
	if err != nil {
		return nil, fmt.Errorf("failed to get items of pedido %d: %w", pedidoID, err)
	}
	defer rows.Close()

	var items []models.PedidoItem
	for rows.Next() {
		var (
			item       models.PedidoItem
			productoID sql.NullInt64
		)
		err := rows.Scan(
			&item.ID, &item.PedidoID, &productoID, &item.NombreProducto, &item.Cantidad,
			&item.PrecioUnitario, &item.Notas, pq.Array(&item.OpcionIDs),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pedido_item: %w", err)
		}
		if productoID.Valid {
			id := productoID.Int64
			item.MenuProductoID = &id
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (r *pedidoRepository) BloquearEstado(ctx context.Context, q database.Querier, id int64) (models.EstadoPedido, bool, error) {
	var estado string
	err := q.QueryRowContext(ctx, queryBloquearPedido, id).Scan(&estado)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to lock pedido %d: %w", id, err)
	}
	return models.EstadoPedido(estado), true, nil
}

func (r *pedidoRepository) UpdateEstado(ctx context.Context, q database.Querier, id int64, estado models.EstadoPedido) error {
	result, err := q.ExecContext(ctx, queryUpdateEstadoPedido, string(estado), id)
	if err != nil {
		return fmt.Errorf("failed to update estado: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no pedido record found for id %d", id)
	}
	return nil
}

// Delete borra el pedido; las líneas caen en cascada
func (r *pedidoRepository) Delete(ctx context.Context, q database.Querier, id int64) (bool, error) {
	result, err := q.ExecContext(ctx, queryDeletePedido, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete pedido: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

func (r *pedidoRepository) PendientesVencidos(ctx context.Context, q database.Querier, limite time.Time) ([]int64, error) {
	rows, err := q.QueryContext(ctx, queryPendientesVencidos, limite)
	if err != nil {
		return nil, fmt.Errorf("failed to get pedidos vencidos: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// EntregarVencidos marca como entregados sin descontar inventario (modo legado)
func (r *pedidoRepository) EntregarVencidos(ctx context.Context, q database.Querier, limite time.Time) (int64, error) {
	result, err := q.ExecContext(ctx, queryEntregarVencidos, limite)
	if err != nil {
		return 0, fmt.Errorf("failed to expire pedidos: %w", err)
	}
	return result.RowsAffected()
}
