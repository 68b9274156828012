package services

import (
	"context"
	"sort"

	"github.com/Angalets/olimpollo-backend/internal/apperror"
	"github.com/Angalets/olimpollo-backend/internal/cache"
	"github.com/Angalets/olimpollo-backend/internal/database"
	"github.com/Angalets/olimpollo-backend/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RecetaIndex líneas de receta del producto vendido
type RecetaIndex interface {
	LineasPorProducto(ctx context.Context, q database.Querier, productoID int64) ([]models.RecetaInsumo, error)
}

// OpcionIndex resolución de modificadores por id o por token de texto
type OpcionIndex interface {
	PorIDs(ctx context.Context, q database.Querier, ids []int64) ([]models.Opcion, error)
	PorValor(ctx context.Context, q database.Querier, valor string) (*models.Opcion, error)
}

// StockWriter descuento atómico de inventario
type StockWriter interface {
	Descontar(ctx context.Context, q database.Querier, id int64, cantidad decimal.Decimal) (*models.Insumo, error)
}

// ConsumoEngine calcula y aplica el consumo de inventario de un pedido entregado.
// Siempre corre dentro de la transacción de la transición.
type ConsumoEngine struct {
	recetas  RecetaIndex
	opciones OpcionIndex
	stock    StockWriter
	logger   *zap.Logger
}

func NewConsumoEngine(recetas RecetaIndex, opciones OpcionIndex, stock StockWriter, logger *zap.Logger) *ConsumoEngine {
	return &ConsumoEngine{
		recetas:  recetas,
		opciones: opciones,
		stock:    stock,
		logger:   logger,
	}
}

// ResolverLinea consumo de una línea: receta × cantidad más cada modificador con insumo × cantidad
func (e *ConsumoEngine) ResolverLinea(ctx context.Context, q database.Querier, item models.PedidoItem) ([]models.ConsumoInsumo, error) {
	logger := e.logger.With(
		zap.Int64("pedido_item_id", item.ID),
		zap.String("nombre_producto", item.NombreProducto),
		zap.Int("cantidad", item.Cantidad),
	)
	unidades := decimal.NewFromInt(int64(item.Cantidad))

	var consumos []models.ConsumoInsumo

	if item.MenuProductoID != nil {
		lineas, err := e.recetas.LineasPorProducto(ctx, q, *item.MenuProductoID)
		if err != nil {
			return nil, err
		}
		for _, l := range lineas {
			consumos = append(consumos, models.ConsumoInsumo{
				InsumoID: l.InsumoID,
				Cantidad: l.CantidadNecesaria.Mul(unidades),
				Origen:   models.OrigenReceta,
			})
		}
	}

	opciones, err := e.resolverOpciones(ctx, q, item, logger)
	if err != nil {
		return nil, err
	}
	for _, o := range opciones {
		if !o.ConsumeInsumo() {
			logger.Debug("🔍 Modificador sin insumo", zap.String("valor", o.Valor))
			continue
		}
		consumos = append(consumos, models.ConsumoInsumo{
			InsumoID: *o.InsumoID,
			Cantidad: o.CantidadInsumo.Mul(unidades),
			Origen:   models.OrigenModificador,
		})
	}

	return consumos, nil
}

// resolverOpciones usa las opciones elegidas al crear la línea; si no hay, interpreta
// los tokens entre paréntesis del nombre (pedidos capturados antes de opcion_ids)
func (e *ConsumoEngine) resolverOpciones(ctx context.Context, q database.Querier, item models.PedidoItem, logger *zap.Logger) ([]models.Opcion, error) {
	if len(item.OpcionIDs) > 0 {
		return e.opciones.PorIDs(ctx, q, item.OpcionIDs)
	}

	var opciones []models.Opcion
	for _, token := range models.ParseModificadores(item.NombreProducto) {
		opcion, err := e.opciones.PorValor(ctx, q, token)
		if err != nil {
			return nil, err
		}
		if opcion == nil {
			logger.Debug("🔍 Token sin modificador", zap.String("token", token))
			continue
		}
		opciones = append(opciones, *opcion)
	}
	return opciones, nil
}

// Consumir resuelve todas las líneas, agrupa por insumo y descuenta en orden de id
// para que transiciones concurrentes tomen los bloqueos de fila en el mismo orden.
func (e *ConsumoEngine) Consumir(ctx context.Context, q database.Querier, items []models.PedidoItem) ([]models.ConsumoInsumo, []models.AlertaStock, error) {
	totales := make(map[int64]decimal.Decimal)
	for _, item := range items {
		consumos, err := e.ResolverLinea(ctx, q, item)
		if err != nil {
			return nil, nil, err
		}
		for _, c := range consumos {
			totales[c.InsumoID] = totales[c.InsumoID].Add(c.Cantidad)
		}
	}

	ids := make([]int64, 0, len(totales))
	for id := range totales {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	descuentos := make([]models.ConsumoInsumo, 0, len(ids))
	alertas := []models.AlertaStock{}
	for _, id := range ids {
		cantidad := totales[id]
		if cantidad.IsZero() {
			continue
		}

		insumo, err := e.stock.Descontar(ctx, q, id, cantidad)
		if err != nil {
			return nil, nil, err
		}
		if insumo == nil {
			return nil, nil, apperror.NotFound("insumo %d no existe", id)
		}

		descuentos = append(descuentos, models.ConsumoInsumo{InsumoID: id, Cantidad: cantidad})
		if insumo.Estado != models.EstadoEnStock {
			alertas = append(alertas, models.AlertaStock{
				InsumoID:    insumo.ID,
				Nombre:      insumo.Nombre,
				Cantidad:    insumo.Cantidad,
				StockMinimo: insumo.StockMinimo,
				Estado:      insumo.Estado,
			})
		}
	}

	return descuentos, alertas, nil
}

// cachedOpcionIndex consulta el caché de tokens antes de ir a menu_opciones.
// La búsqueda por id no se cachea.
type cachedOpcionIndex struct {
	base   OpcionIndex
	cache  *cache.OpcionCache
	logger *zap.Logger
}

// NewCachedOpcionIndex envuelve el índice con el caché L1/L2
func NewCachedOpcionIndex(base OpcionIndex, c *cache.OpcionCache, logger *zap.Logger) OpcionIndex {
	return &cachedOpcionIndex{base: base, cache: c, logger: logger}
}

func (c *cachedOpcionIndex) PorIDs(ctx context.Context, q database.Querier, ids []int64) ([]models.Opcion, error) {
	return c.base.PorIDs(ctx, q, ids)
}

func (c *cachedOpcionIndex) PorValor(ctx context.Context, q database.Querier, valor string) (*models.Opcion, error) {
	if opcion, hit := c.cache.Get(ctx, valor); hit {
		return opcion, nil
	}

	opcion, err := c.base.PorValor(ctx, q, valor)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, valor, opcion); err != nil {
		c.logger.Warn("⚠️ No se pudo cachear la opción", zap.String("valor", valor), zap.Error(err))
	}
	return opcion, nil
}
