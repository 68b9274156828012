package services

import (
	"context"
	"sort"
	"strings"

	"github.com/Angalets/olimpollo-backend/internal/apperror"
	"github.com/Angalets/olimpollo-backend/internal/database"
	"github.com/Angalets/olimpollo-backend/internal/events"
	"github.com/Angalets/olimpollo-backend/internal/metrics"
	"github.com/Angalets/olimpollo-backend/internal/models"
	"github.com/Angalets/olimpollo-backend/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CompraService registra compras y recalcula el costo promedio ponderado
type CompraService interface {
	RegistrarCompra(ctx context.Context, req *models.RegistrarCompraRequest) (*models.RegistrarCompraResponse, error)
}

type compraService struct {
	store   database.Transactor
	compras repository.CompraRepository
	insumos repository.InsumoRepository
	events  events.Publisher
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewCompraService(
	store database.Transactor,
	compras repository.CompraRepository,
	insumos repository.InsumoRepository,
	publisher events.Publisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) CompraService {
	return &compraService{
		store:   store,
		compras: compras,
		insumos: insumos,
		events:  publisher,
		metrics: m,
		logger:  logger,
	}
}

// RegistrarCompra bloquea los insumos involucrados, guarda la compra y sus líneas,
// y aplica cada línea en orden sobre cantidad y costo_promedio.
func (s *compraService) RegistrarCompra(ctx context.Context, req *models.RegistrarCompraRequest) (*models.RegistrarCompraResponse, error) {
	proveedor := strings.TrimSpace(req.Proveedor)
	if proveedor == "" {
		proveedor = models.ProveedorGeneral
	}

	logger := s.logger.With(
		zap.String("operation", "registrar_compra"),
		zap.String("proveedor", proveedor),
		zap.Int("items", len(req.Items)),
	)

	if len(req.Items) == 0 {
		return nil, apperror.Validation("La compra debe tener al menos un insumo")
	}

	items := make([]models.CompraItem, 0, len(req.Items))
	vistos := make(map[int64]bool, len(req.Items))
	ids := make([]int64, 0, len(req.Items))
	suma := decimal.Zero
	for i, it := range req.Items {
		if it.InsumoID <= 0 {
			return nil, apperror.Validation("La línea %d no tiene insumo", i+1)
		}
		if !it.Cantidad.IsPositive() {
			return nil, apperror.Validation("La cantidad del insumo %d debe ser mayor a cero", it.InsumoID)
		}
		if it.CostoUnitario.IsNegative() {
			return nil, apperror.Validation("El costo del insumo %d no puede ser negativo", it.InsumoID)
		}

		item := models.CompraItem{
			InsumoID:         it.InsumoID,
			CantidadComprada: it.Cantidad,
			CostoUnitario:    it.CostoUnitario,
			Subtotal:         it.Cantidad.Mul(it.CostoUnitario),
		}
		suma = suma.Add(item.Subtotal)
		items = append(items, item)

		if !vistos[it.InsumoID] {
			vistos[it.InsumoID] = true
			ids = append(ids, it.InsumoID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	compra := &models.Compra{
		Proveedor:   proveedor,
		TotalCompra: suma,
		Items:       items,
	}
	if req.TotalCompra != nil {
		compra.TotalCompra = *req.TotalCompra
	}

	var costos map[int64]*models.CostoInsumo
	err := s.store.WithTx(ctx, "registrar_compra", func(q database.Querier) error {
		var err error
		costos, err = s.insumos.BloquearCostos(ctx, q, ids)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if _, ok := costos[id]; !ok {
				return apperror.NotFound("Insumo %d no encontrado", id)
			}
		}

		if err := s.compras.Insert(ctx, q, compra); err != nil {
			return err
		}

		for i := range compra.Items {
			item := &compra.Items[i]
			item.CompraID = compra.ID
			if err := s.compras.InsertItem(ctx, q, item); err != nil {
				return err
			}

			c := costos[item.InsumoID]
			c.Cantidad, c.CostoPromedio = models.CostoPromedioPonderado(
				c.Cantidad, c.CostoPromedio, item.CantidadComprada, item.CostoUnitario,
			)
		}

		for _, id := range ids {
			if err := s.insumos.ActualizarCosto(ctx, q, costos[id]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if apperror.Is(err, apperror.KindTransaction) {
			s.metrics.TransaccionFallida("registrar_compra")
		}
		logger.Error("❌ Error registrando compra", zap.Error(err))
		return nil, err
	}

	resp := &models.RegistrarCompraResponse{
		ID:      compra.ID,
		Mensaje: "Compra registrada",
		Total:   compra.TotalCompra,
		Insumos: make([]models.CostoActualizado, 0, len(ids)),
	}
	for _, id := range ids {
		c := costos[id]
		resp.Insumos = append(resp.Insumos, models.CostoActualizado{
			InsumoID:      id,
			Cantidad:      c.Cantidad,
			CostoPromedio: c.CostoPromedio,
		})
	}

	logger.Info("✅ Compra registrada",
		zap.Int64("compra_id", compra.ID),
		zap.String("total", compra.TotalCompra.StringFixed(2)))

	s.metrics.CompraRegistrada()
	s.events.Publish(events.CompraRegistrada, resp)
	return resp, nil
}
