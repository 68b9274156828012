package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Angalets/olimpollo-backend/internal/apperror"
	"github.com/Angalets/olimpollo-backend/internal/config"
	"github.com/Angalets/olimpollo-backend/internal/database"
	"github.com/Angalets/olimpollo-backend/internal/events"
	"github.com/Angalets/olimpollo-backend/internal/metrics"
	"github.com/Angalets/olimpollo-backend/internal/models"
	"github.com/Angalets/olimpollo-backend/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Origen de una entrega, para métricas y logs
const (
	OrigenManual     = "manual"
	OrigenExpiracion = "expiracion"
)

// PedidoService define la interfaz del ledger de pedidos
type PedidoService interface {
	CrearPedido(ctx context.Context, req *models.CrearPedidoRequest) (*models.CrearPedidoResponse, error)
	ListarPedidos(ctx context.Context, filter models.PedidoFilter) ([]*models.Pedido, error)
	CambiarEstado(ctx context.Context, id int64, estado string) (*models.ResultadoTransicion, error)
	EliminarPedido(ctx context.Context, id int64) error

	// ExpirarPendientes entrega los pedidos Pendiente más viejos que la expiración configurada
	ExpirarPendientes(ctx context.Context) (int, error)

	// CRM
	GetCliente(ctx context.Context, telefono string) (*models.Cliente, error)
}

type pedidoService struct {
	store   database.Transactor
	repo    repository.PedidoRepository
	engine  *ConsumoEngine
	events  events.Publisher
	metrics *metrics.Metrics
	cfg     config.PedidosConfig
	now     func() time.Time
	logger  *zap.Logger
}

// NewPedidoService crea una nueva instancia del servicio
func NewPedidoService(
	store database.Transactor,
	repo repository.PedidoRepository,
	engine *ConsumoEngine,
	publisher events.Publisher,
	m *metrics.Metrics,
	cfg config.PedidosConfig,
	logger *zap.Logger,
) PedidoService {
	return &pedidoService{
		store:   store,
		repo:    repo,
		engine:  engine,
		events:  publisher,
		metrics: m,
		cfg:     cfg,
		now:     time.Now,
		logger:  logger,
	}
}

// CrearPedido valida, calcula total y comisión, y guarda encabezado, líneas y cliente en una transacción
func (s *pedidoService) CrearPedido(ctx context.Context, req *models.CrearPedidoRequest) (*models.CrearPedidoResponse, error) {
	logger := s.logger.With(
		zap.String("operation", "crear_pedido"),
		zap.String("canal_venta", req.CanalVenta),
		zap.Int("items", len(req.Items)),
	)

	pedido, err := s.construirPedido(req)
	if err != nil {
		logger.Warn("⚠️ Pedido rechazado", zap.Error(err))
		return nil, err
	}

	err = s.store.WithTx(ctx, "crear_pedido", func(q database.Querier) error {
		if pedido.Telefono != "" {
			if err := s.repo.UpsertCliente(ctx, q, pedido.Telefono, pedido.Cliente, pedido.Total); err != nil {
				return err
			}
		}
		if err := s.repo.Insert(ctx, q, pedido); err != nil {
			return err
		}
		err := s.repo.InsertItems(ctx, q, pedido.ID, pedido.Items)
		if errors.Is(err, repository.ErrProductoInexistente) {
			return apperror.NotFound("Producto del menú no encontrado (%v)", err)
		}
		return err
	})
	if err != nil {
		s.registrarFallo("crear_pedido", err)
		logger.Error("❌ Error creando pedido", zap.Error(err))
		return nil, err
	}

	logger.Info("✅ Pedido creado",
		zap.Int64("pedido_id", pedido.ID),
		zap.String("metodo_pago", pedido.MetodoPago),
		zap.String("total", pedido.Total.StringFixed(2)),
		zap.String("comision", pedido.Comision.StringFixed(2)))

	s.metrics.PedidoCreado(pedido.CanalVenta, pedido.MetodoPago, pedido.Comision)
	s.events.Publish(events.PedidoCreado, pedido)

	return &models.CrearPedidoResponse{
		ID:       pedido.ID,
		Mensaje:  "Pedido creado",
		Comision: pedido.Comision.StringFixed(2),
		Total:    pedido.Total.StringFixed(2),
	}, nil
}

func (s *pedidoService) construirPedido(req *models.CrearPedidoRequest) (*models.Pedido, error) {
	cliente := strings.TrimSpace(req.Cliente)
	if cliente == "" {
		return nil, apperror.Validation("El nombre del cliente es obligatorio")
	}
	if len(req.Items) == 0 {
		return nil, apperror.Validation("El pedido debe tener al menos un producto")
	}

	metodo := models.MetodoEfectivo
	if strings.TrimSpace(req.MetodoPago) != "" {
		m, err := models.ParseMetodoPago(req.MetodoPago)
		if err != nil {
			return nil, apperror.Validation("Método de pago no soportado: %q", req.MetodoPago)
		}
		metodo = m
	}

	canal := strings.TrimSpace(req.CanalVenta)
	if canal == "" {
		canal = models.CanalOyR
	}

	items := make([]models.PedidoItem, 0, len(req.Items))
	totalCalculado := decimal.Zero
	for i, it := range req.Items {
		nombre := strings.TrimSpace(it.NombreProducto)
		if nombre == "" {
			return nil, apperror.Validation("La línea %d no tiene nombre de producto", i+1)
		}
		if it.Cantidad <= 0 {
			return nil, apperror.Validation("La cantidad de %q debe ser mayor a cero", nombre)
		}
		if it.PrecioUnitario.IsNegative() {
			return nil, apperror.Validation("El precio de %q no puede ser negativo", nombre)
		}

		item := models.PedidoItem{
			MenuProductoID: it.MenuProductoID,
			NombreProducto: nombre,
			Cantidad:       it.Cantidad,
			PrecioUnitario: it.PrecioUnitario,
			Notas:          it.Notas,
			OpcionIDs:      it.OpcionIDs,
		}
		totalCalculado = totalCalculado.Add(item.Subtotal())
		items = append(items, item)
	}

	total := totalCalculado
	if req.TotalAjustado != nil {
		if req.TotalAjustado.IsNegative() {
			return nil, apperror.Validation("El total ajustado no puede ser negativo")
		}
		total = *req.TotalAjustado
	}

	return &models.Pedido{
		Cliente:    cliente,
		Telefono:   strings.TrimSpace(req.Telefono),
		CanalVenta: canal,
		MetodoPago: string(metodo),
		Estado:     models.EstadoPendiente,
		Total:      total,
		Comision:   models.CalcularComision(total, metodo),
		Items:      items,
	}, nil
}

// ListarPedidos corre el barrido de expiración y luego lista. El barrido nunca hace fallar el listado.
func (s *pedidoService) ListarPedidos(ctx context.Context, filter models.PedidoFilter) ([]*models.Pedido, error) {
	logger := s.logger.With(zap.String("operation", "listar_pedidos"))

	if _, err := s.ExpirarPendientes(ctx); err != nil {
		logger.Warn("⚠️ Barrido de expiración fallido, se lista de todos modos", zap.Error(err))
	}

	pedidos, err := s.repo.List(ctx, s.store, filter)
	if err != nil {
		logger.Error("❌ Error listando pedidos", zap.Error(err))
		return nil, err
	}

	logger.Debug("🔍 Pedidos listados", zap.Int("count", len(pedidos)))
	return pedidos, nil
}

func (s *pedidoService) ExpirarPendientes(ctx context.Context) (int, error) {
	limite := s.now().Add(-s.cfg.Expiry)
	logger := s.logger.With(
		zap.String("operation", "expirar_pendientes"),
		zap.Time("limite", limite),
	)

	if !s.cfg.ExpiryConsumesStock {
		n, err := s.repo.EntregarVencidos(ctx, s.store, limite)
		if err != nil {
			return 0, err
		}
		for i := int64(0); i < n; i++ {
			s.metrics.PedidoEntregado(OrigenExpiracion)
		}
		if n > 0 {
			logger.Info("✅ Pedidos vencidos entregados sin descontar inventario", zap.Int64("count", n))
		}
		return int(n), nil
	}

	ids, err := s.repo.PendientesVencidos(ctx, s.store, limite)
	if err != nil {
		return 0, err
	}

	entregados := 0
	for _, id := range ids {
		resultado, err := s.transicionar(ctx, id, models.EstadoEntregado, OrigenExpiracion)
		if err != nil {
			// se queda Pendiente y se reintenta en el siguiente barrido
			logger.Warn("⚠️ No se pudo expirar el pedido", zap.Int64("pedido_id", id), zap.Error(err))
			continue
		}
		if resultado.EstadoAnterior != resultado.Estado {
			entregados++
		}
	}

	if entregados > 0 {
		logger.Info("✅ Pedidos vencidos entregados", zap.Int("count", entregados))
	}
	return entregados, nil
}

// CambiarEstado transición manual de un pedido
func (s *pedidoService) CambiarEstado(ctx context.Context, id int64, estado string) (*models.ResultadoTransicion, error) {
	nuevo, ok := models.ParseEstadoPedido(estado)
	if !ok {
		return nil, apperror.Validation("Estado no válido: %q", estado)
	}
	return s.transicionar(ctx, id, nuevo, OrigenManual)
}

// transicionar bloquea el pedido, descuenta inventario si pasa a Entregado y actualiza el estado,
// todo en una transacción. Reenviar el estado actual no hace nada.
func (s *pedidoService) transicionar(ctx context.Context, id int64, nuevo models.EstadoPedido, origen string) (*models.ResultadoTransicion, error) {
	logger := s.logger.With(
		zap.String("operation", "transicion_pedido"),
		zap.Int64("pedido_id", id),
		zap.String("estado", string(nuevo)),
		zap.String("origen", origen),
	)

	var resultado *models.ResultadoTransicion
	err := s.store.WithTx(ctx, "transicion_pedido", func(q database.Querier) error {
		actual, ok, err := s.repo.BloquearEstado(ctx, q, id)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.NotFound("Pedido %d no encontrado", id)
		}

		resultado = &models.ResultadoTransicion{
			PedidoID:       id,
			EstadoAnterior: actual,
			Estado:         nuevo,
			Descuentos:     []models.ConsumoInsumo{},
			Alertas:        []models.AlertaStock{},
		}

		switch {
		case actual == nuevo:
			return nil
		case actual == models.EstadoEntregado && nuevo == models.EstadoPendiente:
			return apperror.Conflict(nil, "El pedido %d ya fue entregado; el inventario no se revierte", id)
		}

		items, err := s.repo.Items(ctx, q, id)
		if err != nil {
			return err
		}
		descuentos, alertas, err := s.engine.Consumir(ctx, q, items)
		if err != nil {
			return err
		}
		resultado.Descuentos = descuentos
		resultado.Alertas = alertas

		return s.repo.UpdateEstado(ctx, q, id, nuevo)
	})
	if err != nil {
		s.registrarFallo("transicion_pedido", err)
		logger.Error("❌ Error en transición de pedido", zap.Error(err))
		return nil, err
	}

	if resultado.EstadoAnterior == resultado.Estado {
		logger.Debug("🔍 El pedido ya estaba en ese estado")
		return resultado, nil
	}

	logger.Info("✅ Pedido entregado",
		zap.Int("insumos_descontados", len(resultado.Descuentos)),
		zap.Int("alertas", len(resultado.Alertas)))

	s.metrics.PedidoEntregado(origen)
	s.events.Publish(events.PedidoEntregado, resultado)
	for _, alerta := range resultado.Alertas {
		logger.Warn("⚠️ Insumo bajo mínimo",
			zap.Int64("insumo_id", alerta.InsumoID),
			zap.String("nombre", alerta.Nombre),
			zap.String("cantidad", alerta.Cantidad.String()),
			zap.String("estado", string(alerta.Estado)))
		s.metrics.AlertaStock(string(alerta.Estado))
		s.events.Publish(events.AlertaStock, alerta)
	}

	return resultado, nil
}

// EliminarPedido borra el pedido y sus líneas; el inventario ya descontado no se devuelve
func (s *pedidoService) EliminarPedido(ctx context.Context, id int64) error {
	logger := s.logger.With(zap.String("operation", "eliminar_pedido"), zap.Int64("pedido_id", id))

	ok, err := s.repo.Delete(ctx, s.store, id)
	if err != nil {
		logger.Error("❌ Error eliminando pedido", zap.Error(err))
		return err
	}
	if !ok {
		return apperror.NotFound("Pedido %d no encontrado", id)
	}

	logger.Info("✅ Pedido eliminado")
	s.events.Publish(events.PedidoEliminado, map[string]int64{"pedido_id": id})
	return nil
}

func (s *pedidoService) GetCliente(ctx context.Context, telefono string) (*models.Cliente, error) {
	telefono = strings.TrimSpace(telefono)
	if telefono == "" {
		return nil, apperror.Validation("El teléfono es obligatorio")
	}

	cliente, err := s.repo.GetCliente(ctx, s.store, telefono)
	if err != nil {
		return nil, err
	}
	if cliente == nil {
		return nil, apperror.NotFound("Cliente %s no encontrado", telefono)
	}
	return cliente, nil
}

func (s *pedidoService) registrarFallo(op string, err error) {
	if apperror.Is(err, apperror.KindTransaction) {
		s.metrics.TransaccionFallida(op)
	}
}
