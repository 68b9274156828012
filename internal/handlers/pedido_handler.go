package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/Angalets/olimpollo-backend/internal/models"
	"github.com/Angalets/olimpollo-backend/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const formatoFecha = "2006-01-02"

// PedidoHandler maneja las peticiones HTTP del ledger de pedidos
type PedidoHandler struct {
	baseHandler
	pedidoService services.PedidoService
}

// NewPedidoHandler crea una nueva instancia del handler
func NewPedidoHandler(pedidoService services.PedidoService, logger *zap.Logger) *PedidoHandler {
	return &PedidoHandler{
		baseHandler:   newBaseHandler(logger),
		pedidoService: pedidoService,
	}
}

// CrearPedido registra un pedido nuevo con sus líneas
func (h *PedidoHandler) CrearPedido(c *gin.Context) {
	start := time.Now()

	var req models.CrearPedidoRequest
	if !h.bindJSON(c, &req) {
		return
	}

	logger := h.logger.With(
		zap.String("handler", "crear_pedido"),
		zap.String("canal_venta", req.CanalVenta),
		zap.Int("items", len(req.Items)),
	)

	for i, item := range req.Items {
		h.logDebug("Item en request",
			zap.Int("index", i),
			zap.String("nombre_producto", item.NombreProducto),
			zap.Int("cantidad", item.Cantidad),
			zap.Int64s("opcion_ids", item.OpcionIDs))
	}

	response, err := h.pedidoService.CrearPedido(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, logger, "Error creando pedido", err)
		return
	}

	h.logSuccess("Pedido creado",
		zap.Int64("pedido_id", response.ID),
		zap.String("total", response.Total),
		zap.Duration("latency", time.Since(start)))

	respondOK(c, http.StatusCreated, "Pedido registrado", response)
}

// ListarPedidos aplica los filtros de canal, estado y rango de fechas
func (h *PedidoHandler) ListarPedidos(c *gin.Context) {
	logger := h.logger.With(zap.String("handler", "listar_pedidos"))

	filter := models.PedidoFilter{}

	if canal := strings.TrimSpace(c.Query("canal")); canal != "" {
		filter.Canal = &canal
	}

	if estadoStr := c.Query("estado"); estadoStr != "" {
		estado, ok := models.ParseEstadoPedido(estadoStr)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "❌ Estado inválido",
				"error":   "El estado debe ser Pendiente o Entregado",
			})
			return
		}
		filter.Estado = &estado
	}

	// Parsear fechas
	for _, f := range []struct {
		param string
		dest  **time.Time
	}{
		{"fechaInicio", &filter.FechaInicio},
		{"fechaFin", &filter.FechaFin},
	} {
		valor := c.Query(f.param)
		if valor == "" {
			continue
		}
		fecha, err := time.Parse(formatoFecha, valor)
		if err != nil {
			logger.Warn("⚠️ Fecha inválida", zap.String("param", f.param), zap.String("value", valor))
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "❌ Fecha inválida",
				"error":   "El formato de fecha es " + formatoFecha,
			})
			return
		}
		*f.dest = &fecha
	}

	logger.Info("Obteniendo pedidos", zap.Any("filtros", filter))

	pedidos, err := h.pedidoService.ListarPedidos(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, logger, "Error obteniendo pedidos", err)
		return
	}

	logger.Info("Pedidos obtenidos exitosamente", zap.Int("total", len(pedidos)))

	respondOK(c, http.StatusOK, "Pedidos obtenidos correctamente", gin.H{
		"pedidos": pedidos,
		"total":   len(pedidos),
		"filtros": filter,
	})
}

// CambiarEstado mueve un pedido entre Pendiente y Entregado
func (h *PedidoHandler) CambiarEstado(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	var req models.CambiarEstadoRequest
	if !h.bindJSON(c, &req) {
		return
	}

	logger := h.logger.With(
		zap.String("handler", "cambiar_estado"),
		zap.Int64("pedido_id", id),
		zap.String("estado", req.Estado),
	)

	resultado, err := h.pedidoService.CambiarEstado(c.Request.Context(), id, req.Estado)
	if err != nil {
		h.respondError(c, logger, "Error cambiando estado del pedido", err)
		return
	}

	for _, alerta := range resultado.Alertas {
		logger.Warn("⚠️ Insumo bajo mínimo",
			zap.Int64("insumo_id", alerta.InsumoID),
			zap.String("estado", string(alerta.Estado)))
	}

	logger.Info("Estado actualizado",
		zap.String("estado_anterior", string(resultado.EstadoAnterior)),
		zap.Int("descuentos", len(resultado.Descuentos)))

	respondOK(c, http.StatusOK, "Estado actualizado", resultado)
}

// EliminarPedido cancela un pedido borrándolo
func (h *PedidoHandler) EliminarPedido(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	logger := h.logger.With(zap.String("handler", "eliminar_pedido"), zap.Int64("pedido_id", id))

	if err := h.pedidoService.EliminarPedido(c.Request.Context(), id); err != nil {
		h.respondError(c, logger, "Error eliminando pedido", err)
		return
	}

	logger.Info("Pedido eliminado")
	respondOK(c, http.StatusOK, "Pedido eliminado", gin.H{"id": id})
}

// GetCliente busca un cliente del CRM por teléfono
func (h *PedidoHandler) GetCliente(c *gin.Context) {
	telefono := strings.TrimSpace(c.Param("telefono"))
	logger := h.logger.With(zap.String("handler", "get_cliente"), zap.String("telefono", telefono))

	cliente, err := h.pedidoService.GetCliente(c.Request.Context(), telefono)
	if err != nil {
		h.respondError(c, logger, "Error obteniendo cliente", err)
		return
	}

	respondOK(c, http.StatusOK, "Cliente encontrado", cliente)
}
