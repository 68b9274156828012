package handlers

import (
	"net/http"
	"time"

	"github.com/Angalets/olimpollo-backend/internal/models"
	"github.com/Angalets/olimpollo-backend/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CompraHandler entradas de inventario por compra a proveedor
type CompraHandler struct {
	baseHandler
	compraService services.CompraService
}

func NewCompraHandler(compraService services.CompraService, logger *zap.Logger) *CompraHandler {
	return &CompraHandler{
		baseHandler:   newBaseHandler(logger),
		compraService: compraService,
	}
}

// RegistrarCompra suma stock y recalcula el costo promedio de cada insumo comprado
func (h *CompraHandler) RegistrarCompra(c *gin.Context) {
	start := time.Now()

	var req models.RegistrarCompraRequest
	if !h.bindJSON(c, &req) {
		return
	}

	logger := h.logger.With(
		zap.String("handler", "registrar_compra"),
		zap.String("proveedor", req.Proveedor),
		zap.Int("items", len(req.Items)),
	)

	response, err := h.compraService.RegistrarCompra(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, logger, "Error registrando compra", err)
		return
	}

	for _, insumo := range response.Insumos {
		h.logDebug("Costo actualizado",
			zap.Int64("insumo_id", insumo.InsumoID),
			zap.String("cantidad", insumo.Cantidad.String()),
			zap.String("costo_promedio", insumo.CostoPromedio.String()))
	}

	h.logSuccess("Compra registrada",
		zap.Int64("compra_id", response.ID),
		zap.Duration("latency", time.Since(start)))

	respondOK(c, http.StatusCreated, "Compra registrada", response)
}
