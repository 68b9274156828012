package handlers

import (
	"net/http"

	"github.com/Angalets/olimpollo-backend/internal/models"
	"github.com/Angalets/olimpollo-backend/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CorteHandler corte de caja
type CorteHandler struct {
	baseHandler
	corteService services.CorteService
}

func NewCorteHandler(corteService services.CorteService, logger *zap.Logger) *CorteHandler {
	return &CorteHandler{
		baseHandler:  newBaseHandler(logger),
		corteService: corteService,
	}
}

// Preview totales esperados por método de pago desde el último corte
func (h *CorteHandler) Preview(c *gin.Context) {
	logger := h.logger.With(zap.String("handler", "preview_corte"))

	preview, err := h.corteService.Preview(c.Request.Context())
	if err != nil {
		h.respondError(c, logger, "Error calculando corte", err)
		return
	}

	logger.Info("Preview de corte calculado",
		zap.Int("pedidos", preview.Pedidos),
		zap.String("total", preview.Esperado.Total().String()))

	respondOK(c, http.StatusOK, "Totales esperados", preview)
}

// RegistrarCorte guarda el corte con lo contado en caja
func (h *CorteHandler) RegistrarCorte(c *gin.Context) {
	var req models.CorteRequest
	if !h.bindJSON(c, &req) {
		return
	}

	logger := h.logger.With(zap.String("handler", "registrar_corte"), zap.String("usuario", req.Usuario))

	response, err := h.corteService.RegistrarCorte(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, logger, "Error registrando corte", err)
		return
	}

	h.logSuccess("Corte registrado",
		zap.Int64("corte_id", response.ID),
		zap.String("diferencia", response.Diferencia.String()))

	respondOK(c, http.StatusCreated, "Corte registrado", response)
}
