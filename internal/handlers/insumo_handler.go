package handlers

import (
	"net/http"
	"strings"

	"github.com/Angalets/olimpollo-backend/internal/models"
	"github.com/Angalets/olimpollo-backend/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InsumoHandler catálogo de insumos y recetas
type InsumoHandler struct {
	baseHandler
	insumoService services.InsumoService
	recetaService services.RecetaService
}

func NewInsumoHandler(insumoService services.InsumoService, recetaService services.RecetaService, logger *zap.Logger) *InsumoHandler {
	return &InsumoHandler{
		baseHandler:   newBaseHandler(logger),
		insumoService: insumoService,
		recetaService: recetaService,
	}
}

// ListarInsumos filtra por categoría y por estado derivado del stock
func (h *InsumoHandler) ListarInsumos(c *gin.Context) {
	logger := h.logger.With(zap.String("handler", "listar_insumos"))

	filter := models.InsumoFilter{}
	if categoria := strings.TrimSpace(c.Query("categoria")); categoria != "" {
		filter.Categoria = &categoria
	}
	if estadoStr := c.Query("estado"); estadoStr != "" {
		estado, ok := models.ParseEstadoInsumo(estadoStr)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "❌ Estado inválido",
				"error":   "Estado de insumo desconocido: " + estadoStr,
			})
			return
		}
		filter.Estado = &estado
	}

	insumos, err := h.insumoService.ListarInsumos(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, logger, "Error obteniendo insumos", err)
		return
	}

	logger.Info("Insumos obtenidos exitosamente", zap.Int("total", len(insumos)))

	respondOK(c, http.StatusOK, "Insumos obtenidos correctamente", gin.H{
		"insumos": insumos,
		"total":   len(insumos),
		"filtros": filter,
	})
}

func (h *InsumoHandler) CrearInsumo(c *gin.Context) {
	var req models.CrearInsumoRequest
	if !h.bindJSON(c, &req) {
		return
	}

	logger := h.logger.With(zap.String("handler", "crear_insumo"), zap.String("nombre", req.Nombre))

	insumo, err := h.insumoService.CrearInsumo(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, logger, "Error creando insumo", err)
		return
	}

	h.logSuccess("Insumo creado", zap.Int64("insumo_id", insumo.ID))
	respondOK(c, http.StatusCreated, "Insumo creado", insumo)
}

// EliminarInsumo responde 409 si una receta lo usa
func (h *InsumoHandler) EliminarInsumo(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	logger := h.logger.With(zap.String("handler", "eliminar_insumo"), zap.Int64("insumo_id", id))

	if err := h.insumoService.EliminarInsumo(c.Request.Context(), id); err != nil {
		h.respondError(c, logger, "No se pudo eliminar el insumo", err)
		return
	}

	logger.Info("Insumo eliminado")
	respondOK(c, http.StatusOK, "Insumo eliminado", gin.H{"id": id})
}

// ReemplazarReceta sustituye cabecera, ingredientes y producto ligado de una receta
func (h *InsumoHandler) ReemplazarReceta(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	var req models.ReemplazarRecetaRequest
	if !h.bindJSON(c, &req) {
		return
	}

	logger := h.logger.With(
		zap.String("handler", "reemplazar_receta"),
		zap.Int64("receta_id", id),
		zap.Int("ingredientes", len(req.Ingredientes)),
	)

	receta, err := h.recetaService.ReemplazarReceta(c.Request.Context(), id, &req)
	if err != nil {
		h.respondError(c, logger, "Error actualizando receta", err)
		return
	}

	h.logSuccess("Receta actualizada", zap.Int64("receta_id", receta.ID))
	respondOK(c, http.StatusOK, "Receta actualizada", receta)
}
