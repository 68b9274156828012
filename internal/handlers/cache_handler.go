package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// OpcionCacheAdmin lo que expone el caché de modificadores para administración
type OpcionCacheAdmin interface {
	Stats() map[string]interface{}
	InvalidateAll(ctx context.Context) error
}

// CacheHandler administración del caché de opciones
type CacheHandler struct {
	baseHandler
	opcionCache OpcionCacheAdmin
}

func NewCacheHandler(opcionCache OpcionCacheAdmin, logger *zap.Logger) *CacheHandler {
	return &CacheHandler{
		baseHandler: newBaseHandler(logger),
		opcionCache: opcionCache,
	}
}

// GetCacheStats obtiene estadísticas del caché
func (h *CacheHandler) GetCacheStats(c *gin.Context) {
	respondOK(c, http.StatusOK, "Estadísticas del caché", h.opcionCache.Stats())
}

// InvalidateOpciones vacía el caché después de editar opciones del menú directo en la base
func (h *CacheHandler) InvalidateOpciones(c *gin.Context) {
	logger := h.logger.With(zap.String("handler", "invalidate_opciones"))

	if err := h.opcionCache.InvalidateAll(c.Request.Context()); err != nil {
		h.respondError(c, logger, "Error invalidando caché", err)
		return
	}

	logger.Info("Caché de opciones invalidado")

	respondOK(c, http.StatusOK, "Caché de opciones invalidado", gin.H{
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
