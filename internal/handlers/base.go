package handlers

import (
	"net/http"
	"reflect"
	"strconv"

	"github.com/Angalets/olimpollo-backend/internal/apperror"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// baseHandler campos y helpers compartidos por todos los handlers
type baseHandler struct {
	validator *validator.Validate
	logger    *zap.Logger
}

func newBaseHandler(logger *zap.Logger) baseHandler {
	return baseHandler{
		validator: newValidator(),
		logger:    logger,
	}
}

// newValidator registra decimal.Decimal como float64 para que gt/gte funcionen con montos
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// logDebug logs solo en modo debug
func (h *baseHandler) logDebug(msg string, fields ...zap.Field) {
	h.logger.Debug("🔍 [DEBUG] "+msg, fields...)
}

// logInfo logs en todos los modos
func (h *baseHandler) logInfo(msg string, fields ...zap.Field) {
	h.logger.Info("ℹ️ "+msg, fields...)
}

// logError logs errores en todos los modos
func (h *baseHandler) logError(msg string, fields ...zap.Field) {
	h.logger.Error("❌ "+msg, fields...)
}

// logSuccess logs de éxito en todos los modos
func (h *baseHandler) logSuccess(msg string, fields ...zap.Field) {
	h.logger.Info("✅ "+msg, fields...)
}

// bindJSON decodifica y valida el body. Si falla ya respondió 400.
func (h *baseHandler) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.logError("Error binding JSON", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "❌ Error en el formato de datos",
			"error":   err.Error(),
		})
		return false
	}

	if err := h.validator.Struct(req); err != nil {
		h.logError("Validation error", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "❌ Datos de entrada inválidos",
			"error":   err.Error(),
		})
		return false
	}

	h.logDebug("Validación exitosa")
	return true
}

// parseID lee un parámetro numérico de la ruta. Si falla ya respondió 400.
func (h *baseHandler) parseID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		h.logError("Error parsing ID", zap.String("param", param), zap.String("value", c.Param(param)))
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "❌ ID inválido",
			"error":   "El ID debe ser un número válido",
		})
		return 0, false
	}
	return id, true
}

// respondError traduce el tipo de error al status HTTP
func (h *baseHandler) respondError(c *gin.Context, logger *zap.Logger, msg string, err error) {
	status := apperror.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error("❌ "+msg, zap.Error(err))
	} else {
		logger.Warn("⚠️ "+msg, zap.Int("status", status), zap.Error(err))
	}

	c.JSON(status, gin.H{
		"success": false,
		"message": "❌ " + msg,
		"error":   err.Error(),
	})
}

func respondOK(c *gin.Context, status int, msg string, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"message": "✅ " + msg,
		"data":    data,
	})
}
