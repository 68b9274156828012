package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PostgresChecker lo que el health check necesita de PostgreSQL
type PostgresChecker interface {
	Ping(ctx context.Context) error
	GetStats() sql.DBStats
}

// RedisChecker lo que el health check necesita de Redis
type RedisChecker interface {
	Ping(ctx context.Context) error
	GetStats(ctx context.Context) (map[string]string, error)
}

type HealthChecker struct {
	postgresDB PostgresChecker
	redisDB    RedisChecker
	logger     *zap.Logger
}

// NewHealthChecker redisDB puede ser nil: Redis es opcional y sin él el caché queda solo en memoria
func NewHealthChecker(postgresDB PostgresChecker, redisDB RedisChecker, logger *zap.Logger) *HealthChecker {
	return &HealthChecker{
		postgresDB: postgresDB,
		redisDB:    redisDB,
		logger:     logger,
	}
}

func (h *HealthChecker) HealthCheck(c *gin.Context) {
	status := gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"services":  make(map[string]interface{}),
	}
	services := status["services"].(map[string]interface{})

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	// Verificar PostgreSQL
	postgresStatus := "healthy"
	if err := h.postgresDB.Ping(ctx); err != nil {
		postgresStatus = "unhealthy"
		status["status"] = "unhealthy"
		h.logger.Error("PostgreSQL health check failed", zap.Error(err))
	}

	// Obtener estadísticas de PostgreSQL
	postgresStats := h.postgresDB.GetStats()
	services["postgresql"] = gin.H{
		"status": postgresStatus,
		"stats": gin.H{
			"max_open_connections": postgresStats.MaxOpenConnections,
			"open_connections":     postgresStats.OpenConnections,
			"in_use":               postgresStats.InUse,
			"idle":                 postgresStats.Idle,
		},
	}

	// Verificar Redis
	if h.redisDB == nil {
		services["redis"] = gin.H{"status": "disabled"}
	} else {
		redisStatus := "healthy"
		if err := h.redisDB.Ping(ctx); err != nil {
			redisStatus = "unhealthy"
			status["status"] = "unhealthy"
			h.logger.Error("Redis health check failed", zap.Error(err))
		}

		var redisStats interface{}
		stats, err := h.redisDB.GetStats(ctx)
		if err != nil {
			h.logger.Error("Failed to get Redis stats", zap.Error(err))
			redisStats = "unavailable"
		} else {
			redisStats = stats
		}

		services["redis"] = gin.H{
			"status": redisStatus,
			"stats":  redisStats,
		}
	}

	// Determinar código de respuesta HTTP
	httpStatus := http.StatusOK
	if status["status"] == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, status)
}
