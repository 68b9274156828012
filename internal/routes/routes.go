package routes

import (
	"net/http"

	"github.com/Angalets/olimpollo-backend/internal/handlers"
	"github.com/Angalets/olimpollo-backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Handlers agrupa los handlers que se montan en el router
type Handlers struct {
	Pedidos    *handlers.PedidoHandler
	Compras    *handlers.CompraHandler
	Corte      *handlers.CorteHandler
	Insumos    *handlers.InsumoHandler
	Cache      *handlers.CacheHandler
	Monitoring *handlers.MonitoringHandler
	Health     *middleware.HealthChecker
	Metrics    http.Handler
}

// SetupRoutes configura todas las rutas de la aplicación
func SetupRoutes(router *gin.Engine, h Handlers) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		pedidos := v1.Group("/pedidos")
		{
			pedidos.POST("", h.Pedidos.CrearPedido)
			// el listado corre antes el barrido de pedidos vencidos
			pedidos.GET("", h.Pedidos.ListarPedidos)
			pedidos.PUT("/:id/estado", h.Pedidos.CambiarEstado)
			pedidos.DELETE("/:id", h.Pedidos.EliminarPedido)
		}

		v1.GET("/clientes/:telefono", h.Pedidos.GetCliente)

		v1.POST("/compras", h.Compras.RegistrarCompra)

		corte := v1.Group("/corte")
		{
			corte.GET("/preview", h.Corte.Preview)
			corte.POST("", h.Corte.RegistrarCorte)
		}

		insumos := v1.Group("/insumos")
		{
			insumos.GET("", h.Insumos.ListarInsumos)
			insumos.POST("", h.Insumos.CrearInsumo)
			insumos.DELETE("/:id", h.Insumos.EliminarInsumo)
		}

		v1.PUT("/recetas/:id", h.Insumos.ReemplazarReceta)

		cache := v1.Group("/cache")
		{
			cache.GET("/stats", h.Cache.GetCacheStats)
			cache.DELETE("/opciones", h.Cache.InvalidateOpciones)
		}

		v1.GET("/eventos/ws", h.Monitoring.WebSocketEventos)
		v1.GET("/monitoring/summary", h.Monitoring.GetMetricsSummary)
	}

	router.GET("/health", h.Health.HealthCheck)
	router.GET("/metrics", gin.WrapH(h.Metrics))

	// API info en raíz
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Olimpollo POS API",
			"version": "1.0.0",
			"status":  "running",
			"endpoints": gin.H{
				"health":  "/health",
				"metrics": "/metrics",
				"api":     "/api/v1",
				"pedidos": gin.H{
					"crear":          "POST /api/v1/pedidos",
					"listar":         "GET /api/v1/pedidos?canal&estado&fechaInicio&fechaFin",
					"cambiar_estado": "PUT /api/v1/pedidos/:id/estado",
					"eliminar":       "DELETE /api/v1/pedidos/:id",
				},
				"compras": "POST /api/v1/compras",
				"corte": gin.H{
					"preview":   "GET /api/v1/corte/preview",
					"registrar": "POST /api/v1/corte",
				},
				"eventos": "GET /api/v1/eventos/ws",
			},
		})
	})
}
