package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/Angalets/olimpollo-backend/internal/events"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second
	writeWait  = 10 * time.Second
)

// EventSource fuente de eventos del ledger
type EventSource interface {
	Subscribe() (<-chan events.Evento, func())
	Subscribers() int
}

// StatsSource cualquier componente que reporte estadísticas propias
type StatsSource func() interface{}

type MonitoringHandler struct {
	baseHandler
	events    EventSource
	sources   map[string]StatsSource
	startedAt time.Time
}

func NewMonitoringHandler(eventSource EventSource, sources map[string]StatsSource, logger *zap.Logger) *MonitoringHandler {
	return &MonitoringHandler{
		baseHandler: newBaseHandler(logger),
		events:      eventSource,
		sources:     sources,
		startedAt:   time.Now(),
	}
}

// WebSocketUpgrader configuración para WebSocket
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // las pantallas de cocina se sirven desde otro origen
	},
}

// WebSocketEventos reenvía al cliente cada evento publicado (pedidos, alertas de stock)
func (h *MonitoringHandler) WebSocketEventos(c *gin.Context) {
	logger := h.logger.With(zap.String("handler", "websocket_eventos"))

	// Actualizar a WebSocket
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("Error actualizando a WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	feed, unsubscribe := h.events.Subscribe()
	defer unsubscribe()

	logger.Info("Conexión WebSocket establecida", zap.Int("suscriptores", h.events.Subscribers()))

	// Configurar ping/pong
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// El cliente no manda nada; leer solo sirve para procesar pong y close
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case evento, ok := <-feed:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(evento); err != nil {
				logger.Error("Error enviando evento por WebSocket", zap.Error(err))
				return
			}
			logger.Debug("Evento enviado por WebSocket", zap.String("tipo", string(evento.Tipo)))

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Debug("Ping fallido, cerrando WebSocket", zap.Error(err))
				return
			}

		case <-closed:
			logger.Info("Conexión WebSocket cerrada por el cliente")
			return

		case <-c.Request.Context().Done():
			logger.Info("Conexión WebSocket cerrada por contexto")
			return
		}
	}
}

// GetMetricsSummary endpoint para métricas resumidas
func (h *MonitoringHandler) GetMetricsSummary(c *gin.Context) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	summary := gin.H{
		"eventos": gin.H{
			"suscriptores": h.events.Subscribers(),
		},
		"system": gin.H{
			"memory_mb":  mem.Alloc / 1024 / 1024,
			"goroutines": runtime.NumGoroutine(),
			"uptime":     time.Since(h.startedAt).Round(time.Second).String(),
			"platform":   runtime.GOOS + "/" + runtime.GOARCH,
		},
		"timestamp": time.Now().Format(time.RFC3339),
	}
	for name, source := range h.sources {
		summary[name] = source()
	}

	c.JSON(http.StatusOK, summary)
}
