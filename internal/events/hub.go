// Package events difunde lo que pasa en el ledger (pedidos, alertas de stock)
// a las pantallas conectadas por WebSocket.
package events

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Tipo de evento publicado
type Tipo string

const (
	PedidoCreado     Tipo = "pedido_creado"
	PedidoEntregado  Tipo = "pedido_entregado"
	PedidoEliminado  Tipo = "pedido_eliminado"
	AlertaStock      Tipo = "alerta_stock"
	CompraRegistrada Tipo = "compra_registrada"
	CorteRegistrado  Tipo = "corte_registrado"
)

// Evento mensaje enviado a los suscriptores
type Evento struct {
	Tipo      Tipo        `json:"tipo"`
	Timestamp string      `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// Publisher lo que necesitan los servicios para avisar después de un commit
type Publisher interface {
	Publish(tipo Tipo, data interface{})
}

// Hub reparte eventos a suscriptores con buffer propio. Un suscriptor lento
// pierde eventos en lugar de frenar al que publica.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[chan Evento]struct{}
	bufferSize  int
	logger      *zap.Logger
}

func NewHub(bufferSize int, logger *zap.Logger) *Hub {
	return &Hub{
		subscribers: make(map[chan Evento]struct{}),
		bufferSize:  bufferSize,
		logger:      logger,
	}
}

// Publish nunca bloquea
func (h *Hub) Publish(tipo Tipo, data interface{}) {
	evento := Evento{
		Tipo:      tipo,
		Timestamp: time.Now().Format(time.RFC3339),
		Data:      data,
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers {
		select {
		case ch <- evento:
		default:
			h.logger.Warn("⚠️ Suscriptor lento, evento descartado", zap.String("tipo", string(tipo)))
		}
	}
}

// Subscribe registra un suscriptor. La función devuelta lo da de baja y cierra el canal.
func (h *Hub) Subscribe() (<-chan Evento, func()) {
	ch := make(chan Evento, h.bufferSize)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers número de suscriptores activos
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
