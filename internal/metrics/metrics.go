// Package metrics expone contadores del ledger y latencias HTTP para Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Metrics colectores registrados en un registry propio
type Metrics struct {
	registry *prometheus.Registry

	pedidosCreados     *prometheus.CounterVec
	pedidosEntregados  *prometheus.CounterVec
	comisiones         *prometheus.CounterVec
	alertasStock       *prometheus.CounterVec
	comprasRegistradas prometheus.Counter
	cortes             prometheus.Counter
	diferenciaCorte    prometheus.Gauge
	txFallidas         *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		pedidosCreados: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "olimpollo_pedidos_creados_total",
			Help: "Pedidos creados por canal y método de pago",
		}, []string{"canal", "metodo_pago"}),
		pedidosEntregados: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "olimpollo_pedidos_entregados_total",
			Help: "Pedidos entregados; origen manual o vencimiento",
		}, []string{"origen"}),
		comisiones: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "olimpollo_comisiones_pesos_total",
			Help: "Comisiones calculadas por método de pago",
		}, []string{"metodo_pago"}),
		alertasStock: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "olimpollo_alertas_stock_total",
			Help: "Insumos que quedaron en o bajo su mínimo al descontar",
		}, []string{"estado"}),
		comprasRegistradas: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "olimpollo_compras_registradas_total",
			Help: "Compras registradas",
		}),
		cortes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "olimpollo_cortes_caja_total",
			Help: "Cortes de caja registrados",
		}),
		diferenciaCorte: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "olimpollo_corte_diferencia_pesos",
			Help: "Diferencia de efectivo del último corte",
		}),
		txFallidas: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "olimpollo_transacciones_fallidas_total",
			Help: "Transacciones revertidas por operación",
		}, []string{"operacion"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "olimpollo_http_request_duration_seconds",
			Help:    "Latencia de las peticiones HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		m.pedidosCreados, m.pedidosEntregados, m.comisiones, m.alertasStock,
		m.comprasRegistradas, m.cortes, m.diferenciaCorte, m.txFallidas, m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry para pruebas y para registrar colectores externos
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) PedidoCreado(canal, metodoPago string, comision decimal.Decimal) {
	m.pedidosCreados.WithLabelValues(canal, metodoPago).Inc()
	m.comisiones.WithLabelValues(metodoPago).Add(comision.InexactFloat64())
}

func (m *Metrics) PedidoEntregado(origen string) {
	m.pedidosEntregados.WithLabelValues(origen).Inc()
}

func (m *Metrics) AlertaStock(estado string) {
	m.alertasStock.WithLabelValues(estado).Inc()
}

func (m *Metrics) CompraRegistrada() {
	m.comprasRegistradas.Inc()
}

func (m *Metrics) CorteRegistrado(diferencia decimal.Decimal) {
	m.cortes.Inc()
	m.diferenciaCorte.Set(diferencia.InexactFloat64())
}

func (m *Metrics) TransaccionFallida(operacion string) {
	m.txFallidas.WithLabelValues(operacion).Inc()
}

// Handler sirve /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware registra la latencia por ruta; usa la plantilla de la ruta para no explotar etiquetas
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
