package middleware

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestIDKey llave del request id en el contexto de gin
const RequestIDKey = "request_id"

// Rutas que las sondas consultan cada pocos segundos; solo salen en debug
var rutasSilenciosas = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// AccessLogMiddleware registra cada request de la caja con la ruta de gin
// (/api/v1/pedidos/:id/estado) en lugar del path crudo, el id del recurso y
// el request id. El nivel depende del status: 5xx error, 4xx warn, resto info.
// Si console no es nil además escribe una línea corta con colores.
func AccessLogMiddleware(logger *zap.Logger, console io.Writer) gin.HandlerFunc {
	return func(c *gin.Context) {
		inicio := time.Now()
		c.Next()
		latencia := time.Since(inicio)

		status := c.Writer.Status()
		ruta := c.FullPath()
		if ruta == "" {
			ruta = "sin_ruta"
		}
		requestID := c.GetString(RequestIDKey)

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", ruta),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status_code", status),
			zap.Duration("latency", latencia),
			zap.Int("bytes", c.Writer.Size()),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", requestID),
		}
		if id := c.Param("id"); id != "" {
			fields = append(fields, zap.String("recurso_id", id))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		nivel := nivelPorStatus(status)
		if rutasSilenciosas[ruta] && status < http.StatusInternalServerError {
			nivel = zapcore.DebugLevel
		}
		if ce := logger.Check(nivel, "🌐 "+c.Request.Method+" "+ruta); ce != nil {
			ce.Write(fields...)
		}

		if console != nil {
			fmt.Fprintf(console, "%s[POS]%s %s |%s %3d %s| %8s | %s%-6s%s %s | %s\n",
				boldColor, resetColor,
				inicio.Format("15:04:05"),
				getStatusColor(status), status, resetColor,
				latencia.Round(time.Millisecond),
				getMethodColor(c.Request.Method), c.Request.Method, resetColor,
				c.Request.URL.Path,
				requestID,
			)
		}
	}
}

// RequestIDMiddleware respeta el X-Request-ID recibido o genera un uuid
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header("X-Request-ID", requestID)
		c.Set(RequestIDKey, requestID)
		c.Next()
	}
}

func nivelPorStatus(status int) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status >= http.StatusBadRequest:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}

func getStatusColor(statusCode int) string {
	switch {
	case statusCode >= 500:
		return redColor
	case statusCode >= 400:
		return yellowColor
	case statusCode >= 300:
		return cyanColor
	case statusCode >= 200:
		return greenColor
	default:
		return whiteColor
	}
}

func getMethodColor(method string) string {
	switch method {
	case http.MethodGet:
		return greenColor
	case http.MethodPost:
		return blueColor
	case http.MethodPut:
		return yellowColor
	case http.MethodDelete:
		return redColor
	default:
		return magentaColor
	}
}
