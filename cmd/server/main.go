package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Angalets/olimpollo-backend/internal/cache"
	"github.com/Angalets/olimpollo-backend/internal/config"
	"github.com/Angalets/olimpollo-backend/internal/database"
	"github.com/Angalets/olimpollo-backend/internal/events"
	"github.com/Angalets/olimpollo-backend/internal/handlers"
	"github.com/Angalets/olimpollo-backend/internal/metrics"
	"github.com/Angalets/olimpollo-backend/internal/middleware"
	"github.com/Angalets/olimpollo-backend/internal/repository"
	"github.com/Angalets/olimpollo-backend/internal/routes"
	"github.com/Angalets/olimpollo-backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	eventBufferSize   = 64
	cacheCleanupEvery = time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Configuración inválida: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("❌ No se pudo crear el logger: %v", err)
	}
	defer logger.Sync()

	gin.SetMode(cfg.Server.GinMode)

	// PostgreSQL es obligatorio
	postgresDB, err := database.NewPostgresDB(
		cfg.Database.URL,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
		cfg.Database.ConnMaxLifetime,
		logger,
	)
	if err != nil {
		logger.Fatal("❌ Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer postgresDB.Close()

	if cfg.Database.AutoMigrate {
		if err := postgresDB.Migrate(context.Background()); err != nil {
			logger.Fatal("❌ Failed to apply schema", zap.Error(err))
		}
	}

	// Redis es opcional: sin él el caché de opciones queda solo en memoria
	var healthRedis middleware.RedisChecker
	redisDB, err := database.NewRedisDB(cfg.Redis, logger)
	if err != nil {
		logger.Warn("⚠️ Redis no disponible, caché solo en memoria", zap.Error(err))
	} else {
		defer redisDB.Close()
		healthRedis = redisDB
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var redisClient *redis.Client
	if redisDB != nil {
		redisClient = redisDB.Client
	}
	opcionCache := cache.NewOpcionCache(redisClient, cfg.Cache.L1Size, cfg.Cache.TTL, logger)
	go opcionCache.Run(ctx, cacheCleanupEvery)

	hub := events.NewHub(eventBufferSize, logger)
	m := metrics.New()
	store := postgresDB.Store()

	// Repositorios
	insumoRepo := repository.NewInsumoRepository()
	recetaRepo := repository.NewRecetaRepository()
	opcionRepo := repository.NewOpcionRepository()
	pedidoRepo := repository.NewPedidoRepository(cfg.Pedidos.TimeZone)
	compraRepo := repository.NewCompraRepository()
	corteRepo := repository.NewCorteRepository()

	// Servicios
	opciones := services.NewCachedOpcionIndex(opcionRepo, opcionCache, logger)
	engine := services.NewConsumoEngine(recetaRepo, opciones, insumoRepo, logger)

	pedidoService := services.NewPedidoService(store, pedidoRepo, engine, hub, m, cfg.Pedidos, logger)
	compraService := services.NewCompraService(store, compraRepo, insumoRepo, hub, m, logger)
	corteService := services.NewCorteService(store, corteRepo, hub, m, logger)
	insumoService := services.NewInsumoService(store, insumoRepo, logger)
	recetaService := services.NewRecetaService(store, recetaRepo, logger)

	// Handlers
	monitoringHandler := handlers.NewMonitoringHandler(hub, map[string]handlers.StatsSource{
		"cache":    func() interface{} { return opcionCache.Stats() },
		"database": func() interface{} { return postgresDB.GetStats() },
	}, logger)

	h := routes.Handlers{
		Pedidos:    handlers.NewPedidoHandler(pedidoService, logger),
		Compras:    handlers.NewCompraHandler(compraService, logger),
		Corte:      handlers.NewCorteHandler(corteService, logger),
		Insumos:    handlers.NewInsumoHandler(insumoService, recetaService, logger),
		Cache:      handlers.NewCacheHandler(opcionCache, logger),
		Monitoring: monitoringHandler,
		Health:     middleware.NewHealthChecker(postgresDB, healthRedis, logger),
		Metrics:    m.Handler(),
	}

	// en release solo queda el log estructurado
	var accessConsole io.Writer
	if cfg.Server.GinMode != gin.ReleaseMode {
		accessConsole = gin.DefaultWriter
	}

	router := gin.New()
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.AccessLogMiddleware(logger, accessConsole))
	router.Use(m.Middleware())
	router.Use(gin.Recovery())

	routes.SetupRoutes(router, h)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		middleware.ServerInfo(cfg.Server.Port, router.Routes(), redisDB != nil, logger)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		logger.Error("❌ Server error", zap.Error(err))
	case <-ctx.Done():
		logger.Info("ℹ️ Señal recibida, apagando servidor")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("❌ Shutdown forzado", zap.Error(err))
		return
	}
	logger.Info("✅ Servidor detenido")
}

// newLogger producción en release, desarrollo en cualquier otro modo; el nivel sale de LOG_LEVEL
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Logging.Level)
	if err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	zapCfg := zap.NewDevelopmentConfig()
	if cfg.Server.GinMode == gin.ReleaseMode {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = level

	return zapCfg.Build()
}
