package services

import (
	"context"
	"strings"

	"github.com/Angalets/olimpollo-backend/internal/apperror"
	"github.com/Angalets/olimpollo-backend/internal/database"
	"github.com/Angalets/olimpollo-backend/internal/events"
	"github.com/Angalets/olimpollo-backend/internal/metrics"
	"github.com/Angalets/olimpollo-backend/internal/models"
	"github.com/Angalets/olimpollo-backend/internal/repository"

	"go.uber.org/zap"
)

// CorteService conciliación de caja contra las ventas entregadas
type CorteService interface {
	Preview(ctx context.Context) (*models.PreviewCorte, error)
	RegistrarCorte(ctx context.Context, req *models.CorteRequest) (*models.CorteResponse, error)
}

type corteService struct {
	store   database.Transactor
	repo    repository.CorteRepository
	events  events.Publisher
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewCorteService(
	store database.Transactor,
	repo repository.CorteRepository,
	publisher events.Publisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) CorteService {
	return &corteService{
		store:   store,
		repo:    repo,
		events:  publisher,
		metrics: m,
		logger:  logger,
	}
}

// Preview totales esperados por método desde el último corte. Los métodos guardados
// que no se reconocen van a SinClasificar, nunca a efectivo.
func (s *corteService) Preview(ctx context.Context) (*models.PreviewCorte, error) {
	logger := s.logger.With(zap.String("operation", "preview_corte"))

	desde, err := s.repo.UltimoCorte(ctx, s.store)
	if err != nil {
		logger.Error("❌ Error obteniendo último corte", zap.Error(err))
		return nil, err
	}

	ventas, err := s.repo.VentasDesde(ctx, s.store, desde)
	if err != nil {
		logger.Error("❌ Error sumando ventas", zap.Error(err))
		return nil, err
	}

	preview := &models.PreviewCorte{Desde: desde}
	for _, v := range ventas {
		preview.Pedidos += v.Pedidos

		metodo, err := models.ParseMetodoPago(v.MetodoPago)
		if err != nil {
			logger.Warn("⚠️ Método de pago sin clasificar",
				zap.String("metodo_pago", v.MetodoPago),
				zap.String("total", v.Total.String()))
			preview.SinClasificar = preview.SinClasificar.Add(v.Total)
			continue
		}
		preview.Esperado.Sumar(metodo, v.Total)
	}

	logger.Debug("🔍 Preview de corte calculado",
		zap.Int("pedidos", preview.Pedidos),
		zap.String("total", preview.Esperado.Total().String()))
	return preview, nil
}

// RegistrarCorte guarda el corte. diferencia = efectivo contado - efectivo esperado.
func (s *corteService) RegistrarCorte(ctx context.Context, req *models.CorteRequest) (*models.CorteResponse, error) {
	usuario := strings.TrimSpace(req.Usuario)
	if usuario == "" {
		usuario = models.UsuarioAnonimo
	}

	logger := s.logger.With(
		zap.String("operation", "registrar_corte"),
		zap.String("usuario", usuario),
	)

	if req.TotalesEsperados == nil || req.TotalesReales == nil {
		return nil, apperror.Validation("Se requieren los totales esperados y reales")
	}
	esperado, err := models.TotalesDesdeMapa(req.TotalesEsperados)
	if err != nil {
		return nil, apperror.Validation("totales_esperados: %v", err)
	}
	contado, err := models.TotalesDesdeMapa(req.TotalesReales)
	if err != nil {
		return nil, apperror.Validation("totales_reales: %v", err)
	}

	corte := &models.CorteCaja{
		Usuario:       usuario,
		TotalVentas:   esperado.Total(),
		Esperado:      esperado,
		RealEfectivo:  contado.Efectivo,
		RealTarjeta:   contado.Tarjeta,
		Diferencia:    contado.Efectivo.Sub(esperado.Efectivo),
		Observaciones: strings.TrimSpace(req.Observaciones),
	}

	err = s.store.WithTx(ctx, "registrar_corte", func(q database.Querier) error {
		return s.repo.Insert(ctx, q, corte)
	})
	if err != nil {
		if apperror.Is(err, apperror.KindTransaction) {
			s.metrics.TransaccionFallida("registrar_corte")
		}
		logger.Error("❌ Error registrando corte", zap.Error(err))
		return nil, err
	}

	logger.Info("✅ Corte de caja registrado",
		zap.Int64("corte_id", corte.ID),
		zap.String("total_ventas", corte.TotalVentas.StringFixed(2)),
		zap.String("diferencia", corte.Diferencia.StringFixed(2)))

	s.metrics.CorteRegistrado(corte.Diferencia)
	s.events.Publish(events.CorteRegistrado, corte)

	return &models.CorteResponse{
		ID:         corte.ID,
		Mensaje:    "Corte de caja registrado",
		FechaCorte: corte.FechaCorte,
		Diferencia: corte.Diferencia,
	}, nil
}
