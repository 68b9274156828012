package services

import (
	"context"
	"errors"
	"strings"

	"github.com/Angalets/olimpollo-backend/internal/apperror"
	"github.com/Angalets/olimpollo-backend/internal/database"
	"github.com/Angalets/olimpollo-backend/internal/models"
	"github.com/Angalets/olimpollo-backend/internal/repository"

	"go.uber.org/zap"
)

// Respuestas al intentar borrar un insumo que otra tabla todavía usa
const (
	MensajeInsumoEnReceta     = "Este insumo está vinculado a una receta activa."
	MensajeInsumoEnCompras    = "Este insumo tiene compras registradas y no se puede eliminar."
	MensajeInsumoReferenciado = "Este insumo está en uso y no se puede eliminar."
)

// InsumoService catálogo de insumos
type InsumoService interface {
	ListarInsumos(ctx context.Context, filter models.InsumoFilter) ([]*models.Insumo, error)
	CrearInsumo(ctx context.Context, req *models.CrearInsumoRequest) (*models.Insumo, error)
	EliminarInsumo(ctx context.Context, id int64) error
}

type insumoService struct {
	store  database.Transactor
	repo   repository.InsumoRepository
	logger *zap.Logger
}

func NewInsumoService(store database.Transactor, repo repository.InsumoRepository, logger *zap.Logger) InsumoService {
	return &insumoService{
		store:  store,
		repo:   repo,
		logger: logger,
	}
}

func (s *insumoService) ListarInsumos(ctx context.Context, filter models.InsumoFilter) ([]*models.Insumo, error) {
	insumos, err := s.repo.List(ctx, s.store, filter)
	if err != nil {
		s.logger.Error("❌ Error listando insumos", zap.String("operation", "listar_insumos"), zap.Error(err))
		return nil, err
	}
	return insumos, nil
}

func (s *insumoService) CrearInsumo(ctx context.Context, req *models.CrearInsumoRequest) (*models.Insumo, error) {
	logger := s.logger.With(zap.String("operation", "crear_insumo"), zap.String("nombre", req.Nombre))

	nombre := strings.TrimSpace(req.Nombre)
	if nombre == "" {
		return nil, apperror.Validation("El nombre del insumo es obligatorio")
	}
	unidad := strings.TrimSpace(req.Unidad)
	if unidad == "" {
		return nil, apperror.Validation("La unidad del insumo es obligatoria")
	}
	if req.StockMinimo.IsNegative() || req.CostoPromedio.IsNegative() {
		return nil, apperror.Validation("Stock mínimo y costo no pueden ser negativos")
	}

	insumo := &models.Insumo{
		Nombre:             nombre,
		Cantidad:           req.Cantidad,
		Unidad:             unidad,
		StockMinimo:        req.StockMinimo,
		Categoria:          strings.TrimSpace(req.Categoria),
		ProveedorPreferido: strings.TrimSpace(req.ProveedorPreferido),
		CostoPromedio:      req.CostoPromedio.Round(models.PrecisionCosto),
	}
	if err := s.repo.Create(ctx, s.store, insumo); err != nil {
		logger.Error("❌ Error creando insumo", zap.Error(err))
		return nil, err
	}

	logger.Info("✅ Insumo creado", zap.Int64("insumo_id", insumo.ID))
	return insumo, nil
}

// EliminarInsumo rechaza el borrado si alguna receta usa el insumo. La llave foránea
// cubre la carrera entre la verificación y el DELETE.
func (s *insumoService) EliminarInsumo(ctx context.Context, id int64) error {
	logger := s.logger.With(zap.String("operation", "eliminar_insumo"), zap.Int64("insumo_id", id))

	err := s.store.WithTx(ctx, "eliminar_insumo", func(q database.Querier) error {
		enUso, err := s.repo.TieneRecetas(ctx, q, id)
		if err != nil {
			return err
		}
		if enUso {
			return apperror.Conflict(nil, MensajeInsumoEnReceta)
		}

		ok, err := s.repo.Delete(ctx, q, id)
		var refErr *repository.ReferenciaError
		if errors.As(err, &refErr) {
			logger.Debug("Borrado bloqueado por llave foránea", zap.String("constraint", refErr.Constraint))
			return apperror.Conflict(nil, mensajeReferencia(refErr.Constraint))
		}
		if err != nil {
			return err
		}
		if !ok {
			return apperror.NotFound("Insumo %d no encontrado", id)
		}
		return nil
	})
	if err != nil {
		logger.Warn("⚠️ No se eliminó el insumo", zap.Error(err))
		return err
	}

	logger.Info("✅ Insumo eliminado")
	return nil
}

func mensajeReferencia(constraint string) string {
	switch constraint {
	case repository.FKRecetaInsumo:
		return MensajeInsumoEnReceta
	case repository.FKCompraItem:
		return MensajeInsumoEnCompras
	default:
		return MensajeInsumoReferenciado
	}
}
