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

// RecetaService mantenimiento de recetas
type RecetaService interface {
	ReemplazarReceta(ctx context.Context, id int64, req *models.ReemplazarRecetaRequest) (*models.Receta, error)
}

type recetaService struct {
	store  database.Transactor
	repo   repository.RecetaRepository
	logger *zap.Logger
}

func NewRecetaService(store database.Transactor, repo repository.RecetaRepository, logger *zap.Logger) RecetaService {
	return &recetaService{
		store:  store,
		repo:   repo,
		logger: logger,
	}
}

// ReemplazarReceta sustituye encabezado, ingredientes y producto ligado en una sola transacción
func (s *recetaService) ReemplazarReceta(ctx context.Context, id int64, req *models.ReemplazarRecetaRequest) (*models.Receta, error) {
	logger := s.logger.With(
		zap.String("operation", "reemplazar_receta"),
		zap.Int64("receta_id", id),
		zap.Int("ingredientes", len(req.Ingredientes)),
	)

	nombre := strings.TrimSpace(req.Nombre)
	if nombre == "" {
		return nil, apperror.Validation("El nombre de la receta es obligatorio")
	}

	receta := &models.Receta{
		ID:          id,
		Nombre:      nombre,
		Descripcion: req.Descripcion,
		Pasos:       req.Pasos,
		Lineas:      make([]models.RecetaInsumo, 0, len(req.Ingredientes)),
	}
	for _, ing := range req.Ingredientes {
		if ing.InsumoID <= 0 || !ing.CantidadNecesaria.IsPositive() {
			return nil, apperror.Validation("Cada ingrediente necesita insumo y cantidad mayor a cero")
		}
		receta.Lineas = append(receta.Lineas, models.RecetaInsumo{
			RecetaID:          id,
			InsumoID:          ing.InsumoID,
			CantidadNecesaria: ing.CantidadNecesaria,
			UnidadMedida:      ing.UnidadMedida,
		})
	}

	err := s.store.WithTx(ctx, "reemplazar_receta", func(q database.Querier) error {
		existe, err := s.repo.BloquearReceta(ctx, q, id)
		if err != nil {
			return err
		}
		if !existe {
			return apperror.NotFound("Receta %d no encontrada", id)
		}

		if err := s.repo.UpdateReceta(ctx, q, receta); err != nil {
			return err
		}

		err = s.repo.ReplaceLineas(ctx, q, id, receta.Lineas)
		if errors.Is(err, repository.ErrInsumoInexistente) {
			return apperror.NotFound("Ingrediente no encontrado (%v)", err)
		}
		if err != nil {
			return err
		}

		vinculado, err := s.repo.VincularProducto(ctx, q, id, req.ProductoVentaID)
		if err != nil {
			return err
		}
		if !vinculado {
			return apperror.NotFound("Producto %d no encontrado", *req.ProductoVentaID)
		}
		return nil
	})
	if err != nil {
		logger.Error("❌ Error reemplazando receta", zap.Error(err))
		return nil, err
	}

	logger.Info("✅ Receta actualizada")
	return receta, nil
}
