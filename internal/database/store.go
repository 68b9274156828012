package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Angalets/olimpollo-backend/internal/apperror"

	"go.uber.org/zap"
)

// Querier es lo que usan los repositorios. Lo cumplen *sql.DB y *sql.Tx,
// así que la misma consulta corre dentro o fuera de una transacción.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Transactor ejecuta lecturas sueltas y abre transacciones. El handle de la
// transacción se pasa explícito a fn y no vive más allá de WithTx.
type Transactor interface {
	Querier
	WithTx(ctx context.Context, op string, fn func(q Querier) error) error
}

// Store implementación de Transactor sobre database/sql
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewStore(db *sql.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

func (s *Store) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return s.db.ExecContext(ctx, query, args...)
}

func (s *Store) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, query, args...)
}

func (s *Store) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return s.db.QueryRowContext(ctx, query, args...)
}

// WithTx corre fn en una transacción. Cualquier error o panic hace rollback completo.
// Los errores de dominio (validación, no encontrado, conflicto) se devuelven tal cual;
// el resto se envuelve como fallo de transacción conservando la causa.
func (s *Store) WithTx(ctx context.Context, op string, fn func(q Querier) error) error {
	logger := s.logger.With(zap.String("tx", op))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("❌ No se pudo iniciar la transacción", zap.Error(err))
		return apperror.Transaction(op, fmt.Errorf("begin: %w", err))
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			logger.Error("❌ Panic en transacción, rollback", zap.Any("panic", p))
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("❌ Error en rollback", zap.Error(rbErr))
		}
		logger.Warn("⚠️ Transacción revertida", zap.Error(err))
		if apperror.IsDomain(err) || apperror.Is(err, apperror.KindTransaction) {
			return err
		}
		return apperror.Transaction(op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("❌ Error en commit", zap.Error(err))
		return apperror.Transaction(op, fmt.Errorf("commit: %w", err))
	}

	logger.Debug("✅ Transacción confirmada")
	return nil
}
