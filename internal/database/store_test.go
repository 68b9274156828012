package database

import (
	"context"
	"errors"
	"testing"

	"github.com/Angalets/olimpollo-backend/internal/apperror"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db, zap.NewNop()), mock
}

func TestWithTxCommits(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE insumos").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.WithTx(context.Background(), "test", func(q Querier) error {
		_, err := q.ExecContext(context.Background(), "UPDATE insumos SET cantidad = cantidad - $1 WHERE id = $2", "2", 1)
		return err
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxWrapsStoreErrors(t *testing.T) {
	store, mock := newMockStore(t)
	cause := errors.New("connection reset")

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE insumos").WillReturnError(cause)
	mock.ExpectRollback()

	err := store.WithTx(context.Background(), "descontar", func(q Querier) error {
		_, err := q.ExecContext(context.Background(), "UPDATE insumos SET cantidad = 0")
		return err
	})

	assert.True(t, apperror.Is(err, apperror.KindTransaction))
	assert.ErrorIs(t, err, cause)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxKeepsDomainErrors(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := store.WithTx(context.Background(), "transicion", func(q Querier) error {
		return apperror.NotFound("pedido 9 no existe")
	})

	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxBeginFailure(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	called := false
	err := store.WithTx(context.Background(), "crear_pedido", func(q Querier) error {
		called = true
		return nil
	})

	assert.False(t, called)
	assert.True(t, apperror.Is(err, apperror.KindTransaction))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = store.WithTx(context.Background(), "panic", func(q Querier) error {
			panic("boom")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParseInfo(t *testing.T) {
	info := "# Stats\r\nkeyspace_hits:10\r\nkeyspace_misses:3\r\ntotal_connections_received:99\r\n"

	stats := parseInfo(info, "keyspace_hits", "keyspace_misses")

	assert.Equal(t, map[string]string{"keyspace_hits": "10", "keyspace_misses": "3"}, stats)
}
