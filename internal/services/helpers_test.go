package services

import (
	"database/sql/driver"
	"fmt"
	"regexp"
	"testing"

	"github.com/Angalets/olimpollo-backend/internal/database"
	"github.com/Angalets/olimpollo-backend/internal/events"
	"github.com/Angalets/olimpollo-backend/internal/metrics"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMockStore(t *testing.T) (*database.Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return database.NewStore(db, zap.NewNop()), mock
}

// sqlq escapa una consulta para el matcher de expresiones regulares de sqlmock
func sqlq(query string) string {
	return regexp.QuoteMeta(query)
}

// decimalArg compara argumentos decimales por valor y no por texto
type decimalArg string

func (a decimalArg) Match(v driver.Value) bool {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case []byte:
		s = string(x)
	case float64:
		s = fmt.Sprint(x)
	case int64:
		s = fmt.Sprint(x)
	default:
		return false
	}
	got, err := decimal.NewFromString(s)
	if err != nil {
		return false
	}
	return got.Equal(decimal.RequireFromString(string(a)))
}

func newTestDeps() (*events.Hub, *metrics.Metrics) {
	return events.NewHub(16, zap.NewNop()), metrics.New()
}
