package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("cliente requerido"), http.StatusBadRequest},
		{"not found", NotFound("pedido %d no existe", 7), http.StatusNotFound},
		{"conflict", Conflict(nil, "insumo vinculado"), http.StatusConflict},
		{"transaction", Transaction("crear_pedido", errors.New("conn reset")), http.StatusInternalServerError},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("error en servicio: %w", NotFound("insumo %d no existe", 3))

	assert.True(t, Is(err, KindNotFound))
	assert.True(t, IsDomain(err))
	assert.Equal(t, "error en servicio: insumo 3 no existe", err.Error())
}

func TestTransactionPreservesCause(t *testing.T) {
	cause := errors.New("deadlock detected")
	err := Transaction("transicion_pedido", cause)

	assert.True(t, errors.Is(err, cause))
	assert.False(t, IsDomain(err))
	assert.Contains(t, err.Error(), "deadlock detected")
}
