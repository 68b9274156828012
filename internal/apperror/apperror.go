// Package apperror define la taxonomía de errores del ledger y su traducción a HTTP.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind clasifica un error de dominio
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindTransaction
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindTransaction:
		return "transaction"
	default:
		return "unknown"
	}
}

// Error es el error de dominio. Err conserva la causa original para diagnóstico.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation datos faltantes o mal formados
func Validation(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound el recurso solicitado no existe
func NotFound(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict la operación viola una regla de integridad referencial
func Conflict(cause error, format string, args ...interface{}) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...), Err: cause}
}

// Transaction fallo del store durante una operación multi-escritura
func Transaction(op string, cause error) error {
	return &Error{Kind: KindTransaction, Message: fmt.Sprintf("transacción fallida en %s", op), Err: cause}
}

// KindOf devuelve la clasificación del primer *Error en la cadena
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// Is reporta si err es un error de dominio del tipo indicado
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsDomain reporta si el error debe llegar al cliente tal cual (no es fallo del store)
func IsDomain(err error) bool {
	switch KindOf(err) {
	case KindValidation, KindNotFound, KindConflict:
		return true
	}
	return false
}

// HTTPStatus traduce un error al código HTTP correspondiente
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
