// Package apperr holds the error taxonomy shared by the service layers.
// Handlers map these to HTTP statuses; services never touch net/http.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// NotFoundError reports a missing entity. Malformed ids on direct
// lookups surface as NotFound too, matching the store's behavior.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Entity)
}

func NotFound(entity string) error {
	return &NotFoundError{Entity: entity}
}

// InsufficientStockError names the offending product so order intake
// failures identify which line item blocked the order.
type InsufficientStockError struct {
	Product string
}

func (e *InsufficientStockError) Error() string {
	if e.Product == "" {
		return "insufficient stock"
	}
	return fmt.Sprintf("insufficient stock for product: %s", e.Product)
}

func InsufficientStock(product string) error {
	return &InsufficientStockError{Product: product}
}

var ErrDuplicateEmail = errors.New("email already in use")

// BadRequestError reports invalid caller input that is not one of the
// more specific conditions above.
type BadRequestError struct {
	Msg string
}

func (e *BadRequestError) Error() string {
	return e.Msg
}

func BadRequest(format string, args ...any) error {
	return &BadRequestError{Msg: fmt.Sprintf(format, args...)}
}

// Status maps a service error to its HTTP status code.
func Status(err error) int {
	var nf *NotFoundError
	var is *InsufficientStockError
	var br *BadRequestError
	switch {
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &is), errors.As(err, &br), errors.Is(err, ErrDuplicateEmail):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
