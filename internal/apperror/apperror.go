// Package apperror defines the error taxonomy of the cash and balance core.
// Every failure returned by a service carries a Kind, and each Kind maps to one
// stable user-facing message so the caller can render a specific prompt.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies a failure. Values are stable and exposed to API clients.
type Kind string

const (
	KindValidation           Kind = "VALIDATION_ERROR"
	KindSessionClosed        Kind = "SESSION_CLOSED"
	KindSessionAlreadyOpen   Kind = "SESSION_ALREADY_OPEN"
	KindUnauthorized         Kind = "UNAUTHORIZED"
	KindConflict             Kind = "CONFLICT"
	KindSaleNotAccepted      Kind = "SALE_NOT_ACCEPTED"
	KindRefundExceedsBalance Kind = "REFUND_EXCEEDS_BALANCE"
	KindSaleAlreadyAnnulled  Kind = "SALE_ALREADY_ANNULLED_OR_RETURNED"
	KindCreditLimitExceeded  Kind = "CREDIT_LIMIT_EXCEEDED"
	KindRequiresSessionOpen  Kind = "REQUIRES_SESSION_OPEN"
	KindNotFound             Kind = "NOT_FOUND"
	KindInternal             Kind = "INTERNAL"
)

var mensajes = map[Kind]string{
	KindValidation:           "Datos inválidos",
	KindSessionClosed:        "La sesión de caja está cerrada",
	KindSessionAlreadyOpen:   "Ya existe una sesión de caja abierta en esta caja",
	KindUnauthorized:         "No está autorizado para realizar esta operación",
	KindConflict:             "La operación entró en conflicto con otra en curso, intente nuevamente",
	KindSaleNotAccepted:      "La venta no ha sido aceptada por SUNAT",
	KindRefundExceedsBalance: "El monto excede el saldo disponible de la venta",
	KindSaleAlreadyAnnulled:  "La venta ya fue anulada o devuelta totalmente",
	KindCreditLimitExceeded:  "La venta excede el crédito disponible del cliente",
	KindRequiresSessionOpen:  "Debe abrir una sesión de caja primero",
	KindNotFound:             "Recurso no encontrado",
	KindInternal:             "Error interno del servidor",
}

// Message returns the stable message for k.
func Message(k Kind) string {
	if m, ok := mensajes[k]; ok {
		return m
	}
	return mensajes[KindInternal]
}

// Error is the structured error returned by the core.
type Error struct {
	Kind    Kind
	Message string
	// Detail is an optional technical reason (e.g. "sale not accepted").
	Detail string
	// Fields holds per-field validation failures.
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Kind, so sentinel comparisons work with
// errors.Is regardless of detail or wrapped cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Retryable reports whether the caller may retry the operation.
func (e *Error) Retryable() bool { return e.Kind == KindConflict }

// New builds an error of kind k with its stable message and an optional detail.
func New(k Kind, detail string) *Error {
	return &Error{Kind: k, Message: Message(k), Detail: detail}
}

// Wrap builds an error of kind k wrapping cause.
func Wrap(k Kind, detail string, cause error) *Error {
	return &Error{Kind: k, Message: Message(k), Detail: detail, Err: cause}
}

// Validation builds a ValidationError listing the offending fields.
func Validation(fields map[string]string) *Error {
	e := New(KindValidation, "")
	e.Fields = fields
	if len(fields) == 1 {
		for f, reason := range fields {
			e.Detail = f + ": " + reason
		}
	}
	return e
}

// Sentinels for errors.Is comparisons.
var (
	ErrValidation          = New(KindValidation, "")
	ErrSessionClosed       = New(KindSessionClosed, "")
	ErrSessionAlreadyOpen  = New(KindSessionAlreadyOpen, "")
	ErrUnauthorized        = New(KindUnauthorized, "")
	ErrConflict            = New(KindConflict, "")
	ErrSaleNotAccepted     = New(KindSaleNotAccepted, "")
	ErrRefundExceeds       = New(KindRefundExceedsBalance, "")
	ErrSaleAlreadyAnnulled = New(KindSaleAlreadyAnnulled, "")
	ErrCreditLimitExceeded = New(KindCreditLimitExceeded, "")
	ErrRequiresSessionOpen = New(KindRequiresSessionOpen, "")
	ErrNotFound            = New(KindNotFound, "")
)

// KindOf extracts the Kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsRetryable reports whether err is a Conflict.
func IsRetryable(err error) bool {
	return KindOf(err) == KindConflict
}
