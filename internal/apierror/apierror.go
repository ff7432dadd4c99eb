// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"net/http"

	"ferrepos/internal/apperror"
)

// AccionAperturaSesion tells the client to run the open-session flow.
const AccionAperturaSesion = "APERTURA_SESION"

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail         string            `json:"detail"`
	Codigo         string            `json:"codigo,omitempty"`
	RequiereAccion string            `json:"requiere_accion,omitempty"`
	Reintentable   bool              `json:"reintentable,omitempty"`
	Fields         map[string]string `json:"fields,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// NewValidation wraps multiple field errors.
func NewValidation(fields map[string]string) *APIError {
	return &APIError{
		Detail: apperror.Message(apperror.KindValidation),
		Codigo: string(apperror.KindValidation),
		Fields: fields,
	}
}

var statusPorKind = map[apperror.Kind]int{
	apperror.KindValidation:           http.StatusUnprocessableEntity,
	apperror.KindSessionClosed:        http.StatusConflict,
	apperror.KindSessionAlreadyOpen:   http.StatusConflict,
	apperror.KindUnauthorized:         http.StatusForbidden,
	apperror.KindConflict:             http.StatusConflict,
	apperror.KindSaleNotAccepted:      http.StatusUnprocessableEntity,
	apperror.KindRefundExceedsBalance: http.StatusUnprocessableEntity,
	apperror.KindSaleAlreadyAnnulled:  http.StatusUnprocessableEntity,
	apperror.KindCreditLimitExceeded:  http.StatusUnprocessableEntity,
	apperror.KindRequiresSessionOpen:  http.StatusPreconditionRequired,
	apperror.KindNotFound:             http.StatusNotFound,
}

// FromError maps a service error to its HTTP status and envelope. Errors that
// do not belong to the apperror taxonomy become an opaque 500.
func FromError(err error) (int, *APIError) {
	kind := apperror.KindOf(err)
	status, ok := statusPorKind[kind]
	if !ok {
		return http.StatusInternalServerError, New(apperror.Message(apperror.KindInternal))
	}

	body := &APIError{
		Detail:       apperror.Message(kind),
		Codigo:       string(kind),
		Reintentable: apperror.IsRetryable(err),
	}
	var ae *apperror.Error
	if errors.As(err, &ae) {
		body.Fields = ae.Fields
	}
	if kind == apperror.KindRequiresSessionOpen {
		body.RequiereAccion = AccionAperturaSesion
	}
	return status, body
}
