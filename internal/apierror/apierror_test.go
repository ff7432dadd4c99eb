package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"ferrepos/internal/apperror"

	"github.com/stretchr/testify/assert"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{apperror.ErrValidation, http.StatusUnprocessableEntity},
		{apperror.ErrSessionClosed, http.StatusConflict},
		{apperror.ErrSessionAlreadyOpen, http.StatusConflict},
		{apperror.ErrUnauthorized, http.StatusForbidden},
		{apperror.ErrConflict, http.StatusConflict},
		{apperror.ErrSaleNotAccepted, http.StatusUnprocessableEntity},
		{apperror.ErrRefundExceeds, http.StatusUnprocessableEntity},
		{apperror.ErrSaleAlreadyAnnulled, http.StatusUnprocessableEntity},
		{apperror.ErrCreditLimitExceeded, http.StatusUnprocessableEntity},
		{apperror.ErrRequiresSessionOpen, http.StatusPreconditionRequired},
		{apperror.ErrNotFound, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(string(apperror.KindOf(tt.err)), func(t *testing.T) {
			status, body := FromError(fmt.Errorf("capa: %w", tt.err))
			assert.Equal(t, tt.status, status)
			assert.Equal(t, string(apperror.KindOf(tt.err)), body.Codigo)
			assert.NotEmpty(t, body.Detail)
		})
	}
}

func TestFromError_RequiereApertura(t *testing.T) {
	_, body := FromError(apperror.New(apperror.KindRequiresSessionOpen, "caja"))
	assert.Equal(t, AccionAperturaSesion, body.RequiereAccion)
	assert.False(t, body.Reintentable)
}

func TestFromError_ConflictoReintentable(t *testing.T) {
	_, body := FromError(apperror.New(apperror.KindConflict, "venta"))
	assert.True(t, body.Reintentable)
	assert.Empty(t, body.RequiereAccion)
}

func TestFromError_NoFiltraDetalleInterno(t *testing.T) {
	status, body := FromError(errors.New("pq: connection refused on 10.0.0.3"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Empty(t, body.Codigo)
	assert.NotContains(t, body.Detail, "10.0.0.3")
}

func TestFromError_Campos(t *testing.T) {
	_, body := FromError(apperror.Validation(map[string]string{"motivo": "es obligatorio"}))
	assert.Equal(t, map[string]string{"motivo": "es obligatorio"}, body.Fields)
}
