package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPorKind(t *testing.T) {
	err := New(KindRefundExceedsBalance, "disponible S/ 10.00")
	assert.ErrorIs(t, err, ErrRefundExceeds)
	assert.NotErrorIs(t, err, ErrSaleNotAccepted)

	envuelto := fmt.Errorf("emitir: %w", err)
	assert.ErrorIs(t, envuelto, ErrRefundExceeds)
	assert.Equal(t, KindRefundExceedsBalance, KindOf(envuelto))
}

func TestWrapConservaCausa(t *testing.T) {
	causa := errors.New("lock timeout")
	err := Wrap(KindConflict, "venta:1", causa)
	assert.ErrorIs(t, err, causa)
	assert.ErrorIs(t, err, ErrConflict)
	assert.True(t, IsRetryable(err))
	assert.True(t, err.Retryable())
}

func TestKindOf_ErrorAjeno(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.False(t, IsRetryable(errors.New("boom")))
	assert.False(t, IsRetryable(ErrSessionClosed))
}

func TestValidation(t *testing.T) {
	err := Validation(map[string]string{"monto": "debe ser mayor a cero"})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "Datos inválidos: monto: debe ser mayor a cero", err.Error())

	varios := Validation(map[string]string{"monto": "x", "tipo": "y"})
	assert.Empty(t, varios.Detail)
	assert.Len(t, varios.Fields, 2)
}

func TestMessage_KindDesconocido(t *testing.T) {
	assert.Equal(t, Message(KindInternal), Message(Kind("NO_EXISTE")))
	assert.Equal(t, "Debe abrir una sesión de caja primero", ErrRequiresSessionOpen.Error())
}
