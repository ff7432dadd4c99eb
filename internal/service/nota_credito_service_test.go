package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"ferrepos/internal/apperror"
	"ferrepos/internal/dto"
	"ferrepos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *entorno) notaPrevia(ventaID uuid.UUID, tipo, monto, estado string) {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	e.store.notas = append(e.store.notas, model.NotaCredito{
		ID:          uuid.New(),
		TenantID:    e.tenant,
		VentaID:     ventaID,
		CajaID:      e.cajaID,
		UsuarioID:   e.supervisor.UsuarioID,
		TipoNota:    tipo,
		MontoTotal:  dec(monto),
		Motivo:      "nota previa",
		EstadoSunat: estado,
		CreatedAt:   time.Now(),
	})
}

func TestEmitir_VentaNoAceptada(t *testing.T) {
	e := nuevoEntorno(t)
	ventaID := e.ventaAceptada(t, "100", model.CondicionContado, nil)
	e.store.mu.Lock()
	v := e.store.ventas[ventaID]
	v.EstadoSunat = model.SunatPendiente
	e.store.ventas[ventaID] = v
	e.store.mu.Unlock()

	_, err := e.emitir(ventaID, model.NotaDevolucionParcial, "10", false)
	assert.ErrorIs(t, err, apperror.ErrSaleNotAccepted)
}

func TestEmitir_TopeDelSaldo(t *testing.T) {
	e := nuevoEntorno(t)
	ventaID := e.ventaAceptada(t, "100", model.CondicionContado, nil)

	resp, err := e.emitir(ventaID, model.NotaDevolucionParcial, "60", false)
	require.NoError(t, err)
	assert.True(t, resp.SaldoDisponible.Equal(dec("40")))
	assert.Equal(t, model.SunatPendiente, resp.EstadoSunat)

	_, err = e.emitir(ventaID, model.NotaDevolucionParcial, "50", false)
	assert.ErrorIs(t, err, apperror.ErrRefundExceeds)

	resp, err = e.emitir(ventaID, model.NotaDescuentoGlobal, "40", false)
	require.NoError(t, err)
	assert.True(t, resp.SaldoDisponible.IsZero())

	_, err = e.emitir(ventaID, model.NotaDescuentoGlobal, "0.01", false)
	assert.ErrorIs(t, err, apperror.ErrRefundExceeds)

	saldo, err := e.nota.SaldoDisponible(context.Background(), e.cajero, ventaID)
	require.NoError(t, err)
	assert.True(t, saldo.TotalDevuelto.Equal(dec("100")))
	assert.True(t, saldo.SaldoDisponible.IsZero())
}

func TestEmitir_NotaRechazadaLiberaSaldo(t *testing.T) {
	e := nuevoEntorno(t)
	ventaID := e.ventaAceptada(t, "100", model.CondicionContado, nil)
	e.notaPrevia(ventaID, model.NotaDevolucionParcial, "100", model.SunatRechazado)

	_, err := e.emitir(ventaID, model.NotaDevolucionParcial, "100", false)
	assert.NoError(t, err)
}

func TestEmitir_VentaAnulada(t *testing.T) {
	e := nuevoEntorno(t)
	ventaID := e.ventaAceptada(t, "100", model.CondicionContado, nil)

	_, err := e.emitir(ventaID, model.NotaAnulacionOperacion, "30", false)
	require.NoError(t, err)

	_, err = e.emitir(ventaID, model.NotaDescuentoItem, "1", false)
	assert.ErrorIs(t, err, apperror.ErrSaleAlreadyAnnulled)

	guia, err := e.nota.VerificarGuiaRemision(context.Background(), e.cajero, ventaID)
	require.NoError(t, err)
	assert.False(t, guia.Permitido)
	assert.Equal(t, string(apperror.KindSaleAlreadyAnnulled), guia.Codigo)
}

func TestEmitir_AnulacionRechazadaNoBloquea(t *testing.T) {
	e := nuevoEntorno(t)
	ventaID := e.ventaAceptada(t, "100", model.CondicionContado, nil)
	e.notaPrevia(ventaID, model.NotaDevolucionTotal, "100", model.SunatRechazado)

	guia, err := e.nota.VerificarGuiaRemision(context.Background(), e.cajero, ventaID)
	require.NoError(t, err)
	assert.True(t, guia.Permitido)

	_, err = e.emitir(ventaID, model.NotaDevolucionItem, "25", false)
	assert.NoError(t, err)
}

func TestEmitir_Concurrente(t *testing.T) {
	e := nuevoEntorno(t)
	ventaID := e.ventaAceptada(t, "100", model.CondicionContado, nil)

	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.emitir(ventaID, model.NotaDevolucionParcial, "30", false)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, apperror.ErrRefundExceeds)
	}
	assert.Equal(t, 3, ok)

	notas, err := fakeNotaRepo{e.store}.ListByVenta(context.Background(), nil, ventaID)
	require.NoError(t, err)
	assert.True(t, totalDevuelto(notas).LessThanOrEqual(dec("100")))
	assert.Equal(t, 4, e.store.ventas[ventaID].Version)
}

func TestEmitir_DevuelveEfectivoEnSesionAbierta(t *testing.T) {
	e := nuevoEntorno(t)
	sesionID := e.abrir(t, "200")
	ventaID := e.ventaAceptada(t, "100", model.CondicionContado, nil)

	resp, err := e.emitir(ventaID, model.NotaDevolucionParcial, "35", true)
	require.NoError(t, err)
	assert.False(t, resp.EfectivoPendiente)
	require.NotNil(t, resp.MovimientoID)

	movs := e.store.movimientosDe(sesionID)
	require.Len(t, movs, 1)
	assert.Equal(t, model.Egreso, movs[0].Tipo)
	assert.Equal(t, model.OrigenNotaCredito, movs[0].Origen)
	assert.Equal(t, model.MetodoEfectivo, movs[0].MetodoPago)
	assert.Equal(t, *resp.MovimientoID, movs[0].ID.String())
	require.NotNil(t, movs[0].NotaCreditoID)
	assert.Equal(t, resp.ID, movs[0].NotaCreditoID.String())

	cierre, err := e.caja.CerrarNormal(context.Background(), e.cajero, sesionID, dto.CerrarCajaRequest{MontoContado: dec("165")})
	require.NoError(t, err)
	assert.Equal(t, model.Cuadrado, cierre.Clasificacion)
}

func TestEmitir_SinSesionElEfectivoQuedaPendiente(t *testing.T) {
	e := nuevoEntorno(t)
	ventaID := e.ventaAceptada(t, "100", model.CondicionContado, nil)

	resp, err := e.emitir(ventaID, model.NotaDevolucionParcial, "35", true)
	require.NoError(t, err)
	assert.True(t, resp.EfectivoPendiente)
	assert.Nil(t, resp.MovimientoID)
}

func TestEmitir_VentaCreditoReduceCuenta(t *testing.T) {
	e := nuevoEntorno(t)
	e.abrir(t, "0")
	clienteID := e.cliente(t, "1000")

	venta, err := e.venta.Registrar(context.Background(), e.cajero, ventaCredito(e.cajaID, clienteID, "300"))
	require.NoError(t, err)
	ventaID := uuid.MustParse(venta.ID)
	e.store.mu.Lock()
	v := e.store.ventas[ventaID]
	v.EstadoSunat = model.SunatAceptado
	e.store.ventas[ventaID] = v
	e.store.mu.Unlock()

	_, err = e.emitir(ventaID, model.NotaDevolucionParcial, "120", true)
	require.NoError(t, err)

	cuenta := e.store.cuenta(uuid.MustParse(*venta.CuentaID))
	assert.True(t, cuenta.SaldoPendiente.Equal(dec("180")))
	assert.Equal(t, model.CuentaPendiente, cuenta.Estado)

	_, err = e.emitir(ventaID, model.NotaDevolucionParcial, "180", false)
	require.NoError(t, err)
	cuenta = e.store.cuenta(uuid.MustParse(*venta.CuentaID))
	assert.True(t, cuenta.SaldoPendiente.IsZero())
	assert.Equal(t, model.CuentaPagada, cuenta.Estado)

	disp, err := e.credit.CreditoDisponible(context.Background(), e.cajero, clienteID)
	require.NoError(t, err)
	assert.True(t, disp.CreditoDisponible.Equal(dec("1000")))
}

func TestPuedeEmitir(t *testing.T) {
	e := nuevoEntorno(t)
	ventaID := e.ventaAceptada(t, "100", model.CondicionContado, nil)
	ctx := context.Background()

	ok, err := e.nota.PuedeEmitir(ctx, e.cajero, ventaID, dec("100"))
	require.NoError(t, err)
	assert.True(t, ok.Permitido)

	no, err := e.nota.PuedeEmitir(ctx, e.cajero, ventaID, dec("100.01"))
	require.NoError(t, err)
	assert.False(t, no.Permitido)
	assert.Equal(t, string(apperror.KindRefundExceedsBalance), no.Codigo)
	assert.NotEmpty(t, no.Motivo)

	_, err = e.nota.PuedeEmitir(ctx, e.cajero, ventaID, decimal.Zero)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = e.nota.PuedeEmitir(ctx, e.cajero, uuid.New(), dec("1"))
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestEmitir_Validaciones(t *testing.T) {
	e := nuevoEntorno(t)
	ventaID := e.ventaAceptada(t, "100", model.CondicionContado, nil)

	_, err := e.emitir(ventaID, "NO_EXISTE", "10", false)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = e.nota.Emitir(context.Background(), e.supervisor, dto.EmitirNotaCreditoRequest{
		VentaID: ventaID.String(), TipoNota: model.NotaOtros, MontoTotal: dec("10"), Motivo: "  ",
	})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = e.emitir(ventaID, model.NotaDescuentoGlobal, "0.005", false)
	assert.Contains(t, campos(t, err), "monto_total")

	_, err = e.nota.PuedeEmitir(context.Background(), e.cajero, ventaID, dec("0.001"))
	assert.Contains(t, campos(t, err), "monto")
	assert.Empty(t, e.store.notas)
}

func TestEvaluarEmision_Orden(t *testing.T) {
	v := &model.Venta{Total: dec("100"), EstadoSunat: model.SunatRechazado}
	anulada := []model.NotaCredito{{TipoNota: model.NotaAnulacionOperacion, MontoTotal: dec("100"), EstadoSunat: model.SunatAceptado}}

	// not accepted wins over annulled and over the ceiling
	assert.ErrorIs(t, evaluarEmision(v, anulada, dec("500")), apperror.ErrSaleNotAccepted)

	v.EstadoSunat = model.SunatAceptado
	assert.ErrorIs(t, evaluarEmision(v, anulada, dec("500")), apperror.ErrSaleAlreadyAnnulled)
	assert.ErrorIs(t, evaluarEmision(v, nil, dec("500")), apperror.ErrRefundExceeds)
	assert.NoError(t, evaluarEmision(v, nil, dec("100")))
}
