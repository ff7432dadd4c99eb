package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"ferrepos/internal/apperror"
	"ferrepos/internal/dto"
	"ferrepos/internal/infra"
	"ferrepos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// entorno wires every service against one in-memory store and one locker, the
// way the router does against Postgres.
type entorno struct {
	store  *memStore
	notif  *fakeNotificador
	caja   CajaService
	venta  VentaService
	nota   NotaCreditoService
	credit CreditoService
	cuenta CuentaService

	tenant     uuid.UUID
	cajaID     uuid.UUID
	cajero     Actor
	otroCajero Actor
	supervisor Actor
}

func nuevoEntorno(t *testing.T) *entorno {
	t.Helper()
	store := newMemStore()
	notif := &fakeNotificador{}
	locker := infra.NewLocalLocker(5 * time.Second)

	cajas := fakeCajaRepo{store}
	ventas := fakeVentaRepo{store}
	notas := fakeNotaRepo{store}
	clientes := fakeClienteRepo{store}

	tenant := uuid.New()
	cajaID := uuid.New()
	store.cajas[cajaID] = model.Caja{ID: cajaID, TenantID: tenant, Nombre: "Caja 1", Activa: true}

	return &entorno{
		store:  store,
		notif:  notif,
		caja:   NewCajaService(cajas, locker, notif),
		venta:  NewVentaService(ventas, cajas, clientes, locker, 3),
		nota:   NewNotaCreditoService(notas, ventas, cajas, clientes, locker, 3),
		credit: NewCreditoService(clientes),
		cuenta: NewCuentaService(clientes, cajas, locker, 3),

		tenant:     tenant,
		cajaID:     cajaID,
		cajero:     Actor{UsuarioID: uuid.New(), TenantID: tenant},
		otroCajero: Actor{UsuarioID: uuid.New(), TenantID: tenant},
		supervisor: Actor{UsuarioID: uuid.New(), TenantID: tenant, EsSupervisor: true},
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// campos returns the per-field failures of a validation error.
func campos(t *testing.T, err error) map[string]string {
	t.Helper()
	var ae *apperror.Error
	require.True(t, errors.As(err, &ae), "error %v", err)
	require.Equal(t, apperror.KindValidation, ae.Kind)
	return ae.Fields
}

func (e *entorno) abrir(t *testing.T, apertura string) uuid.UUID {
	t.Helper()
	resp, err := e.caja.Abrir(context.Background(), e.cajero, dto.AbrirCajaRequest{
		CajaID:        e.cajaID.String(),
		MontoApertura: dec(apertura),
	})
	require.NoError(t, err)
	return uuid.MustParse(resp.ID)
}

func (e *entorno) manual(t *testing.T, sesionID uuid.UUID, tipo, monto string) {
	t.Helper()
	_, err := e.caja.AgregarMovimiento(context.Background(), e.cajero, sesionID, dto.MovimientoRequest{
		Tipo:        tipo,
		Monto:       dec(monto),
		MetodoPago:  model.MetodoEfectivo,
		Descripcion: "ajuste manual de prueba",
	})
	require.NoError(t, err)
}

// ventaAceptada seeds a sale SUNAT already accepted, ready for credit notes.
func (e *entorno) ventaAceptada(t *testing.T, total string, condicion string, clienteID *uuid.UUID) uuid.UUID {
	t.Helper()
	v := model.Venta{
		ID:            uuid.New(),
		TenantID:      e.tenant,
		CajaID:        e.cajaID,
		SesionCajaID:  uuid.New(),
		UsuarioID:     e.cajero.UsuarioID,
		ClienteID:     clienteID,
		Total:         dec(total),
		CondicionPago: condicion,
		PagoInicial:   decimal.Zero,
		EstadoSunat:   model.SunatAceptado,
		Version:       1,
		CreatedAt:     time.Now(),
	}
	e.store.mu.Lock()
	e.store.ventas[v.ID] = v
	e.store.mu.Unlock()
	return v.ID
}

func (e *entorno) cliente(t *testing.T, limite string) uuid.UUID {
	t.Helper()
	c := model.Cliente{
		ID:            uuid.New(),
		TenantID:      e.tenant,
		Nombre:        "Constructora Los Andes SAC",
		LimiteCredito: dec(limite),
		DiasCredito:   30,
		Version:       1,
	}
	e.store.mu.Lock()
	e.store.clientes[c.ID] = c
	e.store.mu.Unlock()
	return c.ID
}

// emitir issues a credit note as the supervisor.
func (e *entorno) emitir(ventaID uuid.UUID, tipo, monto string, efectivo bool) (*dto.NotaCreditoResponse, error) {
	return e.nota.Emitir(context.Background(), e.supervisor, dto.EmitirNotaCreditoRequest{
		VentaID:          ventaID.String(),
		TipoNota:         tipo,
		MontoTotal:       dec(monto),
		Motivo:           "devolución de mercadería",
		DevolverEfectivo: efectivo,
	})
}
