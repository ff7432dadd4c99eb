package service

import (
	"context"
	"fmt"

	"ferrepos/internal/apperror"
	"ferrepos/internal/dto"
	"ferrepos/internal/infra"
	"ferrepos/internal/model"
	"ferrepos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// CuentaService collects payments on credit-sale receivables.
type CuentaService interface {
	RegistrarPago(ctx context.Context, actor Actor, cuentaID uuid.UUID, req dto.RegistrarPagoRequest) (*dto.PagoCuentaResponse, error)
	ListarPendientes(ctx context.Context, actor Actor, clienteID uuid.UUID) ([]dto.CuentaPorCobrarResponse, error)
}

type cuentaService struct {
	clientes   repository.ClienteRepository
	cajas      repository.CajaRepository
	locker     infra.Locker
	reintentos int
	reloj      reloj
}

func NewCuentaService(clientes repository.ClienteRepository, cajas repository.CajaRepository, locker infra.Locker, reintentos int) CuentaService {
	return &cuentaService{clientes: clientes, cajas: cajas, locker: locker, reintentos: reintentos}
}

func (s *cuentaService) RegistrarPago(ctx context.Context, actor Actor, cuentaID uuid.UUID, req dto.RegistrarPagoRequest) (*dto.PagoCuentaResponse, error) {
	cajaID, err := parseID("caja_id", req.CajaID)
	if err != nil {
		return nil, err
	}
	fields := map[string]string{}
	switch {
	case !req.Monto.IsPositive():
		fields["monto"] = "debe ser mayor a cero"
	case !enCentimos(req.Monto):
		fields["monto"] = msgCentimos
	}
	if !contiene(model.MetodosPago, req.MetodoPago) {
		fields["metodo_pago"] = "método de pago no soportado"
	}
	if len(fields) > 0 {
		return nil, apperror.Validation(fields)
	}

	cuenta, err := s.clientes.FindCuentaByID(ctx, nil, cuentaID)
	if err != nil {
		return nil, notFound(err, "cuenta por cobrar")
	}
	if cuenta.TenantID != actor.TenantID {
		return nil, apperror.New(apperror.KindNotFound, "cuenta por cobrar")
	}
	sesion, err := s.cajas.FindSesionAbierta(ctx, nil, cajaID)
	if err != nil || sesion.TenantID != actor.TenantID {
		if err == nil || repository.IsNotFound(err) {
			return nil, apperror.New(apperror.KindRequiresSessionOpen, cajaID.String())
		}
		return nil, err
	}

	unlock, err := lockAll(ctx, s.locker, keySesion(sesion.ID), keyCliente(cuenta.ClienteID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var pago *model.PagoCuenta
	var mov *model.MovimientoCaja
	var actual *model.CuentaPorCobrar
	err = ConReintento(ctx, s.reintentos, func() error {
		return runTx(ctx, s.cajas.DB(), func(tx *gorm.DB) error {
			ses, err := s.cajas.FindSesionForUpdate(ctx, tx, sesion.ID)
			if err != nil {
				return err
			}
			if !ses.Abierta() {
				return apperror.New(apperror.KindRequiresSessionOpen, cajaID.String())
			}
			cliente, err := s.clientes.FindForUpdate(ctx, tx, cuenta.ClienteID)
			if err != nil {
				return notFound(err, "cliente")
			}
			actual, err = s.clientes.FindCuentaByID(ctx, tx, cuentaID)
			if err != nil {
				return notFound(err, "cuenta por cobrar")
			}
			if !actual.Abierta() {
				return apperror.Validation(map[string]string{"cuenta": "la cuenta ya está pagada"})
			}
			if req.Monto.GreaterThan(actual.SaldoPendiente) {
				return apperror.Validation(map[string]string{
					"monto": "excede el saldo pendiente de S/ " + actual.SaldoPendiente.StringFixed(2),
				})
			}

			ahora := s.reloj.ahora()
			pago = &model.PagoCuenta{
				ID:                uuid.New(),
				TenantID:          actor.TenantID,
				CuentaPorCobrarID: actual.ID,
				SesionCajaID:      ses.ID,
				Monto:             req.Monto,
				MetodoPago:        req.MetodoPago,
				UsuarioID:         actor.UsuarioID,
				CreatedAt:         ahora,
			}
			if err := s.clientes.CreatePago(ctx, tx, pago); err != nil {
				return fmt.Errorf("crear pago: %w", err)
			}
			mov = &model.MovimientoCaja{
				Tipo:        model.Ingreso,
				Monto:       req.Monto,
				MetodoPago:  req.MetodoPago,
				Descripcion: "Cobranza cuenta " + actual.ID.String()[:8],
				Origen:      model.OrigenPago,
				PagoID:      &pago.ID,
				UsuarioID:   actor.UsuarioID,
				CreatedAt:   ahora,
			}
			if err := registrarMovimiento(ctx, s.cajas, tx, ses, mov); err != nil {
				return err
			}

			actual.SaldoPendiente = actual.SaldoPendiente.Sub(req.Monto)
			if actual.SaldoPendiente.IsZero() {
				actual.Estado = model.CuentaPagada
			}
			if err := s.clientes.UpdateSaldoCuenta(ctx, tx, actual); err != nil {
				return err
			}
			return versionConflict(s.clientes.BumpVersion(ctx, tx, cliente.ID, cliente.Version), "cliente")
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("cuenta_id", cuentaID.String()).
		Str("monto", req.Monto.StringFixed(2)).
		Str("saldo", actual.SaldoPendiente.StringFixed(2)).
		Msg("pago de cuenta registrado")

	return &dto.PagoCuentaResponse{
		ID:           pago.ID.String(),
		Cuenta:       cuentaResponse(*actual),
		Monto:        pago.Monto,
		MetodoPago:   pago.MetodoPago,
		MovimientoID: mov.ID.String(),
		CreatedAt:    pago.CreatedAt,
	}, nil
}

func (s *cuentaService) ListarPendientes(ctx context.Context, actor Actor, clienteID uuid.UUID) ([]dto.CuentaPorCobrarResponse, error) {
	cliente, err := s.clientes.FindByID(ctx, nil, clienteID)
	if err != nil {
		return nil, notFound(err, "cliente")
	}
	if cliente.TenantID != actor.TenantID {
		return nil, apperror.New(apperror.KindNotFound, "cliente")
	}
	cuentas, err := s.clientes.ListCuentasPendientes(ctx, nil, clienteID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CuentaPorCobrarResponse, 0, len(cuentas))
	for _, c := range cuentas {
		out = append(out, cuentaResponse(c))
	}
	return out, nil
}

func cuentaResponse(c model.CuentaPorCobrar) dto.CuentaPorCobrarResponse {
	return dto.CuentaPorCobrarResponse{
		ID:               c.ID.String(),
		ClienteID:        c.ClienteID.String(),
		VentaID:          c.VentaID.String(),
		MontoOriginal:    c.MontoOriginal,
		SaldoPendiente:   c.SaldoPendiente,
		Estado:           c.Estado,
		FechaVencimiento: c.FechaVencimiento,
	}
}
