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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type VentaService interface {
	Registrar(ctx context.Context, actor Actor, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error)
	Obtener(ctx context.Context, actor Actor, id uuid.UUID) (*dto.VentaResponse, error)
}

type ventaService struct {
	ventas     repository.VentaRepository
	cajas      repository.CajaRepository
	clientes   repository.ClienteRepository
	locker     infra.Locker
	reintentos int
	reloj      reloj
}

func NewVentaService(
	ventas repository.VentaRepository,
	cajas repository.CajaRepository,
	clientes repository.ClienteRepository,
	locker infra.Locker,
	reintentos int,
) VentaService {
	return &ventaService{
		ventas:     ventas,
		cajas:      cajas,
		clientes:   clientes,
		locker:     locker,
		reintentos: reintentos,
	}
}

// ── Registrar ─────────────────────────────────────────────────────────────────
// One transaction:
//   1. Re-check the register session is OPEN (under its lock)
//   2. CREDITO: check the credit line under the client lock, create the receivable
//   3. Create the sale
//   4. Journal one INGRESO per payment (capped at the total; change is not ledgered)

func (s *ventaService) Registrar(ctx context.Context, actor Actor, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error) {
	cajaID, err := parseID("caja_id", req.CajaID)
	if err != nil {
		return nil, err
	}
	clienteID, err := parseOptID("cliente_id", req.ClienteID)
	if err != nil {
		return nil, err
	}
	totalPagos, err := validarVenta(req, clienteID)
	if err != nil {
		return nil, err
	}

	sesion, err := s.cajas.FindSesionAbierta(ctx, nil, cajaID)
	if err != nil || sesion.TenantID != actor.TenantID {
		if err == nil || repository.IsNotFound(err) {
			return nil, apperror.New(apperror.KindRequiresSessionOpen, cajaID.String())
		}
		return nil, err
	}

	keys := []string{keySesion(sesion.ID)}
	credito := req.CondicionPago == model.CondicionCredito
	if credito {
		keys = append(keys, keyCliente(*clienteID))
	}
	unlock, err := lockAll(ctx, s.locker, keys...)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var venta *model.Venta
	var cuentaID *uuid.UUID
	err = ConReintento(ctx, s.reintentos, func() error {
		return runTx(ctx, s.cajas.DB(), func(tx *gorm.DB) error {
			ses, err := s.cajas.FindSesionForUpdate(ctx, tx, sesion.ID)
			if err != nil {
				return err
			}
			if !ses.Abierta() {
				return apperror.New(apperror.KindRequiresSessionOpen, cajaID.String())
			}

			ahora := s.reloj.ahora()
			venta = &model.Venta{
				ID:            uuid.New(),
				TenantID:      actor.TenantID,
				CajaID:        cajaID,
				SesionCajaID:  ses.ID,
				UsuarioID:     actor.UsuarioID,
				ClienteID:     clienteID,
				Serie:         req.Serie,
				Total:         req.Total,
				CondicionPago: req.CondicionPago,
				PagoInicial:   decimal.Zero,
				EstadoSunat:   model.SunatPendiente,
				Version:       1,
				CreatedAt:     ahora,
			}

			var cliente *model.Cliente
			if credito {
				venta.PagoInicial = totalPagos
				cliente, err = s.clientes.FindForUpdate(ctx, tx, *clienteID)
				if err != nil {
					return notFound(err, "cliente")
				}
				if cliente.TenantID != actor.TenantID {
					return apperror.New(apperror.KindNotFound, "cliente")
				}
				cuentas, err := s.clientes.ListCuentasPendientes(ctx, tx, cliente.ID)
				if err != nil {
					return err
				}
				if err := evaluarCredito(cliente, cuentas, req.Total, totalPagos); err != nil {
					return err
				}
			}

			if err := s.ventas.Create(ctx, tx, venta); err != nil {
				return fmt.Errorf("crear venta: %w", err)
			}

			if credito {
				cuenta := &model.CuentaPorCobrar{
					ID:               uuid.New(),
					TenantID:         actor.TenantID,
					ClienteID:        cliente.ID,
					VentaID:          venta.ID,
					MontoOriginal:    req.Total.Sub(totalPagos),
					SaldoPendiente:   req.Total.Sub(totalPagos),
					Estado:           model.CuentaPendiente,
					FechaVencimiento: ahora.AddDate(0, 0, cliente.DiasCredito),
				}
				if err := s.clientes.CreateCuenta(ctx, tx, cuenta); err != nil {
					return fmt.Errorf("crear cuenta por cobrar: %w", err)
				}
				if err := s.clientes.BumpVersion(ctx, tx, cliente.ID, cliente.Version); err != nil {
					return versionConflict(err, "cliente")
				}
				cuentaID = &cuenta.ID
			}

			restante := req.Total
			if credito {
				restante = totalPagos
			}
			for _, p := range req.Pagos {
				monto := decimal.Min(p.Monto, restante)
				if !monto.IsPositive() {
					break
				}
				restante = restante.Sub(monto)
				mov := &model.MovimientoCaja{
					Tipo:        model.Ingreso,
					Monto:       monto,
					MetodoPago:  p.MetodoPago,
					Descripcion: descripcionVenta(venta),
					Origen:      model.OrigenVenta,
					VentaID:     &venta.ID,
					UsuarioID:   actor.UsuarioID,
					CreatedAt:   ahora,
				}
				if err := registrarMovimiento(ctx, s.cajas, tx, ses, mov); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("venta_id", venta.ID.String()).
		Str("condicion_pago", venta.CondicionPago).
		Str("total", venta.Total.StringFixed(2)).
		Msg("venta registrada")

	resp := ventaResponse(venta)
	if !credito {
		resp.Vuelto = totalPagos.Sub(req.Total)
	}
	resp.CuentaID = idPtr(cuentaID)
	return resp, nil
}

func (s *ventaService) Obtener(ctx context.Context, actor Actor, id uuid.UUID) (*dto.VentaResponse, error) {
	v, err := s.ventas.FindByID(ctx, nil, id)
	if err != nil {
		return nil, notFound(err, "venta")
	}
	if v.TenantID != actor.TenantID {
		return nil, apperror.New(apperror.KindNotFound, "venta")
	}
	return ventaResponse(v), nil
}

// validarVenta checks the request shape and returns Σ pagos.
func validarVenta(req dto.RegistrarVentaRequest, clienteID *uuid.UUID) (decimal.Decimal, error) {
	fields := map[string]string{}
	switch {
	case !req.Total.IsPositive():
		fields["total"] = "debe ser mayor a cero"
	case !enCentimos(req.Total):
		fields["total"] = msgCentimos
	}
	totalPagos := decimal.Zero
	for i, p := range req.Pagos {
		switch {
		case !p.Monto.IsPositive():
			fields[fmt.Sprintf("pagos[%d].monto", i)] = "debe ser mayor a cero"
		case !enCentimos(p.Monto):
			fields[fmt.Sprintf("pagos[%d].monto", i)] = msgCentimos
		}
		if !contiene(model.MetodosPago, p.MetodoPago) {
			fields[fmt.Sprintf("pagos[%d].metodo_pago", i)] = "método de pago no soportado"
		}
		totalPagos = totalPagos.Add(p.Monto)
	}
	switch req.CondicionPago {
	case model.CondicionContado:
		if totalPagos.LessThan(req.Total) {
			fields["pagos"] = "el monto total de pagos es insuficiente"
		}
	case model.CondicionCredito:
		// pago inicial < total is checked with the client, after its credit line
		if clienteID == nil {
			fields["cliente_id"] = "obligatorio para ventas al crédito"
		}
	default:
		fields["condicion_pago"] = "debe ser CONTADO o CREDITO"
	}
	if len(fields) > 0 {
		return decimal.Zero, apperror.Validation(fields)
	}
	return totalPagos, nil
}

func descripcionVenta(v *model.Venta) string {
	if v.Serie != "" {
		return "Venta " + v.Serie + " " + v.ID.String()[:8]
	}
	return "Venta " + v.ID.String()[:8]
}

func ventaResponse(v *model.Venta) *dto.VentaResponse {
	return &dto.VentaResponse{
		ID:            v.ID.String(),
		CajaID:        v.CajaID.String(),
		SesionCajaID:  v.SesionCajaID.String(),
		ClienteID:     idPtr(v.ClienteID),
		Serie:         v.Serie,
		Total:         v.Total,
		CondicionPago: v.CondicionPago,
		PagoInicial:   v.PagoInicial,
		Vuelto:        decimal.Zero,
		EstadoSunat:   v.EstadoSunat,
		CreatedAt:     v.CreatedAt,
	}
}
