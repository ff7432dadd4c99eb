package service

import (
	"context"
	"fmt"
	"strings"

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

type NotaCreditoService interface {
	SaldoDisponible(ctx context.Context, actor Actor, ventaID uuid.UUID) (*dto.SaldoVentaResponse, error)
	PuedeEmitir(ctx context.Context, actor Actor, ventaID uuid.UUID, monto decimal.Decimal) (*dto.VerificacionResponse, error)
	Emitir(ctx context.Context, actor Actor, req dto.EmitirNotaCreditoRequest) (*dto.NotaCreditoResponse, error)
	VerificarGuiaRemision(ctx context.Context, actor Actor, ventaID uuid.UUID) (*dto.VerificacionResponse, error)
}

type notaCreditoService struct {
	notas      repository.NotaCreditoRepository
	ventas     repository.VentaRepository
	cajas      repository.CajaRepository
	clientes   repository.ClienteRepository
	locker     infra.Locker
	reintentos int
	reloj      reloj
}

func NewNotaCreditoService(
	notas repository.NotaCreditoRepository,
	ventas repository.VentaRepository,
	cajas repository.CajaRepository,
	clientes repository.ClienteRepository,
	locker infra.Locker,
	reintentos int,
) NotaCreditoService {
	return &notaCreditoService{
		notas:      notas,
		ventas:     ventas,
		cajas:      cajas,
		clientes:   clientes,
		locker:     locker,
		reintentos: reintentos,
	}
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *notaCreditoService) SaldoDisponible(ctx context.Context, actor Actor, ventaID uuid.UUID) (*dto.SaldoVentaResponse, error) {
	venta, notas, err := s.cargar(ctx, nil, actor, ventaID)
	if err != nil {
		return nil, err
	}
	devuelto := totalDevuelto(notas)
	return &dto.SaldoVentaResponse{
		VentaID:         ventaID.String(),
		Total:           venta.Total,
		TotalDevuelto:   devuelto,
		SaldoDisponible: venta.Total.Sub(devuelto),
	}, nil
}

func (s *notaCreditoService) PuedeEmitir(ctx context.Context, actor Actor, ventaID uuid.UUID, monto decimal.Decimal) (*dto.VerificacionResponse, error) {
	if !monto.IsPositive() {
		return nil, apperror.Validation(map[string]string{"monto": "debe ser mayor a cero"})
	}
	if !enCentimos(monto) {
		return nil, apperror.Validation(map[string]string{"monto": msgCentimos})
	}
	venta, notas, err := s.cargar(ctx, nil, actor, ventaID)
	if err != nil {
		return nil, err
	}
	return verificacion(evaluarEmision(venta, notas, monto))
}

// VerificarGuiaRemision refuses a dispatch guide for a sale that was annulled
// or fully returned.
func (s *notaCreditoService) VerificarGuiaRemision(ctx context.Context, actor Actor, ventaID uuid.UUID) (*dto.VerificacionResponse, error) {
	_, notas, err := s.cargar(ctx, nil, actor, ventaID)
	if err != nil {
		return nil, err
	}
	return verificacion(verificarExtincion(notas))
}

// ── Emitir ────────────────────────────────────────────────────────────────────
// Check and issue are one critical section per sale: venta lock, row lock on
// the sale, and a version bump that makes a concurrent issuer on another
// instance fail and re-check against fresh data.

func (s *notaCreditoService) Emitir(ctx context.Context, actor Actor, req dto.EmitirNotaCreditoRequest) (*dto.NotaCreditoResponse, error) {
	ventaID, err := parseID("venta_id", req.VentaID)
	if err != nil {
		return nil, err
	}
	cajaID, err := parseOptID("caja_id", req.CajaID)
	if err != nil {
		return nil, err
	}
	if err := validarNota(req); err != nil {
		return nil, err
	}

	venta, _, err := s.cargar(ctx, nil, actor, ventaID)
	if err != nil {
		return nil, err
	}
	if cajaID == nil {
		cajaID = &venta.CajaID
	}
	reembolso := req.DevolverEfectivo && venta.CondicionPago == model.CondicionContado

	var keys []string
	var sesionID *uuid.UUID
	if reembolso {
		if ses, err := s.cajas.FindSesionAbierta(ctx, nil, *cajaID); err == nil && ses.TenantID == actor.TenantID {
			sesionID = &ses.ID
			keys = append(keys, keySesion(ses.ID))
		} else if err != nil && !repository.IsNotFound(err) {
			return nil, err
		}
	}
	if venta.CondicionPago == model.CondicionCredito && venta.ClienteID != nil {
		keys = append(keys, keyCliente(*venta.ClienteID))
	}
	keys = append(keys, keyVenta(ventaID))

	unlock, err := lockAll(ctx, s.locker, keys...)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var nota *model.NotaCredito
	var saldo decimal.Decimal
	var pendiente bool
	err = ConReintento(ctx, s.reintentos, func() error {
		pendiente = false
		return runTx(ctx, s.ventas.DB(), func(tx *gorm.DB) error {
			v, notas, err := s.cargarParaEmitir(ctx, tx, actor, ventaID)
			if err != nil {
				return err
			}
			if err := evaluarEmision(v, notas, req.MontoTotal); err != nil {
				return err
			}

			ahora := s.reloj.ahora()
			nota = &model.NotaCredito{
				ID:               uuid.New(),
				TenantID:         actor.TenantID,
				VentaID:          v.ID,
				CajaID:           *cajaID,
				UsuarioID:        actor.UsuarioID,
				TipoNota:         req.TipoNota,
				MontoTotal:       req.MontoTotal,
				Motivo:           strings.TrimSpace(req.Motivo),
				EstadoSunat:      model.SunatPendiente,
				DevolverStock:    req.DevolverStock,
				DevolverEfectivo: req.DevolverEfectivo,
				CreatedAt:        ahora,
			}

			var mov *model.MovimientoCaja
			var ses *model.SesionCaja
			if reembolso {
				if sesionID != nil {
					ses, err = s.cajas.FindSesionForUpdate(ctx, tx, *sesionID)
					if err != nil {
						return err
					}
				}
				if ses != nil && ses.Abierta() {
					mov = &model.MovimientoCaja{
						ID:            uuid.New(),
						Tipo:          model.Egreso,
						Monto:         req.MontoTotal,
						MetodoPago:    model.MetodoEfectivo,
						Descripcion:   "Devolución nota de crédito " + nota.ID.String()[:8],
						Origen:        model.OrigenNotaCredito,
						NotaCreditoID: &nota.ID,
						UsuarioID:     actor.UsuarioID,
						CreatedAt:     ahora,
					}
					nota.MovimientoID = &mov.ID
				} else {
					pendiente = true
				}
			}

			if err := s.notas.Create(ctx, tx, nota); err != nil {
				return fmt.Errorf("crear nota de crédito: %w", err)
			}
			if err := s.ventas.BumpVersion(ctx, tx, v.ID, v.Version); err != nil {
				return versionConflict(err, "venta")
			}
			if mov != nil {
				if err := registrarMovimiento(ctx, s.cajas, tx, ses, mov); err != nil {
					return err
				}
			}
			if v.CondicionPago == model.CondicionCredito {
				if err := s.reducirCuenta(ctx, tx, v, req.MontoTotal); err != nil {
					return err
				}
			}
			saldo = v.Total.Sub(totalDevuelto(notas)).Sub(req.MontoTotal)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("nota_credito_id", nota.ID.String()).
		Str("venta_id", ventaID.String()).
		Str("monto", nota.MontoTotal.StringFixed(2)).
		Bool("efectivo_pendiente", pendiente).
		Msg("nota de crédito emitida")

	return &dto.NotaCreditoResponse{
		ID:                nota.ID.String(),
		VentaID:           nota.VentaID.String(),
		CajaID:            nota.CajaID.String(),
		TipoNota:          nota.TipoNota,
		MontoTotal:        nota.MontoTotal,
		Motivo:            nota.Motivo,
		EstadoSunat:       nota.EstadoSunat,
		DevolverStock:     nota.DevolverStock,
		DevolverEfectivo:  nota.DevolverEfectivo,
		MovimientoID:      idPtr(nota.MovimientoID),
		EfectivoPendiente: pendiente,
		SaldoDisponible:   saldo,
		CreatedAt:         nota.CreatedAt,
	}, nil
}

// reducirCuenta lowers the receivable of a credit sale by min(monto, saldo).
func (s *notaCreditoService) reducirCuenta(ctx context.Context, tx *gorm.DB, v *model.Venta, monto decimal.Decimal) error {
	cuenta, err := s.clientes.FindCuentaByVenta(ctx, tx, v.ID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil
		}
		return err
	}
	if !cuenta.Abierta() {
		return nil
	}
	cuenta.SaldoPendiente = cuenta.SaldoPendiente.Sub(decimal.Min(monto, cuenta.SaldoPendiente))
	if cuenta.SaldoPendiente.IsZero() {
		cuenta.Estado = model.CuentaPagada
	}
	if err := s.clientes.UpdateSaldoCuenta(ctx, tx, cuenta); err != nil {
		return err
	}
	cliente, err := s.clientes.FindForUpdate(ctx, tx, cuenta.ClienteID)
	if err != nil {
		return err
	}
	return versionConflict(s.clientes.BumpVersion(ctx, tx, cliente.ID, cliente.Version), "cliente")
}

func (s *notaCreditoService) cargar(ctx context.Context, tx *gorm.DB, actor Actor, ventaID uuid.UUID) (*model.Venta, []model.NotaCredito, error) {
	venta, err := s.ventas.FindByID(ctx, tx, ventaID)
	if err != nil {
		return nil, nil, notFound(err, "venta")
	}
	if venta.TenantID != actor.TenantID {
		return nil, nil, apperror.New(apperror.KindNotFound, "venta")
	}
	notas, err := s.notas.ListByVenta(ctx, tx, ventaID)
	if err != nil {
		return nil, nil, err
	}
	return venta, notas, nil
}

func (s *notaCreditoService) cargarParaEmitir(ctx context.Context, tx *gorm.DB, actor Actor, ventaID uuid.UUID) (*model.Venta, []model.NotaCredito, error) {
	venta, err := s.ventas.FindForUpdate(ctx, tx, ventaID)
	if err != nil {
		return nil, nil, notFound(err, "venta")
	}
	if venta.TenantID != actor.TenantID {
		return nil, nil, apperror.New(apperror.KindNotFound, "venta")
	}
	notas, err := s.notas.ListByVenta(ctx, tx, ventaID)
	if err != nil {
		return nil, nil, err
	}
	return venta, notas, nil
}

// ── Reglas ────────────────────────────────────────────────────────────────────

// totalDevuelto sums notes that are accepted or still pending. Rejected notes
// free their amount again.
func totalDevuelto(notas []model.NotaCredito) decimal.Decimal {
	total := decimal.Zero
	for _, n := range notas {
		if n.Vigente() {
			total = total.Add(n.MontoTotal)
		}
	}
	return total
}

// evaluarEmision applies, in order: sale accepted by SUNAT, sale not already
// annulled or fully returned, amount within the available balance.
func evaluarEmision(v *model.Venta, notas []model.NotaCredito, monto decimal.Decimal) error {
	if v.EstadoSunat != model.SunatAceptado {
		return apperror.New(apperror.KindSaleNotAccepted, "estado SUNAT "+v.EstadoSunat)
	}
	if err := verificarExtincion(notas); err != nil {
		return err
	}
	disponible := v.Total.Sub(totalDevuelto(notas))
	if monto.GreaterThan(disponible) {
		return apperror.New(apperror.KindRefundExceedsBalance, "disponible S/ "+disponible.StringFixed(2))
	}
	return nil
}

func verificarExtincion(notas []model.NotaCredito) error {
	for _, n := range notas {
		if n.Vigente() && n.Extingue() {
			return apperror.New(apperror.KindSaleAlreadyAnnulled, n.TipoNota)
		}
	}
	return nil
}

func validarNota(req dto.EmitirNotaCreditoRequest) error {
	fields := map[string]string{}
	switch {
	case !req.MontoTotal.IsPositive():
		fields["monto_total"] = "debe ser mayor a cero"
	case !enCentimos(req.MontoTotal):
		fields["monto_total"] = msgCentimos
	}
	if !contiene(model.TiposNota, req.TipoNota) {
		fields["tipo_nota"] = "tipo de nota no soportado"
	}
	if strings.TrimSpace(req.Motivo) == "" {
		fields["motivo"] = "es obligatorio"
	}
	if len(fields) > 0 {
		return apperror.Validation(fields)
	}
	return nil
}
