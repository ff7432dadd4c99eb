package service

import (
	"context"
	"errors"

	"ferrepos/internal/apperror"
	"ferrepos/internal/dto"
	"ferrepos/internal/model"
	"ferrepos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreditoService answers credit-line questions. The binding check runs again
// inside VentaService.Registrar under the client lock; these reads are advisory.
type CreditoService interface {
	CreditoDisponible(ctx context.Context, actor Actor, clienteID uuid.UUID) (*dto.CreditoDisponibleResponse, error)
	ValidarVentaCredito(ctx context.Context, actor Actor, req dto.ValidarCreditoRequest) (*dto.VerificacionResponse, error)
}

type creditoService struct {
	clientes repository.ClienteRepository
}

func NewCreditoService(clientes repository.ClienteRepository) CreditoService {
	return &creditoService{clientes: clientes}
}

func (s *creditoService) CreditoDisponible(ctx context.Context, actor Actor, clienteID uuid.UUID) (*dto.CreditoDisponibleResponse, error) {
	cliente, cuentas, err := s.cargar(ctx, actor, clienteID)
	if err != nil {
		return nil, err
	}
	pendiente, disponible := creditoDisponible(cliente, cuentas)
	return &dto.CreditoDisponibleResponse{
		ClienteID:         clienteID.String(),
		LimiteCredito:     cliente.LimiteCredito,
		SaldoPendiente:    pendiente,
		CreditoDisponible: disponible,
	}, nil
}

func (s *creditoService) ValidarVentaCredito(ctx context.Context, actor Actor, req dto.ValidarCreditoRequest) (*dto.VerificacionResponse, error) {
	clienteID, err := parseID("cliente_id", req.ClienteID)
	if err != nil {
		return nil, err
	}
	if err := validarMontosCredito(req.Total, req.PagoInicial); err != nil {
		return nil, err
	}
	cliente, cuentas, err := s.cargar(ctx, actor, clienteID)
	if err != nil {
		return nil, err
	}
	err = evaluarCredito(cliente, cuentas, req.Total, req.PagoInicial)
	if errors.Is(err, apperror.ErrValidation) {
		return nil, err
	}
	return verificacion(err)
}

func (s *creditoService) cargar(ctx context.Context, actor Actor, clienteID uuid.UUID) (*model.Cliente, []model.CuentaPorCobrar, error) {
	cliente, err := s.clientes.FindByID(ctx, nil, clienteID)
	if err != nil {
		return nil, nil, notFound(err, "cliente")
	}
	if cliente.TenantID != actor.TenantID {
		return nil, nil, apperror.New(apperror.KindNotFound, "cliente")
	}
	cuentas, err := s.clientes.ListCuentasPendientes(ctx, nil, clienteID)
	if err != nil {
		return nil, nil, err
	}
	return cliente, cuentas, nil
}

// ── Reglas ────────────────────────────────────────────────────────────────────

// creditoDisponible = limite_credito − Σ saldo_pendiente of open receivables.
func creditoDisponible(c *model.Cliente, cuentas []model.CuentaPorCobrar) (pendiente, disponible decimal.Decimal) {
	pendiente = decimal.Zero
	for _, cu := range cuentas {
		if cu.Abierta() {
			pendiente = pendiente.Add(cu.SaldoPendiente)
		}
	}
	return pendiente, c.LimiteCredito.Sub(pendiente)
}

// evaluarCredito returns nil when the financed part of the sale fits the
// client's available credit. A client without a credit line is rejected before
// the amounts are looked at.
func evaluarCredito(c *model.Cliente, cuentas []model.CuentaPorCobrar, total, pagoInicial decimal.Decimal) error {
	if !c.LimiteCredito.IsPositive() {
		return apperror.New(apperror.KindCreditLimitExceeded, "el cliente no tiene línea de crédito")
	}
	if pagoInicial.GreaterThanOrEqual(total) {
		return apperror.Validation(map[string]string{"pago_inicial": "debe ser menor al total"})
	}
	_, disponible := creditoDisponible(c, cuentas)
	financiado := total.Sub(pagoInicial)
	if financiado.GreaterThan(disponible) {
		return apperror.New(apperror.KindCreditLimitExceeded,
			"excede el crédito disponible de S/ "+disponible.StringFixed(2))
	}
	return nil
}

func validarMontosCredito(total, pagoInicial decimal.Decimal) error {
	fields := map[string]string{}
	switch {
	case !total.IsPositive():
		fields["total"] = "debe ser mayor a cero"
	case !enCentimos(total):
		fields["total"] = msgCentimos
	}
	switch {
	case pagoInicial.IsNegative():
		fields["pago_inicial"] = "no puede ser negativo"
	case !enCentimos(pagoInicial):
		fields["pago_inicial"] = msgCentimos
	}
	if len(fields) > 0 {
		return apperror.Validation(fields)
	}
	return nil
}

// verificacion turns a guard error into a {permitido, motivo} answer. Errors
// outside the guard kinds are returned as errors.
func verificacion(err error) (*dto.VerificacionResponse, error) {
	if err == nil {
		return &dto.VerificacionResponse{Permitido: true}, nil
	}
	var ae *apperror.Error
	if !errors.As(err, &ae) || ae.Kind == apperror.KindInternal {
		return nil, err
	}
	return &dto.VerificacionResponse{
		Permitido: false,
		Motivo:    ae.Error(),
		Codigo:    string(ae.Kind),
	}, nil
}
