package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type ValidarCreditoRequest struct {
	ClienteID   string          `json:"cliente_id"   validate:"required,uuid"`
	Total       decimal.Decimal `json:"total"        validate:"gt=0"`
	PagoInicial decimal.Decimal `json:"pago_inicial" validate:"min=0"`
}

type CreditoDisponibleResponse struct {
	ClienteID         string          `json:"cliente_id"`
	LimiteCredito     decimal.Decimal `json:"limite_credito"`
	SaldoPendiente    decimal.Decimal `json:"saldo_pendiente"`
	CreditoDisponible decimal.Decimal `json:"credito_disponible"`
}

type RegistrarPagoRequest struct {
	CajaID     string          `json:"caja_id"     validate:"required,uuid"`
	Monto      decimal.Decimal `json:"monto"       validate:"gt=0"`
	MetodoPago string          `json:"metodo_pago" validate:"required,oneof=EFECTIVO TARJETA YAPE PLIN TRANSFERENCIA DEPOSITO CHEQUE"`
}

type CuentaPorCobrarResponse struct {
	ID               string          `json:"id"`
	ClienteID        string          `json:"cliente_id"`
	VentaID          string          `json:"venta_id"`
	MontoOriginal    decimal.Decimal `json:"monto_original"`
	SaldoPendiente   decimal.Decimal `json:"saldo_pendiente"`
	Estado           string          `json:"estado"`
	FechaVencimiento time.Time       `json:"fecha_vencimiento"`
}

type PagoCuentaResponse struct {
	ID           string                  `json:"id"`
	Cuenta       CuentaPorCobrarResponse `json:"cuenta"`
	Monto        decimal.Decimal         `json:"monto"`
	MetodoPago   string                  `json:"metodo_pago"`
	MovimientoID string                  `json:"movimiento_id"`
	CreatedAt    time.Time               `json:"created_at"`
}
