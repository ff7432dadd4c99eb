package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type PagoRequest struct {
	MetodoPago string          `json:"metodo_pago" validate:"required,oneof=EFECTIVO TARJETA YAPE PLIN TRANSFERENCIA DEPOSITO CHEQUE"`
	Monto      decimal.Decimal `json:"monto"       validate:"gt=0"`
}

// RegistrarVentaRequest registers the financial side of a sale. For CREDITO
// sales the payments are the initial payment and must be below the total.
type RegistrarVentaRequest struct {
	CajaID        string          `json:"caja_id"        validate:"required,uuid"`
	ClienteID     *string         `json:"cliente_id"     validate:"omitempty,uuid"`
	Serie         string          `json:"serie"          validate:"omitempty,max=4"`
	Total         decimal.Decimal `json:"total"          validate:"gt=0"`
	CondicionPago string          `json:"condicion_pago" validate:"required,oneof=CONTADO CREDITO"`
	Pagos         []PagoRequest   `json:"pagos"          validate:"dive"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type VentaResponse struct {
	ID            string          `json:"id"`
	CajaID        string          `json:"caja_id"`
	SesionCajaID  string          `json:"sesion_caja_id"`
	ClienteID     *string         `json:"cliente_id,omitempty"`
	Serie         string          `json:"serie,omitempty"`
	Total         decimal.Decimal `json:"total"`
	CondicionPago string          `json:"condicion_pago"`
	PagoInicial   decimal.Decimal `json:"pago_inicial"`
	Vuelto        decimal.Decimal `json:"vuelto"`
	EstadoSunat   string          `json:"estado_sunat"`
	CuentaID      *string         `json:"cuenta_por_cobrar_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}
