package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type AbrirCajaRequest struct {
	CajaID        string          `json:"caja_id"        validate:"required,uuid"`
	MontoApertura decimal.Decimal `json:"monto_apertura" validate:"min=0"`
}

// MovimientoRequest appends one entry to a session ledger. Origen defaults to
// MANUAL; non-manual origins must carry the matching reference id.
type MovimientoRequest struct {
	Tipo          string          `json:"tipo"            validate:"required,oneof=INGRESO EGRESO"`
	Monto         decimal.Decimal `json:"monto"           validate:"gt=0"`
	MetodoPago    string          `json:"metodo_pago"     validate:"required,oneof=EFECTIVO TARJETA YAPE PLIN TRANSFERENCIA DEPOSITO CHEQUE"`
	Descripcion   string          `json:"descripcion"     validate:"required"`
	Origen        string          `json:"origen"          validate:"omitempty,oneof=SALE CREDIT_NOTE PAYMENT MANUAL"`
	VentaID       *string         `json:"venta_id"        validate:"omitempty,uuid"`
	NotaCreditoID *string         `json:"nota_credito_id" validate:"omitempty,uuid"`
	PagoID        *string         `json:"pago_id"         validate:"omitempty,uuid"`
}

// CerrarCajaRequest carries the blind count. The cashier never sees the
// theoretical amount before submitting it.
type CerrarCajaRequest struct {
	MontoContado decimal.Decimal `json:"monto_contado" validate:"min=0"`
}

type CierreAdministrativoRequest struct {
	MontoContado  decimal.Decimal `json:"monto_contado"  validate:"min=0"`
	Justificacion string          `json:"justificacion"  validate:"required,min=10"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type MovimientoResponse struct {
	ID            string          `json:"id"`
	SesionCajaID  string          `json:"sesion_caja_id"`
	Tipo          string          `json:"tipo"`
	Monto         decimal.Decimal `json:"monto"`
	MetodoPago    string          `json:"metodo_pago"`
	Descripcion   string          `json:"descripcion"`
	Origen        string          `json:"origen"`
	VentaID       *string         `json:"venta_id,omitempty"`
	NotaCreditoID *string         `json:"nota_credito_id,omitempty"`
	PagoID        *string         `json:"pago_id,omitempty"`
	UsuarioID     string          `json:"usuario_id"`
	CreatedAt     time.Time       `json:"created_at"`
}

// SesionCajaResponse never carries monto_teorico while the session is OPEN
// unless the caller is a supervisor.
type SesionCajaResponse struct {
	ID            string               `json:"id"`
	CajaID        string               `json:"caja_id"`
	UsuarioID     string               `json:"usuario_id"`
	Estado        string               `json:"estado"`
	MontoApertura decimal.Decimal      `json:"monto_apertura"`
	MontoTeorico  *decimal.Decimal     `json:"monto_teorico,omitempty"`
	MontoContado  *decimal.Decimal     `json:"monto_contado,omitempty"`
	Descuadre     *decimal.Decimal     `json:"descuadre,omitempty"`
	Clasificacion *string              `json:"clasificacion,omitempty"`
	TipoCierre    *string              `json:"tipo_cierre,omitempty"`
	MotivoCierre  *string              `json:"motivo_cierre,omitempty"`
	CerradaPor    *string              `json:"cerrada_por,omitempty"`
	AbiertaAt     time.Time            `json:"abierta_at"`
	CerradaAt     *time.Time           `json:"cerrada_at,omitempty"`
	Movimientos   []MovimientoResponse `json:"movimientos,omitempty"`
}

// CierreResponse is the outcome of a close. It is the first moment the
// theoretical balance is revealed to the cashier.
type CierreResponse struct {
	SesionCajaID  string          `json:"sesion_caja_id"`
	TipoCierre    string          `json:"tipo_cierre"`
	MontoApertura decimal.Decimal `json:"monto_apertura"`
	TotalIngresos decimal.Decimal `json:"total_ingresos"`
	TotalEgresos  decimal.Decimal `json:"total_egresos"`
	MontoTeorico  decimal.Decimal `json:"monto_teorico"`
	MontoContado  decimal.Decimal `json:"monto_contado"`
	Descuadre     decimal.Decimal `json:"descuadre"`
	Clasificacion string          `json:"clasificacion"`
	CerradaAt     time.Time       `json:"cerrada_at"`
}

type SaldoTeoricoResponse struct {
	SesionCajaID string          `json:"sesion_caja_id"`
	Hasta        time.Time       `json:"hasta"`
	MontoTeorico decimal.Decimal `json:"monto_teorico"`
}

type HistorialSesionesResponse struct {
	Data       []SesionCajaResponse `json:"data"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	Limit      int                  `json:"limit"`
	TotalPages int                  `json:"total_pages"`
}
