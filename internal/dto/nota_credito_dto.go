package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type EmitirNotaCreditoRequest struct {
	VentaID string `json:"venta_id" validate:"required,uuid"`
	// CajaID is the issuing register; defaults to the sale's register.
	CajaID           *string         `json:"caja_id"     validate:"omitempty,uuid"`
	TipoNota         string          `json:"tipo_nota"   validate:"required"`
	MontoTotal       decimal.Decimal `json:"monto_total" validate:"gt=0"`
	Motivo           string          `json:"motivo"      validate:"required"`
	DevolverStock    bool            `json:"devolver_stock"`
	DevolverEfectivo bool            `json:"devolver_efectivo"`
}

type NotaCreditoResponse struct {
	ID               string          `json:"id"`
	VentaID          string          `json:"venta_id"`
	CajaID           string          `json:"caja_id"`
	TipoNota         string          `json:"tipo_nota"`
	MontoTotal       decimal.Decimal `json:"monto_total"`
	Motivo           string          `json:"motivo"`
	EstadoSunat      string          `json:"estado_sunat"`
	DevolverStock    bool            `json:"devolver_stock"`
	DevolverEfectivo bool            `json:"devolver_efectivo"`
	MovimientoID     *string         `json:"movimiento_id,omitempty"`
	// EfectivoPendiente asks the client to prompt a manual cash entry because
	// no session was open on the issuing register.
	EfectivoPendiente bool `json:"efectivo_pendiente"`
	// SaldoDisponible is the sale balance left after this note.
	SaldoDisponible decimal.Decimal `json:"saldo_disponible"`
	CreatedAt       time.Time       `json:"created_at"`
}

type SaldoVentaResponse struct {
	VentaID         string          `json:"venta_id"`
	Total           decimal.Decimal `json:"total"`
	TotalDevuelto   decimal.Decimal `json:"total_devuelto"`
	SaldoDisponible decimal.Decimal `json:"saldo_disponible"`
}

// VerificacionResponse is the outcome of a guard check. Codigo is the error
// kind that issuance would fail with.
type VerificacionResponse struct {
	Permitido bool   `json:"permitido"`
	Motivo    string `json:"motivo,omitempty"`
	Codigo    string `json:"codigo,omitempty"`
}
