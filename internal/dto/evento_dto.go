package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventoDescuadre is published when a session closes with a non-zero discrepancy.
type EventoDescuadre struct {
	TenantID      string          `json:"tenant_id"`
	SesionCajaID  string          `json:"sesion_caja_id"`
	CajaID        string          `json:"caja_id"`
	UsuarioID     string          `json:"usuario_id"`
	TipoCierre    string          `json:"tipo_cierre"`
	MontoTeorico  decimal.Decimal `json:"monto_teorico"`
	MontoContado  decimal.Decimal `json:"monto_contado"`
	Descuadre     decimal.Decimal `json:"descuadre"`
	Clasificacion string          `json:"clasificacion"`
	CerradaAt     time.Time       `json:"cerrada_at"`
}

// EventoCierreAdministrativo is the audit trail of a supervisor close.
type EventoCierreAdministrativo struct {
	TenantID      string          `json:"tenant_id"`
	SesionCajaID  string          `json:"sesion_caja_id"`
	CerradoPor    string          `json:"cerrado_por"`
	Propietario   string          `json:"propietario"`
	Justificacion string          `json:"justificacion"`
	MontoContado  decimal.Decimal `json:"monto_contado"`
	Descuadre     decimal.Decimal `json:"descuadre"`
	Clasificacion string          `json:"clasificacion"`
	CerradaAt     time.Time       `json:"cerrada_at"`
}
