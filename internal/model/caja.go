package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Estado de sesión
const (
	SesionAbierta = "OPEN"
	SesionCerrada = "CLOSED"
)

// Tipo de cierre
const (
	CierreNormal         = "NORMAL"
	CierreAdministrativo = "ADMINISTRATIVE"
)

// Clasificación del descuadre en el arqueo
const (
	Cuadrado = "CUADRADO"
	Faltante = "FALTANTE"
	Sobrante = "SOBRANTE"
)

// Tipo de movimiento
const (
	Ingreso = "INGRESO"
	Egreso  = "EGRESO"
)

// Origen de movimiento
const (
	OrigenVenta       = "SALE"
	OrigenNotaCredito = "CREDIT_NOTE"
	OrigenPago        = "PAYMENT"
	OrigenManual      = "MANUAL"
)

// Métodos de pago aceptados en caja
const (
	MetodoEfectivo      = "EFECTIVO"
	MetodoTarjeta       = "TARJETA"
	MetodoYape          = "YAPE"
	MetodoPlin          = "PLIN"
	MetodoTransferencia = "TRANSFERENCIA"
	MetodoDeposito      = "DEPOSITO"
	MetodoCheque        = "CHEQUE"
)

// MetodosPago lists every accepted payment method.
var MetodosPago = []string{
	MetodoEfectivo, MetodoTarjeta, MetodoYape, MetodoPlin,
	MetodoTransferencia, MetodoDeposito, MetodoCheque,
}

// ErrMovimientoInmutable is returned by the ORM hooks when something tries to
// modify or delete a ledger entry.
var ErrMovimientoInmutable = errors.New("los movimientos de caja son inmutables")

// Caja is a physical till. Identity only.
type Caja struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
	Nombre   string    `gorm:"type:varchar(80);not null"`
	Activa   bool      `gorm:"not null;default:true"`
}

func (Caja) TableName() string { return "cajas" }

func (c *Caja) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// SesionCaja is one cashier's shift on one Caja.
// Estado: "OPEN" | "CLOSED". CLOSED is terminal.
type SesionCaja struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	CajaID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	UsuarioID     uuid.UUID       `gorm:"type:uuid;not null"`
	Estado        string          `gorm:"type:varchar(10);not null;default:'OPEN'"`
	MontoApertura decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// Filled on close: teorico = apertura + Σingresos − Σegresos
	MontoTeorico  *decimal.Decimal `gorm:"type:decimal(12,2)"`
	MontoContado  *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Descuadre     *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Clasificacion *string          `gorm:"type:varchar(10)"`
	TipoCierre    *string          `gorm:"type:varchar(20)"`
	// MotivoCierre is required iff TipoCierre = ADMINISTRATIVE
	MotivoCierre *string
	CerradaPor   *uuid.UUID `gorm:"type:uuid"`
	AbiertaAt    time.Time  `gorm:"not null"`
	CerradaAt    *time.Time

	Movimientos []MovimientoCaja `gorm:"foreignKey:SesionCajaID"`
}

func (SesionCaja) TableName() string { return "sesiones_caja" }

func (s *SesionCaja) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (s *SesionCaja) Abierta() bool { return s.Estado == SesionAbierta }

// MovimientoCaja is an immutable entry of the session ledger.
// Monto is always positive; Tipo carries the sign.
// At most one of VentaID / NotaCreditoID / PagoID is set, matching Origen.
type MovimientoCaja struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SesionCajaID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Tipo          string          `gorm:"type:varchar(10);not null"`
	Monto         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MetodoPago    string          `gorm:"type:varchar(20);not null"`
	Descripcion   string          `gorm:"not null"`
	Origen        string          `gorm:"type:varchar(20);not null"`
	VentaID       *uuid.UUID      `gorm:"type:uuid"`
	NotaCreditoID *uuid.UUID      `gorm:"type:uuid"`
	PagoID        *uuid.UUID      `gorm:"type:uuid"`
	UsuarioID     uuid.UUID       `gorm:"type:uuid;not null"`
	CreatedAt     time.Time       `gorm:"not null;index"`
}

func (MovimientoCaja) TableName() string { return "movimientos_caja" }

func (m *MovimientoCaja) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (m *MovimientoCaja) BeforeUpdate(*gorm.DB) error { return ErrMovimientoInmutable }
func (m *MovimientoCaja) BeforeDelete(*gorm.DB) error { return ErrMovimientoInmutable }

// Firmado returns the amount with the sign implied by Tipo.
func (m MovimientoCaja) Firmado() decimal.Decimal {
	if m.Tipo == Egreso {
		return m.Monto.Neg()
	}
	return m.Monto
}

// AuditoriaCierre records an administrative close of someone else's session.
type AuditoriaCierre struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	SesionCajaID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	CerradoPor    uuid.UUID       `gorm:"type:uuid;not null"`
	Propietario   uuid.UUID       `gorm:"type:uuid;not null"`
	Justificacion string          `gorm:"not null"`
	MontoContado  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MontoTeorico  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Descuadre     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Clasificacion string          `gorm:"type:varchar(10);not null"`
	CreatedAt     time.Time       `gorm:"not null"`
}

func (AuditoriaCierre) TableName() string { return "auditoria_cierres" }

func (a *AuditoriaCierre) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
