package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Condición de pago
const (
	CondicionContado = "CONTADO"
	CondicionCredito = "CREDITO"
)

// Estado SUNAT de ventas y notas. Set by the sales/SUNAT subsystem only.
const (
	SunatPendiente = "PENDIENTE"
	SunatAceptado  = "ACEPTADO"
	SunatRechazado = "RECHAZADO"
)

// Venta is the read model of a sale. Immutable after creation except for
// EstadoSunat (external) and Version, which is bumped every time a credit note
// is issued against it so concurrent issuers detect each other.
type Venta struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	CajaID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	SesionCajaID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	UsuarioID     uuid.UUID       `gorm:"type:uuid;not null"`
	ClienteID     *uuid.UUID      `gorm:"type:uuid;index"`
	Serie         string          `gorm:"type:varchar(4)"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CondicionPago string          `gorm:"type:varchar(10);not null"`
	// PagoInicial only applies to CREDITO sales
	PagoInicial decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	EstadoSunat string          `gorm:"type:varchar(10);not null;default:'PENDIENTE'"`
	Version     int             `gorm:"not null;default:1"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Venta) TableName() string { return "ventas" }

func (v *Venta) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.Version == 0 {
		v.Version = 1
	}
	return nil
}
