package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Estado de cuenta por cobrar
const (
	CuentaPendiente = "PENDIENTE"
	CuentaPagada    = "PAGADA"
)

// Cliente holds the credit line used by credit sales.
type Cliente struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Nombre          string          `gorm:"not null"`
	NumeroDocumento string          `gorm:"type:varchar(15);index"`
	LimiteCredito   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	DiasCredito     int             `gorm:"not null;default:0"`
	// Version is bumped on every receivable change of this client.
	Version   int `gorm:"not null;default:1"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Cliente) TableName() string { return "clientes" }

func (c *Cliente) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Version == 0 {
		c.Version = 1
	}
	return nil
}

// CuentaPorCobrar is the outstanding balance of one credit sale.
type CuentaPorCobrar struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	ClienteID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	VentaID          uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	MontoOriginal    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SaldoPendiente   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Estado           string          `gorm:"type:varchar(10);not null;default:'PENDIENTE'"`
	FechaVencimiento time.Time       `gorm:"not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (CuentaPorCobrar) TableName() string { return "cuentas_por_cobrar" }

func (c *CuentaPorCobrar) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Abierta reports whether the receivable still has balance to collect.
func (c CuentaPorCobrar) Abierta() bool {
	return c.Estado == CuentaPendiente && c.SaldoPendiente.IsPositive()
}

// PagoCuenta is a collection against a receivable, journaled as a PAYMENT movement.
type PagoCuenta struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	CuentaPorCobrarID uuid.UUID       `gorm:"type:uuid;not null;index"`
	SesionCajaID      uuid.UUID       `gorm:"type:uuid;not null"`
	Monto             decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MetodoPago        string          `gorm:"type:varchar(20);not null"`
	UsuarioID         uuid.UUID       `gorm:"type:uuid;not null"`
	CreatedAt         time.Time
}

func (PagoCuenta) TableName() string { return "pagos_cuenta" }

func (p *PagoCuenta) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
