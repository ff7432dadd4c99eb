package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Tipos de nota de crédito (catálogo 09 SUNAT).
const (
	NotaAnulacionOperacion = "ANULACION_DE_LA_OPERACION"
	NotaAnulacionErrorRUC  = "ANULACION_POR_ERROR_EN_EL_RUC"
	NotaCorreccionDescrip  = "CORRECCION_POR_ERROR_EN_LA_DESCRIPCION"
	NotaDescuentoGlobal    = "DESCUENTO_GLOBAL"
	NotaDescuentoItem      = "DESCUENTO_POR_ITEM"
	NotaDevolucionTotal    = "DEVOLUCION_TOTAL"
	NotaDevolucionItem     = "DEVOLUCION_POR_ITEM"
	NotaDevolucionParcial  = "DEVOLUCION_PARCIAL"
	NotaDescuento          = "DESCUENTO"
	NotaBonificacion       = "BONIFICACION"
	NotaDisminucionValor   = "DISMINUCION_EN_EL_VALOR"
	NotaOtros              = "OTROS"
)

// TiposNota lists every accepted tipo_nota.
var TiposNota = []string{
	NotaAnulacionOperacion, NotaAnulacionErrorRUC, NotaCorreccionDescrip,
	NotaDescuentoGlobal, NotaDescuentoItem, NotaDevolucionTotal, NotaDevolucionItem,
	NotaDevolucionParcial, NotaDescuento, NotaBonificacion, NotaDisminucionValor, NotaOtros,
}

// NotaCredito reduces or annuls the value of exactly one Venta.
type NotaCredito struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	VentaID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	CajaID      uuid.UUID       `gorm:"type:uuid;not null"`
	UsuarioID   uuid.UUID       `gorm:"type:uuid;not null"`
	TipoNota    string          `gorm:"type:varchar(45);not null"`
	MontoTotal  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Motivo      string          `gorm:"not null"`
	EstadoSunat string          `gorm:"type:varchar(10);not null;default:'PENDIENTE'"`
	// DevolverStock is forwarded to inventory; the core only stores it
	DevolverStock    bool `gorm:"not null;default:false"`
	DevolverEfectivo bool `gorm:"not null;default:false"`
	// MovimientoID is set when the cash refund was journaled automatically
	MovimientoID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt    time.Time
}

func (NotaCredito) TableName() string { return "notas_credito" }

func (n *NotaCredito) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// Vigente reports whether the note counts against the sale balance.
// Rejected notes do not.
func (n NotaCredito) Vigente() bool {
	return n.EstadoSunat == SunatAceptado || n.EstadoSunat == SunatPendiente
}

// Extingue reports whether the note annuls or fully returns its sale.
func (n NotaCredito) Extingue() bool {
	return n.TipoNota == NotaAnulacionOperacion || n.TipoNota == NotaDevolucionTotal
}
