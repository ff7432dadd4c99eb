package repository

import (
	"context"

	"ferrepos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClienteRepository covers clients, their receivables and collections.
type ClienteRepository interface {
	FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Cliente, error)
	FindForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Cliente, error)
	BumpVersion(ctx context.Context, tx *gorm.DB, id uuid.UUID, expected int) error

	CreateCuenta(ctx context.Context, tx *gorm.DB, c *model.CuentaPorCobrar) error
	FindCuentaByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.CuentaPorCobrar, error)
	FindCuentaByVenta(ctx context.Context, tx *gorm.DB, ventaID uuid.UUID) (*model.CuentaPorCobrar, error)
	ListCuentasPendientes(ctx context.Context, tx *gorm.DB, clienteID uuid.UUID) ([]model.CuentaPorCobrar, error)
	// UpdateSaldoCuenta persists saldo_pendiente and estado.
	UpdateSaldoCuenta(ctx context.Context, tx *gorm.DB, c *model.CuentaPorCobrar) error

	CreatePago(ctx context.Context, tx *gorm.DB, p *model.PagoCuenta) error
}

type clienteRepo struct{ db *gorm.DB }

func NewClienteRepository(db *gorm.DB) ClienteRepository { return &clienteRepo{db: db} }

func (r *clienteRepo) FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Cliente, error) {
	var c model.Cliente
	err := conn(ctx, r.db, tx).First(&c, "id = ?", id).Error
	return &c, err
}

func (r *clienteRepo) FindForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Cliente, error) {
	var c model.Cliente
	err := forUpdate(conn(ctx, r.db, tx)).First(&c, "id = ?", id).Error
	return &c, err
}

func (r *clienteRepo) BumpVersion(ctx context.Context, tx *gorm.DB, id uuid.UUID, expected int) error {
	res := conn(ctx, r.db, tx).Model(&model.Cliente{}).
		Where("id = ? AND version = ?", id, expected).
		Update("version", gorm.Expr("version + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (r *clienteRepo) CreateCuenta(ctx context.Context, tx *gorm.DB, c *model.CuentaPorCobrar) error {
	return conn(ctx, r.db, tx).Create(c).Error
}

func (r *clienteRepo) FindCuentaByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.CuentaPorCobrar, error) {
	var c model.CuentaPorCobrar
	err := conn(ctx, r.db, tx).First(&c, "id = ?", id).Error
	return &c, err
}

func (r *clienteRepo) FindCuentaByVenta(ctx context.Context, tx *gorm.DB, ventaID uuid.UUID) (*model.CuentaPorCobrar, error) {
	var c model.CuentaPorCobrar
	err := conn(ctx, r.db, tx).First(&c, "venta_id = ?", ventaID).Error
	return &c, err
}

func (r *clienteRepo) ListCuentasPendientes(ctx context.Context, tx *gorm.DB, clienteID uuid.UUID) ([]model.CuentaPorCobrar, error) {
	var cuentas []model.CuentaPorCobrar
	err := conn(ctx, r.db, tx).
		Where("cliente_id = ? AND estado = ?", clienteID, model.CuentaPendiente).
		Order("fecha_vencimiento ASC").
		Find(&cuentas).Error
	return cuentas, err
}

func (r *clienteRepo) UpdateSaldoCuenta(ctx context.Context, tx *gorm.DB, c *model.CuentaPorCobrar) error {
	return conn(ctx, r.db, tx).Model(&model.CuentaPorCobrar{}).
		Where("id = ?", c.ID).
		Updates(map[string]interface{}{
			"saldo_pendiente": c.SaldoPendiente,
			"estado":          c.Estado,
		}).Error
}

func (r *clienteRepo) CreatePago(ctx context.Context, tx *gorm.DB, p *model.PagoCuenta) error {
	return conn(ctx, r.db, tx).Create(p).Error
}
