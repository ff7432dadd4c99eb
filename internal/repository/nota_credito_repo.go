package repository

import (
	"context"

	"ferrepos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotaCreditoRepository interface {
	Create(ctx context.Context, tx *gorm.DB, n *model.NotaCredito) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.NotaCredito, error)
	ListByVenta(ctx context.Context, tx *gorm.DB, ventaID uuid.UUID) ([]model.NotaCredito, error)
}

type notaCreditoRepo struct{ db *gorm.DB }

func NewNotaCreditoRepository(db *gorm.DB) NotaCreditoRepository {
	return &notaCreditoRepo{db: db}
}

func (r *notaCreditoRepo) Create(ctx context.Context, tx *gorm.DB, n *model.NotaCredito) error {
	return conn(ctx, r.db, tx).Create(n).Error
}

func (r *notaCreditoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.NotaCredito, error) {
	var n model.NotaCredito
	err := r.db.WithContext(ctx).First(&n, "id = ?", id).Error
	return &n, err
}

func (r *notaCreditoRepo) ListByVenta(ctx context.Context, tx *gorm.DB, ventaID uuid.UUID) ([]model.NotaCredito, error) {
	var notas []model.NotaCredito
	err := conn(ctx, r.db, tx).Where("venta_id = ?", ventaID).Order("created_at ASC").Find(&notas).Error
	return notas, err
}
