package repository

import (
	"context"

	"ferrepos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VentaRepository interface {
	Create(ctx context.Context, tx *gorm.DB, v *model.Venta) error
	FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Venta, error)
	FindForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Venta, error)
	// BumpVersion increments the version only if it still equals expected.
	// Returns ErrVersionConflict when it does not.
	BumpVersion(ctx context.Context, tx *gorm.DB, id uuid.UUID, expected int) error
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type ventaRepo struct{ db *gorm.DB }

func NewVentaRepository(db *gorm.DB) VentaRepository { return &ventaRepo{db: db} }

func (r *ventaRepo) DB() *gorm.DB { return r.db }

func (r *ventaRepo) Create(ctx context.Context, tx *gorm.DB, v *model.Venta) error {
	return conn(ctx, r.db, tx).Create(v).Error
}

func (r *ventaRepo) FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	err := conn(ctx, r.db, tx).First(&v, "id = ?", id).Error
	return &v, err
}

func (r *ventaRepo) FindForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	err := forUpdate(conn(ctx, r.db, tx)).First(&v, "id = ?", id).Error
	return &v, err
}

func (r *ventaRepo) BumpVersion(ctx context.Context, tx *gorm.DB, id uuid.UUID, expected int) error {
	res := conn(ctx, r.db, tx).Model(&model.Venta{}).
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
