package repository

import (
	"context"

	"ferrepos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CajaRepository persists registers, sessions and their movement ledger.
// Movements are append-only: there is no update or delete method.
type CajaRepository interface {
	FindCaja(ctx context.Context, id uuid.UUID) (*model.Caja, error)
	CreateSesion(ctx context.Context, tx *gorm.DB, s *model.SesionCaja) error
	FindSesionByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.SesionCaja, error)
	// FindSesionForUpdate row-locks the session until tx ends.
	FindSesionForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.SesionCaja, error)
	FindSesionAbierta(ctx context.Context, tx *gorm.DB, cajaID uuid.UUID) (*model.SesionCaja, error)
	// CerrarSesion writes the closing fields only if the session is still OPEN.
	// Returns ErrEstadoCambiado otherwise.
	CerrarSesion(ctx context.Context, tx *gorm.DB, s *model.SesionCaja) error
	ListSesionesCerradas(ctx context.Context, cajaID uuid.UUID, page, limit int) ([]model.SesionCaja, int64, error)
	CreateMovimiento(ctx context.Context, tx *gorm.DB, m *model.MovimientoCaja) error
	ListMovimientos(ctx context.Context, tx *gorm.DB, sesionCajaID uuid.UUID) ([]model.MovimientoCaja, error)
	CreateAuditoria(ctx context.Context, tx *gorm.DB, a *model.AuditoriaCierre) error
	DB() *gorm.DB
}

type cajaRepo struct{ db *gorm.DB }

func NewCajaRepository(db *gorm.DB) CajaRepository { return &cajaRepo{db: db} }

func (r *cajaRepo) DB() *gorm.DB { return r.db }

func (r *cajaRepo) FindCaja(ctx context.Context, id uuid.UUID) (*model.Caja, error) {
	var c model.Caja
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	return &c, err
}

func (r *cajaRepo) CreateSesion(ctx context.Context, tx *gorm.DB, s *model.SesionCaja) error {
	return conn(ctx, r.db, tx).Create(s).Error
}

func (r *cajaRepo) FindSesionByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.SesionCaja, error) {
	var s model.SesionCaja
	err := conn(ctx, r.db, tx).First(&s, "id = ?", id).Error
	return &s, err
}

func (r *cajaRepo) FindSesionForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.SesionCaja, error) {
	var s model.SesionCaja
	err := forUpdate(conn(ctx, r.db, tx)).First(&s, "id = ?", id).Error
	return &s, err
}

func (r *cajaRepo) FindSesionAbierta(ctx context.Context, tx *gorm.DB, cajaID uuid.UUID) (*model.SesionCaja, error) {
	var s model.SesionCaja
	err := conn(ctx, r.db, tx).
		Where("caja_id = ? AND estado = ?", cajaID, model.SesionAbierta).
		First(&s).Error
	return &s, err
}

func (r *cajaRepo) CerrarSesion(ctx context.Context, tx *gorm.DB, s *model.SesionCaja) error {
	res := conn(ctx, r.db, tx).Model(&model.SesionCaja{}).
		Where("id = ? AND estado = ?", s.ID, model.SesionAbierta).
		Updates(map[string]interface{}{
			"estado":        model.SesionCerrada,
			"monto_teorico": s.MontoTeorico,
			"monto_contado": s.MontoContado,
			"descuadre":     s.Descuadre,
			"clasificacion": s.Clasificacion,
			"tipo_cierre":   s.TipoCierre,
			"motivo_cierre": s.MotivoCierre,
			"cerrada_por":   s.CerradaPor,
			"cerrada_at":    s.CerradaAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrEstadoCambiado
	}
	return nil
}

func (r *cajaRepo) ListSesionesCerradas(ctx context.Context, cajaID uuid.UUID, page, limit int) ([]model.SesionCaja, int64, error) {
	var sesiones []model.SesionCaja
	var total int64
	q := r.db.WithContext(ctx).Model(&model.SesionCaja{}).
		Where("caja_id = ? AND estado = ?", cajaID, model.SesionCerrada)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("cerrada_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&sesiones).Error
	return sesiones, total, err
}

func (r *cajaRepo) CreateMovimiento(ctx context.Context, tx *gorm.DB, m *model.MovimientoCaja) error {
	return conn(ctx, r.db, tx).Create(m).Error
}

func (r *cajaRepo) ListMovimientos(ctx context.Context, tx *gorm.DB, sesionCajaID uuid.UUID) ([]model.MovimientoCaja, error) {
	var movs []model.MovimientoCaja
	err := conn(ctx, r.db, tx).Where("sesion_caja_id = ?", sesionCajaID).Order("created_at ASC").Find(&movs).Error
	return movs, err
}

func (r *cajaRepo) CreateAuditoria(ctx context.Context, tx *gorm.DB, a *model.AuditoriaCierre) error {
	return conn(ctx, r.db, tx).Create(a).Error
}
