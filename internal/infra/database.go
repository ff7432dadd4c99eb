package infra

import (
	"fmt"

	"ferrepos/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies the idempotent SQL patches that GORM
// cannot express (partial indexes).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), GormConfig())
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// GormConfig is shared by the server and the repository tests.
// TranslateError maps driver unique violations to gorm.ErrDuplicatedKey.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	}
}

// RunMigrations creates the schema and applies patches. Safe to re-run.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Caja{},
		&model.SesionCaja{},
		&model.MovimientoCaja{},
		&model.AuditoriaCierre{},
		&model.Venta{},
		&model.NotaCredito{},
		&model.Cliente{},
		&model.CuentaPorCobrar{},
		&model.PagoCuenta{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs idempotent DDL statements that AutoMigrate cannot
// express. The syntax is accepted by both PostgreSQL and SQLite.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// at most one OPEN session per register
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_sesiones_caja_abierta
		    ON sesiones_caja (caja_id) WHERE estado = 'OPEN'`,
		// theoretical balance scans
		`CREATE INDEX IF NOT EXISTS idx_movimientos_sesion_fecha
		    ON movimientos_caja (sesion_caja_id, created_at)`,
		// open receivables per client
		`CREATE INDEX IF NOT EXISTS idx_cuentas_cliente_pendientes
		    ON cuentas_por_cobrar (cliente_id) WHERE estado = 'PENDIENTE'`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
