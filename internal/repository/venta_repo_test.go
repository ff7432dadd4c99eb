package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func nuevoMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestVentaRepo_BumpVersion_SQL(t *testing.T) {
	db, mock := nuevoMock(t)
	repo := NewVentaRepository(db)
	id := uuid.New()

	mock.ExpectExec(`UPDATE "ventas" SET "version"=version \+ 1.*WHERE .*id = .*version = `).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "ventas" SET "version"=version \+ 1`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.BumpVersion(context.Background(), nil, id, 3))
	assert.ErrorIs(t, repo.BumpVersion(context.Background(), nil, id, 3), ErrVersionConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVentaRepo_BumpVersion_ErrorDeDriver(t *testing.T) {
	db, mock := nuevoMock(t)
	repo := NewVentaRepository(db)
	caida := errors.New("conn reset")

	mock.ExpectExec(`UPDATE "ventas"`).WillReturnError(caida)

	err := repo.BumpVersion(context.Background(), nil, uuid.New(), 1)
	assert.ErrorIs(t, err, caida)
	assert.NotErrorIs(t, err, ErrVersionConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCajaRepo_CerrarSesion_SinFilas(t *testing.T) {
	db, mock := nuevoMock(t)
	repo := NewCajaRepository(db)

	mock.ExpectExec(`UPDATE "sesiones_caja" SET .*WHERE .*estado = `).
		WillReturnResult(sqlmock.NewResult(0, 0))

	s := sesionAbierta(uuid.New(), uuid.New())
	assert.ErrorIs(t, repo.CerrarSesion(context.Background(), nil, s), ErrEstadoCambiado)
	assert.NoError(t, mock.ExpectationsWereMet())
}
