package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"ferrepos/internal/apperror"
	"ferrepos/internal/dto"
	"ferrepos/internal/infra"
	"ferrepos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Actor is the authenticated caller, resolved by the transport from the
// identity collaborator's token.
type Actor struct {
	UsuarioID    uuid.UUID
	TenantID     uuid.UUID
	EsSupervisor bool
}

// Notificador receives the events administrators care about. Delivery is
// best-effort: a failure is logged and never undoes the operation.
type Notificador interface {
	NotificarDescuadre(ctx context.Context, ev dto.EventoDescuadre) error
	PublicarAuditoria(ctx context.Context, ev dto.EventoCierreAdministrativo) error
}

// NotificadorLog only writes the events to the log. Used when no queue is configured.
type NotificadorLog struct{}

func (NotificadorLog) NotificarDescuadre(_ context.Context, ev dto.EventoDescuadre) error {
	log.Warn().
		Str("sesion_caja_id", ev.SesionCajaID).
		Str("clasificacion", ev.Clasificacion).
		Str("descuadre", ev.Descuadre.StringFixed(2)).
		Msg("descuadre de caja")
	return nil
}

func (NotificadorLog) PublicarAuditoria(_ context.Context, ev dto.EventoCierreAdministrativo) error {
	log.Info().
		Str("sesion_caja_id", ev.SesionCajaID).
		Str("cerrado_por", ev.CerradoPor).
		Str("propietario", ev.Propietario).
		Msg("cierre administrativo")
	return nil
}

// Lock keys. When an operation needs more than one, it acquires them in the
// order sesion → cliente → venta.
func keySesion(id uuid.UUID) string  { return "sesion:" + id.String() }
func keyCliente(id uuid.UUID) string { return "cliente:" + id.String() }
func keyVenta(id uuid.UUID) string   { return "venta:" + id.String() }

// lockAll acquires keys in the given order and returns a func releasing them
// in reverse. On failure nothing stays locked.
func lockAll(ctx context.Context, locker infra.Locker, keys ...string) (func(), error) {
	var held []func()
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i]()
		}
	}
	for _, k := range keys {
		unlock, err := locker.Lock(ctx, k)
		if err != nil {
			release()
			if errors.Is(err, infra.ErrLockTimeout) {
				return nil, apperror.Wrap(apperror.KindConflict, k, err)
			}
			return nil, err
		}
		held = append(held, unlock)
	}
	return release, nil
}

// ConReintento runs fn again while it fails with a retryable error, up to
// intentos attempts in total. The last error is returned.
func ConReintento(ctx context.Context, intentos int, fn func() error) error {
	if intentos < 1 {
		intentos = 1
	}
	var err error
	for i := 0; i < intentos; i++ {
		if err = fn(); err == nil || !apperror.IsRetryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
		log.Debug().Int("intento", i+1).Err(err).Msg("conflicto, reintentando")
	}
	return err
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// notFound maps a missing row to NotFound and leaves other errors alone.
func notFound(err error, what string) error {
	if repository.IsNotFound(err) {
		return apperror.New(apperror.KindNotFound, what)
	}
	return err
}

// versionConflict maps optimistic-lock failures to a retryable Conflict.
func versionConflict(err error, what string) error {
	if errors.Is(err, repository.ErrVersionConflict) {
		return apperror.Wrap(apperror.KindConflict, what, err)
	}
	return err
}

func parseID(campo, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperror.Validation(map[string]string{campo: "uuid inválido"})
	}
	return id, nil
}

func parseOptID(campo string, raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := parseID(campo, *raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func largo(s string) int { return utf8.RuneCountInString(strings.TrimSpace(s)) }

const msgCentimos = "máximo 2 decimales"

// enCentimos reports whether m is representable in the money columns,
// decimal(12,2), without rounding.
func enCentimos(m decimal.Decimal) bool { return m.Equal(m.Round(2)) }

func contiene(lista []string, v string) bool {
	for _, x := range lista {
		if x == v {
			return true
		}
	}
	return false
}

func idPtr(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

// reloj lets tests pin the clock.
type reloj func() time.Time

func (r reloj) ahora() time.Time {
	if r == nil {
		return time.Now()
	}
	return r()
}
