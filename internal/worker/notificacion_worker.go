package worker

// notificacion_worker.go
// Processes jobs from QueueNotificaciones: e-mails administrators about cash
// discrepancies and administrative closes.

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ferrepos/internal/dto"
	"ferrepos/internal/infra"

	"github.com/rs/zerolog/log"
)

// Enviador delivers a plain-text message. infra.Mailer implements it.
type Enviador interface {
	Enviar(to []string, subject, body string) error
}

// NotificacionWorker turns notification jobs into admin e-mails. SMTP calls go
// through a circuit breaker so an SMTP outage fails fast and the jobs are
// requeued instead of piling up blocked workers.
type NotificacionWorker struct {
	enviador Enviador
	admins   []string
	cb       *infra.CircuitBreaker
}

func NewNotificacionWorker(enviador Enviador, admins []string, cb *infra.CircuitBreaker) *NotificacionWorker {
	if cb == nil {
		cb = infra.NewCircuitBreaker(infra.DefaultCBConfig())
	}
	return &NotificacionWorker{enviador: enviador, admins: admins, cb: cb}
}

func (w *NotificacionWorker) Process(_ context.Context, job Job) error {
	subject, body, err := renderizar(job)
	if err != nil {
		// malformed payloads never succeed; log and drop
		log.Error().Err(err).Str("type", job.Type).Msg("notificacion_worker: invalid payload")
		return nil
	}
	if w.enviador == nil || len(w.admins) == 0 {
		log.Warn().Str("type", job.Type).Str("subject", subject).Msg("notificacion_worker: no recipients configured, logged only")
		return nil
	}
	if err := w.cb.Execute(func() error { return w.enviador.Enviar(w.admins, subject, body) }); err != nil {
		return fmt.Errorf("notificacion_worker: send: %w", err)
	}
	log.Info().Str("type", job.Type).Int("destinatarios", len(w.admins)).Msg("notificacion_worker: sent")
	return nil
}

func renderizar(job Job) (subject, body string, err error) {
	var b strings.Builder
	switch job.Type {
	case JobDescuadre:
		var ev dto.EventoDescuadre
		if err := json.Unmarshal(job.Payload, &ev); err != nil {
			return "", "", err
		}
		subject = fmt.Sprintf("[Caja] %s de S/ %s en sesión %s", ev.Clasificacion, ev.Descuadre.Abs().StringFixed(2), corto(ev.SesionCajaID))
		fmt.Fprintf(&b, "Sesión: %s\nCaja: %s\nCajero: %s\nCierre: %s\n", ev.SesionCajaID, ev.CajaID, ev.UsuarioID, ev.TipoCierre)
		fmt.Fprintf(&b, "Teórico: S/ %s\nContado: S/ %s\nDescuadre: S/ %s\n", ev.MontoTeorico.StringFixed(2), ev.MontoContado.StringFixed(2), ev.Descuadre.StringFixed(2))
		fmt.Fprintf(&b, "Fecha: %s\n", ev.CerradaAt.Format("2006-01-02 15:04:05"))
	case JobCierreAdministrativo:
		var ev dto.EventoCierreAdministrativo
		if err := json.Unmarshal(job.Payload, &ev); err != nil {
			return "", "", err
		}
		subject = fmt.Sprintf("[Caja] Cierre administrativo de sesión %s", corto(ev.SesionCajaID))
		fmt.Fprintf(&b, "Sesión: %s\nCerrada por: %s\nCajero: %s\n", ev.SesionCajaID, ev.CerradoPor, ev.Propietario)
		fmt.Fprintf(&b, "Justificación: %s\n", ev.Justificacion)
		fmt.Fprintf(&b, "Contado: S/ %s\nDescuadre: S/ %s (%s)\n", ev.MontoContado.StringFixed(2), ev.Descuadre.StringFixed(2), ev.Clasificacion)
		fmt.Fprintf(&b, "Fecha: %s\n", ev.CerradaAt.Format("2006-01-02 15:04:05"))
	default:
		return "", "", fmt.Errorf("unknown job type %q", job.Type)
	}
	return subject, b.String(), nil
}

func corto(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
