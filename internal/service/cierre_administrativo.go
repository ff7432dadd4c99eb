package service

import (
	"context"
	"strings"

	"ferrepos/internal/apperror"
	"ferrepos/internal/dto"
	"ferrepos/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// CerrarAdministrativo lets a supervisor close another user's session, e.g. a
// cashier who left without closing. Same reconciliation as a normal close, plus
// a mandatory justification and an audit record written in the same transaction.
func (s *cajaService) CerrarAdministrativo(ctx context.Context, actor Actor, sesionID uuid.UUID, req dto.CierreAdministrativoRequest) (*dto.CierreResponse, error) {
	if !actor.EsSupervisor {
		return nil, apperror.New(apperror.KindUnauthorized, "el cierre administrativo requiere rol supervisor")
	}
	fields := map[string]string{}
	if largo(req.Justificacion) < largoMinimoTexto {
		fields["justificacion"] = "mínimo 10 caracteres"
	}
	switch {
	case req.MontoContado.IsNegative():
		fields["monto_contado"] = "no puede ser negativo"
	case !enCentimos(req.MontoContado):
		fields["monto_contado"] = msgCentimos
	}
	if len(fields) > 0 {
		return nil, apperror.Validation(fields)
	}
	justificacion := strings.TrimSpace(req.Justificacion)

	unlock, err := lockAll(ctx, s.locker, keySesion(sesionID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var sesion *model.SesionCaja
	var res ResultadoCierre
	var propietario uuid.UUID
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		sesion, err = s.cargarSesionParaCierre(ctx, tx, actor, sesionID)
		if err != nil {
			return err
		}
		if sesion.UsuarioID == actor.UsuarioID {
			return apperror.New(apperror.KindUnauthorized, "use el cierre normal para su propia sesión")
		}
		propietario = sesion.UsuarioID

		res, err = s.cerrar(ctx, tx, sesion, actor, req.MontoContado, model.CierreAdministrativo, &justificacion)
		if err != nil {
			return err
		}
		return s.repo.CreateAuditoria(ctx, tx, &model.AuditoriaCierre{
			TenantID:      sesion.TenantID,
			SesionCajaID:  sesion.ID,
			CerradoPor:    actor.UsuarioID,
			Propietario:   propietario,
			Justificacion: justificacion,
			MontoContado:  res.Contado,
			MontoTeorico:  res.Teorico,
			Descuadre:     res.Descuadre,
			Clasificacion: res.Clasificacion,
			CreatedAt:     derefTime(sesion.CerradaAt),
		})
	})
	if err != nil {
		return nil, err
	}

	log.Warn().
		Str("sesion_caja_id", sesionID.String()).
		Str("cerrado_por", actor.UsuarioID.String()).
		Str("propietario", propietario.String()).
		Str("clasificacion", res.Clasificacion).
		Msg("cierre administrativo de caja")

	ev := dto.EventoCierreAdministrativo{
		TenantID:      sesion.TenantID.String(),
		SesionCajaID:  sesion.ID.String(),
		CerradoPor:    actor.UsuarioID.String(),
		Propietario:   propietario.String(),
		Justificacion: justificacion,
		MontoContado:  res.Contado,
		Descuadre:     res.Descuadre,
		Clasificacion: res.Clasificacion,
		CerradaAt:     derefTime(sesion.CerradaAt),
	}
	if err := s.notif.PublicarAuditoria(ctx, ev); err != nil {
		log.Error().Err(err).Str("sesion_caja_id", ev.SesionCajaID).Msg("no se pudo publicar la auditoría")
	}
	s.notificarDescuadre(ctx, sesion, res)
	return cierreResponse(sesion, res), nil
}
