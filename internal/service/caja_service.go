package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"ferrepos/internal/apperror"
	"ferrepos/internal/dto"
	"ferrepos/internal/infra"
	"ferrepos/internal/model"
	"ferrepos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const largoMinimoTexto = 10

var origenes = []string{model.OrigenVenta, model.OrigenNotaCredito, model.OrigenPago, model.OrigenManual}

type CajaService interface {
	Abrir(ctx context.Context, actor Actor, req dto.AbrirCajaRequest) (*dto.SesionCajaResponse, error)
	AgregarMovimiento(ctx context.Context, actor Actor, sesionID uuid.UUID, req dto.MovimientoRequest) (*dto.MovimientoResponse, error)
	SaldoTeorico(ctx context.Context, actor Actor, sesionID uuid.UUID, hasta time.Time) (*dto.SaldoTeoricoResponse, error)
	CerrarNormal(ctx context.Context, actor Actor, sesionID uuid.UUID, req dto.CerrarCajaRequest) (*dto.CierreResponse, error)
	CerrarAdministrativo(ctx context.Context, actor Actor, sesionID uuid.UUID, req dto.CierreAdministrativoRequest) (*dto.CierreResponse, error)
	SesionActiva(ctx context.Context, actor Actor, cajaID uuid.UUID) (*dto.SesionCajaResponse, error)
	Detalle(ctx context.Context, actor Actor, sesionID uuid.UUID) (*dto.SesionCajaResponse, error)
	Historial(ctx context.Context, actor Actor, cajaID uuid.UUID, page, limit int) (*dto.HistorialSesionesResponse, error)
}

type cajaService struct {
	repo   repository.CajaRepository
	locker infra.Locker
	notif  Notificador
	reloj  reloj
}

func NewCajaService(repo repository.CajaRepository, locker infra.Locker, notif Notificador) CajaService {
	if notif == nil {
		notif = NotificadorLog{}
	}
	return &cajaService{repo: repo, locker: locker, notif: notif}
}

// ── Abrir ─────────────────────────────────────────────────────────────────────

func (s *cajaService) Abrir(ctx context.Context, actor Actor, req dto.AbrirCajaRequest) (*dto.SesionCajaResponse, error) {
	cajaID, err := parseID("caja_id", req.CajaID)
	if err != nil {
		return nil, err
	}
	if req.MontoApertura.IsNegative() {
		return nil, apperror.Validation(map[string]string{"monto_apertura": "no puede ser negativo"})
	}
	if !enCentimos(req.MontoApertura) {
		return nil, apperror.Validation(map[string]string{"monto_apertura": msgCentimos})
	}

	caja, err := s.repo.FindCaja(ctx, cajaID)
	if err != nil {
		return nil, notFound(err, "caja")
	}
	if caja.TenantID != actor.TenantID {
		return nil, apperror.New(apperror.KindNotFound, "caja")
	}
	if !caja.Activa {
		return nil, apperror.Validation(map[string]string{"caja_id": "la caja está inactiva"})
	}

	unlock, err := lockAll(ctx, s.locker, "caja:"+cajaID.String())
	if err != nil {
		return nil, err
	}
	defer unlock()

	sesion := &model.SesionCaja{
		TenantID:      actor.TenantID,
		CajaID:        cajaID,
		UsuarioID:     actor.UsuarioID,
		Estado:        model.SesionAbierta,
		MontoApertura: req.MontoApertura,
		AbiertaAt:     s.reloj.ahora(),
	}
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		_, err := s.repo.FindSesionAbierta(ctx, tx, cajaID)
		if err == nil {
			return apperror.New(apperror.KindSessionAlreadyOpen, cajaID.String())
		}
		if !repository.IsNotFound(err) {
			return err
		}
		if err := s.repo.CreateSesion(ctx, tx, sesion); err != nil {
			// the partial unique index catches opens from other instances
			if repository.IsDuplicate(err) {
				return apperror.Wrap(apperror.KindSessionAlreadyOpen, cajaID.String(), err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("sesion_caja_id", sesion.ID.String()).
		Str("caja_id", cajaID.String()).
		Str("usuario_id", actor.UsuarioID.String()).
		Msg("sesión de caja abierta")
	return sesionResponse(sesion, nil, false), nil
}

// ── AgregarMovimiento ─────────────────────────────────────────────────────────
// Only the owner or a supervisor may write to a session ledger by hand.

func (s *cajaService) AgregarMovimiento(ctx context.Context, actor Actor, sesionID uuid.UUID, req dto.MovimientoRequest) (*dto.MovimientoResponse, error) {
	mov, err := movimientoDesdeRequest(actor, req)
	if err != nil {
		return nil, err
	}

	// state is checked before the payload: a CLOSED session rejects any write
	// with SESSION_CLOSED, whatever the amount.
	unlock, err := lockAll(ctx, s.locker, keySesion(sesionID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		sesion, err := s.cargarSesion(ctx, tx, actor, sesionID)
		if err != nil {
			return err
		}
		if !sesion.Abierta() {
			return apperror.New(apperror.KindSessionClosed, sesionID.String())
		}
		if sesion.UsuarioID != actor.UsuarioID && !actor.EsSupervisor {
			return apperror.New(apperror.KindUnauthorized, "la sesión pertenece a otro usuario")
		}
		mov.CreatedAt = s.reloj.ahora()
		return registrarMovimiento(ctx, s.repo, tx, sesion, mov)
	})
	if err != nil {
		return nil, err
	}
	resp := movimientoResponse(*mov)
	return &resp, nil
}

// ── SaldoTeorico ──────────────────────────────────────────────────────────────
// Blind count: the running balance of an OPEN session is only visible to
// supervisors.

func (s *cajaService) SaldoTeorico(ctx context.Context, actor Actor, sesionID uuid.UUID, hasta time.Time) (*dto.SaldoTeoricoResponse, error) {
	sesion, err := s.cargarSesion(ctx, nil, actor, sesionID)
	if err != nil {
		return nil, err
	}
	if sesion.Abierta() && !actor.EsSupervisor {
		return nil, apperror.New(apperror.KindUnauthorized, "saldo teórico oculto hasta el cierre")
	}
	movs, err := s.repo.ListMovimientos(ctx, nil, sesionID)
	if err != nil {
		return nil, err
	}
	if hasta.IsZero() {
		hasta = s.reloj.ahora()
	}
	return &dto.SaldoTeoricoResponse{
		SesionCajaID: sesionID.String(),
		Hasta:        hasta,
		MontoTeorico: saldoTeorico(sesion.MontoApertura, movs, hasta),
	}, nil
}

// ── CerrarNormal ──────────────────────────────────────────────────────────────

func (s *cajaService) CerrarNormal(ctx context.Context, actor Actor, sesionID uuid.UUID, req dto.CerrarCajaRequest) (*dto.CierreResponse, error) {
	if req.MontoContado.IsNegative() {
		return nil, apperror.Validation(map[string]string{"monto_contado": "no puede ser negativo"})
	}
	if !enCentimos(req.MontoContado) {
		return nil, apperror.Validation(map[string]string{"monto_contado": msgCentimos})
	}

	unlock, err := lockAll(ctx, s.locker, keySesion(sesionID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var sesion *model.SesionCaja
	var res ResultadoCierre
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		sesion, err = s.cargarSesionParaCierre(ctx, tx, actor, sesionID)
		if err != nil {
			return err
		}
		if sesion.UsuarioID != actor.UsuarioID {
			return apperror.New(apperror.KindUnauthorized, "solo el cajero de la sesión puede cerrarla")
		}
		res, err = s.cerrar(ctx, tx, sesion, actor, req.MontoContado, model.CierreNormal, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("sesion_caja_id", sesionID.String()).
		Str("clasificacion", res.Clasificacion).
		Str("descuadre", res.Descuadre.StringFixed(2)).
		Msg("sesión de caja cerrada")
	s.notificarDescuadre(ctx, sesion, res)
	return cierreResponse(sesion, res), nil
}

// ── Vistas ────────────────────────────────────────────────────────────────────

func (s *cajaService) SesionActiva(ctx context.Context, actor Actor, cajaID uuid.UUID) (*dto.SesionCajaResponse, error) {
	sesion, err := s.repo.FindSesionAbierta(ctx, nil, cajaID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.New(apperror.KindRequiresSessionOpen, cajaID.String())
		}
		return nil, err
	}
	if sesion.TenantID != actor.TenantID {
		return nil, apperror.New(apperror.KindRequiresSessionOpen, cajaID.String())
	}
	return s.vista(ctx, actor, sesion, false)
}

func (s *cajaService) Detalle(ctx context.Context, actor Actor, sesionID uuid.UUID) (*dto.SesionCajaResponse, error) {
	sesion, err := s.cargarSesion(ctx, nil, actor, sesionID)
	if err != nil {
		return nil, err
	}
	return s.vista(ctx, actor, sesion, true)
}

func (s *cajaService) Historial(ctx context.Context, actor Actor, cajaID uuid.UUID, page, limit int) (*dto.HistorialSesionesResponse, error) {
	caja, err := s.repo.FindCaja(ctx, cajaID)
	if err != nil {
		return nil, notFound(err, "caja")
	}
	if caja.TenantID != actor.TenantID {
		return nil, apperror.New(apperror.KindNotFound, "caja")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	sesiones, total, err := s.repo.ListSesionesCerradas(ctx, cajaID, page, limit)
	if err != nil {
		return nil, err
	}
	data := make([]dto.SesionCajaResponse, 0, len(sesiones))
	for i := range sesiones {
		data = append(data, *sesionResponse(&sesiones[i], nil, true))
	}
	return &dto.HistorialSesionesResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}

// vista builds a session view. The theoretical balance of an OPEN session is
// only computed for supervisors.
func (s *cajaService) vista(ctx context.Context, actor Actor, sesion *model.SesionCaja, conMovimientos bool) (*dto.SesionCajaResponse, error) {
	verTeorico := !sesion.Abierta() || actor.EsSupervisor
	var movs []model.MovimientoCaja
	if conMovimientos || (sesion.Abierta() && verTeorico) {
		var err error
		if movs, err = s.repo.ListMovimientos(ctx, nil, sesion.ID); err != nil {
			return nil, err
		}
	}
	resp := sesionResponse(sesion, nil, verTeorico)
	if conMovimientos {
		resp.Movimientos = make([]dto.MovimientoResponse, 0, len(movs))
		for _, m := range movs {
			resp.Movimientos = append(resp.Movimientos, movimientoResponse(m))
		}
	}
	if sesion.Abierta() && verTeorico {
		t := saldoTeorico(sesion.MontoApertura, movs, time.Time{})
		resp.MontoTeorico = &t
	}
	return resp, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// cargarSesion loads a session of the actor's tenant. Other tenants' sessions
// are reported as missing.
func (s *cajaService) cargarSesion(ctx context.Context, tx *gorm.DB, actor Actor, id uuid.UUID) (*model.SesionCaja, error) {
	var sesion *model.SesionCaja
	var err error
	if tx != nil {
		sesion, err = s.repo.FindSesionForUpdate(ctx, tx, id)
	} else {
		sesion, err = s.repo.FindSesionByID(ctx, nil, id)
	}
	if err != nil {
		return nil, notFound(err, "sesión de caja")
	}
	if sesion.TenantID != actor.TenantID {
		return nil, apperror.New(apperror.KindNotFound, "sesión de caja")
	}
	return sesion, nil
}

func (s *cajaService) cargarSesionParaCierre(ctx context.Context, tx *gorm.DB, actor Actor, id uuid.UUID) (*model.SesionCaja, error) {
	sesion, err := s.cargarSesion(ctx, tx, actor, id)
	if err != nil {
		return nil, err
	}
	if !sesion.Abierta() {
		return nil, apperror.New(apperror.KindSessionClosed, id.String())
	}
	return sesion, nil
}

// cerrar reconciles and writes the close. The caller holds the session lock,
// so every committed movement is part of the count.
func (s *cajaService) cerrar(ctx context.Context, tx *gorm.DB, sesion *model.SesionCaja, actor Actor, contado decimal.Decimal, tipo string, motivo *string) (ResultadoCierre, error) {
	movs, err := s.repo.ListMovimientos(ctx, tx, sesion.ID)
	if err != nil {
		return ResultadoCierre{}, err
	}
	res := Conciliar(sesion.MontoApertura, movs, contado, time.Time{})

	ahora := s.reloj.ahora()
	cerradaPor := actor.UsuarioID
	clasificacion := res.Clasificacion
	sesion.Estado = model.SesionCerrada
	sesion.MontoTeorico = &res.Teorico
	sesion.MontoContado = &res.Contado
	sesion.Descuadre = &res.Descuadre
	sesion.Clasificacion = &clasificacion
	sesion.TipoCierre = &tipo
	sesion.MotivoCierre = motivo
	sesion.CerradaPor = &cerradaPor
	sesion.CerradaAt = &ahora

	if err := s.repo.CerrarSesion(ctx, tx, sesion); err != nil {
		if errors.Is(err, repository.ErrEstadoCambiado) {
			return ResultadoCierre{}, apperror.Wrap(apperror.KindSessionClosed, sesion.ID.String(), err)
		}
		return ResultadoCierre{}, err
	}
	return res, nil
}

func (s *cajaService) notificarDescuadre(ctx context.Context, sesion *model.SesionCaja, res ResultadoCierre) {
	if res.Descuadre.IsZero() {
		return
	}
	ev := dto.EventoDescuadre{
		TenantID:      sesion.TenantID.String(),
		SesionCajaID:  sesion.ID.String(),
		CajaID:        sesion.CajaID.String(),
		UsuarioID:     sesion.UsuarioID.String(),
		TipoCierre:    deref(sesion.TipoCierre),
		MontoTeorico:  res.Teorico,
		MontoContado:  res.Contado,
		Descuadre:     res.Descuadre,
		Clasificacion: res.Clasificacion,
		CerradaAt:     derefTime(sesion.CerradaAt),
	}
	if err := s.notif.NotificarDescuadre(ctx, ev); err != nil {
		log.Error().Err(err).Str("sesion_caja_id", ev.SesionCajaID).Msg("no se pudo notificar el descuadre")
	}
}

// ── Diario de movimientos ─────────────────────────────────────────────────────

// registrarMovimiento appends mov to the ledger of sesion. The caller holds the
// session lock and has loaded sesion inside tx.
func registrarMovimiento(ctx context.Context, repo repository.CajaRepository, tx *gorm.DB, sesion *model.SesionCaja, mov *model.MovimientoCaja) error {
	if !sesion.Abierta() {
		return apperror.New(apperror.KindSessionClosed, sesion.ID.String())
	}
	if err := validarMovimiento(mov); err != nil {
		return err
	}
	mov.SesionCajaID = sesion.ID
	if mov.CreatedAt.IsZero() {
		mov.CreatedAt = time.Now()
	}
	return repo.CreateMovimiento(ctx, tx, mov)
}

func validarMovimiento(m *model.MovimientoCaja) error {
	fields := map[string]string{}
	switch {
	case !m.Monto.IsPositive():
		fields["monto"] = "debe ser mayor a cero"
	case !enCentimos(m.Monto):
		fields["monto"] = msgCentimos
	}
	if m.Tipo != model.Ingreso && m.Tipo != model.Egreso {
		fields["tipo"] = "debe ser INGRESO o EGRESO"
	}
	if !contiene(model.MetodosPago, m.MetodoPago) {
		fields["metodo_pago"] = "método de pago no soportado"
	}
	switch {
	case strings.TrimSpace(m.Descripcion) == "":
		fields["descripcion"] = "es obligatoria"
	case m.Origen == model.OrigenManual && largo(m.Descripcion) < largoMinimoTexto:
		fields["descripcion"] = "mínimo 10 caracteres para movimientos manuales"
	}

	refs := 0
	for _, r := range []*uuid.UUID{m.VentaID, m.NotaCreditoID, m.PagoID} {
		if r != nil {
			refs++
		}
	}
	switch m.Origen {
	case model.OrigenManual:
		if refs != 0 {
			fields["origen"] = "un movimiento manual no referencia documentos"
		}
	case model.OrigenVenta:
		if refs != 1 || m.VentaID == nil {
			fields["venta_id"] = "obligatorio para origen SALE"
		}
	case model.OrigenNotaCredito:
		if refs != 1 || m.NotaCreditoID == nil {
			fields["nota_credito_id"] = "obligatorio para origen CREDIT_NOTE"
		}
	case model.OrigenPago:
		if refs != 1 || m.PagoID == nil {
			fields["pago_id"] = "obligatorio para origen PAYMENT"
		}
	default:
		fields["origen"] = "origen no soportado"
	}

	if len(fields) > 0 {
		return apperror.Validation(fields)
	}
	return nil
}

func movimientoDesdeRequest(actor Actor, req dto.MovimientoRequest) (*model.MovimientoCaja, error) {
	origen := req.Origen
	if origen == "" {
		origen = model.OrigenManual
	}
	if !contiene(origenes, origen) {
		return nil, apperror.Validation(map[string]string{"origen": "origen no soportado"})
	}
	ventaID, err := parseOptID("venta_id", req.VentaID)
	if err != nil {
		return nil, err
	}
	notaID, err := parseOptID("nota_credito_id", req.NotaCreditoID)
	if err != nil {
		return nil, err
	}
	pagoID, err := parseOptID("pago_id", req.PagoID)
	if err != nil {
		return nil, err
	}
	return &model.MovimientoCaja{
		Tipo:          req.Tipo,
		Monto:         req.Monto,
		MetodoPago:    req.MetodoPago,
		Descripcion:   strings.TrimSpace(req.Descripcion),
		Origen:        origen,
		VentaID:       ventaID,
		NotaCreditoID: notaID,
		PagoID:        pagoID,
		UsuarioID:     actor.UsuarioID,
	}, nil
}

// ── Respuestas ────────────────────────────────────────────────────────────────

func sesionResponse(s *model.SesionCaja, movs []model.MovimientoCaja, verTeorico bool) *dto.SesionCajaResponse {
	resp := &dto.SesionCajaResponse{
		ID:            s.ID.String(),
		CajaID:        s.CajaID.String(),
		UsuarioID:     s.UsuarioID.String(),
		Estado:        s.Estado,
		MontoApertura: s.MontoApertura,
		MontoContado:  s.MontoContado,
		Descuadre:     s.Descuadre,
		Clasificacion: s.Clasificacion,
		TipoCierre:    s.TipoCierre,
		MotivoCierre:  s.MotivoCierre,
		CerradaPor:    idPtr(s.CerradaPor),
		AbiertaAt:     s.AbiertaAt,
		CerradaAt:     s.CerradaAt,
	}
	if verTeorico {
		resp.MontoTeorico = s.MontoTeorico
	}
	for _, m := range movs {
		resp.Movimientos = append(resp.Movimientos, movimientoResponse(m))
	}
	return resp
}

func movimientoResponse(m model.MovimientoCaja) dto.MovimientoResponse {
	return dto.MovimientoResponse{
		ID:            m.ID.String(),
		SesionCajaID:  m.SesionCajaID.String(),
		Tipo:          m.Tipo,
		Monto:         m.Monto,
		MetodoPago:    m.MetodoPago,
		Descripcion:   m.Descripcion,
		Origen:        m.Origen,
		VentaID:       idPtr(m.VentaID),
		NotaCreditoID: idPtr(m.NotaCreditoID),
		PagoID:        idPtr(m.PagoID),
		UsuarioID:     m.UsuarioID.String(),
		CreatedAt:     m.CreatedAt,
	}
}

func cierreResponse(s *model.SesionCaja, res ResultadoCierre) *dto.CierreResponse {
	return &dto.CierreResponse{
		SesionCajaID:  s.ID.String(),
		TipoCierre:    deref(s.TipoCierre),
		MontoApertura: res.Apertura,
		TotalIngresos: res.TotalIngresos,
		TotalEgresos:  res.TotalEgresos,
		MontoTeorico:  res.Teorico,
		MontoContado:  res.Contado,
		Descuadre:     res.Descuadre,
		Clasificacion: res.Clasificacion,
		CerradaAt:     derefTime(s.CerradaAt),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
