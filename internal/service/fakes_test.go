package service

import (
	"context"
	"sort"
	"sync"

	"ferrepos/internal/dto"
	"ferrepos/internal/model"
	"ferrepos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ── In-memory store shared by the repository fakes ───────────────────────────
// Mirrors the database guarantees the services rely on: the partial unique
// index on OPEN sessions, conditional close and version checks.

type memStore struct {
	mu          sync.Mutex
	cajas       map[uuid.UUID]model.Caja
	sesiones    map[uuid.UUID]model.SesionCaja
	movimientos []model.MovimientoCaja
	auditorias  []model.AuditoriaCierre
	ventas      map[uuid.UUID]model.Venta
	notas       []model.NotaCredito
	clientes    map[uuid.UUID]model.Cliente
	cuentas     map[uuid.UUID]model.CuentaPorCobrar
	pagos       []model.PagoCuenta
}

func newMemStore() *memStore {
	return &memStore{
		cajas:    make(map[uuid.UUID]model.Caja),
		sesiones: make(map[uuid.UUID]model.SesionCaja),
		ventas:   make(map[uuid.UUID]model.Venta),
		clientes: make(map[uuid.UUID]model.Cliente),
		cuentas:  make(map[uuid.UUID]model.CuentaPorCobrar),
	}
}

func (m *memStore) movimientosDe(sesionID uuid.UUID) []model.MovimientoCaja {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.MovimientoCaja
	for _, mv := range m.movimientos {
		if mv.SesionCajaID == sesionID {
			out = append(out, mv)
		}
	}
	return out
}

func (m *memStore) cuenta(id uuid.UUID) model.CuentaPorCobrar {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cuentas[id]
}

func (m *memStore) cuentaDeVenta(ventaID uuid.UUID) (model.CuentaPorCobrar, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.cuentas {
		if c.VentaID == ventaID {
			return c, true
		}
	}
	return model.CuentaPorCobrar{}, false
}

// ── CajaRepository ────────────────────────────────────────────────────────────

type fakeCajaRepo struct{ *memStore }

func (r fakeCajaRepo) DB() *gorm.DB { return nil }

func (r fakeCajaRepo) FindCaja(_ context.Context, id uuid.UUID) (*model.Caja, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cajas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (r fakeCajaRepo) CreateSesion(_ context.Context, _ *gorm.DB, s *model.SesionCaja) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.sesiones {
		if o.CajaID == s.CajaID && o.Estado == model.SesionAbierta {
			return gorm.ErrDuplicatedKey
		}
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.sesiones[s.ID] = *s
	return nil
}

func (r fakeCajaRepo) FindSesionByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*model.SesionCaja, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sesiones[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &s, nil
}

func (r fakeCajaRepo) FindSesionForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.SesionCaja, error) {
	return r.FindSesionByID(ctx, tx, id)
}

func (r fakeCajaRepo) FindSesionAbierta(_ context.Context, _ *gorm.DB, cajaID uuid.UUID) (*model.SesionCaja, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sesiones {
		if s.CajaID == cajaID && s.Estado == model.SesionAbierta {
			return &s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r fakeCajaRepo) CerrarSesion(_ context.Context, _ *gorm.DB, s *model.SesionCaja) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	actual, ok := r.sesiones[s.ID]
	if !ok || actual.Estado != model.SesionAbierta {
		return repository.ErrEstadoCambiado
	}
	r.sesiones[s.ID] = *s
	return nil
}

func (r fakeCajaRepo) ListSesionesCerradas(_ context.Context, cajaID uuid.UUID, page, limit int) ([]model.SesionCaja, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []model.SesionCaja
	for _, s := range r.sesiones {
		if s.CajaID == cajaID && s.Estado == model.SesionCerrada {
			all = append(all, s)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].AbiertaAt.After(all[j].AbiertaAt) })
	total := int64(len(all))
	from := (page - 1) * limit
	if from >= len(all) {
		return nil, total, nil
	}
	to := from + limit
	if to > len(all) {
		to = len(all)
	}
	return all[from:to], total, nil
}

func (r fakeCajaRepo) CreateMovimiento(_ context.Context, _ *gorm.DB, m *model.MovimientoCaja) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.movimientos = append(r.movimientos, *m)
	return nil
}

func (r fakeCajaRepo) ListMovimientos(_ context.Context, _ *gorm.DB, sesionID uuid.UUID) ([]model.MovimientoCaja, error) {
	return r.movimientosDe(sesionID), nil
}

func (r fakeCajaRepo) CreateAuditoria(_ context.Context, _ *gorm.DB, a *model.AuditoriaCierre) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	r.auditorias = append(r.auditorias, *a)
	return nil
}

// ── VentaRepository ───────────────────────────────────────────────────────────

type fakeVentaRepo struct{ *memStore }

func (r fakeVentaRepo) DB() *gorm.DB { return nil }

func (r fakeVentaRepo) Create(_ context.Context, _ *gorm.DB, v *model.Venta) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.Version == 0 {
		v.Version = 1
	}
	r.ventas[v.ID] = *v
	return nil
}

func (r fakeVentaRepo) FindByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*model.Venta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.ventas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &v, nil
}

func (r fakeVentaRepo) FindForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Venta, error) {
	return r.FindByID(ctx, tx, id)
}

func (r fakeVentaRepo) BumpVersion(_ context.Context, _ *gorm.DB, id uuid.UUID, expected int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.ventas[id]
	if !ok || v.Version != expected {
		return repository.ErrVersionConflict
	}
	v.Version++
	r.ventas[id] = v
	return nil
}

// ── NotaCreditoRepository ─────────────────────────────────────────────────────

type fakeNotaRepo struct{ *memStore }

func (r fakeNotaRepo) Create(_ context.Context, _ *gorm.DB, n *model.NotaCredito) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	r.notas = append(r.notas, *n)
	return nil
}

func (r fakeNotaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.NotaCredito, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notas {
		if n.ID == id {
			return &n, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r fakeNotaRepo) ListByVenta(_ context.Context, _ *gorm.DB, ventaID uuid.UUID) ([]model.NotaCredito, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.NotaCredito
	for _, n := range r.notas {
		if n.VentaID == ventaID {
			out = append(out, n)
		}
	}
	return out, nil
}

// ── ClienteRepository ─────────────────────────────────────────────────────────

type fakeClienteRepo struct{ *memStore }

func (r fakeClienteRepo) FindByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*model.Cliente, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clientes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (r fakeClienteRepo) FindForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Cliente, error) {
	return r.FindByID(ctx, tx, id)
}

func (r fakeClienteRepo) BumpVersion(_ context.Context, _ *gorm.DB, id uuid.UUID, expected int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clientes[id]
	if !ok || c.Version != expected {
		return repository.ErrVersionConflict
	}
	c.Version++
	r.clientes[id] = c
	return nil
}

func (r fakeClienteRepo) CreateCuenta(_ context.Context, _ *gorm.DB, c *model.CuentaPorCobrar) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.cuentas[c.ID] = *c
	return nil
}

func (r fakeClienteRepo) FindCuentaByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*model.CuentaPorCobrar, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cuentas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (r fakeClienteRepo) FindCuentaByVenta(_ context.Context, _ *gorm.DB, ventaID uuid.UUID) (*model.CuentaPorCobrar, error) {
	c, ok := r.cuentaDeVenta(ventaID)
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (r fakeClienteRepo) ListCuentasPendientes(_ context.Context, _ *gorm.DB, clienteID uuid.UUID) ([]model.CuentaPorCobrar, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.CuentaPorCobrar
	for _, c := range r.cuentas {
		if c.ClienteID == clienteID && c.Estado == model.CuentaPendiente {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r fakeClienteRepo) UpdateSaldoCuenta(_ context.Context, _ *gorm.DB, c *model.CuentaPorCobrar) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	actual, ok := r.cuentas[c.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	actual.SaldoPendiente = c.SaldoPendiente
	actual.Estado = c.Estado
	r.cuentas[c.ID] = actual
	return nil
}

func (r fakeClienteRepo) CreatePago(_ context.Context, _ *gorm.DB, p *model.PagoCuenta) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.pagos = append(r.pagos, *p)
	return nil
}

// ── Notificador ───────────────────────────────────────────────────────────────

type fakeNotificador struct {
	mu          sync.Mutex
	descuadres  []dto.EventoDescuadre
	auditorias  []dto.EventoCierreAdministrativo
	errAlEnviar error
}

func (f *fakeNotificador) NotificarDescuadre(_ context.Context, ev dto.EventoDescuadre) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.descuadres = append(f.descuadres, ev)
	return f.errAlEnviar
}

func (f *fakeNotificador) PublicarAuditoria(_ context.Context, ev dto.EventoCierreAdministrativo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auditorias = append(f.auditorias, ev)
	return f.errAlEnviar
}
