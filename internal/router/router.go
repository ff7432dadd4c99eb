package router

import (
	"context"
	"time"

	"ferrepos/internal/config"
	"ferrepos/internal/handler"
	"ferrepos/internal/infra"
	"ferrepos/internal/middleware"
	"ferrepos/internal/repository"
	"ferrepos/internal/service"
	"ferrepos/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// rdb may be nil; locks then stay in-process and notifications are only logged.
func New(ctx context.Context, cfg *config.Config, db *gorm.DB, rdb redis.UniversalClient, smtpCB *infra.CircuitBreaker) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPM, time.Minute)
	go limiter.Purge(ctx)

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.Origins()))
	r.Use(middleware.ErrorHandler())
	r.Use(limiter.Handler())

	// ── Infrastructure ───────────────────────────────────────────────────────
	locker := NewLocker(cfg, rdb)
	var notif service.Notificador = service.NotificadorLog{}
	if rdb != nil {
		notif = worker.NewDispatcher(rdb)
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	cajaRepo := repository.NewCajaRepository(db)
	ventaRepo := repository.NewVentaRepository(db)
	notaRepo := repository.NewNotaCreditoRepository(db)
	clienteRepo := repository.NewClienteRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	cajaSvc := service.NewCajaService(cajaRepo, locker, notif)
	ventaSvc := service.NewVentaService(ventaRepo, cajaRepo, clienteRepo, locker, cfg.ConflictRetries)
	notaSvc := service.NewNotaCreditoService(notaRepo, ventaRepo, cajaRepo, clienteRepo, locker, cfg.ConflictRetries)
	creditoSvc := service.NewCreditoService(clienteRepo)
	cuentaSvc := service.NewCuentaService(clienteRepo, cajaRepo, locker, cfg.ConflictRetries)

	// ── Handlers ─────────────────────────────────────────────────────────────
	cajaH := handler.NewCajaHandler(cajaSvc)
	ventasH := handler.NewVentasHandler(ventaSvc)
	notasH := handler.NewNotasCreditoHandler(notaSvc)
	creditosH := handler.NewCreditosHandler(creditoSvc, cuentaSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, smtpCB))

	todos := middleware.RequireRole(middleware.RolCajero, middleware.RolSupervisor, middleware.RolAdministrador)
	supervisores := middleware.RequireRole(middleware.RolSupervisor, middleware.RolAdministrador)

	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		sesiones := v1.Group("/caja/sesiones", todos)
		{
			sesiones.POST("", cajaH.Abrir)
			sesiones.GET("/:id", cajaH.Detalle)
			sesiones.POST("/:id/movimientos", cajaH.AgregarMovimiento)
			// blind count: the service hides the balance from cashiers while OPEN
			sesiones.GET("/:id/saldo-teorico", cajaH.SaldoTeorico)
			sesiones.POST("/:id/cierre", cajaH.Cerrar)
			sesiones.POST("/:id/cierre-administrativo", supervisores, cajaH.CerrarAdministrativo)
		}
		v1.GET("/cajas/:caja_id/sesion-activa", todos, cajaH.SesionActiva)
		v1.GET("/cajas/:caja_id/sesiones", supervisores, cajaH.Historial)

		v1.POST("/ventas", todos, ventasH.Registrar)
		v1.GET("/ventas/:id", todos, ventasH.Obtener)
		v1.GET("/ventas/:id/saldo-devolucion", todos, withParam("venta_id", notasH.SaldoDisponible))
		v1.GET("/ventas/:id/puede-emitir", todos, withParam("venta_id", notasH.PuedeEmitir))
		v1.GET("/ventas/:id/guia-remision", todos, withParam("venta_id", notasH.VerificarGuiaRemision))

		v1.POST("/notas-credito", supervisores, notasH.Emitir)

		v1.GET("/clientes/:id/credito", todos, creditosH.CreditoDisponible)
		v1.GET("/clientes/:id/cuentas", todos, creditosH.CuentasPendientes)
		v1.POST("/credito/validar", todos, creditosH.Validar)
		v1.POST("/cuentas/:id/pagos", todos, creditosH.RegistrarPago)
	}

	// Swagger UI, only enabled outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}

// NewLocker picks the lock backend. "redis" needs a live client; without one
// the process falls back to in-process locks, which only hold for a single
// instance.
func NewLocker(cfg *config.Config, rdb redis.UniversalClient) infra.Locker {
	if cfg.LockBackend == "redis" {
		if rdb != nil {
			return infra.NewRedisLocker(rdb, cfg.LockTTL(), cfg.LockTimeout())
		}
		log.Warn().Msg("LOCK_BACKEND=redis without redis; using in-process locks")
	}
	return infra.NewLocalLocker(cfg.LockTimeout())
}

// withParam exposes the :id segment under another name; gin requires one
// wildcard name per path position.
func withParam(name string, h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Params = append(c.Params, gin.Param{Key: name, Value: c.Param("id")})
		h(c)
	}
}
