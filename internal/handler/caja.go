package handler

import (
	"net/http"
	"time"

	"ferrepos/internal/apierror"
	"ferrepos/internal/dto"
	"ferrepos/internal/middleware"
	"ferrepos/internal/service"

	"github.com/gin-gonic/gin"
)

type CajaHandler struct{ svc service.CajaService }

func NewCajaHandler(svc service.CajaService) *CajaHandler { return &CajaHandler{svc: svc} }

// Abrir godoc
// @Summary Abre una nueva sesion de caja
// @Tags caja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.AbrirCajaRequest true "Datos de apertura"
// @Success 201 {object} dto.SesionCajaResponse
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/caja/sesiones [post]
func (h *CajaHandler) Abrir(c *gin.Context) {
	var req dto.AbrirCajaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Abrir(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// AgregarMovimiento godoc
// @Summary Registra un movimiento en el libro de la sesion
// @Tags caja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de sesion"
// @Param body body dto.MovimientoRequest true "Movimiento"
// @Success 201 {object} dto.MovimientoResponse
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/caja/sesiones/{id}/movimientos [post]
func (h *CajaHandler) AgregarMovimiento(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.MovimientoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AgregarMovimiento(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// SaldoTeorico godoc
// @Summary Saldo teorico de la sesion (solo supervisores mientras esta abierta)
// @Tags caja
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de sesion"
// @Param hasta query string false "Instante RFC3339 (default: ahora)"
// @Success 200 {object} dto.SaldoTeoricoResponse
// @Failure 403 {object} apierror.APIError
// @Router /v1/caja/sesiones/{id}/saldo-teorico [get]
func (h *CajaHandler) SaldoTeorico(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var hasta time.Time
	if raw := c.Query("hasta"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("hasta debe ser RFC3339"))
			return
		}
		hasta = t
	}
	resp, err := h.svc.SaldoTeorico(c.Request.Context(), middleware.GetActor(c), id, hasta)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cerrar godoc
// @Summary Cierre ciego de la sesion por su cajero
// @Tags caja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de sesion"
// @Param body body dto.CerrarCajaRequest true "Monto contado"
// @Success 200 {object} dto.CierreResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/caja/sesiones/{id}/cierre [post]
func (h *CajaHandler) Cerrar(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.CerrarCajaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CerrarNormal(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CerrarAdministrativo godoc
// @Summary Cierre administrativo de una sesion ajena
// @Tags caja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de sesion"
// @Param body body dto.CierreAdministrativoRequest true "Monto contado y justificacion"
// @Success 200 {object} dto.CierreResponse
// @Failure 403 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/caja/sesiones/{id}/cierre-administrativo [post]
func (h *CajaHandler) CerrarAdministrativo(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.CierreAdministrativoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CerrarAdministrativo(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Detalle returns a session with its movements.
func (h *CajaHandler) Detalle(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Detalle(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SesionActiva returns the OPEN session of a register, or 428 when there is none.
func (h *CajaHandler) SesionActiva(c *gin.Context) {
	cajaID, ok := paramID(c, "caja_id")
	if !ok {
		return
	}
	resp, err := h.svc.SesionActiva(c.Request.Context(), middleware.GetActor(c), cajaID)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Historial godoc
// @Summary Historial de sesiones cerradas de una caja
// @Tags caja
// @Produce json
// @Security BearerAuth
// @Param caja_id path string true "ID de caja"
// @Param page  query int false "Página (default 1)"
// @Param limit query int false "Registros por página (default 20, max 100)"
// @Success 200 {object} dto.HistorialSesionesResponse
// @Router /v1/cajas/{caja_id}/sesiones [get]
func (h *CajaHandler) Historial(c *gin.Context) {
	cajaID, ok := paramID(c, "caja_id")
	if !ok {
		return
	}
	page, limit := paginacion(c)
	resp, err := h.svc.Historial(c.Request.Context(), middleware.GetActor(c), cajaID, page, limit)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
