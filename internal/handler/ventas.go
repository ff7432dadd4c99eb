package handler

import (
	"net/http"

	"ferrepos/internal/dto"
	"ferrepos/internal/middleware"
	"ferrepos/internal/service"

	"github.com/gin-gonic/gin"
)

type VentasHandler struct{ svc service.VentaService }

func NewVentasHandler(svc service.VentaService) *VentasHandler { return &VentasHandler{svc: svc} }

// Registrar godoc
// @Summary Registra el lado financiero de una venta
// @Description Requiere una sesion abierta en la caja (428 con requiere_accion APERTURA_SESION).
// @Tags ventas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.RegistrarVentaRequest true "Venta"
// @Success 201 {object} dto.VentaResponse
// @Failure 422 {object} apierror.APIError
// @Failure 428 {object} apierror.APIError
// @Router /v1/ventas [post]
func (h *VentasHandler) Registrar(c *gin.Context) {
	var req dto.RegistrarVentaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Registrar(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Obtener godoc
// @Summary Obtiene una venta
// @Tags ventas
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de venta"
// @Success 200 {object} dto.VentaResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/ventas/{id} [get]
func (h *VentasHandler) Obtener(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
