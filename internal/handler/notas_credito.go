package handler

import (
	"net/http"

	"ferrepos/internal/apierror"
	"ferrepos/internal/dto"
	"ferrepos/internal/middleware"
	"ferrepos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type NotasCreditoHandler struct{ svc service.NotaCreditoService }

func NewNotasCreditoHandler(svc service.NotaCreditoService) *NotasCreditoHandler {
	return &NotasCreditoHandler{svc: svc}
}

// Emitir godoc
// @Summary Emite una nota de credito contra una venta aceptada
// @Tags notas-credito
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.EmitirNotaCreditoRequest true "Nota de credito"
// @Success 201 {object} dto.NotaCreditoResponse
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/notas-credito [post]
func (h *NotasCreditoHandler) Emitir(c *gin.Context) {
	var req dto.EmitirNotaCreditoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Emitir(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// SaldoDisponible godoc
// @Summary Monto aun reembolsable de una venta
// @Tags notas-credito
// @Produce json
// @Security BearerAuth
// @Param venta_id path string true "ID de venta"
// @Success 200 {object} dto.SaldoVentaResponse
// @Router /v1/ventas/{venta_id}/saldo-devolucion [get]
func (h *NotasCreditoHandler) SaldoDisponible(c *gin.Context) {
	id, ok := paramID(c, "venta_id")
	if !ok {
		return
	}
	resp, err := h.svc.SaldoDisponible(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PuedeEmitir godoc
// @Summary Verifica si una nota por el monto indicado seria aceptada
// @Tags notas-credito
// @Produce json
// @Security BearerAuth
// @Param venta_id path string true "ID de venta"
// @Param monto query string true "Monto de la nota"
// @Success 200 {object} dto.VerificacionResponse
// @Router /v1/ventas/{venta_id}/puede-emitir [get]
func (h *NotasCreditoHandler) PuedeEmitir(c *gin.Context) {
	id, ok := paramID(c, "venta_id")
	if !ok {
		return
	}
	monto, err := decimal.NewFromString(c.Query("monto"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("monto inválido"))
		return
	}
	resp, err := h.svc.PuedeEmitir(c.Request.Context(), middleware.GetActor(c), id, monto)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// VerificarGuiaRemision reports whether a remission guide may still be issued
// for the sale.
func (h *NotasCreditoHandler) VerificarGuiaRemision(c *gin.Context) {
	id, ok := paramID(c, "venta_id")
	if !ok {
		return
	}
	resp, err := h.svc.VerificarGuiaRemision(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
