package handler

import (
	"net/http"

	"ferrepos/internal/dto"
	"ferrepos/internal/middleware"
	"ferrepos/internal/service"

	"github.com/gin-gonic/gin"
)

// CreditosHandler serves the credit line checks and receivable collection.
type CreditosHandler struct {
	credito service.CreditoService
	cuentas service.CuentaService
}

func NewCreditosHandler(credito service.CreditoService, cuentas service.CuentaService) *CreditosHandler {
	return &CreditosHandler{credito: credito, cuentas: cuentas}
}

// CreditoDisponible godoc
// @Summary Linea de credito disponible de un cliente
// @Tags credito
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de cliente"
// @Success 200 {object} dto.CreditoDisponibleResponse
// @Router /v1/clientes/{id}/credito [get]
func (h *CreditosHandler) CreditoDisponible(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.credito.CreditoDisponible(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Validar godoc
// @Summary Valida una venta al credito antes de registrarla
// @Tags credito
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ValidarCreditoRequest true "Venta a validar"
// @Success 200 {object} dto.VerificacionResponse
// @Router /v1/credito/validar [post]
func (h *CreditosHandler) Validar(c *gin.Context) {
	var req dto.ValidarCreditoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.credito.ValidarVentaCredito(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CuentasPendientes lists the open receivables of a client.
func (h *CreditosHandler) CuentasPendientes(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.cuentas.ListarPendientes(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// RegistrarPago godoc
// @Summary Registra un pago a cuenta
// @Tags credito
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de cuenta por cobrar"
// @Param body body dto.RegistrarPagoRequest true "Pago"
// @Success 201 {object} dto.PagoCuentaResponse
// @Failure 428 {object} apierror.APIError
// @Router /v1/cuentas/{id}/pagos [post]
func (h *CreditosHandler) RegistrarPago(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.RegistrarPagoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.cuentas.RegistrarPago(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
