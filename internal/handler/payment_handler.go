package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"cardshop/internal/service"
)

// PaymentHandler receives provider notifications.
type PaymentHandler struct {
	paymentService service.PaymentService
	logger         *zap.Logger
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(paymentService service.PaymentService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, logger: logger}
}

// Notify godoc
// @Summary Payment provider notification
// @Description Answers the provider with plain text success or failure.
// @Tags payments
// @Accept x-www-form-urlencoded
// @Produce plain
// @Param provider path string true "Provider" Enums(alipay, wechat)
// @Success 200 {string} string "success"
// @Failure 400 {string} string "failure"
// @Router /payments/{provider}/notify [post]
func (h *PaymentHandler) Notify(c echo.Context) error {
	provider := c.Param("provider")
	if err := h.paymentService.HandleNotify(c.Request().Context(), provider, c.Request()); err != nil {
		h.logger.Warn("payment notify failed", zap.String("provider", provider), zap.Error(err))
		return c.String(http.StatusBadRequest, "failure")
	}
	return c.String(http.StatusOK, "success")
}
