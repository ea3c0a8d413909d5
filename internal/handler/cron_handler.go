package handler

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"cardshop/internal/errors"
	"cardshop/internal/service"
)

// CronHandler exposes scheduled jobs to an external scheduler.
type CronHandler struct {
	sweeper service.Sweeper
	secret  string
	logger  *zap.Logger
}

// NewCronHandler creates a new cron handler. An empty secret rejects every call.
func NewCronHandler(sweeper service.Sweeper, secret string, logger *zap.Logger) *CronHandler {
	return &CronHandler{sweeper: sweeper, secret: secret, logger: logger}
}

// ExpireOrders godoc
// @Summary Close expired pending orders
// @Tags cron
// @Produce json
// @Param Authorization header string true "Bearer <CRON_SECRET>"
// @Success 200 {object} service.SweepResult
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /cron/expire-orders [post]
func (h *CronHandler) ExpireOrders(c echo.Context) error {
	if !h.authorized(c.Request().Header.Get(echo.HeaderAuthorization)) {
		return adminError(errors.Unauthorized("invalid cron secret"))
	}

	res, err := h.sweeper.Sweep(c.Request().Context())
	if err != nil {
		h.logger.Error("expire orders failed", zap.Error(err))
		return adminError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *CronHandler) authorized(header string) bool {
	if h.secret == "" {
		return false
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) == 1
}
