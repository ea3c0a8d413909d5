package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"cardshop/internal/auth"
	"cardshop/internal/errors"
	"cardshop/internal/model"
	"cardshop/internal/repository"
	"cardshop/internal/service"
)

// AdminOrderHandler handles back office order endpoints.
type AdminOrderHandler struct {
	orders service.AdminOrderService
}

// NewAdminOrderHandler creates a new admin order handler.
func NewAdminOrderHandler(orders service.AdminOrderService) *AdminOrderHandler {
	return &AdminOrderHandler{orders: orders}
}

// UpdateOrderStatusRequest changes an order status.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// List godoc
// @Summary List orders
// @Tags admin-orders
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status" Enums(PENDING, COMPLETED, CLOSED)
// @Param email query string false "Buyer email"
// @Param order_no query string false "Order number"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} ListResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /admin/orders [get]
func (h *AdminOrderHandler) List(c echo.Context) error {
	page := pageFromQuery(c)
	filter := repository.OrderFilter{
		Status:  model.OrderStatus(c.QueryParam("status")),
		Email:   c.QueryParam("email"),
		OrderNo: c.QueryParam("order_no"),
	}

	orders, total, err := h.orders.List(c.Request().Context(), filter, page)
	if err != nil {
		return adminError(err)
	}
	return c.JSON(http.StatusOK, listResponse(orders, total, page))
}

// Get godoc
// @Summary Get an order with its product and cards
// @Tags admin-orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} model.Order
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/orders/{id} [get]
func (h *AdminOrderHandler) Get(c echo.Context) error {
	id, err := orderIDParam(c)
	if err != nil {
		return err
	}

	order, err := h.orders.Get(c.Request().Context(), id)
	if err != nil {
		return adminError(err)
	}
	return c.JSON(http.StatusOK, order)
}

// UpdateStatus godoc
// @Summary Complete or close an order
// @Tags admin-orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Param request body UpdateOrderStatusRequest true "Target status"
// @Success 200 {object} model.Order
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /admin/orders/{id}/status [patch]
func (h *AdminOrderHandler) UpdateStatus(c echo.Context) error {
	id, err := orderIDParam(c)
	if err != nil {
		return err
	}

	var req UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}
	if err := c.Validate(&req); err != nil {
		return adminError(validationFailed(err))
	}

	order, err := h.orders.UpdateStatus(c.Request().Context(), auth.PrincipalFromContext(c), id, req.Status)
	if err != nil {
		return adminError(err)
	}
	return c.JSON(http.StatusOK, order)
}

// Delete godoc
// @Summary Close an order
// @Description Orders are never removed. Deleting a pending order closes it and returns its cards to stock.
// @Tags admin-orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} model.Order
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /admin/orders/{id} [delete]
func (h *AdminOrderHandler) Delete(c echo.Context) error {
	id, err := orderIDParam(c)
	if err != nil {
		return err
	}

	order, err := h.orders.Close(c.Request().Context(), auth.PrincipalFromContext(c), id)
	if err != nil {
		return adminError(err)
	}
	return c.JSON(http.StatusOK, order)
}

func orderIDParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, adminError(errors.NotFound("Order not found"))
	}
	return id, nil
}
