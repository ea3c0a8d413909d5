package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"cardshop/internal/service"
)

// OrderHandler handles buyer order endpoints.
type OrderHandler struct {
	orderService  service.OrderService
	lookupService service.LookupService
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orderService service.OrderService, lookupService service.LookupService) *OrderHandler {
	return &OrderHandler{orderService: orderService, lookupService: lookupService}
}

// CreateOrderRequest represents a purchase request.
type CreateOrderRequest struct {
	ProductID    string `json:"product_id" validate:"required,uuid"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=4,max=72"`
	Quantity     int    `json:"quantity"`
	CaptchaToken string `json:"captcha_token"`
}

// LookupRequest represents a lookup by order number.
type LookupRequest struct {
	OrderNo  string `json:"order_no" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LookupByEmailRequest represents a lookup of the latest order of an email.
type LookupByEmailRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CreateOrder godoc
// @Summary Create an order and reserve cards
// @Tags orders
// @Accept json
// @Produce json
// @Param request body CreateOrderRequest true "Order data"
// @Success 201 {object} service.CreateOrderResult
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /orders [post]
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	var req CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}
	if err := c.Validate(&req); err != nil {
		return buyerError(validationFailed(err))
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return invalidBody()
	}

	res, err := h.orderService.CreateOrder(c.Request().Context(), service.CreateOrderInput{
		ProductID:    productID,
		Email:        req.Email,
		Password:     req.Password,
		Quantity:     req.Quantity,
		ClientIP:     c.RealIP(),
		CaptchaToken: req.CaptchaToken,
	})
	if err != nil {
		return buyerError(err)
	}
	return c.JSON(http.StatusCreated, res)
}

// Lookup godoc
// @Summary Look up an order with its password
// @Tags orders
// @Accept json
// @Produce json
// @Param request body LookupRequest true "Order number and password"
// @Success 200 {object} service.LookupResult
// @Failure 400 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Router /orders/lookup [post]
func (h *OrderHandler) Lookup(c echo.Context) error {
	var req LookupRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}
	if err := c.Validate(&req); err != nil {
		return buyerError(validationFailed(err))
	}

	res, err := h.lookupService.ByOrderNo(c.Request().Context(), req.OrderNo, req.Password)
	if err != nil {
		return buyerError(err)
	}
	return c.JSON(http.StatusOK, res)
}

// LookupByEmail godoc
// @Summary Look up the latest order of an email
// @Tags orders
// @Accept json
// @Produce json
// @Param request body LookupByEmailRequest true "Email and password"
// @Success 200 {object} service.LookupResult
// @Failure 400 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Router /orders/lookup-by-email [post]
func (h *OrderHandler) LookupByEmail(c echo.Context) error {
	var req LookupByEmailRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}
	if err := c.Validate(&req); err != nil {
		return buyerError(validationFailed(err))
	}

	res, err := h.lookupService.ByEmail(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return buyerError(err)
	}
	return c.JSON(http.StatusOK, res)
}
