package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"cardshop/internal/errors"
	"cardshop/internal/model"
	"cardshop/internal/service"
)

// ProductHandler handles catalog and product management endpoints.
type ProductHandler struct {
	products service.ProductService
	restocks service.RestockService
}

// NewProductHandler creates a new product handler.
func NewProductHandler(products service.ProductService, restocks service.RestockService) *ProductHandler {
	return &ProductHandler{products: products, restocks: restocks}
}

// CreateProductRequest creates a product.
type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Slug        string          `json:"slug" validate:"required,max=191"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" swaggertype:"string" example:"9.90"`
	MaxQuantity int             `json:"max_quantity" validate:"required"`
}

// UpdateProductRequest patches a product.
type UpdateProductRequest struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,max=255"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty" swaggertype:"string"`
	MaxQuantity *int             `json:"max_quantity,omitempty"`
	Status      *string          `json:"status,omitempty"`
}

// RestockRequest subscribes an email to a product's restock.
type RestockRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ListActive godoc
// @Summary List active products
// @Tags products
// @Produce json
// @Success 200 {array} service.ProductView
// @Failure 500 {object} errors.ErrorResponse
// @Router /products [get]
func (h *ProductHandler) ListActive(c echo.Context) error {
	products, err := h.products.ListActive(c.Request().Context())
	if err != nil {
		return buyerError(err)
	}
	return c.JSON(http.StatusOK, products)
}

// GetBySlug godoc
// @Summary Get an active product with its stock
// @Tags products
// @Produce json
// @Param slug path string true "Product slug"
// @Success 200 {object} service.ProductView
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/{slug} [get]
func (h *ProductHandler) GetBySlug(c echo.Context) error {
	product, err := h.products.GetBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return buyerError(err)
	}
	return c.JSON(http.StatusOK, product)
}

// SubscribeRestock godoc
// @Summary Ask to be emailed when a product is back in stock
// @Tags products
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param request body RestockRequest true "Subscriber"
// @Success 201 {object} model.RestockSubscription
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/{id}/restock-subscriptions [post]
func (h *ProductHandler) SubscribeRestock(c echo.Context) error {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return buyerError(errors.NotFound("Product not found"))
	}

	var req RestockRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}
	if err := c.Validate(&req); err != nil {
		return buyerError(validationFailed(err))
	}

	sub, err := h.restocks.Subscribe(c.Request().Context(), productID, req.Email, c.RealIP())
	if err != nil {
		return buyerError(err)
	}
	return c.JSON(http.StatusCreated, sub)
}

// List godoc
// @Summary List products
// @Tags admin-products
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status" Enums(ACTIVE, INACTIVE)
// @Success 200 {array} service.ProductView
// @Failure 401 {object} errors.ErrorResponse
// @Router /admin/products [get]
func (h *ProductHandler) List(c echo.Context) error {
	products, err := h.products.List(c.Request().Context(), model.ProductStatus(c.QueryParam("status")))
	if err != nil {
		return adminError(err)
	}
	return c.JSON(http.StatusOK, products)
}

// Create godoc
// @Summary Create a product
// @Tags admin-products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateProductRequest true "Product"
// @Success 201 {object} model.Product
// @Failure 401 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /admin/products [post]
func (h *ProductHandler) Create(c echo.Context) error {
	var req CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}
	if err := c.Validate(&req); err != nil {
		return adminError(validationFailed(err))
	}

	product, err := h.products.Create(c.Request().Context(), service.CreateProductInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Price:       req.Price,
		MaxQuantity: req.MaxQuantity,
	})
	if err != nil {
		return adminError(err)
	}
	return c.JSON(http.StatusCreated, product)
}

// Update godoc
// @Summary Update a product
// @Tags admin-products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param request body UpdateProductRequest true "Fields to change"
// @Success 200 {object} model.Product
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /admin/products/{id} [patch]
func (h *ProductHandler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return adminError(errors.NotFound("Product not found"))
	}

	var req UpdateProductRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}
	if err := c.Validate(&req); err != nil {
		return adminError(validationFailed(err))
	}

	in := service.UpdateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		MaxQuantity: req.MaxQuantity,
	}
	if req.Status != nil {
		status := model.ProductStatus(*req.Status)
		in.Status = &status
	}

	product, err := h.products.Update(c.Request().Context(), id, in)
	if err != nil {
		return adminError(err)
	}
	return c.JSON(http.StatusOK, product)
}
