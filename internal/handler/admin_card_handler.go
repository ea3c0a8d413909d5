package handler

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"cardshop/internal/errors"
	"cardshop/internal/model"
	"cardshop/internal/repository"
	"cardshop/internal/service"
)

// AdminCardHandler handles card inventory endpoints.
type AdminCardHandler struct {
	cards service.CardService
}

// NewAdminCardHandler creates a new admin card handler.
func NewAdminCardHandler(cards service.CardService) *AdminCardHandler {
	return &AdminCardHandler{cards: cards}
}

// ImportCardsRequest imports card contents, one per line of Content or one per Cards entry.
type ImportCardsRequest struct {
	ProductID string   `json:"product_id" validate:"required,uuid"`
	Content   string   `json:"content"`
	Cards     []string `json:"cards"`
}

// DeleteCardsRequest deletes unsold cards.
type DeleteCardsRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,uuid"`
}

// DeleteCardsResponse reports how many cards were deleted.
type DeleteCardsResponse struct {
	Deleted int64 `json:"deleted"`
}

// List godoc
// @Summary List cards
// @Tags admin-cards
// @Produce json
// @Security BearerAuth
// @Param product_id query string false "Product ID"
// @Param status query string false "Status" Enums(UNSOLD, RESERVED, SOLD)
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} ListResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /admin/cards [get]
func (h *AdminCardHandler) List(c echo.Context) error {
	page := pageFromQuery(c)
	filter := repository.CardFilter{Status: model.CardStatus(c.QueryParam("status"))}
	if raw := c.QueryParam("product_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return adminError(errors.Validation("invalid product_id", map[string]string{"product_id": "uuid"}))
		}
		filter.ProductID = &id
	}

	cards, total, err := h.cards.List(c.Request().Context(), filter, page)
	if err != nil {
		return adminError(err)
	}
	return c.JSON(http.StatusOK, listResponse(cards, total, page))
}

// Import godoc
// @Summary Import cards for a product
// @Description Blank lines, duplicates within the import and contents already stored for the product are skipped.
// @Tags admin-cards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ImportCardsRequest true "Cards"
// @Success 201 {object} service.ImportResult
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /admin/cards/import [post]
func (h *AdminCardHandler) Import(c echo.Context) error {
	var req ImportCardsRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}
	if err := c.Validate(&req); err != nil {
		return adminError(validationFailed(err))
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return invalidBody()
	}

	lines := append([]string{}, req.Cards...)
	if req.Content != "" {
		lines = append(lines, strings.Split(strings.ReplaceAll(req.Content, "\r\n", "\n"), "\n")...)
	}

	res, err := h.cards.Import(c.Request().Context(), productID, lines)
	if err != nil {
		return adminError(err)
	}
	return c.JSON(http.StatusCreated, res)
}

// Delete godoc
// @Summary Delete unsold cards
// @Description Refused as a whole when any card is reserved or sold.
// @Tags admin-cards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body DeleteCardsRequest true "Card IDs"
// @Success 200 {object} DeleteCardsResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /admin/cards/delete [post]
func (h *AdminCardHandler) Delete(c echo.Context) error {
	var req DeleteCardsRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}
	if err := c.Validate(&req); err != nil {
		return adminError(validationFailed(err))
	}

	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return invalidBody()
		}
		ids = append(ids, id)
	}

	deleted, err := h.cards.Delete(c.Request().Context(), ids)
	if err != nil {
		return adminError(err)
	}
	return c.JSON(http.StatusOK, DeleteCardsResponse{Deleted: deleted})
}
