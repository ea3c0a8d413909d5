package handler

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"cardshop/internal/errors"
	"cardshop/internal/repository"
)

// ListResponse wraps a page of results.
type ListResponse struct {
	Items    interface{} `json:"items"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// buyerError renders err for public endpoints, without field details.
func buyerError(err error) error {
	httpErr := errors.MapErrorToHTTP(err).Public()
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

// adminError renders err with field details.
func adminError(err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

func invalidBody() error {
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
		Error: "invalid request body",
		Code:  "INVALID_REQUEST",
	})
}

// validationFailed turns validator errors into a VALIDATION app error keyed by field.
func validationFailed(err error) error {
	details := map[string]string{}
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) {
		for _, fe := range verrs {
			details[fe.Field()] = fe.Tag()
		}
	}
	return errors.Validation("invalid request", details)
}

func pageFromQuery(c echo.Context) repository.Page {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("page_size"))
	return repository.Page{Page: page, PageSize: size}
}

func listResponse(items interface{}, total int64, page repository.Page) ListResponse {
	if page.Page <= 0 {
		page.Page = 1
	}
	if page.PageSize <= 0 {
		page.PageSize = 20
	}
	return ListResponse{Items: items, Total: total, Page: page.Page, PageSize: page.PageSize}
}
