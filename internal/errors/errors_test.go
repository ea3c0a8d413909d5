package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"unauthorized", Unauthorized("admin session required"), http.StatusUnauthorized, "UNAUTHORIZED", "admin session required"},
		{"validation", Validation("invalid status", nil), http.StatusUnprocessableEntity, "VALIDATION", "invalid status"},
		{"not found", NotFound("Product not found"), http.StatusNotFound, "NOT_FOUND", "Product not found"},
		{"bad request with code", BadRequest("Insufficient stock. Available: 1").WithCode(CodeInsufficientStock), http.StatusBadRequest, CodeInsufficientStock, "Insufficient stock. Available: 1"},
		{"conflict", Conflict("cannot close"), http.StatusConflict, "CONFLICT", "cannot close"},
		{"rate limited", RateLimited("slow down"), http.StatusTooManyRequests, "RATE_LIMITED", "slow down"},
		{"wrapped app error", fmt.Errorf("create order: %w", NotFound("Product not found")), http.StatusNotFound, "NOT_FOUND", "Product not found"},
		{"internal hides cause", Internal("boom", errors.New("dsn leaked")), http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"},
		{"plain error", errors.New("db down"), http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.wantStatus, httpErr.StatusCode)
			assert.Equal(t, tt.wantCode, httpErr.Code)
			assert.Equal(t, tt.wantMsg, httpErr.Message)
		})
	}
}

func TestHTTPError_PublicDropsDetails(t *testing.T) {
	err := Validation("invalid request", map[string]string{"status": "oneof"})

	httpErr := MapErrorToHTTP(err)
	assert.Equal(t, map[string]string{"status": "oneof"}, httpErr.ToErrorResponse().Details)
	assert.Nil(t, httpErr.Public().ToErrorResponse().Details)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindConflict, KindOf(fmt.Errorf("wrap: %w", Conflict("x"))))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.True(t, IsKind(BadRequest("x"), KindBadRequest))
	assert.False(t, IsKind(BadRequest("x"), KindNotFound))
}
