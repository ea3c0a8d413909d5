package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	apperrors "cardshop/internal/errors"
)

func TestPaymentHandler_Notify(t *testing.T) {
	tests := []struct {
		name       string
		provider   string
		err        error
		wantStatus int
		wantBody   string
	}{
		{name: "acknowledged", provider: "alipay", wantStatus: http.StatusOK, wantBody: "success"},
		{name: "bad signature", provider: "alipay", err: apperrors.BadRequest("Invalid signature"), wantStatus: http.StatusBadRequest, wantBody: "failure"},
		{name: "unknown provider", provider: "paypal", err: apperrors.NotFound("Unknown payment provider"), wantStatus: http.StatusBadRequest, wantBody: "failure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payments := new(MockPaymentService)
			payments.On("HandleNotify", mock.Anything, tt.provider, mock.Anything).Return(tt.err)
			h := NewPaymentHandler(payments, zap.NewNop())

			e := newTestEcho()
			e.POST("/api/payments/:provider/notify", h.Notify)

			req := httptest.NewRequest(http.MethodPost, "/api/payments/"+tt.provider+"/notify", strings.NewReader("out_trade_no=1"))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
			payments.AssertExpectations(t)
		})
	}
}
