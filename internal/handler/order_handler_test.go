package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	apperrors "cardshop/internal/errors"
	"cardshop/internal/service"
)

func TestOrderHandler_CreateOrder(t *testing.T) {
	productID := uuid.New()
	validBody := `{"product_id":"` + productID.String() + `","email":"buyer@example.com","password":"secret-pass","quantity":2}`

	tests := []struct {
		name       string
		body       string
		setupMock  func(m *MockOrderService)
		wantStatus int
		wantBody   []string
		notInBody  []string
	}{
		{
			name: "created",
			body: validBody,
			setupMock: func(m *MockOrderService) {
				m.On("CreateOrder", mock.Anything, service.CreateOrderInput{
					ProductID: productID,
					Email:     "buyer@example.com",
					Password:  "secret-pass",
					Quantity:  2,
					ClientIP:  "192.0.2.1",
				}).Return(&service.CreateOrderResult{OrderNo: "20261014120000ABCDEF01", Amount: "100.00"}, nil)
			},
			wantStatus: http.StatusCreated,
			wantBody:   []string{`"order_no":"20261014120000ABCDEF01"`, `"amount":"100.00"`, `"payment_url":null`},
		},
		{
			name:       "invalid email hides details",
			body:       `{"product_id":"` + productID.String() + `","email":"nope","password":"secret-pass","quantity":1}`,
			setupMock:  func(m *MockOrderService) {},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   []string{`"code":"VALIDATION"`},
			notInBody:  []string{"details"},
		},
		{
			name:       "malformed body",
			body:       `{"product_id":`,
			setupMock:  func(m *MockOrderService) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   []string{"INVALID_REQUEST"},
		},
		{
			name: "insufficient stock",
			body: validBody,
			setupMock: func(m *MockOrderService) {
				m.On("CreateOrder", mock.Anything, mock.Anything).
					Return(nil, apperrors.BadRequest("Insufficient stock. Available: 1").WithCode(apperrors.CodeInsufficientStock))
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   []string{"Insufficient stock. Available: 1", apperrors.CodeInsufficientStock},
		},
		{
			name: "unexpected failure",
			body: validBody,
			setupMock: func(m *MockOrderService) {
				m.On("CreateOrder", mock.Anything, mock.Anything).Return(nil, errors.New("dial tcp: refused"))
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   []string{"internal server error"},
			notInBody:  []string{"dial tcp"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := new(MockOrderService)
			tt.setupMock(orders)
			h := NewOrderHandler(orders, new(MockLookupService))

			e := newTestEcho()
			e.POST("/api/orders", h.CreateOrder)

			req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			for _, s := range tt.wantBody {
				assert.Contains(t, rec.Body.String(), s)
			}
			for _, s := range tt.notInBody {
				assert.NotContains(t, rec.Body.String(), s)
			}
			orders.AssertExpectations(t)
		})
	}
}

func TestOrderHandler_Lookup(t *testing.T) {
	lookups := new(MockLookupService)
	lookups.On("ByOrderNo", mock.Anything, "20261014120000ABCDEF01", "secret-pass").
		Return(&service.LookupResult{OrderNo: "20261014120000ABCDEF01", Status: "COMPLETED", Cards: []string{"CODE-1"}}, nil)
	lookups.On("ByOrderNo", mock.Anything, "20261014120000ABCDEF01", "wrong").
		Return(nil, apperrors.BadRequest("Order not found or password incorrect").WithCode(apperrors.CodeLookupFailed))
	lookups.On("ByEmail", mock.Anything, "buyer@example.com", "secret-pass").
		Return(&service.LookupResult{OrderNo: "20261014120000ABCDEF02", Cards: []string{}}, nil)

	h := NewOrderHandler(new(MockOrderService), lookups)
	e := newTestEcho()
	e.POST("/api/orders/lookup", h.Lookup)
	e.POST("/api/orders/lookup-by-email", h.LookupByEmail)

	do := func(path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	ok := do("/api/orders/lookup", `{"order_no":"20261014120000ABCDEF01","password":"secret-pass"}`)
	assert.Equal(t, http.StatusOK, ok.Code)
	assert.Contains(t, ok.Body.String(), `"cards":["CODE-1"]`)

	bad := do("/api/orders/lookup", `{"order_no":"20261014120000ABCDEF01","password":"wrong"}`)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
	assert.Contains(t, bad.Body.String(), apperrors.CodeLookupFailed)

	byEmail := do("/api/orders/lookup-by-email", `{"email":"buyer@example.com","password":"secret-pass"}`)
	assert.Equal(t, http.StatusOK, byEmail.Code)
	assert.Contains(t, byEmail.Body.String(), "20261014120000ABCDEF02")

	missing := do("/api/orders/lookup", `{"order_no":"20261014120000ABCDEF01"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, missing.Code)

	lookups.AssertExpectations(t)
}
