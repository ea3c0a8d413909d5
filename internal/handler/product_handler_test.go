package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	apperrors "cardshop/internal/errors"
	"cardshop/internal/model"
	"cardshop/internal/service"
)

func TestProductHandler_GetBySlug(t *testing.T) {
	products := new(MockProductService)
	products.On("GetBySlug", mock.Anything, "steam-10").
		Return(&service.ProductView{Product: model.Product{Slug: "steam-10", Price: decimal.RequireFromString("10.00")}, Stock: 4}, nil)
	products.On("GetBySlug", mock.Anything, "gone").Return(nil, apperrors.NotFound("Product not found"))

	h := NewProductHandler(products, new(MockRestockService))
	e := newTestEcho()
	e.GET("/api/products/:slug", h.GetBySlug)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/steam-10", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"stock":4`)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/gone", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	products.AssertExpectations(t)
}

func TestProductHandler_Create(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupMock  func(m *MockProductService)
		wantStatus int
		wantBody   string
	}{
		{
			name: "created",
			body: `{"name":"Steam 10","slug":"steam-10","price":"9.90","max_quantity":5}`,
			setupMock: func(m *MockProductService) {
				m.On("Create", mock.Anything, mock.MatchedBy(func(in service.CreateProductInput) bool {
					return in.Slug == "steam-10" && in.Price.Equal(decimal.RequireFromString("9.90")) && in.MaxQuantity == 5
				})).Return(&model.Product{Slug: "steam-10"}, nil)
			},
			wantStatus: http.StatusCreated,
			wantBody:   `"slug":"steam-10"`,
		},
		{
			name:       "missing slug",
			body:       `{"name":"Steam 10","price":"9.90","max_quantity":5}`,
			setupMock:  func(m *MockProductService) {},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `"slug":"required"`,
		},
		{
			name: "slug taken",
			body: `{"name":"Steam 10","slug":"steam-10","price":"9.90","max_quantity":5}`,
			setupMock: func(m *MockProductService) {
				m.On("Create", mock.Anything, mock.Anything).Return(nil, apperrors.Conflict("Slug already in use"))
			},
			wantStatus: http.StatusConflict,
			wantBody:   "Slug already in use",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products := new(MockProductService)
			tt.setupMock(products)
			h := NewProductHandler(products, new(MockRestockService))

			e := newTestEcho()
			e.POST("/api/admin/products", h.Create, withAdmin)

			req := httptest.NewRequest(http.MethodPost, "/api/admin/products", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			products.AssertExpectations(t)
		})
	}
}

func TestProductHandler_SubscribeRestock(t *testing.T) {
	productID := uuid.New()
	restocks := new(MockRestockService)
	restocks.On("Subscribe", mock.Anything, productID, "buyer@example.com", "192.0.2.1").
		Return(&model.RestockSubscription{ProductID: productID, Email: "buyer@example.com", Status: model.RestockStatusPending}, nil)

	h := NewProductHandler(new(MockProductService), restocks)
	e := newTestEcho()
	e.POST("/api/products/:id/restock-subscriptions", h.SubscribeRestock)

	req := httptest.NewRequest(http.MethodPost, "/api/products/"+productID.String()+"/restock-subscriptions", strings.NewReader(`{"email":"buyer@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	restocks.AssertExpectations(t)
}
