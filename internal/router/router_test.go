package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cardshop/internal/auth"
	"cardshop/internal/config"
	"cardshop/internal/handler"
	"cardshop/internal/model"
	"cardshop/internal/ratelimit"
	"cardshop/internal/repository"
	"cardshop/internal/service"
)

type fakeTokens struct {
	revoked map[string]bool
}

func (f *fakeTokens) StoreRefreshToken(context.Context, string, uint, string, time.Duration) error {
	return nil
}

func (f *fakeTokens) GetRefreshToken(context.Context, string) (uint, string, error) {
	return 0, "", nil
}

func (f *fakeTokens) DeleteRefreshToken(context.Context, string) error { return nil }

func (f *fakeTokens) BlacklistAccessToken(_ context.Context, tokenID string, _ time.Duration) error {
	f.revoked[tokenID] = true
	return nil
}

func (f *fakeTokens) IsAccessTokenBlacklisted(_ context.Context, tokenID string) (bool, error) {
	return f.revoked[tokenID], nil
}

type stubAdminOrders struct {
	service.AdminOrderService
}

func (stubAdminOrders) List(context.Context, repository.OrderFilter, repository.Page) ([]model.Order, int64, error) {
	return []model.Order{}, 0, nil
}

type stubOrders struct {
	calls int
}

func (s *stubOrders) CreateOrder(context.Context, service.CreateOrderInput) (*service.CreateOrderResult, error) {
	s.calls++
	return &service.CreateOrderResult{OrderNo: "N1", Amount: "1.00"}, nil
}

type testServer struct {
	e      *echo.Echo
	jwt    *auth.JWTService
	tokens *fakeTokens
	orders *stubOrders
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := config.Defaults()
	cfg.JWTSecret = "router-test-secret"
	cfg.CronSecret = "cron-secret"

	ts := &testServer{
		e:      echo.New(),
		jwt:    auth.NewJWTService(cfg.JWTSecret),
		tokens: &fakeTokens{revoked: map[string]bool{}},
		orders: &stubOrders{},
	}
	logger := zap.NewNop()
	limiter := ratelimit.NewMemoryLimiter(1, time.Minute, time.Now)

	Register(ts.e, cfg, logger, limiter, ts.tokens,
		handler.NewAuthHandler(nil),
		handler.NewProductHandler(nil, nil),
		handler.NewOrderHandler(ts.orders, nil),
		handler.NewPaymentHandler(nil, logger),
		handler.NewCronHandler(nil, cfg.CronSecret, logger),
		handler.NewAdminOrderHandler(stubAdminOrders{}),
		handler.NewAdminCardHandler(nil),
	)
	return ts
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}

func TestRegister_OpsEndpoints(t *testing.T) {
	ts := newTestServer(t)

	health := ts.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, health.Code)
	assert.Equal(t, "ok", health.Body.String())

	metrics := ts.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), "cardshop_http_requests_total")
}

func TestRegister_AdminRequiresLiveAccessToken(t *testing.T) {
	ts := newTestServer(t)

	anonymous := ts.do(httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil))
	assert.Equal(t, http.StatusUnauthorized, anonymous.Code)

	access, err := ts.jwt.GenerateAccessToken(1, "admin@example.com")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+access)
	assert.Equal(t, http.StatusOK, ts.do(req).Code)

	_, refresh, err := ts.jwt.GenerateRefreshToken(1, "admin@example.com")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+refresh)
	assert.Equal(t, http.StatusUnauthorized, ts.do(req).Code, "refresh tokens are not sessions")

	claims, err := ts.jwt.ValidateToken(access)
	require.NoError(t, err)
	ts.tokens.revoked[claims.ID] = true
	req = httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+access)
	assert.Equal(t, http.StatusUnauthorized, ts.do(req).Code)
}

func TestRegister_CreateOrderIsRateLimited(t *testing.T) {
	ts := newTestServer(t)
	body := `{"product_id":"` + uuid.NewString() + `","email":"buyer@example.com","password":"secret-pass","quantity":1}`

	newReq := func() *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		return req
	}

	assert.Equal(t, http.StatusCreated, ts.do(newReq()).Code)
	limited := ts.do(newReq())
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Contains(t, limited.Body.String(), "RATE_LIMITED")
	assert.Equal(t, 1, ts.orders.calls)
}

func TestRegister_CronRequiresSecret(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(httptest.NewRequest(http.MethodPost, "/api/cron/expire-orders", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNewValidator_UsesJSONNames(t *testing.T) {
	v := NewValidator()
	err := v.Validate(&handler.CreateOrderRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'product_id'")
}
