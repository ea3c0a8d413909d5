package handler

import (
	"context"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"

	"cardshop/internal/auth"
	"cardshop/internal/model"
	"cardshop/internal/repository"
	"cardshop/internal/service"
)

type testValidator struct {
	v *validator.Validate
}

func (tv *testValidator) Validate(i interface{}) error {
	return tv.v.Struct(i)
}

func newTestEcho() *echo.Echo {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	e := echo.New()
	e.Validator = &testValidator{v: v}
	return e
}

// withAdmin marks every request as coming from an authenticated admin.
func withAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Set(auth.ContextKey, &jwt.Token{
			Valid:  true,
			Claims: &auth.Claims{AdminID: 1, Email: "admin@example.com", TokenType: "access"},
		})
		return next(c)
	}
}

// MockOrderService is a mock implementation of OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, in service.CreateOrderInput) (*service.CreateOrderResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CreateOrderResult), args.Error(1)
}

// MockLookupService is a mock implementation of LookupService.
type MockLookupService struct {
	mock.Mock
}

func (m *MockLookupService) ByOrderNo(ctx context.Context, orderNo, password string) (*service.LookupResult, error) {
	args := m.Called(ctx, orderNo, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.LookupResult), args.Error(1)
}

func (m *MockLookupService) ByEmail(ctx context.Context, email, password string) (*service.LookupResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.LookupResult), args.Error(1)
}

// MockPaymentService is a mock implementation of PaymentService.
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) HandleNotify(ctx context.Context, provider string, r *http.Request) error {
	args := m.Called(ctx, provider, r)
	return args.Error(0)
}

// MockSweeper is a mock implementation of Sweeper.
type MockSweeper struct {
	mock.Mock
}

func (m *MockSweeper) Sweep(ctx context.Context) (*service.SweepResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SweepResult), args.Error(1)
}

// MockAdminOrderService is a mock implementation of AdminOrderService.
type MockAdminOrderService struct {
	mock.Mock
}

func (m *MockAdminOrderService) List(ctx context.Context, filter repository.OrderFilter, page repository.Page) ([]model.Order, int64, error) {
	args := m.Called(ctx, filter, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockAdminOrderService) Get(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockAdminOrderService) UpdateStatus(ctx context.Context, actor *auth.Principal, id uuid.UUID, status string) (*model.Order, error) {
	args := m.Called(ctx, actor, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockAdminOrderService) Close(ctx context.Context, actor *auth.Principal, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

// MockCardService is a mock implementation of CardService.
type MockCardService struct {
	mock.Mock
}

func (m *MockCardService) List(ctx context.Context, filter repository.CardFilter, page repository.Page) ([]model.Card, int64, error) {
	args := m.Called(ctx, filter, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.Card), args.Get(1).(int64), args.Error(2)
}

func (m *MockCardService) Import(ctx context.Context, productID uuid.UUID, lines []string) (*service.ImportResult, error) {
	args := m.Called(ctx, productID, lines)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ImportResult), args.Error(1)
}

func (m *MockCardService) Delete(ctx context.Context, ids []uuid.UUID) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

// MockProductService is a mock implementation of ProductService.
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) ListActive(ctx context.Context) ([]service.ProductView, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.ProductView), args.Error(1)
}

func (m *MockProductService) GetBySlug(ctx context.Context, slug string) (*service.ProductView, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ProductView), args.Error(1)
}

func (m *MockProductService) List(ctx context.Context, status model.ProductStatus) ([]service.ProductView, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.ProductView), args.Error(1)
}

func (m *MockProductService) Create(ctx context.Context, in service.CreateProductInput) (*model.Product, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, id uuid.UUID, in service.UpdateProductInput) (*model.Product, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

// MockRestockService is a mock implementation of RestockService.
type MockRestockService struct {
	mock.Mock
}

func (m *MockRestockService) Subscribe(ctx context.Context, productID uuid.UUID, email, clientIP string) (*model.RestockSubscription, error) {
	args := m.Called(ctx, productID, email, clientIP)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RestockSubscription), args.Error(1)
}

func (m *MockRestockService) Check(ctx context.Context, productID uuid.UUID) (int, error) {
	args := m.Called(ctx, productID)
	return args.Int(0), args.Error(1)
}
