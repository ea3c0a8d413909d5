package router

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"cardshop/internal/auth"
	"cardshop/internal/config"
	"cardshop/internal/handler"
	"cardshop/internal/middleware"
	"cardshop/internal/ratelimit"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	logger *zap.Logger,
	limiter ratelimit.Limiter,
	tokens auth.TokenStoreInterface,
	authHandler *handler.AuthHandler,
	productHandler *handler.ProductHandler,
	orderHandler *handler.OrderHandler,
	paymentHandler *handler.PaymentHandler,
	cronHandler *handler.CronHandler,
	adminOrderHandler *handler.AdminOrderHandler,
	adminCardHandler *handler.AdminCardHandler,
) {
	e.Use(echomw.RequestID())
	e.Use(middleware.ZapLogger(logger))
	e.Use(echomw.Recover())
	e.Use(middleware.Prometheus())

	e.Validator = NewValidator()

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.GET("/products", productHandler.ListActive)
	api.GET("/products/:slug", productHandler.GetBySlug)
	api.POST("/products/:id/restock-subscriptions", productHandler.SubscribeRestock)

	api.POST("/orders", orderHandler.CreateOrder, middleware.RateLimit(limiter, "create"))
	api.POST("/orders/lookup", orderHandler.Lookup, middleware.RateLimit(limiter, "lookup"))
	api.POST("/orders/lookup-by-email", orderHandler.LookupByEmail, middleware.RateLimit(limiter, "lookup"))

	api.POST("/payments/:provider/notify", paymentHandler.Notify)
	api.POST("/cron/expire-orders", cronHandler.ExpireOrders)

	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)

	// Admin routes (require an access token that is not blacklisted)
	admin := api.Group("/admin",
		middleware.AdminJWT([]byte(cfg.JWTSecret), tokens),
		middleware.RequirePrincipal(),
	)

	admin.POST("/auth/logout", authHandler.Logout)

	admin.GET("/orders", adminOrderHandler.List)
	admin.GET("/orders/:id", adminOrderHandler.Get)
	admin.PATCH("/orders/:id/status", adminOrderHandler.UpdateStatus)
	admin.DELETE("/orders/:id", adminOrderHandler.Delete)

	admin.GET("/products", productHandler.List)
	admin.POST("/products", productHandler.Create)
	admin.PATCH("/products/:id", productHandler.Update)

	admin.GET("/cards", adminCardHandler.List)
	admin.POST("/cards/import", adminCardHandler.Import)
	admin.POST("/cards/delete", adminCardHandler.Delete)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator reports field errors under their json names.
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(jsonName)
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}
