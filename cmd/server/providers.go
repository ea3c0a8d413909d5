package main

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/google/wire"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"cardshop/internal/auth"
	"cardshop/internal/cache"
	"cardshop/internal/captcha"
	"cardshop/internal/config"
	"cardshop/internal/db"
	"cardshop/internal/handler"
	"cardshop/internal/logger"
	"cardshop/internal/notify"
	"cardshop/internal/payment"
	"cardshop/internal/ratelimit"
	"cardshop/internal/repository"
	"cardshop/internal/router"
	"cardshop/internal/service"
)

var infraSet = wire.NewSet(
	provideLogger,
	provideDB,
	provideCache,
	repository.NewStore,
	provideAdminRepository,
	provideJWTService,
	auth.NewTokenStore,
	wire.Bind(new(auth.TokenStoreInterface), new(*auth.TokenStore)),
	captcha.New,
	payment.NewRegistry,
	wire.Bind(new(service.GatewayRegistry), new(*payment.Registry)),
	notify.NewSender,
	provideDispatcher,
	wire.Bind(new(service.Notifier), new(*notify.Dispatcher)),
	provideSnowflake,
	ratelimit.New,
)

var serviceSet = wire.NewSet(
	provideOrderConfig,
	service.NewStateMachine,
	service.NewRestockService,
	service.NewOrderService,
	service.NewPaymentService,
	service.NewAdminOrderService,
	service.NewLookupService,
	service.NewSweeper,
	service.NewCardService,
	service.NewProductService,
	service.NewAuthService,
)

var handlerSet = wire.NewSet(
	handler.NewAuthHandler,
	handler.NewProductHandler,
	handler.NewOrderHandler,
	handler.NewPaymentHandler,
	provideCronHandler,
	handler.NewAdminOrderHandler,
	handler.NewAdminCardHandler,
	provideEcho,
)

func provideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	l, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return l, func() { _ = l.Sync() }, nil
}

func provideDB(cfg *config.Config, logger *zap.Logger) (*gorm.DB, func(), error) {
	gormDB, err := db.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database init: %w", err)
	}
	cleanup := func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				logger.Warn("close database", zap.Error(err))
			}
		}
	}
	return gormDB, cleanup, nil
}

func provideCache(cfg *config.Config) (*cache.Client, func()) {
	client := cache.NewFromConfig(cfg)
	return client, func() { _ = client.Close() }
}

func provideAdminRepository(store repository.Store) repository.AdminRepository {
	return store.Admins()
}

func provideJWTService(cfg *config.Config) *auth.JWTService {
	return auth.NewJWTService(cfg.JWTSecret)
}

func provideDispatcher(store repository.Store, sender notify.Sender, cfg *config.Config, logger *zap.Logger) *notify.Dispatcher {
	return notify.NewDispatcher(store, sender, logger, cfg.NotifyTimeout())
}

func provideSnowflake(cfg *config.Config) (*snowflake.Node, error) {
	node, err := snowflake.NewNode(cfg.SnowflakeNode)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", cfg.SnowflakeNode, err)
	}
	return node, nil
}

func provideOrderConfig(cfg *config.Config) config.OrderConfig {
	return cfg.Order
}

func provideCronHandler(sweeper service.Sweeper, cfg *config.Config, logger *zap.Logger) *handler.CronHandler {
	return handler.NewCronHandler(sweeper, cfg.CronSecret, logger)
}

func provideEcho(
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
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	router.Register(e, cfg, logger, limiter, tokens,
		authHandler, productHandler, orderHandler, paymentHandler,
		cronHandler, adminOrderHandler, adminCardHandler)
	return e
}

