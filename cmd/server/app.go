package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"cardshop/internal/config"
	"cardshop/internal/notify"
	"cardshop/internal/repository"
	"cardshop/internal/service"
)

const shutdownTimeout = 10 * time.Second

// App is the composed process: its server plus what the CLI commands need directly.
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	DB         *gorm.DB
	Store      repository.Store
	Echo       *echo.Echo
	Sweeper    service.Sweeper
	Cards      service.CardService
	Auth       service.AuthService
	Dispatcher *notify.Dispatcher
}

// serve runs the http server until a signal arrives or the server fails.
func serve(c *cli.Context, app *App) error {
	eg, groupCtx := errgroup.WithContext(c.Context)
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT)

	addr := ":" + app.Config.ServerPort
	app.Logger.Info("server starting", zap.String("addr", addr))

	eg.Go(func() error {
		if err := app.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	eg.Go(func() error {
		defer func() {
			app.Logger.Info("server stopping")
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := app.Echo.Shutdown(ctx); err != nil {
				app.Logger.Warn("server shutdown", zap.Error(err))
			}
		}()

		select {
		case <-groupCtx.Done():
			return groupCtx.Err()
		case <-sig:
			return nil
		}
	})

	err := eg.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	app.Logger.Info("server stopped")
	return nil
}

// drain waits for in-flight notifications and closes their transport.
func drain(app *App) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.Dispatcher.Close(ctx); err != nil {
		app.Logger.Warn("notifications not drained", zap.Error(err))
	}
}
