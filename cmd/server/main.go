package main

import (
	"bufio"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	_ "cardshop/docs" // swagger docs

	"cardshop/internal/config"
	"cardshop/internal/db"
)

// @title Card Shop API
// @version 1.0
// @description Digital goods storefront: card reservation, payment notifications and an admin back office.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// .env is optional; real environment variables still win.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "cardshop",
		Usage: "digital goods card storefront",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "migrate the schema and start the http server",
				Action: withApp(func(c *cli.Context, app *App) error {
					if err := db.Migrate(app.DB); err != nil {
						return err
					}
					return serve(c, app)
				}),
			},
			{
				Name:  "sweep",
				Usage: "close expired pending orders once",
				Action: withApp(func(c *cli.Context, app *App) error {
					res, err := app.Sweeper.Sweep(c.Context)
					if err != nil {
						return err
					}
					app.Logger.Info("sweep finished",
						zap.Int("examined", res.Examined),
						zap.Int("closed", res.Closed),
						zap.Int("skipped", res.Skipped),
						zap.Int("failed", res.Failed),
					)
					return nil
				}),
			},
			{
				Name:  "migrate",
				Usage: "create or update every table",
				Action: withApp(func(c *cli.Context, app *App) error {
					if err := db.Migrate(app.DB); err != nil {
						return err
					}
					app.Logger.Info("migration finished")
					return nil
				}),
			},
			{
				Name:  "create-admin",
				Usage: "create a back office account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"ADMIN_PASSWORD"}},
				},
				Action: withApp(func(c *cli.Context, app *App) error {
					admin, err := app.Auth.CreateAdmin(c.Context, c.String("name"), c.String("email"), c.String("password"))
					if err != nil {
						return err
					}
					app.Logger.Info("admin created", zap.Uint("id", admin.ID), zap.String("email", admin.Email))
					return nil
				}),
			},
			{
				Name:  "import-cards",
				Usage: "import cards for a product from a file, one per line",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "product", Usage: "product slug", Required: true},
					&cli.PathFlag{Name: "file", Required: true},
				},
				Action: withApp(importCards),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("cardshop: %v", err)
	}
}

// withApp loads the configuration and composes the application around a command.
func withApp(fn func(c *cli.Context, app *App) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		app, cleanup, err := InitApp(c.Context, cfg)
		if err != nil {
			return err
		}
		defer cleanup()
		defer drain(app)
		return fn(c, app)
	}
}

func importCards(c *cli.Context, app *App) error {
	product, err := app.Store.Products().FindBySlug(c.Context, c.String("product"))
	if err != nil {
		return fmt.Errorf("find product %q: %w", c.String("product"), err)
	}

	f, err := os.Open(c.Path("file"))
	if err != nil {
		return err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", c.Path("file"), err)
	}

	res, err := app.Cards.Import(c.Context, product.ID, lines)
	if err != nil {
		return err
	}
	app.Logger.Info("cards imported",
		zap.String("product", product.Slug),
		zap.Int64("batch_id", res.BatchID),
		zap.Int("imported", res.Imported),
		zap.Int("skipped", res.Skipped),
	)
	return nil
}
