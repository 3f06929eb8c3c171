// Command fastfood runs the fastfood order API and manages its schema.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/fastfood-labs/order_service/internal/app/runtime"
	terminal "github.com/fastfood-labs/order_service/internal/cli"
	"github.com/fastfood-labs/order_service/internal/config"
	"github.com/fastfood-labs/order_service/internal/logging"
	"github.com/fastfood-labs/order_service/internal/platform/database"
	"github.com/fastfood-labs/order_service/internal/platform/migrations"
	"github.com/fastfood-labs/order_service/internal/secretstore"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		terminal.NewConsole(os.Stderr).Error(err.Error())
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "fastfood",
		Usage:   "fastfood order service",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML configuration file", EnvVars: []string{"FASTFOOD_CONFIG"}},
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "dotenv file loaded before the environment"},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "Apply or revert the database schema",
				Subcommands: []*cli.Command{
					{Name: "up", Usage: "Apply pending migrations", Action: migrateAction(migrations.Up)},
					{Name: "down", Usage: "Revert all migrations", Action: migrateAction(migrations.Down)},
				},
			},
			{
				Name:      "completion",
				Usage:     "Print a shell completion script",
				ArgsUsage: "bash|zsh|fish",
				Action: func(c *cli.Context) error {
					return terminal.GenerateCompletion(c.App.Writer, c.Args().First())
				},
			},
		},
	}
}

func loadConfig(c *cli.Context) (*config.Config, *logging.Logger, error) {
	cfg, err := config.Load(c.String("config"), c.String("env-file"))
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.New("fastfood", cfg.Logging.Level, cfg.Logging.Format), nil
}

func serve(c *cli.Context) error {
	cfg, log, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := runtime.NewApplication(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}

	runErr := application.Run(ctx)

	log.Info("shutting down")
	if err := application.Shutdown(context.Background()); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func migrateAction(step func(db *sql.DB, driver string) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, _, err := loadConfig(c)
		if err != nil {
			return err
		}
		if cfg.Database.Driver == config.DriverMemory {
			return fmt.Errorf("migrate: the memory driver has no schema")
		}

		creds := database.CredentialsFromConfig(cfg.Database)
		if cfg.Vault.Enabled() {
			kv, err := secretstore.New(secretstore.Config{
				VaultURL:   cfg.Vault.URL,
				SecretName: cfg.Vault.SecretName,
				Timeout:    cfg.Vault.Timeout,
			})
			if err != nil {
				return err
			}
			if creds, err = kv.FetchCredentials(c.Context); err != nil {
				return err
			}
		}

		db, err := database.Open(c.Context, cfg.Database, creds)
		if err != nil {
			return err
		}

		console := terminal.NewConsole(c.App.Writer)
		spinner := console.Spinner(fmt.Sprintf("migrate %s on %s", c.Command.Name, cfg.Database.Driver))
		spinner.Start()
		if err := step(db.DB, cfg.Database.Driver); err != nil {
			spinner.Error(err.Error())
			return cli.Exit("", 1)
		}
		spinner.Success(fmt.Sprintf("migrate %s complete", c.Command.Name))
		return nil
	}
}
