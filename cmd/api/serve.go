package main

import (
	"fmt"

	"intercompany/internal/app"
	"intercompany/internal/database"
	"intercompany/internal/logger"

	"github.com/spf13/cobra"
)

var autoMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	serveCmd.Flags().BoolVar(&autoMigrate, "migrate", true, "Run schema migrations before serving")
}

func runServe() error {
	log := logger.WithComponent("serve")

	db, err := database.NewConnection(cfg.DSN())
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	log.Info().Str("host", cfg.DBHost).Str("database", cfg.DBName).Msg("Connected to PostgreSQL")

	if autoMigrate {
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	application := app.New(db, cfg)
	go application.Hub.Run()

	log.Info().Str("port", cfg.Port).Msg("Server listening")
	return application.Router.Run(":" + cfg.Port)
}
