package main

import (
	"errors"
	"fmt"

	"intercompany/internal/database"
	"intercompany/internal/logger"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.NewConnection(cfg.DSN())
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		log := logger.WithComponent("migrate")
		log.Info().Msg("Schema up to date")
		return nil
	},
}

var seedPassword string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load two demo companies trading with each other",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.WithComponent("seed")

		db, err := database.NewConnection(cfg.DSN())
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		demo, err := database.SeedDemo(db, seedPassword, bcrypt.DefaultCost)
		if errors.Is(err, database.ErrAlreadySeeded) {
			log.Info().Msg("Demo data already present, nothing to do")
			return nil
		}
		if err != nil {
			return err
		}

		log.Info().
			Str("company_a", demo.CompanyA.ID.String()).
			Str("company_b", demo.CompanyB.ID.String()).
			Str("login_a", demo.AdminA.Email).
			Str("login_b", demo.AccountantB.Email).
			Msg("Demo data created")
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedPassword, "password", "changeme", "Password of the demo users")
}
