package main

import (
	"fmt"
	"os"

	_ "intercompany/api/swagger" // swagger docs
	"intercompany/internal/config"
	"intercompany/internal/logger"

	"github.com/spf13/cobra"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "intercompany-api",
	Short: "Inter-company invoicing service",
	Long: `Runs the invoice API. Posting a document addressed to another managed
company creates the counterpart document in that company; cancellations
and resets are propagated or refused accordingly.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		if err := logger.Setup(loaded.GetLoggerConfig()); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		cfg = loaded
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

// @title           Inter-Company Invoicing API
// @version         1.0
// @description     Invoice lifecycle with automatic counterpart documents between managed companies.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)

	if err := rootCmd.Execute(); err != nil {
		log := logger.WithComponent("cmd")
		log.Error().Err(err).Msg("Command execution failed")
		os.Exit(1)
	}
}
