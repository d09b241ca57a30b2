package main

import (
	"os"
	"time"

	"github.com/muhammadheryan/stock-reservation/cmd/config"
	"github.com/muhammadheryan/stock-reservation/utils/logger"
	"github.com/spf13/cobra"
)

// @title STOCK RESERVATION API
// @version 1.0
// @description Multi-warehouse inventory reservation engine
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @securityDefinitions.apikey InternalKey
// @in header
// @name Authorization
func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:          "stock-reservation",
	Short:        "Inventory reservation engine",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		if err := cfg.Validate(); err != nil {
			return err
		}
		return logger.Init(cfg.Environment, cfg.LogLevel)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Close()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(tokenCmd)

	serveCmd.Flags().Bool("migrate", false, "Apply the sql schema before serving")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
}
