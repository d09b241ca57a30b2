package main

import (
	"fmt"
	"time"

	reservationapp "github.com/muhammadheryan/stock-reservation/application/reservation"
	"github.com/muhammadheryan/stock-reservation/application/sweeper"
	"github.com/muhammadheryan/stock-reservation/cmd/database"
	"github.com/muhammadheryan/stock-reservation/repository/schema"
	"github.com/muhammadheryan/stock-reservation/utils/logger"
	"github.com/muhammadheryan/stock-reservation/utils/token"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the warehouse, stock and reservation tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Database.Driver == "memory" {
			return fmt.Errorf("nothing to migrate for the memory driver")
		}
		db, err := database.Connect(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := schema.Migrate(cmd.Context(), db, cfg.Database.Driver); err != nil {
			return err
		}
		logger.Info("schema applied", zap.String("driver", cfg.Database.Driver))
		return nil
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Expire every lapsed reservation once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackends(cmd.Context())
		if err != nil {
			return err
		}
		defer b.Close()

		app := reservationapp.NewReservationApp(cfg.Reservation.HoldDuration, b.ledger, b.reservations, b.warehouses, b.cache)
		res, err := sweeper.NewSweeper(cfg.Sweeper, b.reservations, app).SweepOnce(cmd.Context())
		if err != nil {
			return err
		}
		logger.Info("sweep finished",
			zap.Int("scanned", res.Scanned), zap.Int("expired", res.Expired),
			zap.Int("skipped", res.Skipped), zap.Int("failed", res.Failed),
			zap.Duration("duration", res.Duration))
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token <subject>",
	Short: "Issue a service JWT for a checkout caller",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Auth.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is not set")
		}
		ttl, _ := cmd.Flags().GetDuration("ttl")
		tok, err := token.Issue(cfg.Auth.JWTSecret, args[0], ttl, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}
