package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	availabilityapp "github.com/muhammadheryan/stock-reservation/application/availability"
	reservationapp "github.com/muhammadheryan/stock-reservation/application/reservation"
	"github.com/muhammadheryan/stock-reservation/application/sweeper"
	warehouseapp "github.com/muhammadheryan/stock-reservation/application/warehouse"
	"github.com/muhammadheryan/stock-reservation/repository/schema"
	"github.com/muhammadheryan/stock-reservation/thirdparty/rabbitmq"
	"github.com/muhammadheryan/stock-reservation/transport"
	"github.com/muhammadheryan/stock-reservation/utils/logger"
	"github.com/muhammadheryan/stock-reservation/utils/tracing"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the expiry sweeper and the expiration consumer",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting server", zap.String("env", cfg.Environment))

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracerProvider("stock-reservation", cfg.Tracing.JaegerEndpoint, cfg.Tracing.SampleRatio)
		if err != nil {
			logger.Fatal("err init tracing", zap.Error(err))
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Error("err shutdown tracer", zap.Error(err))
			}
		}()
	}

	b, err := openBackends(ctx)
	if err != nil {
		logger.Fatal("err open backends", zap.Error(err))
	}
	defer b.Close()

	if migrate, _ := cmd.Flags().GetBool("migrate"); migrate && b.db != nil {
		if err := schema.Migrate(ctx, b.db, cfg.Database.Driver); err != nil {
			logger.Fatal("err migrate", zap.Error(err))
		}
	}

	var opts []reservationapp.Option
	var publisher *rabbitmq.Publisher
	if cfg.RabbitMQ.Enabled {
		publisher, err = rabbitmq.NewPublisher(cfg.RabbitMQ)
		if err != nil {
			logger.Fatal("err connect rabbitmq", zap.Error(err))
		}
		defer publisher.Close()
		opts = append(opts, reservationapp.WithExpirationPublisher(publisher), reservationapp.WithAlerter(publisher))
	}

	// Initialize application layers
	ReservationApp := reservationapp.NewReservationApp(cfg.Reservation.HoldDuration, b.ledger, b.reservations, b.warehouses, b.cache, opts...)
	AvailabilityApp := availabilityapp.NewAvailabilityApp(cfg.Availability.CacheTTL, b.ledger, b.warehouses, b.cache)
	WarehouseApp := warehouseapp.NewWarehouseApp(b.warehouses, b.ledger, b.cache)
	Sweeper := sweeper.NewSweeper(cfg.Sweeper, b.reservations, ReservationApp)

	if cfg.RabbitMQ.Enabled {
		consumer, err := rabbitmq.NewConsumer(cfg.RabbitMQ, ReservationApp)
		if err != nil {
			logger.Fatal("err connect rabbitmq consumer", zap.Error(err))
		}
		defer consumer.Close()
		if err := consumer.Start(ctx); err != nil {
			logger.Fatal("err start consumer", zap.Error(err))
		}
	}

	httpTransport := transport.NewTransport(transport.AuthConfig{
		JWTSecret:      cfg.Auth.JWTSecret,
		InternalAPIKey: cfg.Auth.InternalAPIKey,
	}, &transport.RestHandler{
		ReservationApp:  ReservationApp,
		AvailabilityApp: AvailabilityApp,
		WarehouseApp:    WarehouseApp,
		Sweeper:         Sweeper,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      httpTransport,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Sweeper.Enabled {
		g.Go(func() error {
			return Sweeper.Run(gctx)
		})
	}
	g.Go(func() error {
		logger.Info("HTTP server running", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		logger.Info("Shutting down server")
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped", zap.Error(err))
		return err
	}
	return nil
}
