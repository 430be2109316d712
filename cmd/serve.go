package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Shivanand-hulikatti/ticketpass/internal/auth"
	"github.com/Shivanand-hulikatti/ticketpass/internal/config"
	"github.com/Shivanand-hulikatti/ticketpass/internal/database"
	"github.com/Shivanand-hulikatti/ticketpass/internal/handler"
	"github.com/Shivanand-hulikatti/ticketpass/internal/messaging"
	"github.com/Shivanand-hulikatti/ticketpass/internal/metrics"
	"github.com/Shivanand-hulikatti/ticketpass/internal/pass"
	"github.com/Shivanand-hulikatti/ticketpass/internal/repository"
	"github.com/Shivanand-hulikatti/ticketpass/internal/reservation"
	"github.com/Shivanand-hulikatti/ticketpass/internal/service"
)

const shutdownTimeout = 10 * time.Second

var migrateOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, logger)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "apply the schema before serving")
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// ── 1. Connect to PostgreSQL ──────────────────────────────────────────
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()

	if migrateOnStart {
		if err := database.Migrate(ctx, pool); err != nil {
			return err
		}
		logger.Info("schema applied")
	}

	// ── 2. Observability and messaging ───────────────────────────────────
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.New(reg)

	var publisher messaging.Publisher = messaging.Nop{}
	if cfg.AMQPURL != "" {
		amqpPub, err := messaging.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			return fmt.Errorf("messaging: %w", err)
		}
		publisher = amqpPub
	} else {
		logger.Info("AMQP_URL not set; booking events are not published")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("failed to close publisher", "error", err)
		}
	}()

	// ── 3. Wire up layers ────────────────────────────────────────────────
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.AuthTokenTTL)
	issuer := pass.NewIssuer(cfg.PassSecret, cfg.PassTTL)

	users := repository.NewUserRepository(pool)
	events := repository.NewEventRepository(pool)
	bookings := repository.NewBookingRepository(pool)
	coordinator := reservation.NewCoordinator(repository.NewReservationStore(pool), issuer, logger)

	router := handler.NewRouter(handler.Deps{
		Auth:     service.NewAuthService(users, tokens, logger),
		Events:   service.NewEventService(events, logger),
		Bookings: service.NewBookingService(coordinator, bookings, publisher, recorder, logger, cfg.BookingTimeout),
		Passes:   service.NewVerificationService(issuer, bookings, recorder, logger),
		Tokens:   tokens,
		DB:       pool,
		Metrics:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		Logger:   logger,
		Limiter:  handler.NewLoginLimiter(cfg.LoginRate, cfg.LoginBurst),
	})

	// ── 4. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
