package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/clefeel/storefront/internal/api"
	"github.com/clefeel/storefront/internal/auth"
	"github.com/clefeel/storefront/internal/db"
	"github.com/clefeel/storefront/internal/metrics"
	"github.com/clefeel/storefront/internal/middleware"
	"github.com/clefeel/storefront/internal/notify"
	"github.com/clefeel/storefront/internal/services"
	"github.com/clefeel/storefront/internal/store"
	"github.com/clefeel/storefront/pkg/config"
	"github.com/clefeel/storefront/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	notifyTimeout       = 30 * time.Second
	activeCartsInterval = time.Minute
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg := config.LoadConfig()

	if _, err := logger.Init(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize OpenTelemetry metrics
	appMetrics, _, meterShutdown, err := metrics.InitMetrics(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterShutdown.Shutdown(shutdownCtx); err != nil {
			slog.Error("error shutting down meter provider", "error", err)
		}
	}()

	st, closeStore, err := openStore(ctx, cfg, appMetrics)
	if err != nil {
		return err
	}
	defer closeStore()

	// Notifications
	var notifiers notify.Multi
	if cfg.SMTPEnabled() {
		notifiers = append(notifiers, notify.NewMailer(notify.SMTPConfig{
			Host:        cfg.SMTPHost,
			Port:        cfg.SMTPPort,
			Username:    cfg.SMTPUser,
			Password:    cfg.SMTPPassword,
			From:        cfg.SMTPFrom,
			AdminEmail:  cfg.AdminEmail,
			AdminURL:    cfg.AdminURL,
			FrontendURL: cfg.FrontendURL,
		}))
	} else {
		notifiers = append(notifiers, notify.Log{})
	}
	if len(cfg.KafkaBrokers) > 0 {
		publisher := notify.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer func() {
			if err := publisher.Close(); err != nil {
				slog.Error("error closing kafka writer", "error", err)
			}
		}()
		notifiers = append(notifiers, publisher)
	}
	dispatcher := notify.NewDispatcher(notifiers, appMetrics, notifyTimeout)
	// runs before the publisher and store are closed
	defer dispatcher.Wait()

	node, err := snowflake.NewNode(cfg.NodeID)
	if err != nil {
		return fmt.Errorf("invalid NODE_ID: %w", err)
	}

	limiter, err := newLimiter(ctx, cfg)
	if err != nil {
		return err
	}

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)

	// Initialize services
	cartService := services.NewCartService(st, appMetrics)
	svc := api.Services{
		Catalog:   services.NewCatalogService(st, appMetrics),
		Cart:      cartService,
		Orders:    services.NewOrderService(st, dispatcher, appMetrics, node),
		Users:     services.NewUserService(st, tokens, dispatcher, appMetrics),
		Enquiries: services.NewEnquiryService(st),
		Admin:     services.NewAdminService(st),
	}
	go cartService.MonitorActiveCarts(ctx, activeCartsInterval)

	app := api.NewApp(cfg, appMetrics, auth.NewAuthenticator(tokens, st), limiter, svc)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      app.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv, "store", cfg.StoreDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server exited")
	return nil
}

// openStore selects the persistence backend named by STORE_DRIVER
func openStore(ctx context.Context, cfg *config.Config, m *metrics.AppMetrics) (store.Store, func(), error) {
	if cfg.StoreDriver == "memory" {
		slog.Warn("using in-memory store, data is lost on restart")
		return store.NewMemory(), func() {}, nil
	}

	database, err := db.NewDB(ctx, cfg.GetDSN(), cfg.OTELServiceName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.InitSchema(ctx, db.Schema); err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	closeDB := func() {
		if err := database.Close(); err != nil {
			slog.Error("error closing database", "error", err)
		}
	}
	return db.NewStore(database, m), closeDB, nil
}

// newLimiter shares rate limit counters through Redis when configured and
// falls back to per-process buckets otherwise
func newLimiter(ctx context.Context, cfg *config.Config) (middleware.Limiter, error) {
	if cfg.RedisAddr == "" {
		return middleware.NewLocalLimiter(2 * cfg.RateLimitWindow), nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return middleware.NewRedisLimiter(rdb), nil
}
