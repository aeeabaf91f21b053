package cmd

import (
	"context"
	"errors"
	"events-api/config"
	"events-api/internal/handlers"
	"events-api/internal/notify"
	"events-api/internal/services"
	"events-api/monitoring"
	"events-api/security"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

// Execute runs the events-api command line.
func Execute() error {
	return NewRootCmd().Execute()
}

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "events-api",
		Short:         "Minimal events API with pluggable storage",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var backendName, port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("backend") {
				cfg.Backend = backendName
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return Start(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&backendName, "backend", config.BackendMemory, "event store: memory, relational, document or collection")
	cmd.Flags().StringVar(&port, "port", "8090", "HTTP listen port")
	return cmd
}

// Start serves the API until ctx is done or SIGINT/SIGTERM arrives.
func Start(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	startupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	b, err := openBackend(startupCtx, cfg)
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			slog.Error("Failed to close event store", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(cfg, b, reg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", server.Addr, "backend", cfg.Backend, "environment", cfg.Environment)
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-stopCtx.Done():
		slog.Info("Shutdown signal received, cleaning up...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("Server stopped")
	return nil
}

func newRouter(cfg *config.Config, b *backend, reg *prometheus.Registry) *echo.Echo {
	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			)
			return nil
		},
	}))

	eventStore := b.store
	if cfg.EnableMetrics {
		eventStore = monitoring.NewMetrics(reg).Instrument(b.name, b.store)
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	var notifier services.Notifier
	if cfg.PubNubEnabled() {
		notifier = notify.NewPubNubNotifier(notify.PubNubConfig{
			PublishKey:   cfg.PubNubPublishKey,
			SubscribeKey: cfg.PubNubSubscribeKey,
			SecretKey:    cfg.PubNubSecretKey,
			Channel:      cfg.PubNubChannel,
		})
	}

	eventHandler := handlers.NewEventHandler(services.NewEventResource(eventStore, notifier))

	var createMiddleware []echo.MiddlewareFunc
	if cfg.RateLimitPerMinute > 0 && b.redis != nil {
		limiter := security.NewRateLimiter(b.redis, cfg.RateLimitPerMinute, time.Minute)
		createMiddleware = append(createMiddleware, limiter.CreateRateLimit())
	}

	e.GET("/events", eventHandler.GetEvents)
	e.POST("/events", eventHandler.PostEvent, createMiddleware...)
	e.GET("/health", handlers.NewHealthHandler(b.name, eventStore).Health)

	slog.Info("Server routes registered")
	return e
}
