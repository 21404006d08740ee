package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"featurepipe/internal/config"
	"featurepipe/internal/features"
	"featurepipe/internal/infrastructure"
	customMiddleware "featurepipe/internal/middleware"
	"featurepipe/internal/operations"
	"featurepipe/internal/services"
	handlers "featurepipe/internal/transport/http"
	"featurepipe/pkg/contracts"
)

const AppName = "featurepipe"

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Pipeline      *services.PipelineService
	Health        *services.HealthService
	Validator     *customMiddleware.Validator
}

// NewApplication wires services, router and server from cfg. A nil logger
// uses the process logger.
func NewApplication(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("application_starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version))

	otelProviders, err := infrastructure.InitializeOTel(
		infrastructure.NewOTelConfig(cfg.Telemetry, contracts.Version), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Validator:     customMiddleware.NewValidator(),
	}
	app.initializeServices()
	app.setupRouter()
	app.createServer()
	return app, nil
}

// initializeServices builds the pipeline and health services
func (a *Application) initializeServices() {
	var clock features.Clock = features.SystemClock{}
	if today, ok := a.Config.Pipeline.ReferenceDate(); ok {
		clock = features.FixedClock(today)
	}
	opsCfg := operations.ConfigFromPipeline(a.Config.Pipeline)
	a.Pipeline = services.NewPipelineService(features.DefaultStages(clock), opsCfg, a.OTelProviders, a.Logger)
	a.Health = services.NewHealthService(contracts.Version, a.Pipeline, a.Logger)
}

// setupRouter configures the HTTP router with all routes.
// Order: RequestID, RealIP, OTel, Logger, Recoverer, then the rest.
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	r.NotFound(handlers.NotFound)

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)
		r.Use(customMiddleware.MaxBodySize(a.Config.Server.MaxBodyBytes))

		if a.Config.Server.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Server.RateLimit.RPS,
				a.Config.Server.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)
	})

	// outside the group so scrapes are neither rate limited nor traced
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	healthHandler := handlers.NewHealthHandler(a.Health, a.Logger)
	stageHandler := handlers.NewStageHandler(a.Pipeline, a.Logger)
	pipelineHandler := handlers.NewPipelineHandler(a.Pipeline, a.Validator, a.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)

		r.Route("/v1", func(r chi.Router) {
			r.Use(customMiddleware.ContentTypeValidator("text/csv", "text/plain", "application/json"))
			r.Mount("/stages", stageHandler.Routes())
			r.Post("/pipeline", pipelineHandler.RunPipeline)
			r.Post("/profile", pipelineHandler.ProfileTable)
		})
	})
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Serve accepts connections on ln until the server is shut down
func (a *Application) Serve(ln net.Listener) error {
	a.Logger.Info("server_listening",
		slog.String("address", ln.Addr().String()),
		slog.String("version", contracts.Version))
	if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Stop gracefully stops the server and flushes telemetry
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "application_stopping")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}
	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("telemetry shutdown error: %w", err))
		}
	}

	a.Logger.InfoContext(ctx, "application_stopped")
	return errors.Join(errs...)
}

// Run serves on the configured port until ctx is done or SIGINT/SIGTERM
// arrives, then shuts down gracefully
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.Server.Addr, err)
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- a.Serve(ln) }()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
		a.Logger.Info("shutdown_signal_received")
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout+time.Second)
	defer cancel()
	if err := a.Stop(stopCtx); err != nil {
		return err
	}
	return <-serveErr
}
