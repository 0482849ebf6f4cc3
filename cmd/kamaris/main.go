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

	"kamaris/internal/config"
	"kamaris/internal/content"
	"kamaris/internal/handlers"
	"kamaris/internal/media"
	"kamaris/internal/middleware"
	"kamaris/internal/router"
	"kamaris/internal/storage"
	"kamaris/internal/storage/sqlite"
	"kamaris/internal/telemetry"

	"github.com/gofrs/uuid/v5"
)

type App struct {
	Server *http.Server
	Logger *slog.Logger
	Config *config.Config
}

func NewApp(cfg *config.Config, logger *slog.Logger, handler http.Handler) *App {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.Timeouts.Read,
		WriteTimeout: cfg.HTTP.Timeouts.Write,
		IdleTimeout:  cfg.HTTP.Timeouts.Idle,
	}

	return &App{
		Server: server,
		Logger: logger,
		Config: cfg,
	}
}

func (a *App) Run(ctx context.Context) error {
	srvErrChan := make(chan error, 1)

	go func() {
		a.Logger.Info("server starting", "addr", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErrChan <- err
		}
	}()

	select {
	case err := <-srvErrChan:
		return fmt.Errorf("server startup failed: %w", err)
	case <-ctx.Done():
		a.Logger.Info("shutdown signal received")
	}

	// attempt clean shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.HTTP.Timeouts.Shutdown)
	defer cancel()

	a.Logger.Info("draining connections...")
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		// graceful shutdown timed out
		if closeErr := a.Server.Close(); closeErr != nil {
			// both failed. Return combined error.
			return fmt.Errorf("graceful shutdown failed: %w", errors.Join(err, closeErr))
		}
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	a.Logger.Info("server stopped")
	return nil
}

func main() {
	cfg := config.LoadWithDefaults()
	if err := cfg.Validate(); err != nil {
		// nothing has been dialled yet: a bad object-store config must
		// never reach the first network call
		panic(fmt.Sprintf("invalid configuration: %v", err))
	}

	stderr := os.Stderr
	logHandler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.Logger.Level})
	logger := slog.New(logHandler).With("app", cfg.App.Name)

	// Add PID
	logger.Info("application starting", "pid", os.Getpid())
	logger.Info("configuration loaded",
		"name", cfg.App.Name,
		"env", cfg.App.Environment,
		"port", cfg.HTTP.Port,
		"db", cfg.DB.Path,
		"bucket", cfg.Object.Bucket,
		"rate_limit_rps", cfg.Limiter.RPS,
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Init(rootCtx,
		"kamaris", "1.0.0", cfg.App.Environment,
		cfg.Metrics.OtelEndpoint, cfg.Metrics.EnableTelemetry, logger)
	if err != nil {
		logger.Error("telemetry init", "err", err)
		os.Exit(1)
	}
	defer tel.Shutdown(context.Background())

	metrics, err := telemetry.NewMetrics(tel.Meter)
	if err != nil {
		logger.Error("metrics init", "err", err)
		os.Exit(1)
	}

	store, err := sqlite.NewStore(cfg.DB.Path)
	if err != nil {
		logger.Error("could not open database", "path", cfg.DB.Path, "err", err)
		os.Exit(1)
	}
	defer store.Close()
	if err := store.Migrate(cfg.DB.MigrationsPath); err != nil {
		logger.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	objects, err := storage.NewS3Store(cfg.Object)
	if err != nil {
		logger.Error("could not reach object store", "endpoint", cfg.Object.Endpoint, "err", err)
		os.Exit(1)
	}

	namespace, err := uuid.FromString(cfg.App.VariantNamespace)
	if err != nil {
		logger.Error("invalid variant namespace", "err", err)
		os.Exit(1)
	}
	variants := media.NewVariantProcessor(rootCtx, objects, namespace, cfg.Media.ThumbnailWorkers, logger)

	posts := content.NewService(store, logger)
	renderer := content.NewMarkDownRenderer(cfg.Object.PublicBaseURL)
	gallery := media.NewGallery(store, logger)
	ingestor := media.NewIngestor(objects, store, variants, cfg.Media.UploadPathPrefix, logger)

	isProd := cfg.App.Environment == "prod"
	sessions := middleware.NewSessionManager(cfg.Auth.SessionTTL, isProd, store.RawDB())
	csrf := middleware.NewCSRF(isProd)
	limiter := middleware.NewIPRateLimiter(rootCtx, cfg.Limiter.RPS, cfg.Limiter.Burst, false, metrics)
	authLimiter := middleware.NewIPRateLimiter(rootCtx, 2, 5, false, metrics)

	handler := router.NewRouter(router.RouterDependencies{
		Cfg:    cfg,
		Logger: logger,
		BlogHandler: &handlers.BlogHandler{
			Posts:    posts,
			Renderer: renderer,
			Logger:   logger,
			Metrics:  metrics,
		},
		MediaHandler: &handlers.MediaHandler{
			Gallery:        gallery,
			Ingestor:       ingestor,
			Logger:         logger,
			Metrics:        metrics,
			MaxUploadBytes: cfg.Media.MaxUploadBytes,
		},
		AuthHandler: &handlers.AuthHandler{
			Store:    store,
			Sessions: sessions,
			Logger:   logger,
		},
		VariantHandler: &handlers.VariantHandler{
			Objects:  objects,
			Variants: variants,
			Logger:   logger,
			Metrics:  metrics,
		},
		Limiter:     limiter,
		AuthLimiter: authLimiter,
		Tracer:      tel.Tracer,
		Metrics:     metrics,
		Session:     sessions,
		CSRF:        csrf,
		Prometheus:  tel.PrometheusHandler,
	})

	app := NewApp(cfg, logger, handler)

	// run the app with context
	if err := app.Run(rootCtx); err != nil {
		logger.Error("server crashed", "err", err)
		os.Exit(1)
	}

	logger.Info("application exited successfully")
	os.Exit(0)
}
