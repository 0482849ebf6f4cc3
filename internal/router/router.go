package router

import (
	"log/slog"
	"net/http"
	"time"

	"kamaris/internal/config"
	"kamaris/internal/handlers"
	"kamaris/internal/middleware"
	"kamaris/internal/telemetry"

	"go.opentelemetry.io/otel/trace"
)

// RouterDependencies holds everything needed to register routes.
type RouterDependencies struct {
	Cfg            *config.Config
	Logger         *slog.Logger
	BlogHandler    *handlers.BlogHandler
	MediaHandler   *handlers.MediaHandler
	AuthHandler    *handlers.AuthHandler
	VariantHandler *handlers.VariantHandler
	Limiter        *middleware.IPRateLimiter
	AuthLimiter    *middleware.IPRateLimiter
	Tracer         trace.Tracer
	Metrics        *telemetry.Metrics
	Session        *middleware.Sessions
	CSRF           *middleware.CSRF
	Prometheus     http.Handler
}

func NewRouter(deps RouterDependencies) http.Handler {
	// routing
	appMux := http.NewServeMux()

	// public read API
	appMux.HandleFunc("GET /api/posts", deps.BlogHandler.HandleListPosts)
	appMux.HandleFunc("GET /api/posts/{slug}", deps.BlogHandler.HandleGetPost)
	appMux.HandleFunc("GET /api/posts/{slug}/related", deps.BlogHandler.HandleRelatedPosts)
	appMux.HandleFunc("GET /api/tags", deps.BlogHandler.HandleListTags)
	appMux.HandleFunc("GET /api/media", deps.MediaHandler.HandleListMedia)
	appMux.HandleFunc("GET /api/media/categories", deps.MediaHandler.HandleCategories)
	appMux.HandleFunc("GET /api/media/variant", deps.VariantHandler.HandleVariant)

	authDelay := 500 * time.Millisecond
	authStack := func(h http.Handler) http.Handler {
		h = middleware.SecureDelay(authDelay, deps.Metrics)(h)
		h = deps.AuthLimiter.Middleware(deps.Logger)(h)
		return h
	}

	// admin
	appMux.HandleFunc("GET /admin/session", deps.AuthHandler.HandleSession)
	appMux.Handle("POST /admin/login", authStack(http.HandlerFunc(deps.AuthHandler.HandleLogin)))
	appMux.Handle("POST /admin/logout", authStack(http.HandlerFunc(deps.AuthHandler.HandleLogout)))
	appMux.Handle("POST /admin/media", deps.AuthHandler.RequireAdmin(http.HandlerFunc(deps.MediaHandler.HandleUpload)))
	appMux.Handle("GET /admin/stats", deps.AuthHandler.RequireAdmin(http.HandlerFunc(handlers.HandleStats)))

	appMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		handlers.NotFoundError(w, r, deps.Logger)
	})

	middlewareStack := []middleware.Middleware{
		middleware.Recover(deps.Logger),
	}

	if deps.Cfg.Metrics.EnableTelemetry {
		// order matters so don't append
		middlewareStack = append(middlewareStack, middleware.Observability(deps.Tracer, deps.Metrics, deps.Logger))
	}

	middlewareStack = append(middlewareStack,
		deps.Limiter.Middleware(deps.Logger),
		deps.Session.Middleware(deps.Logger, deps.Tracer),
		deps.CSRF.Middleware(deps.Logger),
		middleware.Logger(deps.Logger), // Inner logger (shows simple text logs)
	)

	appHandler := middleware.Chain(appMux, middlewareStack...)

	rootMux := http.NewServeMux()

	if deps.Prometheus != nil {
		rootMux.Handle("GET /metrics", deps.Prometheus)
	}

	// lightweight for docker keepalive
	rootMux.HandleFunc("GET /healthz", handlers.HandleHealth)

	rootMux.Handle("/", appHandler)

	return rootMux
}
