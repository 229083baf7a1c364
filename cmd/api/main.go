// Package main is the entrypoint for the Patlas API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/patlas/patlas/internal/auth"
	"github.com/patlas/patlas/internal/cache"
	"github.com/patlas/patlas/internal/config"
	"github.com/patlas/patlas/internal/handler"
	"github.com/patlas/patlas/internal/metrics"
	"github.com/patlas/patlas/internal/middleware"
	"github.com/patlas/patlas/internal/platform"
	"github.com/patlas/patlas/internal/provider"
	"github.com/patlas/patlas/internal/repository"
	"github.com/patlas/patlas/internal/server"
	"github.com/patlas/patlas/internal/service"
)

func main() {
	// Initialize context
	ctx := context.Background()

	// Load .env in development; real deployments set the environment.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to Redis")

	// Select the identity provider
	var authProvider provider.AuthProvider
	if cfg.UseMockAuth() {
		logger.Warn("mock identity provider enabled")
		authProvider = provider.NewMock()
	} else {
		authProvider = provider.NewLive(cfg.ProviderBaseURL, cfg.ProviderClientID, cfg.ProviderClientSecret)
	}

	// Initialize services
	metricsRecorder := metrics.NewNoop()
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)
	platformClient := platform.New(cfg.PlatformBaseURL, cfg.PlatformAPIKey)

	authService := service.NewAuthService(repo, cacheClient, authProvider, issuer, cfg.RefreshTokenTTL)
	usageService := service.NewUsageService(cacheClient)
	chatService := service.NewChatService(repo)
	patentService := service.NewPatentService(repo, platformClient)

	// Initialize handlers
	deps := routerDeps{
		base:     handler.New(),
		health:   handler.NewHealthHandler(repo, cacheClient),
		oauth:    handler.NewOAuthHandler(authProvider, authService, cfg.GetAllowedRedirectURIs(), cfg.OAuthConfigured() || cfg.UseMockAuth(), logger, metricsRecorder),
		auth:     handler.NewAuthHandler(authService, logger, metricsRecorder),
		usage:    handler.NewUsageHandler(usageService, cfg.IsProduction(), logger),
		chat:     handler.NewChatHandler(chatService, logger),
		artifact: handler.NewArtifactHandler(repo, logger),
		patent:   handler.NewPatentHandler(patentService, platformClient, logger, metricsRecorder),
		cron:     handler.NewCronHandler(repo, cfg.CronSecret, logger),
		issuer:   issuer,
		usageSvc: usageService,
	}
	if cfg.IsDevelopment() {
		deps.status = handler.NewStatusHandler(cfg.ModelServerURL, logger)
	}

	r := setupRouter(deps, cfg, logger)

	// Create and run server
	srv := server.New(r, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	srv.OnShutdown("database", func(context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("redis", func(context.Context) error {
		return cacheClient.Close()
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// routerDeps bundles the handlers and services the router mounts.
type routerDeps struct {
	base     *handler.Handler
	health   *handler.HealthHandler
	oauth    *handler.OAuthHandler
	auth     *handler.AuthHandler
	usage    *handler.UsageHandler
	chat     *handler.ChatHandler
	artifact *handler.ArtifactHandler
	patent   *handler.PatentHandler
	cron     *handler.CronHandler
	status   *handler.StatusHandler
	issuer   *auth.TokenIssuer
	usageSvc *service.UsageService
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(deps routerDeps, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	secCfg := middleware.DefaultSecurityConfig()
	secCfg.IsDevelopment = cfg.IsDevelopment()
	r.Use(middleware.Security(secCfg))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()
	r.Use(middleware.CORS(corsCfg))

	// Health endpoints (no auth required)
	r.Get("/healthz", deps.health.Healthz)
	r.Get("/readyz", deps.health.Readyz)

	// Root info endpoint
	r.Get("/", deps.base.Hello)

	identity := middleware.Identity(middleware.IdentityConfig{
		Logger: logger,
		Issuer: deps.issuer,
		Secure: cfg.IsProduction(),
	})
	quota := middleware.Quota(middleware.QuotaConfig{
		Logger: logger,
		Usage:  deps.usageSvc,
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(identity)

		// OAuth bridge
		r.Route("/oauth", func(r chi.Router) {
			r.Post("/token", deps.oauth.Exchange)
			r.Post("/session", deps.oauth.Bridge)
		})

		// Session lifecycle
		r.Route("/auth", func(r chi.Router) {
			r.Post("/verify", deps.auth.Verify)
			r.Post("/refresh", deps.auth.Refresh)
			r.With(middleware.RequireUser()).Post("/signout", deps.auth.SignOut)
		})

		// Usage ledger
		r.Route("/usage", func(r chi.Router) {
			r.Get("/", deps.usage.Get)
			r.With(middleware.RequireUser()).Post("/transfer", deps.usage.Transfer)
		})

		// Chat sessions (authenticated; message append is chargeable)
		r.Route("/chat/sessions", func(r chi.Router) {
			r.Use(middleware.RequireUser())
			r.Get("/", deps.chat.List)
			r.Post("/", deps.chat.Create)
			r.Get("/{id}", deps.chat.Get)
			r.Patch("/{id}", deps.chat.Rename)
			r.Delete("/{id}", deps.chat.Delete)
			r.With(quota).Post("/{id}/messages", deps.chat.AppendMessage)
		})

		// Artifacts
		r.With(middleware.RequireUser()).Get("/charts/{id}", deps.artifact.GetChart)
		r.With(middleware.RequireUser()).Get("/csv/{id}", deps.artifact.GetCSV)

		// Patents (search is chargeable for every identity)
		r.Route("/patents", func(r chi.Router) {
			r.With(quota).Post("/search", deps.patent.Search)
			r.Get("/{id}", deps.patent.Get)
		})

		// Scheduler maintenance
		r.Get("/cron/cleanup", deps.cron.Cleanup)

		// Local model probe, mounted in development only
		if deps.status != nil {
			r.Get("/model-status", deps.status.ModelStatus)
		}
	})

	// 404 and 405 handlers
	r.NotFound(deps.base.NotFound)
	r.MethodNotAllowed(deps.base.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
