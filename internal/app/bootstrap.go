package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"user-portal/internal/auth"
	"user-portal/internal/db"
	"user-portal/internal/httpx"
	"user-portal/internal/mail"
	"user-portal/internal/maintenance"
	"user-portal/internal/media"
	"user-portal/internal/observability"
	"user-portal/internal/user"
)

type Options struct {
	LoadDotEnv    bool
	RunMigrations bool
}

type Runtime struct {
	Handler http.Handler
	Close   func() error
}

// publicPaths bypass the authorization gate. Entries ending in "/" match by
// prefix. The maintenance endpoint carries its own cron-secret check.
var publicPaths = []string{
	"/user/login",
	"/user/register",
	"/user/resetPassword/",
	"/user/image/",
	"/internal/maintenance/cleanup",
	"/health",
}

func Build(options Options) (*Runtime, error) {
	if options.LoadDotEnv {
		_ = godotenv.Load()
	}

	logger := observability.NewLogger()

	databaseURL, err := mustEnv("DATABASE_URL")
	if err != nil {
		return nil, err
	}
	jwtSecret, err := mustEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}

	if err := observability.InitSentry(os.Getenv("SENTRY_DSN"), envOrDefault("APP_ENV", "development")); err != nil {
		logger.Error("init_sentry_failed", map[string]any{"error": err.Error()})
	}

	database, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	database.SetMaxOpenConns(envIntOrDefault("DB_MAX_OPEN_CONNS", 10))
	database.SetMaxIdleConns(envIntOrDefault("DB_MAX_IDLE_CONNS", 5))
	database.SetConnMaxLifetime(envMinutesOrDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30))
	database.SetConnMaxIdleTime(envMinutesOrDefault("DB_CONN_MAX_IDLE_TIME_MINUTES", 10))

	if err := database.Ping(); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if options.RunMigrations {
		if err := db.RunMigrations(database); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	tracker := auth.NewAttemptTracker(
		envIntOrDefault("LOGIN_MAX_ATTEMPTS", 3),
		envMinutesOrDefault("LOGIN_ATTEMPT_TTL_MINUTES", 15),
		envIntOrDefault("LOGIN_ATTEMPT_CACHE_SIZE", 100),
	)
	tokens := auth.NewTokenProvider(jwtSecret, envHoursOrDefault("TOKEN_TTL_HOURS", 24))
	gate := auth.NewGate(tokens, publicPaths, logger)
	hasher := auth.BcryptHasher{}

	userRepo := user.NewRepository(database)
	imageStore := media.NewStore(envOrDefault("IMAGE_STORAGE_DIR", "user-images"), "/user/image")
	mediaHandler := media.NewHandler(imageStore)

	var sender mail.Sender
	if smtpHost := strings.TrimSpace(os.Getenv("SMTP_HOST")); smtpHost != "" {
		sender = mail.NewSMTPSender(
			smtpHost,
			envOrDefault("SMTP_PORT", "587"),
			envOrDefault("SMTP_FROM", "support@user-portal.local"),
			os.Getenv("SMTP_USERNAME"),
			os.Getenv("SMTP_PASSWORD"),
		)
	} else {
		sender = mail.NewLogSender(logger)
	}

	userService := user.NewService(userRepo, hasher, sender, imageStore, logger)
	userHandler := user.NewHandler(userService)

	authService := auth.NewService(userRepo, hasher, tracker, tokens, logger)
	authHandler := auth.NewHandler(authService)

	cleanupHandler := maintenance.NewCleanupHandler(tracker, logger, os.Getenv("CRON_SECRET"))

	loginLimiter := auth.NewLoginRateLimiter(
		envIntOrDefault("LOGIN_RATE_LIMIT_MAX", 10),
		envSecondsOrDefault("LOGIN_RATE_LIMIT_WINDOW_SECONDS", 60),
	)

	mux := http.NewServeMux()
	mux.Handle("POST /user/login", loginLimiter.Middleware(http.HandlerFunc(authHandler.Login)))
	mux.HandleFunc("POST /user/register", userHandler.Register)
	mux.HandleFunc("GET /user/resetPassword/{email}", userHandler.ResetPassword)
	mux.HandleFunc("GET /user/image/{username}/{fileName}", mediaHandler.ServeImage)
	mux.Handle("GET /user/find/{username}", gate.Require(user.AuthorityUserRead, userHandler.Find))
	mux.Handle("GET /user/list", gate.Require(user.AuthorityUserRead, userHandler.List))
	mux.Handle("POST /user/update", gate.Require(user.AuthorityUserUpdate, userHandler.UpdateUser))
	mux.Handle("POST /user/updateProfileImage", gate.Require(user.AuthorityUserUpdate, userHandler.UpdateProfileImage))
	mux.Handle("POST /user/add", gate.Require(user.AuthorityUserCreate, userHandler.AddUser))
	mux.Handle("DELETE /user/delete/{id}", gate.Require(user.AuthorityUserDelete, userHandler.Delete))
	mux.HandleFunc("GET /internal/maintenance/cleanup", cleanupHandler.Handle)
	mux.HandleFunc("POST /internal/maintenance/cleanup", cleanupHandler.Handle)
	mux.HandleFunc("GET /health", healthHandler(database))

	handler := observability.RecoverMiddleware(logger,
		observability.RequestLoggingMiddleware(logger,
			gate.Middleware(mux)))

	return &Runtime{
		Handler: handler,
		Close: func() error {
			observability.FlushSentry()
			return database.Close()
		},
	}, nil
}

func healthHandler(database *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]any{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)}
		if err := database.PingContext(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body = map[string]any{"status": "degraded", "time": time.Now().UTC().Format(time.RFC3339)}
		}

		httpx.WriteJSON(w, status, body)
	}
}

func mustEnv(name string) (string, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return "", fmt.Errorf("missing required env: %s", name)
	}
	return value, nil
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envIntOrDefault(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envMinutesOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Minute
}

func envHoursOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Hour
}

func envSecondsOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Second
}

func EnvBoolOrDefault(name string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if value == "" {
		return fallback
	}

	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
