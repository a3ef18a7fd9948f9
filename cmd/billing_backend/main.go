package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SscSPs/dairy_billing_app/internal/adapters/export"
	"github.com/SscSPs/dairy_billing_app/internal/adapters/notify"
	portsrepo "github.com/SscSPs/dairy_billing_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/dairy_billing_app/internal/core/ports/services"
	"github.com/SscSPs/dairy_billing_app/internal/core/services"
	"github.com/SscSPs/dairy_billing_app/internal/handlers"
	"github.com/SscSPs/dairy_billing_app/internal/middleware"
	"github.com/SscSPs/dairy_billing_app/internal/observability/metrics"
	"github.com/SscSPs/dairy_billing_app/internal/platform/config"
	"github.com/SscSPs/dairy_billing_app/internal/repositories/database/pgsql"
	"github.com/SscSPs/dairy_billing_app/internal/repositories/memory"
	"github.com/SscSPs/dairy_billing_app/internal/utils"
	"github.com/SscSPs/dairy_billing_app/migrations"
	"github.com/SscSPs/dairy_billing_app/pkg/database"
	"github.com/gin-gonic/gin"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const shutdownTimeout = 15 * time.Second

// @title Dairy Billing API
// @version 1.0
// @description Monthly billing generation and balance reconciliation for a dairy retail portal.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	metrics.Init()

	repos, health, cleanup, err := setupStorage(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cleanup()

	exporter := export.NewExporter(cfg.BusinessName, cfg.CurrencySymbol)
	dispatcher, err := newDispatcher(cfg, exporter, logger)
	if err != nil {
		logger.Error("Failed to initialize email dispatcher", slog.String("error", err.Error()))
		os.Exit(1)
	}
	container := services.NewServiceContainer(cfg, repos, dispatcher, exporter)

	posthogClient := utils.InitializePosthogClient(cfg.PosthogAPIKey, logger)
	defer posthogClient.Close()

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := handlers.RegisterRoutes(r, cfg, container, handlers.RouteDeps{Health: health, Posthog: posthogClient}); err != nil {
		logger.Error("Failed to register routes", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port), slog.String("storage", cfg.StorageDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", slog.String("error", err.Error()))
	}
}

// setupStorage builds the repositories for the configured driver.
func setupStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.RepositoryProvider, handlers.HealthChecker, func(), error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		logger.Warn("Using in-memory storage, data is lost on restart")
		return memory.NewRepositoryProvider(memory.New()), nil, func() {}, nil
	}

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		return portsrepo.RepositoryProvider{}, nil, nil, err
	}
	logger.Info("Database connection pool established")

	if cfg.MigrationsEnabled {
		if err := runMigrations(cfg.DatabaseURL, logger); err != nil {
			dbPool.Close()
			return portsrepo.RepositoryProvider{}, nil, nil, err
		}
	}

	return pgsql.NewRepositoryProvider(dbPool), dbPool.Ping, func() { database.ClosePgxPool(dbPool) }, nil
}

// runMigrations applies the embedded schema through a database/sql connection.
func runMigrations(databaseURL string, logger *slog.Logger) error {
	logger.Info("Running database migrations...")
	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()
	if err := migrationDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return err
	}

	upErr := m.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return upErr
	}
	if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
		return errors.Join(sourceErr, dbErr)
	}

	if errors.Is(upErr, migrate.ErrNoChange) {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}

func newDispatcher(cfg *config.Config, exporter *export.Exporter, logger *slog.Logger) (portssvc.StatementDispatcher, error) {
	if cfg.EmailAPIKey == "" {
		logger.Warn("EMAIL_API_KEY not set, statements are logged instead of emailed")
		return notify.NewLogDispatcher(), nil
	}
	email, err := notify.NewEmailDispatcher(notify.EmailConfig{
		APIURL:         cfg.EmailAPIURL,
		APIKey:         cfg.EmailAPIKey,
		Sender:         cfg.SenderEmail,
		BusinessName:   cfg.BusinessName,
		CurrencySymbol: cfg.CurrencySymbol,
	}, &http.Client{Timeout: cfg.NotificationTimeout}, exporter)
	if err != nil {
		return nil, err
	}
	return email, nil
}
