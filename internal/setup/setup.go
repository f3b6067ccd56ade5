package setup

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mythril-io/mythril/internal/database"
	"github.com/mythril-io/mythril/internal/redis"
	"github.com/mythril-io/mythril/internal/setup/config"
	"github.com/mythril-io/mythril/internal/setup/telemetry"
	"go.uber.org/zap"
)

// Version is reported with every span. It is set at build time.
var Version = "dev" //nolint:gochecknoglobals // -

// ErrMigrationsPending is returned when the operator declines pending migrations.
var ErrMigrationsPending = errors.New("database migrations are pending")

// App bundles all core dependencies and services needed by the application.
// Each field represents a major subsystem that needs initialization and cleanup.
type App struct {
	Config       *config.Config     // Application configuration
	ConfigDir    string             // Directory the configuration was loaded from
	Logger       *zap.Logger        // Main application logger
	DBLogger     *zap.Logger        // Database-specific logger
	DB           database.Client    // Database connection pool
	RedisManager *redis.Manager     // Redis connection manager
	LogManager   *telemetry.Manager // Log management system
	shutdown     func(context.Context) error
	flushErrors  func(time.Duration) bool
}

// InitializeApp bootstraps all application dependencies in the correct order,
// ensuring each component has its required dependencies available.
func InitializeApp(ctx context.Context, serviceType telemetry.ServiceType, logDir string) (*App, error) {
	cfg, configDir, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	// Tracing must be configured before the loggers mirror errors into spans
	tracing := cfg.Common.Telemetry.DSN != ""
	shutdown := telemetry.InitTracing(&cfg.Common.Telemetry, serviceType.String(), Version)

	// Error reporting must be configured before the loggers pick up the Sentry hub
	flushErrors, err := telemetry.InitErrorReporting(&cfg.Common.Telemetry, serviceType.String(), Version)
	if err != nil {
		_ = shutdown(ctx)
		return nil, err
	}

	// Logging system is initialized next to capture setup issues
	logManager := telemetry.NewManager(ctx, serviceType, logDir, &cfg.Common.Debug, &cfg.Common.Loki, tracing)

	logger, dbLogger, err := logManager.GetLoggers()
	if err != nil {
		logManager.Stop()
		_ = shutdown(ctx)
		return nil, err
	}

	// Redis manager provides connection pools for various subsystems
	redisManager := redis.NewManager(&cfg.Common.Redis, logger)

	db, err := checkAndRunMigrations(ctx, &cfg.Common.PostgreSQL, dbLogger)
	if err != nil {
		redisManager.Close()
		logManager.Stop()
		_ = shutdown(ctx)
		return nil, err
	}

	logger.Info("Application initialized",
		zap.String("configDir", configDir),
		zap.String("sessionDir", logManager.GetCurrentSessionDir()),
		zap.Bool("tracing", tracing),
		zap.Bool("errorReporting", cfg.Common.Telemetry.SentryDSN != ""),
		zap.Bool("loki", cfg.Common.Loki.Enabled))

	return &App{
		Config:       cfg,
		ConfigDir:    configDir,
		Logger:       logger,
		DBLogger:     dbLogger.Named("database"),
		DB:           db,
		RedisManager: redisManager,
		LogManager:   logManager,
		shutdown:     shutdown,
		flushErrors:  flushErrors,
	}, nil
}

// Cleanup ensures graceful shutdown of all components in reverse initialization order.
// Logs but does not fail on cleanup errors to ensure all components get cleanup attempts.
func (s *App) Cleanup(ctx context.Context) {
	if err := s.DB.Close(); err != nil {
		log.Printf("Failed to close database connection: %v", err)
	}

	// Close Redis connections after the database as handlers may still be draining
	s.RedisManager.Close()

	// Flush pending spans
	if err := s.shutdown(ctx); err != nil {
		log.Printf("Failed to shutdown tracing: %v", err)
	}

	// Sync buffered logs last
	if err := s.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	if err := s.DBLogger.Sync(); err != nil {
		log.Printf("Failed to sync DB logger: %v", err)
	}

	// Ship the remaining log batches and error events
	s.LogManager.Stop()

	if !s.flushErrors(2 * time.Second) {
		log.Printf("Failed to flush error reports before timeout")
	}
}

// checkAndRunMigrations connects to the database and offers to apply pending migrations.
func checkAndRunMigrations(ctx context.Context, cfg *config.PostgreSQL, dbLogger *zap.Logger) (database.Client, error) {
	tempDB, err := database.NewConnection(ctx, cfg, dbLogger, false)
	if err != nil {
		return nil, err
	}

	unapplied, err := database.PendingMigrations(ctx, tempDB.DB())
	if err != nil {
		_ = tempDB.Close()
		return nil, fmt.Errorf("failed to check migration status: %w", err)
	}

	if len(unapplied) == 0 {
		return tempDB, nil
	}

	log.Printf("%d database migrations are pending. Would you like to run them now? (y/N)", len(unapplied))

	var response string

	_, _ = fmt.Scanln(&response)

	_ = tempDB.Close()

	if !strings.EqualFold(strings.TrimSpace(response), "y") {
		return nil, fmt.Errorf("%w: run `db migrate` first", ErrMigrationsPending)
	}

	return database.NewConnection(ctx, cfg, dbLogger, true)
}
