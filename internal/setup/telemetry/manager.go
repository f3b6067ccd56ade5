package telemetry

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/mythril-io/mythril/internal/setup/config"
	"github.com/mythril-io/mythril/internal/setup/telemetry/logger"
	"github.com/mythril-io/mythril/internal/setup/telemetry/loki"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceType represents the type of service being initialized.
type ServiceType int

const (
	ServiceAPI ServiceType = iota
	ServiceDB
)

// String returns the component name used in log directories and spans.
func (s ServiceType) String() string {
	switch s {
	case ServiceAPI:
		return "api"
	case ServiceDB:
		return "db"
	default:
		return "unknown"
	}
}

// Manager handles the creation and management of log files and directories.
// Every run writes into its own timestamped session directory.
type Manager struct {
	instanceID        string // Unique identifier for this program instance
	componentName     string // Component identifier for this instance
	currentSessionDir string // Path to the current session's log directory
	logDir            string // Base directory for all logs
	level             string // Logging level (debug, info, warn, error)
	maxLogsToKeep     int    // Maximum number of log sessions to retain
	maxLogLines       int    // Maximum number of lines to keep in each log file
	tracing           bool   // Whether error entries are mirrored into spans
	lokiPusher        *loki.Pusher
}

// NewManager creates a new Manager instance. Log shipping to Loki starts
// here when it is enabled and runs until Stop.
func NewManager(
	ctx context.Context, serviceType ServiceType, logDir string,
	debugCfg *config.Debug, lokiCfg *config.Loki, tracing bool,
) *Manager {
	manager := &Manager{
		instanceID:    uuid.New().String(),
		componentName: serviceType.String(),
		logDir:        logDir,
		level:         debugCfg.LogLevel,
		maxLogsToKeep: debugCfg.MaxLogsToKeep,
		maxLogLines:   debugCfg.MaxLogLines,
		tracing:       tracing,
	}

	if lokiCfg != nil && lokiCfg.Enabled && lokiCfg.URL != "" {
		labels := make(map[string]string, len(lokiCfg.Labels)+2)
		maps.Copy(labels, lokiCfg.Labels)
		labels["component"] = manager.componentName
		labels["instance_id"] = manager.instanceID

		cfg := *lokiCfg
		cfg.Labels = labels
		manager.lokiPusher = loki.NewPusher(ctx, cfg)
	}

	return manager
}

// Stop flushes shipped logs. It should be called on application shutdown.
func (lm *Manager) Stop() {
	if lm.lokiPusher != nil {
		lm.lokiPusher.Stop()
	}
}

// GetLoggers initializes the main and database loggers.
// Returns separate loggers for main application and database logging.
func (lm *Manager) GetLoggers() (*zap.Logger, *zap.Logger, error) {
	if err := lm.setupLogDirectories(); err != nil {
		return nil, nil, err
	}

	mainLogger, err := lm.initLogger(filepath.Join(lm.currentSessionDir, lm.componentName+".log"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize main logger: %w", err)
	}

	dbLogger, err := lm.initLogger(filepath.Join(lm.currentSessionDir, "database.log"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database logger: %w", err)
	}

	fields := []zap.Field{
		zap.String("component", lm.componentName),
		zap.String("instanceID", lm.instanceID),
	}

	return mainLogger.With(fields...), dbLogger.With(fields...), nil
}

// GetCurrentSessionDir returns the current session directory.
func (lm *Manager) GetCurrentSessionDir() string {
	return lm.currentSessionDir
}

// GetInstanceID returns the unique instance identifier for this program run.
func (lm *Manager) GetInstanceID() string {
	return lm.instanceID
}

// setupLogDirectories creates and manages the log directory structure.
// It ensures the base directory exists, rotates old logs, and creates a new session directory.
func (lm *Manager) setupLogDirectories() error {
	if err := os.MkdirAll(lm.logDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	if err := lm.rotateLogSessions(); err != nil {
		return fmt.Errorf("failed to rotate log sessions: %w", err)
	}

	sessionName := fmt.Sprintf("%s_%s", time.Now().Format("2006-01-02_15-04-05"), lm.instanceID[:8])

	lm.currentSessionDir = filepath.Join(lm.logDir, sessionName)
	if err := os.MkdirAll(lm.currentSessionDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	return nil
}

// initLogger creates a new zap logger writing to a line-capped file.
func (lm *Manager) initLogger(path string) (*zap.Logger, error) {
	zapLevel, err := zapcore.ParseLevel(lm.level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("cannot open log file %s: %w", path, err)
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.AddSync(logger.NewLogRotator(file, lm.maxLogLines, path)),
			zapLevel,
		),
	}

	if lm.tracing {
		cores = append(cores, NewCore(zapcore.ErrorLevel))
	}

	if lm.lokiPusher != nil {
		cores = append(cores, loki.NewCore(zapLevel, lm.lokiPusher))
	}

	if hub := sentry.CurrentHub(); hub.Client() != nil {
		cores = append(cores, NewSentryCore(zapcore.ErrorLevel, hub))
	}

	return zap.New(
		zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	), nil
}

// rotateLogSessions maintains the log directory by removing old sessions.
// Keeps only the most recent sessions based on maxLogsToKeep, counting the one about to start.
func (lm *Manager) rotateLogSessions() error {
	sessions, err := filepath.Glob(filepath.Join(lm.logDir, "*"))
	if err != nil {
		return err
	}

	keep := lm.maxLogsToKeep - 1
	if keep < 0 {
		keep = 0
	}
	if len(sessions) <= keep {
		return nil
	}

	type session struct {
		path    string
		modTime time.Time
	}

	infos := make([]session, 0, len(sessions))
	for _, path := range sessions {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		infos = append(infos, session{path: path, modTime: info.ModTime()})
	}

	// Oldest first
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].modTime.Before(infos[j].modTime)
	})

	for i := range len(infos) - keep {
		if err := os.RemoveAll(infos[i].path); err != nil {
			return err
		}
	}

	return nil
}
