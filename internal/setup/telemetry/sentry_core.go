package telemetry

import (
	"fmt"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/mythril-io/mythril/internal/setup/config"
	"go.uber.org/zap/zapcore"
)

// InitErrorReporting configures the global Sentry client.
// Returns a flush function for shutdown. Reporting stays disabled and the
// flush function is a no-op when no DSN is configured.
func InitErrorReporting(cfg *config.Telemetry, component, version string) (func(time.Duration) bool, error) {
	if cfg.SentryDSN == "" {
		return func(time.Duration) bool { return true }, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.SentryDSN,
		Environment: cfg.Environment,
		Release:     cfg.ServiceName + "@" + version,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sentry: %w", err)
	}

	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("component", component)
	})

	return sentry.Flush, nil
}

// SentryCore implements zapcore.Core to forward error entries to Sentry.
type SentryCore struct {
	zapcore.LevelEnabler
	hub    *sentry.Hub
	fields []zapcore.Field
}

// NewSentryCore creates a new core that reports entries to the hub.
func NewSentryCore(enab zapcore.LevelEnabler, hub *sentry.Hub) *SentryCore {
	return &SentryCore{LevelEnabler: enab, hub: hub}
}

// With adds structured context to the Core.
func (c *SentryCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = append(clone.fields[:len(clone.fields):len(clone.fields)], fields...)
	return &clone
}

// Check determines whether the supplied Entry should be logged.
func (c *SentryCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

// Write forwards error and fatal level entries to Sentry.
func (c *SentryCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	if ent.Level < zapcore.ErrorLevel || c.hub.Client() == nil {
		return nil
	}

	enc := zapcore.NewMapObjectEncoder()
	var errorValues []string
	for _, field := range append(c.fields[:len(c.fields):len(c.fields)], fields...) {
		if field.Type == zapcore.ErrorType {
			if err, ok := field.Interface.(error); ok {
				errorValues = append(errorValues, err.Error())
				continue
			}
		}
		field.AddTo(enc)
	}

	level := sentry.LevelError
	if ent.Level > zapcore.ErrorLevel {
		level = sentry.LevelFatal
	}

	var packagePath, funcName string
	if fn := ent.Caller.Function; fn != "" {
		if lastSlash := strings.LastIndexByte(fn, '/'); lastSlash > -1 {
			packagePath = fn[:lastSlash]
		}
		funcName = fn
		if lastDot := strings.LastIndexByte(fn, '.'); lastDot > -1 {
			funcName = fn[lastDot+1:]
		}
	}

	value := ent.Message
	if len(errorValues) > 0 {
		value = fmt.Sprintf("%s: %s", ent.Message, strings.Join(errorValues, "; "))
	}

	event := sentry.NewEvent()
	event.Level = level
	event.Logger = ent.LoggerName
	event.Message = ent.Message
	event.Extra = enc.Fields
	event.Exception = []sentry.Exception{{
		Value:      value,
		Type:       funcName,
		Module:     packagePath,
		Stacktrace: sentry.NewStacktrace(),
	}}

	c.hub.CaptureEvent(event)
	return nil
}

// Sync implements zapcore.Core.
func (c *SentryCore) Sync() error {
	return nil
}
