package telemetry

import (
	"context"

	"github.com/mythril-io/mythril/internal/setup/config"
	"github.com/uptrace/uptrace-go/uptrace"
)

// InitTracing configures the OpenTelemetry pipeline to export to Uptrace.
// Returns a shutdown function that flushes pending spans. Tracing stays
// disabled and the shutdown function is a no-op when no DSN is configured.
func InitTracing(cfg *config.Telemetry, component, version string) func(context.Context) error {
	if cfg.DSN == "" {
		return func(context.Context) error { return nil }
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(cfg.DSN),
		uptrace.WithServiceName(cfg.ServiceName+"-"+component),
		uptrace.WithServiceVersion(version),
		uptrace.WithDeploymentEnvironment(cfg.Environment),
	)

	return uptrace.Shutdown
}
