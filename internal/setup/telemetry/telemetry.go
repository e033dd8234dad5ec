package telemetry

import (
	"context"

	"github.com/rakshalabs/raksha/internal/setup/config"
	"github.com/uptrace/uptrace-go/uptrace"
)

// Configure wires the OpenTelemetry SDK to Uptrace when a DSN is configured.
// Returns whether telemetry was enabled.
func Configure(cfg *config.Telemetry, version string) bool {
	if cfg.UptraceDSN == "" {
		return false
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "raksha"
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(cfg.UptraceDSN),
		uptrace.WithServiceName(serviceName),
		uptrace.WithServiceVersion(version),
	)

	return true
}

// Shutdown flushes buffered telemetry. Safe to call when telemetry is disabled.
func Shutdown(ctx context.Context) error {
	return uptrace.Shutdown(ctx)
}
