// Package client builds the outbound HTTP client used for notification
// dispatch. The alert row is the durable artefact, so the chain carries a
// circuit breaker but no retry: a failed send is logged and dropped.
package client

import (
	"time"

	"github.com/bytedance/sonic"
	"github.com/jaxron/axonet/middleware/circuitbreaker"
	"github.com/jaxron/axonet/pkg/client"
	"github.com/rakshalabs/raksha/internal/setup/config"
	"go.uber.org/zap"
)

// New constructs an HTTP client with sonic serialization and a circuit
// breaker guarding the remote endpoint.
func New(cfg *config.CircuitBreaker, zapLogger *zap.Logger, timeout time.Duration) *client.Client {
	return client.NewClient(
		client.WithMarshalFunc(sonic.Marshal),
		client.WithUnmarshalFunc(sonic.Unmarshal),
		client.WithLogger(NewLogger(zapLogger)),
		client.WithTimeout(timeout),
		client.WithMiddleware(circuitbreaker.New(
			cfg.MaxFailures,
			time.Duration(cfg.FailureThreshold)*time.Millisecond,
			time.Duration(cfg.RecoveryTimeout)*time.Millisecond,
		)),
	)
}
