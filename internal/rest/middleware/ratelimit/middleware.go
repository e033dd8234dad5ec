// Package ratelimit enforces a per-client token bucket with escalating
// penalties: repeated violations earn a temporary block.
package ratelimit

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rakshalabs/raksha/internal/rest/middleware/ip"
	"github.com/rakshalabs/raksha/internal/setup/config"
	"github.com/rakshalabs/raksha/pkg/utils"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	errBlocked    = "temporarily blocked for repeated rate limit violations"
	errRateLimit  = "rate limit exceeded"
	headerRetryAt = "Retry-After"
)

type limiterState struct {
	mu           sync.Mutex
	limiter      *rate.Limiter
	strikes      int       // Number of times client has violated rate limit
	blockedUntil time.Time // Time until client is blocked for repeated violations
}

// Middleware implements rate limiting for API requests.
type Middleware struct {
	limiters *utils.TTLMap[string, *limiterState]
	config   *config.RateLimit
	logger   *zap.Logger
}

// New creates a new rate limiting middleware.
func New(config *config.RateLimit, logger *zap.Logger) *Middleware {
	// Use the longer of block duration or burst window * 2 for TTL
	ttl := time.Second * time.Duration(config.BurstSize*2)
	if blockTTL := time.Second * time.Duration(config.BlockDuration*2); blockTTL > ttl {
		ttl = blockTTL
	}

	return &Middleware{
		limiters: utils.NewTTLMap[string, *limiterState](ttl),
		config:   config,
		logger:   logger,
	}
}

// AsRESTMiddleware returns a bunrouter middleware handler for rate limiting.
func (m *Middleware) AsRESTMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		clientIP := ip.FromContext(req.Context())

		if allowed, retryAfter, msg := m.checkRateLimit(clientIP); !allowed {
			// Tell well-behaved clients when to come back
			if retryAfter > 0 {
				w.Header().Set(headerRetryAt, fmt.Sprintf("%.0f", retryAfter.Seconds()))
			}

			http.Error(w, msg, http.StatusTooManyRequests)

			return nil
		}

		return next(w, req)
	}
}

// getLimiter returns a rate limiter for the specified IP.
func (m *Middleware) getLimiter(clientIP string) *limiterState {
	if state, exists := m.limiters.Get(clientIP); exists {
		return state
	}

	state := &limiterState{
		limiter: rate.NewLimiter(rate.Limit(m.config.RequestsPerSecond), m.config.BurstSize),
	}
	m.limiters.Set(clientIP, state)

	return state
}

// handleStrikes checks if strikes exceed the limit and blocks if necessary.
// Called with the state lock held.
func (m *Middleware) handleStrikes(state *limiterState, clientIP string) (bool, time.Duration, string) {
	if state.strikes >= m.config.StrikeLimit {
		blockDuration := time.Duration(m.config.BlockDuration) * time.Second
		state.blockedUntil = time.Now().Add(blockDuration)
		state.strikes = 0 // Reset strikes

		m.logger.Debug("Client exceeded strike limit and is now blocked",
			zap.String("ip", clientIP),
			zap.Int("strikes", m.config.StrikeLimit),
			zap.Duration("block_duration", blockDuration))

		return false, blockDuration, errBlocked
	}

	return true, 0, ""
}

// checkBlocked checks if the client is currently blocked. Called with the
// state lock held.
func (m *Middleware) checkBlocked(state *limiterState, clientIP string) (bool, time.Duration, string) {
	if !state.blockedUntil.IsZero() && time.Now().Before(state.blockedUntil) {
		retryAfter := time.Until(state.blockedUntil).Round(time.Second)

		m.logger.Debug("Client is temporarily blocked",
			zap.String("ip", clientIP),
			zap.Duration("retry_after", retryAfter))

		return false, retryAfter, errBlocked
	}

	return true, 0, ""
}

// checkRateLimit checks if the request should be allowed and updates
// violation tracking.
func (m *Middleware) checkRateLimit(clientIP string) (bool, time.Duration, string) {
	state := m.getLimiter(clientIP)

	state.mu.Lock()
	defer state.mu.Unlock()

	// Check if client is blocked
	if allowed, retryAfter, msg := m.checkBlocked(state, clientIP); !allowed {
		return allowed, retryAfter, msg
	}

	// Try to reserve a token
	reservation := state.limiter.Reserve()
	if !reservation.OK() {
		state.strikes++

		// Check if we should block the client
		if allowed, retryAfter, msg := m.handleStrikes(state, clientIP); !allowed {
			return allowed, retryAfter, msg
		}

		m.logger.Debug("Rate limit exceeded",
			zap.String("ip", clientIP),
			zap.Int("strikes", state.strikes))

		return false, 0, errRateLimit
	}

	// Get delay for this reservation
	delay := reservation.Delay()
	if delay > 0 {
		state.strikes++
		reservation.Cancel()

		// Check if we should block the client
		if allowed, retryAfter, msg := m.handleStrikes(state, clientIP); !allowed {
			return allowed, retryAfter, msg
		}

		m.logger.Debug("Rate limit delay required",
			zap.String("ip", clientIP),
			zap.Duration("delay", delay),
			zap.Int("strikes", state.strikes))

		return false, delay, errRateLimit
	}

	// Reset strikes on successful request
	if state.strikes > 0 {
		state.strikes = 0
	}

	return true, 0, ""
}
