// Package identity resolves the calling user from the X-User-ID header.
// Authentication happens upstream; by the time a request reaches this server
// the header carries a verified user ID.
package identity

import (
	"context"
	"net/http"
	"strconv"

	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// Header carries the pre-resolved user ID.
const Header = "X-User-ID"

type userIDCtxKey struct{}

// FromContext retrieves the calling user's ID from the context. The second
// return is false outside the middleware chain.
func FromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDCtxKey{}).(int64)
	return id, ok
}

// Middleware extracts and validates the user identity header.
type Middleware struct {
	logger *zap.Logger
}

// New creates a new identity middleware.
func New(logger *zap.Logger) *Middleware {
	return &Middleware{
		logger: logger,
	}
}

// AsRESTMiddleware returns a bunrouter middleware handler that stores the
// caller's user ID in the request context. Requests without a usable header
// are rejected with 401.
func (m *Middleware) AsRESTMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		raw := req.Header.Get(Header)
		if raw == "" {
			http.Error(w, "Missing "+Header+" header", http.StatusUnauthorized)
			return nil
		}

		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || userID <= 0 {
			m.logger.Debug("Rejected malformed identity header", zap.String("value", raw))
			http.Error(w, "Invalid "+Header+" header", http.StatusUnauthorized)

			return nil
		}

		ctx := context.WithValue(req.Context(), userIDCtxKey{}, userID)

		return next(w, req.WithContext(ctx))
	}
}
