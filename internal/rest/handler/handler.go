// Package handler implements the REST API endpoints. Every handler resolves
// the caller from the identity middleware, decodes and validates its input,
// and maps domain sentinel errors onto HTTP statuses through writeError.
package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/rakshalabs/raksha/internal/database/types"
	"github.com/rakshalabs/raksha/internal/rest/middleware/identity"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// writeError answers one request with the HTTP status its error maps to.
// Errors outside the sentinel taxonomy become an opaque 500 so internals
// never leak to clients.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) error {
	switch {
	case errors.Is(err, types.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, types.ErrUnauthenticated):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, types.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, types.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, types.ErrUnavailable):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		logger.Error("Request failed", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}

	return nil
}

// decodeBody parses a JSON request body, surfacing failures as validation
// errors.
func decodeBody(req bunrouter.Request, v any) error {
	if err := sonic.ConfigDefault.NewDecoder(req.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed JSON body", types.ErrValidation)
	}

	return nil
}

// callerID returns the user ID the identity middleware resolved.
func callerID(req bunrouter.Request) (int64, error) {
	id, ok := identity.FromContext(req.Context())
	if !ok {
		return 0, fmt.Errorf("%w: no caller identity", types.ErrUnauthenticated)
	}

	return id, nil
}

// paramInt64 parses a numeric path parameter.
func paramInt64(req bunrouter.Request, name string) (int64, error) {
	value, err := strconv.ParseInt(req.Param(name), 10, 64)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", types.ErrValidation, name)
	}

	return value, nil
}

// queryInt parses an optional integer query parameter.
func queryInt(req bunrouter.Request, name string, fallback int) (int, error) {
	raw := req.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", types.ErrValidation, name)
	}

	return value, nil
}
