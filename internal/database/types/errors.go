package types

import "errors"

// Sentinel errors shared across the domain packages. REST handlers map these
// to HTTP statuses; everything else wraps them with fmt.Errorf and %w.
var (
	// ErrValidation marks rejected input (empty content, oversized body,
	// malformed enums).
	ErrValidation = errors.New("validation failed")
	// ErrUnauthenticated marks requests with no usable caller identity.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrNotFound marks lookups that matched nothing.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks writes rejected by an invariant (duplicate trusted
	// sender, guardian chain, reused OTP, terminal alert transition).
	ErrConflict = errors.New("conflict")
	// ErrUnavailable marks operations that cannot proceed because a required
	// dependency is down, such as the OTP store during linking.
	ErrUnavailable = errors.New("dependency unavailable")
)
