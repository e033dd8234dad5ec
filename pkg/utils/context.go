package utils

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SleepResult represents the outcome of a context-aware sleep operation.
type SleepResult int

const (
	// SleepCompleted indicates the sleep duration completed normally.
	SleepCompleted SleepResult = iota
	// SleepCancelled indicates the context was cancelled during sleep.
	SleepCancelled
)

// ContextSleep sleeps for the specified duration while respecting context cancellation.
// Returns SleepCompleted if the full duration elapsed, SleepCancelled if context was cancelled.
func ContextSleep(ctx context.Context, duration time.Duration) SleepResult {
	select {
	case <-time.After(duration):
		return SleepCompleted
	case <-ctx.Done():
		return SleepCancelled
	}
}

// ContextSleepWithLog sleeps for the specified duration while respecting context cancellation,
// logging a message if the context is cancelled.
func ContextSleepWithLog(ctx context.Context, duration time.Duration, logger *zap.Logger, cancelMessage string) SleepResult {
	select {
	case <-time.After(duration):
		return SleepCompleted
	case <-ctx.Done():
		if logger != nil && cancelMessage != "" {
			logger.Info(cancelMessage)
		}

		return SleepCancelled
	}
}

// ContextGuard checks if the context is cancelled and returns true if so.
// This is useful at the beginning of loops or before starting long-running operations.
func ContextGuard(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// ErrorSleep sleeps for the specified duration when an error occurs, respecting context cancellation.
// Returns true if the worker should continue (sleep completed), false if it should stop (context cancelled).
func ErrorSleep(ctx context.Context, duration time.Duration, logger *zap.Logger, workerName string) bool {
	result := ContextSleepWithLog(ctx, duration, logger,
		"Context cancelled during error wait, stopping "+workerName)
	return result == SleepCompleted
}
