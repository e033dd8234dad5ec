package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Setup initializes the logging system for one process session.
// It creates a timestamped session directory under logDir, prunes sessions
// beyond maxLogsToKeep, and returns the main and database loggers.
// Extra cores (e.g. telemetry forwarders) are teed into both loggers.
func Setup(logDir string, level string, maxLogsToKeep int, extraCores ...zapcore.Core) (*zap.Logger, *zap.Logger, error) {
	// Create logs directory if it doesn't exist
	if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
		return nil, nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	// Rotate log sessions
	if err := rotateLogSessions(logDir, maxLogsToKeep); err != nil {
		return nil, nil, fmt.Errorf("failed to rotate log sessions: %w", err)
	}

	// Create a new session directory
	sessionDir := filepath.Join(logDir, time.Now().Format("2006-01-02_15-04-05"))
	if err := os.MkdirAll(sessionDir, os.ModePerm); err != nil {
		return nil, nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	// Initialize main logger
	mainLogger, err := initLogger(filepath.Join(sessionDir, "main.log"), level, extraCores)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize main logger: %w", err)
	}

	// Initialize database logger
	dbLogger, err := initLogger(filepath.Join(sessionDir, "database.log"), level, extraCores)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database logger: %w", err)
	}

	return mainLogger, dbLogger, nil
}

// WorkerLogger creates a logger writing to the latest session directory,
// used by workers spawned after the main process already set up logging.
func WorkerLogger(name string, logDir string, level string) *zap.Logger {
	zapLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		return zap.NewNop()
	}

	config := zap.NewDevelopmentConfig()
	config.OutputPaths = []string{
		filepath.Join(latestSessionDir(logDir), name+".log"),
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)

	logger, err := config.Build()
	if err != nil {
		return zap.NewNop()
	}

	return logger
}

// initLogger creates a new logger instance writing to logPath.
func initLogger(logPath string, level string, extraCores []zapcore.Core) (*zap.Logger, error) {
	zapLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	config := zap.NewDevelopmentConfig()
	config.OutputPaths = []string{logPath}
	config.Level = zap.NewAtomicLevelAt(zapLevel)

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if len(extraCores) > 0 {
		logger = logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(append([]zapcore.Core{core}, extraCores...)...)
		}))
	}

	return logger, nil
}

// rotateLogSessions keeps only the most recent log sessions.
func rotateLogSessions(logDir string, maxLogsToKeep int) error {
	sessions, err := filepath.Glob(filepath.Join(logDir, "*"))
	if err != nil {
		return err
	}

	if len(sessions) <= maxLogsToKeep {
		return nil
	}

	// Sort sessions by modification time (oldest first)
	sort.Slice(sessions, func(i, j int) bool {
		iInfo, _ := os.Stat(sessions[i])
		jInfo, _ := os.Stat(sessions[j])
		return iInfo.ModTime().Before(jInfo.ModTime())
	})

	// Remove oldest sessions
	for i := range len(sessions) - maxLogsToKeep {
		if err := os.RemoveAll(sessions[i]); err != nil {
			return err
		}
	}

	return nil
}

// latestSessionDir returns the path to the most recent session directory.
func latestSessionDir(logDir string) string {
	sessions, err := filepath.Glob(filepath.Join(logDir, "*"))
	if err != nil || len(sessions) == 0 {
		return logDir // Fallback to main log directory if we can't find sessions
	}

	// Sort sessions by modification time (newest first)
	sort.Slice(sessions, func(i, j int) bool {
		iInfo, _ := os.Stat(sessions[i])
		jInfo, _ := os.Stat(sessions[j])
		return iInfo.ModTime().After(jInfo.ModTime())
	})

	return sessions[0]
}
