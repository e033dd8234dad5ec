// Package setup bootstraps the shared application dependencies: config,
// logging, telemetry, Postgres, redis, and the Gemini client.
package setup

import (
	"context"
	"log"

	"github.com/google/generative-ai-go/genai"
	"github.com/rakshalabs/raksha/internal/database"
	"github.com/rakshalabs/raksha/internal/redis"
	"github.com/rakshalabs/raksha/internal/setup/config"
	"github.com/rakshalabs/raksha/internal/setup/logging"
	"github.com/rakshalabs/raksha/internal/setup/telemetry"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/api/option"
)

// App bundles all core dependencies and services needed by the application.
// Each field represents a major subsystem that needs initialization and cleanup.
type App struct {
	Config       *config.Config  // Application configuration
	Logger       *zap.Logger     // Main application logger
	DBLogger     *zap.Logger     // Database-specific logger
	DB           database.Client // Database connection pool
	RedisManager *redis.Manager  // Redis connection manager
	StatusClient rueidis.Client  // Redis client for worker status reporting
	GenAIClient  *genai.Client   // Gemini API client

	telemetryEnabled bool
	pprofServer      *pprofServer
}

// InitializeApp bootstraps all application dependencies in the correct order,
// ensuring each component has its required dependencies available.
func InitializeApp(ctx context.Context, logDir string) (*App, error) {
	// Load app configuration
	cfg, _, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	// Telemetry must be configured before the loggers so the forwarding core
	// has an exporter to talk to
	telemetryEnabled := telemetry.Configure(&cfg.Telemetry, "raksha")

	var extraCores []zapcore.Core
	if telemetryEnabled {
		extraCores = append(extraCores, telemetry.NewCore(zapcore.ErrorLevel))
	}

	// Logging system is initialized next to capture setup issues
	logger, dbLogger, err := logging.Setup(logDir, cfg.Debug.LogLevel, cfg.Debug.MaxLogsToKeep, extraCores...)
	if err != nil {
		return nil, err
	}

	// Redis manager provides connection pools for the cache, OTP, and worker
	// status subsystems
	redisManager := redis.NewManager(&cfg.Redis, logger)

	statusClient, err := redisManager.GetClient(redis.WorkerStatusDBIndex)
	if err != nil {
		return nil, err
	}

	// Initialize database connection with migrations
	db, err := database.NewConnection(ctx, &cfg.PostgreSQL, dbLogger, true)
	if err != nil {
		logger.Error("Failed to connect to database", zap.Error(err))
		return nil, err
	}

	// Initialize Gemini client
	genAIClient, err := genai.NewClient(ctx, option.WithAPIKey(cfg.Gemini.APIKey))
	if err != nil {
		logger.Error("Failed to create Gemini client", zap.Error(err))
		return nil, err
	}

	// Start pprof server if enabled
	var pprofSrv *pprofServer

	if cfg.Debug.EnablePprof {
		srv, err := startPprofServer(cfg.Debug.PprofPort, logger)
		if err != nil {
			logger.Error("Failed to start pprof server", zap.Error(err))
		} else {
			pprofSrv = srv

			logger.Warn("pprof debugging endpoint enabled - this should not be used in production!")
		}
	}

	// Bundle all initialized components
	return &App{
		Config:           cfg,
		Logger:           logger,
		DBLogger:         dbLogger,
		DB:               db,
		RedisManager:     redisManager,
		StatusClient:     statusClient,
		GenAIClient:      genAIClient,
		telemetryEnabled: telemetryEnabled,
		pprofServer:      pprofSrv,
	}, nil
}

// Cleanup ensures graceful shutdown of all components in reverse initialization
// order. Logs but does not fail on cleanup errors to ensure all components get
// cleanup attempts.
func (s *App) Cleanup(ctx context.Context) {
	// Shutdown pprof server if running
	if s.pprofServer != nil {
		if err := s.pprofServer.srv.Shutdown(ctx); err != nil {
			s.Logger.Error("Failed to shutdown pprof server", zap.Error(err))
		}

		s.pprofServer.listener.Close()
	}

	// Close the Gemini client before the loggers that record its errors
	if err := s.GenAIClient.Close(); err != nil {
		s.Logger.Error("Failed to close Gemini client", zap.Error(err))
	}

	// Sync buffered logs before shutdown
	if err := s.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	if err := s.DBLogger.Sync(); err != nil {
		log.Printf("Failed to sync DB logger: %v", err)
	}

	// Flush telemetry spans
	if s.telemetryEnabled {
		if err := telemetry.Shutdown(ctx); err != nil {
			log.Printf("Failed to shutdown telemetry: %v", err)
		}
	}

	// Close database connections
	if err := s.DB.Close(); err != nil {
		log.Printf("Failed to close database connection: %v", err)
	}

	// Close Redis connections last as other components might need it during cleanup
	s.RedisManager.Close()
}
