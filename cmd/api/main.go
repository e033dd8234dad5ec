package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rakshalabs/raksha/internal/ai"
	"github.com/rakshalabs/raksha/internal/archive"
	"github.com/rakshalabs/raksha/internal/detection"
	"github.com/rakshalabs/raksha/internal/detection/patterns"
	"github.com/rakshalabs/raksha/internal/guardian"
	"github.com/rakshalabs/raksha/internal/notify"
	"github.com/rakshalabs/raksha/internal/redis"
	"github.com/rakshalabs/raksha/internal/reputation"
	"github.com/rakshalabs/raksha/internal/rest"
	"github.com/rakshalabs/raksha/internal/setup"
	"github.com/rakshalabs/raksha/internal/setup/client"
	"github.com/rakshalabs/raksha/internal/worker/core"
	"go.uber.org/zap"
)

// APILogDir specifies where API server log files are stored.
const APILogDir = "logs/api_logs"

// Server timeouts. WriteTimeout leaves room for a full pipeline run with a
// slow remote model.
const (
	ReadTimeout     = 5 * time.Second
	WriteTimeout    = 60 * time.Second
	ShutdownTimeout = 30 * time.Second

	// notifyHTTPTimeout bounds one Telegram Bot API call.
	notifyHTTPTimeout = 10 * time.Second
)

func main() {
	// Initialize application with required dependencies
	app, err := setup.InitializeApp(context.Background(), APILogDir)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer app.Cleanup(context.Background())

	handler, err := buildHandler(app)
	if err != nil {
		app.Logger.Fatal("Failed to build API server", zap.Error(err))
	}

	// Get server address from config
	addr := fmt.Sprintf("%s:%d", app.Config.API.Server.Host, app.Config.API.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("API server started on %s", addr)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.Logger.Error("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	app.Logger.Info("Shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(ctx); err != nil {
		app.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	app.Logger.Info("Server gracefully stopped")
}

// buildHandler wires the domain services behind the REST surface: the
// reputation manager with its cache, the guardian service with its OTP store
// and notifier, the detection pipeline, the archiver, and the worker status
// monitor.
func buildHandler(app *setup.App) (http.Handler, error) {
	cacheClient, err := app.RedisManager.GetClient(redis.CacheDBIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	otpClient, err := app.RedisManager.GetClient(redis.OTPDBIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to open OTP database: %w", err)
	}

	reputationManager := reputation.NewManager(app.DB.Model().Blacklist(), cacheClient, app.Logger)

	notifier := notify.NewTelegram(
		app.Config.Telegram.BotToken,
		client.New(&app.Config.CircuitBreaker, app.Logger, notifyHTTPTimeout),
		app.Logger,
	)

	guardianService := guardian.NewService(
		app.DB.Model().Guardian(),
		app.DB.Model().User(),
		otpClient,
		notifier,
		time.Duration(app.Config.Detection.NotificationTimeoutMillis)*time.Millisecond,
		app.Logger,
	)

	pipelineParams := detection.PipelineParams{
		Matcher:    patterns.NewMatcher(),
		Senders:    app.DB.Model().Sender(),
		Scans:      app.DB.Model().Scan(),
		Users:      app.DB.Model().User(),
		Reputation: reputationManager,
		Remote:     ai.NewTextAnalyzer(app, app.Logger),
		Vision:     ai.NewImageAnalyzer(app, app.Logger),
		Alerter:    guardianService,
		Config:     &app.Config.Detection,
		Logger:     app.Logger,
	}

	if app.Config.Detection.LocalModelEnabled {
		pipelineParams.Local = detection.NewOllamaModel(
			app.Config.Detection.LocalModelURL,
			app.Config.Detection.LocalModelName,
			time.Duration(app.Config.Detection.LocalTimeoutSeconds)*time.Second,
			app.Logger,
		)
	}

	provider, err := archive.NewProvider(&app.Config.Archive, app.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive storage provider: %w", err)
	}

	return rest.NewServer(&rest.ServerParams{
		DB:         app.DB,
		Pipeline:   detection.NewPipeline(pipelineParams),
		Reputation: reputationManager,
		Guardians:  guardianService,
		Archiver:   archive.New(app.DB.Model().Scan(), provider, app.Logger),
		Monitor:    core.NewMonitor(app.StatusClient, app.Logger),
		Config:     &app.Config.API,
		Logger:     app.Logger,
	}), nil
}
