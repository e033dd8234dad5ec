// Package rest assembles the HTTP API: the middleware chain, the /v1 route
// group, and gzip compression around the whole router.
package rest

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
	"github.com/rakshalabs/raksha/internal/archive"
	"github.com/rakshalabs/raksha/internal/database"
	"github.com/rakshalabs/raksha/internal/detection"
	"github.com/rakshalabs/raksha/internal/guardian"
	"github.com/rakshalabs/raksha/internal/reputation"
	"github.com/rakshalabs/raksha/internal/rest/handler"
	"github.com/rakshalabs/raksha/internal/rest/middleware/identity"
	"github.com/rakshalabs/raksha/internal/rest/middleware/ip"
	"github.com/rakshalabs/raksha/internal/rest/middleware/ratelimit"
	"github.com/rakshalabs/raksha/internal/setup/config"
	"github.com/rakshalabs/raksha/internal/worker/core"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// ServerParams carries everything the REST surface serves.
type ServerParams struct {
	DB         database.Client
	Pipeline   *detection.Pipeline
	Reputation *reputation.Manager
	Guardians  *guardian.Service
	Archiver   *archive.Archiver
	Monitor    *core.Monitor
	Config     *config.API
	Logger     *zap.Logger
}

// Server bundles the route handlers behind one router.
type Server struct {
	scans      *handler.ScanHandler
	reputation *handler.ReputationHandler
	guardians  *handler.GuardianHandler
	users      *handler.UserHandler
	archive    *handler.ArchiveHandler
	status     *handler.StatusHandler
}

// NewServer wires the middleware chain and the /v1 route group into one
// gzip-wrapped handler. The identity check runs first so anonymous traffic
// never reaches the rate limiter's ledger; IP extraction precedes rate
// limiting because the limiter keys on client IP.
func NewServer(params *ServerParams) http.Handler {
	server := &Server{
		scans:      handler.NewScanHandler(params.Pipeline, params.DB, params.Logger),
		reputation: handler.NewReputationHandler(params.Reputation, params.DB, params.Logger),
		guardians:  handler.NewGuardianHandler(params.Guardians, params.DB, params.Logger),
		users:      handler.NewUserHandler(params.DB, params.Logger),
		archive:    handler.NewArchiveHandler(params.Archiver, params.Logger),
		status:     handler.NewStatusHandler(params.Monitor, params.Logger),
	}

	identityMiddleware := identity.New(params.Logger)
	ipMiddleware := ip.New(params.Logger, &params.Config.IP)
	rateLimiter := ratelimit.New(&params.Config.RateLimit, params.Logger)

	router := bunrouter.New()

	router.Use(
		identityMiddleware.AsRESTMiddleware,
		ipMiddleware.AsRESTMiddleware,
		rateLimiter.AsRESTMiddleware,
	).WithGroup("/v1", func(g *bunrouter.Group) {
		g.POST("/scans/analyze", server.scans.Analyze)
		g.POST("/scans/analyze/batch", server.scans.AnalyzeBatch)
		g.POST("/scans/analyze/image", server.scans.AnalyzeImage)
		g.GET("/scans", server.scans.List)
		g.GET("/scans/stats", server.scans.Stats)
		g.POST("/scans/:id/feedback", server.scans.Feedback)

		g.POST("/reputation/report", server.reputation.Report)
		g.GET("/reputation/check", server.reputation.Check)
		g.GET("/reputation/export", server.reputation.Export)

		g.POST("/guardians/otp", server.guardians.GenerateOTP)
		g.POST("/guardians/verify", server.guardians.VerifyOTP)
		g.GET("/guardians/links", server.guardians.ListGuardians)
		g.DELETE("/guardians/links/:id", server.guardians.RevokeLink)
		g.GET("/guardians/alerts", server.guardians.PendingAlerts)
		g.POST("/guardians/alerts/:id/seen", server.guardians.MarkSeen)
		g.POST("/guardians/alerts/:id/action", server.guardians.Action)

		g.GET("/users/me/settings", server.users.GetSettings)
		g.PUT("/users/me/settings", server.users.UpdateSettings)
		g.GET("/users/me/consent", server.users.GetConsent)
		g.PUT("/users/me/consent", server.users.UpdateConsent)
		g.GET("/users/me/senders", server.users.ListSenders)
		g.POST("/users/me/trusted-senders", server.users.AddTrustedSender)
		g.DELETE("/users/me/trusted-senders/:sender", server.users.RemoveTrustedSender)
		g.POST("/users/me/blocked-senders", server.users.AddBlockedSender)
		g.DELETE("/users/me/blocked-senders/:sender", server.users.RemoveBlockedSender)

		g.POST("/archive/run", server.archive.Run)
		g.GET("/status/workers", server.status.Workers)
	})

	// Liveness probe outside the middleware chain so load balancers need no
	// identity header.
	router.GET("/health", func(w http.ResponseWriter, req bunrouter.Request) error {
		return bunrouter.JSON(w, bunrouter.H{"status": "ok"})
	})

	return gzhttp.GzipHandler(router)
}
