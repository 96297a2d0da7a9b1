// Package client wires the offline-first client together: local cache,
// remote source, connectivity monitor, orchestrator, and scheduler.
package client

import (
	"context"
	"database/sql"
	"os"

	"github.com/ddanilovs/campuslink/internal/client/cache"
	"github.com/ddanilovs/campuslink/internal/client/config"
	"github.com/ddanilovs/campuslink/internal/client/identity"
	"github.com/ddanilovs/campuslink/internal/client/netmon"
	"github.com/ddanilovs/campuslink/internal/client/remote"
	"github.com/ddanilovs/campuslink/internal/logging"
	"github.com/ddanilovs/campuslink/internal/models"
	"github.com/ddanilovs/campuslink/internal/syncx"
	"github.com/ddanilovs/campuslink/internal/syncx/scheduler"

	_ "modernc.org/sqlite"
)

// TokenEnvVar names the environment variable carrying the bearer token
// issued by the external auth provider.
const TokenEnvVar = "CAMPUSLINK_TOKEN"

type App struct {
	config       *config.Config
	logger       logging.Logger
	db           *sql.DB
	Cache        cache.Repository
	Remote       remote.Source
	Identity     *identity.TokenSource
	Monitor      *netmon.Monitor
	Orchestrator *syncx.Orchestrator
	Scheduler    *scheduler.Scheduler
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout)

	repo, db, err := cache.InitDatabase(ctx, c.DatabaseDSN)
	if err != nil {
		logger.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	tokens := identity.NewTokenSource(os.Getenv(TokenEnvVar))
	source := remote.NewHTTPSource(c.ServerURL, tokens)
	monitor := netmon.NewMonitor(source, c.OnlineCheckInterval, logger)

	orch := syncx.NewOrchestrator(repo, source, monitor, tokens, logger,
		syncx.WithTelemetry(syncx.NewLogSink(logger)))
	sched := scheduler.New(orch, c.SyncInterval, logger)

	return &App{
		config:       c,
		logger:       logger,
		db:           db,
		Cache:        repo,
		Remote:       source,
		Identity:     tokens,
		Monitor:      monitor,
		Orchestrator: orch,
		Scheduler:    sched,
	}, nil
}

// Run starts the connectivity monitor and the periodic sync loops for every
// collection, then blocks until ctx is done.
func (a *App) Run(ctx context.Context) {
	go a.Monitor.Run(ctx)

	for _, c := range models.Collections {
		a.Scheduler.Schedule(ctx, c)
	}

	<-ctx.Done()

	a.Scheduler.CancelAll()
	if err := a.db.Close(); err != nil {
		a.logger.Error(context.Background(), "db close error", "error", err)
	}
}
