package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quaylabs/saleswap/internal/cache/redis"
	"github.com/quaylabs/saleswap/internal/runner"
	"github.com/quaylabs/saleswap/internal/server"
	"github.com/quaylabs/saleswap/internal/server/handler"
	"github.com/quaylabs/saleswap/internal/server/ws"
)

// RunMode runs only the background orchestration loop that advances active
// swaps. Used for headless deployments where the API is hosted elsewhere.
func (a *App) RunMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting run mode")
	return a.buildRunner(deps).Run(ctx)
}

// ServerMode runs only the HTTP + WebSocket API. Swaps created through the
// API stay queued until a runner instance advances them.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")
	return a.runServer(ctx, deps)
}

// FullMode runs the orchestration loop and the API in one process.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.buildRunner(deps).Run(ctx)
	})
	g.Go(func() error {
		return a.runServer(ctx, deps)
	})

	return g.Wait()
}

// buildRunner assembles the orchestration loop from wired dependencies.
func (a *App) buildRunner(deps *Dependencies) *runner.Runner {
	// A typed nil *Archiver must not become a non-nil interface value.
	var archiver runner.Archiver
	retention := time.Duration(0)
	if deps.Archiver != nil && a.cfg.S3.RetentionDays > 0 {
		archiver = deps.Archiver
		retention = time.Duration(a.cfg.S3.RetentionDays) * 24 * time.Hour
	}

	return runner.New(
		deps.Provider,
		deps.SwapStore,
		deps.SignalBus,
		deps.Notifier,
		archiver,
		runner.Config{
			PollInterval:     a.cfg.Runner.PollInterval.Duration,
			Workers:          a.cfg.Runner.Workers,
			EventChannel:     redis.ChannelSwaps,
			ArchiveRetention: retention,
		},
		a.logger,
	)
}

// runServer starts the HTTP + WebSocket API and blocks until ctx is
// cancelled or the server fails.
func (a *App) runServer(ctx context.Context, deps *Dependencies) error {
	if !a.cfg.Server.Enabled {
		a.logger.Warn("server disabled by configuration, idling")
		<-ctx.Done()
		return nil
	}

	hub := ws.NewHub(deps.SignalBus, a.logger, ws.Config{
		Mode:      a.cfg.Mode,
		StartedAt: time.Now().UTC(),
	})

	srv := server.NewServer(
		server.Config{
			Port:        a.cfg.Server.Port,
			CORSOrigins: a.cfg.Server.CORSOrigins,
			APIKey:      a.cfg.Server.APIKey,
		},
		server.Handlers{
			Health: handler.NewHealthHandler(a.logger),
			Swaps: handler.NewSwapHandler(
				deps.Provider,
				deps.SwapStore,
				deps.Pair.From,
				deps.Pair.To,
				a.logger,
			),
		},
		hub,
		a.logger,
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := hub.Run(ctx)
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("app: ws hub: %w", err)
	})

	g.Go(func() error {
		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Error("server shutdown failed", slog.String("error", err.Error()))
			}
			return nil
		case err := <-errCh:
			return err
		}
	})

	return g.Wait()
}
