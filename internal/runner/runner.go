// Package runner drives active swaps forward. Each tick it loads the active
// swaps, invokes one state-machine action per swap, persists the resulting
// update, and publishes the transition on the signal bus. The swap core only
// ever takes a single step per invocation; the runner owns the cadence.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quaylabs/saleswap/internal/domain"
)

// Advancer is the single state-machine entry point the runner needs from the
// swap provider.
type Advancer interface {
	PerformNextAction(ctx context.Context, sw *domain.Swap) (*domain.SwapUpdate, error)
}

// TerminalNotifier is notified once when a swap reaches a terminal status.
type TerminalNotifier interface {
	SwapTerminal(ctx context.Context, sw domain.Swap) error
}

// Archiver moves terminal swaps older than a cutoff to cold storage.
type Archiver interface {
	ArchiveBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// Config holds the runner's loop parameters.
type Config struct {
	// PollInterval is how often active swaps are advanced.
	PollInterval time.Duration

	// Workers bounds how many swaps are advanced concurrently per tick.
	Workers int

	// EventChannel is the signal bus channel swap transitions are published
	// on.
	EventChannel string

	// ArchiveRetention is how long terminal swaps stay in the primary store
	// before archival. Zero disables archival.
	ArchiveRetention time.Duration
}

// Runner is the orchestration loop for active swaps.
type Runner struct {
	provider Advancer
	store    domain.SwapStore
	bus      domain.SignalBus
	notifier TerminalNotifier
	archiver Archiver
	cfg      Config
	logger   *slog.Logger
}

// New creates a Runner. notifier and archiver may be nil when those
// side effects are not configured.
func New(
	provider Advancer,
	store domain.SwapStore,
	bus domain.SignalBus,
	notifier TerminalNotifier,
	archiver Archiver,
	cfg Config,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		provider: provider,
		store:    store,
		bus:      bus,
		notifier: notifier,
		archiver: archiver,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run starts the advance loop and, when configured, the archival loop. It
// blocks until ctx is cancelled. A failed tick is logged and retried on the
// next interval; only context cancellation stops the runner.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("runner: starting",
		slog.Duration("poll_interval", r.cfg.PollInterval),
		slog.Int("workers", r.cfg.Workers),
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := r.advanceLoop(ctx)
		if ctx.Err() != nil {
			return nil // clean shutdown
		}
		return fmt.Errorf("runner: advance loop: %w", err)
	})

	if r.archiver != nil && r.cfg.ArchiveRetention > 0 {
		g.Go(func() error {
			err := r.archiveLoop(ctx)
			if ctx.Err() != nil {
				return nil // clean shutdown
			}
			return fmt.Errorf("runner: archive loop: %w", err)
		})
	}

	if err := g.Wait(); err != nil {
		r.logger.Error("runner: stopped with error", slog.String("error", err.Error()))
		return err
	}

	r.logger.Info("runner: stopped cleanly")
	return nil
}

// advanceLoop runs one tick immediately and then on every interval.
func (r *Runner) advanceLoop(ctx context.Context) error {
	r.tick(ctx)

	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

// tick advances every active swap by at most one action, bounded by the
// worker limit. Per-swap failures are logged and retried on the next tick.
func (r *Runner) tick(ctx context.Context) {
	swaps, err := r.store.ListActive(ctx)
	if err != nil {
		r.logger.Error("runner: list active swaps failed", slog.String("error", err.Error()))
		return
	}
	if len(swaps) == 0 {
		return
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)

	for i := range swaps {
		sw := swaps[i]
		g.Go(func() error {
			if err := r.advance(ctx, sw); err != nil {
				r.logger.Error("runner: advance swap failed",
					slog.String("swap_id", sw.ID),
					slog.String("status", string(sw.Status)),
					slog.String("error", err.Error()),
				)
			}
			// Never fail the group; the swap is retried next tick.
			return nil
		})
	}

	g.Wait()
}

// advance runs one state-machine action for the swap and persists the
// result. No update means nothing observable happened (e.g. the transaction
// is not confirmed yet).
func (r *Runner) advance(ctx context.Context, sw domain.Swap) error {
	upd, err := r.provider.PerformNextAction(ctx, &sw)
	if err != nil {
		return err
	}
	if upd == nil {
		return nil
	}

	if err := r.store.Save(ctx, sw.ID, *upd); err != nil {
		return fmt.Errorf("save update: %w", err)
	}
	upd.Apply(&sw)

	r.logger.Info("runner: swap advanced",
		slog.String("swap_id", sw.ID),
		slog.String("status", string(sw.Status)),
	)

	if upd.Status != "" {
		r.publishEvent(ctx, sw)
	}

	if sw.Status.Terminal() && r.notifier != nil {
		if err := r.notifier.SwapTerminal(ctx, sw); err != nil {
			r.logger.Warn("runner: terminal notification failed",
				slog.String("swap_id", sw.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	return nil
}

// publishEvent emits the persisted transition on the signal bus. Publishing
// is best effort; a bus failure never blocks the swap.
func (r *Runner) publishEvent(ctx context.Context, sw domain.Swap) {
	hash := sw.SwapTxHash
	if hash == "" {
		hash = sw.ApproveTxHash
	}

	payload, err := json.Marshal(domain.SwapEvent{
		SwapID: sw.ID,
		Status: sw.Status,
		TxHash: hash,
		At:     time.Now().UTC(),
	})
	if err != nil {
		return
	}

	if err := r.bus.Publish(ctx, r.cfg.EventChannel, payload); err != nil {
		r.logger.Warn("runner: publish swap event failed",
			slog.String("swap_id", sw.ID),
			slog.String("error", err.Error()),
		)
	}
}

// archiveLoop moves aged-out terminal swaps to cold storage once a day.
func (r *Runner) archiveLoop(ctx context.Context) error {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			cutoff := time.Now().UTC().Add(-r.cfg.ArchiveRetention)
			n, err := r.archiver.ArchiveBefore(ctx, cutoff)
			if err != nil {
				r.logger.Error("runner: archive failed", slog.String("error", err.Error()))
				continue
			}
			if n > 0 {
				r.logger.Info("runner: archived terminal swaps", slog.Int("count", n))
			}
		}
	}
}
