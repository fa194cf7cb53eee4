// Package notify surfaces terminal swap outcomes to operators. Messages fan
// out to every configured sender (Telegram, Discord) and can be filtered by
// swap status so operators only receive the outcomes they care about.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/quaylabs/saleswap/internal/domain"
)

// Sender is one delivery channel.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name identifies the sender in logs (e.g. "telegram").
	Name() string
}

// Notifier dispatches swap notifications to one or more Senders. Only
// statuses in the allowed set are forwarded; an empty set allows all.
type Notifier struct {
	senders  []Sender
	statuses map[domain.SwapStatus]bool
	logger   *slog.Logger
}

// NewNotifier creates a Notifier delivering to senders for the given
// statuses. An empty statuses slice allows every status.
func NewNotifier(senders []Sender, statuses []domain.SwapStatus, logger *slog.Logger) *Notifier {
	allowed := make(map[domain.SwapStatus]bool, len(statuses))
	for _, s := range statuses {
		allowed[s] = true
	}
	return &Notifier{
		senders:  senders,
		statuses: allowed,
		logger:   logger.With(slog.String("component", "notifier")),
	}
}

// SwapTerminal announces a swap that reached SUCCESS or FAILED. Non-terminal
// statuses and filtered statuses are dropped silently.
func (n *Notifier) SwapTerminal(ctx context.Context, sw domain.Swap) error {
	if !sw.Status.Terminal() {
		return nil
	}
	if len(n.statuses) > 0 && !n.statuses[sw.Status] {
		n.logger.DebugContext(ctx, "status filtered out",
			slog.String("status", string(sw.Status)),
		)
		return nil
	}

	shortID := sw.ID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}
	title := fmt.Sprintf("Swap %s: %s", shortID, strings.ToLower(string(sw.Status)))
	if meta, ok := domain.MetaFor(sw.Status); ok {
		title = fmt.Sprintf("Swap %s: %s", shortID, meta.Label)
	}
	message := fmt.Sprintf("%s %s -> %s %s (tx %s)",
		sw.FromAmount, sw.From.Code, sw.ToAmount, sw.To.Code, sw.SwapTxHash)

	return n.dispatch(ctx, title, message)
}

// dispatch sends to every sender; one sender failing does not stop the
// rest. Failures are combined into a single error.
func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
			continue
		}
		n.logger.DebugContext(ctx, "notification sent",
			slog.String("sender", s.Name()),
			slog.String("title", title),
		)
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}
