package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/quaylabs/saleswap/internal/domain"
)

// TerminalSwapStore is the read surface the archiver needs from the swap
// store: terminal swaps that ended before a cutoff.
type TerminalSwapStore interface {
	ListTerminalBefore(ctx context.Context, cutoff time.Time) ([]domain.Swap, error)
}

// Archiver serializes terminal swap records to JSONL and uploads them for
// audit retention. Archived rows are NOT deleted from the primary store;
// pruning is a separate, explicit operation run after the archive has been
// verified.
type Archiver struct {
	writer *Writer
	swaps  TerminalSwapStore
	logger *slog.Logger
}

// NewArchiver creates an Archiver writing through the given Writer.
func NewArchiver(writer *Writer, swaps TerminalSwapStore, logger *slog.Logger) *Archiver {
	return &Archiver{
		writer: writer,
		swaps:  swaps,
		logger: logger.With(slog.String("component", "archiver")),
	}
}

// ArchiveBefore uploads all terminal swaps that ended before cutoff as one
// JSONL object keyed by the cutoff date. It returns the number of records
// archived; zero records uploads nothing.
func (a *Archiver) ArchiveBefore(ctx context.Context, cutoff time.Time) (int, error) {
	swaps, err := a.swaps.ListTerminalBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("s3blob: list terminal swaps: %w", err)
	}
	if len(swaps) == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, sw := range swaps {
		if err := enc.Encode(sw); err != nil {
			return 0, fmt.Errorf("s3blob: encode swap %s: %w", sw.ID, err)
		}
	}

	key := fmt.Sprintf("swaps/%s/terminal-%d.jsonl",
		cutoff.UTC().Format("2006-01-02"), cutoff.Unix())
	if err := a.writer.Put(ctx, key, &buf, "application/x-ndjson"); err != nil {
		return 0, err
	}

	a.logger.Info("archived terminal swaps",
		slog.Int("count", len(swaps)),
		slog.String("key", key),
	)
	return len(swaps), nil
}
