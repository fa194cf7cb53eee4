package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quaylabs/saleswap/internal/domain"
)

// SwapStore implements domain.SwapStore using PostgreSQL. Save writes the
// status transition and transaction hashes in a single UPDATE, so a crash
// cannot persist one without the other.
type SwapStore struct {
	pool *pgxpool.Pool
}

// NewSwapStore creates a SwapStore backed by the given connection pool.
func NewSwapStore(pool *pgxpool.Pool) *SwapStore {
	return &SwapStore{pool: pool}
}

// Create inserts a new swap record.
func (s *SwapStore) Create(ctx context.Context, sw domain.Swap) error {
	fromAsset, err := json.Marshal(sw.From)
	if err != nil {
		return fmt.Errorf("postgres: marshal from asset: %w", err)
	}
	toAsset, err := json.Marshal(sw.To)
	if err != nil {
		return fmt.Errorf("postgres: marshal to asset: %w", err)
	}
	approveTx, err := marshalTx(sw.ApproveTx)
	if err != nil {
		return err
	}
	swapTx, err := marshalTx(sw.SwapTx)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO swaps (
			id, status, from_asset, to_asset,
			from_account_id, to_account_id,
			from_amount, to_amount, fee, slippage_bps,
			approve_tx, approve_tx_hash, swap_tx, swap_tx_hash,
			end_time, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6,
			$7, $8, $9, $10,
			$11, $12, $13, $14,
			$15, $16, $17
		)`

	_, err = s.pool.Exec(ctx, query,
		sw.ID, string(sw.Status), fromAsset, toAsset,
		sw.FromAccountID, sw.ToAccountID,
		sw.FromAmount, sw.ToAmount, sw.Fee, sw.SlippageBps,
		approveTx, sw.ApproveTxHash, swapTx, sw.SwapTxHash,
		sw.EndTime, sw.CreatedAt, sw.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create swap %s: %w", sw.ID, err)
	}
	return nil
}

// Save merges a partial update into an existing swap. Unset update fields
// leave the stored values untouched.
func (s *SwapStore) Save(ctx context.Context, id string, upd domain.SwapUpdate) error {
	approveTx, err := marshalTx(upd.ApproveTx)
	if err != nil {
		return err
	}
	swapTx, err := marshalTx(upd.SwapTx)
	if err != nil {
		return err
	}

	const query = `
		UPDATE swaps SET
			status          = COALESCE(NULLIF($2, ''), status),
			approve_tx      = COALESCE($3, approve_tx),
			approve_tx_hash = COALESCE(NULLIF($4, ''), approve_tx_hash),
			swap_tx         = COALESCE($5, swap_tx),
			swap_tx_hash    = COALESCE(NULLIF($6, ''), swap_tx_hash),
			end_time        = COALESCE($7, end_time),
			updated_at      = NOW()
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query,
		id, string(upd.Status),
		approveTx, upd.ApproveTxHash,
		swapTx, upd.SwapTxHash,
		upd.EndTime,
	)
	if err != nil {
		return fmt.Errorf("postgres: save swap %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: save swap %s: %w", id, domain.ErrSwapNotFound)
	}
	return nil
}

// GetByID fetches one swap.
func (s *SwapStore) GetByID(ctx context.Context, id string) (domain.Swap, error) {
	row := s.pool.QueryRow(ctx, selectSwap+` WHERE id = $1`, id)
	sw, err := scanSwap(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Swap{}, fmt.Errorf("postgres: swap %s: %w", id, domain.ErrSwapNotFound)
	}
	return sw, err
}

// ListActive returns all swaps that have not reached a terminal status,
// oldest first.
func (s *SwapStore) ListActive(ctx context.Context) ([]domain.Swap, error) {
	rows, err := s.pool.Query(ctx,
		selectSwap+` WHERE status NOT IN ($1, $2) ORDER BY created_at`,
		string(domain.StatusSuccess), string(domain.StatusFailed),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list active swaps: %w", err)
	}
	defer rows.Close()
	return collectSwaps(rows)
}

// ListTerminalBefore returns terminal swaps that ended before cutoff.
func (s *SwapStore) ListTerminalBefore(ctx context.Context, cutoff time.Time) ([]domain.Swap, error) {
	rows, err := s.pool.Query(ctx,
		selectSwap+` WHERE status IN ($1, $2) AND end_time < $3 ORDER BY end_time`,
		string(domain.StatusSuccess), string(domain.StatusFailed), cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list terminal swaps: %w", err)
	}
	defer rows.Close()
	return collectSwaps(rows)
}

const selectSwap = `
	SELECT id, status, from_asset, to_asset,
	       from_account_id, to_account_id,
	       from_amount, to_amount, fee, slippage_bps,
	       approve_tx, approve_tx_hash, swap_tx, swap_tx_hash,
	       end_time, created_at, updated_at
	FROM swaps`

func scanSwap(row pgx.Row) (domain.Swap, error) {
	var (
		sw                 domain.Swap
		status             string
		fromAsset, toAsset []byte
		approveTx, swapTx  []byte
	)
	err := row.Scan(
		&sw.ID, &status, &fromAsset, &toAsset,
		&sw.FromAccountID, &sw.ToAccountID,
		&sw.FromAmount, &sw.ToAmount, &sw.Fee, &sw.SlippageBps,
		&approveTx, &sw.ApproveTxHash, &swapTx, &sw.SwapTxHash,
		&sw.EndTime, &sw.CreatedAt, &sw.UpdatedAt,
	)
	if err != nil {
		return domain.Swap{}, err
	}

	sw.Status = domain.SwapStatus(status)
	if err := json.Unmarshal(fromAsset, &sw.From); err != nil {
		return domain.Swap{}, fmt.Errorf("postgres: unmarshal from asset: %w", err)
	}
	if err := json.Unmarshal(toAsset, &sw.To); err != nil {
		return domain.Swap{}, fmt.Errorf("postgres: unmarshal to asset: %w", err)
	}
	if sw.ApproveTx, err = unmarshalTx(approveTx); err != nil {
		return domain.Swap{}, err
	}
	if sw.SwapTx, err = unmarshalTx(swapTx); err != nil {
		return domain.Swap{}, err
	}
	return sw, nil
}

func collectSwaps(rows pgx.Rows) ([]domain.Swap, error) {
	var out []domain.Swap
	for rows.Next() {
		sw, err := scanSwap(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan swap: %w", err)
		}
		out = append(out, sw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate swaps: %w", err)
	}
	return out, nil
}

func marshalTx(tx *domain.TxRequest) ([]byte, error) {
	if tx == nil {
		return nil, nil
	}
	data, err := json.Marshal(tx)
	if err != nil {
		return nil, fmt.Errorf("postgres: marshal tx: %w", err)
	}
	return data, nil
}

func unmarshalTx(data []byte) (*domain.TxRequest, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var tx domain.TxRequest
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, fmt.Errorf("postgres: unmarshal tx: %w", err)
	}
	return &tx, nil
}

var _ domain.SwapStore = (*SwapStore)(nil)
