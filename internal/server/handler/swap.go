package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quaylabs/saleswap/internal/domain"
	"github.com/quaylabs/saleswap/internal/swap"
)

// SwapProvider defines the methods the swap handler requires from the swap
// provider.
type SwapProvider interface {
	GetQuote(ctx context.Context, network string, from, to domain.Asset, amount decimal.Decimal) (*domain.Quote, error)
	NewSwap(ctx context.Context, quote domain.Quote, fromAccountID, toAccountID string) (domain.Swap, error)
	EstimateFees(ctx context.Context, accountID string, asset domain.Asset, txType swap.TxType, quote domain.Quote, feePrices []decimal.Decimal) (map[string]decimal.Decimal, error)
}

// SwapHandler serves swap-related HTTP endpoints for the single configured
// presale pair.
type SwapHandler struct {
	provider SwapProvider
	store    domain.SwapStore
	from     domain.Asset
	to       domain.Asset
	logger   *slog.Logger
}

// NewSwapHandler creates a SwapHandler for the given pair.
func NewSwapHandler(provider SwapProvider, store domain.SwapStore, from, to domain.Asset, logger *slog.Logger) *SwapHandler {
	return &SwapHandler{
		provider: provider,
		store:    store,
		from:     from,
		to:       to,
		logger:   logger,
	}
}

// swapView is a Swap decorated with its display metadata.
type swapView struct {
	domain.Swap
	Step   int    `json:"step"`
	Label  string `json:"label"`
	Filter string `json:"filter"`
}

func toView(s domain.Swap) swapView {
	v := swapView{Swap: s}
	if m, ok := domain.MetaFor(s.Status); ok {
		v.Step = m.Step
		v.Label = m.Label
		v.Filter = m.Filter
	}
	return v
}

// listSwapsResponse wraps the list swaps response.
type listSwapsResponse struct {
	Swaps []swapView `json:"swaps"`
}

// ListSwaps returns swaps, optionally restricted to a filter bucket.
// GET /api/swaps?filter=pending|completed|failed
func (h *SwapHandler) ListSwaps(w http.ResponseWriter, r *http.Request) {
	filter := strings.ToUpper(r.URL.Query().Get("filter"))

	var (
		swaps []domain.Swap
		err   error
	)
	switch filter {
	case "", domain.FilterPending:
		swaps, err = h.store.ListActive(r.Context())
	case domain.FilterCompleted, domain.FilterFailed:
		swaps, err = h.store.ListTerminalBefore(r.Context(), time.Now().UTC())
	default:
		writeError(w, http.StatusBadRequest, "unknown filter "+filter)
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list swaps failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list swaps")
		return
	}

	views := make([]swapView, 0, len(swaps))
	for _, s := range swaps {
		v := toView(s)
		if filter != "" && v.Filter != filter {
			continue
		}
		views = append(views, v)
	}

	writeJSON(w, http.StatusOK, listSwapsResponse{Swaps: views})
}

// GetSwap returns a single swap by its ID.
// GET /api/swaps/{id}
func (h *SwapHandler) GetSwap(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing swap id")
		return
	}

	s, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrSwapNotFound) {
			writeError(w, http.StatusNotFound, "swap not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get swap failed",
			slog.String("swap_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get swap")
		return
	}

	writeJSON(w, http.StatusOK, toView(s))
}

// quoteRequest is the JSON body for quote and fee requests. Amount is in the
// source asset's display units.
type quoteRequest struct {
	Amount string `json:"amount"`
}

// GetQuote prices a conversion for the configured pair.
// POST /api/quote
func (h *SwapHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount: "+req.Amount)
		return
	}

	quote, err := h.provider.GetQuote(r.Context(), h.from.ChainID, h.from, h.to, amount)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: quote failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to quote")
		return
	}
	if quote == nil {
		writeError(w, http.StatusNotFound, "no quote available for this pair and amount")
		return
	}

	writeJSON(w, http.StatusOK, quote)
}

// createSwapRequest is the JSON body for creating a swap.
type createSwapRequest struct {
	Amount        string `json:"amount"`
	FromAccountID string `json:"from_account_id"`
	ToAccountID   string `json:"to_account_id"`
}

// CreateSwap quotes the conversion, creates the swap record, runs the first
// state-machine action, and persists the result. The background runner
// advances it from there.
// POST /api/swaps
func (h *SwapHandler) CreateSwap(w http.ResponseWriter, r *http.Request) {
	var req createSwapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.FromAccountID == "" || req.ToAccountID == "" {
		writeError(w, http.StatusBadRequest, "from_account_id and to_account_id are required")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount: "+req.Amount)
		return
	}

	quote, err := h.provider.GetQuote(r.Context(), h.from.ChainID, h.from, h.to, amount)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: quote for swap failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to quote")
		return
	}
	if quote == nil {
		writeError(w, http.StatusUnprocessableEntity, "no quote available for this pair and amount")
		return
	}

	s, err := h.provider.NewSwap(r.Context(), *quote, req.FromAccountID, req.ToAccountID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: create swap failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to create swap")
		return
	}

	if err := h.store.Create(r.Context(), s); err != nil {
		h.logger.ErrorContext(r.Context(), "handler: persist swap failed",
			slog.String("swap_id", s.ID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to persist swap")
		return
	}

	writeJSON(w, http.StatusCreated, toView(s))
}

// estimateFeesRequest is the JSON body for fee estimation. GasPrices are
// gas price tiers in gwei.
type estimateFeesRequest struct {
	Amount    string   `json:"amount"`
	AccountID string   `json:"account_id"`
	GasPrices []string `json:"gas_prices"`
}

// EstimateFees returns the estimated network fee per gas price tier for a
// prospective swap of the configured pair.
// POST /api/fees
func (h *SwapHandler) EstimateFees(w http.ResponseWriter, r *http.Request) {
	var req estimateFeesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount: "+req.Amount)
		return
	}

	prices := make([]decimal.Decimal, 0, len(req.GasPrices))
	for _, p := range req.GasPrices {
		d, err := decimal.NewFromString(p)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid gas price: "+p)
			return
		}
		prices = append(prices, d)
	}

	quote, err := h.provider.GetQuote(r.Context(), h.from.ChainID, h.from, h.to, amount)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: quote for fees failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to quote")
		return
	}
	if quote == nil {
		writeError(w, http.StatusUnprocessableEntity, "no quote available for this pair and amount")
		return
	}

	fees, err := h.provider.EstimateFees(r.Context(), req.AccountID, h.from, swap.TxTypeSwap, *quote, prices)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedTxType) {
			writeError(w, http.StatusBadRequest, "unsupported transaction type")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: estimate fees failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to estimate fees")
		return
	}

	out := make(map[string]string, len(fees))
	for tier, fee := range fees {
		out[tier] = fee.String()
	}
	writeJSON(w, http.StatusOK, map[string]any{"fees": out})
}
