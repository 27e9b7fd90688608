// Package httpapi exposes the liquidity, order, and simulation services over
// a JSON HTTP API.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"binliq/internal/backtest"
	"binliq/internal/domain"
	"binliq/internal/liquidity"
	"binliq/internal/orders"
	"binliq/internal/sim"
)

// Server serves the binliq HTTP API.
type Server struct {
	engine     *orders.Engine
	simulator  *sim.Simulator
	comparator *backtest.Comparator
	log        *slog.Logger
}

// NewServer creates a Server over the given services.
func NewServer(engine *orders.Engine, simulator *sim.Simulator, comparator *backtest.Comparator, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		engine:     engine,
		simulator:  simulator,
		comparator: comparator,
		log:        log.With("component", "httpapi"),
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/simulate", s.handleSimulate)
	mux.HandleFunc("POST /api/backtest", s.handleBacktest)
	mux.HandleFunc("GET /api/distribution", s.handleDistribution)
	mux.HandleFunc("GET /api/distribution/metrics", s.handleDistributionMetrics)
	mux.HandleFunc("POST /api/orders", s.handleCreateOrder)
	mux.HandleFunc("DELETE /api/orders/{id}", s.handleCancelOrder)
	mux.HandleFunc("POST /api/orders/evaluate", s.handleEvaluateFills)
	mux.HandleFunc("GET /api/orders/stats", s.handleOrderStats)
	mux.HandleFunc("POST /api/stoploss", s.handleCreateStopLoss)
	mux.HandleFunc("DELETE /api/stoploss/{id}", s.handleCancelStopLoss)
	mux.HandleFunc("GET /api/orderbook", s.handleOrderBook)
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrPairNotFound), errors.Is(err, domain.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, domain.ErrPriceOutOfRange),
		errors.Is(err, domain.ErrInsufficientData),
		errors.Is(err, domain.ErrZeroVariance):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// ---------------------------------------------------------------------------
// Simulation and backtest
// ---------------------------------------------------------------------------

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var params sim.Params
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := params.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.simulator.Run(r.Context(), params)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, res)
}

// BacktestRequest names the candidates of one backtest run.
type BacktestRequest struct {
	Runs      []backtest.Run `json:"runs"`
	Benchmark bool           `json:"benchmark"`
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	var req BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Runs) == 0 {
		writeError(w, http.StatusBadRequest, "at least one run required")
		return
	}

	report, err := s.comparator.Run(r.Context(), req.Runs, req.Benchmark)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, report)
}

// ---------------------------------------------------------------------------
// Distributions
// ---------------------------------------------------------------------------

// DistributionResponse carries one generated distribution.
type DistributionResponse struct {
	Strategy    string                 `json:"strategy"`
	Width       int                    `json:"width"`
	Bins        liquidity.Distribution `json:"bins"`
	TotalWeight int64                  `json:"totalWeight"`
	Valid       bool                   `json:"valid"`
}

// generateFromQuery builds a distribution from request query parameters:
// strategy (centered|single_sided|momentum|mean_reversion|volatility_adjusted),
// width, and the strategy-specific side or signal parameter.
func generateFromQuery(r *http.Request) (string, int, liquidity.Distribution, error) {
	q := r.URL.Query()

	strategy := q.Get("strategy")
	if strategy == "" {
		strategy = "centered"
	}
	width, err := strconv.Atoi(q.Get("width"))
	if err != nil || width < 1 {
		return "", 0, nil, fmt.Errorf("width must be a positive integer")
	}
	if profile := q.Get("profile"); profile != "" {
		width = liquidity.ClampWidth(liquidity.RiskProfile(profile), width)
	}
	signal, _ := strconv.ParseFloat(q.Get("signal"), 64)

	var dist liquidity.Distribution
	switch strategy {
	case "centered":
		dist = liquidity.Centered(width)
	case "single_sided":
		side := liquidity.Side(q.Get("side"))
		if side != liquidity.SideBase && side != liquidity.SideQuote {
			return "", 0, nil, fmt.Errorf("side must be base or quote")
		}
		dist = liquidity.SingleSided(side, width)
	case "momentum":
		dist = liquidity.Momentum(width, signal)
	case "mean_reversion":
		dist = liquidity.MeanReversion(width, signal)
	case "volatility_adjusted":
		dist = liquidity.VolatilityAdjusted(width, signal)
	default:
		return "", 0, nil, fmt.Errorf("unknown strategy %q", strategy)
	}
	return strategy, width, dist, nil
}

func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request) {
	strategy, width, dist, err := generateFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, DistributionResponse{
		Strategy:    strategy,
		Width:       width,
		Bins:        dist,
		TotalWeight: dist.Sum(),
		Valid:       liquidity.Validate(dist),
	})
}

// DistributionMetricsResponse pairs a generated distribution with its
// aggregate statistics.
type DistributionMetricsResponse struct {
	Strategy string            `json:"strategy"`
	Width    int               `json:"width"`
	Metrics  liquidity.Metrics `json:"metrics"`
}

func (s *Server) handleDistributionMetrics(w http.ResponseWriter, r *http.Request) {
	strategy, width, dist, err := generateFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	metrics, err := liquidity.ComputeMetrics(dist)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, DistributionMetricsResponse{
		Strategy: strategy,
		Width:    width,
		Metrics:  metrics,
	})
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// CreateOrderRequest is the body of POST /api/orders.
type CreateOrderRequest struct {
	PairID    string           `json:"pairId"`
	Side      domain.OrderSide `json:"side"`
	Amount    decimal.Decimal  `json:"amount"`
	Price     decimal.Decimal  `json:"price"`
	ExpiresAt *time.Time       `json:"expiresAt,omitempty"`
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var expiresAt time.Time
	if req.ExpiresAt != nil {
		expiresAt = *req.ExpiresAt
	}
	o, err := s.engine.CreateLimitOrder(r.Context(), req.PairID, req.Side, req.Amount, req.Price, expiresAt)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, o)
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	o, err := s.engine.CancelLimitOrder(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, o)
}

// EvaluateFillsRequest is the body of POST /api/orders/evaluate.
type EvaluateFillsRequest struct {
	PairID string          `json:"pairId"`
	Price  decimal.Decimal `json:"price"`
}

func (s *Server) handleEvaluateFills(w http.ResponseWriter, r *http.Request) {
	var req EvaluateFillsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	changed, err := s.engine.EvaluateFills(r.Context(), req.PairID, req.Price)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if changed == nil {
		changed = []domain.LimitOrder{}
	}
	writeJSON(w, changed)
}

func (s *Server) handleOrderStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.GetOrderStatistics(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, stats)
}

// CreateStopLossRequest is the body of POST /api/stoploss.
type CreateStopLossRequest struct {
	PositionID   string          `json:"positionId"`
	PairID       string          `json:"pairId"`
	TriggerPrice decimal.Decimal `json:"triggerPrice"`
	Amount       decimal.Decimal `json:"amount"`
}

func (s *Server) handleCreateStopLoss(w http.ResponseWriter, r *http.Request) {
	var req CreateStopLossRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := s.engine.CreateStopLossOrder(r.Context(), req.PositionID, req.PairID, req.TriggerPrice, req.Amount)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, o)
}

func (s *Server) handleCancelStopLoss(w http.ResponseWriter, r *http.Request) {
	o, err := s.engine.CancelStopLossOrder(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, o)
}

// handleOrderBook serves GET /api/orderbook?pair=SOL/USDC. The pair rides in
// a query parameter because pair identifiers contain slashes.
func (s *Server) handleOrderBook(w http.ResponseWriter, r *http.Request) {
	pairID := r.URL.Query().Get("pair")
	if pairID == "" {
		writeError(w, http.StatusBadRequest, "pair required")
		return
	}
	book, err := s.engine.GetOrderBook(r.Context(), pairID)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, book)
}
