// Package binliq provides a Go SDK for the binliq-server HTTP API.
//
// The client deliberately mirrors the wire format with its own request
// structs rather than importing server types, so external callers only need
// this package.
package binliq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client calls the binliq-server API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new binliq API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SimulationRequest mirrors the server's simulation parameters.
type SimulationRequest struct {
	InitialCapital    float64 `json:"initialCapital"`
	Strategy          string  `json:"strategy"`
	DurationDays      int     `json:"durationDays"`
	RebalanceCheckHrs int     `json:"rebalanceCheckHours"`
	RiskTolerance     string  `json:"riskTolerance"`
	PairID            string  `json:"pairId"`
	Seed              int64   `json:"seed,omitempty"`
}

// BacktestRequest names the candidates of one backtest.
type BacktestRequest struct {
	Runs      []BacktestRun `json:"runs"`
	Benchmark bool          `json:"benchmark"`
}

// BacktestRun is one named candidate configuration.
type BacktestRun struct {
	Name   string            `json:"name,omitempty"`
	Params SimulationRequest `json:"params"`
}

// OrderRequest is the body for placing a limit order. Amount and Price are
// decimal strings.
type OrderRequest struct {
	PairID    string     `json:"pairId"`
	Side      string     `json:"side"`
	Amount    string     `json:"amount"`
	Price     string     `json:"price"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// StopLossRequest is the body for placing a stop-loss order.
type StopLossRequest struct {
	PositionID   string `json:"positionId"`
	PairID       string `json:"pairId"`
	TriggerPrice string `json:"triggerPrice"`
	Amount       string `json:"amount"`
}

// apiError is the server's JSON error envelope.
type apiError struct {
	Error string `json:"error"`
}

// do issues one request and returns the raw JSON response body. Non-2xx
// responses come back as errors carrying the server's message.
func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 300 {
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("%s %s: %s (status %d)", method, path, apiErr.Error, resp.StatusCode)
		}
		return nil, fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	return json.RawMessage(data), nil
}

// Simulate runs one strategy simulation and returns the raw result document.
func (c *Client) Simulate(ctx context.Context, req SimulationRequest) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/api/simulate", req)
}

// Backtest compares several strategy configurations on a shared price path.
func (c *Client) Backtest(ctx context.Context, req BacktestRequest) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/api/backtest", req)
}

// GetDistribution generates a distribution. The signal parameter carries the
// strategy-specific input: trend signal for momentum, deviation for
// mean-reversion, volatility for volatility-adjusted; ignored otherwise.
func (c *Client) GetDistribution(ctx context.Context, strategy string, width int, signal float64) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/api/distribution?"+distributionQuery(strategy, width, signal), nil)
}

// GetDistributionMetrics generates a distribution and returns its aggregate
// statistics.
func (c *Client) GetDistributionMetrics(ctx context.Context, strategy string, width int, signal float64) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/api/distribution/metrics?"+distributionQuery(strategy, width, signal), nil)
}

func distributionQuery(strategy string, width int, signal float64) string {
	q := url.Values{}
	q.Set("strategy", strategy)
	q.Set("width", strconv.Itoa(width))
	if signal != 0 {
		q.Set("signal", strconv.FormatFloat(signal, 'f', -1, 64))
	}
	return q.Encode()
}

// CreateOrder places a limit order.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/api/orders", req)
}

// CancelOrder cancels a pending limit order by id.
func (c *Client) CancelOrder(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/orders/"+url.PathEscape(id), nil)
	return err
}

// CreateStopLoss places a stop-loss order.
func (c *Client) CreateStopLoss(ctx context.Context, req StopLossRequest) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/api/stoploss", req)
}

// CancelStopLoss cancels an active stop-loss order by id.
func (c *Client) CancelStopLoss(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/stoploss/"+url.PathEscape(id), nil)
	return err
}

// GetOrderBook returns the order book snapshot for a pair.
func (c *Client) GetOrderBook(ctx context.Context, pairID string) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("pair", pairID)
	return c.do(ctx, http.MethodGet, "/api/orderbook?"+q.Encode(), nil)
}

// GetOrderStatistics returns aggregate order counts and filled volume.
func (c *Client) GetOrderStatistics(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/api/orders/stats", nil)
}
