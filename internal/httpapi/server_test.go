package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"binliq/internal/backtest"
	"binliq/internal/domain"
	"binliq/internal/market"
	"binliq/internal/orders"
	"binliq/internal/sim"
	"binliq/internal/store"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	provider := market.NewStaticProvider()
	provider.RegisterPair(domain.PairInfo{
		ID:          "SOL/USDC",
		BaseMint:    "So11111111111111111111111111111111111111112",
		QuoteMint:   "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		BinStepBps:  25,
		ActivePrice: 100,
		MinBinID:    -400,
		MaxBinID:    400,
	})

	engine := orders.NewEngine(provider, store.NewMemoryStore(), nil)
	simulator := sim.NewSimulator(provider, nil)
	comparator := backtest.NewComparator(simulator, nil)
	return NewServer(engine, simulator, comparator, nil).Handler()
}

func doJSON(t *testing.T, h http.Handler, method, path, body string, out any) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decoding %s %s response: %v", method, path, err)
		}
	}
	return rec
}

func TestDistributionEndpoint(t *testing.T) {
	h := newTestServer(t)

	var resp DistributionResponse
	rec := doJSON(t, h, "GET", "/api/distribution?strategy=centered&width=7", "", &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	if resp.TotalWeight != 10000 || !resp.Valid {
		t.Errorf("totalWeight = %d valid = %v, want 10000/true", resp.TotalWeight, resp.Valid)
	}
	if len(resp.Bins) != 7 {
		t.Errorf("bins = %d, want 7", len(resp.Bins))
	}

	if rec := doJSON(t, h, "GET", "/api/distribution?width=0", "", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("width=0 status = %d, want 400", rec.Code)
	}
	if rec := doJSON(t, h, "GET", "/api/distribution?strategy=martingale&width=5", "", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown strategy status = %d, want 400", rec.Code)
	}
	if rec := doJSON(t, h, "GET", "/api/distribution?strategy=single_sided&width=5", "", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("single_sided without side status = %d, want 400", rec.Code)
	}
}

func TestDistributionMetricsEndpoint(t *testing.T) {
	h := newTestServer(t)

	var resp DistributionMetricsResponse
	rec := doJSON(t, h, "GET", "/api/distribution/metrics?strategy=centered&width=7", "", &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	if resp.Metrics.ActiveBins != 7 {
		t.Errorf("activeBins = %d, want 7", resp.Metrics.ActiveBins)
	}

	// Width 1 puts all weight in one bin: skewness is undefined.
	rec = doJSON(t, h, "GET", "/api/distribution/metrics?strategy=centered&width=1", "", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("single-bin status = %d, want 422", rec.Code)
	}
}

func TestOrderLifecycleEndpoints(t *testing.T) {
	h := newTestServer(t)

	var created domain.LimitOrder
	rec := doJSON(t, h, "POST", "/api/orders",
		`{"pairId":"SOL/USDC","side":"buy","amount":"10","price":"95"}`, &created)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201: %s", rec.Code, rec.Body)
	}
	if created.ID == "" || created.Status != domain.LimitOrderPending {
		t.Fatalf("created order = %+v, want pending with id", created)
	}

	var book orders.BookSnapshot
	rec = doJSON(t, h, "GET", "/api/orderbook?pair=SOL/USDC", "", &book)
	if rec.Code != http.StatusOK {
		t.Fatalf("orderbook status = %d, want 200", rec.Code)
	}
	if len(book.Bids) != 1 {
		t.Errorf("bids = %d, want 1", len(book.Bids))
	}
	if rec := doJSON(t, h, "GET", "/api/orderbook", "", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("orderbook without pair status = %d, want 400", rec.Code)
	}

	var cancelled domain.LimitOrder
	rec = doJSON(t, h, "DELETE", "/api/orders/"+created.ID, "", &cancelled)
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel status = %d, want 200: %s", rec.Code, rec.Body)
	}
	if cancelled.Status != domain.LimitOrderCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}

	// Cancelling again is a lifecycle conflict; unknown ids are not found.
	if rec := doJSON(t, h, "DELETE", "/api/orders/"+created.ID, "", nil); rec.Code != http.StatusConflict {
		t.Errorf("double cancel status = %d, want 409", rec.Code)
	}
	if rec := doJSON(t, h, "DELETE", "/api/orders/nope", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown cancel status = %d, want 404", rec.Code)
	}
}

func TestEvaluateFillsEndpoint(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, "POST", "/api/orders",
		`{"pairId":"SOL/USDC","side":"buy","amount":"10","price":"95"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201: %s", rec.Code, rec.Body)
	}

	var changed []domain.LimitOrder
	rec = doJSON(t, h, "POST", "/api/orders/evaluate", `{"pairId":"SOL/USDC","price":"94"}`, &changed)
	if rec.Code != http.StatusOK {
		t.Fatalf("evaluate status = %d, want 200: %s", rec.Code, rec.Body)
	}
	if len(changed) != 1 || changed[0].Status != domain.LimitOrderFilled {
		t.Fatalf("changed = %+v, want one filled order", changed)
	}

	var stats orders.Statistics
	rec = doJSON(t, h, "GET", "/api/orders/stats", "", &stats)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d, want 200", rec.Code)
	}
	if stats.FilledLimit != 1 {
		t.Errorf("filledLimit = %d, want 1", stats.FilledLimit)
	}
}

func TestStopLossEndpoints(t *testing.T) {
	h := newTestServer(t)

	var created domain.StopLossOrder
	rec := doJSON(t, h, "POST", "/api/stoploss",
		`{"positionId":"pos-1","pairId":"SOL/USDC","triggerPrice":"90","amount":"5"}`, &created)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201: %s", rec.Code, rec.Body)
	}
	if created.Status != domain.StopLossActive {
		t.Fatalf("status = %s, want active", created.Status)
	}

	var cancelled domain.StopLossOrder
	rec = doJSON(t, h, "DELETE", "/api/stoploss/"+created.ID, "", &cancelled)
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel status = %d, want 200: %s", rec.Code, rec.Body)
	}
	if cancelled.Status != domain.StopLossCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}
}

func TestSimulateEndpoint(t *testing.T) {
	h := newTestServer(t)

	var res sim.Result
	rec := doJSON(t, h, "POST", "/api/simulate",
		`{"initialCapital":10000,"strategy":"passive","durationDays":30,"rebalanceCheckHours":24,"riskTolerance":"medium","pairId":"SOL/USDC","seed":1}`,
		&res)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	if len(res.Values) != 31 {
		t.Errorf("values = %d, want 31", len(res.Values))
	}

	rec = doJSON(t, h, "POST", "/api/simulate", `{"initialCapital":0}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid params status = %d, want 400", rec.Code)
	}
}

func TestBacktestEndpoint(t *testing.T) {
	h := newTestServer(t)

	var report backtest.Report
	rec := doJSON(t, h, "POST", "/api/backtest",
		`{"benchmark":true,"runs":[
			{"name":"A","params":{"initialCapital":10000,"strategy":"passive","durationDays":30,"rebalanceCheckHours":24,"riskTolerance":"medium","pairId":"SOL/USDC","seed":1}},
			{"name":"B","params":{"initialCapital":10000,"strategy":"active","durationDays":30,"rebalanceCheckHours":24,"riskTolerance":"medium","pairId":"SOL/USDC","seed":1}}
		]}`, &report)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	if report.Best == "" || report.Worst == "" {
		t.Errorf("report rankings empty: %+v", report)
	}
	if report.Benchmark == nil {
		t.Error("benchmark missing from report")
	}

	rec = doJSON(t, h, "POST", "/api/backtest", `{"runs":[]}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty runs status = %d, want 400", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t)
	req := httptest.NewRequest("OPTIONS", "/api/distribution", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS allow-origin header")
	}
}
