package statusapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/polyclob/clob/types"
	"github.com/betbot/polyclob/internal/ledger"
	"github.com/betbot/polyclob/internal/marketstate"
	"github.com/betbot/polyclob/internal/metrics"
	"github.com/betbot/polyclob/internal/scheduler"
	"github.com/betbot/polyclob/internal/stream"
)

type staticStatus struct{ st scheduler.Status }

func (s staticStatus) Status() scheduler.Status { return s.st }

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleStatus() scheduler.Status {
	return scheduler.Status{
		Strategy:      "idle",
		Running:       true,
		StreamState:   stream.StateLive,
		Subscriptions: []string{"a1"},
		Quotes: []scheduler.Quote{{
			AssetID: "a1", BestBid: d("0.40"), BestAsk: d("0.42"), Mid: d("0.41"), HasBid: true, HasAsk: true,
		}},
		Positions: []scheduler.PositionView{{
			Position:      ledger.Position{ID: "p1", AssetID: "a1", Side: types.SideBuy, Entry: d("0.45"), Size: d("10")},
			Mid:           d("0.41"),
			UnrealizedPnl: d("-0.4"),
		}},
		RealizedPnl: d("1.5"),
		InFlight:    2,
		LastError:   "post_order: remote_rejection: HTTP 400",
	}
}

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestStatusJSON(t *testing.T) {
	srv, err := New(Config{}, staticStatus{sampleStatus()}, nil)
	require.NoError(t, err)

	rec, body := get(t, srv.Router(), "/status")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "live", body["stream_state"])
	assert.Equal(t, []any{"a1"}, body["subscriptions"])
	assert.Equal(t, "1.5", body["realized_pnl"])
	assert.Equal(t, float64(2), body["in_flight"])
	assert.Equal(t, "post_order: remote_rejection: HTTP 400", body["last_error"])

	quotes := body["quotes"].([]any)
	require.Len(t, quotes, 1)
	q := quotes[0].(map[string]any)
	assert.Equal(t, "0.41", q["mid"])
	assert.Equal(t, "0.4", q["best_bid"])

	positions := body["positions"].([]any)
	require.Len(t, positions, 1)
	p := positions[0].(map[string]any)
	assert.Equal(t, "p1", p["id"])
	assert.Equal(t, "0.45", p["entry_price"])
	assert.Equal(t, "-0.4", p["unrealized_pnl"])
}

func TestHealthz(t *testing.T) {
	srv, err := New(Config{}, staticStatus{sampleStatus()}, nil)
	require.NoError(t, err)
	rec, body := get(t, srv.Router(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	halted := sampleStatus()
	halted.Halted = true
	srv, err = New(Config{}, staticStatus{halted}, nil)
	require.NoError(t, err)
	rec, body = get(t, srv.Router(), "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "halted", body["status"])
}

func TestBookEndpoint(t *testing.T) {
	store := marketstate.NewStore()
	_, err := store.ApplySnapshot("a1",
		[]marketstate.Level{{Price: d("0.40"), Size: d("10")}},
		[]marketstate.Level{{Price: d("0.42"), Size: d("5")}},
		marketstate.Meta{Market: "m1"})
	require.NoError(t, err)

	srv, err := New(Config{}, staticStatus{sampleStatus()}, store)
	require.NoError(t, err)

	rec, body := get(t, srv.Router(), "/books/a1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "m1", body["market"])
	bids := body["bids"].([]any)
	require.Len(t, bids, 1)
	assert.Equal(t, "0.4", bids[0].(map[string]any)["price"])

	rec, _ = get(t, srv.Router(), "/books/unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewRequiresStatusSource(t *testing.T) {
	_, err := New(Config{}, nil, nil)
	assert.Error(t, err)
}

func TestDebugVars(t *testing.T) {
	srv, err := New(Config{}, staticStatus{sampleStatus()}, nil)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/vars", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	srv, err = New(Config{Debug: true}, staticStatus{sampleStatus()}, nil)
	require.NoError(t, err)
	metrics.OrdersSubmitted.Add(1)
	rec, body := get(t, srv.Router(), "/debug/vars")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "orders_submitted")
	assert.Contains(t, body, "reconcile_runs")
}
