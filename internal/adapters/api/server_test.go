package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/optionsim/internal/adapters/api"
	"github.com/alejandrodnm/optionsim/internal/adapters/assets"
	"github.com/alejandrodnm/optionsim/internal/adapters/storage"
	"github.com/alejandrodnm/optionsim/internal/application/engine"
	"github.com/alejandrodnm/optionsim/internal/application/pricing"
)

type testSession struct{}

func (testSession) AccountID() string { return "test-device" }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	journal, err := storage.NewSQLiteJournal(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { journal.Close() })

	registry := assets.New(assets.Defaults())
	sim := pricing.New(pricing.Config{Seed: 1}, nil)
	eng := engine.New(engine.Config{InitialBalance: 8000}, sim, registry, journal, testSession{}, nil)

	srv := httptest.NewServer(api.NewServer(eng, sim, registry).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func postJSON(t *testing.T, url string, body any, out any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t)

	resp := getJSON(t, srv.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_OpenTradeAndBalance(t *testing.T) {
	srv := newTestServer(t)

	var opened map[string]any
	resp := postJSON(t, srv.URL+"/api/v1/trades", map[string]any{
		"asset":            "EUR/USD",
		"direction":        "CALL",
		"stake":            50,
		"duration_seconds": 3600,
	}, &opened)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "EUR/USD", opened["asset"])
	assert.Equal(t, "CALL", opened["direction"])
	assert.Equal(t, "OPEN", opened["status"])
	assert.NotEmpty(t, opened["id"])
	assert.Nil(t, opened["exit_price"])

	var account map[string]any
	resp = getJSON(t, srv.URL+"/api/v1/balance", &account)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "test-device", account["account_id"])
	assert.InDelta(t, 7950, account["balance"].(float64), 1e-9)

	var open []map[string]any
	resp = getJSON(t, srv.URL+"/api/v1/trades/open", &open)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, open, 1)
	assert.Greater(t, open[0]["current_price"].(float64), 0.0)
}

func TestServer_OpenTradeValidationErrors(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/trades", map[string]any{
		"asset": "EUR/USD", "direction": "SIDEWAYS", "stake": 50, "duration_seconds": 60,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/v1/trades", map[string]any{
		"asset": "NOPE/USD", "direction": "CALL", "stake": 50, "duration_seconds": 60,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/v1/trades", map[string]any{
		"asset": "EUR/USD", "direction": "CALL", "stake": 10000, "duration_seconds": 60,
	}, nil)
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
}

func TestServer_SettleBeforeExpiryConflicts(t *testing.T) {
	srv := newTestServer(t)

	var opened map[string]any
	resp := postJSON(t, srv.URL+"/api/v1/trades", map[string]any{
		"asset": "EUR/USD", "direction": "CALL", "stake": 50, "duration_seconds": 3600,
	}, &opened)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/v1/trades/"+opened["id"].(string)+"/settle", map[string]any{}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestServer_PriceEndpoint(t *testing.T) {
	srv := newTestServer(t)

	var tick map[string]any
	resp := getJSON(t, srv.URL+"/api/v1/prices/EURUSD", &tick)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "EUR/USD", tick["asset"]) // RIC resolves to the canonical name
	assert.Greater(t, tick["price"].(float64), 0.0)

	resp = getJSON(t, srv.URL+"/api/v1/prices/NOPE", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_StatsAndReset(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/trades", map[string]any{
		"asset": "GBP/USD", "direction": "PUT", "stake": 25, "duration_seconds": 3600,
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats map[string]any
	resp = getJSON(t, srv.URL+"/api/v1/stats", &stats)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.InDelta(t, 1, stats["trade_count"].(float64), 1e-9)
	assert.InDelta(t, 1, stats["open_count"].(float64), 1e-9)

	var account map[string]any
	resp = postJSON(t, srv.URL+"/api/v1/account/reset", map[string]any{"initial_balance": 5000}, &account)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.InDelta(t, 5000, account["balance"].(float64), 1e-9)

	resp = getJSON(t, srv.URL+"/api/v1/trades/history", &[]map[string]any{})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_HistoryLimitValidation(t *testing.T) {
	srv := newTestServer(t)

	resp := getJSON(t, srv.URL+"/api/v1/trades/history?limit=5x", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = getJSON(t, srv.URL+"/api/v1/trades/history?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = getJSON(t, srv.URL+"/api/v1/trades/history?limit=5", &[]map[string]any{})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_UnknownSettleID(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/trades/not-an-id/settle", map[string]any{}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
