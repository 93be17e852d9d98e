package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"cosmossdk.io/log"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/share-vault/api/types"
)

func newTestServer(t *testing.T, cfg *Config) (*httptest.Server, *Sandbox) {
	t.Helper()
	sandbox := newTestSandbox(t)
	server := NewServer(cfg, sandbox, sandbox, log.NewNopLogger())
	sandbox.SetPublisher(server.Hub())

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(func() {
		ts.Close()
		server.rateLimiter.Stop()
	})
	return ts, sandbox
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	bz, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(bz))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestServer_Health(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	var body map[string]interface{}
	decodeBody(t, resp, &body)
	require.Equal(t, "healthy", body["status"])
	require.Equal(t, ModeSandbox, body["mode"])
}

func TestServer_Preflight(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/v1/strategy/deposit", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_DepositFlow(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp := postJSON(t, ts.URL+"/v1/faucet", types.FaucetRequest{Address: alice, Amount: "5000000000"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/v1/strategy/deposit", types.DepositRequest{Staker: alice, Amount: "2000000000"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var dep types.DepositResponse
	decodeBody(t, resp, &dep)
	require.Equal(t, "2000000000", dep.Shares)

	resp, err := http.Get(ts.URL + "/v1/strategy")
	require.NoError(t, err)
	var state types.PoolState
	decodeBody(t, resp, &state)
	require.Equal(t, "2000000000", state.TotalShares)
	require.Equal(t, "2000000000", state.Balance)

	resp, err = http.Get(ts.URL + "/v1/strategy/users/" + alice)
	require.NoError(t, err)
	var pos types.UserPosition
	decodeBody(t, resp, &pos)
	require.Equal(t, "2000000000", pos.Shares)

	resp, err = http.Get(ts.URL + "/v1/strategy/convert/shares/1000000000")
	require.NoError(t, err)
	var conv types.Conversion
	decodeBody(t, resp, &conv)
	require.Equal(t, "1000000000", conv.Output)
}

func TestServer_ErrorStatus(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp := postJSON(t, ts.URL+"/v1/faucet", types.FaucetRequest{Address: alice, Amount: "5000000000"})
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/v1/strategy/deposit", types.DepositRequest{Staker: alice, Amount: "5"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var errResp types.ErrorResponse
	decodeBody(t, resp, &errResp)
	require.Equal(t, "strategy", errResp.Codespace)

	resp = postJSON(t, ts.URL+"/v1/pauser/0/pause", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/v1/strategy/deposit", types.DepositRequest{Staker: alice, Amount: "2000000000"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/v1/pauser/x/pause", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/v1/strategy/withdraw", types.WithdrawRequest{Staker: bob, Shares: "1"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()
}

func TestServer_ReadOnlyHasNoWriteRoutes(t *testing.T) {
	sandbox := newTestSandbox(t)
	server := NewServer(nil, sandbox, nil, log.NewNopLogger())
	t.Cleanup(server.rateLimiter.Stop)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/v1/strategy/deposit", types.DepositRequest{Staker: alice, Amount: "1"})
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err := http.Get(ts.URL + "/v1/strategy")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_RateLimitsWrites(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimit.WritesPerSecond = 0.001
	cfg.RateLimit.WriteBurst = 1
	ts, _ := newTestServer(t, cfg)

	resp := postJSON(t, ts.URL+"/v1/faucet", types.FaucetRequest{Address: alice, Amount: "1"})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/v1/faucet", types.FaucetRequest{Address: alice, Amount: "1"})
	resp.Body.Close()
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("Retry-After"))
}
