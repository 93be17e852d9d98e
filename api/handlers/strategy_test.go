package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	errorsmod "cosmossdk.io/errors"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/share-vault/api/types"
	managertypes "github.com/openalpha/share-vault/x/manager/types"
	pausertypes "github.com/openalpha/share-vault/x/pauser/types"
	strategytypes "github.com/openalpha/share-vault/x/strategy/types"
)

type fakeReader struct {
	err error
}

func (f fakeReader) PoolState(context.Context) (*types.PoolState, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &types.PoolState{TotalShares: "0", Balance: "0"}, nil
}

func (f fakeReader) SharesToUnderlying(_ context.Context, shares string) (*types.Conversion, error) {
	return &types.Conversion{Input: shares, Output: shares}, f.err
}

func (f fakeReader) UnderlyingToShares(_ context.Context, amount string) (*types.Conversion, error) {
	return &types.Conversion{Input: amount, Output: amount}, f.err
}

func (f fakeReader) UserPosition(_ context.Context, user string) (*types.UserPosition, error) {
	return &types.UserPosition{User: user}, f.err
}

type fakeWriter struct {
	pausedFlag uint8
}

func (f *fakeWriter) Deposit(context.Context, *types.DepositRequest) (*types.DepositResponse, error) {
	return nil, errorsmod.Wrap(strategytypes.ErrZeroSharesResult, "amount 1")
}

func (f *fakeWriter) Withdraw(context.Context, *types.WithdrawRequest) (*types.WithdrawResponse, error) {
	return nil, errors.New("boom")
}

func (f *fakeWriter) SetPaused(_ context.Context, flag uint8, paused bool) (*types.PauseResponse, error) {
	f.pausedFlag = flag
	return &types.PauseResponse{Flag: flag, Paused: paused}, nil
}

func (f *fakeWriter) Faucet(context.Context, *types.FaucetRequest) (*types.FaucetResponse, error) {
	return &types.FaucetResponse{}, nil
}

func newRouter(reader types.StrategyReader, writer types.StrategyWriter) *mux.Router {
	r := mux.NewRouter()
	NewStrategyHandler(reader, writer).RegisterRoutes(r)
	return r
}

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unauthorized", strategytypes.ErrUnauthorized, http.StatusForbidden},
		{"pauser unauthorized", pausertypes.ErrUnauthorized, http.StatusForbidden},
		{"paused", errorsmod.Wrap(strategytypes.ErrOperationPaused, "deposits"), http.StatusConflict},
		{"not initialized", strategytypes.ErrNotInitialized, http.StatusServiceUnavailable},
		{"transfer failed", strategytypes.ErrTransferFailed, http.StatusBadGateway},
		{"insufficient user shares", managertypes.ErrInsufficientUserShares, http.StatusUnprocessableEntity},
		{"insufficient shares", strategytypes.ErrInsufficientShares, http.StatusUnprocessableEntity},
		{"registered error", strategytypes.ErrBelowMinimumShares, http.StatusBadRequest},
		{"bad request", types.ErrBadRequest, http.StatusBadRequest},
		{"unregistered error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, StatusFor(tc.err))
		})
	}
}

func TestStrategyHandler_Reads(t *testing.T) {
	r := newRouter(fakeReader{}, nil)

	rec := serve(r, http.MethodGet, "/v1/strategy", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	rec = serve(r, http.MethodGet, "/v1/strategy/convert/underlying/42", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var conv types.Conversion
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conv))
	require.Equal(t, "42", conv.Input)

	rec = serve(r, http.MethodPost, "/v1/faucet", "{}")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStrategyHandler_ReadError(t *testing.T) {
	r := newRouter(fakeReader{err: strategytypes.ErrNotInitialized}, nil)

	rec := serve(r, http.MethodGet, "/v1/strategy", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp types.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, strategytypes.ModuleName, resp.Codespace)
	require.Equal(t, uint32(9), resp.Code)
}

func TestStrategyHandler_Writes(t *testing.T) {
	writer := &fakeWriter{}
	r := newRouter(fakeReader{}, writer)

	rec := serve(r, http.MethodPost, "/v1/strategy/deposit", "not json")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp types.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "invalid_request", resp.Error)

	rec = serve(r, http.MethodPost, "/v1/strategy/deposit", `{"staker":"a","amount":"1"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(r, http.MethodPost, "/v1/strategy/withdraw", `{"staker":"a","shares":"1"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = serve(r, http.MethodPost, "/v1/pauser/1/pause", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, uint8(1), writer.pausedFlag)

	rec = serve(r, http.MethodPost, "/v1/pauser/300/unpause", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
