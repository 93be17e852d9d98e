package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	errorsmod "cosmossdk.io/errors"
	"github.com/gorilla/mux"

	"github.com/openalpha/share-vault/api/types"
	managertypes "github.com/openalpha/share-vault/x/manager/types"
	pausertypes "github.com/openalpha/share-vault/x/pauser/types"
	strategytypes "github.com/openalpha/share-vault/x/strategy/types"
)

// StrategyHandler serves the strategy ledger over HTTP. Write routes are
// only registered when a writer is configured.
type StrategyHandler struct {
	reader types.StrategyReader
	writer types.StrategyWriter
}

// NewStrategyHandler creates a handler; writer may be nil for read-only backends
func NewStrategyHandler(reader types.StrategyReader, writer types.StrategyWriter) *StrategyHandler {
	return &StrategyHandler{reader: reader, writer: writer}
}

// RegisterRoutes registers the strategy API routes
func (h *StrategyHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/v1/strategy", h.GetPool).Methods(http.MethodGet)
	r.HandleFunc("/v1/strategy/convert/shares/{amount}", h.ConvertShares).Methods(http.MethodGet)
	r.HandleFunc("/v1/strategy/convert/underlying/{amount}", h.ConvertUnderlying).Methods(http.MethodGet)
	r.HandleFunc("/v1/strategy/users/{user}", h.GetUser).Methods(http.MethodGet)

	if h.writer == nil {
		return
	}
	r.HandleFunc("/v1/strategy/deposit", h.Deposit).Methods(http.MethodPost)
	r.HandleFunc("/v1/strategy/withdraw", h.Withdraw).Methods(http.MethodPost)
	r.HandleFunc("/v1/pauser/{flag}/pause", h.Pause).Methods(http.MethodPost)
	r.HandleFunc("/v1/pauser/{flag}/unpause", h.Unpause).Methods(http.MethodPost)
	r.HandleFunc("/v1/faucet", h.Faucet).Methods(http.MethodPost)
}

// GetPool handles GET /v1/strategy
func (h *StrategyHandler) GetPool(w http.ResponseWriter, r *http.Request) {
	state, err := h.reader.PoolState(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, state)
}

// ConvertShares handles GET /v1/strategy/convert/shares/{amount}
func (h *StrategyHandler) ConvertShares(w http.ResponseWriter, r *http.Request) {
	conv, err := h.reader.SharesToUnderlying(r.Context(), mux.Vars(r)["amount"])
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, conv)
}

// ConvertUnderlying handles GET /v1/strategy/convert/underlying/{amount}
func (h *StrategyHandler) ConvertUnderlying(w http.ResponseWriter, r *http.Request) {
	conv, err := h.reader.UnderlyingToShares(r.Context(), mux.Vars(r)["amount"])
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, conv)
}

// GetUser handles GET /v1/strategy/users/{user}
func (h *StrategyHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	pos, err := h.reader.UserPosition(r.Context(), mux.Vars(r)["user"])
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, pos)
}

// Deposit handles POST /v1/strategy/deposit
func (h *StrategyHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req types.DepositRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.writer.Deposit(r.Context(), &req)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, resp)
}

// Withdraw handles POST /v1/strategy/withdraw
func (h *StrategyHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req types.WithdrawRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.writer.Withdraw(r.Context(), &req)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, resp)
}

// Pause handles POST /v1/pauser/{flag}/pause
func (h *StrategyHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.setPaused(w, r, true)
}

// Unpause handles POST /v1/pauser/{flag}/unpause
func (h *StrategyHandler) Unpause(w http.ResponseWriter, r *http.Request) {
	h.setPaused(w, r, false)
}

func (h *StrategyHandler) setPaused(w http.ResponseWriter, r *http.Request, paused bool) {
	flag, err := strconv.ParseUint(mux.Vars(r)["flag"], 10, 8)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_flag",
			Message: "flag must be an integer in [0, 63]",
		})
		return
	}
	resp, err := h.writer.SetPaused(r.Context(), uint8(flag), paused)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, resp)
}

// Faucet handles POST /v1/faucet
func (h *StrategyHandler) Faucet(w http.ResponseWriter, r *http.Request) {
	var req types.FaucetRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.writer.Faucet(r.Context(), &req)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, resp)
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
		return false
	}
	return true
}

// WriteJSON writes v as a JSON response
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a registered ledger error to its HTTP status
func WriteError(w http.ResponseWriter, err error) {
	codespace, code, _ := errorsmod.ABCIInfo(err, false)
	resp := types.ErrorResponse{
		Error:     "request_failed",
		Message:   err.Error(),
		Codespace: codespace,
		Code:      code,
	}
	writeErrorResponse(w, StatusFor(err), resp)
}

// StatusFor returns the HTTP status for err
func StatusFor(err error) int {
	switch {
	case errors.Is(err, strategytypes.ErrUnauthorized), errors.Is(err, pausertypes.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, strategytypes.ErrOperationPaused):
		return http.StatusConflict
	case errors.Is(err, strategytypes.ErrNotInitialized):
		return http.StatusServiceUnavailable
	case errors.Is(err, strategytypes.ErrTransferFailed):
		return http.StatusBadGateway
	case errors.Is(err, managertypes.ErrInsufficientUserShares), errors.Is(err, strategytypes.ErrInsufficientShares):
		return http.StatusUnprocessableEntity
	}

	codespace, _, _ := errorsmod.ABCIInfo(err, false)
	if codespace == errorsmod.UndefinedCodespace {
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

func writeErrorResponse(w http.ResponseWriter, status int, resp types.ErrorResponse) {
	WriteJSON(w, status, resp)
}
