package types

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// PoolState is the pool snapshot served by GET /v1/strategy
type PoolState struct {
	UnderlyingDenom string `json:"underlying_denom"`
	Manager         string `json:"manager"`
	TotalShares     string `json:"total_shares"`
	Balance         string `json:"balance"`
	ExchangeRate    string `json:"exchange_rate"`
	MaxPerDeposit   string `json:"max_per_deposit"`
	MaxTotal        string `json:"max_total_deposits"`
	Description     string `json:"description"`
	PausedStatus    uint64 `json:"paused_status"`
	Height          int64  `json:"height"`
}

// UserPosition is a user's shares and their current underlying value
type UserPosition struct {
	User       string `json:"user"`
	Shares     string `json:"shares"`
	Underlying string `json:"underlying"`
	Balance    string `json:"balance"`
}

// Conversion is the result of a shares/underlying conversion
type Conversion struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// DepositRequest is the body of POST /v1/strategy/deposit
type DepositRequest struct {
	Staker string `json:"staker"`
	Amount string `json:"amount"`
}

// DepositResponse reports the shares minted by a deposit
type DepositResponse struct {
	Staker      string `json:"staker"`
	Amount      string `json:"amount"`
	Shares      string `json:"shares"`
	TotalShares string `json:"total_shares"`
}

// WithdrawRequest is the body of POST /v1/strategy/withdraw
type WithdrawRequest struct {
	Staker    string `json:"staker"`
	Recipient string `json:"recipient,omitempty"`
	Shares    string `json:"shares"`
}

// WithdrawResponse reports the payout of a withdrawal
type WithdrawResponse struct {
	Staker          string `json:"staker"`
	Recipient       string `json:"recipient"`
	Shares          string `json:"shares"`
	Payout          string `json:"payout"`
	RemainingShares string `json:"remaining_shares"`
	TotalShares     string `json:"total_shares"`
}

// FaucetRequest is the body of POST /v1/faucet. Crediting the pool
// address directly simulates yield accruing to the strategy.
type FaucetRequest struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

// FaucetResponse reports the credited account's new balance
type FaucetResponse struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

// PauseResponse reports the pause bitmap after a flag change
type PauseResponse struct {
	Flag         uint8  `json:"flag"`
	Paused       bool   `json:"paused"`
	PausedStatus uint64 `json:"paused_status"`
}

// LedgerEvent is a ledger change pushed to websocket subscribers
type LedgerEvent struct {
	Type       string            `json:"type"`
	Height     int64             `json:"height"`
	Attributes map[string]string `json:"attributes"`
	Timestamp  int64             `json:"timestamp"`
}

// StrategyReader serves the read-only views of the ledger
type StrategyReader interface {
	PoolState(ctx context.Context) (*PoolState, error)
	SharesToUnderlying(ctx context.Context, shares string) (*Conversion, error)
	UnderlyingToShares(ctx context.Context, amount string) (*Conversion, error)
	UserPosition(ctx context.Context, user string) (*UserPosition, error)
}

// StrategyWriter mutates the ledger
type StrategyWriter interface {
	Deposit(ctx context.Context, req *DepositRequest) (*DepositResponse, error)
	Withdraw(ctx context.Context, req *WithdrawRequest) (*WithdrawResponse, error)
	SetPaused(ctx context.Context, flag uint8, paused bool) (*PauseResponse, error)
	Faucet(ctx context.Context, req *FaucetRequest) (*FaucetResponse, error)
}

// StrategyService is a ledger backend supporting reads and writes
type StrategyService interface {
	StrategyReader
	StrategyWriter
}

// EventPublisher receives ledger events after each committed write
type EventPublisher interface {
	PublishLedgerEvents(events []LedgerEvent)
}

// ErrorResponse is the error body of every failed request
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Codespace string `json:"codespace,omitempty"`
	Code      uint32 `json:"code,omitempty"`
}

// ErrBadRequest is returned for malformed ledger input
var ErrBadRequest = errorsmod.Register("sandbox", 2, "bad request")

// ParseAmount parses a non-negative integer amount
func ParseAmount(field, value string) (math.Int, error) {
	amount, ok := math.NewIntFromString(value)
	if !ok || amount.IsNegative() {
		return math.Int{}, ErrBadRequest.Wrapf("invalid %s %q", field, value)
	}
	return amount, nil
}

// ParseAddress parses a bech32 account address
func ParseAddress(field, value string) (sdk.AccAddress, error) {
	addr, err := sdk.AccAddressFromBech32(value)
	if err != nil {
		return nil, ErrBadRequest.Wrapf("invalid %s %q: %s", field, value, err)
	}
	return addr, nil
}
