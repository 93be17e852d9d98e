package types

import (
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Module name and store key
const (
	ModuleName = "strategy"
	StoreKey   = ModuleName
	RouterKey  = ModuleName
)

// Store key prefixes
var (
	StateKey  = []byte{0x01}
	ParamsKey = []byte{0x02}
)

// StateVersion is the current layout of StrategyState. New fields are
// additive; older versions decode with zero values for them.
const StateVersion uint32 = 1

// Description is the static metadata string of the pool.
const Description = "Base strategy: single-asset share accounting with a floating exchange rate"

// MinNonzeroTotalShares is the smallest non-zero value total shares may take.
var MinNonzeroTotalShares = math.NewInt(1_000_000_000)

// ExchangeRatePrecision is the share amount used when reporting the rate.
var ExchangeRatePrecision = math.NewIntWithDecimal(1, 18)

// PauseFlag indexes the externally owned pause bitmap.
type PauseFlag uint8

const (
	PausedDeposits    PauseFlag = 0
	PausedWithdrawals PauseFlag = 1
)

// String returns the flag name
func (f PauseFlag) String() string {
	switch f {
	case PausedDeposits:
		return "deposits"
	case PausedWithdrawals:
		return "withdrawals"
	default:
		return fmt.Sprintf("flag_%d", uint8(f))
	}
}

// StrategyState is the persisted pool state
type StrategyState struct {
	Version         uint32   `json:"version"`
	TotalShares     math.Int `json:"total_shares"`
	UnderlyingDenom string   `json:"underlying_denom"`
	Manager         string   `json:"manager"`
}

// NewStrategyState creates the initial state of a pool bound to one denom and manager
func NewStrategyState(denom, manager string) StrategyState {
	return StrategyState{
		Version:         StateVersion,
		TotalShares:     math.ZeroInt(),
		UnderlyingDenom: denom,
		Manager:         manager,
	}
}

// Validate checks the state is well formed and the share floor holds
func (s StrategyState) Validate() error {
	if err := sdk.ValidateDenom(s.UnderlyingDenom); err != nil {
		return fmt.Errorf("invalid underlying denom: %w", err)
	}
	if _, err := sdk.AccAddressFromBech32(s.Manager); err != nil {
		return fmt.Errorf("invalid manager address: %w", err)
	}
	if s.TotalShares.IsNil() || s.TotalShares.IsNegative() {
		return fmt.Errorf("total shares must be non-negative")
	}
	if !IsValidTotalShares(s.TotalShares) {
		return fmt.Errorf("total shares %s inside forbidden interval (0, %s)", s.TotalShares, MinNonzeroTotalShares)
	}
	if s.Version > StateVersion {
		return fmt.Errorf("unknown state version %d", s.Version)
	}
	return nil
}

// IsValidTotalShares reports whether total is zero or at least the floor
func IsValidTotalShares(total math.Int) bool {
	return total.IsZero() || total.GTE(MinNonzeroTotalShares)
}

// Params holds the TVL limits; a zero limit means unlimited
type Params struct {
	MaxPerDeposit    math.Int `json:"max_per_deposit"`
	MaxTotalDeposits math.Int `json:"max_total_deposits"`
}

// DefaultParams returns unlimited TVL params
func DefaultParams() Params {
	return Params{
		MaxPerDeposit:    math.ZeroInt(),
		MaxTotalDeposits: math.ZeroInt(),
	}
}

// NewParams creates params from the two limits
func NewParams(maxPerDeposit, maxTotalDeposits math.Int) Params {
	return Params{
		MaxPerDeposit:    maxPerDeposit,
		MaxTotalDeposits: maxTotalDeposits,
	}
}

// Validate checks the limits are consistent
func (p Params) Validate() error {
	if p.MaxPerDeposit.IsNil() || p.MaxPerDeposit.IsNegative() {
		return ErrInvalidParams.Wrap("max per deposit must be non-negative")
	}
	if p.MaxTotalDeposits.IsNil() || p.MaxTotalDeposits.IsNegative() {
		return ErrInvalidParams.Wrap("max total deposits must be non-negative")
	}
	if p.MaxPerDeposit.IsPositive() && p.MaxTotalDeposits.IsPositive() &&
		p.MaxPerDeposit.GT(p.MaxTotalDeposits) {
		return ErrInvalidParams.Wrapf("max per deposit %s exceeds max total deposits %s",
			p.MaxPerDeposit, p.MaxTotalDeposits)
	}
	return nil
}
