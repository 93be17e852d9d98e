package types

import (
	"context"
	"fmt"

	"cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/address"
)

// Module name and store key
const (
	ModuleName = "manager"
	StoreKey   = ModuleName
	RouterKey  = ModuleName
)

// UserSharesKeyPrefix prefixes strategy/user share records
var UserSharesKeyPrefix = []byte{0x01}

// UserSharesPrefix returns the prefix of every share record for strategy
func UserSharesPrefix(strategy string) []byte {
	return append(append([]byte{}, UserSharesKeyPrefix...), address.MustLengthPrefix([]byte(strategy))...)
}

// UserSharesKey returns the key of user's shares in strategy
func UserSharesKey(strategy string, user sdk.AccAddress) []byte {
	return append(UserSharesPrefix(strategy), address.MustLengthPrefix(user)...)
}

// Events
const (
	EventTypeDepositIntoStrategy  = "manager_deposit"
	EventTypeWithdrawFromStrategy = "manager_withdraw"

	AttributeKeyStaker    = "staker"
	AttributeKeyRecipient = "recipient"
	AttributeKeyStrategy  = "strategy"
	AttributeKeyAmount    = "amount"
	AttributeKeyShares    = "shares"
)

// Module error codes
var (
	ErrInvalidAmount          = errors.Register(ModuleName, 2, "invalid amount")
	ErrInsufficientUserShares = errors.Register(ModuleName, 3, "insufficient user shares")
	ErrInvalidGenesis         = errors.Register(ModuleName, 4, "invalid genesis state")
)

// BankKeeper moves the staker's asset into the strategy pool
type BankKeeper interface {
	SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error
}

// StrategyKeeper is the share accounting core the manager drives
type StrategyKeeper interface {
	Deposit(ctx sdk.Context, caller sdk.AccAddress, denom string, amount math.Int) (math.Int, error)
	Withdraw(ctx sdk.Context, caller, beneficiary sdk.AccAddress, denom string, shareAmount math.Int) error
	UnderlyingDenom(ctx sdk.Context) string
}

// UserShares is a single genesis record
type UserShares struct {
	Strategy string   `json:"strategy"`
	User     string   `json:"user"`
	Shares   math.Int `json:"shares"`
}

// GenesisState defines the manager module's genesis state
type GenesisState struct {
	UserShares []UserShares `json:"user_shares"`
}

// DefaultGenesis returns an empty genesis
func DefaultGenesis() *GenesisState {
	return &GenesisState{UserShares: []UserShares{}}
}

// Validate performs basic genesis state validation
func (gs GenesisState) Validate() error {
	seen := make(map[string]bool)
	for _, us := range gs.UserShares {
		if us.Strategy == "" {
			return ErrInvalidGenesis.Wrap("empty strategy")
		}
		if _, err := sdk.AccAddressFromBech32(us.User); err != nil {
			return ErrInvalidGenesis.Wrapf("invalid user %q: %s", us.User, err)
		}
		if us.Shares.IsNil() || !us.Shares.IsPositive() {
			return ErrInvalidGenesis.Wrapf("non-positive shares for %s", us.User)
		}
		key := fmt.Sprintf("%s/%s", us.Strategy, us.User)
		if seen[key] {
			return ErrInvalidGenesis.Wrapf("duplicate record %s", key)
		}
		seen[key] = true
	}
	return nil
}
