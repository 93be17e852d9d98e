package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/share-vault/x/strategy/types"
)

// Conversions is the overridable pair of share/underlying conversions. Pool
// variants that need side effects during conversion install their own
// implementation with SetConversions; the default defers to the views.
type Conversions interface {
	SharesToUnderlying(ctx sdk.Context, shares math.Int) (math.Int, error)
	UnderlyingToShares(ctx sdk.Context, amount math.Int) (math.Int, error)
}

type viewConversions struct {
	k *Keeper
}

func (c viewConversions) SharesToUnderlying(ctx sdk.Context, shares math.Int) (math.Int, error) {
	return c.k.SharesToUnderlyingView(ctx, shares)
}

func (c viewConversions) UnderlyingToShares(ctx sdk.Context, amount math.Int) (math.Int, error) {
	return c.k.UnderlyingToSharesView(ctx, amount)
}

// SetConversions replaces the conversion implementation; nil restores the views
func (k *Keeper) SetConversions(c Conversions) {
	if c == nil {
		c = viewConversions{k}
	}
	k.conversions = c
}

// SharesToUnderlyingView converts shares at the current rate without writing state
func (k *Keeper) SharesToUnderlyingView(ctx sdk.Context, shares math.Int) (math.Int, error) {
	if err := validateAmount(shares); err != nil {
		return math.Int{}, err
	}
	state, err := k.requireState(ctx)
	if err != nil {
		return math.Int{}, err
	}
	balance := k.UnderlyingBalance(ctx, state.UnderlyingDenom)
	return types.SharesToUnderlying(balance, state.TotalShares, shares)
}

// UnderlyingToSharesView converts an underlying amount at the current rate without writing state
func (k *Keeper) UnderlyingToSharesView(ctx sdk.Context, amount math.Int) (math.Int, error) {
	if err := validateAmount(amount); err != nil {
		return math.Int{}, err
	}
	state, err := k.requireState(ctx)
	if err != nil {
		return math.Int{}, err
	}
	balance := k.UnderlyingBalance(ctx, state.UnderlyingDenom)
	return types.UnderlyingToShares(balance, state.TotalShares, amount)
}

// SharesToUnderlying converts through the installed Conversions
func (k *Keeper) SharesToUnderlying(ctx sdk.Context, shares math.Int) (math.Int, error) {
	return k.conversions.SharesToUnderlying(ctx, shares)
}

// UnderlyingToShares converts through the installed Conversions
func (k *Keeper) UnderlyingToShares(ctx sdk.Context, amount math.Int) (math.Int, error) {
	return k.conversions.UnderlyingToShares(ctx, amount)
}

// ExchangeRate returns the underlying value of 1e18 shares
func (k *Keeper) ExchangeRate(ctx sdk.Context) (math.Int, error) {
	state, err := k.requireState(ctx)
	if err != nil {
		return math.Int{}, err
	}
	balance := k.UnderlyingBalance(ctx, state.UnderlyingDenom)
	return types.ExchangeRate(balance, state.TotalShares)
}

func validateAmount(amount math.Int) error {
	if amount.IsNil() || amount.IsNegative() {
		return types.ErrInvalidAmount.Wrap("amount must be non-negative")
	}
	return nil
}
