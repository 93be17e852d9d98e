package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/share-vault/x/strategy/types"
)

// Deposit mints shares for amount of the underlying. The custodian must
// already hold amount, so the pre-deposit balance is balance - amount.
// Only the manager may call it, and only while deposits are unpaused.
// Assets whose received amount differs from the transferred amount
// (fee-on-transfer, rebasing) are not supported.
func (k *Keeper) Deposit(ctx sdk.Context, caller sdk.AccAddress, denom string, amount math.Int) (math.Int, error) {
	state, err := k.requireState(ctx)
	if err != nil {
		return math.Int{}, k.reject("deposit", err)
	}
	if err := k.checkGate(ctx, state, caller, types.PausedDeposits, denom); err != nil {
		return math.Int{}, k.reject("deposit", err)
	}
	if err := validateAmount(amount); err != nil {
		return math.Int{}, k.reject("deposit", err)
	}
	if amount.IsZero() {
		return math.Int{}, k.reject("deposit", types.ErrInvalidAmount.Wrap("deposit amount must be positive"))
	}

	balance := k.UnderlyingBalance(ctx, denom)
	if err := k.beforeDeposit(ctx, amount, balance); err != nil {
		return math.Int{}, k.reject("deposit", err)
	}

	newShares, err := types.DepositShares(balance, state.TotalShares, amount)
	if err != nil {
		return math.Int{}, k.reject("deposit", err)
	}
	if newShares.IsZero() {
		return math.Int{}, k.reject("deposit", types.ErrZeroSharesResult.Wrapf("amount %s", amount))
	}

	updated, err := state.TotalShares.SafeAdd(newShares)
	if err != nil {
		return math.Int{}, k.reject("deposit", types.ErrArithmeticOverflow.Wrap("total shares"))
	}
	if !types.IsValidTotalShares(updated) {
		return math.Int{}, k.reject("deposit", types.ErrBelowMinimumShares.Wrapf(
			"total shares %s below %s", updated, types.MinNonzeroTotalShares))
	}

	state.TotalShares = updated
	k.SetState(ctx, state)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeDeposit,
			sdk.NewAttribute(types.AttributeKeyManager, state.Manager),
			sdk.NewAttribute(types.AttributeKeyDenom, denom),
			sdk.NewAttribute(types.AttributeKeyAmount, amount.String()),
			sdk.NewAttribute(types.AttributeKeyShares, newShares.String()),
			sdk.NewAttribute(types.AttributeKeyTotalShares, updated.String()),
		),
	)
	k.emitExchangeRate(ctx, state, balance)
	k.metrics.RecordDeposit(denom, newShares)

	k.logger.Info("deposit processed",
		"amount", amount.String(),
		"shares", newShares.String(),
		"total_shares", updated.String(),
	)

	return newShares, nil
}

// emitExchangeRate publishes the post-mutation rate and pool gauges
func (k *Keeper) emitExchangeRate(ctx sdk.Context, state types.StrategyState, balance math.Int) {
	rate, err := types.ExchangeRate(balance, state.TotalShares)
	if err != nil {
		k.logger.Error("failed to compute exchange rate", "error", err)
		return
	}
	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeExchangeRate,
			sdk.NewAttribute(types.AttributeKeyRate, rate.String()),
			sdk.NewAttribute(types.AttributeKeyBalance, balance.String()),
			sdk.NewAttribute(types.AttributeKeyTotalShares, state.TotalShares.String()),
		),
	)
	k.metrics.RecordPoolState(state.UnderlyingDenom, state.TotalShares, balance, rate)
}
