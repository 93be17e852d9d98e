package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/share-vault/x/strategy/types"
)

// Withdraw burns shareAmount shares and pays the beneficiary their
// underlying value. Total shares are written before the custodian transfer,
// so a call re-entering from the transfer sees the reduced total. The payout
// is priced against the total before the burn. Everything runs in a cache
// context that is only written when the transfer succeeds.
func (k *Keeper) Withdraw(ctx sdk.Context, caller, beneficiary sdk.AccAddress, denom string, shareAmount math.Int) error {
	state, err := k.requireState(ctx)
	if err != nil {
		return k.reject("withdraw", err)
	}
	if err := k.checkGate(ctx, state, caller, types.PausedWithdrawals, denom); err != nil {
		return k.reject("withdraw", err)
	}
	if err := validateAmount(shareAmount); err != nil {
		return k.reject("withdraw", err)
	}
	if beneficiary.Empty() {
		return k.reject("withdraw", types.ErrInvalidAmount.Wrap("empty beneficiary"))
	}

	prior := state.TotalShares
	if shareAmount.GT(prior) {
		return k.reject("withdraw", types.ErrInsufficientShares.Wrapf("%s > %s", shareAmount, prior))
	}
	updated := prior.Sub(shareAmount)
	if !types.IsValidTotalShares(updated) {
		return k.reject("withdraw", types.ErrBelowMinimumShares.Wrapf(
			"total shares %s below %s", updated, types.MinNonzeroTotalShares))
	}

	cacheCtx, write := ctx.CacheContext()

	state.TotalShares = updated
	k.SetState(cacheCtx, state)

	balance := k.UnderlyingBalance(cacheCtx, denom)
	payout, err := types.WithdrawPayout(balance, prior, shareAmount)
	if err != nil {
		return k.reject("withdraw", err)
	}

	if payout.IsPositive() {
		coins := sdk.NewCoins(sdk.NewCoin(denom, payout))
		if err := k.bankKeeper.SendCoinsFromModuleToAccount(cacheCtx, types.ModuleName, beneficiary, coins); err != nil {
			return k.reject("withdraw", types.ErrTransferFailed.Wrap(err.Error()))
		}
	}

	write()

	// Re-read: a re-entrant call during the transfer may have moved the total further.
	final, err := k.requireState(ctx)
	if err != nil {
		return k.reject("withdraw", err)
	}
	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeWithdraw,
			sdk.NewAttribute(types.AttributeKeyBeneficiary, beneficiary.String()),
			sdk.NewAttribute(types.AttributeKeyDenom, denom),
			sdk.NewAttribute(types.AttributeKeyShares, shareAmount.String()),
			sdk.NewAttribute(types.AttributeKeyAmount, payout.String()),
			sdk.NewAttribute(types.AttributeKeyTotalShares, final.TotalShares.String()),
		),
	)
	k.emitExchangeRate(ctx, final, k.UnderlyingBalance(ctx, denom))
	k.metrics.RecordWithdrawal(denom, shareAmount, payout)

	k.logger.Info("withdrawal processed",
		"beneficiary", beneficiary.String(),
		"shares", shareAmount.String(),
		"amount", payout.String(),
		"total_shares", final.TotalShares.String(),
	)

	return nil
}
