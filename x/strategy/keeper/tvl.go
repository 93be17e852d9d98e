package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/share-vault/x/strategy/types"
)

// beforeDeposit enforces the TVL limits. balance already includes amount.
func (k *Keeper) beforeDeposit(ctx sdk.Context, amount, balance math.Int) error {
	params := k.GetParams(ctx)
	if params.MaxPerDeposit.IsPositive() && amount.GT(params.MaxPerDeposit) {
		return types.ErrMaxPerDepositExceeded.Wrapf("%s > %s", amount, params.MaxPerDeposit)
	}
	if params.MaxTotalDeposits.IsPositive() && balance.GT(params.MaxTotalDeposits) {
		return types.ErrMaxTotalDepositsExceeded.Wrapf("%s > %s", balance, params.MaxTotalDeposits)
	}
	return nil
}

// SetTVLLimits updates the deposit limits; only the authority may call it
func (k *Keeper) SetTVLLimits(ctx sdk.Context, authority string, maxPerDeposit, maxTotalDeposits math.Int) error {
	if authority != k.authority {
		return types.ErrUnauthorized.Wrapf("expected %s, got %s", k.authority, authority)
	}
	params := types.NewParams(maxPerDeposit, maxTotalDeposits)
	if err := k.SetParams(ctx, params); err != nil {
		return err
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeSetTVLLimits,
			sdk.NewAttribute(types.AttributeKeyMaxPerDeposit, maxPerDeposit.String()),
			sdk.NewAttribute(types.AttributeKeyMaxTotalDeposits, maxTotalDeposits.String()),
		),
	)
	k.logger.Info("tvl limits updated",
		"max_per_deposit", maxPerDeposit.String(),
		"max_total_deposits", maxTotalDeposits.String(),
	)
	return nil
}
