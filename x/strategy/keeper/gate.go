package keeper

import (
	"errors"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/share-vault/x/strategy/types"
)

// checkGate runs before any mutation: caller identity, then the pause flag
// for the operation, then the asset. The first failure is returned.
func (k *Keeper) checkGate(ctx sdk.Context, state types.StrategyState, caller sdk.AccAddress, flag types.PauseFlag, denom string) error {
	if caller.Empty() || caller.String() != state.Manager {
		return types.ErrUnauthorized.Wrapf("caller %s", caller)
	}
	if k.pauser != nil && k.pauser.IsPaused(ctx, uint8(flag)) {
		return types.ErrOperationPaused.Wrapf("%s paused", flag)
	}
	if denom != state.UnderlyingDenom {
		return types.ErrAssetMismatch.Wrapf("got %s, want %s", denom, state.UnderlyingDenom)
	}
	return nil
}

// reject logs and counts a failed operation and hands the error back
func (k *Keeper) reject(operation string, err error) error {
	reason := rejectionReason(err)
	k.metrics.RecordRejection(operation, reason)
	k.logger.Debug("strategy operation rejected", "operation", operation, "reason", reason, "error", err)
	return err
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, types.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, types.ErrOperationPaused):
		return "paused"
	case errors.Is(err, types.ErrAssetMismatch):
		return "asset_mismatch"
	case errors.Is(err, types.ErrZeroSharesResult):
		return "zero_shares"
	case errors.Is(err, types.ErrBelowMinimumShares):
		return "below_minimum"
	case errors.Is(err, types.ErrInsufficientShares):
		return "insufficient_shares"
	case errors.Is(err, types.ErrMaxPerDepositExceeded), errors.Is(err, types.ErrMaxTotalDepositsExceeded):
		return "tvl_limit"
	case errors.Is(err, types.ErrTransferFailed):
		return "transfer_failed"
	case errors.Is(err, types.ErrInvalidAmount):
		return "invalid_amount"
	default:
		return "other"
	}
}
