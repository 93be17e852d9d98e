package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/share-vault/x/strategy/types"
)

// EndBlocker publishes pool gauges and checks the invariants.
// A broken invariant is logged and counted; it does not halt the chain.
func (k *Keeper) EndBlocker(ctx sdk.Context) error {
	state, ok := k.GetState(ctx)
	if !ok {
		return nil
	}

	balance := k.UnderlyingBalance(ctx, state.UnderlyingDenom)
	rate, err := types.ExchangeRate(balance, state.TotalShares)
	if err != nil {
		return err
	}
	k.metrics.RecordPoolState(state.UnderlyingDenom, state.TotalShares, balance, rate)
	k.metrics.UpdateBlockHeight(ctx.BlockHeight())

	for route, inv := range map[string]sdk.Invariant{
		routeTotalSharesFloor: TotalSharesFloorInvariant(k),
		routeSharesBacked:     SharesBackedInvariant(k),
	} {
		if msg, broken := inv(ctx); broken {
			k.metrics.RecordInvariantBroken(route)
			k.logger.Error("strategy invariant broken", "route", route, "detail", msg)
		}
	}
	return nil
}
