package keeper

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/share-vault/x/strategy/types"
)

const (
	routeTotalSharesFloor = "total-shares-floor"
	routeSharesBacked     = "shares-backed"
)

// RegisterInvariants registers the strategy invariants
func RegisterInvariants(ir sdk.InvariantRegistry, k *Keeper) {
	ir.RegisterRoute(types.ModuleName, routeTotalSharesFloor, TotalSharesFloorInvariant(k))
	ir.RegisterRoute(types.ModuleName, routeSharesBacked, SharesBackedInvariant(k))
}

// AllInvariants runs every strategy invariant
func AllInvariants(k *Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		res, stop := TotalSharesFloorInvariant(k)(ctx)
		if stop {
			return res, stop
		}
		return SharesBackedInvariant(k)(ctx)
	}
}

// TotalSharesFloorInvariant checks total shares is zero or at least the floor
func TotalSharesFloorInvariant(k *Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		total := k.TotalShares(ctx)
		broken := !types.IsValidTotalShares(total)
		return sdk.FormatInvariant(types.ModuleName, routeTotalSharesFloor,
			fmt.Sprintf("total shares %s, minimum non-zero %s", total, types.MinNonzeroTotalShares)), broken
	}
}

// SharesBackedInvariant checks total shares never exceeds the sum of the
// per-user shares held by the manager.
func SharesBackedInvariant(k *Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		if k.shareKeeper == nil {
			return sdk.FormatInvariant(types.ModuleName, routeSharesBacked, "no share keeper"), false
		}
		total := k.TotalShares(ctx)
		users := k.shareKeeper.TotalUserShares(ctx, types.ModuleName)
		broken := total.GT(users)
		return sdk.FormatInvariant(types.ModuleName, routeSharesBacked,
			fmt.Sprintf("total shares %s, user shares %s", total, users)), broken
	}
}
