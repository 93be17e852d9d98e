package types

import (
	"context"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// BankKeeper is the custodian of the underlying asset
type BankKeeper interface {
	GetBalance(ctx context.Context, addr sdk.AccAddress, denom string) sdk.Coin
	SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error
}

// PauserKeeper reports the externally owned pause flags
type PauserKeeper interface {
	IsPaused(ctx sdk.Context, index uint8) bool
}

// ShareKeeper is the manager's per-user share bookkeeping
type ShareKeeper interface {
	GetUserShares(ctx sdk.Context, user sdk.AccAddress, strategy string) math.Int
	TotalUserShares(ctx sdk.Context, strategy string) math.Int
}
