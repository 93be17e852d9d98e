package api

import (
	"context"

	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/address"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
)

var balancePrefix = []byte{0x01}

// sandboxBank is a store-backed custodian for the sandbox. Balances live in
// the same multistore as the keepers, so a discarded cache context rolls
// back transfers together with share accounting.
type sandboxBank struct {
	storeKey storetypes.StoreKey
}

func balanceKey(addr sdk.AccAddress, denom string) []byte {
	key := append([]byte{}, balancePrefix...)
	key = append(key, address.MustLengthPrefix(addr)...)
	return append(key, []byte(denom)...)
}

func (b sandboxBank) balance(ctx sdk.Context, addr sdk.AccAddress, denom string) math.Int {
	bz := ctx.KVStore(b.storeKey).Get(balanceKey(addr, denom))
	if bz == nil {
		return math.ZeroInt()
	}
	var amount math.Int
	if err := amount.Unmarshal(bz); err != nil {
		panic(err)
	}
	return amount
}

func (b sandboxBank) setBalance(ctx sdk.Context, addr sdk.AccAddress, denom string, amount math.Int) {
	store := ctx.KVStore(b.storeKey)
	if amount.IsZero() {
		store.Delete(balanceKey(addr, denom))
		return
	}
	bz, err := amount.Marshal()
	if err != nil {
		panic(err)
	}
	store.Set(balanceKey(addr, denom), bz)
}

// GetBalance returns addr's balance of denom
func (b sandboxBank) GetBalance(goCtx context.Context, addr sdk.AccAddress, denom string) sdk.Coin {
	return sdk.NewCoin(denom, b.balance(sdk.UnwrapSDKContext(goCtx), addr, denom))
}

// SendCoinsFromModuleToAccount pays out of a module account
func (b sandboxBank) SendCoinsFromModuleToAccount(goCtx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error {
	return b.send(sdk.UnwrapSDKContext(goCtx), authtypes.NewModuleAddress(senderModule), recipientAddr, amt)
}

// SendCoinsFromAccountToModule pays into a module account
func (b sandboxBank) SendCoinsFromAccountToModule(goCtx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error {
	return b.send(sdk.UnwrapSDKContext(goCtx), senderAddr, authtypes.NewModuleAddress(recipientModule), amt)
}

// Mint credits addr out of thin air; the sandbox faucet
func (b sandboxBank) Mint(ctx sdk.Context, addr sdk.AccAddress, amt sdk.Coins) error {
	if !amt.IsValid() {
		return sdkerrors.ErrInvalidCoins.Wrap(amt.String())
	}
	for _, coin := range amt {
		b.setBalance(ctx, addr, coin.Denom, b.balance(ctx, addr, coin.Denom).Add(coin.Amount))
	}
	return nil
}

func (b sandboxBank) send(ctx sdk.Context, from, to sdk.AccAddress, amt sdk.Coins) error {
	if !amt.IsValid() {
		return sdkerrors.ErrInvalidCoins.Wrap(amt.String())
	}
	for _, coin := range amt {
		have := b.balance(ctx, from, coin.Denom)
		if have.LT(coin.Amount) {
			return sdkerrors.ErrInsufficientFunds.Wrapf("%s%s < %s", have, coin.Denom, coin)
		}
	}
	for _, coin := range amt {
		b.setBalance(ctx, from, coin.Denom, b.balance(ctx, from, coin.Denom).Sub(coin.Amount))
		b.setBalance(ctx, to, coin.Denom, b.balance(ctx, to, coin.Denom).Add(coin.Amount))
	}
	return nil
}
