package keeper

import (
	"encoding/json"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"

	"github.com/openalpha/share-vault/x/manager/types"
	strategytypes "github.com/openalpha/share-vault/x/strategy/types"
)

// Keeper records per-user shares and is the strategy's only caller
type Keeper struct {
	storeKey       storetypes.StoreKey
	bankKeeper     types.BankKeeper
	strategyKeeper types.StrategyKeeper
	logger         log.Logger
}

// NewKeeper creates a new manager keeper
func NewKeeper(
	storeKey storetypes.StoreKey,
	bankKeeper types.BankKeeper,
	strategyKeeper types.StrategyKeeper,
	logger log.Logger,
) *Keeper {
	return &Keeper{
		storeKey:       storeKey,
		bankKeeper:     bankKeeper,
		strategyKeeper: strategyKeeper,
		logger:         logger.With("module", "x/manager"),
	}
}

// Address is the principal the strategy accepts as its manager
func (k *Keeper) Address() sdk.AccAddress {
	return authtypes.NewModuleAddress(types.ModuleName)
}

// ============ Share Bookkeeping ============

// GetUserShares returns user's shares in strategy
func (k *Keeper) GetUserShares(ctx sdk.Context, user sdk.AccAddress, strategy string) math.Int {
	bz := ctx.KVStore(k.storeKey).Get(types.UserSharesKey(strategy, user))
	if bz == nil {
		return math.ZeroInt()
	}
	var shares math.Int
	if err := json.Unmarshal(bz, &shares); err != nil {
		k.logger.Error("failed to decode user shares", "user", user.String(), "error", err)
		return math.ZeroInt()
	}
	return shares
}

// SetUserShares saves user's shares; zero deletes the record
func (k *Keeper) SetUserShares(ctx sdk.Context, user sdk.AccAddress, strategy string, shares math.Int) {
	store := ctx.KVStore(k.storeKey)
	key := types.UserSharesKey(strategy, user)
	if shares.IsZero() {
		store.Delete(key)
		return
	}
	bz, err := json.Marshal(shares)
	if err != nil {
		panic(err)
	}
	store.Set(key, bz)
}

// IterateUserShares walks every share record of strategy
func (k *Keeper) IterateUserShares(ctx sdk.Context, strategy string, cb func(user sdk.AccAddress, shares math.Int) (stop bool)) {
	prefix := types.UserSharesPrefix(strategy)
	iterator := storetypes.KVStorePrefixIterator(ctx.KVStore(k.storeKey), prefix)
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		// key suffix is a length-prefixed address
		suffix := iterator.Key()[len(prefix):]
		if len(suffix) < 1 || int(suffix[0]) != len(suffix)-1 {
			continue
		}
		var shares math.Int
		if err := json.Unmarshal(iterator.Value(), &shares); err != nil {
			continue
		}
		if cb(sdk.AccAddress(suffix[1:]), shares) {
			return
		}
	}
}

// TotalUserShares sums the shares of every user in strategy
func (k *Keeper) TotalUserShares(ctx sdk.Context, strategy string) math.Int {
	total := math.ZeroInt()
	k.IterateUserShares(ctx, strategy, func(_ sdk.AccAddress, shares math.Int) bool {
		total = total.Add(shares)
		return false
	})
	return total
}

// ============ Strategy Operations ============

// DepositIntoStrategy moves coin from staker into the pool and credits the
// minted shares. The transfer happens first because the strategy prices the
// deposit against a balance that already includes it.
func (k *Keeper) DepositIntoStrategy(ctx sdk.Context, staker sdk.AccAddress, coin sdk.Coin) (math.Int, error) {
	if !coin.IsValid() || !coin.IsPositive() {
		return math.Int{}, types.ErrInvalidAmount.Wrapf("invalid amount %s", coin)
	}

	cacheCtx, write := ctx.CacheContext()

	if err := k.bankKeeper.SendCoinsFromAccountToModule(cacheCtx, staker, strategytypes.ModuleName, sdk.NewCoins(coin)); err != nil {
		return math.Int{}, err
	}
	shares, err := k.strategyKeeper.Deposit(cacheCtx, k.Address(), coin.Denom, coin.Amount)
	if err != nil {
		return math.Int{}, err
	}
	current := k.GetUserShares(cacheCtx, staker, strategytypes.ModuleName)
	k.SetUserShares(cacheCtx, staker, strategytypes.ModuleName, current.Add(shares))

	write()

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeDepositIntoStrategy,
			sdk.NewAttribute(types.AttributeKeyStaker, staker.String()),
			sdk.NewAttribute(types.AttributeKeyStrategy, strategytypes.ModuleName),
			sdk.NewAttribute(types.AttributeKeyAmount, coin.String()),
			sdk.NewAttribute(types.AttributeKeyShares, shares.String()),
		),
	)
	k.logger.Info("deposited into strategy",
		"staker", staker.String(),
		"amount", coin.String(),
		"shares", shares.String(),
	)
	return shares, nil
}

// WithdrawFromStrategy debits staker's shares and redeems them to recipient.
// The debit is recorded before the strategy pays out.
func (k *Keeper) WithdrawFromStrategy(ctx sdk.Context, staker, recipient sdk.AccAddress, shares math.Int) (math.Int, error) {
	if shares.IsNil() || !shares.IsPositive() {
		return math.Int{}, types.ErrInvalidAmount.Wrap("shares must be positive")
	}
	current := k.GetUserShares(ctx, staker, strategytypes.ModuleName)
	if shares.GT(current) {
		return math.Int{}, types.ErrInsufficientUserShares.Wrapf("%s > %s", shares, current)
	}
	remaining := current.Sub(shares)

	cacheCtx, write := ctx.CacheContext()

	k.SetUserShares(cacheCtx, staker, strategytypes.ModuleName, remaining)
	denom := k.strategyKeeper.UnderlyingDenom(cacheCtx)
	if err := k.strategyKeeper.Withdraw(cacheCtx, k.Address(), recipient, denom, shares); err != nil {
		return math.Int{}, err
	}

	write()

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeWithdrawFromStrategy,
			sdk.NewAttribute(types.AttributeKeyStaker, staker.String()),
			sdk.NewAttribute(types.AttributeKeyRecipient, recipient.String()),
			sdk.NewAttribute(types.AttributeKeyStrategy, strategytypes.ModuleName),
			sdk.NewAttribute(types.AttributeKeyShares, shares.String()),
		),
	)
	k.logger.Info("withdrew from strategy",
		"staker", staker.String(),
		"recipient", recipient.String(),
		"shares", shares.String(),
	)
	return remaining, nil
}

// ============ Genesis ============

// InitGenesis loads the share records
func (k *Keeper) InitGenesis(ctx sdk.Context, gs *types.GenesisState) error {
	if err := gs.Validate(); err != nil {
		return err
	}
	for _, us := range gs.UserShares {
		user, err := sdk.AccAddressFromBech32(us.User)
		if err != nil {
			return err
		}
		k.SetUserShares(ctx, user, us.Strategy, us.Shares)
	}
	return nil
}

// ExportGenesis exports the share records of the strategy
func (k *Keeper) ExportGenesis(ctx sdk.Context) *types.GenesisState {
	gs := types.DefaultGenesis()
	k.IterateUserShares(ctx, strategytypes.ModuleName, func(user sdk.AccAddress, shares math.Int) bool {
		gs.UserShares = append(gs.UserShares, types.UserShares{
			Strategy: strategytypes.ModuleName,
			User:     user.String(),
			Shares:   shares,
		})
		return false
	})
	return gs
}
