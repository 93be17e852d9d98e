package keeper

import (
	"encoding/json"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"

	"github.com/openalpha/share-vault/metrics"
	"github.com/openalpha/share-vault/x/strategy/types"
)

// Keeper manages the strategy pool state
type Keeper struct {
	cdc         codec.BinaryCodec
	storeKey    storetypes.StoreKey
	bankKeeper  types.BankKeeper
	pauser      types.PauserKeeper
	shareKeeper types.ShareKeeper
	conversions Conversions
	authority   string
	logger      log.Logger
	metrics     *metrics.Collector
}

// NewKeeper creates a new strategy keeper
func NewKeeper(
	cdc codec.BinaryCodec,
	storeKey storetypes.StoreKey,
	bankKeeper types.BankKeeper,
	pauser types.PauserKeeper,
	authority string,
	logger log.Logger,
) *Keeper {
	k := &Keeper{
		cdc:        cdc,
		storeKey:   storeKey,
		bankKeeper: bankKeeper,
		pauser:     pauser,
		authority:  authority,
		logger:     logger.With("module", "x/strategy"),
		metrics:    metrics.GetCollector(),
	}
	k.conversions = viewConversions{k}
	return k
}

// SetShareKeeper wires the manager's per-user share bookkeeping. The manager
// keeper is built on top of this keeper, so it is attached after construction.
func (k *Keeper) SetShareKeeper(sk types.ShareKeeper) {
	k.shareKeeper = sk
}

// Logger returns the module logger
func (k *Keeper) Logger() log.Logger {
	return k.logger
}

// GetAuthority returns the address allowed to change params
func (k *Keeper) GetAuthority() string {
	return k.authority
}

// GetStore returns the KVStore
func (k *Keeper) GetStore(ctx sdk.Context) storetypes.KVStore {
	return ctx.KVStore(k.storeKey)
}

// PoolAddress is the module account that custodies the underlying
func (k *Keeper) PoolAddress() sdk.AccAddress {
	return authtypes.NewModuleAddress(types.ModuleName)
}

// ============ State ============

// GetState returns the pool state, false when the pool was never initialized
func (k *Keeper) GetState(ctx sdk.Context) (types.StrategyState, bool) {
	bz := k.GetStore(ctx).Get(types.StateKey)
	if bz == nil {
		return types.StrategyState{}, false
	}
	var state types.StrategyState
	if err := json.Unmarshal(bz, &state); err != nil {
		k.logger.Error("failed to decode strategy state", "error", err)
		return types.StrategyState{}, false
	}
	if state.TotalShares.IsNil() {
		state.TotalShares = math.ZeroInt()
	}
	return state, true
}

// SetState saves the pool state
func (k *Keeper) SetState(ctx sdk.Context, state types.StrategyState) {
	bz, err := json.Marshal(state)
	if err != nil {
		panic(err)
	}
	k.GetStore(ctx).Set(types.StateKey, bz)
}

func (k *Keeper) requireState(ctx sdk.Context) (types.StrategyState, error) {
	state, ok := k.GetState(ctx)
	if !ok {
		return types.StrategyState{}, types.ErrNotInitialized
	}
	return state, nil
}

// Initialize binds the pool to one denom and one manager. It can only run once.
func (k *Keeper) Initialize(ctx sdk.Context, denom, manager string) error {
	if _, ok := k.GetState(ctx); ok {
		return types.ErrAlreadyInitialized
	}
	state := types.NewStrategyState(denom, manager)
	if err := state.Validate(); err != nil {
		return types.ErrInvalidGenesis.Wrap(err.Error())
	}
	k.SetState(ctx, state)
	k.logger.Info("strategy initialized", "denom", denom, "manager", manager)
	return nil
}

// ============ Params ============

// GetParams returns the TVL params
func (k *Keeper) GetParams(ctx sdk.Context) types.Params {
	bz := k.GetStore(ctx).Get(types.ParamsKey)
	if bz == nil {
		return types.DefaultParams()
	}
	var params types.Params
	if err := json.Unmarshal(bz, &params); err != nil {
		return types.DefaultParams()
	}
	if params.MaxPerDeposit.IsNil() {
		params.MaxPerDeposit = math.ZeroInt()
	}
	if params.MaxTotalDeposits.IsNil() {
		params.MaxTotalDeposits = math.ZeroInt()
	}
	return params
}

// SetParams validates and saves the TVL params
func (k *Keeper) SetParams(ctx sdk.Context, params types.Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	bz, err := json.Marshal(params)
	if err != nil {
		return err
	}
	k.GetStore(ctx).Set(types.ParamsKey, bz)
	return nil
}

// ============ Custodian ============

// UnderlyingBalance returns the pool's balance of the underlying denom
func (k *Keeper) UnderlyingBalance(ctx sdk.Context, denom string) math.Int {
	return k.bankKeeper.GetBalance(ctx, k.PoolAddress(), denom).Amount
}
