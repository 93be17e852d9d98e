package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/share-vault/x/strategy/types"
)

// InitGenesis initializes the pool from genesis
func (k *Keeper) InitGenesis(ctx sdk.Context, gs *types.GenesisState) error {
	if err := gs.Validate(); err != nil {
		return err
	}
	if err := k.SetParams(ctx, gs.Params); err != nil {
		return err
	}
	state := gs.State
	if state.Version == 0 {
		state.Version = types.StateVersion
	}
	k.SetState(ctx, state)
	return nil
}

// ExportGenesis exports the pool state and params
func (k *Keeper) ExportGenesis(ctx sdk.Context) *types.GenesisState {
	state, _ := k.GetState(ctx)
	return &types.GenesisState{
		Params: k.GetParams(ctx),
		State:  state,
	}
}
