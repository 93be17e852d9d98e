package types

import (
	"encoding/json"

	"cosmossdk.io/math"
)

// GenesisState defines the strategy module's genesis state
type GenesisState struct {
	Params Params        `json:"params"`
	State  StrategyState `json:"state"`
}

// DefaultGenesis returns a genesis bound to denom and manager with no shares
func DefaultGenesis(denom, manager string) *GenesisState {
	return &GenesisState{
		Params: DefaultParams(),
		State:  NewStrategyState(denom, manager),
	}
}

// Validate performs basic genesis state validation
func (gs GenesisState) Validate() error {
	if err := gs.Params.Validate(); err != nil {
		return err
	}
	if err := gs.State.Validate(); err != nil {
		return ErrInvalidGenesis.Wrap(err.Error())
	}
	return nil
}

// UnmarshalGenesis decodes raw genesis JSON, filling nil amounts with zero
func UnmarshalGenesis(bz json.RawMessage) (*GenesisState, error) {
	var gs GenesisState
	if err := json.Unmarshal(bz, &gs); err != nil {
		return nil, ErrInvalidGenesis.Wrap(err.Error())
	}
	if gs.State.TotalShares.IsNil() {
		gs.State.TotalShares = math.ZeroInt()
	}
	if gs.Params.MaxPerDeposit.IsNil() {
		gs.Params.MaxPerDeposit = math.ZeroInt()
	}
	if gs.Params.MaxTotalDeposits.IsNil() {
		gs.Params.MaxTotalDeposits = math.ZeroInt()
	}
	return &gs, nil
}
