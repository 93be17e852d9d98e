package app

import (
	"encoding/json"

	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	servertypes "github.com/cosmos/cosmos-sdk/server/types"
)

// ExportAppStateAndValidators exports the module genesis of the latest
// committed state. Validators are carried by CometBFT's genesis, not by the app.
func (app *App) ExportAppStateAndValidators(forZeroHeight bool, modulesToExport []string) (servertypes.ExportedApp, error) {
	ctx := app.NewContextLegacy(true, cmtproto.Header{Height: app.LastBlockHeight()})

	height := app.LastBlockHeight() + 1
	if forZeroHeight {
		height = 0
	}

	filter := make(map[string]bool, len(modulesToExport))
	for _, name := range modulesToExport {
		filter[name] = true
	}

	appState := make(map[string]json.RawMessage, len(app.genesisModules))
	for _, gm := range app.genesisModules {
		if len(filter) > 0 && !filter[gm.name] {
			continue
		}
		appState[gm.name] = gm.module.ExportGenesis(ctx, app.appCodec)
	}

	bz, err := json.MarshalIndent(appState, "", "  ")
	if err != nil {
		return servertypes.ExportedApp{}, err
	}

	return servertypes.ExportedApp{
		AppState:        bz,
		Height:          height,
		ConsensusParams: app.GetConsensusParams(ctx),
	}, nil
}
