package app

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"cosmossdk.io/core/appmodule"
	"cosmossdk.io/log"
	storetypes "cosmossdk.io/store/types"
	abci "github.com/cometbft/cometbft/abci/types"
	cmtcrypto "github.com/cometbft/cometbft/proto/tendermint/crypto"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/baseapp"
	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/grpc/cmtservice"
	nodeservice "github.com/cosmos/cosmos-sdk/client/grpc/node"
	"github.com/cosmos/cosmos-sdk/codec"
	"github.com/cosmos/cosmos-sdk/codec/address"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	"github.com/cosmos/cosmos-sdk/runtime"
	"github.com/cosmos/cosmos-sdk/server/api"
	"github.com/cosmos/cosmos-sdk/server/config"
	servertypes "github.com/cosmos/cosmos-sdk/server/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/module"
	"github.com/cosmos/cosmos-sdk/x/auth"
	authkeeper "github.com/cosmos/cosmos-sdk/x/auth/keeper"
	authtx "github.com/cosmos/cosmos-sdk/x/auth/tx"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	"github.com/cosmos/cosmos-sdk/x/bank"
	bankkeeper "github.com/cosmos/cosmos-sdk/x/bank/keeper"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"
	"github.com/cosmos/cosmos-sdk/x/consensus"
	consensusparamkeeper "github.com/cosmos/cosmos-sdk/x/consensus/keeper"
	consensusparamtypes "github.com/cosmos/cosmos-sdk/x/consensus/types"
	"github.com/cosmos/cosmos-sdk/x/genutil"
	genutiltypes "github.com/cosmos/cosmos-sdk/x/genutil/types"
	"github.com/cosmos/cosmos-sdk/x/staking"
	gogoprotograpc "github.com/cosmos/gogoproto/grpc"

	"github.com/openalpha/share-vault/x/manager"
	managerkeeper "github.com/openalpha/share-vault/x/manager/keeper"
	managertypes "github.com/openalpha/share-vault/x/manager/types"
	"github.com/openalpha/share-vault/x/pauser"
	pauserkeeper "github.com/openalpha/share-vault/x/pauser/keeper"
	pausertypes "github.com/openalpha/share-vault/x/pauser/types"
	"github.com/openalpha/share-vault/x/strategy"
	strategykeeper "github.com/openalpha/share-vault/x/strategy/keeper"
	strategytypes "github.com/openalpha/share-vault/x/strategy/types"
)

const (
	Name = "sharevault"

	// endBlockThreshold is the EndBlocker latency above which a warning is logged
	endBlockThreshold = 100 * time.Millisecond
)

var (
	// DefaultNodeHome default home directories for the application daemon
	DefaultNodeHome string

	// ModuleBasics defines the module BasicManager used for codec registration
	ModuleBasics = module.NewBasicManager(
		auth.AppModuleBasic{},
		bank.AppModuleBasic{},
		staking.AppModuleBasic{},
		genutil.NewAppModuleBasic(genutiltypes.DefaultMessageValidator),
		consensus.AppModuleBasic{},
		pauser.AppModuleBasic{},
		strategy.AppModuleBasic{},
		manager.AppModuleBasic{},
	)
)

func init() {
	userHomeDir, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}
	DefaultNodeHome = filepath.Join(userHomeDir, ".sharevault")
}

// genesisModule pairs a module name with its genesis handlers
type genesisModule struct {
	name   string
	module module.HasGenesis
}

// App extends an ABCI application
type App struct {
	*baseapp.BaseApp

	legacyAmino       *codec.LegacyAmino
	appCodec          codec.Codec
	interfaceRegistry codectypes.InterfaceRegistry
	txConfig          client.TxConfig

	// Keys
	keys    map[string]*storetypes.KVStoreKey
	tkeys   map[string]*storetypes.TransientStoreKey
	memKeys map[string]*storetypes.MemoryStoreKey

	// SDK Keepers
	ConsensusParamsKeeper consensusparamkeeper.Keeper
	AccountKeeper         authkeeper.AccountKeeper
	BankKeeper            bankkeeper.BaseKeeper

	// Custom module keepers
	PauserKeeper   *pauserkeeper.Keeper
	StrategyKeeper *strategykeeper.Keeper
	ManagerKeeper  *managerkeeper.Keeper

	// Genesis order: accounts and balances first, then the flags the
	// strategy reads, then the strategy, then the share records.
	genesisModules []genesisModule

	// Module Manager
	BasicModuleManager module.BasicManager
}

// NewApp returns a new App instance
func NewApp(
	logger log.Logger,
	db dbm.DB,
	traceStore io.Writer,
	loadLatest bool,
	appOpts servertypes.AppOptions,
	baseAppOptions ...func(*baseapp.BaseApp),
) *App {
	encodingConfig := MakeEncodingConfig()
	appCodec := encodingConfig.Codec
	legacyAmino := encodingConfig.Amino
	interfaceRegistry := encodingConfig.InterfaceRegistry

	bApp := baseapp.NewBaseApp(Name, logger, db, encodingConfig.TxConfig.TxDecoder(), baseAppOptions...)
	bApp.SetCommitMultiStoreTracer(traceStore)
	bApp.SetInterfaceRegistry(interfaceRegistry)

	keys := storetypes.NewKVStoreKeys(
		authtypes.StoreKey,
		banktypes.StoreKey,
		pausertypes.StoreKey,
		strategytypes.StoreKey,
		managertypes.StoreKey,
		consensusparamtypes.StoreKey,
	)
	tkeys := storetypes.NewTransientStoreKeys()
	memKeys := storetypes.NewMemoryStoreKeys()

	app := &App{
		BaseApp:            bApp,
		legacyAmino:        legacyAmino,
		appCodec:           appCodec,
		interfaceRegistry:  interfaceRegistry,
		txConfig:           encodingConfig.TxConfig,
		keys:               keys,
		tkeys:              tkeys,
		memKeys:            memKeys,
		BasicModuleManager: ModuleBasics,
	}

	// Governance owns every privileged operation
	authority := authtypes.NewModuleAddress("gov").String()

	app.ConsensusParamsKeeper = consensusparamkeeper.NewKeeper(
		appCodec,
		runtime.NewKVStoreService(keys[consensusparamtypes.StoreKey]),
		authority,
		runtime.EventService{},
	)
	bApp.SetParamStore(app.ConsensusParamsKeeper.ParamsStore)

	maccPerms := ModuleAccountPermissions()

	addrCodec := address.NewBech32Codec(sdk.GetConfig().GetBech32AccountAddrPrefix())

	app.AccountKeeper = authkeeper.NewAccountKeeper(
		appCodec,
		runtime.NewKVStoreService(keys[authtypes.StoreKey]),
		authtypes.ProtoBaseAccount,
		maccPerms,
		addrCodec,
		sdk.GetConfig().GetBech32AccountAddrPrefix(),
		authority,
	)

	app.BankKeeper = bankkeeper.NewBaseKeeper(
		appCodec,
		runtime.NewKVStoreService(keys[banktypes.StoreKey]),
		app.AccountKeeper,
		BlockedModuleAccountAddrs(maccPerms),
		authority,
		logger,
	)

	app.PauserKeeper = pauserkeeper.NewKeeper(
		keys[pausertypes.StoreKey],
		authority,
		logger,
	)

	app.StrategyKeeper = strategykeeper.NewKeeper(
		appCodec,
		keys[strategytypes.StoreKey],
		app.BankKeeper,
		app.PauserKeeper,
		authority,
		logger,
	)

	app.ManagerKeeper = managerkeeper.NewKeeper(
		keys[managertypes.StoreKey],
		app.BankKeeper,
		app.StrategyKeeper,
		logger,
	)
	app.StrategyKeeper.SetShareKeeper(app.ManagerKeeper)

	app.genesisModules = []genesisModule{
		{authtypes.ModuleName, auth.NewAppModule(appCodec, app.AccountKeeper, nil, nil)},
		{banktypes.ModuleName, bank.NewAppModule(appCodec, app.BankKeeper, app.AccountKeeper, nil)},
		{pausertypes.ModuleName, pauser.NewAppModule(app.PauserKeeper)},
		{strategytypes.ModuleName, strategy.NewAppModule(app.StrategyKeeper)},
		{managertypes.ModuleName, manager.NewAppModule(app.ManagerKeeper)},
	}

	// Register message types with the interface registry
	pausertypes.RegisterInterfaces(interfaceRegistry)
	strategytypes.RegisterInterfaces(interfaceRegistry)
	managertypes.RegisterInterfaces(interfaceRegistry)

	// Register MsgServers for custom modules with the message service router
	pausertypes.RegisterMsgServer(bApp.MsgServiceRouter(), pauserkeeper.NewMsgServerImpl(app.PauserKeeper))
	strategytypes.RegisterMsgServer(bApp.MsgServiceRouter(), strategykeeper.NewMsgServerImpl(app.StrategyKeeper))
	managertypes.RegisterMsgServer(bApp.MsgServiceRouter(), managerkeeper.NewMsgServerImpl(app.ManagerKeeper))

	// Register QueryServers for SDK modules
	authtypes.RegisterQueryServer(bApp.GRPCQueryRouter(), authkeeper.NewQueryServer(app.AccountKeeper))
	banktypes.RegisterQueryServer(bApp.GRPCQueryRouter(), bankkeeper.NewQuerier(&app.BankKeeper))

	app.MountKVStores(keys)
	app.MountTransientStores(tkeys)
	app.MountMemoryStores(memKeys)

	app.SetInitChainer(app.InitChainer)
	app.SetBeginBlocker(app.BeginBlocker)
	app.SetEndBlocker(app.EndBlocker)

	if loadLatest {
		if err := app.LoadLatestVersion(); err != nil {
			panic(err)
		}
	}

	return app
}

// Name returns the name of the App
func (app *App) Name() string { return app.BaseApp.Name() }

// BeginBlocker executes begin block logic
func (app *App) BeginBlocker(ctx sdk.Context) (sdk.BeginBlock, error) {
	return sdk.BeginBlock{}, nil
}

// EndBlocker refreshes pool gauges and checks the share invariants
func (app *App) EndBlocker(ctx sdk.Context) (sdk.EndBlock, error) {
	logger := app.Logger()
	start := time.Now()

	if err := app.StrategyKeeper.EndBlocker(ctx); err != nil {
		logger.Error("strategy end block failed", "block", ctx.BlockHeight(), "error", err)
	}

	duration := time.Since(start)
	if duration > endBlockThreshold {
		logger.Warn("EndBlocker exceeded latency threshold",
			"block", ctx.BlockHeight(),
			"duration_ms", duration.Milliseconds(),
			"threshold_ms", endBlockThreshold.Milliseconds(),
		)
	}

	return sdk.EndBlock{}, nil
}

// StakingGenesisState represents the staking module's genesis state
type StakingGenesisState struct {
	Validators []struct {
		ConsensusPubkey struct {
			Type string `json:"@type"`
			Key  string `json:"key"`
		} `json:"consensus_pubkey"`
		Tokens string `json:"tokens"`
		Status string `json:"status"`
	} `json:"validators"`
}

// GenutilGenesisState represents the genutil module's genesis state
type GenutilGenesisState struct {
	GenTxs []json.RawMessage `json:"gen_txs"`
}

// GenTx represents a genesis transaction
type GenTx struct {
	Body struct {
		Messages []json.RawMessage `json:"messages"`
	} `json:"body"`
}

// MsgCreateValidator represents the create validator message
type MsgCreateValidator struct {
	Type   string `json:"@type"`
	Pubkey struct {
		Type string `json:"@type"`
		Key  string `json:"key"`
	} `json:"pubkey"`
}

// InitChainer loads module genesis and derives the initial validator set
func (app *App) InitChainer(ctx sdk.Context, req *abci.RequestInitChain) (*abci.ResponseInitChain, error) {
	var genesisState map[string]json.RawMessage
	if err := json.Unmarshal(req.AppStateBytes, &genesisState); err != nil {
		return nil, err
	}

	for _, gm := range app.genesisModules {
		raw, ok := genesisState[gm.name]
		if !ok {
			raw = gm.module.DefaultGenesis(app.appCodec)
		}
		gm.module.InitGenesis(ctx, app.appCodec, raw)
	}

	if len(req.Validators) > 0 {
		return &abci.ResponseInitChain{
			Validators: req.Validators,
		}, nil
	}

	validators := stakingValidators(genesisState)
	if len(validators) == 0 {
		validators = gentxValidators(genesisState)
	}

	return &abci.ResponseInitChain{
		Validators: validators,
	}, nil
}

func ed25519Update(key string) (abci.ValidatorUpdate, bool) {
	pubKeyBytes, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return abci.ValidatorUpdate{}, false
	}
	return abci.ValidatorUpdate{
		PubKey: cmtcrypto.PublicKey{
			Sum: &cmtcrypto.PublicKey_Ed25519{
				Ed25519: pubKeyBytes,
			},
		},
		Power: 100,
	}, true
}

func stakingValidators(genesisState map[string]json.RawMessage) []abci.ValidatorUpdate {
	raw, ok := genesisState["staking"]
	if !ok {
		return nil
	}
	var stakingState StakingGenesisState
	if err := json.Unmarshal(raw, &stakingState); err != nil {
		return nil
	}

	var validators []abci.ValidatorUpdate
	for _, val := range stakingState.Validators {
		if val.Status != "BOND_STATUS_BONDED" {
			continue
		}
		if update, ok := ed25519Update(val.ConsensusPubkey.Key); ok {
			validators = append(validators, update)
		}
	}
	return validators
}

func gentxValidators(genesisState map[string]json.RawMessage) []abci.ValidatorUpdate {
	raw, ok := genesisState["genutil"]
	if !ok {
		return nil
	}
	var genutilState GenutilGenesisState
	if err := json.Unmarshal(raw, &genutilState); err != nil {
		return nil
	}

	var validators []abci.ValidatorUpdate
	for _, genTxRaw := range genutilState.GenTxs {
		var genTx GenTx
		if err := json.Unmarshal(genTxRaw, &genTx); err != nil {
			continue
		}
		for _, msgRaw := range genTx.Body.Messages {
			var msg MsgCreateValidator
			if err := json.Unmarshal(msgRaw, &msg); err != nil {
				continue
			}
			if msg.Type != "/cosmos.staking.v1beta1.MsgCreateValidator" {
				continue
			}
			if update, ok := ed25519Update(msg.Pubkey.Key); ok {
				validators = append(validators, update)
			}
		}
	}
	return validators
}

// LoadHeight loads a particular height
func (app *App) LoadHeight(height int64) error {
	return app.LoadVersion(height)
}

// LegacyAmino returns the legacy amino codec
func (app *App) LegacyAmino() *codec.LegacyAmino {
	return app.legacyAmino
}

// AppCodec returns the app codec
func (app *App) AppCodec() codec.Codec {
	return app.appCodec
}

// InterfaceRegistry returns the InterfaceRegistry
func (app *App) InterfaceRegistry() codectypes.InterfaceRegistry {
	return app.interfaceRegistry
}

// RegisterAPIRoutes registers all application module routes
func (app *App) RegisterAPIRoutes(apiSvr *api.Server, apiConfig config.APIConfig) {
	clientCtx := apiSvr.ClientCtx
	ModuleBasics.RegisterGRPCGatewayRoutes(clientCtx, apiSvr.GRPCGatewayRouter)
}

// GetKey returns a store key
func (app *App) GetKey(storeKey string) *storetypes.KVStoreKey {
	return app.keys[storeKey]
}

// GetTKey returns a transient store key
func (app *App) GetTKey(storeKey string) *storetypes.TransientStoreKey {
	return app.tkeys[storeKey]
}

// GetMemKey returns a memory store key
func (app *App) GetMemKey(storeKey string) *storetypes.MemoryStoreKey {
	return app.memKeys[storeKey]
}

// TxConfig returns the transaction config
func (app *App) TxConfig() client.TxConfig {
	return app.txConfig
}

// AutoCliOpts returns the autocli options for the app
func (app *App) AutoCliOpts() map[string]appmodule.AppModule {
	return map[string]appmodule.AppModule{}
}

// RegisterTxService implements the Application.RegisterTxService method
func (app *App) RegisterTxService(clientCtx client.Context) {
	authtx.RegisterTxService(app.BaseApp.GRPCQueryRouter(), clientCtx, app.BaseApp.Simulate, app.interfaceRegistry)
}

// RegisterTendermintService implements the Application.RegisterTendermintService method
func (app *App) RegisterTendermintService(clientCtx client.Context) {
	cmtservice.RegisterTendermintService(
		clientCtx,
		app.BaseApp.GRPCQueryRouter(),
		app.interfaceRegistry,
		app.Query,
	)
}

// RegisterNodeService implements the Application.RegisterNodeService method
func (app *App) RegisterNodeService(clientCtx client.Context, cfg config.Config) {
	nodeservice.RegisterNodeService(clientCtx, app.BaseApp.GRPCQueryRouter(), cfg)
}

// RegisterGRPCServer registers the app's gRPC services
func (app *App) RegisterGRPCServer(server gogoprotograpc.Server) {}

// SimulationManager returns the app's simulation manager
func (app *App) SimulationManager() *module.SimulationManager {
	return nil
}

// ModuleAccountPermissions returns the module accounts and their permissions.
// The strategy custodies the pool; the manager only relays.
func ModuleAccountPermissions() map[string][]string {
	return map[string][]string{
		authtypes.FeeCollectorName: nil,
		strategytypes.ModuleName:   nil,
		managertypes.ModuleName:    nil,
	}
}

// BlockedModuleAccountAddrs returns module account addresses that should not
// receive coins
func BlockedModuleAccountAddrs(maccPerms map[string][]string) map[string]bool {
	blockedAddrs := make(map[string]bool)
	for acc := range maccPerms {
		blockedAddrs[authtypes.NewModuleAddress(acc).String()] = true
	}
	// The pool receives deposits and donations
	delete(blockedAddrs, authtypes.NewModuleAddress(strategytypes.ModuleName).String())
	return blockedAddrs
}
