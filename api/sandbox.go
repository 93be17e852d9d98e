package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"cosmossdk.io/store"
	storemetrics "cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	tmproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"

	"github.com/openalpha/share-vault/api/types"
	managerkeeper "github.com/openalpha/share-vault/x/manager/keeper"
	managertypes "github.com/openalpha/share-vault/x/manager/types"
	pauserkeeper "github.com/openalpha/share-vault/x/pauser/keeper"
	pausertypes "github.com/openalpha/share-vault/x/pauser/types"
	strategykeeper "github.com/openalpha/share-vault/x/strategy/keeper"
	strategytypes "github.com/openalpha/share-vault/x/strategy/types"
)

// EventTypeFaucet is emitted when the faucet credits an account
const EventTypeFaucet = "sandbox_faucet"

var _ types.StrategyService = (*Sandbox)(nil)

// SandboxConfig configures the in-memory ledger
type SandboxConfig struct {
	// Denom is the strategy's underlying asset
	Denom string
	// Authority owns the pause flags and TVL limits; defaults to the gov module address
	Authority string
	// Params are the initial TVL limits
	Params strategytypes.Params
}

// DefaultSandboxConfig returns the default sandbox configuration
func DefaultSandboxConfig() SandboxConfig {
	return SandboxConfig{
		Denom:     "stake",
		Authority: authtypes.NewModuleAddress("gov").String(),
		Params:    strategytypes.DefaultParams(),
	}
}

// Sandbox runs the real strategy, pauser and manager keepers over an
// in-memory multistore. All calls are serialized by a single mutex and every
// successful write is committed as its own block.
type Sandbox struct {
	mu sync.Mutex

	cms    storetypes.CommitMultiStore
	ctx    sdk.Context
	height int64

	bank     sandboxBank
	pauser   *pauserkeeper.Keeper
	strategy *strategykeeper.Keeper
	manager  *managerkeeper.Keeper

	strategyQuery *strategykeeper.QueryServer
	managerMsgs   managertypes.MsgServer
	pauserMsgs    pausertypes.MsgServer

	denom     string
	authority string
	publisher types.EventPublisher
	logger    log.Logger
}

// NewSandbox builds and initializes an in-memory ledger
func NewSandbox(cfg SandboxConfig, logger log.Logger) (*Sandbox, error) {
	if cfg.Denom == "" {
		cfg.Denom = DefaultSandboxConfig().Denom
	}
	if cfg.Authority == "" {
		cfg.Authority = DefaultSandboxConfig().Authority
	}
	if cfg.Params.MaxPerDeposit.IsNil() || cfg.Params.MaxTotalDeposits.IsNil() {
		cfg.Params = strategytypes.DefaultParams()
	}
	if err := sdk.ValidateDenom(cfg.Denom); err != nil {
		return nil, types.ErrBadRequest.Wrap(err.Error())
	}

	keys := storetypes.NewKVStoreKeys(
		"bank",
		pausertypes.StoreKey,
		strategytypes.StoreKey,
		managertypes.StoreKey,
	)

	db := dbm.NewMemDB()
	cms := store.NewCommitMultiStore(db, logger, storemetrics.NewNoOpMetrics())
	for _, key := range keys {
		cms.MountStoreWithDB(key, storetypes.StoreTypeIAVL, db)
	}
	if err := cms.LoadLatestVersion(); err != nil {
		return nil, fmt.Errorf("failed to load store: %w", err)
	}

	ctx := sdk.NewContext(cms, tmproto.Header{Height: 1, Time: time.Now()}, false, logger)
	cdc := codec.NewProtoCodec(codectypes.NewInterfaceRegistry())

	bank := sandboxBank{storeKey: keys["bank"]}
	pk := pauserkeeper.NewKeeper(keys[pausertypes.StoreKey], cfg.Authority, logger)
	sk := strategykeeper.NewKeeper(cdc, keys[strategytypes.StoreKey], bank, pk, cfg.Authority, logger)
	mk := managerkeeper.NewKeeper(keys[managertypes.StoreKey], bank, sk, logger)
	sk.SetShareKeeper(mk)

	pk.InitGenesis(ctx, pausertypes.DefaultGenesis())
	gs := strategytypes.DefaultGenesis(cfg.Denom, mk.Address().String())
	gs.Params = cfg.Params
	if err := sk.InitGenesis(ctx, gs); err != nil {
		return nil, err
	}
	if err := mk.InitGenesis(ctx, managertypes.DefaultGenesis()); err != nil {
		return nil, err
	}
	cms.Commit()

	return &Sandbox{
		cms:           cms,
		ctx:           ctx,
		height:        1,
		bank:          bank,
		pauser:        pk,
		strategy:      sk,
		manager:       mk,
		strategyQuery: strategykeeper.NewQueryServerImpl(sk),
		managerMsgs:   managerkeeper.NewMsgServerImpl(mk),
		pauserMsgs:    pauserkeeper.NewMsgServerImpl(pk),
		denom:         cfg.Denom,
		authority:     cfg.Authority,
		logger:        logger.With("module", "api/sandbox"),
	}, nil
}

// SetPublisher attaches the receiver of committed ledger events
func (s *Sandbox) SetPublisher(p types.EventPublisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publisher = p
}

// Denom returns the underlying asset
func (s *Sandbox) Denom() string {
	return s.denom
}

// PoolAddress returns the custodian address; faucet credits to it act as yield
func (s *Sandbox) PoolAddress() sdk.AccAddress {
	return s.strategy.PoolAddress()
}

// StrategyKeeper exposes the strategy keeper for callers that need the
// conversion hooks
func (s *Sandbox) StrategyKeeper() *strategykeeper.Keeper {
	return s.strategy
}

// execute runs fn in a cached context, commits on success and publishes the
// emitted events. A failed fn leaves no trace in the store.
func (s *Sandbox) execute(fn func(ctx sdk.Context) error) error {
	ctx := s.ctx.WithEventManager(sdk.NewEventManager())
	cacheCtx, write := ctx.CacheContext()
	if err := fn(cacheCtx); err != nil {
		return err
	}
	write()

	s.cms.Commit()
	s.height++
	s.ctx = s.ctx.WithBlockHeight(s.height).WithBlockTime(time.Now())
	if err := s.strategy.EndBlocker(s.ctx); err != nil {
		s.logger.Error("end block failed", "height", s.height, "error", err)
	}

	if s.publisher != nil {
		s.publisher.PublishLedgerEvents(toLedgerEvents(ctx.EventManager().Events(), s.height))
	}
	return nil
}

func toLedgerEvents(events sdk.Events, height int64) []types.LedgerEvent {
	now := time.Now().UnixMilli()
	out := make([]types.LedgerEvent, 0, len(events))
	for _, ev := range events {
		attrs := make(map[string]string, len(ev.Attributes))
		for _, attr := range ev.Attributes {
			attrs[attr.Key] = attr.Value
		}
		out = append(out, types.LedgerEvent{
			Type:       ev.Type,
			Height:     height,
			Attributes: attrs,
			Timestamp:  now,
		})
	}
	return out
}

// ============ Reads ============

// PoolState returns the pool snapshot
func (s *Sandbox) PoolState(_ context.Context) (*types.PoolState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.strategyQuery.State(s.ctx, &strategytypes.QueryStateRequest{})
	if err != nil {
		return nil, err
	}
	params := s.strategy.GetParams(s.ctx)
	return &types.PoolState{
		UnderlyingDenom: res.State.UnderlyingDenom,
		Manager:         res.State.Manager,
		TotalShares:     res.State.TotalShares.String(),
		Balance:         res.Balance.String(),
		ExchangeRate:    res.ExchangeRate.String(),
		MaxPerDeposit:   params.MaxPerDeposit.String(),
		MaxTotal:        params.MaxTotalDeposits.String(),
		Description:     s.strategy.Description(),
		PausedStatus:    s.pauser.PausedStatus(s.ctx),
		Height:          s.height,
	}, nil
}

// SharesToUnderlying converts shares at the current rate
func (s *Sandbox) SharesToUnderlying(_ context.Context, shares string) (*types.Conversion, error) {
	amount, err := types.ParseAmount("shares", shares)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.strategyQuery.SharesToUnderlying(s.ctx, &strategytypes.QuerySharesToUnderlyingRequest{Shares: amount})
	if err != nil {
		return nil, err
	}
	return &types.Conversion{Input: amount.String(), Output: res.Amount.String()}, nil
}

// UnderlyingToShares converts an underlying amount at the current rate
func (s *Sandbox) UnderlyingToShares(_ context.Context, amount string) (*types.Conversion, error) {
	value, err := types.ParseAmount("amount", amount)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.strategyQuery.UnderlyingToShares(s.ctx, &strategytypes.QueryUnderlyingToSharesRequest{Amount: value})
	if err != nil {
		return nil, err
	}
	return &types.Conversion{Input: value.String(), Output: res.Shares.String()}, nil
}

// UserPosition returns a user's shares, their value and the user's wallet balance
func (s *Sandbox) UserPosition(_ context.Context, user string) (*types.UserPosition, error) {
	addr, err := types.ParseAddress("user", user)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.strategyQuery.User(s.ctx, &strategytypes.QueryUserRequest{User: addr.String()})
	if err != nil {
		return nil, err
	}
	return &types.UserPosition{
		User:       res.User,
		Shares:     res.Shares.String(),
		Underlying: res.Underlying.String(),
		Balance:    s.bank.balance(s.ctx, addr, s.denom).String(),
	}, nil
}

// ============ Writes ============

// Deposit moves the staker's asset into the pool through the manager
func (s *Sandbox) Deposit(_ context.Context, req *types.DepositRequest) (*types.DepositResponse, error) {
	staker, err := types.ParseAddress("staker", req.Staker)
	if err != nil {
		return nil, err
	}
	amount, err := types.ParseAmount("amount", req.Amount)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var shares math.Int
	err = s.execute(func(ctx sdk.Context) error {
		res, err := s.managerMsgs.DepositIntoStrategy(ctx, &managertypes.MsgDepositIntoStrategy{
			Staker: staker.String(),
			Amount: sdk.NewCoin(s.denom, amount),
		})
		if err != nil {
			return err
		}
		shares = res.Shares
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &types.DepositResponse{
		Staker:      staker.String(),
		Amount:      amount.String(),
		Shares:      shares.String(),
		TotalShares: s.strategy.TotalShares(s.ctx).String(),
	}, nil
}

// Withdraw redeems the staker's shares to the recipient (the staker by default)
func (s *Sandbox) Withdraw(_ context.Context, req *types.WithdrawRequest) (*types.WithdrawResponse, error) {
	staker, err := types.ParseAddress("staker", req.Staker)
	if err != nil {
		return nil, err
	}
	recipient := staker
	if req.Recipient != "" {
		if recipient, err = types.ParseAddress("recipient", req.Recipient); err != nil {
			return nil, err
		}
	}
	shares, err := types.ParseAmount("shares", req.Shares)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.bank.balance(s.ctx, recipient, s.denom)
	var remaining math.Int
	err = s.execute(func(ctx sdk.Context) error {
		res, err := s.managerMsgs.WithdrawFromStrategy(ctx, &managertypes.MsgWithdrawFromStrategy{
			Staker:    staker.String(),
			Recipient: recipient.String(),
			Shares:    shares,
		})
		if err != nil {
			return err
		}
		remaining = res.RemainingShares
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &types.WithdrawResponse{
		Staker:          staker.String(),
		Recipient:       recipient.String(),
		Shares:          shares.String(),
		Payout:          s.bank.balance(s.ctx, recipient, s.denom).Sub(before).String(),
		RemainingShares: remaining.String(),
		TotalShares:     s.strategy.TotalShares(s.ctx).String(),
	}, nil
}

// SetPaused sets or clears one pause flag as the configured authority
func (s *Sandbox) SetPaused(_ context.Context, flag uint8, paused bool) (*types.PauseResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var status uint64
	err := s.execute(func(ctx sdk.Context) error {
		if paused {
			res, err := s.pauserMsgs.Pause(ctx, &pausertypes.MsgPause{Authority: s.authority, Flag: flag})
			if err != nil {
				return err
			}
			status = res.PausedStatus
			return nil
		}
		res, err := s.pauserMsgs.Unpause(ctx, &pausertypes.MsgUnpause{Authority: s.authority, Flag: flag})
		if err != nil {
			return err
		}
		status = res.PausedStatus
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &types.PauseResponse{Flag: flag, Paused: paused, PausedStatus: status}, nil
}

// Faucet credits an account with the underlying asset
func (s *Sandbox) Faucet(_ context.Context, req *types.FaucetRequest) (*types.FaucetResponse, error) {
	addr, err := types.ParseAddress("address", req.Address)
	if err != nil {
		return nil, err
	}
	amount, err := types.ParseAmount("amount", req.Amount)
	if err != nil {
		return nil, err
	}
	if amount.IsZero() {
		return nil, types.ErrBadRequest.Wrap("amount must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.execute(func(ctx sdk.Context) error {
		coin := sdk.NewCoin(s.denom, amount)
		if err := s.bank.Mint(ctx, addr, sdk.NewCoins(coin)); err != nil {
			return err
		}
		ctx.EventManager().EmitEvent(sdk.NewEvent(
			EventTypeFaucet,
			sdk.NewAttribute("address", addr.String()),
			sdk.NewAttribute(strategytypes.AttributeKeyAmount, coin.String()),
		))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &types.FaucetResponse{
		Address: addr.String(),
		Balance: s.bank.balance(s.ctx, addr, s.denom).String(),
	}, nil
}
