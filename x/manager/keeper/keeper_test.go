package keeper

import (
	"context"
	"testing"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	"github.com/cosmos/cosmos-sdk/testutil"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	"github.com/stretchr/testify/suite"

	"github.com/openalpha/share-vault/x/manager/types"
	pauserkeeper "github.com/openalpha/share-vault/x/pauser/keeper"
	pausertypes "github.com/openalpha/share-vault/x/pauser/types"
	strategykeeper "github.com/openalpha/share-vault/x/strategy/keeper"
	strategytypes "github.com/openalpha/share-vault/x/strategy/types"
)

const denom = "stake"

var authority = authtypes.NewModuleAddress("gov").String()

// storeBank keeps balances in the multistore so cache contexts roll them back
type storeBank struct {
	key storetypes.StoreKey
}

func (b storeBank) get(ctx sdk.Context, addr sdk.AccAddress, denom string) math.Int {
	bz := ctx.KVStore(b.key).Get(append(addr.Bytes(), []byte(denom)...))
	if bz == nil {
		return math.ZeroInt()
	}
	var amount math.Int
	if err := amount.Unmarshal(bz); err != nil {
		panic(err)
	}
	return amount
}

func (b storeBank) set(ctx sdk.Context, addr sdk.AccAddress, denom string, amount math.Int) {
	bz, err := amount.Marshal()
	if err != nil {
		panic(err)
	}
	ctx.KVStore(b.key).Set(append(addr.Bytes(), []byte(denom)...), bz)
}

func (b storeBank) send(ctx sdk.Context, from, to sdk.AccAddress, amt sdk.Coins) error {
	for _, coin := range amt {
		have := b.get(ctx, from, coin.Denom)
		if have.LT(coin.Amount) {
			return sdkerrors.ErrInsufficientFunds.Wrapf("%s < %s", have, coin)
		}
		b.set(ctx, from, coin.Denom, have.Sub(coin.Amount))
		b.set(ctx, to, coin.Denom, b.get(ctx, to, coin.Denom).Add(coin.Amount))
	}
	return nil
}

func (b storeBank) GetBalance(ctx context.Context, addr sdk.AccAddress, denom string) sdk.Coin {
	return sdk.NewCoin(denom, b.get(sdk.UnwrapSDKContext(ctx), addr, denom))
}

func (b storeBank) SendCoinsFromModuleToAccount(ctx context.Context, module string, to sdk.AccAddress, amt sdk.Coins) error {
	return b.send(sdk.UnwrapSDKContext(ctx), authtypes.NewModuleAddress(module), to, amt)
}

func (b storeBank) SendCoinsFromAccountToModule(ctx context.Context, from sdk.AccAddress, module string, amt sdk.Coins) error {
	return b.send(sdk.UnwrapSDKContext(ctx), from, authtypes.NewModuleAddress(module), amt)
}

type ManagerTestSuite struct {
	suite.Suite

	ctx       sdk.Context
	bank      storeBank
	pauser    *pauserkeeper.Keeper
	strategy  *strategykeeper.Keeper
	keeper    *Keeper
	staker    sdk.AccAddress
	recipient sdk.AccAddress
}

func TestManagerTestSuite(t *testing.T) {
	suite.Run(t, new(ManagerTestSuite))
}

func (s *ManagerTestSuite) SetupTest() {
	keys := storetypes.NewKVStoreKeys("bank", pausertypes.StoreKey, strategytypes.StoreKey, types.StoreKey)
	s.ctx = testutil.DefaultContextWithKeys(keys, nil, nil)
	logger := log.NewNopLogger()

	s.bank = storeBank{key: keys["bank"]}
	s.pauser = pauserkeeper.NewKeeper(keys[pausertypes.StoreKey], authority, logger)
	s.strategy = strategykeeper.NewKeeper(codec.NewProtoCodec(codectypes.NewInterfaceRegistry()),
		keys[strategytypes.StoreKey], s.bank, s.pauser, authority, logger)
	s.keeper = NewKeeper(keys[types.StoreKey], s.bank, s.strategy, logger)
	s.strategy.SetShareKeeper(s.keeper)

	s.Require().NoError(s.strategy.InitGenesis(s.ctx, strategytypes.DefaultGenesis(denom, s.keeper.Address().String())))
	s.Require().NoError(s.keeper.InitGenesis(s.ctx, types.DefaultGenesis()))

	s.staker = sdk.AccAddress([]byte("staker______________"))
	s.recipient = sdk.AccAddress([]byte("recipient___________"))
	s.bank.set(s.ctx, s.staker, denom, math.NewInt(5_000_000_000))
}

func (s *ManagerTestSuite) balance(addr sdk.AccAddress) int64 {
	return s.bank.get(s.ctx, addr, denom).Int64()
}

func (s *ManagerTestSuite) userShares() math.Int {
	return s.keeper.GetUserShares(s.ctx, s.staker, strategytypes.ModuleName)
}

func (s *ManagerTestSuite) TestDeposit() {
	shares, err := s.keeper.DepositIntoStrategy(s.ctx, s.staker, sdk.NewInt64Coin(denom, 2_000_000_000))
	s.Require().NoError(err)
	s.Require().Equal(int64(2_000_000_000), shares.Int64())
	s.Require().Equal(int64(2_000_000_000), s.userShares().Int64())
	s.Require().Equal(int64(3_000_000_000), s.balance(s.staker))
	s.Require().Equal(int64(2_000_000_000), s.balance(s.strategy.PoolAddress()))
	s.Require().Equal(int64(2_000_000_000), s.keeper.TotalUserShares(s.ctx, strategytypes.ModuleName).Int64())
}

func (s *ManagerTestSuite) TestDeposit_RollsBackTransfer() {
	_, err := s.keeper.DepositIntoStrategy(s.ctx, s.staker, sdk.NewInt64Coin(denom, 5))
	s.Require().ErrorIs(err, strategytypes.ErrBelowMinimumShares)
	s.Require().Equal(int64(5_000_000_000), s.balance(s.staker))
	s.Require().Equal(int64(0), s.balance(s.strategy.PoolAddress()))
	s.Require().True(s.userShares().IsZero())
}

func (s *ManagerTestSuite) TestDeposit_Paused() {
	_, err := s.pauser.Pause(s.ctx, authority, uint8(strategytypes.PausedDeposits))
	s.Require().NoError(err)

	_, err = s.keeper.DepositIntoStrategy(s.ctx, s.staker, sdk.NewInt64Coin(denom, 2_000_000_000))
	s.Require().ErrorIs(err, strategytypes.ErrOperationPaused)
	s.Require().Equal(int64(5_000_000_000), s.balance(s.staker))
}

func (s *ManagerTestSuite) TestDeposit_InsufficientFunds() {
	_, err := s.keeper.DepositIntoStrategy(s.ctx, s.staker, sdk.NewInt64Coin(denom, 6_000_000_000))
	s.Require().ErrorIs(err, sdkerrors.ErrInsufficientFunds)
	s.Require().True(s.strategy.TotalShares(s.ctx).IsZero())
}

func (s *ManagerTestSuite) TestDeposit_WrongDenom() {
	s.bank.set(s.ctx, s.staker, "other", math.NewInt(5_000_000_000))
	_, err := s.keeper.DepositIntoStrategy(s.ctx, s.staker, sdk.NewInt64Coin("other", 2_000_000_000))
	s.Require().ErrorIs(err, strategytypes.ErrAssetMismatch)
	s.Require().Equal(int64(5_000_000_000), s.bank.get(s.ctx, s.staker, "other").Int64())
}

func (s *ManagerTestSuite) TestWithdraw_WithYield() {
	_, err := s.keeper.DepositIntoStrategy(s.ctx, s.staker, sdk.NewInt64Coin(denom, 2_000_000_000))
	s.Require().NoError(err)
	s.bank.set(s.ctx, s.strategy.PoolAddress(), denom, math.NewInt(4_000_000_000)) // yield

	remaining, err := s.keeper.WithdrawFromStrategy(s.ctx, s.staker, s.recipient, math.NewInt(1_000_000_000))
	s.Require().NoError(err)
	s.Require().Equal(int64(1_000_000_000), remaining.Int64())
	s.Require().Equal(int64(2_000_000_000), s.balance(s.recipient))
	s.Require().Equal(int64(1_000_000_000), s.strategy.TotalShares(s.ctx).Int64())

	_, broken := strategykeeper.AllInvariants(s.strategy)(s.ctx)
	s.Require().False(broken)
}

func (s *ManagerTestSuite) TestWithdraw_All() {
	_, err := s.keeper.DepositIntoStrategy(s.ctx, s.staker, sdk.NewInt64Coin(denom, 2_000_000_000))
	s.Require().NoError(err)

	remaining, err := s.keeper.WithdrawFromStrategy(s.ctx, s.staker, s.staker, math.NewInt(2_000_000_000))
	s.Require().NoError(err)
	s.Require().True(remaining.IsZero())
	s.Require().Equal(int64(5_000_000_000), s.balance(s.staker))
	s.Require().True(s.strategy.TotalShares(s.ctx).IsZero())

	// zero records are deleted
	s.Require().Nil(s.ctx.KVStore(s.keeper.storeKey).Get(types.UserSharesKey(strategytypes.ModuleName, s.staker)))
}

func (s *ManagerTestSuite) TestWithdraw_InsufficientUserShares() {
	_, err := s.keeper.DepositIntoStrategy(s.ctx, s.staker, sdk.NewInt64Coin(denom, 2_000_000_000))
	s.Require().NoError(err)

	_, err = s.keeper.WithdrawFromStrategy(s.ctx, s.recipient, s.recipient, math.NewInt(1))
	s.Require().ErrorIs(err, types.ErrInsufficientUserShares)

	_, err = s.keeper.WithdrawFromStrategy(s.ctx, s.staker, s.staker, math.NewInt(2_000_000_001))
	s.Require().ErrorIs(err, types.ErrInsufficientUserShares)
}

func (s *ManagerTestSuite) TestWithdraw_RollsBackDebit() {
	_, err := s.keeper.DepositIntoStrategy(s.ctx, s.staker, sdk.NewInt64Coin(denom, 2_000_000_000))
	s.Require().NoError(err)

	// would leave the pool below the minimum
	_, err = s.keeper.WithdrawFromStrategy(s.ctx, s.staker, s.staker, math.NewInt(1_500_000_000))
	s.Require().ErrorIs(err, strategytypes.ErrBelowMinimumShares)
	s.Require().Equal(int64(2_000_000_000), s.userShares().Int64())

	_, err = s.pauser.Pause(s.ctx, authority, uint8(strategytypes.PausedWithdrawals))
	s.Require().NoError(err)
	_, err = s.keeper.WithdrawFromStrategy(s.ctx, s.staker, s.staker, math.NewInt(1_000_000_000))
	s.Require().ErrorIs(err, strategytypes.ErrOperationPaused)
	s.Require().Equal(int64(2_000_000_000), s.userShares().Int64())
	s.Require().Equal(int64(3_000_000_000), s.balance(s.staker))
}

func (s *ManagerTestSuite) TestWithdraw_NonPositive() {
	_, err := s.keeper.WithdrawFromStrategy(s.ctx, s.staker, s.staker, math.ZeroInt())
	s.Require().ErrorIs(err, types.ErrInvalidAmount)
}

func (s *ManagerTestSuite) TestMsgServer() {
	srv := NewMsgServerImpl(s.keeper)

	_, err := srv.DepositIntoStrategy(s.ctx, &types.MsgDepositIntoStrategy{Staker: "bad", Amount: sdk.NewInt64Coin(denom, 1)})
	s.Require().ErrorIs(err, types.ErrInvalidAmount)

	res, err := srv.DepositIntoStrategy(s.ctx, &types.MsgDepositIntoStrategy{
		Staker: s.staker.String(),
		Amount: sdk.NewInt64Coin(denom, 2_000_000_000),
	})
	s.Require().NoError(err)
	s.Require().Equal(int64(2_000_000_000), res.Shares.Int64())

	_, err = srv.WithdrawFromStrategy(s.ctx, &types.MsgWithdrawFromStrategy{
		Staker:    s.staker.String(),
		Recipient: "bad",
		Shares:    math.NewInt(1),
	})
	s.Require().ErrorIs(err, types.ErrInvalidAmount)

	wres, err := srv.WithdrawFromStrategy(s.ctx, &types.MsgWithdrawFromStrategy{
		Staker:    s.staker.String(),
		Recipient: s.recipient.String(),
		Shares:    math.NewInt(1_000_000_000),
	})
	s.Require().NoError(err)
	s.Require().Equal(int64(1_000_000_000), wres.RemainingShares.Int64())
}

func (s *ManagerTestSuite) TestGenesis() {
	_, err := s.keeper.DepositIntoStrategy(s.ctx, s.staker, sdk.NewInt64Coin(denom, 2_000_000_000))
	s.Require().NoError(err)

	exported := s.keeper.ExportGenesis(s.ctx)
	s.Require().Len(exported.UserShares, 1)
	s.Require().Equal(s.staker.String(), exported.UserShares[0].User)
	s.Require().NoError(exported.Validate())

	dup := &types.GenesisState{UserShares: append(exported.UserShares, exported.UserShares[0])}
	s.Require().ErrorIs(dup.Validate(), types.ErrInvalidGenesis)

	zero := &types.GenesisState{UserShares: []types.UserShares{{Strategy: "strategy", User: s.staker.String(), Shares: math.ZeroInt()}}}
	s.Require().ErrorIs(zero.Validate(), types.ErrInvalidGenesis)

	s.keeper.SetUserShares(s.ctx, s.staker, strategytypes.ModuleName, math.ZeroInt())
	s.Require().NoError(s.keeper.InitGenesis(s.ctx, exported))
	s.Require().Equal(int64(2_000_000_000), s.userShares().Int64())
}
