package keeper

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/share-vault/x/manager/types"
)

var _ types.MsgServer = (*msgServer)(nil)

type msgServer struct {
	keeper *Keeper
}

// NewMsgServerImpl returns an implementation of the MsgServer interface
func NewMsgServerImpl(keeper *Keeper) types.MsgServer {
	return &msgServer{keeper: keeper}
}

// DepositIntoStrategy handles MsgDepositIntoStrategy
func (m *msgServer) DepositIntoStrategy(goCtx context.Context, msg *types.MsgDepositIntoStrategy) (*types.MsgDepositIntoStrategyResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	staker, _ := sdk.AccAddressFromBech32(msg.Staker)

	shares, err := m.keeper.DepositIntoStrategy(sdk.UnwrapSDKContext(goCtx), staker, msg.Amount)
	if err != nil {
		return nil, err
	}
	return &types.MsgDepositIntoStrategyResponse{Shares: shares}, nil
}

// WithdrawFromStrategy handles MsgWithdrawFromStrategy
func (m *msgServer) WithdrawFromStrategy(goCtx context.Context, msg *types.MsgWithdrawFromStrategy) (*types.MsgWithdrawFromStrategyResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	staker, _ := sdk.AccAddressFromBech32(msg.Staker)
	recipient, _ := sdk.AccAddressFromBech32(msg.Recipient)

	remaining, err := m.keeper.WithdrawFromStrategy(sdk.UnwrapSDKContext(goCtx), staker, recipient, msg.Shares)
	if err != nil {
		return nil, err
	}
	return &types.MsgWithdrawFromStrategyResponse{RemainingShares: remaining}, nil
}
