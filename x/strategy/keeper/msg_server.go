package keeper

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/share-vault/x/strategy/types"
)

var _ types.MsgServer = (*msgServer)(nil)

type msgServer struct {
	keeper *Keeper
}

// NewMsgServerImpl returns an implementation of the MsgServer interface
func NewMsgServerImpl(keeper *Keeper) types.MsgServer {
	return &msgServer{keeper: keeper}
}

// SetTVLLimits handles MsgSetTVLLimits
func (m *msgServer) SetTVLLimits(goCtx context.Context, msg *types.MsgSetTVLLimits) (*types.MsgSetTVLLimitsResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	ctx := sdk.UnwrapSDKContext(goCtx)
	if err := m.keeper.SetTVLLimits(ctx, msg.Authority, msg.MaxPerDeposit, msg.MaxTotalDeposits); err != nil {
		return nil, err
	}
	return &types.MsgSetTVLLimitsResponse{}, nil
}
