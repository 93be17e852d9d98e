package keeper

import (
	"context"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/share-vault/x/strategy/types"
)

// ============ Views ============

// UserShares returns the shares the manager records for user
func (k *Keeper) UserShares(ctx sdk.Context, user sdk.AccAddress) math.Int {
	if k.shareKeeper == nil {
		return math.ZeroInt()
	}
	return k.shareKeeper.GetUserShares(ctx, user, types.ModuleName)
}

// UserUnderlying values user's shares through the installed Conversions
func (k *Keeper) UserUnderlying(ctx sdk.Context, user sdk.AccAddress) (math.Int, error) {
	return k.SharesToUnderlying(ctx, k.UserShares(ctx, user))
}

// UserUnderlyingView values user's shares without writing state
func (k *Keeper) UserUnderlyingView(ctx sdk.Context, user sdk.AccAddress) (math.Int, error) {
	return k.SharesToUnderlyingView(ctx, k.UserShares(ctx, user))
}

// TotalShares returns the outstanding share count
func (k *Keeper) TotalShares(ctx sdk.Context) math.Int {
	state, ok := k.GetState(ctx)
	if !ok {
		return math.ZeroInt()
	}
	return state.TotalShares
}

// UnderlyingDenom returns the accepted asset
func (k *Keeper) UnderlyingDenom(ctx sdk.Context) string {
	state, _ := k.GetState(ctx)
	return state.UnderlyingDenom
}

// Manager returns the only address allowed to deposit and withdraw
func (k *Keeper) Manager(ctx sdk.Context) string {
	state, _ := k.GetState(ctx)
	return state.Manager
}

// Description returns the static pool description
func (k *Keeper) Description() string {
	return types.Description
}

// ============ Query Server ============

// QueryServer implements the strategy query service
type QueryServer struct {
	keeper *Keeper
}

// NewQueryServerImpl returns an implementation of the query service
func NewQueryServerImpl(keeper *Keeper) *QueryServer {
	return &QueryServer{keeper: keeper}
}

// State returns the pool state with its balance and rate
func (q *QueryServer) State(goCtx context.Context, _ *types.QueryStateRequest) (*types.QueryStateResponse, error) {
	ctx := sdk.UnwrapSDKContext(goCtx)
	state, err := q.keeper.requireState(ctx)
	if err != nil {
		return nil, err
	}
	balance := q.keeper.UnderlyingBalance(ctx, state.UnderlyingDenom)
	rate, err := types.ExchangeRate(balance, state.TotalShares)
	if err != nil {
		return nil, err
	}
	return &types.QueryStateResponse{
		State:        state,
		Balance:      balance,
		ExchangeRate: rate,
	}, nil
}

// Params returns the TVL limits
func (q *QueryServer) Params(goCtx context.Context, _ *types.QueryParamsRequest) (*types.QueryParamsResponse, error) {
	ctx := sdk.UnwrapSDKContext(goCtx)
	return &types.QueryParamsResponse{Params: q.keeper.GetParams(ctx)}, nil
}

// SharesToUnderlying converts shares with the view form
func (q *QueryServer) SharesToUnderlying(goCtx context.Context, req *types.QuerySharesToUnderlyingRequest) (*types.QuerySharesToUnderlyingResponse, error) {
	ctx := sdk.UnwrapSDKContext(goCtx)
	amount, err := q.keeper.SharesToUnderlyingView(ctx, req.Shares)
	if err != nil {
		return nil, err
	}
	return &types.QuerySharesToUnderlyingResponse{Amount: amount}, nil
}

// UnderlyingToShares converts an amount with the view form
func (q *QueryServer) UnderlyingToShares(goCtx context.Context, req *types.QueryUnderlyingToSharesRequest) (*types.QueryUnderlyingToSharesResponse, error) {
	ctx := sdk.UnwrapSDKContext(goCtx)
	shares, err := q.keeper.UnderlyingToSharesView(ctx, req.Amount)
	if err != nil {
		return nil, err
	}
	return &types.QueryUnderlyingToSharesResponse{Shares: shares}, nil
}

// User returns a user's shares and their underlying value
func (q *QueryServer) User(goCtx context.Context, req *types.QueryUserRequest) (*types.QueryUserResponse, error) {
	ctx := sdk.UnwrapSDKContext(goCtx)
	user, err := sdk.AccAddressFromBech32(req.User)
	if err != nil {
		return nil, err
	}
	shares := q.keeper.UserShares(ctx, user)
	underlying, err := q.keeper.SharesToUnderlyingView(ctx, shares)
	if err != nil {
		return nil, err
	}
	return &types.QueryUserResponse{
		User:       req.User,
		Shares:     shares,
		Underlying: underlying,
	}, nil
}

// Description returns the static description
func (q *QueryServer) Description(_ context.Context, _ *types.QueryDescriptionRequest) (*types.QueryDescriptionResponse, error) {
	return &types.QueryDescriptionResponse{Description: q.keeper.Description()}, nil
}
