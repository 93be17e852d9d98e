package keeper

import (
	"context"
	"encoding/binary"
	"strconv"

	"cosmossdk.io/log"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/share-vault/metrics"
	"github.com/openalpha/share-vault/x/pauser/types"
)

// Keeper owns the pause flag bitmap
type Keeper struct {
	storeKey  storetypes.StoreKey
	authority string
	logger    log.Logger
}

// NewKeeper creates a new pauser keeper. authority is the only address
// that may set or clear flags.
func NewKeeper(storeKey storetypes.StoreKey, authority string, logger log.Logger) *Keeper {
	return &Keeper{
		storeKey:  storeKey,
		authority: authority,
		logger:    logger.With("module", "x/pauser"),
	}
}

// GetAuthority returns the pauser authority
func (k *Keeper) GetAuthority() string {
	return k.authority
}

// PausedStatus returns the raw bitmap
func (k *Keeper) PausedStatus(ctx sdk.Context) uint64 {
	bz := ctx.KVStore(k.storeKey).Get(types.PausedStatusKey)
	if len(bz) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(bz)
}

func (k *Keeper) setPausedStatus(ctx sdk.Context, status uint64) {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, status)
	ctx.KVStore(k.storeKey).Set(types.PausedStatusKey, bz)
}

// IsPaused reports whether the flag at index is set
func (k *Keeper) IsPaused(ctx sdk.Context, index uint8) bool {
	if index >= types.MaxFlags {
		return false
	}
	return k.PausedStatus(ctx)&(1<<index) != 0
}

// Pause sets the flag at index
func (k *Keeper) Pause(ctx sdk.Context, authority string, index uint8) (uint64, error) {
	return k.update(ctx, authority, index, true)
}

// Unpause clears the flag at index
func (k *Keeper) Unpause(ctx sdk.Context, authority string, index uint8) (uint64, error) {
	return k.update(ctx, authority, index, false)
}

// PauseAll sets every flag
func (k *Keeper) PauseAll(ctx sdk.Context, authority string) error {
	if authority != k.authority {
		return types.ErrUnauthorized.Wrapf("expected %s, got %s", k.authority, authority)
	}
	k.setPausedStatus(ctx, ^uint64(0))
	k.logger.Info("all flags paused")
	return nil
}

// UnpauseAll clears every flag
func (k *Keeper) UnpauseAll(ctx sdk.Context, authority string) error {
	if authority != k.authority {
		return types.ErrUnauthorized.Wrapf("expected %s, got %s", k.authority, authority)
	}
	k.setPausedStatus(ctx, 0)
	k.logger.Info("all flags unpaused")
	return nil
}

func (k *Keeper) update(ctx sdk.Context, authority string, index uint8, paused bool) (uint64, error) {
	if authority != k.authority {
		return 0, types.ErrUnauthorized.Wrapf("expected %s, got %s", k.authority, authority)
	}
	if err := types.ValidateFlag(index); err != nil {
		return 0, err
	}

	status := k.PausedStatus(ctx)
	eventType := types.EventTypeUnpaused
	if paused {
		status |= 1 << index
		eventType = types.EventTypePaused
	} else {
		status &^= 1 << index
	}
	k.setPausedStatus(ctx, status)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			eventType,
			sdk.NewAttribute(types.AttributeKeyFlag, strconv.Itoa(int(index))),
			sdk.NewAttribute(types.AttributeKeyStatus, strconv.FormatUint(status, 10)),
		),
	)
	metrics.GetCollector().RecordPauseFlag(strconv.Itoa(int(index)), paused)
	k.logger.Info("pause flag updated", "flag", index, "paused", paused, "status", status)

	return status, nil
}

// InitGenesis sets the initial bitmap
func (k *Keeper) InitGenesis(ctx sdk.Context, gs *types.GenesisState) {
	k.setPausedStatus(ctx, gs.PausedStatus)
}

// ExportGenesis exports the bitmap
func (k *Keeper) ExportGenesis(ctx sdk.Context) *types.GenesisState {
	return &types.GenesisState{PausedStatus: k.PausedStatus(ctx)}
}

// ============ Msg Server ============

var _ types.MsgServer = (*msgServer)(nil)

type msgServer struct {
	keeper *Keeper
}

// NewMsgServerImpl returns an implementation of the MsgServer interface
func NewMsgServerImpl(keeper *Keeper) types.MsgServer {
	return &msgServer{keeper: keeper}
}

// Pause handles MsgPause
func (m *msgServer) Pause(goCtx context.Context, msg *types.MsgPause) (*types.MsgPauseResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	status, err := m.keeper.Pause(sdk.UnwrapSDKContext(goCtx), msg.Authority, msg.Flag)
	if err != nil {
		return nil, err
	}
	return &types.MsgPauseResponse{PausedStatus: status}, nil
}

// Unpause handles MsgUnpause
func (m *msgServer) Unpause(goCtx context.Context, msg *types.MsgUnpause) (*types.MsgUnpauseResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	status, err := m.keeper.Unpause(sdk.UnwrapSDKContext(goCtx), msg.Authority, msg.Flag)
	if err != nil {
		return nil, err
	}
	return &types.MsgUnpauseResponse{PausedStatus: status}, nil
}
