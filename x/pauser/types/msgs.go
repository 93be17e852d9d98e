package types

import (
	"context"
	"fmt"

	"github.com/cosmos/cosmos-sdk/codec"
	cdctypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Message types
const (
	TypeMsgPause   = "pause"
	TypeMsgUnpause = "unpause"
)

// RegisterLegacyAminoCodec registers the module's messages on the amino codec
func RegisterLegacyAminoCodec(cdc *codec.LegacyAmino) {
	cdc.RegisterConcrete(&MsgPause{}, "pauser/MsgPause", nil)
	cdc.RegisterConcrete(&MsgUnpause{}, "pauser/MsgUnpause", nil)
}

// RegisterInterfaces registers the module's interface types
func RegisterInterfaces(registry cdctypes.InterfaceRegistry) {
	registry.RegisterImplementations((*sdk.Msg)(nil),
		&MsgPause{},
		&MsgUnpause{},
	)
}

// MsgServer defines the pauser module's message service
type MsgServer interface {
	Pause(context.Context, *MsgPause) (*MsgPauseResponse, error)
	Unpause(context.Context, *MsgUnpause) (*MsgUnpauseResponse, error)
}

// RegisterMsgServer registers the MsgServer with the router; see the
// strategy module for why this is dispatched directly.
func RegisterMsgServer(s interface{}, srv MsgServer) {}

// MsgPause sets a pause flag
type MsgPause struct {
	Authority string `json:"authority"`
	Flag      uint8  `json:"flag"`
}

func (msg *MsgPause) Reset()         { *msg = MsgPause{} }
func (msg *MsgPause) String() string { return fmt.Sprintf("MsgPause{%s %d}", msg.Authority, msg.Flag) }
func (msg *MsgPause) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgPause
func (msg *MsgPause) XXX_MessageName() string {
	return "sharevault.pauser.v1.MsgPause"
}

// ValidateBasic performs stateless checks
func (msg *MsgPause) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Authority); err != nil {
		return ErrUnauthorized.Wrapf("invalid authority address: %s", err)
	}
	return ValidateFlag(msg.Flag)
}

// GetSigners returns the signer addresses
func (msg *MsgPause) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Authority)
	return []sdk.AccAddress{addr}
}

// MsgUnpause clears a pause flag
type MsgUnpause struct {
	Authority string `json:"authority"`
	Flag      uint8  `json:"flag"`
}

func (msg *MsgUnpause) Reset()         { *msg = MsgUnpause{} }
func (msg *MsgUnpause) String() string { return fmt.Sprintf("MsgUnpause{%s %d}", msg.Authority, msg.Flag) }
func (msg *MsgUnpause) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgUnpause
func (msg *MsgUnpause) XXX_MessageName() string {
	return "sharevault.pauser.v1.MsgUnpause"
}

// ValidateBasic performs stateless checks
func (msg *MsgUnpause) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Authority); err != nil {
		return ErrUnauthorized.Wrapf("invalid authority address: %s", err)
	}
	return ValidateFlag(msg.Flag)
}

// GetSigners returns the signer addresses
func (msg *MsgUnpause) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Authority)
	return []sdk.AccAddress{addr}
}

// MsgPauseResponse is the response for MsgPause
type MsgPauseResponse struct {
	PausedStatus uint64 `json:"paused_status"`
}

func (msg *MsgPauseResponse) Reset()         { *msg = MsgPauseResponse{} }
func (msg *MsgPauseResponse) String() string { return fmt.Sprintf("%d", msg.PausedStatus) }
func (msg *MsgPauseResponse) ProtoMessage()  {}

// MsgUnpauseResponse is the response for MsgUnpause
type MsgUnpauseResponse struct {
	PausedStatus uint64 `json:"paused_status"`
}

func (msg *MsgUnpauseResponse) Reset()         { *msg = MsgUnpauseResponse{} }
func (msg *MsgUnpauseResponse) String() string { return fmt.Sprintf("%d", msg.PausedStatus) }
func (msg *MsgUnpauseResponse) ProtoMessage()  {}
