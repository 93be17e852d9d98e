package types

import (
	"context"
	"fmt"

	"cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/codec"
	cdctypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Message types
const (
	TypeMsgSetTVLLimits = "set_tvl_limits"
)

// RegisterLegacyAminoCodec registers the module's messages on the amino codec
func RegisterLegacyAminoCodec(cdc *codec.LegacyAmino) {
	cdc.RegisterConcrete(&MsgSetTVLLimits{}, "strategy/MsgSetTVLLimits", nil)
}

// RegisterInterfaces registers the module's interface types
func RegisterInterfaces(registry cdctypes.InterfaceRegistry) {
	registry.RegisterImplementations((*sdk.Msg)(nil),
		&MsgSetTVLLimits{},
	)
}

// MsgServer defines the strategy module's message service
type MsgServer interface {
	SetTVLLimits(context.Context, *MsgSetTVLLimits) (*MsgSetTVLLimitsResponse, error)
}

// RegisterMsgServer registers the MsgServer with the router. Messages are
// hand-written structs without generated service descriptors, so the
// server is dispatched directly by the module until protobuf definitions exist.
func RegisterMsgServer(s interface{}, srv MsgServer) {}

// MsgSetTVLLimits updates the deposit limits
type MsgSetTVLLimits struct {
	Authority        string   `json:"authority"`
	MaxPerDeposit    math.Int `json:"max_per_deposit"`
	MaxTotalDeposits math.Int `json:"max_total_deposits"`
}

// NewMsgSetTVLLimits creates a MsgSetTVLLimits
func NewMsgSetTVLLimits(authority string, maxPerDeposit, maxTotalDeposits math.Int) *MsgSetTVLLimits {
	return &MsgSetTVLLimits{
		Authority:        authority,
		MaxPerDeposit:    maxPerDeposit,
		MaxTotalDeposits: maxTotalDeposits,
	}
}

func (msg *MsgSetTVLLimits) Reset() { *msg = MsgSetTVLLimits{} }
func (msg *MsgSetTVLLimits) String() string {
	return fmt.Sprintf("MsgSetTVLLimits{Authority: %s, MaxPerDeposit: %s, MaxTotalDeposits: %s}",
		msg.Authority, msg.MaxPerDeposit, msg.MaxTotalDeposits)
}
func (msg *MsgSetTVLLimits) ProtoMessage() {}

// XXX_MessageName returns the message type URL for MsgSetTVLLimits
func (msg *MsgSetTVLLimits) XXX_MessageName() string {
	return "sharevault.strategy.v1.MsgSetTVLLimits"
}

// Route implements legacy sdk.Msg
func (msg *MsgSetTVLLimits) Route() string { return RouterKey }

// Type implements legacy sdk.Msg
func (msg *MsgSetTVLLimits) Type() string { return TypeMsgSetTVLLimits }

// ValidateBasic performs stateless checks
func (msg *MsgSetTVLLimits) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Authority); err != nil {
		return ErrUnauthorized.Wrapf("invalid authority address: %s", err)
	}
	return NewParams(msg.MaxPerDeposit, msg.MaxTotalDeposits).Validate()
}

// GetSigners returns the signer addresses
func (msg *MsgSetTVLLimits) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Authority)
	return []sdk.AccAddress{addr}
}

// MsgSetTVLLimitsResponse is the response for MsgSetTVLLimits
type MsgSetTVLLimitsResponse struct{}

func (msg *MsgSetTVLLimitsResponse) Reset()         { *msg = MsgSetTVLLimitsResponse{} }
func (msg *MsgSetTVLLimitsResponse) String() string { return "MsgSetTVLLimitsResponse{}" }
func (msg *MsgSetTVLLimitsResponse) ProtoMessage()  {}
