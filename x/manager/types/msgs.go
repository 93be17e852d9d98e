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
	TypeMsgDepositIntoStrategy  = "deposit_into_strategy"
	TypeMsgWithdrawFromStrategy = "withdraw_from_strategy"
)

// RegisterLegacyAminoCodec registers the module's messages on the amino codec
func RegisterLegacyAminoCodec(cdc *codec.LegacyAmino) {
	cdc.RegisterConcrete(&MsgDepositIntoStrategy{}, "manager/MsgDepositIntoStrategy", nil)
	cdc.RegisterConcrete(&MsgWithdrawFromStrategy{}, "manager/MsgWithdrawFromStrategy", nil)
}

// RegisterInterfaces registers the module's interface types
func RegisterInterfaces(registry cdctypes.InterfaceRegistry) {
	registry.RegisterImplementations((*sdk.Msg)(nil),
		&MsgDepositIntoStrategy{},
		&MsgWithdrawFromStrategy{},
	)
}

// MsgServer defines the manager module's message service
type MsgServer interface {
	DepositIntoStrategy(context.Context, *MsgDepositIntoStrategy) (*MsgDepositIntoStrategyResponse, error)
	WithdrawFromStrategy(context.Context, *MsgWithdrawFromStrategy) (*MsgWithdrawFromStrategyResponse, error)
}

// RegisterMsgServer registers the MsgServer with the router; see the
// strategy module for why this is dispatched directly.
func RegisterMsgServer(s interface{}, srv MsgServer) {}

// MsgDepositIntoStrategy deposits the staker's coins into the pool
type MsgDepositIntoStrategy struct {
	Staker string   `json:"staker"`
	Amount sdk.Coin `json:"amount"`
}

func (msg *MsgDepositIntoStrategy) Reset() { *msg = MsgDepositIntoStrategy{} }
func (msg *MsgDepositIntoStrategy) String() string {
	return fmt.Sprintf("MsgDepositIntoStrategy{Staker: %s, Amount: %s}", msg.Staker, msg.Amount)
}
func (msg *MsgDepositIntoStrategy) ProtoMessage() {}

// XXX_MessageName returns the message type URL for MsgDepositIntoStrategy
func (msg *MsgDepositIntoStrategy) XXX_MessageName() string {
	return "sharevault.manager.v1.MsgDepositIntoStrategy"
}

// ValidateBasic performs stateless checks
func (msg *MsgDepositIntoStrategy) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Staker); err != nil {
		return ErrInvalidAmount.Wrapf("invalid staker address: %s", err)
	}
	if !msg.Amount.IsValid() || !msg.Amount.IsPositive() {
		return ErrInvalidAmount.Wrapf("invalid amount %s", msg.Amount)
	}
	return nil
}

// GetSigners returns the signer addresses
func (msg *MsgDepositIntoStrategy) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Staker)
	return []sdk.AccAddress{addr}
}

// MsgWithdrawFromStrategy redeems the staker's shares to recipient
type MsgWithdrawFromStrategy struct {
	Staker    string   `json:"staker"`
	Recipient string   `json:"recipient"`
	Shares    math.Int `json:"shares"`
}

func (msg *MsgWithdrawFromStrategy) Reset() { *msg = MsgWithdrawFromStrategy{} }
func (msg *MsgWithdrawFromStrategy) String() string {
	return fmt.Sprintf("MsgWithdrawFromStrategy{Staker: %s, Recipient: %s, Shares: %s}", msg.Staker, msg.Recipient, msg.Shares)
}
func (msg *MsgWithdrawFromStrategy) ProtoMessage() {}

// XXX_MessageName returns the message type URL for MsgWithdrawFromStrategy
func (msg *MsgWithdrawFromStrategy) XXX_MessageName() string {
	return "sharevault.manager.v1.MsgWithdrawFromStrategy"
}

// ValidateBasic performs stateless checks
func (msg *MsgWithdrawFromStrategy) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Staker); err != nil {
		return ErrInvalidAmount.Wrapf("invalid staker address: %s", err)
	}
	if _, err := sdk.AccAddressFromBech32(msg.Recipient); err != nil {
		return ErrInvalidAmount.Wrapf("invalid recipient address: %s", err)
	}
	if msg.Shares.IsNil() || !msg.Shares.IsPositive() {
		return ErrInvalidAmount.Wrap("shares must be positive")
	}
	return nil
}

// GetSigners returns the signer addresses
func (msg *MsgWithdrawFromStrategy) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Staker)
	return []sdk.AccAddress{addr}
}

// MsgDepositIntoStrategyResponse is the response for MsgDepositIntoStrategy
type MsgDepositIntoStrategyResponse struct {
	Shares math.Int `json:"shares"`
}

func (msg *MsgDepositIntoStrategyResponse) Reset()         { *msg = MsgDepositIntoStrategyResponse{} }
func (msg *MsgDepositIntoStrategyResponse) String() string { return msg.Shares.String() }
func (msg *MsgDepositIntoStrategyResponse) ProtoMessage()  {}

// MsgWithdrawFromStrategyResponse is the response for MsgWithdrawFromStrategy
type MsgWithdrawFromStrategyResponse struct {
	RemainingShares math.Int `json:"remaining_shares"`
}

func (msg *MsgWithdrawFromStrategyResponse) Reset() { *msg = MsgWithdrawFromStrategyResponse{} }
func (msg *MsgWithdrawFromStrategyResponse) String() string {
	return msg.RemainingShares.String()
}
func (msg *MsgWithdrawFromStrategyResponse) ProtoMessage() {}
