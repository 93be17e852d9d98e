package types

import (
	"cosmossdk.io/errors"
)

// Module name and store key
const (
	ModuleName = "pauser"
	StoreKey   = ModuleName
	RouterKey  = ModuleName
)

// PausedStatusKey stores the flag bitmap
var PausedStatusKey = []byte{0x01}

// MaxFlags is the number of flags the bitmap can hold
const MaxFlags = 64

// Events
const (
	EventTypePaused   = "pauser_paused"
	EventTypeUnpaused = "pauser_unpaused"

	AttributeKeyFlag   = "flag"
	AttributeKeyStatus = "status"
)

// Module error codes
var (
	ErrUnauthorized = errors.Register(ModuleName, 2, "caller is not the pauser authority")
	ErrInvalidFlag  = errors.Register(ModuleName, 3, "invalid pause flag")
)

// GenesisState holds the initial flag bitmap
type GenesisState struct {
	PausedStatus uint64 `json:"paused_status"`
}

// DefaultGenesis returns a genesis with every flag cleared
func DefaultGenesis() *GenesisState {
	return &GenesisState{}
}

// Validate performs basic genesis state validation
func (gs GenesisState) Validate() error {
	return nil
}

// ValidateFlag checks index fits the bitmap
func ValidateFlag(index uint8) error {
	if index >= MaxFlags {
		return ErrInvalidFlag.Wrapf("index %d >= %d", index, MaxFlags)
	}
	return nil
}
