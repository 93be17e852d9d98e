package types

import (
	"cosmossdk.io/errors"
)

// Module error codes
var (
	ErrUnauthorized       = errors.Register(ModuleName, 2, "caller is not the strategy manager")
	ErrOperationPaused    = errors.Register(ModuleName, 3, "operation is paused")
	ErrAssetMismatch      = errors.Register(ModuleName, 4, "asset does not match the underlying denom")
	ErrZeroSharesResult   = errors.Register(ModuleName, 5, "deposit would mint zero shares")
	ErrBelowMinimumShares = errors.Register(ModuleName, 6, "total shares would fall below the non-zero minimum")
	ErrInsufficientShares = errors.Register(ModuleName, 7, "withdrawal exceeds total shares")

	ErrInvalidAmount            = errors.Register(ModuleName, 8, "invalid amount")
	ErrNotInitialized           = errors.Register(ModuleName, 9, "strategy not initialized")
	ErrAlreadyInitialized       = errors.Register(ModuleName, 10, "strategy already initialized")
	ErrMaxPerDepositExceeded    = errors.Register(ModuleName, 11, "deposit exceeds max per deposit")
	ErrMaxTotalDepositsExceeded = errors.Register(ModuleName, 12, "balance exceeds max total deposits")
	ErrInvalidParams            = errors.Register(ModuleName, 13, "invalid params")
	ErrInvalidGenesis           = errors.Register(ModuleName, 14, "invalid genesis state")
	ErrArithmeticOverflow       = errors.Register(ModuleName, 15, "arithmetic overflow")
	ErrTransferFailed           = errors.Register(ModuleName, 16, "underlying transfer failed")
)
