package token

import "github.com/StorkBison/escrow-sell-SC/core/types"

// Token program error codes, numbered as the SPL token program.
var (
	ErrNotRentExempt             = types.CustomError(0, "NotRentExempt", "token: lamport balance below rent-exempt threshold")
	ErrInsufficientFunds         = types.CustomError(1, "InsufficientFunds", "token: insufficient funds")
	ErrInvalidMint               = types.CustomError(2, "InvalidMint", "token: invalid mint")
	ErrMintMismatch              = types.CustomError(3, "MintMismatch", "token: account not associated with this mint")
	ErrOwnerMismatch             = types.CustomError(4, "OwnerMismatch", "token: owner does not match")
	ErrAlreadyInUse              = types.CustomError(6, "AlreadyInUse", "token: account or token already in use")
	ErrUninitializedState        = types.CustomError(9, "UninitializedState", "token: state is uninitialized")
	ErrNonNativeHasBalance       = types.CustomError(11, "NonNativeHasBalance", "token: non-native account can only be closed if its balance is zero")
	ErrOverflow                  = types.CustomError(14, "Overflow", "token: operation overflowed")
	ErrAuthorityTypeNotSupported = types.CustomError(15, "AuthorityTypeNotSupported", "token: account does not support specified authority type")
	ErrAccountFrozen             = types.CustomError(17, "AccountFrozen", "token: account is frozen")
)
