package escrow

import "github.com/StorkBison/escrow-sell-SC/core/types"

// Escrow program error codes. The numbering is part of the wire contract.
var (
	ErrInvalidInstruction       = types.CustomError(0, "InvalidInstruction", "escrow: invalid instruction")
	ErrNotRentExempt            = types.CustomError(1, "NotRentExempt", "escrow: record account is not rent exempt")
	ErrExpectedAmountMismatch   = types.CustomError(2, "ExpectedAmountMismatch", "escrow: expected amount mismatch")
	ErrAmountOverflow           = types.CustomError(3, "AmountOverflow", "escrow: amount overflow")
	ErrInvalidSalesTaxRecipient = types.CustomError(4, "InvalidSalesTaxRecipient", "escrow: invalid sales tax recipient")
	ErrNumericConversionFailed  = types.CustomError(5, "NumericConversionFailed", "escrow: numeric conversion failed")
	ErrInvalidMintAccount       = types.CustomError(6, "InvalidMintAccount", "escrow: token account does not hold the supplied mint")
	ErrInvalidTokenAmount       = types.CustomError(7, "InvalidTokenAmount", "escrow: token account must hold exactly one unit")
	ErrInvalidMetadata          = types.CustomError(8, "InvalidMetadata", "escrow: invalid metadata")
	ErrMissingMetadata          = types.CustomError(9, "MissingMetadata", "escrow: missing metadata")
	ErrInvalidFinalAmount       = types.CustomError(10, "InvalidFinalAmount", "escrow: nothing left for the seller after fees")
	ErrInvalidRoyaltyFee        = types.CustomError(11, "InvalidRoyaltyFee", "escrow: royalty and sales tax exceed the price")
	ErrCreatorMismatch          = types.CustomError(12, "CreatorMismatch", "escrow: creator accounts do not match metadata")
)
