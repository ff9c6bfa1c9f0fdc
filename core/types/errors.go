package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies program failures. KindCustom carries a program-defined
// code; every other kind is a runtime builtin.
type ErrorKind uint8

const (
	KindCustom ErrorKind = iota
	KindInvalidArgument
	KindInvalidInstructionData
	KindInvalidAccountData
	KindAccountDataTooSmall
	KindInsufficientFunds
	KindIncorrectProgramID
	KindMissingRequiredSignature
	KindAccountAlreadyInitialized
	KindUninitializedAccount
	KindNotEnoughAccountKeys
	KindReadonlyModified
	KindUnbalancedTransaction
	KindArithmeticOverflow
)

var kindNames = map[ErrorKind]string{
	KindInvalidArgument:           "InvalidArgument",
	KindInvalidInstructionData:    "InvalidInstructionData",
	KindInvalidAccountData:        "InvalidAccountData",
	KindAccountDataTooSmall:       "AccountDataTooSmall",
	KindInsufficientFunds:         "InsufficientFunds",
	KindIncorrectProgramID:        "IncorrectProgramID",
	KindMissingRequiredSignature:  "MissingRequiredSignature",
	KindAccountAlreadyInitialized: "AccountAlreadyInitialized",
	KindUninitializedAccount:      "UninitializedAccount",
	KindNotEnoughAccountKeys:      "NotEnoughAccountKeys",
	KindReadonlyModified:          "ReadonlyModified",
	KindUnbalancedTransaction:     "UnbalancedTransaction",
	KindArithmeticOverflow:        "ArithmeticOverflow",
}

// ProgramError is a failure with a stable code that is surfaced in receipts.
type ProgramError struct {
	Kind    ErrorKind
	Code    uint32
	Name    string
	Message string
}

func (e *ProgramError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Label()
}

// Label renders the stable code: the builtin name or "Custom(n)".
func (e *ProgramError) Label() string {
	if e.Kind == KindCustom {
		return fmt.Sprintf("Custom(%d)", e.Code)
	}
	if name, ok := kindNames[e.Kind]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", e.Kind)
}

// Is matches on kind, code and name so wrapped errors compare against the
// package sentinels. Custom codes are only unique within one program, hence
// the name.
func (e *ProgramError) Is(target error) bool {
	var other *ProgramError
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind && e.Code == other.Code && e.Name == other.Name
}

// CustomError declares a program-defined error.
func CustomError(code uint32, name, message string) *ProgramError {
	return &ProgramError{Kind: KindCustom, Code: code, Name: name, Message: message}
}

func builtin(kind ErrorKind, message string) *ProgramError {
	return &ProgramError{Kind: kind, Name: kindNames[kind], Message: message}
}

var (
	ErrInvalidArgument           = builtin(KindInvalidArgument, "invalid program argument")
	ErrInvalidInstructionData    = builtin(KindInvalidInstructionData, "invalid instruction data")
	ErrInvalidAccountData        = builtin(KindInvalidAccountData, "invalid account data for instruction")
	ErrAccountDataTooSmall       = builtin(KindAccountDataTooSmall, "account data too small for instruction")
	ErrInsufficientFunds         = builtin(KindInsufficientFunds, "insufficient funds for instruction")
	ErrIncorrectProgramID        = builtin(KindIncorrectProgramID, "incorrect program id for instruction")
	ErrMissingRequiredSignature  = builtin(KindMissingRequiredSignature, "missing required signature for instruction")
	ErrAccountAlreadyInitialized = builtin(KindAccountAlreadyInitialized, "account already initialized")
	ErrUninitializedAccount      = builtin(KindUninitializedAccount, "attempt to operate on an account that was not yet initialized")
	ErrNotEnoughAccountKeys      = builtin(KindNotEnoughAccountKeys, "insufficient account keys for instruction")
	ErrReadonlyModified          = builtin(KindReadonlyModified, "instruction modified data of a read-only account")
	ErrUnbalancedTransaction     = builtin(KindUnbalancedTransaction, "sum of account balances before and after transaction do not match")
	ErrArithmeticOverflow        = builtin(KindArithmeticOverflow, "arithmetic overflowed")
)

// AsProgramError unwraps err into a ProgramError when possible.
func AsProgramError(err error) (*ProgramError, bool) {
	var pe *ProgramError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
