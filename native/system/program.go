// Package system implements lamport custody: account creation, native value
// transfers and the rent policy.
package system

import (
	"math/bits"

	"github.com/gagliardetto/solana-go"

	"github.com/StorkBison/escrow-sell-SC/core/program"
	"github.com/StorkBison/escrow-sell-SC/core/types"
)

// MaxAccountSpace bounds the data length of a created account.
const MaxAccountSpace = 10 * 1024 * 1024

// Program is the system program.
type Program struct{}

// New returns the system program.
func New() *Program { return &Program{} }

// ID implements program.Program.
func (p *Program) ID() solana.PublicKey { return solana.SystemProgramID }

// Process implements program.Program.
func (p *Program) Process(ctx *program.Context, accounts []*types.AccountInfo, data []byte) error {
	ix, err := decodeInstruction(data)
	if err != nil {
		return err
	}
	switch ix := ix.(type) {
	case CreateAccount:
		if len(accounts) < 2 {
			return types.ErrNotEnoughAccountKeys
		}
		return p.createAccount(ctx, accounts[0], accounts[1], ix)
	case Transfer:
		if len(accounts) < 2 {
			return types.ErrNotEnoughAccountKeys
		}
		if !accounts[0].IsSigner {
			return types.ErrMissingRequiredSignature
		}
		if !accounts[0].Owner.Equals(solana.SystemProgramID) || len(accounts[0].Data) != 0 {
			ctx.Logf("Transfer: `from` must not carry data")
			return types.ErrInvalidArgument
		}
		return p.Transfer(ix.Lamports, accounts[0], accounts[1])
	}
	return types.ErrInvalidInstructionData
}

func (p *Program) createAccount(ctx *program.Context, funder, target *types.AccountInfo, ix CreateAccount) error {
	if !funder.IsSigner || !target.IsSigner {
		return types.ErrMissingRequiredSignature
	}
	if target.Lamports != 0 || len(target.Data) != 0 || !target.Owner.Equals(solana.SystemProgramID) {
		ctx.Logf("Create Account: account %s already in use", target.Key)
		return types.ErrAccountAlreadyInitialized
	}
	if ix.Space > MaxAccountSpace {
		return types.ErrInvalidArgument
	}
	if err := p.Transfer(ix.Lamports, funder, target); err != nil {
		return err
	}
	target.Data = make([]byte, ix.Space)
	target.Owner = ix.Owner
	return nil
}

// Transfer debits from and credits to. It is also the native value transfer
// service used in-process by other programs, which must have validated the
// payer's authority themselves.
func (p *Program) Transfer(amount uint64, from, to *types.AccountInfo) error {
	if amount == 0 {
		return nil
	}
	if !from.IsWritable || !to.IsWritable {
		return types.ErrReadonlyModified
	}
	if from.Lamports < amount {
		return types.ErrInsufficientFunds
	}
	if from == to {
		return nil
	}
	sum, carry := bits.Add64(to.Lamports, amount, 0)
	if carry != 0 {
		return types.ErrArithmeticOverflow
	}
	from.Lamports -= amount
	to.Lamports = sum
	return nil
}
