// Package token implements single-mint token custody compatible with the SPL
// token account layouts.
package token

import (
	"math/bits"

	"github.com/gagliardetto/solana-go"

	"github.com/StorkBison/escrow-sell-SC/core/program"
	"github.com/StorkBison/escrow-sell-SC/core/types"
	"github.com/StorkBison/escrow-sell-SC/native/system"
)

// Program is the token program.
type Program struct {
	rent system.Rent
}

// New returns the token program enforcing rent exemption with rent.
func New(rent system.Rent) *Program {
	return &Program{rent: rent}
}

// ID implements program.Program.
func (p *Program) ID() solana.PublicKey { return solana.TokenProgramID }

// Process implements program.Program.
func (p *Program) Process(ctx *program.Context, accounts []*types.AccountInfo, data []byte) error {
	tag, args, err := decodeInstruction(data)
	if err != nil {
		return err
	}
	need := map[uint8]int{
		InstructionInitializeMint:    1,
		InstructionInitializeAccount: 3,
		InstructionTransfer:          3,
		InstructionSetAuthority:      2,
		InstructionMintTo:            3,
		InstructionCloseAccount:      3,
	}
	if len(accounts) < need[tag] {
		return types.ErrNotEnoughAccountKeys
	}
	switch tag {
	case InstructionInitializeMint:
		ctx.Logf("Instruction: InitializeMint")
		return p.initializeMint(accounts[0], args.(initializeMint))
	case InstructionInitializeAccount:
		ctx.Logf("Instruction: InitializeAccount")
		return p.initializeAccount(accounts[0], accounts[1], accounts[2].Key)
	case InstructionTransfer:
		ctx.Logf("Instruction: Transfer")
		return p.Transfer(args.(amountArgs).Amount, accounts[0], accounts[1], accounts[2])
	case InstructionSetAuthority:
		ctx.Logf("Instruction: SetAuthority")
		set := args.(setAuthority)
		if set.Type != AuthorityAccountOwner || set.NewAuthority == nil {
			return ErrAuthorityTypeNotSupported
		}
		return p.SetOwner(accounts[0], *set.NewAuthority, accounts[1])
	case InstructionMintTo:
		ctx.Logf("Instruction: MintTo")
		return p.MintTo(args.(amountArgs).Amount, accounts[0], accounts[1], accounts[2])
	case InstructionCloseAccount:
		ctx.Logf("Instruction: CloseAccount")
		return p.CloseAccount(accounts[0], accounts[1], accounts[2])
	}
	return types.ErrInvalidInstructionData
}

func (p *Program) initializeMint(mint *types.AccountInfo, args initializeMint) error {
	if err := p.checkOwned(mint); err != nil {
		return err
	}
	if len(mint.Data) != MintLen {
		return types.ErrInvalidAccountData
	}
	if _, err := UnpackMint(mint.Data); err == nil {
		return ErrAlreadyInUse
	}
	if !p.rent.IsExempt(mint.Lamports, len(mint.Data)) {
		return ErrNotRentExempt
	}
	authority := args.MintAuthority
	state := Mint{MintAuthority: &authority, Decimals: args.Decimals, IsInitialized: true}
	copy(mint.Data, state.Pack())
	return nil
}

func (p *Program) initializeAccount(account, mint *types.AccountInfo, owner solana.PublicKey) error {
	if err := p.checkOwned(account); err != nil {
		return err
	}
	existing, err := unpackAccountUnchecked(account.Data)
	if err != nil {
		return err
	}
	if existing.State != AccountUninitialized {
		return ErrAlreadyInUse
	}
	if !p.rent.IsExempt(account.Lamports, len(account.Data)) {
		return ErrNotRentExempt
	}
	if !mint.Owner.Equals(solana.TokenProgramID) {
		return ErrInvalidMint
	}
	if _, err := UnpackMint(mint.Data); err != nil {
		return ErrInvalidMint
	}
	state := Account{Mint: mint.Key, Owner: owner, State: AccountInitialized}
	copy(account.Data, state.Pack())
	return nil
}

// Transfer moves amount tokens from src to dst. authority must be the owner
// of src.
func (p *Program) Transfer(amount uint64, src, dst *types.AccountInfo, authority types.Signer) error {
	from, err := p.loadAccount(src)
	if err != nil {
		return err
	}
	to, err := p.loadAccount(dst)
	if err != nil {
		return err
	}
	if from.State == AccountFrozen || to.State == AccountFrozen {
		return ErrAccountFrozen
	}
	if !from.Mint.Equals(to.Mint) {
		return ErrMintMismatch
	}
	if err := authorize(from.Owner, authority); err != nil {
		return err
	}
	if from.Amount < amount {
		return ErrInsufficientFunds
	}
	if src == dst {
		return nil
	}
	sum, carry := bits.Add64(to.Amount, amount, 0)
	if carry != 0 {
		return ErrOverflow
	}
	from.Amount -= amount
	to.Amount = sum
	copy(src.Data, from.Pack())
	copy(dst.Data, to.Pack())
	return nil
}

// SetOwner hands account over to newOwner. authority must be the current
// owner.
func (p *Program) SetOwner(account *types.AccountInfo, newOwner solana.PublicKey, authority types.Signer) error {
	state, err := p.loadAccount(account)
	if err != nil {
		return err
	}
	if state.State == AccountFrozen {
		return ErrAccountFrozen
	}
	if err := authorize(state.Owner, authority); err != nil {
		return err
	}
	state.Owner = newOwner
	state.Delegate = nil
	state.DelegatedAmount = 0
	copy(account.Data, state.Pack())
	return nil
}

// MintTo creates amount new tokens in dst.
func (p *Program) MintTo(amount uint64, mint, dst *types.AccountInfo, authority types.Signer) error {
	if err := p.checkOwned(mint); err != nil {
		return err
	}
	if !mint.IsWritable {
		return types.ErrReadonlyModified
	}
	mintState, err := UnpackMint(mint.Data)
	if err != nil {
		return err
	}
	to, err := p.loadAccount(dst)
	if err != nil {
		return err
	}
	if !to.Mint.Equals(mint.Key) {
		return ErrMintMismatch
	}
	if mintState.MintAuthority == nil {
		return ErrOwnerMismatch
	}
	if err := authorize(*mintState.MintAuthority, authority); err != nil {
		return err
	}
	supply, carry := bits.Add64(mintState.Supply, amount, 0)
	if carry != 0 {
		return ErrOverflow
	}
	balance, carry := bits.Add64(to.Amount, amount, 0)
	if carry != 0 {
		return ErrOverflow
	}
	mintState.Supply = supply
	to.Amount = balance
	copy(mint.Data, mintState.Pack())
	copy(dst.Data, to.Pack())
	return nil
}

// CloseAccount deletes an empty token account and sends its lamports to dst.
// authority must be the close authority or, when unset, the owner.
func (p *Program) CloseAccount(account, dst *types.AccountInfo, authority types.Signer) error {
	state, err := p.loadAccount(account)
	if err != nil {
		return err
	}
	if account == dst {
		return types.ErrInvalidAccountData
	}
	if !dst.IsWritable {
		return types.ErrReadonlyModified
	}
	closer := state.Owner
	if state.CloseAuthority != nil {
		closer = *state.CloseAuthority
	}
	if err := authorize(closer, authority); err != nil {
		return err
	}
	if state.IsNative == nil && state.Amount != 0 {
		return ErrNonNativeHasBalance
	}
	sum, carry := bits.Add64(dst.Lamports, account.Lamports, 0)
	if carry != 0 {
		return ErrOverflow
	}
	dst.Lamports = sum
	account.Lamports = 0
	account.Data = nil
	account.Owner = solana.SystemProgramID
	return nil
}

func (p *Program) checkOwned(account *types.AccountInfo) error {
	if !account.Owner.Equals(solana.TokenProgramID) {
		return types.ErrIncorrectProgramID
	}
	return nil
}

func (p *Program) loadAccount(account *types.AccountInfo) (*Account, error) {
	if err := p.checkOwned(account); err != nil {
		return nil, err
	}
	if !account.IsWritable {
		return nil, types.ErrReadonlyModified
	}
	return UnpackAccount(account.Data)
}

func authorize(expected solana.PublicKey, authority types.Signer) error {
	if authority == nil || !authority.SignerKey().Equals(expected) {
		return ErrOwnerMismatch
	}
	if !authority.Signed() {
		return types.ErrMissingRequiredSignature
	}
	return nil
}
