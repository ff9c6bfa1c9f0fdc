package metadata

import (
	"bytes"
	"errors"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/StorkBison/escrow-sell-SC/core/program"
	"github.com/StorkBison/escrow-sell-SC/core/types"
	"github.com/StorkBison/escrow-sell-SC/native/system"
	"github.com/StorkBison/escrow-sell-SC/native/token"
)

// InstructionCreate creates the metadata record of a mint.
const InstructionCreate uint8 = 0

// ValueTransfer funds the new record from the payer.
type ValueTransfer interface {
	Transfer(amount uint64, from, to *types.AccountInfo) error
}

// Program is the metadata program.
type Program struct {
	provider *Provider
	rent     system.Rent
	value    ValueTransfer
}

// New returns the metadata program served at provider's address.
func New(provider *Provider, rent system.Rent, value ValueTransfer) *Program {
	return &Program{provider: provider, rent: rent, value: value}
}

// ID implements program.Program.
func (p *Program) ID() solana.PublicKey { return p.provider.ProgramID() }

// CreateInstruction builds the instruction creating mint's metadata. Accounts:
// payer, metadata, mint, mint authority, update authority.
func (p *Provider) CreateInstruction(payer, mint, mintAuthority, updateAuthority solana.PublicKey, data Data, mutable bool) (types.Instruction, error) {
	addr, err := p.Address(mint)
	if err != nil {
		return types.Instruction{}, err
	}
	record := Metadata{Key: KeyMetadataV1, Data: data, IsMutable: mutable}
	encoded, err := record.Encode()
	if err != nil {
		return types.Instruction{}, err
	}
	// Reuse the record encoding: skip key, update authority and mint, drop
	// the primary-sale flag and keep the mutable flag.
	payload := encoded[1+32+32 : len(encoded)-2]
	buf := new(bytes.Buffer)
	buf.WriteByte(InstructionCreate)
	buf.Write(payload)
	enc := bin.NewBorshEncoder(buf)
	_ = enc.WriteBool(mutable)
	return types.Instruction{
		ProgramID: p.programID,
		Accounts: []types.AccountMeta{
			types.NewAccountMeta(payer, true, true),
			types.NewAccountMeta(addr, true, false),
			types.NewAccountMeta(mint, false, false),
			types.NewAccountMeta(mintAuthority, false, true),
			types.NewAccountMeta(updateAuthority, false, false),
		},
		Data: buf.Bytes(),
	}, nil
}

// Process implements program.Program.
func (p *Program) Process(ctx *program.Context, accounts []*types.AccountInfo, data []byte) error {
	if len(data) == 0 || data[0] != InstructionCreate {
		return types.ErrInvalidInstructionData
	}
	dec := bin.NewBorshDecoder(data[1:])
	fields, err := decodeData(dec)
	if err != nil {
		return types.ErrInvalidInstructionData
	}
	mutable, err := dec.ReadBool()
	if err != nil {
		return types.ErrInvalidInstructionData
	}
	if len(accounts) < 5 {
		return types.ErrNotEnoughAccountKeys
	}
	ctx.Logf("Instruction: Create Metadata Accounts")
	return p.create(ctx, accounts[0], accounts[1], accounts[2], accounts[3], accounts[4].Key, fields, mutable)
}

func (p *Program) create(ctx *program.Context, payer, record, mint, mintAuthority *types.AccountInfo, updateAuthority solana.PublicKey, fields Data, mutable bool) error {
	if !payer.IsSigner || !mintAuthority.IsSigner {
		return types.ErrMissingRequiredSignature
	}
	expected, err := p.provider.Address(mint.Key)
	if err != nil || !expected.Equals(record.Key) {
		ctx.Logf("metadata account does not match the mint derivation")
		return types.ErrInvalidArgument
	}
	if record.Lamports != 0 || len(record.Data) != 0 {
		return types.ErrAccountAlreadyInitialized
	}
	if !mint.Owner.Equals(solana.TokenProgramID) {
		return types.ErrIncorrectProgramID
	}
	mintState, err := token.UnpackMint(mint.Data)
	if err != nil {
		return err
	}
	if mintState.MintAuthority == nil || !mintState.MintAuthority.Equals(mintAuthority.Key) {
		ctx.Logf("mint authority mismatch")
		return token.ErrOwnerMismatch
	}
	if err := fields.Validate(); err != nil {
		ctx.Logf("%v", err)
		if errors.Is(err, ErrNumericConversion) {
			return types.ErrInvalidArgument
		}
		return types.ErrInvalidInstructionData
	}
	for i := range fields.Creators {
		fields.Creators[i].Verified = fields.Creators[i].Address.Equals(mintAuthority.Key)
	}
	md := Metadata{
		Key:             KeyMetadataV1,
		UpdateAuthority: updateAuthority,
		Mint:            mint.Key,
		Data:            fields,
		IsMutable:       mutable,
	}
	encoded, err := md.Encode()
	if err != nil {
		return types.ErrInvalidInstructionData
	}
	if err := p.value.Transfer(p.rent.MinimumBalance(len(encoded)), payer, record); err != nil {
		return err
	}
	record.Owner = p.provider.ProgramID()
	record.Data = encoded
	return nil
}
