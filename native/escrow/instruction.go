package escrow

import (
	"encoding/binary"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/StorkBison/escrow-sell-SC/core/types"
)

// Kind tags an escrow instruction.
type Kind uint8

const (
	KindInitEscrow Kind = 0
	KindExchange   Kind = 1
)

func (k Kind) String() string {
	switch k {
	case KindInitEscrow:
		return "InitEscrow"
	case KindExchange:
		return "Exchange"
	default:
		return "Unknown"
	}
}

const instructionLen = 1 + 8

// Instruction is a decoded escrow instruction. For InitEscrow Amount is the
// asking price; for Exchange it is the token amount the taker expects.
type Instruction struct {
	Kind   Kind
	Amount uint64
}

// UnpackInstruction decodes a tag byte followed by a little-endian u64.
// Trailing bytes are ignored.
func UnpackInstruction(data []byte) (Instruction, error) {
	if len(data) < instructionLen {
		return Instruction{}, ErrInvalidInstruction
	}
	dec := bin.NewBinDecoder(data)
	tag, err := dec.ReadUint8()
	if err != nil {
		return Instruction{}, ErrInvalidInstruction
	}
	kind := Kind(tag)
	if kind != KindInitEscrow && kind != KindExchange {
		return Instruction{}, ErrInvalidInstruction
	}
	amount, err := dec.ReadUint64(binary.LittleEndian)
	if err != nil {
		return Instruction{}, ErrInvalidInstruction
	}
	return Instruction{Kind: kind, Amount: amount}, nil
}

// Pack encodes the instruction.
func (ix Instruction) Pack() []byte {
	out := make([]byte, instructionLen)
	out[0] = byte(ix.Kind)
	binary.LittleEndian.PutUint64(out[1:], ix.Amount)
	return out
}

// InitEscrowAccounts names the accounts of an InitEscrow instruction.
type InitEscrowAccounts struct {
	Initializer  solana.PublicKey
	HeldAccount  solana.PublicKey
	Mint         solana.PublicKey
	Record       solana.PublicKey
	FeeRecipient solana.PublicKey
}

// NewInitEscrowInstruction lists the held token account at price.
func NewInitEscrowInstruction(programID solana.PublicKey, accts InitEscrowAccounts, price uint64) types.Instruction {
	return types.Instruction{
		ProgramID: programID,
		Accounts: []types.AccountMeta{
			types.NewAccountMeta(accts.Initializer, true, true),
			types.NewAccountMeta(accts.HeldAccount, true, false),
			types.NewAccountMeta(accts.Mint, false, false),
			types.NewAccountMeta(accts.Record, true, false),
			types.NewAccountMeta(accts.FeeRecipient, true, false),
		},
		Data: Instruction{Kind: KindInitEscrow, Amount: price}.Pack(),
	}
}

// ExchangeAccounts names the accounts of an Exchange instruction. Creators
// must follow the order of the metadata creator list.
type ExchangeAccounts struct {
	Taker            solana.PublicKey
	TakerDestination solana.PublicKey
	HeldAccount      solana.PublicKey
	Initializer      solana.PublicKey
	Record           solana.PublicKey
	FeeRecipient     solana.PublicKey
	Mint             solana.PublicKey
	Metadata         solana.PublicKey
	Creators         []solana.PublicKey
}

// NewExchangeInstruction settles (or, when the taker is the initializer,
// cancels) an escrow. expected is the token amount the taker expects to
// receive.
func NewExchangeInstruction(programID solana.PublicKey, accts ExchangeAccounts, expected uint64) types.Instruction {
	metas := []types.AccountMeta{
		types.NewAccountMeta(accts.Taker, true, true),
		types.NewAccountMeta(accts.TakerDestination, true, false),
		types.NewAccountMeta(accts.HeldAccount, true, false),
		types.NewAccountMeta(accts.Initializer, true, false),
		types.NewAccountMeta(accts.Record, true, false),
		types.NewAccountMeta(accts.FeeRecipient, true, false),
		types.NewAccountMeta(accts.Mint, false, false),
		types.NewAccountMeta(accts.Metadata, false, false),
	}
	for _, creator := range accts.Creators {
		metas = append(metas, types.NewAccountMeta(creator, true, false))
	}
	return types.Instruction{
		ProgramID: programID,
		Accounts:  metas,
		Data:      Instruction{Kind: KindExchange, Amount: expected}.Pack(),
	}
}
