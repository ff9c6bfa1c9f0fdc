package system

import (
	"bytes"
	"encoding/binary"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/StorkBison/escrow-sell-SC/core/types"
)

const (
	InstructionCreateAccount uint32 = 0
	InstructionTransfer      uint32 = 2
)

// CreateAccount funds a new account and assigns it to Owner.
type CreateAccount struct {
	Lamports uint64
	Space    uint64
	Owner    solana.PublicKey
}

// Transfer moves lamports between system-owned accounts.
type Transfer struct {
	Lamports uint64
}

// NewCreateAccountInstruction builds the instruction creating newAccount.
// Both funder and newAccount must sign.
func NewCreateAccountInstruction(funder, newAccount solana.PublicKey, lamports, space uint64, owner solana.PublicKey) types.Instruction {
	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)
	_ = enc.WriteUint32(InstructionCreateAccount, binary.LittleEndian)
	_ = enc.WriteUint64(lamports, binary.LittleEndian)
	_ = enc.WriteUint64(space, binary.LittleEndian)
	_ = enc.WriteBytes(owner[:], false)
	return types.Instruction{
		ProgramID: solana.SystemProgramID,
		Accounts: []types.AccountMeta{
			types.NewAccountMeta(funder, true, true),
			types.NewAccountMeta(newAccount, true, true),
		},
		Data: buf.Bytes(),
	}
}

// NewTransferInstruction builds a lamport transfer signed by from.
func NewTransferInstruction(from, to solana.PublicKey, lamports uint64) types.Instruction {
	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)
	_ = enc.WriteUint32(InstructionTransfer, binary.LittleEndian)
	_ = enc.WriteUint64(lamports, binary.LittleEndian)
	return types.Instruction{
		ProgramID: solana.SystemProgramID,
		Accounts: []types.AccountMeta{
			types.NewAccountMeta(from, true, true),
			types.NewAccountMeta(to, true, false),
		},
		Data: buf.Bytes(),
	}
}

func decodeInstruction(data []byte) (any, error) {
	dec := bin.NewBinDecoder(data)
	tag, err := dec.ReadUint32(binary.LittleEndian)
	if err != nil {
		return nil, types.ErrInvalidInstructionData
	}
	switch tag {
	case InstructionCreateAccount:
		if len(data) != 4+8+8+32 {
			return nil, types.ErrInvalidInstructionData
		}
		var ix CreateAccount
		if ix.Lamports, err = dec.ReadUint64(binary.LittleEndian); err != nil {
			return nil, types.ErrInvalidInstructionData
		}
		if ix.Space, err = dec.ReadUint64(binary.LittleEndian); err != nil {
			return nil, types.ErrInvalidInstructionData
		}
		owner, err := dec.ReadNBytes(32)
		if err != nil {
			return nil, types.ErrInvalidInstructionData
		}
		ix.Owner = solana.PublicKeyFromBytes(owner)
		return ix, nil
	case InstructionTransfer:
		if len(data) != 4+8 {
			return nil, types.ErrInvalidInstructionData
		}
		lamports, err := dec.ReadUint64(binary.LittleEndian)
		if err != nil {
			return nil, types.ErrInvalidInstructionData
		}
		return Transfer{Lamports: lamports}, nil
	default:
		return nil, types.ErrInvalidInstructionData
	}
}
