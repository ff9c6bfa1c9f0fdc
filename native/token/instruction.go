package token

import (
	"bytes"
	"encoding/binary"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/StorkBison/escrow-sell-SC/core/types"
)

// Instruction tags, numbered as the SPL token program.
const (
	InstructionInitializeMint    uint8 = 0
	InstructionInitializeAccount uint8 = 1
	InstructionTransfer          uint8 = 3
	InstructionSetAuthority      uint8 = 6
	InstructionMintTo            uint8 = 7
	InstructionCloseAccount      uint8 = 9
)

// AuthorityType selects the authority changed by SetAuthority.
type AuthorityType uint8

const (
	AuthorityMintTokens AuthorityType = iota
	AuthorityFreezeAccount
	AuthorityAccountOwner
	AuthorityCloseAccount
)

type initializeMint struct {
	Decimals      uint8
	MintAuthority solana.PublicKey
}

type setAuthority struct {
	Type         AuthorityType
	NewAuthority *solana.PublicKey
}

type amountArgs struct {
	Amount uint64
}

func decodeInstruction(data []byte) (uint8, any, error) {
	if len(data) == 0 {
		return 0, nil, types.ErrInvalidInstructionData
	}
	dec := bin.NewBinDecoder(data[1:])
	switch tag := data[0]; tag {
	case InstructionInitializeMint:
		// decimals, mint authority, then a freeze authority option that is
		// accepted but must be absent.
		if len(data) < 1+1+32+1 {
			return tag, nil, types.ErrInvalidInstructionData
		}
		decimals, _ := dec.ReadUint8()
		authority, _ := dec.ReadNBytes(32)
		if data[34] != 0 {
			return tag, nil, ErrAuthorityTypeNotSupported
		}
		return tag, initializeMint{Decimals: decimals, MintAuthority: solana.PublicKeyFromBytes(authority)}, nil
	case InstructionInitializeAccount, InstructionCloseAccount:
		return tag, nil, nil
	case InstructionTransfer, InstructionMintTo:
		if len(data) != 1+8 {
			return tag, nil, types.ErrInvalidInstructionData
		}
		amount, err := dec.ReadUint64(binary.LittleEndian)
		if err != nil {
			return tag, nil, types.ErrInvalidInstructionData
		}
		return tag, amountArgs{Amount: amount}, nil
	case InstructionSetAuthority:
		if len(data) < 1+1+1 {
			return tag, nil, types.ErrInvalidInstructionData
		}
		kind, _ := dec.ReadUint8()
		present, _ := dec.ReadUint8()
		args := setAuthority{Type: AuthorityType(kind)}
		if present == 1 {
			raw, err := dec.ReadNBytes(32)
			if err != nil {
				return tag, nil, types.ErrInvalidInstructionData
			}
			key := solana.PublicKeyFromBytes(raw)
			args.NewAuthority = &key
		} else if present != 0 {
			return tag, nil, types.ErrInvalidInstructionData
		}
		return tag, args, nil
	default:
		return tag, nil, types.ErrInvalidInstructionData
	}
}

func instruction(accounts []types.AccountMeta, write func(*bin.Encoder)) types.Instruction {
	buf := new(bytes.Buffer)
	write(bin.NewBinEncoder(buf))
	return types.Instruction{ProgramID: solana.TokenProgramID, Accounts: accounts, Data: buf.Bytes()}
}

// NewInitializeMintInstruction initializes mint with no freeze authority.
func NewInitializeMintInstruction(mint solana.PublicKey, decimals uint8, mintAuthority solana.PublicKey) types.Instruction {
	return instruction([]types.AccountMeta{
		types.NewAccountMeta(mint, true, false),
	}, func(enc *bin.Encoder) {
		_ = enc.WriteUint8(InstructionInitializeMint)
		_ = enc.WriteUint8(decimals)
		_ = enc.WriteBytes(mintAuthority[:], false)
		_ = enc.WriteUint8(0)
	})
}

// NewInitializeAccountInstruction binds account to mint and owner.
func NewInitializeAccountInstruction(account, mint, owner solana.PublicKey) types.Instruction {
	return instruction([]types.AccountMeta{
		types.NewAccountMeta(account, true, false),
		types.NewAccountMeta(mint, false, false),
		types.NewAccountMeta(owner, false, false),
	}, func(enc *bin.Encoder) {
		_ = enc.WriteUint8(InstructionInitializeAccount)
	})
}

// NewTransferInstruction moves amount tokens from src to dst, signed by owner.
func NewTransferInstruction(src, dst, owner solana.PublicKey, amount uint64) types.Instruction {
	return instruction([]types.AccountMeta{
		types.NewAccountMeta(src, true, false),
		types.NewAccountMeta(dst, true, false),
		types.NewAccountMeta(owner, false, true),
	}, func(enc *bin.Encoder) {
		_ = enc.WriteUint8(InstructionTransfer)
		_ = enc.WriteUint64(amount, binary.LittleEndian)
	})
}

// NewSetOwnerInstruction reassigns account to newOwner, signed by the current
// owner.
func NewSetOwnerInstruction(account, currentOwner, newOwner solana.PublicKey) types.Instruction {
	return instruction([]types.AccountMeta{
		types.NewAccountMeta(account, true, false),
		types.NewAccountMeta(currentOwner, false, true),
	}, func(enc *bin.Encoder) {
		_ = enc.WriteUint8(InstructionSetAuthority)
		_ = enc.WriteUint8(uint8(AuthorityAccountOwner))
		_ = enc.WriteUint8(1)
		_ = enc.WriteBytes(newOwner[:], false)
	})
}

// NewMintToInstruction mints amount tokens into dst.
func NewMintToInstruction(mint, dst, mintAuthority solana.PublicKey, amount uint64) types.Instruction {
	return instruction([]types.AccountMeta{
		types.NewAccountMeta(mint, true, false),
		types.NewAccountMeta(dst, true, false),
		types.NewAccountMeta(mintAuthority, false, true),
	}, func(enc *bin.Encoder) {
		_ = enc.WriteUint8(InstructionMintTo)
		_ = enc.WriteUint64(amount, binary.LittleEndian)
	})
}

// NewCloseAccountInstruction closes an empty account, returning its lamports
// to dst.
func NewCloseAccountInstruction(account, dst, owner solana.PublicKey) types.Instruction {
	return instruction([]types.AccountMeta{
		types.NewAccountMeta(account, true, false),
		types.NewAccountMeta(dst, true, false),
		types.NewAccountMeta(owner, false, true),
	}, func(enc *bin.Encoder) {
		_ = enc.WriteUint8(InstructionCloseAccount)
	})
}
