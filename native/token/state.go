package token

import (
	"bytes"
	"encoding/binary"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/StorkBison/escrow-sell-SC/core/types"
)

const (
	MintLen    = 82
	AccountLen = 165
)

// Mint describes a token type.
type Mint struct {
	MintAuthority   *solana.PublicKey
	Supply          uint64
	Decimals        uint8
	IsInitialized   bool
	FreezeAuthority *solana.PublicKey
}

// AccountState is the lifecycle state of a token account.
type AccountState uint8

const (
	AccountUninitialized AccountState = iota
	AccountInitialized
	AccountFrozen
)

// Account holds a balance of one mint on behalf of Owner.
type Account struct {
	Mint            solana.PublicKey
	Owner           solana.PublicKey
	Amount          uint64
	Delegate        *solana.PublicKey
	State           AccountState
	IsNative        *uint64
	DelegatedAmount uint64
	CloseAuthority  *solana.PublicKey
}

// UnpackMint decodes an initialized mint.
func UnpackMint(data []byte) (*Mint, error) {
	if len(data) != MintLen {
		return nil, types.ErrInvalidAccountData
	}
	dec := bin.NewBinDecoder(data)
	var (
		m   Mint
		err error
	)
	if m.MintAuthority, err = readKeyOption(dec); err != nil {
		return nil, err
	}
	if m.Supply, err = dec.ReadUint64(binary.LittleEndian); err != nil {
		return nil, types.ErrInvalidAccountData
	}
	if m.Decimals, err = dec.ReadUint8(); err != nil {
		return nil, types.ErrInvalidAccountData
	}
	if m.IsInitialized, err = dec.ReadBool(); err != nil {
		return nil, types.ErrInvalidAccountData
	}
	if m.FreezeAuthority, err = readKeyOption(dec); err != nil {
		return nil, err
	}
	if !m.IsInitialized {
		return nil, ErrUninitializedState
	}
	return &m, nil
}

// Pack encodes the mint into its fixed layout.
func (m *Mint) Pack() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, MintLen))
	enc := bin.NewBinEncoder(buf)
	writeKeyOption(enc, m.MintAuthority)
	_ = enc.WriteUint64(m.Supply, binary.LittleEndian)
	_ = enc.WriteUint8(m.Decimals)
	_ = enc.WriteBool(m.IsInitialized)
	writeKeyOption(enc, m.FreezeAuthority)
	return buf.Bytes()
}

// UnpackAccount decodes an initialized token account.
func UnpackAccount(data []byte) (*Account, error) {
	a, err := unpackAccountUnchecked(data)
	if err != nil {
		return nil, err
	}
	if a.State == AccountUninitialized {
		return nil, ErrUninitializedState
	}
	return a, nil
}

func unpackAccountUnchecked(data []byte) (*Account, error) {
	if len(data) != AccountLen {
		return nil, types.ErrInvalidAccountData
	}
	dec := bin.NewBinDecoder(data)
	var (
		a   Account
		err error
	)
	mint, err := dec.ReadNBytes(32)
	if err != nil {
		return nil, types.ErrInvalidAccountData
	}
	a.Mint = solana.PublicKeyFromBytes(mint)
	owner, err := dec.ReadNBytes(32)
	if err != nil {
		return nil, types.ErrInvalidAccountData
	}
	a.Owner = solana.PublicKeyFromBytes(owner)
	if a.Amount, err = dec.ReadUint64(binary.LittleEndian); err != nil {
		return nil, types.ErrInvalidAccountData
	}
	if a.Delegate, err = readKeyOption(dec); err != nil {
		return nil, err
	}
	state, err := dec.ReadUint8()
	if err != nil || state > uint8(AccountFrozen) {
		return nil, types.ErrInvalidAccountData
	}
	a.State = AccountState(state)
	tag, err := dec.ReadUint32(binary.LittleEndian)
	if err != nil || tag > 1 {
		return nil, types.ErrInvalidAccountData
	}
	native, err := dec.ReadUint64(binary.LittleEndian)
	if err != nil {
		return nil, types.ErrInvalidAccountData
	}
	if tag == 1 {
		a.IsNative = &native
	}
	if a.DelegatedAmount, err = dec.ReadUint64(binary.LittleEndian); err != nil {
		return nil, types.ErrInvalidAccountData
	}
	if a.CloseAuthority, err = readKeyOption(dec); err != nil {
		return nil, err
	}
	return &a, nil
}

// Pack encodes the account into its fixed layout.
func (a *Account) Pack() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, AccountLen))
	enc := bin.NewBinEncoder(buf)
	_ = enc.WriteBytes(a.Mint[:], false)
	_ = enc.WriteBytes(a.Owner[:], false)
	_ = enc.WriteUint64(a.Amount, binary.LittleEndian)
	writeKeyOption(enc, a.Delegate)
	_ = enc.WriteUint8(uint8(a.State))
	if a.IsNative != nil {
		_ = enc.WriteUint32(1, binary.LittleEndian)
		_ = enc.WriteUint64(*a.IsNative, binary.LittleEndian)
	} else {
		_ = enc.WriteUint32(0, binary.LittleEndian)
		_ = enc.WriteUint64(0, binary.LittleEndian)
	}
	_ = enc.WriteUint64(a.DelegatedAmount, binary.LittleEndian)
	writeKeyOption(enc, a.CloseAuthority)
	return buf.Bytes()
}

// readKeyOption decodes a C-style option: a 4-byte tag followed by a key
// that is present even when the tag is zero.
func readKeyOption(dec *bin.Decoder) (*solana.PublicKey, error) {
	tag, err := dec.ReadUint32(binary.LittleEndian)
	if err != nil || tag > 1 {
		return nil, types.ErrInvalidAccountData
	}
	raw, err := dec.ReadNBytes(32)
	if err != nil {
		return nil, types.ErrInvalidAccountData
	}
	if tag == 0 {
		return nil, nil
	}
	key := solana.PublicKeyFromBytes(raw)
	return &key, nil
}

func writeKeyOption(enc *bin.Encoder, key *solana.PublicKey) {
	if key == nil {
		_ = enc.WriteUint32(0, binary.LittleEndian)
		_ = enc.WriteBytes(make([]byte, 32), false)
		return
	}
	_ = enc.WriteUint32(1, binary.LittleEndian)
	_ = enc.WriteBytes(key[:], false)
}
