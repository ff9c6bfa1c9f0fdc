package types

import "github.com/gagliardetto/solana-go"

// Signer authorizes an operation on behalf of a key. Transaction signers
// (*AccountInfo) and program-derived addresses (*Seal) both satisfy it.
type Signer interface {
	SignerKey() solana.PublicKey
	Signed() bool
}

// Seal is a program's proof of authority over one of its derived addresses,
// the in-process equivalent of signing a cross-program call with seeds.
type Seal struct {
	ProgramID solana.PublicKey
	Seeds     [][]byte
	Address   solana.PublicKey
}

// NewSeal derives the address for seeds under programID and returns the
// matching seal. The seeds must include the bump byte.
func NewSeal(programID solana.PublicKey, seeds ...[]byte) (*Seal, error) {
	addr, err := solana.CreateProgramAddress(seeds, programID)
	if err != nil {
		return nil, err
	}
	return &Seal{ProgramID: programID, Seeds: seeds, Address: addr}, nil
}

// SignerKey implements Signer.
func (s *Seal) SignerKey() solana.PublicKey {
	if s == nil {
		return solana.PublicKey{}
	}
	return s.Address
}

// Signed re-derives the address from the seeds and reports whether it still
// matches.
func (s *Seal) Signed() bool {
	if s == nil {
		return false
	}
	addr, err := solana.CreateProgramAddress(s.Seeds, s.ProgramID)
	return err == nil && addr.Equals(s.Address)
}
