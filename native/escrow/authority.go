package escrow

import (
	"github.com/gagliardetto/solana-go"

	"github.com/StorkBison/escrow-sell-SC/core/types"
)

// DefaultSeed is the fixed seed of the delegated authority.
const DefaultSeed = "escrow"

// Authority derives the program-controlled address that holds escrowed
// assets, together with the proof needed to act as it.
type Authority interface {
	Derive(salt solana.PublicKey) (solana.PublicKey, *types.Seal, error)
}

// PDAAuthority derives the authority as a program address of the salt.
type PDAAuthority struct {
	seed []byte
}

// NewPDAAuthority returns an authority derived from seed; an empty seed
// selects DefaultSeed.
func NewPDAAuthority(seed string) *PDAAuthority {
	if seed == "" {
		seed = DefaultSeed
	}
	return &PDAAuthority{seed: []byte(seed)}
}

// Derive finds the program address of the seed under salt. The salt is the
// escrow program ID, so every deployment has its own authority.
func (a *PDAAuthority) Derive(salt solana.PublicKey) (solana.PublicKey, *types.Seal, error) {
	addr, bump, err := solana.FindProgramAddress([][]byte{a.seed}, salt)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	seal := &types.Seal{
		ProgramID: salt,
		Seeds:     [][]byte{a.seed, {bump}},
		Address:   addr,
	}
	return addr, seal, nil
}
