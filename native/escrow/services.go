package escrow

import (
	"github.com/gagliardetto/solana-go"

	"github.com/StorkBison/escrow-sell-SC/core/types"
	"github.com/StorkBison/escrow-sell-SC/native/metadata"
)

// RentPolicy decides whether an account balance is retained indefinitely.
type RentPolicy interface {
	IsExempt(lamports uint64, dataLen int) bool
}

// TokenService moves and re-owns token accounts on behalf of authority.
type TokenService interface {
	Transfer(amount uint64, src, dst *types.AccountInfo, authority types.Signer) error
	SetOwner(account *types.AccountInfo, newOwner solana.PublicKey, authority types.Signer) error
	CloseAccount(account, dst *types.AccountInfo, authority types.Signer) error
}

// ValueTransfer moves lamports between accounts.
type ValueTransfer interface {
	Transfer(amount uint64, from, to *types.AccountInfo) error
}

// MetadataProvider locates and parses per-mint royalty metadata.
type MetadataProvider interface {
	Address(mint solana.PublicKey) (solana.PublicKey, error)
	Parse(data []byte) (*metadata.Metadata, error)
}
