package metadata

import "github.com/gagliardetto/solana-go"

// DefaultProgramID is the address of the token-metadata program.
var DefaultProgramID = solana.MustPublicKeyFromBase58("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")

const seedPrefix = "metadata"

// Provider locates and parses metadata records for mints.
type Provider struct {
	programID solana.PublicKey
}

// NewProvider returns a provider for the metadata program at programID.
func NewProvider(programID solana.PublicKey) *Provider {
	return &Provider{programID: programID}
}

// ProgramID returns the metadata program address.
func (p *Provider) ProgramID() solana.PublicKey { return p.programID }

// Address derives the metadata account of mint.
func (p *Provider) Address(mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{
		[]byte(seedPrefix),
		p.programID[:],
		mint[:],
	}, p.programID)
	return addr, err
}

// Parse decodes raw account data.
func (p *Provider) Parse(data []byte) (*Metadata, error) {
	return Decode(data)
}
