package metadata

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/StorkBison/escrow-sell-SC/core/program"
	"github.com/StorkBison/escrow-sell-SC/core/types"
	"github.com/StorkBison/escrow-sell-SC/native/system"
	"github.com/StorkBison/escrow-sell-SC/native/token"
)

func sampleMetadata(creators []Creator) *Metadata {
	return &Metadata{
		Key:             KeyMetadataV1,
		UpdateAuthority: solana.NewWallet().PublicKey(),
		Mint:            solana.NewWallet().PublicKey(),
		Data: Data{
			Name:                 "Sunset #1",
			Symbol:               "SUN",
			URI:                  "https://example.invalid/1.json",
			SellerFeeBasisPoints: 500,
			Creators:             creators,
		},
		PrimarySaleHappened: true,
		IsMutable:           true,
	}
}

func TestDecodeEncodedRecord(t *testing.T) {
	creators := []Creator{
		{Address: solana.NewWallet().PublicKey(), Verified: true, Share: 60},
		{Address: solana.NewWallet().PublicKey(), Share: 40},
	}
	md := sampleMetadata(creators)
	raw, err := md.Encode()
	require.NoError(t, err)

	// accounts are allocated larger than the record
	padded := append(raw, make([]byte, 64)...)
	got, err := Decode(padded)
	require.NoError(t, err)
	require.Equal(t, md, got)
}

func TestDecodeWithoutCreators(t *testing.T) {
	raw, err := sampleMetadata(nil).Encode()
	require.NoError(t, err)
	got, err := Decode(raw)
	require.NoError(t, err)
	require.Nil(t, got.Data.Creators)
	require.Equal(t, uint16(500), got.Data.SellerFeeBasisPoints)
}

func TestDecodeFailures(t *testing.T) {
	_, err := Decode(nil)
	require.ErrorIs(t, err, ErrMissing)

	raw, err := sampleMetadata(nil).Encode()
	require.NoError(t, err)

	wrongKey := append([]byte(nil), raw...)
	wrongKey[0] = 1
	_, err = Decode(wrongKey)
	require.ErrorIs(t, err, ErrInvalid)

	_, err = Decode(raw[:40])
	require.ErrorIs(t, err, ErrInvalid)

	bad := sampleMetadata([]Creator{{Address: solana.NewWallet().PublicKey(), Share: 90}})
	raw, err = bad.Encode()
	require.NoError(t, err)
	_, err = Decode(raw)
	require.ErrorIs(t, err, ErrNumericConversion)

	tooHigh := sampleMetadata(nil)
	tooHigh.Data.SellerFeeBasisPoints = 10_001
	require.ErrorIs(t, tooHigh.Data.Validate(), ErrNumericConversion)
	raw, err = tooHigh.Encode()
	require.NoError(t, err)
	decoded, err := Decode(raw)
	require.NoError(t, err)
	require.Equal(t, uint16(10_001), decoded.Data.SellerFeeBasisPoints)
}

func TestAddressIsDeterministic(t *testing.T) {
	p := NewProvider(DefaultProgramID)
	mint := solana.NewWallet().PublicKey()
	a, err := p.Address(mint)
	require.NoError(t, err)
	b, err := p.Address(mint)
	require.NoError(t, err)
	require.Equal(t, a, b)

	other, err := p.Address(solana.NewWallet().PublicKey())
	require.NoError(t, err)
	require.NotEqual(t, a, other)
}

func TestCreateInstruction(t *testing.T) {
	rent := system.DefaultRent()
	provider := NewProvider(DefaultProgramID)
	prog := New(provider, rent, system.New())

	authority := types.NewAccountInfo(solana.NewWallet().PublicKey(), nil)
	authority.IsSigner = true
	authority.IsWritable = true
	authority.Lamports = 1_000_000_000

	mint := types.NewAccountInfo(solana.NewWallet().PublicKey(), nil)
	mint.Owner = solana.TokenProgramID
	mintAuthority := authority.Key
	mint.Data = (&token.Mint{MintAuthority: &mintAuthority, IsInitialized: true}).Pack()

	fields := Data{
		Name:                 "Sunset #1",
		Symbol:               "SUN",
		SellerFeeBasisPoints: 500,
		Creators:             []Creator{{Address: authority.Key, Share: 100}},
	}
	ix, err := provider.CreateInstruction(authority.Key, mint.Key, authority.Key, authority.Key, fields, true)
	require.NoError(t, err)

	record := types.NewAccountInfo(ix.Accounts[1].PublicKey, nil)
	record.IsWritable = true
	accounts := []*types.AccountInfo{authority, record, mint, authority, authority}
	ctx := program.NewContext(DefaultProgramID, nil, nil)
	require.NoError(t, prog.Process(ctx, accounts, ix.Data))

	require.Equal(t, DefaultProgramID, record.Owner)
	require.True(t, rent.IsExempt(record.Lamports, len(record.Data)))
	md, err := provider.Parse(record.Data)
	require.NoError(t, err)
	require.Equal(t, mint.Key, md.Mint)
	require.True(t, md.Data.Creators[0].Verified)
	require.False(t, md.PrimarySaleHappened)

	require.ErrorIs(t, prog.Process(ctx, accounts, ix.Data), types.ErrAccountAlreadyInitialized)
}
