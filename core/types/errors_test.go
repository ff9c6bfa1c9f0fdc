package types

import (
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

func TestProgramErrorLabels(t *testing.T) {
	require.Equal(t, "MissingRequiredSignature", ErrMissingRequiredSignature.Label())

	custom := CustomError(11, "InvalidRoyaltyFee", "royalty fee too high")
	require.Equal(t, "Custom(11)", custom.Label())
	require.Equal(t, "royalty fee too high", custom.Error())
}

func TestProgramErrorMatchesThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("exchange: %w", ErrInvalidAccountData)
	require.ErrorIs(t, wrapped, ErrInvalidAccountData)
	require.NotErrorIs(t, wrapped, ErrInvalidArgument)

	a := CustomError(2, "ExpectedAmountMismatch", "")
	b := CustomError(2, "ExpectedAmountMismatch", "")
	require.ErrorIs(t, a, b)
	require.NotErrorIs(t, a, CustomError(3, "AmountOverflow", ""))

	pe, ok := AsProgramError(wrapped)
	require.True(t, ok)
	require.Equal(t, KindInvalidAccountData, pe.Kind)

	receiptErr := NewReceiptError(wrapped, 1)
	require.Equal(t, "InvalidAccountData", receiptErr.Code)
	require.Equal(t, 1, receiptErr.Instruction)
}

func TestSealProvesDerivedAddress(t *testing.T) {
	programID := solana.NewWallet().PublicKey()
	addr, bump, err := solana.FindProgramAddress([][]byte{[]byte("escrow"), programID[:]}, programID)
	require.NoError(t, err)

	seal, err := NewSeal(programID, []byte("escrow"), programID[:], []byte{bump})
	require.NoError(t, err)
	require.Equal(t, addr, seal.SignerKey())
	require.True(t, seal.Signed())

	forged := &Seal{ProgramID: programID, Seeds: seal.Seeds, Address: solana.NewWallet().PublicKey()}
	require.False(t, forged.Signed())

	var none *Seal
	require.False(t, none.Signed())
}
