package system

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/StorkBison/escrow-sell-SC/core/program"
	"github.com/StorkBison/escrow-sell-SC/core/types"
)

func wallet(lamports uint64, signer bool) *types.AccountInfo {
	info := types.NewAccountInfo(solana.NewWallet().PublicKey(), nil)
	info.Lamports = lamports
	info.IsSigner = signer
	info.IsWritable = true
	return info
}

func TestRentMinimumBalance(t *testing.T) {
	rent := DefaultRent()
	require.Equal(t, uint64((128+73)*3480*2), rent.MinimumBalance(73))
	require.True(t, rent.IsExempt(rent.MinimumBalance(73), 73))
	require.False(t, rent.IsExempt(rent.MinimumBalance(73)-1, 73))

	huge := Rent{LamportsPerByteYear: ^uint64(0), ExemptionYears: 2}
	require.Equal(t, ^uint64(0), huge.MinimumBalance(1))
}

func TestTransferInstruction(t *testing.T) {
	from := wallet(100, true)
	to := wallet(0, false)
	ix := NewTransferInstruction(from.Key, to.Key, 60)

	err := New().Process(program.NewContext(solana.SystemProgramID, nil, nil), []*types.AccountInfo{from, to}, ix.Data)
	require.NoError(t, err)
	require.Equal(t, uint64(40), from.Lamports)
	require.Equal(t, uint64(60), to.Lamports)

	ix = NewTransferInstruction(from.Key, to.Key, 41)
	err = New().Process(program.NewContext(solana.SystemProgramID, nil, nil), []*types.AccountInfo{from, to}, ix.Data)
	require.ErrorIs(t, err, types.ErrInsufficientFunds)
	require.Equal(t, uint64(40), from.Lamports)

	from.IsSigner = false
	err = New().Process(program.NewContext(solana.SystemProgramID, nil, nil), []*types.AccountInfo{from, to}, ix.Data)
	require.ErrorIs(t, err, types.ErrMissingRequiredSignature)
}

func TestTransferOverflow(t *testing.T) {
	from := wallet(10, true)
	to := wallet(^uint64(0)-5, false)
	require.ErrorIs(t, New().Transfer(10, from, to), types.ErrArithmeticOverflow)
	require.Equal(t, uint64(10), from.Lamports)
}

func TestCreateAccount(t *testing.T) {
	funder := wallet(1_000_000, true)
	target := wallet(0, true)
	owner := solana.NewWallet().PublicKey()
	ix := NewCreateAccountInstruction(funder.Key, target.Key, 500_000, 73, owner)

	ctx := program.NewContext(solana.SystemProgramID, nil, nil)
	require.NoError(t, New().Process(ctx, []*types.AccountInfo{funder, target}, ix.Data))
	require.Equal(t, uint64(500_000), target.Lamports)
	require.Len(t, target.Data, 73)
	require.Equal(t, owner, target.Owner)

	err := New().Process(ctx, []*types.AccountInfo{funder, target}, ix.Data)
	require.ErrorIs(t, err, types.ErrAccountAlreadyInitialized)
	require.NotEmpty(t, ctx.Logs())
}

func TestDecodeRejectsMalformed(t *testing.T) {
	ctx := program.NewContext(solana.SystemProgramID, nil, nil)
	accounts := []*types.AccountInfo{wallet(1, true), wallet(0, false)}
	for _, data := range [][]byte{nil, {2, 0, 0, 0, 1}, {9, 0, 0, 0}} {
		require.ErrorIs(t, New().Process(ctx, accounts, data), types.ErrInvalidInstructionData)
	}
}
