package escrow

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/StorkBison/escrow-sell-SC/core/types"
)

func TestRecordLayout(t *testing.T) {
	r := &Record{
		Initialized:    true,
		Initializer:    solana.NewWallet().PublicKey(),
		Mint:           solana.NewWallet().PublicKey(),
		HeldAccount:    solana.NewWallet().PublicKey(),
		ExpectedAmount: 0x0102030405060708,
	}
	buf := make([]byte, RecordLen)
	require.NoError(t, r.PackInto(buf))
	require.Equal(t, byte(1), buf[0])
	require.Equal(t, r.Initializer[:], buf[1:33])
	require.Equal(t, []byte{8, 7, 6, 5, 4, 3, 2, 1}, buf[97:105])

	got, err := UnpackRecord(buf)
	require.NoError(t, err)
	require.Equal(t, r, got)
}

func TestRecordDecodeErrors(t *testing.T) {
	_, err := UnpackRecord(make([]byte, RecordLen))
	require.ErrorIs(t, err, types.ErrUninitializedAccount)

	_, err = UnpackRecordUnchecked(make([]byte, RecordLen-1))
	require.ErrorIs(t, err, types.ErrAccountDataTooSmall)

	_, err = UnpackRecordUnchecked(make([]byte, RecordLen+1))
	require.ErrorIs(t, err, types.ErrInvalidAccountData)

	bad := make([]byte, RecordLen)
	bad[0] = 2
	_, err = UnpackRecordUnchecked(bad)
	require.ErrorIs(t, err, types.ErrInvalidAccountData)
}

func TestUnpackInstruction(t *testing.T) {
	ix, err := UnpackInstruction([]byte{1, 0xe8, 0x03, 0, 0, 0, 0, 0, 0})
	require.NoError(t, err)
	require.Equal(t, Instruction{Kind: KindExchange, Amount: 1000}, ix)
	require.Equal(t, "Exchange", ix.Kind.String())

	packed := Instruction{Kind: KindInitEscrow, Amount: 42}.Pack()
	ix, err = UnpackInstruction(packed)
	require.NoError(t, err)
	require.Equal(t, KindInitEscrow, ix.Kind)
	require.Equal(t, uint64(42), ix.Amount)

	for _, data := range [][]byte{nil, {0}, {1, 1, 2, 3}, {2, 0, 0, 0, 0, 0, 0, 0, 0}} {
		_, err := UnpackInstruction(data)
		require.ErrorIs(t, err, ErrInvalidInstruction)
	}
}

func TestAuthorityDerivation(t *testing.T) {
	programID := solana.NewWallet().PublicKey()
	a := NewPDAAuthority("")

	addr, seal, err := a.Derive(programID)
	require.NoError(t, err)
	require.Equal(t, addr, seal.SignerKey())
	require.True(t, seal.Signed())

	again, _, err := a.Derive(programID)
	require.NoError(t, err)
	require.Equal(t, addr, again)

	other, _, err := a.Derive(solana.NewWallet().PublicKey())
	require.NoError(t, err)
	require.NotEqual(t, addr, other)

	expected, _, err := solana.FindProgramAddress([][]byte{[]byte(DefaultSeed)}, programID)
	require.NoError(t, err)
	require.Equal(t, expected, addr)
}

func TestOneUnit(t *testing.T) {
	unit, ok := oneUnit(0)
	require.True(t, ok)
	require.Equal(t, uint64(1), unit)

	unit, ok = oneUnit(19)
	require.True(t, ok)
	require.Equal(t, uint64(10_000_000_000_000_000_000), unit)

	_, ok = oneUnit(20)
	require.False(t, ok)
}
