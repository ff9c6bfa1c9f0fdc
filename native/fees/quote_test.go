package fees

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

func TestQuoteWithoutMetadata(t *testing.T) {
	q, err := DefaultSchedule().Quote(1000, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(25), q.Tax)
	require.Equal(t, uint64(0), q.Royalty)
	require.Equal(t, uint64(975), q.Final)
	require.Empty(t, q.Payouts)
}

func TestQuoteWithSingleCreator(t *testing.T) {
	creator := solana.NewWallet().PublicKey()
	q, err := DefaultSchedule().Quote(1000, &Royalty{
		BasisPoints: 500,
		Creators:    []CreatorShare{{Address: creator, Share: 100}},
	})
	require.NoError(t, err)
	require.Equal(t, uint64(25), q.Tax)
	require.Equal(t, uint64(50), q.Royalty)
	require.Equal(t, uint64(925), q.Final)
	require.Equal(t, []Payout{{Creator: creator, Amount: 50}}, q.Payouts)
}

func TestQuoteConservesPrice(t *testing.T) {
	schedule := DefaultSchedule()
	creators := []CreatorShare{
		{Address: solana.NewWallet().PublicKey(), Share: 33},
		{Address: solana.NewWallet().PublicKey(), Share: 33},
		{Address: solana.NewWallet().PublicKey(), Share: 34},
	}
	for _, price := range []uint64{41, 999, 1_000_003, 18_446_744_073_709_551_615} {
		for _, bps := range []uint16{0, 1, 333, 9_750} {
			q, err := schedule.Quote(price, &Royalty{BasisPoints: bps, Creators: creators})
			require.NoError(t, err, "price %d bps %d", price, bps)
			require.Equal(t, price, q.Tax+q.Royalty+q.Final)
			require.LessOrEqual(t, q.PayoutTotal(), q.Royalty)
		}
	}
}

func TestQuoteRejectsExcessiveRoyalty(t *testing.T) {
	_, err := DefaultSchedule().Quote(1000, &Royalty{BasisPoints: 9_751})
	require.ErrorIs(t, err, ErrRoyaltyTooHigh)
}

func TestQuoteRejectsNonPositiveFinal(t *testing.T) {
	schedule := DefaultSchedule()

	_, err := schedule.Quote(1000, &Royalty{BasisPoints: 9_750})
	require.ErrorIs(t, err, ErrNonPositiveFinal)

	_, err = schedule.Quote(0, nil)
	require.ErrorIs(t, err, ErrNonPositiveFinal)
}

func TestRoyaltyWithoutCreatorsStillDeducted(t *testing.T) {
	q, err := DefaultSchedule().Quote(1000, &Royalty{BasisPoints: 500})
	require.NoError(t, err)
	require.Equal(t, uint64(50), q.Royalty)
	require.Equal(t, uint64(925), q.Final)
	require.Zero(t, q.PayoutTotal())
}

func TestScheduleValidate(t *testing.T) {
	require.NoError(t, DefaultSchedule().Validate())

	s := DefaultSchedule()
	s.SalesTaxBps = 10_001
	require.ErrorIs(t, s.Validate(), ErrRateOutOfRange)

	s = DefaultSchedule()
	s.Recipient = solana.PublicKey{}
	require.ErrorIs(t, s.Validate(), ErrZeroRecipient)
}
