package fees

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
)

// Royalty is the creator royalty attached to an asset. A nil Creators slice
// means royalties are withheld from the seller but paid to nobody.
type Royalty struct {
	BasisPoints uint16
	Creators    []CreatorShare
}

// CreatorShare is one creator's percentage of the royalty.
type CreatorShare struct {
	Address solana.PublicKey
	Share   uint8
}

// Payout is the amount owed to one creator.
type Payout struct {
	Creator solana.PublicKey
	Amount  uint64
}

// Quote is the settlement plan of a paid exchange. Tax + Royalty + Final
// always equals Price.
type Quote struct {
	Price   uint64
	Tax     uint64
	Royalty uint64
	Final   uint64
	Payouts []Payout
}

// mulDiv computes floor(a*b/d) without intermediate overflow.
func mulDiv(a, b, d uint64) uint64 {
	x := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	return x.Div(x, uint256.NewInt(d)).Uint64()
}

// Tax is the sales tax owed on price.
func (s Schedule) Tax(price uint64) uint64 {
	return mulDiv(price, uint64(s.SalesTaxBps), BasisPoints)
}

// CheckRoyalty rejects royalty rates that together with the sales tax exceed
// the whole price.
func (s Schedule) CheckRoyalty(bps uint16) error {
	if uint64(bps)+uint64(s.SalesTaxBps) > BasisPoints {
		return fmt.Errorf("%w: %d + %d bps", ErrRoyaltyTooHigh, bps, s.SalesTaxBps)
	}
	return nil
}

// Quote plans the distribution of price. royalty may be nil when the asset
// carries no metadata.
func (s Schedule) Quote(price uint64, royalty *Royalty) (Quote, error) {
	q := Quote{Price: price, Tax: s.Tax(price)}
	if royalty != nil {
		if err := s.CheckRoyalty(royalty.BasisPoints); err != nil {
			return Quote{}, err
		}
		q.Royalty = mulDiv(price, uint64(royalty.BasisPoints), BasisPoints)
		for _, c := range royalty.Creators {
			if c.Share > 100 {
				return Quote{}, fmt.Errorf("%w: %s", ErrShareOutOfRange, c.Address)
			}
			q.Payouts = append(q.Payouts, Payout{
				Creator: c.Address,
				Amount:  mulDiv(uint64(c.Share), q.Royalty, 100),
			})
		}
	}
	// Compare before subtracting so a deficit is rejected rather than wrapped.
	final := new(uint256.Int).SetUint64(price)
	deductions := new(uint256.Int).Add(uint256.NewInt(q.Tax), uint256.NewInt(q.Royalty))
	if final.Cmp(deductions) <= 0 {
		return Quote{}, fmt.Errorf("%w: price %d, tax %d, royalty %d", ErrNonPositiveFinal, price, q.Tax, q.Royalty)
	}
	q.Final = final.Sub(final, deductions).Uint64()
	return q, nil
}

// PayoutTotal sums the creator payouts. It never exceeds Royalty when shares
// sum to at most 100.
func (q Quote) PayoutTotal() uint64 {
	total := new(uint256.Int)
	for _, p := range q.Payouts {
		total.Add(total, uint256.NewInt(p.Amount))
	}
	return total.Uint64()
}
