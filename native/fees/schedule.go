package fees

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// BasisPoints is the denominator of every rate.
const BasisPoints = 10_000

const (
	DefaultListingFee  uint64 = 10_000_000
	DefaultSalesTaxBps uint16 = 250
)

// DefaultRecipient receives listing fees and sales tax unless configured
// otherwise.
var DefaultRecipient = solana.MustPublicKeyFromBase58("8Ba7LXjBTWScPKMV4Lmz5dsenz53NVAwJsKYXyf7TzFZ")

var (
	ErrRateOutOfRange   = errors.New("fees: rate exceeds 10000 basis points")
	ErrZeroRecipient    = errors.New("fees: recipient must be set")
	ErrRoyaltyTooHigh   = errors.New("fees: royalty and sales tax exceed the price")
	ErrNonPositiveFinal = errors.New("fees: nothing left for the seller")
	ErrShareOutOfRange  = errors.New("fees: creator share exceeds 100")
)

// Schedule is the immutable fee configuration of an escrow deployment.
type Schedule struct {
	Recipient   solana.PublicKey `toml:"Recipient"`
	ListingFee  uint64           `toml:"ListingFee"`
	SalesTaxBps uint16           `toml:"SalesTaxBps"`
}

// DefaultSchedule returns the production fee schedule.
func DefaultSchedule() Schedule {
	return Schedule{
		Recipient:   DefaultRecipient,
		ListingFee:  DefaultListingFee,
		SalesTaxBps: DefaultSalesTaxBps,
	}
}

// Validate checks the schedule before it is handed to the engine.
func (s Schedule) Validate() error {
	if s.Recipient.IsZero() {
		return ErrZeroRecipient
	}
	if s.SalesTaxBps > BasisPoints {
		return fmt.Errorf("%w: sales tax %d", ErrRateOutOfRange, s.SalesTaxBps)
	}
	return nil
}
