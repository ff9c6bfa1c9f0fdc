package escrow

import (
	"strconv"

	"github.com/gagliardetto/solana-go"

	"github.com/StorkBison/escrow-sell-SC/core/types"
	"github.com/StorkBison/escrow-sell-SC/native/fees"
)

const (
	EventTypeEscrowInitialized = "escrow.initialized"
	EventTypeEscrowSettled     = "escrow.settled"
	EventTypeEscrowCancelled   = "escrow.cancelled"
)

// NewInitializedEvent returns the event emitted when a listing opens.
func NewInitializedEvent(record solana.PublicKey, r *Record, listingFee uint64) *types.Event {
	evt := newRecordEvent(EventTypeEscrowInitialized, record, r)
	evt.Attributes["listingFee"] = strconv.FormatUint(listingFee, 10)
	return evt
}

// NewSettledEvent returns the event emitted when a taker buys the asset.
func NewSettledEvent(record solana.PublicKey, r *Record, taker solana.PublicKey, q fees.Quote) *types.Event {
	evt := newRecordEvent(EventTypeEscrowSettled, record, r)
	evt.Attributes["taker"] = taker.String()
	evt.Attributes["tax"] = strconv.FormatUint(q.Tax, 10)
	evt.Attributes["royalty"] = strconv.FormatUint(q.Royalty, 10)
	evt.Attributes["proceeds"] = strconv.FormatUint(q.Final, 10)
	evt.Attributes["creators"] = strconv.Itoa(len(q.Payouts))
	return evt
}

// NewCancelledEvent returns the event emitted when the initializer reclaims
// the asset.
func NewCancelledEvent(record solana.PublicKey, r *Record) *types.Event {
	evt := newRecordEvent(EventTypeEscrowCancelled, record, r)
	evt.Attributes["taker"] = r.Initializer.String()
	return evt
}

func newRecordEvent(kind string, record solana.PublicKey, r *Record) *types.Event {
	return &types.Event{
		Type: kind,
		Attributes: map[string]string{
			"escrow":      record.String(),
			"initializer": r.Initializer.String(),
			"mint":        r.Mint.String(),
			"heldAccount": r.HeldAccount.String(),
			"price":       strconv.FormatUint(r.ExpectedAmount, 10),
		},
	}
}
