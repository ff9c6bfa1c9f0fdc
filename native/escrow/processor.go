package escrow

import (
	"errors"
	"math/bits"

	"github.com/StorkBison/escrow-sell-SC/core/program"
	"github.com/StorkBison/escrow-sell-SC/core/types"
	"github.com/StorkBison/escrow-sell-SC/native/fees"
	"github.com/StorkBison/escrow-sell-SC/native/metadata"
	"github.com/StorkBison/escrow-sell-SC/native/token"
	"github.com/StorkBison/escrow-sell-SC/observability"
)

const (
	initEscrowAccounts = 5
	exchangeAccounts   = 8
)

// oneUnit returns 10^decimals, the balance of a single indivisible unit.
func oneUnit(decimals uint8) (uint64, bool) {
	unit := uint64(1)
	for i := uint8(0); i < decimals; i++ {
		hi, lo := bits.Mul64(unit, 10)
		if hi != 0 {
			return 0, false
		}
		unit = lo
	}
	return unit, true
}

// initEscrow accounts:
//
//	0 [signer]   initializer
//	1 [writable] token account holding the unit for sale
//	2 []         mint of the unit
//	3 [writable] escrow record, owned by this program
//	4 [writable] fee recipient
func (e *Engine) initEscrow(ctx *program.Context, accounts []*types.AccountInfo, price uint64) error {
	if len(accounts) < initEscrowAccounts {
		return types.ErrNotEnoughAccountKeys
	}
	initializer := accounts[0]
	held := accounts[1]
	mint := accounts[2]
	recordAcct := accounts[3]
	feeRecipient := accounts[4]

	if !initializer.IsSigner {
		return types.ErrMissingRequiredSignature
	}
	mintState, err := token.UnpackMint(mint.Data)
	if err != nil {
		return types.ErrInvalidAccountData
	}
	heldState, err := token.UnpackAccount(held.Data)
	if err != nil {
		return types.ErrInvalidAccountData
	}
	if !heldState.Mint.Equals(mint.Key) {
		return ErrInvalidMintAccount
	}
	unit, ok := oneUnit(mintState.Decimals)
	if !ok || heldState.Amount != unit {
		return ErrInvalidTokenAmount
	}
	if !e.rent.IsExempt(recordAcct.Lamports, len(recordAcct.Data)) {
		return ErrNotRentExempt
	}
	if !recordAcct.Owner.Equals(e.programID) {
		return types.ErrIncorrectProgramID
	}
	record, err := UnpackRecordUnchecked(recordAcct.Data)
	if err != nil {
		return err
	}
	if record.Initialized {
		return types.ErrAccountAlreadyInitialized
	}
	if !feeRecipient.Key.Equals(e.fees.Recipient) {
		return ErrInvalidSalesTaxRecipient
	}
	authority, _, err := e.deriveAuthority()
	if err != nil {
		return err
	}

	if e.fees.ListingFee > 0 {
		ctx.Logf("Charging listing fee of %d lamports", e.fees.ListingFee)
		if err := e.value.Transfer(e.fees.ListingFee, initializer, feeRecipient); err != nil {
			return err
		}
	}

	record = &Record{
		Initialized:    true,
		Initializer:    initializer.Key,
		Mint:           mint.Key,
		HeldAccount:    held.Key,
		ExpectedAmount: price,
	}
	if err := record.PackInto(recordAcct.Data); err != nil {
		return err
	}

	ctx.Logf("Transferring token account ownership to %s", authority)
	if err := e.tokens.SetOwner(held, authority, initializer); err != nil {
		return err
	}
	ctx.Emit(NewInitializedEvent(recordAcct.Key, record, e.fees.ListingFee))
	observability.Escrow().AddLamports("listing_fee", e.fees.ListingFee)
	return nil
}

// exchange accounts:
//
//	0 [signer]   taker
//	1 [writable] taker's token account receiving the unit
//	2 [writable] token account held by the escrow
//	3 [writable] initializer's main account
//	4 [writable] escrow record
//	5 [writable] fee recipient
//	6 []         mint
//	7 []         metadata account of the mint
//	8.. [writable] creator accounts in metadata order
func (e *Engine) exchange(ctx *program.Context, accounts []*types.AccountInfo, expected uint64) error {
	if len(accounts) < exchangeAccounts {
		return types.ErrNotEnoughAccountKeys
	}
	taker := accounts[0]
	takerDest := accounts[1]
	held := accounts[2]
	initializer := accounts[3]
	recordAcct := accounts[4]
	feeRecipient := accounts[5]
	mint := accounts[6]
	metadataAcct := accounts[7]
	creators := accounts[8:]

	if !taker.IsSigner {
		return types.ErrMissingRequiredSignature
	}
	heldState, err := token.UnpackAccount(held.Data)
	if err != nil {
		return types.ErrInvalidAccountData
	}
	if expected != heldState.Amount {
		return ErrExpectedAmountMismatch
	}
	if !recordAcct.Owner.Equals(e.programID) {
		return types.ErrIncorrectProgramID
	}
	record, err := UnpackRecord(recordAcct.Data)
	if err != nil {
		return err
	}
	if !record.HeldAccount.Equals(held.Key) {
		return types.ErrInvalidAccountData
	}
	if !record.Initializer.Equals(initializer.Key) {
		return types.ErrInvalidAccountData
	}
	if !feeRecipient.Key.Equals(e.fees.Recipient) {
		return ErrInvalidSalesTaxRecipient
	}
	if !record.Mint.Equals(mint.Key) {
		return types.ErrInvalidAccountData
	}
	metadataAddr, err := e.metadata.Address(mint.Key)
	if err != nil || !metadataAddr.Equals(metadataAcct.Key) {
		return types.ErrInvalidAccountData
	}
	_, seal, err := e.deriveAuthority()
	if err != nil {
		return err
	}

	cancel := taker.Key.Equals(record.Initializer)
	var quote fees.Quote
	if cancel {
		ctx.Logf("Initializer is taker, cancelling escrow")
	} else {
		quote, err = e.plan(ctx, record.ExpectedAmount, metadataAcct, creators)
		if err != nil {
			return err
		}
		if err := e.pay(ctx, quote, taker, feeRecipient, initializer, creators); err != nil {
			return err
		}
	}

	ctx.Logf("Transferring %d tokens to the taker", heldState.Amount)
	if err := e.tokens.Transfer(heldState.Amount, held, takerDest, seal); err != nil {
		return err
	}
	ctx.Logf("Closing the escrow token account")
	if err := e.tokens.CloseAccount(held, initializer, seal); err != nil {
		return err
	}
	ctx.Logf("Closing the escrow record")
	sum, carry := bits.Add64(initializer.Lamports, recordAcct.Lamports, 0)
	if carry != 0 {
		return ErrAmountOverflow
	}
	initializer.Lamports = sum
	recordAcct.Lamports = 0
	clear(recordAcct.Data)

	if cancel {
		ctx.Emit(NewCancelledEvent(recordAcct.Key, record))
		return nil
	}
	ctx.Emit(NewSettledEvent(recordAcct.Key, record, taker.Key, quote))
	m := observability.Escrow()
	m.AddLamports("tax", quote.Tax)
	m.AddLamports("royalty", quote.PayoutTotal())
	m.AddLamports("proceeds", quote.Final)
	return nil
}

// plan computes every transfer of a paid settlement before any is made.
func (e *Engine) plan(ctx *program.Context, price uint64, metadataAcct *types.AccountInfo, creators []*types.AccountInfo) (fees.Quote, error) {
	md, err := e.metadata.Parse(metadataAcct.Data)
	if err != nil {
		ctx.Logf("No metadata found or metadata invalid, skipping royalties: %s", metadataErrorLabel(err))
		return e.quote(price, nil)
	}
	if err := e.fees.CheckRoyalty(md.Data.SellerFeeBasisPoints); err != nil {
		return fees.Quote{}, ErrInvalidRoyaltyFee
	}
	royalty := &fees.Royalty{BasisPoints: md.Data.SellerFeeBasisPoints}
	if md.Data.Creators != nil {
		if len(md.Data.Creators) != len(creators) {
			ctx.Logf("Expected %d creator accounts, got %d", len(md.Data.Creators), len(creators))
			return fees.Quote{}, ErrCreatorMismatch
		}
		royalty.Creators = make([]fees.CreatorShare, 0, len(creators))
		for i, c := range md.Data.Creators {
			if !c.Address.Equals(creators[i].Key) {
				ctx.Logf("Creator %d mismatch: expected %s", i, c.Address)
				return fees.Quote{}, ErrCreatorMismatch
			}
			royalty.Creators = append(royalty.Creators, fees.CreatorShare{Address: c.Address, Share: c.Share})
		}
	}
	return e.quote(price, royalty)
}

func (e *Engine) quote(price uint64, royalty *fees.Royalty) (fees.Quote, error) {
	q, err := e.fees.Quote(price, royalty)
	switch {
	case err == nil:
		return q, nil
	case errors.Is(err, fees.ErrRoyaltyTooHigh):
		return fees.Quote{}, ErrInvalidRoyaltyFee
	case errors.Is(err, fees.ErrNonPositiveFinal):
		return fees.Quote{}, ErrInvalidFinalAmount
	case errors.Is(err, fees.ErrShareOutOfRange):
		return fees.Quote{}, ErrNumericConversionFailed
	default:
		return fees.Quote{}, err
	}
}

func (e *Engine) pay(ctx *program.Context, q fees.Quote, taker, feeRecipient, initializer *types.AccountInfo, creators []*types.AccountInfo) error {
	ctx.Logf("Paying %d lamports sales tax", q.Tax)
	if err := e.value.Transfer(q.Tax, taker, feeRecipient); err != nil {
		return err
	}
	for i, p := range q.Payouts {
		ctx.Logf("Paying %d lamports royalty to %s", p.Amount, p.Creator)
		if err := e.value.Transfer(p.Amount, taker, creators[i]); err != nil {
			return err
		}
	}
	ctx.Logf("Paying %d lamports to the initializer", q.Final)
	return e.value.Transfer(q.Final, taker, initializer)
}

// metadataErrorLabel names a metadata decode failure with the escrow error it
// corresponds to.
func metadataErrorLabel(err error) string {
	switch {
	case errors.Is(err, metadata.ErrMissing):
		return ErrMissingMetadata.Name
	case errors.Is(err, metadata.ErrNumericConversion):
		return ErrNumericConversionFailed.Name
	default:
		return ErrInvalidMetadata.Name
	}
}
