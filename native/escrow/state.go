package escrow

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"

	"github.com/StorkBison/escrow-sell-SC/core/types"
)

// RecordLen is the size of an escrow record account.
const RecordLen = 1 + 32 + 32 + 32 + 8

// Record is the persisted state of one listing.
type Record struct {
	Initialized    bool
	Initializer    solana.PublicKey
	Mint           solana.PublicKey
	HeldAccount    solana.PublicKey
	ExpectedAmount uint64
}

// UnpackRecordUnchecked decodes a record regardless of its initialized flag.
func UnpackRecordUnchecked(data []byte) (*Record, error) {
	if len(data) < RecordLen {
		return nil, types.ErrAccountDataTooSmall
	}
	if len(data) > RecordLen {
		return nil, types.ErrInvalidAccountData
	}
	var r Record
	switch data[0] {
	case 0:
	case 1:
		r.Initialized = true
	default:
		return nil, types.ErrInvalidAccountData
	}
	r.Initializer = solana.PublicKeyFromBytes(data[1:33])
	r.Mint = solana.PublicKeyFromBytes(data[33:65])
	r.HeldAccount = solana.PublicKeyFromBytes(data[65:97])
	r.ExpectedAmount = binary.LittleEndian.Uint64(data[97:RecordLen])
	return &r, nil
}

// UnpackRecord decodes an initialized record.
func UnpackRecord(data []byte) (*Record, error) {
	r, err := UnpackRecordUnchecked(data)
	if err != nil {
		return nil, err
	}
	if !r.Initialized {
		return nil, types.ErrUninitializedAccount
	}
	return r, nil
}

// PackInto writes the record at the start of dst.
func (r *Record) PackInto(dst []byte) error {
	if len(dst) < RecordLen {
		return types.ErrAccountDataTooSmall
	}
	if r.Initialized {
		dst[0] = 1
	} else {
		dst[0] = 0
	}
	copy(dst[1:33], r.Initializer[:])
	copy(dst[33:65], r.Mint[:])
	copy(dst[65:97], r.HeldAccount[:])
	binary.LittleEndian.PutUint64(dst[97:RecordLen], r.ExpectedAmount)
	return nil
}
