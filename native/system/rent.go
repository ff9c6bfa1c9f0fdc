package system

import "math/bits"

// AccountStorageOverhead is charged on top of the data length of every
// account when computing rent.
const AccountStorageOverhead = 128

// Rent is the retention policy: accounts holding at least MinimumBalance are
// exempt and live forever.
type Rent struct {
	LamportsPerByteYear uint64 `toml:"LamportsPerByteYear"`
	ExemptionYears      uint64 `toml:"ExemptionYears"`
}

// DefaultRent mirrors the mainnet rent parameters.
func DefaultRent() Rent {
	return Rent{LamportsPerByteYear: 3480, ExemptionYears: 2}
}

// MinimumBalance is the balance at which an account of dataLen bytes becomes
// rent exempt. It saturates instead of overflowing.
func (r Rent) MinimumBalance(dataLen int) uint64 {
	size := uint64(AccountStorageOverhead) + uint64(dataLen)
	hi, perYear := bits.Mul64(size, r.LamportsPerByteYear)
	if hi != 0 {
		return ^uint64(0)
	}
	hi, total := bits.Mul64(perYear, r.ExemptionYears)
	if hi != 0 {
		return ^uint64(0)
	}
	return total
}

// IsExempt reports whether lamports cover the exemption threshold.
func (r Rent) IsExempt(lamports uint64, dataLen int) bool {
	return lamports >= r.MinimumBalance(dataLen)
}
