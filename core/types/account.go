package types

import (
	"bytes"

	"github.com/gagliardetto/solana-go"
)

// Account is the persisted form of a ledger account.
type Account struct {
	Lamports   uint64           `json:"lamports"`
	Owner      solana.PublicKey `json:"owner"`
	Data       []byte           `json:"data"`
	Executable bool             `json:"executable"`
}

// Copy returns a deep copy of the account.
func (a *Account) Copy() *Account {
	if a == nil {
		return nil
	}
	out := *a
	out.Data = append([]byte(nil), a.Data...)
	return &out
}

// AccountInfo is the mutable view of an account handed to programs while a
// transaction executes. Every reference to the same key within a transaction
// shares one AccountInfo.
type AccountInfo struct {
	Key        solana.PublicKey
	IsSigner   bool
	IsWritable bool
	Lamports   uint64
	Owner      solana.PublicKey
	Data       []byte
	Executable bool
}

// NewAccountInfo builds a view over acc. A nil account yields an empty view
// owned by the system program.
func NewAccountInfo(key solana.PublicKey, acc *Account) *AccountInfo {
	info := &AccountInfo{Key: key, Owner: solana.SystemProgramID}
	if acc != nil {
		info.Lamports = acc.Lamports
		info.Owner = acc.Owner
		info.Data = append([]byte(nil), acc.Data...)
		info.Executable = acc.Executable
	}
	return info
}

// Account snapshots the view into its persisted form.
func (a *AccountInfo) Account() *Account {
	return &Account{
		Lamports:   a.Lamports,
		Owner:      a.Owner,
		Data:       append([]byte(nil), a.Data...),
		Executable: a.Executable,
	}
}

// Matches reports whether the view still equals acc.
func (a *AccountInfo) Matches(acc *Account) bool {
	if acc == nil {
		return a.Lamports == 0 && len(a.Data) == 0 && a.Owner.Equals(solana.SystemProgramID)
	}
	return a.Lamports == acc.Lamports &&
		a.Owner.Equals(acc.Owner) &&
		a.Executable == acc.Executable &&
		bytes.Equal(a.Data, acc.Data)
}

// SignerKey implements Signer.
func (a *AccountInfo) SignerKey() solana.PublicKey { return a.Key }

// Signed implements Signer.
func (a *AccountInfo) Signed() bool { return a.IsSigner }
