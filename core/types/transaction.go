package types

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/gagliardetto/solana-go"
)

var (
	ErrNoInstructions     = errors.New("transaction: no instructions")
	ErrNoSigners          = errors.New("transaction: no signers")
	ErrSignatureCount     = errors.New("transaction: signature count does not match signers")
	ErrInvalidSignature   = errors.New("transaction: invalid signature")
	ErrMissingSigningKey  = errors.New("transaction: missing private key for signer")
	ErrTransactionTooLong = errors.New("transaction: encoded size exceeds limit")
)

// MaxTransactionSize bounds the encoded size accepted from clients.
const MaxTransactionSize = 64 * 1024

// AccountMeta references an account from an instruction.
type AccountMeta struct {
	PublicKey  solana.PublicKey `json:"pubkey"`
	IsSigner   bool             `json:"isSigner"`
	IsWritable bool             `json:"isWritable"`
}

// NewAccountMeta mirrors the solana-go helper argument order.
func NewAccountMeta(key solana.PublicKey, writable, signer bool) AccountMeta {
	return AccountMeta{PublicKey: key, IsWritable: writable, IsSigner: signer}
}

// Instruction is a single program invocation.
type Instruction struct {
	ProgramID solana.PublicKey `json:"programId"`
	Accounts  []AccountMeta    `json:"accounts"`
	Data      []byte           `json:"data"`
}

// Message is the signed portion of a transaction. The nonce only serves to
// make otherwise identical messages distinct.
type Message struct {
	Nonce        uint64        `json:"nonce"`
	Instructions []Instruction `json:"instructions"`
}

// Transaction is a message plus one ed25519 signature per signer, in
// Message.Signers order.
type Transaction struct {
	Message    Message            `json:"message"`
	Signatures []solana.Signature `json:"signatures"`
}

// NewTransaction assembles an unsigned transaction.
func NewTransaction(nonce uint64, instructions ...Instruction) *Transaction {
	return &Transaction{Message: Message{Nonce: nonce, Instructions: instructions}}
}

// Bytes returns the canonical encoding that signatures cover.
func (m *Message) Bytes() ([]byte, error) {
	return rlp.EncodeToBytes(m)
}

// Signers lists every key marked as signer, in first-reference order.
func (m *Message) Signers() []solana.PublicKey {
	seen := make(map[solana.PublicKey]struct{})
	var out []solana.PublicKey
	for _, ix := range m.Instructions {
		for _, meta := range ix.Accounts {
			if !meta.IsSigner {
				continue
			}
			if _, ok := seen[meta.PublicKey]; ok {
				continue
			}
			seen[meta.PublicKey] = struct{}{}
			out = append(out, meta.PublicKey)
		}
	}
	return out
}

// Keys lists every referenced key once, in first-reference order, together
// with whether any reference marks it writable.
func (m *Message) Keys() ([]solana.PublicKey, map[solana.PublicKey]bool) {
	writable := make(map[solana.PublicKey]bool)
	var order []solana.PublicKey
	for _, ix := range m.Instructions {
		for _, meta := range ix.Accounts {
			w, ok := writable[meta.PublicKey]
			if !ok {
				order = append(order, meta.PublicKey)
			}
			writable[meta.PublicKey] = w || meta.IsWritable
		}
	}
	return order, writable
}

// Sign signs the message with the keys matching its signers. Extra keys are
// ignored.
func (tx *Transaction) Sign(keys ...solana.PrivateKey) error {
	payload, err := tx.Message.Bytes()
	if err != nil {
		return err
	}
	byKey := make(map[solana.PublicKey]solana.PrivateKey, len(keys))
	for _, k := range keys {
		byKey[k.PublicKey()] = k
	}
	signers := tx.Message.Signers()
	sigs := make([]solana.Signature, 0, len(signers))
	for _, signer := range signers {
		key, ok := byKey[signer]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingSigningKey, signer)
		}
		sig, err := key.Sign(payload)
		if err != nil {
			return err
		}
		sigs = append(sigs, sig)
	}
	tx.Signatures = sigs
	return nil
}

// Verify checks the structure and every signature.
func (tx *Transaction) Verify() error {
	if len(tx.Message.Instructions) == 0 {
		return ErrNoInstructions
	}
	signers := tx.Message.Signers()
	if len(signers) == 0 {
		return ErrNoSigners
	}
	if len(signers) != len(tx.Signatures) {
		return ErrSignatureCount
	}
	payload, err := tx.Message.Bytes()
	if err != nil {
		return err
	}
	for i, signer := range signers {
		if !tx.Signatures[i].Verify(signer, payload) {
			return fmt.Errorf("%w: %s", ErrInvalidSignature, signer)
		}
	}
	return nil
}

// ID is the base58 form of the first signature.
func (tx *Transaction) ID() string {
	if len(tx.Signatures) == 0 {
		return ""
	}
	return tx.Signatures[0].String()
}

// Encode serialises the transaction for the wire.
func (tx *Transaction) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(tx)
}

// DecodeTransaction parses a wire-encoded transaction.
func DecodeTransaction(data []byte) (*Transaction, error) {
	if len(data) > MaxTransactionSize {
		return nil, ErrTransactionTooLong
	}
	tx := new(Transaction)
	if err := rlp.DecodeBytes(data, tx); err != nil {
		return nil, fmt.Errorf("transaction: decode: %w", err)
	}
	return tx, nil
}
