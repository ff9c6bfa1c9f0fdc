package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/gagliardetto/solana-go"

	"github.com/StorkBison/escrow-sell-SC/core/types"
	"github.com/StorkBison/escrow-sell-SC/storage/trie"
)

// Manager reads and writes ledger accounts stored in the trie.
type Manager struct {
	trie *trie.Trie
}

// NewManager creates a state manager operating on the provided trie.
func NewManager(tr *trie.Trie) *Manager {
	return &Manager{trie: tr}
}

var accountPrefix = []byte("account:")

func accountKey(key solana.PublicKey) []byte {
	buf := make([]byte, len(accountPrefix)+len(key))
	copy(buf, accountPrefix)
	copy(buf[len(accountPrefix):], key[:])
	return ethcrypto.Keccak256(buf)
}

// GetAccount returns the stored account or nil when absent.
func (m *Manager) GetAccount(key solana.PublicKey) (*types.Account, error) {
	data, err := m.trie.Get(accountKey(key))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	acc := new(types.Account)
	if err := rlp.DecodeBytes(data, acc); err != nil {
		return nil, fmt.Errorf("state: decode account %s: %w", key, err)
	}
	return acc, nil
}

// PutAccount stores acc. Accounts without lamports are garbage and deleted.
func (m *Manager) PutAccount(key solana.PublicKey, acc *types.Account) error {
	if acc == nil || acc.Lamports == 0 {
		return m.trie.Delete(accountKey(key))
	}
	data, err := rlp.EncodeToBytes(acc)
	if err != nil {
		return err
	}
	return m.trie.Update(accountKey(key), data)
}

// Credit adds lamports to key, creating a system-owned account when needed.
func (m *Manager) Credit(key solana.PublicKey, lamports uint64) error {
	acc, err := m.GetAccount(key)
	if err != nil {
		return err
	}
	if acc == nil {
		acc = &types.Account{Owner: solana.SystemProgramID}
	}
	if acc.Lamports+lamports < acc.Lamports {
		return types.ErrArithmeticOverflow
	}
	acc.Lamports += lamports
	return m.PutAccount(key, acc)
}

// ProveAccount returns the Merkle proof of key's account against the current
// root.
func (m *Manager) ProveAccount(key solana.PublicKey) (trie.Proof, error) {
	return m.trie.Prove(accountKey(key))
}

// VerifyAccount checks proof against root and decodes the proven account.
// It returns nil, nil when the proof shows no account exists at key.
func VerifyAccount(root common.Hash, key solana.PublicKey, proof trie.Proof) (*types.Account, error) {
	data, err := trie.VerifyProof(root, accountKey(key), proof)
	if err != nil {
		return nil, fmt.Errorf("state: verify proof of %s: %w", key, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	acc := new(types.Account)
	if err := rlp.DecodeBytes(data, acc); err != nil {
		return nil, fmt.Errorf("state: decode account %s: %w", key, err)
	}
	return acc, nil
}

// Commit persists pending writes as the state of slot.
func (m *Manager) Commit(slot uint64) (common.Hash, error) {
	return m.trie.Commit(slot)
}

// Discard drops pending writes.
func (m *Manager) Discard() error {
	return m.trie.Reset(m.trie.Root())
}

// Root returns the last committed state root.
func (m *Manager) Root() common.Hash {
	return m.trie.Root()
}
