package trie

import (
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	gethtrie "github.com/ethereum/go-ethereum/trie"
	"github.com/ethereum/go-ethereum/trie/trienode"
	"github.com/ethereum/go-ethereum/triedb"

	"github.com/StorkBison/escrow-sell-SC/storage"
)

// Trie wraps go-ethereum's Merkle Patricia trie. It remembers the last
// committed root and reopens the underlying trie after every commit or reset
// so one instance serves the whole life of a node.
//
// Keys are expected to be hashed before insertion.
//
// Trie is not safe for concurrent use.
type Trie struct {
	store  *storage.Database
	trieDB *triedb.Database
	trie   *gethtrie.Trie
	root   common.Hash
}

// NewTrie opens the trie at root. A nil or empty root denotes the empty trie.
func NewTrie(store *storage.Database, root []byte) (*Trie, error) {
	rootHash := gethtypes.EmptyRootHash
	if len(root) > 0 {
		rootHash = common.BytesToHash(root)
	}
	t := &Trie{store: store, trieDB: store.TrieDB()}
	if err := t.Reset(rootHash); err != nil {
		return nil, err
	}
	return t, nil
}

// Get returns the value stored under key, or nil. Reads cache resolved nodes
// in the trie, so callers serialise them like writes.
func (t *Trie) Get(key []byte) ([]byte, error) {
	return t.trie.Get(key)
}

// Update stores value under key.
func (t *Trie) Update(key, value []byte) error {
	return t.trie.Update(key, value)
}

// Delete removes key.
func (t *Trie) Delete(key []byte) error {
	return t.trie.Delete(key)
}

// Hash returns the root hash including uncommitted changes.
func (t *Trie) Hash() common.Hash {
	return t.trie.Hash()
}

// Root returns the last committed root hash.
func (t *Trie) Root() common.Hash {
	return t.root
}

// Reset discards uncommitted changes and reopens the trie at root.
func (t *Trie) Reset(root common.Hash) error {
	underlying, err := gethtrie.New(gethtrie.TrieID(root), t.trieDB)
	if err != nil {
		return err
	}
	t.trie = underlying
	t.root = root
	return nil
}

// Commit flushes dirty nodes to disk and returns the new root. slot is the
// ledger position the root belongs to.
func (t *Trie) Commit(slot uint64) (common.Hash, error) {
	newRoot, nodes := t.trie.Commit(false)
	if nodes != nil {
		merged := trienode.NewMergedNodeSet()
		if err := merged.Merge(nodes); err != nil {
			return common.Hash{}, err
		}
		if err := t.trieDB.Update(newRoot, t.root, slot, merged, nil); err != nil {
			return common.Hash{}, err
		}
		if err := t.trieDB.Commit(newRoot, false); err != nil {
			return common.Hash{}, err
		}
	}
	if err := t.Reset(newRoot); err != nil {
		return common.Hash{}, err
	}
	return newRoot, nil
}

// Proof lists the RLP-encoded nodes on the path from the root to a key.
type Proof [][]byte

type proofCollector struct {
	nodes Proof
}

func (c *proofCollector) Put(_ []byte, value []byte) error {
	c.nodes = append(c.nodes, common.CopyBytes(value))
	return nil
}

func (c *proofCollector) Delete([]byte) error { return nil }

// Prove builds the Merkle proof of key against Hash(). For an absent key the
// proof shows the absence.
func (t *Trie) Prove(key []byte) (Proof, error) {
	collector := new(proofCollector)
	if err := t.trie.Prove(key, collector); err != nil {
		return nil, err
	}
	return collector.nodes, nil
}

// VerifyProof checks proof against root and returns the value it proves for
// key, nil when the key is proven absent.
func VerifyProof(root common.Hash, key []byte, proof Proof) ([]byte, error) {
	nodes := memorydb.New()
	for _, node := range proof {
		if err := nodes.Put(crypto.Keccak256(node), node); err != nil {
			return nil, err
		}
	}
	return gethtrie.VerifyProof(root, key, nodes)
}
