package storage

import (
	"errors"

	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/ethdb/leveldb"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/triedb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// ErrNotFound is returned by Get for absent keys.
var ErrNotFound = errors.New("storage: key not found")

// Cache is in MiB.
const (
	levelDBCache   = 64
	levelDBHandles = 256
	levelDBPrefix  = "escrow/db/"
)

// Database is the key-value store backing the account trie, receipts and the
// ledger head. The same handle serves trie nodes through TrieDB.
type Database struct {
	kv     ethdb.Database
	trieDB *triedb.Database
}

func wrap(kv ethdb.KeyValueStore) *Database {
	db := rawdb.NewDatabase(kv)
	return &Database{
		kv:     db,
		trieDB: triedb.NewDatabase(db, triedb.HashDefaults),
	}
}

// NewMemDB returns a volatile database, used by tests and throwaway nodes.
func NewMemDB() *Database {
	return wrap(memorydb.New())
}

// NewLevelDB creates or opens a LevelDB database at the specified path.
func NewLevelDB(path string) (*Database, error) {
	kv, err := leveldb.NewCustom(path, levelDBPrefix, func(o *opt.Options) {
		o.OpenFilesCacheCapacity = levelDBHandles
		o.BlockCacheCapacity = levelDBCache / 2 * opt.MiB
		o.WriteBuffer = levelDBCache / 4 * opt.MiB
		o.Filter = filter.NewBloomFilter(10)
	})
	if err != nil {
		return nil, err
	}
	return wrap(kv), nil
}

// Put inserts or updates a key-value pair.
func (db *Database) Put(key, value []byte) error {
	return db.kv.Put(key, value)
}

// Get retrieves the value for key or ErrNotFound.
func (db *Database) Get(key []byte) ([]byte, error) {
	ok, err := db.kv.Has(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return db.kv.Get(key)
}

// Has reports whether key is present.
func (db *Database) Has(key []byte) (bool, error) {
	return db.kv.Has(key)
}

// Delete removes key.
func (db *Database) Delete(key []byte) error {
	return db.kv.Delete(key)
}

// TrieDB exposes the node database shared by every trie opened on this store.
func (db *Database) TrieDB() *triedb.Database {
	return db.trieDB
}

// Close flushes the trie cache and closes the underlying store.
func (db *Database) Close() error {
	if err := db.trieDB.Close(); err != nil {
		return err
	}
	return db.kv.Close()
}
