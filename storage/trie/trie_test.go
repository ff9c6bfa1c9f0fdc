package trie

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/StorkBison/escrow-sell-SC/storage"
)

func TestTrieCommitFlushPersistsData(t *testing.T) {
	dir := t.TempDir()

	db1, err := storage.NewLevelDB(dir)
	require.NoError(t, err)

	tr, err := NewTrie(db1, nil)
	require.NoError(t, err)

	key := crypto.Keccak256Hash([]byte("key"))
	value := []byte("value")

	require.NoError(t, tr.Update(key.Bytes(), value))
	root, err := tr.Commit(1)
	require.NoError(t, err)
	require.Equal(t, root, tr.Root())

	require.NoError(t, db1.Close())

	db2, err := storage.NewLevelDB(dir)
	require.NoError(t, err)
	defer db2.Close()

	restored, err := NewTrie(db2, root.Bytes())
	require.NoError(t, err)

	got, err := restored.Get(key.Bytes())
	require.NoError(t, err)
	require.Equal(t, value, got)
}

func TestTrieResetDiscardsUncommitted(t *testing.T) {
	db := storage.NewMemDB()
	tr, err := NewTrie(db, nil)
	require.NoError(t, err)

	kept := crypto.Keccak256([]byte("kept"))
	dropped := crypto.Keccak256([]byte("dropped"))
	require.NoError(t, tr.Update(kept, []byte{1}))
	root, err := tr.Commit(1)
	require.NoError(t, err)

	require.NoError(t, tr.Update(dropped, []byte{2}))
	require.NotEqual(t, root, tr.Hash())
	require.NoError(t, tr.Reset(root))

	got, err := tr.Get(dropped)
	require.NoError(t, err)
	require.Nil(t, got)

	require.NoError(t, tr.Delete(kept))
	empty, err := tr.Commit(2)
	require.NoError(t, err)
	require.NotEqual(t, root, empty)
}

func TestProveAndVerify(t *testing.T) {
	tr, err := NewTrie(storage.NewMemDB(), nil)
	require.NoError(t, err)
	for i := byte(0); i < 32; i++ {
		require.NoError(t, tr.Update(crypto.Keccak256([]byte{i}), []byte{i, i + 1}))
	}
	root, err := tr.Commit(1)
	require.NoError(t, err)

	key := crypto.Keccak256([]byte{7})
	proof, err := tr.Prove(key)
	require.NoError(t, err)
	require.NotEmpty(t, proof)

	value, err := VerifyProof(root, key, proof)
	require.NoError(t, err)
	require.Equal(t, []byte{7, 8}, value)

	absent := crypto.Keccak256([]byte("absent"))
	proof, err = tr.Prove(absent)
	require.NoError(t, err)
	value, err = VerifyProof(root, absent, proof)
	require.NoError(t, err)
	require.Nil(t, value)

	_, err = VerifyProof(crypto.Keccak256Hash([]byte("other root")), key, proof)
	require.Error(t, err)
}
