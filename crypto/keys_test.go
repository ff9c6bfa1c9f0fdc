package crypto

import (
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/stretchr/testify/require"
)

func TestKeypairRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "keys", "id.json")

	require.NoError(t, SaveKeypair(path, key))
	loaded, err := LoadKeypair(path)
	require.NoError(t, err)
	require.Equal(t, key.PublicKey(), loaded.PublicKey())

	via, err := LoadKey(path, "")
	require.NoError(t, err)
	require.Equal(t, key, via)
}

func TestKeystoreRoundTrip(t *testing.T) {
	ScryptN, ScryptP = keystore.LightScryptN, keystore.LightScryptP
	t.Cleanup(func() { ScryptN, ScryptP = keystore.StandardScryptN, keystore.StandardScryptP })

	key, err := GeneratePrivateKey()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "seller.keystore")

	require.NoError(t, SaveToKeystore(path, key, "hunter2"))
	loaded, err := LoadFromKeystore(path, "hunter2")
	require.NoError(t, err)
	require.Equal(t, key, loaded)

	_, err = LoadFromKeystore(path, "wrong")
	require.Error(t, err)
}

func TestSaveRejectsShortKeys(t *testing.T) {
	require.ErrorIs(t, SaveKeypair(filepath.Join(t.TempDir(), "k.json"), make([]byte, 32)), ErrInvalidKeyLength)
}
