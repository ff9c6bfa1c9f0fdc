package crypto

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gagliardetto/solana-go"
)

var ErrInvalidKeyLength = errors.New("crypto: private key must be 64 bytes")

// GeneratePrivateKey returns a fresh ed25519 keypair.
func GeneratePrivateKey() (solana.PrivateKey, error) {
	return solana.NewRandomPrivateKey()
}

// LoadKeypair reads a keypair file in the solana-keygen JSON format: an
// array of the 64 secret key bytes.
func LoadKeypair(path string) (solana.PrivateKey, error) {
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("crypto: load keypair %s: %w", path, err)
	}
	if len(key) != 64 {
		return nil, ErrInvalidKeyLength
	}
	return key, nil
}

// SaveKeypair writes key in the solana-keygen JSON format with owner-only
// permissions.
func SaveKeypair(path string, key solana.PrivateKey) error {
	if len(key) != 64 {
		return ErrInvalidKeyLength
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	ints := make([]int, len(key))
	for i, b := range key {
		ints[i] = int(b)
	}
	raw, err := json.Marshal(ints)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}
