package crypto

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/gagliardetto/solana-go"
)

const keystoreVersion = 3

// encryptedKey is an ed25519 secret wrapped with the Ethereum v3 keystore
// cipher suite (scrypt + aes-128-ctr).
type encryptedKey struct {
	Address string              `json:"address"`
	Crypto  keystore.CryptoJSON `json:"crypto"`
	Version int                 `json:"version"`
}

// ScryptN and ScryptP tune keystore encryption. Tests lower them.
var (
	ScryptN = keystore.StandardScryptN
	ScryptP = keystore.StandardScryptP
)

// SaveToKeystore encrypts key with passphrase and writes it to path.
// If the parent directory does not exist it will be created with 0700 permissions.
func SaveToKeystore(path string, key solana.PrivateKey, passphrase string) error {
	if len(key) != 64 {
		return ErrInvalidKeyLength
	}
	if path == "" {
		return errors.New("crypto: empty keystore path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	sealed, err := keystore.EncryptDataV3(key, []byte(passphrase), ScryptN, ScryptP)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(encryptedKey{
		Address: key.PublicKey().String(),
		Crypto:  sealed,
		Version: keystoreVersion,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

// LoadFromKeystore decrypts a keystore written by SaveToKeystore.
func LoadFromKeystore(path, passphrase string) (solana.PrivateKey, error) {
	if path == "" {
		return nil, errors.New("crypto: empty keystore path")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file encryptedKey
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("crypto: parse keystore: %w", err)
	}
	if file.Version != keystoreVersion {
		return nil, fmt.Errorf("crypto: unsupported keystore version %d", file.Version)
	}
	secret, err := keystore.DecryptDataV3(file.Crypto, passphrase)
	if err != nil {
		return nil, err
	}
	key := solana.PrivateKey(secret)
	if len(key) != 64 {
		return nil, ErrInvalidKeyLength
	}
	if key.PublicKey().String() != file.Address {
		return nil, errors.New("crypto: keystore address does not match key")
	}
	return key, nil
}

// LoadKey reads either a solana-keygen JSON file or, when passphrase is set,
// an encrypted keystore.
func LoadKey(path, passphrase string) (solana.PrivateKey, error) {
	if passphrase != "" {
		return LoadFromKeystore(path, passphrase)
	}
	return LoadKeypair(path)
}
