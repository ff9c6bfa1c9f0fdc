package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/StorkBison/escrow-sell-SC/cmd/internal/passphrase"
	"github.com/StorkBison/escrow-sell-SC/core/types"
	"github.com/StorkBison/escrow-sell-SC/crypto"
	"github.com/StorkBison/escrow-sell-SC/rpc"
)

const (
	defaultRPCURL = "http://127.0.0.1:8899"
	passphraseEnv = "ESCROW_KEYSTORE_PASS"
	rpcTokenEnv   = "ESCROW_RPC_TOKEN"
	callTimeout   = 30 * time.Second
)

// cli carries the global flags shared by every subcommand.
type cli struct {
	rpcURL    string
	keypair   string
	encrypted bool
	token     string

	passphrase    *passphrase.Source
	newPassphrase *passphrase.Source
	nonce         func() uint64
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{
		passphrase:    passphrase.NewSource(passphraseEnv, ""),
		newPassphrase: passphrase.NewSource(passphraseEnv, "New keystore passphrase: ").WithConfirmation(),
		nonce:         func() uint64 { return uint64(time.Now().UnixNano()) },
	}
	root := &cobra.Command{
		Use:           "escrow-cli",
		Short:         "Client for the NFT escrow node",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&c.rpcURL, "rpc", defaultRPCURL, "JSON-RPC endpoint of the node")
	flags.StringVar(&c.keypair, "keypair", defaultKeypairPath(), "signing key file")
	flags.BoolVar(&c.encrypted, "encrypted", false, "the key file is a passphrase-protected keystore (passphrase from "+passphraseEnv+" or prompt)")
	flags.StringVar(&c.token, "token", os.Getenv(rpcTokenEnv), "bearer token for sendTransaction")

	root.AddCommand(
		c.keygenCmd(),
		c.accountCmd(),
		c.txCmd(),
		c.tokenCmd(),
		c.metadataCmd(),
		c.escrowCmd(),
	)
	return root
}

func defaultKeypairPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "id.json"
	}
	return filepath.Join(home, ".config", "escrow", "id.json")
}

func (c *cli) client() *rpc.Client {
	client := rpc.NewClient(c.rpcURL)
	if c.token != "" {
		client.WithToken(c.token)
	}
	return client
}

func (c *cli) signer() (solana.PrivateKey, error) {
	var pass string
	if c.encrypted {
		var err error
		if pass, err = c.passphrase.Get(); err != nil {
			return nil, err
		}
	}
	key, err := crypto.LoadKey(c.keypair, pass)
	if err != nil {
		return nil, fmt.Errorf("load key %s: %w", c.keypair, err)
	}
	return key, nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, callTimeout)
}

// submit signs and sends ixs, failing when the transaction did not succeed.
func (c *cli) submit(ctx context.Context, signers []solana.PrivateKey, ixs ...types.Instruction) (*types.Receipt, error) {
	tx := types.NewTransaction(c.nonce(), ixs...)
	if err := tx.Sign(signers...); err != nil {
		return nil, err
	}
	receipt, err := c.client().SendTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}
	if receipt.Status != types.TxStatusSuccess {
		return receipt, &txFailure{receipt: receipt}
	}
	return receipt, nil
}

type txFailure struct {
	receipt *types.Receipt
}

func (e *txFailure) Error() string {
	if e.receipt.Error == nil {
		return fmt.Sprintf("transaction %s failed", e.receipt.ID)
	}
	return fmt.Sprintf("transaction %s failed at instruction %d: %s (%s)",
		e.receipt.ID, e.receipt.Error.Instruction, e.receipt.Error.Code, e.receipt.Error.Message)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseKey(field, value string) (solana.PublicKey, error) {
	if value == "" {
		return solana.PublicKey{}, fmt.Errorf("--%s is required", field)
	}
	key, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid %s: %w", field, err)
	}
	return key, nil
}

func isNotFound(err error) bool {
	var rpcErr *rpc.RPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == rpc.CodeNotFound
}
