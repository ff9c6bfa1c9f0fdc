package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/StorkBison/escrow-sell-SC/crypto"
)

func (c *cli) keygenCmd() *cobra.Command {
	var (
		out     string
		encrypt bool
		force   bool
	)
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a signing key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if out == "" {
				out = c.keypair
			}
			if _, err := os.Stat(out); err == nil && !force {
				return fmt.Errorf("%s already exists; pass --force to overwrite", out)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			key, err := crypto.GeneratePrivateKey()
			if err != nil {
				return err
			}
			if err := c.writeKey(out, key, encrypt); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{
				"address": key.PublicKey().String(),
				"path":    out,
			})
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output path (defaults to --keypair)")
	cmd.Flags().BoolVar(&encrypt, "encrypt", false, "write a passphrase-protected keystore")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func (c *cli) writeKey(path string, key solana.PrivateKey, encrypt bool) error {
	if !encrypt {
		return crypto.SaveKeypair(path, key)
	}
	pass, err := c.newPassphrase.Get()
	if err != nil {
		return err
	}
	return crypto.SaveToKeystore(path, key, pass)
}

func (c *cli) accountCmd() *cobra.Command {
	var prove bool
	cmd := &cobra.Command{
		Use:   "account [address]",
		Short: "Show a ledger account (defaults to the signing key)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			var address string
			if len(args) == 1 {
				address = args[0]
			} else {
				key, err := c.signer()
				if err != nil {
					return err
				}
				address = key.PublicKey().String()
			}
			key, err := parseKey("address", address)
			if err != nil {
				return err
			}
			if prove {
				return c.provenAccount(ctx, cmd, key)
			}
			acc, err := c.client().Account(ctx, key)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), acc)
		},
	}
	cmd.Flags().BoolVar(&prove, "prove", false, "fetch a Merkle proof and verify it against the state root")
	return cmd
}

func (c *cli) provenAccount(ctx context.Context, cmd *cobra.Command, key solana.PublicKey) error {
	proof, err := c.client().AccountProof(ctx, key)
	if err != nil {
		return err
	}
	acc, err := proof.Verify()
	if err != nil {
		return err
	}
	out := map[string]interface{}{
		"address": key.String(),
		"slot":    proof.Slot,
		"root":    proof.Root.Hex(),
		"exists":  acc != nil,
	}
	if acc != nil {
		out["lamports"] = acc.Lamports
		out["owner"] = acc.Owner.String()
		out["data"] = base64.StdEncoding.EncodeToString(acc.Data)
	}
	return printJSON(cmd.OutOrStdout(), out)
}

func (c *cli) txCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tx <id>",
		Short: "Show the receipt of a processed transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			receipt, err := c.client().Transaction(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), receipt)
		},
	}
}
