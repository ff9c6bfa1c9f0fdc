package main

import (
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/StorkBison/escrow-sell-SC/crypto"
	"github.com/StorkBison/escrow-sell-SC/native/system"
	"github.com/StorkBison/escrow-sell-SC/native/token"
)

func (c *cli) tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Create mints and token accounts",
	}
	cmd.AddCommand(c.createMintCmd(), c.createTokenAccountCmd(), c.mintToCmd())
	return cmd
}

func (c *cli) createMintCmd() *cobra.Command {
	var decimals uint8
	cmd := &cobra.Command{
		Use:   "create-mint",
		Short: "Create a mint whose authority is the signing key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			payer, err := c.signer()
			if err != nil {
				return err
			}
			mint, err := crypto.GeneratePrivateKey()
			if err != nil {
				return err
			}
			lamports, err := c.client().MinimumBalance(ctx, token.MintLen)
			if err != nil {
				return err
			}
			receipt, err := c.submit(ctx, []solana.PrivateKey{payer, mint},
				system.NewCreateAccountInstruction(payer.PublicKey(), mint.PublicKey(), lamports, token.MintLen, solana.TokenProgramID),
				token.NewInitializeMintInstruction(mint.PublicKey(), decimals, payer.PublicKey()),
			)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"mint": mint.PublicKey().String(),
				"tx":   receipt.ID,
			})
		},
	}
	cmd.Flags().Uint8Var(&decimals, "decimals", 0, "mint decimals")
	return cmd
}

func (c *cli) createTokenAccountCmd() *cobra.Command {
	var mintArg, ownerArg string
	cmd := &cobra.Command{
		Use:   "create-account",
		Short: "Create a token account for a mint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			payer, err := c.signer()
			if err != nil {
				return err
			}
			mint, err := parseKey("mint", mintArg)
			if err != nil {
				return err
			}
			owner := payer.PublicKey()
			if ownerArg != "" {
				if owner, err = parseKey("owner", ownerArg); err != nil {
					return err
				}
			}
			account, err := crypto.GeneratePrivateKey()
			if err != nil {
				return err
			}
			lamports, err := c.client().MinimumBalance(ctx, token.AccountLen)
			if err != nil {
				return err
			}
			receipt, err := c.submit(ctx, []solana.PrivateKey{payer, account},
				system.NewCreateAccountInstruction(payer.PublicKey(), account.PublicKey(), lamports, token.AccountLen, solana.TokenProgramID),
				token.NewInitializeAccountInstruction(account.PublicKey(), mint, owner),
			)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"account": account.PublicKey().String(),
				"owner":   owner.String(),
				"tx":      receipt.ID,
			})
		},
	}
	cmd.Flags().StringVar(&mintArg, "mint", "", "mint address")
	cmd.Flags().StringVar(&ownerArg, "owner", "", "account owner (defaults to the signing key)")
	return cmd
}

func (c *cli) mintToCmd() *cobra.Command {
	var mintArg, toArg string
	var amount uint64
	cmd := &cobra.Command{
		Use:   "mint-to",
		Short: "Mint tokens into an account; the signing key must be the mint authority",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			authority, err := c.signer()
			if err != nil {
				return err
			}
			mint, err := parseKey("mint", mintArg)
			if err != nil {
				return err
			}
			to, err := parseKey("to", toArg)
			if err != nil {
				return err
			}
			receipt, err := c.submit(ctx, []solana.PrivateKey{authority},
				token.NewMintToInstruction(mint, to, authority.PublicKey(), amount))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{"tx": receipt.ID})
		},
	}
	cmd.Flags().StringVar(&mintArg, "mint", "", "mint address")
	cmd.Flags().StringVar(&toArg, "to", "", "destination token account")
	cmd.Flags().Uint64Var(&amount, "amount", 1, "raw token amount")
	return cmd
}
