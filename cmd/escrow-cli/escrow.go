package main

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/StorkBison/escrow-sell-SC/crypto"
	"github.com/StorkBison/escrow-sell-SC/indexer"
	"github.com/StorkBison/escrow-sell-SC/native/escrow"
	"github.com/StorkBison/escrow-sell-SC/native/metadata"
	"github.com/StorkBison/escrow-sell-SC/native/system"
	"github.com/StorkBison/escrow-sell-SC/native/token"
	"github.com/StorkBison/escrow-sell-SC/rpc"
)

func (c *cli) escrowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "escrow",
		Short: "List, buy and cancel NFT escrows",
	}
	cmd.AddCommand(
		c.escrowInitCmd(),
		c.escrowExchangeCmd(),
		c.escrowCancelCmd(),
		c.escrowShowCmd(),
		c.escrowListCmd(),
	)
	return cmd
}

func (c *cli) escrowInitCmd() *cobra.Command {
	var heldArg, mintArg string
	var price uint64
	cmd := &cobra.Command{
		Use:   "init",
		Short: "List a held token account for sale",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			seller, err := c.signer()
			if err != nil {
				return err
			}
			held, err := parseKey("held", heldArg)
			if err != nil {
				return err
			}
			mint, err := parseKey("mint", mintArg)
			if err != nil {
				return err
			}
			client := c.client()
			schedule, err := client.FeeSchedule(ctx)
			if err != nil {
				return err
			}
			programID, err := solana.PublicKeyFromBase58(schedule.ProgramID)
			if err != nil {
				return err
			}
			recipient, err := solana.PublicKeyFromBase58(schedule.Recipient)
			if err != nil {
				return err
			}
			lamports, err := client.MinimumBalance(ctx, escrow.RecordLen)
			if err != nil {
				return err
			}
			record, err := crypto.GeneratePrivateKey()
			if err != nil {
				return err
			}
			receipt, err := c.submit(ctx, []solana.PrivateKey{seller, record},
				system.NewCreateAccountInstruction(seller.PublicKey(), record.PublicKey(), lamports, escrow.RecordLen, programID),
				escrow.NewInitEscrowInstruction(programID, escrow.InitEscrowAccounts{
					Initializer:  seller.PublicKey(),
					HeldAccount:  held,
					Mint:         mint,
					Record:       record.PublicKey(),
					FeeRecipient: recipient,
				}, price),
			)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"escrow":     record.PublicKey().String(),
				"price":      price,
				"listingFee": schedule.ListingFee,
				"tx":         receipt.ID,
			})
		},
	}
	cmd.Flags().StringVar(&heldArg, "held", "", "token account holding the NFT")
	cmd.Flags().StringVar(&mintArg, "mint", "", "NFT mint")
	cmd.Flags().Uint64Var(&price, "price", 0, "asking price in lamports")
	return cmd
}

func (c *cli) escrowExchangeCmd() *cobra.Command {
	var escrowArg, destArg string
	cmd := &cobra.Command{
		Use:   "exchange",
		Short: "Buy a listed NFT",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.settle(cmd, escrowArg, destArg, false)
		},
	}
	cmd.Flags().StringVar(&escrowArg, "escrow", "", "escrow record address")
	cmd.Flags().StringVar(&destArg, "dest", "", "token account that receives the NFT")
	return cmd
}

func (c *cli) escrowCancelCmd() *cobra.Command {
	var escrowArg, destArg string
	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Withdraw a listing; the signing key must be the seller",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.settle(cmd, escrowArg, destArg, true)
		},
	}
	cmd.Flags().StringVar(&escrowArg, "escrow", "", "escrow record address")
	cmd.Flags().StringVar(&destArg, "dest", "", "token account that receives the NFT back")
	return cmd
}

// settle sends an Exchange instruction. A cancel is an exchange whose taker
// is the seller, so it carries no creator accounts.
func (c *cli) settle(cmd *cobra.Command, escrowArg, destArg string, cancelling bool) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	taker, err := c.signer()
	if err != nil {
		return err
	}
	address, err := parseKey("escrow", escrowArg)
	if err != nil {
		return err
	}
	dest, err := parseKey("dest", destArg)
	if err != nil {
		return err
	}
	client := c.client()
	listing, err := client.Escrow(ctx, address)
	if err != nil {
		return err
	}
	accts, err := exchangeAccounts(listing)
	if err != nil {
		return err
	}
	if cancelling && !accts.Initializer.Equals(taker.PublicKey()) {
		return fmt.Errorf("escrow %s belongs to %s", address, accts.Initializer)
	}
	accts.Taker = taker.PublicKey()
	accts.TakerDestination = dest
	accts.Record = address

	schedule, err := client.FeeSchedule(ctx)
	if err != nil {
		return err
	}
	programID, err := solana.PublicKeyFromBase58(schedule.ProgramID)
	if err != nil {
		return err
	}
	if accts.FeeRecipient, err = solana.PublicKeyFromBase58(schedule.Recipient); err != nil {
		return err
	}
	expected, err := heldAmount(ctx, client, accts.HeldAccount)
	if err != nil {
		return err
	}
	if accts.Metadata, err = client.MetadataAddress(ctx, accts.Mint); err != nil {
		return err
	}
	if !accts.Taker.Equals(accts.Initializer) {
		if accts.Creators, err = creatorKeys(ctx, client, accts.Metadata); err != nil {
			return err
		}
	}

	receipt, err := c.submit(ctx, []solana.PrivateKey{taker},
		escrow.NewExchangeInstruction(programID, accts, expected))
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), receipt)
}

func exchangeAccounts(listing *rpc.EscrowResult) (escrow.ExchangeAccounts, error) {
	var (
		accts escrow.ExchangeAccounts
		err   error
	)
	if accts.Initializer, err = solana.PublicKeyFromBase58(listing.Initializer); err != nil {
		return accts, err
	}
	if accts.HeldAccount, err = solana.PublicKeyFromBase58(listing.HeldAccount); err != nil {
		return accts, err
	}
	if accts.Mint, err = solana.PublicKeyFromBase58(listing.Mint); err != nil {
		return accts, err
	}
	return accts, nil
}

func heldAmount(ctx context.Context, client *rpc.Client, held solana.PublicKey) (uint64, error) {
	acc, err := client.Account(ctx, held)
	if err != nil {
		return 0, err
	}
	raw, err := base64.StdEncoding.DecodeString(acc.Data)
	if err != nil {
		return 0, err
	}
	state, err := token.UnpackAccount(raw)
	if err != nil {
		return 0, fmt.Errorf("held account %s: %w", held, err)
	}
	return state.Amount, nil
}

// creatorKeys lists the creators of a metadata account in payout order. A
// mint without metadata pays no royalty.
func creatorKeys(ctx context.Context, client *rpc.Client, address solana.PublicKey) ([]solana.PublicKey, error) {
	acc, err := client.Account(ctx, address)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	raw, err := base64.StdEncoding.DecodeString(acc.Data)
	if err != nil {
		return nil, err
	}
	md, err := metadata.Decode(raw)
	if err != nil {
		return nil, err
	}
	keys := make([]solana.PublicKey, 0, len(md.Data.Creators))
	for _, creator := range md.Data.Creators {
		keys = append(keys, creator.Address)
	}
	return keys, nil
}

func (c *cli) escrowShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <escrow>",
		Short: "Show an escrow and its indexed history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			address, err := parseKey("escrow", args[0])
			if err != nil {
				return err
			}
			client := c.client()
			out := struct {
				Escrow  *rpc.EscrowResult  `json:"escrow,omitempty"`
				Listing *indexer.EscrowRow `json:"listing,omitempty"`
			}{}
			if out.Escrow, err = client.Escrow(ctx, address); err != nil && !isNotFound(err) {
				return err
			}
			if out.Listing, err = client.Listing(ctx, address); err != nil && !isNotFound(err) {
				return err
			}
			if out.Escrow == nil && out.Listing == nil {
				return fmt.Errorf("escrow %s not found", address)
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}

func (c *cli) escrowListCmd() *cobra.Command {
	var f indexer.Filter
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Query indexed listings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			f.Status = indexer.Status(status)
			rows, err := c.client().ListEscrows(ctx, f)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rows)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&status, "status", "", "open, settled or cancelled")
	flags.StringVar(&f.Mint, "mint", "", "filter by mint")
	flags.StringVar(&f.Initializer, "initializer", "", "filter by seller")
	flags.IntVar(&f.Limit, "limit", 0, "maximum rows")
	flags.IntVar(&f.Offset, "offset", 0, "rows to skip")
	return cmd
}
