package main

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/StorkBison/escrow-sell-SC/native/metadata"
)

func (c *cli) metadataCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metadata",
		Short: "Manage token metadata",
	}
	cmd.AddCommand(c.createMetadataCmd())
	return cmd
}

func (c *cli) createMetadataCmd() *cobra.Command {
	var (
		mintArg  string
		data     metadata.Data
		creators []string
		shares   []uint
		mutable  bool
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Attach metadata with creator royalties to a mint",
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
			if len(creators) != len(shares) {
				return errors.New("each --creator needs a matching --share")
			}
			for i, raw := range creators {
				addr, err := parseKey("creator", raw)
				if err != nil {
					return err
				}
				if shares[i] > 100 {
					return fmt.Errorf("creator share %d exceeds 100", shares[i])
				}
				data.Creators = append(data.Creators, metadata.Creator{Address: addr, Share: uint8(shares[i])})
			}
			if err := data.Validate(); err != nil {
				return err
			}
			schedule, err := c.client().FeeSchedule(ctx)
			if err != nil {
				return err
			}
			programID, err := solana.PublicKeyFromBase58(schedule.MetadataProgramID)
			if err != nil {
				return err
			}
			provider := metadata.NewProvider(programID)
			ix, err := provider.CreateInstruction(payer.PublicKey(), mint, payer.PublicKey(), payer.PublicKey(), data, mutable)
			if err != nil {
				return err
			}
			addr, err := provider.Address(mint)
			if err != nil {
				return err
			}
			receipt, err := c.submit(ctx, []solana.PrivateKey{payer}, ix)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"metadata": addr.String(),
				"tx":       receipt.ID,
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&mintArg, "mint", "", "mint address")
	flags.StringVar(&data.Name, "name", "", "asset name")
	flags.StringVar(&data.Symbol, "symbol", "", "asset symbol")
	flags.StringVar(&data.URI, "uri", "", "off-ledger JSON URI")
	flags.Uint16Var(&data.SellerFeeBasisPoints, "seller-fee-bps", 0, "creator royalty in basis points")
	flags.StringSliceVar(&creators, "creator", nil, "creator address (repeat, in payout order)")
	flags.UintSliceVar(&shares, "share", nil, "creator share percentage (repeat, matching --creator)")
	flags.BoolVar(&mutable, "mutable", true, "allow later updates")
	return cmd
}
