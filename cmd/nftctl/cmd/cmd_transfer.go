package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cmdTransfer = &cobra.Command{
	Use:   "transfer",
	Short: "Transfer an NFT through the relay without paying gas.",
	Args:  cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		to, _ := c.Flags().GetString(FlagTo)
		tokenID, _ := c.Flags().GetString(FlagTokenID)

		ctx, w, err := loadWallet(c)
		if err != nil {
			return err
		}
		defer w.close()

		if err := w.session.Login(ctx); err != nil {
			return fmt.Errorf("login: %w", err)
		}

		hash, err := w.session.Transfer(ctx, to, tokenID)
		if err != nil {
			return err
		}

		fmt.Printf("Transaction: %s\n", hash)
		if url := w.session.ExplorerURL(); url != "" {
			fmt.Printf("Explorer: %s\n", url)
		}
		return nil
	},
}

func init() {
	cmdTransfer.Flags().String(FlagTo, "", "Destination address")
	cmdTransfer.Flags().String(FlagTokenID, "", "Token ID (decimal or 0x hex)")
	cmdTransfer.MarkFlagRequired(FlagTo)
	cmdTransfer.MarkFlagRequired(FlagTokenID)
}
