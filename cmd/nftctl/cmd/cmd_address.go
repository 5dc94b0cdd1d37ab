package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cmdAddress = &cobra.Command{
	Use:   "address",
	Short: "Print the address of the configured wallet.",
	Args:  cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		ctx, w, err := loadWallet(c)
		if err != nil {
			return err
		}
		defer w.close()

		signer, err := w.provider.Connect(ctx)
		if err != nil {
			return fmt.Errorf("connect wallet: %w", err)
		}

		fmt.Println(signer.Address())
		return nil
	},
}
