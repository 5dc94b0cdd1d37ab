package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var cmdNFTs = &cobra.Command{
	Use:   "nfts",
	Short: "List the NFTs of the configured contract owned by the wallet.",
	Args:  cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		ctx, w, err := loadWallet(c)
		if err != nil {
			return err
		}
		defer w.close()

		if w.cfg.AlchemyAPIKey == "" {
			return errors.New("ALCHEMY_API_KEY is required to list NFTs")
		}

		if err := w.session.Login(ctx); err != nil {
			return fmt.Errorf("login: %w", err)
		}

		state := w.session.State()
		fmt.Printf("Owner: %s\n", state.Address)
		if len(state.NFTs) == 0 {
			fmt.Println("No NFTs found")
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TOKEN ID\tNAME\tIMAGE")
		for _, n := range state.NFTs {
			name := n.Name
			if name == "" {
				name = "Untitled"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", n.TokenID, name, n.ImageURL)
		}
		return tw.Flush()
	},
}
