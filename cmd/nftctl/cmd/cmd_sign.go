package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gasless-nft/relay/mechanisms/evm/forward/client"
)

var cmdSign = &cobra.Command{
	Use:   "sign",
	Short: "Sign a transfer request and print it as the relay expects it, without submitting.",
	Args:  cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		to, _ := c.Flags().GetString(FlagTo)
		tokenID, _ := c.Flags().GetString(FlagTokenID)
		verify, _ := c.Flags().GetBool(FlagVerify)

		ctx, w, err := loadWallet(c)
		if err != nil {
			return err
		}
		defer w.close()

		signer, err := w.provider.Connect(ctx)
		if err != nil {
			return fmt.Errorf("connect wallet: %w", err)
		}

		scheme := client.NewForwardScheme(signer, w.cfg.Forwarder, nil)
		req, err := scheme.SignTransfer(ctx, client.TransferIntent{
			NFTContract: w.cfg.NFTContract,
			To:          to,
			TokenID:     tokenID,
		})
		if err != nil {
			return err
		}

		js, err := json.MarshalIndent(req, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		fmt.Println(string(js))

		if verify {
			resp, err := w.relay.Verify(ctx, req)
			if err != nil {
				return fmt.Errorf("relay rejected the request: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Relay accepts request signed by %s on %s\n", resp.Signer, resp.Network)
		}
		return nil
	},
}

func init() {
	cmdSign.Flags().String(FlagTo, "", "Destination address")
	cmdSign.Flags().String(FlagTokenID, "", "Token ID (decimal or 0x hex)")
	cmdSign.Flags().Bool(FlagVerify, false, "Ask the relay to verify the signed request without executing it")
	cmdSign.MarkFlagRequired(FlagTo)
	cmdSign.MarkFlagRequired(FlagTokenID)
}
