package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var cmdRelayInfo = &cobra.Command{
	Use:   "relay-info",
	Short: "Show the network, forwarder and contracts the relay sponsors.",
	Args:  cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}

		ctx := c.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		info, err := newRelayClient(cfg).Supported(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Network:    %s\n", info.Network)
		fmt.Printf("Relayer:    %s\n", info.Relayer)
		fmt.Printf("Forwarder:  %s\n", info.Forwarder)
		fmt.Printf("Targets:    %s\n", strings.Join(info.AllowedTargets, ", "))
		fmt.Printf("Max gas:    %s\n", info.MaxGas)

		if !strings.EqualFold(info.Forwarder, cfg.Forwarder) {
			return fmt.Errorf("relay uses forwarder %s but FORWARDER_CONTRACT_ADDRESS is %s", info.Forwarder, cfg.Forwarder)
		}
		return nil
	},
}
