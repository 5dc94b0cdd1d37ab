package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gasless-nft/relay/logger"
	"github.com/gasless-nft/relay/ui"
)

var cmdUI = &cobra.Command{
	Use:   "ui",
	Short: "Open the interactive wallet screen.",
	Args:  cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		ctx, w, err := loadWallet(c)
		if err != nil {
			return err
		}
		defer w.close()

		// log output would draw over the screen
		ctx = logger.ContextWithLogger(ctx, zap.NewNop())

		if err := w.session.Init(ctx); err != nil {
			return err
		}
		return ui.Run(ctx, w.session)
	},
}
