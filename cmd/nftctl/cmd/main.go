package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gasless-nft/relay/config"
	relayhttp "github.com/gasless-nft/relay/http"
	"github.com/gasless-nft/relay/logger"
	"github.com/gasless-nft/relay/session"
	signers "github.com/gasless-nft/relay/signers/evm"
)

const (
	FlagEnvFile = "env-file"
	FlagTo      = "to"
	FlagTokenID = "token-id"
	FlagVerify  = "verify"
)

var rootCmd = &cobra.Command{
	Use:           "nftctl",
	Short:         "Gasless NFT transfer wallet",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	rootCmd.PersistentFlags().StringSlice(FlagEnvFile, nil, ".env files to load (default .env)")

	rootCmd.AddCommand(cmdAddress)
	rootCmd.AddCommand(cmdNFTs)
	rootCmd.AddCommand(cmdRelayInfo)
	rootCmd.AddCommand(cmdSign)
	rootCmd.AddCommand(cmdTransfer)
	rootCmd.AddCommand(cmdUI)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// wallet is everything a command needs to act for the user
type wallet struct {
	cfg      *config.Client
	provider session.WalletProvider
	session  *session.Session
	relay    *relayhttp.RelayClient
	close    func()
}

// loadConfig reads the client configuration from the --env-file files and the environment
func loadConfig(c *cobra.Command) (*config.Client, error) {
	envFiles, _ := c.Flags().GetStringSlice(FlagEnvFile)
	if err := config.LoadDotEnv(envFiles...); err != nil {
		return nil, err
	}

	cfg, err := config.ClientFromEnv()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func newRelayClient(cfg *config.Client) *relayhttp.RelayClient {
	return relayhttp.NewRelayClient(cfg.RelayURL, &relayhttp.RelayClientConfig{
		Timeout: cfg.RequestTimeout,
	})
}

// loadWallet reads configuration and wires the session. The caller must call
// close when done.
func loadWallet(c *cobra.Command) (context.Context, *wallet, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.Init(cfg.Development)
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}

	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logger.ContextWithNamedLogger(logger.ContextWithRequestID(ctx, ""), "nftctl")

	backend, err := signers.Dial(ctx, cfg.RPCURL)
	if err != nil {
		return nil, nil, err
	}

	var provider session.WalletProvider
	switch {
	case cfg.KeystorePath != "":
		provider = session.NewKeystoreProvider(cfg.KeystorePath, cfg.KeystorePassword, backend)
	case cfg.PrivateKey != "":
		provider = session.NewPrivateKeyProvider(cfg.PrivateKey, backend)
	default:
		backend.Close()
		return nil, nil, errors.New("KEYSTORE_PATH or USER_PRIVATE_KEY is required")
	}

	relay := newRelayClient(cfg)
	sessionCfg := session.Config{
		Network:     cfg.Network,
		Forwarder:   cfg.Forwarder,
		NFTContract: cfg.NFTContract,
		Provider:    provider,
		Relay:       relay,
	}

	if cfg.AlchemyAPIKey != "" {
		index, err := relayhttp.NewNFTClient(cfg.Network, cfg.AlchemyAPIKey, []string{cfg.NFTContract}, nil)
		if err != nil {
			backend.Close()
			return nil, nil, fmt.Errorf("nft index: %w", err)
		}
		sessionCfg.Index = index
	} else {
		log.Warn("ALCHEMY_API_KEY is not set, owned NFTs will not be listed")
	}

	w := &wallet{
		cfg:      cfg,
		provider: provider,
		session:  session.New(sessionCfg),
		relay:    relay,
		close: func() {
			backend.Close()
			log.Sync()
		},
	}

	log.Debug("Wallet configured",
		zap.String("network", cfg.Network),
		zap.String("forwarder", cfg.Forwarder),
		zap.String("nft_contract", cfg.NFTContract),
		zap.String("relay_url", cfg.RelayURL))

	return ctx, w, nil
}
