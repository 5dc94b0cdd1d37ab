package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/gasless-nft/relay/mechanisms/evm"
)

const masked = "*** Masked ***"

// Relay is the runtime configuration of the relay server.
type Relay struct {
	ListenAddr     string        `default:":8080" envconfig:"LISTEN_ADDR" json:"LISTEN_ADDR"`
	Network        string        `default:"sepolia" envconfig:"NETWORK" json:"NETWORK"`
	RPCURL         string        `envconfig:"RPC_URL" json:"RPC_URL"`
	Forwarder      string        `envconfig:"FORWARDER_CONTRACT_ADDRESS" json:"FORWARDER_CONTRACT_ADDRESS"`
	NFTContract    string        `envconfig:"ERC721_CONTRACT_ADDRESS" json:"ERC721_CONTRACT_ADDRESS"`
	AllowedTargets []string      `envconfig:"ALLOWED_TARGETS" json:"ALLOWED_TARGETS"`
	PrivateKey     string        `envconfig:"RELAY_PRIVATE_KEY" json:"RELAY_PRIVATE_KEY"`
	MaxGas         uint64        `default:"5000000" envconfig:"MAX_GAS" json:"MAX_GAS"`
	Confirmations  uint64        `default:"1" envconfig:"CONFIRMATIONS" json:"CONFIRMATIONS"`
	RequestTimeout time.Duration `default:"2m" envconfig:"REQUEST_TIMEOUT" json:"REQUEST_TIMEOUT"`
	PollInterval   time.Duration `default:"2s" envconfig:"POLL_INTERVAL" json:"POLL_INTERVAL"`
	Development    bool          `envconfig:"DEVELOPMENT" json:"DEVELOPMENT"`
}

// Client is the runtime configuration of the wallet client and CLI.
type Client struct {
	Network          string        `default:"sepolia" envconfig:"NETWORK" json:"NETWORK"`
	RPCURL           string        `envconfig:"RPC_URL" json:"RPC_URL"`
	Forwarder        string        `envconfig:"FORWARDER_CONTRACT_ADDRESS" json:"FORWARDER_CONTRACT_ADDRESS"`
	NFTContract      string        `envconfig:"ERC721_CONTRACT_ADDRESS" json:"ERC721_CONTRACT_ADDRESS"`
	RelayURL         string        `default:"http://localhost:8080" envconfig:"RELAY_URL" json:"RELAY_URL"`
	AlchemyAPIKey    string        `envconfig:"ALCHEMY_API_KEY" json:"ALCHEMY_API_KEY"`
	PrivateKey       string        `envconfig:"USER_PRIVATE_KEY" json:"USER_PRIVATE_KEY"`
	KeystorePath     string        `envconfig:"KEYSTORE_PATH" json:"KEYSTORE_PATH"`
	KeystorePassword string        `envconfig:"KEYSTORE_PASSWORD" json:"KEYSTORE_PASSWORD"`
	RequestTimeout   time.Duration `default:"2m30s" envconfig:"CLIENT_TIMEOUT" json:"CLIENT_TIMEOUT"`
	Development      bool          `envconfig:"DEVELOPMENT" json:"DEVELOPMENT"`
}

// legacy variable names still accepted when the new name is unset
var (
	relayAliases = map[string]string{
		"RELAY_PRIVATE_KEY":          "ADMIN_PRIVATE_KEY",
		"FORWARDER_CONTRACT_ADDRESS": "NEXT_PUBLIC_FORWARDER_CONTRACT_ADDRESS",
		"ERC721_CONTRACT_ADDRESS":    "NEXT_PUBLIC_ERC721_CONTRACT_ADDRESS",
	}
	clientAliases = map[string]string{
		"FORWARDER_CONTRACT_ADDRESS": "NEXT_PUBLIC_FORWARDER_CONTRACT_ADDRESS",
		"ERC721_CONTRACT_ADDRESS":    "NEXT_PUBLIC_ERC721_CONTRACT_ADDRESS",
		"ALCHEMY_API_KEY":            "NEXT_PUBLIC_ALCHEMY_API_KEY",
	}
)

// LoadDotEnv loads variables from the given .env files (".env" when none are
// given) without overriding the environment. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// RelayFromEnv returns relay configuration sourced from environment variables
func RelayFromEnv() (*Relay, error) {
	applyAliases(relayAliases)

	var cfg Relay
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	netCfg, err := evm.GetNetworkConfig(cfg.Network)
	if err != nil {
		return nil, err
	}
	cfg.Network = evm.NormalizeNetwork(cfg.Network)
	if cfg.RPCURL == "" {
		cfg.RPCURL = netCfg.DefaultRPC
	}
	if len(cfg.AllowedTargets) == 0 && cfg.NFTContract != "" {
		cfg.AllowedTargets = []string{cfg.NFTContract}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields the relay cannot start without
func (c *Relay) Validate() error {
	if c.PrivateKey == "" {
		return errors.New("RELAY_PRIVATE_KEY is required")
	}
	if !evm.IsValidAddress(c.Forwarder) {
		return fmt.Errorf("FORWARDER_CONTRACT_ADDRESS is not a valid address: %q", c.Forwarder)
	}
	if len(c.AllowedTargets) == 0 {
		return errors.New("ALLOWED_TARGETS or ERC721_CONTRACT_ADDRESS is required")
	}
	for _, t := range c.AllowedTargets {
		if !evm.IsValidAddress(t) {
			return fmt.Errorf("ALLOWED_TARGETS contains an invalid address: %q", t)
		}
	}
	if c.MaxGas == 0 {
		return errors.New("MAX_GAS must be positive")
	}
	return nil
}

// ClientFromEnv returns client configuration sourced from environment variables
func ClientFromEnv() (*Client, error) {
	applyAliases(clientAliases)

	var cfg Client
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	netCfg, err := evm.GetNetworkConfig(cfg.Network)
	if err != nil {
		return nil, err
	}
	cfg.Network = evm.NormalizeNetwork(cfg.Network)
	if cfg.RPCURL == "" {
		cfg.RPCURL = netCfg.DefaultRPC
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the contract addresses the client signs against
func (c *Client) Validate() error {
	if !evm.IsValidAddress(c.Forwarder) {
		return fmt.Errorf("FORWARDER_CONTRACT_ADDRESS is not a valid address: %q", c.Forwarder)
	}
	if !evm.IsValidAddress(c.NFTContract) {
		return fmt.Errorf("ERC721_CONTRACT_ADDRESS is not a valid address: %q", c.NFTContract)
	}
	return nil
}

// SafeRelay masks sensitive relay config values
func SafeRelay(cfg Relay) *Relay {
	cfgSafe := cfg

	if len(cfgSafe.PrivateKey) > 0 {
		cfgSafe.PrivateKey = masked
	}

	return &cfgSafe
}

// SafeClient masks sensitive client config values
func SafeClient(cfg Client) *Client {
	cfgSafe := cfg

	if len(cfgSafe.PrivateKey) > 0 {
		cfgSafe.PrivateKey = masked
	}
	if len(cfgSafe.KeystorePassword) > 0 {
		cfgSafe.KeystorePassword = masked
	}
	if len(cfgSafe.AlchemyAPIKey) > 0 {
		cfgSafe.AlchemyAPIKey = masked
	}

	return &cfgSafe
}

func applyAliases(aliases map[string]string) {
	for name, legacy := range aliases {
		if _, ok := os.LookupEnv(name); ok {
			continue
		}
		if v, ok := os.LookupEnv(legacy); ok {
			os.Setenv(name, v)
		}
	}
}
