package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	gasless "github.com/gasless-nft/relay"
	"github.com/gasless-nft/relay/config"
	relayhttp "github.com/gasless-nft/relay/http"
	"github.com/gasless-nft/relay/logger"
	"github.com/gasless-nft/relay/mechanisms/evm"
	"github.com/gasless-nft/relay/mechanisms/evm/forward/relay"
	signers "github.com/gasless-nft/relay/signers/evm"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "relayd: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.RelayFromEnv()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, err := logger.Init(cfg.Development)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	if js, err := json.Marshal(config.SafeRelay(*cfg)); err == nil {
		log.Info("Starting relay", zap.String("version", gasless.Version), zap.String("config", string(js)))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := signers.Dial(ctx, cfg.RPCURL)
	if err != nil {
		return err
	}
	defer backend.Close()

	signer, err := signers.NewRelaySignerFromPrivateKey(cfg.PrivateKey, backend, &signers.RelaySignerConfig{
		PollInterval: cfg.PollInterval,
	})
	if err != nil {
		return fmt.Errorf("relay key: %w", err)
	}

	if err := checkChain(ctx, signer, cfg.Network); err != nil {
		return err
	}

	scheme := relay.NewForwardRelayScheme(signer, gasless.Network(cfg.Network), cfg.Forwarder, &relay.ForwardRelaySchemeConfig{
		AllowedTargets: cfg.AllowedTargets,
		MaxGas:         new(big.Int).SetUint64(cfg.MaxGas),
		Confirmations:  cfg.Confirmations,
	})

	relayer := gasless.NewRelayer(scheme).
		OnVerifyFailure(func(hc gasless.VerifyFailureContext) error {
			logger.FromContext(hc.Ctx).Info("Request rejected", zap.Error(hc.Error))
			return nil
		}).
		OnAfterExecute(func(hc gasless.ExecuteResultContext) error {
			logger.FromContext(hc.Ctx).Info("Transfer relayed",
				zap.String("tx_hash", hc.Result.Transaction),
				zap.Uint64("block", hc.Result.BlockNumber))
			return nil
		}).
		OnExecuteFailure(func(hc gasless.ExecuteFailureContext) error {
			logger.FromContext(hc.Ctx).Warn("Transfer failed", zap.Error(hc.Error))
			return nil
		})

	supported := relayer.Supported()
	log.Info("Relay wallet ready",
		zap.String("network", string(supported.Network)),
		zap.String("relayer", supported.Relayer),
		zap.String("forwarder", supported.Forwarder),
		zap.Strings("allowed_targets", supported.AllowedTargets))

	if !cfg.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr: cfg.ListenAddr,
		Handler: relayhttp.NewServer(relayer, &relayhttp.ServerConfig{
			RequestTimeout: cfg.RequestTimeout,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Listening", zap.String("addr", cfg.ListenAddr))
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)

	case <-ctx.Done():
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			srv.Close()
			return fmt.Errorf("graceful shutdown: %w", err)
		}
	}

	log.Info("Stopped")
	return nil
}

// checkChain refuses to start when the RPC endpoint serves a different chain
// than the configured network
func checkChain(ctx context.Context, signer *signers.RelaySigner, network string) error {
	want, err := evm.GetEvmChainId(network)
	if err != nil {
		return err
	}
	got, err := signer.GetChainID(ctx)
	if err != nil {
		return err
	}
	if got.Cmp(want) != 0 {
		return fmt.Errorf("RPC_URL serves chain %s, %s expects %s", got, network, want)
	}
	return nil
}
