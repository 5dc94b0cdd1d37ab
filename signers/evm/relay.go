package evm

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	gaslessevm "github.com/gasless-nft/relay/mechanisms/evm"
)

// DefaultPollInterval is how often receipts are polled
const DefaultPollInterval = 2 * time.Second

// RelaySignerConfig holds optional overrides for RelaySigner
type RelaySignerConfig struct {
	// PollInterval between receipt lookups (default 2s)
	PollInterval time.Duration
}

// RelaySigner implements gaslessevm.RelayEvmSigner. It sends forwarder calls from
// the relay wallet and pays their gas.
type RelaySigner struct {
	privateKey   *ecdsa.PrivateKey
	address      common.Address
	backend      Backend
	pollInterval time.Duration

	// writeMu is held from nonce lookup until the transaction is accepted by the node
	writeMu sync.Mutex

	chainMu sync.Mutex
	chainID *big.Int
}

// NewRelaySignerFromPrivateKey creates a relay signer from a hex-encoded private key
func NewRelaySignerFromPrivateKey(privateKeyHex string, backend Backend, config *RelaySignerConfig) (*RelaySigner, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return NewRelaySigner(privateKey, backend, config), nil
}

// NewRelaySigner creates a relay signer from an already decoded key
func NewRelaySigner(privateKey *ecdsa.PrivateKey, backend Backend, config *RelaySignerConfig) *RelaySigner {
	interval := DefaultPollInterval
	if config != nil && config.PollInterval > 0 {
		interval = config.PollInterval
	}
	return &RelaySigner{
		privateKey:   privateKey,
		address:      crypto.PubkeyToAddress(privateKey.PublicKey),
		backend:      backend,
		pollInterval: interval,
	}
}

// Address returns the relay wallet address
func (s *RelaySigner) Address() string {
	return s.address.Hex()
}

// GetChainID returns the chain ID of the connected network. The first successful
// answer is cached.
func (s *RelaySigner) GetChainID(ctx context.Context) (*big.Int, error) {
	s.chainMu.Lock()
	defer s.chainMu.Unlock()

	if s.chainID != nil {
		return new(big.Int).Set(s.chainID), nil
	}
	if s.backend == nil {
		return nil, fmt.Errorf("RPC client not configured")
	}
	chainID, err := s.backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}
	s.chainID = chainID
	return new(big.Int).Set(chainID), nil
}

// ReadContract reads data from a smart contract
func (s *RelaySigner) ReadContract(
	ctx context.Context,
	contractAddress string,
	abiJSON []byte,
	functionName string,
	args ...interface{},
) (interface{}, error) {
	return readContract(ctx, s.backend, contractAddress, abiJSON, functionName, args...)
}

// WriteContract signs and broadcasts a legacy transaction calling functionName.
// No value is attached and a failed gas estimate aborts the write.
func (s *RelaySigner) WriteContract(
	ctx context.Context,
	contractAddress string,
	abiJSON []byte,
	functionName string,
	args ...interface{},
) (string, error) {
	if s.backend == nil {
		return "", fmt.Errorf("RPC client not configured")
	}

	parsedABI, err := gaslessevm.ParseABI(abiJSON)
	if err != nil {
		return "", err
	}

	data, err := parsedABI.Pack(functionName, args...)
	if err != nil {
		return "", fmt.Errorf("failed to pack data: %w", err)
	}

	chainID, err := s.GetChainID(ctx)
	if err != nil {
		return "", err
	}

	to := common.HexToAddress(contractAddress)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	nonce, err := s.backend.PendingNonceAt(ctx, s.address)
	if err != nil {
		return "", fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := s.backend.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get gas price: %w", err)
	}

	gasLimit, err := s.backend.EstimateGas(ctx, ethereum.CallMsg{
		From: s.address,
		To:   &to,
		Data: data,
	})
	if err != nil {
		return "", fmt.Errorf("failed to estimate gas: %w", err)
	}
	// 20% buffer
	gasLimit += gasLimit / 5

	tx := types.NewTransaction(nonce, to, big.NewInt(0), gasLimit, gasPrice, data)

	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(chainID), s.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := s.backend.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}

	return signedTx.Hash().Hex(), nil
}

// WaitForTransactionReceipt polls until txHash is mined and buried under
// confirmations-1 further blocks
func (s *RelaySigner) WaitForTransactionReceipt(
	ctx context.Context,
	txHash string,
	confirmations uint64,
) (*gaslessevm.TransactionReceipt, error) {
	if s.backend == nil {
		return nil, fmt.Errorf("RPC client not configured")
	}
	if confirmations == 0 {
		confirmations = 1
	}

	hash := common.HexToHash(txHash)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := s.checkReceipt(ctx, hash, confirmations)
		if err != nil {
			return nil, err
		}
		if receipt != nil {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// checkReceipt returns nil, nil while the transaction is pending or not yet deep enough
func (s *RelaySigner) checkReceipt(ctx context.Context, hash common.Hash, confirmations uint64) (*gaslessevm.TransactionReceipt, error) {
	receipt, err := s.backend.TransactionReceipt(ctx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}

	mined := receipt.BlockNumber.Uint64()
	if confirmations > 1 {
		head, err := s.backend.BlockNumber(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get block number: %w", err)
		}
		if head < mined || head-mined+1 < confirmations {
			return nil, nil
		}
	}

	return &gaslessevm.TransactionReceipt{
		Status:      receipt.Status,
		BlockNumber: mined,
		TxHash:      receipt.TxHash.Hex(),
		GasUsed:     receipt.GasUsed,
	}, nil
}
