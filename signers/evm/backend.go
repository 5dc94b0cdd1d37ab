package evm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	gaslessevm "github.com/gasless-nft/relay/mechanisms/evm"
)

// Backend is the subset of *ethclient.Client the signers use
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

var _ Backend = (*ethclient.Client)(nil)

// Dial connects to an RPC endpoint
func Dial(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}
	return client, nil
}

// readContract packs a call, runs it against the latest block and unpacks the result.
// A single return value is returned as is, several as []interface{}.
func readContract(
	ctx context.Context,
	backend Backend,
	contractAddress string,
	abiJSON []byte,
	functionName string,
	args ...interface{},
) (interface{}, error) {
	if backend == nil {
		return nil, fmt.Errorf("RPC client not configured")
	}

	parsedABI, err := gaslessevm.ParseABI(abiJSON)
	if err != nil {
		return nil, err
	}

	data, err := parsedABI.Pack(functionName, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack data: %w", err)
	}

	to := common.HexToAddress(contractAddress)
	resultBytes, err := backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, err
	}

	unpacked, err := parsedABI.Unpack(functionName, resultBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack result: %w", err)
	}

	if len(unpacked) == 0 {
		return nil, nil
	}
	if len(unpacked) == 1 {
		return unpacked[0], nil
	}
	return unpacked, nil
}
