package evm

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ForwardRequest is the EIP-712 message a user signs to authorize a meta-transaction.
// It matches the ForwardRequest type of an ERC-2771 forwarder.
type ForwardRequest struct {
	From     string   // Signer address (hex)
	To       string   // Target contract address (hex)
	Value    *big.Int // Wei forwarded with the call
	Gas      *big.Int // Gas forwarded to the target
	Nonce    *big.Int // Forwarder nonce of From
	Deadline *big.Int // Unix timestamp (uint48)
	Data     []byte   // Calldata for the target
}

// ForwardRequestData is the relay wire format and the forwarder's calldata struct.
// The nonce is not sent; the forwarder supplies the current one when verifying.
type ForwardRequestData struct {
	From      string      `json:"from"`
	To        string      `json:"to"`
	Value     json.Number `json:"value"`
	Gas       json.Number `json:"gas"`
	Deadline  json.Number `json:"deadline"`
	Data      string      `json:"data"`
	Signature string      `json:"signature"`
}

// ForwarderCall is the ABI-packable form of ForwardRequestData
type ForwarderCall struct {
	From      common.Address `abi:"from"`
	To        common.Address `abi:"to"`
	Value     *big.Int       `abi:"value"`
	Gas       *big.Int       `abi:"gas"`
	Deadline  *big.Int       `abi:"deadline"`
	Data      []byte         `abi:"data"`
	Signature []byte         `abi:"signature"`
}

// ToCall parses the wire request into a ForwarderCall
func (r *ForwardRequestData) ToCall() (*ForwarderCall, error) {
	if !IsValidAddress(r.From) {
		return nil, fmt.Errorf("invalid from address: %q", r.From)
	}
	if !IsValidAddress(r.To) {
		return nil, fmt.Errorf("invalid to address: %q", r.To)
	}
	value, err := parseUint(r.Value, 256)
	if err != nil {
		return nil, fmt.Errorf("invalid value: %w", err)
	}
	gas, err := parseUint(r.Gas, 256)
	if err != nil {
		return nil, fmt.Errorf("invalid gas: %w", err)
	}
	deadline, err := parseUint(r.Deadline, 48)
	if err != nil {
		return nil, fmt.Errorf("invalid deadline: %w", err)
	}
	data, err := HexToBytes(r.Data)
	if err != nil {
		return nil, fmt.Errorf("invalid data: %w", err)
	}
	signature, err := HexToBytes(r.Signature)
	if err != nil {
		return nil, fmt.Errorf("invalid signature: %w", err)
	}
	if len(signature) == 0 {
		return nil, fmt.Errorf("missing signature")
	}

	return &ForwarderCall{
		From:      common.HexToAddress(r.From),
		To:        common.HexToAddress(r.To),
		Value:     value,
		Gas:       gas,
		Deadline:  deadline,
		Data:      data,
		Signature: signature,
	}, nil
}

// ForwardRequest rebuilds the signed message for the given forwarder nonce
func (c *ForwarderCall) ForwardRequest(nonce *big.Int) ForwardRequest {
	return ForwardRequest{
		From:     c.From.Hex(),
		To:       c.To.Hex(),
		Value:    c.Value,
		Gas:      c.Gas,
		Nonce:    nonce,
		Deadline: c.Deadline,
		Data:     c.Data,
	}
}

func parseUint(n json.Number, bits int) (*big.Int, error) {
	s := n.String()
	if s == "" {
		return nil, fmt.Errorf("empty number")
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("not a decimal integer: %q", s)
	}
	if v.Sign() < 0 || v.BitLen() > bits {
		return nil, fmt.Errorf("out of range for uint%d: %s", bits, s)
	}
	return v, nil
}

// ClientEvmSigner is the user's wallet as seen by the signing routine.
// A wallet-abstraction provider hands one out after login.
type ClientEvmSigner interface {
	// Address returns the signer's Ethereum address
	Address() string

	// SignTypedData signs EIP-712 typed data
	SignTypedData(ctx context.Context, domain TypedDataDomain, types map[string][]TypedDataField, primaryType string, message map[string]interface{}) ([]byte, error)

	// ReadContract reads data from a smart contract.
	// Needed to fetch the forwarder's domain and the signer's nonce.
	ReadContract(ctx context.Context, address string, abi []byte, functionName string, args ...interface{}) (interface{}, error)
}

// RelayEvmSigner is the relay wallet that pays gas for forwarded requests
type RelayEvmSigner interface {
	// Address returns the relay wallet address
	Address() string

	// ReadContract reads data from a smart contract
	ReadContract(ctx context.Context, address string, abi []byte, functionName string, args ...interface{}) (interface{}, error)

	// WriteContract sends a transaction calling functionName on address.
	// Implementations serialize writes so relay nonces never collide.
	WriteContract(ctx context.Context, address string, abi []byte, functionName string, args ...interface{}) (string, error)

	// WaitForTransactionReceipt waits until txHash is mined and has the given
	// number of confirmations (1 means the including block)
	WaitForTransactionReceipt(ctx context.Context, txHash string, confirmations uint64) (*TransactionReceipt, error)

	// GetChainID returns the chain ID of the connected network
	GetChainID(ctx context.Context) (*big.Int, error)
}

// TypedDataDomain represents the EIP-712 domain separator
type TypedDataDomain struct {
	Name              string   `json:"name"`
	Version           string   `json:"version"`
	ChainID           *big.Int `json:"chainId"`
	VerifyingContract string   `json:"verifyingContract"`
}

// TypedDataField represents a field in EIP-712 typed data
type TypedDataField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TransactionReceipt represents the receipt of a mined transaction
type TransactionReceipt struct {
	Status      uint64 `json:"status"`
	BlockNumber uint64 `json:"blockNumber"`
	TxHash      string `json:"transactionHash"`
	GasUsed     uint64 `json:"gasUsed"`
}

// NetworkConfig contains network-specific configuration
type NetworkConfig struct {
	ChainID          *big.Int
	Name             string
	DefaultRPC       string
	BlockExplorerURL string
	NFTIndexURL      string // Alchemy NFT API v3 base, API key appended
	Ticker           string
}
