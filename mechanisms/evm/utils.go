package evm

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// NormalizeNetwork resolves aliases such as "sepolia" to a CAIP-2 identifier
func NormalizeNetwork(network string) string {
	if caip, ok := networkAliases[strings.ToLower(network)]; ok {
		return caip
	}
	return network
}

// GetNetworkConfig returns the configuration for a network
func GetNetworkConfig(network string) (*NetworkConfig, error) {
	if config, ok := NetworkConfigs[NormalizeNetwork(network)]; ok {
		return &config, nil
	}
	return nil, fmt.Errorf("unsupported network: %s", network)
}

// GetEvmChainId returns the chain ID for a given network
func GetEvmChainId(network string) (*big.Int, error) {
	networkStr := NormalizeNetwork(network)

	if config, ok := NetworkConfigs[networkStr]; ok {
		return config.ChainID, nil
	}

	// Try to parse from CAIP-2 format (eip155:chainId)
	if strings.HasPrefix(networkStr, "eip155:") {
		chainIdStr := strings.TrimPrefix(networkStr, "eip155:")
		chainId, ok := new(big.Int).SetString(chainIdStr, 10)
		if ok {
			return chainId, nil
		}
	}

	return nil, fmt.Errorf("unsupported network: %s", network)
}

// TxURL returns the block explorer link for a transaction.
// Returns "" for networks without a known explorer.
func TxURL(network string, txHash string) string {
	config, err := GetNetworkConfig(network)
	if err != nil || config.BlockExplorerURL == "" || txHash == "" {
		return ""
	}
	return strings.TrimRight(config.BlockExplorerURL, "/") + "/tx/" + txHash
}

// NormalizeAddress ensures an Ethereum address is in the correct format
func NormalizeAddress(address string) string {
	addr := strings.TrimPrefix(strings.ToLower(address), "0x")
	return "0x" + addr
}

// IsValidAddress checks if a string is a valid Ethereum address
func IsValidAddress(address string) bool {
	if !strings.HasPrefix(address, "0x") && !strings.HasPrefix(address, "0X") {
		return false
	}
	addr := address[2:]

	// Check length (40 hex characters)
	if len(addr) != 40 {
		return false
	}

	_, err := hex.DecodeString(addr)
	return err == nil
}

// SameAddress compares two hex addresses ignoring case
func SameAddress(a, b string) bool {
	return strings.EqualFold(NormalizeAddress(a), NormalizeAddress(b))
}

// HexToBytes converts a hex string to bytes
func HexToBytes(hexStr string) ([]byte, error) {
	cleaned := strings.TrimPrefix(hexStr, "0x")
	return hex.DecodeString(cleaned)
}

// BytesToHex encodes bytes as 0x-prefixed hex
func BytesToHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// CreateDeadline returns the unix timestamp d from now
func CreateDeadline(now time.Time, d time.Duration) *big.Int {
	return big.NewInt(now.Add(d).Unix())
}

// ParseTokenID parses a decimal or 0x-prefixed hex token ID
func ParseTokenID(tokenID string) (*big.Int, error) {
	s := strings.TrimSpace(tokenID)
	if s == "" {
		return nil, fmt.Errorf("empty token id")
	}
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	id, ok := new(big.Int).SetString(s, base)
	if !ok || id.Sign() < 0 {
		return nil, fmt.Errorf("invalid token id: %q", tokenID)
	}
	return id, nil
}

// abiCache maps the ABI JSON text to its parsed *abi.ABI
var abiCache sync.Map

// ParseABI parses and caches an ABI definition
func ParseABI(abiJSON []byte) (*abi.ABI, error) {
	key := string(abiJSON)
	if cached, ok := abiCache.Load(key); ok {
		return cached.(*abi.ABI), nil
	}

	parsed, err := abi.JSON(strings.NewReader(key))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI: %w", err)
	}
	abiCache.Store(key, &parsed)
	return &parsed, nil
}

// EncodeSafeTransferFrom encodes ERC-721 safeTransferFrom(from, to, tokenId) calldata
func EncodeSafeTransferFrom(from string, to string, tokenID *big.Int) ([]byte, error) {
	if !IsValidAddress(from) {
		return nil, fmt.Errorf("invalid from address: %q", from)
	}
	if !IsValidAddress(to) {
		return nil, fmt.Errorf("invalid to address: %q", to)
	}
	parsed, err := ParseABI(ERC721TransferABI)
	if err != nil {
		return nil, err
	}
	return parsed.Pack(FunctionSafeTransferFrom, common.HexToAddress(from), common.HexToAddress(to), tokenID)
}

// DecodeSafeTransferFrom decodes safeTransferFrom calldata back into its arguments
func DecodeSafeTransferFrom(data []byte) (from common.Address, to common.Address, tokenID *big.Int, err error) {
	parsed, err := ParseABI(ERC721TransferABI)
	if err != nil {
		return common.Address{}, common.Address{}, nil, err
	}
	method := parsed.Methods[FunctionSafeTransferFrom]
	if len(data) < 4 || !bytes.Equal(data[:4], method.ID) {
		return common.Address{}, common.Address{}, nil, fmt.Errorf("calldata is not %s", method.Sig)
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return common.Address{}, common.Address{}, nil, fmt.Errorf("failed to unpack calldata: %w", err)
	}
	if len(args) != 3 {
		return common.Address{}, common.Address{}, nil, fmt.Errorf("expected 3 arguments, got %d", len(args))
	}
	from, ok1 := args[0].(common.Address)
	to, ok2 := args[1].(common.Address)
	tokenID, ok3 := args[2].(*big.Int)
	if !ok1 || !ok2 || !ok3 {
		return common.Address{}, common.Address{}, nil, fmt.Errorf("unexpected argument types in calldata")
	}
	return from, to, tokenID, nil
}

// ParseEIP712Domain converts an eip712Domain() result into a TypedDataDomain.
// The contract returns (fields, name, version, chainId, verifyingContract, salt, extensions).
func ParseEIP712Domain(result interface{}) (TypedDataDomain, error) {
	values, ok := result.([]interface{})
	if !ok || len(values) < 5 {
		return TypedDataDomain{}, fmt.Errorf("unexpected eip712Domain result: %T", result)
	}
	name, ok := values[1].(string)
	if !ok {
		return TypedDataDomain{}, fmt.Errorf("eip712Domain name is %T, want string", values[1])
	}
	version, ok := values[2].(string)
	if !ok {
		return TypedDataDomain{}, fmt.Errorf("eip712Domain version is %T, want string", values[2])
	}
	chainID, ok := values[3].(*big.Int)
	if !ok {
		return TypedDataDomain{}, fmt.Errorf("eip712Domain chainId is %T, want *big.Int", values[3])
	}
	verifyingContract, ok := values[4].(common.Address)
	if !ok {
		return TypedDataDomain{}, fmt.Errorf("eip712Domain verifyingContract is %T, want address", values[4])
	}
	return TypedDataDomain{
		Name:              name,
		Version:           version,
		ChainID:           chainID,
		VerifyingContract: verifyingContract.Hex(),
	}, nil
}

// BigToNumber renders an integer as a JSON number for the relay wire format
func BigToNumber(v *big.Int) json.Number {
	return json.Number(bigOrZero(v).String())
}

func bigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
