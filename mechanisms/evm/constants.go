package evm

import (
	"math/big"
)

const (
	// PrimaryTypeForwardRequest is the EIP-712 primary type signed by users
	PrimaryTypeForwardRequest = "ForwardRequest"

	// Forwarder function names
	FunctionVerify       = "verify"
	FunctionExecute      = "execute"
	FunctionNonces       = "nonces"
	FunctionEIP712Domain = "eip712Domain"

	// ERC-721 function used for transfers
	FunctionSafeTransferFrom = "safeTransferFrom"

	// Transaction status
	TxStatusSuccess = 1
	TxStatusFailed  = 0

	// DefaultRequestGas is the gas a signed request forwards to the NFT contract
	DefaultRequestGas = 5000000

	// DefaultValidityPeriod is how long a signed request stays executable (1 hour)
	DefaultValidityPeriod = 3600 // seconds

	// DefaultNetwork is the Sepolia test network
	DefaultNetwork = "eip155:11155111"

	// Reason codes shared by the relay scheme and transport
	ErrInvalidRequest         = "invalid_request"
	ErrInvalidPayload         = "invalid_payload"
	ErrMissingSignature       = "missing_signature"
	ErrInvalidSignature       = "invalid_signature"
	ErrSignerMismatch         = "signer_mismatch"
	ErrRequestExpired         = "request_expired"
	ErrTargetNotAllowed       = "target_not_allowed"
	ErrGasLimitExceeded       = "gas_limit_exceeded"
	ErrValueNotAllowed        = "value_not_allowed"
	ErrFailedToReadDomain     = "failed_to_read_domain"
	ErrFailedToReadNonce      = "failed_to_read_nonce"
	ErrFailedToVerify         = "failed_to_verify"
	ErrFailedToExecute        = "failed_to_execute"
	ErrFailedToGetReceipt     = "failed_to_get_receipt"
	ErrTransactionFailed      = "transaction_failed"
	ErrVerificationFailed     = "verification_failed"
	ErrForwarderNotConfigured = "forwarder_not_configured"
	ErrCallNotAllowed         = "call_not_allowed"
	ErrRequestInFlight        = "request_in_flight"
)

var (
	// Network chain IDs
	ChainIDMainnet = big.NewInt(1)
	ChainIDSepolia = big.NewInt(11155111)
	ChainIDPolygon = big.NewInt(137)

	// NetworkConfigs keyed by CAIP-2 identifier
	NetworkConfigs = map[string]NetworkConfig{
		"eip155:11155111": {
			ChainID:          ChainIDSepolia,
			Name:             "Ethereum Sepolia Testnet",
			DefaultRPC:       "https://ethereum-sepolia-rpc.publicnode.com",
			BlockExplorerURL: "https://sepolia.etherscan.io",
			NFTIndexURL:      "https://eth-sepolia.g.alchemy.com/nft/v3/",
			Ticker:           "ETH",
		},
		"eip155:1": {
			ChainID:          ChainIDMainnet,
			Name:             "Ethereum Mainnet",
			DefaultRPC:       "https://ethereum-rpc.publicnode.com",
			BlockExplorerURL: "https://etherscan.io",
			NFTIndexURL:      "https://eth-mainnet.g.alchemy.com/nft/v3/",
			Ticker:           "ETH",
		},
		"eip155:137": {
			ChainID:          ChainIDPolygon,
			Name:             "Polygon Mainnet",
			DefaultRPC:       "https://polygon-bor-rpc.publicnode.com",
			BlockExplorerURL: "https://polygonscan.com",
			NFTIndexURL:      "https://polygon-mainnet.g.alchemy.com/nft/v3/",
			Ticker:           "MATIC",
		},
	}

	// networkAliases maps short names to CAIP-2 identifiers
	networkAliases = map[string]string{
		"sepolia":  "eip155:11155111",
		"ethereum": "eip155:1",
		"mainnet":  "eip155:1",
		"polygon":  "eip155:137",
	}

	// ForwardRequestTypes is the EIP-712 type set of an ERC-2771 forwarder
	ForwardRequestTypes = map[string][]TypedDataField{
		"EIP712Domain": {
			{Name: "name", Type: "string"},
			{Name: "version", Type: "string"},
			{Name: "chainId", Type: "uint256"},
			{Name: "verifyingContract", Type: "address"},
		},
		PrimaryTypeForwardRequest: {
			{Name: "from", Type: "address"},
			{Name: "to", Type: "address"},
			{Name: "value", Type: "uint256"},
			{Name: "gas", Type: "uint256"},
			{Name: "nonce", Type: "uint256"},
			{Name: "deadline", Type: "uint48"},
			{Name: "data", Type: "bytes"},
		},
	}

	// ForwarderABI covers the forwarder functions the relay and signer call
	ForwarderABI = []byte(`[
		{
			"inputs": [
				{
					"components": [
						{"name": "from", "type": "address"},
						{"name": "to", "type": "address"},
						{"name": "value", "type": "uint256"},
						{"name": "gas", "type": "uint256"},
						{"name": "deadline", "type": "uint48"},
						{"name": "data", "type": "bytes"},
						{"name": "signature", "type": "bytes"}
					],
					"name": "request",
					"type": "tuple"
				}
			],
			"name": "verify",
			"outputs": [{"name": "", "type": "bool"}],
			"stateMutability": "view",
			"type": "function"
		},
		{
			"inputs": [
				{
					"components": [
						{"name": "from", "type": "address"},
						{"name": "to", "type": "address"},
						{"name": "value", "type": "uint256"},
						{"name": "gas", "type": "uint256"},
						{"name": "deadline", "type": "uint48"},
						{"name": "data", "type": "bytes"},
						{"name": "signature", "type": "bytes"}
					],
					"name": "request",
					"type": "tuple"
				}
			],
			"name": "execute",
			"outputs": [],
			"stateMutability": "payable",
			"type": "function"
		},
		{
			"inputs": [{"name": "owner", "type": "address"}],
			"name": "nonces",
			"outputs": [{"name": "", "type": "uint256"}],
			"stateMutability": "view",
			"type": "function"
		},
		{
			"inputs": [],
			"name": "eip712Domain",
			"outputs": [
				{"name": "fields", "type": "bytes1"},
				{"name": "name", "type": "string"},
				{"name": "version", "type": "string"},
				{"name": "chainId", "type": "uint256"},
				{"name": "verifyingContract", "type": "address"},
				{"name": "salt", "type": "bytes32"},
				{"name": "extensions", "type": "uint256[]"}
			],
			"stateMutability": "view",
			"type": "function"
		}
	]`)

	// ERC721TransferABI is the three-argument safeTransferFrom overload
	ERC721TransferABI = []byte(`[
		{
			"inputs": [
				{"name": "from", "type": "address"},
				{"name": "to", "type": "address"},
				{"name": "tokenId", "type": "uint256"}
			],
			"name": "safeTransferFrom",
			"outputs": [],
			"stateMutability": "nonpayable",
			"type": "function"
		}
	]`)
)
