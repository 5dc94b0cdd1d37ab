package evm

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	gaslessevm "github.com/gasless-nft/relay/mechanisms/evm"
)

// ClientSigner implements gaslessevm.ClientEvmSigner using an ECDSA private key.
// It signs forward requests for the wallet that owns the NFTs.
type ClientSigner struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
	backend    Backend
}

// NewClientSignerFromPrivateKey creates a client signer from a hex-encoded private key.
//
// Args:
//
//	privateKeyHex: Hex-encoded private key (with or without "0x" prefix)
//
// Returns:
//
//	ClientSigner ready for use with client.NewForwardScheme()
//	Error if private key is invalid
//
// Example:
//
//	signer, err := evm.NewClientSignerFromPrivateKey("0x1234...")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	scheme := client.NewForwardScheme(signer.WithBackend(rpc), forwarder, nil)
func NewClientSignerFromPrivateKey(privateKeyHex string) (*ClientSigner, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return NewClientSigner(privateKey), nil
}

// NewClientSigner creates a client signer from an already decoded key
func NewClientSigner(privateKey *ecdsa.PrivateKey) *ClientSigner {
	return &ClientSigner{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
	}
}

// Connect connects the signer to an RPC endpoint
func (s *ClientSigner) Connect(ctx context.Context, rpcURL string) error {
	client, err := Dial(ctx, rpcURL)
	if err != nil {
		return err
	}
	s.backend = client
	return nil
}

// WithBackend sets the backend used for contract reads
func (s *ClientSigner) WithBackend(backend Backend) *ClientSigner {
	s.backend = backend
	return s
}

// Address returns the Ethereum address of the signer.
func (s *ClientSigner) Address() string {
	return s.address.Hex()
}

// SignTypedData signs EIP-712 typed data.
//
// Returns the 65-byte signature (r, s, v) with v in 27/28 form.
func (s *ClientSigner) SignTypedData(
	ctx context.Context,
	domain gaslessevm.TypedDataDomain,
	types map[string][]gaslessevm.TypedDataField,
	primaryType string,
	message map[string]interface{},
) ([]byte, error) {
	digest, err := gaslessevm.HashTypedData(domain, types, primaryType, message)
	if err != nil {
		return nil, err
	}

	signature, err := crypto.Sign(digest, s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}

	// Recovery ID 0/1 -> 27/28
	signature[64] += 27

	return signature, nil
}

// ReadContract reads data from a smart contract
func (s *ClientSigner) ReadContract(
	ctx context.Context,
	contractAddress string,
	abiJSON []byte,
	functionName string,
	args ...interface{},
) (interface{}, error) {
	return readContract(ctx, s.backend, contractAddress, abiJSON, functionName, args...)
}
