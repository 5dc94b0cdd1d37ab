package client

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/gasless-nft/relay/mechanisms/evm"
)

// TransferIntent describes the NFT transfer a user wants the relay to sponsor
type TransferIntent struct {
	NFTContract string // ERC-721 contract address
	To          string // Destination wallet
	TokenID     string // Decimal or 0x-prefixed hex token ID
}

// ForwardSchemeConfig holds optional overrides for ForwardScheme
type ForwardSchemeConfig struct {
	// Gas forwarded to the NFT contract (default 5,000,000)
	Gas *big.Int

	// Validity is how long the signed request stays executable (default 1 hour)
	Validity time.Duration

	// Now overrides the clock used for deadlines
	Now func() time.Time
}

// ForwardScheme builds and signs ERC-2771 forward requests for NFT transfers
type ForwardScheme struct {
	signer    evm.ClientEvmSigner
	forwarder string
	config    ForwardSchemeConfig
}

// NewForwardScheme creates a new ForwardScheme
// Args:
//
//	signer: The user's wallet signer
//	forwarder: The forwarder contract address that will verify the signature
//	config: Optional configuration (nil uses defaults)
//
// Returns:
//
//	Configured ForwardScheme instance
func NewForwardScheme(signer evm.ClientEvmSigner, forwarder string, config *ForwardSchemeConfig) *ForwardScheme {
	cfg := ForwardSchemeConfig{}
	if config != nil {
		cfg = *config
	}
	if cfg.Gas == nil {
		cfg.Gas = big.NewInt(evm.DefaultRequestGas)
	}
	if cfg.Validity <= 0 {
		cfg.Validity = evm.DefaultValidityPeriod * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &ForwardScheme{
		signer:    signer,
		forwarder: forwarder,
		config:    cfg,
	}
}

// Signer returns the address requests are signed by
func (c *ForwardScheme) Signer() string {
	return c.signer.Address()
}

// SignTransfer builds a safeTransferFrom forward request and signs it with EIP-712
func (c *ForwardScheme) SignTransfer(ctx context.Context, intent TransferIntent) (*evm.ForwardRequestData, error) {
	if !evm.IsValidAddress(c.forwarder) {
		return nil, fmt.Errorf("invalid forwarder address: %q", c.forwarder)
	}
	if !evm.IsValidAddress(intent.NFTContract) {
		return nil, fmt.Errorf("invalid NFT contract address: %q", intent.NFTContract)
	}
	if !evm.IsValidAddress(intent.To) {
		return nil, fmt.Errorf("invalid destination address: %q", intent.To)
	}
	tokenID, err := evm.ParseTokenID(intent.TokenID)
	if err != nil {
		return nil, err
	}

	from := common.HexToAddress(c.signer.Address()).Hex()

	domain, err := c.readDomain(ctx)
	if err != nil {
		return nil, err
	}

	data, err := evm.EncodeSafeTransferFrom(from, intent.To, tokenID)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transfer: %w", err)
	}

	nonce, err := c.readNonce(ctx, from)
	if err != nil {
		return nil, err
	}

	req := evm.ForwardRequest{
		From:     from,
		To:       common.HexToAddress(intent.NFTContract).Hex(),
		Value:    new(big.Int),
		Gas:      new(big.Int).Set(c.config.Gas),
		Nonce:    nonce,
		Deadline: evm.CreateDeadline(c.config.Now(), c.config.Validity),
		Data:     data,
	}

	signature, err := c.signer.SignTypedData(
		ctx,
		domain,
		evm.ForwardRequestTypes,
		evm.PrimaryTypeForwardRequest,
		evm.ForwardRequestMessage(req),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to sign forward request: %w", err)
	}

	// A wallet that signs with another key would only be caught by the relay
	hash, err := evm.HashForwardRequest(req, domain)
	if err != nil {
		return nil, fmt.Errorf("failed to hash forward request: %w", err)
	}
	valid, err := evm.VerifyEOASignature(hash, signature, common.HexToAddress(from))
	if err != nil {
		return nil, fmt.Errorf("wallet returned an invalid signature: %w", err)
	}
	if !valid {
		return nil, fmt.Errorf("wallet signature does not recover to %s", from)
	}

	return &evm.ForwardRequestData{
		From:      req.From,
		To:        req.To,
		Value:     evm.BigToNumber(req.Value),
		Gas:       evm.BigToNumber(req.Gas),
		Deadline:  evm.BigToNumber(req.Deadline),
		Data:      evm.BytesToHex(req.Data),
		Signature: evm.BytesToHex(signature),
	}, nil
}

// readDomain fetches the forwarder's EIP-712 domain
func (c *ForwardScheme) readDomain(ctx context.Context) (evm.TypedDataDomain, error) {
	result, err := c.signer.ReadContract(ctx, c.forwarder, evm.ForwarderABI, evm.FunctionEIP712Domain)
	if err != nil {
		return evm.TypedDataDomain{}, fmt.Errorf("failed to read forwarder domain: %w", err)
	}
	domain, err := evm.ParseEIP712Domain(result)
	if err != nil {
		return evm.TypedDataDomain{}, fmt.Errorf("failed to read forwarder domain: %w", err)
	}
	return domain, nil
}

// readNonce fetches the signer's current forwarder nonce
func (c *ForwardScheme) readNonce(ctx context.Context, from string) (*big.Int, error) {
	result, err := c.signer.ReadContract(ctx, c.forwarder, evm.ForwarderABI, evm.FunctionNonces, common.HexToAddress(from))
	if err != nil {
		return nil, fmt.Errorf("failed to read forwarder nonce: %w", err)
	}
	nonce, ok := result.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected nonce type returned: %T", result)
	}
	return nonce, nil
}
