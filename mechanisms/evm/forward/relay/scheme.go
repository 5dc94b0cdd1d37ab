package relay

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	gasless "github.com/gasless-nft/relay"
	"github.com/gasless-nft/relay/mechanisms/evm"
)

// ForwardRelaySchemeConfig is the sponsorship policy of a relay
type ForwardRelaySchemeConfig struct {
	// AllowedTargets lists the contracts the relay pays gas for. Empty sponsors nothing.
	AllowedTargets []string

	// MaxGas caps the gas a request may forward (default 5,000,000)
	MaxGas *big.Int

	// AllowAnyCall sponsors any calldata on allowed targets instead of only
	// safeTransferFrom calls moving the signer's own token
	AllowAnyCall bool

	// Confirmations to wait for after execute (default 1)
	Confirmations uint64

	// Now overrides the clock used for deadline checks
	Now func() time.Time
}

// ForwardRelayScheme verifies signed forward requests and executes them through
// an ERC-2771 forwarder, paying gas from the relay wallet
type ForwardRelayScheme struct {
	signer    evm.RelayEvmSigner
	network   gasless.Network
	forwarder common.Address
	config    ForwardRelaySchemeConfig

	domainMu sync.Mutex
	domain   *evm.TypedDataDomain

	inflightMu sync.Mutex
	inflight   map[common.Hash]inflightEntry
}

// inflightEntry claims a signature while it executes, or until its deadline once broadcast without a receipt
type inflightEntry struct {
	until time.Time
	tx    string
}

// NewForwardRelayScheme creates a new ForwardRelayScheme
// Args:
//
//	signer: The relay wallet signer
//	network: The network the forwarder is deployed on
//	forwarder: The forwarder contract address
//	config: Optional policy (nil uses defaults)
//
// Returns:
//
//	Configured ForwardRelayScheme instance
func NewForwardRelayScheme(
	signer evm.RelayEvmSigner,
	network gasless.Network,
	forwarder string,
	config *ForwardRelaySchemeConfig,
) *ForwardRelayScheme {
	cfg := ForwardRelaySchemeConfig{}
	if config != nil {
		cfg = *config
	}
	if cfg.MaxGas == nil {
		cfg.MaxGas = big.NewInt(evm.DefaultRequestGas)
	}
	if cfg.Confirmations == 0 {
		cfg.Confirmations = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &ForwardRelayScheme{
		signer:    signer,
		network:   gasless.Network(evm.NormalizeNetwork(string(network))),
		forwarder: common.HexToAddress(forwarder),
		config:    cfg,
		inflight:  make(map[common.Hash]inflightEntry),
	}
}

// Network returns the network this scheme relays on
func (s *ForwardRelayScheme) Network() gasless.Network {
	return s.network
}

// Supported describes the sponsorship policy
func (s *ForwardRelayScheme) Supported() gasless.SupportedResponse {
	targets := make([]string, len(s.config.AllowedTargets))
	for i, t := range s.config.AllowedTargets {
		targets[i] = common.HexToAddress(t).Hex()
	}
	return gasless.SupportedResponse{
		Network:        s.network,
		Relayer:        s.signer.Address(),
		Forwarder:      s.forwarder.Hex(),
		AllowedTargets: targets,
		MaxGas:         s.config.MaxGas.String(),
	}
}

// Verify checks the sponsorship policy, pre-checks the signature off-chain and
// asks the forwarder to verify the request
func (s *ForwardRelayScheme) Verify(ctx context.Context, req evm.ForwardRequestData) (*gasless.VerifyResponse, error) {
	network := s.network

	if s.forwarder == (common.Address{}) {
		return nil, gasless.NewVerifyError(evm.ErrForwarderNotConfigured, req.From, network, nil)
	}

	if req.Signature == "" {
		return nil, gasless.NewVerifyError(evm.ErrMissingSignature, req.From, network, nil)
	}

	call, err := req.ToCall()
	if err != nil {
		return nil, gasless.NewVerifyError(evm.ErrInvalidPayload, req.From, network, err)
	}
	signer := call.From.Hex()

	if err := s.checkPolicy(call); err != nil {
		return nil, err
	}

	domain, err := s.readDomain(ctx)
	if err != nil {
		return nil, gasless.NewVerifyError(evm.ErrFailedToReadDomain, signer, network, err)
	}

	nonce, err := s.readNonce(ctx, call.From)
	if err != nil {
		return nil, gasless.NewVerifyError(evm.ErrFailedToReadNonce, signer, network, err)
	}

	// Off-chain pre-check so malformed or foreign signatures never reach the RPC
	hash, err := evm.HashForwardRequest(call.ForwardRequest(nonce), domain)
	if err != nil {
		return nil, gasless.NewVerifyError(evm.ErrInvalidPayload, signer, network, err)
	}
	recovered, err := evm.RecoverSigner(hash, call.Signature)
	if err != nil {
		return nil, gasless.NewVerifyError(evm.ErrInvalidSignature, signer, network, err)
	}
	if recovered != call.From {
		return nil, gasless.NewVerifyError(evm.ErrSignerMismatch, signer, network,
			fmt.Errorf("signature recovers to %s", recovered.Hex()))
	}

	result, err := s.signer.ReadContract(ctx, s.forwarder.Hex(), evm.ForwarderABI, evm.FunctionVerify, *call)
	if err != nil {
		return nil, gasless.NewVerifyError(evm.ErrFailedToVerify, signer, network, err)
	}
	valid, ok := result.(bool)
	if !ok {
		return nil, gasless.NewVerifyError(evm.ErrFailedToVerify, signer, network,
			fmt.Errorf("unexpected result type from verify: %T", result))
	}
	if !valid {
		return nil, gasless.NewVerifyError(evm.ErrInvalidRequest, signer, network, nil)
	}

	return &gasless.VerifyResponse{
		IsValid: true,
		Signer:  signer,
		Network: network,
	}, nil
}

// Execute verifies the request and then relays it through the forwarder,
// waiting for the configured number of confirmations
func (s *ForwardRelayScheme) Execute(ctx context.Context, req evm.ForwardRequestData) (*gasless.ExecuteResponse, error) {
	network := s.network

	verifyResp, err := s.Verify(ctx, req)
	if err != nil {
		ve := &gasless.VerifyError{}
		if errors.As(err, &ve) {
			return nil, gasless.NewExecuteError(ve.Reason, ve.Signer, ve.Network, "", ve.Err)
		}
		return nil, gasless.NewExecuteError(evm.ErrVerificationFailed, req.From, network, "", err)
	}

	call, err := req.ToCall()
	if err != nil {
		return nil, gasless.NewExecuteError(evm.ErrInvalidPayload, verifyResp.Signer, network, "", err)
	}

	key := common.BytesToHash(crypto.Keccak256(call.Signature))
	if pending, ok := s.acquire(key, time.Unix(call.Deadline.Int64(), 0)); !ok {
		return nil, gasless.NewExecuteError(evm.ErrRequestInFlight, verifyResp.Signer, network, pending, nil)
	}

	txHash, err := s.signer.WriteContract(ctx, s.forwarder.Hex(), evm.ForwarderABI, evm.FunctionExecute, *call)
	if err != nil {
		s.release(key)
		return nil, gasless.NewExecuteError(evm.ErrFailedToExecute, verifyResp.Signer, network, "", err)
	}

	receipt, err := s.signer.WaitForTransactionReceipt(ctx, txHash, s.config.Confirmations)
	if err != nil {
		// The transaction may still be mined, so a retry must not broadcast it again
		s.hold(key, txHash)
		return nil, gasless.NewExecuteError(evm.ErrFailedToGetReceipt, verifyResp.Signer, network, txHash, err)
	}
	s.release(key)

	if receipt.Status != evm.TxStatusSuccess {
		return nil, gasless.NewExecuteError(evm.ErrTransactionFailed, verifyResp.Signer, network, txHash, nil)
	}

	return &gasless.ExecuteResponse{
		Success:     true,
		Transaction: txHash,
		Network:     network,
		Signer:      verifyResp.Signer,
		BlockNumber: receipt.BlockNumber,
	}, nil
}

// checkPolicy applies the sponsorship rules that need no chain access
func (s *ForwardRelayScheme) checkPolicy(call *evm.ForwarderCall) error {
	network := s.network
	signer := call.From.Hex()

	if !s.targetAllowed(call.To) {
		return gasless.NewVerifyError(evm.ErrTargetNotAllowed, signer, network,
			fmt.Errorf("target %s is not sponsored", call.To.Hex()))
	}

	if call.Value.Sign() != 0 {
		return gasless.NewVerifyError(evm.ErrValueNotAllowed, signer, network,
			fmt.Errorf("value %s must be zero", call.Value))
	}

	if call.Gas.Cmp(s.config.MaxGas) > 0 {
		return gasless.NewVerifyError(evm.ErrGasLimitExceeded, signer, network,
			fmt.Errorf("gas %s exceeds %s", call.Gas, s.config.MaxGas))
	}

	if call.Deadline.Cmp(big.NewInt(s.config.Now().Unix())) <= 0 {
		return gasless.NewVerifyError(evm.ErrRequestExpired, signer, network,
			fmt.Errorf("deadline %s has passed", call.Deadline))
	}

	if !s.config.AllowAnyCall {
		from, _, _, err := evm.DecodeSafeTransferFrom(call.Data)
		if err != nil {
			return gasless.NewVerifyError(evm.ErrCallNotAllowed, signer, network, err)
		}
		if from != call.From {
			return gasless.NewVerifyError(evm.ErrCallNotAllowed, signer, network,
				fmt.Errorf("transfer moves tokens of %s, not the signer", from.Hex()))
		}
	}

	return nil
}

func (s *ForwardRelayScheme) targetAllowed(target common.Address) bool {
	for _, allowed := range s.config.AllowedTargets {
		if strings.EqualFold(common.HexToAddress(allowed).Hex(), target.Hex()) {
			return true
		}
	}
	return false
}

// acquire claims key until the request deadline. It fails with the pending
// transaction hash, if any, while another execution holds the key.
func (s *ForwardRelayScheme) acquire(key common.Hash, until time.Time) (string, bool) {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()

	now := s.config.Now()
	for k, e := range s.inflight {
		if now.After(e.until) {
			delete(s.inflight, k)
		}
	}

	if e, ok := s.inflight[key]; ok {
		return e.tx, false
	}
	s.inflight[key] = inflightEntry{until: until}
	return "", true
}

// hold keeps key claimed until its deadline, recording the broadcast transaction
func (s *ForwardRelayScheme) hold(key common.Hash, tx string) {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	if e, ok := s.inflight[key]; ok {
		e.tx = tx
		s.inflight[key] = e
	}
}

func (s *ForwardRelayScheme) release(key common.Hash) {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	delete(s.inflight, key)
}

// readDomain fetches and caches the forwarder's EIP-712 domain
func (s *ForwardRelayScheme) readDomain(ctx context.Context) (evm.TypedDataDomain, error) {
	s.domainMu.Lock()
	defer s.domainMu.Unlock()

	if s.domain != nil {
		return *s.domain, nil
	}

	result, err := s.signer.ReadContract(ctx, s.forwarder.Hex(), evm.ForwarderABI, evm.FunctionEIP712Domain)
	if err != nil {
		return evm.TypedDataDomain{}, err
	}
	domain, err := evm.ParseEIP712Domain(result)
	if err != nil {
		return evm.TypedDataDomain{}, err
	}
	s.domain = &domain
	return domain, nil
}

// readNonce fetches the signer's current forwarder nonce
func (s *ForwardRelayScheme) readNonce(ctx context.Context, from common.Address) (*big.Int, error) {
	result, err := s.signer.ReadContract(ctx, s.forwarder.Hex(), evm.ForwarderABI, evm.FunctionNonces, from)
	if err != nil {
		return nil, err
	}
	nonce, ok := result.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from nonces: %T", result)
	}
	return nonce, nil
}
