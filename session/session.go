package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	gasless "github.com/gasless-nft/relay"
	relayhttp "github.com/gasless-nft/relay/http"
	"github.com/gasless-nft/relay/logger"
	"github.com/gasless-nft/relay/mechanisms/evm"
	"github.com/gasless-nft/relay/mechanisms/evm/forward/client"
)

// User-facing validation errors
var (
	ErrInvalidAddress  = errors.New("Please enter a valid address")
	ErrNoTokenSelected = errors.New("Please select a token")
)

var (
	ErrNotLoggedIn        = errors.New("not logged in")
	ErrTransferInProgress = errors.New("a transfer is already being submitted")
	ErrTokenNotOwned      = errors.New("token is not owned by this wallet")
)

// Relay submits signed requests, normally a *relayhttp.RelayClient
type Relay interface {
	Transfer(ctx context.Context, req *evm.ForwardRequestData) (*relayhttp.TransferResponse, error)
}

// Config wires a Session to its collaborators
type Config struct {
	Network     string
	Forwarder   string
	NFTContract string

	Provider WalletProvider
	Index    relayhttp.NFTIndex
	Relay    Relay

	// Scheme overrides gas and validity of signed requests
	Scheme *client.ForwardSchemeConfig
}

// State is a snapshot of the session for rendering
type State struct {
	LoggedIn   bool
	Address    string
	NFTs       []gasless.OwnedNFT
	Submitting bool
	TxHash     string
}

// Session holds the wallet connection, the owned NFTs and the transfer form state
type Session struct {
	cfg Config

	mu         sync.Mutex
	scheme     *client.ForwardScheme
	address    string
	nfts       []gasless.OwnedNFT
	loaded     bool
	submitting bool
	txHash     string
}

// New creates a logged-out session
func New(cfg Config) *Session {
	cfg.Network = evm.NormalizeNetwork(cfg.Network)
	return &Session{cfg: cfg}
}

// Init restores a session the provider still holds a connection for
func (s *Session) Init(ctx context.Context) error {
	if !s.cfg.Provider.Connected() {
		return nil
	}
	return s.Login(ctx)
}

// Login connects the wallet and loads its NFTs
func (s *Session) Login(ctx context.Context) error {
	signer, err := s.cfg.Provider.Connect(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.scheme = client.NewForwardScheme(signer, s.cfg.Forwarder, s.cfg.Scheme)
	s.address = signer.Address()
	s.mu.Unlock()

	logger.FromContext(ctx).Info("wallet connected", zap.String("address", signer.Address()))

	return s.Refresh(ctx)
}

// Logout disconnects the wallet and clears all session state
func (s *Session) Logout(ctx context.Context) error {
	if err := s.cfg.Provider.Logout(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheme = nil
	s.address = ""
	s.nfts = nil
	s.loaded = false
	s.txHash = ""
	return nil
}

// Refresh reloads the NFTs the wallet owns
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	address := s.address
	s.mu.Unlock()

	if address == "" {
		return ErrNotLoggedIn
	}
	if s.cfg.Index == nil {
		return nil
	}

	nfts, err := s.cfg.Index.OwnedNFTs(ctx, address)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.address != address {
		// logged out or switched wallets meanwhile
		return nil
	}
	s.nfts = nfts
	s.loaded = true
	return nil
}

// Transfer signs a transfer of tokenID to destination and submits it to the
// relay. Returns the relayed transaction hash.
func (s *Session) Transfer(ctx context.Context, destination string, tokenID string) (string, error) {
	destination = strings.TrimSpace(destination)
	tokenID = strings.TrimSpace(tokenID)

	s.mu.Lock()
	if s.scheme == nil {
		s.mu.Unlock()
		return "", ErrNotLoggedIn
	}
	if !evm.IsValidAddress(destination) {
		s.mu.Unlock()
		return "", ErrInvalidAddress
	}
	if tokenID == "" {
		s.mu.Unlock()
		return "", ErrNoTokenSelected
	}
	if s.loaded && !s.ownsLocked(tokenID) {
		s.mu.Unlock()
		return "", ErrTokenNotOwned
	}
	if s.submitting {
		s.mu.Unlock()
		return "", ErrTransferInProgress
	}
	s.submitting = true
	s.txHash = ""
	scheme := s.scheme
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.submitting = false
		s.mu.Unlock()
	}()

	req, err := scheme.SignTransfer(ctx, client.TransferIntent{
		NFTContract: s.cfg.NFTContract,
		To:          destination,
		TokenID:     tokenID,
	})
	if err != nil {
		return "", err
	}

	resp, err := s.cfg.Relay.Transfer(ctx, req)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.txHash = resp.Hash
	s.mu.Unlock()

	ctx = logger.ContextWithTXHash(ctx, resp.Hash)
	logger.FromContext(ctx).Info("transfer submitted", zap.String("to", destination), zap.String("token_id", tokenID))

	if err := s.Refresh(ctx); err != nil {
		logger.FromContext(ctx).Warn("failed to refresh NFTs", zap.Error(err))
	}

	return resp.Hash, nil
}

// ExplorerURL links the last relayed transaction, or "" if there is none
func (s *Session) ExplorerURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return evm.TxURL(s.cfg.Network, s.txHash)
}

// State returns a snapshot of the session
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	nfts := make([]gasless.OwnedNFT, len(s.nfts))
	copy(nfts, s.nfts)

	return State{
		LoggedIn:   s.scheme != nil,
		Address:    s.address,
		NFTs:       nfts,
		Submitting: s.submitting,
		TxHash:     s.txHash,
	}
}

// ownsLocked reports whether tokenID is among the loaded NFTs of the configured
// contract. Token ids are compared numerically so "0x0a" matches "10".
func (s *Session) ownsLocked(tokenID string) bool {
	want, err := evm.ParseTokenID(tokenID)
	if err != nil {
		return false
	}
	for _, n := range s.nfts {
		if s.cfg.NFTContract != "" && !evm.SameAddress(n.Contract, s.cfg.NFTContract) {
			continue
		}
		have, err := evm.ParseTokenID(n.TokenID)
		if err == nil && have.Cmp(want) == 0 {
			return true
		}
	}
	return false
}
