package session

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/keystore"

	"github.com/gasless-nft/relay/mechanisms/evm"
	signers "github.com/gasless-nft/relay/signers/evm"
)

// WalletProvider hands out the user's signer after login. It stands in for a
// wallet-abstraction service: the session never touches key material directly.
type WalletProvider interface {
	// Connect logs the user in and returns their signer
	Connect(ctx context.Context) (evm.ClientEvmSigner, error)

	// Connected reports whether a previous Connect is still active
	Connected() bool

	// Logout drops the connection
	Logout(ctx context.Context) error
}

// PrivateKeyProvider logs in with a hex private key
type PrivateKeyProvider struct {
	privateKey string
	backend    signers.Backend

	mu     sync.Mutex
	signer *signers.ClientSigner
}

// NewPrivateKeyProvider creates a provider for a hex private key, reading chain
// state through backend
func NewPrivateKeyProvider(privateKeyHex string, backend signers.Backend) *PrivateKeyProvider {
	return &PrivateKeyProvider{privateKey: privateKeyHex, backend: backend}
}

func (p *PrivateKeyProvider) Connect(ctx context.Context) (evm.ClientEvmSigner, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.signer != nil {
		return p.signer, nil
	}
	signer, err := signers.NewClientSignerFromPrivateKey(p.privateKey)
	if err != nil {
		return nil, err
	}
	p.signer = signer.WithBackend(p.backend)
	return p.signer, nil
}

func (p *PrivateKeyProvider) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.signer != nil
}

func (p *PrivateKeyProvider) Logout(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signer = nil
	return nil
}

// KeystoreProvider logs in by decrypting a go-ethereum keystore file
type KeystoreProvider struct {
	path     string
	password string
	backend  signers.Backend

	mu     sync.Mutex
	signer *signers.ClientSigner
}

// NewKeystoreProvider creates a provider for the encrypted key at path
func NewKeystoreProvider(path string, password string, backend signers.Backend) *KeystoreProvider {
	return &KeystoreProvider{path: path, password: password, backend: backend}
}

func (p *KeystoreProvider) Connect(ctx context.Context) (evm.ClientEvmSigner, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.signer != nil {
		return p.signer, nil
	}

	keyJSON, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keystore: %w", err)
	}
	key, err := keystore.DecryptKey(keyJSON, p.password)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt keystore: %w", err)
	}

	p.signer = signers.NewClientSigner(key.PrivateKey).WithBackend(p.backend)
	return p.signer, nil
}

func (p *KeystoreProvider) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.signer != nil
}

func (p *KeystoreProvider) Logout(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signer = nil
	return nil
}
