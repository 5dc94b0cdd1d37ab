package session

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gasless "github.com/gasless-nft/relay"
	relayhttp "github.com/gasless-nft/relay/http"
	"github.com/gasless-nft/relay/mechanisms/evm"
)

const (
	testForwarder = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	testNFT       = "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"
	testRecipient = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
)

// walletSigner signs with a real key and answers forwarder reads
type walletSigner struct {
	key *ecdsa.PrivateKey
}

func (s *walletSigner) Address() string {
	return crypto.PubkeyToAddress(s.key.PublicKey).Hex()
}

func (s *walletSigner) SignTypedData(ctx context.Context, domain evm.TypedDataDomain, types map[string][]evm.TypedDataField, primaryType string, message map[string]interface{}) ([]byte, error) {
	hash, err := evm.HashTypedData(domain, types, primaryType, message)
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(hash, s.key)
	if err != nil {
		return nil, err
	}
	sig[64] += 27
	return sig, nil
}

func (s *walletSigner) ReadContract(ctx context.Context, address string, abi []byte, fn string, args ...interface{}) (interface{}, error) {
	switch fn {
	case evm.FunctionEIP712Domain:
		return []interface{}{[1]byte{0x0f}, "ERC2771Forwarder", "1", big.NewInt(11155111), common.HexToAddress(address), [32]byte{}, []*big.Int{}}, nil
	case evm.FunctionNonces:
		return big.NewInt(0), nil
	}
	return nil, errors.New("unexpected read " + fn)
}

type fakeProvider struct {
	signer    *walletSigner
	connected bool
	err       error
}

func (p *fakeProvider) Connect(ctx context.Context) (evm.ClientEvmSigner, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.connected = true
	return p.signer, nil
}

func (p *fakeProvider) Connected() bool { return p.connected }

func (p *fakeProvider) Logout(ctx context.Context) error {
	p.connected = false
	return nil
}

type fakeIndex struct {
	nfts  []gasless.OwnedNFT
	calls int
}

func (f *fakeIndex) OwnedNFTs(ctx context.Context, owner string) ([]gasless.OwnedNFT, error) {
	f.calls++
	return f.nfts, nil
}

type fakeRelay struct {
	mu      sync.Mutex
	reqs    []*evm.ForwardRequestData
	err     error
	block   chan struct{}
	entered chan struct{}
}

func (f *fakeRelay) Transfer(ctx context.Context, req *evm.ForwardRequestData) (*relayhttp.TransferResponse, error) {
	if f.entered != nil {
		close(f.entered)
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &relayhttp.TransferResponse{Message: "Success", Hash: "0xfeed"}, nil
}

func newTestSession(t *testing.T) (*Session, *fakeProvider, *fakeIndex, *fakeRelay) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	provider := &fakeProvider{signer: &walletSigner{key: key}}
	index := &fakeIndex{nfts: []gasless.OwnedNFT{
		{Contract: testNFT, TokenID: "10", Name: "Ten"},
		{Contract: "0x0000000000000000000000000000000000000001", TokenID: "11"},
	}}
	relay := &fakeRelay{}

	s := New(Config{
		Network:     "sepolia",
		Forwarder:   testForwarder,
		NFTContract: testNFT,
		Provider:    provider,
		Index:       index,
		Relay:       relay,
	})
	return s, provider, index, relay
}

func TestLoginLogout(t *testing.T) {
	s, provider, index, _ := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, s.Init(ctx))
	assert.False(t, s.State().LoggedIn, "Init must not log in without a connection")

	require.NoError(t, s.Login(ctx))
	st := s.State()
	assert.True(t, st.LoggedIn)
	assert.Equal(t, provider.signer.Address(), st.Address)
	assert.Len(t, st.NFTs, 2)
	assert.Equal(t, 1, index.calls)

	require.NoError(t, s.Logout(ctx))
	assert.Equal(t, State{NFTs: []gasless.OwnedNFT{}}, s.State())
	assert.False(t, provider.connected)
}

func TestInitRestoresConnection(t *testing.T) {
	s, provider, _, _ := newTestSession(t)
	provider.connected = true

	require.NoError(t, s.Init(context.Background()))
	assert.True(t, s.State().LoggedIn)
}

func TestLoginFailure(t *testing.T) {
	s, provider, _, _ := newTestSession(t)
	provider.err = errors.New("user closed the popup")

	assert.EqualError(t, s.Login(context.Background()), "user closed the popup")
	assert.False(t, s.State().LoggedIn)
}

func TestTransferValidation(t *testing.T) {
	s, _, _, relay := newTestSession(t)
	ctx := context.Background()

	_, err := s.Transfer(ctx, testRecipient, "10")
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	require.NoError(t, s.Login(ctx))

	_, err = s.Transfer(ctx, "0x123", "10")
	assert.EqualError(t, err, "Please enter a valid address")

	_, err = s.Transfer(ctx, testRecipient, " ")
	assert.EqualError(t, err, "Please select a token")

	_, err = s.Transfer(ctx, testRecipient, "11")
	assert.ErrorIs(t, err, ErrTokenNotOwned, "token 11 belongs to another contract")

	assert.Empty(t, relay.reqs)
}

func TestTransfer(t *testing.T) {
	s, provider, index, relay := newTestSession(t)
	ctx := context.Background()
	require.NoError(t, s.Login(ctx))

	hash, err := s.Transfer(ctx, testRecipient, "0x0a")
	require.NoError(t, err)
	assert.Equal(t, "0xfeed", hash)
	assert.Equal(t, "https://sepolia.etherscan.io/tx/0xfeed", s.ExplorerURL())
	assert.Equal(t, 2, index.calls, "inventory is refreshed after a transfer")

	require.Len(t, relay.reqs, 1)
	req := relay.reqs[0]
	assert.Equal(t, provider.signer.Address(), req.From)
	assert.Equal(t, testNFT, req.To)
	assert.Equal(t, "0", req.Value.String())
	assert.Equal(t, "5000000", req.Gas.String())

	from, to, tokenID, err := evm.DecodeSafeTransferFrom(common.FromHex(req.Data))
	require.NoError(t, err)
	assert.Equal(t, provider.signer.Address(), from.Hex())
	assert.Equal(t, testRecipient, to.Hex())
	assert.Equal(t, int64(10), tokenID.Int64())

	st := s.State()
	assert.False(t, st.Submitting)
	assert.Equal(t, "0xfeed", st.TxHash)
}

func TestTransferRelayError(t *testing.T) {
	s, _, _, relay := newTestSession(t)
	ctx := context.Background()
	require.NoError(t, s.Login(ctx))
	relay.err = &relayhttp.RelayError{StatusCode: 500, Message: "Invalid request"}

	_, err := s.Transfer(ctx, testRecipient, "10")
	var re *relayhttp.RelayError
	require.ErrorAs(t, err, &re)
	assert.False(t, s.State().Submitting)
	assert.Empty(t, s.ExplorerURL())
}

func TestTransferRejectsOverlappingSubmissions(t *testing.T) {
	s, _, _, relay := newTestSession(t)
	ctx := context.Background()
	require.NoError(t, s.Login(ctx))

	relay.block = make(chan struct{})
	relay.entered = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := s.Transfer(ctx, testRecipient, "10")
		done <- err
	}()

	<-relay.entered
	assert.True(t, s.State().Submitting)

	_, err := s.Transfer(ctx, testRecipient, "10")
	assert.ErrorIs(t, err, ErrTransferInProgress)

	close(relay.block)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("transfer did not finish")
	}
}

func TestPrivateKeyProvider(t *testing.T) {
	p := NewPrivateKeyProvider("0x0123456789012345678901234567890123456789012345678901234567890123", nil)
	assert.False(t, p.Connected())

	signer, err := p.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0x14791697260E4c9A71f18484C9f997B308e59325", signer.Address())
	assert.True(t, p.Connected())

	require.NoError(t, p.Logout(context.Background()))
	assert.False(t, p.Connected())

	_, err = NewPrivateKeyProvider("zz", nil).Connect(context.Background())
	assert.Error(t, err)
}

func TestKeystoreProvider(t *testing.T) {
	pk, err := crypto.GenerateKey()
	require.NoError(t, err)
	key := &keystore.Key{
		Id:         uuid.New(),
		Address:    crypto.PubkeyToAddress(pk.PublicKey),
		PrivateKey: pk,
	}
	keyJSON, err := keystore.EncryptKey(key, "hunter2", keystore.LightScryptN, keystore.LightScryptP)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, os.WriteFile(path, keyJSON, 0o600))

	signer, err := NewKeystoreProvider(path, "hunter2", nil).Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, key.Address.Hex(), signer.Address())

	_, err = NewKeystoreProvider(path, "wrong", nil).Connect(context.Background())
	assert.ErrorContains(t, err, "failed to decrypt keystore")

	_, err = NewKeystoreProvider(filepath.Join(t.TempDir(), "missing"), "", nil).Connect(context.Background())
	assert.ErrorContains(t, err, "failed to read keystore")
}
