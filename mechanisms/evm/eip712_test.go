package evm

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

func testDomain() TypedDataDomain {
	return TypedDataDomain{
		Name:              "ERC2771Forwarder",
		Version:           "1",
		ChainID:           big.NewInt(11155111),
		VerifyingContract: "0x5FbDB2315678afecb367f032d93F642f64180aa3",
	}
}

func testRequest() ForwardRequest {
	return ForwardRequest{
		From:     "0x14791697260E4c9A71f18484C9f997B308e59325",
		To:       "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512",
		Value:    big.NewInt(0),
		Gas:      big.NewInt(DefaultRequestGas),
		Nonce:    big.NewInt(3),
		Deadline: big.NewInt(1_700_003_600),
		Data:     []byte{0x42, 0x84, 0x2e, 0x0e},
	}
}

func TestForwardRequestTypeHash(t *testing.T) {
	typed := ToAPITypedData(testDomain(), ForwardRequestTypes, PrimaryTypeForwardRequest, ForwardRequestMessage(testRequest()))

	want := crypto.Keccak256([]byte("ForwardRequest(address from,address to,uint256 value,uint256 gas,uint256 nonce,uint48 deadline,bytes data)"))
	if got := typed.TypeHash(PrimaryTypeForwardRequest); !bytes.Equal(got, want) {
		t.Errorf("TypeHash() = %x, want %x", got, want)
	}
}

func TestHashForwardRequestMatchesGeth(t *testing.T) {
	req := testRequest()
	domain := testDomain()

	got, err := HashForwardRequest(req, domain)
	if err != nil {
		t.Fatalf("HashForwardRequest() error = %v", err)
	}
	if len(got) != 32 {
		t.Fatalf("hash length = %d, want 32", len(got))
	}

	want, _, err := apitypes.TypedDataAndHash(ToAPITypedData(domain, ForwardRequestTypes, PrimaryTypeForwardRequest, ForwardRequestMessage(req)))
	if err != nil {
		t.Fatalf("TypedDataAndHash() error = %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("HashForwardRequest() = %x, want %x", got, want)
	}
}

func TestHashForwardRequestBindsEveryField(t *testing.T) {
	base, err := HashForwardRequest(testRequest(), testDomain())
	if err != nil {
		t.Fatalf("HashForwardRequest() error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*ForwardRequest, *TypedDataDomain)
	}{
		{"from", func(r *ForwardRequest, _ *TypedDataDomain) { r.From = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8" }},
		{"to", func(r *ForwardRequest, _ *TypedDataDomain) { r.To = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8" }},
		{"value", func(r *ForwardRequest, _ *TypedDataDomain) { r.Value = big.NewInt(1) }},
		{"gas", func(r *ForwardRequest, _ *TypedDataDomain) { r.Gas = big.NewInt(21000) }},
		{"nonce", func(r *ForwardRequest, _ *TypedDataDomain) { r.Nonce = big.NewInt(4) }},
		{"deadline", func(r *ForwardRequest, _ *TypedDataDomain) { r.Deadline = big.NewInt(1_700_003_601) }},
		{"data", func(r *ForwardRequest, _ *TypedDataDomain) { r.Data = []byte{0x00} }},
		{"chain id", func(_ *ForwardRequest, d *TypedDataDomain) { d.ChainID = big.NewInt(1) }},
		{"verifying contract", func(_ *ForwardRequest, d *TypedDataDomain) {
			d.VerifyingContract = "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"
		}},
		{"name", func(_ *ForwardRequest, d *TypedDataDomain) { d.Name = "Forwarder" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, domain := testRequest(), testDomain()
			tt.mutate(&req, &domain)

			got, err := HashForwardRequest(req, domain)
			if err != nil {
				t.Fatalf("HashForwardRequest() error = %v", err)
			}
			if bytes.Equal(got, base) {
				t.Errorf("changing %s did not change the hash", tt.name)
			}
		})
	}
}

func TestHashForwardRequestNilFields(t *testing.T) {
	req := testRequest()
	req.Value = nil
	req.Data = nil

	zero := testRequest()
	zero.Value = new(big.Int)
	zero.Data = []byte{}

	a, err := HashForwardRequest(req, testDomain())
	if err != nil {
		t.Fatalf("HashForwardRequest() error = %v", err)
	}
	b, err := HashForwardRequest(zero, testDomain())
	if err != nil {
		t.Fatalf("HashForwardRequest() error = %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Errorf("nil value/data hash %x, want %x", a, b)
	}
}

func TestSignedForwardRequestRecovers(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	signer := crypto.PubkeyToAddress(key.PublicKey)

	req := testRequest()
	req.From = signer.Hex()

	hash, err := HashForwardRequest(req, testDomain())
	if err != nil {
		t.Fatalf("HashForwardRequest() error = %v", err)
	}
	sig, err := crypto.Sign(hash, key)
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}
	sig[64] += 27

	recovered, err := RecoverSigner(hash, sig)
	if err != nil {
		t.Fatalf("RecoverSigner() error = %v", err)
	}
	if recovered != signer {
		t.Errorf("RecoverSigner() = %s, want %s", recovered.Hex(), signer.Hex())
	}

	// same signature under a different nonce recovers someone else
	req.Nonce = big.NewInt(4)
	replayed, err := HashForwardRequest(req, testDomain())
	if err != nil {
		t.Fatalf("HashForwardRequest() error = %v", err)
	}
	other, err := RecoverSigner(replayed, sig)
	if err == nil && other == signer {
		t.Error("signature still valid after the nonce changed")
	}
}

func TestForwardRequestMessageChecksumsAddresses(t *testing.T) {
	req := testRequest()
	req.From = "0x14791697260e4c9a71f18484c9f997b308e59325"

	msg := ForwardRequestMessage(req)
	if got := msg["from"]; got != common.HexToAddress(req.From).Hex() {
		t.Errorf("from = %v, want checksummed address", got)
	}
	if _, ok := msg["data"].([]byte); !ok {
		t.Errorf("data is %T, want []byte", msg["data"])
	}
}
