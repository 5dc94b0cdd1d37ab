package evm

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

func TestRecoverSigner(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	address := crypto.PubkeyToAddress(key.PublicKey)
	hash := crypto.Keccak256([]byte("forward request"))

	raw, err := crypto.Sign(hash, key)
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}
	wallet := append([]byte(nil), raw...)
	wallet[64] += 27

	tests := []struct {
		name    string
		sig     []byte
		want    common.Address
		wantErr error
	}{
		{name: "recovery id 0/1", sig: raw, want: address},
		{name: "wallet v 27/28", sig: wallet, want: address},
		{name: "64 bytes", sig: raw[:64], wantErr: ErrInvalidSignatureLength},
		{name: "66 bytes", sig: append(append([]byte(nil), wallet...), 0x00), wantErr: ErrInvalidSignatureLength},
		{name: "empty", sig: []byte{}, wantErr: ErrInvalidSignatureLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RecoverSigner(hash, tt.sig)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("RecoverSigner() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("RecoverSigner() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("RecoverSigner() = %s, want %s", got.Hex(), tt.want.Hex())
			}
		})
	}

	if wallet[64] < 27 {
		t.Error("RecoverSigner() modified the caller's signature")
	}
}

func TestRecoverSignerRejectsBadRecoveryID(t *testing.T) {
	key, _ := crypto.GenerateKey()
	hash := crypto.Keccak256([]byte("forward request"))
	sig, _ := crypto.Sign(hash, key)
	sig[64] = 31

	if _, err := RecoverSigner(hash, sig); err == nil {
		t.Error("RecoverSigner() accepted v = 31")
	}
}

func TestVerifyEOASignature(t *testing.T) {
	key, _ := crypto.GenerateKey()
	address := crypto.PubkeyToAddress(key.PublicKey)
	hash := crypto.Keccak256([]byte("forward request"))
	sig, _ := crypto.Sign(hash, key)
	sig[64] += 27

	tests := []struct {
		name     string
		hash     []byte
		expected common.Address
		want     bool
	}{
		{"signer", hash, address, true},
		{"other address", hash, common.HexToAddress("0x0000000000000000000000000000000000000001"), false},
		{"other hash", crypto.Keccak256([]byte("another request")), address, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := VerifyEOASignature(tt.hash, sig, tt.expected)
			if err != nil {
				t.Fatalf("VerifyEOASignature() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("VerifyEOASignature() = %v, want %v", got, tt.want)
			}
		})
	}
}
