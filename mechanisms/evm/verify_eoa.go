package evm

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrInvalidSignatureLength is returned for signatures that are not 65 bytes
var ErrInvalidSignatureLength = errors.New("invalid EOA signature length: expected 65 bytes")

// RecoverSigner recovers the address that produced an ECDSA signature over hash.
//
// Wallets emit v = 27/28 while crypto.SigToPub expects the recovery id 0/1,
// so v is normalized on a copy before recovery.
func RecoverSigner(hash []byte, signature []byte) (common.Address, error) {
	if len(signature) != 65 {
		return common.Address{}, ErrInvalidSignatureLength
	}

	sig := make([]byte, 65)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	pubKey, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(*pubKey), nil
}

// VerifyEOASignature verifies an ECDSA signature from an externally owned account (EOA)
//
// Args:
//
//	hash: The 32-byte message hash that was signed
//	signature: The 65-byte ECDSA signature (r: 32 bytes, s: 32 bytes, v: 1 byte)
//	expectedAddress: The Ethereum address that should have signed the message
//
// Returns:
//
//	true if the signature is valid and recovers to the expected address
//	error if the signature is malformed or recovery fails
func VerifyEOASignature(
	hash []byte,
	signature []byte,
	expectedAddress common.Address,
) (bool, error) {
	recovered, err := RecoverSigner(hash, signature)
	if err != nil {
		return false, err
	}
	return recovered == expectedAddress, nil
}
