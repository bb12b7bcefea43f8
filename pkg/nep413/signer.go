package nep413

import (
	"crypto/sha256"
	"errors"

	"github.com/mr-tron/base58"

	"near-intents/pkg/near"
)

// ErrInvalidNonce reports a nonce that is not exactly 32 bytes. This is a
// programmer error at the call site, not a protocol condition.
var ErrInvalidNonce = errors.New("nep413: nonce must be exactly 32 bytes")

// Signature is a detached NEP-413 signature with the signing key, both in
// "ed25519:"-prefixed base58 wire form.
type Signature struct {
	Signature string
	PublicKey string
}

// Sign signs message for recipient under the NEP-413 standard. The signature
// covers sha256 of the borsh-encoded payload, not the message text, which
// keeps it verifiable regardless of how the transport re-encodes the JSON.
// Deterministic for fixed inputs.
func Sign(kp *near.KeyPair, message, recipient string, nonce []byte) (Signature, error) {
	payload, err := NewPayload(message, recipient, nonce)
	if err != nil {
		return Signature{}, err
	}
	data, err := payload.Marshal()
	if err != nil {
		return Signature{}, err
	}
	hash := sha256.Sum256(data)
	sig := kp.Sign(hash[:])
	return Signature{
		Signature: "ed25519:" + base58.Encode(sig),
		PublicKey: kp.PublicKeyString(),
	}, nil
}
