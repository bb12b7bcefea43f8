package near

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

const ed25519Prefix = "ed25519:"

// KeyPair is an ed25519 account key in NEAR's string encoding
// ("ed25519:" + base58).
type KeyPair struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// ParseSecretKey parses a NEAR secret key string. Both the 64-byte
// seed+public form and a bare 32-byte seed are accepted.
func ParseSecretKey(s string) (*KeyPair, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, ed25519Prefix) {
		return nil, fmt.Errorf("secret key must start with %q", ed25519Prefix)
	}
	raw, err := base58.Decode(strings.TrimPrefix(s, ed25519Prefix))
	if err != nil {
		return nil, fmt.Errorf("invalid secret key encoding: %w", err)
	}

	var priv ed25519.PrivateKey
	switch len(raw) {
	case ed25519.PrivateKeySize:
		priv = ed25519.PrivateKey(raw)
	case ed25519.SeedSize:
		priv = ed25519.NewKeyFromSeed(raw)
	default:
		return nil, fmt.Errorf("secret key must be %d or %d bytes, got %d",
			ed25519.PrivateKeySize, ed25519.SeedSize, len(raw))
	}

	return &KeyPair{priv: priv, pub: priv.Public().(ed25519.PublicKey)}, nil
}

// GenerateKeyPair creates a fresh random key pair.
func GenerateKeyPair() (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return &KeyPair{priv: priv, pub: pub}, nil
}

// Sign signs data with the account's private key.
func (k *KeyPair) Sign(data []byte) []byte {
	return ed25519.Sign(k.priv, data)
}

// PublicKey returns the raw 32-byte public key.
func (k *KeyPair) PublicKey() ed25519.PublicKey {
	return k.pub
}

// PublicKeyString returns the public key in NEAR wire form.
func (k *KeyPair) PublicKeyString() string {
	return ed25519Prefix + base58.Encode(k.pub)
}

// SecretKeyString returns the secret key in NEAR wire form.
func (k *KeyPair) SecretKeyString() string {
	return ed25519Prefix + base58.Encode(k.priv)
}

// ParsePublicKey decodes a NEAR public key string into its raw 32 bytes.
func ParsePublicKey(s string) (ed25519.PublicKey, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, ed25519Prefix) {
		return nil, fmt.Errorf("public key must start with %q", ed25519Prefix)
	}
	raw, err := base58.Decode(strings.TrimPrefix(s, ed25519Prefix))
	if err != nil {
		return nil, fmt.Errorf("invalid public key encoding: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}
