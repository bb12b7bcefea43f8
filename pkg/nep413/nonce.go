package nep413

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// NewNonce returns 32 cryptographically random bytes. A fresh nonce per
// signing attempt is what makes each signature single-use.
func NewNonce() ([]byte, error) {
	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return nonce, nil
}

// EncodeNonce renders a nonce in the base64 form the relay expects.
func EncodeNonce(nonce []byte) string {
	return base64.StdEncoding.EncodeToString(nonce)
}
