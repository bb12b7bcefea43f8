// Package nep413 implements NEP-413 off-chain message signing: a fixed-layout
// borsh payload, hashed with SHA-256 and signed with the account's ed25519
// key. The relay verifies the signature against the same byte layout, so the
// encoding here must match the standard field for field.
package nep413

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
)

// PayloadTag marks the off-chain message namespace: 2^31 + 413. On-chain
// transactions can never start with this prefix, which prevents a signed
// message from being replayed as a transaction.
const PayloadTag uint32 = 2147484061

// NonceSize is the required nonce length in bytes.
const NonceSize = 32

// Payload is the NEP-413 signing payload. Field order is the wire order.
type Payload struct {
	Tag         uint32
	Message     string
	Nonce       [NonceSize]byte
	Recipient   string
	CallbackURL *string
}

// NewPayload builds a payload with the fixed tag. The nonce must be exactly
// 32 bytes; anything else is a caller bug, reported as ErrInvalidNonce.
func NewPayload(message, recipient string, nonce []byte) (*Payload, error) {
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidNonce, len(nonce))
	}
	p := &Payload{
		Tag:       PayloadTag,
		Message:   message,
		Recipient: recipient,
	}
	copy(p.Nonce[:], nonce)
	return p, nil
}

// MarshalWithEncoder writes the payload in borsh layout: u32 tag,
// length-prefixed message, 32 raw nonce bytes, length-prefixed recipient,
// option-flagged callback URL.
func (p *Payload) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := enc.WriteUint32(p.Tag, binary.LittleEndian); err != nil {
		return err
	}
	if err := enc.WriteString(p.Message); err != nil {
		return err
	}
	if err := enc.WriteBytes(p.Nonce[:], false); err != nil {
		return err
	}
	if err := enc.WriteString(p.Recipient); err != nil {
		return err
	}
	if p.CallbackURL == nil {
		return enc.WriteBool(false)
	}
	if err := enc.WriteBool(true); err != nil {
		return err
	}
	return enc.WriteString(*p.CallbackURL)
}

// UnmarshalWithDecoder reads the payload back from its borsh layout.
func (p *Payload) UnmarshalWithDecoder(dec *bin.Decoder) error {
	var err error
	if p.Tag, err = dec.ReadUint32(binary.LittleEndian); err != nil {
		return err
	}
	if p.Message, err = dec.ReadString(); err != nil {
		return err
	}
	nonce, err := dec.ReadNBytes(NonceSize)
	if err != nil {
		return err
	}
	copy(p.Nonce[:], nonce)
	if p.Recipient, err = dec.ReadString(); err != nil {
		return err
	}
	present, err := dec.ReadBool()
	if err != nil {
		return err
	}
	if !present {
		p.CallbackURL = nil
		return nil
	}
	cb, err := dec.ReadString()
	if err != nil {
		return err
	}
	p.CallbackURL = &cb
	return nil
}

// Marshal returns the canonical borsh bytes of the payload.
func (p *Payload) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.MarshalWithEncoder(bin.NewBorshEncoder(&buf)); err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a payload from borsh bytes.
func Unmarshal(data []byte) (*Payload, error) {
	p := new(Payload)
	if err := p.UnmarshalWithDecoder(bin.NewBorshDecoder(data)); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	return p, nil
}
