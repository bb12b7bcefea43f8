package near

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"
	"fmt"
	"math/big"

	bin "github.com/gagliardetto/binary"
)

// Borsh layout for NEAR transactions. The action enum indices and field
// orders are fixed by the protocol; the node rejects anything off by a byte.

// Action enum discriminants.
const (
	actionFunctionCall uint8 = 2
	actionAddKey       uint8 = 5
)

// Access-key permission enum discriminants.
const (
	permissionFunctionCall uint8 = 0
	permissionFullAccess   uint8 = 1
)

// PublicKey is a NEAR public key in borsh form: key type byte + 32 key bytes.
type PublicKey struct {
	KeyType uint8
	Data    [32]byte
}

// PublicKeyFromEd25519 wraps a raw ed25519 public key.
func PublicKeyFromEd25519(pub ed25519.PublicKey) PublicKey {
	var pk PublicKey
	copy(pk.Data[:], pub)
	return pk
}

func (pk PublicKey) marshal(enc *bin.Encoder) error {
	if err := enc.WriteUint8(pk.KeyType); err != nil {
		return err
	}
	return enc.WriteBytes(pk.Data[:], false)
}

// TxSignature is a detached transaction signature: key type byte + 64 bytes.
type TxSignature struct {
	KeyType uint8
	Data    [64]byte
}

func (s TxSignature) marshal(enc *bin.Encoder) error {
	if err := enc.WriteUint8(s.KeyType); err != nil {
		return err
	}
	return enc.WriteBytes(s.Data[:], false)
}

// Action is one transaction action. Only the variants the settlement flow
// needs are implemented.
type Action interface {
	marshalAction(enc *bin.Encoder) error
}

// FunctionCallAction invokes a contract method with attached gas and deposit.
type FunctionCallAction struct {
	MethodName string
	Args       []byte
	Gas        uint64
	Deposit    *big.Int
}

func (a FunctionCallAction) marshalAction(enc *bin.Encoder) error {
	if err := enc.WriteUint8(actionFunctionCall); err != nil {
		return err
	}
	if err := enc.WriteString(a.MethodName); err != nil {
		return err
	}
	if err := enc.WriteBytes(a.Args, true); err != nil {
		return err
	}
	if err := enc.WriteUint64(a.Gas, binary.LittleEndian); err != nil {
		return err
	}
	return writeU128(enc, a.Deposit)
}

// AddKeyAction registers a new access key on the signing account.
type AddKeyAction struct {
	PublicKey PublicKey
	AccessKey AccessKey
}

func (a AddKeyAction) marshalAction(enc *bin.Encoder) error {
	if err := enc.WriteUint8(actionAddKey); err != nil {
		return err
	}
	if err := a.PublicKey.marshal(enc); err != nil {
		return err
	}
	return a.AccessKey.marshal(enc)
}

// AccessKey describes what a key is allowed to do. A nil FunctionCall means
// full access.
type AccessKey struct {
	Nonce        uint64
	FunctionCall *FunctionCallPermission
}

// FunctionCallPermission restricts a key to calling methods on one contract.
type FunctionCallPermission struct {
	Allowance   *big.Int
	ReceiverID  string
	MethodNames []string
}

func (k AccessKey) marshal(enc *bin.Encoder) error {
	if err := enc.WriteUint64(k.Nonce, binary.LittleEndian); err != nil {
		return err
	}
	if k.FunctionCall == nil {
		return enc.WriteUint8(permissionFullAccess)
	}
	if err := enc.WriteUint8(permissionFunctionCall); err != nil {
		return err
	}
	p := k.FunctionCall
	if p.Allowance == nil {
		if err := enc.WriteBool(false); err != nil {
			return err
		}
	} else {
		if err := enc.WriteBool(true); err != nil {
			return err
		}
		if err := writeU128(enc, p.Allowance); err != nil {
			return err
		}
	}
	if err := enc.WriteString(p.ReceiverID); err != nil {
		return err
	}
	if err := enc.WriteUint32(uint32(len(p.MethodNames)), binary.LittleEndian); err != nil {
		return err
	}
	for _, m := range p.MethodNames {
		if err := enc.WriteString(m); err != nil {
			return err
		}
	}
	return nil
}

// Transaction is an unsigned NEAR transaction.
type Transaction struct {
	SignerID   string
	PublicKey  PublicKey
	Nonce      uint64
	ReceiverID string
	BlockHash  [32]byte
	Actions    []Action
}

// MarshalWithEncoder writes the transaction in borsh layout.
func (t *Transaction) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := enc.WriteString(t.SignerID); err != nil {
		return err
	}
	if err := t.PublicKey.marshal(enc); err != nil {
		return err
	}
	if err := enc.WriteUint64(t.Nonce, binary.LittleEndian); err != nil {
		return err
	}
	if err := enc.WriteString(t.ReceiverID); err != nil {
		return err
	}
	if err := enc.WriteBytes(t.BlockHash[:], false); err != nil {
		return err
	}
	if err := enc.WriteUint32(uint32(len(t.Actions)), binary.LittleEndian); err != nil {
		return err
	}
	for _, a := range t.Actions {
		if err := a.marshalAction(enc); err != nil {
			return err
		}
	}
	return nil
}

// Marshal returns the borsh bytes whose sha256 the account key signs.
func (t *Transaction) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.MarshalWithEncoder(bin.NewBorshEncoder(&buf)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SignedTransaction carries the transaction with its signature.
type SignedTransaction struct {
	Transaction Transaction
	Signature   TxSignature
}

// Marshal returns the borsh bytes submitted to the node.
func (s *SignedTransaction) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := bin.NewBorshEncoder(&buf)
	if err := s.Transaction.MarshalWithEncoder(enc); err != nil {
		return nil, err
	}
	if err := s.Signature.marshal(enc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeU128 encodes a non-negative big integer as a 16-byte little-endian
// u128, the balance type NEAR uses for deposits.
func writeU128(enc *bin.Encoder, v *big.Int) error {
	if v == nil {
		v = big.NewInt(0)
	}
	if v.Sign() < 0 || v.BitLen() > 128 {
		return fmt.Errorf("value %s does not fit in u128", v)
	}
	var le [16]byte
	be := v.Bytes()
	for i, b := range be {
		le[len(be)-1-i] = b
	}
	return enc.WriteBytes(le[:], false)
}
