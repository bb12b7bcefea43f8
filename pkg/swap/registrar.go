package swap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"near-intents/pkg/near"
)

// KeyDirectory is the settlement contract's key registry surface. Satisfied
// by *near.IntentsContract.
type KeyDirectory interface {
	PublicKeysOf(ctx context.Context, accountID string) ([]string, error)
	AddPublicKey(ctx context.Context, kp *near.KeyPair, accountID, publicKey string) (string, error)
}

// Registrar makes sure the signing key is authorized on the settlement
// contract before any intent referencing it is published.
type Registrar struct {
	dir       KeyDirectory
	keyPair   *near.KeyPair
	accountID string
	log       *zap.Logger
}

// NewRegistrar creates a registrar for one account key.
func NewRegistrar(dir KeyDirectory, kp *near.KeyPair, accountID string, log *zap.Logger) *Registrar {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registrar{dir: dir, keyPair: kp, accountID: accountID, log: log}
}

// EnsureRegistered registers the signing key if the contract does not list
// it yet. Idempotent from the caller's side: the membership check always
// runs first, so an already-registered key is a no-op with no transaction.
func (r *Registrar) EnsureRegistered(ctx context.Context) error {
	publicKey := r.keyPair.PublicKeyString()

	keys, err := r.dir.PublicKeysOf(ctx, r.accountID)
	if err != nil {
		return fmt.Errorf("key registry read failed: %w", err)
	}
	for _, k := range keys {
		if k == publicKey {
			r.log.Debug("signing key already registered", zap.String("account", r.accountID))
			return nil
		}
	}

	txHash, err := r.dir.AddPublicKey(ctx, r.keyPair, r.accountID, publicKey)
	if err != nil {
		return fmt.Errorf("key registration failed: %w", err)
	}
	r.log.Info("signing key registered",
		zap.String("account", r.accountID),
		zap.String("public_key", publicKey),
		zap.String("tx", txHash))
	return nil
}
