package swap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"near-intents/pkg/near"
)

type fakeKeyDirectory struct {
	keys     []string
	listErr  error
	addErr   error
	addCalls int
	added    string
}

func (f *fakeKeyDirectory) PublicKeysOf(ctx context.Context, accountID string) ([]string, error) {
	return f.keys, f.listErr
}

func (f *fakeKeyDirectory) AddPublicKey(ctx context.Context, kp *near.KeyPair, accountID, publicKey string) (string, error) {
	f.addCalls++
	f.added = publicKey
	if f.addErr != nil {
		return "", f.addErr
	}
	return "tx-add", nil
}

func TestEnsureRegisteredAddsMissingKey(t *testing.T) {
	kp, err := near.GenerateKeyPair()
	require.NoError(t, err)
	dir := &fakeKeyDirectory{keys: []string{"ed25519:someoneelse"}}

	r := NewRegistrar(dir, kp, "alice.near", nil)
	require.NoError(t, r.EnsureRegistered(context.Background()))

	assert.Equal(t, 1, dir.addCalls)
	assert.Equal(t, kp.PublicKeyString(), dir.added)
}

func TestEnsureRegisteredIsIdempotent(t *testing.T) {
	kp, err := near.GenerateKeyPair()
	require.NoError(t, err)
	dir := &fakeKeyDirectory{keys: []string{kp.PublicKeyString()}}

	r := NewRegistrar(dir, kp, "alice.near", nil)
	require.NoError(t, r.EnsureRegistered(context.Background()))
	require.NoError(t, r.EnsureRegistered(context.Background()))

	assert.Zero(t, dir.addCalls, "an already-registered key must not be re-added")
}

func TestEnsureRegisteredPropagatesErrors(t *testing.T) {
	kp, err := near.GenerateKeyPair()
	require.NoError(t, err)

	r := NewRegistrar(&fakeKeyDirectory{listErr: errors.New("node down")}, kp, "alice.near", nil)
	assert.Error(t, r.EnsureRegistered(context.Background()))

	r = NewRegistrar(&fakeKeyDirectory{addErr: errors.New("tx failed")}, kp, "alice.near", nil)
	assert.Error(t, r.EnsureRegistered(context.Background()))
}
