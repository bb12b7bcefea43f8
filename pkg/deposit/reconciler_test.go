package deposit

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"near-intents/pkg/near"
	"near-intents/pkg/types"
)

type fakeLedger struct {
	balances map[types.AssetID]*big.Int
	storage  *near.StorageBalance
	minBound *big.Int

	balanceErr error
	depositErr error

	storageAccount string
	storageToken   string

	depositCalls   int
	depositAmount  *big.Int
	depositStorage bool
	depositMin     *big.Int
	depositToken   string
}

func (f *fakeLedger) ContractID() string { return "intents.near" }

func (f *fakeLedger) BatchBalanceOf(ctx context.Context, accountID string, tokenIDs []types.AssetID) ([]*big.Int, error) {
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	out := make([]*big.Int, len(tokenIDs))
	for i, id := range tokenIDs {
		b, ok := f.balances[id]
		if !ok {
			b = big.NewInt(0)
		}
		out[i] = b
	}
	return out, nil
}

func (f *fakeLedger) StorageBalanceOf(ctx context.Context, tokenContract, accountID string) (*near.StorageBalance, error) {
	f.storageToken = tokenContract
	f.storageAccount = accountID
	return f.storage, nil
}

func (f *fakeLedger) MinStorageBalance(ctx context.Context, tokenContract string) *big.Int {
	return f.minBound
}

func (f *fakeLedger) Deposit(ctx context.Context, kp *near.KeyPair, accountID, tokenContract string, needsStorage bool, minStorage, amount *big.Int) (string, error) {
	f.depositCalls++
	f.depositToken = tokenContract
	f.depositStorage = needsStorage
	f.depositMin = minStorage
	f.depositAmount = amount
	if f.depositErr != nil {
		return "", f.depositErr
	}
	return "tx-deposit", nil
}

func newReconciler(t *testing.T, ledger Ledger) *Reconciler {
	t.Helper()
	kp, err := near.GenerateKeyPair()
	require.NoError(t, err)
	return NewReconciler(ledger, kp, "alice.near", nil)
}

func TestEnsureFundedSufficientBalance(t *testing.T) {
	ledger := &fakeLedger{balances: map[types.AssetID]*big.Int{
		"nep141:wrap.near": big.NewInt(1500),
	}}
	r := newReconciler(t, ledger)

	tx, err := r.EnsureFunded(context.Background(), "nep141:wrap.near", big.NewInt(1000))
	require.NoError(t, err)
	assert.Empty(t, tx)
	assert.Zero(t, ledger.depositCalls)
}

func TestEnsureFundedExactBalanceNeedsNoDeposit(t *testing.T) {
	ledger := &fakeLedger{balances: map[types.AssetID]*big.Int{
		"nep141:wrap.near": big.NewInt(1000),
	}}
	r := newReconciler(t, ledger)

	tx, err := r.EnsureFunded(context.Background(), "nep141:wrap.near", big.NewInt(1000))
	require.NoError(t, err)
	assert.Empty(t, tx)
	assert.Zero(t, ledger.depositCalls, "equality is sufficient, not short")
}

func TestEnsureFundedDepositsShortfall(t *testing.T) {
	ledger := &fakeLedger{
		balances: map[types.AssetID]*big.Int{"nep141:wrap.near": big.NewInt(300)},
		storage:  &near.StorageBalance{Total: "1250000000000000000000", Available: "0"},
	}
	r := newReconciler(t, ledger)

	tx, err := r.EnsureFunded(context.Background(), "nep141:wrap.near", big.NewInt(1000))
	require.NoError(t, err)
	assert.Equal(t, "tx-deposit", tx)
	assert.Equal(t, 1, ledger.depositCalls)
	assert.Equal(t, "700", ledger.depositAmount.String(), "only the shortfall is moved")
	assert.Equal(t, "wrap.near", ledger.depositToken)
	assert.False(t, ledger.depositStorage, "existing storage registration is reused")
}

func TestEnsureFundedChecksStorageForSettlementContract(t *testing.T) {
	ledger := &fakeLedger{
		balances: map[types.AssetID]*big.Int{"nep141:usdc.near": big.NewInt(0)},
		storage:  nil,
		minBound: big.NewInt(1250),
	}
	r := newReconciler(t, ledger)

	_, err := r.EnsureFunded(context.Background(), "nep141:usdc.near", big.NewInt(500))
	require.NoError(t, err)
	assert.Equal(t, "usdc.near", ledger.storageToken)
	assert.Equal(t, "intents.near", ledger.storageAccount,
		"the registration the transfer depends on is the settlement contract's, so that is the account checked")
}

func TestEnsureFundedRegistersStorageWhenAbsent(t *testing.T) {
	ledger := &fakeLedger{
		balances: map[types.AssetID]*big.Int{"nep141:wrap.near": big.NewInt(0)},
		storage:  nil,
		minBound: big.NewInt(1250),
	}
	r := newReconciler(t, ledger)

	_, err := r.EnsureFunded(context.Background(), "nep141:wrap.near", big.NewInt(1000))
	require.NoError(t, err)
	assert.True(t, ledger.depositStorage)
	assert.Equal(t, "1250", ledger.depositMin.String())
	assert.Equal(t, "1000", ledger.depositAmount.String())
}

func TestEnsureFundedPropagatesErrors(t *testing.T) {
	r := newReconciler(t, &fakeLedger{balanceErr: errors.New("node down")})
	_, err := r.EnsureFunded(context.Background(), "nep141:wrap.near", big.NewInt(1))
	assert.Error(t, err)

	ledger := &fakeLedger{
		balances:   map[types.AssetID]*big.Int{"nep141:wrap.near": big.NewInt(0)},
		storage:    &near.StorageBalance{},
		depositErr: errors.New("tx failed"),
	}
	r = newReconciler(t, ledger)
	_, err = r.EnsureFunded(context.Background(), "nep141:wrap.near", big.NewInt(1))
	assert.Error(t, err)
}

func TestBalancesBatched(t *testing.T) {
	ledger := &fakeLedger{balances: map[types.AssetID]*big.Int{
		"nep141:a.near": big.NewInt(1),
		"nep141:b.near": big.NewInt(2),
	}}
	r := newReconciler(t, ledger)

	got, err := r.Balances(context.Background(), []types.AssetID{"nep141:a.near", "nep141:b.near"})
	require.NoError(t, err)
	assert.Equal(t, "1", got["nep141:a.near"].String())
	assert.Equal(t, "2", got["nep141:b.near"].String())
}
