// Package deposit reconciles custodial balances inside the settlement
// contract against a trade's requirement, topping up from the account's
// token-contract balance when short.
package deposit

import (
	"context"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"near-intents/pkg/near"
	"near-intents/pkg/types"
)

// Ledger is the settlement-contract surface the reconciler needs. Satisfied
// by *near.IntentsContract.
type Ledger interface {
	ContractID() string
	BatchBalanceOf(ctx context.Context, accountID string, tokenIDs []types.AssetID) ([]*big.Int, error)
	StorageBalanceOf(ctx context.Context, tokenContract, accountID string) (*near.StorageBalance, error)
	MinStorageBalance(ctx context.Context, tokenContract string) *big.Int
	Deposit(ctx context.Context, kp *near.KeyPair, accountID, tokenContract string, needsStorage bool, minStorage, amount *big.Int) (string, error)
}

// Reconciler checks and tops up the account's intents balances. Balances are
// read fresh at the moment of need, never cached: they can change between
// quote and execution and the ledger is the only authority.
type Reconciler struct {
	ledger    Ledger
	keyPair   *near.KeyPair
	accountID string
	log       *zap.Logger
}

// NewReconciler creates a reconciler for one account.
func NewReconciler(ledger Ledger, kp *near.KeyPair, accountID string, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{ledger: ledger, keyPair: kp, accountID: accountID, log: log}
}

// Balances fetches custodial balances for the given assets in one batched
// query.
func (r *Reconciler) Balances(ctx context.Context, assetIDs []types.AssetID) (map[types.AssetID]*big.Int, error) {
	raw, err := r.ledger.BatchBalanceOf(ctx, r.accountID, assetIDs)
	if err != nil {
		return nil, fmt.Errorf("balance query failed: %w", err)
	}
	out := make(map[types.AssetID]*big.Int, len(assetIDs))
	for i, id := range assetIDs {
		out[id] = raw[i]
	}
	return out, nil
}

// EnsureFunded makes sure the custodial balance of assetID covers required,
// running the deposit sequence for the shortfall when it does not. The
// deposit is awaited; the flow must not proceed to signing on a balance that
// is still in flight. Returns the deposit transaction hash when one was
// submitted, or "" when the balance already sufficed.
func (r *Reconciler) EnsureFunded(ctx context.Context, assetID types.AssetID, required *big.Int) (string, error) {
	balances, err := r.Balances(ctx, []types.AssetID{assetID})
	if err != nil {
		return "", err
	}
	balance := balances[assetID]
	if balance.Cmp(required) >= 0 {
		r.log.Debug("custodial balance sufficient",
			zap.String("asset", string(assetID)),
			zap.String("balance", balance.String()),
			zap.String("required", required.String()))
		return "", nil
	}

	shortfall := new(big.Int).Sub(required, balance)
	tokenContract := assetID.Contract()
	r.log.Info("custodial balance short, depositing",
		zap.String("asset", string(assetID)),
		zap.String("balance", balance.String()),
		zap.String("required", required.String()),
		zap.String("shortfall", shortfall.String()))

	// The storage registration the transfer relies on belongs to the
	// settlement contract, not the sender: ft_transfer_call credits the
	// settlement contract on the token contract, so that is the account
	// whose allocation must exist. Check it, and register in the same
	// transaction if absent.
	storage, err := r.ledger.StorageBalanceOf(ctx, tokenContract, r.ledger.ContractID())
	if err != nil {
		return "", fmt.Errorf("storage check failed: %w", err)
	}
	needsStorage := storage == nil
	var minStorage *big.Int
	if needsStorage {
		minStorage = r.ledger.MinStorageBalance(ctx, tokenContract)
	}

	txHash, err := r.ledger.Deposit(ctx, r.keyPair, r.accountID, tokenContract, needsStorage, minStorage, shortfall)
	if err != nil {
		return "", fmt.Errorf("deposit failed: %w", err)
	}
	return txHash, nil
}
