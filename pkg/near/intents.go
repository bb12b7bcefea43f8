package near

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"near-intents/pkg/types"
)

// Gas budgets and attached deposits for the calls the deposit and
// registration sequences make. TGas values follow the protocol defaults for
// NEP-141 interactions.
const (
	StorageDepositGas uint64 = 30_000_000_000_000
	FtTransferCallGas uint64 = 50_000_000_000_000
	AddPublicKeyGas   uint64 = 30_000_000_000_000
)

// OneYocto is the 1 yoctoNEAR attached deposit NEP-141 change methods demand
// as a proof of a full-access key.
func OneYocto() *big.Int { return big.NewInt(1) }

// DefaultMinStorageBalance is the fallback storage bound (0.00125 NEAR) used
// when a token contract does not expose storage_balance_bounds.
var DefaultMinStorageBalance, _ = new(big.Int).SetString("1250000000000000000000", 10)

// IntentsContract binds the settlement contract's view and change methods.
type IntentsContract struct {
	client     *Client
	contractID string
	log        *zap.Logger
}

// NewIntentsContract creates bindings for the settlement contract
// (canonically "intents.near").
func NewIntentsContract(client *Client, contractID string, log *zap.Logger) *IntentsContract {
	if log == nil {
		log = zap.NewNop()
	}
	return &IntentsContract{client: client, contractID: contractID, log: log}
}

// ContractID returns the settlement contract account.
func (i *IntentsContract) ContractID() string { return i.contractID }

// BatchBalanceOf reads custodial balances for several assets in one view
// call. The result is positionally aligned with tokenIDs; a length mismatch
// is a protocol violation.
func (i *IntentsContract) BatchBalanceOf(ctx context.Context, accountID string, tokenIDs []types.AssetID) ([]*big.Int, error) {
	result, err := i.client.ViewFunction(ctx, i.contractID, "mt_batch_balance_of", map[string]interface{}{
		"account_id": accountID,
		"token_ids":  tokenIDs,
	})
	if err != nil {
		return nil, err
	}
	var raw []string
	if err := json.Unmarshal(result, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse balances: %w", err)
	}
	if len(raw) != len(tokenIDs) {
		return nil, fmt.Errorf("%w: asked for %d balances, got %d", ErrInvalidResponse, len(tokenIDs), len(raw))
	}
	balances := make([]*big.Int, len(raw))
	for idx, s := range raw {
		n, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("%w: balance %q is not a decimal integer", ErrInvalidResponse, s)
		}
		balances[idx] = n
	}
	return balances, nil
}

// PublicKeysOf reads the set of public keys registered for an account on the
// settlement contract.
func (i *IntentsContract) PublicKeysOf(ctx context.Context, accountID string) ([]string, error) {
	result, err := i.client.ViewFunction(ctx, i.contractID, "public_keys_of", map[string]interface{}{
		"account_id": accountID,
	})
	if err != nil {
		return nil, err
	}
	var keys []string
	if err := json.Unmarshal(result, &keys); err != nil {
		return nil, fmt.Errorf("failed to parse public keys: %w", err)
	}
	return keys, nil
}

// AddPublicKey registers a public key for the signing account.
func (i *IntentsContract) AddPublicKey(ctx context.Context, kp *KeyPair, accountID, publicKey string) (string, error) {
	args, err := json.Marshal(map[string]string{"public_key": publicKey})
	if err != nil {
		return "", fmt.Errorf("failed to marshal args: %w", err)
	}
	outcome, err := i.client.SignAndSend(ctx, kp, accountID, i.contractID, []Action{
		FunctionCallAction{
			MethodName: "add_public_key",
			Args:       args,
			Gas:        AddPublicKeyGas,
			Deposit:    OneYocto(),
		},
	})
	if err != nil {
		return "", err
	}
	i.log.Info("public key registered",
		zap.String("account", accountID),
		zap.String("tx", outcome.TransactionHash))
	return outcome.TransactionHash, nil
}

// StorageBalance is a token contract's storage accounting for one account.
type StorageBalance struct {
	Total     string `json:"total"`
	Available string `json:"available"`
}

// StorageBalanceOf reads an account's storage allocation on a token contract.
// A nil result means the account has never registered.
func (i *IntentsContract) StorageBalanceOf(ctx context.Context, tokenContract, accountID string) (*StorageBalance, error) {
	result, err := i.client.ViewFunction(ctx, tokenContract, "storage_balance_of", map[string]interface{}{
		"account_id": accountID,
	})
	if err != nil {
		return nil, err
	}
	var balance *StorageBalance
	if err := json.Unmarshal(result, &balance); err != nil {
		return nil, fmt.Errorf("failed to parse storage balance: %w", err)
	}
	return balance, nil
}

// MinStorageBalance queries the token contract's minimum storage bound,
// falling back to the protocol default when the contract does not expose it.
func (i *IntentsContract) MinStorageBalance(ctx context.Context, tokenContract string) *big.Int {
	result, err := i.client.ViewFunction(ctx, tokenContract, "storage_balance_bounds", map[string]interface{}{})
	if err != nil {
		return new(big.Int).Set(DefaultMinStorageBalance)
	}
	var bounds struct {
		Min string `json:"min"`
	}
	if err := json.Unmarshal(result, &bounds); err != nil {
		return new(big.Int).Set(DefaultMinStorageBalance)
	}
	min, ok := new(big.Int).SetString(bounds.Min, 10)
	if !ok {
		return new(big.Int).Set(DefaultMinStorageBalance)
	}
	return min
}

// DepositActions builds the deposit sequence actions against a token
// contract: an optional one-time storage registration for the settlement
// contract, then the transfer-with-callback that moves the amount into
// custody. Storage registration must precede the transfer, which assumes the
// allocation already exists.
func (i *IntentsContract) DepositActions(needsStorage bool, minStorage, amount *big.Int) ([]Action, error) {
	var actions []Action
	if needsStorage {
		args, err := json.Marshal(map[string]interface{}{
			"account_id":        i.contractID,
			"registration_only": true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal storage_deposit args: %w", err)
		}
		actions = append(actions, FunctionCallAction{
			MethodName: "storage_deposit",
			Args:       args,
			Gas:        StorageDepositGas,
			Deposit:    minStorage,
		})
	}

	// An empty msg credits the deposit to the sender's own intents balance.
	args, err := json.Marshal(map[string]string{
		"receiver_id": i.contractID,
		"amount":      amount.String(),
		"msg":         "",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ft_transfer_call args: %w", err)
	}
	actions = append(actions, FunctionCallAction{
		MethodName: "ft_transfer_call",
		Args:       args,
		Gas:        FtTransferCallGas,
		Deposit:    OneYocto(),
	})
	return actions, nil
}

// Deposit runs the deposit sequence on the asset's token contract and waits
// for final execution.
func (i *IntentsContract) Deposit(ctx context.Context, kp *KeyPair, accountID, tokenContract string, needsStorage bool, minStorage, amount *big.Int) (string, error) {
	actions, err := i.DepositActions(needsStorage, minStorage, amount)
	if err != nil {
		return "", err
	}
	outcome, err := i.client.SignAndSend(ctx, kp, accountID, tokenContract, actions)
	if err != nil {
		return "", err
	}
	i.log.Info("deposit submitted",
		zap.String("token", tokenContract),
		zap.String("amount", amount.String()),
		zap.Bool("storage_registered", needsStorage),
		zap.String("tx", outcome.TransactionHash))
	return outcome.TransactionHash, nil
}
