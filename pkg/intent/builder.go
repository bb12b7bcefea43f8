// Package intent builds the documents an account holder signs: token_diff
// swaps, ft_withdraw payouts, and the enclosing deadline-bound message.
package intent

import (
	"errors"
	"fmt"
	"time"

	"near-intents/pkg/types"
)

// DefaultTTL is the default intent validity window.
const DefaultTTL = 300 * time.Second

// ErrIdenticalAssets reports a token_diff built against a single asset,
// which is a caller error.
var ErrIdenticalAssets = errors.New("intent: input and output assets must differ")

// TokenDiff builds the two-entry balance diff for a swap: the input asset is
// debited exactly (negated amount), the output asset is credited with the
// quoted amount. Pure function.
func TokenDiff(assetIn, assetOut types.AssetID, amountIn, amountOut string) (types.TokenDiffIntent, error) {
	if assetIn == assetOut {
		return types.TokenDiffIntent{}, ErrIdenticalAssets
	}
	if amountIn == "" || amountOut == "" {
		return types.TokenDiffIntent{}, fmt.Errorf("intent: amounts must be non-empty")
	}
	return types.TokenDiffIntent{
		Kind: "token_diff",
		Diff: map[types.AssetID]string{
			assetIn:  "-" + amountIn,
			assetOut: amountOut,
		},
	}, nil
}

// Message wraps intents into a signed-message document with an absolute
// deadline ttl from now. A non-positive ttl and an empty intent list are
// rejected; both indicate caller bugs.
func Message(signerID string, intents []types.Intent, ttl time.Duration) (types.IntentMessage, error) {
	if signerID == "" {
		return types.IntentMessage{}, fmt.Errorf("intent: signer id is required")
	}
	if len(intents) == 0 {
		return types.IntentMessage{}, fmt.Errorf("intent: at least one intent is required")
	}
	if ttl <= 0 {
		return types.IntentMessage{}, fmt.Errorf("intent: ttl must be positive, got %s", ttl)
	}
	return types.IntentMessage{
		SignerID: signerID,
		Deadline: time.Now().Add(ttl).UTC().Format(time.RFC3339),
		Intents:  intents,
	}, nil
}
