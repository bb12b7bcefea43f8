package intent

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"

	"near-intents/pkg/types"
)

// SettlementNetwork is the network the settlement contract lives on.
// Withdrawals to it need no routing memo.
const SettlementNetwork = "near"

var evmNetworks = map[string]bool{
	"eth":      true,
	"base":     true,
	"arb":      true,
	"arbitrum": true,
	"op":       true,
	"optimism": true,
}

var nearAccountRe = regexp.MustCompile(`^[a-z0-9._-]{2,64}$`)

// Withdraw builds an ft_withdraw intent paying out to an external receiver.
// When destNetwork is a foreign chain the memo carries the routing directive
// the bridge uses to deliver the funds; for the settlement chain's own
// network the memo stays empty and receiver is the NEAR account itself.
func Withdraw(asset types.AssetID, amount, receiver, destNetwork string) (types.FTWithdrawIntent, error) {
	if amount == "" {
		return types.FTWithdrawIntent{}, fmt.Errorf("intent: amount is required")
	}
	destNetwork = strings.ToLower(strings.TrimSpace(destNetwork))
	if destNetwork == "" {
		destNetwork = SettlementNetwork
	}
	if err := ValidateAddress(receiver, destNetwork); err != nil {
		return types.FTWithdrawIntent{}, err
	}

	w := types.FTWithdrawIntent{
		Kind:   "ft_withdraw",
		Token:  asset.Contract(),
		Amount: amount,
	}
	if destNetwork == SettlementNetwork {
		w.ReceiverID = receiver
		return w, nil
	}
	// Cross-chain payout: the token contract receives the withdrawal and the
	// memo tells the bridge where to deliver it.
	w.ReceiverID = asset.Contract()
	w.Memo = "WITHDRAW_TO:" + receiver
	return w, nil
}

// ValidateAddress checks that receiver is plausible for the destination
// network before anything gets signed. A bad destination on a cross-chain
// payout is unrecoverable once settled.
func ValidateAddress(receiver, network string) error {
	receiver = strings.TrimSpace(receiver)
	if receiver == "" {
		return fmt.Errorf("intent: receiver address is required")
	}
	network = strings.ToLower(network)
	switch {
	case network == SettlementNetwork:
		if !nearAccountRe.MatchString(receiver) && !isImplicitNearAccount(receiver) {
			return fmt.Errorf("intent: %q is not a valid NEAR account id", receiver)
		}
	case evmNetworks[network]:
		if !common.IsHexAddress(receiver) {
			return fmt.Errorf("intent: %q is not a valid %s address", receiver, network)
		}
	case network == "sol" || network == "solana":
		if _, err := solana.PublicKeyFromBase58(receiver); err != nil {
			return fmt.Errorf("intent: %q is not a valid solana address: %w", receiver, err)
		}
	default:
		// Unknown networks (btc, xmr, ...) pass through; the relay revalidates.
		if len(receiver) < 8 {
			return fmt.Errorf("intent: %q is too short for a %s address", receiver, network)
		}
	}
	return nil
}

func isImplicitNearAccount(s string) bool {
	if len(s) != 64 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
