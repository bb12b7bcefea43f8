package swap

import (
	"errors"
	"fmt"

	"near-intents/pkg/near"
	"near-intents/pkg/nep413"
	"near-intents/pkg/relay"
)

var (
	// ErrConfiguration reports missing signer identity or key material.
	// Fatal; nothing in the flow can proceed without a signer.
	ErrConfiguration = errors.New("swap: missing signer configuration")

	// ErrSettlementTimeout reports that polling exhausted its window. The
	// outcome is ambiguous: the intent may still settle out-of-band, so this
	// is deliberately distinct from a relay rejection.
	ErrSettlementTimeout = errors.New("swap: settlement polling timed out")

	// ErrIntentNotValid reports a terminal NOT_FOUND_OR_NOT_VALID poll
	// result, e.g. the quote expired before a solver matched it.
	ErrIntentNotValid = errors.New("swap: intent not found or no longer valid")
)

// Describe renders an error as the single human-readable line shown to the
// user: the failure kind plus the relay-provided reason when there is one.
func Describe(err error) string {
	var reject *relay.RejectError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &reject):
		return fmt.Sprintf("publish rejected: %s", reject.Reason)
	case errors.Is(err, relay.ErrNoLiquidity):
		return "no liquidity: no solver quoted this pair"
	case errors.Is(err, relay.ErrQuoteUnavailable):
		return fmt.Sprintf("quote unavailable: %v", err)
	case errors.Is(err, ErrSettlementTimeout):
		return "settlement timed out: the trade may still complete, check status later"
	case errors.Is(err, ErrIntentNotValid):
		return "intent invalid: the relay no longer recognizes it (quote likely expired)"
	case errors.Is(err, nep413.ErrInvalidNonce):
		return fmt.Sprintf("signing error: %v", err)
	case errors.Is(err, near.ErrInvalidResponse):
		return fmt.Sprintf("invalid node response: %v", err)
	case errors.Is(err, ErrConfiguration):
		return fmt.Sprintf("configuration error: %v", err)
	default:
		return err.Error()
	}
}
