package types

// Intent lifecycle states as reported by the relay's get_status method.
// Settled and NotFound are terminal.
const (
	IntentStatePending     = "PENDING"
	IntentStateBroadcasted = "TX_BROADCASTED"
	IntentStateSettled     = "SETTLED"
	IntentStateNotFound    = "NOT_FOUND_OR_NOT_VALID"
)

// IntentStatus is a single status read for a published intent.
type IntentStatus struct {
	IntentHash string `json:"intent_hash"`
	Status     string `json:"status"`
	Data       *struct {
		Hash string `json:"hash,omitempty"`
	} `json:"data,omitempty"`
}

// Terminal reports whether the status can no longer change.
func (s IntentStatus) Terminal() bool {
	return s.Status == IntentStateSettled || s.Status == IntentStateNotFound
}

// Settled reports whether the intent reached on-chain settlement.
func (s IntentStatus) Settled() bool {
	return s.Status == IntentStateSettled
}

// SettlementTxHash returns the settlement transaction hash when the relay
// reported one.
func (s IntentStatus) SettlementTxHash() string {
	if s.Data == nil {
		return ""
	}
	return s.Data.Hash
}
