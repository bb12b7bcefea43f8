package types

import "time"

// Earlier protocol revisions used a structured deadline and signed the raw
// message JSON without the NEP-413 binary envelope. These adapters keep those
// shapes readable at the boundary without duplicating the core flow.

// LegacyDeadline is the old {timestamp, block_number} deadline shape where the
// expiry could additionally be capped by block height.
//
// Deprecated: the canonical deadline is an RFC3339 timestamp string; block
// ceilings are no longer honored by the relay.
type LegacyDeadline struct {
	Timestamp   int64 `json:"timestamp"`
	BlockNumber int64 `json:"block_number,omitempty"`
}

// Deadline converts the legacy shape to the canonical RFC3339 form, dropping
// the block ceiling.
func (d LegacyDeadline) Deadline() string {
	return time.Unix(d.Timestamp, 0).UTC().Format(time.RFC3339)
}

// LegacySignedData is the old signed_data shape where the message rode along
// as a structured object and the signature covered the raw JSON bytes
// ("raw_ed25519" standard) instead of the NEP-413 payload hash.
//
// Deprecated: use SignedData with the "nep413" standard.
type LegacySignedData struct {
	Standard  string        `json:"standard"`
	Message   IntentMessage `json:"message"`
	Nonce     string        `json:"nonce"`
	Recipient string        `json:"recipient"`
	Signature string        `json:"signature"`
	PublicKey string        `json:"public_key,omitempty"`
}

// Upgrade rewrites the legacy shape into the canonical payload envelope. The
// signature itself is not portable across standards, so callers must re-sign;
// Upgrade only carries the fields over.
func (l LegacySignedData) Upgrade() (SignedData, error) {
	msg, err := l.Message.Canonical()
	if err != nil {
		return SignedData{}, err
	}
	return SignedData{
		Standard: "nep413",
		Payload: SignedPayload{
			Message:   msg,
			Nonce:     l.Nonce,
			Recipient: l.Recipient,
		},
		PublicKey: l.PublicKey,
		Signature: l.Signature,
	}, nil
}
