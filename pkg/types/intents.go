package types

import "encoding/json"

// AssetID identifies a fungible asset inside the intents settlement contract,
// e.g. "nep141:wrap.near". Values come from the token registry; callers never
// build them by hand.
type AssetID string

// QuoteRequest asks the solver relay for a price on an asset pair.
// Exactly one of ExactAmountIn / ExactAmountOut should be set.
type QuoteRequest struct {
	AssetIdentifierIn  AssetID `json:"defuse_asset_identifier_in"`
	AssetIdentifierOut AssetID `json:"defuse_asset_identifier_out"`
	ExactAmountIn      string  `json:"exact_amount_in,omitempty"`
	ExactAmountOut     string  `json:"exact_amount_out,omitempty"`
	QuoteID            string  `json:"quote_id,omitempty"`
	MinDeadlineMs      int64   `json:"min_deadline_ms,omitempty"`
}

// Quote is a time-bounded price offered by a solver. It is consumed at most
// once, before ExpirationTime.
type Quote struct {
	QuoteHash          string  `json:"quote_hash"`
	AssetIdentifierIn  AssetID `json:"defuse_asset_identifier_in"`
	AssetIdentifierOut AssetID `json:"defuse_asset_identifier_out"`
	AmountIn           string  `json:"amount_in"`
	AmountOut          string  `json:"amount_out"`
	ExpirationTime     int64   `json:"expiration_time"`
}

// Intent is one member of the protocol's intent union: token_diff,
// mt_batch_transfer or ft_withdraw.
type Intent interface {
	IntentKind() string
}

// TokenDiffIntent declares a balance change: exactly two entries, the input
// asset with a negated amount and the output asset with the credited amount.
type TokenDiffIntent struct {
	Kind string             `json:"intent"`
	Diff map[AssetID]string `json:"diff"`
}

func (TokenDiffIntent) IntentKind() string { return "token_diff" }

// MTBatchTransferIntent moves one or more assets to another account inside
// the settlement contract. Not used by the swap path but part of the union.
type MTBatchTransferIntent struct {
	Kind           string             `json:"intent"`
	ReceiverID     string             `json:"receiver_id"`
	TokenIDAmounts map[AssetID]string `json:"token_id_amounts"`
}

func (MTBatchTransferIntent) IntentKind() string { return "mt_batch_transfer" }

// FTWithdrawIntent withdraws an asset out of the settlement contract to an
// external receiver. Memo carries cross-chain routing when the destination is
// not the settlement chain's native network.
type FTWithdrawIntent struct {
	Kind       string `json:"intent"`
	Token      string `json:"token"`
	ReceiverID string `json:"receiver_id"`
	Amount     string `json:"amount"`
	Memo       string `json:"memo,omitempty"`
}

func (FTWithdrawIntent) IntentKind() string { return "ft_withdraw" }

// IntentMessage is the document the account holder signs: who, until when,
// and a non-empty ordered list of intents.
type IntentMessage struct {
	SignerID string   `json:"signer_id"`
	Deadline string   `json:"deadline"`
	Intents  []Intent `json:"intents"`
}

// Canonical returns the exact JSON text that gets signed and published. The
// same bytes must be used for both, so callers serialize once and carry the
// string around.
func (m IntentMessage) Canonical() (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// SignedPayload is the NEP-413 payload section of signed_data as it travels
// to the relay. Message is the canonical IntentMessage JSON, Nonce is the
// base64 of the 32 raw nonce bytes.
type SignedPayload struct {
	Message   string `json:"message"`
	Nonce     string `json:"nonce"`
	Recipient string `json:"recipient"`
}

// SignedData wraps the payload with the signing standard and the
// "ed25519:"-prefixed public key and signature.
type SignedData struct {
	Standard  string        `json:"standard"`
	Payload   SignedPayload `json:"payload"`
	PublicKey string        `json:"public_key"`
	Signature string        `json:"signature"`
}

// PublishIntentRequest submits a signed intent together with the quotes it
// consumes. QuoteHashes is empty for pure withdrawals.
type PublishIntentRequest struct {
	QuoteHashes []string   `json:"quote_hashes"`
	SignedData  SignedData `json:"signed_data"`
}

// PublishIntentResponse is the relay's accept/reject answer. OK means
// accepted for matching only, not settled.
type PublishIntentResponse struct {
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
	IntentHash string `json:"intent_hash"`
}

const (
	PublishStatusOK     = "OK"
	PublishStatusFailed = "FAILED"
)
