package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntentStatusLifecycle(t *testing.T) {
	tests := []struct {
		status   string
		terminal bool
		settled  bool
	}{
		{IntentStatePending, false, false},
		{IntentStateBroadcasted, false, false},
		{IntentStateSettled, true, true},
		{IntentStateNotFound, true, false},
	}
	for _, tt := range tests {
		s := IntentStatus{Status: tt.status}
		assert.Equal(t, tt.terminal, s.Terminal(), tt.status)
		assert.Equal(t, tt.settled, s.Settled(), tt.status)
	}
}

func TestSettlementTxHash(t *testing.T) {
	var s IntentStatus
	assert.Empty(t, s.SettlementTxHash())

	require.NoError(t, json.Unmarshal([]byte(`{"status":"SETTLED","data":{"hash":"tx1"}}`), &s))
	assert.Equal(t, "tx1", s.SettlementTxHash())
}

func TestAssetIDParts(t *testing.T) {
	id := AssetID("nep141:wrap.near")
	assert.Equal(t, "nep141", id.Standard())
	assert.Equal(t, "wrap.near", id.Contract())

	bare := AssetID("wrap.near")
	assert.Empty(t, bare.Standard())
	assert.Equal(t, "wrap.near", bare.Contract())
}

func TestIntentMessageJSON(t *testing.T) {
	msg := IntentMessage{
		SignerID: "alice.near",
		Deadline: "2026-01-01T00:00:00Z",
		Intents: []Intent{
			TokenDiffIntent{Kind: "token_diff", Diff: map[AssetID]string{"nep141:a.near": "-1", "nep141:b.near": "2"}},
		},
	}
	canonical, err := msg.Canonical()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"signer_id": "alice.near",
		"deadline": "2026-01-01T00:00:00Z",
		"intents": [{"intent":"token_diff","diff":{"nep141:a.near":"-1","nep141:b.near":"2"}}]
	}`, canonical)
}

func TestLegacyDeadlineConversion(t *testing.T) {
	d := LegacyDeadline{Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).Unix(), BlockNumber: 100}
	assert.Equal(t, "2026-03-01T12:00:00Z", d.Deadline())
}

func TestLegacySignedDataUpgrade(t *testing.T) {
	legacy := LegacySignedData{
		Standard:  "raw_ed25519",
		Message:   IntentMessage{SignerID: "alice.near", Deadline: "2026-01-01T00:00:00Z", Intents: []Intent{}},
		Nonce:     "bm9uY2U=",
		Recipient: "intents.near",
		Signature: "ed25519:sig",
		PublicKey: "ed25519:pub",
	}
	upgraded, err := legacy.Upgrade()
	require.NoError(t, err)

	assert.Equal(t, "nep413", upgraded.Standard)
	assert.Equal(t, "intents.near", upgraded.Payload.Recipient)
	assert.Equal(t, "bm9uY2U=", upgraded.Payload.Nonce)
	assert.Contains(t, upgraded.Payload.Message, `"signer_id":"alice.near"`)
}
