package swap

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"near-intents/pkg/near"
	"near-intents/pkg/nep413"
	"near-intents/pkg/relay"
	"near-intents/pkg/types"
)

type fakeRelay struct {
	quotes     []types.Quote
	quoteErr   error
	quoteCalls int

	publishResp *types.PublishIntentResponse
	publishErr  error
	published   []types.PublishIntentRequest
}

func (f *fakeRelay) Quote(ctx context.Context, req types.QuoteRequest) ([]types.Quote, error) {
	f.quoteCalls++
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	return f.quotes, nil
}

func (f *fakeRelay) PublishIntent(ctx context.Context, req types.PublishIntentRequest) (*types.PublishIntentResponse, error) {
	f.published = append(f.published, req)
	if f.publishErr != nil {
		return f.publishResp, f.publishErr
	}
	return f.publishResp, nil
}

type fakeFunder struct {
	txHash string
	err    error
	calls  int
	asked  *big.Int
}

func (f *fakeFunder) EnsureFunded(ctx context.Context, assetID types.AssetID, required *big.Int) (string, error) {
	f.calls++
	f.asked = required
	return f.txHash, f.err
}

type fakeRegistrar struct {
	err   error
	calls int
}

func (f *fakeRegistrar) EnsureRegistered(ctx context.Context) error {
	f.calls++
	return f.err
}

type fakeWaiter struct {
	status *types.IntentStatus
	err    error
	calls  int
}

func (f *fakeWaiter) Wait(ctx context.Context, intentHash string) (*types.IntentStatus, error) {
	f.calls++
	return f.status, f.err
}

func settledStatus(intentHash, txHash string) *types.IntentStatus {
	s := &types.IntentStatus{IntentHash: intentHash, Status: types.IntentStateSettled}
	s.Data = &struct {
		Hash string `json:"hash,omitempty"`
	}{Hash: txHash}
	return s
}

type fixture struct {
	relay     *fakeRelay
	funder    *fakeFunder
	registrar *fakeRegistrar
	waiter    *fakeWaiter
	kp        *near.KeyPair
	orch      *Orchestrator
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	kp, err := near.GenerateKeyPair()
	require.NoError(t, err)

	f := &fixture{
		relay: &fakeRelay{
			quotes: []types.Quote{{
				QuoteHash:          "q1",
				AssetIdentifierIn:  "nep141:wrap.near",
				AssetIdentifierOut: "nep141:usdc.near",
				AmountIn:           "1000",
				AmountOut:          "2500",
			}},
			publishResp: &types.PublishIntentResponse{Status: types.PublishStatusOK, IntentHash: "ih1"},
		},
		funder:    &fakeFunder{},
		registrar: &fakeRegistrar{},
		waiter:    &fakeWaiter{status: settledStatus("ih1", "tx-settle")},
		kp:        kp,
	}
	f.orch, err = NewOrchestrator(f.relay, f.funder, f.registrar, f.waiter, kp, "alice.near", "intents.near", opts, nil)
	require.NoError(t, err)
	return f
}

func swapRequest() Request {
	return Request{
		AssetIn:  "nep141:wrap.near",
		AssetOut: "nep141:usdc.near",
		AmountIn: big.NewInt(1000),
	}
}

func TestSwapSettles(t *testing.T) {
	f := newFixture(t, Options{})
	result, err := f.orch.Swap(context.Background(), swapRequest())
	require.NoError(t, err)

	assert.Equal(t, StateSettled, result.State)
	assert.Equal(t, "ih1", result.IntentHash)
	assert.Equal(t, "tx-settle", result.SettlementTx)
	require.NotNil(t, result.Quote)
	assert.Equal(t, "2500", result.Quote.AmountOut)

	assert.Equal(t, 1, f.funder.calls)
	assert.Equal(t, "1000", f.funder.asked.String())
	assert.Equal(t, 1, f.registrar.calls, "key registration precedes publish")
	assert.Equal(t, 1, f.waiter.calls)
	require.Len(t, f.relay.published, 1)
	assert.Equal(t, []string{"q1"}, f.relay.published[0].QuoteHashes)
}

func TestSwapSignedDataVerifies(t *testing.T) {
	f := newFixture(t, Options{})
	_, err := f.orch.Swap(context.Background(), swapRequest())
	require.NoError(t, err)

	signed := f.relay.published[0].SignedData
	assert.Equal(t, "nep413", signed.Standard)
	assert.Equal(t, "intents.near", signed.Payload.Recipient)
	assert.Equal(t, f.kp.PublicKeyString(), signed.PublicKey)

	// The published message is the canonical intent document.
	var msg struct {
		SignerID string `json:"signer_id"`
		Deadline string `json:"deadline"`
		Intents  []struct {
			Intent string            `json:"intent"`
			Diff   map[string]string `json:"diff"`
		} `json:"intents"`
	}
	require.NoError(t, json.Unmarshal([]byte(signed.Payload.Message), &msg))
	assert.Equal(t, "alice.near", msg.SignerID)
	require.Len(t, msg.Intents, 1)
	assert.Equal(t, "token_diff", msg.Intents[0].Intent)
	assert.Equal(t, "-1000", msg.Intents[0].Diff["nep141:wrap.near"])
	assert.Equal(t, "2500", msg.Intents[0].Diff["nep141:usdc.near"])

	// The signature covers sha256 of the borsh payload over the same bytes.
	nonce, err := base64.StdEncoding.DecodeString(signed.Payload.Nonce)
	require.NoError(t, err)
	payload, err := nep413.NewPayload(signed.Payload.Message, signed.Payload.Recipient, nonce)
	require.NoError(t, err)
	data, err := payload.Marshal()
	require.NoError(t, err)
	hash := sha256.Sum256(data)
	rawSig, err := base58.Decode(strings.TrimPrefix(signed.Signature, "ed25519:"))
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(f.kp.PublicKey(), hash[:], rawSig))
}

func TestSwapDepositRecorded(t *testing.T) {
	f := newFixture(t, Options{})
	f.funder.txHash = "tx-deposit"

	result, err := f.orch.Swap(context.Background(), swapRequest())
	require.NoError(t, err)
	assert.Equal(t, StateSettled, result.State)
	assert.Equal(t, "tx-deposit", result.DepositTx)
}

func TestSwapPicksBestQuote(t *testing.T) {
	f := newFixture(t, Options{})
	f.relay.quotes = []types.Quote{
		{QuoteHash: "low", AmountIn: "1000", AmountOut: "2400", AssetIdentifierIn: "nep141:wrap.near", AssetIdentifierOut: "nep141:usdc.near"},
		{QuoteHash: "bad", AmountIn: "1000", AmountOut: "oops", AssetIdentifierIn: "nep141:wrap.near", AssetIdentifierOut: "nep141:usdc.near"},
		{QuoteHash: "high", AmountIn: "1000", AmountOut: "2600", AssetIdentifierIn: "nep141:wrap.near", AssetIdentifierOut: "nep141:usdc.near"},
	}

	result, err := f.orch.Swap(context.Background(), swapRequest())
	require.NoError(t, err)
	assert.Equal(t, "high", result.Quote.QuoteHash)
	assert.Equal(t, []string{"high"}, f.relay.published[0].QuoteHashes)
}

func TestBestQuoteGuardsDegenerateBatches(t *testing.T) {
	_, err := BestQuote(nil)
	assert.ErrorIs(t, err, relay.ErrNoLiquidity, "an empty batch has nothing to sign")

	_, err = BestQuote([]types.Quote{
		{QuoteHash: "a", AmountOut: "oops"},
		{QuoteHash: "b", AmountOut: ""},
	})
	assert.ErrorIs(t, err, relay.ErrNoLiquidity, "a batch with no parseable payout has nothing to sign")

	best, err := BestQuote([]types.Quote{
		{QuoteHash: "a", AmountOut: "oops"},
		{QuoteHash: "b", AmountOut: "42"},
	})
	require.NoError(t, err)
	assert.Equal(t, "b", best.QuoteHash)
}

func TestSwapFailsWhenRelayReturnsEmptyBatch(t *testing.T) {
	f := newFixture(t, Options{})
	f.relay.quotes = []types.Quote{}

	result, err := f.orch.Swap(context.Background(), swapRequest())
	assert.ErrorIs(t, err, relay.ErrNoLiquidity)
	assert.Equal(t, StateFailed, result.State)
	assert.Zero(t, f.funder.calls)
	assert.Empty(t, f.relay.published)
}

func TestSwapRejectsIdenticalAssets(t *testing.T) {
	f := newFixture(t, Options{})
	req := swapRequest()
	req.AssetOut = req.AssetIn

	result, err := f.orch.Swap(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, StateFailed, result.State)
	assert.Zero(t, f.relay.quoteCalls, "no quote for a degenerate pair")
}

func TestSwapNoLiquidityStops(t *testing.T) {
	f := newFixture(t, Options{})
	f.relay.quoteErr = relay.ErrNoLiquidity

	result, err := f.orch.Swap(context.Background(), swapRequest())
	assert.ErrorIs(t, err, relay.ErrNoLiquidity)
	assert.Equal(t, StateFailed, result.State)
	assert.Zero(t, f.funder.calls)
	assert.Empty(t, f.relay.published)
}

func TestSwapRejectionNeverPolls(t *testing.T) {
	f := newFixture(t, Options{})
	f.relay.publishErr = &relay.RejectError{Reason: "quote is expired"}

	result, err := f.orch.Swap(context.Background(), swapRequest())
	var reject *relay.RejectError
	require.True(t, errors.As(err, &reject))
	assert.Equal(t, StateRejected, result.State)
	assert.Zero(t, f.waiter.calls, "a rejected intent has nothing to poll")
}

func TestSwapRequoteOnExpiredQuote(t *testing.T) {
	f := newFixture(t, Options{RequoteOnExpiredQuote: true})
	f.relay.publishErr = &relay.RejectError{Reason: "quote is expired"}

	_, err := f.orch.Swap(context.Background(), swapRequest())
	require.Error(t, err)
	assert.Equal(t, 2, f.relay.quoteCalls, "one automatic requote, then surface the rejection")
	assert.Len(t, f.relay.published, 2)
}

func TestSwapRequoteDisabledByDefault(t *testing.T) {
	f := newFixture(t, Options{})
	f.relay.publishErr = &relay.RejectError{Reason: "quote is expired"}

	_, err := f.orch.Swap(context.Background(), swapRequest())
	require.Error(t, err)
	assert.Equal(t, 1, f.relay.quoteCalls)
}

func TestSwapTimeoutIsAmbiguous(t *testing.T) {
	f := newFixture(t, Options{})
	f.waiter.status = nil
	f.waiter.err = ErrSettlementTimeout

	result, err := f.orch.Swap(context.Background(), swapRequest())
	assert.ErrorIs(t, err, ErrSettlementTimeout)
	assert.Equal(t, StateTimedOut, result.State)
	assert.Equal(t, "ih1", result.IntentHash, "the hash survives for a later status check")
}

func TestSwapNotValidTerminal(t *testing.T) {
	f := newFixture(t, Options{})
	f.waiter.status = &types.IntentStatus{IntentHash: "ih1", Status: types.IntentStateNotFound}

	result, err := f.orch.Swap(context.Background(), swapRequest())
	assert.ErrorIs(t, err, ErrIntentNotValid)
	assert.Equal(t, StateFailed, result.State)
}

func TestSwapRegistrationFailureStopsPublish(t *testing.T) {
	f := newFixture(t, Options{})
	f.registrar.err = errors.New("registration tx failed")

	result, err := f.orch.Swap(context.Background(), swapRequest())
	require.Error(t, err)
	assert.Equal(t, StateFailed, result.State)
	assert.Empty(t, f.relay.published)
}

func TestWithdrawPublishesWithoutQuote(t *testing.T) {
	f := newFixture(t, Options{})

	result, err := f.orch.Withdraw(context.Background(), WithdrawRequest{
		Asset:       "nep141:usdc.near",
		Amount:      big.NewInt(500),
		Receiver:    "bob.near",
		DestNetwork: "near",
	})
	require.NoError(t, err)
	assert.Equal(t, StateSettled, result.State)

	require.Len(t, f.relay.published, 1)
	assert.Empty(t, f.relay.published[0].QuoteHashes)
	assert.NotNil(t, f.relay.published[0].QuoteHashes, "quote_hashes serializes as [], not null")

	var msg struct {
		Intents []struct {
			Intent     string `json:"intent"`
			Token      string `json:"token"`
			ReceiverID string `json:"receiver_id"`
			Amount     string `json:"amount"`
		} `json:"intents"`
	}
	require.NoError(t, json.Unmarshal([]byte(f.relay.published[0].SignedData.Payload.Message), &msg))
	require.Len(t, msg.Intents, 1)
	assert.Equal(t, "ft_withdraw", msg.Intents[0].Intent)
	assert.Equal(t, "usdc.near", msg.Intents[0].Token)
	assert.Equal(t, "bob.near", msg.Intents[0].ReceiverID)
	assert.Equal(t, "500", msg.Intents[0].Amount)
}

func TestWithdrawRejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(t, Options{})
	_, err := f.orch.Withdraw(context.Background(), WithdrawRequest{
		Asset:    "nep141:usdc.near",
		Amount:   big.NewInt(0),
		Receiver: "bob.near",
	})
	assert.Error(t, err)
	assert.Empty(t, f.relay.published)
}

func TestNewOrchestratorRequiresSigner(t *testing.T) {
	kp, err := near.GenerateKeyPair()
	require.NoError(t, err)

	_, err = NewOrchestrator(&fakeRelay{}, &fakeFunder{}, &fakeRegistrar{}, &fakeWaiter{}, kp, "", "intents.near", Options{}, nil)
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = NewOrchestrator(&fakeRelay{}, &fakeFunder{}, &fakeRegistrar{}, &fakeWaiter{}, nil, "alice.near", "intents.near", Options{}, nil)
	assert.ErrorIs(t, err, ErrConfiguration)
}
