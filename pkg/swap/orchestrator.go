// Package swap sequences the intent lifecycle: quote, balance
// reconciliation, signing, key registration, publication and settlement
// polling. One orchestrator call is one swap attempt, executed end-to-end as
// a single sequential pipeline.
package swap

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"go.uber.org/zap"

	"near-intents/pkg/intent"
	"near-intents/pkg/near"
	"near-intents/pkg/nep413"
	"near-intents/pkg/relay"
	"near-intents/pkg/types"
)

// State names the orchestrator's position in the pipeline.
type State string

const (
	StateQuoting         State = "Quoting"
	StateCheckingBalance State = "CheckingBalance"
	StateDepositing      State = "Depositing"
	StateSigning         State = "Signing"
	StateRegisteringKey  State = "RegisteringKey"
	StatePublishing      State = "Publishing"
	StatePolling         State = "Polling"
	StateSettled         State = "Settled"
	StateRejected        State = "Rejected"
	StateTimedOut        State = "TimedOut"
	StateFailed          State = "Failed"
)

// RelayAPI is the solver relay surface the orchestrator drives. Satisfied by
// *relay.Client.
type RelayAPI interface {
	Quote(ctx context.Context, req types.QuoteRequest) ([]types.Quote, error)
	PublishIntent(ctx context.Context, req types.PublishIntentRequest) (*types.PublishIntentResponse, error)
}

// Funder reconciles custodial balance before a trade. Satisfied by
// *deposit.Reconciler.
type Funder interface {
	EnsureFunded(ctx context.Context, assetID types.AssetID, required *big.Int) (string, error)
}

// KeyRegistrar ensures the signing key is authorized. Satisfied by
// *Registrar.
type KeyRegistrar interface {
	EnsureRegistered(ctx context.Context) error
}

// StatusWaiter drives an intent to a terminal state. Satisfied by *Poller.
type StatusWaiter interface {
	Wait(ctx context.Context, intentHash string) (*types.IntentStatus, error)
}

// Options tune a single orchestrator instance.
type Options struct {
	// TTL is the intent validity window; zero selects intent.DefaultTTL.
	TTL time.Duration
	// RequoteOnExpiredQuote retries the whole pipeline once when the relay
	// rejects a publish because the quote expired. Off by default: the
	// rejection is surfaced directly unless the caller opts in.
	RequoteOnExpiredQuote bool
}

// Orchestrator runs swap and withdraw attempts. It holds no mutable state
// across calls; the ledger is the only shared authority.
type Orchestrator struct {
	relay     RelayAPI
	funder    Funder
	registrar KeyRegistrar
	poller    StatusWaiter
	keyPair   *near.KeyPair
	accountID string
	// recipient is the account verifying the NEP-413 signature: the
	// settlement contract.
	recipient string
	opts      Options
	log       *zap.Logger
}

// NewOrchestrator wires the pipeline. accountID and keyPair are the signer
// identity; recipient is the settlement contract account.
func NewOrchestrator(relayAPI RelayAPI, funder Funder, registrar KeyRegistrar, poller StatusWaiter,
	kp *near.KeyPair, accountID, recipient string, opts Options, log *zap.Logger) (*Orchestrator, error) {
	if accountID == "" {
		return nil, fmt.Errorf("%w: account id is empty", ErrConfiguration)
	}
	if kp == nil {
		return nil, fmt.Errorf("%w: signing key is missing", ErrConfiguration)
	}
	if opts.TTL <= 0 {
		opts.TTL = intent.DefaultTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		relay:     relayAPI,
		funder:    funder,
		registrar: registrar,
		poller:    poller,
		keyPair:   kp,
		accountID: accountID,
		recipient: recipient,
		opts:      opts,
		log:       log,
	}, nil
}

// Request is one swap attempt: exact input amount in base units.
type Request struct {
	AssetIn       types.AssetID
	AssetOut      types.AssetID
	AmountIn      *big.Int
	MinDeadlineMs int64
}

// WithdrawRequest pays an asset out of the settlement contract.
type WithdrawRequest struct {
	Asset       types.AssetID
	Amount      *big.Int
	Receiver    string
	DestNetwork string
}

// Result reports where the pipeline ended and what it produced along the way.
type Result struct {
	State        State
	Quote        *types.Quote
	DepositTx    string
	IntentHash   string
	SettlementTx string
}

// Swap runs the full pipeline: quote, balance check, optional deposit,
// signing, key registration, publish, poll. Any component failure transitions
// to Failed carrying the originating error; a relay rejection ends in Rejected
// without polling. A polling window expiry ends in TimedOut, which is an
// ambiguous outcome: the intent may still settle out of band.
func (o *Orchestrator) Swap(ctx context.Context, req Request) (*Result, error) {
	result, err := o.swapOnce(ctx, req)
	if err != nil && o.opts.RequoteOnExpiredQuote && isExpiredQuoteRejection(err) {
		o.log.Info("quote expired before matching, re-quoting once")
		return o.swapOnce(ctx, req)
	}
	return result, err
}

func (o *Orchestrator) swapOnce(ctx context.Context, req Request) (*Result, error) {
	result := &Result{State: StateQuoting}
	if req.AssetIn == req.AssetOut {
		result.State = StateFailed
		return result, intent.ErrIdenticalAssets
	}
	if req.AmountIn == nil || req.AmountIn.Sign() <= 0 {
		result.State = StateFailed
		return result, fmt.Errorf("swap: amount must be positive")
	}

	o.log.Info("requesting quote",
		zap.String("asset_in", string(req.AssetIn)),
		zap.String("asset_out", string(req.AssetOut)),
		zap.String("amount_in", req.AmountIn.String()))

	quotes, err := o.relay.Quote(ctx, types.QuoteRequest{
		AssetIdentifierIn:  req.AssetIn,
		AssetIdentifierOut: req.AssetOut,
		ExactAmountIn:      req.AmountIn.String(),
		MinDeadlineMs:      req.MinDeadlineMs,
	})
	if err != nil {
		result.State = StateFailed
		return result, err
	}
	quote, err := BestQuote(quotes)
	if err != nil {
		result.State = StateFailed
		return result, err
	}
	result.Quote = &quote

	result.State = StateCheckingBalance
	depositTx, err := o.funder.EnsureFunded(ctx, req.AssetIn, req.AmountIn)
	if err != nil {
		result.State = StateFailed
		return result, err
	}
	if depositTx != "" {
		result.State = StateDepositing
		result.DepositTx = depositTx
	}

	result.State = StateSigning
	diff, err := intent.TokenDiff(quote.AssetIdentifierIn, quote.AssetIdentifierOut, quote.AmountIn, quote.AmountOut)
	if err != nil {
		result.State = StateFailed
		return result, err
	}
	signed, err := o.signMessage([]types.Intent{diff})
	if err != nil {
		result.State = StateFailed
		return result, err
	}

	return o.publishAndPoll(ctx, result, []string{quote.QuoteHash}, signed)
}

// Withdraw signs and publishes an ft_withdraw intent. No quote is consumed,
// so quote_hashes stays empty.
func (o *Orchestrator) Withdraw(ctx context.Context, req WithdrawRequest) (*Result, error) {
	result := &Result{State: StateSigning}
	if req.Amount == nil || req.Amount.Sign() <= 0 {
		result.State = StateFailed
		return result, fmt.Errorf("swap: amount must be positive")
	}

	w, err := intent.Withdraw(req.Asset, req.Amount.String(), req.Receiver, req.DestNetwork)
	if err != nil {
		result.State = StateFailed
		return result, err
	}
	signed, err := o.signMessage([]types.Intent{w})
	if err != nil {
		result.State = StateFailed
		return result, err
	}
	return o.publishAndPoll(ctx, result, nil, signed)
}

func (o *Orchestrator) signMessage(intents []types.Intent) (*types.SignedData, error) {
	msg, err := intent.Message(o.accountID, intents, o.opts.TTL)
	if err != nil {
		return nil, err
	}
	// Serialize once; the signature covers these exact bytes and the relay
	// must receive the same text.
	canonical, err := msg.Canonical()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize intent message: %w", err)
	}

	nonce, err := nep413.NewNonce()
	if err != nil {
		return nil, err
	}
	sig, err := nep413.Sign(o.keyPair, canonical, o.recipient, nonce)
	if err != nil {
		return nil, err
	}
	return &types.SignedData{
		Standard: "nep413",
		Payload: types.SignedPayload{
			Message:   canonical,
			Nonce:     nep413.EncodeNonce(nonce),
			Recipient: o.recipient,
		},
		PublicKey: sig.PublicKey,
		Signature: sig.Signature,
	}, nil
}

func (o *Orchestrator) publishAndPoll(ctx context.Context, result *Result, quoteHashes []string, signed *types.SignedData) (*Result, error) {
	// Registration is idempotent and always attempted: an intent referencing
	// an unregistered key can never settle.
	result.State = StateRegisteringKey
	if err := o.registrar.EnsureRegistered(ctx); err != nil {
		result.State = StateFailed
		return result, err
	}

	result.State = StatePublishing
	if quoteHashes == nil {
		quoteHashes = []string{}
	}
	resp, err := o.relay.PublishIntent(ctx, types.PublishIntentRequest{
		QuoteHashes: quoteHashes,
		SignedData:  *signed,
	})
	if err != nil {
		var reject *relay.RejectError
		if errors.As(err, &reject) {
			result.State = StateRejected
		} else {
			result.State = StateFailed
		}
		return result, err
	}
	result.IntentHash = resp.IntentHash

	result.State = StatePolling
	status, err := o.poller.Wait(ctx, resp.IntentHash)
	if err != nil {
		if errors.Is(err, ErrSettlementTimeout) {
			result.State = StateTimedOut
		} else {
			result.State = StateFailed
		}
		return result, err
	}
	if !status.Settled() {
		result.State = StateFailed
		return result, fmt.Errorf("%w: intent %s", ErrIntentNotValid, resp.IntentHash)
	}
	result.State = StateSettled
	result.SettlementTx = status.SettlementTxHash()
	return result, nil
}

func isExpiredQuoteRejection(err error) bool {
	var reject *relay.RejectError
	return errors.As(err, &reject) && strings.Contains(strings.ToLower(reject.Reason), "expired")
}

// BestQuote picks the quote paying out the most. Solvers reply unordered and
// a malformed amount from one solver must not sink the batch. An empty batch,
// or one with no parseable payout at all, is ErrNoLiquidity: nothing in it
// can be signed.
func BestQuote(quotes []types.Quote) (types.Quote, error) {
	var best types.Quote
	var bestOut *big.Int
	for _, q := range quotes {
		out, ok := new(big.Int).SetString(q.AmountOut, 10)
		if !ok {
			continue
		}
		if bestOut == nil || out.Cmp(bestOut) > 0 {
			best = q
			bestOut = out
		}
	}
	if bestOut == nil {
		return types.Quote{}, relay.ErrNoLiquidity
	}
	return best, nil
}
