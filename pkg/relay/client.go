// Package relay is the JSON-RPC client for the solver relay: quote requests,
// signed intent publication and settlement status reads.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"near-intents/pkg/types"
)

// DefaultURL is the production solver relay endpoint.
const DefaultURL = "https://solver-relay-v2.chaindefuser.com/rpc"

var (
	// ErrNoLiquidity reports that no solver offered a quote for the pair.
	// The orchestrator must stop at this point; there is nothing to sign.
	ErrNoLiquidity = errors.New("relay: no liquidity for requested pair")

	// ErrQuoteUnavailable reports a transient failure reaching the relay for
	// a quote.
	ErrQuoteUnavailable = errors.New("relay: quote unavailable")
)

// RejectError is a relay-reported publish failure. The reason is surfaced to
// the caller verbatim and the publish is never retried automatically.
type RejectError struct {
	Reason string
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("relay rejected intent: %s", e.Reason)
}

const quoteRetries = 2

// Client talks to the solver relay.
type Client struct {
	url  string
	http *http.Client
	log  *zap.Logger
}

// NewClient creates a relay client. An empty url selects the production
// relay.
func NewClient(url string, log *zap.Logger) *Client {
	if url == "" {
		url = DefaultURL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		url:  url,
		http: &http.Client{Timeout: 30 * time.Second},
		log:  log,
	}
}

type rpcRequest struct {
	ID      int           `json:"id"`
	JSONRpc string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *Client) call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{ID: 1, JSONRpc: "2.0", Method: method, Params: []interface{}{params}})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.Debug("relay rpc call", zap.String("method", method))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rpc request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	// A non-2xx status is a transport failure, distinct from a JSON-RPC
	// error member.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("relay returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, fmt.Errorf("rpc error: %s", rpcResp.Error.Message)
	}
	return rpcResp.Result, nil
}

// Quote asks the relay for quotes on an asset pair, best-first. A transport
// failure maps to ErrQuoteUnavailable, an empty result to ErrNoLiquidity.
// Quote reads are retried on transient failure; publishes never are.
func (c *Client) Quote(ctx context.Context, req types.QuoteRequest) ([]types.Quote, error) {
	var result json.RawMessage
	var err error
	for attempt := 0; attempt <= quoteRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}
		result, err = c.call(ctx, "quote", req)
		if err == nil {
			break
		}
		c.log.Debug("quote retry", zap.Int("attempt", attempt), zap.Error(err))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuoteUnavailable, err)
	}

	if len(result) == 0 || string(result) == "null" {
		return nil, ErrNoLiquidity
	}
	var quotes []types.Quote
	if err := json.Unmarshal(result, &quotes); err != nil {
		return nil, fmt.Errorf("failed to parse quotes: %w", err)
	}
	if len(quotes) == 0 {
		return nil, ErrNoLiquidity
	}
	return quotes, nil
}

// PublishIntent submits a signed intent with the quote hashes it consumes.
// A FAILED status comes back as *RejectError carrying the relay's reason.
func (c *Client) PublishIntent(ctx context.Context, req types.PublishIntentRequest) (*types.PublishIntentResponse, error) {
	result, err := c.call(ctx, "publish_intent", req)
	if err != nil {
		return nil, fmt.Errorf("publish failed: %w", err)
	}
	var resp types.PublishIntentResponse
	if err := json.Unmarshal(result, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse publish response: %w", err)
	}
	if resp.Status != types.PublishStatusOK {
		return &resp, &RejectError{Reason: resp.Reason}
	}
	c.log.Info("intent published", zap.String("intent_hash", resp.IntentHash))
	return &resp, nil
}

// GetStatus reads the current lifecycle state of a published intent.
func (c *Client) GetStatus(ctx context.Context, intentHash string) (*types.IntentStatus, error) {
	result, err := c.call(ctx, "get_status", map[string]string{"intent_hash": intentHash})
	if err != nil {
		return nil, fmt.Errorf("status query failed: %w", err)
	}
	var status types.IntentStatus
	if err := json.Unmarshal(result, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status: %w", err)
	}
	return &status, nil
}
