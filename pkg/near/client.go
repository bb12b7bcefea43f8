// Package near is a thin JSON-RPC client for a NEAR node, covering the calls
// the settlement flow needs: contract view functions, access-key reads, block
// info and transaction submission.
package near

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mr-tron/base58"
	"go.uber.org/zap"
)

// ErrInvalidResponse reports a node response that violates the contract
// interface, e.g. a balance list whose length does not match the query.
var ErrInvalidResponse = errors.New("near: invalid response shape")

const viewRetries = 2

// Client talks JSON-RPC to a NEAR node.
type Client struct {
	url  string
	http *http.Client
	log  *zap.Logger
}

// NewClient creates a client for the given node URL.
func NewClient(url string, log *zap.Logger) *Client {
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
	JSONRpc string      `json:"jsonrpc"`
	ID      int         `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  *rpcError       `json:"error,omitempty"`
}

func (c *Client) call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{JSONRpc: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.Debug("near rpc call", zap.String("method", method))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rpc request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rpc returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, fmt.Errorf("rpc error (code %d): %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	return rpcResp.Result, nil
}

// callView is call with a short retry for transient transport failures.
// Retries apply to reads only; state-changing submissions go through call
// directly so they are never duplicated.
func (c *Client) callView(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	var lastErr error
	for attempt := 0; attempt <= viewRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}
		result, err := c.call(ctx, method, params)
		if err == nil {
			return result, nil
		}
		lastErr = err
		c.log.Debug("view call retry", zap.String("method", method), zap.Int("attempt", attempt), zap.Error(err))
	}
	return nil, lastErr
}

// ViewFunction calls a view method on a contract and returns the raw JSON the
// method produced.
func (c *Client) ViewFunction(ctx context.Context, accountID, method string, args interface{}) (json.RawMessage, error) {
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal args: %w", err)
	}

	result, err := c.callView(ctx, "query", map[string]interface{}{
		"request_type": "call_function",
		"finality":     "final",
		"account_id":   accountID,
		"method_name":  method,
		"args_base64":  base64.StdEncoding.EncodeToString(argsJSON),
	})
	if err != nil {
		return nil, fmt.Errorf("view %s.%s failed: %w", accountID, method, err)
	}

	// The node returns the result bytes as a JSON array of numbers.
	var raw struct {
		Result []int `json:"result"`
	}
	if err := json.Unmarshal(result, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse view result: %w", err)
	}
	out := make([]byte, len(raw.Result))
	for i, b := range raw.Result {
		out[i] = byte(b)
	}
	return json.RawMessage(out), nil
}

// AccessKeyView is the nonce state of one access key.
type AccessKeyView struct {
	Nonce       uint64 `json:"nonce"`
	BlockHeight int64  `json:"block_height"`
	BlockHash   string `json:"block_hash"`
}

// ViewAccessKey reads the current nonce for an account's key.
func (c *Client) ViewAccessKey(ctx context.Context, accountID, publicKey string) (*AccessKeyView, error) {
	result, err := c.callView(ctx, "query", map[string]interface{}{
		"request_type": "view_access_key",
		"finality":     "final",
		"account_id":   accountID,
		"public_key":   publicKey,
	})
	if err != nil {
		return nil, fmt.Errorf("view_access_key failed: %w", err)
	}
	var view AccessKeyView
	if err := json.Unmarshal(result, &view); err != nil {
		return nil, fmt.Errorf("failed to parse access key: %w", err)
	}
	return &view, nil
}

// BlockHeader is the subset of block info needed to anchor a transaction.
type BlockHeader struct {
	Hash   string
	Height int64
}

// LatestBlock returns the most recent finalized block.
func (c *Client) LatestBlock(ctx context.Context) (*BlockHeader, error) {
	result, err := c.callView(ctx, "block", map[string]interface{}{"finality": "final"})
	if err != nil {
		return nil, fmt.Errorf("block query failed: %w", err)
	}
	var block struct {
		Header struct {
			Hash   string `json:"hash"`
			Height int64  `json:"height"`
		} `json:"header"`
	}
	if err := json.Unmarshal(result, &block); err != nil {
		return nil, fmt.Errorf("failed to parse block: %w", err)
	}
	return &BlockHeader{Hash: block.Header.Hash, Height: block.Header.Height}, nil
}

// ExecutionOutcome is the final result of a submitted transaction.
type ExecutionOutcome struct {
	TransactionHash string
	SuccessValue    string
	FailureMessage  string
}

// Succeeded reports whether the transaction executed without failure.
func (o *ExecutionOutcome) Succeeded() bool { return o.FailureMessage == "" }

// SignAndSend builds, signs and submits a transaction with the given actions,
// waiting for final execution. Submission is never retried.
func (c *Client) SignAndSend(ctx context.Context, kp *KeyPair, signerID, receiverID string, actions []Action) (*ExecutionOutcome, error) {
	accessKey, err := c.ViewAccessKey(ctx, signerID, kp.PublicKeyString())
	if err != nil {
		return nil, err
	}
	block, err := c.LatestBlock(ctx)
	if err != nil {
		return nil, err
	}
	blockHash, err := base58.Decode(block.Hash)
	if err != nil || len(blockHash) != 32 {
		return nil, fmt.Errorf("invalid block hash %q", block.Hash)
	}

	tx := &Transaction{
		SignerID:   signerID,
		PublicKey:  PublicKeyFromEd25519(kp.PublicKey()),
		Nonce:      accessKey.Nonce + 1,
		ReceiverID: receiverID,
	}
	copy(tx.BlockHash[:], blockHash)
	tx.Actions = actions

	txBytes, err := tx.Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to encode transaction: %w", err)
	}
	hash := sha256.Sum256(txBytes)

	signed := &SignedTransaction{Transaction: *tx}
	copy(signed.Signature.Data[:], kp.Sign(hash[:]))

	signedBytes, err := signed.Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to encode signed transaction: %w", err)
	}

	result, err := c.call(ctx, "broadcast_tx_commit", []string{
		base64.StdEncoding.EncodeToString(signedBytes),
	})
	if err != nil {
		return nil, fmt.Errorf("transaction submission failed: %w", err)
	}

	var outcome struct {
		Status struct {
			SuccessValue *string         `json:"SuccessValue,omitempty"`
			Failure      json.RawMessage `json:"Failure,omitempty"`
		} `json:"status"`
		Transaction struct {
			Hash string `json:"hash"`
		} `json:"transaction"`
	}
	if err := json.Unmarshal(result, &outcome); err != nil {
		return nil, fmt.Errorf("failed to parse execution outcome: %w", err)
	}

	out := &ExecutionOutcome{TransactionHash: outcome.Transaction.Hash}
	if outcome.Status.Failure != nil {
		out.FailureMessage = string(outcome.Status.Failure)
		return out, fmt.Errorf("transaction %s failed: %s", out.TransactionHash, out.FailureMessage)
	}
	if outcome.Status.SuccessValue != nil {
		out.SuccessValue = *outcome.Status.SuccessValue
	}
	c.log.Debug("transaction executed", zap.String("hash", out.TransactionHash), zap.String("receiver", receiverID))
	return out, nil
}
