package swap

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"near-intents/pkg/types"
)

const (
	// DefaultPollInterval is the fixed cadence between status reads.
	DefaultPollInterval = 2 * time.Second
	// DefaultPollTimeout bounds the whole polling phase.
	DefaultPollTimeout = 300 * time.Second
)

// StatusReader reads the lifecycle state of a published intent. Satisfied by
// *relay.Client.
type StatusReader interface {
	GetStatus(ctx context.Context, intentHash string) (*types.IntentStatus, error)
}

// Poller drives an intent to a terminal state by repeated status reads. The
// overall deadline is checked by wall clock before each iteration, never
// mid-request.
type Poller struct {
	reader   StatusReader
	interval time.Duration
	timeout  time.Duration
	log      *zap.Logger
}

// NewPoller creates a poller. Zero interval/timeout select the protocol
// defaults (2s cadence, 300s window).
func NewPoller(reader StatusReader, interval, timeout time.Duration, log *zap.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if timeout <= 0 {
		timeout = DefaultPollTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Poller{reader: reader, interval: interval, timeout: timeout, log: log}
}

// Wait polls until the intent reaches SETTLED or NOT_FOUND_OR_NOT_VALID, the
// window expires (ErrSettlementTimeout), or the context is cancelled.
// Transient read failures are logged and retried on the next tick; status
// reads are idempotent.
func (p *Poller) Wait(ctx context.Context, intentHash string) (*types.IntentStatus, error) {
	deadline := time.Now().Add(p.timeout)
	var last string

	for {
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: no terminal state within %s (intent %s may still settle)",
				ErrSettlementTimeout, p.timeout, intentHash)
		}

		status, err := p.reader.GetStatus(ctx, intentHash)
		switch {
		case err != nil:
			p.log.Debug("status read failed, will retry", zap.String("intent_hash", intentHash), zap.Error(err))
		case status.Terminal():
			p.log.Info("intent reached terminal state",
				zap.String("intent_hash", intentHash),
				zap.String("status", status.Status))
			return status, nil
		default:
			if status.Status != last {
				p.log.Info("intent status", zap.String("intent_hash", intentHash), zap.String("status", status.Status))
				last = status.Status
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.interval):
		}
	}
}
