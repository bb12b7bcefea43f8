package swap

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"near-intents/pkg/types"
)

// scriptedReader replays a fixed sequence of states, repeating the last one.
type scriptedReader struct {
	mu     sync.Mutex
	states []string
	errs   []error
	calls  int
}

func (r *scriptedReader) GetStatus(ctx context.Context, intentHash string) (*types.IntentStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.calls
	r.calls++
	if i < len(r.errs) && r.errs[i] != nil {
		return nil, r.errs[i]
	}
	if i >= len(r.states) {
		i = len(r.states) - 1
	}
	return &types.IntentStatus{IntentHash: intentHash, Status: r.states[i]}, nil
}

func (r *scriptedReader) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestPollerWaitsForSettlement(t *testing.T) {
	reader := &scriptedReader{states: []string{
		types.IntentStatePending,
		types.IntentStateBroadcasted,
		types.IntentStateSettled,
	}}
	p := NewPoller(reader, time.Millisecond, time.Second, nil)

	status, err := p.Wait(context.Background(), "ih1")
	require.NoError(t, err)
	assert.Equal(t, types.IntentStateSettled, status.Status)
	assert.Equal(t, 3, reader.callCount())
}

func TestPollerReturnsNonSettledTerminal(t *testing.T) {
	reader := &scriptedReader{states: []string{types.IntentStateNotFound}}
	p := NewPoller(reader, time.Millisecond, time.Second, nil)

	status, err := p.Wait(context.Background(), "ih1")
	require.NoError(t, err, "a terminal state is a successful poll even when not settled")
	assert.False(t, status.Settled())
	assert.True(t, status.Terminal())
}

func TestPollerTimesOut(t *testing.T) {
	reader := &scriptedReader{states: []string{types.IntentStatePending}}
	p := NewPoller(reader, time.Millisecond, 25*time.Millisecond, nil)

	_, err := p.Wait(context.Background(), "ih1")
	assert.ErrorIs(t, err, ErrSettlementTimeout)
}

func TestPollerRetriesTransientReadErrors(t *testing.T) {
	reader := &scriptedReader{
		states: []string{types.IntentStateSettled},
		errs:   []error{errors.New("connection reset"), nil},
	}
	p := NewPoller(reader, time.Millisecond, time.Second, nil)

	status, err := p.Wait(context.Background(), "ih1")
	require.NoError(t, err)
	assert.Equal(t, types.IntentStateSettled, status.Status)
	assert.GreaterOrEqual(t, reader.callCount(), 2)
}

func TestPollerHonorsContext(t *testing.T) {
	reader := &scriptedReader{states: []string{types.IntentStatePending}}
	p := NewPoller(reader, 10*time.Millisecond, time.Minute, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Wait(ctx, "ih1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPollerZeroValuesSelectDefaults(t *testing.T) {
	p := NewPoller(&scriptedReader{}, 0, 0, nil)
	assert.Equal(t, DefaultPollInterval, p.interval)
	assert.Equal(t, DefaultPollTimeout, p.timeout)
}
