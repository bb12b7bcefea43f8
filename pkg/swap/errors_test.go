package swap

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"near-intents/pkg/relay"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"reject", &relay.RejectError{Reason: "quote expired"}, "publish rejected: quote expired"},
		{"wrapped reject", fmt.Errorf("publish failed: %w", &relay.RejectError{Reason: "bad sig"}), "publish rejected: bad sig"},
		{"no liquidity", relay.ErrNoLiquidity, "no liquidity: no solver quoted this pair"},
		{"timeout", ErrSettlementTimeout, "settlement timed out: the trade may still complete, check status later"},
		{"not valid", ErrIntentNotValid, "intent invalid: the relay no longer recognizes it (quote likely expired)"},
		{"unknown passes through", errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(tt.err))
		})
	}
}

func TestDescribeWrappedSentinels(t *testing.T) {
	err := fmt.Errorf("swap failed: %w", ErrConfiguration)
	assert.Contains(t, Describe(err), "configuration error")
}
