package broker

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rustyeddy/trendbot/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRejectedError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("submit EUR_USD: %w", Reject("volume %.2f below minimum", 0.001))
	assert.ErrorIs(t, err, ErrOrderRejected)
	assert.NotErrorIs(t, err, ErrConnection)

	var rej *RejectedError
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, "volume 0.00 below minimum", rej.Reason)
	assert.Contains(t, err.Error(), "order rejected")
}

func TestOrderRequestString(t *testing.T) {
	t.Parallel()

	req := OrderRequest{
		Instrument: "EUR_USD",
		Side:       market.Long,
		Volume:     0.02,
		Price:      1.1002,
		StopLoss:   1.09795,
		TakeProfit: 1.10395,
	}
	assert.Equal(t, "buy EUR_USD 0.02 @ 1.10020 sl=1.09795 tp=1.10395", req.String())
}
