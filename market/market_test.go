package market

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQuotes map[string]Quote

func (f fakeQuotes) Quote(ctx context.Context, instrument string) (Quote, error) {
	q, ok := f[instrument]
	if !ok {
		return Quote{}, errors.New("price not found")
	}
	return q, nil
}

func TestQuoteSides(t *testing.T) {
	t.Parallel()

	q := Quote{Bid: 1.1000, Ask: 1.1002}
	assert.Equal(t, 1.1002, q.EntryPrice(Long))
	assert.Equal(t, 1.1000, q.EntryPrice(Short))
	assert.Equal(t, 1.1000, q.MarkPrice(Long))
	assert.Equal(t, 1.1002, q.MarkPrice(Short))
	assert.InDelta(t, 0.0002, q.Spread(), 1e-12)
	assert.InDelta(t, 1.1001, q.Mid(), 1e-12)
}

func TestParseSide(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Side
		wantErr bool
	}{
		{"buy", Long, false},
		{"LONG", Long, false},
		{"sell", Short, false},
		{"short", Short, false},
		{"none", Flat, false},
		{"sideways", Flat, true},
	}
	for _, tt := range tests {
		got, err := ParseSide(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	assert.Equal(t, "buy", Long.String())
	assert.Equal(t, "sell", Short.String())
	assert.Equal(t, -1.0, Short.Sign())
}

func TestTimeframe(t *testing.T) {
	t.Parallel()

	tf, err := ParseTimeframe(" m15 ")
	require.NoError(t, err)
	assert.Equal(t, M15, tf)
	assert.Equal(t, 15*time.Minute, tf.Duration())

	_, err = ParseTimeframe("M7")
	assert.Error(t, err)

	ts := time.Date(2024, 3, 1, 10, 17, 42, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC), M5.Truncate(ts))
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), H1.Truncate(ts))

	spec, err := M5.CronSpec()
	require.NoError(t, err)
	assert.Equal(t, "0 */5 * * * *", spec)
	spec, err = H4.CronSpec()
	require.NoError(t, err)
	assert.Equal(t, "0 0 */4 * * *", spec)
}

func TestQuoteToAccountRate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	quotes := fakeQuotes{"USD_JPY": {Instrument: "USD_JPY", Bid: 149.99, Ask: 150.01}}

	r, err := QuoteToAccountRate(ctx, "EUR_USD", "USD", quotes)
	require.NoError(t, err)
	assert.Equal(t, 1.0, r)

	r, err = QuoteToAccountRate(ctx, "USD_JPY", "USD", quotes)
	require.NoError(t, err)
	assert.InDelta(t, 1.0/150.0, r, 1e-12)

	_, err = QuoteToAccountRate(ctx, "EUR_GBP", "USD", quotes)
	assert.Error(t, err)

	_, err = QuoteToAccountRate(ctx, "BOGUS", "USD", quotes)
	assert.Error(t, err)
}

func TestLookupInstrumentDerived(t *testing.T) {
	t.Parallel()

	meta, err := LookupInstrument("NZD_JPY")
	require.NoError(t, err)
	assert.Equal(t, "NZD", meta.BaseCurrency)
	assert.Equal(t, "JPY", meta.QuoteCurrency)
	assert.Equal(t, -2, meta.PipLocation)
}

func TestCloses(t *testing.T) {
	t.Parallel()
	bars := []Bar{{Close: 1}, {Close: 2}, {Close: 3}}
	assert.Equal(t, []float64{1, 2, 3}, Closes(bars))
}
