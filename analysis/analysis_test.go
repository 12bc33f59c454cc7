package analysis

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/rustyeddy/trendbot/indicators"
	"github.com/rustyeddy/trendbot/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(fast, medium, slow float64) indicators.Snapshot {
	return indicators.Snapshot{
		SMAFast:   fast,
		SMAMedium: medium,
		SMASlow:   slow,
		RSI:       55,
		ATR:       0.0015,
	}
}

func TestClassifyTrend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		row  indicators.Snapshot
		want Trend
	}{
		{"uptrend", row(1.3, 1.2, 1.1), Uptrend},
		{"downtrend", row(1.1, 1.2, 1.3), Downtrend},
		{"all equal", row(1.2, 1.2, 1.2), Sideways},
		{"fast equals medium", row(1.2, 1.2, 1.1), Sideways},
		{"medium equals slow", row(1.1, 1.2, 1.2), Sideways},
		{"tangled", row(1.3, 1.1, 1.2), Sideways},
		{"tangled down", row(1.1, 1.3, 1.2), Sideways},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(market.M5, tt.row)
			assert.True(t, c.Valid)
			assert.Equal(t, tt.want, c.Trend)
			assert.Equal(t, market.M5, c.Timeframe)
		})
	}
}

func TestClassifyPassesThrough(t *testing.T) {
	t.Parallel()

	r := row(1.3, 1.2, 1.1)
	r.RSI = 61.5
	r.ATR = 0.0021
	c := Classify(market.H1, r)
	assert.Equal(t, 61.5, c.RSI)
	assert.Equal(t, 0.0021, c.ATR)
}

func TestClassifyWarmingUp(t *testing.T) {
	t.Parallel()

	nan := math.NaN()
	tests := []struct {
		name string
		row  indicators.Snapshot
	}{
		{"sma slow", row(1.3, 1.2, nan)},
		{"sma fast", row(nan, 1.2, 1.1)},
		{"rsi", func() indicators.Snapshot { r := row(1.3, 1.2, 1.1); r.RSI = nan; return r }()},
		{"atr", func() indicators.Snapshot { r := row(1.3, 1.2, 1.1); r.ATR = nan; return r }()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(market.M5, tt.row)
			assert.False(t, c.Valid)
			assert.Equal(t, Sideways, c.Trend)
		})
	}
}

func TestTrendSide(t *testing.T) {
	t.Parallel()

	assert.Equal(t, market.Long, Uptrend.Side())
	assert.Equal(t, market.Short, Downtrend.Side())
	assert.Equal(t, market.Flat, Sideways.Side())
	assert.Equal(t, "uptrend", Uptrend.String())
	assert.Equal(t, "sideways", Sideways.String())
}

// walkThenFlat is a random walk followed by flat bars at its last close.
func walkThenFlat(seed int64, walk, flat int) []market.Bar {
	r := rand.New(rand.NewSource(seed))
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	price := 1.1
	bars := make([]market.Bar, 0, walk+flat)
	for i := 0; i < walk+flat; i++ {
		if i < walk {
			price += (r.Float64() - 0.5) * 0.002
		}
		bars = append(bars, market.Bar{
			Time:       start.Add(time.Duration(i) * 5 * time.Minute),
			Open:       price,
			High:       price + 0.0005,
			Low:        price - 0.0005,
			Close:      price,
			TickVolume: 100,
		})
	}
	return bars
}

func TestClassifyFlatMarketFromIndicators(t *testing.T) {
	t.Parallel()

	for seed := int64(0); seed < 50; seed++ {
		bars := walkThenFlat(seed, 300, 200)
		snap, err := indicators.Latest(bars, indicators.DefaultPeriods())
		require.NoError(t, err)

		last := bars[len(bars)-1].Close
		assert.Equal(t, last, snap.SMAFast, "seed %d", seed)
		assert.Equal(t, last, snap.SMAMedium, "seed %d", seed)
		assert.Equal(t, last, snap.SMASlow, "seed %d", seed)

		c := Classify(market.M5, snap)
		assert.True(t, c.Valid, "seed %d", seed)
		assert.Equal(t, Sideways, c.Trend, "seed %d", seed)
		assert.Equal(t, 50.0, c.RSI, "seed %d", seed)
	}
}
