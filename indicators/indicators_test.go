package indicators

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/rustyeddy/trendbot/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeBars(closes []float64) []market.Bar {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		bars[i] = market.Bar{
			Time:       base.Add(time.Duration(i) * 5 * time.Minute),
			Open:       c,
			High:       c + 0.0005,
			Low:        c - 0.0005,
			Close:      c,
			TickVolume: 100,
		}
	}
	return bars
}

func randomWalk(n int, seed int64) []float64 {
	r := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	px := 1.1000
	for i := range out {
		px += (r.Float64() - 0.5) * 0.001
		out[i] = px
	}
	return out
}

func sameFloat(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return a == b
}

func TestSMA(t *testing.T) {
	t.Parallel()

	got := SMA([]float64{1, 2, 3, 4, 5}, 3)
	require.Len(t, got, 5)
	assert.True(t, math.IsNaN(got[0]))
	assert.True(t, math.IsNaN(got[1]))
	assert.InDelta(t, 2.0, got[2], 1e-12)
	assert.InDelta(t, 3.0, got[3], 1e-12)
	assert.InDelta(t, 4.0, got[4], 1e-12)

	short := SMA([]float64{1, 2}, 3)
	assert.True(t, math.IsNaN(short[0]))
	assert.True(t, math.IsNaN(short[1]))
}

func TestSMARepeatedValueIsExact(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewSource(7))
	values := make([]float64, 0, 500)
	v := 1.1
	for i := 0; i < 300; i++ {
		v += (r.Float64() - 0.5) * 0.002
		values = append(values, v)
	}
	for i := 0; i < 200; i++ {
		values = append(values, v)
	}

	for _, window := range []int{20, 50, 200} {
		got := SMA(values, window)
		assert.Equal(t, v, got[len(got)-1], "window %d", window)
	}
}

func TestRSI(t *testing.T) {
	t.Parallel()

	t.Run("mixed window", func(t *testing.T) {
		got := RSI([]float64{10, 11, 10, 11}, 4)
		assert.True(t, math.IsNaN(got[2]))
		// gains [0,1,0,1] -> 0.5, losses [0,0,1,0] -> 0.25, rs = 2
		assert.InDelta(t, 100-100.0/3, got[3], 1e-9)
	})

	t.Run("no losses saturates to 100", func(t *testing.T) {
		closes := make([]float64, 20)
		for i := range closes {
			closes[i] = 1.1 + float64(i)*0.001
		}
		got := RSI(closes, 14)
		assert.True(t, math.IsNaN(got[12]))
		assert.Equal(t, 100.0, got[13])
		assert.Equal(t, 100.0, got[19])
	})

	t.Run("flat window is neutral", func(t *testing.T) {
		closes := make([]float64, 15)
		for i := range closes {
			closes[i] = 1.25
		}
		got := RSI(closes, 14)
		assert.Equal(t, 50.0, got[14])
	})

	t.Run("no gains is zero", func(t *testing.T) {
		closes := make([]float64, 15)
		for i := range closes {
			closes[i] = 2.0 - float64(i)*0.01
		}
		got := RSI(closes, 14)
		assert.Equal(t, 0.0, got[14])
	})

	t.Run("bounded", func(t *testing.T) {
		got := RSI(randomWalk(500, 7), 14)
		for i, v := range got {
			if i < 13 {
				assert.True(t, math.IsNaN(v), "row %d", i)
				continue
			}
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 100.0)
		}
	})
}

func TestATR(t *testing.T) {
	t.Parallel()

	bars := []market.Bar{
		{High: 10, Low: 8, Close: 9},
		{High: 11, Low: 9, Close: 10},
		{High: 12, Low: 10, Close: 11},
		{High: 15, Low: 14, Close: 14.5},
		{High: 15, Low: 13, Close: 14},
	}
	got := ATR(bars, 3)
	for i := 0; i < 3; i++ {
		assert.True(t, math.IsNaN(got[i]), "row %d", i)
	}
	assert.InDelta(t, 8.0/3, got[3], 1e-9)
	assert.InDelta(t, 8.0/3, got[4], 1e-9)
}

func TestTrueRange(t *testing.T) {
	t.Parallel()

	current := market.Bar{High: 110, Low: 100, Close: 105}
	assert.Equal(t, 10.0, trueRange(current, market.Bar{Close: 104}))
	assert.Equal(t, 20.0, trueRange(current, market.Bar{Close: 90}))
	assert.Equal(t, 15.0, trueRange(current, market.Bar{Close: 115}))
}

func TestOBV(t *testing.T) {
	t.Parallel()

	bars := []market.Bar{
		{Close: 10, TickVolume: 500},
		{Close: 11, TickVolume: 100},
		{Close: 11, TickVolume: 50},
		{Close: 10, TickVolume: 30},
		{Close: 12, TickVolume: 20},
	}
	assert.Equal(t, []float64{0, 100, 100, 70, 90}, OBV(bars))
}

func TestComputeInsufficientData(t *testing.T) {
	t.Parallel()

	_, err := Compute(nil, DefaultPeriods())
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = Compute(makeBars([]float64{1.1}), DefaultPeriods())
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = Latest(makeBars([]float64{1.1}), DefaultPeriods())
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestComputeInvalidPeriods(t *testing.T) {
	t.Parallel()

	p := DefaultPeriods()
	p.RSI = 0
	_, err := Compute(makeBars([]float64{1.1, 1.2}), p)
	assert.Error(t, err)
}

func TestComputeWarmup(t *testing.T) {
	t.Parallel()

	p := DefaultPeriods()
	rows, err := Compute(makeBars(randomWalk(150, 3)), p)
	require.NoError(t, err)
	require.Len(t, rows, 150)

	// 150 bars never warm up SMA(200).
	for _, r := range rows {
		assert.True(t, math.IsNaN(r.SMASlow))
	}
	assert.True(t, math.IsNaN(rows[18].SMAFast))
	assert.False(t, math.IsNaN(rows[19].SMAFast))
	assert.True(t, math.IsNaN(rows[13].ATR))
	assert.False(t, math.IsNaN(rows[14].ATR))
	assert.Equal(t, 0.0, rows[0].OBV)
}

func TestComputeLatestFullyWarm(t *testing.T) {
	t.Parallel()

	p := DefaultPeriods()
	bars := makeBars(randomWalk(p.Warmup(), 11))
	last, err := Latest(bars, p)
	require.NoError(t, err)

	assert.False(t, math.IsNaN(last.SMAFast))
	assert.False(t, math.IsNaN(last.SMAMedium))
	assert.False(t, math.IsNaN(last.SMASlow))
	assert.False(t, math.IsNaN(last.RSI))
	assert.False(t, math.IsNaN(last.ATR))
	assert.Greater(t, last.ATR, 0.0)
	assert.Equal(t, bars[len(bars)-1].Time, last.Time)
}

func TestComputeNoLookAhead(t *testing.T) {
	t.Parallel()

	p := DefaultPeriods()
	bars := makeBars(randomWalk(400, 5))
	full, err := Compute(bars, p)
	require.NoError(t, err)

	for _, cut := range []int{2, 30, 210, 399} {
		prefix, err := Compute(bars[:cut], p)
		require.NoError(t, err)
		for i := range prefix {
			a, b := prefix[i], full[i]
			assert.True(t, sameFloat(a.SMAFast, b.SMAFast), "sma fast row %d cut %d", i, cut)
			assert.True(t, sameFloat(a.SMASlow, b.SMASlow), "sma slow row %d cut %d", i, cut)
			assert.True(t, sameFloat(a.RSI, b.RSI), "rsi row %d cut %d", i, cut)
			assert.True(t, sameFloat(a.ATR, b.ATR), "atr row %d cut %d", i, cut)
			assert.True(t, sameFloat(a.OBV, b.OBV), "obv row %d cut %d", i, cut)
		}
	}
}
