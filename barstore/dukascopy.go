package barstore

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/rustyeddy/trendbot/market"
	"github.com/ulikunitz/xz/lzma"
)

const DukascopyURL = "https://datafeed.dukascopy.com/datafeed"

// bi5 record: ms offset, ask, bid (uint32 scaled) then ask and bid
// volume (float32), all big-endian.
const bi5RecordSize = 20

type Tick struct {
	Time      time.Time
	Bid       float64
	Ask       float64
	BidVolume float64
	AskVolume float64
}

func (t Tick) Mid() float64 {
	return (t.Bid + t.Ask) / 2
}

// PriceScale is the integer scale Dukascopy stores prices with:
// 1e3 for JPY-quoted pairs, 1e5 otherwise.
func PriceScale(symbol string) float64 {
	if strings.HasSuffix(strings.ToUpper(strings.ReplaceAll(symbol, "_", "")), "JPY") {
		return 1e3
	}
	return 1e5
}

// TickURL is the hourly tick file for symbol (EURUSD notation). Months
// are zero-based in the path.
func TickURL(base, symbol string, hour time.Time) string {
	hour = hour.UTC()
	return fmt.Sprintf("%s/%s/%04d/%02d/%02d/%02dh_ticks.bi5",
		strings.TrimRight(base, "/"),
		symbol,
		hour.Year(), int(hour.Month())-1, hour.Day(), hour.Hour())
}

// DecodeBI5 decompresses an LZMA .bi5 stream into ticks starting at hour.
func DecodeBI5(r io.Reader, hour time.Time, scale float64) ([]Tick, error) {
	lr, err := lzma.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("lzma: %w", err)
	}
	raw, err := io.ReadAll(lr)
	if err != nil {
		return nil, fmt.Errorf("lzma: %w", err)
	}
	if len(raw)%bi5RecordSize != 0 {
		return nil, fmt.Errorf("bi5: %d bytes is not a whole number of records", len(raw))
	}

	hour = hour.UTC().Truncate(time.Hour)
	ticks := make([]Tick, 0, len(raw)/bi5RecordSize)
	for off := 0; off < len(raw); off += bi5RecordSize {
		rec := raw[off : off+bi5RecordSize]
		ms := binary.BigEndian.Uint32(rec[0:4])
		ticks = append(ticks, Tick{
			Time:      hour.Add(time.Duration(ms) * time.Millisecond),
			Ask:       float64(binary.BigEndian.Uint32(rec[4:8])) / scale,
			Bid:       float64(binary.BigEndian.Uint32(rec[8:12])) / scale,
			AskVolume: float64(math.Float32frombits(binary.BigEndian.Uint32(rec[12:16]))),
			BidVolume: float64(math.Float32frombits(binary.BigEndian.Uint32(rec[16:20]))),
		})
	}
	return ticks, nil
}

// FetchHour downloads and decodes one hour of ticks. A missing file
// (weekends, holidays) is an empty hour, not an error.
func FetchHour(ctx context.Context, client *http.Client, base, symbol string, hour time.Time) ([]Tick, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, TickURL(base, symbol, hour), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "trendbot/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("dukascopy %s: http status %d", symbol, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, nil
	}
	return DecodeBI5(bytes.NewReader(body), hour, PriceScale(symbol))
}

// AggregateTicks builds mid-price bars from time-ordered ticks. The tick
// count of each bar is its TickVolume.
func AggregateTicks(ticks []Tick, tf market.Timeframe) []market.Bar {
	var out []market.Bar
	for _, t := range ticks {
		open := tf.Truncate(t.Time)
		mid := t.Mid()

		n := len(out)
		if n == 0 || !out[n-1].Time.Equal(open) {
			out = append(out, market.Bar{
				Time: open, Open: mid, High: mid, Low: mid, Close: mid, TickVolume: 1,
			})
			continue
		}

		b := &out[n-1]
		b.High = math.Max(b.High, mid)
		b.Low = math.Min(b.Low, mid)
		b.Close = mid
		b.TickVolume++
	}
	return out
}
