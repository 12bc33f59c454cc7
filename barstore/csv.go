package barstore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/trendbot/market"
)

// ReadCSV parses time,open,high,low,close[,volume] rows. Times are RFC3339
// or unix seconds. A header row is skipped.
func ReadCSV(r io.Reader) ([]market.Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var out []market.Bar
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if line == 1 && isHeader(rec) {
			continue
		}
		if len(rec) < 5 {
			return nil, fmt.Errorf("line %d: want at least 5 fields, got %d", line, len(rec))
		}

		b, err := parseBar(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if n := len(out); n > 0 && !b.Time.After(out[n-1].Time) {
			return nil, fmt.Errorf("line %d: time %s is not after %s",
				line, b.Time.Format(time.RFC3339), out[n-1].Time.Format(time.RFC3339))
		}
		out = append(out, b)
	}
	return out, nil
}

func isHeader(rec []string) bool {
	return len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "time")
}

func parseBar(rec []string) (market.Bar, error) {
	var b market.Bar

	ts, err := parseTime(strings.TrimSpace(rec[0]))
	if err != nil {
		return b, err
	}
	b.Time = ts

	vals := make([]float64, 4)
	for i := range vals {
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[i+1]), 64)
		if err != nil {
			return b, fmt.Errorf("field %d: %w", i+2, err)
		}
		vals[i] = v
	}
	b.Open, b.High, b.Low, b.Close = vals[0], vals[1], vals[2], vals[3]
	if b.High < b.Low {
		return b, fmt.Errorf("high %v below low %v", b.High, b.Low)
	}

	if len(rec) > 5 && strings.TrimSpace(rec[5]) != "" {
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[5]), 64)
		if err != nil {
			return b, fmt.Errorf("volume: %w", err)
		}
		b.TickVolume = int64(v)
	}
	return b, nil
}

func parseTime(s string) (time.Time, error) {
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("time %q: want RFC3339 or unix seconds", s)
	}
	return t.UTC(), nil
}
