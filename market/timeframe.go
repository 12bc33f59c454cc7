package market

import (
	"fmt"
	"strings"
	"time"
)

// Timeframe is a bar granularity in the usual broker notation (M5, H1, D1).
type Timeframe string

const (
	M1  Timeframe = "M1"
	M5  Timeframe = "M5"
	M15 Timeframe = "M15"
	M30 Timeframe = "M30"
	H1  Timeframe = "H1"
	H4  Timeframe = "H4"
	D1  Timeframe = "D1"
)

var tfSeconds = map[Timeframe]int64{
	M1:  60,
	M5:  300,
	M15: 900,
	M30: 1800,
	H1:  3600,
	H4:  14400,
	D1:  86400,
}

// ParseTimeframe normalizes and validates a timeframe string.
func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := tfSeconds[tf]; !ok {
		return "", fmt.Errorf("unsupported timeframe string: %s", s)
	}
	return tf, nil
}

func (tf Timeframe) Duration() time.Duration {
	return time.Duration(tfSeconds[tf]) * time.Second
}

func (tf Timeframe) Valid() bool {
	_, ok := tfSeconds[tf]
	return ok
}

// Truncate returns the open time of the bar containing t. Boundaries are
// aligned to the unix epoch, which matches broker bar opens for every
// intraday granularity and for D1 in UTC.
func (tf Timeframe) Truncate(t time.Time) time.Time {
	sec := tfSeconds[tf]
	if sec == 0 {
		return t
	}
	u := t.Unix()
	return time.Unix(u-u%sec, 0).UTC()
}

// CronSpec returns a six-field (seconds-first) cron expression that fires
// on every bar close of this timeframe.
func (tf Timeframe) CronSpec() (string, error) {
	sec := tfSeconds[tf]
	switch {
	case sec == 0:
		return "", fmt.Errorf("cannot map timeframe: %s", tf)
	case sec < 3600:
		return fmt.Sprintf("0 */%d * * * *", sec/60), nil
	case sec < 86400:
		return fmt.Sprintf("0 0 */%d * * *", sec/3600), nil
	default:
		return "0 0 0 * * *", nil
	}
}
