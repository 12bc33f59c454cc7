// market/instruments.go
package market

import (
	"fmt"
	"strings"
)

type InstrumentMeta struct {
	Name          string
	BaseCurrency  string
	QuoteCurrency string
	PipLocation   int
}

var Instruments = map[string]InstrumentMeta{
	"EUR_USD": {Name: "EUR_USD", BaseCurrency: "EUR", QuoteCurrency: "USD", PipLocation: -4},
	"GBP_USD": {Name: "GBP_USD", BaseCurrency: "GBP", QuoteCurrency: "USD", PipLocation: -4},
	"AUD_USD": {Name: "AUD_USD", BaseCurrency: "AUD", QuoteCurrency: "USD", PipLocation: -4},
	"USD_JPY": {Name: "USD_JPY", BaseCurrency: "USD", QuoteCurrency: "JPY", PipLocation: -2},
	"USD_CHF": {Name: "USD_CHF", BaseCurrency: "USD", QuoteCurrency: "CHF", PipLocation: -4},
	"USD_CAD": {Name: "USD_CAD", BaseCurrency: "USD", QuoteCurrency: "CAD", PipLocation: -4},
}

// LookupInstrument returns known metadata, or derives the currency pair
// from a BASE_QUOTE name for instruments not in the table.
func LookupInstrument(name string) (InstrumentMeta, error) {
	if meta, ok := Instruments[name]; ok {
		return meta, nil
	}
	parts := strings.Split(name, "_")
	if len(parts) != 2 || len(parts[0]) != 3 || len(parts[1]) != 3 {
		return InstrumentMeta{}, fmt.Errorf("unknown instrument %s", name)
	}
	loc := -4
	if parts[1] == "JPY" {
		loc = -2
	}
	return InstrumentMeta{
		Name:          name,
		BaseCurrency:  parts[0],
		QuoteCurrency: parts[1],
		PipLocation:   loc,
	}, nil
}
