package market

import (
	"context"
	"fmt"
)

type QuoteSource interface {
	Quote(ctx context.Context, instrument string) (Quote, error)
}

// QuoteToAccountRate converts one unit of the instrument's quote currency
// into the account currency.
func QuoteToAccountRate(ctx context.Context,
	instrument string,
	accountCurrency string,
	quotes QuoteSource) (float64, error) {

	meta, err := LookupInstrument(instrument)
	if err != nil {
		return 0, err
	}

	// EUR_USD in a USD account
	if meta.QuoteCurrency == accountCurrency {
		return 1.0, nil
	}

	// USD_JPY in a USD account: mid is JPY per USD, we want USD per JPY
	if meta.BaseCurrency == accountCurrency {
		q, err := quotes.Quote(ctx, instrument)
		if err != nil {
			return 0, err
		}
		mid := q.Mid()
		if mid <= 0 {
			return 0, fmt.Errorf("no usable mid for %s", instrument)
		}
		return 1.0 / mid, nil
	}

	return 0, fmt.Errorf(
		"cross conversion not implemented for %s → %s",
		meta.QuoteCurrency,
		accountCurrency,
	)
}
