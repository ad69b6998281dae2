// Package pricer quotes USD prices of the chain currencies from exchanges
// and price aggregators.
package pricer

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Source names a price backend in the configuration.
type Source string

const (
	SourceCryptoCompare Source = "cryptocompare"
	SourceBinance       Source = "binance"
	SourceBybit         Source = "bybit"
)

// usdQuote is the dollar stablecoin exchanges quote the currencies against.
const usdQuote = "USDT"

// ErrNoPrice is returned when a source has no quote for a symbol.
var ErrNoPrice = errors.New("no price")

// Pricer quotes the USD price of a currency symbol such as STEEM or SBD.
type Pricer interface {
	GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// ParseSource parses a configured source name.
func ParseSource(s string) (Source, error) {
	src := Source(strings.ToLower(strings.TrimSpace(s)))
	switch src {
	case SourceCryptoCompare, SourceBinance, SourceBybit:
		return src, nil
	}
	return "", errors.Errorf("unknown price source %q", s)
}

func parsePrice(source, symbol, raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "%s price for %s", source, symbol)
	}
	if !price.IsPositive() {
		return decimal.Zero, errors.Wrapf(ErrNoPrice, "%s returned %s for %s", source, raw, symbol)
	}
	return price, nil
}
