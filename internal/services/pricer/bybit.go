package pricer

import (
	"context"
	"strings"

	"github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// BybitPricer reads the last spot price of SYMBOL/USDT from Bybit.
type BybitPricer struct {
	client *bybit.Client
}

func NewBybitPricer(client *bybit.Client) *BybitPricer {
	return &BybitPricer{client: client}
}

// GetPrice ignores ctx: the Bybit client has no context support.
func (p *BybitPricer) GetPrice(_ context.Context, symbol string) (decimal.Decimal, error) {
	market := bybit.SymbolV5(strings.ToUpper(symbol) + usdQuote)

	result, err := p.client.V5().Market().GetTickers(bybit.V5GetTickersParam{
		Category: "spot",
		Symbol:   &market,
	})
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "bybit price for %s", market)
	}

	if len(result.Result.Spot.List) == 0 {
		return decimal.Zero, errors.Wrapf(ErrNoPrice, "bybit returned empty prices for %s", market)
	}

	return parsePrice("bybit", symbol, result.Result.Spot.List[0].LastPrice)
}
