package pricer

import (
	"context"
	"strings"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// BinancePricer reads the last traded price of SYMBOL/USDT from the
// Binance public API.
type BinancePricer struct {
	client *binance.Client
}

func NewBinancePricer(client *binance.Client) *BinancePricer {
	return &BinancePricer{client: client}
}

func (p *BinancePricer) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	market := strings.ToUpper(symbol) + usdQuote

	prices, err := p.client.NewListPricesService().Symbol(market).Do(ctx)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "binance price for %s", market)
	}
	if len(prices) == 0 {
		return decimal.Zero, errors.Wrapf(ErrNoPrice, "binance returned empty prices for %s", market)
	}

	return parsePrice("binance", symbol, prices[0].Price)
}
