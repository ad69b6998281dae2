package clients

import (
	"github.com/adshao/go-binance/v2"
)

// NewBinanceClient returns a Binance client. Price quotes are public market
// data, so both keys may be empty.
func NewBinanceClient(apiKey, apiSecret string) *binance.Client {
	return binance.NewClient(apiKey, apiSecret)
}
