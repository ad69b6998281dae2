package pricer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// DefaultCryptoCompareURL is the public CryptoCompare API.
const DefaultCryptoCompareURL = "https://min-api.cryptocompare.com"

const cryptoCompareTimeout = 10 * time.Second

// CryptoComparePricer reads USD prices from the CryptoCompare aggregate
// index. It quotes SBD, which the exchanges above do not list.
type CryptoComparePricer struct {
	baseURL    string
	httpClient *http.Client
}

// NewCryptoComparePricer creates a pricer against baseURL, or the public
// API when baseURL is empty.
func NewCryptoComparePricer(baseURL string) *CryptoComparePricer {
	if baseURL == "" {
		baseURL = DefaultCryptoCompareURL
	}
	return &CryptoComparePricer{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: cryptoCompareTimeout},
	}
}

type cryptoCompareResponse struct {
	USD      json.Number `json:"USD"`
	Response string      `json:"Response"`
	Message  string      `json:"Message"`
}

func (p *CryptoComparePricer) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("fsym", strings.ToUpper(symbol))
	q.Set("tsyms", "USD")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/data/price?"+q.Encode(), nil)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "failed to create HTTP request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "cryptocompare price for %s", symbol)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "failed to read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, errors.Errorf("cryptocompare returned status %d: %s", resp.StatusCode, string(body))
	}

	var res cryptoCompareResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return decimal.Zero, errors.Wrap(err, "failed to unmarshal response")
	}
	if res.Response == "Error" {
		return decimal.Zero, errors.Wrapf(ErrNoPrice, "cryptocompare %s: %s", symbol, res.Message)
	}
	if res.USD == "" {
		return decimal.Zero, errors.Wrapf(ErrNoPrice, "cryptocompare returned no USD price for %s", symbol)
	}

	return parsePrice("cryptocompare", symbol, res.USD.String())
}
