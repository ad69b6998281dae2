package pricer

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// RoutedPricer sends each symbol to the pricer configured for it and
// everything else to a fallback.
type RoutedPricer struct {
	routes   map[string]Pricer
	fallback Pricer
}

// NewRoutedPricer creates a router. routes is keyed by symbol, case-insensitively.
func NewRoutedPricer(fallback Pricer, routes map[string]Pricer) *RoutedPricer {
	normalized := make(map[string]Pricer, len(routes))
	for symbol, p := range routes {
		normalized[strings.ToUpper(symbol)] = p
	}
	return &RoutedPricer{routes: normalized, fallback: fallback}
}

func (r *RoutedPricer) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if p, ok := r.routes[strings.ToUpper(symbol)]; ok {
		return p.GetPrice(ctx, symbol)
	}
	return r.fallback.GetPrice(ctx, symbol)
}
