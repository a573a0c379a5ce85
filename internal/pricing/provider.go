// Package pricing supplies current market prices for the rebalancing engine.
package pricing

import (
	"context"
	"errors"
	"time"
)

// ErrPriceNotFound is returned when no price is available for a symbol.
var ErrPriceNotFound = errors.New("price not found")

// Quote is the latest known price for a symbol.
type Quote struct {
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price"`
	AsOf   time.Time `json:"as_of"`
}

// Provider returns the latest price for a symbol.
type Provider interface {
	GetQuote(ctx context.Context, symbol string) (Quote, error)
}

// GetQuotes fetches quotes for a set of symbols, tolerating per-symbol
// failures. The returned map contains only the symbols that resolved.
func GetQuotes(ctx context.Context, p Provider, symbols []string) map[string]Quote {
	quotes := make(map[string]Quote, len(symbols))
	for _, symbol := range symbols {
		q, err := p.GetQuote(ctx, symbol)
		if err != nil {
			continue
		}
		quotes[symbol] = q
	}
	return quotes
}
