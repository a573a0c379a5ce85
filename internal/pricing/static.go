package pricing

import (
	"context"
	"strings"
	"sync"
	"time"
)

// StaticProvider serves quotes from a fixed map. Used in demo mode and in
// tests, where hitting a live market data API is not an option.
type StaticProvider struct {
	mu     sync.RWMutex
	prices map[string]float64
}

// NewStaticProvider creates a StaticProvider from a symbol-to-price map.
func NewStaticProvider(prices map[string]float64) *StaticProvider {
	normalized := make(map[string]float64, len(prices))
	for symbol, price := range prices {
		normalized[strings.ToUpper(symbol)] = price
	}
	return &StaticProvider{prices: normalized}
}

// GetQuote returns the configured price for a symbol.
func (p *StaticProvider) GetQuote(_ context.Context, symbol string) (Quote, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	price, ok := p.prices[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		return Quote{}, ErrPriceNotFound
	}
	return Quote{Symbol: strings.ToUpper(symbol), Price: price, AsOf: time.Now()}, nil
}

// SetPrice updates a single symbol's price.
func (p *StaticProvider) SetPrice(symbol string, price float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices[strings.ToUpper(symbol)] = price
}
