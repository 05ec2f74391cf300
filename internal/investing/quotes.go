package investing

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// ErrQuoteUnavailable is returned when the provider has no price for a symbol.
var ErrQuoteUnavailable = errors.New("Quote unavailable for symbol")

// TableQuoteProvider serves prices (minor units per share) from an in-memory
// table. The execution path only depends on movements.QuoteSource, so a market
// data adapter can replace this without touching the lifecycle manager.
type TableQuoteProvider struct {
	mu     sync.RWMutex
	prices map[string]decimal.Decimal
}

// NewTableQuoteProvider seeds the provider. Keys are upcased.
func NewTableQuoteProvider(seed map[string]int64) *TableQuoteProvider {
	p := &TableQuoteProvider{prices: make(map[string]decimal.Decimal, len(seed))}
	for sym, cents := range seed {
		p.prices[strings.ToUpper(sym)] = decimal.NewFromInt(cents)
	}
	return p
}

func (p *TableQuoteProvider) Quote(ctx context.Context, symbol string) (decimal.Decimal, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	price, ok := p.prices[strings.ToUpper(symbol)]
	if !ok {
		return decimal.Zero, ErrQuoteUnavailable
	}
	return price, nil
}

// SetPrice updates one symbol's price.
func (p *TableQuoteProvider) SetPrice(symbol string, cents int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices[strings.ToUpper(symbol)] = decimal.NewFromInt(cents)
}
