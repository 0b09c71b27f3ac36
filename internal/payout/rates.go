package payout

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Supported currency codes
const (
	CurrencyCAD = "CAD"
	CurrencyUSD = "USD"
	CurrencyEUR = "EUR"
)

// SupportedCurrency reports whether the code is in the supported set.
// Unsupported currencies are rejected at bid creation, never at payout time.
func SupportedCurrency(code string) bool {
	return code == CurrencyCAD || code == CurrencyUSD || code == CurrencyEUR
}

// ErrRateUnavailable means no conversion rate exists for a currency pair.
// It is a hard failure for the whole payout batch.
var ErrRateUnavailable = errors.New("conversion rate unavailable")

// RateSource supplies current conversion rates. Rates are a pure input to
// the split engine; they are never computed here.
type RateSource interface {
	Rate(from, to string) (decimal.Decimal, error)
}

// StaticRates is a fixed conversion table used when no live rate feed is
// configured
type StaticRates struct {
	rates map[string]map[string]decimal.Decimal
}

// NewStaticRates builds the default conversion table
func NewStaticRates() *StaticRates {
	return &StaticRates{
		rates: map[string]map[string]decimal.Decimal{
			CurrencyCAD: {
				CurrencyUSD: decimal.RequireFromString("0.74"),
				CurrencyEUR: decimal.RequireFromString("0.68"),
			},
			CurrencyUSD: {
				CurrencyCAD: decimal.RequireFromString("1.35"),
				CurrencyEUR: decimal.RequireFromString("0.92"),
			},
			CurrencyEUR: {
				CurrencyCAD: decimal.RequireFromString("1.47"),
				CurrencyUSD: decimal.RequireFromString("1.09"),
			},
		},
	}
}

// Rate returns the conversion rate between two supported currencies
func (s *StaticRates) Rate(from, to string) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	if byTo, ok := s.rates[from]; ok {
		if rate, ok := byTo[to]; ok {
			return rate, nil
		}
	}
	return decimal.Zero, fmt.Errorf("%w: %s to %s", ErrRateUnavailable, from, to)
}

// Convert applies the rate for a currency pair to an amount
func Convert(amount decimal.Decimal, from, to string, rates RateSource) (decimal.Decimal, error) {
	rate, err := rates.Rate(from, to)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(rate), nil
}
