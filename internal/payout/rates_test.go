package payout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticRatesKnownPairs(t *testing.T) {
	rates := NewStaticRates()

	tests := []struct {
		from, to string
		want     string
	}{
		{"CAD", "USD", "0.74"},
		{"CAD", "EUR", "0.68"},
		{"USD", "CAD", "1.35"},
		{"USD", "EUR", "0.92"},
		{"EUR", "CAD", "1.47"},
		{"EUR", "USD", "1.09"},
	}

	for _, tt := range tests {
		rate, err := rates.Rate(tt.from, tt.to)
		require.NoError(t, err, "%s to %s", tt.from, tt.to)
		assert.Equal(t, tt.want, rate.String())
	}
}

func TestStaticRatesIdentity(t *testing.T) {
	rates := NewStaticRates()
	rate, err := rates.Rate("CAD", "CAD")
	require.NoError(t, err)
	assert.Equal(t, "1", rate.String())
}

func TestStaticRatesUnknownPairFails(t *testing.T) {
	rates := NewStaticRates()
	_, err := rates.Rate("CAD", "GBP")
	assert.ErrorIs(t, err, ErrRateUnavailable)
}

func TestSupportedCurrency(t *testing.T) {
	assert.True(t, SupportedCurrency("CAD"))
	assert.True(t, SupportedCurrency("USD"))
	assert.True(t, SupportedCurrency("EUR"))
	assert.False(t, SupportedCurrency("GBP"))
	assert.False(t, SupportedCurrency("cad"))
}
