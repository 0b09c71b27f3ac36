package payout

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeInstructionsTwoToOneSplit(t *testing.T) {
	bids := []Bid{{Amount: d("100.00"), Currency: "CAD"}}
	shares := []Share{
		{DeveloperID: 1, Weight: d("2"), Currency: "CAD"},
		{DeveloperID: 2, Weight: d("1"), Currency: "CAD"},
	}

	instructions, err := ComputeInstructions(7, bids, shares, "CAD", NewStaticRates())
	require.NoError(t, err)
	require.Len(t, instructions, 2)

	assert.Equal(t, int64(1), instructions[0].DeveloperID)
	assert.Equal(t, "66.67", instructions[0].Amount.StringFixed(2))
	assert.Equal(t, int64(2), instructions[1].DeveloperID)
	assert.Equal(t, "33.33", instructions[1].Amount.StringFixed(2))

	total := instructions[0].Amount.Add(instructions[1].Amount)
	assert.Equal(t, "100.00", total.StringFixed(2))
}

func TestComputeInstructionsSumMatchesTotalForVariousSizes(t *testing.T) {
	bids := []Bid{
		{Amount: d("33.33"), Currency: "CAD"},
		{Amount: d("50.01"), Currency: "CAD"},
	}

	for _, n := range []int{1, 2, 5} {
		shares := make([]Share, n)
		for i := range shares {
			shares[i] = Share{DeveloperID: int64(i + 1), Weight: d("1"), Currency: "CAD"}
		}

		instructions, err := ComputeInstructions(1, bids, shares, "CAD", NewStaticRates())
		require.NoError(t, err)
		require.Len(t, instructions, n)

		sum := decimal.Zero
		for _, instruction := range instructions {
			sum = sum.Add(instruction.Amount)
			assert.True(t, instruction.Amount.Exponent() >= -2, "amount has more than two decimal places")
		}
		assert.Equal(t, "83.34", sum.StringFixed(2), "n=%d", n)
	}
}

func TestComputeInstructionsResidualCentGoesToLowestDeveloperID(t *testing.T) {
	// Three equal shares of 100.00: each raw share is 33.33..., rounding
	// leaves one cent over. Equal remainders, so the tie break puts it on
	// the smallest developer id.
	bids := []Bid{{Amount: d("100.00"), Currency: "CAD"}}
	shares := []Share{
		{DeveloperID: 3, Weight: d("1"), Currency: "CAD"},
		{DeveloperID: 1, Weight: d("1"), Currency: "CAD"},
		{DeveloperID: 2, Weight: d("1"), Currency: "CAD"},
	}

	instructions, err := ComputeInstructions(1, bids, shares, "CAD", NewStaticRates())
	require.NoError(t, err)
	require.Len(t, instructions, 3)

	assert.Equal(t, "33.34", instructions[0].Amount.StringFixed(2))
	assert.Equal(t, "33.33", instructions[1].Amount.StringFixed(2))
	assert.Equal(t, "33.33", instructions[2].Amount.StringFixed(2))
}

func TestComputeInstructionsBankersRoundingAtHalfCent(t *testing.T) {
	// Two equal shares of 0.01: each raw share is 0.005, which rounds half
	// to even down to 0.00. Reconciliation restores the missing cent.
	bids := []Bid{{Amount: d("0.01"), Currency: "CAD"}}
	shares := []Share{
		{DeveloperID: 1, Weight: d("1"), Currency: "CAD"},
		{DeveloperID: 2, Weight: d("1"), Currency: "CAD"},
	}

	instructions, err := ComputeInstructions(1, bids, shares, "CAD", NewStaticRates())
	require.NoError(t, err)
	assert.Equal(t, "0.01", instructions[0].Amount.StringFixed(2))
	assert.Equal(t, "0.00", instructions[1].Amount.StringFixed(2))
}

func TestComputeInstructionsSingleDeveloperGetsEverything(t *testing.T) {
	bids := []Bid{
		{Amount: d("40.00"), Currency: "CAD"},
		{Amount: d("10.00"), Currency: "USD"},
	}
	shares := []Share{{DeveloperID: 9, Weight: d("1"), Currency: "CAD"}}

	instructions, err := ComputeInstructions(1, bids, shares, "CAD", NewStaticRates())
	require.NoError(t, err)
	require.Len(t, instructions, 1)

	// 40.00 CAD + 10.00 USD * 1.35 = 53.50 CAD
	assert.Equal(t, "53.50", instructions[0].Amount.StringFixed(2))
	assert.Equal(t, "CAD", instructions[0].Currency)
}

func TestComputeInstructionsConvertsToPreferredCurrency(t *testing.T) {
	bids := []Bid{{Amount: d("100.00"), Currency: "CAD"}}
	shares := []Share{
		{DeveloperID: 1, Weight: d("1"), Currency: "USD"},
		{DeveloperID: 2, Weight: d("1"), Currency: "CAD"},
	}

	instructions, err := ComputeInstructions(1, bids, shares, "CAD", NewStaticRates())
	require.NoError(t, err)
	require.Len(t, instructions, 2)

	// 50.00 CAD * 0.74 = 37.00 USD
	assert.Equal(t, "37.00", instructions[0].Amount.StringFixed(2))
	assert.Equal(t, "USD", instructions[0].Currency)
	assert.Equal(t, "50.00", instructions[1].Amount.StringFixed(2))
	assert.Equal(t, "CAD", instructions[1].Currency)
}

func TestComputeInstructionsZeroTotalWeightFails(t *testing.T) {
	bids := []Bid{{Amount: d("100.00"), Currency: "CAD"}}
	shares := []Share{
		{DeveloperID: 1, Weight: decimal.Zero, Currency: "CAD"},
		{DeveloperID: 2, Weight: decimal.Zero, Currency: "CAD"},
	}

	_, err := ComputeInstructions(1, bids, shares, "CAD", NewStaticRates())
	assert.ErrorIs(t, err, ErrZeroTotalWeight)
}

func TestComputeInstructionsNegativeWeightFails(t *testing.T) {
	bids := []Bid{{Amount: d("100.00"), Currency: "CAD"}}
	shares := []Share{{DeveloperID: 1, Weight: d("-1"), Currency: "CAD"}}

	_, err := ComputeInstructions(1, bids, shares, "CAD", NewStaticRates())
	assert.Error(t, err)
}

type failingRates struct{}

func (failingRates) Rate(from, to string) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	return decimal.Zero, ErrRateUnavailable
}

func TestComputeInstructionsMissingRateFailsWholeBatch(t *testing.T) {
	bids := []Bid{{Amount: d("100.00"), Currency: "USD"}}
	shares := []Share{{DeveloperID: 1, Weight: d("1"), Currency: "CAD"}}

	instructions, err := ComputeInstructions(1, bids, shares, "CAD", failingRates{})
	assert.ErrorIs(t, err, ErrRateUnavailable)
	assert.Nil(t, instructions)
}

func TestComputeInstructionsIsDeterministic(t *testing.T) {
	bids := []Bid{
		{Amount: d("19.99"), Currency: "USD"},
		{Amount: d("45.50"), Currency: "EUR"},
	}
	shares := []Share{
		{DeveloperID: 2, Weight: d("3"), Currency: "EUR"},
		{DeveloperID: 1, Weight: d("2"), Currency: "USD"},
		{DeveloperID: 3, Weight: d("5"), Currency: "CAD"},
	}

	first, err := ComputeInstructions(1, bids, shares, "CAD", NewStaticRates())
	require.NoError(t, err)
	second, err := ComputeInstructions(1, bids, shares, "CAD", NewStaticRates())
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].DeveloperID, second[i].DeveloperID)
		assert.True(t, first[i].Amount.Equal(second[i].Amount))
		assert.Equal(t, first[i].Currency, second[i].Currency)
	}
}

func TestComputeInstructionsSkipsZeroWeightDevelopers(t *testing.T) {
	bids := []Bid{{Amount: d("100.00"), Currency: "CAD"}}
	shares := []Share{
		{DeveloperID: 1, Weight: d("1"), Currency: "CAD"},
		{DeveloperID: 2, Weight: decimal.Zero, Currency: "CAD"},
	}

	instructions, err := ComputeInstructions(1, bids, shares, "CAD", NewStaticRates())
	require.NoError(t, err)
	require.Len(t, instructions, 1)
	assert.Equal(t, int64(1), instructions[0].DeveloperID)
	assert.Equal(t, "100.00", instructions[0].Amount.StringFixed(2))
}

func TestComputeInstructionsEmptyInputs(t *testing.T) {
	instructions, err := ComputeInstructions(1, nil, []Share{{DeveloperID: 1, Weight: d("1"), Currency: "CAD"}}, "CAD", NewStaticRates())
	require.NoError(t, err)
	assert.Nil(t, instructions)

	instructions, err = ComputeInstructions(1, []Bid{{Amount: d("5"), Currency: "CAD"}}, nil, "CAD", NewStaticRates())
	require.NoError(t, err)
	assert.Nil(t, instructions)
}
