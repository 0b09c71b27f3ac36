package payout

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// ErrZeroTotalWeight means the accepted ratio weights for a request sum to
// zero, so shares cannot be computed. This is a configuration error, not a
// rate error.
var ErrZeroTotalWeight = errors.New("total ratio weight is zero")

// Bid is one monetary pledge attached to a request, in its original
// currency. PayerID identifies who gets charged; the split engine itself
// only looks at the money.
type Bid struct {
	PayerID  int64
	Amount   decimal.Decimal
	Currency string
}

// Share is one developer's normalized stake and payout currency
type Share struct {
	DeveloperID int64
	Weight      decimal.Decimal
	Currency    string
}

var oneCent = decimal.New(1, -2)

// ComputeInstructions turns the bids on a request into one payout
// instruction per developer.
//
// All bids are first converted into the reference currency and summed. Each
// developer's raw share is total * weight / totalWeight, converted into the
// developer's preferred currency and rounded half-to-even to two decimal
// places. Within each destination currency the rounded amounts are then
// reconciled against the rounded group total by moving single cents to or
// from the developers with the largest (or smallest) fractional remainders,
// ties broken by ascending developer id. The function is pure: same inputs,
// same instructions.
func ComputeInstructions(requestID int64, bids []Bid, shares []Share, referenceCurrency string, rates RateSource) ([]Instruction, error) {
	if len(bids) == 0 || len(shares) == 0 {
		return nil, nil
	}

	total := decimal.Zero
	for _, bid := range bids {
		converted, err := Convert(bid.Amount, bid.Currency, referenceCurrency, rates)
		if err != nil {
			return nil, fmt.Errorf("failed to normalize bid: %w", err)
		}
		total = total.Add(converted)
	}

	totalWeight := decimal.Zero
	for _, share := range shares {
		if share.Weight.IsNegative() {
			return nil, fmt.Errorf("negative weight for developer %d", share.DeveloperID)
		}
		totalWeight = totalWeight.Add(share.Weight)
	}
	if totalWeight.IsZero() {
		return nil, ErrZeroTotalWeight
	}

	ordered := make([]Share, len(shares))
	copy(ordered, shares)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].DeveloperID < ordered[j].DeveloperID
	})

	type rawShare struct {
		developerID int64
		raw         decimal.Decimal
		rounded     decimal.Decimal
	}
	byCurrency := make(map[string][]*rawShare)
	var currencies []string
	for _, share := range ordered {
		if share.Weight.IsZero() {
			continue
		}
		refShare := total.Mul(share.Weight).Div(totalWeight)
		converted, err := Convert(refShare, referenceCurrency, share.Currency, rates)
		if err != nil {
			return nil, fmt.Errorf("failed to convert share for developer %d: %w", share.DeveloperID, err)
		}
		if _, ok := byCurrency[share.Currency]; !ok {
			currencies = append(currencies, share.Currency)
		}
		byCurrency[share.Currency] = append(byCurrency[share.Currency], &rawShare{
			developerID: share.DeveloperID,
			raw:         converted,
			rounded:     converted.RoundBank(2),
		})
	}

	var instructions []Instruction
	for _, currency := range currencies {
		group := byCurrency[currency]

		groupTotal := decimal.Zero
		roundedSum := decimal.Zero
		for _, s := range group {
			groupTotal = groupTotal.Add(s.raw)
			roundedSum = roundedSum.Add(s.rounded)
		}
		target := groupTotal.RoundBank(2)

		// Residual cents between the rounded shares and the rounded group
		// total. Positive: someone gets an extra cent. Negative: someone
		// loses one.
		residualCents := target.Sub(roundedSum).Div(oneCent).IntPart()

		order := make([]*rawShare, len(group))
		copy(order, group)
		sort.SliceStable(order, func(i, j int) bool {
			ri := order[i].raw.Sub(order[i].rounded)
			rj := order[j].raw.Sub(order[j].rounded)
			if !ri.Equal(rj) {
				if residualCents > 0 {
					return ri.GreaterThan(rj)
				}
				return ri.LessThan(rj)
			}
			return order[i].developerID < order[j].developerID
		})

		step := oneCent
		if residualCents < 0 {
			step = oneCent.Neg()
			residualCents = -residualCents
		}
		for i := int64(0); i < residualCents; i++ {
			s := order[i%int64(len(order))]
			s.rounded = s.rounded.Add(step)
		}

		for _, s := range group {
			instructions = append(instructions, Instruction{
				DeveloperID:      s.developerID,
				Amount:           s.rounded,
				Currency:         currency,
				FeatureRequestID: requestID,
			})
		}
	}

	sort.Slice(instructions, func(i, j int) bool {
		return instructions[i].DeveloperID < instructions[j].DeveloperID
	})
	return instructions, nil
}
