package simulator

import (
	"github.com/shopspring/decimal"
)

// Bin is one bucket of the final balance distribution.
type Bin struct {
	Label    string  `json:"label"`
	Count    int     `json:"count"`
	Fraction float64 `json:"fraction"`
}

const (
	binBankrupt = iota
	binLargeLoss
	binSmallLoss
	binBreakEven
	binSmallProfit
	binLargeProfit
	binJackpot
)

var binLabels = []string{
	"Bankrupt",
	"Large Loss (>50%)",
	"Small Loss (0-50%)",
	"Break-even",
	"Small Profit (0-50%)",
	"Large Profit (50-100%)",
	"Jackpot (>100%)",
}

var half = decimal.NewFromFloat(0.5)

// Distribution buckets final balances by profit relative to initial.
// Bankrupt sessions are counted only in the Bankrupt bin.
func Distribution(finals []decimal.Decimal, initial decimal.Decimal) []Bin {
	bins := make([]Bin, len(binLabels))
	for i, label := range binLabels {
		bins[i].Label = label
	}

	halfInitial := initial.Mul(half)
	for _, final := range finals {
		bins[binFor(final, initial, halfInitial)].Count++
	}

	for i := range bins {
		bins[i].Fraction = fraction(bins[i].Count, len(finals))
	}
	return bins
}

func binFor(final, initial, halfInitial decimal.Decimal) int {
	if !final.IsPositive() {
		return binBankrupt
	}
	profit := final.Sub(initial)
	switch {
	case profit.LessThan(halfInitial.Neg()):
		return binLargeLoss
	case profit.IsNegative():
		return binSmallLoss
	case profit.IsZero():
		return binBreakEven
	case profit.LessThanOrEqual(halfInitial):
		return binSmallProfit
	case profit.LessThanOrEqual(initial):
		return binLargeProfit
	default:
		return binJackpot
	}
}
