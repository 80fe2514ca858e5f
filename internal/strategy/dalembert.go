package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/MJE43/roulette-strategy-sim/internal/roulette"
)

// DAlembert bets on red, raising the stake by one unit after a loss and
// lowering it by one unit after a win, never below the base stake.
type DAlembert struct {
	base    decimal.Decimal
	unit    decimal.Decimal
	current decimal.Decimal
	last    []roulette.Bet
}

// NewDAlembert creates a D'Alembert progression.
func NewDAlembert(base, unit decimal.Decimal) (*DAlembert, error) {
	if err := requirePositive("base", base); err != nil {
		return nil, err
	}
	if err := requirePositive("unit", unit); err != nil {
		return nil, err
	}
	return &DAlembert{base: base, unit: unit, current: base}, nil
}

// NextBets applies the last round's outcome and returns one red bet.
func (d *DAlembert) NextBets(history []roulette.Pocket, balance decimal.Decimal) []roulette.Bet {
	p, ok := lastPocket(history)
	if !ok {
		d.Reset()
	} else if d.last != nil {
		if won(d.last, p.Number) {
			d.current = decimal.Max(d.base, d.current.Sub(d.unit))
		} else {
			d.current = d.current.Add(d.unit)
		}
	}

	if d.current.GreaterThan(balance) {
		d.current = balance
	}
	if !d.current.IsPositive() {
		d.last = nil
		return nil
	}
	d.last = []roulette.Bet{{Amount: d.current, Type: roulette.RedBlack, Targets: roulette.Reds()}}
	return d.last
}

// Reset returns to the base stake.
func (d *DAlembert) Reset() {
	d.current = d.base
	d.last = nil
}

// Name returns the display name.
func (d *DAlembert) Name() string { return "D'Alembert" }
