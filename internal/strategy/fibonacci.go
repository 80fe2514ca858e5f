package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/MJE43/roulette-strategy-sim/internal/roulette"
)

const fibPrecomputed = 30

// fibSequence is the sequence 1, 1, 2, 3, 5, ... grown on demand.
type fibSequence struct {
	terms []decimal.Decimal
}

func newFibSequence() *fibSequence {
	f := &fibSequence{terms: []decimal.Decimal{decimal.NewFromInt(1), decimal.NewFromInt(1)}}
	f.at(fibPrecomputed - 1)
	return f
}

func (f *fibSequence) at(i int) decimal.Decimal {
	if i < 0 {
		i = 0
	}
	for len(f.terms) <= i {
		n := len(f.terms)
		f.terms = append(f.terms, f.terms[n-1].Add(f.terms[n-2]))
	}
	return f.terms[i]
}

// stepBack moves an index two terms down after a win, stopping at zero.
func stepBack(index int) int {
	if index < 2 {
		return 0
	}
	return index - 2
}

// Fibonacci bets unit x fib(index) on black. A loss advances the index by
// one and a win moves it back two.
type Fibonacci struct {
	unit  decimal.Decimal
	seq   *fibSequence
	index int
	last  []roulette.Bet
}

// NewFibonacci creates a Fibonacci progression with the given unit.
func NewFibonacci(unit decimal.Decimal) (*Fibonacci, error) {
	if err := requirePositive("unit", unit); err != nil {
		return nil, err
	}
	return &Fibonacci{unit: unit, seq: newFibSequence()}, nil
}

// NextBets applies the last round's outcome and returns one black bet, or
// folds when the progression stake exceeds balance.
func (f *Fibonacci) NextBets(history []roulette.Pocket, balance decimal.Decimal) []roulette.Bet {
	p, ok := lastPocket(history)
	if !ok {
		f.Reset()
	} else if f.last != nil {
		if won(f.last, p.Number) {
			f.index = stepBack(f.index)
		} else {
			f.index++
		}
	}

	stake := f.seq.at(f.index).Mul(f.unit)
	if stake.GreaterThan(balance) {
		f.last = nil
		return nil
	}
	f.last = []roulette.Bet{{Amount: stake, Type: roulette.RedBlack, Targets: roulette.Blacks()}}
	return f.last
}

// Reset returns to the first term.
func (f *Fibonacci) Reset() {
	f.index = 0
	f.last = nil
}

// Name returns the display name.
func (f *Fibonacci) Name() string { return "Fibonacci" }

// AlternateColor follows the Fibonacci progression, starting on red and
// switching colour after every loss.
type AlternateColor struct {
	unit  decimal.Decimal
	seq   *fibSequence
	index int
	red   bool
	last  []roulette.Bet
}

// NewAlternateColor creates an alternating-colour Fibonacci progression.
func NewAlternateColor(unit decimal.Decimal) (*AlternateColor, error) {
	if err := requirePositive("unit", unit); err != nil {
		return nil, err
	}
	return &AlternateColor{unit: unit, seq: newFibSequence(), red: true}, nil
}

// NextBets applies the last round's outcome and returns one colour bet.
func (a *AlternateColor) NextBets(history []roulette.Pocket, balance decimal.Decimal) []roulette.Bet {
	p, ok := lastPocket(history)
	if !ok {
		a.Reset()
	} else if a.last != nil {
		if won(a.last, p.Number) {
			a.index = stepBack(a.index)
		} else {
			a.index++
			a.red = !a.red
		}
	}

	stake := a.seq.at(a.index).Mul(a.unit)
	if stake.GreaterThan(balance) {
		a.last = nil
		return nil
	}
	a.last = []roulette.Bet{{Amount: stake, Type: roulette.RedBlack, Targets: colorSet(a.red)}}
	return a.last
}

// Reset returns to the first term on red.
func (a *AlternateColor) Reset() {
	a.index = 0
	a.red = true
	a.last = nil
}

// Name returns the display name.
func (a *AlternateColor) Name() string { return "Alternate Color (Fibonacci)" }
