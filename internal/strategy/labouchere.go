package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/MJE43/roulette-strategy-sim/internal/roulette"
)

// DefaultLabouchereSequence is used when no starting line is given.
var DefaultLabouchereSequence = []decimal.Decimal{
	decimal.NewFromInt(1),
	decimal.NewFromInt(2),
	decimal.NewFromInt(3),
	decimal.NewFromInt(4),
}

// Labouchere bets on red using a cancellation line. Each stake is the sum of
// the first and last entries times unit. A win crosses both off, a loss
// appends the lost amount in units, and an empty line starts over.
type Labouchere struct {
	initial []decimal.Decimal
	unit    decimal.Decimal
	line    []decimal.Decimal
	last    []roulette.Bet
}

// NewLabouchere creates a Labouchere progression. An empty sequence selects
// DefaultLabouchereSequence.
func NewLabouchere(sequence []decimal.Decimal, unit decimal.Decimal) (*Labouchere, error) {
	if err := requirePositive("unit", unit); err != nil {
		return nil, err
	}
	if len(sequence) == 0 {
		sequence = DefaultLabouchereSequence
	}
	for _, v := range sequence {
		if err := requirePositive("sequence entry", v); err != nil {
			return nil, err
		}
	}
	initial := append([]decimal.Decimal(nil), sequence...)
	l := &Labouchere{initial: initial, unit: unit}
	l.Reset()
	return l, nil
}

// NextBets applies the last round's outcome and returns one red bet, or
// folds when the stake exceeds balance.
func (l *Labouchere) NextBets(history []roulette.Pocket, balance decimal.Decimal) []roulette.Bet {
	p, ok := lastPocket(history)
	if !ok {
		l.Reset()
	} else if l.last != nil {
		if won(l.last, p.Number) {
			l.cancel()
		} else {
			l.line = append(l.line, l.last[0].Amount.Div(l.unit))
		}
	}

	if len(l.line) == 0 {
		l.line = append([]decimal.Decimal(nil), l.initial...)
	}
	units := l.line[0]
	if len(l.line) > 1 {
		units = units.Add(l.line[len(l.line)-1])
	}
	stake := units.Mul(l.unit)
	if stake.GreaterThan(balance) {
		l.last = nil
		return nil
	}
	l.last = []roulette.Bet{{Amount: stake, Type: roulette.RedBlack, Targets: roulette.Reds()}}
	return l.last
}

func (l *Labouchere) cancel() {
	if len(l.line) > 0 {
		l.line = l.line[1:]
	}
	if len(l.line) > 0 {
		l.line = l.line[:len(l.line)-1]
	}
}

// Line returns a copy of the current cancellation line.
func (l *Labouchere) Line() []decimal.Decimal {
	return append([]decimal.Decimal(nil), l.line...)
}

// Reset restores the starting line.
func (l *Labouchere) Reset() {
	l.line = append([]decimal.Decimal(nil), l.initial...)
	l.last = nil
}

// Name returns the display name.
func (l *Labouchere) Name() string { return "Labouchere" }
