package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/MJE43/roulette-strategy-sim/internal/roulette"
)

var two = decimal.NewFromInt(2)

// Martingale bets on red, doubling after each loss and returning to the
// base stake after a win. The stake is capped at the current balance.
type Martingale struct {
	base    decimal.Decimal
	current decimal.Decimal
	last    []roulette.Bet
}

// NewMartingale creates a Martingale with the given base stake.
func NewMartingale(base decimal.Decimal) (*Martingale, error) {
	if err := requirePositive("base", base); err != nil {
		return nil, err
	}
	return &Martingale{base: base, current: base}, nil
}

// NextBets applies the last round's outcome and returns one red bet.
func (m *Martingale) NextBets(history []roulette.Pocket, balance decimal.Decimal) []roulette.Bet {
	p, ok := lastPocket(history)
	if !ok {
		m.Reset()
	} else if m.last != nil {
		if won(m.last, p.Number) {
			m.current = m.base
		} else {
			m.current = m.current.Mul(two)
		}
	}

	if m.current.GreaterThan(balance) {
		m.current = balance
	}
	if !m.current.IsPositive() {
		m.last = nil
		return nil
	}
	m.last = []roulette.Bet{{Amount: m.current, Type: roulette.RedBlack, Targets: roulette.Reds()}}
	return m.last
}

// Reset returns to the base stake.
func (m *Martingale) Reset() {
	m.current = m.base
	m.last = nil
}

// Name returns the display name.
func (m *Martingale) Name() string { return "Martingale" }
