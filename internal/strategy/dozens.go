package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/MJE43/roulette-strategy-sim/internal/roulette"
)

const countWindow = 10

var three = decimal.NewFromInt(3)

func dozenBets(amount decimal.Decimal, a, b int) []roulette.Bet {
	return []roulette.Bet{
		{Amount: amount, Type: roulette.DozenBet, Targets: dozenSet(a)},
		{Amount: amount, Type: roulette.DozenBet, Targets: dozenSet(b)},
	}
}

// otherDozens returns the two dozens that are not d, in ascending order.
// Zero pockets (d == 0) select dozens 1 and 2.
func otherDozens(d int) (int, int) {
	switch d {
	case 1:
		return 2, 3
	case 2:
		return 1, 3
	default:
		return 1, 2
	}
}

// dozenCounts tallies dozen hits over the trailing window of history.
func dozenCounts(history []roulette.Pocket, window int) [4]int {
	var counts [4]int
	start := len(history) - window
	if start < 0 {
		start = 0
	}
	for _, p := range history[start:] {
		counts[roulette.DozenOf(p.Number)]++
	}
	return counts
}

// coldestPair skips a dozen only when it strictly leads the other two;
// ties fall through to dozens 1 and 2.
func coldestPair(history []roulette.Pocket) (int, int) {
	c := dozenCounts(history, countWindow)
	switch {
	case c[1] > c[2] && c[1] > c[3]:
		return 2, 3
	case c[2] > c[1] && c[2] > c[3]:
		return 1, 3
	default:
		return 1, 2
	}
}

func afterLastHit(history []roulette.Pocket) (int, int) {
	p, _ := lastPocket(history)
	return otherDozens(roulette.DozenOf(p.Number))
}

// DoubleDozenAlternate01 sits out the first spin, then covers the two dozens
// other than the one that just hit. The stake per dozen triples after a
// loss and returns to base after a win. A zero hit sits out one round.
type DoubleDozenAlternate01 struct {
	base  decimal.Decimal
	index int
	last  []roulette.Bet
}

// NewDoubleDozenAlternate01 creates the tripling double-dozen variant.
func NewDoubleDozenAlternate01(base decimal.Decimal) (*DoubleDozenAlternate01, error) {
	if err := requirePositive("amount", base); err != nil {
		return nil, err
	}
	return &DoubleDozenAlternate01{base: base}, nil
}

func (s *DoubleDozenAlternate01) NextBets(history []roulette.Pocket, balance decimal.Decimal) []roulette.Bet {
	p, ok := lastPocket(history)
	if !ok {
		s.Reset()
		return noBet()
	}
	if s.last != nil {
		if won(s.last, p.Number) {
			s.index = 0
		} else {
			s.index++
		}
	}

	d := roulette.DozenOf(p.Number)
	if d == 0 {
		s.last = nil
		return noBet()
	}
	a, b := otherDozens(d)
	amount := s.base.Mul(three.Pow(decimal.NewFromInt(int64(s.index))))
	bets := dozenBets(amount, a, b)
	if !affordable(bets, balance) {
		s.last = nil
		return nil
	}
	s.last = bets
	return bets
}

func (s *DoubleDozenAlternate01) Reset() {
	s.index = 0
	s.last = nil
}

func (s *DoubleDozenAlternate01) Name() string { return "Double Dozen Alternate 01" }

// colorFallback bets two dozens at base until a loss, then switches to one
// colour bet of 2 x base x fib(index) on the colour opposite the losing
// spin. A win returns to dozens at index zero.
type colorFallback struct {
	name   string
	base   decimal.Decimal
	seq    *fibSequence
	choose func([]roulette.Pocket) (int, int)

	index    int
	colorBet bool
	red      bool
	last     []roulette.Bet
}

func newColorFallback(name string, base decimal.Decimal, choose func([]roulette.Pocket) (int, int)) (*colorFallback, error) {
	if err := requirePositive("amount", base); err != nil {
		return nil, err
	}
	return &colorFallback{name: name, base: base, seq: newFibSequence(), choose: choose}, nil
}

func (s *colorFallback) NextBets(history []roulette.Pocket, balance decimal.Decimal) []roulette.Bet {
	p, ok := lastPocket(history)
	if !ok {
		s.Reset()
		return noBet()
	}
	if s.last != nil {
		if won(s.last, p.Number) {
			s.index = 0
			s.colorBet = false
		} else {
			s.index++
			if !s.colorBet {
				s.colorBet = true
				s.red = p.Color != roulette.Red
			}
		}
	}

	var bets []roulette.Bet
	if s.colorBet {
		amount := two.Mul(s.base).Mul(s.seq.at(s.index))
		bets = []roulette.Bet{{Amount: amount, Type: roulette.RedBlack, Targets: colorSet(s.red)}}
	} else {
		a, b := s.choose(history)
		bets = dozenBets(s.base, a, b)
	}
	if !affordable(bets, balance) {
		s.last = nil
		return nil
	}
	s.last = bets
	return bets
}

func (s *colorFallback) Reset() {
	s.index = 0
	s.colorBet = false
	s.red = false
	s.last = nil
}

func (s *colorFallback) Name() string { return s.name }

// DoubleDozenAlternate02 picks the dozens skipped by the last spin.
type DoubleDozenAlternate02 struct{ *colorFallback }

// NewDoubleDozenAlternate02 creates the last-hit variant with colour fallback.
func NewDoubleDozenAlternate02(base decimal.Decimal) (*DoubleDozenAlternate02, error) {
	c, err := newColorFallback("Double Dozen Alternate 02", base, afterLastHit)
	if err != nil {
		return nil, err
	}
	return &DoubleDozenAlternate02{c}, nil
}

// DoubleDozenAlternate03 picks the dozens that hit least over the last ten spins.
type DoubleDozenAlternate03 struct{ *colorFallback }

// NewDoubleDozenAlternate03 creates the frequency variant with colour fallback.
func NewDoubleDozenAlternate03(base decimal.Decimal) (*DoubleDozenAlternate03, error) {
	c, err := newColorFallback("Double Dozen Alternate 03", base, coldestPair)
	if err != nil {
		return nil, err
	}
	return &DoubleDozenAlternate03{c}, nil
}

// DoubleDozenChangeOnWin repeats the same two dozens with a Fibonacci stake
// while losing and re-chooses them from recent frequencies after a win.
type DoubleDozenChangeOnWin struct {
	base  decimal.Decimal
	seq   *fibSequence
	index int
	last  []roulette.Bet
	pair  [2]int
}

// NewDoubleDozenChangeOnWin creates the change-on-win variant.
func NewDoubleDozenChangeOnWin(base decimal.Decimal) (*DoubleDozenChangeOnWin, error) {
	if err := requirePositive("amount", base); err != nil {
		return nil, err
	}
	return &DoubleDozenChangeOnWin{base: base, seq: newFibSequence()}, nil
}

func (s *DoubleDozenChangeOnWin) NextBets(history []roulette.Pocket, balance decimal.Decimal) []roulette.Bet {
	p, ok := lastPocket(history)
	if !ok {
		s.Reset()
		return noBet()
	}
	repeat := false
	if s.last != nil {
		if won(s.last, p.Number) {
			s.index = 0
		} else {
			s.index++
			repeat = true
		}
	}
	if !repeat {
		s.pair[0], s.pair[1] = coldestPair(history)
	}

	bets := dozenBets(s.base.Mul(s.seq.at(s.index)), s.pair[0], s.pair[1])
	if !affordable(bets, balance) {
		s.last = nil
		return nil
	}
	s.last = bets
	return bets
}

func (s *DoubleDozenChangeOnWin) Reset() {
	s.index = 0
	s.last = nil
	s.pair = [2]int{}
}

func (s *DoubleDozenChangeOnWin) Name() string { return "Double Dozen Change on Win" }

// DozenWait waits for one dozen to hit three times in a row, then bets the
// other two dozens at base x (index + 1), repeating them until a win.
type DozenWait struct {
	base  decimal.Decimal
	index int
	last  []roulette.Bet
	pair  [2]int
}

const waitStreak = 3

// NewDozenWait creates the wait-for-streak variant.
func NewDozenWait(base decimal.Decimal) (*DozenWait, error) {
	if err := requirePositive("amount", base); err != nil {
		return nil, err
	}
	return &DozenWait{base: base}, nil
}

func (s *DozenWait) NextBets(history []roulette.Pocket, balance decimal.Decimal) []roulette.Bet {
	p, ok := lastPocket(history)
	if !ok {
		s.Reset()
	}
	if len(history) < waitStreak {
		return noBet()
	}

	active := false
	if s.last != nil {
		if won(s.last, p.Number) {
			s.index = 0
		} else {
			s.index++
			active = true
		}
	}
	if !active {
		d := roulette.DozenOf(p.Number)
		if d == 0 || !streak(history[len(history)-waitStreak:], d) {
			s.last = nil
			return noBet()
		}
		s.pair[0], s.pair[1] = otherDozens(d)
	}

	amount := s.base.Mul(decimal.NewFromInt(int64(s.index + 1)))
	bets := dozenBets(amount, s.pair[0], s.pair[1])
	if !affordable(bets, balance) {
		s.last = nil
		return nil
	}
	s.last = bets
	return bets
}

func streak(window []roulette.Pocket, dozen int) bool {
	for _, p := range window {
		if roulette.DozenOf(p.Number) != dozen {
			return false
		}
	}
	return true
}

func (s *DozenWait) Reset() {
	s.index = 0
	s.last = nil
	s.pair = [2]int{}
}

func (s *DozenWait) Name() string { return "Dozen Wait" }
