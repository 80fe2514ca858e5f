package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/MJE43/roulette-strategy-sim/internal/engine"
	"github.com/MJE43/roulette-strategy-sim/internal/roulette"
)

// Flat places the same fixed bets every round.
type Flat struct {
	name string
	bets []roulette.Bet
}

// NextBets returns a copy of the fixed bets, or folds when they cost more
// than balance.
func (f *Flat) NextBets(history []roulette.Pocket, balance decimal.Decimal) []roulette.Bet {
	if !affordable(f.bets, balance) {
		return nil
	}
	out := make([]roulette.Bet, len(f.bets))
	copy(out, f.bets)
	return out
}

// Reset is a no-op; flat strategies carry no progression state.
func (f *Flat) Reset() {}

// Name returns the display name.
func (f *Flat) Name() string { return f.name }

// NewDozen bets amount on one dozen every round.
func NewDozen(index int, amount decimal.Decimal) (*Flat, error) {
	set, err := roulette.Dozen(index)
	if err != nil {
		return nil, err
	}
	if err := requirePositive("amount", amount); err != nil {
		return nil, err
	}
	return &Flat{
		name: fmt.Sprintf("Dozen %d", index),
		bets: []roulette.Bet{{Amount: amount, Type: roulette.DozenBet, Targets: set}},
	}, nil
}

// NewDoubleDozen bets amount on each of two distinct dozens every round.
func NewDoubleDozen(dozen1, dozen2 int, amount decimal.Decimal) (*Flat, error) {
	set1, err := roulette.Dozen(dozen1)
	if err != nil {
		return nil, err
	}
	set2, err := roulette.Dozen(dozen2)
	if err != nil {
		return nil, err
	}
	if dozen1 == dozen2 {
		return nil, fmt.Errorf("%w: dozen indices must be distinct, got %d twice", roulette.ErrInvalidArgument, dozen1)
	}
	if err := requirePositive("amount", amount); err != nil {
		return nil, err
	}
	return &Flat{
		name: fmt.Sprintf("Double Dozen (%d & %d)", dozen1, dozen2),
		bets: []roulette.Bet{
			{Amount: amount, Type: roulette.DozenBet, Targets: set1},
			{Amount: amount, Type: roulette.DozenBet, Targets: set2},
		},
	}, nil
}

// NewStreet bets amount on the street starting at start.
func NewStreet(start int, amount decimal.Decimal) (*Flat, error) {
	set, err := roulette.StreetFromNumber(start)
	if err != nil {
		return nil, err
	}
	if err := requirePositive("amount", amount); err != nil {
		return nil, err
	}
	return &Flat{
		name: fmt.Sprintf("Street (start %d)", start),
		bets: []roulette.Bet{{Amount: amount, Type: roulette.StreetBet, Targets: set}},
	}, nil
}

// NewRoulette30 covers dozens 1 and 2 plus line 9 (25-30).
func NewRoulette30(dozenAmount, lineAmount decimal.Decimal) (*Flat, error) {
	if err := requirePositive("dozen amount", dozenAmount); err != nil {
		return nil, err
	}
	if err := requirePositive("line amount", lineAmount); err != nil {
		return nil, err
	}
	line, _ := roulette.Line(9)
	return &Flat{
		name: "Roulette 30 (two dozens and one line)",
		bets: []roulette.Bet{
			{Amount: dozenAmount, Type: roulette.DozenBet, Targets: dozenSet(1)},
			{Amount: dozenAmount, Type: roulette.DozenBet, Targets: dozenSet(2)},
			{Amount: lineAmount, Type: roulette.LineBet, Targets: line},
		},
	}, nil
}

// NewRoulette36 covers zero, dozen 1 and high (19-36).
func NewRoulette36(zeroAmount, dozenAmount, highAmount decimal.Decimal) (*Flat, error) {
	for field, v := range map[string]decimal.Decimal{
		"zero amount":  zeroAmount,
		"dozen amount": dozenAmount,
		"high amount":  highAmount,
	} {
		if err := requirePositive(field, v); err != nil {
			return nil, err
		}
	}
	zero, _ := roulette.NewNumberSet(0)
	return &Flat{
		name: "Roulette 36 (zero, one dozen and high)",
		bets: []roulette.Bet{
			{Amount: dozenAmount, Type: roulette.DozenBet, Targets: dozenSet(1)},
			{Amount: highAmount, Type: roulette.LowHigh, Targets: roulette.High()},
			{Amount: zeroAmount, Type: roulette.Straight, Targets: zero},
		},
	}, nil
}

// Random bets a fixed amount straight-up on a randomly chosen pocket.
type Random struct {
	amount  decimal.Decimal
	variant roulette.Variant
	source  engine.Source
}

// NewRandom picks numbers from 0..36, plus 00 on American wheels.
func NewRandom(amount decimal.Decimal, variant roulette.Variant, source engine.Source) (*Random, error) {
	if err := requirePositive("amount", amount); err != nil {
		return nil, err
	}
	if source == nil {
		source = engine.NewRandSource(0)
	}
	return &Random{amount: amount, variant: variant, source: source}, nil
}

// NextBets returns one straight bet, or folds when amount exceeds balance.
func (r *Random) NextBets(history []roulette.Pocket, balance decimal.Decimal) []roulette.Bet {
	if r.amount.GreaterThan(balance) {
		return nil
	}
	// 37 is 00 on an american wheel.
	n := r.source.Intn(r.variant.PocketCount())
	target, _ := roulette.NewNumberSet(n)
	return []roulette.Bet{{Amount: r.amount, Type: roulette.Straight, Targets: target}}
}

// Reset is a no-op.
func (r *Random) Reset() {}

// Reseed replaces the source numbers are drawn from.
func (r *Random) Reseed(src engine.Source) {
	if src != nil {
		r.source = src
	}
}

// Name returns the display name.
func (r *Random) Name() string { return "Random Single Number" }
