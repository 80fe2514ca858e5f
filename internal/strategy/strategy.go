// Package strategy implements betting strategies as stateful decision
// functions from spin history and balance to the next round's bets.
package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/MJE43/roulette-strategy-sim/internal/engine"
	"github.com/MJE43/roulette-strategy-sim/internal/roulette"
)

// Strategy decides the bets for the next round.
//
// NextBets applies the strategy's win/loss transition exactly once per call,
// comparing its previously placed bets with the last pocket in history. An
// empty history means a fresh session. A nil or empty result is a fold.
// Reset restores the configured starting state.
type Strategy interface {
	Name() string
	NextBets(history []roulette.Pocket, balance decimal.Decimal) []roulette.Bet
	Reset()
}

// Reseeder is implemented by strategies that draw random numbers. A batch
// reseeds them per session so results do not depend on scheduling.
type Reseeder interface {
	Reseed(src engine.Source)
}

func lastPocket(history []roulette.Pocket) (roulette.Pocket, bool) {
	if len(history) == 0 {
		return roulette.Pocket{}, false
	}
	return history[len(history)-1], true
}

// affordable reports whether the total stake fits in balance.
func affordable(bets []roulette.Bet, balance decimal.Decimal) bool {
	return roulette.TotalStake(bets).LessThanOrEqual(balance)
}

func won(bets []roulette.Bet, number int) bool {
	return roulette.TotalWinnings(bets, number).IsPositive()
}

func requirePositive(field string, v decimal.Decimal) error {
	if !v.IsPositive() {
		return fmt.Errorf("%w: %s must be positive, got %s", roulette.ErrInvalidArgument, field, v)
	}
	return nil
}

func noBet() []roulette.Bet {
	return []roulette.Bet{roulette.NoBetPlaceholder()}
}

func dozenSet(index int) roulette.NumberSet {
	set, err := roulette.Dozen(index)
	if err != nil {
		panic(err)
	}
	return set
}

func colorSet(red bool) roulette.NumberSet {
	if red {
		return roulette.Reds()
	}
	return roulette.Blacks()
}
