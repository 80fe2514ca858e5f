package simulator

import (
	"github.com/shopspring/decimal"
)

// Statistics tracks per-session betting statistics.
type Statistics struct {
	Bets    int `json:"bets"`
	Wins    int `json:"wins"`
	Pushes  int `json:"pushes"`
	Losses  int `json:"losses"`
	Skipped int `json:"skipped"`

	Wagered  decimal.Decimal `json:"wagered"`
	Returned decimal.Decimal `json:"returned"`

	// Positive = win streak, negative = loss streak.
	CurrentStreak     int `json:"current_streak"`
	LongestWinStreak  int `json:"longest_win_streak"`
	LongestLossStreak int `json:"longest_loss_streak"`

	HighestStake decimal.Decimal `json:"highest_stake"`
	PeakBalance  decimal.Decimal `json:"peak_balance"`
	MaxDrawdown  decimal.Decimal `json:"max_drawdown"`
}

// NewStatistics starts tracking from the given balance.
func NewStatistics(startBalance decimal.Decimal) Statistics {
	return Statistics{PeakBalance: startBalance}
}

// Record folds one settled round into the statistics. Rounds with no stake
// count as skipped.
func (s *Statistics) Record(spin SpinResult) {
	if spin.Staked.IsZero() {
		s.Skipped++
	} else {
		s.Bets++
		s.Wagered = s.Wagered.Add(spin.Staked)
		s.Returned = s.Returned.Add(spin.Returned)

		switch spin.Returned.Cmp(spin.Staked) {
		case 1:
			s.Wins++
			if s.CurrentStreak < 0 {
				s.CurrentStreak = 0
			}
			s.CurrentStreak++
		case -1:
			s.Losses++
			if s.CurrentStreak > 0 {
				s.CurrentStreak = 0
			}
			s.CurrentStreak--
		default:
			s.Pushes++
		}

		if s.CurrentStreak > s.LongestWinStreak {
			s.LongestWinStreak = s.CurrentStreak
		}
		if -s.CurrentStreak > s.LongestLossStreak {
			s.LongestLossStreak = -s.CurrentStreak
		}
		if spin.Staked.GreaterThan(s.HighestStake) {
			s.HighestStake = spin.Staked
		}
	}

	if spin.BalanceAfter.GreaterThan(s.PeakBalance) {
		s.PeakBalance = spin.BalanceAfter
	}
	if dd := s.PeakBalance.Sub(spin.BalanceAfter); dd.GreaterThan(s.MaxDrawdown) {
		s.MaxDrawdown = dd
	}
}

// Profit is total returned minus total wagered.
func (s Statistics) Profit() decimal.Decimal {
	return s.Returned.Sub(s.Wagered)
}

// WinRate returns wins as a fraction of rounds with a stake.
func (s Statistics) WinRate() float64 {
	return fraction(s.Wins, s.Bets)
}

// ReturnToPlayer is returned / wagered, or zero before any stake.
func (s Statistics) ReturnToPlayer() float64 {
	if s.Wagered.IsZero() {
		return 0
	}
	return s.Returned.Div(s.Wagered).InexactFloat64()
}
