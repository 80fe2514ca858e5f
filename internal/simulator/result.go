package simulator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/MJE43/roulette-strategy-sim/internal/roulette"
)

// EndReason records why a session stopped.
type EndReason int

const (
	MaxSpinsReached EndReason = iota
	StrategyFolded
	InsufficientFunds
	Bankrupt
	TargetReached
)

var endReasonNames = map[EndReason]string{
	MaxSpinsReached:   "max_spins_reached",
	StrategyFolded:    "strategy_folded",
	InsufficientFunds: "insufficient_funds",
	Bankrupt:          "bankrupt",
	TargetReached:     "target_reached",
}

// EndReasons lists every reason in declaration order.
func EndReasons() []EndReason {
	return []EndReason{MaxSpinsReached, StrategyFolded, InsufficientFunds, Bankrupt, TargetReached}
}

func (r EndReason) String() string {
	if name, ok := endReasonNames[r]; ok {
		return name
	}
	return fmt.Sprintf("end_reason(%d)", int(r))
}

// MarshalText implements encoding.TextMarshaler.
func (r EndReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *EndReason) UnmarshalText(text []byte) error {
	parsed, err := ParseEndReason(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseEndReason parses the snake_case name of a reason.
func ParseEndReason(s string) (EndReason, error) {
	for r, name := range endReasonNames {
		if name == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown end reason %q", roulette.ErrInvalidArgument, s)
}

// SpinResult is the record of one settled round.
type SpinResult struct {
	Spin         int             `json:"spin"`
	Pocket       roulette.Pocket `json:"pocket"`
	Bets         []roulette.Bet  `json:"bets"`
	Staked       decimal.Decimal `json:"staked"`
	Returned     decimal.Decimal `json:"returned"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
}

// Net is the round's profit or loss.
func (s SpinResult) Net() decimal.Decimal {
	return s.Returned.Sub(s.Staked)
}

// SessionResult is the outcome of one session.
type SessionResult struct {
	InitialBudget decimal.Decimal `json:"initial_budget"`
	FinalBalance  decimal.Decimal `json:"final_balance"`
	TotalSpins    int             `json:"total_spins"`
	ReachedTarget bool            `json:"reached_target"`
	EndReason     EndReason       `json:"end_reason"`
	History       []SpinResult    `json:"history,omitempty"`
	Stats         Statistics      `json:"stats"`
}

// Profit is the final balance minus the initial budget.
func (r SessionResult) Profit() decimal.Decimal {
	return r.FinalBalance.Sub(r.InitialBudget)
}

// BatchSessionResult aggregates many independent sessions.
type BatchSessionResult struct {
	TotalSimulations      int               `json:"total_simulations"`
	InitialBudget         decimal.Decimal   `json:"initial_budget"`
	SuccessfulSessions    int               `json:"successful_sessions"`
	SessionsReachedTarget int               `json:"sessions_reached_target"`
	BankruptSessions      int               `json:"bankrupt_sessions"`
	AverageFinalBalance   decimal.Decimal   `json:"average_final_balance"`
	StandardDeviation     decimal.Decimal   `json:"standard_deviation"`
	BestSessionBalance    decimal.Decimal   `json:"best_session_balance"`
	WorstSessionBalance   decimal.Decimal   `json:"worst_session_balance"`
	FinalBalances         []decimal.Decimal `json:"final_balances"`
	EndReasons            map[EndReason]int `json:"end_reasons"`
	TotalSpins            int               `json:"total_spins"`
}

// SuccessRate is the fraction of sessions that finished above budget.
func (b BatchSessionResult) SuccessRate() float64 {
	return fraction(b.SuccessfulSessions, b.TotalSimulations)
}

// TargetRate is the fraction of sessions that reached the target.
func (b BatchSessionResult) TargetRate() float64 {
	return fraction(b.SessionsReachedTarget, b.TotalSimulations)
}

// BankruptcyRate is the fraction of sessions that ended at or below zero.
func (b BatchSessionResult) BankruptcyRate() float64 {
	return fraction(b.BankruptSessions, b.TotalSimulations)
}

func fraction(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total)
}
