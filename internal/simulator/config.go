// Package simulator runs betting strategies against a wheel and aggregates
// the outcomes of single sessions and batches.
package simulator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/MJE43/roulette-strategy-sim/internal/roulette"
)

// SessionConfig bounds one session.
type SessionConfig struct {
	InitialBudget decimal.Decimal  `json:"initial_budget"`
	MaxSpins      int              `json:"max_spins"`
	TargetBalance *decimal.Decimal `json:"target_balance,omitempty"`
}

// NewSessionConfig validates and returns a session configuration. A nil
// target means the session only ends on spins, folding or bankruptcy.
func NewSessionConfig(initialBudget decimal.Decimal, maxSpins int, target *decimal.Decimal) (SessionConfig, error) {
	cfg := SessionConfig{InitialBudget: initialBudget, MaxSpins: maxSpins, TargetBalance: target}
	if err := cfg.Validate(); err != nil {
		return SessionConfig{}, err
	}
	return cfg, nil
}

// Validate checks the budget, the spin limit and the target.
func (c SessionConfig) Validate() error {
	if !c.InitialBudget.IsPositive() {
		return fmt.Errorf("%w: initial budget must be positive, got %s", roulette.ErrInvalidArgument, c.InitialBudget)
	}
	if c.MaxSpins < 0 {
		return fmt.Errorf("%w: max spins must not be negative, got %d", roulette.ErrInvalidArgument, c.MaxSpins)
	}
	if c.TargetBalance != nil && c.TargetBalance.LessThanOrEqual(c.InitialBudget) {
		return fmt.Errorf("%w: target balance %s must exceed initial budget %s",
			roulette.ErrInvalidArgument, c.TargetBalance, c.InitialBudget)
	}
	return nil
}

func (c SessionConfig) reached(balance decimal.Decimal) bool {
	return c.TargetBalance != nil && balance.GreaterThanOrEqual(*c.TargetBalance)
}
