package roulette

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// BetType identifies a roulette wager and its payout ratio.
type BetType int

const (
	NoBet BetType = iota
	Straight
	Split
	StreetBet
	Corner
	FiveNumber
	LineBet
	ColumnBet
	DozenBet
	RedBlack
	EvenOdd
	LowHigh
)

var betTypeNames = map[BetType]string{
	NoBet:      "no_bet",
	Straight:   "straight",
	Split:      "split",
	StreetBet:  "street",
	Corner:     "corner",
	FiveNumber: "five_number",
	LineBet:    "line",
	ColumnBet:  "column",
	DozenBet:   "dozen",
	RedBlack:   "red_black",
	EvenOdd:    "even_odd",
	LowHigh:    "low_high",
}

func (t BetType) String() string {
	if name, ok := betTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("bet_type(%d)", int(t))
}

// MarshalText implements encoding.TextMarshaler.
func (t BetType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *BetType) UnmarshalText(text []byte) error {
	parsed, err := ParseBetType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseBetType accepts the snake_case names, with or without underscores.
func ParseBetType(s string) (BetType, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for t, name := range betTypeNames {
		if key == name || key == strings.ReplaceAll(name, "_", "") {
			return t, nil
		}
	}
	return NoBet, fmt.Errorf("%w: unknown bet type %q", ErrInvalidArgument, s)
}

// Bet is one wager for one round. Strategies build fresh values each round.
type Bet struct {
	Amount  decimal.Decimal `json:"amount"`
	Type    BetType         `json:"type"`
	Targets NumberSet       `json:"targets"`
}

// NewBet validates and returns a bet.
func NewBet(amount decimal.Decimal, t BetType, targets NumberSet) (Bet, error) {
	if amount.IsNegative() {
		return Bet{}, fmt.Errorf("%w: bet amount %s is negative", ErrInvalidArgument, amount)
	}
	if _, ok := betTypeNames[t]; !ok {
		return Bet{}, fmt.Errorf("%w: unknown bet type %d", ErrInvalidArgument, int(t))
	}
	if t != NoBet && targets.IsEmpty() {
		return Bet{}, fmt.Errorf("%w: %s bet needs target numbers", ErrInvalidArgument, t)
	}
	if t == NoBet {
		return NoBetPlaceholder(), nil
	}
	return Bet{Amount: amount, Type: t, Targets: targets}, nil
}

// NoBetPlaceholder is the zero-stake bet used to sit out a spin.
func NoBetPlaceholder() Bet {
	return Bet{Amount: decimal.Zero, Type: NoBet}
}

func (b Bet) String() string {
	if b.Type == NoBet {
		return "no bet"
	}
	return fmt.Sprintf("%s %s on %s", b.Type, b.Amount.StringFixed(2), b.Targets)
}

var payoutRatios = map[BetType]decimal.Decimal{
	Straight:   decimal.NewFromInt(35),
	Split:      decimal.NewFromInt(17),
	StreetBet:  decimal.NewFromInt(11),
	Corner:     decimal.NewFromInt(8),
	FiveNumber: decimal.NewFromInt(6),
	LineBet:    decimal.NewFromInt(5),
	ColumnBet:  decimal.NewFromInt(2),
	DozenBet:   decimal.NewFromInt(2),
	RedBlack:   decimal.NewFromInt(1),
	EvenOdd:    decimal.NewFromInt(1),
	LowHigh:    decimal.NewFromInt(1),
}

// PayoutRatio returns the profit multiplier for t, excluding the returned stake.
func PayoutRatio(t BetType) decimal.Decimal {
	if r, ok := payoutRatios[t]; ok {
		return r
	}
	return decimal.Zero
}

// CalculateWinnings returns the total paid back for bet when winningNumber
// comes up: amount * (1 + ratio) on a hit, zero otherwise.
func CalculateWinnings(bet Bet, winningNumber int) decimal.Decimal {
	if !bet.Targets.Contains(winningNumber) {
		return decimal.Zero
	}
	return bet.Amount.Add(bet.Amount.Mul(PayoutRatio(bet.Type)))
}

// TotalWinnings sums CalculateWinnings over simultaneous bets.
func TotalWinnings(bets []Bet, winningNumber int) decimal.Decimal {
	total := decimal.Zero
	for _, b := range bets {
		total = total.Add(CalculateWinnings(b, winningNumber))
	}
	return total
}

// TotalStake sums the amounts of bets.
func TotalStake(bets []Bet) decimal.Decimal {
	total := decimal.Zero
	for _, b := range bets {
		total = total.Add(b.Amount)
	}
	return total
}
