package roulette

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestPayoutRatios(t *testing.T) {
	tests := []struct {
		t    BetType
		want int64
	}{
		{Straight, 35},
		{Split, 17},
		{StreetBet, 11},
		{Corner, 8},
		{FiveNumber, 6},
		{LineBet, 5},
		{ColumnBet, 2},
		{DozenBet, 2},
		{RedBlack, 1},
		{EvenOdd, 1},
		{LowHigh, 1},
		{NoBet, 0},
	}
	for _, tt := range tests {
		if got := PayoutRatio(tt.t); !got.Equal(decimal.NewFromInt(tt.want)) {
			t.Errorf("PayoutRatio(%s) = %s, want %d", tt.t, got, tt.want)
		}
	}
}

func TestCalculateWinnings(t *testing.T) {
	dozen1, _ := Dozen(1)
	street1, _ := Street(1)
	zero, _ := NewNumberSet(0)

	tests := []struct {
		name   string
		bet    Bet
		number int
		want   string
	}{
		{"dozen hit", Bet{decimal.NewFromInt(10), DozenBet, dozen1}, 5, "30"},
		{"dozen miss", Bet{decimal.NewFromInt(10), DozenBet, dozen1}, 13, "0"},
		{"red hit", Bet{decimal.NewFromInt(20), RedBlack, Reds()}, 1, "40"},
		{"red miss on zero", Bet{decimal.NewFromInt(20), RedBlack, Reds()}, 0, "0"},
		{"straight zero", Bet{decimal.NewFromInt(1), Straight, zero}, 0, "36"},
		{"street fractional", Bet{decimal.RequireFromString("2.5"), StreetBet, street1}, 3, "30"},
		{"no bet never pays", NoBetPlaceholder(), 0, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateWinnings(tt.bet, tt.number)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("CalculateWinnings() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestWinningsIdentity(t *testing.T) {
	// For every bet type and every number, winnings are amount*(1+ratio) on a
	// hit and zero otherwise.
	amount := decimal.RequireFromString("7.25")
	sets := map[BetType]NumberSet{
		RedBlack: Reds(),
		LowHigh:  High(),
		EvenOdd:  Evens(),
	}
	sets[DozenBet], _ = Dozen(2)
	sets[LineBet], _ = Line(3)
	sets[ColumnBet], _ = Column(2)
	sets[StreetBet], _ = Street(7)
	sets[Straight], _ = NewNumberSet(17)

	for bt, targets := range sets {
		bet := Bet{Amount: amount, Type: bt, Targets: targets}
		for n := 0; n <= DoubleZero; n++ {
			got := CalculateWinnings(bet, n)
			want := decimal.Zero
			if targets.Contains(n) {
				want = amount.Mul(decimal.NewFromInt(1).Add(PayoutRatio(bt)))
			}
			if !got.Equal(want) {
				t.Errorf("%s on %d: got %s, want %s", bt, n, got, want)
			}
		}
	}
}

func TestTotalWinningsAndStake(t *testing.T) {
	d1, _ := Dozen(1)
	d2, _ := Dozen(2)
	bets := []Bet{
		{decimal.NewFromInt(10), DozenBet, d1},
		{decimal.NewFromInt(10), DozenBet, d2},
	}

	if got := TotalStake(bets); !got.Equal(decimal.NewFromInt(20)) {
		t.Errorf("TotalStake = %s, want 20", got)
	}
	if got := TotalWinnings(bets, 14); !got.Equal(decimal.NewFromInt(30)) {
		t.Errorf("TotalWinnings on 14 = %s, want 30", got)
	}
	if got := TotalWinnings(bets, 30); !got.IsZero() {
		t.Errorf("TotalWinnings on 30 = %s, want 0", got)
	}
	if got := TotalWinnings(nil, 1); !got.IsZero() {
		t.Errorf("TotalWinnings(nil) = %s, want 0", got)
	}
}

func TestNewBetValidation(t *testing.T) {
	reds := Reds()
	if _, err := NewBet(decimal.NewFromInt(-1), RedBlack, reds); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for negative amount, got %v", err)
	}
	if _, err := NewBet(decimal.NewFromInt(1), DozenBet, 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for empty targets, got %v", err)
	}
	if _, err := NewBet(decimal.NewFromInt(1), BetType(99), reds); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for unknown type, got %v", err)
	}

	nb, err := NewBet(decimal.NewFromInt(5), NoBet, reds)
	if err != nil {
		t.Fatalf("NewBet(NoBet) failed: %v", err)
	}
	if !nb.Amount.IsZero() || !nb.Targets.IsEmpty() {
		t.Errorf("NoBet should be zero amount with no targets, got %+v", nb)
	}
}

func TestParseBetType(t *testing.T) {
	tests := map[string]BetType{
		"straight":    Straight,
		"red_black":   RedBlack,
		"redblack":    RedBlack,
		"five-number": FiveNumber,
		"NO_BET":      NoBet,
		"nobet":       NoBet,
		"dozen":       DozenBet,
	}
	for in, want := range tests {
		got, err := ParseBetType(in)
		if err != nil {
			t.Errorf("ParseBetType(%q) failed: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseBetType(%q) = %s, want %s", in, got, want)
		}
	}
	if _, err := ParseBetType("neighbours"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestBetJSON(t *testing.T) {
	d3, _ := Dozen(3)
	bet := Bet{Amount: decimal.RequireFromString("12.5"), Type: DozenBet, Targets: d3}
	data, err := json.Marshal(bet)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded Bet
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !decoded.Amount.Equal(bet.Amount) || decoded.Type != bet.Type || decoded.Targets != bet.Targets {
		t.Errorf("round trip mismatch: %+v vs %+v", decoded, bet)
	}
}
