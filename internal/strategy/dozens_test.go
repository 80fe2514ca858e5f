package strategy

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/MJE43/roulette-strategy-sim/internal/roulette"
)

// expect describes a round of two-dozen (or colour) bets.
type expect struct {
	history []int
	noBet   bool
	dozens  [2]int
	color   roulette.NumberSet
	amount  string
}

func checkRounds(t *testing.T, s Strategy, rounds []expect) {
	t.Helper()
	for i, r := range rounds {
		bets := s.NextBets(history(t, r.history...), plenty)
		switch {
		case r.noBet:
			if len(bets) != 1 || bets[0].Type != roulette.NoBet {
				t.Errorf("round %d: expected NoBet, got %v", i, bets)
			}
		case r.color != 0:
			if len(bets) != 1 || bets[0].Type != roulette.RedBlack || bets[0].Targets != r.color {
				t.Errorf("round %d: expected colour bet on %s, got %v", i, r.color, bets)
				continue
			}
			if !bets[0].Amount.Equal(dec(r.amount)) {
				t.Errorf("round %d: amount = %s, want %s", i, bets[0].Amount, r.amount)
			}
		default:
			if len(bets) != 2 {
				t.Errorf("round %d: expected 2 dozen bets, got %v", i, bets)
				continue
			}
			for j, d := range r.dozens {
				if bets[j].Targets != dozenSet(d) {
					t.Errorf("round %d: bet %d on %s, want dozen %d", i, j, bets[j].Targets, d)
				}
				if !bets[j].Amount.Equal(dec(r.amount)) {
					t.Errorf("round %d: bet %d amount = %s, want %s", i, j, bets[j].Amount, r.amount)
				}
			}
		}
	}
}

func TestDoubleDozenAlternate01(t *testing.T) {
	s, err := NewDoubleDozenAlternate01(dec("10"))
	if err != nil {
		t.Fatalf("NewDoubleDozenAlternate01: %v", err)
	}
	checkRounds(t, s, []expect{
		{history: nil, noBet: true},
		{history: []int{5}, dozens: [2]int{2, 3}, amount: "10"},
		{history: []int{5, 13}, dozens: [2]int{1, 3}, amount: "10"},
		{history: []int{5, 13, 14}, dozens: [2]int{1, 3}, amount: "30"},
		{history: []int{5, 13, 14, 0}, noBet: true},
		{history: []int{5, 13, 14, 0, 25}, dozens: [2]int{1, 2}, amount: "90"},
		{history: []int{5, 13, 14, 0, 25, 1}, dozens: [2]int{2, 3}, amount: "10"},
	})
}

func TestDoubleDozenAlternate02(t *testing.T) {
	s, err := NewDoubleDozenAlternate02(dec("10"))
	if err != nil {
		t.Fatalf("NewDoubleDozenAlternate02: %v", err)
	}
	checkRounds(t, s, []expect{
		{history: nil, noBet: true},
		{history: []int{5}, dozens: [2]int{2, 3}, amount: "10"},
		// 1 is red and lost the dozens: switch to black.
		{history: []int{5, 1}, color: roulette.Blacks(), amount: "20"},
		{history: []int{5, 1, 3}, color: roulette.Blacks(), amount: "40"},
		{history: []int{5, 1, 3, 2}, dozens: [2]int{2, 3}, amount: "10"},
		{history: []int{5, 1, 3, 2, 13}, dozens: [2]int{1, 3}, amount: "10"},
	})
}

func TestDoubleDozenAlternate02ZeroStartsRed(t *testing.T) {
	s, _ := NewDoubleDozenAlternate02(dec("10"))
	checkRounds(t, s, []expect{
		{history: nil, noBet: true},
		{history: []int{14}, dozens: [2]int{1, 3}, amount: "10"},
		{history: []int{14, 0}, color: roulette.Reds(), amount: "20"},
	})
}

func TestDoubleDozenAlternate03(t *testing.T) {
	s, err := NewDoubleDozenAlternate03(dec("5"))
	if err != nil {
		t.Fatalf("NewDoubleDozenAlternate03: %v", err)
	}
	checkRounds(t, s, []expect{
		{history: nil, noBet: true},
		{history: []int{13}, dozens: [2]int{1, 3}, amount: "5"},
		{history: []int{13, 25}, dozens: [2]int{1, 2}, amount: "5"},
		// 26 is black and lost the dozens: switch to red.
		{history: []int{13, 25, 26}, color: roulette.Reds(), amount: "10"},
		{history: []int{13, 25, 26, 1}, dozens: [2]int{1, 2}, amount: "5"},
	})
}

func TestColdestPair(t *testing.T) {
	tests := []struct {
		history []int
		want    [2]int
	}{
		{nil, [2]int{1, 2}},
		{[]int{1, 2, 3, 13}, [2]int{2, 3}},
		{[]int{13, 14, 1}, [2]int{1, 3}},
		{[]int{25, 26, 1}, [2]int{1, 2}},
		{[]int{1, 13}, [2]int{1, 2}},
		{[]int{0, 0, 0, 13}, [2]int{1, 3}},
		// Only the trailing ten spins count.
		{[]int{1, 2, 3, 4, 5, 6, 7, 13, 14, 15, 16, 17, 25, 26, 27}, [2]int{1, 3}},
	}
	for _, tt := range tests {
		a, b := coldestPair(history(t, tt.history...))
		if [2]int{a, b} != tt.want {
			t.Errorf("coldestPair(%v) = %d,%d, want %v", tt.history, a, b, tt.want)
		}
	}
}

func TestDoubleDozenChangeOnWin(t *testing.T) {
	s, err := NewDoubleDozenChangeOnWin(dec("10"))
	if err != nil {
		t.Fatalf("NewDoubleDozenChangeOnWin: %v", err)
	}
	checkRounds(t, s, []expect{
		{history: nil, noBet: true},
		{history: []int{13}, dozens: [2]int{1, 3}, amount: "10"},
		{history: []int{13, 25}, dozens: [2]int{1, 2}, amount: "10"},
		{history: []int{13, 25, 30}, dozens: [2]int{1, 2}, amount: "10"},
		{history: []int{13, 25, 30, 36}, dozens: [2]int{1, 2}, amount: "20"},
		{history: []int{13, 25, 30, 36, 31}, dozens: [2]int{1, 2}, amount: "30"},
		{history: []int{13, 25, 30, 36, 31, 2}, dozens: [2]int{1, 2}, amount: "10"},
	})
}

func TestDozenWait(t *testing.T) {
	s, err := NewDozenWait(dec("10"))
	if err != nil {
		t.Fatalf("NewDozenWait: %v", err)
	}
	checkRounds(t, s, []expect{
		{history: nil, noBet: true},
		{history: []int{1}, noBet: true},
		{history: []int{1, 2}, noBet: true},
		{history: []int{1, 2, 3}, dozens: [2]int{2, 3}, amount: "10"},
		{history: []int{1, 2, 3, 4}, dozens: [2]int{2, 3}, amount: "20"},
		{history: []int{1, 2, 3, 4, 5}, dozens: [2]int{2, 3}, amount: "30"},
		{history: []int{1, 2, 3, 4, 5, 13}, noBet: true},
		{history: []int{1, 2, 3, 4, 5, 13, 0}, noBet: true},
	})
}

func TestDozenWaitNeedsStreak(t *testing.T) {
	s, _ := NewDozenWait(dec("10"))
	checkRounds(t, s, []expect{
		{history: []int{1, 13, 25}, noBet: true},
		{history: []int{1, 13, 25, 26}, noBet: true},
		{history: []int{1, 13, 25, 26, 27}, dozens: [2]int{1, 2}, amount: "10"},
	})
}

func TestDozenVariantsFold(t *testing.T) {
	ctors := map[string]func(decimal.Decimal) (Strategy, error){
		"alt01":         func(d decimal.Decimal) (Strategy, error) { return built(NewDoubleDozenAlternate01(d)) },
		"alt02":         func(d decimal.Decimal) (Strategy, error) { return built(NewDoubleDozenAlternate02(d)) },
		"alt03":         func(d decimal.Decimal) (Strategy, error) { return built(NewDoubleDozenAlternate03(d)) },
		"change-on-win": func(d decimal.Decimal) (Strategy, error) { return built(NewDoubleDozenChangeOnWin(d)) },
	}
	for name, ctor := range ctors {
		s, err := ctor(dec("10"))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		s.NextBets(nil, plenty)
		if bets := s.NextBets(history(t, 5), dec("19")); bets != nil {
			t.Errorf("%s: expected fold with balance below two stakes, got %v", name, bets)
		}
		if _, err := ctor(decimal.Zero); err == nil {
			t.Errorf("%s: expected error for zero base", name)
		}
	}
}
