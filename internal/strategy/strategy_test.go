package strategy

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/MJE43/roulette-strategy-sim/internal/roulette"
)

func history(t *testing.T, nums ...int) []roulette.Pocket {
	t.Helper()
	out := make([]roulette.Pocket, 0, len(nums))
	for _, n := range nums {
		p, err := roulette.NewPocket(n)
		if err != nil {
			t.Fatalf("NewPocket(%d): %v", n, err)
		}
		out = append(out, p)
	}
	return out
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var plenty = decimal.NewFromInt(1_000_000)

// step is one call to NextBets: the history passed in and what the single
// returned bet should look like.
type step struct {
	history []int
	amount  string
	target  roulette.NumberSet
}

func runSteps(t *testing.T, s Strategy, steps []step) {
	t.Helper()
	var h []int
	for i, st := range steps {
		h = append(h[:0:0], st.history...)
		bets := s.NextBets(history(t, h...), plenty)
		if len(bets) != 1 {
			t.Fatalf("step %d: expected 1 bet, got %d", i, len(bets))
		}
		if !bets[0].Amount.Equal(dec(st.amount)) {
			t.Errorf("step %d: amount = %s, want %s", i, bets[0].Amount, st.amount)
		}
		if st.target != 0 && bets[0].Targets != st.target {
			t.Errorf("step %d: targets = %s, want %s", i, bets[0].Targets, st.target)
		}
	}
}

func TestMartingaleProgression(t *testing.T) {
	m, err := NewMartingale(dec("10"))
	if err != nil {
		t.Fatalf("NewMartingale: %v", err)
	}
	reds := roulette.Reds()
	runSteps(t, m, []step{
		{history: nil, amount: "10", target: reds},
		{history: []int{2}, amount: "20", target: reds},
		{history: []int{2, 4}, amount: "40", target: reds},
		{history: []int{2, 4, 0}, amount: "80", target: reds},
		{history: []int{2, 4, 0, 1}, amount: "10", target: reds},
	})
}

func TestMartingaleCapsAtBalance(t *testing.T) {
	m, _ := NewMartingale(dec("10"))
	m.NextBets(nil, dec("100"))

	bets := m.NextBets(history(t, 2), dec("15"))
	if len(bets) != 1 || !bets[0].Amount.Equal(dec("15")) {
		t.Fatalf("expected capped stake 15, got %v", bets)
	}

	// The capped stake is the new base for doubling.
	bets = m.NextBets(history(t, 2, 4), dec("100"))
	if len(bets) != 1 || !bets[0].Amount.Equal(dec("30")) {
		t.Fatalf("expected 30 after capped loss, got %v", bets)
	}

	if bets := m.NextBets(history(t, 2, 4, 6), decimal.Zero); bets != nil {
		t.Errorf("expected fold at zero balance, got %v", bets)
	}
}

func TestMartingaleReset(t *testing.T) {
	m, _ := NewMartingale(dec("5"))
	m.NextBets(nil, plenty)
	m.NextBets(history(t, 2), plenty)
	m.Reset()
	bets := m.NextBets(history(t, 2, 4), plenty)
	if !bets[0].Amount.Equal(dec("5")) {
		t.Errorf("after Reset expected base stake, got %s", bets[0].Amount)
	}
}

func TestDAlembertProgression(t *testing.T) {
	d, err := NewDAlembert(dec("10"), dec("2"))
	if err != nil {
		t.Fatalf("NewDAlembert: %v", err)
	}
	runSteps(t, d, []step{
		{history: nil, amount: "10"},
		{history: []int{2}, amount: "12"},
		{history: []int{2, 4}, amount: "14"},
		{history: []int{2, 4, 1}, amount: "12"},
		{history: []int{2, 4, 1, 3}, amount: "10"},
		{history: []int{2, 4, 1, 3, 5}, amount: "10"},
	})
}

func TestFibonacciProgression(t *testing.T) {
	f, err := NewFibonacci(dec("1"))
	if err != nil {
		t.Fatalf("NewFibonacci: %v", err)
	}
	blacks := roulette.Blacks()
	runSteps(t, f, []step{
		{history: nil, amount: "1", target: blacks},
		{history: []int{1}, amount: "1", target: blacks},
		{history: []int{1, 3}, amount: "2", target: blacks},
		{history: []int{1, 3, 5}, amount: "3", target: blacks},
		{history: []int{1, 3, 5, 2}, amount: "1", target: blacks},
	})
}

func TestFibonacciFoldsOverBalance(t *testing.T) {
	f, _ := NewFibonacci(dec("10"))
	if bets := f.NextBets(nil, dec("5")); bets != nil {
		t.Errorf("expected fold, got %v", bets)
	}
}

func TestFibSequenceGrows(t *testing.T) {
	seq := newFibSequence()
	if len(seq.terms) != fibPrecomputed {
		t.Fatalf("expected %d precomputed terms, got %d", fibPrecomputed, len(seq.terms))
	}
	want := []int64{1, 1, 2, 3, 5, 8, 13, 21}
	for i, w := range want {
		if !seq.at(i).Equal(decimal.NewFromInt(w)) {
			t.Errorf("fib[%d] = %s, want %d", i, seq.at(i), w)
		}
	}
	for i := 2; i < 60; i++ {
		if !seq.at(i).Equal(seq.at(i - 1).Add(seq.at(i - 2))) {
			t.Fatalf("fib[%d] breaks the recurrence", i)
		}
	}
}

func TestAlternateColor(t *testing.T) {
	a, err := NewAlternateColor(dec("1"))
	if err != nil {
		t.Fatalf("NewAlternateColor: %v", err)
	}
	reds, blacks := roulette.Reds(), roulette.Blacks()
	runSteps(t, a, []step{
		{history: nil, amount: "1", target: reds},
		{history: []int{2}, amount: "1", target: blacks},
		{history: []int{2, 1}, amount: "2", target: reds},
		{history: []int{2, 1, 3}, amount: "1", target: reds},
	})
}

func TestLabouchere(t *testing.T) {
	l, err := NewLabouchere(nil, dec("1"))
	if err != nil {
		t.Fatalf("NewLabouchere: %v", err)
	}
	runSteps(t, l, []step{
		{history: nil, amount: "5"},
		{history: []int{1}, amount: "5"},
		{history: []int{1, 2}, amount: "7"},
	})

	line := l.Line()
	want := []string{"2", "3", "5"}
	if len(line) != len(want) {
		t.Fatalf("line = %v, want %v", line, want)
	}
	for i := range want {
		if !line[i].Equal(dec(want[i])) {
			t.Errorf("line[%d] = %s, want %s", i, line[i], want[i])
		}
	}
}

func TestLabouchereReinitializes(t *testing.T) {
	l, _ := NewLabouchere([]decimal.Decimal{dec("5")}, dec("2"))
	runSteps(t, l, []step{
		{history: nil, amount: "10"},
		{history: []int{1}, amount: "10"},
	})
}

func TestLabouchereValidation(t *testing.T) {
	if _, err := NewLabouchere([]decimal.Decimal{dec("1"), dec("0")}, dec("1")); err == nil {
		t.Error("expected error for zero entry")
	}
	if _, err := NewLabouchere(nil, dec("-1")); err == nil {
		t.Error("expected error for negative unit")
	}
}

func TestStakeNeverExceedsBalance(t *testing.T) {
	keys := []string{
		"dozen", "double-dozen", "street", "random", "roulette30", "roulette36",
		"martingale", "dalembert", "fibonacci", "alternate-color", "labouchere",
		"double-dozen-alt01", "double-dozen-alt02", "double-dozen-alt03",
		"double-dozen-change-on-win", "dozen-wait",
	}
	spins := []int{2, 4, 6, 8, 0, 13, 13, 13, 25, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	for _, key := range keys {
		s, err := Build(key, nil, Env{Source: fixedSource(7)})
		if err != nil {
			t.Fatalf("Build(%s): %v", key, err)
		}
		balance := dec("60")
		for i := 0; i <= len(spins); i++ {
			bets := s.NextBets(history(t, spins[:i]...), balance)
			if len(bets) == 0 {
				break
			}
			staked := roulette.TotalStake(bets)
			if staked.GreaterThan(balance) {
				t.Fatalf("%s: stake %s exceeds balance %s", key, staked, balance)
			}
			if i < len(spins) {
				balance = balance.Sub(staked).Add(roulette.TotalWinnings(bets, spins[i]))
			}
		}
	}
}
