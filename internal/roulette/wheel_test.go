package roulette

import (
	"errors"
	"testing"

	"github.com/MJE43/roulette-strategy-sim/internal/engine"
)

func TestWheelPocketCounts(t *testing.T) {
	tests := []struct {
		variant Variant
		want    int
		hasDZ   bool
	}{
		{European, 37, false},
		{American, 38, true},
	}

	for _, tt := range tests {
		t.Run(tt.variant.String(), func(t *testing.T) {
			w := NewWheel(tt.variant, engine.NewRandSource(1))
			pockets := w.Pockets()
			if len(pockets) != tt.want {
				t.Fatalf("expected %d pockets, got %d", tt.want, len(pockets))
			}

			seen := make(map[int]bool)
			for _, p := range pockets {
				if seen[p.Number] {
					t.Errorf("duplicate pocket %d", p.Number)
				}
				seen[p.Number] = true
			}
			if !seen[0] {
				t.Error("expected pocket 0")
			}
			if seen[DoubleZero] != tt.hasDZ {
				t.Errorf("00 present = %v, want %v", seen[DoubleZero], tt.hasDZ)
			}
		})
	}
}

func TestWheelSpinReturnsMember(t *testing.T) {
	for _, variant := range []Variant{European, American} {
		w := NewWheel(variant, engine.NewRandSource(3))
		members := make(map[Pocket]bool)
		for _, p := range w.Pockets() {
			members[p] = true
		}
		for i := 0; i < 2000; i++ {
			p := w.Spin()
			if !members[p] {
				t.Fatalf("%s wheel returned non-member pocket %v", variant, p)
			}
		}
	}
}

func TestWheelSpinUsesInjectedSource(t *testing.T) {
	a := NewWheel(American, engine.NewSeedSource("server", "client", 0))
	b := NewWheel(American, engine.NewSeedSource("server", "client", 0))
	for i := 0; i < 50; i++ {
		if pa, pb := a.Spin(), b.Spin(); pa != pb {
			t.Fatalf("spin %d differs: %v vs %v", i, pa, pb)
		}
	}
}

func TestPocketsReturnsCopy(t *testing.T) {
	w := NewWheel(European, engine.NewRandSource(1))
	p := w.Pockets()
	p[0] = Pocket{Number: 99}
	if w.Pockets()[0].Number != 0 {
		t.Error("mutating Pockets() result changed the wheel")
	}
}

func TestFixedWheel(t *testing.T) {
	red1, _ := NewPocket(1)
	black2, _ := NewPocket(2)
	w, err := NewFixedWheel(red1, black2)
	if err != nil {
		t.Fatalf("NewFixedWheel failed: %v", err)
	}

	want := []Pocket{red1, black2, red1}
	for i, exp := range want {
		if got := w.Spin(); got != exp {
			t.Errorf("spin %d: expected %v, got %v", i, exp, got)
		}
	}
	if w.Drawn() != 3 {
		t.Errorf("expected 3 draws, got %d", w.Drawn())
	}

	w.Rewind()
	if got := w.Spin(); got != red1 {
		t.Errorf("expected %v after rewind, got %v", red1, got)
	}

	if _, err := NewFixedWheel(); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for empty wheel, got %v", err)
	}
}

func TestParseVariant(t *testing.T) {
	tests := []struct {
		in      string
		want    Variant
		wantErr bool
	}{
		{"", European, false},
		{"European", European, false},
		{"us", American, false},
		{"american", American, false},
		{"french", European, true},
	}
	for _, tt := range tests {
		got, err := ParseVariant(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseVariant(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseVariant(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParsePockets(t *testing.T) {
	pockets, err := ParsePockets("1, 2,00,0")
	if err != nil {
		t.Fatalf("ParsePockets failed: %v", err)
	}
	want := []Pocket{{1, Red}, {2, Black}, {DoubleZero, Green}, {0, Green}}
	if len(pockets) != len(want) {
		t.Fatalf("expected %d pockets, got %d", len(want), len(pockets))
	}
	for i := range want {
		if pockets[i] != want[i] {
			t.Errorf("pocket %d: expected %v, got %v", i, want[i], pockets[i])
		}
	}

	for _, bad := range []string{"37", "-1", "x", "1,,2"} {
		if _, err := ParsePockets(bad); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("ParsePockets(%q): expected ErrInvalidArgument, got %v", bad, err)
		}
	}

	if FormatNumber(DoubleZero) != "00" {
		t.Errorf("expected 37 to render as 00")
	}
}
