package roulette

import (
	"fmt"
	"strings"
	"sync"

	"github.com/MJE43/roulette-strategy-sim/internal/engine"
)

// Variant selects the pocket layout.
type Variant int

const (
	European Variant = iota
	American
)

func (v Variant) String() string {
	if v == American {
		return "american"
	}
	return "european"
}

// MarshalText implements encoding.TextMarshaler.
func (v Variant) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Variant) UnmarshalText(text []byte) error {
	parsed, err := ParseVariant(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// PocketCount returns 37 for European wheels and 38 for American.
func (v Variant) PocketCount() int {
	if v == American {
		return 38
	}
	return 37
}

// ParseVariant accepts "european"/"eu" and "american"/"us". Empty means European.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "european", "eu", "europe":
		return European, nil
	case "american", "us", "usa":
		return American, nil
	default:
		return European, fmt.Errorf("%w: unknown wheel variant %q", ErrInvalidArgument, s)
	}
}

// Spinner produces one winning pocket per call.
type Spinner interface {
	Spin() Pocket
}

// Wheel is a fixed pocket population drawn from by an injected Source.
type Wheel struct {
	variant Variant
	pockets []Pocket
	source  engine.Source
}

// NewWheel builds the pocket list for variant. A nil source falls back to a
// randomly seeded RandSource.
func NewWheel(variant Variant, source engine.Source) *Wheel {
	if source == nil {
		source = engine.NewRandSource(0)
	}
	pockets := make([]Pocket, 0, variant.PocketCount())
	pockets = append(pockets, Pocket{Number: 0, Color: Green})
	if variant == American {
		pockets = append(pockets, Pocket{Number: DoubleZero, Color: Green})
	}
	for n := 1; n <= 36; n++ {
		pockets = append(pockets, Pocket{Number: n, Color: colorOf(n)})
	}
	return &Wheel{variant: variant, pockets: pockets, source: source}
}

// Spin draws one pocket uniformly at random.
func (w *Wheel) Spin() Pocket {
	return w.pockets[w.source.Intn(len(w.pockets))]
}

// Pockets returns a copy of the pocket list.
func (w *Wheel) Pockets() []Pocket {
	out := make([]Pocket, len(w.pockets))
	copy(out, w.pockets)
	return out
}

// Variant returns the wheel layout.
func (w *Wheel) Variant() Variant {
	return w.variant
}

// FixedWheel replays a fixed pocket sequence, wrapping around at the end.
// It is the deterministic stand-in for Wheel in tests and replays.
type FixedWheel struct {
	mu      sync.Mutex
	pockets []Pocket
	next    int
	drawn   int
}

// NewFixedWheel returns a wheel serving pockets in order.
func NewFixedWheel(pockets ...Pocket) (*FixedWheel, error) {
	if len(pockets) == 0 {
		return nil, fmt.Errorf("%w: fixed wheel needs at least one pocket", ErrInvalidArgument)
	}
	seq := make([]Pocket, len(pockets))
	copy(seq, pockets)
	return &FixedWheel{pockets: seq}, nil
}

// Spin returns the next queued pocket.
func (w *FixedWheel) Spin() Pocket {
	w.mu.Lock()
	defer w.mu.Unlock()
	p := w.pockets[w.next]
	w.next = (w.next + 1) % len(w.pockets)
	w.drawn++
	return p
}

// Drawn returns how many pockets have been served.
func (w *FixedWheel) Drawn() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.drawn
}

// Rewind restarts the sequence from the first pocket.
func (w *FixedWheel) Rewind() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.next = 0
}
