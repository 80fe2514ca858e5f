package strategy

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/MJE43/roulette-strategy-sim/internal/engine"
	"github.com/MJE43/roulette-strategy-sim/internal/roulette"
)

// Param describes one construction parameter.
type Param struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Default     string `json:"default,omitempty"`
	Description string `json:"description"`
}

// Descriptor is a catalog entry for a registered strategy.
type Descriptor struct {
	Key         string  `json:"key"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Params      []Param `json:"params"`

	build func(Params, Env) (Strategy, error)
}

// Env carries per-session dependencies that are not user parameters.
type Env struct {
	Variant roulette.Variant
	Source  engine.Source
}

var registry = map[string]Descriptor{}

// register adds a strategy to the catalog, replacing any with the same key.
func register(d Descriptor) {
	registry[d.Key] = d
}

// Lookup returns the descriptor registered under key.
func Lookup(key string) (Descriptor, bool) {
	d, ok := registry[key]
	return d, ok
}

// Catalog returns every registered strategy ordered by key.
func Catalog() []Descriptor {
	out := make([]Descriptor, 0, len(registry))
	for _, d := range registry {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Build constructs a fresh strategy from its key and parameters.
func Build(key string, params Params, env Env) (Strategy, error) {
	d, ok := registry[key]
	if !ok {
		return nil, fmt.Errorf("%w: unknown strategy %q", roulette.ErrInvalidArgument, key)
	}
	if params == nil {
		params = Params{}
	}
	return d.build(params, env)
}

var (
	amountParam = Param{Name: "amount", Kind: "decimal", Default: "10", Description: "stake per bet"}
	baseParam   = Param{Name: "base", Kind: "decimal", Default: "10", Description: "base stake"}
	unitParam   = Param{Name: "unit", Kind: "decimal", Default: "1", Description: "stake per progression unit"}

	ten = decimal.NewFromInt(10)
	one = decimal.NewFromInt(1)
)

// built returns a nil Strategy on error.
func built[S Strategy](s S, err error) (Strategy, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}

// dozenVariant registers a history-adaptive double-dozen strategy that
// takes only a per-dozen stake.
func dozenVariant[S Strategy](key, name, description string, ctor func(decimal.Decimal) (S, error)) Descriptor {
	return Descriptor{
		Key:         key,
		Name:        name,
		Description: description,
		Params:      []Param{amountParam},
		build: func(p Params, _ Env) (Strategy, error) {
			amount, err := p.decimalOr("amount", ten)
			if err != nil {
				return nil, err
			}
			return built(ctor(amount))
		},
	}
}

func init() {
	register(Descriptor{
		Key:         "dozen",
		Name:        "Dozen",
		Description: "Flat bet on a single dozen.",
		Params: []Param{
			{Name: "dozen", Kind: "int", Default: "1", Description: "dozen index 1-3"},
			amountParam,
		},
		build: func(p Params, _ Env) (Strategy, error) {
			index, err := p.intOr("dozen", 1)
			if err != nil {
				return nil, err
			}
			amount, err := p.decimalOr("amount", ten)
			if err != nil {
				return nil, err
			}
			return built(NewDozen(index, amount))
		},
	})

	register(Descriptor{
		Key:         "double-dozen",
		Name:        "Double Dozen",
		Description: "Flat bet on two distinct dozens.",
		Params: []Param{
			{Name: "dozen1", Kind: "int", Default: "1", Description: "first dozen index"},
			{Name: "dozen2", Kind: "int", Default: "2", Description: "second dozen index"},
			amountParam,
		},
		build: func(p Params, _ Env) (Strategy, error) {
			d1, err := p.intOr("dozen1", 1)
			if err != nil {
				return nil, err
			}
			d2, err := p.intOr("dozen2", 2)
			if err != nil {
				return nil, err
			}
			amount, err := p.decimalOr("amount", ten)
			if err != nil {
				return nil, err
			}
			return built(NewDoubleDozen(d1, d2, amount))
		},
	})

	register(Descriptor{
		Key:         "street",
		Name:        "Street",
		Description: "Flat bet on one street of three numbers.",
		Params: []Param{
			{Name: "start", Kind: "int", Default: "1", Description: "first number of the street (1, 4, ... 34)"},
			amountParam,
		},
		build: func(p Params, _ Env) (Strategy, error) {
			start, err := p.intOr("start", 1)
			if err != nil {
				return nil, err
			}
			amount, err := p.decimalOr("amount", ten)
			if err != nil {
				return nil, err
			}
			return built(NewStreet(start, amount))
		},
	})

	register(Descriptor{
		Key:         "random",
		Name:        "Random Single Number",
		Description: "Straight-up bet on a randomly chosen pocket each round.",
		Params:      []Param{amountParam},
		build: func(p Params, env Env) (Strategy, error) {
			amount, err := p.decimalOr("amount", ten)
			if err != nil {
				return nil, err
			}
			return built(NewRandom(amount, env.Variant, env.Source))
		},
	})

	register(Descriptor{
		Key:         "roulette30",
		Name:        "Roulette 30",
		Description: "Dozens 1 and 2 plus the 25-30 line.",
		Params: []Param{
			{Name: "dozen_amount", Kind: "decimal", Default: "10", Description: "stake per dozen"},
			{Name: "line_amount", Kind: "decimal", Default: "5", Description: "stake on the line"},
		},
		build: func(p Params, _ Env) (Strategy, error) {
			dozen, err := p.decimalOr("dozen_amount", ten)
			if err != nil {
				return nil, err
			}
			line, err := p.decimalOr("line_amount", decimal.NewFromInt(5))
			if err != nil {
				return nil, err
			}
			return built(NewRoulette30(dozen, line))
		},
	})

	register(Descriptor{
		Key:         "roulette36",
		Name:        "Roulette 36",
		Description: "Zero, dozen 1 and high (19-36).",
		Params: []Param{
			{Name: "zero_amount", Kind: "decimal", Default: "1", Description: "stake on zero"},
			{Name: "dozen_amount", Kind: "decimal", Default: "10", Description: "stake on dozen 1"},
			{Name: "high_amount", Kind: "decimal", Default: "15", Description: "stake on high"},
		},
		build: func(p Params, _ Env) (Strategy, error) {
			zero, err := p.decimalOr("zero_amount", one)
			if err != nil {
				return nil, err
			}
			dozen, err := p.decimalOr("dozen_amount", ten)
			if err != nil {
				return nil, err
			}
			high, err := p.decimalOr("high_amount", decimal.NewFromInt(15))
			if err != nil {
				return nil, err
			}
			return built(NewRoulette36(zero, dozen, high))
		},
	})

	register(Descriptor{
		Key:         "martingale",
		Name:        "Martingale",
		Description: "Red; double after a loss, back to base after a win.",
		Params:      []Param{baseParam},
		build: func(p Params, _ Env) (Strategy, error) {
			base, err := p.decimalOr("base", ten)
			if err != nil {
				return nil, err
			}
			return built(NewMartingale(base))
		},
	})

	register(Descriptor{
		Key:         "dalembert",
		Name:        "D'Alembert",
		Description: "Red; one unit up after a loss, one unit down after a win.",
		Params:      []Param{baseParam, unitParam},
		build: func(p Params, _ Env) (Strategy, error) {
			base, err := p.decimalOr("base", ten)
			if err != nil {
				return nil, err
			}
			unit, err := p.decimalOr("unit", one)
			if err != nil {
				return nil, err
			}
			return built(NewDAlembert(base, unit))
		},
	})

	register(Descriptor{
		Key:         "fibonacci",
		Name:        "Fibonacci",
		Description: "Black; one step up the sequence after a loss, two down after a win.",
		Params:      []Param{unitParam},
		build: func(p Params, _ Env) (Strategy, error) {
			unit, err := p.decimalOr("unit", one)
			if err != nil {
				return nil, err
			}
			return built(NewFibonacci(unit))
		},
	})

	register(Descriptor{
		Key:         "alternate-color",
		Name:        "Alternate Color (Fibonacci)",
		Description: "Fibonacci progression that switches colour after every loss.",
		Params:      []Param{unitParam},
		build: func(p Params, _ Env) (Strategy, error) {
			unit, err := p.decimalOr("unit", one)
			if err != nil {
				return nil, err
			}
			return built(NewAlternateColor(unit))
		},
	})

	register(Descriptor{
		Key:         "labouchere",
		Name:        "Labouchere",
		Description: "Red; cancellation line staking first plus last entry.",
		Params: []Param{
			{Name: "sequence", Kind: "decimal list", Default: "1,2,3,4", Description: "starting line"},
			unitParam,
		},
		build: func(p Params, _ Env) (Strategy, error) {
			seq, err := p.decimalList("sequence")
			if err != nil {
				return nil, err
			}
			unit, err := p.decimalOr("unit", one)
			if err != nil {
				return nil, err
			}
			return built(NewLabouchere(seq, unit))
		},
	})

	register(dozenVariant("double-dozen-alt01", "Double Dozen Alternate 01",
		"Two dozens other than the last hit; stake triples after a loss.",
		NewDoubleDozenAlternate01))
	register(dozenVariant("double-dozen-alt02", "Double Dozen Alternate 02",
		"Two dozens other than the last hit; colour Fibonacci after a loss.",
		NewDoubleDozenAlternate02))
	register(dozenVariant("double-dozen-alt03", "Double Dozen Alternate 03",
		"Two coldest dozens over ten spins; colour Fibonacci after a loss.",
		NewDoubleDozenAlternate03))
	register(dozenVariant("double-dozen-change-on-win", "Double Dozen Change on Win",
		"Repeat the same dozens with a Fibonacci stake until a win.",
		NewDoubleDozenChangeOnWin))
	register(dozenVariant("dozen-wait", "Dozen Wait",
		"Wait for a dozen to hit three times, then bet the other two.",
		NewDozenWait))

	register(Descriptor{
		Key:         "script",
		Name:        "Script",
		Description: "JavaScript strategy defining nextbets(history, balance).",
		Params: []Param{
			{Name: "source", Kind: "string", Description: "script source"},
			{Name: "name", Kind: "string", Default: "Script", Description: "display name"},
		},
		build: func(p Params, _ Env) (Strategy, error) {
			source, err := p.stringOr("source", "")
			if err != nil {
				return nil, err
			}
			name, err := p.stringOr("name", "Script")
			if err != nil {
				return nil, err
			}
			return built(NewScript(name, source))
		},
	})
}
