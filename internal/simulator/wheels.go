package simulator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/MJE43/roulette-strategy-sim/internal/engine"
	"github.com/MJE43/roulette-strategy-sim/internal/roulette"
	"github.com/MJE43/roulette-strategy-sim/internal/strategy"
)

// strategySalt separates strategy random streams from wheel streams of the
// same seed.
const strategySalt = 0x5a17c0ffee

// WheelSpec describes where the pockets of a run come from. Pockets take
// precedence over ServerSeed, which takes precedence over Seed. A zero Seed
// gives an unreproducible random run.
type WheelSpec struct {
	Variant    roulette.Variant
	Seed       uint64
	ServerSeed string
	ClientSeed string
	Pockets    []roulette.Pocket
}

// Validate rejects replay pockets the variant's wheel does not have.
func (w WheelSpec) Validate() error {
	for _, p := range w.Pockets {
		if p.Number == roulette.DoubleZero && w.Variant != roulette.American {
			return fmt.Errorf("%w: pocket 00 does not exist on a %s wheel", roulette.ErrInvalidArgument, w.Variant)
		}
	}
	return nil
}

// Label describes the randomness of a spec for run records. A server seed
// appears only as a hash prefix.
func (w WheelSpec) Label() string {
	switch {
	case len(w.Pockets) > 0:
		return "replay"
	case w.ServerSeed != "":
		sum := sha256.Sum256([]byte(w.ServerSeed))
		return "hmac:" + hex.EncodeToString(sum[:])[:16] + "/" + w.ClientSeed
	default:
		return strconv.FormatUint(w.Seed, 10)
	}
}

// Source returns the random source for wheel stream i. Stream 0 of a seeded
// spec uses Seed itself.
func (w WheelSpec) Source(stream int) engine.Source {
	switch {
	case w.ServerSeed != "":
		return engine.NewSeedSource(w.ServerSeed, w.ClientSeed, uint64(stream)<<32)
	case w.Seed == 0:
		return engine.NewRandSource(0)
	case stream == 0:
		return engine.NewRandSource(w.Seed)
	default:
		return engine.NewRandSource(engine.SplitSeed(w.Seed, stream))
	}
}

// StrategySource returns the random source for strategies of stream i, such
// as the random-pick strategy. It never shares state with Source(i).
func (w WheelSpec) StrategySource(stream int) engine.Source {
	switch {
	case w.ServerSeed != "":
		return engine.NewSeedSource(w.ServerSeed, w.ClientSeed+":strategy", uint64(stream)<<32)
	case w.Seed == 0:
		return engine.NewRandSource(0)
	default:
		return engine.NewRandSource(engine.SplitSeed(w.Seed^strategySalt, stream))
	}
}

// Wheel returns the spinner for stream i: a replay wheel starting at the
// first pocket when Pockets is set, otherwise a wheel of Variant drawing
// from Source(i).
func (w WheelSpec) Wheel(stream int) roulette.Spinner {
	if len(w.Pockets) > 0 {
		// Non-empty, so this cannot fail.
		fixed, _ := roulette.NewFixedWheel(w.Pockets...)
		return fixed
	}
	return roulette.NewWheel(w.Variant, w.Source(stream))
}

// StrategyFactory returns a constructor for RunParallelBatch. Call i builds
// a fresh strategy drawing from StrategySource(i). Calls must not overlap.
func StrategyFactory(key string, params strategy.Params, spec WheelSpec) func() (strategy.Strategy, error) {
	var stream int
	return func() (strategy.Strategy, error) {
		env := strategy.Env{Variant: spec.Variant, Source: spec.StrategySource(stream)}
		stream++
		return strategy.Build(key, params, env)
	}
}

// RunBatch plays n sessions of strategy key against the spec. Seeded specs
// give session i wheel stream i and strategy stream i, so a seeded batch
// reproduces for any worker count. Replay specs continue one pocket queue
// across sessions in order, so they run on the calling goroutine and
// workers is ignored.
func (w WheelSpec) RunBatch(
	ctx context.Context,
	key string,
	params strategy.Params,
	cfg SessionConfig,
	n, workers int,
	opts ...Option,
) (BatchSessionResult, error) {
	if len(w.Pockets) == 0 {
		opts = append(opts, WithStrategySources(w.StrategySource))
		return RunParallelBatch(ctx, StrategyFactory(key, params, w), w.Wheel, cfg, n, workers, opts...)
	}

	if err := ctx.Err(); err != nil {
		return BatchSessionResult{}, err
	}
	st, err := StrategyFactory(key, params, w)()
	if err != nil {
		return BatchSessionResult{}, err
	}
	return New(w.Wheel(0), opts...).RunBatch(st, cfg, n)
}
