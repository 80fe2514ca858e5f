package simulator

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/MJE43/roulette-strategy-sim/internal/engine"
	"github.com/MJE43/roulette-strategy-sim/internal/roulette"
	"github.com/MJE43/roulette-strategy-sim/internal/strategy"
)

// Simulator plays sessions of a strategy against one wheel.
type Simulator struct {
	wheel    roulette.Spinner
	observer Observer
	history  bool
	log      *zap.Logger
	sources  func(session int) engine.Source
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithObserver registers an observer for spins and session ends.
func WithObserver(o Observer) Option {
	return func(s *Simulator) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.log = l
		}
	}
}

// WithHistory controls whether SessionResult.History is filled in. It is
// on by default; batches usually turn it off.
func WithHistory(keep bool) Option {
	return func(s *Simulator) { s.history = keep }
}

// WithStrategySources makes RunParallelBatch reseed strategies that
// implement strategy.Reseeder with sources(i) before session i.
func WithStrategySources(sources func(session int) engine.Source) Option {
	return func(s *Simulator) { s.sources = sources }
}

// New creates a simulator drawing from wheel.
func New(wheel roulette.Spinner, opts ...Option) *Simulator {
	s := &Simulator{
		wheel:    wheel,
		observer: NopObserver{},
		history:  true,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run plays one session. The strategy is used as is; callers that reuse a
// strategy across sessions should Reset it first.
func (s *Simulator) Run(strat strategy.Strategy, cfg SessionConfig) SessionResult {
	return s.run(0, strat, cfg)
}

func (s *Simulator) run(session int, strat strategy.Strategy, cfg SessionConfig) SessionResult {
	balance := cfg.InitialBudget
	result := SessionResult{InitialBudget: cfg.InitialBudget}
	stats := NewStatistics(balance)
	var pockets []roulette.Pocket

	ended := false
	for spin := 1; spin <= cfg.MaxSpins && !ended; spin++ {
		if !balance.IsPositive() {
			result.EndReason, ended = Bankrupt, true
			break
		}

		bets := strat.NextBets(pockets, balance)
		if len(bets) == 0 {
			result.EndReason, ended = StrategyFolded, true
			break
		}
		staked := roulette.TotalStake(bets)
		if staked.GreaterThan(balance) {
			result.EndReason, ended = InsufficientFunds, true
			break
		}

		balance = balance.Sub(staked)
		pocket := s.wheel.Spin()
		pockets = append(pockets, pocket)
		returned := roulette.TotalWinnings(bets, pocket.Number)
		balance = balance.Add(returned)

		sr := SpinResult{
			Spin:         spin,
			Pocket:       pocket,
			Bets:         bets,
			Staked:       staked,
			Returned:     returned,
			BalanceAfter: balance,
		}
		result.TotalSpins++
		if s.history {
			result.History = append(result.History, sr)
		}
		stats.Record(sr)
		s.observer.OnSpin(session, sr)

		if cfg.reached(balance) {
			result.EndReason, ended = TargetReached, true
		}
	}

	if !ended {
		if balance.IsPositive() {
			result.EndReason = MaxSpinsReached
		} else {
			result.EndReason = Bankrupt
		}
	}
	result.FinalBalance = balance
	result.ReachedTarget = cfg.reached(balance)
	result.Stats = stats

	s.observer.OnSessionEnd(session, result)
	s.log.Debug("session finished",
		zap.Int("session", session),
		zap.String("strategy", strat.Name()),
		zap.Int("spins", result.TotalSpins),
		zap.Stringer("end_reason", result.EndReason),
		zap.String("final_balance", balance.String()),
	)
	return result
}

// outcome is the part of a session a batch keeps.
type outcome struct {
	final   decimal.Decimal
	reached bool
	reason  EndReason
	spins   int
}

func outcomeOf(r SessionResult) outcome {
	return outcome{final: r.FinalBalance, reached: r.ReachedTarget, reason: r.EndReason, spins: r.TotalSpins}
}

// RunBatch resets the strategy and plays n sessions back to back.
func (s *Simulator) RunBatch(strat strategy.Strategy, cfg SessionConfig, n int) (BatchSessionResult, error) {
	if n < 1 {
		return BatchSessionResult{}, fmt.Errorf("%w: number of simulations must be at least 1, got %d", roulette.ErrInvalidArgument, n)
	}

	outcomes := make([]outcome, n)
	for i := range outcomes {
		strat.Reset()
		outcomes[i] = outcomeOf(s.run(i, strat, cfg))
	}
	return aggregate(cfg.InitialBudget, outcomes), nil
}

// RunParallelBatch plays n sessions across workers goroutines. Each worker
// owns a strategy built by factory. Session i always plays on wheels(i), so
// results depend only on the session index, never on workers or
// scheduling. Results are gathered by session index. workers < 1 means one
// per CPU. A panic inside a session is returned as an error.
func RunParallelBatch(
	ctx context.Context,
	factory func() (strategy.Strategy, error),
	wheels func(session int) roulette.Spinner,
	cfg SessionConfig,
	n, workers int,
	opts ...Option,
) (BatchSessionResult, error) {
	if n < 1 {
		return BatchSessionResult{}, fmt.Errorf("%w: number of simulations must be at least 1, got %d", roulette.ErrInvalidArgument, n)
	}
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}

	strats := make([]strategy.Strategy, workers)
	for w := range strats {
		st, err := factory()
		if err != nil {
			return BatchSessionResult{}, fmt.Errorf("failed to build strategy for worker %d: %w", w, err)
		}
		strats[w] = st
	}

	outcomes := make([]outcome, n)
	jobs := make(chan int)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		for i := 0; i < n; i++ {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		sim := New(nil, opts...)
		st := strats[w]
		g.Go(func() error {
			for i := range jobs {
				if err := ctx.Err(); err != nil {
					return err
				}
				o, err := sim.session(i, wheels(i), st, cfg)
				if err != nil {
					return err
				}
				outcomes[i] = o
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return BatchSessionResult{}, err
	}
	return aggregate(cfg.InitialBudget, outcomes), nil
}

// session plays session i of a parallel batch on wheel.
func (s *Simulator) session(i int, wheel roulette.Spinner, st strategy.Strategy, cfg SessionConfig) (o outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("session panicked", zap.Int("session", i), zap.Any("panic", r))
			err = fmt.Errorf("session %d panicked: %v", i, r)
		}
	}()

	s.wheel = wheel
	if rs, ok := st.(strategy.Reseeder); ok && s.sources != nil {
		rs.Reseed(s.sources(i))
	}
	st.Reset()
	return outcomeOf(s.run(i, st, cfg)), nil
}

func aggregate(initial decimal.Decimal, outcomes []outcome) BatchSessionResult {
	n := len(outcomes)
	res := BatchSessionResult{
		TotalSimulations: n,
		InitialBudget:    initial,
		FinalBalances:    make([]decimal.Decimal, n),
		EndReasons:       make(map[EndReason]int),
	}
	if n == 0 {
		return res
	}

	sum := decimal.Zero
	res.BestSessionBalance = outcomes[0].final
	res.WorstSessionBalance = outcomes[0].final
	for i, o := range outcomes {
		res.FinalBalances[i] = o.final
		sum = sum.Add(o.final)
		res.TotalSpins += o.spins
		res.EndReasons[o.reason]++

		if o.final.GreaterThan(initial) {
			res.SuccessfulSessions++
		}
		if o.reached {
			res.SessionsReachedTarget++
		}
		if !o.final.IsPositive() {
			res.BankruptSessions++
		}
		if o.final.GreaterThan(res.BestSessionBalance) {
			res.BestSessionBalance = o.final
		}
		if o.final.LessThan(res.WorstSessionBalance) {
			res.WorstSessionBalance = o.final
		}
	}

	count := decimal.NewFromInt(int64(n))
	mean := sum.Div(count)
	squares := decimal.Zero
	for _, o := range outcomes {
		d := o.final.Sub(mean)
		squares = squares.Add(d.Mul(d))
	}
	variance := squares.Div(count)

	res.AverageFinalBalance = mean
	res.StandardDeviation = decimal.NewFromFloat(math.Sqrt(variance.InexactFloat64()))
	return res
}
