package strategy

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/shopspring/decimal"

	"github.com/MJE43/roulette-strategy-sim/internal/roulette"
)

// LogEntry is a single log() line emitted by a script.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

const (
	scriptInitTimeout = 2 * time.Second
	scriptCallTimeout = 1 * time.Second
	scriptMaxLogs     = 500
)

// Script is a strategy defined in JavaScript. The source must define
// nextbets(history, balance) returning an array of
// {type, amount, targets} objects, and may define reset().
//
// history is an array of {number, color} objects, oldest first, with 00
// reported as 37. Calling stop() or returning an empty array folds.
type Script struct {
	name    string
	runtime *goja.Runtime
	mu      sync.Mutex

	next  goja.Callable
	reset goja.Callable

	logs          []LogEntry
	stopRequested bool
	err           error
}

// NewScript compiles source in a sandboxed runtime and checks that it
// defines nextbets().
func NewScript(name, source string) (*Script, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("%w: script source is empty", roulette.ErrInvalidArgument)
	}
	if name == "" {
		name = "Script"
	}
	s := &Script{name: name, runtime: goja.New()}
	s.injectGlobalFunctions()

	if err := s.runWithTimeout(scriptInitTimeout, func() error {
		_, err := s.runtime.RunString(source)
		return err
	}); err != nil {
		return nil, fmt.Errorf("%w: script execution error: %v", roulette.ErrInvalidArgument, err)
	}

	next, ok := goja.AssertFunction(s.runtime.Get("nextbets"))
	if !ok {
		return nil, fmt.Errorf("%w: nextbets() function is not defined", roulette.ErrInvalidArgument)
	}
	s.next = next
	if reset, ok := goja.AssertFunction(s.runtime.Get("reset")); ok {
		s.reset = reset
	}
	return s, nil
}

func (s *Script) injectGlobalFunctions() {
	s.runtime.Set("log", func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		if len(s.logs) >= scriptMaxLogs {
			s.logs = s.logs[1:]
		}
		s.logs = append(s.logs, LogEntry{Time: time.Now(), Message: strings.Join(parts, " ")})
		return goja.Undefined()
	})

	console := s.runtime.NewObject()
	console.Set("log", s.runtime.Get("log"))
	s.runtime.Set("console", console)

	s.runtime.Set("stop", func(call goja.FunctionCall) goja.Value {
		s.stopRequested = true
		return goja.Undefined()
	})

	s.runtime.Set("require", goja.Undefined())
	s.runtime.Set("fetch", goja.Undefined())
	s.runtime.Set("XMLHttpRequest", goja.Undefined())
	s.runtime.Set("eval", goja.Undefined())
	s.runtime.Set("Function", goja.Undefined())
}

// NextBets calls nextbets(). Script errors fold the session and are kept
// for Err.
func (s *Script) NextBets(history []roulette.Pocket, balance decimal.Decimal) []roulette.Bet {
	if len(history) == 0 {
		s.Reset()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopRequested {
		return nil
	}

	hist := make([]any, len(history))
	for i, p := range history {
		hist[i] = map[string]any{"number": p.Number, "color": p.Color.String()}
	}

	var out goja.Value
	err := s.runWithTimeout(scriptCallTimeout, func() error {
		v, err := s.next(goja.Undefined(), s.runtime.ToValue(hist), s.runtime.ToValue(balance.InexactFloat64()))
		out = v
		return err
	})
	if err != nil {
		s.err = fmt.Errorf("nextbets() error: %w", err)
		return nil
	}
	if s.stopRequested {
		return nil
	}

	bets, err := exportBets(out)
	if err != nil {
		s.err = err
		return nil
	}
	if len(bets) == 0 || !affordable(bets, balance) {
		return nil
	}
	return bets
}

func exportBets(v goja.Value) ([]roulette.Bet, error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, nil
	}
	raw, ok := v.Export().([]any)
	if !ok {
		return nil, fmt.Errorf("nextbets() must return an array, got %s", v.ExportType())
	}

	bets := make([]roulette.Bet, 0, len(raw))
	for i, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("bet %d: expected an object", i)
		}
		typeName, _ := obj["type"].(string)
		t, err := roulette.ParseBetType(typeName)
		if err != nil {
			return nil, fmt.Errorf("bet %d: %w", i, err)
		}
		amount, ok := toFloat(obj["amount"])
		if !ok {
			return nil, fmt.Errorf("bet %d: amount must be a finite number", i)
		}
		var targets []int
		if list, ok := obj["targets"].([]any); ok {
			for _, n := range list {
				f, ok := toFloat(n)
				if !ok {
					return nil, fmt.Errorf("bet %d: targets must be finite numbers", i)
				}
				targets = append(targets, int(f))
			}
		}
		set, err := roulette.NewNumberSet(targets...)
		if err != nil {
			return nil, fmt.Errorf("bet %d: %w", i, err)
		}
		bet, err := roulette.NewBet(decimal.NewFromFloat(amount), t, set)
		if err != nil {
			return nil, fmt.Errorf("bet %d: %w", i, err)
		}
		bets = append(bets, bet)
	}
	return bets, nil
}

// toFloat rejects NaN and infinities, which decimal cannot represent.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// Reset calls the script's reset() when defined and clears stop and error
// state.
func (s *Script) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopRequested = false
	s.err = nil
	if s.reset == nil {
		return
	}
	if err := s.runWithTimeout(scriptCallTimeout, func() error {
		_, err := s.reset(goja.Undefined())
		return err
	}); err != nil {
		s.err = fmt.Errorf("reset() error: %w", err)
	}
}

// Err returns the last script error, if any.
func (s *Script) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Logs returns a copy of the log buffer.
func (s *Script) Logs() []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LogEntry, len(s.logs))
	copy(out, s.logs)
	return out
}

// Name returns the configured name.
func (s *Script) Name() string { return s.name }

// runWithTimeout interrupts the runtime if fn does not return in time.
// goja runs on the calling goroutine, so the interrupt is cleared before
// the next call.
func (s *Script) runWithTimeout(timeout time.Duration, fn func() error) error {
	timer := time.AfterFunc(timeout, func() {
		s.runtime.Interrupt("script execution timeout")
	})
	err := fn()
	timer.Stop()
	s.runtime.ClearInterrupt()

	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return fmt.Errorf("script timed out: %w", err)
	}
	return err
}
