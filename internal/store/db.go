// Package store persists batch runs, their sessions and individual spins.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MJE43/roulette-strategy-sim/internal/simulator"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("not found")

// DB represents the database interface
type DB interface {
	Close() error
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	SaveRun(ctx context.Context, run *Run) error
	UpdateRun(ctx context.Context, run *Run) error
	SaveSessions(ctx context.Context, sessions []Session) error
	SaveSpins(ctx context.Context, spins []Spin) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, query RunsQuery) (*RunsList, error)
	GetRunSessions(ctx context.Context, runID string, page, perPage int) (*SessionsPage, error)
	GetSessionSpins(ctx context.Context, runID string, session, limit, offset int) ([]Spin, error)
	DeleteRun(ctx context.Context, id string) error
}

const (
	defaultRunsPerPage     = 50
	defaultSessionsPerPage = 100
)

// RunsQuery represents query parameters for listing runs
type RunsQuery struct {
	Strategy string `json:"strategy,omitempty"`
	Page     int    `json:"page"`
	PerPage  int    `json:"per_page"`
}

func (q *RunsQuery) normalize() {
	if q.PerPage <= 0 {
		q.PerPage = defaultRunsPerPage
	}
	if q.Page <= 0 {
		q.Page = 1
	}
}

// RunsList represents paginated runs response
type RunsList struct {
	Runs       []Run `json:"runs"`
	TotalCount int   `json:"total_count"`
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalPages int   `json:"total_pages"`
}

// SessionsPage represents a paginated list of sessions for one run
type SessionsPage struct {
	Sessions   []Session `json:"sessions"`
	TotalCount int       `json:"total_count"`
	Page       int       `json:"page"`
	PerPage    int       `json:"per_page"`
	TotalPages int       `json:"total_pages"`
}

func pageBounds(page, perPage, def int) (int, int, int) {
	if perPage <= 0 {
		perPage = def
	}
	if page <= 0 {
		page = 1
	}
	return page, perPage, (page - 1) * perPage
}

func totalPages(count, perPage int) int {
	return (count + perPage - 1) / perPage
}

// Run is one persisted batch: its configuration and aggregate outcome.
type Run struct {
	ID            string              `json:"id" db:"id"`
	Strategy      string              `json:"strategy" db:"strategy"`
	ParamsJSON    string              `json:"params_json" db:"params_json"`
	Variant       string              `json:"variant" db:"variant"`
	InitialBudget decimal.Decimal     `json:"initial_budget" db:"initial_budget"`
	MaxSpins      int                 `json:"max_spins" db:"max_spins"`
	TargetBalance decimal.NullDecimal `json:"target_balance" db:"target_balance"`
	Sessions      int                 `json:"sessions" db:"sessions"`
	Successful    int                 `json:"successful" db:"successful"`
	ReachedTarget int                 `json:"reached_target" db:"reached_target"`
	Bankrupt      int                 `json:"bankrupt" db:"bankrupt"`
	Average       decimal.Decimal     `json:"average" db:"average"`
	StdDev        decimal.Decimal     `json:"std_dev" db:"std_dev"`
	Best          decimal.Decimal     `json:"best" db:"best"`
	Worst         decimal.Decimal     `json:"worst" db:"worst"`
	Seed          string              `json:"seed" db:"seed"`
	EngineVersion string              `json:"engine_version" db:"engine_version"`
	CreatedAt     time.Time           `json:"created_at" db:"created_at"`
}

// NewRun describes a batch about to be played. Aggregates are filled in by
// Finish once the batch is done.
func NewRun(id, strategyKey string, params map[string]any, variant string, cfg simulator.SessionConfig, sessions int, seed, engineVersion string) (*Run, error) {
	paramsJSON := "{}"
	if len(params) > 0 {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, err
		}
		paramsJSON = string(raw)
	}

	run := &Run{
		ID:            id,
		Strategy:      strategyKey,
		ParamsJSON:    paramsJSON,
		Variant:       variant,
		InitialBudget: cfg.InitialBudget,
		MaxSpins:      cfg.MaxSpins,
		Sessions:      sessions,
		Seed:          seed,
		EngineVersion: engineVersion,
		CreatedAt:     time.Now().UTC(),
	}
	if cfg.TargetBalance != nil {
		run.TargetBalance = decimal.NewNullDecimal(*cfg.TargetBalance)
	}
	return run, nil
}

// Finish copies the batch aggregates onto the run.
func (r *Run) Finish(batch simulator.BatchSessionResult) {
	r.Sessions = batch.TotalSimulations
	r.Successful = batch.SuccessfulSessions
	r.ReachedTarget = batch.SessionsReachedTarget
	r.Bankrupt = batch.BankruptSessions
	r.Average = batch.AverageFinalBalance
	r.StdDev = batch.StandardDeviation
	r.Best = batch.BestSessionBalance
	r.Worst = batch.WorstSessionBalance
}

// Session is the outcome of one session within a run.
type Session struct {
	RunID         string          `json:"run_id" db:"run_id"`
	Index         int             `json:"session_index" db:"session_index"`
	FinalBalance  decimal.Decimal `json:"final_balance" db:"final_balance"`
	TotalSpins    int             `json:"total_spins" db:"total_spins"`
	ReachedTarget bool            `json:"reached_target" db:"reached_target"`
	EndReason     string          `json:"end_reason" db:"end_reason"`
	Wins          int             `json:"wins" db:"wins"`
	Losses        int             `json:"losses" db:"losses"`
	MaxDrawdown   decimal.Decimal `json:"max_drawdown" db:"max_drawdown"`
}

// SessionFromResult converts a simulator result into a row.
func SessionFromResult(runID string, index int, r simulator.SessionResult) Session {
	return Session{
		RunID:         runID,
		Index:         index,
		FinalBalance:  r.FinalBalance,
		TotalSpins:    r.TotalSpins,
		ReachedTarget: r.ReachedTarget,
		EndReason:     r.EndReason.String(),
		Wins:          r.Stats.Wins,
		Losses:        r.Stats.Losses,
		MaxDrawdown:   r.Stats.MaxDrawdown,
	}
}

// Spin is one settled round within a session.
type Spin struct {
	RunID        string          `json:"run_id" db:"run_id"`
	SessionIndex int             `json:"session_index" db:"session_index"`
	SpinIndex    int             `json:"spin_index" db:"spin_index"`
	Pocket       int             `json:"pocket" db:"pocket"`
	Staked       decimal.Decimal `json:"staked" db:"staked"`
	Returned     decimal.Decimal `json:"returned" db:"returned"`
	BalanceAfter decimal.Decimal `json:"balance_after" db:"balance_after"`
	BetsJSON     string          `json:"bets_json" db:"bets_json"`
}

// SpinFromResult converts a settled round into a row.
func SpinFromResult(runID string, session int, s simulator.SpinResult) (Spin, error) {
	bets, err := json.Marshal(s.Bets)
	if err != nil {
		return Spin{}, err
	}
	return Spin{
		RunID:        runID,
		SessionIndex: session,
		SpinIndex:    s.Spin,
		Pocket:       s.Pocket.Number,
		Staked:       s.Staked,
		Returned:     s.Returned,
		BalanceAfter: s.BalanceAfter,
		BetsJSON:     string(bets),
	}, nil
}
