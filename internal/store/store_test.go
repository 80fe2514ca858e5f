package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MJE43/roulette-strategy-sim/internal/roulette"
	"github.com/MJE43/roulette-strategy-sim/internal/simulator"
	"github.com/MJE43/roulette-strategy-sim/internal/strategy"
)

func newTestSQLite(t *testing.T) *SQLiteDB {
	t.Helper()
	db, err := NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

func TestSQLite(t *testing.T) {
	runConformance(t, func(t *testing.T) DB { return newTestSQLite(t) })
}

func TestPostgres(t *testing.T) {
	dsn := os.Getenv("ROULETTE_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("ROULETTE_TEST_PG_DSN not set")
	}
	runConformance(t, func(t *testing.T) DB {
		ctx := context.Background()
		db, err := NewPostgresDB(ctx, dsn)
		if err != nil {
			t.Fatalf("NewPostgresDB: %v", err)
		}
		t.Cleanup(func() { db.Close() })
		if err := db.Migrate(ctx); err != nil {
			t.Fatalf("Migrate: %v", err)
		}
		if _, err := db.pool.Exec(ctx, "TRUNCATE runs CASCADE"); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		return db
	})
}

func runConformance(t *testing.T, open func(t *testing.T) DB) {
	t.Run("run round trip", func(t *testing.T) { testRunRoundTrip(t, open(t)) })
	t.Run("list runs", func(t *testing.T) { testListRuns(t, open(t)) })
	t.Run("sessions and spins", func(t *testing.T) { testSessionsAndSpins(t, open(t)) })
	t.Run("delete run", func(t *testing.T) { testDeleteRun(t, open(t)) })
	t.Run("recorder", func(t *testing.T) { testRecorder(t, open(t)) })
}

func sampleRun(t *testing.T, id, strategyKey string, created time.Time) *Run {
	t.Helper()
	target := decimal.NewFromInt(1200)
	cfg, err := simulator.NewSessionConfig(decimal.NewFromInt(1000), 100, &target)
	if err != nil {
		t.Fatalf("NewSessionConfig: %v", err)
	}
	run, err := NewRun(id, strategyKey, map[string]any{"base": "10"}, "european", cfg, 10, "42", "test")
	if err != nil {
		t.Fatalf("NewRun: %v", err)
	}
	run.CreatedAt = created
	return run
}

func testRunRoundTrip(t *testing.T, db DB) {
	ctx := context.Background()
	run := sampleRun(t, "run1", "martingale", time.Now().UTC().Truncate(time.Second))
	if err := db.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	run.Finish(simulator.BatchSessionResult{
		TotalSimulations:      10,
		SuccessfulSessions:    4,
		SessionsReachedTarget: 3,
		BankruptSessions:      2,
		AverageFinalBalance:   decimal.RequireFromString("987.65"),
		StandardDeviation:     decimal.RequireFromString("123.456"),
		BestSessionBalance:    decimal.NewFromInt(1210),
		WorstSessionBalance:   decimal.Zero,
	})
	if err := db.UpdateRun(ctx, run); err != nil {
		t.Fatalf("UpdateRun: %v", err)
	}

	got, err := db.GetRun(ctx, "run1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Strategy != "martingale" || got.Variant != "european" || got.Seed != "42" {
		t.Errorf("unexpected run: %+v", got)
	}
	if !got.InitialBudget.Equal(decimal.NewFromInt(1000)) || !got.TargetBalance.Valid ||
		!got.TargetBalance.Decimal.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("budget/target = %s/%v", got.InitialBudget, got.TargetBalance)
	}
	if got.Successful != 4 || got.ReachedTarget != 3 || got.Bankrupt != 2 {
		t.Errorf("counts = %d/%d/%d", got.Successful, got.ReachedTarget, got.Bankrupt)
	}
	if !got.Average.Equal(decimal.RequireFromString("987.65")) || !got.StdDev.Equal(decimal.RequireFromString("123.456")) {
		t.Errorf("average/std = %s/%s", got.Average, got.StdDev)
	}
	if got.ParamsJSON == "" || got.ParamsJSON == "{}" {
		t.Errorf("params not stored: %q", got.ParamsJSON)
	}

	if _, err := db.GetRun(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRun(missing): expected ErrNotFound, got %v", err)
	}
	missing := sampleRun(t, "missing", "martingale", time.Now())
	if err := db.UpdateRun(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateRun(missing): expected ErrNotFound, got %v", err)
	}
}

func testListRuns(t *testing.T, db DB) {
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	keys := []string{"martingale", "fibonacci", "martingale", "dozen", "martingale"}
	for i, key := range keys {
		run := sampleRun(t, fmt.Sprintf("run%d", i), key, base.Add(time.Duration(i)*time.Minute))
		if err := db.SaveRun(ctx, run); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
	}

	all, err := db.ListRuns(ctx, RunsQuery{})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if all.TotalCount != 5 || len(all.Runs) != 5 || all.PerPage != defaultRunsPerPage || all.Page != 1 {
		t.Errorf("unexpected list: total=%d len=%d page=%d per=%d", all.TotalCount, len(all.Runs), all.Page, all.PerPage)
	}
	if all.Runs[0].ID != "run4" {
		t.Errorf("expected newest first, got %s", all.Runs[0].ID)
	}

	filtered, err := db.ListRuns(ctx, RunsQuery{Strategy: "martingale", Page: 2, PerPage: 2})
	if err != nil {
		t.Fatalf("ListRuns filtered: %v", err)
	}
	if filtered.TotalCount != 3 || filtered.TotalPages != 2 || len(filtered.Runs) != 1 {
		t.Errorf("filtered: total=%d pages=%d len=%d", filtered.TotalCount, filtered.TotalPages, len(filtered.Runs))
	}
	if len(filtered.Runs) == 1 && filtered.Runs[0].ID != "run0" {
		t.Errorf("expected oldest martingale run on page 2, got %s", filtered.Runs[0].ID)
	}

	empty, err := db.ListRuns(ctx, RunsQuery{Strategy: "labouchere"})
	if err != nil {
		t.Fatalf("ListRuns empty: %v", err)
	}
	if empty.TotalCount != 0 || empty.Runs == nil || len(empty.Runs) != 0 {
		t.Errorf("expected an empty, non-nil list, got %+v", empty)
	}
}

func testSessionsAndSpins(t *testing.T, db DB) {
	ctx := context.Background()
	if err := db.SaveRun(ctx, sampleRun(t, "run1", "dozen", time.Now().UTC())); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	var sessions []Session
	for i := 0; i < 5; i++ {
		sessions = append(sessions, Session{
			RunID:         "run1",
			Index:         i,
			FinalBalance:  decimal.NewFromInt(int64(900 + i*50)),
			TotalSpins:    10 + i,
			ReachedTarget: i == 4,
			EndReason:     simulator.MaxSpinsReached.String(),
			Wins:          i,
			Losses:        10 - i,
			MaxDrawdown:   decimal.RequireFromString("12.5"),
		})
	}
	if err := db.SaveSessions(ctx, sessions); err != nil {
		t.Fatalf("SaveSessions: %v", err)
	}

	page, err := db.GetRunSessions(ctx, "run1", 2, 2)
	if err != nil {
		t.Fatalf("GetRunSessions: %v", err)
	}
	if page.TotalCount != 5 || page.TotalPages != 3 || len(page.Sessions) != 2 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if page.Sessions[0].Index != 2 || !page.Sessions[0].FinalBalance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("unexpected session: %+v", page.Sessions[0])
	}

	last, _ := db.GetRunSessions(ctx, "run1", 3, 2)
	if len(last.Sessions) != 1 || !last.Sessions[0].ReachedTarget {
		t.Errorf("expected last session to have reached target: %+v", last.Sessions)
	}

	if _, err := db.GetRunSessions(ctx, "missing", 1, 10); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing run, got %v", err)
	}

	spins := []Spin{
		{RunID: "run1", SessionIndex: 0, SpinIndex: 1, Pocket: 37, Staked: decimal.NewFromInt(10), Returned: decimal.Zero, BalanceAfter: decimal.NewFromInt(990), BetsJSON: `[]`},
		{RunID: "run1", SessionIndex: 0, SpinIndex: 2, Pocket: 5, Staked: decimal.NewFromInt(10), Returned: decimal.NewFromInt(30), BalanceAfter: decimal.NewFromInt(1010), BetsJSON: `[]`},
		{RunID: "run1", SessionIndex: 1, SpinIndex: 1, Pocket: 0, Staked: decimal.NewFromInt(10), Returned: decimal.Zero, BalanceAfter: decimal.NewFromInt(990), BetsJSON: `[]`},
	}
	if err := db.SaveSpins(ctx, spins); err != nil {
		t.Fatalf("SaveSpins: %v", err)
	}
	got, err := db.GetSessionSpins(ctx, "run1", 0, 10, 0)
	if err != nil {
		t.Fatalf("GetSessionSpins: %v", err)
	}
	if len(got) != 2 || got[0].Pocket != 37 || !got[1].Returned.Equal(decimal.NewFromInt(30)) {
		t.Errorf("unexpected spins: %+v", got)
	}
}

func testDeleteRun(t *testing.T, db DB) {
	ctx := context.Background()
	if err := db.SaveRun(ctx, sampleRun(t, "run1", "dozen", time.Now().UTC())); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if err := db.SaveSessions(ctx, []Session{{RunID: "run1", EndReason: "bankrupt"}}); err != nil {
		t.Fatalf("SaveSessions: %v", err)
	}
	if err := db.SaveSpins(ctx, []Spin{{RunID: "run1", SpinIndex: 1, BetsJSON: "[]"}}); err != nil {
		t.Fatalf("SaveSpins: %v", err)
	}

	if err := db.DeleteRun(ctx, "run1"); err != nil {
		t.Fatalf("DeleteRun: %v", err)
	}
	if _, err := db.GetRun(ctx, "run1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected run to be gone, got %v", err)
	}
	spins, err := db.GetSessionSpins(ctx, "run1", 0, 10, 0)
	if err != nil || len(spins) != 0 {
		t.Errorf("expected spins to be gone, got %d (%v)", len(spins), err)
	}
	if err := db.DeleteRun(ctx, "run1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

func testRecorder(t *testing.T, db DB) {
	ctx := context.Background()
	run := sampleRun(t, "rec", "dozen", time.Now().UTC())
	if err := db.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	pockets := make([]roulette.Pocket, 0, 3)
	for _, n := range []int{1, 13, 25} {
		p, _ := roulette.NewPocket(n)
		pockets = append(pockets, p)
	}
	wheel, _ := roulette.NewFixedWheel(pockets...)
	dozen, _ := strategy.NewDozen(1, decimal.NewFromInt(10))
	cfg, _ := simulator.NewSessionConfig(decimal.NewFromInt(100), 6, nil)

	rec := NewRecorder(ctx, db, run.ID, WithFlushSize(4))
	sim := simulator.New(wheel, simulator.WithObserver(rec), simulator.WithHistory(false))
	batch, err := sim.RunBatch(dozen, cfg, 3)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if err := rec.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	run.Finish(batch)
	if err := db.UpdateRun(ctx, run); err != nil {
		t.Fatalf("UpdateRun: %v", err)
	}

	if rec.Sessions() != 3 {
		t.Errorf("recorder saw %d sessions, want 3", rec.Sessions())
	}
	page, err := db.GetRunSessions(ctx, run.ID, 1, 10)
	if err != nil {
		t.Fatalf("GetRunSessions: %v", err)
	}
	if page.TotalCount != 3 {
		t.Errorf("stored %d sessions, want 3", page.TotalCount)
	}
	for i, sess := range page.Sessions {
		if !sess.FinalBalance.Equal(batch.FinalBalances[i]) {
			t.Errorf("session %d: stored %s, batch has %s", i, sess.FinalBalance, batch.FinalBalances[i])
		}
	}
	spins, err := db.GetSessionSpins(ctx, run.ID, 2, 100, 0)
	if err != nil {
		t.Fatalf("GetSessionSpins: %v", err)
	}
	if len(spins) != 6 {
		t.Errorf("stored %d spins for session 2, want 6", len(spins))
	}
}

func TestRecorderWithoutSpins(t *testing.T) {
	db := newTestSQLite(t)
	ctx := context.Background()
	run := sampleRun(t, "nospins", "dozen", time.Now().UTC())
	if err := db.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	rec := NewRecorder(ctx, db, run.ID, WithSpins(false))
	rec.OnSpin(0, simulator.SpinResult{Spin: 1})
	rec.OnSessionEnd(0, simulator.SessionResult{FinalBalance: decimal.NewFromInt(5)})
	if err := rec.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	spins, _ := db.GetSessionSpins(ctx, run.ID, 0, 10, 0)
	if len(spins) != 0 {
		t.Errorf("expected no spins, got %d", len(spins))
	}
	page, _ := db.GetRunSessions(ctx, run.ID, 1, 10)
	if page.TotalCount != 1 {
		t.Errorf("expected 1 session, got %d", page.TotalCount)
	}
}

func TestRecorderKeepsFirstError(t *testing.T) {
	db := newTestSQLite(t)
	ctx := context.Background()

	// No run row exists, so the foreign key rejects the insert.
	rec := NewRecorder(ctx, db, "orphan", WithFlushSize(1))
	rec.OnSessionEnd(0, simulator.SessionResult{})
	rec.OnSessionEnd(1, simulator.SessionResult{})
	if err := rec.Flush(); err == nil {
		t.Error("expected a write error")
	}
}
