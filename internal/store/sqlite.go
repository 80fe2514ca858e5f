package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteDB implements the DB interface using SQLite
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB creates a new SQLite database connection. ":memory:" opens a
// private in-memory database.
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if path == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *SQLiteDB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate runs database migrations
func (s *SQLiteDB) Migrate(ctx context.Context) error {
	baseMigrations := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			strategy TEXT NOT NULL,
			params_json TEXT NOT NULL DEFAULT '{}',
			variant TEXT NOT NULL,
			initial_budget TEXT NOT NULL,
			max_spins INTEGER NOT NULL,
			target_balance TEXT,
			sessions INTEGER NOT NULL DEFAULT 0,
			successful INTEGER NOT NULL DEFAULT 0,
			reached_target INTEGER NOT NULL DEFAULT 0,
			bankrupt INTEGER NOT NULL DEFAULT 0,
			average TEXT NOT NULL DEFAULT '0',
			std_dev TEXT NOT NULL DEFAULT '0',
			best TEXT NOT NULL DEFAULT '0',
			worst TEXT NOT NULL DEFAULT '0',
			seed TEXT NOT NULL DEFAULT '',
			engine_version TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			run_id TEXT NOT NULL,
			session_index INTEGER NOT NULL,
			final_balance TEXT NOT NULL,
			total_spins INTEGER NOT NULL,
			reached_target INTEGER NOT NULL DEFAULT 0,
			end_reason TEXT NOT NULL,
			wins INTEGER NOT NULL DEFAULT 0,
			losses INTEGER NOT NULL DEFAULT 0,
			max_drawdown TEXT NOT NULL DEFAULT '0',
			PRIMARY KEY (run_id, session_index),
			FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS spins (
			run_id TEXT NOT NULL,
			session_index INTEGER NOT NULL,
			spin_index INTEGER NOT NULL,
			pocket INTEGER NOT NULL,
			staked TEXT NOT NULL,
			returned TEXT NOT NULL,
			balance_after TEXT NOT NULL,
			bets_json TEXT NOT NULL DEFAULT '[]',
			PRIMARY KEY (run_id, session_index, spin_index),
			FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
		)`,
	}

	for _, migration := range baseMigrations {
		if _, err := s.db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("base migration failed: %w", err)
		}
	}

	indexMigrations := []string{
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_strategy_created ON runs(strategy, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_end_reason ON sessions(run_id, end_reason)`,
	}

	for _, migration := range indexMigrations {
		if _, err := s.db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("index migration failed: %w", err)
		}
	}

	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// SaveRun saves a run to the database
func (s *SQLiteDB) SaveRun(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	query := `INSERT INTO runs (
		id, strategy, params_json, variant, initial_budget, max_spins, target_balance,
		sessions, successful, reached_target, bankrupt, average, std_dev, best, worst,
		seed, engine_version, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		run.ID, run.Strategy, run.ParamsJSON, run.Variant, run.InitialBudget, run.MaxSpins, run.TargetBalance,
		run.Sessions, run.Successful, run.ReachedTarget, run.Bankrupt, run.Average, run.StdDev, run.Best, run.Worst,
		run.Seed, run.EngineVersion, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// UpdateRun updates the aggregates of an existing run
func (s *SQLiteDB) UpdateRun(ctx context.Context, run *Run) error {
	query := `UPDATE runs SET
		sessions = ?, successful = ?, reached_target = ?, bankrupt = ?,
		average = ?, std_dev = ?, best = ?, worst = ?
		WHERE id = ?`

	res, err := s.db.ExecContext(ctx, query,
		run.Sessions, run.Successful, run.ReachedTarget, run.Bankrupt,
		run.Average, run.StdDev, run.Best, run.Worst, run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveSessions saves session outcomes in one transaction
func (s *SQLiteDB) SaveSessions(ctx context.Context, sessions []Session) error {
	if len(sessions) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO sessions (
		run_id, session_index, final_balance, total_spins, reached_target,
		end_reason, wins, losses, max_drawdown
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, sess := range sessions {
		_, err := stmt.ExecContext(ctx,
			sess.RunID, sess.Index, sess.FinalBalance, sess.TotalSpins, boolInt(sess.ReachedTarget),
			sess.EndReason, sess.Wins, sess.Losses, sess.MaxDrawdown,
		)
		if err != nil {
			return fmt.Errorf("failed to save session %d: %w", sess.Index, err)
		}
	}

	return tx.Commit()
}

// SaveSpins saves spins in one transaction
func (s *SQLiteDB) SaveSpins(ctx context.Context, spins []Spin) error {
	if len(spins) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO spins (
		run_id, session_index, spin_index, pocket, staked, returned, balance_after, bets_json
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, sp := range spins {
		_, err := stmt.ExecContext(ctx,
			sp.RunID, sp.SessionIndex, sp.SpinIndex, sp.Pocket,
			sp.Staked, sp.Returned, sp.BalanceAfter, sp.BetsJSON,
		)
		if err != nil {
			return fmt.Errorf("failed to save spin %d/%d: %w", sp.SessionIndex, sp.SpinIndex, err)
		}
	}

	return tx.Commit()
}

const sqliteRunColumns = `id, strategy, params_json, variant, initial_budget, max_spins, target_balance,
	sessions, successful, reached_target, bankrupt, average, std_dev, best, worst,
	seed, engine_version, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var paramsJSON sql.NullString
	err := row.Scan(
		&run.ID, &run.Strategy, &paramsJSON, &run.Variant, &run.InitialBudget, &run.MaxSpins, &run.TargetBalance,
		&run.Sessions, &run.Successful, &run.ReachedTarget, &run.Bankrupt, &run.Average, &run.StdDev, &run.Best, &run.Worst,
		&run.Seed, &run.EngineVersion, &run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if paramsJSON.Valid {
		run.ParamsJSON = paramsJSON.String
	} else {
		run.ParamsJSON = "{}"
	}
	return &run, nil
}

// GetRun retrieves a run by ID
func (s *SQLiteDB) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteRunColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves runs with pagination and filtering
func (s *SQLiteDB) ListRuns(ctx context.Context, query RunsQuery) (*RunsList, error) {
	whereClause := ""
	args := []any{}

	if query.Strategy != "" {
		whereClause = "WHERE strategy = ?"
		args = append(args, query.Strategy)
	}

	var totalCount int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs "+whereClause, args...).Scan(&totalCount)
	if err != nil {
		return nil, fmt.Errorf("failed to get total count: %w", err)
	}

	query.normalize()
	offset := (query.Page - 1) * query.PerPage

	mainQuery := `SELECT ` + sqliteRunColumns + `
		FROM runs ` + whereClause + `
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`
	args = append(args, query.PerPage, offset)

	rows, err := s.db.QueryContext(ctx, mainQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return &RunsList{
		Runs:       runs,
		TotalCount: totalCount,
		Page:       query.Page,
		PerPage:    query.PerPage,
		TotalPages: totalPages(totalCount, query.PerPage),
	}, nil
}

// GetRunSessions retrieves sessions for a run ordered by index
func (s *SQLiteDB) GetRunSessions(ctx context.Context, runID string, page, perPage int) (*SessionsPage, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	var totalCount int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions WHERE run_id = ?", runID).Scan(&totalCount)
	if err != nil {
		return nil, fmt.Errorf("failed to get sessions count: %w", err)
	}

	page, perPage, offset := pageBounds(page, perPage, defaultSessionsPerPage)

	rows, err := s.db.QueryContext(ctx, `SELECT
		run_id, session_index, final_balance, total_spins, reached_target,
		end_reason, wins, losses, max_drawdown
		FROM sessions WHERE run_id = ?
		ORDER BY session_index
		LIMIT ? OFFSET ?`, runID, perPage, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var sess Session
		var reached int
		err := rows.Scan(
			&sess.RunID, &sess.Index, &sess.FinalBalance, &sess.TotalSpins, &reached,
			&sess.EndReason, &sess.Wins, &sess.Losses, &sess.MaxDrawdown,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sess.ReachedTarget = reached == 1
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return &SessionsPage{
		Sessions:   sessions,
		TotalCount: totalCount,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages(totalCount, perPage),
	}, nil
}

// GetSessionSpins retrieves spins of one session ordered by spin index
func (s *SQLiteDB) GetSessionSpins(ctx context.Context, runID string, session, limit, offset int) ([]Spin, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		run_id, session_index, spin_index, pocket, staked, returned, balance_after, bets_json
		FROM spins WHERE run_id = ? AND session_index = ?
		ORDER BY spin_index
		LIMIT ? OFFSET ?`, runID, session, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query spins: %w", err)
	}
	defer rows.Close()

	spins := []Spin{}
	for rows.Next() {
		var sp Spin
		err := rows.Scan(
			&sp.RunID, &sp.SessionIndex, &sp.SpinIndex, &sp.Pocket,
			&sp.Staked, &sp.Returned, &sp.BalanceAfter, &sp.BetsJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan spin: %w", err)
		}
		spins = append(spins, sp)
	}
	return spins, rows.Err()
}

// DeleteRun removes a run with its sessions and spins
func (s *SQLiteDB) DeleteRun(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{
		"DELETE FROM spins WHERE run_id = ?",
		"DELETE FROM sessions WHERE run_id = ?",
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("failed to delete run children: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	return tx.Commit()
}
