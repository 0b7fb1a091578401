package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteDB implements DB on a single SQLite file.
type SQLiteDB struct {
	db        *sql.DB
	backoff   func() retry.Backoff
	retryable func(error) bool
}

// NewSQLiteDB opens (or creates) the database at path. Use ":memory:" for a
// throwaway database.
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite is not concurrent for writes, and every :memory: connection
	// would be its own database.
	db.SetMaxOpenConns(1)

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	return &SQLiteDB{
		db: db,
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(5, retry.NewExponential(20*time.Millisecond))
		},
		retryable: isBusy,
	}, nil
}

// Close closes the database connection.
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// --------- Migrations ---------

// Migrate applies the embedded goose migrations.
func (s *SQLiteDB) Migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, s.db, fsys)
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// --------- Retry ---------

// isBusy reports whether err is a transient lock conflict.
func isBusy(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	code := serr.Code() & 0xff
	return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
}

// withRetry runs fn again while it fails with a busy database.
func (s *SQLiteDB) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	return retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		err := fn(ctx)
		if err != nil && s.retryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// --------- Sweeps ---------

// SaveSweep stores the sweep and its results in one transaction. An empty
// ID is replaced by a new UUID; an empty CreatedAt by the current time.
func (s *SQLiteDB) SaveSweep(ctx context.Context, sweep *Sweep, results []Result) error {
	if sweep.ID == "" {
		sweep.ID = uuid.New().String()
	}
	if sweep.CreatedAt.IsZero() {
		sweep.CreatedAt = time.Now().UTC()
	}
	if sweep.RequestJSON == "" {
		sweep.RequestJSON = "{}"
	}

	err := s.withRetry(ctx, func(ctx context.Context) error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		_, err = tx.ExecContext(ctx, `INSERT INTO sweeps (
			id, server_seed_hash, client_seed, rng_mode, trials, denominator, max_decks,
			request_json, timed_out, duration_ms, engine_version, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sweep.ID, sweep.ServerSeedHash, sweep.ClientSeed, sweep.RNGMode, sweep.Trials,
			sweep.Denominator, sweep.MaxDecks, sweep.RequestJSON, boolInt(sweep.TimedOut),
			sweep.DurationMs, sweep.EngineVersion, sweep.CreatedAt,
		)
		if err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO sweep_results (
			sweep_id, position, board_size, jokers, memory, reshuffle,
			trials, wins, cards_total, boards_total, max_boards, timed_out
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, r := range results {
			_, err := stmt.ExecContext(ctx,
				sweep.ID, i, r.BoardSize, boolInt(r.Jokers), boolInt(r.Memory), boolInt(r.Reshuffle),
				r.Trials, r.Wins, r.CardsTotal, r.BoardsTotal, r.MaxBoards, boolInt(r.TimedOut),
			)
			if err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return fmt.Errorf("failed to save sweep: %w", err)
	}
	sweep.ResultCount = len(results)
	return nil
}

const sweepColumns = `s.id, s.server_seed_hash, s.client_seed, s.rng_mode, s.trials, s.denominator,
	s.max_decks, s.request_json, s.timed_out, s.duration_ms, s.engine_version, s.created_at,
	(SELECT COUNT(*) FROM sweep_results r WHERE r.sweep_id = s.id)`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSweep(row rowScanner) (Sweep, error) {
	var sw Sweep
	var timedOut int
	err := row.Scan(
		&sw.ID, &sw.ServerSeedHash, &sw.ClientSeed, &sw.RNGMode, &sw.Trials, &sw.Denominator,
		&sw.MaxDecks, &sw.RequestJSON, &timedOut, &sw.DurationMs, &sw.EngineVersion, &sw.CreatedAt,
		&sw.ResultCount,
	)
	sw.TimedOut = timedOut == 1
	return sw, err
}

// GetSweep retrieves a sweep header by ID.
func (s *SQLiteDB) GetSweep(ctx context.Context, id string) (*Sweep, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sweepColumns+` FROM sweeps s WHERE s.id = ?`, id)
	sw, err := scanSweep(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSweepNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sweep: %w", err)
	}
	return &sw, nil
}

// GetResults returns the results of a sweep in configuration order.
func (s *SQLiteDB) GetResults(ctx context.Context, sweepID string) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		sweep_id, position, board_size, jokers, memory, reshuffle,
		trials, wins, cards_total, boards_total, max_boards, timed_out
		FROM sweep_results WHERE sweep_id = ? ORDER BY position`, sweepID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var jokers, memory, reshuffle, timedOut int
		if err := rows.Scan(
			&r.SweepID, &r.Position, &r.BoardSize, &jokers, &memory, &reshuffle,
			&r.Trials, &r.Wins, &r.CardsTotal, &r.BoardsTotal, &r.MaxBoards, &timedOut,
		); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		r.Jokers, r.Memory, r.Reshuffle, r.TimedOut = jokers == 1, memory == 1, reshuffle == 1, timedOut == 1
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating results: %w", err)
	}
	return results, nil
}

// ListSweeps returns a page of sweeps, newest first.
func (s *SQLiteDB) ListSweeps(ctx context.Context, query SweepsQuery) (*SweepsList, error) {
	var totalCount int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sweeps").Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to get total count: %w", err)
	}

	if query.PerPage <= 0 {
		query.PerPage = 50
	}
	if query.Page <= 0 {
		query.Page = 1
	}
	totalPages := (totalCount + query.PerPage - 1) / query.PerPage
	offset := (query.Page - 1) * query.PerPage

	rows, err := s.db.QueryContext(ctx, `SELECT `+sweepColumns+` FROM sweeps s
		ORDER BY s.created_at DESC, s.id
		LIMIT ? OFFSET ?`, query.PerPage, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query sweeps: %w", err)
	}
	defer rows.Close()

	sweeps := []Sweep{}
	for rows.Next() {
		sw, err := scanSweep(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sweep: %w", err)
		}
		sweeps = append(sweeps, sw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sweeps: %w", err)
	}

	return &SweepsList{
		Sweeps:     sweeps,
		TotalCount: totalCount,
		Page:       query.Page,
		PerPage:    query.PerPage,
		TotalPages: totalPages,
	}, nil
}

// DeleteSweep removes a sweep and its results.
func (s *SQLiteDB) DeleteSweep(ctx context.Context, id string) error {
	var deleted int64
	err := s.withRetry(ctx, func(ctx context.Context) error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := tx.ExecContext(ctx, "DELETE FROM sweep_results WHERE sweep_id = ?", id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM sweeps WHERE id = ?", id)
		if err != nil {
			return err
		}
		if deleted, err = res.RowsAffected(); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return fmt.Errorf("failed to delete sweep: %w", err)
	}
	if deleted == 0 {
		return fmt.Errorf("%w: %s", ErrSweepNotFound, id)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
