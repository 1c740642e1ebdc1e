package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"clipdeck/internal/config"
)

// timeLayout keeps a fixed fraction width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const runColumns = "id, input, filename, mode, state, reason, error_message, clip_count, started_at, updated_at"

// Store manages journal persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the journal under the configured state dir.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.JournalPath())
}

// OpenPath opens the journal database at path.
func OpenPath(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// BeginRun inserts a new run row.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("run id is required")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	started := run.StartedAt.UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		nullableString(run.Input),
		nullableString(run.Filename),
		run.Mode,
		run.State,
		nullableString(run.Reason),
		nullableString(run.ErrorMessage),
		run.ClipCount,
		started,
		started,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecordTransition appends t and mirrors its target state onto the run.
func (s *Store) RecordTransition(ctx context.Context, t Transition) error {
	if t.At.IsZero() {
		t.At = time.Now()
	}
	at := t.At.UTC().Format(timeLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transition tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO transitions (run_id, from_state, to_state, reason, message, at) VALUES (?, ?, ?, ?, ?, ?)`,
		t.RunID, t.From, t.To, nullableString(t.Reason), nullableString(t.Message), at,
	); err != nil {
		return fmt.Errorf("insert transition: %w", err)
	}
	var failure any
	if t.Reason != "" {
		failure = nullableString(t.Message)
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE runs SET state = ?, reason = COALESCE(?, reason), error_message = COALESCE(?, error_message), updated_at = ? WHERE id = ?`,
		t.To, nullableString(t.Reason), failure, at, t.RunID,
	)
	if err != nil {
		return fmt.Errorf("update run state: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("record transition: run %s not found", t.RunID)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transition: %w", err)
	}
	return nil
}

// UpdateOutcome stores the canonical filename and clip count for a run.
func (s *Store) UpdateOutcome(ctx context.Context, runID, filename string, clipCount int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET filename = COALESCE(?, filename), clip_count = ?, updated_at = ? WHERE id = ?`,
		nullableString(filename), clipCount, time.Now().UTC().Format(timeLayout), runID,
	)
	if err != nil {
		return fmt.Errorf("update run outcome: %w", err)
	}
	return nil
}

// GetRun fetches a run by ID. It returns nil when the run does not exist.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Transitions returns the recorded transitions of a run in order.
func (s *Store) Transitions(ctx context.Context, runID string) ([]Transition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, from_state, to_state, reason, message, at FROM transitions WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	defer rows.Close()

	var out []Transition
	for rows.Next() {
		var (
			t       Transition
			reason  sql.NullString
			message sql.NullString
			atRaw   string
		)
		if err := rows.Scan(&t.ID, &t.RunID, &t.From, &t.To, &reason, &message, &atRaw); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		t.Reason = reason.String
		t.Message = message.String
		if at, err := parseTimeString(atRaw); err == nil {
			t.At = at
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Prune deletes runs started before cutoff along with their transitions.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	stamp := cutoff.UTC().Format(timeLayout)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin prune tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transitions WHERE run_id IN (SELECT id FROM runs WHERE started_at < ?)`, stamp); err != nil {
		return 0, fmt.Errorf("prune transitions: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, stamp)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit prune: %w", err)
	}
	return removed, nil
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run          Run
		input        sql.NullString
		filename     sql.NullString
		reason       sql.NullString
		errorMessage sql.NullString
		startedRaw   string
		updatedRaw   string
	)
	if err := scanner.Scan(
		&run.ID,
		&input,
		&filename,
		&run.Mode,
		&run.State,
		&reason,
		&errorMessage,
		&run.ClipCount,
		&startedRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	run.Input = input.String
	run.Filename = filename.String
	run.Reason = reason.String
	run.ErrorMessage = errorMessage.String
	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		run.UpdatedAt = updated
	}
	return &run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}
