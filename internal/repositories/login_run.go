package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/hifi/internal/models"
	"github.com/desertthunder/hifi/internal/shared"
)

// LoginRunRepository implements [models.Repository] for [models.LoginRun] persistence.
type LoginRunRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.LoginRun] = (*LoginRunRepository)(nil)

// NewLoginRunRepository creates a new [LoginRunRepository] with the given database connection
func NewLoginRunRepository(db *sql.DB) *LoginRunRepository {
	return &LoginRunRepository{db: db}
}

// Create inserts a new run, assigning it a generated ID.
func (r *LoginRunRepository) Create(run *models.LoginRun) error {
	if run.ID() == "" {
		run.SetID(shared.GenerateID())
	}

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO login_runs (id, source, started_at, finished_at, exit_code, lines, error) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query, run.ID(), run.Source(), run.StartedAt(), nullTime(run.FinishedAt()), nullInt(run.ExitCode()), run.Lines(), run.Error())
	if err != nil {
		return fmt.Errorf("failed to insert login run: %w", err)
	}

	return nil
}

// Get retrieves a run by ID.
func (r *LoginRunRepository) Get(id string) (*models.LoginRun, error) {
	query := `
		SELECT id, source, started_at, finished_at, exit_code, lines, error
		FROM login_runs
		WHERE id = ?
	`

	run, err := scanLoginRun(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: login run %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query login run: %w", err)
	}
	return run, nil
}

// Update stores the completion fields of a run.
func (r *LoginRunRepository) Update(run *models.LoginRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		UPDATE login_runs SET finished_at = ?, exit_code = ?, lines = ?, error = ? WHERE id = ?
	`

	res, err := r.db.Exec(query, nullTime(run.FinishedAt()), nullInt(run.ExitCode()), run.Lines(), run.Error(), run.ID())
	if err != nil {
		return fmt.Errorf("failed to update login run: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: login run %s", shared.ErrNotFound, run.ID())
	}
	return nil
}

// Delete removes a run.
func (r *LoginRunRepository) Delete(id string) error {
	res, err := r.db.Exec("DELETE FROM login_runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete login run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: login run %s", shared.ErrNotFound, id)
	}
	return nil
}

// List returns the most recent runs first.
//
// Supported criteria: "limit" (int) and "source" (string).
func (r *LoginRunRepository) List(criteria map[string]any) ([]*models.LoginRun, error) {
	var (
		where []string
		args  []any
	)
	if source, ok := criteria["source"].(string); ok && source != "" {
		where = append(where, "source = ?")
		args = append(args, source)
	}

	query := "SELECT id, source, started_at, finished_at, exit_code, lines, error FROM login_runs"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY started_at DESC LIMIT ?"
	args = append(args, limitFrom(criteria))

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query login runs: %w", err)
	}
	defer rows.Close()

	runs := []*models.LoginRun{}
	for rows.Next() {
		run, err := scanLoginRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan login run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating login runs: %w", err)
	}

	return runs, nil
}

// Start implements the login journal: it records a new run from source.
func (r *LoginRunRepository) Start(source string) (*models.LoginRun, error) {
	run := models.NewLoginRun(source)
	if err := r.Create(run); err != nil {
		return nil, err
	}
	return run, nil
}

// Finish implements the login journal: it stores the outcome of run.
func (r *LoginRunRepository) Finish(run *models.LoginRun) error {
	return r.Update(run)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLoginRun(s scanner) (*models.LoginRun, error) {
	var (
		id         string
		source     string
		startedAt  time.Time
		finishedAt sql.NullTime
		exitCode   sql.NullInt64
		lines      int
		errMsg     string
	)

	if err := s.Scan(&id, &source, &startedAt, &finishedAt, &exitCode, &lines, &errMsg); err != nil {
		return nil, err
	}

	run := models.NewLoginRun(source)
	run.SetID(id)
	run.SetStartedAt(startedAt)

	var (
		finished *time.Time
		code     *int
	)
	if finishedAt.Valid {
		finished = &finishedAt.Time
	}
	if exitCode.Valid {
		c := int(exitCode.Int64)
		code = &c
	}
	run.Restore(finished, code, lines, errMsg)

	return run, nil
}
