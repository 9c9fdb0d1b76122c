package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Sources a login run can be started from.
const (
	SourceWebsocket = "websocket"
	SourceCLI       = "cli"
)

// Run states derived from a [LoginRun].
const (
	RunRunning  = "running"
	RunSucceeded = "ok"
	RunFailed   = "failed"
)

// LoginRun records one execution of the interactive login task.
type LoginRun struct {
	id         string
	source     string
	startedAt  time.Time
	finishedAt *time.Time
	exitCode   *int
	lines      int
	errMsg     string
}

// NewLoginRun creates an unfinished run started now.
func NewLoginRun(source string) *LoginRun {
	return &LoginRun{source: source, startedAt: time.Now().UTC()}
}

func (r *LoginRun) ID() string             { return r.id }
func (r *LoginRun) SetID(id string)        { r.id = id }
func (r *LoginRun) Source() string         { return r.source }
func (r *LoginRun) StartedAt() time.Time   { return r.startedAt }
func (r *LoginRun) FinishedAt() *time.Time { return r.finishedAt }
func (r *LoginRun) ExitCode() *int         { return r.exitCode }
func (r *LoginRun) Lines() int             { return r.lines }
func (r *LoginRun) Error() string          { return r.errMsg }
func (r *LoginRun) CreatedAt() time.Time   { return r.startedAt }

// UpdatedAt is the finish time, or the start time while the run is in progress.
func (r *LoginRun) UpdatedAt() time.Time {
	if r.finishedAt != nil {
		return *r.finishedAt
	}
	return r.startedAt
}

// SetStartedAt overrides the start time, used when loading a stored run.
func (r *LoginRun) SetStartedAt(t time.Time) { r.startedAt = t }

// SetLines records how many output lines were forwarded so far.
func (r *LoginRun) SetLines(n int) { r.lines = n }

// Finish marks the run complete. exitCode is nil when the task never exited normally.
func (r *LoginRun) Finish(at time.Time, exitCode *int, err error) {
	at = at.UTC()
	r.finishedAt = &at
	r.exitCode = exitCode
	if err != nil {
		r.errMsg = err.Error()
	}
}

// Restore sets the completion fields read back from storage.
func (r *LoginRun) Restore(finishedAt *time.Time, exitCode *int, lines int, errMsg string) {
	r.finishedAt = finishedAt
	r.exitCode = exitCode
	r.lines = lines
	r.errMsg = errMsg
}

// Status summarizes the run as running, ok or failed.
func (r *LoginRun) Status() string {
	switch {
	case r.finishedAt == nil:
		return RunRunning
	case r.errMsg != "" || r.exitCode == nil || *r.exitCode != 0:
		return RunFailed
	default:
		return RunSucceeded
	}
}

// Duration is the elapsed time of a finished run, or zero.
func (r *LoginRun) Duration() time.Duration {
	if r.finishedAt == nil {
		return 0
	}
	return r.finishedAt.Sub(r.startedAt)
}

func (r *LoginRun) Validate() error {
	if r.id == "" {
		return fmt.Errorf("login run id is required")
	}
	switch r.source {
	case SourceWebsocket, SourceCLI:
	default:
		return fmt.Errorf("unknown login run source %q", r.source)
	}
	if r.startedAt.IsZero() {
		return fmt.Errorf("login run start time is required")
	}
	if r.finishedAt != nil && r.finishedAt.Before(r.startedAt) {
		return fmt.Errorf("login run finished before it started")
	}
	return nil
}

func (r *LoginRun) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID         string     `json:"id"`
		Source     string     `json:"source"`
		Status     string     `json:"status"`
		StartedAt  time.Time  `json:"started_at"`
		FinishedAt *time.Time `json:"finished_at"`
		ExitCode   *int       `json:"exit_code"`
		Lines      int        `json:"lines"`
		Error      string     `json:"error,omitempty"`
	}{r.id, r.source, r.Status(), r.startedAt, r.finishedAt, r.exitCode, r.lines, r.errMsg})
}
