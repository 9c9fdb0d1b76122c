package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/hifi/internal/formatter"
	"github.com/desertthunder/hifi/internal/shared"
	"github.com/desertthunder/hifi/internal/tasks"
	"github.com/desertthunder/hifi/internal/ui"
	"github.com/urfave/cli/v3"
)

// Login runs the login task locally and streams its output in the terminal UI.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	if len(r.config.Login.Command) == 0 {
		return fmt.Errorf("%w: login.command is required", shared.ErrInvalidConfig)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	var (
		journal tasks.Journal
		runs    ui.RunLister
	)
	if db, repo, err := r.openJournal(); err != nil {
		r.logger.Warn("login runs will not be recorded", "error", err)
	} else {
		defer db.Close()
		journal, runs = repo, repo
	}

	bridge := tasks.NewLoginBridge(&tasks.ExecSpawner{
		Command: r.config.Login.Command,
		Dir:     r.config.Login.Dir,
		Env:     []string{shared.EnvTokenFile + "=" + r.config.Credentials.TokenFile},
	}, journal, r.logger)

	model := ui.NewModel(ctx, bridge, runs)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	res := model.Result()
	if res == nil {
		return nil
	}
	if res.Err != nil {
		return fmt.Errorf("%w: %v", shared.ErrLoginFailed, res.Err)
	}
	if res.ExitCode != nil && *res.ExitCode != 0 {
		return fmt.Errorf("%w: exit code %d", shared.ErrLoginFailed, *res.ExitCode)
	}

	return r.writeJSON(r.store.Region(), false)
}

// Logins lists recent login runs from the journal.
func (r *Runner) Logins(ctx context.Context, cmd *cli.Command) error {
	limit := int(cmd.Int("limit"))
	if limit <= 0 {
		return fmt.Errorf("%w: limit must be positive", shared.ErrInvalidArgument)
	}
	format := cmd.String("format")

	db, repo, err := r.openJournal()
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := repo.List(map[string]any{"limit": limit, "source": cmd.String("source")})
	if err != nil {
		return err
	}

	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteRuns(runs, format, path); err != nil {
			return err
		}
		r.logger.Info("exported login runs", "count", len(runs), "path", path)
		return nil
	}

	data, err := formatter.ExportRuns(runs, format)
	if err != nil {
		return err
	}

	if format == formatter.FormatText || format == "txt" {
		r.writePlainHeader(fmt.Sprintf("Login runs (%d)", len(runs)))
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
