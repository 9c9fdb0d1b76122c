package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/hifi/internal/models"
	"github.com/desertthunder/hifi/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	shared.ConfigureDatabase(db, 1, 1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestLoginRunRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		repo := NewLoginRunRepository(setupTestDB(t))
		run := models.NewLoginRun(models.SourceWebsocket)

		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create login run: %v", err)
		}

		if run.ID() == "" {
			t.Error("run ID should be set after creation")
		}
	})

	t.Run("Create Rejects Unknown Source", func(t *testing.T) {
		repo := NewLoginRunRepository(setupTestDB(t))

		if err := repo.Create(models.NewLoginRun("cron")); err == nil {
			t.Error("expected validation error")
		}
	})

	t.Run("Start And Finish", func(t *testing.T) {
		repo := NewLoginRunRepository(setupTestDB(t))

		run, err := repo.Start(models.SourceCLI)
		if err != nil {
			t.Fatalf("failed to start run: %v", err)
		}

		code := 0
		run.SetLines(4)
		run.Finish(time.Now(), &code, nil)
		if err := repo.Finish(run); err != nil {
			t.Fatalf("failed to finish run: %v", err)
		}

		got, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}

		if got.Status() != models.RunSucceeded {
			t.Errorf("expected status ok, got %s", got.Status())
		}
		if got.Lines() != 4 {
			t.Errorf("expected 4 lines, got %d", got.Lines())
		}
		if got.ExitCode() == nil || *got.ExitCode() != 0 {
			t.Errorf("expected exit code 0, got %v", got.ExitCode())
		}
		if got.FinishedAt() == nil {
			t.Error("expected finished_at to be stored")
		}
	})

	t.Run("Failed Run Keeps Error", func(t *testing.T) {
		repo := NewLoginRunRepository(setupTestDB(t))

		run, _ := repo.Start(models.SourceWebsocket)
		run.Finish(time.Now(), nil, errors.New("exec: python3: not found"))
		if err := repo.Update(run); err != nil {
			t.Fatalf("failed to update run: %v", err)
		}

		got, _ := repo.Get(run.ID())
		if got.Status() != models.RunFailed {
			t.Errorf("expected failed status, got %s", got.Status())
		}
		if got.Error() != "exec: python3: not found" {
			t.Errorf("unexpected error text %q", got.Error())
		}
		if got.ExitCode() != nil {
			t.Errorf("expected no exit code, got %d", *got.ExitCode())
		}
	})

	t.Run("Get Not Found", func(t *testing.T) {
		repo := NewLoginRunRepository(setupTestDB(t))

		if _, err := repo.Get("missing"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewLoginRunRepository(setupTestDB(t))

		base := time.Now().Add(-time.Hour)
		for i, source := range []string{models.SourceCLI, models.SourceWebsocket, models.SourceWebsocket} {
			run := models.NewLoginRun(source)
			run.SetStartedAt(base.Add(time.Duration(i) * time.Minute))
			if err := repo.Create(run); err != nil {
				t.Fatalf("failed to create run: %v", err)
			}
		}

		all, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("expected 3 runs, got %d", len(all))
		}
		if !all[0].StartedAt().After(all[2].StartedAt()) {
			t.Error("expected newest run first")
		}

		limited, _ := repo.List(map[string]any{"limit": 1})
		if len(limited) != 1 {
			t.Errorf("expected 1 run, got %d", len(limited))
		}

		ws, _ := repo.List(map[string]any{"source": models.SourceWebsocket})
		if len(ws) != 2 {
			t.Errorf("expected 2 websocket runs, got %d", len(ws))
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewLoginRunRepository(setupTestDB(t))

		run, _ := repo.Start(models.SourceCLI)
		if err := repo.Delete(run.ID()); err != nil {
			t.Fatalf("failed to delete run: %v", err)
		}
		if err := repo.Delete(run.ID()); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound on second delete, got %v", err)
		}
	})
}
