package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/hifi/internal/credentials"
	"github.com/desertthunder/hifi/internal/models"
	"github.com/desertthunder/hifi/internal/repositories"
	"github.com/desertthunder/hifi/internal/services"
	"github.com/desertthunder/hifi/internal/shared"
	tu "github.com/desertthunder/hifi/internal/testing"
	"github.com/urfave/cli/v3"
)

// runApp executes args against a root command built from runner, the way main does.
func runApp(t *testing.T, runner *Runner, args ...string) error {
	t.Helper()
	app := &cli.Command{
		Name:     "hifi",
		Flags:    []cli.Flag{configFlag()},
		Commands: runner.register(),
	}
	return app.Run(context.Background(), append([]string{"hifi"}, args...))
}

func testConfig(t *testing.T) *shared.Config {
	t.Helper()
	config := shared.DefaultConfig()
	config.Credentials.TokenFile = filepath.Join(t.TempDir(), "token.json")
	config.Database.Path = filepath.Join(t.TempDir(), "hifi.db")
	return config
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			store := credentials.NewStore("elsewhere.json", logger)
			api := services.NewAPIService(httpClient)
			catalog := services.NewTidalService(api, services.TidalConfig{})

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Store:      store,
				API:        api,
				Catalog:    catalog,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.store != store {
				t.Error("expected store to be set")
			}
			if runner.api != api {
				t.Error("expected api to be set")
			}
			if runner.catalog != catalog {
				t.Error("expected catalog to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses upstream timeout", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Upstream.TimeoutSeconds = 7

			runner := NewRunner(RunnerOpts{Config: config})

			if runner.httpClient == nil {
				t.Fatal("expected httpClient to be built")
			}
			if runner.httpClient.Timeout != 7*time.Second {
				t.Errorf("expected 7s timeout, got %v", runner.httpClient.Timeout)
			}
		})

		t.Run("with nil store reads configured token file", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Credentials.TokenFile = "/secrets/token.json"

			runner := NewRunner(RunnerOpts{Config: config})

			if runner.store.Path() != "/secrets/token.json" {
				t.Errorf("expected store path from config, got %s", runner.store.Path())
			}
			if runner.api == nil || runner.catalog == nil {
				t.Error("expected api and catalog to be built")
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/test/path/config.toml"})

			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writeJSON(map[string]string{"key": "value"}, true)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)
			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("writePlainln surrounds with newlines", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlainln("Next steps:"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "\nNext steps:\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}

		for _, want := range []string{"serve", "region", "api", "login", "logins", "setup"} {
			if !names[want] {
				t.Errorf("expected %q command to be registered", want)
			}
		}
	})
}

func TestConfigPathFromArgs(t *testing.T) {
	tc := []struct {
		name string
		args []string
		want string
	}{
		{name: "default", args: []string{"hifi", "serve"}, want: "config.toml"},
		{name: "short flag", args: []string{"hifi", "-c", "alt.toml", "serve"}, want: "alt.toml"},
		{name: "long flag with equals", args: []string{"hifi", "--config=prod.toml", "serve"}, want: "prod.toml"},
		{name: "dangling flag", args: []string{"hifi", "serve", "--config"}, want: "config.toml"},
		{name: "after terminator", args: []string{"hifi", "api", "get", "--", "-c", "x"}, want: "config.toml"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := configPathFromArgs(tt.args); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestCommands(t *testing.T) {
	t.Run("region", func(t *testing.T) {
		t.Run("reports missing token file", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Config: testConfig(t), Output: output})

			if err := runApp(t, runner, "region"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			want := `{"region":"N/A","error":"Token file not found"}` + "\n"
			if output.String() != want {
				t.Errorf("expected %q, got %q", want, output.String())
			}
		})

		t.Run("reports stored country code", func(t *testing.T) {
			config := testConfig(t)
			config.Credentials.TokenFile = tu.WriteToken(t, t.TempDir(), "tok", "DE")
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Config: config, Output: output})

			if err := runApp(t, runner, "region"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.Contains(output.String(), `"region":"DE"`) {
				t.Errorf("expected DE region, got %q", output.String())
			}
		})
	})

	t.Run("api get", func(t *testing.T) {
		newRunner := func(t *testing.T, routes map[string]tu.Reply) (*Runner, *tu.Upstream, *bytes.Buffer) {
			upstream := tu.NewUpstream(t, routes)
			config := testConfig(t)
			config.Credentials.TokenFile = tu.WriteToken(t, t.TempDir(), "secret", "GB")
			config.Upstream.APIURL = upstream.URL + "/api"
			config.Upstream.WebURL = upstream.URL + "/web"
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Config: config, Output: output, HTTPClient: upstream.Client()})
			return runner, upstream, output
		}

		t.Run("authenticates and injects the region", func(t *testing.T) {
			runner, upstream, output := newRunner(t, map[string]tu.Reply{
				"/api/albums/7": {Body: `{"id":7,"title":"Seven"}`},
			})

			if err := runApp(t, runner, "api", "get", "--pretty=false", "-q", "limit=3", "albums/7"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			call, ok := upstream.Call("/api/albums/7")
			if !ok {
				t.Fatal("expected upstream call")
			}
			if call.Authorization != "Bearer secret" {
				t.Errorf("expected bearer token, got %q", call.Authorization)
			}
			if call.Query.Get("countryCode") != "GB" || call.Query.Get("limit") != "3" {
				t.Errorf("unexpected query %v", call.Query)
			}
			if output.String() != `{"id":7,"title":"Seven"}`+"\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("web flag switches base URL", func(t *testing.T) {
			runner, upstream, _ := newRunner(t, map[string]tu.Reply{
				"/web/pages/home": {Body: `{"rows":[]}`},
			})

			if err := runApp(t, runner, "api", "get", "--web", "-q", "countryCode=US", "pages/home"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			call, ok := upstream.Call("/web/pages/home")
			if !ok {
				t.Fatal("expected call on web base")
			}
			if call.Query.Get("countryCode") != "US" {
				t.Errorf("expected explicit countryCode to win, got %v", call.Query)
			}
		})

		t.Run("upstream error is returned", func(t *testing.T) {
			runner, _, _ := newRunner(t, nil)

			err := runApp(t, runner, "api", "get", "missing")
			var upErr *services.UpstreamError
			if !errors.As(err, &upErr) {
				t.Fatalf("expected upstream error, got %v", err)
			}
			if upErr.Status != http.StatusNotFound {
				t.Errorf("expected 404, got %d", upErr.Status)
			}
		})

		t.Run("bad query pair", func(t *testing.T) {
			runner, upstream, _ := newRunner(t, nil)

			err := runApp(t, runner, "api", "get", "-q", "nokey", "albums/7")
			if !errors.Is(err, shared.ErrInvalidArgument) {
				t.Fatalf("expected invalid argument, got %v", err)
			}
			if len(upstream.Calls()) != 0 {
				t.Error("expected no upstream call")
			}
		})

		t.Run("missing token", func(t *testing.T) {
			runner, _, _ := newRunner(t, nil)
			runner.store = credentials.NewStore(filepath.Join(t.TempDir(), "none.json"), runner.logger)

			err := runApp(t, runner, "api", "get", "albums/7")
			if !errors.Is(err, shared.ErrUnauthorized) {
				t.Fatalf("expected unauthorized, got %v", err)
			}
		})
	})

	t.Run("logins", func(t *testing.T) {
		seed := func(t *testing.T, config *shared.Config) {
			t.Helper()
			db, err := shared.OpenDatabase(config.Database)
			if err != nil {
				t.Fatalf("failed to open database: %v", err)
			}
			defer db.Close()

			repo := repositories.NewLoginRunRepository(db)
			for _, source := range []string{models.SourceCLI, models.SourceWebsocket} {
				run, err := repo.Start(source)
				if err != nil {
					t.Fatalf("failed to start run: %v", err)
				}
				code := 0
				run.Finish(time.Now(), &code, nil)
				if err := repo.Finish(run); err != nil {
					t.Fatalf("failed to finish run: %v", err)
				}
			}
		}

		t.Run("json output", func(t *testing.T) {
			config := testConfig(t)
			seed(t, config)
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Config: config, Output: output})

			if err := runApp(t, runner, "logins", "--format", "json"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			var runs []map[string]any
			if err := json.Unmarshal(output.Bytes(), &runs); err != nil {
				t.Fatalf("expected JSON array, got %q: %v", output.String(), err)
			}
			if len(runs) != 2 {
				t.Errorf("expected 2 runs, got %d", len(runs))
			}
		})

		t.Run("source filter and text header", func(t *testing.T) {
			config := testConfig(t)
			seed(t, config)
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Config: config, Output: output})

			if err := runApp(t, runner, "logins", "--source", models.SourceCLI); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			out := output.String()
			if !strings.Contains(out, "Login runs (1)") {
				t.Errorf("expected header with one run, got %q", out)
			}
			if strings.Contains(out, models.SourceWebsocket) {
				t.Errorf("expected websocket runs to be filtered, got %q", out)
			}
		})

		t.Run("writes file", func(t *testing.T) {
			config := testConfig(t)
			seed(t, config)
			path := filepath.Join(t.TempDir(), "runs.csv")
			runner := NewRunner(RunnerOpts{Config: config, Output: &bytes.Buffer{}})

			if err := runApp(t, runner, "logins", "-f", "csv", "-o", path); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			tu.AssertFileExists(t, path)
			if lines := strings.Count(tu.MustReadFile(t, path), "\n"); lines != 3 {
				t.Errorf("expected header plus 2 rows, got %d lines", lines)
			}
		})

		t.Run("rejects non-positive limit", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: testConfig(t), Output: &bytes.Buffer{}})

			err := runApp(t, runner, "logins", "--limit", "0")
			if !errors.Is(err, shared.ErrInvalidArgument) {
				t.Fatalf("expected invalid argument, got %v", err)
			}
		})
	})

	t.Run("setup", func(t *testing.T) {
		t.Run("creates config from template and migrates", func(t *testing.T) {
			dir := t.TempDir()
			t.Chdir(dir)

			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{ConfigPath: "config.toml", Output: output})

			if err := runApp(t, runner, "setup"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			tu.AssertFileExists(t, filepath.Join(dir, "config.toml"))
			tu.AssertFileExists(t, filepath.Join(dir, "hifi.db"))
			if !strings.Contains(output.String(), "Wrote config.toml") {
				t.Errorf("expected confirmation, got %q", output.String())
			}
		})

		t.Run("keeps existing config", func(t *testing.T) {
			config := testConfig(t)
			configPath := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(configPath, []byte("# mine\n"), 0644); err != nil {
				t.Fatal(err)
			}

			runner := NewRunner(RunnerOpts{Config: config, ConfigPath: configPath, Output: &bytes.Buffer{}})
			if err := runApp(t, runner, "setup"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if got := tu.MustReadFile(t, configPath); got != "# mine\n" {
				t.Errorf("expected config untouched, got %q", got)
			}
			tu.AssertFileExists(t, config.Database.Path)
		})
	})
}
