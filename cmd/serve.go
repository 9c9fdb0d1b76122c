package main

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/desertthunder/hifi/internal/repositories"
	"github.com/desertthunder/hifi/internal/server"
	"github.com/desertthunder/hifi/internal/shared"
	"github.com/desertthunder/hifi/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Serve runs the gateway until SIGINT or SIGTERM.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if host := cmd.String("host"); host != "" {
		r.config.Server.Host = host
	}
	if port := int(cmd.Int("port")); port != 0 {
		r.config.Server.Port = port
	}
	if err := r.config.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := server.NewMetrics()
	r.api.WithObserver(metrics.ObserveUpstream)

	var (
		journal tasks.Journal
		runs    server.RunLister
	)
	if !cmd.Bool("no-journal") {
		db, repo, err := r.openJournal()
		if err != nil {
			return err
		}
		defer db.Close()
		journal, runs = repo, repo
	}

	r.watchToken(ctx)

	login := r.config.Login
	bridge := tasks.NewLoginBridge(&tasks.ExecSpawner{
		Command: login.Command,
		Dir:     login.Dir,
		Env:     []string{shared.EnvTokenFile + "=" + r.config.Credentials.TokenFile},
	}, journal, shared.WithLogger(r.logger, "component", "login"))

	gateway := server.NewGateway(server.GatewayOpts{
		Credentials: r.store,
		Catalog:     r.catalog,
		Runs:        runs,
		ImagesURL:   r.config.Upstream.ImagesURL,
		Logger:      shared.WithLogger(r.logger, "component", "gateway"),
	})

	loginHandler := server.NewLoginHandler(bridge, metrics, r.logger)
	handler := server.NewHandler(server.HandlerOpts{
		Config:  r.config.Server,
		Gateway: gateway,
		Login:   loginHandler,
		Metrics: metrics,
		Logger:  r.logger,
	})

	srv := server.NewServer(r.config.Server, handler, r.logger)
	srv.OnShutdown(loginHandler.Shutdown)
	ln, err := net.Listen("tcp", srv.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", srv.Addr(), err)
	}

	if cmd.Bool("open") {
		r.openClient(ln.Addr())
	}

	return srv.Serve(ctx, ln)
}

// openJournal opens and migrates the login run database.
func (r *Runner) openJournal() (*sql.DB, *repositories.LoginRunRepository, error) {
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open login journal: %w", err)
	}
	return db, repositories.NewLoginRunRepository(db), nil
}

// watchToken logs token file changes until ctx is done. A watcher that cannot
// start is not fatal: the gateway reads the file on every request anyway.
func (r *Runner) watchToken(ctx context.Context) {
	w, err := r.store.Watch(nil)
	if err != nil {
		r.logger.Warn("not watching token file", "error", err)
		return
	}

	go func() {
		if err := w.Run(ctx); err != nil {
			r.logger.Warn("token watcher stopped", "error", err)
		}
	}()
}

func (r *Runner) openClient(addr net.Addr) {
	host := r.config.Server.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	port := r.config.Server.Port
	if tcp, ok := addr.(*net.TCPAddr); ok {
		port = tcp.Port
	}
	url := "http://" + net.JoinHostPort(host, strconv.Itoa(port)) + "/"
	if err := shared.OpenBrowser(url); err != nil {
		r.logger.Warn("failed to open browser", "url", url, "error", err)
	}
}
