package tasks

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

// ExecSpawner runs the login task as a child process.
type ExecSpawner struct {
	Command []string      // argv, e.g. python3 -u login.py
	Dir     string        // working directory; empty means the current one
	Env     []string      // extra KEY=VALUE pairs appended to the inherited environment
	Grace   time.Duration // how long a cancelled task may keep its pipes open; default 2s
}

// Spawn starts the command with both output streams piped.
// Cancelling ctx kills the process.
func (s *ExecSpawner) Spawn(ctx context.Context) (Process, error) {
	if len(s.Command) == 0 {
		return nil, fmt.Errorf("no login command configured")
	}

	cmd := exec.CommandContext(ctx, s.Command[0], s.Command[1:]...)
	cmd.Dir = s.Dir
	cmd.Env = append(append(os.Environ(), "PYTHONUNBUFFERED=1"), s.Env...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", s.Command[0], err)
	}

	grace := s.Grace
	if grace <= 0 {
		grace = 2 * time.Second
	}

	p := &execProcess{cmd: cmd, stdout: stdout, stderr: stderr, done: make(chan struct{})}
	go p.closeOnCancel(ctx, grace)
	return p, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr io.ReadCloser
	done   chan struct{}
}

func (p *execProcess) Stdout() io.Reader { return p.stdout }
func (p *execProcess) Stderr() io.Reader { return p.stderr }

func (p *execProcess) Wait() error {
	defer close(p.done)
	return p.cmd.Wait()
}

// closeOnCancel unblocks readers when a killed task left descendants holding its pipes.
func (p *execProcess) closeOnCancel(ctx context.Context, grace time.Duration) {
	select {
	case <-p.done:
		return
	case <-ctx.Done():
	}

	select {
	case <-p.done:
	case <-time.After(grace):
		p.stdout.Close()
		p.stderr.Close()
	}
}
