// package tasks runs the interactive login task and relays its output line by line.
//
// The core abstraction is LoginBridge, which spawns the task, merges its two output streams and reports completion.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/hifi/internal/models"
	"github.com/desertthunder/hifi/internal/shared"
)

// CompletionMarker is the last line sent after the login task exits without an I/O failure.
const CompletionMarker = "=== login script finished ==="

// ErrorPrefix starts the single line sent when the task cannot be run or read.
const ErrorPrefix = "error: "

// maxLineSize bounds a single output line. Longer lines fail the stream.
const maxLineSize = 1 << 20

// ErrorLine formats err as the line sent to the client.
func ErrorLine(err error) string {
	return ErrorPrefix + err.Error()
}

// Spawner starts the login task.
type Spawner interface {
	Spawn(ctx context.Context) (Process, error)
}

// Process is a started login task: two output streams and an exit signal.
//
// Wait must only be called once both streams have been read to EOF.
type Process interface {
	Stdout() io.Reader
	Stderr() io.Reader
	Wait() error
}

// Sink receives each forwarded line in order. A non-nil error stops forwarding.
type Sink func(line string) error

// Journal records login runs. It is optional.
type Journal interface {
	Start(source string) (*models.LoginRun, error)
	Finish(run *models.LoginRun) error
}

// LoginResult summarizes one bridge run.
type LoginResult struct {
	RunID    string
	ExitCode *int  // nil when the task never exited normally
	Lines    int   // non-empty lines delivered to the sink
	Err      error // spawn, read or wait failure reported to the sink
	SinkErr  error // the sink refused a line, usually a disconnected client
}

// LoginBridge relays the login task's output to a [Sink].
type LoginBridge struct {
	spawner Spawner
	journal Journal
	logger  *log.Logger
}

// NewLoginBridge creates a bridge. journal may be nil.
func NewLoginBridge(spawner Spawner, journal Journal, logger *log.Logger) *LoginBridge {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &LoginBridge{spawner: spawner, journal: journal, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run spawns the task and forwards every non-empty, trimmed line from either stream to sink
// as soon as it is read. Lines from one stream keep their order; the two streams interleave
// by arrival. When the task exits, sink gets [CompletionMarker], or a single error line if the
// task could not be spawned or read.
//
// Run always waits for the task before returning. If sink fails, the task is cancelled and
// its remaining output discarded.
func (b *LoginBridge) Run(ctx context.Context, source string, sink Sink, progress chan<- ProgressUpdate) *LoginResult {
	res := &LoginResult{}
	run := b.startRun(source)
	if run != nil {
		res.RunID = run.ID()
	}
	defer b.finishRun(run, res)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sendProgress(progress, spawnUpdate())
	proc, err := b.spawner.Spawn(ctx)
	if err != nil {
		res.Err = fmt.Errorf("%w: %v", shared.ErrLoginFailed, err)
		res.SinkErr = sink(ErrorLine(res.Err))
		return res
	}

	lines, readErr := mergeLines(proc.Stdout(), proc.Stderr())
	for line := range lines {
		if res.SinkErr != nil {
			continue
		}
		if err := sink(line); err != nil {
			res.SinkErr = err
			cancel()
			continue
		}
		res.Lines++
		sendProgress(progress, lineUpdate(res.Lines, line))
	}

	code, waitErr := exitStatus(proc.Wait())
	res.ExitCode = code
	if res.SinkErr != nil {
		return res
	}

	failure := readErr()
	if failure == nil {
		failure = waitErr
	}
	if failure != nil {
		res.Err = fmt.Errorf("%w: %v", shared.ErrLoginFailed, failure)
		res.SinkErr = sink(ErrorLine(res.Err))
		return res
	}

	sendProgress(progress, exitUpdate(code))
	res.SinkErr = sink(CompletionMarker)
	return res
}

func (b *LoginBridge) startRun(source string) *models.LoginRun {
	if b.journal == nil {
		return nil
	}
	run, err := b.journal.Start(source)
	if err != nil {
		b.logger.Warn("failed to record login run", "source", source, "error", err)
		return nil
	}
	return run
}

func (b *LoginBridge) finishRun(run *models.LoginRun, res *LoginResult) {
	logger := b.logger.With("lines", res.Lines)
	if res.ExitCode != nil {
		logger = logger.With("exit_code", *res.ExitCode)
	}
	switch {
	case res.Err != nil:
		logger.Error("login task failed", "error", res.Err)
	case res.SinkErr != nil:
		logger.Warn("login output abandoned", "error", res.SinkErr)
	default:
		logger.Info("login task finished")
	}

	if run == nil {
		return
	}
	run.SetLines(res.Lines)
	failure := res.Err
	if failure == nil {
		failure = res.SinkErr
	}
	run.Finish(time.Now(), res.ExitCode, failure)
	if err := b.journal.Finish(run); err != nil {
		b.logger.Warn("failed to record login run outcome", "run", run.ID(), "error", err)
	}
}

// mergeLines reads every reader to EOF concurrently and delivers their non-empty trimmed
// lines on one channel, closed once all readers are exhausted. The returned function
// reports the first read failure and is only meaningful after the channel closes.
func mergeLines(readers ...io.Reader) (<-chan string, func() error) {
	out := make(chan string)

	var (
		wg    sync.WaitGroup
		once  sync.Once
		first error
	)
	wg.Add(len(readers))

	for _, r := range readers {
		go func() {
			defer wg.Done()

			scanner := bufio.NewScanner(r)
			scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
			for scanner.Scan() {
				line := strings.TrimSpace(strings.ToValidUTF8(scanner.Text(), ""))
				if line != "" {
					out <- line
				}
			}

			if err := scanner.Err(); err != nil {
				once.Do(func() { first = err })
				io.Copy(io.Discard, r)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out, func() error { return first }
}

// exitCoder matches *exec.ExitError and test doubles.
type exitCoder interface {
	ExitCode() int
}

// exitStatus splits a Wait result into an exit code and a genuine failure.
// A non-zero exit is not a failure.
func exitStatus(err error) (*int, error) {
	if err == nil {
		code := 0
		return &code, nil
	}
	var ec exitCoder
	if errors.As(err, &ec) {
		code := ec.ExitCode()
		return &code, nil
	}
	return nil, err
}
