// Package tasks relays the interactive login task to a client with real-time progress reporting.
//
// # Login Bridge
//
// [LoginBridge.Run] is the single operation:
//
//  1. Spawn the task through a [Spawner] ([ExecSpawner] in production)
//  2. Read stdout and stderr concurrently, each line trimmed, empty lines dropped
//  3. Forward each line to the [Sink] as soon as it is read
//  4. Wait for the task, then send [CompletionMarker]
//
// A spawn failure, a read failure or a failed wait is reported as a single line
// starting with [ErrorPrefix] in place of the marker. A non-zero exit status is
// not a failure; it is recorded in the [LoginResult] and the journal.
//
// When the sink fails (the client went away) the task is cancelled, its
// remaining output is discarded and it is still waited for.
//
// # Progress Reporting
//
// All runs use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, line counter, message, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Journal
//
// The optional [Journal] interface records each run (repositories.LoginRunRepository).
// Journal errors are logged and never interrupt a run.
package tasks
