package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a login run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Lines forwarded so far
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data (exit code on Exited)
}

// Operation phase enumeration
type Phase int

const (
	Spawning Phase = iota
	Streaming
	Exited
)

func (p Phase) String() string {
	switch p {
	case Spawning:
		return "spawning"
	case Streaming:
		return "streaming"
	case Exited:
		return "exited"
	default:
		return ""
	}
}

func spawnUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: Spawning, Message: "Starting login task..."}
}

func lineUpdate(step int, line string) ProgressUpdate {
	return ProgressUpdate{Phase: Streaming, Step: step, Message: line}
}

func exitUpdate(code *int) ProgressUpdate {
	u := ProgressUpdate{Phase: Exited, Message: "Login task exited"}
	if code != nil {
		u.Message = fmt.Sprintf("Login task exited with status %d", *code)
		u.Data = *code
	}
	return u
}
