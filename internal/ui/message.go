package ui

import (
	"github.com/desertthunder/hifi/internal/models"
	"github.com/desertthunder/hifi/internal/tasks"
)

// lineMsg carries one relayed output line.
type lineMsg string

// progressUpdateMsg carries a [tasks.ProgressUpdate] from the bridge.
type progressUpdateMsg tasks.ProgressUpdate

// loginCompleteMsg is sent once the bridge returns and every line has been shown.
type loginCompleteMsg struct {
	result *tasks.LoginResult
}

// runsFetchedMsg carries the journal listing for the history view.
type runsFetchedMsg struct {
	runs []*models.LoginRun
	err  error
}
