package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/hifi/internal/models"
)

var _ list.Item = runItem{}

// runItem wraps [models.LoginRun] to implement [list.Item].
type runItem struct {
	run *models.LoginRun
}

func (i runItem) FilterValue() string { return i.run.Source() }
func (i runItem) Title() string {
	return fmt.Sprintf("%s  %s", i.run.StartedAt().Local().Format(time.DateTime), i.run.Status())
}
func (i runItem) Description() string {
	desc := fmt.Sprintf("%s • %d lines", i.run.Source(), i.run.Lines())
	if code := i.run.ExitCode(); code != nil {
		desc = fmt.Sprintf("%s • exit %d", desc, *code)
	}
	if i.run.Error() != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.run.Error())
	}
	return desc
}

func runItems(runs []*models.LoginRun) []list.Item {
	items := make([]list.Item, len(runs))
	for i, run := range runs {
		items[i] = runItem{run: run}
	}
	return items
}
