package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"fern/internal/driver"
	"fern/internal/ui"
)

type analyzeOutcome struct {
	results []*driver.ModuleResult
	err     error
}

// runAnalysisWithUI drives the session in the background while a Bubble
// Tea program renders per-file progress on stdout.
func runAnalysisWithUI(ctx context.Context, title string, s *driver.Session, files []string) ([]*driver.ModuleResult, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan analyzeOutcome, 1)

	go func() {
		results, err := s.BuildFiles(ctx, files, events)
		outcomeCh <- analyzeOutcome{results: results, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
