package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tgillam/jukebox/internal/shared"
	"github.com/tgillam/jukebox/internal/ui"
)

// remotePlayTUI runs the interactive candidate picker and download view.
func (r *Runner) remotePlayTUI(ctx context.Context, query string) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/jukebox-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, r.orchestrator, query)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	if err := model.Err(); err != nil {
		return err
	}

	// Keep the session alive while something is playing.
	if r.orchestrator.Status().Connected {
		<-ctx.Done()
		r.orchestrator.Disconnect()
	}
	return nil
}
