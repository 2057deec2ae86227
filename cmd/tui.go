package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/pictag/internal/models"
	"github.com/desertthunder/pictag/internal/shared"
	"github.com/desertthunder/pictag/internal/ui"
)

// TUI launches the interactive terminal UI for batch analysis.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if r.backend == nil {
		return fmt.Errorf("%w: backend client not initialized", shared.ErrServiceUnavailable)
	}
	if r.engine == nil {
		return fmt.Errorf("%w: analysis engine not initialized", shared.ErrServiceUnavailable)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/pictag-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	opts := models.AnalysisOptions{GenerateTags: true, GenerateCategories: true}
	model := ui.NewModel(ctx, r.backend, r.engine, r.config.Backend.APIToken, opts)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
