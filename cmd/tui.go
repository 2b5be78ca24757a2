package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/roomsync/internal/shared"
	"github.com/desertthunder/roomsync/internal/ui"
	"github.com/urfave/cli/v3"
)

// RoomTUI joins a room and runs the interactive terminal UI until the user quits, then leaves.
func (r *Runner) RoomTUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	if !r.isTerminal() {
		return fmt.Errorf("%w: the TUI needs a terminal, use 'roomsync room listen --json' instead", shared.ErrInvalidArgument)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, r.logger.GetLevel())
	r.SetLogger(fileLogger)

	leave, err := r.joinRoom(ctx, id)
	if err != nil {
		return err
	}
	defer leave()

	model := ui.NewModel(ctx, r.session)
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
