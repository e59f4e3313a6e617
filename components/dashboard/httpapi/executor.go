package httpapi

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-portal-dashboard/components/dashboard/commands"
)

var errCommandUnavailable = errors.New("httpapi: command not configured")

// Executor runs control tray commands on behalf of a transport.
type Executor interface {
	AddPreset(ctx context.Context, input commands.ViewerInput) error
	DeletePreset(ctx context.Context, input commands.PresetIndexInput) error
	RenamePreset(ctx context.Context, input commands.RenamePresetInput) error
	DuplicatePreset(ctx context.Context, input commands.PresetIndexInput) error
	SwitchPreset(ctx context.Context, input commands.PresetIndexInput) error
	AddWidget(ctx context.Context, input commands.WidgetInput) error
	RemoveWidget(ctx context.Context, input commands.WidgetInput) error
	LockWidget(ctx context.Context, input commands.LockWidgetInput) error
	SaveLayout(ctx context.Context, input commands.SaveLayoutInput) error
	DiscardChanges(ctx context.Context, input commands.ViewerInput) error
	ToggleCycle(ctx context.Context, input commands.ViewerInput) error
	SetCycleInterval(ctx context.Context, input commands.CycleIntervalInput) error
	ImportPresets(ctx context.Context, input commands.ImportPresetsInput) error
	ReloadPresets(ctx context.Context, input commands.ViewerInput) error
}

// CommandExecutor adapts go-command commanders to Executor. Unset commanders fail with an
// error rather than panicking.
type CommandExecutor struct {
	AddPresetCommander        gocommand.Commander[commands.ViewerInput]
	DeletePresetCommander     gocommand.Commander[commands.PresetIndexInput]
	RenamePresetCommander     gocommand.Commander[commands.RenamePresetInput]
	DuplicatePresetCommander  gocommand.Commander[commands.PresetIndexInput]
	SwitchPresetCommander     gocommand.Commander[commands.PresetIndexInput]
	AddWidgetCommander        gocommand.Commander[commands.WidgetInput]
	RemoveWidgetCommander     gocommand.Commander[commands.WidgetInput]
	LockWidgetCommander       gocommand.Commander[commands.LockWidgetInput]
	SaveLayoutCommander       gocommand.Commander[commands.SaveLayoutInput]
	DiscardChangesCommander   gocommand.Commander[commands.ViewerInput]
	ToggleCycleCommander      gocommand.Commander[commands.ViewerInput]
	SetCycleIntervalCommander gocommand.Commander[commands.CycleIntervalInput]
	ImportPresetsCommander    gocommand.Commander[commands.ImportPresetsInput]
	ReloadPresetsCommander    gocommand.Commander[commands.ViewerInput]
}

var _ Executor = (*CommandExecutor)(nil)

func run[T any](ctx context.Context, cmd gocommand.Commander[T], msg T) error {
	if cmd == nil {
		return errCommandUnavailable
	}
	return cmd.Execute(ctx, msg)
}

func (e *CommandExecutor) AddPreset(ctx context.Context, input commands.ViewerInput) error {
	return run(ctx, e.AddPresetCommander, input)
}

func (e *CommandExecutor) DeletePreset(ctx context.Context, input commands.PresetIndexInput) error {
	return run(ctx, e.DeletePresetCommander, input)
}

func (e *CommandExecutor) RenamePreset(ctx context.Context, input commands.RenamePresetInput) error {
	return run(ctx, e.RenamePresetCommander, input)
}

func (e *CommandExecutor) DuplicatePreset(ctx context.Context, input commands.PresetIndexInput) error {
	return run(ctx, e.DuplicatePresetCommander, input)
}

func (e *CommandExecutor) SwitchPreset(ctx context.Context, input commands.PresetIndexInput) error {
	return run(ctx, e.SwitchPresetCommander, input)
}

func (e *CommandExecutor) AddWidget(ctx context.Context, input commands.WidgetInput) error {
	return run(ctx, e.AddWidgetCommander, input)
}

func (e *CommandExecutor) RemoveWidget(ctx context.Context, input commands.WidgetInput) error {
	return run(ctx, e.RemoveWidgetCommander, input)
}

func (e *CommandExecutor) LockWidget(ctx context.Context, input commands.LockWidgetInput) error {
	return run(ctx, e.LockWidgetCommander, input)
}

func (e *CommandExecutor) SaveLayout(ctx context.Context, input commands.SaveLayoutInput) error {
	return run(ctx, e.SaveLayoutCommander, input)
}

func (e *CommandExecutor) DiscardChanges(ctx context.Context, input commands.ViewerInput) error {
	return run(ctx, e.DiscardChangesCommander, input)
}

func (e *CommandExecutor) ToggleCycle(ctx context.Context, input commands.ViewerInput) error {
	return run(ctx, e.ToggleCycleCommander, input)
}

func (e *CommandExecutor) SetCycleInterval(ctx context.Context, input commands.CycleIntervalInput) error {
	return run(ctx, e.SetCycleIntervalCommander, input)
}

func (e *CommandExecutor) ImportPresets(ctx context.Context, input commands.ImportPresetsInput) error {
	return run(ctx, e.ImportPresetsCommander, input)
}

func (e *CommandExecutor) ReloadPresets(ctx context.Context, input commands.ViewerInput) error {
	return run(ctx, e.ReloadPresetsCommander, input)
}
