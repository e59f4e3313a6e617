package httpapi

import (
	dashboard "github.com/goliatone/go-portal-dashboard/components/dashboard"
	"github.com/goliatone/go-portal-dashboard/components/dashboard/commands"
)

// NewCommandExecutor wires every control tray command against one store source.
func NewCommandExecutor(stores dashboard.StoreSource, guard commands.NameGuard, telemetry commands.Telemetry) *CommandExecutor {
	return &CommandExecutor{
		AddPresetCommander:        commands.NewAddPresetCommand(stores, telemetry),
		DeletePresetCommander:     commands.NewDeletePresetCommand(stores, telemetry),
		RenamePresetCommander:     commands.NewRenamePresetCommand(stores, guard, telemetry),
		DuplicatePresetCommander:  commands.NewDuplicatePresetCommand(stores, telemetry),
		SwitchPresetCommander:     commands.NewSwitchPresetCommand(stores, telemetry),
		AddWidgetCommander:        commands.NewAddWidgetCommand(stores, telemetry),
		RemoveWidgetCommander:     commands.NewRemoveWidgetCommand(stores, telemetry),
		LockWidgetCommander:       commands.NewLockWidgetCommand(stores, telemetry),
		SaveLayoutCommander:       commands.NewSaveLayoutCommand(stores, telemetry),
		DiscardChangesCommander:   commands.NewDiscardChangesCommand(stores, telemetry),
		ToggleCycleCommander:      commands.NewToggleCycleCommand(stores, telemetry),
		SetCycleIntervalCommander: commands.NewSetCycleIntervalCommand(stores, telemetry),
		ImportPresetsCommander:    commands.NewImportPresetsCommand(stores, telemetry),
		ReloadPresetsCommander:    commands.NewReloadPresetsCommand(stores, telemetry),
	}
}
