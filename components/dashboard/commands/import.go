package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-portal-dashboard/components/dashboard"
)

// ImportPresetsInput replaces the viewer's presets.
type ImportPresetsInput struct {
	Viewer  dashboard.ViewerContext `json:"viewer"`
	Presets []dashboard.Preset      `json:"presets"`
}

// ImportPresetsCommand seeds a store from an exported preset document.
type ImportPresetsCommand struct {
	stores    dashboard.StoreSource
	telemetry Telemetry
}

// NewImportPresetsCommand creates the command.
func NewImportPresetsCommand(stores dashboard.StoreSource, telemetry Telemetry) *ImportPresetsCommand {
	return &ImportPresetsCommand{stores: stores, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ImportPresetsInput] = (*ImportPresetsCommand)(nil)

// Execute replaces the preset list. Empty or oversized lists are rejected.
func (c *ImportPresetsCommand) Execute(ctx context.Context, msg ImportPresetsInput) error {
	if len(msg.Presets) == 0 {
		return errors.New("commands: import requires at least one preset")
	}
	ctx, store, err := resolveStore(ctx, c.stores, msg.Viewer)
	if err != nil {
		return err
	}
	if !store.ImportPresets(ctx, msg.Presets) {
		return rejected("import presets")
	}
	c.telemetry.Record(ctx, "dashboard.command.import", map[string]any{
		"presets": len(msg.Presets),
		"user_id": msg.Viewer.UserID,
	})
	return nil
}

// ReloadPresetsCommand re-reads the viewer's presets from storage.
type ReloadPresetsCommand struct {
	stores    dashboard.StoreSource
	telemetry Telemetry
}

// NewReloadPresetsCommand creates the command.
func NewReloadPresetsCommand(stores dashboard.StoreSource, telemetry Telemetry) *ReloadPresetsCommand {
	return &ReloadPresetsCommand{stores: stores, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ViewerInput] = (*ReloadPresetsCommand)(nil)

// Execute reloads storage. A missing or invalid document leaves the store untouched.
func (c *ReloadPresetsCommand) Execute(ctx context.Context, msg ViewerInput) error {
	ctx, store, err := resolveStore(ctx, c.stores, msg.Viewer)
	if err != nil {
		return err
	}
	changed := store.Reload(ctx)
	c.telemetry.Record(ctx, "dashboard.command.reload", map[string]any{
		"changed": changed,
		"user_id": msg.Viewer.UserID,
	})
	return nil
}
