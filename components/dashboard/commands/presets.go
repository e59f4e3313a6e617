package commands

import (
	"context"
	"fmt"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-portal-dashboard/components/dashboard"
)

// ViewerInput is the message of commands that only need the acting viewer.
type ViewerInput struct {
	Viewer dashboard.ViewerContext `json:"viewer"`
}

// PresetIndexInput targets one preset by position.
type PresetIndexInput struct {
	Viewer dashboard.ViewerContext `json:"viewer"`
	Index  int                     `json:"index"`
}

// RenamePresetInput renames the preset at Index.
type RenamePresetInput struct {
	Viewer dashboard.ViewerContext `json:"viewer"`
	Index  int                     `json:"index"`
	Name   string                  `json:"name"`
}

// NameGuard vets user supplied preset names.
type NameGuard interface {
	Allowed(ctx context.Context, name string) (bool, error)
}

// AddPresetCommand appends a preset built from the default widget set and activates it.
type AddPresetCommand struct {
	stores    dashboard.StoreSource
	telemetry Telemetry
}

// NewAddPresetCommand creates the command.
func NewAddPresetCommand(stores dashboard.StoreSource, telemetry Telemetry) *AddPresetCommand {
	return &AddPresetCommand{stores: stores, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ViewerInput] = (*AddPresetCommand)(nil)

// Execute adds the preset, failing with ErrPresetRejected at capacity.
func (c *AddPresetCommand) Execute(ctx context.Context, msg ViewerInput) error {
	ctx, store, err := resolveStore(ctx, c.stores, msg.Viewer)
	if err != nil {
		return err
	}
	preset := store.AddPreset(ctx)
	if preset == nil {
		return rejected("add preset")
	}
	c.telemetry.Record(ctx, "dashboard.command.add_preset", map[string]any{
		"preset_id": preset.ID,
		"user_id":   msg.Viewer.UserID,
	})
	return nil
}

// DeletePresetCommand removes a preset, refusing to delete the last one.
type DeletePresetCommand struct {
	stores    dashboard.StoreSource
	telemetry Telemetry
}

// NewDeletePresetCommand creates the command.
func NewDeletePresetCommand(stores dashboard.StoreSource, telemetry Telemetry) *DeletePresetCommand {
	return &DeletePresetCommand{stores: stores, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[PresetIndexInput] = (*DeletePresetCommand)(nil)

// Execute deletes the preset at msg.Index.
func (c *DeletePresetCommand) Execute(ctx context.Context, msg PresetIndexInput) error {
	ctx, store, err := resolveStore(ctx, c.stores, msg.Viewer)
	if err != nil {
		return err
	}
	if !store.DeletePreset(ctx, msg.Index) {
		return rejected("delete preset")
	}
	c.telemetry.Record(ctx, "dashboard.command.delete_preset", map[string]any{
		"index":   msg.Index,
		"user_id": msg.Viewer.UserID,
	})
	return nil
}

// RenamePresetCommand renames a preset after consulting the optional NameGuard.
type RenamePresetCommand struct {
	stores    dashboard.StoreSource
	guard     NameGuard
	telemetry Telemetry
}

// NewRenamePresetCommand creates the command. guard may be nil.
func NewRenamePresetCommand(stores dashboard.StoreSource, guard NameGuard, telemetry Telemetry) *RenamePresetCommand {
	return &RenamePresetCommand{stores: stores, guard: guard, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RenamePresetInput] = (*RenamePresetCommand)(nil)

// Execute renames the preset. An empty name falls back to "Preset <n>".
func (c *RenamePresetCommand) Execute(ctx context.Context, msg RenamePresetInput) error {
	ctx, store, err := resolveStore(ctx, c.stores, msg.Viewer)
	if err != nil {
		return err
	}
	if c.guard != nil && msg.Name != "" {
		ok, err := c.guard.Allowed(ctx, msg.Name)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrGuardUnavailable, err)
		}
		if !ok {
			return ErrNameRestricted
		}
	}
	if !store.RenamePreset(ctx, msg.Index, msg.Name) {
		return rejected("rename preset")
	}
	c.telemetry.Record(ctx, "dashboard.command.rename_preset", map[string]any{
		"index":   msg.Index,
		"user_id": msg.Viewer.UserID,
	})
	return nil
}

// DuplicatePresetCommand copies a preset and appends the copy.
type DuplicatePresetCommand struct {
	stores    dashboard.StoreSource
	telemetry Telemetry
}

// NewDuplicatePresetCommand creates the command.
func NewDuplicatePresetCommand(stores dashboard.StoreSource, telemetry Telemetry) *DuplicatePresetCommand {
	return &DuplicatePresetCommand{stores: stores, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[PresetIndexInput] = (*DuplicatePresetCommand)(nil)

// Execute duplicates the preset at msg.Index.
func (c *DuplicatePresetCommand) Execute(ctx context.Context, msg PresetIndexInput) error {
	ctx, store, err := resolveStore(ctx, c.stores, msg.Viewer)
	if err != nil {
		return err
	}
	dup := store.DuplicatePreset(ctx, msg.Index)
	if dup == nil {
		return rejected("duplicate preset")
	}
	c.telemetry.Record(ctx, "dashboard.command.duplicate_preset", map[string]any{
		"preset_id": dup.ID,
		"index":     msg.Index,
		"user_id":   msg.Viewer.UserID,
	})
	return nil
}

// SwitchPresetCommand activates another preset.
type SwitchPresetCommand struct {
	stores    dashboard.StoreSource
	telemetry Telemetry
}

// NewSwitchPresetCommand creates the command.
func NewSwitchPresetCommand(stores dashboard.StoreSource, telemetry Telemetry) *SwitchPresetCommand {
	return &SwitchPresetCommand{stores: stores, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[PresetIndexInput] = (*SwitchPresetCommand)(nil)

// Execute switches to msg.Index. Switching to the active preset is rejected.
func (c *SwitchPresetCommand) Execute(ctx context.Context, msg PresetIndexInput) error {
	ctx, store, err := resolveStore(ctx, c.stores, msg.Viewer)
	if err != nil {
		return err
	}
	if !store.SwitchPreset(ctx, msg.Index) {
		return rejected("switch preset")
	}
	c.telemetry.Record(ctx, "dashboard.command.switch_preset", map[string]any{
		"index":   msg.Index,
		"user_id": msg.Viewer.UserID,
	})
	return nil
}
