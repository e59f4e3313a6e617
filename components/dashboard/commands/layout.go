package commands

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-portal-dashboard/components/dashboard"
)

// SaveLayoutInput commits the grid layouts reported by the renderer.
type SaveLayoutInput struct {
	Viewer  dashboard.ViewerContext `json:"viewer"`
	Layouts dashboard.Layouts       `json:"layouts"`
}

// SaveLayoutCommand is the commit point: layouts are stored and pending widget and lock
// edits are folded into the active preset.
type SaveLayoutCommand struct {
	stores    dashboard.StoreSource
	telemetry Telemetry
}

// NewSaveLayoutCommand creates the command.
func NewSaveLayoutCommand(stores dashboard.StoreSource, telemetry Telemetry) *SaveLayoutCommand {
	return &SaveLayoutCommand{stores: stores, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SaveLayoutInput] = (*SaveLayoutCommand)(nil)

// Execute commits the active preset.
func (c *SaveLayoutCommand) Execute(ctx context.Context, msg SaveLayoutInput) error {
	ctx, store, err := resolveStore(ctx, c.stores, msg.Viewer)
	if err != nil {
		return err
	}
	layouts := msg.Layouts
	if layouts == nil {
		layouts = dashboard.Layouts{}
	}
	store.UpdatePresetLayouts(ctx, layouts)
	c.telemetry.Record(ctx, "dashboard.command.save_layout", map[string]any{
		"breakpoints": len(layouts),
		"user_id":     msg.Viewer.UserID,
	})
	return nil
}

// DiscardChangesCommand drops pending widget and lock edits.
type DiscardChangesCommand struct {
	stores    dashboard.StoreSource
	telemetry Telemetry
}

// NewDiscardChangesCommand creates the command.
func NewDiscardChangesCommand(stores dashboard.StoreSource, telemetry Telemetry) *DiscardChangesCommand {
	return &DiscardChangesCommand{stores: stores, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ViewerInput] = (*DiscardChangesCommand)(nil)

// Execute discards the pending edits of the active preset.
func (c *DiscardChangesCommand) Execute(ctx context.Context, msg ViewerInput) error {
	ctx, store, err := resolveStore(ctx, c.stores, msg.Viewer)
	if err != nil {
		return err
	}
	had := store.HasPendingChanges()
	store.DiscardPendingChanges(ctx)
	c.telemetry.Record(ctx, "dashboard.command.discard", map[string]any{
		"had_pending": had,
		"user_id":     msg.Viewer.UserID,
	})
	return nil
}
