package commands

import (
	"context"
	"errors"
	"fmt"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-portal-dashboard/components/dashboard"
)

// WidgetInput targets one widget of the active preset.
type WidgetInput struct {
	Viewer   dashboard.ViewerContext `json:"viewer"`
	WidgetID string                  `json:"widget_id"`
}

// AddWidgetCommand stages a widget addition. Adding the base id of a multi-instance widget
// allocates the next free instance id.
type AddWidgetCommand struct {
	stores    dashboard.StoreSource
	telemetry Telemetry
}

// NewAddWidgetCommand creates the command.
func NewAddWidgetCommand(stores dashboard.StoreSource, telemetry Telemetry) *AddWidgetCommand {
	return &AddWidgetCommand{stores: stores, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[WidgetInput] = (*AddWidgetCommand)(nil)

// Execute stages the widget as a pending addition.
func (c *AddWidgetCommand) Execute(ctx context.Context, msg WidgetInput) error {
	if msg.WidgetID == "" {
		return errors.New("commands: widget id is required")
	}
	ctx, store, err := resolveStore(ctx, c.stores, msg.Viewer)
	if err != nil {
		return err
	}
	reg := store.Registry()
	def, _, ok := reg.Resolve(msg.WidgetID)
	if !ok {
		return fmt.Errorf("%w: unknown widget %s", dashboard.ErrPresetRejected, msg.WidgetID)
	}
	if !reg.HasWidgetPermission(msg.WidgetID, msg.Viewer.Permissions) {
		return ErrWidgetForbidden
	}
	id := msg.WidgetID
	if def.AllowMultiple && id == def.ID {
		id = reg.NextInstanceID(def.ID, store.PresetWidgets())
	}
	if !store.AddWidgetToPreset(ctx, id) {
		return rejected("add widget")
	}
	c.telemetry.Record(ctx, "dashboard.command.add_widget", map[string]any{
		"widget_id": id,
		"user_id":   msg.Viewer.UserID,
	})
	return nil
}

// RemoveWidgetCommand stages a widget removal. Persistent widgets are rejected.
type RemoveWidgetCommand struct {
	stores    dashboard.StoreSource
	telemetry Telemetry
}

// NewRemoveWidgetCommand creates the command.
func NewRemoveWidgetCommand(stores dashboard.StoreSource, telemetry Telemetry) *RemoveWidgetCommand {
	return &RemoveWidgetCommand{stores: stores, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[WidgetInput] = (*RemoveWidgetCommand)(nil)

// Execute stages the widget as a pending removal.
func (c *RemoveWidgetCommand) Execute(ctx context.Context, msg WidgetInput) error {
	if msg.WidgetID == "" {
		return errors.New("commands: widget id is required")
	}
	ctx, store, err := resolveStore(ctx, c.stores, msg.Viewer)
	if err != nil {
		return err
	}
	if !store.RemoveWidgetFromPreset(ctx, msg.WidgetID) {
		return rejected("remove widget")
	}
	c.telemetry.Record(ctx, "dashboard.command.remove_widget", map[string]any{
		"widget_id": msg.WidgetID,
		"user_id":   msg.Viewer.UserID,
	})
	return nil
}

// LockWidgetInput pins or releases a widget's size.
type LockWidgetInput struct {
	Viewer   dashboard.ViewerContext `json:"viewer"`
	WidgetID string                  `json:"widget_id"`
	Locked   bool                    `json:"locked"`
	W        int                     `json:"w"`
	H        int                     `json:"h"`
	Expanded bool                    `json:"expanded,omitempty"`
}

// LockWidgetCommand stages a lock edit.
type LockWidgetCommand struct {
	stores    dashboard.StoreSource
	telemetry Telemetry
}

// NewLockWidgetCommand creates the command.
func NewLockWidgetCommand(stores dashboard.StoreSource, telemetry Telemetry) *LockWidgetCommand {
	return &LockWidgetCommand{stores: stores, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[LockWidgetInput] = (*LockWidgetCommand)(nil)

// Execute records the pending lock state.
func (c *LockWidgetCommand) Execute(ctx context.Context, msg LockWidgetInput) error {
	if msg.WidgetID == "" {
		return errors.New("commands: widget id is required")
	}
	if msg.Locked && (msg.W <= 0 || msg.H <= 0) {
		return errors.New("commands: locked dimensions must be positive")
	}
	ctx, store, err := resolveStore(ctx, c.stores, msg.Viewer)
	if err != nil {
		return err
	}
	dims := dashboard.LockedDimensions{W: msg.W, H: msg.H, Expanded: msg.Expanded}
	if !store.UpdateLockedWidgets(ctx, msg.WidgetID, msg.Locked, dims) {
		return rejected("lock widget")
	}
	c.telemetry.Record(ctx, "dashboard.command.lock_widget", map[string]any{
		"widget_id": msg.WidgetID,
		"locked":    msg.Locked,
		"user_id":   msg.Viewer.UserID,
	})
	return nil
}
