package commands

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-portal-dashboard/components/dashboard"
)

// CycleIntervalInput sets the auto-cycle interval in seconds.
type CycleIntervalInput struct {
	Viewer  dashboard.ViewerContext `json:"viewer"`
	Seconds int                     `json:"seconds"`
}

// ToggleCycleCommand starts or stops auto-cycling.
type ToggleCycleCommand struct {
	stores    dashboard.StoreSource
	telemetry Telemetry
}

// NewToggleCycleCommand creates the command.
func NewToggleCycleCommand(stores dashboard.StoreSource, telemetry Telemetry) *ToggleCycleCommand {
	return &ToggleCycleCommand{stores: stores, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ViewerInput] = (*ToggleCycleCommand)(nil)

// Execute flips the cycling flag.
func (c *ToggleCycleCommand) Execute(ctx context.Context, msg ViewerInput) error {
	ctx, store, err := resolveStore(ctx, c.stores, msg.Viewer)
	if err != nil {
		return err
	}
	cycling := store.ToggleCycle(ctx)
	c.telemetry.Record(ctx, "dashboard.command.toggle_cycle", map[string]any{
		"cycling": cycling,
		"user_id": msg.Viewer.UserID,
	})
	return nil
}

// SetCycleIntervalCommand updates the cycle interval. Out of range values are clamped.
type SetCycleIntervalCommand struct {
	stores    dashboard.StoreSource
	telemetry Telemetry
}

// NewSetCycleIntervalCommand creates the command.
func NewSetCycleIntervalCommand(stores dashboard.StoreSource, telemetry Telemetry) *SetCycleIntervalCommand {
	return &SetCycleIntervalCommand{stores: stores, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[CycleIntervalInput] = (*SetCycleIntervalCommand)(nil)

// Execute stores the clamped interval.
func (c *SetCycleIntervalCommand) Execute(ctx context.Context, msg CycleIntervalInput) error {
	ctx, store, err := resolveStore(ctx, c.stores, msg.Viewer)
	if err != nil {
		return err
	}
	applied := store.UpdateCycleInterval(ctx, msg.Seconds)
	c.telemetry.Record(ctx, "dashboard.command.cycle_interval", map[string]any{
		"requested": msg.Seconds,
		"applied":   applied,
		"user_id":   msg.Viewer.UserID,
	})
	return nil
}
