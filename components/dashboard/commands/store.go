package commands

import (
	"context"
	"errors"
	"fmt"

	dashboard "github.com/goliatone/go-portal-dashboard/components/dashboard"
)

var (
	errMissingStore = errors.New("commands: preset store source is required")
	// ErrWidgetForbidden reports a widget the viewer lacks permission for.
	ErrWidgetForbidden = errors.New("commands: widget not permitted for viewer")
	// ErrNameRestricted reports a preset name rejected by the NameGuard.
	ErrNameRestricted = errors.New("commands: preset name contains restricted words")
	// ErrGuardUnavailable reports a NameGuard that could not decide, e.g. no word list yet.
	ErrGuardUnavailable = errors.New("commands: preset name check unavailable")
)

func resolveStore(ctx context.Context, source dashboard.StoreSource, viewer dashboard.ViewerContext) (context.Context, *dashboard.PresetStore, error) {
	if source == nil {
		return ctx, nil, errMissingStore
	}
	store, err := source.StoreFor(ctx, viewer)
	if err != nil {
		return ctx, nil, err
	}
	if _, ok := dashboard.ActorFrom(ctx); !ok {
		ctx = dashboard.WithActor(ctx, dashboard.ActorForViewer(viewer))
	}
	return ctx, store, nil
}

func rejected(op string) error {
	return fmt.Errorf("%w: %s", dashboard.ErrPresetRejected, op)
}

// Telemetry receives one event per executed command.
type Telemetry = dashboard.Telemetry

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return dashboard.NewZapTelemetry(nil)
	}
	return t
}
