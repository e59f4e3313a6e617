package activity

import (
	"context"
	"errors"
)

// Hook receives normalized activity events.
type Hook interface {
	Notify(ctx context.Context, evt Event) error
}

// HookFunc adapts a function to Hook.
type HookFunc func(ctx context.Context, evt Event) error

// Notify implements Hook.
func (fn HookFunc) Notify(ctx context.Context, evt Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, evt)
}

// Hooks fans an event out to several hooks. Events without a verb are dropped.
type Hooks []Hook

// Notify delivers evt to every hook and joins their errors.
func (hooks Hooks) Notify(ctx context.Context, evt Event) error {
	evt = NormalizeEvent(evt)
	if evt.Verb == "" {
		return nil
	}
	var errs []error
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CaptureHook records events in memory. Tests use it to assert emitted activity.
type CaptureHook struct {
	Events []Event
}

// Notify implements Hook.
func (h *CaptureHook) Notify(_ context.Context, evt Event) error {
	h.Events = append(h.Events, evt)
	return nil
}
