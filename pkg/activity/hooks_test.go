package activity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestHooksDropEventsWithoutVerb(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{capture}

	for _, verb := range []string{"", "   "} {
		if err := hooks.Notify(context.Background(), Event{Verb: verb, ObjectID: "p1"}); err != nil {
			t.Fatalf("notify(%q): %v", verb, err)
		}
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected blank verbs to be dropped, got %+v", capture.Events)
	}
}

func TestHooksJoinErrorsAndSkipNil(t *testing.T) {
	errSink := errors.New("sink offline")
	errQueue := errors.New("queue full")
	capture := &CaptureHook{}
	hooks := Hooks{
		nil,
		HookFunc(func(context.Context, Event) error { return errSink }),
		capture,
		HookFunc(nil),
		HookFunc(func(context.Context, Event) error { return errQueue }),
	}

	err := hooks.Notify(context.Background(), Event{Verb: "dashboard.preset.delete", ObjectID: "p2"})
	if !errors.Is(err, errSink) || !errors.Is(err, errQueue) {
		t.Fatalf("expected both hook errors joined, got %v", err)
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected later hooks to still run, got %d events", len(capture.Events))
	}
}

func TestNormalizeEventTrimsAndStamps(t *testing.T) {
	before := time.Now().UTC()
	evt := NormalizeEvent(Event{
		Verb:       " dashboard.preset.switch ",
		UserID:     "\tnina ",
		ObjectType: " dashboard_preset",
		ObjectID:   "preset-2 ",
	})
	if evt.Verb != "dashboard.preset.switch" || evt.UserID != "nina" {
		t.Fatalf("expected trimmed identifiers, got %+v", evt)
	}
	if evt.ObjectType != "dashboard_preset" || evt.ObjectID != "preset-2" {
		t.Fatalf("expected trimmed object, got %q/%q", evt.ObjectType, evt.ObjectID)
	}
	if evt.OccurredAt.Before(before) || evt.OccurredAt.Location() != time.UTC {
		t.Fatalf("expected a fresh UTC timestamp, got %v", evt.OccurredAt)
	}
	if evt.Metadata != nil {
		t.Fatalf("expected nil metadata, got %v", evt.Metadata)
	}
}

func TestNormalizeEventCopiesMetadata(t *testing.T) {
	at := time.Date(2025, 3, 9, 7, 30, 0, 0, time.UTC)
	meta := map[string]any{"preset_name": "Night shift"}

	evt := NormalizeEvent(Event{Verb: "dashboard.preset.rename", Metadata: meta, OccurredAt: at})
	evt.Metadata["preset_name"] = "Day shift"

	if meta["preset_name"] != "Night shift" {
		t.Fatalf("caller metadata mutated: %v", meta)
	}
	if !evt.OccurredAt.Equal(at) {
		t.Fatalf("expected occurred_at kept, got %v", evt.OccurredAt)
	}
}
