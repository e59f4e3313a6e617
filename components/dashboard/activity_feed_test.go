package dashboard

import (
	"context"
	"testing"

	"github.com/goliatone/go-portal-dashboard/pkg/activity"
)

func TestActivityFeedRecordsPresetEvents(t *testing.T) {
	feed := NewActivityFeed(2)
	kv := NewInMemoryKeyValueStore()
	store := NewPresetStore(StoreOptions{
		Storage:        kv,
		Scheduler:      newManualScheduler(),
		ActivityHooks:  activity.Hooks{feed},
		ActivityConfig: activity.Config{Enabled: true},
	})
	t.Cleanup(func() { _ = store.Close() })

	ctx := WithActor(context.Background(), Actor{ID: "u1", UserID: "u1"})
	store.AddPreset(ctx)
	store.RenamePreset(ctx, 1, "Night shift")
	store.SwitchPreset(ctx, 0)

	items := feed.Recent(context.Background(), ViewerContext{UserID: "u1"}, 0)
	if len(items) != 2 {
		t.Fatalf("expected feed bounded to 2 entries, got %d", len(items))
	}
	if items[0].Action != "switch" || items[1].Action != "rename" {
		t.Fatalf("expected newest first, got %s then %s", items[0].Action, items[1].Action)
	}
	if items[1].PresetName != "Night shift" {
		t.Fatalf("expected preset name metadata, got %q", items[1].PresetName)
	}
	if got := feed.Recent(context.Background(), ViewerContext{UserID: "u2"}, 0); len(got) != 0 {
		t.Fatalf("expected other viewers to see nothing, got %d", len(got))
	}
}

func TestActivityFeedIgnoresOtherObjects(t *testing.T) {
	feed := NewActivityFeed(0)
	_ = feed.Notify(context.Background(), activity.Event{Verb: "dashboard.widget.add", ObjectType: "widget"})
	if got := feed.Recent(context.Background(), ViewerContext{}, 10); len(got) != 0 {
		t.Fatalf("expected non-preset events ignored, got %d", len(got))
	}
}
