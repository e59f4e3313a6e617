package dashboard

import (
	"context"
	"errors"
	"testing"
)

func TestViewerStoresScopesStorage(t *testing.T) {
	kv := NewInMemoryKeyValueStore()
	stores := NewViewerStores(ViewerStoresOptions{
		Base: StoreOptions{Storage: kv, Scheduler: newManualScheduler()},
	})
	t.Cleanup(func() { _ = stores.Close() })
	ctx := context.Background()

	alice, err := stores.StoreFor(ctx, ViewerContext{UserID: "alice"})
	if err != nil {
		t.Fatalf("StoreFor returned error: %v", err)
	}
	bob, err := stores.StoreFor(ctx, ViewerContext{UserID: "bob"})
	if err != nil {
		t.Fatalf("StoreFor returned error: %v", err)
	}
	if alice == bob {
		t.Fatalf("expected distinct stores per viewer")
	}
	if alice.AddPreset(ctx) == nil {
		t.Fatalf("expected preset to be added")
	}
	if got := len(bob.Snapshot().Presets); got != 1 {
		t.Fatalf("expected bob to keep a single preset, got %d", got)
	}
	if _, ok, _ := kv.Get(ctx, "alice::"+PresetsStorageKey); !ok {
		t.Fatalf("expected alice presets under scoped key")
	}
	again, _ := stores.StoreFor(ctx, ViewerContext{UserID: "alice"})
	if again != alice {
		t.Fatalf("expected cached store on second lookup")
	}
	if stores.Len() != 2 {
		t.Fatalf("expected two live stores, got %d", stores.Len())
	}
	if found, ok := stores.Lookup("bob"); !ok || found != bob {
		t.Fatalf("expected Lookup to return bob's store")
	}
	if _, ok := stores.Lookup("carol"); ok {
		t.Fatalf("Lookup must not create stores")
	}
}

func TestViewerStoresRequiresUser(t *testing.T) {
	stores := NewViewerStores(ViewerStoresOptions{})
	if _, err := stores.StoreFor(context.Background(), ViewerContext{}); !errors.Is(err, ErrMissingViewer) {
		t.Fatalf("expected ErrMissingViewer, got %v", err)
	}
}

func TestViewerStoresClose(t *testing.T) {
	created, detached := 0, 0
	stores := NewViewerStores(ViewerStoresOptions{
		Base: StoreOptions{Scheduler: newManualScheduler()},
		OnCreate: func(ViewerContext, *PresetStore) func() {
			created++
			return func() { detached++ }
		},
	})
	if _, err := stores.StoreFor(context.Background(), ViewerContext{UserID: "u1"}); err != nil {
		t.Fatalf("StoreFor returned error: %v", err)
	}
	if _, err := stores.StoreFor(context.Background(), ViewerContext{UserID: "u1"}); err != nil {
		t.Fatalf("StoreFor returned error: %v", err)
	}
	if created != 1 {
		t.Fatalf("expected OnCreate once, got %d", created)
	}
	if err := stores.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if detached != 1 {
		t.Fatalf("expected Close to detach once, got %d", detached)
	}
	if _, err := stores.StoreFor(context.Background(), ViewerContext{UserID: "u1"}); !errors.Is(err, ErrStoreClosed) {
		t.Fatalf("expected ErrStoreClosed, got %v", err)
	}
}

func TestStaticStoreServesEveryViewer(t *testing.T) {
	ts := newTestStore(t, "", nil)
	source := StaticStore(ts.PresetStore)
	got, err := source.StoreFor(context.Background(), ViewerContext{UserID: "anyone"})
	if err != nil || got != ts.PresetStore {
		t.Fatalf("expected static store, got %v %v", got, err)
	}
	if _, err := StaticStore(nil).StoreFor(context.Background(), ViewerContext{}); !errors.Is(err, errMissingStore) {
		t.Fatalf("expected missing store error, got %v", err)
	}
}
