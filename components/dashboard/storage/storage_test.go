package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	dashboard "github.com/goliatone/go-portal-dashboard/components/dashboard"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type inertScheduler struct{}

type inertTimer struct{}

func (inertTimer) Stop() bool { return true }

func (inertScheduler) AfterFunc(time.Duration, func()) dashboard.Timer { return inertTimer{} }
func (inertScheduler) Every(time.Duration, func()) dashboard.Timer     { return inertTimer{} }

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "presets"), nil)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	ctx := context.Background()
	if _, ok, err := store.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}
	if err := store.Set(ctx, "alice::dashboard-presets", []byte(`[1]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "alice::dashboard-presets", []byte(`[2]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	data, ok, err := store.Get(ctx, "alice::dashboard-presets")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if string(data) != "[2]" {
		t.Fatalf("expected overwritten value, got %s", data)
	}
	if filepath.Base(store.Path("alice::dashboard-presets")) != "alice%3A%3Adashboard-presets.json" {
		t.Fatalf("unexpected file name %s", store.Path("alice::dashboard-presets"))
	}
	keys, err := store.Keys()
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if diff := cmp.Diff([]string{"alice::dashboard-presets"}, keys); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, nil)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := store.Set(context.Background(), dashboard.PresetsStorageKey, []byte("[]")); err != nil {
			t.Fatalf("set: %v", err)
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "dashboard-presets.json" {
		t.Fatalf("expected a single document, got %v", entries)
	}
}

func TestEncodeKeyRoundTrip(t *testing.T) {
	for _, key := range []string{"dashboard-presets", "bob::dashboard-cycle-settings", "a/b c", ".hidden"} {
		got, ok := keyFromFile(encodeKey(key) + fileExt)
		if !ok || got != key {
			t.Fatalf("key %q round tripped to %q (ok=%v)", key, got, ok)
		}
	}
	if _, ok := keyFromFile(".tmp-123"); ok {
		t.Fatalf("temp files must not map to keys")
	}
}

func TestWatcherReloadsStoreOnExternalEdit(t *testing.T) {
	files, err := NewFileStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	store := dashboard.NewPresetStore(dashboard.StoreOptions{
		Storage:   files,
		Scheduler: inertScheduler{},
	})
	defer store.Close()

	reloaded := make(chan dashboard.Snapshot, 4)
	cancel := store.Subscribe(func(_ context.Context, event dashboard.StoreEvent) {
		if event.Reason == dashboard.ReasonReload {
			reloaded <- event.Snapshot
		}
	})
	defer cancel()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	watcher, err := files.Watch(ctx, 20*time.Millisecond, ReloadOnChange(func(string) (*dashboard.PresetStore, bool) { return store, true }, nil))
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer watcher.Close()

	doc, err := dashboard.EncodePresets([]dashboard.Preset{
		{ID: "ops", Name: "Operations", Widgets: []string{"welcome"}},
		{ID: "hr", Name: "People", Widgets: []string{"welcome"}},
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := os.WriteFile(files.Path(dashboard.PresetsStorageKey), doc, 0o644); err != nil {
		t.Fatalf("external write: %v", err)
	}

	select {
	case snap := <-reloaded:
		var names []string
		for _, p := range snap.Presets {
			names = append(names, p.Name)
		}
		if diff := cmp.Diff([]string{"Operations", "People"}, names); diff != "" {
			t.Fatalf("reloaded presets mismatch (-want +got):\n%s", diff)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("expected reload after external edit")
	}
}

func TestWatcherSkipsOwnWrites(t *testing.T) {
	files, err := NewFileStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	changes := make(chan string, 4)
	watcher, err := files.Watch(context.Background(), 20*time.Millisecond, func(key string) {
		changes <- key
	})
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer watcher.Close()

	if err := files.Set(context.Background(), "own", []byte("[]")); err != nil {
		t.Fatalf("set: %v", err)
	}
	select {
	case key := <-changes:
		t.Fatalf("unexpected change notification for %s", key)
	case <-time.After(250 * time.Millisecond):
	}
}

func TestSQLiteStore(t *testing.T) {
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "db", "portal.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}
	for key, value := range map[string]string{"b": "one", "a": "two"} {
		if err := store.Set(ctx, key, []byte(value)); err != nil {
			t.Fatalf("set %s: %v", key, err)
		}
	}
	if err := store.Set(ctx, "b", []byte("three")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	data, ok, err := store.Get(ctx, "b")
	if err != nil || !ok || string(data) != "three" {
		t.Fatalf("expected upserted value, got %q ok=%v err=%v", data, ok, err)
	}
	keys, err := store.Keys(ctx)
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, keys); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLiteBacksViewerStores(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "portal.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	stores := dashboard.NewViewerStores(dashboard.ViewerStoresOptions{
		Base: dashboard.StoreOptions{Storage: db, Scheduler: inertScheduler{}},
	})
	defer stores.Close()

	ctx := context.Background()
	for _, user := range []string{"alice", "bob"} {
		store, err := stores.StoreFor(ctx, dashboard.ViewerContext{UserID: user})
		if err != nil {
			t.Fatalf("store for %s: %v", user, err)
		}
		if store.AddPreset(ctx) == nil {
			t.Fatalf("add preset for %s", user)
		}
	}
	keys, err := db.Keys(ctx)
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	have := map[string]bool{}
	for _, key := range keys {
		have[key] = true
	}
	for _, user := range []string{"alice", "bob"} {
		if key := user + "::" + dashboard.PresetsStorageKey; !have[key] {
			t.Fatalf("expected key %s in %v", key, keys)
		}
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		opts Options
		want string
	}{
		{Options{}, "*dashboard.InMemoryKeyValueStore"},
		{Options{Driver: DriverFile, Path: filepath.Join(dir, "files")}, "*storage.FileStore"},
		{Options{Driver: DriverSQLite, Path: filepath.Join(dir, "kv.db")}, "*storage.SQLiteStore"},
	}
	for _, tc := range cases {
		kv, closer, err := Open(tc.opts)
		if err != nil {
			t.Fatalf("open %q: %v", tc.opts.Driver, err)
		}
		if got := typeName(kv); got != tc.want {
			t.Fatalf("driver %q: expected %s, got %s", tc.opts.Driver, tc.want, got)
		}
		if err := closer.Close(); err != nil {
			t.Fatalf("close %q: %v", tc.opts.Driver, err)
		}
	}
	if _, _, err := Open(Options{Driver: "redis"}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}

func TestReloadOnChangeRoutesScopedKeys(t *testing.T) {
	kv := dashboard.NewInMemoryKeyValueStore()
	store := dashboard.NewPresetStore(dashboard.StoreOptions{
		Storage:   dashboard.ScopeKeyValueStore(kv, "nina"),
		Scheduler: inertScheduler{},
	})
	defer store.Close()

	var looked, reloaded []string
	lookup := func(userID string) (*dashboard.PresetStore, bool) {
		looked = append(looked, userID)
		if userID != "nina" {
			return nil, false
		}
		return store, true
	}
	onChange := ReloadOnChange(lookup, func(userID string) { reloaded = append(reloaded, userID) })

	doc, err := dashboard.EncodePresets([]dashboard.Preset{
		{ID: "nights", Name: "Nights", Widgets: []string{"welcome"}},
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := kv.Set(context.Background(), "nina::"+dashboard.PresetsStorageKey, doc); err != nil {
		t.Fatalf("set: %v", err)
	}

	onChange("nina::unrelated")
	onChange("omar::" + dashboard.PresetsStorageKey)
	onChange("nina::" + dashboard.PresetsStorageKey)

	if diff := cmp.Diff([]string{"omar", "nina"}, looked); diff != "" {
		t.Fatalf("lookups mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"nina"}, reloaded); diff != "" {
		t.Fatalf("reloads mismatch (-want +got):\n%s", diff)
	}
	if got := store.Snapshot().Presets; len(got) != 1 || got[0].Name != "Nights" {
		t.Fatalf("expected reloaded preset list, got %+v", got)
	}
}
