package chirouter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dashboard "github.com/goliatone/go-portal-dashboard/components/dashboard"
	"github.com/goliatone/go-portal-dashboard/components/dashboard/httpapi"
	"github.com/goliatone/go-portal-dashboard/components/dashboard/queries"
)

type inertTimer struct{}

func (inertTimer) Stop() bool { return true }

type inertScheduler struct{}

func (inertScheduler) AfterFunc(time.Duration, func()) dashboard.Timer { return inertTimer{} }
func (inertScheduler) Every(time.Duration, func()) dashboard.Timer     { return inertTimer{} }

type stubRenderer struct{}

func (stubRenderer) Render(name string, data any, out ...io.Writer) (string, error) {
	if len(out) > 0 && out[0] != nil {
		_, _ = out[0].Write([]byte("<main>tray</main>"))
	}
	return "<main>tray</main>", nil
}

func newServer(t *testing.T) (*httptest.Server, *dashboard.PresetStore) {
	t.Helper()
	return newServerWithStorage(t, dashboard.NewInMemoryKeyValueStore())
}

func newServerWithStorage(t *testing.T, kv dashboard.KeyValueStore) (*httptest.Server, *dashboard.PresetStore) {
	t.Helper()
	store := dashboard.NewPresetStore(dashboard.StoreOptions{Scheduler: inertScheduler{}, Storage: kv})
	source := dashboard.StaticStore(store)
	controller := dashboard.NewController(dashboard.ControllerOptions{Stores: source, Renderer: stubRenderer{}})
	handler := NewRouter(Options{
		Controller: controller,
		Handlers: &httpapi.Handlers{
			API:      httpapi.NewCommandExecutor(source, nil, nil),
			Snapshot: queries.NewSnapshotQuery(source),
			Page:     queries.NewTrayPageQuery(controller),
			Picker:   queries.NewPickerCatalogQuery(source, nil),
			Widgets:  queries.NewWidgetDescriptorsQuery(controller),
		},
	})
	srv := httptest.NewServer(handler)
	t.Cleanup(func() {
		srv.Close()
		_ = store.Close()
	})
	return srv, store
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestMountServesTrayPage(t *testing.T) {
	srv, _ := newServer(t)
	resp := do(t, http.MethodGet, srv.URL+"/", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "tray") {
		t.Fatalf("expected rendered tray, got %q", body)
	}
}

func TestMountPresetLifecycle(t *testing.T) {
	srv, store := newServer(t)

	if resp := do(t, http.MethodPost, srv.URL+"/presets", ""); resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 adding preset, got %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodPost, srv.URL+"/presets/0/activate", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 switching preset, got %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodPost, srv.URL+"/widgets", `{"widget_id":"holidays"}`); resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 staging widget, got %d", resp.StatusCode)
	}
	resp := do(t, http.MethodPut, srv.URL+"/layout", `{"layouts":{}}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 saving layout, got %d", resp.StatusCode)
	}
	var snap dashboard.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	found := false
	for _, id := range snap.CurrentPreset.Widgets {
		if id == "holidays" {
			found = true
		}
	}
	if !found || snap.HasPendingChanges {
		t.Fatalf("expected committed holidays widget, got %+v", snap.CurrentPreset.Widgets)
	}
	if store.Snapshot().ActivePresetIndex != 0 {
		t.Fatalf("expected first preset active")
	}
}

func TestMountRejectsDeletingLastPreset(t *testing.T) {
	srv, _ := newServer(t)
	if resp := do(t, http.MethodDelete, srv.URL+"/presets/0", ""); resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestMountPicker(t *testing.T) {
	srv, _ := newServer(t)
	resp := do(t, http.MethodGet, srv.URL+"/picker", "")
	var cats []dashboard.PickerCategory
	if err := json.NewDecoder(resp.Body).Decode(&cats); err != nil {
		t.Fatalf("decode picker: %v", err)
	}
	if len(cats) == 0 {
		t.Fatalf("expected picker categories")
	}
}

func TestMountWidgetDescriptors(t *testing.T) {
	srv, store := newServer(t)
	resp := do(t, http.MethodGet, srv.URL+"/widgets", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var widgets []dashboard.WidgetDescriptor
	if err := json.NewDecoder(resp.Body).Decode(&widgets); err != nil {
		t.Fatalf("decode widgets: %v", err)
	}
	if len(widgets) == 0 || len(widgets) > len(store.PresetWidgets()) {
		t.Fatalf("expected descriptors for the active preset, got %d", len(widgets))
	}
}

func TestMountReloadPicksUpExternalWrites(t *testing.T) {
	kv := dashboard.NewInMemoryKeyValueStore()
	srv, store := newServerWithStorage(t, kv)

	data, err := dashboard.EncodePresets([]dashboard.Preset{
		{ID: "ext-1", Name: "Night shift", Widgets: []string{"rota"}},
		{ID: "ext-2", Name: "Payroll", Widgets: []string{"timesheet"}},
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := kv.Set(context.Background(), dashboard.PresetsStorageKey, data); err != nil {
		t.Fatalf("set: %v", err)
	}
	if resp := do(t, http.MethodPost, srv.URL+"/reload", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 reloading, got %d", resp.StatusCode)
	}
	snap := store.Snapshot()
	if len(snap.Presets) != 2 || snap.Presets[0].Name != "Night shift" {
		t.Fatalf("expected reloaded presets, got %+v", snap.Presets)
	}
}
