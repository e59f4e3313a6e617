package gorouter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"testing"
	"time"

	router "github.com/goliatone/go-router"
	"github.com/google/go-cmp/cmp"

	dashboard "github.com/goliatone/go-portal-dashboard/components/dashboard"
	"github.com/goliatone/go-portal-dashboard/components/dashboard/httpapi"
	"github.com/goliatone/go-portal-dashboard/components/dashboard/queries"
	"github.com/goliatone/go-portal-dashboard/pkg/activity"
)

func TestRegisterRequiresRouterAndController(t *testing.T) {
	if err := Register(Config[struct{}]{}); err == nil {
		t.Fatalf("expected missing router to fail")
	}
	if err := Register(Config[struct{}]{Router: newFakeRouter()}); err == nil {
		t.Fatalf("expected missing controller to fail")
	}
}

func TestRegisterMountsFullSurface(t *testing.T) {
	fake := newFakeRouter()
	source := dashboard.StaticStore(newStore(t))
	err := Register(Config[struct{}]{
		Router:     fake,
		Controller: dashboard.NewController(dashboard.ControllerOptions{Stores: source}),
		API:        httpapi.NewCommandExecutor(source, nil, nil),
		Snapshot:   queries.NewSnapshotQuery(source),
		Activity:   queries.NewRecentActivityQuery(dashboard.NewActivityFeed(8)),
		Broadcast:  dashboard.NewBroadcastHook(nil),
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	want := []string{
		"DELETE:/portal/dashboard/presets/:index",
		"DELETE:/portal/dashboard/widgets/:id",
		"GET:/portal/dashboard",
		"GET:/portal/dashboard/_page",
		"GET:/portal/dashboard/activity",
		"GET:/portal/dashboard/state",
		"POST:/portal/dashboard/cycle/toggle",
		"POST:/portal/dashboard/pending/discard",
		"POST:/portal/dashboard/presets",
		"POST:/portal/dashboard/presets/:index/activate",
		"POST:/portal/dashboard/presets/:index/duplicate",
		"POST:/portal/dashboard/reload",
		"POST:/portal/dashboard/widgets",
		"POST:/portal/dashboard/widgets/:id/lock",
		"PUT:/portal/dashboard/cycle/interval",
		"PUT:/portal/dashboard/layout",
		"PUT:/portal/dashboard/presets",
		"PUT:/portal/dashboard/presets/:index/name",
	}
	if diff := cmp.Diff(want, fake.paths()); diff != "" {
		t.Fatalf("routes mismatch (-want +got):\n%s", diff)
	}
	if _, ok := fake.sockets["/portal/dashboard/ws"]; !ok {
		t.Fatalf("expected websocket route")
	}
}

func TestRegisterRendersTray(t *testing.T) {
	fake := newFakeRouter()
	renderer := &countingRenderer{}
	controller := dashboard.NewController(dashboard.ControllerOptions{
		Stores:   dashboard.StaticStore(newStore(t)),
		Renderer: renderer,
	})
	if err := Register(Config[struct{}]{Router: fake, Controller: controller}); err != nil {
		t.Fatalf("register: %v", err)
	}

	ctx := newFakeContext()
	if err := fake.handlers["GET:/portal/dashboard"](ctx); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if renderer.calls != 1 || !bytes.Contains(ctx.body, []byte("tray")) {
		t.Fatalf("expected rendered tray, calls=%d body=%q", renderer.calls, ctx.body)
	}
	if got := ctx.headers["Content-Type"]; got != "text/html; charset=utf-8" {
		t.Fatalf("unexpected content type %q", got)
	}
}

func TestPresetRoutesReplyWithSnapshot(t *testing.T) {
	fake := newFakeRouter()
	store := newStore(t)
	source := dashboard.StaticStore(store)
	err := Register(Config[struct{}]{
		Router:     fake,
		Controller: dashboard.NewController(dashboard.ControllerOptions{Stores: source}),
		API:        httpapi.NewCommandExecutor(source, nil, nil),
		Snapshot:   queries.NewSnapshotQuery(source),
		BasePath:   "/hr",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	call := func(key string, prepare func(*fakeContext)) *fakeContext {
		t.Helper()
		h, ok := fake.handlers[key]
		if !ok {
			t.Fatalf("route %s not registered", key)
		}
		ctx := newFakeContext()
		if prepare != nil {
			prepare(ctx)
		}
		if err := h(ctx); err != nil {
			t.Fatalf("%s: %v", key, err)
		}
		return ctx
	}

	ctx := call("POST:/hr/dashboard/presets", nil)
	var snap dashboard.Snapshot
	if err := json.Unmarshal(ctx.body, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if ctx.status != http.StatusCreated || len(snap.Presets) != 2 || snap.ActivePresetIndex != 1 {
		t.Fatalf("unexpected add reply %d %+v", ctx.status, snap)
	}

	ctx = call("PUT:/hr/dashboard/presets/:index/name", func(c *fakeContext) {
		c.params["index"] = "1"
		c.body = []byte(`{"name":"Weekend"}`)
	})
	if ctx.status != http.StatusOK || store.Snapshot().Presets[1].Name != "Weekend" {
		t.Fatalf("rename failed: %d %q", ctx.status, store.Snapshot().Presets[1].Name)
	}

	statuses := []struct {
		key    string
		param  string
		value  string
		status int
	}{
		{key: "DELETE:/hr/dashboard/presets/:index", param: "index", value: "nope", status: http.StatusBadRequest},
		{key: "DELETE:/hr/dashboard/widgets/:id", param: "id", value: "welcome", status: http.StatusConflict},
	}
	for _, tc := range statuses {
		ctx := call(tc.key, func(c *fakeContext) { c.params[tc.param] = tc.value })
		if ctx.status != tc.status {
			t.Fatalf("%s %s=%s: expected %d, got %d", tc.key, tc.param, tc.value, tc.status, ctx.status)
		}
	}
}

func TestActivityRouteHonoursLimit(t *testing.T) {
	fake := newFakeRouter()
	feed := dashboard.NewActivityFeed(8)
	store := dashboard.NewPresetStore(dashboard.StoreOptions{
		Scheduler:      inertScheduler{},
		ActivityHooks:  activity.Hooks{feed},
		ActivityConfig: activity.Config{Enabled: true},
	})
	t.Cleanup(func() { _ = store.Close() })
	ctx := dashboard.WithActor(context.Background(), dashboard.Actor{ID: "lea", UserID: "lea"})
	store.AddPreset(ctx)
	store.AddPreset(ctx)

	err := Register(Config[struct{}]{
		Router:         fake,
		Controller:     dashboard.NewController(dashboard.ControllerOptions{Stores: dashboard.StaticStore(store)}),
		Activity:       queries.NewRecentActivityQuery(feed),
		ViewerResolver: func(router.Context) dashboard.ViewerContext { return dashboard.ViewerContext{UserID: "lea"} },
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	req := newFakeContext()
	req.query["limit"] = "1"
	if err := fake.handlers["GET:/portal/dashboard/activity"](req); err != nil {
		t.Fatalf("activity: %v", err)
	}
	var items []dashboard.ActivityItem
	if err := json.Unmarshal(req.body, &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected one item, got %d", len(items))
	}
}

func TestDefaultRouteConfigKeepsOverrides(t *testing.T) {
	routes := defaultRouteConfig(RouteConfig{HTML: "/home", Reload: "/home/reload"})
	if routes.HTML != "/home" || routes.Reload != "/home/reload" || routes.Layout != "/dashboard/layout" {
		t.Fatalf("unexpected routes %+v", routes)
	}
}

type inertTimer struct{}

func (inertTimer) Stop() bool { return true }

type inertScheduler struct{}

func (inertScheduler) AfterFunc(time.Duration, func()) dashboard.Timer { return inertTimer{} }
func (inertScheduler) Every(time.Duration, func()) dashboard.Timer     { return inertTimer{} }

func newStore(t *testing.T) *dashboard.PresetStore {
	t.Helper()
	store := dashboard.NewPresetStore(dashboard.StoreOptions{Scheduler: inertScheduler{}})
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// fakeRouter records handlers by "METHOD:/full/path". Methods Register never calls fall
// through to the nil embedded interface.
type fakeRouter struct {
	router.Router[struct{}]
	prefix   string
	handlers map[string]router.HandlerFunc
	sockets  map[string]func(router.WebSocketContext) error
}

func newFakeRouter() *fakeRouter {
	return &fakeRouter{
		handlers: map[string]router.HandlerFunc{},
		sockets:  map[string]func(router.WebSocketContext) error{},
	}
}

func (f *fakeRouter) paths() []string {
	out := make([]string, 0, len(f.handlers))
	for key := range f.handlers {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

func (f *fakeRouter) Group(prefix string) router.Router[struct{}] {
	child := *f
	child.prefix = f.prefix + prefix
	return &child
}

func (f *fakeRouter) add(method router.HTTPMethod, path string, h router.HandlerFunc) router.RouteInfo {
	f.handlers[string(method)+":"+f.prefix+path] = h
	return routeInfo{}
}

func (f *fakeRouter) Get(path string, h router.HandlerFunc, _ ...router.MiddlewareFunc) router.RouteInfo {
	return f.add(router.GET, path, h)
}

func (f *fakeRouter) Post(path string, h router.HandlerFunc, _ ...router.MiddlewareFunc) router.RouteInfo {
	return f.add(router.POST, path, h)
}

func (f *fakeRouter) Put(path string, h router.HandlerFunc, _ ...router.MiddlewareFunc) router.RouteInfo {
	return f.add(router.PUT, path, h)
}

func (f *fakeRouter) Delete(path string, h router.HandlerFunc, _ ...router.MiddlewareFunc) router.RouteInfo {
	return f.add(router.DELETE, path, h)
}

func (f *fakeRouter) WebSocket(path string, _ router.WebSocketConfig, h func(router.WebSocketContext) error) router.RouteInfo {
	f.sockets[f.prefix+path] = h
	return routeInfo{}
}

type routeInfo struct {
	router.RouteInfo
}

func (routeInfo) SetName(string) router.RouteInfo { return routeInfo{} }

type baseContext = router.Context

// fakeContext is a request with params, query values and a JSON body.
type fakeContext struct {
	baseContext
	ctx     context.Context
	headers map[string]string
	params  map[string]string
	query   map[string]string
	locals  map[any]any
	body    []byte
	status  int
}

func newFakeContext() *fakeContext {
	return &fakeContext{
		ctx:     context.Background(),
		headers: map[string]string{},
		params:  map[string]string{},
		query:   map[string]string{},
		locals:  map[any]any{},
	}
}

func (c *fakeContext) Context() context.Context { return c.ctx }
func (c *fakeContext) Header(k string) string   { return c.headers[k] }
func (c *fakeContext) Body() []byte             { return c.body }

func (c *fakeContext) SetHeader(k, v string) router.Context {
	c.headers[k] = v
	return c
}

func (c *fakeContext) Send(b []byte) error {
	c.body = bytes.Clone(b)
	return nil
}

func (c *fakeContext) JSON(code int, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.status, c.body = code, data
	return nil
}

func (c *fakeContext) Param(name string, fallback ...string) string {
	return lookup(c.params, name, fallback)
}

func (c *fakeContext) Query(name string, fallback ...string) string {
	return lookup(c.query, name, fallback)
}

func (c *fakeContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		c.locals[key] = value[0]
	}
	return c.locals[key]
}

func lookup(values map[string]string, name string, fallback []string) string {
	if v, ok := values[name]; ok {
		return v
	}
	if len(fallback) > 0 {
		return fallback[0]
	}
	return ""
}

type countingRenderer struct {
	calls int
}

func (r *countingRenderer) Render(_ string, _ any, out ...io.Writer) (string, error) {
	r.calls++
	if len(out) > 0 && out[0] != nil {
		_, _ = io.WriteString(out[0], "<section>tray</section>")
	}
	return "<section>tray</section>", nil
}
