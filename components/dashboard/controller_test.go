package dashboard

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

type stubRenderer struct {
	lastTemplate string
	lastPayload  map[string]any
	err          error
}

func (r *stubRenderer) Render(name string, data any, out ...io.Writer) (string, error) {
	r.lastTemplate = name
	if payload, ok := data.(map[string]any); ok {
		r.lastPayload = payload
	}
	if len(out) > 0 && out[0] != nil {
		out[0].Write([]byte("<html></html>"))
	}
	return "<html></html>", r.err
}

func TestControllerRenderTemplate(t *testing.T) {
	ts := newTestStore(t, "", nil)
	renderer := &stubRenderer{}
	controller := NewController(ControllerOptions{
		Stores:   StaticStore(ts.PresetStore),
		Renderer: renderer,
		Template: "dashboard.html",
	})

	var buf bytes.Buffer
	if err := controller.RenderTemplate(context.Background(), ViewerContext{UserID: "user"}, &buf); err != nil {
		t.Fatalf("RenderTemplate returned error: %v", err)
	}
	if renderer.lastTemplate != "dashboard.html" {
		t.Fatalf("expected dashboard template to render, got %s", renderer.lastTemplate)
	}
	if buf.Len() == 0 {
		t.Fatalf("expected rendered output")
	}
	page, ok := renderer.lastPayload["page"].(TrayPage)
	if !ok {
		t.Fatalf("expected TrayPage payload, got %T", renderer.lastPayload["page"])
	}
	if page.State.CurrentPreset.ID != DefaultPresetID {
		t.Fatalf("expected default preset, got %s", page.State.CurrentPreset.ID)
	}
}

func TestControllerRequiresRenderer(t *testing.T) {
	ts := newTestStore(t, "", nil)
	controller := NewController(ControllerOptions{Stores: StaticStore(ts.PresetStore)})
	if err := controller.RenderTemplate(context.Background(), ViewerContext{}, io.Discard); !errors.Is(err, errMissingRenderer) {
		t.Fatalf("expected missing renderer error, got %v", err)
	}
}

func TestControllerPageFiltersByPermission(t *testing.T) {
	ts := newTestStore(t, "", nil)
	ctx := context.Background()
	if !ts.AddWidgetToPreset(ctx, "approvals") {
		t.Fatalf("expected approvals to be added")
	}
	controller := NewController(ControllerOptions{Stores: StaticStore(ts.PresetStore)})

	page, err := controller.Page(ctx, ViewerContext{UserID: "u1"})
	if err != nil {
		t.Fatalf("Page returned error: %v", err)
	}
	for _, w := range page.Widgets {
		if w.ID == "approvals" {
			t.Fatalf("approvals should be hidden without leave.approve")
		}
	}
	for _, cat := range page.Picker {
		if cat.Key == CategoryAdministration {
			t.Fatalf("administration category should be empty for viewer without permissions")
		}
	}

	page, err = controller.Page(ctx, ViewerContext{UserID: "u1", Permissions: []string{"leave.approve"}})
	if err != nil {
		t.Fatalf("Page returned error: %v", err)
	}
	found := false
	for _, w := range page.Widgets {
		if w.ID == "approvals" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected approvals descriptor for permitted viewer")
	}
}

func TestControllerPagePacksLayoutsWhenNoneSaved(t *testing.T) {
	ts := newTestStore(t, "", nil)
	controller := NewController(ControllerOptions{Stores: StaticStore(ts.PresetStore)})
	page, err := controller.Page(context.Background(), ViewerContext{UserID: "u1"})
	if err != nil {
		t.Fatalf("Page returned error: %v", err)
	}
	if len(page.Layouts[BreakpointLG]) != len(page.Widgets) {
		t.Fatalf("expected one lg entry per widget, got %d entries for %d widgets", len(page.Layouts[BreakpointLG]), len(page.Widgets))
	}
	if page.Widgets[0].ID != "welcome" {
		t.Fatalf("expected persistent welcome widget first, got %s", page.Widgets[0].ID)
	}
	if page.MinCycleInterval != MinCycleInterval || page.MaxCycleInterval != MaxCycleInterval {
		t.Fatalf("unexpected cycle bounds %d..%d", page.MinCycleInterval, page.MaxCycleInterval)
	}
}

func TestControllerPagePropagatesPropsError(t *testing.T) {
	ts := newTestStore(t, "", nil)
	boom := errors.New("boom")
	controller := NewController(ControllerOptions{
		Stores: StaticStore(ts.PresetStore),
		Props:  PropsFunc(func(context.Context, ViewerContext) (map[string]any, error) { return nil, boom }),
	})
	if _, err := controller.Page(context.Background(), ViewerContext{}); !errors.Is(err, boom) {
		t.Fatalf("expected props error, got %v", err)
	}
}

func TestBuildPickerMarksPresentWidgets(t *testing.T) {
	reg := NewRegistry()
	cats := BuildPicker(context.Background(), reg, PickerOptions{Present: []string{"payroll", "divider"}})
	var payroll, divider *PickerItem
	for ci := range cats {
		for wi := range cats[ci].Widgets {
			item := &cats[ci].Widgets[wi]
			switch item.ID {
			case "payroll":
				payroll = item
			case "divider":
				divider = item
			}
		}
	}
	if payroll == nil || !payroll.Present {
		t.Fatalf("expected payroll to be marked present")
	}
	if divider == nil || divider.Present {
		t.Fatalf("multi-instance divider should stay addable")
	}
}

func TestTemplateRendererRendersTrayWithPicker(t *testing.T) {
	renderer, err := NewTemplateRenderer()
	if err != nil {
		t.Fatalf("NewTemplateRenderer returned error: %v", err)
	}
	ts := newTestStore(t, "", nil)
	controller := NewController(ControllerOptions{Stores: StaticStore(ts.PresetStore), Renderer: renderer})

	var buf bytes.Buffer
	if err := controller.RenderTemplate(context.Background(), ViewerContext{UserID: "user"}, &buf); err != nil {
		t.Fatalf("RenderTemplate returned error: %v", err)
	}
	html := buf.String()
	for _, want := range []string{
		`data-preset-id="default"`,
		`class="preset-tab is-active"`,
		`data-cycle-interval="30"`,
		`data-cycling="false"`,
		`class="widget-picker"`,
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in rendered tray, got %s", want, html)
		}
	}
}
