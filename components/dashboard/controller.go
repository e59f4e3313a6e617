package dashboard

import (
	"context"
	"errors"
	"io"
)

var (
	errMissingStore    = errors.New("dashboard: preset store not configured")
	errMissingRenderer = errors.New("dashboard: renderer not configured")
)

// PropsProvider supplies the host data widgets declare in RequiresProps.
type PropsProvider interface {
	WidgetProps(ctx context.Context, viewer ViewerContext) (map[string]any, error)
}

// PropsFunc adapts a function to PropsProvider.
type PropsFunc func(ctx context.Context, viewer ViewerContext) (map[string]any, error)

// WidgetProps implements PropsProvider.
func (fn PropsFunc) WidgetProps(ctx context.Context, viewer ViewerContext) (map[string]any, error) {
	return fn(ctx, viewer)
}

// ControllerOptions configures the tray controller.
type ControllerOptions struct {
	Stores     StoreSource
	Factory    *Factory
	Renderer   Renderer
	Template   string
	Translator TranslationService
	Props      PropsProvider
}

// Controller builds the control tray page: preset tabs, widget descriptors, grid layouts
// and the widget picker.
type Controller struct {
	opts ControllerOptions
}

// NewController wires the store into a controller.
func NewController(opts ControllerOptions) *Controller {
	if opts.Template == "" {
		opts.Template = TrayTemplate
	}
	return &Controller{opts: opts}
}

// TrayPage is the view model handed to the renderer and to JSON clients.
type TrayPage struct {
	Title            string             `json:"title"`
	Locale           string             `json:"locale"`
	State            Snapshot           `json:"state"`
	Widgets          []WidgetDescriptor `json:"widgets"`
	Layouts          Layouts            `json:"layouts"`
	Picker           []PickerCategory   `json:"picker"`
	MinCycleInterval int                `json:"minCycleInterval"`
	MaxCycleInterval int                `json:"maxCycleInterval"`
}

// Page resolves the tray view model for viewer.
func (c *Controller) Page(ctx context.Context, viewer ViewerContext) (TrayPage, error) {
	if c.opts.Stores == nil {
		return TrayPage{}, errMissingStore
	}
	store, err := c.opts.Stores.StoreFor(ctx, viewer)
	if err != nil {
		return TrayPage{}, err
	}
	var props map[string]any
	if c.opts.Props != nil {
		loaded, err := c.opts.Props.WidgetProps(ctx, viewer)
		if err != nil {
			return TrayPage{}, err
		}
		props = loaded
	}
	snap := store.Snapshot()
	widgets := store.PresetWidgets()
	factory := c.opts.Factory
	if factory == nil {
		factory = NewFactory(FactoryOptions{Registry: store.Registry()})
	}
	factory = factory.WithLocale(viewer.Locale)
	descs := factory.PresetDescriptors(visibleWidgets(store.Registry(), widgets, viewer), props, snap.CurrentPreset)
	layouts := snap.CurrentPreset.Layouts
	if len(layouts[BreakpointLG]) == 0 {
		layouts = DefaultLayoutsFromWidgets(descs)
	}
	return TrayPage{
		Title:   translateOrFallback(ctx, c.opts.Translator, "dashboard.title", viewer.Locale, "Dashboard", nil),
		Locale:  viewer.Locale,
		State:   snap,
		Widgets: descs,
		Layouts: layouts,
		Picker: BuildPicker(ctx, store.Registry(), PickerOptions{
			Viewer:     viewer,
			Present:    widgets,
			Translator: c.opts.Translator,
		}),
		MinCycleInterval: MinCycleInterval,
		MaxCycleInterval: MaxCycleInterval,
	}, nil
}

// RenderTemplate renders the tray page into out.
func (c *Controller) RenderTemplate(ctx context.Context, viewer ViewerContext, out io.Writer) error {
	if c.opts.Renderer == nil {
		return errMissingRenderer
	}
	page, err := c.Page(ctx, viewer)
	if err != nil {
		return err
	}
	_, err = c.opts.Renderer.Render(c.opts.Template, map[string]any{
		"page":   page,
		"viewer": viewer,
	}, out)
	return err
}

func visibleWidgets(reg *Registry, ids []string, viewer ViewerContext) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if reg.HasWidgetPermission(id, viewer.Permissions) {
			out = append(out, id)
		}
	}
	return out
}
