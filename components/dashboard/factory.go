package dashboard

import (
	"github.com/ettle/strcase"
	"go.uber.org/zap"
)

// ComponentRef is the placeholder a grid renderer resolves into an actual widget component.
type ComponentRef struct {
	Name string `json:"name"`
}

// ComponentResolver maps component names declared by definitions to renderable components.
type ComponentResolver interface {
	ResolveComponent(name string) (ComponentRef, bool)
}

// StaticComponents is a map-backed ComponentResolver.
type StaticComponents map[string]ComponentRef

// ResolveComponent implements ComponentResolver.
func (s StaticComponents) ResolveComponent(name string) (ComponentRef, bool) {
	ref, ok := s[name]
	return ref, ok
}

// DefaultComponents maps the component of every definition in reg.
func DefaultComponents(reg *Registry) StaticComponents {
	out := StaticComponents{}
	for _, def := range reg.Definitions() {
		if def.Component != "" {
			out[def.Component] = ComponentRef{Name: def.Component}
		}
	}
	return out
}

// LayoutOverrides carries per-widget geometry and lock state that win over definition
// defaults.
type LayoutOverrides struct {
	Layout            *LayoutEntry
	Locked            *bool
	PersistedExpanded bool
}

// WidgetDescriptor is the renderable widget handed to the grid renderer.
type WidgetDescriptor struct {
	ID                string         `json:"id"`
	Key               string         `json:"key"`
	BaseID            string         `json:"baseId"`
	Instance          int            `json:"instance,omitempty"`
	Title             string         `json:"title"`
	Category          Category       `json:"category"`
	Component         ComponentRef   `json:"component"`
	Props             map[string]any `json:"props,omitempty"`
	ShowHeader        bool           `json:"showHeader"`
	HeaderAction      string         `json:"headerAction,omitempty"`
	CanExpand         bool           `json:"canExpand"`
	CanRefresh        bool           `json:"canRefresh"`
	CanResize         bool           `json:"canResize"`
	Persistent        bool           `json:"persistent"`
	StartCollapsed    bool           `json:"startCollapsed"`
	Locked            bool           `json:"locked"`
	PersistedExpanded bool           `json:"persistedExpanded"`
	IsLayoutWidget    bool           `json:"isLayoutWidget"`
	X                 int            `json:"x"`
	Y                 int            `json:"y"`
	W                 int            `json:"w"`
	H                 int            `json:"h"`
	MinW              int            `json:"minW"`
	MinH              int            `json:"minH"`
	MaxW              int            `json:"maxW"`
	MaxH              int            `json:"maxH"`
	MaxExpandedW      int            `json:"maxExpandedW,omitempty"`
	MaxExpandedH      int            `json:"maxExpandedH,omitempty"`
}

func (d WidgetDescriptor) layoutEntry() LayoutEntry {
	return LayoutEntry{
		I:      d.ID,
		X:      d.X,
		Y:      d.Y,
		W:      d.W,
		H:      d.H,
		MinW:   d.MinW,
		MinH:   d.MinH,
		MaxW:   d.MaxW,
		MaxH:   d.MaxH,
		Static: d.Locked,
	}
}

// FactoryOptions configures a Factory.
type FactoryOptions struct {
	Registry   *Registry
	Components ComponentResolver
	Logger     *zap.Logger
	Locale     string
}

// Factory turns widget ids plus saved layout and lock data into descriptors.
type Factory struct {
	registry   *Registry
	components ComponentResolver
	logger     *zap.Logger
	locale     string
}

// NewFactory builds a factory, defaulting to the built-in registry and its components.
func NewFactory(opts FactoryOptions) *Factory {
	reg := opts.Registry
	if reg == nil {
		reg = NewRegistry()
	}
	components := opts.Components
	if components == nil {
		components = DefaultComponents(reg)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{
		registry:   reg,
		components: components,
		logger:     logger,
		locale:     opts.Locale,
	}
}

// WithLocale returns a copy of the factory that titles widgets for locale.
func (f *Factory) WithLocale(locale string) *Factory {
	clone := *f
	clone.locale = locale
	return &clone
}

// Registry exposes the catalog backing the factory.
func (f *Factory) Registry() *Registry {
	return f.registry
}

// CreateWidget builds a descriptor for one widget id. Unknown ids and unmapped components
// are logged and reported with ok=false.
func (f *Factory) CreateWidget(widgetID string, props map[string]any, overrides LayoutOverrides) (*WidgetDescriptor, bool) {
	def, id, ok := f.registry.Resolve(widgetID)
	if !ok {
		f.logger.Warn("dashboard: unknown widget id", zap.String("widget_id", widgetID))
		return nil, false
	}
	component, ok := f.components.ResolveComponent(def.Component)
	if !ok {
		f.logger.Warn("dashboard: widget component not mapped",
			zap.String("widget_id", widgetID),
			zap.String("component", def.Component),
		)
		return nil, false
	}

	locked := def.Locked
	if overrides.Locked != nil {
		locked = *overrides.Locked
	}
	desc := &WidgetDescriptor{
		ID:                widgetID,
		Key:               widgetID,
		BaseID:            id.BaseID,
		Instance:          id.Instance,
		Title:             f.title(def),
		Category:          def.Category,
		Component:         component,
		Props:             pickProps(def.RequiresProps, props),
		ShowHeader:        !def.HideHeader,
		HeaderAction:      def.HeaderAction,
		CanExpand:         def.CanExpand,
		CanRefresh:        def.CanRefresh,
		CanResize:         def.CanResize,
		Persistent:        def.Persistent,
		StartCollapsed:    def.StartCollapsed,
		Locked:            locked,
		PersistedExpanded: overrides.PersistedExpanded,
		IsLayoutWidget:    def.IsLayoutWidget,
		W:                 def.DefaultSize.W,
		H:                 def.DefaultSize.H,
		MinW:              def.MinSize.W,
		MinH:              def.MinSize.H,
		MaxW:              def.MaxSize.W,
		MaxH:              def.MaxSize.H,
	}
	if def.MaxExpandedSize != nil {
		desc.MaxExpandedW = def.MaxExpandedSize.W
		desc.MaxExpandedH = def.MaxExpandedSize.H
	}
	if l := overrides.Layout; l != nil {
		desc.X, desc.Y = l.X, l.Y
		if l.W > 0 {
			desc.W = l.W
		}
		if l.H > 0 {
			desc.H = l.H
		}
		if l.MinW > 0 {
			desc.MinW = l.MinW
		}
		if l.MinH > 0 {
			desc.MinH = l.MinH
		}
		if l.MaxW > 0 {
			desc.MaxW = l.MaxW
		}
		if l.MaxH > 0 {
			desc.MaxH = l.MaxH
		}
	}
	return desc, true
}

// CreateWidgets builds descriptors for ids, merging the lg layout entry and any locked
// dimensions of each id. Ids that fail to resolve are skipped.
func (f *Factory) CreateWidgets(widgetIDs []string, props map[string]any, layouts Layouts, locked map[string]LockedDimensions) []WidgetDescriptor {
	out := make([]WidgetDescriptor, 0, len(widgetIDs))
	for _, id := range widgetIDs {
		var overrides LayoutOverrides
		if entry, ok := FindLayoutEntry(layouts, BreakpointLG, id); ok {
			overrides.Layout = &entry
		}
		if dims, ok := locked[id]; ok {
			entry := LayoutEntry{I: id}
			if overrides.Layout != nil {
				entry = *overrides.Layout
			}
			entry.W, entry.H = dims.W, dims.H
			overrides.Layout = &entry
			isLocked := true
			overrides.Locked = &isLocked
			overrides.PersistedExpanded = dims.Expanded
		}
		desc, ok := f.CreateWidget(id, props, overrides)
		if !ok {
			continue
		}
		out = append(out, *desc)
	}
	return out
}

// PresetDescriptors builds the descriptors of a preset's effective widget set, filling in a
// packed default layout for widgets that have no saved lg entry.
func (f *Factory) PresetDescriptors(widgetIDs []string, props map[string]any, preset Preset) []WidgetDescriptor {
	descs := f.CreateWidgets(widgetIDs, props, preset.Layouts, preset.LockedWidgets)
	var missing []int
	for i, desc := range descs {
		if _, ok := FindLayoutEntry(preset.Layouts, BreakpointLG, desc.ID); !ok {
			missing = append(missing, i)
		}
	}
	if len(missing) == len(descs) {
		packed := DefaultLayoutsFromWidgets(descs)
		for i, entry := range packed[BreakpointLG] {
			descs[i].X, descs[i].Y = entry.X, entry.Y
		}
	} else if len(missing) > 0 {
		bottom := 0
		for _, entry := range preset.Layouts[BreakpointLG] {
			if entry.Y+entry.H > bottom {
				bottom = entry.Y + entry.H
			}
		}
		pending := make([]WidgetDescriptor, 0, len(missing))
		for _, i := range missing {
			pending = append(pending, descs[i])
		}
		packed := DefaultLayoutsFromWidgets(pending)
		for n, entry := range packed[BreakpointLG] {
			descs[missing[n]].X = entry.X
			descs[missing[n]].Y = bottom + entry.Y
		}
	}
	return descs
}

func (f *Factory) title(def WidgetDefinition) string {
	if name := def.NameForLocale(f.locale); name != "" {
		return name
	}
	return strcase.ToCase(def.ID, strcase.TitleCase, ' ')
}

func pickProps(required []string, props map[string]any) map[string]any {
	if len(required) == 0 || len(props) == 0 {
		return nil
	}
	out := make(map[string]any, len(required))
	for _, name := range required {
		if value, ok := props[name]; ok {
			out[name] = value
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
