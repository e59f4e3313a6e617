package dashboard

import (
	"context"
	"time"
)

// KeyValueStore persists opaque JSON blobs under string keys (browser-style local storage).
// Implementations must be safe for concurrent use.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// URLState exposes the query string of the page hosting the dashboard. ReplaceQuery
// must not trigger a reload (history replacement semantics).
type URLState interface {
	Query() map[string][]string
	ReplaceQuery(values map[string][]string)
}

// Timer is a cancellable scheduled callback.
type Timer interface {
	Stop() bool
}

// Scheduler creates one-shot and repeating timers. The store only schedules through it so
// tests can drive time manually.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
	Every(d time.Duration, fn func()) Timer
}

// Category groups widgets inside the picker.
type Category string

const (
	CategoryCore           Category = "core"
	CategoryPersonal       Category = "personal"
	CategoryAdministration Category = "administration"
	CategorySystem         Category = "system"
	CategoryLayout         Category = "layout"
)

// CategoryInfo pairs a category key with its display label.
type CategoryInfo struct {
	Key   Category `json:"key"`
	Label string   `json:"label"`
}

// Size is a width/height pair in grid units.
type Size struct {
	W int `json:"w" yaml:"w" toml:"w"`
	H int `json:"h" yaml:"h" toml:"h"`
}

// WidgetDefinition is an immutable registry entry describing a widget type.
type WidgetDefinition struct {
	ID                   string            `json:"id" yaml:"id"`
	Name                 string            `json:"name" yaml:"name"`
	NameLocalized        map[string]string `json:"name_localized,omitempty" yaml:"name_localized,omitempty"`
	Description          string            `json:"description,omitempty" yaml:"description,omitempty"`
	DescriptionLocalized map[string]string `json:"description_localized,omitempty" yaml:"description_localized,omitempty"`
	Category             Category          `json:"category" yaml:"category"`
	Component            string            `json:"component" yaml:"component"`
	Permission           string            `json:"permission,omitempty" yaml:"permission,omitempty"`
	Persistent           bool              `json:"persistent,omitempty" yaml:"persistent,omitempty"`
	IsLayoutWidget       bool              `json:"is_layout_widget,omitempty" yaml:"is_layout_widget,omitempty"`
	AllowMultiple        bool              `json:"allow_multiple,omitempty" yaml:"allow_multiple,omitempty"`
	DefaultSize          Size              `json:"default_size" yaml:"default_size"`
	MinSize              Size              `json:"min_size" yaml:"min_size"`
	MaxSize              Size              `json:"max_size" yaml:"max_size"`
	MaxExpandedSize      *Size             `json:"max_expanded_size,omitempty" yaml:"max_expanded_size,omitempty"`
	CanExpand            bool              `json:"can_expand,omitempty" yaml:"can_expand,omitempty"`
	CanResize            bool              `json:"can_resize,omitempty" yaml:"can_resize,omitempty"`
	CanRefresh           bool              `json:"can_refresh,omitempty" yaml:"can_refresh,omitempty"`
	Locked               bool              `json:"locked,omitempty" yaml:"locked,omitempty"`
	StartCollapsed       bool              `json:"start_collapsed,omitempty" yaml:"start_collapsed,omitempty"`
	HideHeader           bool              `json:"hide_header,omitempty" yaml:"hide_header,omitempty"`
	HeaderAction         string            `json:"header_action,omitempty" yaml:"header_action,omitempty"`
	RequiresProps        []string          `json:"requires_props,omitempty" yaml:"requires_props,omitempty"`
}

// Breakpoint names a responsive grid width class.
type Breakpoint string

const (
	BreakpointLG  Breakpoint = "lg"
	BreakpointMD  Breakpoint = "md"
	BreakpointSM  Breakpoint = "sm"
	BreakpointXS  Breakpoint = "xs"
	BreakpointXXS Breakpoint = "xxs"
)

// Breakpoints lists every breakpoint from widest to narrowest.
var Breakpoints = []Breakpoint{BreakpointLG, BreakpointMD, BreakpointSM, BreakpointXS, BreakpointXXS}

// LayoutEntry is one widget's grid cell for one breakpoint.
type LayoutEntry struct {
	I      string `json:"i" yaml:"i" toml:"i"`
	X      int    `json:"x" yaml:"x" toml:"x"`
	Y      int    `json:"y" yaml:"y" toml:"y"`
	W      int    `json:"w" yaml:"w" toml:"w"`
	H      int    `json:"h" yaml:"h" toml:"h"`
	MinW   int    `json:"minW,omitempty" yaml:"minW,omitempty" toml:"minW,omitempty"`
	MinH   int    `json:"minH,omitempty" yaml:"minH,omitempty" toml:"minH,omitempty"`
	MaxW   int    `json:"maxW,omitempty" yaml:"maxW,omitempty" toml:"maxW,omitempty"`
	MaxH   int    `json:"maxH,omitempty" yaml:"maxH,omitempty" toml:"maxH,omitempty"`
	Static bool   `json:"static,omitempty" yaml:"static,omitempty" toml:"static,omitempty"`
}

// Layouts maps each breakpoint to its ordered layout entries.
type Layouts map[Breakpoint][]LayoutEntry

// LockedDimensions pins a widget to an explicit size.
type LockedDimensions struct {
	W        int  `json:"w" yaml:"w" toml:"w"`
	H        int  `json:"h" yaml:"h" toml:"h"`
	Expanded bool `json:"expanded,omitempty" yaml:"expanded,omitempty" toml:"expanded,omitempty"`
}

// Preset is a named, switchable dashboard configuration. Persistent widgets are implicit
// and never stored in Widgets.
type Preset struct {
	ID            string                      `json:"id" yaml:"id" toml:"id"`
	Name          string                      `json:"name" yaml:"name" toml:"name"`
	Widgets       []string                    `json:"widgets" yaml:"widgets" toml:"widgets"`
	Layouts       Layouts                     `json:"layouts" yaml:"layouts" toml:"layouts"`
	LockedWidgets map[string]LockedDimensions `json:"lockedWidgets" yaml:"locked_widgets" toml:"locked_widgets"`
	ExpandedSizes map[string]Size             `json:"expandedSizes,omitempty" yaml:"expanded_sizes,omitempty" toml:"expanded_sizes,omitempty"`
}

// PendingWidgetChanges tracks uncommitted widget membership edits. An id never appears in
// both lists.
type PendingWidgetChanges struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

// CycleSettings is the persisted auto-cycle configuration. Interval is in seconds.
type CycleSettings struct {
	Interval int  `json:"interval"`
	Enabled  bool `json:"enabled"`
}

// Direction is the visual direction of a preset transition.
type Direction string

const (
	DirectionNone  Direction = ""
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// Snapshot is an immutable copy of the store state handed to consumers.
type Snapshot struct {
	Presets              []Preset                    `json:"presets"`
	ActivePresetIndex    int                         `json:"activePresetIndex"`
	CurrentPreset        Preset                      `json:"currentPreset"`
	BasePreset           Preset                      `json:"basePreset"`
	IsTransitioning      bool                        `json:"isTransitioning"`
	TransitionDirection  Direction                   `json:"transitionDirection"`
	IsCycling            bool                        `json:"isCycling"`
	CycleInterval        int                         `json:"cycleInterval"`
	PendingWidgetChanges PendingWidgetChanges        `json:"pendingWidgetChanges"`
	PendingLockedWidgets map[string]LockedDimensions `json:"pendingLockedWidgets,omitempty"`
	HasPendingChanges    bool                        `json:"hasPendingChanges"`
}

// StoreEvent is delivered to subscribers after every state change.
type StoreEvent struct {
	Reason   string   `json:"reason"`
	Snapshot Snapshot `json:"snapshot"`
}

// Listener receives store events. It is invoked outside the store lock.
type Listener func(ctx context.Context, event StoreEvent)

// ViewerContext captures the active user/locale/permissions needed to render dashboards.
type ViewerContext struct {
	UserID      string
	Permissions []string
	Locale      string
}
