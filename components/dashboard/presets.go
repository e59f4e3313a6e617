package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-portal-dashboard/pkg/activity"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultPresetID identifies the preset synthesized when nothing is persisted.
	DefaultPresetID = "default"
	// DefaultPresetName is the display name of the synthesized preset.
	DefaultPresetName = "Default"
	// DefaultMaxPresets bounds the preset list.
	DefaultMaxPresets = 10
	// DefaultTransitionSettle is how long IsTransitioning stays set after a switch.
	DefaultTransitionSettle = 400 * time.Millisecond
	// DefaultCycleInterval is the auto-cycle period in seconds.
	DefaultCycleInterval = 30
	// MinCycleInterval is the shortest accepted cycle period in seconds.
	MinCycleInterval = 5
	// MaxCycleInterval is the longest accepted cycle period in seconds.
	MaxCycleInterval = 120
)

// Reasons carried by StoreEvent.
const (
	ReasonInit              = "init"
	ReasonReload            = "reload"
	ReasonImport            = "import"
	ReasonAddPreset         = "add_preset"
	ReasonDeletePreset      = "delete_preset"
	ReasonRenamePreset      = "rename_preset"
	ReasonDuplicatePreset   = "duplicate_preset"
	ReasonSwitchPreset      = "switch_preset"
	ReasonTransitionSettled = "transition_settled"
	ReasonPendingChanged    = "pending_changed"
	ReasonCommit            = "commit"
	ReasonDiscard           = "discard"
	ReasonCycleToggled      = "cycle_toggled"
	ReasonCycleInterval     = "cycle_interval"
	ReasonCycleTick         = "cycle_tick"
)

const presetObjectType = "dashboard_preset"

// StoreOptions configures a PresetStore. Nil collaborators fall back to in-memory or no-op
// implementations.
type StoreOptions struct {
	Registry             *Registry
	Storage              KeyValueStore
	URL                  URLState
	Scheduler            Scheduler
	Clock                Clock
	Logger               *zap.Logger
	Telemetry            Telemetry
	ActivityHooks        activity.Hooks
	ActivityConfig       activity.Config
	Validator            DocumentValidator
	IDGenerator          func(now time.Time) string
	MaxPresets           int
	TransitionSettle     time.Duration
	DefaultCycleInterval int
}

type cycleKey struct {
	enabled  bool
	interval int
	count    int
}

// PresetStore owns the preset list, the active index, pending edits, auto-cycling and URL
// synchronization. Every method is safe for concurrent use; subscribers are notified after
// the store lock is released.
type PresetStore struct {
	registry  *Registry
	storage   KeyValueStore
	url       URLState
	scheduler Scheduler
	clock     Clock
	logger    *zap.Logger
	telemetry Telemetry
	activity  *activity.Emitter
	validator DocumentValidator
	newID     func(now time.Time) string

	maxPresets      int
	settle          time.Duration
	defaultInterval int

	mu              sync.Mutex
	presets         []Preset
	activeIndex     int
	isTransitioning bool
	direction       Direction
	isCycling       bool
	cycleInterval   int
	pending         PendingWidgetChanges
	pendingLocked   map[string]LockedDimensions
	transitionTimer Timer
	transitionGen   uint64
	cycleTimer      Timer
	cycleGen        uint64
	cycleKey        cycleKey
	cycleScheduled  bool
	closed          bool

	subsMu    sync.RWMutex
	subs      map[int]Listener
	nextSubID int
}

// NewPresetStore builds a store and loads its state from storage and the URL.
func NewPresetStore(opts StoreOptions) *PresetStore {
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}
	if opts.Storage == nil {
		opts.Storage = NewInMemoryKeyValueStore()
	}
	if opts.URL == nil {
		opts.URL = noopURLState{}
	}
	if opts.Scheduler == nil {
		opts.Scheduler = NewRealScheduler()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Validator == nil {
		opts.Validator = NewJSONSchemaValidator()
	}
	if opts.IDGenerator == nil {
		opts.IDGenerator = newPresetID
	}
	if opts.MaxPresets <= 0 {
		opts.MaxPresets = DefaultMaxPresets
	}
	if opts.TransitionSettle <= 0 {
		opts.TransitionSettle = DefaultTransitionSettle
	}
	if opts.DefaultCycleInterval <= 0 {
		opts.DefaultCycleInterval = DefaultCycleInterval
	}
	s := &PresetStore{
		registry:        opts.Registry,
		storage:         opts.Storage,
		url:             opts.URL,
		scheduler:       opts.Scheduler,
		clock:           opts.Clock,
		logger:          opts.Logger,
		telemetry:       normalizeTelemetry(opts.Telemetry),
		activity:        activity.NewEmitter(opts.ActivityHooks, opts.ActivityConfig),
		validator:       opts.Validator,
		newID:           opts.IDGenerator,
		maxPresets:      opts.MaxPresets,
		settle:          opts.TransitionSettle,
		defaultInterval: ClampCycleInterval(opts.DefaultCycleInterval),
		subs:            map[int]Listener{},
	}
	s.init(context.Background())
	return s
}

func newPresetID(now time.Time) string {
	suffix, _, _ := strings.Cut(uuid.NewString(), "-")
	return fmt.Sprintf("preset-%d-%s", now.UnixMilli(), suffix)
}

// ClampCycleInterval bounds an interval in seconds to [MinCycleInterval, MaxCycleInterval].
func ClampCycleInterval(seconds int) int {
	if seconds < MinCycleInterval {
		return MinCycleInterval
	}
	if seconds > MaxCycleInterval {
		return MaxCycleInterval
	}
	return seconds
}

func (s *PresetStore) init(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	presets := s.loadPresets(ctx)
	synthesized := len(presets) == 0
	if synthesized {
		presets = []Preset{s.defaultPreset()}
	}
	if len(presets) > s.maxPresets {
		s.logger.Warn("dashboard: truncating persisted presets", zap.Int("count", len(presets)), zap.Int("max", s.maxPresets))
		presets = presets[:s.maxPresets]
	}
	s.presets = presets

	s.cycleInterval = s.defaultInterval
	settings, ok := s.loadCycleSettings(ctx)
	if ok {
		s.cycleInterval = ClampCycleInterval(settings.Interval)
	}

	params := readURLParams(s.url)
	if params.hasPreset && params.presetIndex >= 0 && params.presetIndex < len(s.presets) {
		s.activeIndex = params.presetIndex
	}
	s.isCycling = params.cycle || settings.Enabled

	if synthesized {
		s.savePresetsLocked(ctx)
	}
	if !ok || settings.Enabled != s.isCycling {
		s.saveCycleSettingsLocked(ctx)
	}
	s.syncURLLocked()
	s.rescheduleCycleLocked()
}

func (s *PresetStore) defaultPreset() Preset {
	return Preset{
		ID:            DefaultPresetID,
		Name:          DefaultPresetName,
		Widgets:       s.registry.DefaultWidgetIDs(),
		Layouts:       Layouts{},
		LockedWidgets: map[string]LockedDimensions{},
	}
}

// Registry exposes the widget catalog the store was built with.
func (s *PresetStore) Registry() *Registry {
	return s.registry
}

// Subscribe registers l for every subsequent state change.
func (s *PresetStore) Subscribe(l Listener) (cancel func()) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = l
	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *PresetStore) publish(ctx context.Context, reason string, snap Snapshot) {
	s.subsMu.RLock()
	listeners := make([]Listener, 0, len(s.subs))
	for _, l := range s.subs {
		listeners = append(listeners, l)
	}
	s.subsMu.RUnlock()
	event := StoreEvent{Reason: reason, Snapshot: snap}
	for _, l := range listeners {
		l(ctx, event)
	}
}

func (s *PresetStore) record(ctx context.Context, verb string, preset Preset, meta map[string]any) {
	payload := map[string]any{"preset_id": preset.ID}
	for k, v := range meta {
		payload[k] = v
	}
	s.telemetry.Record(ctx, verb, payload)
	if !s.activity.Enabled() {
		return
	}
	actor, _ := ActorFrom(ctx)
	meta = copyMeta(meta)
	if meta == nil {
		meta = map[string]any{}
	}
	meta["preset_name"] = preset.Name
	err := s.activity.Emit(ctx, activity.Event{
		Verb:       verb,
		ActorID:    actor.ID,
		UserID:     actor.UserID,
		TenantID:   actor.TenantID,
		ObjectType: presetObjectType,
		ObjectID:   preset.ID,
		Metadata:   meta,
		OccurredAt: s.clock(),
	})
	if err != nil {
		s.logger.Warn("dashboard: activity hook failed", zap.String("verb", verb), zap.Error(err))
	}
}

func copyMeta(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (s *PresetStore) rejected(op string, fields ...zap.Field) {
	s.logger.Debug("dashboard: operation rejected", append([]zap.Field{zap.String("op", op)}, fields...)...)
}

// AddPreset appends a preset seeded with the default widgets and activates it. It returns
// nil when the store already holds the maximum number of presets.
func (s *PresetStore) AddPreset(ctx context.Context) *Preset {
	s.mu.Lock()
	if len(s.presets) >= s.maxPresets {
		s.mu.Unlock()
		s.rejected("add_preset", zap.Int("count", s.maxPresets))
		return nil
	}
	preset := Preset{
		ID:            s.newID(s.clock()),
		Name:          fmt.Sprintf("Preset %d", len(s.presets)+1),
		Widgets:       s.registry.DefaultWidgetIDs(),
		Layouts:       Layouts{},
		LockedWidgets: map[string]LockedDimensions{},
	}
	s.presets = append(s.presets, preset)
	s.activeIndex = len(s.presets) - 1
	s.clearPendingLocked()
	s.savePresetsLocked(ctx)
	s.syncURLLocked()
	s.rescheduleCycleLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.record(ctx, "dashboard.preset.add", preset, nil)
	s.publish(ctx, ReasonAddPreset, snap)
	out := preset.Clone()
	return &out
}

// DeletePreset removes the preset at index. The last remaining preset cannot be deleted.
func (s *PresetStore) DeletePreset(ctx context.Context, index int) bool {
	s.mu.Lock()
	if len(s.presets) <= 1 || index < 0 || index >= len(s.presets) {
		count := len(s.presets)
		s.mu.Unlock()
		s.rejected("delete_preset", zap.Int("index", index), zap.Int("count", count))
		return false
	}
	activeID := s.presets[s.activeIndex].ID
	removed := s.presets[index]
	s.presets = append(s.presets[:index:index], s.presets[index+1:]...)
	switch {
	case s.activeIndex >= len(s.presets):
		s.activeIndex = len(s.presets) - 1
	case s.activeIndex > index:
		s.activeIndex--
	}
	if s.presets[s.activeIndex].ID != activeID {
		s.clearPendingLocked()
	}
	s.savePresetsLocked(ctx)
	s.syncURLLocked()
	s.rescheduleCycleLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.record(ctx, "dashboard.preset.delete", removed, map[string]any{"index": index})
	s.publish(ctx, ReasonDeletePreset, snap)
	return true
}

// RenamePreset sets the preset name. A blank name falls back to "Preset <index+1>".
func (s *PresetStore) RenamePreset(ctx context.Context, index int, name string) bool {
	s.mu.Lock()
	if index < 0 || index >= len(s.presets) {
		s.mu.Unlock()
		s.rejected("rename_preset", zap.Int("index", index))
		return false
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("Preset %d", index+1)
	}
	s.presets[index].Name = name
	preset := s.presets[index].Clone()
	s.savePresetsLocked(ctx)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.record(ctx, "dashboard.preset.rename", preset, map[string]any{"index": index})
	s.publish(ctx, ReasonRenamePreset, snap)
	return true
}

// DuplicatePreset appends a deep copy of the preset at index without activating it. It
// returns nil at capacity or for an out of range index.
func (s *PresetStore) DuplicatePreset(ctx context.Context, index int) *Preset {
	s.mu.Lock()
	if len(s.presets) >= s.maxPresets || index < 0 || index >= len(s.presets) {
		count := len(s.presets)
		s.mu.Unlock()
		s.rejected("duplicate_preset", zap.Int("index", index), zap.Int("count", count))
		return nil
	}
	source := s.presets[index]
	dup := source.Clone()
	dup.ID = s.newID(s.clock())
	dup.Name = source.Name + " (Copy)"
	s.presets = append(s.presets, dup)
	s.savePresetsLocked(ctx)
	s.rescheduleCycleLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.record(ctx, "dashboard.preset.duplicate", dup, map[string]any{"source_id": source.ID})
	s.publish(ctx, ReasonDuplicatePreset, snap)
	out := dup.Clone()
	return &out
}

// SwitchPreset activates the preset at index and starts the transition window. Pending
// edits belong to the preset being left and are discarded.
func (s *PresetStore) SwitchPreset(ctx context.Context, index int) bool {
	s.mu.Lock()
	if !s.switchLocked(index) {
		s.mu.Unlock()
		s.rejected("switch_preset", zap.Int("index", index))
		return false
	}
	preset := s.presets[s.activeIndex].Clone()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.record(ctx, "dashboard.preset.switch", preset, map[string]any{"index": index})
	s.publish(ctx, ReasonSwitchPreset, snap)
	return true
}

func (s *PresetStore) switchLocked(index int) bool {
	if index == s.activeIndex || index < 0 || index >= len(s.presets) {
		return false
	}
	if index > s.activeIndex {
		s.direction = DirectionLeft
	} else {
		s.direction = DirectionRight
	}
	s.isTransitioning = true
	s.activeIndex = index
	s.clearPendingLocked()
	s.syncURLLocked()
	s.scheduleSettleLocked()
	return true
}

func (s *PresetStore) scheduleSettleLocked() {
	if s.transitionTimer != nil {
		s.transitionTimer.Stop()
		s.transitionTimer = nil
	}
	s.transitionGen++
	if s.closed {
		s.isTransitioning = false
		return
	}
	gen := s.transitionGen
	s.transitionTimer = s.scheduler.AfterFunc(s.settle, func() { s.settleTransition(gen) })
}

func (s *PresetStore) settleTransition(gen uint64) {
	s.mu.Lock()
	if gen != s.transitionGen || !s.isTransitioning {
		s.mu.Unlock()
		return
	}
	s.isTransitioning = false
	s.transitionTimer = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(context.Background(), ReasonTransitionSettled, snap)
}

// AddWidgetToPreset marks a widget as pending-added. Re-adding a pending removal cancels
// the removal instead.
func (s *PresetStore) AddWidgetToPreset(ctx context.Context, widgetID string) bool {
	s.mu.Lock()
	changed := false
	switch {
	case widgetID == "":
	case containsID(s.pending.Removed, widgetID):
		s.pending.Removed = removeID(s.pending.Removed, widgetID)
		changed = true
	case containsID(s.pending.Added, widgetID), containsID(s.baseWidgetsLocked(), widgetID):
	default:
		if _, _, ok := s.registry.Resolve(widgetID); ok {
			s.pending.Added = append(s.pending.Added, widgetID)
			changed = true
		}
	}
	if !changed {
		s.mu.Unlock()
		s.rejected("add_widget", zap.String("widget_id", widgetID))
		return false
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.telemetry.Record(ctx, "dashboard.widget.add", map[string]any{"widget_id": widgetID})
	s.publish(ctx, ReasonPendingChanged, snap)
	return true
}

// RemoveWidgetFromPreset marks a widget as pending-removed, or drops a pending add.
// Persistent widgets cannot be removed.
func (s *PresetStore) RemoveWidgetFromPreset(ctx context.Context, widgetID string) bool {
	s.mu.Lock()
	changed := false
	switch {
	case s.registry.IsPersistent(widgetID):
	case containsID(s.pending.Added, widgetID):
		s.pending.Added = removeID(s.pending.Added, widgetID)
		changed = true
	case containsID(s.pending.Removed, widgetID):
	case containsID(s.presets[s.activeIndex].Widgets, widgetID):
		s.pending.Removed = append(s.pending.Removed, widgetID)
		changed = true
	}
	if !changed {
		s.mu.Unlock()
		s.rejected("remove_widget", zap.String("widget_id", widgetID))
		return false
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.telemetry.Record(ctx, "dashboard.widget.remove", map[string]any{"widget_id": widgetID})
	s.publish(ctx, ReasonPendingChanged, snap)
	return true
}

// UpdateLockedWidgets edits the pending lock map, seeding it from the committed locks on
// first use. Locks need a width and height of at least one cell.
func (s *PresetStore) UpdateLockedWidgets(ctx context.Context, widgetID string, locked bool, dims LockedDimensions) bool {
	if widgetID == "" || (locked && !ValidLockedDimensions(dims)) {
		s.rejected("lock_widget", zap.String("widget_id", widgetID))
		return false
	}
	s.mu.Lock()
	if s.pendingLocked == nil {
		s.pendingLocked = cloneLocked(s.presets[s.activeIndex].LockedWidgets)
	}
	if locked {
		s.pendingLocked[widgetID] = dims
	} else {
		delete(s.pendingLocked, widgetID)
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.telemetry.Record(ctx, "dashboard.widget.lock", map[string]any{"widget_id": widgetID, "locked": locked})
	s.publish(ctx, ReasonPendingChanged, snap)
	return true
}

// UpdatePresetLayouts commits the active preset: layouts are replaced, pending widget
// changes are folded into Widgets and pending locks replace LockedWidgets. Layouts are
// sanitized first so the saved document always loads back.
func (s *PresetStore) UpdatePresetLayouts(ctx context.Context, layouts Layouts) {
	s.mu.Lock()
	preset := &s.presets[s.activeIndex]
	added, removed := len(s.pending.Added), len(s.pending.Removed)
	preset.Layouts = SanitizeLayouts(layouts)
	preset.Widgets = s.mergedWidgetsLocked()
	if s.pendingLocked != nil {
		preset.LockedWidgets = sanitizeLocked(s.pendingLocked)
	}
	for _, id := range s.pending.Removed {
		delete(preset.LockedWidgets, id)
	}
	s.clearPendingLocked()
	committed := preset.Clone()
	s.savePresetsLocked(ctx)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.record(ctx, "dashboard.preset.commit", committed, map[string]any{
		"added":   added,
		"removed": removed,
	})
	s.publish(ctx, ReasonCommit, snap)
}

// DiscardPendingChanges drops every pending edit.
func (s *PresetStore) DiscardPendingChanges(ctx context.Context) {
	s.mu.Lock()
	s.clearPendingLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.telemetry.Record(ctx, "dashboard.preset.discard", nil)
	s.publish(ctx, ReasonDiscard, snap)
}

func (s *PresetStore) clearPendingLocked() {
	s.pending = PendingWidgetChanges{}
	s.pendingLocked = nil
}

// PresetWidgets returns the effective widget set of the current preset, pending edits
// included.
func (s *PresetStore) PresetWidgets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.effectiveLocked(s.mergedWidgetsLocked())
}

// BasePresetWidgets returns the effective widget set of the last committed preset.
func (s *PresetStore) BasePresetWidgets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseWidgetsLocked()
}

func (s *PresetStore) baseWidgetsLocked() []string {
	return s.effectiveLocked(s.presets[s.activeIndex].Widgets)
}

// effectiveLocked prepends the persistent ids and removes duplicates.
func (s *PresetStore) effectiveLocked(widgets []string) []string {
	return dedupe(append(s.registry.PersistentWidgetIDs(), widgets...))
}

// mergedWidgetsLocked applies pending adds then removes to the committed widget list.
// Persistent ids are never stored per preset.
func (s *PresetStore) mergedWidgetsLocked() []string {
	merged := dedupe(append(append([]string{}, s.presets[s.activeIndex].Widgets...), s.pending.Added...))
	out := make([]string, 0, len(merged))
	for _, id := range merged {
		if containsID(s.pending.Removed, id) || s.registry.IsPersistent(id) {
			continue
		}
		out = append(out, id)
	}
	return out
}

// ToggleCycle flips auto-cycling and returns the new state.
func (s *PresetStore) ToggleCycle(ctx context.Context) bool {
	s.mu.Lock()
	s.isCycling = !s.isCycling
	cycling := s.isCycling
	s.saveCycleSettingsLocked(ctx)
	s.syncURLLocked()
	s.rescheduleCycleLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.telemetry.Record(ctx, "dashboard.cycle.toggle", map[string]any{"enabled": cycling})
	s.publish(ctx, ReasonCycleToggled, snap)
	return cycling
}

// UpdateCycleInterval sets the auto-cycle interval in seconds, clamped to 5..120, and
// returns the stored value.
func (s *PresetStore) UpdateCycleInterval(ctx context.Context, seconds int) int {
	s.mu.Lock()
	seconds = ClampCycleInterval(seconds)
	if seconds == s.cycleInterval {
		s.mu.Unlock()
		return seconds
	}
	s.cycleInterval = seconds
	s.saveCycleSettingsLocked(ctx)
	s.rescheduleCycleLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.telemetry.Record(ctx, "dashboard.cycle.interval", map[string]any{"interval": seconds})
	s.publish(ctx, ReasonCycleInterval, snap)
	return seconds
}

// rescheduleCycleLocked recreates the cycle timer whenever the cycling flag, the interval
// or the preset count changed since the last schedule.
func (s *PresetStore) rescheduleCycleLocked() {
	key := cycleKey{enabled: s.isCycling, interval: s.cycleInterval, count: len(s.presets)}
	if s.cycleScheduled && key == s.cycleKey {
		return
	}
	s.cycleKey = key
	s.cycleScheduled = true
	if s.cycleTimer != nil {
		s.cycleTimer.Stop()
		s.cycleTimer = nil
	}
	s.cycleGen++
	if s.closed || !key.enabled || key.count <= 1 {
		return
	}
	gen := s.cycleGen
	s.cycleTimer = s.scheduler.Every(time.Duration(key.interval)*time.Second, func() { s.cycleTick(gen) })
}

func (s *PresetStore) cycleTick(gen uint64) {
	s.mu.Lock()
	if gen != s.cycleGen || !s.isCycling || len(s.presets) <= 1 {
		s.mu.Unlock()
		return
	}
	next := (s.activeIndex + 1) % len(s.presets)
	if !s.switchLocked(next) {
		s.mu.Unlock()
		return
	}
	preset := s.presets[s.activeIndex].Clone()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	ctx := context.Background()
	s.telemetry.Record(ctx, "dashboard.cycle.tick", map[string]any{"preset_id": preset.ID, "index": next})
	s.publish(ctx, ReasonCycleTick, snap)
}

// Reload re-reads persisted presets, e.g. after another process rewrote the store file.
// Unreadable or invalid documents leave the in-memory state untouched.
func (s *PresetStore) Reload(ctx context.Context) bool {
	presets := s.loadPresetsUnlocked(ctx)
	if len(presets) == 0 {
		return false
	}
	s.mu.Lock()
	s.replacePresetsLocked(presets)
	if settings, ok := s.loadCycleSettings(ctx); ok {
		s.cycleInterval = ClampCycleInterval(settings.Interval)
		s.isCycling = settings.Enabled
	}
	s.syncURLLocked()
	s.rescheduleCycleLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(ctx, ReasonReload, snap)
	return true
}

// ImportPresets replaces the preset list, e.g. from an exported document.
func (s *PresetStore) ImportPresets(ctx context.Context, presets []Preset) bool {
	if len(presets) == 0 || len(presets) > s.maxPresets {
		s.rejected("import_presets", zap.Int("count", len(presets)))
		return false
	}
	normalized := make([]Preset, len(presets))
	for i, p := range presets {
		if p.ID == "" {
			p.ID = s.newID(s.clock())
		}
		normalized[i] = normalizePreset(p.Clone())
	}
	s.mu.Lock()
	s.replacePresetsLocked(normalized)
	s.savePresetsLocked(ctx)
	s.syncURLLocked()
	s.rescheduleCycleLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.telemetry.Record(ctx, "dashboard.preset.import", map[string]any{"count": len(normalized)})
	s.publish(ctx, ReasonImport, snap)
	return true
}

func (s *PresetStore) loadPresetsUnlocked(ctx context.Context) []Preset {
	presets := s.loadPresets(ctx)
	if len(presets) > s.maxPresets {
		presets = presets[:s.maxPresets]
	}
	return presets
}

// replacePresetsLocked swaps the preset list, keeping the active preset when it still
// exists and discarding pending edits when it does not.
func (s *PresetStore) replacePresetsLocked(presets []Preset) {
	activeID := s.presets[s.activeIndex].ID
	s.presets = presets
	next := -1
	for i, p := range presets {
		if p.ID == activeID {
			next = i
			break
		}
	}
	if next < 0 {
		s.clearPendingLocked()
		if s.activeIndex >= len(presets) {
			s.activeIndex = len(presets) - 1
		}
		return
	}
	s.activeIndex = next
}

// Close stops the cycle and transition timers. The store stays readable.
func (s *PresetStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.cycleTimer != nil {
		s.cycleTimer.Stop()
		s.cycleTimer = nil
	}
	if s.transitionTimer != nil {
		s.transitionTimer.Stop()
		s.transitionTimer = nil
	}
	s.cycleGen++
	s.transitionGen++
	s.isTransitioning = false
	return nil
}

// Snapshot returns a deep copy of the store state.
func (s *PresetStore) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// CurrentPreset returns the active preset with pending edits merged in.
func (s *PresetStore) CurrentPreset() Preset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked()
}

// BasePreset returns the last committed version of the active preset.
func (s *PresetStore) BasePreset() Preset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presets[s.activeIndex].Clone()
}

// HasPendingChanges reports whether uncommitted widget or lock edits exist.
func (s *PresetStore) HasPendingChanges() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasPendingLocked()
}

func (s *PresetStore) hasPendingLocked() bool {
	return len(s.pending.Added) > 0 || len(s.pending.Removed) > 0 || s.pendingLocked != nil
}

func (s *PresetStore) currentLocked() Preset {
	current := s.presets[s.activeIndex].Clone()
	current.Widgets = s.mergedWidgetsLocked()
	if s.pendingLocked != nil {
		current.LockedWidgets = cloneLocked(s.pendingLocked)
	}
	return current
}

func (s *PresetStore) snapshotLocked() Snapshot {
	presets := make([]Preset, len(s.presets))
	for i, p := range s.presets {
		presets[i] = p.Clone()
	}
	snap := Snapshot{
		Presets:             presets,
		ActivePresetIndex:   s.activeIndex,
		CurrentPreset:       s.currentLocked(),
		BasePreset:          s.presets[s.activeIndex].Clone(),
		IsTransitioning:     s.isTransitioning,
		TransitionDirection: s.direction,
		IsCycling:           s.isCycling,
		CycleInterval:       s.cycleInterval,
		PendingWidgetChanges: PendingWidgetChanges{
			Added:   append([]string{}, s.pending.Added...),
			Removed: append([]string{}, s.pending.Removed...),
		},
		HasPendingChanges: s.hasPendingLocked(),
	}
	if s.pendingLocked != nil {
		snap.PendingLockedWidgets = cloneLocked(s.pendingLocked)
	}
	return snap
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, candidate := range ids {
		if candidate != id {
			out = append(out, candidate)
		}
	}
	return out
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
