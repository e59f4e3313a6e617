package dashboard

import (
	"fmt"
	"sync"
)

// PermissionBase is granted to every viewer.
const PermissionBase = "base"

// WidgetHook lets packages register widgets during init().
type WidgetHook func(reg *Registry) error

var (
	globalHookMu sync.Mutex
	globalHooks  []WidgetHook
)

// RegisterWidgetHook registers a hook executed against new registries.
func RegisterWidgetHook(h WidgetHook) {
	globalHookMu.Lock()
	defer globalHookMu.Unlock()
	globalHooks = append(globalHooks, h)
}

// Registry is the widget catalog. Lookups preserve registration order.
type Registry struct {
	mu          sync.RWMutex
	order       []string
	definitions map[string]WidgetDefinition
	defaults    []string
}

// NewRegistry builds a registry seeded with the built-in portal widgets and applies
// global hooks.
func NewRegistry() *Registry {
	reg := NewEmptyRegistry()
	for _, def := range DefaultWidgetDefinitions() {
		_ = reg.RegisterDefinition(def)
	}
	reg.defaults = append([]string(nil), defaultWidgetIDs...)
	_ = reg.ApplyHooks()
	return reg
}

// NewEmptyRegistry builds a registry without built-in definitions.
func NewEmptyRegistry() *Registry {
	return &Registry{
		definitions: map[string]WidgetDefinition{},
	}
}

// ApplyHooks executes registered widget hooks.
func (r *Registry) ApplyHooks() error {
	globalHookMu.Lock()
	defer globalHookMu.Unlock()
	for _, hook := range globalHooks {
		if err := hook(r); err != nil {
			return err
		}
	}
	return nil
}

// RegisterDefinition stores widget metadata. Re-registering an id replaces the entry in
// place.
func (r *Registry) RegisterDefinition(def WidgetDefinition) error {
	if def.ID == "" {
		return fmt.Errorf("dashboard: widget definition id is required")
	}
	if !validCategory(def.Category) {
		return fmt.Errorf("dashboard: widget %s has unknown category %q", def.ID, def.Category)
	}
	def.normalizeLocalizedFields()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.definitions[def.ID]; !exists {
		r.order = append(r.order, def.ID)
	}
	r.definitions[def.ID] = def
	return nil
}

// SetDefaultWidgetIDs replaces the ordered widget set used to seed new presets.
func (r *Registry) SetDefaultWidgetIDs(ids []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaults = append([]string(nil), ids...)
}

// Definition fetches a widget definition by exact id.
func (r *Registry) Definition(id string) (WidgetDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.definitions[id]
	return def, ok
}

// Resolve looks up the definition behind a widget instance id: exact match first, then
// `<base>_<N>` against multi-instance definitions.
func (r *Registry) Resolve(raw string) (WidgetDefinition, WidgetID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if def, ok := r.definitions[raw]; ok {
		return def, WidgetID{BaseID: raw}, true
	}
	id := ParseWidgetID(raw)
	if !id.HasInstance {
		return WidgetDefinition{}, id, false
	}
	def, ok := r.definitions[id.BaseID]
	if !ok || !def.AllowMultiple {
		return WidgetDefinition{}, id, false
	}
	return def, id, true
}

// Definitions returns all registered definitions in registration order.
func (r *Registry) Definitions() []WidgetDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]WidgetDefinition, 0, len(r.order))
	for _, id := range r.order {
		defs = append(defs, r.definitions[id])
	}
	return defs
}

// WidgetsByCategory returns the definitions of one category.
func (r *Registry) WidgetsByCategory(category Category) []WidgetDefinition {
	var out []WidgetDefinition
	for _, def := range r.Definitions() {
		if def.Category == category {
			out = append(out, def)
		}
	}
	return out
}

// AvailableCategories lists, in display order, the categories that have at least one
// definition.
func (r *Registry) AvailableCategories() []CategoryInfo {
	present := map[Category]bool{}
	for _, def := range r.Definitions() {
		present[def.Category] = true
	}
	out := make([]CategoryInfo, 0, len(categoryOrder))
	for _, info := range categoryOrder {
		if present[info.Key] {
			out = append(out, info)
		}
	}
	return out
}

// HasWidgetPermission reports whether a viewer holding perms may use the widget.
func (r *Registry) HasWidgetPermission(id string, perms []string) bool {
	def, _, ok := r.Resolve(id)
	if !ok {
		return false
	}
	return HasPermission(def.Permission, perms)
}

// HasPermission checks a single required permission against a viewer's grants. The base
// permission always passes.
func HasPermission(required string, perms []string) bool {
	if required == "" || required == PermissionBase {
		return true
	}
	for _, p := range perms {
		if p == required {
			return true
		}
	}
	return false
}

// DefaultWidgetIDs returns the ordered widget set used to seed new presets.
func (r *Registry) DefaultWidgetIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.defaults...)
}

// PersistentWidgetIDs returns the ids unioned into every preset's effective widget set.
func (r *Registry) PersistentWidgetIDs() []string {
	var out []string
	for _, def := range r.Definitions() {
		if def.Persistent {
			out = append(out, def.ID)
		}
	}
	return out
}

// IsPersistent reports whether id is a persistent widget.
func (r *Registry) IsPersistent(id string) bool {
	def, ok := r.Definition(id)
	return ok && def.Persistent
}

// NextInstanceID returns the lowest unused `<base>_<N>` id (N >= 1) given the ids already
// in use. Non multi-instance ids are returned unchanged.
func (r *Registry) NextInstanceID(base string, existing []string) string {
	def, ok := r.Definition(base)
	if !ok || !def.AllowMultiple {
		return base
	}
	used := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		used[id] = struct{}{}
	}
	for n := 1; ; n++ {
		candidate := InstanceID(base, n).String()
		if _, taken := used[candidate]; !taken {
			return candidate
		}
	}
}

func validCategory(c Category) bool {
	for _, info := range categoryOrder {
		if info.Key == c {
			return true
		}
	}
	return false
}
