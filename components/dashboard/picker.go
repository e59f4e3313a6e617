package dashboard

import "context"

// PickerItem is one selectable widget in the picker.
type PickerItem struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	AllowMultiple bool   `json:"allowMultiple"`
	Present       bool   `json:"present"`
	Persistent    bool   `json:"persistent"`
}

// PickerCategory groups picker items under a translated label.
type PickerCategory struct {
	Key     Category     `json:"key"`
	Label   string       `json:"label"`
	Widgets []PickerItem `json:"widgets"`
}

// PickerOptions controls BuildPicker.
type PickerOptions struct {
	Viewer     ViewerContext
	Present    []string
	Translator TranslationService
}

// BuildPicker lists the widgets a viewer may add, grouped by category. Widgets the viewer
// lacks permission for are omitted; Present marks single-instance widgets already shown.
func BuildPicker(ctx context.Context, reg *Registry, opts PickerOptions) []PickerCategory {
	present := make(map[string]struct{}, len(opts.Present))
	for _, id := range opts.Present {
		present[id] = struct{}{}
	}
	out := make([]PickerCategory, 0)
	for _, info := range reg.AvailableCategories() {
		var items []PickerItem
		for _, def := range reg.WidgetsByCategory(info.Key) {
			if !HasPermission(def.Permission, opts.Viewer.Permissions) {
				continue
			}
			_, shown := present[def.ID]
			items = append(items, PickerItem{
				ID:            def.ID,
				Name:          def.NameForLocale(opts.Viewer.Locale),
				Description:   def.DescriptionForLocale(opts.Viewer.Locale),
				AllowMultiple: def.AllowMultiple,
				Present:       shown && !def.AllowMultiple,
				Persistent:    def.Persistent,
			})
		}
		if len(items) == 0 {
			continue
		}
		out = append(out, PickerCategory{
			Key:     info.Key,
			Label:   CategoryLabel(ctx, opts.Translator, info, opts.Viewer.Locale),
			Widgets: items,
		})
	}
	return out
}
