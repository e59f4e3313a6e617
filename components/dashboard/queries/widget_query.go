package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-portal-dashboard/components/dashboard"
)

// WidgetDescriptorsQuery returns the renderable widgets of the viewer's active preset.
type WidgetDescriptorsQuery struct {
	pages pageBuilder
}

// NewWidgetDescriptorsQuery builds the query.
func NewWidgetDescriptorsQuery(pages pageBuilder) *WidgetDescriptorsQuery {
	return &WidgetDescriptorsQuery{pages: pages}
}

var _ gocommand.Querier[dashboard.ViewerContext, []dashboard.WidgetDescriptor] = (*WidgetDescriptorsQuery)(nil)

// Query resolves the descriptors.
func (q *WidgetDescriptorsQuery) Query(ctx context.Context, viewer dashboard.ViewerContext) ([]dashboard.WidgetDescriptor, error) {
	page, err := q.pages.Page(ctx, viewer)
	if err != nil {
		return nil, err
	}
	return page.Widgets, nil
}

// PickerCatalogQuery lists the widgets a viewer may add, grouped by category.
type PickerCatalogQuery struct {
	stores     dashboard.StoreSource
	translator dashboard.TranslationService
}

// NewPickerCatalogQuery builds the query. translator may be nil.
func NewPickerCatalogQuery(stores dashboard.StoreSource, translator dashboard.TranslationService) *PickerCatalogQuery {
	return &PickerCatalogQuery{stores: stores, translator: translator}
}

var _ gocommand.Querier[dashboard.ViewerContext, []dashboard.PickerCategory] = (*PickerCatalogQuery)(nil)

// Query builds the picker for the viewer, marking widgets already on the active preset.
func (q *PickerCatalogQuery) Query(ctx context.Context, viewer dashboard.ViewerContext) ([]dashboard.PickerCategory, error) {
	if q.stores == nil {
		return nil, errMissingSource
	}
	store, err := q.stores.StoreFor(ctx, viewer)
	if err != nil {
		return nil, err
	}
	return dashboard.BuildPicker(ctx, store.Registry(), dashboard.PickerOptions{
		Viewer:     viewer,
		Present:    store.PresetWidgets(),
		Translator: q.translator,
	}), nil
}
