package queries

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-portal-dashboard/components/dashboard"
)

var errMissingSource = errors.New("queries: preset store source is required")

// SnapshotQuery returns the viewer's store state.
type SnapshotQuery struct {
	stores dashboard.StoreSource
}

// NewSnapshotQuery builds the query.
func NewSnapshotQuery(stores dashboard.StoreSource) *SnapshotQuery {
	return &SnapshotQuery{stores: stores}
}

var _ gocommand.Querier[dashboard.ViewerContext, dashboard.Snapshot] = (*SnapshotQuery)(nil)

// Query resolves the snapshot for the viewer.
func (q *SnapshotQuery) Query(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.Snapshot, error) {
	if q.stores == nil {
		return dashboard.Snapshot{}, errMissingSource
	}
	store, err := q.stores.StoreFor(ctx, viewer)
	if err != nil {
		return dashboard.Snapshot{}, err
	}
	return store.Snapshot(), nil
}

type pageBuilder interface {
	Page(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.TrayPage, error)
}

// TrayPageQuery resolves the full control tray view model.
type TrayPageQuery struct {
	pages pageBuilder
}

// NewTrayPageQuery builds the query over a controller.
func NewTrayPageQuery(pages pageBuilder) *TrayPageQuery {
	return &TrayPageQuery{pages: pages}
}

var _ gocommand.Querier[dashboard.ViewerContext, dashboard.TrayPage] = (*TrayPageQuery)(nil)

// Query builds the tray page for the viewer.
func (q *TrayPageQuery) Query(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.TrayPage, error) {
	return q.pages.Page(ctx, viewer)
}
