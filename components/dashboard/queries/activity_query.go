package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-portal-dashboard/components/dashboard"
)

// ActivityInput requests the viewer's recent preset changes.
type ActivityInput struct {
	Viewer dashboard.ViewerContext `json:"viewer"`
	Limit  int                     `json:"limit"`
}

// RecentActivityQuery reads an ActivityFeed.
type RecentActivityQuery struct {
	feed *dashboard.ActivityFeed
}

// NewRecentActivityQuery builds the query.
func NewRecentActivityQuery(feed *dashboard.ActivityFeed) *RecentActivityQuery {
	return &RecentActivityQuery{feed: feed}
}

var _ gocommand.Querier[ActivityInput, []dashboard.ActivityItem] = (*RecentActivityQuery)(nil)

// Query returns up to Limit entries, newest first.
func (q *RecentActivityQuery) Query(ctx context.Context, msg ActivityInput) ([]dashboard.ActivityItem, error) {
	if q.feed == nil {
		return nil, nil
	}
	return q.feed.Recent(ctx, msg.Viewer, msg.Limit), nil
}
