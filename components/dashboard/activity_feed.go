package dashboard

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-portal-dashboard/pkg/activity"
)

// DefaultActivityFeedSize bounds the recent preset changes kept by an ActivityFeed.
const DefaultActivityFeedSize = 50

// ActivityItem is one recent preset change as shown in the tray history.
type ActivityItem struct {
	Verb       string    `json:"verb"`
	Action     string    `json:"action"`
	ActorID    string    `json:"actorId,omitempty"`
	UserID     string    `json:"userId,omitempty"`
	PresetID   string    `json:"presetId"`
	PresetName string    `json:"presetName,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// ActivityFeed keeps the most recent preset activity in memory. It is an activity.Hook so
// it can be listed in StoreOptions.ActivityHooks.
type ActivityFeed struct {
	mu    sync.RWMutex
	size  int
	items []ActivityItem
}

var _ activity.Hook = (*ActivityFeed)(nil)

// NewActivityFeed builds a feed retaining up to size entries.
func NewActivityFeed(size int) *ActivityFeed {
	if size <= 0 {
		size = DefaultActivityFeedSize
	}
	return &ActivityFeed{size: size}
}

// Notify implements activity.Hook.
func (f *ActivityFeed) Notify(_ context.Context, evt activity.Event) error {
	if evt.ObjectType != presetObjectType {
		return nil
	}
	name, _ := evt.Metadata["preset_name"].(string)
	item := ActivityItem{
		Verb:       evt.Verb,
		Action:     strings.TrimPrefix(evt.Verb, "dashboard.preset."),
		ActorID:    evt.ActorID,
		UserID:     evt.UserID,
		PresetID:   evt.ObjectID,
		PresetName: name,
		OccurredAt: evt.OccurredAt,
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, item)
	if over := len(f.items) - f.size; over > 0 {
		f.items = append([]ActivityItem(nil), f.items[over:]...)
	}
	return nil
}

// Recent returns up to limit entries, newest first. Viewers only see their own changes
// unless the entry carries no user.
func (f *ActivityFeed) Recent(_ context.Context, viewer ViewerContext, limit int) []ActivityItem {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]ActivityItem, 0, len(f.items))
	for i := len(f.items) - 1; i >= 0; i-- {
		item := f.items[i]
		if viewer.UserID != "" && item.UserID != "" && item.UserID != viewer.UserID {
			continue
		}
		out = append(out, item)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
