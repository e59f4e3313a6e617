package portal

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	dashboard "github.com/goliatone/go-portal-dashboard/components/dashboard"
)

// DefaultMirrorDelay coalesces bursts of store changes before an upload.
const DefaultMirrorDelay = 2 * time.Second

// SnapshotPusher uploads a user's committed dashboard state.
type SnapshotPusher interface {
	PushSnapshot(ctx context.Context, userID string, snap dashboard.Snapshot) error
}

// MirrorOptions configures SnapshotMirror.
type MirrorOptions struct {
	Pusher    SnapshotPusher
	Delay     time.Duration
	Scheduler dashboard.Scheduler
	Logger    *zap.Logger
}

// SnapshotMirror uploads store snapshots to the portal backend, one debounced request per
// user. Only committed changes are mirrored.
type SnapshotMirror struct {
	pusher    SnapshotPusher
	delay     time.Duration
	scheduler dashboard.Scheduler
	logger    *zap.Logger

	mu    sync.Mutex
	users map[string]*Debouncer[dashboard.Snapshot, struct{}]
}

// NewSnapshotMirror builds a mirror.
func NewSnapshotMirror(opts MirrorOptions) *SnapshotMirror {
	if opts.Delay <= 0 {
		opts.Delay = DefaultMirrorDelay
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &SnapshotMirror{
		pusher:    opts.Pusher,
		delay:     opts.Delay,
		scheduler: opts.Scheduler,
		logger:    opts.Logger,
		users:     map[string]*Debouncer[dashboard.Snapshot, struct{}]{},
	}
}

var mirroredReasons = map[string]bool{
	dashboard.ReasonAddPreset:       true,
	dashboard.ReasonDeletePreset:    true,
	dashboard.ReasonRenamePreset:    true,
	dashboard.ReasonDuplicatePreset: true,
	dashboard.ReasonSwitchPreset:    true,
	dashboard.ReasonCommit:          true,
	dashboard.ReasonImport:          true,
	dashboard.ReasonCycleToggled:    true,
	dashboard.ReasonCycleInterval:   true,
}

// Attach mirrors store for userID until the returned cancel runs. It fits
// ViewerStoresOptions.OnCreate via AttachViewer.
func (m *SnapshotMirror) Attach(store *dashboard.PresetStore, userID string) func() {
	debouncer := m.debouncer(userID)
	return store.Subscribe(func(_ context.Context, event dashboard.StoreEvent) {
		if mirroredReasons[event.Reason] {
			debouncer.Trigger(event.Snapshot)
		}
	})
}

// AttachViewer is an OnCreate callback for dashboard.ViewerStores.
func (m *SnapshotMirror) AttachViewer(viewer dashboard.ViewerContext, store *dashboard.PresetStore) func() {
	return m.Attach(store, viewer.UserID)
}

// Close aborts pending uploads and waits for in-flight ones.
func (m *SnapshotMirror) Close() {
	m.mu.Lock()
	users := m.users
	m.users = map[string]*Debouncer[dashboard.Snapshot, struct{}]{}
	m.mu.Unlock()
	for _, d := range users {
		d.Close()
	}
}

func (m *SnapshotMirror) debouncer(userID string) *Debouncer[dashboard.Snapshot, struct{}] {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.users[userID]; ok {
		return d
	}
	d := NewDebouncer(m.delay, m.scheduler,
		func(ctx context.Context, snap dashboard.Snapshot) (struct{}, error) {
			return struct{}{}, m.pusher.PushSnapshot(ctx, userID, snap)
		},
		func(_ dashboard.Snapshot, _ struct{}, err error) {
			if err != nil {
				m.logger.Warn("portal: mirror upload failed", zap.String("user_id", userID), zap.Error(err))
				return
			}
			m.logger.Debug("portal: mirrored dashboard", zap.String("user_id", userID))
		},
	)
	m.users[userID] = d
	return d
}
