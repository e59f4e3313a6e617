package dashboard

import (
	"context"
	"errors"
	"sync"
)

// ErrMissingViewer reports a per-viewer lookup without a user id.
var ErrMissingViewer = errors.New("dashboard: viewer user id required")

// StoreSource resolves the preset store serving a viewer.
type StoreSource interface {
	StoreFor(ctx context.Context, viewer ViewerContext) (*PresetStore, error)
}

type staticStore struct {
	store *PresetStore
}

// StaticStore serves every viewer from one store, matching a single browser profile.
func StaticStore(store *PresetStore) StoreSource {
	return staticStore{store: store}
}

func (s staticStore) StoreFor(context.Context, ViewerContext) (*PresetStore, error) {
	if s.store == nil {
		return nil, errMissingStore
	}
	return s.store, nil
}

// ScopeKeyValueStore prefixes every key with scope so several viewers can share one backend.
func ScopeKeyValueStore(base KeyValueStore, scope string) KeyValueStore {
	return scopedKeyValueStore{base: base, prefix: scope + "::"}
}

type scopedKeyValueStore struct {
	base   KeyValueStore
	prefix string
}

func (s scopedKeyValueStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.base.Get(ctx, s.prefix+key)
}

func (s scopedKeyValueStore) Set(ctx context.Context, key string, value []byte) error {
	return s.base.Set(ctx, s.prefix+key, value)
}

// ViewerStoresOptions configures ViewerStores. Base is the template for every store; its
// Storage is shared and scoped per user, and its URL is ignored in favour of URL.
// OnCreate may return a detach func; Close runs it before stopping the store.
type ViewerStoresOptions struct {
	Base     StoreOptions
	URL      func(viewer ViewerContext) URLState
	OnCreate func(viewer ViewerContext, store *PresetStore) (detach func())
}

// ViewerStores lazily builds one preset store per user.
type ViewerStores struct {
	opts ViewerStoresOptions

	mu     sync.Mutex
	stores map[string]*PresetStore
	detach map[string]func()
	closed bool
}

// NewViewerStores creates an empty per-viewer store set.
func NewViewerStores(opts ViewerStoresOptions) *ViewerStores {
	if opts.Base.Storage == nil {
		opts.Base.Storage = NewInMemoryKeyValueStore()
	}
	if opts.Base.Registry == nil {
		opts.Base.Registry = NewRegistry()
	}
	return &ViewerStores{
		opts:   opts,
		stores: map[string]*PresetStore{},
		detach: map[string]func(){},
	}
}

// StoreFor returns the viewer's store, creating it from storage on first use.
func (v *ViewerStores) StoreFor(_ context.Context, viewer ViewerContext) (*PresetStore, error) {
	if viewer.UserID == "" {
		return nil, ErrMissingViewer
	}
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil, ErrStoreClosed
	}
	if store, ok := v.stores[viewer.UserID]; ok {
		v.mu.Unlock()
		return store, nil
	}
	opts := v.opts.Base
	opts.Storage = ScopeKeyValueStore(v.opts.Base.Storage, viewer.UserID)
	opts.URL = nil
	if v.opts.URL != nil {
		opts.URL = v.opts.URL(viewer)
	}
	store := NewPresetStore(opts)
	v.stores[viewer.UserID] = store
	v.mu.Unlock()

	if v.opts.OnCreate == nil {
		return store, nil
	}
	if detach := v.opts.OnCreate(viewer, store); detach != nil {
		v.mu.Lock()
		if v.closed {
			v.mu.Unlock()
			detach()
			return store, nil
		}
		v.detach[viewer.UserID] = detach
		v.mu.Unlock()
	}
	return store, nil
}

// Lookup returns the live store of userID without creating one.
func (v *ViewerStores) Lookup(userID string) (*PresetStore, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	store, ok := v.stores[userID]
	return store, ok
}

// Len reports how many viewer stores are live.
func (v *ViewerStores) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.stores)
}

// Close detaches the OnCreate subscriptions and stops every viewer store. Later lookups
// fail with ErrStoreClosed.
func (v *ViewerStores) Close() error {
	v.mu.Lock()
	stores, detach := v.stores, v.detach
	v.stores = map[string]*PresetStore{}
	v.detach = map[string]func(){}
	v.closed = true
	v.mu.Unlock()

	for _, fn := range detach {
		fn()
	}
	var err error
	for _, store := range stores {
		err = errors.Join(err, store.Close())
	}
	return err
}
