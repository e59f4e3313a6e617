// Package dashboard assembles the portal dashboard from configuration: widget catalog,
// per-user preset stores, storage backend, broadcast, activity feed and the control tray
// command surface.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	core "github.com/goliatone/go-portal-dashboard/components/dashboard"
	"github.com/goliatone/go-portal-dashboard/components/dashboard/commands"
	"github.com/goliatone/go-portal-dashboard/components/dashboard/httpapi"
	"github.com/goliatone/go-portal-dashboard/components/dashboard/queries"
	"github.com/goliatone/go-portal-dashboard/components/dashboard/storage"
	"github.com/goliatone/go-portal-dashboard/pkg/activity"
	"github.com/goliatone/go-portal-dashboard/pkg/activity/usersink"
	"github.com/goliatone/go-portal-dashboard/pkg/config"
	"github.com/goliatone/go-portal-dashboard/pkg/portal"
)

// Store exposes the underlying components/dashboard.PresetStore type.
type Store = core.PresetStore

// StoreOptions re-export for convenience.
type StoreOptions = core.StoreOptions

// NewStore proxies to the internal constructor.
func NewStore(opts StoreOptions) *Store {
	return core.NewPresetStore(opts)
}

// Options configures New. Only Config is consulted for storage and HTTP settings; the
// remaining fields inject collaborators.
type Options struct {
	Config        *config.Config
	Logger        *zap.Logger
	ActivityHooks activity.Hooks
	Scheduler     core.Scheduler
	Components    core.ComponentResolver
	Renderer      core.Renderer
	Translator    core.TranslationService
	Props         core.PropsProvider
	WordsSource   portal.WordsSource
	Pusher        portal.SnapshotPusher
	Viewer        httpapi.ViewerFunc
	// URL supplies the query-string state a viewer's store reads at creation and mirrors
	// afterwards. Nil leaves stores without URL sync.
	URL func(viewer core.ViewerContext) core.URLState
	// UserActivity receives preset activity as go-users activity records.
	UserActivity usersink.Sink
	// Notifications receives store events of every viewer on channel "dashboard:<user>".
	// NotificationReasons filters them; empty forwards all.
	Notifications       core.NotificationsClient
	NotificationReasons []string
}

// Portal is a fully wired dashboard.
type Portal struct {
	Config     *config.Config
	Logger     *zap.Logger
	Registry   *core.Registry
	Factory    *core.Factory
	Stores     *core.ViewerStores
	Controller *core.Controller
	Broadcast  *core.BroadcastHook
	Feed       *core.ActivityFeed
	Words      *portal.RestrictedWords
	Executor   *httpapi.CommandExecutor
	Viewer     httpapi.ViewerFunc

	translator    core.TranslationService
	notifications core.NotificationsClient
	notifyReasons []string
	mirror        *portal.SnapshotMirror
	watcher       *storage.Watcher
	closers       []io.Closer
}

// New builds a Portal. Close releases its storage, watcher and stores.
func New(ctx context.Context, opts Options) (*Portal, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Portal{
		Config:        cfg,
		Logger:        logger,
		translator:    opts.Translator,
		notifications: opts.Notifications,
		notifyReasons: opts.NotificationReasons,
	}

	p.Registry = core.NewRegistry()
	for _, path := range cfg.Dashboard.Manifests {
		if _, err := p.Registry.InstallFile(path); err != nil {
			return nil, err
		}
	}

	kv, closer, err := storage.Open(cfg.StorageOptions(logger.Named("storage")))
	if err != nil {
		return nil, err
	}
	p.closers = append(p.closers, closer)

	p.Feed = core.NewActivityFeed(core.DefaultActivityFeedSize)
	p.Broadcast = core.NewBroadcastHook(logger.Named("broadcast"))

	source := opts.WordsSource
	if source == nil && cfg.RestrictedWords.Endpoint != "" {
		client, err := portal.NewHTTPClient(portal.HTTPConfig{
			BaseURL: cfg.RestrictedWords.Endpoint,
			APIKey:  cfg.RestrictedWords.APIKey,
		})
		if err != nil {
			p.Close()
			return nil, err
		}
		source = client
	}
	var guard commands.NameGuard
	if source != nil {
		p.Words = portal.NewRestrictedWords(portal.RestrictedWordsOptions{
			Source: source,
			TTL:    cfg.RestrictedWordsTTL(),
			Logger: logger.Named("restricted_words"),
		})
		guard = p.Words
	}
	if opts.Pusher != nil {
		p.mirror = portal.NewSnapshotMirror(portal.MirrorOptions{
			Pusher: opts.Pusher,
			Logger: logger.Named("mirror"),
		})
	}

	telemetry := core.NewZapTelemetry(logger)
	hooks := append(activity.Hooks{p.Feed}, opts.ActivityHooks...)
	if opts.UserActivity != nil {
		hooks = append(hooks, usersink.Hook{Sink: opts.UserActivity})
	}
	p.Stores = core.NewViewerStores(core.ViewerStoresOptions{
		Base: core.StoreOptions{
			Registry:             p.Registry,
			Storage:              kv,
			Scheduler:            opts.Scheduler,
			Logger:               logger.Named("presets"),
			Telemetry:            telemetry,
			ActivityHooks:        hooks,
			ActivityConfig:       activity.Config{Enabled: true},
			MaxPresets:           cfg.Dashboard.MaxPresets,
			DefaultCycleInterval: cfg.Dashboard.CycleInterval,
		},
		URL:      opts.URL,
		OnCreate: p.onStoreCreated,
	})

	if cfg.Storage.Watch {
		files, ok := kv.(*storage.FileStore)
		if !ok {
			p.Close()
			return nil, errors.New("dashboard: storage watch requires the file driver")
		}
		watcher, err := files.Watch(ctx, 0, storage.ReloadOnChange(p.Stores.Lookup, p.onStoreReloaded))
		if err != nil {
			p.Close()
			return nil, err
		}
		p.watcher = watcher
	}

	p.Factory = core.NewFactory(core.FactoryOptions{
		Registry:   p.Registry,
		Components: opts.Components,
		Logger:     logger.Named("factory"),
	})
	renderer := opts.Renderer
	if renderer == nil {
		renderer, err = core.NewTemplateRenderer()
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("dashboard: template renderer: %w", err)
		}
	}
	p.Controller = core.NewController(core.ControllerOptions{
		Stores:     p.Stores,
		Factory:    p.Factory,
		Renderer:   renderer,
		Translator: opts.Translator,
		Props:      opts.Props,
	})
	p.Executor = httpapi.NewCommandExecutor(p.Stores, guard, telemetry)

	p.Viewer = opts.Viewer
	if p.Viewer == nil && cfg.HTTP.JWTSecret != "" {
		p.Viewer = httpapi.JWTViewerResolver{Secret: []byte(cfg.HTTP.JWTSecret)}.Resolve
	}
	if p.Viewer != nil {
		resolve := p.Viewer
		p.Broadcast.WithRequestUser(func(r *http.Request) (string, error) {
			viewer, err := resolve(r)
			return viewer.UserID, err
		})
	}
	return p, nil
}

// Handlers returns the net/http surface over the portal's commands and queries.
func (p *Portal) Handlers() *httpapi.Handlers {
	return &httpapi.Handlers{
		API:      p.Executor,
		Snapshot: queries.NewSnapshotQuery(p.Stores),
		Page:     queries.NewTrayPageQuery(p.Controller),
		Picker:   queries.NewPickerCatalogQuery(p.Stores, p.translator),
		Widgets:  queries.NewWidgetDescriptorsQuery(p.Controller),
		Activity: queries.NewRecentActivityQuery(p.Feed),
		Viewer:   p.Viewer,
		Logger:   p.Logger.Named("http"),
	}
}

// Close stops the watcher, mirror and stores, then releases storage.
func (p *Portal) Close() error {
	var errs []error
	if p.watcher != nil {
		errs = append(errs, p.watcher.Close())
	}
	if p.mirror != nil {
		p.mirror.Close()
	}
	if p.Stores != nil {
		errs = append(errs, p.Stores.Close())
	}
	for _, closer := range p.closers {
		errs = append(errs, closer.Close())
	}
	return errors.Join(errs...)
}

func (p *Portal) onStoreCreated(viewer core.ViewerContext, store *core.PresetStore) func() {
	detach := []func(){p.Broadcast.AttachViewer(viewer, store)}
	if p.mirror != nil {
		detach = append(detach, p.mirror.AttachViewer(viewer, store))
	}
	if p.notifications != nil {
		hook := &core.NotificationsHook{
			Client:  p.notifications,
			Channel: "dashboard:" + viewer.UserID,
			Reasons: p.notifyReasons,
			Logger:  p.Logger.Named("notifications"),
		}
		detach = append(detach, store.Subscribe(hook.Listener()))
	}
	p.Logger.Debug("dashboard: viewer store created", zap.String("user_id", viewer.UserID))
	return func() {
		for _, fn := range detach {
			fn()
		}
	}
}

func (p *Portal) onStoreReloaded(userID string) {
	p.Logger.Info("dashboard: reloaded presets after external change", zap.String("user_id", userID))
}
