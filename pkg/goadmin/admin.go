package goadmin

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	dashboard "github.com/goliatone/go-portal-dashboard/components/dashboard"
	dashboardpkg "github.com/goliatone/go-portal-dashboard/pkg/dashboard"
)

// ErrPortalRequired is returned by New when the tray is enabled without a portal.
var ErrPortalRequired = errors.New("goadmin: portal is required when the tray is enabled")

// MenuBuilder upserts entries of an admin navigation menu.
type MenuBuilder interface {
	EnsureMenuItem(ctx context.Context, menuCode string, item MenuItem) error
}

// MenuItem is one navigation entry. Parent names the Label of the entry it nests under.
type MenuItem struct {
	Label      string
	Route      string
	Icon       string
	Position   int
	Permission string
	Parent     string
}

// Config embeds the portal tray into an admin shell.
type Config struct {
	EnableTray  bool
	Portal      *dashboardpkg.Portal
	MenuBuilder MenuBuilder
	MenuCode    string
	Tray        MenuItem
	// Activity adds an entry for the preset activity feed when Label is set.
	Activity MenuItem
}

// Shell seeds tray navigation for go-admin style applications.
type Shell struct {
	cfg Config
}

// New applies menu defaults. The tray route defaults to <base_path>/dashboard.
func New(cfg Config) (*Shell, error) {
	if cfg.EnableTray && cfg.Portal == nil {
		return nil, ErrPortalRequired
	}
	if cfg.MenuCode == "" {
		cfg.MenuCode = "admin.main"
	}
	tray := &cfg.Tray
	if tray.Label == "" {
		tray.Label = "Dashboard"
	}
	if tray.Icon == "" {
		tray.Icon = "layout-grid"
	}
	if tray.Route == "" && cfg.Portal != nil {
		tray.Route = cfg.Portal.Config.HTTP.BasePath + "/dashboard"
	}
	if cfg.Activity.Label != "" {
		if cfg.Activity.Route == "" {
			cfg.Activity.Route = tray.Route + "/activity"
		}
		if cfg.Activity.Position == 0 {
			cfg.Activity.Position = tray.Position + 1
		}
	}
	return &Shell{cfg: cfg}, nil
}

// Portal returns the wired portal, or nil when the tray is disabled.
func (s *Shell) Portal() *dashboardpkg.Portal {
	if !s.cfg.EnableTray {
		return nil
	}
	return s.cfg.Portal
}

// Bootstrap ensures the tray entry and, when configured, the activity entry.
func (s *Shell) Bootstrap(ctx context.Context) error {
	if !s.cfg.EnableTray || s.cfg.MenuBuilder == nil {
		return nil
	}
	if err := s.cfg.MenuBuilder.EnsureMenuItem(ctx, s.cfg.MenuCode, s.cfg.Tray); err != nil {
		return fmt.Errorf("goadmin: tray menu: %w", err)
	}
	if s.cfg.Activity.Label == "" {
		return nil
	}
	if err := s.cfg.MenuBuilder.EnsureMenuItem(ctx, s.cfg.MenuCode, s.cfg.Activity); err != nil {
		return fmt.Errorf("goadmin: activity menu: %w", err)
	}
	return nil
}

// PresetLinks nests one entry per preset of viewer under the tray entry. Each links to the
// tray with the preset query parameter the store reads on load.
func (s *Shell) PresetLinks(ctx context.Context, viewer dashboard.ViewerContext) error {
	if !s.cfg.EnableTray || s.cfg.MenuBuilder == nil {
		return nil
	}
	store, err := s.cfg.Portal.Stores.StoreFor(ctx, viewer)
	if err != nil {
		return err
	}
	for i, preset := range store.Snapshot().Presets {
		item := MenuItem{
			Label:    preset.Name,
			Route:    presetRoute(s.cfg.Tray.Route, i),
			Position: i,
			Parent:   s.cfg.Tray.Label,
		}
		if err := s.cfg.MenuBuilder.EnsureMenuItem(ctx, s.cfg.MenuCode, item); err != nil {
			return fmt.Errorf("goadmin: preset %q menu: %w", preset.ID, err)
		}
	}
	return nil
}

func presetRoute(tray string, index int) string {
	if index == 0 {
		return tray
	}
	return tray + "?" + url.Values{dashboard.QueryParamPreset: {strconv.Itoa(index)}}.Encode()
}
