package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/ettle/strcase"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-portal-dashboard/components/dashboard"
	"github.com/goliatone/go-portal-dashboard/components/dashboard/commands"
	"github.com/goliatone/go-portal-dashboard/components/dashboard/export"
	"github.com/goliatone/go-portal-dashboard/pkg/config"
	dashboardpkg "github.com/goliatone/go-portal-dashboard/pkg/dashboard"
)

type cli struct {
	Config  string `type:"path" help:"Path to the portal YAML configuration."`
	User    string `default:"local" env:"PORTAL_DASHBOARD_USER" help:"User whose presets are managed."`
	Storage string `help:"Override the storage driver (memory, file, sqlite)."`
	Path    string `type:"path" help:"Override the storage path."`
	URL     string `help:"Tray URL mirrored by the link command. Defaults to <base_path>/dashboard."`

	List      listCmd      `cmd:"" help:"List the user's presets."`
	Add       addCmd       `cmd:"" help:"Add a preset seeded with the default widgets and activate it."`
	Rename    renameCmd    `cmd:"" help:"Rename a preset."`
	Delete    deleteCmd    `cmd:"" help:"Delete a preset."`
	Duplicate duplicateCmd `cmd:"" help:"Duplicate a preset."`
	Switch    switchCmd    `cmd:"" help:"Activate a preset."`
	Widget    widgetCmd    `cmd:"" help:"Add or remove widgets on the active preset."`
	Cycle     cycleCmd     `cmd:"" help:"Configure preset auto-cycling."`
	Export    exportCmd    `cmd:"" help:"Export presets as JSON, YAML or TOML."`
	Import    importCmd    `cmd:"" help:"Replace presets from an exported document."`
	Link      linkCmd      `cmd:"" help:"Print the tray URL for the active preset and cycle state."`
	Catalog   catalogCmd   `cmd:"" help:"List the widget catalog by category."`
	Scaffold  scaffoldCmd  `cmd:"" help:"Scaffold a widget definition into a manifest."`
}

// app carries the wired portal into every command.
type app struct {
	portal *dashboardpkg.Portal
	viewer dashboard.ViewerContext
	link   *dashboard.HistoryURL
	out    io.Writer
}

func (a *app) store(ctx context.Context) (*dashboard.PresetStore, error) {
	return a.portal.Stores.StoreFor(ctx, a.viewer)
}

func main() {
	var root cli
	kctx := kong.Parse(&root,
		kong.Name("presetctl"),
		kong.Description("Manage portal dashboard presets from the command line."),
		kong.UsageOnError(),
	)
	ctx := context.Background()
	a, err := newApp(ctx, root, os.Stdout)
	kctx.FatalIfErrorf(err)
	defer a.portal.Close()
	kctx.BindTo(ctx, (*context.Context)(nil))
	kctx.FatalIfErrorf(kctx.Run(a))
}

func newApp(ctx context.Context, root cli, out io.Writer) (*app, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	cfg.Storage.Watch = false
	if err := cfg.OverrideStorage(root.Storage, root.Path); err != nil {
		return nil, err
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		return nil, err
	}
	rawURL := root.URL
	if rawURL == "" {
		rawURL = strings.TrimSuffix(cfg.HTTP.BasePath, "/") + "/dashboard"
	}
	link, err := dashboard.NewHistoryURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("presetctl: tray url: %w", err)
	}
	portal, err := dashboardpkg.New(ctx, dashboardpkg.Options{
		Config:    cfg,
		Logger:    logger,
		Scheduler: idleScheduler{},
		URL:       func(dashboard.ViewerContext) dashboard.URLState { return link },
	})
	if err != nil {
		return nil, err
	}
	return &app{
		portal: portal,
		viewer: dashboard.ViewerContext{UserID: root.User, Permissions: catalogPermissions(portal.Registry)},
		link:   link,
		out:    out,
	}, nil
}

// catalogPermissions grants the operator every permission the catalog declares.
func catalogPermissions(reg *dashboard.Registry) []string {
	seen := map[string]struct{}{}
	var perms []string
	for _, def := range reg.Definitions() {
		if def.Permission == "" {
			continue
		}
		if _, ok := seen[def.Permission]; ok {
			continue
		}
		seen[def.Permission] = struct{}{}
		perms = append(perms, def.Permission)
	}
	sort.Strings(perms)
	return perms
}

// idleScheduler never fires: the CLI exits before cycle or transition timers matter.
type idleScheduler struct{}

type idleTimer struct{}

func (idleTimer) Stop() bool { return true }

func (idleScheduler) AfterFunc(time.Duration, func()) dashboard.Timer { return idleTimer{} }
func (idleScheduler) Every(time.Duration, func()) dashboard.Timer     { return idleTimer{} }

type listCmd struct{}

func (listCmd) Run(ctx context.Context, a *app) error {
	store, err := a.store(ctx)
	if err != nil {
		return err
	}
	snap := store.Snapshot()
	for i, p := range snap.Presets {
		marker := " "
		if i == snap.ActivePresetIndex {
			marker = "*"
		}
		fmt.Fprintf(a.out, "%s %d  %-24s %-32s %d widgets\n", marker, i, p.Name, p.ID, len(p.Widgets))
	}
	state := "off"
	if snap.IsCycling {
		state = "on"
	}
	fmt.Fprintf(a.out, "cycle: %s every %ds\n", state, snap.CycleInterval)
	return nil
}

type addCmd struct{}

func (addCmd) Run(ctx context.Context, a *app) error {
	if err := a.portal.Executor.AddPreset(ctx, commands.ViewerInput{Viewer: a.viewer}); err != nil {
		return err
	}
	return listCmd{}.Run(ctx, a)
}

type renameCmd struct {
	Index int    `arg:"" help:"Preset index."`
	Name  string `arg:"" help:"New name."`
}

func (c renameCmd) Run(ctx context.Context, a *app) error {
	return a.portal.Executor.RenamePreset(ctx, commands.RenamePresetInput{Viewer: a.viewer, Index: c.Index, Name: c.Name})
}

type deleteCmd struct {
	Index int `arg:"" help:"Preset index."`
}

func (c deleteCmd) Run(ctx context.Context, a *app) error {
	return a.portal.Executor.DeletePreset(ctx, commands.PresetIndexInput{Viewer: a.viewer, Index: c.Index})
}

type duplicateCmd struct {
	Index int `arg:"" help:"Preset index."`
}

func (c duplicateCmd) Run(ctx context.Context, a *app) error {
	return a.portal.Executor.DuplicatePreset(ctx, commands.PresetIndexInput{Viewer: a.viewer, Index: c.Index})
}

type switchCmd struct {
	Index int `arg:"" help:"Preset index."`
}

func (c switchCmd) Run(ctx context.Context, a *app) error {
	return a.portal.Executor.SwitchPreset(ctx, commands.PresetIndexInput{Viewer: a.viewer, Index: c.Index})
}

type widgetCmd struct {
	Add    widgetAddCmd    `cmd:"" help:"Add a widget and save the preset."`
	Remove widgetRemoveCmd `cmd:"" help:"Remove a widget and save the preset."`
}

type widgetAddCmd struct {
	ID string `arg:"" help:"Widget id (multi-instance widgets get the next free suffix)."`
}

func (c widgetAddCmd) Run(ctx context.Context, a *app) error {
	if err := a.portal.Executor.AddWidget(ctx, commands.WidgetInput{Viewer: a.viewer, WidgetID: c.ID}); err != nil {
		return err
	}
	return a.commit(ctx)
}

type widgetRemoveCmd struct {
	ID string `arg:"" help:"Widget id."`
}

func (c widgetRemoveCmd) Run(ctx context.Context, a *app) error {
	if err := a.portal.Executor.RemoveWidget(ctx, commands.WidgetInput{Viewer: a.viewer, WidgetID: c.ID}); err != nil {
		return err
	}
	return a.commit(ctx)
}

// commit saves pending widget edits with the active preset's current layouts.
func (a *app) commit(ctx context.Context) error {
	store, err := a.store(ctx)
	if err != nil {
		return err
	}
	layouts := store.CurrentPreset().Layouts
	return a.portal.Executor.SaveLayout(ctx, commands.SaveLayoutInput{Viewer: a.viewer, Layouts: layouts})
}

type cycleCmd struct {
	Toggle   bool `help:"Toggle auto-cycling."`
	Interval int  `help:"Cycle interval in seconds (clamped to 5..120)."`
}

func (c cycleCmd) Run(ctx context.Context, a *app) error {
	if c.Interval > 0 {
		if err := a.portal.Executor.SetCycleInterval(ctx, commands.CycleIntervalInput{Viewer: a.viewer, Seconds: c.Interval}); err != nil {
			return err
		}
	}
	if c.Toggle {
		if err := a.portal.Executor.ToggleCycle(ctx, commands.ViewerInput{Viewer: a.viewer}); err != nil {
			return err
		}
	}
	return listCmd{}.Run(ctx, a)
}

type exportCmd struct {
	Out    string `short:"o" type:"path" help:"Output file (stdout when empty)."`
	Format string `help:"json, yaml or toml (inferred from --out when empty)." default:""`
}

func (c exportCmd) Run(ctx context.Context, a *app) error {
	format, err := resolveFormat(c.Format, c.Out, export.FormatJSON)
	if err != nil {
		return err
	}
	store, err := a.store(ctx)
	if err != nil {
		return err
	}
	data, err := export.Encode(export.NewDocument(store.Snapshot(), time.Now()), format)
	if err != nil {
		return err
	}
	if c.Out == "" {
		_, err = a.out.Write(data)
		return err
	}
	if err := os.WriteFile(c.Out, data, 0o644); err != nil {
		return fmt.Errorf("presetctl: write %s: %w", c.Out, err)
	}
	fmt.Fprintf(a.out, "exported presets to %s\n", c.Out)
	return nil
}

type importCmd struct {
	File   string `arg:"" type:"existingfile" help:"Exported preset document."`
	Format string `help:"json, yaml or toml (inferred from the file name when empty)."`
}

func (c importCmd) Run(ctx context.Context, a *app) error {
	format, err := resolveFormat(c.Format, c.File, "")
	if err != nil {
		return err
	}
	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("presetctl: read %s: %w", c.File, err)
	}
	doc, err := export.Decode(data, format)
	if err != nil {
		return err
	}
	if err := a.portal.Executor.ImportPresets(ctx, commands.ImportPresetsInput{Viewer: a.viewer, Presets: doc.Presets}); err != nil {
		return err
	}
	if doc.Cycle != nil {
		if err := a.applyCycle(ctx, *doc.Cycle); err != nil {
			return err
		}
	}
	return listCmd{}.Run(ctx, a)
}

func (a *app) applyCycle(ctx context.Context, settings dashboard.CycleSettings) error {
	store, err := a.store(ctx)
	if err != nil {
		return err
	}
	if err := a.portal.Executor.SetCycleInterval(ctx, commands.CycleIntervalInput{Viewer: a.viewer, Seconds: settings.Interval}); err != nil {
		return err
	}
	if store.Snapshot().IsCycling != settings.Enabled {
		return a.portal.Executor.ToggleCycle(ctx, commands.ViewerInput{Viewer: a.viewer})
	}
	return nil
}

func resolveFormat(name, path string, fallback export.Format) (export.Format, error) {
	if name != "" {
		return export.ParseFormat(name)
	}
	if path != "" {
		return export.FormatFromPath(path)
	}
	if fallback == "" {
		return "", errors.New("presetctl: --format is required")
	}
	return fallback, nil
}

type linkCmd struct {
	Preset int `default:"-1" help:"Activate this preset index before printing."`
}

func (c linkCmd) Run(ctx context.Context, a *app) error {
	store, err := a.store(ctx)
	if err != nil {
		return err
	}
	if c.Preset >= 0 && c.Preset != store.Snapshot().ActivePresetIndex {
		if !store.SwitchPreset(ctx, c.Preset) {
			return fmt.Errorf("presetctl: no preset at index %d", c.Preset)
		}
	}
	fmt.Fprintln(a.out, a.link.String())
	return nil
}

type catalogCmd struct{}

func (catalogCmd) Run(_ context.Context, a *app) error {
	reg := a.portal.Registry
	for _, info := range reg.AvailableCategories() {
		fmt.Fprintf(a.out, "%s\n", info.Label)
		for _, def := range reg.WidgetsByCategory(info.Key) {
			flags := []string{}
			if def.Persistent {
				flags = append(flags, "persistent")
			}
			if def.AllowMultiple {
				flags = append(flags, "multiple")
			}
			if def.Permission != "" {
				flags = append(flags, "requires "+def.Permission)
			}
			fmt.Fprintf(a.out, "  %-24s %-28s %s\n", def.ID, def.Name, strings.Join(flags, ", "))
		}
	}
	return nil
}

type scaffoldCmd struct {
	ID           string   `required:"" help:"Widget id (normalized to snake_case)."`
	Name         string   `required:"" help:"Display name for the widget."`
	Description  string   `help:"One-line description shown in the picker."`
	Category     string   `default:"personal" enum:"core,personal,administration,system,layout" help:"Picker category."`
	Component    string   `help:"Component name (defaults to the CamelCase id)."`
	Permission   string   `help:"Permission required to add the widget."`
	Width        int      `default:"4" help:"Default width in grid columns."`
	Height       int      `default:"2" help:"Default height in grid rows."`
	Multiple     bool     `help:"Allow several instances per preset."`
	ManifestPath string   `required:"" type:"path" help:"Path to the widget manifest YAML file to update."`
	Tag          []string `help:"Optional tags to include in the manifest (use multiple --tag flags)."`
	Maintainer   []string `help:"Maintainers to record in the manifest."`
	Overwrite    bool     `help:"Replace an existing manifest entry with the same id."`
}

func (cmd scaffoldCmd) Run(_ context.Context, a *app) error {
	id := strcase.ToSnake(cmd.ID)
	component := cmd.Component
	if component == "" {
		component = strcase.ToPascal(id)
	}
	manifestPath, err := filepath.Abs(cmd.ManifestPath)
	if err != nil {
		return fmt.Errorf("presetctl: resolve manifest path: %w", err)
	}
	doc, err := loadOrInitManifest(manifestPath)
	if err != nil {
		return err
	}
	entry := dashboard.ManifestEntry{
		Definition: dashboard.WidgetDefinition{
			ID:            id,
			Name:          cmd.Name,
			Description:   cmd.Description,
			Category:      dashboard.Category(cmd.Category),
			Component:     component,
			Permission:    cmd.Permission,
			AllowMultiple: cmd.Multiple,
			DefaultSize:   dashboard.Size{W: cmd.Width, H: cmd.Height},
			MinSize:       dashboard.Size{W: 1, H: 1},
			MaxSize:       dashboard.Size{W: 12, H: cmd.Height},
			CanResize:     true,
		},
		Maintainers: cmd.Maintainer,
		Tags:        cmd.Tag,
	}
	if _, _, exists := a.portal.Registry.Resolve(id); exists && !cmd.Overwrite {
		return fmt.Errorf("presetctl: widget %s is already registered", id)
	}

	replaced := false
	for idx := range doc.Widgets {
		if doc.Widgets[idx].Definition.ID == id {
			if !cmd.Overwrite {
				return fmt.Errorf("presetctl: manifest already defines widget %s (use --overwrite to replace)", id)
			}
			doc.Widgets[idx] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		doc.Widgets = append(doc.Widgets, entry)
	}
	sort.Slice(doc.Widgets, func(i, j int) bool {
		return doc.Widgets[i].Definition.ID < doc.Widgets[j].Definition.ID
	})
	if err := doc.Validate(); err != nil {
		return err
	}
	if err := writeManifest(manifestPath, doc); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "added %s to %s\n", id, manifestPath)
	return nil
}

func loadOrInitManifest(path string) (*dashboard.Manifest, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &dashboard.Manifest{
				Version: dashboard.ManifestVersion,
				Widgets: []dashboard.ManifestEntry{},
				Source:  path,
			}, nil
		}
		return nil, fmt.Errorf("presetctl: stat manifest: %w", err)
	}
	return dashboard.OpenManifest(path)
}

func writeManifest(path string, doc *dashboard.Manifest) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("presetctl: mkdir %s: %w", filepath.Dir(path), err)
	}
	file, err := os.Create(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("presetctl: create manifest %s: %w", path, err)
	}
	defer file.Close()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("presetctl: write manifest: %w", err)
	}
	return encoder.Close()
}
