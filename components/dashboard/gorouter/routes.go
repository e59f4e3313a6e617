package gorouter

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	gocommand "github.com/goliatone/go-command"
	router "github.com/goliatone/go-router"

	dashboard "github.com/goliatone/go-portal-dashboard/components/dashboard"
	"github.com/goliatone/go-portal-dashboard/components/dashboard/commands"
	"github.com/goliatone/go-portal-dashboard/components/dashboard/httpapi"
	"github.com/goliatone/go-portal-dashboard/components/dashboard/queries"
)

// ViewerResolver converts a router.Context into a dashboard.ViewerContext.
type ViewerResolver func(router.Context) dashboard.ViewerContext

// Config wires go-router with the control tray controller, command executor and broadcast hook.
type Config[T any] struct {
	Router         router.Router[T]
	Controller     *dashboard.Controller
	API            httpapi.Executor
	Snapshot       gocommand.Querier[dashboard.ViewerContext, dashboard.Snapshot]
	Activity       gocommand.Querier[queries.ActivityInput, []dashboard.ActivityItem]
	Broadcast      *dashboard.BroadcastHook
	ViewerResolver ViewerResolver
	BasePath       string
	Routes         RouteConfig
}

// RouteConfig customizes the relative paths used for dashboard endpoints.
type RouteConfig struct {
	HTML            string
	Page            string
	State           string
	Activity        string
	Presets         string
	PresetIndex     string
	PresetName      string
	PresetDuplicate string
	PresetActivate  string
	Reload          string
	Widgets         string
	WidgetID        string
	WidgetLock      string
	Layout          string
	Discard         string
	CycleToggle     string
	CycleInterval   string
	WebSocket       string
}

// Register mounts the control tray (HTML, JSON page, preset API, WebSocket) on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Controller == nil {
		return errors.New("gorouter: controller is required")
	}
	routes := cfg.routes()
	base := cfg.BasePath
	if base == "" {
		base = "/portal"
	}
	viewerResolver := cfg.ViewerResolver
	if viewerResolver == nil {
		viewerResolver = defaultViewerResolver
	}

	group := cfg.Router.Group(base)

	group.Get(routes.HTML, router.WrapHandler(func(ctx router.Context) error {
		viewer := viewerResolver(ctx)
		var buf bytes.Buffer
		if err := cfg.Controller.RenderTemplate(ctx.Context(), viewer, &buf); err != nil {
			return respondError(ctx, err)
		}
		ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
		return ctx.Send(buf.Bytes())
	}))

	group.Get(routes.Page, router.WrapHandler(func(ctx router.Context) error {
		page, err := cfg.Controller.Page(ctx.Context(), viewerResolver(ctx))
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, page)
	}))

	if cfg.Snapshot != nil {
		group.Get(routes.State, router.WrapHandler(func(ctx router.Context) error {
			snap, err := cfg.Snapshot.Query(ctx.Context(), viewerResolver(ctx))
			if err != nil {
				return respondError(ctx, err)
			}
			return ctx.JSON(http.StatusOK, snap)
		}))
	}

	if cfg.Activity != nil {
		group.Get(routes.Activity, router.WrapHandler(func(ctx router.Context) error {
			limit, _ := strconv.Atoi(ctx.Query("limit"))
			items, err := cfg.Activity.Query(ctx.Context(), queries.ActivityInput{Viewer: viewerResolver(ctx), Limit: limit})
			if err != nil {
				return respondError(ctx, err)
			}
			return ctx.JSON(http.StatusOK, items)
		}))
	}

	if cfg.API != nil {
		registerAPI(group, cfg, viewerResolver, routes)
	}

	if cfg.Broadcast != nil {
		registerWebSocket(group, cfg.Broadcast, viewerResolver, routes.WebSocket)
	}

	return nil
}

func registerAPI[T any](r router.Router[T], cfg Config[T], resolver ViewerResolver, routes RouteConfig) {
	api := cfg.API
	reply := func(ctx router.Context, viewer dashboard.ViewerContext, status int, label string) error {
		if cfg.Snapshot == nil {
			return ctx.JSON(status, map[string]string{"status": label})
		}
		snap, err := cfg.Snapshot.Query(ctx.Context(), viewer)
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(status, snap)
	}

	r.Post(routes.Presets, router.WrapHandler(func(ctx router.Context) error {
		viewer := resolver(ctx)
		if err := api.AddPreset(ctx.Context(), commands.ViewerInput{Viewer: viewer}); err != nil {
			return respondError(ctx, err)
		}
		return reply(ctx, viewer, http.StatusCreated, "created")
	}))

	r.Delete(routes.PresetIndex, router.WrapHandler(func(ctx router.Context) error {
		index, err := presetIndex(ctx)
		if err != nil {
			return respondStatus(ctx, http.StatusBadRequest, err)
		}
		viewer := resolver(ctx)
		if err := api.DeletePreset(ctx.Context(), commands.PresetIndexInput{Viewer: viewer, Index: index}); err != nil {
			return respondError(ctx, err)
		}
		return reply(ctx, viewer, http.StatusOK, "deleted")
	}))

	r.Put(routes.PresetName, router.WrapHandler(func(ctx router.Context) error {
		index, err := presetIndex(ctx)
		if err != nil {
			return respondStatus(ctx, http.StatusBadRequest, err)
		}
		var payload struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondStatus(ctx, http.StatusBadRequest, err)
		}
		viewer := resolver(ctx)
		if err := api.RenamePreset(ctx.Context(), commands.RenamePresetInput{Viewer: viewer, Index: index, Name: payload.Name}); err != nil {
			return respondError(ctx, err)
		}
		return reply(ctx, viewer, http.StatusOK, "renamed")
	}))

	r.Post(routes.PresetDuplicate, router.WrapHandler(func(ctx router.Context) error {
		index, err := presetIndex(ctx)
		if err != nil {
			return respondStatus(ctx, http.StatusBadRequest, err)
		}
		viewer := resolver(ctx)
		if err := api.DuplicatePreset(ctx.Context(), commands.PresetIndexInput{Viewer: viewer, Index: index}); err != nil {
			return respondError(ctx, err)
		}
		return reply(ctx, viewer, http.StatusCreated, "duplicated")
	}))

	r.Post(routes.PresetActivate, router.WrapHandler(func(ctx router.Context) error {
		index, err := presetIndex(ctx)
		if err != nil {
			return respondStatus(ctx, http.StatusBadRequest, err)
		}
		viewer := resolver(ctx)
		if err := api.SwitchPreset(ctx.Context(), commands.PresetIndexInput{Viewer: viewer, Index: index}); err != nil {
			return respondError(ctx, err)
		}
		return reply(ctx, viewer, http.StatusOK, "switched")
	}))

	r.Put(routes.Presets, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.ImportPresetsInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondStatus(ctx, http.StatusBadRequest, err)
		}
		viewer := resolver(ctx)
		payload.Viewer = viewer
		if err := api.ImportPresets(ctx.Context(), payload); err != nil {
			return respondError(ctx, err)
		}
		return reply(ctx, viewer, http.StatusOK, "imported")
	}))

	r.Post(routes.Reload, router.WrapHandler(func(ctx router.Context) error {
		viewer := resolver(ctx)
		if err := api.ReloadPresets(ctx.Context(), commands.ViewerInput{Viewer: viewer}); err != nil {
			return respondError(ctx, err)
		}
		return reply(ctx, viewer, http.StatusOK, "reloaded")
	}))

	r.Post(routes.Widgets, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.WidgetInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondStatus(ctx, http.StatusBadRequest, err)
		}
		payload.Viewer = resolver(ctx)
		if err := api.AddWidget(ctx.Context(), payload); err != nil {
			return respondError(ctx, err)
		}
		return reply(ctx, payload.Viewer, http.StatusCreated, "staged")
	}))

	r.Delete(routes.WidgetID, router.WrapHandler(func(ctx router.Context) error {
		id := ctx.Param("id")
		if id == "" {
			return respondStatus(ctx, http.StatusBadRequest, errors.New("widget id is required"))
		}
		viewer := resolver(ctx)
		if err := api.RemoveWidget(ctx.Context(), commands.WidgetInput{Viewer: viewer, WidgetID: id}); err != nil {
			return respondError(ctx, err)
		}
		return reply(ctx, viewer, http.StatusOK, "staged")
	}))

	r.Post(routes.WidgetLock, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.LockWidgetInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondStatus(ctx, http.StatusBadRequest, err)
		}
		payload.WidgetID = ctx.Param("id")
		payload.Viewer = resolver(ctx)
		if err := api.LockWidget(ctx.Context(), payload); err != nil {
			return respondError(ctx, err)
		}
		return reply(ctx, payload.Viewer, http.StatusOK, "staged")
	}))

	r.Put(routes.Layout, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.SaveLayoutInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondStatus(ctx, http.StatusBadRequest, err)
		}
		payload.Viewer = resolver(ctx)
		if err := api.SaveLayout(ctx.Context(), payload); err != nil {
			return respondError(ctx, err)
		}
		return reply(ctx, payload.Viewer, http.StatusOK, "saved")
	}))

	r.Post(routes.Discard, router.WrapHandler(func(ctx router.Context) error {
		viewer := resolver(ctx)
		if err := api.DiscardChanges(ctx.Context(), commands.ViewerInput{Viewer: viewer}); err != nil {
			return respondError(ctx, err)
		}
		return reply(ctx, viewer, http.StatusOK, "discarded")
	}))

	r.Post(routes.CycleToggle, router.WrapHandler(func(ctx router.Context) error {
		viewer := resolver(ctx)
		if err := api.ToggleCycle(ctx.Context(), commands.ViewerInput{Viewer: viewer}); err != nil {
			return respondError(ctx, err)
		}
		return reply(ctx, viewer, http.StatusOK, "toggled")
	}))

	r.Put(routes.CycleInterval, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.CycleIntervalInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondStatus(ctx, http.StatusBadRequest, err)
		}
		payload.Viewer = resolver(ctx)
		if err := api.SetCycleInterval(ctx.Context(), payload); err != nil {
			return respondError(ctx, err)
		}
		return reply(ctx, payload.Viewer, http.StatusOK, "updated")
	}))
}

func registerWebSocket[T any](r router.Router[T], hook *dashboard.BroadcastHook, resolver ViewerResolver, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		events, cancel := hook.SubscribeUser(resolver(ws).UserID)
		defer cancel()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(event); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

func presetIndex(ctx router.Context) (int, error) {
	index, err := strconv.Atoi(ctx.Param("index"))
	if err != nil {
		return 0, errors.New("preset index must be an integer")
	}
	return index, nil
}

func defaultViewerResolver(ctx router.Context) dashboard.ViewerContext {
	var viewer dashboard.ViewerContext
	if v, ok := ctx.Locals("user_id").(string); ok {
		viewer.UserID = v
	}
	if perms, ok := ctx.Locals("permissions").([]string); ok {
		viewer.Permissions = perms
	}
	viewer.Locale = inferLocale(ctx)
	return viewer
}

func inferLocale(ctx router.Context) string {
	if locale, ok := ctx.Locals("locale").(string); ok && locale != "" {
		return locale
	}
	if locale := strings.TrimSpace(ctx.Query("locale")); locale != "" {
		return strings.ToLower(locale)
	}
	return httpapi.ParseAcceptLanguage(ctx.Header("Accept-Language"))
}

func respondError(ctx router.Context, err error) error {
	return respondStatus(ctx, httpapi.StatusForError(err), err)
}

func respondStatus(ctx router.Context, status int, err error) error {
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}

func (cfg Config[T]) routes() RouteConfig {
	return defaultRouteConfig(cfg.Routes)
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	defaults := RouteConfig{
		HTML:            "/dashboard",
		Page:            "/dashboard/_page",
		State:           "/dashboard/state",
		Activity:        "/dashboard/activity",
		Presets:         "/dashboard/presets",
		PresetIndex:     "/dashboard/presets/:index",
		PresetName:      "/dashboard/presets/:index/name",
		PresetDuplicate: "/dashboard/presets/:index/duplicate",
		PresetActivate:  "/dashboard/presets/:index/activate",
		Reload:          "/dashboard/reload",
		Widgets:         "/dashboard/widgets",
		WidgetID:        "/dashboard/widgets/:id",
		WidgetLock:      "/dashboard/widgets/:id/lock",
		Layout:          "/dashboard/layout",
		Discard:         "/dashboard/pending/discard",
		CycleToggle:     "/dashboard/cycle/toggle",
		CycleInterval:   "/dashboard/cycle/interval",
		WebSocket:       "/dashboard/ws",
	}
	fill := func(value *string, fallback string) {
		if *value == "" {
			*value = fallback
		}
	}
	fill(&routes.HTML, defaults.HTML)
	fill(&routes.Page, defaults.Page)
	fill(&routes.State, defaults.State)
	fill(&routes.Activity, defaults.Activity)
	fill(&routes.Presets, defaults.Presets)
	fill(&routes.PresetIndex, defaults.PresetIndex)
	fill(&routes.PresetName, defaults.PresetName)
	fill(&routes.PresetDuplicate, defaults.PresetDuplicate)
	fill(&routes.PresetActivate, defaults.PresetActivate)
	fill(&routes.Reload, defaults.Reload)
	fill(&routes.Widgets, defaults.Widgets)
	fill(&routes.WidgetID, defaults.WidgetID)
	fill(&routes.WidgetLock, defaults.WidgetLock)
	fill(&routes.Layout, defaults.Layout)
	fill(&routes.Discard, defaults.Discard)
	fill(&routes.CycleToggle, defaults.CycleToggle)
	fill(&routes.CycleInterval, defaults.CycleInterval)
	fill(&routes.WebSocket, defaults.WebSocket)
	return routes
}
