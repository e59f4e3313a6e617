// Package chirouter mounts the control tray handlers on a chi router.
package chirouter

import (
	"bytes"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	dashboard "github.com/goliatone/go-portal-dashboard/components/dashboard"
	"github.com/goliatone/go-portal-dashboard/components/dashboard/httpapi"
)

// Options configures Mount. Controller and Broadcast are optional.
type Options struct {
	Handlers   *httpapi.Handlers
	Controller *dashboard.Controller
	Broadcast  *dashboard.BroadcastHook
}

// NewRouter builds a chi router with the standard middleware and the tray routes at /.
func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	Mount(r, opts)
	return r
}

// Mount registers the control tray routes on r.
func Mount(r chi.Router, opts Options) {
	h := opts.Handlers

	if opts.Controller != nil {
		r.Get("/", renderPage(opts.Controller, h))
	}

	r.Get("/state", h.HandleSnapshot)
	r.Get("/page", h.HandlePage)
	r.Get("/picker", h.HandlePicker)
	r.Get("/activity", h.HandleActivity)

	r.Post("/presets", h.HandleAddPreset)
	r.Put("/presets", h.HandleImportPresets)
	r.Post("/reload", h.HandleReloadPresets)
	r.Delete("/presets/{index}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleDeletePreset(w, r, chi.URLParam(r, "index"))
	})
	r.Put("/presets/{index}/name", func(w http.ResponseWriter, r *http.Request) {
		h.HandleRenamePreset(w, r, chi.URLParam(r, "index"))
	})
	r.Post("/presets/{index}/duplicate", func(w http.ResponseWriter, r *http.Request) {
		h.HandleDuplicatePreset(w, r, chi.URLParam(r, "index"))
	})
	r.Post("/presets/{index}/activate", func(w http.ResponseWriter, r *http.Request) {
		h.HandleSwitchPreset(w, r, chi.URLParam(r, "index"))
	})

	r.Get("/widgets", h.HandleWidgets)
	r.Post("/widgets", h.HandleAddWidget)
	r.Delete("/widgets/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleRemoveWidget(w, r, chi.URLParam(r, "id"))
	})
	r.Post("/widgets/{id}/lock", func(w http.ResponseWriter, r *http.Request) {
		h.HandleLockWidget(w, r, chi.URLParam(r, "id"))
	})
	r.Put("/layout", h.HandleSaveLayout)
	r.Post("/pending/discard", h.HandleDiscardChanges)

	r.Post("/cycle/toggle", h.HandleToggleCycle)
	r.Put("/cycle/interval", h.HandleSetCycleInterval)

	if opts.Broadcast != nil {
		r.Get("/ws", opts.Broadcast.ServeWebSocket)
		r.Get("/events", opts.Broadcast.ServeSSE)
	}
}

func renderPage(controller *dashboard.Controller, h *httpapi.Handlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer := dashboard.ViewerContext{Locale: httpapi.ParseAcceptLanguage(r.Header.Get("Accept-Language"))}
		if h.Viewer != nil {
			resolved, err := h.Viewer(r)
			if err != nil {
				http.Error(w, err.Error(), httpapi.StatusForError(err))
				return
			}
			viewer = resolved
		}
		var buf bytes.Buffer
		if err := controller.RenderTemplate(r.Context(), viewer, &buf); err != nil {
			http.Error(w, err.Error(), httpapi.StatusForError(err))
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	}
}
