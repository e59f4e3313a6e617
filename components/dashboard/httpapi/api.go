package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	gocommand "github.com/goliatone/go-command"
	"go.uber.org/zap"

	dashboard "github.com/goliatone/go-portal-dashboard/components/dashboard"
	"github.com/goliatone/go-portal-dashboard/components/dashboard/commands"
	"github.com/goliatone/go-portal-dashboard/components/dashboard/queries"
)

// Handlers exposes the control tray over net/http. Mutating endpoints answer with the
// updated snapshot when Snapshot is configured, and 204 otherwise.
type Handlers struct {
	API      Executor
	Snapshot gocommand.Querier[dashboard.ViewerContext, dashboard.Snapshot]
	Page     gocommand.Querier[dashboard.ViewerContext, dashboard.TrayPage]
	Picker   gocommand.Querier[dashboard.ViewerContext, []dashboard.PickerCategory]
	Widgets  gocommand.Querier[dashboard.ViewerContext, []dashboard.WidgetDescriptor]
	Activity gocommand.Querier[queries.ActivityInput, []dashboard.ActivityItem]
	Viewer   ViewerFunc
	Logger   *zap.Logger
}

func (h *Handlers) viewer(w http.ResponseWriter, r *http.Request) (dashboard.ViewerContext, bool) {
	if h.Viewer == nil {
		return dashboard.ViewerContext{Locale: ParseAcceptLanguage(r.Header.Get("Accept-Language"))}, true
	}
	viewer, err := h.Viewer(r)
	if err != nil {
		h.fail(w, err)
		return viewer, false
	}
	return viewer, true
}

func (h *Handlers) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	h.respondSnapshot(w, r, viewer, http.StatusOK)
}

func (h *Handlers) HandlePage(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	if h.Page == nil {
		h.fail(w, errCommandUnavailable)
		return
	}
	page, err := h.Page.Query(r.Context(), viewer)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handlers) HandlePicker(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	if h.Picker == nil {
		h.fail(w, errCommandUnavailable)
		return
	}
	cats, err := h.Picker.Query(r.Context(), viewer)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

func (h *Handlers) HandleActivity(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	if h.Activity == nil {
		writeJSON(w, http.StatusOK, []dashboard.ActivityItem{})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := h.Activity.Query(r.Context(), queries.ActivityInput{Viewer: viewer, Limit: limit})
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handlers) HandleAddPreset(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	h.mutate(w, r, viewer, http.StatusCreated, h.API.AddPreset(r.Context(), commands.ViewerInput{Viewer: viewer}))
}

func (h *Handlers) HandleDeletePreset(w http.ResponseWriter, r *http.Request, rawIndex string) {
	viewer, index, ok := h.indexed(w, r, rawIndex)
	if !ok {
		return
	}
	h.mutate(w, r, viewer, http.StatusOK, h.API.DeletePreset(r.Context(), commands.PresetIndexInput{Viewer: viewer, Index: index}))
}

func (h *Handlers) HandleRenamePreset(w http.ResponseWriter, r *http.Request, rawIndex string) {
	viewer, index, ok := h.indexed(w, r, rawIndex)
	if !ok {
		return
	}
	var payload struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &payload) {
		return
	}
	h.mutate(w, r, viewer, http.StatusOK, h.API.RenamePreset(r.Context(), commands.RenamePresetInput{Viewer: viewer, Index: index, Name: payload.Name}))
}

func (h *Handlers) HandleDuplicatePreset(w http.ResponseWriter, r *http.Request, rawIndex string) {
	viewer, index, ok := h.indexed(w, r, rawIndex)
	if !ok {
		return
	}
	h.mutate(w, r, viewer, http.StatusCreated, h.API.DuplicatePreset(r.Context(), commands.PresetIndexInput{Viewer: viewer, Index: index}))
}

func (h *Handlers) HandleSwitchPreset(w http.ResponseWriter, r *http.Request, rawIndex string) {
	viewer, index, ok := h.indexed(w, r, rawIndex)
	if !ok {
		return
	}
	h.mutate(w, r, viewer, http.StatusOK, h.API.SwitchPreset(r.Context(), commands.PresetIndexInput{Viewer: viewer, Index: index}))
}

func (h *Handlers) HandleImportPresets(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	var payload commands.ImportPresetsInput
	if !decode(w, r, &payload) {
		return
	}
	payload.Viewer = viewer
	h.mutate(w, r, viewer, http.StatusOK, h.API.ImportPresets(r.Context(), payload))
}

func (h *Handlers) HandleReloadPresets(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	h.mutate(w, r, viewer, http.StatusOK, h.API.ReloadPresets(r.Context(), commands.ViewerInput{Viewer: viewer}))
}

func (h *Handlers) HandleWidgets(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	if h.Widgets == nil {
		h.fail(w, errCommandUnavailable)
		return
	}
	widgets, err := h.Widgets.Query(r.Context(), viewer)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, widgets)
}

func (h *Handlers) HandleAddWidget(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	var payload commands.WidgetInput
	if !decode(w, r, &payload) {
		return
	}
	payload.Viewer = viewer
	h.mutate(w, r, viewer, http.StatusCreated, h.API.AddWidget(r.Context(), payload))
}

func (h *Handlers) HandleRemoveWidget(w http.ResponseWriter, r *http.Request, widgetID string) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	h.mutate(w, r, viewer, http.StatusOK, h.API.RemoveWidget(r.Context(), commands.WidgetInput{Viewer: viewer, WidgetID: widgetID}))
}

func (h *Handlers) HandleLockWidget(w http.ResponseWriter, r *http.Request, widgetID string) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	var payload commands.LockWidgetInput
	if !decode(w, r, &payload) {
		return
	}
	payload.Viewer = viewer
	payload.WidgetID = widgetID
	h.mutate(w, r, viewer, http.StatusOK, h.API.LockWidget(r.Context(), payload))
}

func (h *Handlers) HandleSaveLayout(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	var payload commands.SaveLayoutInput
	if !decode(w, r, &payload) {
		return
	}
	payload.Viewer = viewer
	h.mutate(w, r, viewer, http.StatusOK, h.API.SaveLayout(r.Context(), payload))
}

func (h *Handlers) HandleDiscardChanges(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	h.mutate(w, r, viewer, http.StatusOK, h.API.DiscardChanges(r.Context(), commands.ViewerInput{Viewer: viewer}))
}

func (h *Handlers) HandleToggleCycle(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	h.mutate(w, r, viewer, http.StatusOK, h.API.ToggleCycle(r.Context(), commands.ViewerInput{Viewer: viewer}))
}

func (h *Handlers) HandleSetCycleInterval(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	var payload commands.CycleIntervalInput
	if !decode(w, r, &payload) {
		return
	}
	payload.Viewer = viewer
	h.mutate(w, r, viewer, http.StatusOK, h.API.SetCycleInterval(r.Context(), payload))
}

func (h *Handlers) indexed(w http.ResponseWriter, r *http.Request, rawIndex string) (dashboard.ViewerContext, int, bool) {
	index, err := strconv.Atoi(rawIndex)
	if err != nil {
		http.Error(w, "preset index must be an integer", http.StatusBadRequest)
		return dashboard.ViewerContext{}, 0, false
	}
	viewer, ok := h.viewer(w, r)
	return viewer, index, ok
}

func (h *Handlers) mutate(w http.ResponseWriter, r *http.Request, viewer dashboard.ViewerContext, status int, err error) {
	if err != nil {
		h.fail(w, err)
		return
	}
	if h.Snapshot == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.respondSnapshot(w, r, viewer, status)
}

func (h *Handlers) respondSnapshot(w http.ResponseWriter, r *http.Request, viewer dashboard.ViewerContext, status int) {
	if h.Snapshot == nil {
		h.fail(w, errCommandUnavailable)
		return
	}
	snap, err := h.Snapshot.Query(r.Context(), viewer)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, status, snap)
}

func (h *Handlers) fail(w http.ResponseWriter, err error) {
	status := StatusForError(err)
	if status >= http.StatusInternalServerError && h.Logger != nil {
		h.Logger.Error("httpapi: request failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decode(w http.ResponseWriter, r *http.Request, into any) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
