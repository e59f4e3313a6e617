package dashboard

import (
	"net/url"
	"strconv"
	"sync"
)

// URL query parameters mirrored from store state.
const (
	QueryParamPreset = "preset"
	QueryParamCycle  = "cycle"
)

// HistoryURL is a URLState over an in-memory URL, the server-side analogue of browser
// history replacement.
type HistoryURL struct {
	mu  sync.RWMutex
	url url.URL
}

// NewHistoryURL parses raw into a HistoryURL.
func NewHistoryURL(raw string) (*HistoryURL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &HistoryURL{url: *u}, nil
}

// Query implements URLState.
func (h *HistoryURL) Query() map[string][]string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.url.Query()
}

// ReplaceQuery implements URLState.
func (h *HistoryURL) ReplaceQuery(values map[string][]string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.url.RawQuery = url.Values(values).Encode()
}

// String returns the current URL.
func (h *HistoryURL) String() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.url.String()
}

type noopURLState struct{}

func (noopURLState) Query() map[string][]string       { return nil }
func (noopURLState) ReplaceQuery(map[string][]string) {}

type urlParams struct {
	presetIndex int
	hasPreset   bool
	cycle       bool
}

func readURLParams(state URLState) urlParams {
	values := url.Values(state.Query())
	var params urlParams
	if raw := values.Get(QueryParamPreset); raw != "" {
		if idx, err := strconv.Atoi(raw); err == nil {
			params.presetIndex = idx
			params.hasPreset = true
		}
	}
	params.cycle = values.Get(QueryParamCycle) == "true"
	return params
}

// syncURLLocked mirrors the active index and cycle flag into the query string, leaving
// unrelated parameters alone.
func (s *PresetStore) syncURLLocked() {
	values := url.Values(s.url.Query())
	if values == nil {
		values = url.Values{}
	}
	next := make(url.Values, len(values))
	for k, v := range values {
		next[k] = append([]string(nil), v...)
	}
	if s.activeIndex > 0 {
		next.Set(QueryParamPreset, strconv.Itoa(s.activeIndex))
	} else {
		next.Del(QueryParamPreset)
	}
	if s.isCycling {
		next.Set(QueryParamCycle, "true")
	} else {
		next.Del(QueryParamCycle)
	}
	if values.Encode() == next.Encode() {
		return
	}
	s.url.ReplaceQuery(next)
}
