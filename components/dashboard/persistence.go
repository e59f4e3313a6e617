package dashboard

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Storage keys shared with the browser build of the portal.
const (
	PresetsStorageKey       = "dashboard-presets"
	CycleSettingsStorageKey = "dashboard-cycle-settings"
)

// InMemoryKeyValueStore is a concurrency-safe KeyValueStore used by default and in tests.
type InMemoryKeyValueStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewInMemoryKeyValueStore creates an empty store.
func NewInMemoryKeyValueStore() *InMemoryKeyValueStore {
	return &InMemoryKeyValueStore{
		data: make(map[string][]byte),
	}
}

// Get implements KeyValueStore.
func (s *InMemoryKeyValueStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

// Set implements KeyValueStore.
func (s *InMemoryKeyValueStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return nil
}

// EncodePresets renders a preset list in the persisted document shape.
func EncodePresets(presets []Preset) ([]byte, error) {
	out := make([]Preset, len(presets))
	for i, p := range presets {
		out[i] = p.Clone()
	}
	return json.Marshal(out)
}

// DecodePresets parses and validates a persisted preset document. Empty documents decode
// to ErrNoPresets.
func DecodePresets(data []byte, validator DocumentValidator) ([]Preset, error) {
	if validator == nil {
		validator = noopDocumentValidator{}
	}
	if err := validator.ValidatePresets(data); err != nil {
		return nil, err
	}
	var presets []Preset
	if err := json.Unmarshal(data, &presets); err != nil {
		return nil, err
	}
	if len(presets) == 0 {
		return nil, ErrNoPresets
	}
	for i := range presets {
		presets[i] = normalizePreset(presets[i])
	}
	return presets, nil
}

func normalizePreset(p Preset) Preset {
	if p.Widgets == nil {
		p.Widgets = []string{}
	}
	p.Layouts = SanitizeLayouts(p.Layouts)
	p.LockedWidgets = sanitizeLocked(p.LockedWidgets)
	p.ExpandedSizes = sanitizeSizes(p.ExpandedSizes)
	return p
}

func (s *PresetStore) loadPresets(ctx context.Context) []Preset {
	data, ok, err := s.storage.Get(ctx, PresetsStorageKey)
	if err != nil {
		s.logger.Warn("dashboard: read presets failed", zap.String("key", PresetsStorageKey), zap.Error(err))
		return nil
	}
	if !ok || len(data) == 0 {
		return nil
	}
	presets, err := DecodePresets(data, s.validator)
	if err != nil {
		s.logger.Warn("dashboard: discarding persisted presets", zap.String("key", PresetsStorageKey), zap.Error(err))
		return nil
	}
	return presets
}

func (s *PresetStore) loadCycleSettings(ctx context.Context) (CycleSettings, bool) {
	data, ok, err := s.storage.Get(ctx, CycleSettingsStorageKey)
	if err != nil {
		s.logger.Warn("dashboard: read cycle settings failed", zap.String("key", CycleSettingsStorageKey), zap.Error(err))
		return CycleSettings{}, false
	}
	if !ok || len(data) == 0 {
		return CycleSettings{}, false
	}
	if err := s.validator.ValidateCycleSettings(data); err != nil {
		s.logger.Warn("dashboard: discarding persisted cycle settings", zap.String("key", CycleSettingsStorageKey), zap.Error(err))
		return CycleSettings{}, false
	}
	var settings CycleSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		s.logger.Warn("dashboard: discarding persisted cycle settings", zap.String("key", CycleSettingsStorageKey), zap.Error(err))
		return CycleSettings{}, false
	}
	return settings, true
}

// savePresetsLocked writes the committed preset list. A document the loader would reject
// is never written. Failures are logged only.
func (s *PresetStore) savePresetsLocked(ctx context.Context) {
	data, err := EncodePresets(s.presets)
	if err != nil {
		s.logger.Warn("dashboard: encode presets failed", zap.String("key", PresetsStorageKey), zap.Error(err))
		return
	}
	if err := s.validator.ValidatePresets(data); err != nil {
		s.logger.Warn("dashboard: refusing to write invalid presets", zap.String("key", PresetsStorageKey), zap.Error(err))
		return
	}
	if err := s.storage.Set(ctx, PresetsStorageKey, data); err != nil {
		s.logger.Warn("dashboard: write presets failed", zap.String("key", PresetsStorageKey), zap.Error(err))
	}
}

func (s *PresetStore) saveCycleSettingsLocked(ctx context.Context) {
	data, err := json.Marshal(CycleSettings{Interval: s.cycleInterval, Enabled: s.isCycling})
	if err != nil {
		s.logger.Warn("dashboard: encode cycle settings failed", zap.String("key", CycleSettingsStorageKey), zap.Error(err))
		return
	}
	if err := s.storage.Set(ctx, CycleSettingsStorageKey, data); err != nil {
		s.logger.Warn("dashboard: write cycle settings failed", zap.String("key", CycleSettingsStorageKey), zap.Error(err))
	}
}
