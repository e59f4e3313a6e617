package dashboard

import "errors"

var (
	// ErrNoPresets reports a persisted preset document with no entries.
	ErrNoPresets = errors.New("dashboard: preset document is empty")
	// ErrPresetRejected reports an operation the store declined (capacity, last preset,
	// out of range index, persistent widget).
	ErrPresetRejected = errors.New("dashboard: preset operation rejected")
	// ErrInvalidManifest reports a widget manifest that failed to parse or validate.
	ErrInvalidManifest = errors.New("dashboard: invalid widget manifest")
	// ErrStoreClosed reports use of a closed store.
	ErrStoreClosed = errors.New("dashboard: preset store closed")
)
