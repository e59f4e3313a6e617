package storage

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	dashboard "github.com/goliatone/go-portal-dashboard/components/dashboard"
)

// Drivers accepted by Open.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Options selects and configures a backend.
type Options struct {
	Driver string
	Path   string
	Logger *zap.Logger
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the backend named by opts.Driver. The returned closer releases it.
func Open(opts Options) (dashboard.KeyValueStore, io.Closer, error) {
	switch opts.Driver {
	case "", DriverMemory:
		return dashboard.NewInMemoryKeyValueStore(), nopCloser{}, nil
	case DriverFile:
		store, err := NewFileStore(opts.Path, opts.Logger)
		if err != nil {
			return nil, nil, err
		}
		return store, nopCloser{}, nil
	case DriverSQLite:
		store, err := OpenSQLite(opts.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("storage: unknown driver %q", opts.Driver)
	}
}
