package dashboard

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ManifestVersion is the only manifest format understood by ParseManifest.
const ManifestVersion = "1"

// Manifest is a YAML widget pack extending the catalog. A non-empty Defaults list replaces
// the seed widget set of new presets.
type Manifest struct {
	Version  string          `json:"version" yaml:"version"`
	Name     string          `json:"name,omitempty" yaml:"name,omitempty"`
	Package  string          `json:"package,omitempty" yaml:"package,omitempty"`
	Widgets  []ManifestEntry `json:"widgets" yaml:"widgets"`
	Defaults []string        `json:"defaults,omitempty" yaml:"defaults,omitempty"`
	// Source is the file the manifest was read from.
	Source string `json:"-" yaml:"-"`
}

// ManifestEntry is one widget of a manifest.
type ManifestEntry struct {
	Definition  WidgetDefinition `json:"definition" yaml:"definition"`
	Maintainers []string         `json:"maintainers,omitempty" yaml:"maintainers,omitempty"`
	Tags        []string         `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// OpenManifest parses the manifest at path.
func OpenManifest(path string) (*Manifest, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("dashboard: open manifest: %w", err)
	}
	defer f.Close()
	m, err := ParseManifest(f)
	if err != nil {
		return nil, fmt.Errorf("dashboard: manifest %s: %w", path, err)
	}
	m.Source = path
	return m, nil
}

// ParseManifest decodes and validates a manifest. Unknown YAML fields are rejected.
func ParseManifest(r io.Reader) (*Manifest, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	m := &Manifest{}
	switch err := dec.Decode(m); {
	case errors.Is(err, io.EOF):
		return nil, fmt.Errorf("%w: empty document", ErrInvalidManifest)
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	if m.Version == "" {
		m.Version = ManifestVersion
	}
	for i := range m.Widgets {
		def := &m.Widgets[i].Definition
		if def.MinSize == (Size{}) {
			def.MinSize = Size{W: 1, H: 1}
		}
		if def.MaxSize == (Size{}) {
			def.MaxSize = Size{W: gridColumns, H: def.DefaultSize.H}
		}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate reports every problem of the manifest at once, wrapped in ErrInvalidManifest.
func (m *Manifest) Validate() error {
	var problems []error
	if m.Version != ManifestVersion {
		problems = append(problems, fmt.Errorf("unsupported manifest version %q", m.Version))
	}
	ids := make(map[string]bool, len(m.Widgets))
	for i, w := range m.Widgets {
		def := w.Definition
		if def.ID == "" {
			problems = append(problems, fmt.Errorf("widget #%d is missing definition.id", i))
			continue
		}
		if ids[def.ID] {
			problems = append(problems, fmt.Errorf("manifest duplicates widget id %s", def.ID))
		}
		ids[def.ID] = true
		if def.Name == "" {
			problems = append(problems, fmt.Errorf("%s: missing definition.name", def.ID))
		}
		if def.Component == "" {
			problems = append(problems, fmt.Errorf("%s: missing definition.component", def.ID))
		}
		problems = append(problems, checkSizes(def)...)
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidManifest, errors.Join(problems...))
}

func checkSizes(def WidgetDefinition) []error {
	d := def.DefaultSize
	switch {
	case d.W <= 0 || d.H <= 0:
		return []error{fmt.Errorf("%s: default_size must be positive", def.ID)}
	case d.W > gridColumns:
		return []error{fmt.Errorf("%s: default_size.w exceeds %d columns", def.ID, gridColumns)}
	}
	var out []error
	if def.MinSize.W > d.W || def.MinSize.H > d.H {
		out = append(out, fmt.Errorf("%s: min_size exceeds default_size", def.ID))
	}
	if def.MaxSize.W < d.W || def.MaxSize.H < d.H {
		out = append(out, fmt.Errorf("%s: max_size is smaller than default_size", def.ID))
	}
	return out
}

// Install registers the widgets of m and applies its Defaults. Defaults naming a widget
// that is not registered leave the seed set unchanged.
func (r *Registry) Install(m *Manifest) error {
	if m == nil {
		return fmt.Errorf("%w: nil manifest", ErrInvalidManifest)
	}
	for _, w := range m.Widgets {
		if err := r.RegisterDefinition(w.Definition); err != nil {
			return fmt.Errorf("dashboard: install %s from %q: %w", w.Definition.ID, m.Source, err)
		}
	}
	if len(m.Defaults) == 0 {
		return nil
	}
	for _, id := range m.Defaults {
		if _, _, ok := r.Resolve(id); !ok {
			return fmt.Errorf("%w: default widget %s is not registered", ErrInvalidManifest, id)
		}
	}
	r.SetDefaultWidgetIDs(m.Defaults)
	return nil
}

// InstallFile opens the manifest at path and installs it.
func (r *Registry) InstallFile(path string) (*Manifest, error) {
	m, err := OpenManifest(path)
	if err != nil {
		return nil, err
	}
	if err := r.Install(m); err != nil {
		return nil, err
	}
	return m, nil
}
