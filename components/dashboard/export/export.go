// Package export moves preset lists in and out of the portal as portable documents.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	dashboard "github.com/goliatone/go-portal-dashboard/components/dashboard"
)

// DocumentVersion is the current export format version.
const DocumentVersion = "1"

// Format names an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

var (
	// ErrUnknownFormat reports an encoding that is not json, yaml or toml.
	ErrUnknownFormat = errors.New("export: unknown format")
	// ErrUnsupportedVersion reports a document written by a newer format.
	ErrUnsupportedVersion = errors.New("export: unsupported document version")
)

// Document is the exported form of a preset list.
type Document struct {
	Version    string                   `json:"version" yaml:"version" toml:"version"`
	ExportedAt time.Time                `json:"exportedAt,omitempty" yaml:"exported_at,omitempty" toml:"exported_at,omitempty"`
	Cycle      *dashboard.CycleSettings `json:"cycle,omitempty" yaml:"cycle,omitempty" toml:"cycle,omitempty"`
	Presets    []dashboard.Preset       `json:"presets" yaml:"presets" toml:"presets"`
}

// NewDocument captures the presets and cycle settings of a snapshot.
func NewDocument(snap dashboard.Snapshot, now time.Time) Document {
	presets := make([]dashboard.Preset, len(snap.Presets))
	for i, p := range snap.Presets {
		presets[i] = p.Clone()
	}
	return Document{
		Version:    DocumentVersion,
		ExportedAt: now.UTC(),
		Cycle:      &dashboard.CycleSettings{Interval: snap.CycleInterval, Enabled: snap.IsCycling},
		Presets:    presets,
	}
}

// ParseFormat accepts a format name, case-insensitively. "yml" maps to yaml.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Encode renders doc in format.
func Encode(doc Document, format Format) ([]byte, error) {
	if doc.Version == "" {
		doc.Version = DocumentVersion
	}
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("export: encode JSON: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("export: encode YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("export: encode YAML: %w", err)
		}
		return buf.Bytes(), nil
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
			return nil, fmt.Errorf("export: encode TOML: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Decode parses data in format and validates the presets with the same schema the store
// applies to its persisted document.
func Decode(data []byte, format Format) (Document, error) {
	var doc Document
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return Document{}, fmt.Errorf("export: parse JSON: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return Document{}, fmt.Errorf("export: parse YAML: %w", err)
		}
	case FormatTOML:
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return Document{}, fmt.Errorf("export: parse TOML: %w", err)
		}
	default:
		return Document{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if doc.Version == "" {
		doc.Version = DocumentVersion
	}
	if doc.Version != DocumentVersion {
		return Document{}, fmt.Errorf("%w: %q", ErrUnsupportedVersion, doc.Version)
	}
	presets, err := validatePresets(doc.Presets)
	if err != nil {
		return Document{}, err
	}
	doc.Presets = presets
	if doc.Cycle != nil {
		doc.Cycle.Interval = dashboard.ClampCycleInterval(doc.Cycle.Interval)
	}
	return doc, nil
}

func validatePresets(presets []dashboard.Preset) ([]dashboard.Preset, error) {
	raw, err := dashboard.EncodePresets(presets)
	if err != nil {
		return nil, fmt.Errorf("export: encode presets: %w", err)
	}
	out, err := dashboard.DecodePresets(raw, dashboard.NewJSONSchemaValidator())
	if err != nil {
		return nil, fmt.Errorf("export: invalid presets: %w", err)
	}
	return out, nil
}
