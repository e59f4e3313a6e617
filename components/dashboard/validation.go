package dashboard

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// DocumentValidator checks persisted documents before the store trusts them.
type DocumentValidator interface {
	ValidatePresets(data []byte) error
	ValidateCycleSettings(data []byte) error
}

const presetsSchemaName = "dashboard-presets.json"

const presetsSchema = `{
  "type": "array",
  "definitions": {
    "entry": {
      "type": "object",
      "required": ["i", "x", "y", "w", "h"],
      "properties": {
        "i": {"type": "string", "minLength": 1},
        "x": {"type": "integer", "minimum": 0},
        "y": {"type": "integer", "minimum": 0},
        "w": {"type": "integer", "minimum": 1},
        "h": {"type": "integer", "minimum": 1},
        "minW": {"type": "integer", "minimum": 0},
        "minH": {"type": "integer", "minimum": 0},
        "maxW": {"type": "integer", "minimum": 0},
        "maxH": {"type": "integer", "minimum": 0},
        "static": {"type": "boolean"}
      }
    },
    "size": {
      "type": "object",
      "required": ["w", "h"],
      "properties": {
        "w": {"type": "integer", "minimum": 1},
        "h": {"type": "integer", "minimum": 1}
      }
    }
  },
  "items": {
    "type": "object",
    "required": ["id", "widgets"],
    "properties": {
      "id": {"type": "string", "minLength": 1},
      "name": {"type": "string"},
      "widgets": {"type": ["array", "null"], "items": {"type": "string"}},
      "layouts": {
        "type": ["object", "null"],
        "propertyNames": {"enum": ["lg", "md", "sm", "xs", "xxs"]},
        "additionalProperties": {"type": ["array", "null"], "items": {"$ref": "#/definitions/entry"}}
      },
      "lockedWidgets": {
        "type": ["object", "null"],
        "additionalProperties": {
          "type": "object",
          "required": ["w", "h"],
          "properties": {
            "w": {"type": "integer", "minimum": 1},
            "h": {"type": "integer", "minimum": 1},
            "expanded": {"type": "boolean"}
          }
        }
      },
      "expandedSizes": {
        "type": ["object", "null"],
        "additionalProperties": {"$ref": "#/definitions/size"}
      }
    }
  }
}`

const cycleSchemaName = "dashboard-cycle-settings.json"

const cycleSchema = `{
  "type": "object",
  "required": ["interval", "enabled"],
  "properties": {
    "interval": {"type": "integer"},
    "enabled": {"type": "boolean"}
  }
}`

// JSONSchemaValidator validates persisted documents against embedded JSON schemas.
type JSONSchemaValidator struct {
	once    sync.Once
	err     error
	presets *jsonschema.Schema
	cycle   *jsonschema.Schema
}

// NewJSONSchemaValidator builds a validator backed by jsonschema v5.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{}
}

// ValidatePresets implements DocumentValidator.
func (v *JSONSchemaValidator) ValidatePresets(data []byte) error {
	if err := v.compile(); err != nil {
		return err
	}
	return validateDocument(v.presets, presetsSchemaName, data)
}

// ValidateCycleSettings implements DocumentValidator.
func (v *JSONSchemaValidator) ValidateCycleSettings(data []byte) error {
	if err := v.compile(); err != nil {
		return err
	}
	return validateDocument(v.cycle, cycleSchemaName, data)
}

func (v *JSONSchemaValidator) compile() error {
	v.once.Do(func() {
		v.presets, v.err = compileSchema(presetsSchemaName, presetsSchema)
		if v.err != nil {
			return
		}
		v.cycle, v.err = compileSchema(cycleSchemaName, cycleSchema)
	})
	return v.err
}

func compileSchema(name, source string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(source)); err != nil {
		return nil, fmt.Errorf("dashboard: load schema %s: %w", name, err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("dashboard: compile schema %s: %w", name, err)
	}
	return compiled, nil
}

func validateDocument(schema *jsonschema.Schema, name string, data []byte) error {
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("dashboard: parse %s: %w", name, err)
	}
	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("dashboard: %s failed validation: %w", name, err)
	}
	return nil
}

type noopDocumentValidator struct{}

func (noopDocumentValidator) ValidatePresets([]byte) error       { return nil }
func (noopDocumentValidator) ValidateCycleSettings([]byte) error { return nil }
