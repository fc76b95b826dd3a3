package llm

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Schema is the subset of JSON schema used for tool parameters and
// structured outputs.
type Schema struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Minimum     *float64 `json:"minimum,omitempty"`
	Maximum     *float64 `json:"maximum,omitempty"`

	Items                *Schema            `json:"items,omitempty"`
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	AdditionalProperties *bool              `json:"additionalProperties,omitempty"`
}

// Object creates an object schema. Objects reject additional properties,
// which strict structured outputs require.
func Object(description string) *Schema {
	closed := false
	return &Schema{Type: "object", Description: description, AdditionalProperties: &closed}
}

// Array creates an array schema.
func Array(description string) *Schema { return &Schema{Type: "array", Description: description} }

// String creates a string schema.
func String(description string) *Schema { return &Schema{Type: "string", Description: description} }

// Number creates a number schema.
func Number(description string) *Schema { return &Schema{Type: "number", Description: description} }

// Integer creates an integer schema.
func Integer(description string) *Schema { return &Schema{Type: "integer", Description: description} }

// Boolean creates a boolean schema.
func Boolean(description string) *Schema { return &Schema{Type: "boolean", Description: description} }

// Null creates a null schema.
func Null(description string) *Schema { return &Schema{Type: "null", Description: description} }

// Property adds an object property, recording it as required when asked.
func (s *Schema) Property(name string, prop *Schema, required bool) *Schema {
	if s.Properties == nil {
		s.Properties = make(map[string]*Schema)
	}
	s.Properties[name] = prop
	if required && !s.isRequired(name) {
		s.Required = append(s.Required, name)
	}
	return s
}

// RequiredProperty adds a required object property.
func (s *Schema) RequiredProperty(name string, prop *Schema) *Schema {
	return s.Property(name, prop, true)
}

// OptionalProperty adds an optional object property.
func (s *Schema) OptionalProperty(name string, prop *Schema) *Schema {
	return s.Property(name, prop, false)
}

// WithItems sets the array items schema.
func (s *Schema) WithItems(items *Schema) *Schema {
	s.Items = items
	return s
}

// WithEnum sets the allowed string values.
func (s *Schema) WithEnum(values ...string) *Schema {
	s.Enum = values
	return s
}

// WithMinimum sets the minimum number value.
func (s *Schema) WithMinimum(min float64) *Schema {
	s.Minimum = &min
	return s
}

// WithMaximum sets the maximum number value.
func (s *Schema) WithMaximum(max float64) *Schema {
	s.Maximum = &max
	return s
}

func (s *Schema) isRequired(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

// SchemaFor reflects a Go value into a Schema using its json and jsonschema
// struct tags. Keywords outside the Schema subset are dropped.
func SchemaFor(v any) (*Schema, error) {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}

	data, err := json.Marshal(r.Reflect(v))
	if err != nil {
		return nil, fmt.Errorf("could not marshal reflected schema: %w", err)
	}

	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("could not convert reflected schema: %w", err)
	}
	return &s, nil
}
