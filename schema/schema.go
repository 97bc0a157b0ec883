// Package schema provides a fluent builder for the JSON Schema documents
// that describe tool input arguments.
//
// Local tool providers declare each tool's input shape with the builders
// here; the heuristic validator and the sandboxed executor then check
// model-proposed arguments against the built schema before any tool runs.
//
//	input := schema.Object().
//	    Field("a", schema.Number().Desc("first operand").Required()).
//	    Field("b", schema.Number().Desc("second operand").Required()).
//	    Field("op", schema.String().Enum("add", "sub", "mul", "div").Required()).
//	    Strict().
//	    MustBuild()
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Builder is implemented by all schema builders.
type Builder interface {
	// Build serializes the schema to json.RawMessage, checking internal
	// consistency first.
	Build() (json.RawMessage, error)

	// MustBuild is like Build but panics on error.
	MustBuild() json.RawMessage

	// schema exposes the internal node for composition.
	schema() *node
}

// node is the internal JSON Schema representation.
type node struct {
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
	Enum        []any  `json:"enum,omitempty"`
	Default     any    `json:"default,omitempty"`

	Minimum *float64 `json:"minimum,omitempty"`
	Maximum *float64 `json:"maximum,omitempty"`

	Properties           map[string]*node `json:"properties,omitempty"`
	Required             []string         `json:"required,omitempty"`
	AdditionalProperties *bool            `json:"additionalProperties,omitempty"`
}

// ErrInvalidRange is returned when a minimum exceeds a maximum.
var ErrInvalidRange = errors.New("schema: minimum exceeds maximum")

func (n *node) validate() error {
	switch n.Type {
	case "integer", "number":
		if n.Minimum != nil && n.Maximum != nil && *n.Minimum > *n.Maximum {
			return ErrInvalidRange
		}
	case "object":
		for name, prop := range n.Properties {
			if err := prop.validate(); err != nil {
				return fmt.Errorf("schema: field %q: %w", name, err)
			}
		}
	}
	return nil
}

func ptr[T any](v T) *T { return &v }
