// Package conform checks tool arguments against a tool's declared JSON
// Schema. It is shared by the heuristic validator (pre-execution rule) and
// the sandboxed executor (last line of defense before dispatch).
package conform

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Arguments validates args against the schema. The returned error names
// the first offending field. Arguments not declared in the schema's
// properties are rejected even when the schema does not set
// additionalProperties, so unschematized fields never reach a tool.
func Arguments(schema json.RawMessage, args map[string]any) error {
	if len(schema) == 0 {
		return nil
	}

	if err := rejectUndeclared(schema, args); err != nil {
		return err
	}

	if args == nil {
		args = map[string]any{}
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schema),
		gojsonschema.NewGoLoader(args),
	)
	if err != nil {
		return fmt.Errorf("schema check failed: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, len(result.Errors()))
		for i, e := range result.Errors() {
			msgs[i] = e.String()
		}
		return fmt.Errorf("invalid arguments: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// schemaShape is the subset of a schema document the undeclared-field
// check needs.
type schemaShape struct {
	Properties           map[string]json.RawMessage `json:"properties"`
	AdditionalProperties *bool                      `json:"additionalProperties"`
}

func rejectUndeclared(schema json.RawMessage, args map[string]any) error {
	var shape schemaShape
	if err := json.Unmarshal(schema, &shape); err != nil {
		return fmt.Errorf("unreadable tool schema: %w", err)
	}
	if len(shape.Properties) == 0 {
		return nil
	}
	if shape.AdditionalProperties != nil && *shape.AdditionalProperties {
		return nil
	}

	var extra []string
	for k := range args {
		if _, ok := shape.Properties[k]; !ok {
			extra = append(extra, k)
		}
	}
	if len(extra) == 0 {
		return nil
	}
	sort.Strings(extra)
	return fmt.Errorf("unexpected arguments: %s", strings.Join(extra, ", "))
}
