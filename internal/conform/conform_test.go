package conform

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var calcSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"a": {"type": "number"},
		"b": {"type": "number"},
		"op": {"type": "string", "enum": ["add", "sub", "mul", "div"]}
	},
	"required": ["a", "b", "op"],
	"additionalProperties": false
}`)

func TestArgumentsValid(t *testing.T) {
	err := Arguments(calcSchema, map[string]any{"a": 2.0, "b": 3.0, "op": "add"})
	assert.NoError(t, err)
}

func TestArgumentsMissingRequiredFieldNamed(t *testing.T) {
	err := Arguments(calcSchema, map[string]any{"a": 2.0, "op": "add"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b")
}

func TestArgumentsUndeclaredFieldRejected(t *testing.T) {
	err := Arguments(calcSchema, map[string]any{"a": 2.0, "b": 3.0, "op": "add", "bogus": 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected arguments: bogus")
}

func TestArgumentsUndeclaredRejectedWithoutAdditionalProperties(t *testing.T) {
	// Schema never set additionalProperties; extra fields are still
	// rejected rather than coerced.
	schema := json.RawMessage(`{
		"type": "object",
		"properties": {"x": {"type": "string"}}
	}`)

	err := Arguments(schema, map[string]any{"x": "ok", "y": "extra"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected arguments: y")
}

func TestArgumentsWrongTypeRejected(t *testing.T) {
	err := Arguments(calcSchema, map[string]any{"a": "two", "b": 3.0, "op": "add"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid arguments")
}

func TestArgumentsEnumViolationRejected(t *testing.T) {
	err := Arguments(calcSchema, map[string]any{"a": 2.0, "b": 3.0, "op": "pow"})
	require.Error(t, err)
}

func TestArgumentsEmptySchemaAcceptsAnything(t *testing.T) {
	assert.NoError(t, Arguments(nil, map[string]any{"anything": true}))
}

func TestArgumentsNilArgs(t *testing.T) {
	schema := json.RawMessage(`{"type": "object", "properties": {"x": {"type": "string"}}}`)
	assert.NoError(t, Arguments(schema, nil))

	err := Arguments(calcSchema, nil)
	require.Error(t, err, "nil args still fail required-field checks")
}
