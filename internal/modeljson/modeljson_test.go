package modeljson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"fenced without language", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding prose", `Here is the result: {"a": 1} hope that helps!`, `{"a": 1}`},
		{"nested braces", `{"a": {"b": 2}}`, `{"a": {"b": 2}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Extract(tt.raw)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(doc))
		})
	}
}

func TestExtractNoDocument(t *testing.T) {
	_, err := Extract("I could not produce a plan, sorry.")
	assert.ErrorIs(t, err, ErrNoDocument)
}

func TestExtractMalformed(t *testing.T) {
	_, err := Extract(`{"a": unterminated}`)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoDocument)
}
